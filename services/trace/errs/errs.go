// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package errs defines the sentinel error kinds shared across the trace
// packages, so callers can distinguish them with errors.Is regardless of
// which layer wrapped them.
package errs

import "errors"

var (
	// ErrInput marks a malformed request to the core: an unknown execution
	// id, a missing trace id, or an empty trace list handed to the graph
	// builder. Never persisted.
	ErrInput = errors.New("input error")

	// ErrProvider marks a failure returned by the opaque provider callable.
	ErrProvider = errors.New("provider error")

	// ErrStore marks an I/O or parse failure in the store.
	ErrStore = errors.New("store error")

	// ErrIntegrity marks a failed snapshot hash verification.
	ErrIntegrity = errors.New("integrity error")

	// ErrNotFound marks a lookup that found nothing. Not every layer
	// returns this as an error; Store.Get returns (nil, nil) on a miss,
	// reserving ErrNotFound for operations where absence is exceptional
	// (e.g. bless targeting an unknown trace id).
	ErrNotFound = errors.New("not found")

	// ErrAlreadyBlessed marks a bless() call that would violate the
	// at-most-one-blessed-trace-per-(model,provider) invariant without the
	// force flag.
	ErrAlreadyBlessed = errors.New("a different trace is already blessed for this model/provider")
)
