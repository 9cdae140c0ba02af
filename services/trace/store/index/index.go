// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package index is a rebuildable Badger-backed accelerator over the JSON
// trace tree: trace_id -> relative file path, and (model, provider) ->
// blessed trace_id. It is never the source of truth. Losing it, deleting
// it, or feeding it stale data costs nothing worse than a slower Get or
// GetGolden that falls back to a filesystem scan; see the Index interface
// in package store.
package index

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/sentinel/services/trace"
)

const (
	traceKeyPrefix  = "trace:"
	goldenKeyPrefix = "golden:"
)

// Index is a Badger-backed implementation of store.Index.
type Index struct {
	db *badger.DB
}

// Open opens (creating if absent) a Badger database at dir.
func Open(dir string) (*Index, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying Badger handles.
func (i *Index) Close() error {
	return i.db.Close()
}

func traceKey(traceID string) []byte {
	return []byte(traceKeyPrefix + traceID)
}

func goldenKey(model, provider string) []byte {
	return []byte(goldenKeyPrefix + provider + ":" + model)
}

// Put records traceID's file location and, if the trace is blessed,
// updates the golden pointer for its (model, provider) pair.
func (i *Index) Put(t trace.Trace, relPath string) error {
	return i.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(traceKey(t.TraceID), []byte(relPath)); err != nil {
			return err
		}
		if t.Blessed {
			if err := txn.Set(goldenKey(t.Request.Model, t.Request.Provider), []byte(t.TraceID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes traceID's location entry. Golden pointers are left
// alone; a dangling golden pointer is resolved at lookup time by the
// caller falling back to a full scan when Get on the pointed-to id fails.
func (i *Index) Delete(traceID string) error {
	return i.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(traceKey(traceID))
	})
}

// Lookup returns the relative file path for traceID, if indexed.
func (i *Index) Lookup(traceID string) (string, bool) {
	var path string
	err := i.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(traceKey(traceID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			path = string(val)
			return nil
		})
	})
	return path, err == nil
}

// LookupGolden returns the blessed trace id for (model, provider), if
// indexed.
func (i *Index) LookupGolden(model, provider string) (string, bool) {
	var id string
	err := i.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(goldenKey(model, provider))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	return id, err == nil
}

// Rebuild repopulates golden pointers from a full trace listing (the
// caller scans the store, e.g. via FileStore.List, and passes the
// result here). trace_id -> path entries are not recoverable from a
// trace alone; they populate lazily as FileStore.Save is called, and Get
// transparently falls back to a filesystem scan for any trace_id Rebuild
// did not restore.
func (i *Index) Rebuild(traces []trace.Trace) error {
	return i.db.Update(func(txn *badger.Txn) error {
		for _, t := range traces {
			if !t.Blessed {
				continue
			}
			if err := txn.Set(goldenKey(t.Request.Model, t.Request.Provider), []byte(t.TraceID)); err != nil {
				return err
			}
		}
		return nil
	})
}
