// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// setupTracing wires a real sdktrace.TracerProvider so the spans the
// capture pipeline opens (see capture.go's "sentinel.capture" span) are
// real recorded spans rather than the global no-op provider's discards.
//
// By default spans are exported to a stdouttrace exporter writing to
// io.Discard: exercised, but silent, so a plain CLI invocation produces
// no extra output. Setting SENTINEL_OTEL_STDOUT=1 redirects the exporter
// to stderr for local trace inspection without standing up a collector.
func setupTracing() (shutdown func(context.Context) error, err error) {
	w := io.Discard
	if os.Getenv("SENTINEL_OTEL_STDOUT") != "" {
		w = os.Stderr
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithoutTimestamps())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String("sentinel")))
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
