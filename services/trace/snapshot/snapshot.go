// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package snapshot seals an ExecutionGraph into an integrity-hashed,
// timestamped record and exports it to JSON.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/AleutianAI/sentinel/services/trace/graph"
)

// canonical is the JSON-stable record ComputeHash hashes: exactly the
// fields enumerated in SPEC_FULL.md §4.7, explicitly excluding
// snapshot_at and integrity_hash to avoid self-reference.
type canonical struct {
	ExecutionID    string        `json:"execution_id"`
	CreatedAt      string        `json:"created_at"`
	Nodes          []graph.Node  `json:"nodes"`
	Edges          []graph.Edge  `json:"edges"`
	RootNodeID     string        `json:"root_node_id"`
	TotalLatencyMS int           `json:"total_latency_ms"`
	NodeCount      int           `json:"node_count"`
}

func toCanonical(g *graph.ExecutionGraph) canonical {
	return canonical{
		ExecutionID:    g.ExecutionID,
		CreatedAt:      g.CreatedAt,
		Nodes:          g.Nodes,
		Edges:          g.Edges,
		RootNodeID:     g.RootNodeID,
		TotalLatencyMS: g.TotalLatencyMS,
		NodeCount:      g.NodeCount,
	}
}

// ComputeHash returns the SHA-256 hex digest of g's canonical JSON
// representation: key-sorted, with stable numeric rendering, excluding
// snapshot_at and integrity_hash. Pure function of graph content.
func ComputeHash(g *graph.ExecutionGraph) (string, error) {
	data, err := canonicalJSON(toCanonical(g))
	if err != nil {
		return "", fmt.Errorf("compute hash: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON re-marshals v through a generic map so that object keys
// come out sorted regardless of struct field order, and numbers render
// stably (json.Marshal on float64/int already does this; the
// recursive-sort pass is what matters).
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return marshalSorted(generic)
}

func marshalSorted(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, keyJSON...)
			buf = append(buf, ':')
			child, err := marshalSorted(val[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, child...)
		}
		buf = append(buf, '}')
		return buf, nil
	case []any:
		buf := []byte{'['}
		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			child, err := marshalSorted(item)
			if err != nil {
				return nil, err
			}
			buf = append(buf, child...)
		}
		buf = append(buf, ']')
		return buf, nil
	default:
		return json.Marshal(val)
	}
}

// ToSnapshot returns a new frozen graph with IntegrityHash and
// SnapshotAt populated. The input graph is never modified.
func ToSnapshot(g *graph.ExecutionGraph) (*graph.ExecutionGraph, error) {
	hash, err := ComputeHash(g)
	if err != nil {
		return nil, err
	}
	sealed := *g
	sealed.IntegrityHash = hash
	sealed.SnapshotAt = time.Now().UTC().Format(time.RFC3339)
	return &sealed, nil
}

// VerifyIntegrity recomputes g's content hash and compares it to the
// stored IntegrityHash. A graph that was never snapshotted (empty
// IntegrityHash) never verifies.
func VerifyIntegrity(g *graph.ExecutionGraph) (bool, error) {
	if g.IntegrityHash == "" {
		return false, nil
	}
	hash, err := ComputeHash(g)
	if err != nil {
		return false, err
	}
	return hash == g.IntegrityHash, nil
}

// ExportJSON serialises g, including integrity fields, optionally with
// 2-space indentation.
func ExportJSON(g *graph.ExecutionGraph, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(g, "", "  ")
	}
	return json.Marshal(g)
}
