// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store is the durable, content-addressed, date-partitioned trace
// store. The JSON tree under <root>/traces is the ground truth; anything
// else (see package index) is a derived, rebuildable accelerator.
//
// # Thread Safety
//
// FileStore is safe for concurrent use. A single mutex serialises the
// bless-uniqueness read-modify-write (Open Question (c) in
// SPEC_FULL.md); reads otherwise hit the filesystem directly without
// locking, matching the source's tolerate-partial-failure design.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/sentinel/internal/metrics"
	"github.com/AleutianAI/sentinel/services/trace"
	"github.com/AleutianAI/sentinel/services/trace/errs"
)

// Index is the optional accelerator a FileStore can be told to maintain.
// See package store/index for the Badger-backed implementation; it is
// never required for correctness, only for Get/GetGolden speed.
type Index interface {
	Put(t trace.Trace, relPath string) error
	Delete(traceID string) error
	Lookup(traceID string) (relPath string, ok bool)
	LookupGolden(model, provider string) (traceID string, ok bool)
}

// FileStore is the filesystem-backed implementation of the store
// contract described in SPEC_FULL.md §4.4.
type FileStore struct {
	root       string
	tracesPath string

	mu      sync.Mutex
	index   Index // may be nil
	metrics *metrics.Registry
}

// New creates a FileStore rooted at root, creating the traces directory
// if it does not exist. Defaults to ~/.sentinel when root is "".
func New(root string) (*FileStore, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("%w: resolve home dir: %v", errs.ErrStore, err)
		}
		root = filepath.Join(home, ".sentinel")
	}
	tracesPath := filepath.Join(root, "traces")
	if err := os.MkdirAll(tracesPath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStore, err)
	}
	return &FileStore{root: root, tracesPath: tracesPath}, nil
}

// WithIndex attaches an accelerator index. Safe to call once at startup;
// not safe to swap concurrently with in-flight operations.
func (s *FileStore) WithIndex(idx Index) *FileStore {
	s.index = idx
	return s
}

// WithMetrics attaches a metrics registry; when set, Save, List, Delete
// and Bless record their outcomes against it.
func (s *FileStore) WithMetrics(m *metrics.Registry) *FileStore {
	s.metrics = m
	return s
}

// Root returns the store's root directory.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) observe(op, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveStoreOp(op, outcome)
	}
}

func (s *FileStore) dateDirFor(t trace.Trace) (string, error) {
	date, err := t.DateDir()
	if err != nil {
		return "", fmt.Errorf("%w: invalid timestamp %q: %v", errs.ErrInput, t.Timestamp, err)
	}
	return filepath.Join(s.tracesPath, date), nil
}

func (s *FileStore) relPath(dateDir string, traceID string) string {
	rel, _ := filepath.Rel(s.tracesPath, filepath.Join(dateDir, traceID+".json"))
	return rel
}

// Save persists t, creating or replacing <root>/traces/<date>/<trace_id>.json.
// Idempotent by (date-dir, trace_id): saving the same trace twice replaces
// the file contents and never touches any other trace's file.
func (s *FileStore) Save(t trace.Trace) error {
	if t.TraceID == "" || t.ExecutionID == "" || t.NodeID == "" {
		s.observe("save", "error")
		return fmt.Errorf("%w: trace missing trace_id/execution_id/node_id", errs.ErrInput)
	}
	dateDir, err := s.dateDirFor(t)
	if err != nil {
		s.observe("save", "error")
		return err
	}
	if err := os.MkdirAll(dateDir, 0o755); err != nil {
		s.observe("save", "error")
		return fmt.Errorf("%w: %v", errs.ErrStore, err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		s.observe("save", "error")
		return fmt.Errorf("%w: encode trace: %v", errs.ErrStore, err)
	}

	path := filepath.Join(dateDir, t.TraceID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.observe("save", "error")
		return fmt.Errorf("%w: %v", errs.ErrStore, err)
	}

	if s.index != nil {
		_ = s.index.Put(t, s.relPath(dateDir, t.TraceID))
	}
	s.observe("save", "ok")
	return nil
}

// dateDirs returns every date-partition directory under traces/, sorted
// descending (most recent first).
func (s *FileStore) dateDirs() ([]string, error) {
	entries, err := os.ReadDir(s.tracesPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStore, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	return dirs, nil
}

// Get returns the trace with the given id, or nil if not found. Scans
// every date directory; corrupt files are skipped, not errored.
func (s *FileStore) Get(traceID string) (*trace.Trace, error) {
	if s.index != nil {
		if rel, ok := s.index.Lookup(traceID); ok {
			if t, err := s.readFile(filepath.Join(s.tracesPath, rel)); err == nil {
				return t, nil
			}
		}
	}

	dirs, err := s.dateDirs()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		path := filepath.Join(s.tracesPath, dir, traceID+".json")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		t, err := s.readFile(path)
		if err != nil {
			continue
		}
		return t, nil
	}
	return nil, nil
}

func (s *FileStore) readFile(path string) (*trace.Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStore, err)
	}
	var t trace.Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStore, err)
	}
	return &t, nil
}

// ListFilter narrows List results. Zero-valued fields are unfiltered.
type ListFilter struct {
	Limit    int
	Offset   int
	Model    string
	Provider string
	Date     string // YYYY-MM-DD
	Failed   bool   // when true, only traces with a failing verdict
}

// List returns traces in reverse chronological order by (date directory
// desc, file name desc), applying filters after load. Per Open Question
// (a), every matching file is loaded before the page is sliced; this is
// deliberate, not an oversight — see SPEC_FULL.md §9.
func (s *FileStore) List(f ListFilter) ([]trace.Trace, error) {
	var dirs []string
	if f.Date != "" {
		dirs = []string{f.Date}
	} else {
		var err error
		dirs, err = s.dateDirs()
		if err != nil {
			s.observe("list", "error")
			return nil, err
		}
	}
	defer s.observe("list", "ok")

	var out []trace.Trace
	for _, dir := range dirs {
		dirPath := filepath.Join(s.tracesPath, dir)
		entries, err := os.ReadDir(dirPath)
		if err != nil {
			continue // directory may not exist (explicit --date filter)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
				names = append(names, e.Name())
			}
		}
		sort.Sort(sort.Reverse(sort.StringSlice(names)))

		for _, name := range names {
			t, err := s.readFile(filepath.Join(dirPath, name))
			if err != nil {
				continue // skip unparseable files
			}
			if f.Model != "" && t.Request.Model != f.Model {
				continue
			}
			if f.Provider != "" && t.Request.Provider != f.Provider {
				continue
			}
			if f.Failed && !t.Verdict.IsFailing() {
				continue
			}
			out = append(out, *t)
		}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 || offset > len(out) {
		offset = len(out)
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

// CountFilter is ListFilter minus pagination, to avoid implying count()
// respects Limit/Offset.
type CountFilter struct {
	Model    string
	Provider string
	Date     string
}

// Count counts traces matching the filter, by listing up to a large
// bound. This mirrors the original source's count_traces, which is
// literally list_traces(limit=10000) — naive, and intentionally so.
func (s *FileStore) Count(f CountFilter) (int, error) {
	traces, err := s.List(ListFilter{Limit: 10000, Model: f.Model, Provider: f.Provider, Date: f.Date})
	if err != nil {
		return 0, err
	}
	return len(traces), nil
}

// Delete removes the trace file, returning whether it was found.
func (s *FileStore) Delete(traceID string) (bool, error) {
	dirs, err := s.dateDirs()
	if err != nil {
		return false, err
	}
	for _, dir := range dirs {
		path := filepath.Join(s.tracesPath, dir, traceID+".json")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.observe("delete", "error")
			return false, fmt.Errorf("%w: %v", errs.ErrStore, err)
		}
		if s.index != nil {
			_ = s.index.Delete(traceID)
		}
		s.observe("delete", "ok")
		return true, nil
	}
	s.observe("delete", "not_found")
	return false, nil
}

// Bless marks traceID as the golden reference for its (model, provider),
// computing and writing metadata.output_hash and metadata.blessed_at.
// Idempotent: blessing an already-blessed trace recomputes the same hash.
// Enforces at most one blessed trace per (model, provider) unless force is
// true — lifted into the store per Open Question (c); the CLI's bless
// command has no uniqueness logic of its own.
func (s *FileStore) Bless(traceID string, force bool) (*trace.Trace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.Get(traceID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: trace %q", errs.ErrNotFound, traceID)
	}

	if !force {
		if existing, ok := s.goldenLocked(t.Request.Model, t.Request.Provider); ok && existing.TraceID != t.TraceID {
			return nil, fmt.Errorf("%w: %s/%s already blessed as %s", errs.ErrAlreadyBlessed, t.Request.Provider, t.Request.Model, existing.TraceID)
		}
	} else {
		if existing, ok := s.goldenLocked(t.Request.Model, t.Request.Provider); ok && existing.TraceID != t.TraceID {
			existing.Blessed = false
			if err := s.Save(*existing); err != nil {
				return nil, err
			}
		}
	}

	sum := sha256.Sum256([]byte(t.Response.Text))
	hash := hex.EncodeToString(sum[:])[:16]

	if t.Metadata == nil {
		t.Metadata = map[string]interface{}{}
	}
	t.Metadata["output_hash"] = hash
	t.Metadata["blessed_at"] = time.Now().UTC().Format(time.RFC3339)
	t.Blessed = true

	if err := s.Save(*t); err != nil {
		return nil, err
	}
	s.observe("bless", "ok")
	return t, nil
}

// Unbless clears the blessed flag on traceID, leaving output_hash/
// blessed_at metadata in place as history.
func (s *FileStore) Unbless(traceID string) (*trace.Trace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.Get(traceID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: trace %q", errs.ErrNotFound, traceID)
	}
	t.Blessed = false
	if err := s.Save(*t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListBlessed returns every blessed trace, newest first.
func (s *FileStore) ListBlessed() ([]trace.Trace, error) {
	all, err := s.List(ListFilter{Limit: 100000})
	if err != nil {
		return nil, err
	}
	var out []trace.Trace
	for _, t := range all {
		if t.Blessed {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetGolden returns the first blessed trace for (model, provider), or nil.
func (s *FileStore) GetGolden(model, provider string) (*trace.Trace, error) {
	if s.index != nil {
		if id, ok := s.index.LookupGolden(model, provider); ok {
			if t, err := s.Get(id); err == nil && t != nil && t.Blessed &&
				t.Request.Model == model && t.Request.Provider == provider {
				return t, nil
			}
		}
	}
	blessed, err := s.ListBlessed()
	if err != nil {
		return nil, err
	}
	for _, t := range blessed {
		if t.Request.Model == model && t.Request.Provider == provider {
			found := t
			return &found, nil
		}
	}
	return nil, nil
}

// goldenLocked scans the JSON tree (never the index) for the blessed trace
// for (model, provider). Bless calls it while holding s.mu.
func (s *FileStore) goldenLocked(model, provider string) (*trace.Trace, bool) {
	all, err := s.List(ListFilter{Limit: 100000})
	if err != nil {
		return nil, false
	}
	for _, t := range all {
		if t.Blessed && t.Request.Model == model && t.Request.Provider == provider {
			found := t
			return &found, true
		}
	}
	return nil, false
}

// TracesByExecution returns every trace sharing executionID, sorted
// ascending by timestamp.
func (s *FileStore) TracesByExecution(executionID string) ([]trace.Trace, error) {
	all, err := s.List(ListFilter{Limit: 100000})
	if err != nil {
		return nil, err
	}
	var out []trace.Trace
	for _, t := range all {
		if t.ExecutionID == executionID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// Lineage traverses replay_of upward to a root (cycle-guarded), then BFS
// downward over traces whose replay_of matches any visited id.
func (s *FileStore) Lineage(traceID string) ([]trace.Trace, error) {
	current, err := s.Get(traceID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	visited := map[string]bool{}
	for current.ReplayOf != "" && !visited[current.ReplayOf] {
		visited[current.TraceID] = true
		parent, err := s.Get(current.ReplayOf)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}
		current = parent
	}

	all, err := s.List(ListFilter{Limit: 100000})
	if err != nil {
		return nil, err
	}

	var lineage []trace.Trace
	seen := map[string]bool{}
	queue := []trace.Trace{*current}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if seen[t.TraceID] {
			continue
		}
		seen[t.TraceID] = true
		lineage = append(lineage, t)

		for _, candidate := range all {
			if candidate.ReplayOf == t.TraceID {
				queue = append(queue, candidate)
			}
		}
	}
	return lineage, nil
}
