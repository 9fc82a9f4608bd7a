/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps an in-memory revision history of the script text for
// the editor. Rapid edits coalesce into a single revision, and memory and
// depth caps bound how far back the history reaches.
package undo

import (
	"sync"
	"time"
)

// revision is one stored script state. A zero ts marks the base revision
// seeded by Reset; it never coalesces with the edit that follows it.
type revision struct {
	text string
	ts   time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap on stored text bytes; oldest revisions are
	// pruned when exceeded, but the current revision is always kept.
	MaxBytes int
	// MaxEntries limits the number of revisions kept (0 means unlimited).
	MaxEntries int
	// MinInterval coalesces edits pushed within the interval, replacing
	// the latest revision instead of growing the stack.
	MinInterval time.Duration
}

// Manager provides an undo/redo stack for the script text with performance
// safeguards. It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// undo holds past revisions plus the current one on top
	undo []revision
	redo []revision
	// accounting covers the undo stack only
	totalBytes int
	now        func() time.Time
}

func NewManager(cfg Config) *Manager {
	// Set conservative defaults if not provided
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, now: time.Now}
}

// Reset discards all history and seeds the stack with text as the base
// revision, as when a script file is opened.
func (m *Manager) Reset(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = []revision{{text: text}}
	m.redo = nil
	m.totalBytes = len(text)
}

// Push records the script text after an edit. If pushed within MinInterval
// of the latest revision, it replaces that revision instead. Identical text
// is ignored. Any push clears the redo stack.
func (m *Manager) Push(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.now()
	if n := len(m.undo); n > 0 {
		last := m.undo[n-1]
		if text == last.text {
			return
		}
		if !last.ts.IsZero() && ts.Sub(last.ts) < m.cfg.MinInterval {
			// Coalesce: adjust accounting and replace the top
			m.totalBytes += len(text) - len(last.text)
			m.undo[n-1] = revision{text: text, ts: ts}
			m.redo = nil
			m.enforceCapsLocked()
			return
		}
	}
	m.undo = append(m.undo, revision{text: text, ts: ts})
	m.totalBytes += len(text)
	m.redo = nil
	m.enforceCapsLocked()
}

// Undo steps back one revision and returns the text to restore. It reports
// false when no earlier revision remains.
func (m *Manager) Undo() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.undo)
	if n < 2 {
		return "", false
	}
	top := m.undo[n-1]
	m.undo = m.undo[:n-1]
	m.totalBytes -= len(top.text)
	m.redo = append(m.redo, top)
	return m.undo[n-2].text, true
}

// Redo reapplies the most recently undone revision and returns its text.
func (m *Manager) Redo() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := len(m.redo)
	if r == 0 {
		return "", false
	}
	top := m.redo[r-1]
	m.redo = m.redo[:r-1]
	m.undo = append(m.undo, top)
	m.totalBytes += len(top.text)
	m.enforceCapsLocked()
	return top.text, true
}

// CanUndo reports whether a revision older than the current one exists.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) >= 2
}

// CanRedo reports whether an undone revision is available to reapply.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes, revisions int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBytes, len(m.undo)
}

func (m *Manager) enforceCapsLocked() {
	// Depth cap
	if m.cfg.MaxEntries > 0 {
		if n := len(m.undo); n > m.cfg.MaxEntries {
			toDrop := n - m.cfg.MaxEntries
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(m.undo[i].text)
			}
			m.undo = append([]revision{}, m.undo[toDrop:]...)
		}
	}
	// Memory cap: prune oldest, keeping at least the current revision
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes && len(m.undo) > 1 {
		m.totalBytes -= len(m.undo[0].text)
		m.undo = m.undo[1:]
	}
}
