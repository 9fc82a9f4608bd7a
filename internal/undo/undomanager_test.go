/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

// stepClock drives a Manager's clock so coalescing windows are exact.
type stepClock struct{ t time.Time }

func newStepClock(m *Manager) *stepClock {
	c := &stepClock{t: time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)}
	m.now = c.now
	return c
}

func (c *stepClock) now() time.Time { return c.t }

func (c *stepClock) advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxEntries: 10, MinInterval: 10 * time.Millisecond})
	c := newStepClock(m)
	m.Reset("a")
	c.advance(20 * time.Millisecond)
	m.Push("b")
	c.advance(20 * time.Millisecond)
	m.Push("c")
	if _, revs := m.Stats(); revs != 3 {
		t.Fatalf("expected 3 revisions, got %d", revs)
	}
	if !m.CanUndo() {
		t.Fatalf("expected CanUndo after edits")
	}
	s, ok := m.Undo()
	if !ok || s != "b" {
		t.Fatalf("undo expected 'b', got ok=%v text=%q", ok, s)
	}
	s, ok = m.Undo()
	if !ok || s != "a" {
		t.Fatalf("undo expected 'a', got ok=%v text=%q", ok, s)
	}
	if _, ok = m.Undo(); ok {
		t.Fatalf("expected undo to stop at the base revision")
	}
	s, ok = m.Redo()
	if !ok || s != "b" {
		t.Fatalf("redo expected 'b', got ok=%v text=%q", ok, s)
	}
	s, ok = m.Redo()
	if !ok || s != "c" {
		t.Fatalf("redo expected 'c', got ok=%v text=%q", ok, s)
	}
	if _, ok = m.Redo(); ok {
		t.Fatalf("expected redo stack to be exhausted")
	}
}

func TestCoalesce(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxEntries: 10, MinInterval: 50 * time.Millisecond})
	c := newStepClock(m)
	m.Reset("start")
	c.advance(60 * time.Millisecond)
	m.Push("start 1")
	c.advance(10 * time.Millisecond)
	m.Push("start 12") // coalesce
	if _, revs := m.Stats(); revs != 2 {
		t.Fatalf("expected coalesced stack of 2 revisions, got %d", revs)
	}
	s, ok := m.Undo()
	if !ok || s != "start" {
		t.Fatalf("expected undo back to 'start', got ok=%v text=%q", ok, s)
	}
	s, ok = m.Redo()
	if !ok || s != "start 12" {
		t.Fatalf("expected coalesced revision 'start 12', got ok=%v text=%q", ok, s)
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024, MaxEntries: 2, MinInterval: time.Millisecond})
	c := newStepClock(m)
	m.Reset("v0")
	for i := 0; i < 10; i++ {
		c.advance(5 * time.Millisecond)
		if i%2 == 0 {
			m.Push("aaaaa")
		} else {
			m.Push("bbbbb")
		}
	}
	if _, revs := m.Stats(); revs > 2 {
		t.Fatalf("expected MaxEntries cap to limit to 2, got %d", revs)
	}
}
