/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout assigns geometry to a parsed diagram: swim-lane X
// positions sized from actor boxes and inter-lane content, then a single
// top-to-bottom cursor over the event tree. The same algorithm serves the
// vector and text-art targets; only the injected Measurer and the
// Constraints differ.
package layout

import (
	"goseqwriter/internal/diagram"
	"goseqwriter/internal/textmetrics"
)

// Constraints are the fixed spacing values of one rendering target, in the
// measurer's units (pixels for glyph metrics, cells for the grid).
type Constraints struct {
	BoxPadding        float32 // around actor, annotation and signal captions
	FigureHeight      float32 // extra box height for stick-figure actors
	TopPadding        float32 // above the actor boxes
	BottomPadding     float32 // below the last event
	SignalMargin      float32 // vertical space after each event
	SelfLoopHeight    float32 // vertical extent of a self-signal loop
	NoteOffset        float32 // annotation shift right of its anchor lane
	GroupTopMargin    float32 // frame top to first case
	GroupBottomMargin float32 // last case to frame bottom
}

// DefaultConstraints suits the pixel-based vector targets.
func DefaultConstraints() Constraints {
	return Constraints{
		BoxPadding:        10,
		FigureHeight:      30,
		TopPadding:        10,
		BottomPadding:     10,
		SignalMargin:      8,
		SelfLoopHeight:    20,
		NoteOffset:        10,
		GroupTopMargin:    16,
		GroupBottomMargin: 8,
	}
}

// GridConstraints suits the character-cell text-art target.
func GridConstraints() Constraints {
	return Constraints{
		BoxPadding:        1,
		FigureHeight:      2,
		TopPadding:        0,
		BottomPadding:     1,
		SignalMargin:      1,
		SelfLoopHeight:    2,
		NoteOffset:        1,
		GroupTopMargin:    1,
		GroupBottomMargin: 1,
	}
}

// triple is a minimum-width demand between two lanes, a <= b. Same-lane
// demands (self-signals) carry a == b.
type triple struct {
	a, b int
	min  float32
}

type engine struct {
	d       *diagram.Diagram
	m       textmetrics.Measurer
	c       Constraints
	lanes   map[string]int
	gaps    []float32
	triples []triple
	width   float32
}

// Layout computes geometry for d in place and returns the canvas size. It
// overwrites every geometry field it touches, so running it twice on the
// same tree yields identical results.
func Layout(d *diagram.Diagram, m textmetrics.Measurer, c Constraints) (float32, float32) {
	e := &engine{d: d, m: m, c: c}
	e.index()
	e.sizeActors()
	e.collect(d.Events)
	e.resolveGaps()
	e.placeActors()

	var tallest float32
	for _, a := range d.Actors {
		if a.Height > tallest {
			tallest = a.Height
		}
	}
	cursor := e.placeEvents(d.Events, c.TopPadding+tallest)
	for _, a := range d.Actors {
		a.BottomY = cursor
	}
	d.Width = e.width
	d.Height = cursor + c.BottomPadding
	return d.Width, d.Height
}

// index builds the name-to-lane table once. Aliases take precedence over
// captions, and among equal names the earliest declaration wins, matching
// diagram.FindActor.
func (e *engine) index() {
	e.lanes = make(map[string]int, len(e.d.Actors)*2)
	for i, a := range e.d.Actors {
		if a.Alias != "" {
			if _, ok := e.lanes[a.Alias]; !ok {
				e.lanes[a.Alias] = i
			}
		}
	}
	for i, a := range e.d.Actors {
		if _, ok := e.lanes[a.Caption]; !ok {
			e.lanes[a.Caption] = i
		}
	}
}

func (e *engine) lane(name string) (int, bool) {
	i, ok := e.lanes[name]
	return i, ok
}

// sizeActors measures each caption into a box and seeds the gap array.
// gaps[i] sits left of actor i; both neighbors contribute their half-width
// plus one padding unit, so two wide neighbors each push the shared gap.
func (e *engine) sizeActors() {
	e.gaps = make([]float32, len(e.d.Actors)+1)
	for i, a := range e.d.Actors {
		sz := e.m.Measure(a.Caption)
		a.Width = sz.W + 2*e.c.BoxPadding
		a.Height = sz.H + 2*e.c.BoxPadding
		if a.Kind == diagram.KindActor {
			a.Height += e.c.FigureHeight
		}
		e.gaps[i] += a.Width/2 + e.c.BoxPadding
		e.gaps[i+1] += a.Width/2 + e.c.BoxPadding
	}
}

// collect walks the event tree gathering minimum-width demands. Signals
// demand space between their two lanes; annotations always demand space to
// the right of their anchor, whatever their align token says. References to
// unknown actors contribute nothing.
func (e *engine) collect(events []diagram.Event) {
	for _, ev := range events {
		switch t := ev.(type) {
		case *diagram.Signal:
			src, okS := e.lane(t.Source)
			dst, okD := e.lane(t.Destination)
			if !okS || !okD {
				continue
			}
			if src > dst {
				src, dst = dst, src
			}
			sz := e.m.Measure(t.Caption)
			e.triples = append(e.triples, triple{src, dst, sz.W + 2*e.c.BoxPadding})
		case *diagram.Annotation:
			loc, ok := e.lane(t.Location)
			if !ok {
				continue
			}
			sz := e.m.Measure(t.Caption)
			e.triples = append(e.triples, triple{loc, loc + 1, sz.W + 2*e.c.BoxPadding})
		case *diagram.Grouping:
			for _, cs := range t.Cases {
				e.collect(cs.Events)
			}
		case *diagram.SyncGroup:
			e.collect(t.Events)
		}
	}
}

// resolveGaps widens gaps to satisfy the collected demands. The local pass
// settles same-lane and adjacent demands directly; the distribution pass
// spreads any remaining shortfall of wider spans evenly over the span's
// gaps. Widening is monotonic and runs in demand order without revisiting.
func (e *engine) resolveGaps() {
	for _, t := range e.triples {
		switch {
		case t.a == t.b:
			if e.gaps[t.a] < t.min {
				e.gaps[t.a] = t.min
			}
		case t.b == t.a+1:
			if e.gaps[t.b] < t.min {
				e.gaps[t.b] = t.min
			}
		}
	}
	for _, t := range e.triples {
		if t.b <= t.a+1 {
			continue
		}
		var have float32
		for i := t.a; i < t.b; i++ {
			have += e.gaps[i]
		}
		if t.min <= have {
			continue
		}
		extra := (t.min - have) / float32(t.b-t.a)
		for i := t.a; i < t.b; i++ {
			e.gaps[i] += extra
		}
	}
}

// placeActors sweeps lanes left to right. The running offset is each lane's
// center; after the last actor it is the canvas width.
func (e *engine) placeActors() {
	x := e.gaps[0]
	for i, a := range e.d.Actors {
		a.LaneX = x
		a.X = x - a.Width/2
		a.TopY = e.c.TopPadding
		x += e.gaps[i+1]
	}
	e.width = x
}

// placeEvents assigns Y positions depth first and returns the advanced
// cursor. Each event occupies [entry cursor, entry cursor + its height];
// signal arrows sit at the bottom of their slot with the caption above.
// Events referencing unknown actors are skipped without geometry.
func (e *engine) placeEvents(events []diagram.Event, cursor float32) float32 {
	for _, ev := range events {
		switch t := ev.(type) {
		case *diagram.Signal:
			src, okS := e.lane(t.Source)
			dst, okD := e.lane(t.Destination)
			if !okS || !okD {
				continue
			}
			sz := e.m.Measure(t.Caption)
			t.Width, t.Height = sz.W, sz.H
			t.StartX = e.d.Actors[src].LaneX
			t.EndX = e.d.Actors[dst].LaneX
			t.StartY = cursor + sz.H
			t.EndY = t.StartY
			cursor += e.c.SignalMargin + sz.H
			if t.SelfSignal() {
				t.EndY = t.StartY + e.c.SelfLoopHeight
				cursor += e.c.SelfLoopHeight
			}
		case *diagram.Annotation:
			loc, ok := e.lane(t.Location)
			if !ok {
				continue
			}
			sz := e.m.Measure(t.Caption)
			t.Width = sz.W + 2*e.c.BoxPadding
			t.Height = sz.H + 2*e.c.BoxPadding
			t.X = e.d.Actors[loc].LaneX + e.c.NoteOffset
			t.Y = cursor
			t.Placed = true
			cursor += e.c.SignalMargin + t.Height
		case *diagram.Grouping:
			t.X, t.Y = 0, cursor
			t.Width = e.width
			cursor += e.c.GroupTopMargin
			var casesH float32
			for _, cs := range t.Cases {
				cs.Y = cursor
				next := e.placeEvents(cs.Events, cursor)
				cs.Height = next - cursor
				casesH += cs.Height
				cursor = next
			}
			t.Height = e.c.GroupTopMargin + e.c.GroupBottomMargin + casesH
			cursor += e.c.GroupBottomMargin
		case *diagram.SyncGroup:
			cursor = e.placeEvents(t.Events, cursor)
		}
	}
	return cursor
}
