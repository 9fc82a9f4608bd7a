/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"goseqwriter/internal/diagram"
	"goseqwriter/internal/script"
	"goseqwriter/internal/textmetrics"
)

// All tests use the cell-sized Grid measurer with GridConstraints so every
// coordinate is exact: a one-letter caption makes a 3x3 actor box whose
// half-width plus padding seeds 2.5 into each neighboring gap.

func gridLayout(t *testing.T, src string) *diagram.Diagram {
	t.Helper()
	d := script.Parse(src)
	Layout(d, textmetrics.Grid{}, GridConstraints())
	return d
}

func TestLayoutTwoActorSignal(t *testing.T) {
	d := gridLayout(t, "A->B: hi")
	if len(d.Actors) != 2 {
		t.Fatalf("expected 2 actors, got %d", len(d.Actors))
	}
	a, b := d.Actors[0], d.Actors[1]
	if a.Width != 3 || a.Height != 3 {
		t.Fatalf("expected 3x3 actor box, got %vx%v", a.Width, a.Height)
	}
	if a.LaneX != 2.5 || b.LaneX != 7.5 {
		t.Fatalf("expected lane centers 2.5 and 7.5, got %v and %v", a.LaneX, b.LaneX)
	}
	if d.Width != 10 {
		t.Fatalf("expected canvas width 10, got %v", d.Width)
	}
	sig := d.Events[0].(*diagram.Signal)
	if sig.StartX != 2.5 || sig.EndX != 7.5 {
		t.Fatalf("expected signal to span lane centers, got %v..%v", sig.StartX, sig.EndX)
	}
	if sig.StartY != 4 || sig.EndY != 4 {
		t.Fatalf("expected signal line at y=4, got %v/%v", sig.StartY, sig.EndY)
	}
	if a.BottomY != 5 || d.Height != 6 {
		t.Fatalf("expected lane bottom 5 and height 6, got %v and %v", a.BottomY, d.Height)
	}
}

func TestLayoutWideCaptionWidensAdjacentGap(t *testing.T) {
	d := gridLayout(t, "A->B: "+strings.Repeat("x", 20))
	a, b := d.Actors[0], d.Actors[1]
	if got := b.LaneX - a.LaneX; got != 22 {
		t.Fatalf("expected lane distance 22 for 20-char caption, got %v", got)
	}
}

func TestLayoutGapSufficiencyAdjacent(t *testing.T) {
	d := gridLayout(t, "Alice->Bob: hello there\nBob->Alice: ok")
	a, b := d.Actors[0], d.Actors[1]
	for _, ev := range d.Events {
		sig, ok := ev.(*diagram.Signal)
		if !ok {
			continue
		}
		need := float32(len(sig.Caption)) + 2
		if got := b.LaneX - a.LaneX; got < need {
			t.Fatalf("lane distance %v below caption demand %v", got, need)
		}
	}
}

func TestLayoutSelfSignal(t *testing.T) {
	d := gridLayout(t, "A->A: think")
	sig := d.Events[0].(*diagram.Signal)
	if sig.StartX != sig.EndX {
		t.Fatalf("expected identical start/end X, got %v and %v", sig.StartX, sig.EndX)
	}
	if sig.EndY != sig.StartY+2 {
		t.Fatalf("expected loop to extend by the self-loop height, got %v..%v", sig.StartY, sig.EndY)
	}
	// Same-lane demands widen the lane's left gap.
	if d.Actors[0].LaneX != 7 {
		t.Fatalf("expected lane center pushed to 7, got %v", d.Actors[0].LaneX)
	}
}

func TestLayoutNotePlacement(t *testing.T) {
	d := gridLayout(t, "participant A\nnote right of A: hello")
	ann := d.Events[0].(*diagram.Annotation)
	if !ann.Placed {
		t.Fatalf("expected note to be placed")
	}
	if ann.Width != 7 || ann.Height != 3 {
		t.Fatalf("expected 7x3 note box, got %vx%v", ann.Width, ann.Height)
	}
	if ann.X != d.Actors[0].LaneX+1 {
		t.Fatalf("expected note right of the lane, got X=%v", ann.X)
	}
	// The note's demand lands on the gap right of the anchor.
	if d.Width != 9.5 {
		t.Fatalf("expected canvas width 9.5, got %v", d.Width)
	}
}

func TestLayoutNoteLeftStillPushesRight(t *testing.T) {
	left := gridLayout(t, "participant A\nparticipant B\nnote left of A: "+strings.Repeat("x", 12))
	right := gridLayout(t, "participant A\nparticipant B\nnote right of A: "+strings.Repeat("x", 12))
	if left.Width != right.Width {
		t.Fatalf("align token must not affect spacing, got widths %v and %v", left.Width, right.Width)
	}
	if left.Actors[1].LaneX-left.Actors[0].LaneX != 14 {
		t.Fatalf("expected note demand on the right gap, got distance %v", left.Actors[1].LaneX-left.Actors[0].LaneX)
	}
}

func TestLayoutUnresolvedNoteSkipped(t *testing.T) {
	d := gridLayout(t, "participant A\nnote right of Ghost: boo")
	ann := d.Events[0].(*diagram.Annotation)
	if ann.Placed {
		t.Fatalf("expected note to stay unplaced")
	}
	if ann.Width != 0 || ann.Height != 0 {
		t.Fatalf("expected no geometry, got %vx%v", ann.Width, ann.Height)
	}
	// The skipped note must not advance the cursor.
	if d.Actors[0].BottomY != 3 {
		t.Fatalf("expected lane bottom right below the box, got %v", d.Actors[0].BottomY)
	}
}

func TestLayoutSpanDistribution(t *testing.T) {
	d := gridLayout(t, "participant A\nparticipant B\nparticipant C\nA->C: "+strings.Repeat("x", 30))
	a, b, c := d.Actors[0], d.Actors[1], d.Actors[2]
	// The 32-cell demand spans two gaps; the shortfall spreads evenly.
	if a.LaneX != 14.75 {
		t.Fatalf("expected first lane at 14.75, got %v", a.LaneX)
	}
	if b.LaneX != 32 || c.LaneX != 37 {
		t.Fatalf("expected lanes 32 and 37, got %v and %v", b.LaneX, c.LaneX)
	}
	if d.Width != 39.5 {
		t.Fatalf("expected canvas width 39.5, got %v", d.Width)
	}
}

func TestLayoutGrouping(t *testing.T) {
	d := gridLayout(t, "alt ok\nA->B: x\nelse bad\nA->B: y\nend")
	g := d.Events[0].(*diagram.Grouping)
	if g.X != 0 || g.Y != 3 {
		t.Fatalf("expected frame at (0,3), got (%v,%v)", g.X, g.Y)
	}
	if g.Width != d.Width {
		t.Fatalf("expected frame to span the canvas, got %v of %v", g.Width, d.Width)
	}
	if g.Cases[0].Height != 2 || g.Cases[1].Height != 2 {
		t.Fatalf("expected case heights 2, got %v and %v", g.Cases[0].Height, g.Cases[1].Height)
	}
	if g.Height != 6 {
		t.Fatalf("expected frame height 6, got %v", g.Height)
	}
	if d.Actors[0].BottomY != 9 {
		t.Fatalf("expected lanes to end at 9, got %v", d.Actors[0].BottomY)
	}
}

func TestLayoutSyncGroupIsInline(t *testing.T) {
	d := gridLayout(t, "parallel\nA->B: x\nA->B: y\nend")
	sg := d.Events[0].(*diagram.SyncGroup)
	first := sg.Events[0].(*diagram.Signal)
	second := sg.Events[1].(*diagram.Signal)
	if first.StartY != 4 || second.StartY != 6 {
		t.Fatalf("expected inline placement at 4 and 6, got %v and %v", first.StartY, second.StartY)
	}
}

func TestLayoutStickFigureExtraHeight(t *testing.T) {
	d := gridLayout(t, "actor A\nparticipant B\nA->B: go")
	if d.Actors[0].Height != 5 {
		t.Fatalf("expected stick-figure box height 5, got %v", d.Actors[0].Height)
	}
	// The cursor starts below the tallest box.
	sig := d.Events[0].(*diagram.Signal)
	if sig.StartY != 6 {
		t.Fatalf("expected first signal below the figure at 6, got %v", sig.StartY)
	}
}

func TestLayoutResolvesAliases(t *testing.T) {
	d := gridLayout(t, "participant Alice as a\nparticipant Bob as b\na->b: hi")
	sig := d.Events[0].(*diagram.Signal)
	if sig.StartX != d.Actors[0].LaneX || sig.EndX != d.Actors[1].LaneX {
		t.Fatalf("expected alias references to resolve to lanes, got %v..%v", sig.StartX, sig.EndX)
	}
}

func TestLayoutUnresolvedSignalSkipped(t *testing.T) {
	d := &diagram.Diagram{}
	d.AddActor(diagram.KindParticipant, "A", "")
	d.Events = append(d.Events, &diagram.Signal{Source: "A", Destination: "Ghost", Caption: "x"})
	Layout(d, textmetrics.Grid{}, GridConstraints())
	sig := d.Events[0].(*diagram.Signal)
	if sig.StartY != 0 || sig.EndY != 0 {
		t.Fatalf("expected no geometry for unresolved signal, got %v/%v", sig.StartY, sig.EndY)
	}
	if d.Actors[0].BottomY != 3 {
		t.Fatalf("expected cursor untouched, got %v", d.Actors[0].BottomY)
	}
}

func TestLayoutIdempotent(t *testing.T) {
	src := "actor A\nparticipant B\nA->B: hello\nalt ok\nB->B: spin\nelse no\nnote right of A: hm\nend\nA-->>B: done"
	d := script.Parse(src)
	Layout(d, textmetrics.Grid{}, GridConstraints())
	first, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	Layout(d, textmetrics.Grid{}, GridConstraints())
	second, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("expected identical geometry on re-layout")
	}
}

func TestLayoutFaceMeasurerPixels(t *testing.T) {
	d := script.Parse("A->B: hi")
	w, h := Layout(d, textmetrics.Face{}, DefaultConstraints())
	// Face7x13 glyphs: "A" is 7px wide, 13px tall, so the box is 27x33.
	if d.Actors[0].Width != 27 || d.Actors[0].Height != 33 {
		t.Fatalf("expected 27x33 actor box, got %vx%v", d.Actors[0].Width, d.Actors[0].Height)
	}
	if w <= 0 || h <= 0 {
		t.Fatalf("expected positive canvas, got %vx%v", w, h)
	}
	if w != d.Width || h != d.Height {
		t.Fatalf("expected returned size to match the diagram, got %vx%v vs %vx%v", w, h, d.Width, d.Height)
	}
}
