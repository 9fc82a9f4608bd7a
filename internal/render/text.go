/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"math"
	"strings"

	"goseqwriter/internal/diagram"
)

// Box-drawing runes for actor boxes and grouping frames; notes use the
// double-line set so they read differently at a glance.
const (
	rHLine   = '─'
	rVLine   = '│'
	rTL      = '┌'
	rTR      = '┐'
	rBL      = '└'
	rBR      = '┘'
	rdHLine  = '═'
	rdVLine  = '║'
	rdTL     = '╔'
	rdTR     = '╗'
	rdBL     = '╚'
	rdBR     = '╝'
	selfSpan = 3
)

// Text renders the diagram as monospaced text art. d must have been laid
// out with the Grid measurer and GridConstraints so every coordinate is a
// character cell. Lane centers can land on half cells; each lifeline column
// is derived from its actor's box so lane and box stay aligned, and signal
// coordinates map back through the lane table.
func Text(d *diagram.Diagram) []byte {
	w := int(math.Ceil(float64(d.Width)))
	h := int(math.Ceil(float64(d.Height)))
	if w <= 0 || h <= 0 {
		return nil
	}
	g := newGrid(w, h)

	t := &textWriter{g: g, lanes: make(map[float32]int, len(d.Actors))}
	for _, a := range d.Actors {
		col := cell(a.X) + cell(a.Width)/2
		t.lanes[a.LaneX] = col
		g.vline(col, cell(a.TopY+a.Height), cell(a.BottomY), '|')
	}
	for _, a := range d.Actors {
		t.actor(a)
	}
	t.events(d.Events)
	return []byte(g.String())
}

type textWriter struct {
	g     *grid
	lanes map[float32]int
}

// laneCol translates a lane-center coordinate into its lifeline column.
func (t *textWriter) laneCol(x float32) int {
	if col, ok := t.lanes[x]; ok {
		return col
	}
	return cell(x)
}

func (t *textWriter) actor(a *diagram.Actor) {
	x, y := cell(a.X), cell(a.TopY)
	w, h := cell(a.Width), cell(a.Height)
	lane := t.laneCol(a.LaneX)
	if a.Kind == diagram.KindActor {
		// Head and arms above the caption box.
		t.g.set(lane, y, 'o')
		t.g.label(lane-1, y+1, `/|\`)
		y += 2
		h -= 2
	}
	t.g.box(x, y, w, h, false)
	t.centered(lane, y+1, h-2, a.Caption)
}

// centered writes caption lines centered on lane starting at the vertical
// middle of rows rows.
func (t *textWriter) centered(lane, top, rows int, caption string) {
	lines := strings.Split(caption, "\n")
	y := top + (rows-len(lines))/2
	for i, ln := range lines {
		t.g.label(lane-len([]rune(ln))/2, y+i, ln)
	}
}

func (t *textWriter) events(events []diagram.Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case *diagram.Signal:
			t.signal(e)
		case *diagram.Annotation:
			t.annotation(e)
		case *diagram.Grouping:
			t.grouping(e)
		case *diagram.SyncGroup:
			t.events(e.Events)
		}
	}
}

func (t *textWriter) signal(e *diagram.Signal) {
	if e.StartY == 0 {
		return
	}
	stroke := '-'
	if e.Dotted {
		stroke = '.'
	}
	if e.SelfSignal() {
		t.selfSignal(e, stroke)
		return
	}
	x0, x1, y := t.laneCol(e.StartX), t.laneCol(e.EndX), cell(e.StartY)
	lo, hi := x0, x1
	if lo > hi {
		lo, hi = hi, lo
	}
	for x := lo + 1; x < hi; x++ {
		t.g.set(x, y, stroke)
	}
	if x1 > x0 {
		t.g.set(x1-1, y, '>')
	} else {
		t.g.set(x1+1, y, '<')
	}
	t.captionAbove((x0+x1)/2, y, e.Caption, true)
}

func (t *textWriter) selfSignal(e *diagram.Signal, stroke rune) {
	x, y0, y1 := t.laneCol(e.StartX), cell(e.StartY), cell(e.EndY)
	for i := 1; i <= selfSpan; i++ {
		t.g.set(x+i, y0, stroke)
	}
	t.g.set(x+selfSpan+1, y0, '+')
	t.g.vline(x+selfSpan+1, y0+1, y1-1, '|')
	t.g.set(x+selfSpan+1, y1, '+')
	for i := 2; i <= selfSpan; i++ {
		t.g.set(x+i, y1, stroke)
	}
	t.g.set(x+1, y1, '<')
	t.captionAbove(x+2, y0, e.Caption, false)
}

// captionAbove stacks caption lines bottom-aligned directly above row y.
func (t *textWriter) captionAbove(x, y int, caption string, center bool) {
	if caption == "" {
		return
	}
	lines := strings.Split(caption, "\n")
	for i, ln := range lines {
		lx := x
		if center {
			lx = x - len([]rune(ln))/2
		}
		t.g.label(lx, y-len(lines)+i, ln)
	}
}

func (t *textWriter) annotation(e *diagram.Annotation) {
	if !e.Placed {
		return
	}
	x, y := cell(e.X), cell(e.Y)
	w, h := cell(e.Width), cell(e.Height)
	t.g.box(x, y, w, h, true)
	t.centered(x+w/2, y+1, h-2, e.Caption)
}

func (t *textWriter) grouping(e *diagram.Grouping) {
	x, y := cell(e.X), cell(e.Y)
	w, h := cell(e.Width), cell(e.Height)
	t.g.box(x, y, w, h, false)
	tab := " " + string(e.Kind) + " "
	t.g.label(x+2, y, tab)
	for i, cs := range e.Cases {
		divY := y
		if i > 0 {
			divY = cell(cs.Y)
			for dx := x + 1; dx < x+w-1; dx++ {
				t.g.set(dx, divY, '-')
			}
		}
		if cs.Caption != "" {
			at := x + 2
			if i == 0 {
				at = x + 2 + len([]rune(tab)) + 1
			}
			t.g.label(at, divY, "["+cs.Caption+"]")
		}
		t.events(cs.Events)
	}
}

func cell(v float32) int { return int(v) }

// grid is a fixed-size rune canvas. Writes outside the canvas are clipped,
// so a slightly overflowing caption degrades instead of panicking.
type grid struct {
	cells [][]rune
	w, h  int
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([][]rune, h)}
	for y := range g.cells {
		row := make([]rune, w)
		for x := range row {
			row[x] = ' '
		}
		g.cells[y] = row
	}
	return g
}

func (g *grid) set(x, y int, r rune) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.cells[y][x] = r
}

func (g *grid) hline(x0, x1, y int, r rune) {
	for x := x0; x <= x1; x++ {
		g.set(x, y, r)
	}
}

func (g *grid) vline(x, y0, y1 int, r rune) {
	for y := y0; y <= y1; y++ {
		g.set(x, y, r)
	}
}

func (g *grid) label(x, y int, s string) {
	for i, r := range []rune(s) {
		g.set(x+i, y, r)
	}
}

// box draws a border; double selects the double-line rune set.
func (g *grid) box(x, y, w, h int, double bool) {
	if w < 2 || h < 2 {
		return
	}
	hr, vr := rHLine, rVLine
	tl, tr, bl, br := rTL, rTR, rBL, rBR
	if double {
		hr, vr = rdHLine, rdVLine
		tl, tr, bl, br = rdTL, rdTR, rdBL, rdBR
	}
	g.hline(x+1, x+w-2, y, hr)
	g.hline(x+1, x+w-2, y+h-1, hr)
	g.vline(x, y+1, y+h-2, vr)
	g.vline(x+w-1, y+1, y+h-2, vr)
	g.set(x, y, tl)
	g.set(x+w-1, y, tr)
	g.set(x, y+h-1, bl)
	g.set(x+w-1, y+h-1, br)
}

func (g *grid) String() string {
	var b strings.Builder
	for _, row := range g.cells {
		b.WriteString(strings.TrimRight(string(row), " "))
		b.WriteByte('\n')
	}
	return b.String()
}
