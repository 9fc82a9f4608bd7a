/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render turns a laid-out diagram into artifacts. Every backend is
// a pure consumer of the geometry the layout engine assigned; none of them
// measures or repositions anything.
package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"goseqwriter/internal/diagram"
	"goseqwriter/internal/theme"
	"goseqwriter/internal/vector"
)

// Vertical distance between a caption's last baseline and the line it
// labels, and the fixed horizontal reach of a self-loop.
const (
	captionGap   = 3
	selfLoopSpan = 40
	noteFold     = 8
	frameTab     = 18
)

// SVG renders the diagram as a standalone SVG document. The caller is
// expected to have laid d out with a pixel measurer.
func SVG(d *diagram.Diagram, th *theme.Theme) []byte {
	pal := th.Palette()
	size := th.FontSpec().SizePt
	if size <= 0 {
		size = 12
	}
	family := th.FontSpec().Family
	if family == "" {
		family = "Helvetica, Arial, sans-serif"
	}

	var buf bytes.Buffer
	wf := func(format string, args ...any) {
		fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%gpx\" height=\"%gpx\" viewBox=\"0 0 %g %g\">\n",
		d.Width, d.Height, d.Width, d.Height)
	wf("  <defs>\n")
	wf("    <marker id=\"head\" markerWidth=\"10\" markerHeight=\"8\" refX=\"9\" refY=\"4\" orient=\"auto\">\n")
	wf("      <path d=\"%s\" fill=\"%s\"/>\n", solidHead().Data(), pal.Signal.Hex())
	wf("    </marker>\n")
	wf("    <marker id=\"headOpen\" markerWidth=\"10\" markerHeight=\"8\" refX=\"9\" refY=\"4\" orient=\"auto\">\n")
	wf("      <path d=\"%s\" fill=\"none\" stroke=\"%s\"/>\n", openHead().Data(), pal.Signal.Hex())
	wf("    </marker>\n")
	wf("  </defs>\n")
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", d.Width, d.Height, pal.Background.Hex())

	s := &svgWriter{wf: wf, pal: pal, family: family, size: size}
	for _, a := range d.Actors {
		s.actor(a)
	}
	s.events(d.Events)

	wf("</svg>\n")
	return buf.Bytes()
}

type svgWriter struct {
	wf     func(string, ...any)
	pal    theme.Palette
	family string
	size   float32
}

// stroke builds the writer's standard stroke in the given color.
func (s *svgWriter) stroke(c vector.Color) vector.Stroke {
	return vector.Stroke{Color: c, Width: s.pal.StrokeWidth}
}

// strokeAttrs renders a stroke as SVG presentation attributes.
func strokeAttrs(st vector.Stroke) string {
	attrs := fmt.Sprintf(" stroke=\"%s\" stroke-width=\"%g\"", st.Color.Hex(), st.Width)
	if st.Dashed() {
		parts := make([]string, len(st.Dash))
		for i, d := range st.Dash {
			parts[i] = strconv.FormatFloat(float64(d), 'f', -1, 32)
		}
		attrs += " stroke-dasharray=\"" + strings.Join(parts, " ") + "\""
	}
	return attrs
}

func (s *svgWriter) actor(a *diagram.Actor) {
	// Lifeline first so the box covers its top end.
	s.wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\"%s/>\n",
		a.LaneX, a.TopY+a.Height, a.LaneX, a.BottomY, strokeAttrs(s.stroke(s.pal.Lifeline)))
	if a.Kind == diagram.KindActor {
		s.figure(a)
		s.text(a.LaneX, a.TopY+a.Height-4, "middle", a.Caption)
		return
	}
	s.wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\"%s/>\n",
		a.X, a.TopY, a.Width, a.Height, s.pal.ActorFill.Hex(), strokeAttrs(s.stroke(s.pal.ActorStroke)))
	s.text(a.LaneX, a.TopY+a.Height-6, "middle", a.Caption)
}

// figure draws the stick figure in the extra headroom above the caption.
func (s *svgWriter) figure(a *diagram.Actor) {
	top := a.TopY
	headR := float32(6)
	cx := a.LaneX
	s.wf("  <circle cx=\"%g\" cy=\"%g\" r=\"%g\" fill=\"none\"%s/>\n",
		cx, top+headR, headR, strokeAttrs(s.stroke(s.pal.ActorStroke)))
	var p vector.Path
	p.MoveTo(cx, top+2*headR)
	p.LineTo(cx, top+2*headR+10) // torso
	p.MoveTo(cx-8, top+2*headR+4)
	p.LineTo(cx+8, top+2*headR+4) // arms
	p.MoveTo(cx, top+2*headR+10)
	p.LineTo(cx-7, top+2*headR+18) // legs
	p.MoveTo(cx, top+2*headR+10)
	p.LineTo(cx+7, top+2*headR+18)
	s.wf("  <path d=\"%s\" fill=\"none\"%s/>\n",
		p.Data(), strokeAttrs(s.stroke(s.pal.ActorStroke)))
}

func (s *svgWriter) events(events []diagram.Event) {
	for _, ev := range events {
		switch t := ev.(type) {
		case *diagram.Signal:
			s.signal(t)
		case *diagram.Annotation:
			s.annotation(t)
		case *diagram.Grouping:
			s.grouping(t)
		case *diagram.SyncGroup:
			s.events(t.Events)
		}
	}
}

func (s *svgWriter) signal(t *diagram.Signal) {
	if t.StartY == 0 {
		return // never placed
	}
	st := s.stroke(s.pal.Signal)
	if t.Dotted {
		st.Dash = []float32{6, 4}
	}
	marker := "head"
	if t.OpenArrow {
		marker = "headOpen"
	}
	if t.SelfSignal() {
		var p vector.Path
		p.MoveTo(t.StartX, t.StartY)
		p.LineTo(t.StartX+selfLoopSpan, t.StartY)
		p.LineTo(t.StartX+selfLoopSpan, t.EndY)
		p.LineTo(t.StartX+4, t.EndY)
		s.wf("  <path d=\"%s\" fill=\"none\"%s marker-end=\"url(#%s)\"/>\n",
			p.Data(), strokeAttrs(st), marker)
		s.caption(t.StartX+selfLoopSpan+6, t.StartY, "start", t.Caption)
		return
	}
	s.wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\"%s marker-end=\"url(#%s)\"/>\n",
		t.StartX, t.StartY, t.EndX, t.EndY, strokeAttrs(st), marker)
	s.caption((t.StartX+t.EndX)/2, t.StartY, "middle", t.Caption)
}

// caption writes the lines of text bottom-aligned just above y.
func (s *svgWriter) caption(x, y float32, anchor, text string) {
	if text == "" {
		return
	}
	lines := strings.Split(text, "\n")
	lineH := s.size * 1.2
	top := y - captionGap - lineH*float32(len(lines)-1)
	s.wf("  <text x=\"%g\" y=\"%g\" text-anchor=\"%s\" font-family=\"%s\" font-size=\"%g\" fill=\"%s\">",
		x, top, anchor, escAttr(s.family), s.size, s.pal.Text.Hex())
	for i, ln := range lines {
		if i == 0 {
			s.wf("%s", escText(ln))
			continue
		}
		s.wf("<tspan x=\"%g\" dy=\"%g\">%s</tspan>", x, lineH, escText(ln))
	}
	s.wf("</text>\n")
}

// text writes a single positioned line, used for box captions.
func (s *svgWriter) text(x, y float32, anchor, text string) {
	lines := strings.Split(text, "\n")
	lineH := s.size * 1.2
	baseline := y - lineH*float32(len(lines)-1)
	s.wf("  <text x=\"%g\" y=\"%g\" text-anchor=\"%s\" font-family=\"%s\" font-size=\"%g\" fill=\"%s\">",
		x, baseline, anchor, escAttr(s.family), s.size, s.pal.Text.Hex())
	for i, ln := range lines {
		if i == 0 {
			s.wf("%s", escText(ln))
			continue
		}
		s.wf("<tspan x=\"%g\" dy=\"%g\">%s</tspan>", x, lineH, escText(ln))
	}
	s.wf("</text>\n")
}

func (s *svgWriter) annotation(t *diagram.Annotation) {
	if !t.Placed {
		return
	}
	// Folded corner: the outline leaves the top-right corner open and a
	// small flap closes it.
	var outline vector.Path
	outline.MoveTo(t.X, t.Y)
	outline.LineTo(t.X+t.Width-noteFold, t.Y)
	outline.LineTo(t.X+t.Width, t.Y+noteFold)
	outline.LineTo(t.X+t.Width, t.Y+t.Height)
	outline.LineTo(t.X, t.Y+t.Height)
	outline.Close()
	s.wf("  <path d=\"%s\" fill=\"%s\"%s/>\n",
		outline.Data(), s.pal.NoteFill.Hex(), strokeAttrs(s.stroke(s.pal.NoteStroke)))
	var flap vector.Path
	flap.MoveTo(t.X+t.Width-noteFold, t.Y)
	flap.LineTo(t.X+t.Width-noteFold, t.Y+noteFold)
	flap.LineTo(t.X+t.Width, t.Y+noteFold)
	s.wf("  <path d=\"%s\" fill=\"none\"%s/>\n",
		flap.Data(), strokeAttrs(s.stroke(s.pal.NoteStroke)))
	s.text(t.X+t.Width/2, t.Y+t.Height-6, "middle", t.Caption)
}

func (s *svgWriter) grouping(t *diagram.Grouping) {
	s.wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"none\"%s/>\n",
		t.X, t.Y, t.Width, t.Height, strokeAttrs(s.stroke(s.pal.Frame)))
	// Label tab in the top-left corner.
	tabW := float32(len(t.Kind)*8 + 10)
	s.wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%d\" fill=\"%s\"%s/>\n",
		t.X, t.Y, tabW, frameTab, s.pal.ActorFill.Hex(), strokeAttrs(s.stroke(s.pal.Frame)))
	s.text(t.X+tabW/2, t.Y+frameTab-5, "middle", string(t.Kind))

	div := s.stroke(s.pal.Frame)
	div.Dash = []float32{4, 3}
	for i, cs := range t.Cases {
		divY := t.Y
		if i > 0 {
			divY = cs.Y
			s.wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\"%s/>\n",
				t.X, divY, t.X+t.Width, divY, strokeAttrs(div))
		}
		if cs.Caption != "" {
			s.text(t.X+tabW+8, divY+frameTab-5, "start", "["+cs.Caption+"]")
		}
		s.events(cs.Events)
	}
}

func solidHead() *vector.Path {
	var p vector.Path
	p.MoveTo(0, 0)
	p.LineTo(10, 4)
	p.LineTo(0, 8)
	p.Close()
	return &p
}

func openHead() *vector.Path {
	var p vector.Path
	p.MoveTo(0, 0)
	p.LineTo(10, 4)
	p.LineTo(0, 8)
	return &p
}

func escAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, '&', 'q', 'u', 'o', 't', ';')
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
