/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"goseqwriter/internal/diagram"
	"goseqwriter/internal/theme"
	"goseqwriter/internal/vector"
)

// PDF writes the diagram as a single-page PDF sized exactly to the canvas.
// Points map 1:1 to the layout's pixel coordinates. Text stays vector
// through the built-in Helvetica, so nothing needs embedding.
func PDF(d *diagram.Diagram, th *theme.Theme, outPath string) error {
	pal := th.Palette()
	size := th.FontSpec().SizePt
	if size <= 0 {
		size = 12
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: f64(d.Width), Ht: f64(d.Height)},
		OrientationStr: "",
	})
	pdf.SetTitle("Sequence diagram", false)
	pdf.SetAuthor("goseqwriter", false)
	pdf.SetFont("Helvetica", "", f64(size))
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: f64(d.Width), Ht: f64(d.Height)})

	p := &pdfWriter{pdf: pdf, pal: pal, size: size}
	setPDFFill(pdf, pal.Background)
	pdf.Rect(0, 0, f64(d.Width), f64(d.Height), "F")
	setPDFText(pdf, pal.Text)

	for _, a := range d.Actors {
		p.actor(a)
	}
	p.events(d.Events)

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type pdfWriter struct {
	pdf  *gofpdf.Fpdf
	pal  theme.Palette
	size float32
}

func (p *pdfWriter) actor(a *diagram.Actor) {
	setPDFDraw(p.pdf, p.pal.Lifeline)
	p.pdf.SetLineWidth(f64(p.pal.StrokeWidth))
	p.pdf.Line(f64(a.LaneX), f64(a.TopY+a.Height), f64(a.LaneX), f64(a.BottomY))

	setPDFDraw(p.pdf, p.pal.ActorStroke)
	if a.Kind == diagram.KindActor {
		p.figure(a)
		p.text(a.LaneX, a.TopY+a.Height-4, "middle", a.Caption)
		return
	}
	setPDFFill(p.pdf, p.pal.ActorFill)
	p.pdf.Rect(f64(a.X), f64(a.TopY), f64(a.Width), f64(a.Height), "FD")
	p.text(a.LaneX, a.TopY+a.Height-6, "middle", a.Caption)
}

func (p *pdfWriter) figure(a *diagram.Actor) {
	top := a.TopY
	headR := float32(6)
	cx := a.LaneX
	p.pdf.Circle(f64(cx), f64(top+headR), f64(headR), "D")
	p.pdf.Line(f64(cx), f64(top+2*headR), f64(cx), f64(top+2*headR+10))
	p.pdf.Line(f64(cx-8), f64(top+2*headR+4), f64(cx+8), f64(top+2*headR+4))
	p.pdf.Line(f64(cx), f64(top+2*headR+10), f64(cx-7), f64(top+2*headR+18))
	p.pdf.Line(f64(cx), f64(top+2*headR+10), f64(cx+7), f64(top+2*headR+18))
}

func (p *pdfWriter) events(events []diagram.Event) {
	for _, ev := range events {
		switch t := ev.(type) {
		case *diagram.Signal:
			p.signal(t)
		case *diagram.Annotation:
			p.annotation(t)
		case *diagram.Grouping:
			p.grouping(t)
		case *diagram.SyncGroup:
			p.events(t.Events)
		}
	}
}

func (p *pdfWriter) signal(t *diagram.Signal) {
	if t.StartY == 0 {
		return
	}
	setPDFDraw(p.pdf, p.pal.Signal)
	p.pdf.SetLineWidth(f64(p.pal.StrokeWidth))
	if t.Dotted {
		p.pdf.SetDashPattern([]float64{6, 4}, 0)
		defer p.pdf.SetDashPattern([]float64{}, 0)
	}
	if t.SelfSignal() {
		p.pdf.Line(f64(t.StartX), f64(t.StartY), f64(t.StartX+selfLoopSpan), f64(t.StartY))
		p.pdf.Line(f64(t.StartX+selfLoopSpan), f64(t.StartY), f64(t.StartX+selfLoopSpan), f64(t.EndY))
		p.pdf.Line(f64(t.StartX+selfLoopSpan), f64(t.EndY), f64(t.StartX+4), f64(t.EndY))
		p.head(t.StartX+4, t.EndY, -1, t.OpenArrow)
		p.caption(t.StartX+selfLoopSpan+6, t.StartY, "start", t.Caption)
		return
	}
	p.pdf.Line(f64(t.StartX), f64(t.StartY), f64(t.EndX), f64(t.EndY))
	dir := float32(1)
	if t.EndX < t.StartX {
		dir = -1
	}
	p.head(t.EndX, t.EndY, dir, t.OpenArrow)
	p.caption((t.StartX+t.EndX)/2, t.StartY, "middle", t.Caption)
}

// head draws an arrowhead whose tip sits at (x, y) pointing along dir.
func (p *pdfWriter) head(x, y, dir float32, open bool) {
	bx := x - 10*dir
	if open {
		p.pdf.Line(f64(bx), f64(y-4), f64(x), f64(y))
		p.pdf.Line(f64(bx), f64(y+4), f64(x), f64(y))
		return
	}
	setPDFFill(p.pdf, p.pal.Signal)
	p.pdf.Polygon([]gofpdf.PointType{
		{X: f64(x), Y: f64(y)},
		{X: f64(bx), Y: f64(y - 4)},
		{X: f64(bx), Y: f64(y + 4)},
	}, "F")
}

func (p *pdfWriter) annotation(t *diagram.Annotation) {
	if !t.Placed {
		return
	}
	setPDFFill(p.pdf, p.pal.NoteFill)
	setPDFDraw(p.pdf, p.pal.NoteStroke)
	p.pdf.SetLineWidth(f64(p.pal.StrokeWidth))
	p.pdf.Polygon([]gofpdf.PointType{
		{X: f64(t.X), Y: f64(t.Y)},
		{X: f64(t.X + t.Width - noteFold), Y: f64(t.Y)},
		{X: f64(t.X + t.Width), Y: f64(t.Y + noteFold)},
		{X: f64(t.X + t.Width), Y: f64(t.Y + t.Height)},
		{X: f64(t.X), Y: f64(t.Y + t.Height)},
	}, "FD")
	p.pdf.Line(f64(t.X+t.Width-noteFold), f64(t.Y), f64(t.X+t.Width-noteFold), f64(t.Y+noteFold))
	p.pdf.Line(f64(t.X+t.Width-noteFold), f64(t.Y+noteFold), f64(t.X+t.Width), f64(t.Y+noteFold))
	p.text(t.X+t.Width/2, t.Y+t.Height-6, "middle", t.Caption)
}

func (p *pdfWriter) grouping(t *diagram.Grouping) {
	setPDFDraw(p.pdf, p.pal.Frame)
	p.pdf.SetLineWidth(f64(p.pal.StrokeWidth))
	p.pdf.Rect(f64(t.X), f64(t.Y), f64(t.Width), f64(t.Height), "D")
	tabW := float32(len(t.Kind)*8 + 10)
	setPDFFill(p.pdf, p.pal.ActorFill)
	p.pdf.Rect(f64(t.X), f64(t.Y), f64(tabW), frameTab, "FD")
	p.text(t.X+tabW/2, t.Y+frameTab-5, "middle", string(t.Kind))

	for i, cs := range t.Cases {
		divY := t.Y
		if i > 0 {
			divY = cs.Y
			setPDFDraw(p.pdf, p.pal.Frame)
			p.pdf.SetDashPattern([]float64{4, 3}, 0)
			p.pdf.Line(f64(t.X), f64(divY), f64(t.X+t.Width), f64(divY))
			p.pdf.SetDashPattern([]float64{}, 0)
		}
		if cs.Caption != "" {
			p.text(t.X+tabW+8, divY+frameTab-5, "start", "["+cs.Caption+"]")
		}
		p.events(cs.Events)
	}
}

// caption writes text lines bottom-aligned just above y, like the SVG
// backend.
func (p *pdfWriter) caption(x, y float32, anchor, text string) {
	if text == "" {
		return
	}
	p.text(x, y-captionGap, anchor, text)
}

// text writes lines whose last baseline sits at y.
func (p *pdfWriter) text(x, y float32, anchor, text string) {
	setPDFText(p.pdf, p.pal.Text)
	p.pdf.SetFont("Helvetica", "", f64(p.size))
	lines := strings.Split(text, "\n")
	lineH := p.size * 1.2
	baseline := y - lineH*float32(len(lines)-1)
	for i, ln := range lines {
		tx := f64(x)
		if anchor == "middle" {
			tx -= p.pdf.GetStringWidth(ln) / 2
		}
		p.pdf.Text(tx, f64(baseline+float32(i)*lineH), ln)
	}
}

func f64(v float32) float64 { return float64(v) }

func setPDFDraw(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setPDFFill(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setPDFText(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}
