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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"goseqwriter/internal/diagram"
	"goseqwriter/internal/textmetrics"
	"goseqwriter/internal/theme"
)

// PNG rasterizes the diagram. The provider resolves the theme's font for
// captions; nil falls back to the built-in bitmap face. The caller is
// expected to have laid d out with a Face measurer using the same provider
// so glyphs land inside their reserved space.
func PNG(d *diagram.Diagram, th *theme.Theme, p textmetrics.Provider) *image.RGBA {
	if p == nil {
		p = textmetrics.BasicProvider{}
	}
	face, metrics := p.Resolve(th.FontSpec())
	pal := th.Palette()

	w := int(math.Ceil(float64(d.Width)))
	h := int(math.Ceil(float64(d.Height)))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: pal.Background.RGBA()}, image.Point{}, draw.Src)

	r := &pngWriter{img: img, pal: pal, face: face, metrics: metrics}
	for _, a := range d.Actors {
		r.actor(a)
	}
	r.events(d.Events)
	return img
}

// WritePNG renders and encodes the diagram to outPath.
func WritePNG(d *diagram.Diagram, th *theme.Theme, p textmetrics.Provider, outPath string) error {
	img := PNG(d, th, p)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

type pngWriter struct {
	img     *image.RGBA
	pal     theme.Palette
	face    font.Face
	metrics textmetrics.Metrics
}

func (r *pngWriter) actor(a *diagram.Actor) {
	lane := px(a.LaneX)
	strokeLine(r.img, lane, px(a.TopY+a.Height), lane, px(a.BottomY), r.pal.Lifeline.RGBA())
	if a.Kind == diagram.KindActor {
		r.figure(a)
		r.text(a.LaneX, a.TopY+a.Height-4, "middle", a.Caption)
		return
	}
	x0, y0 := px(a.X), px(a.TopY)
	x1, y1 := px(a.X+a.Width), px(a.TopY+a.Height)
	fillRect(r.img, x0, y0, x1, y1, r.pal.ActorFill.RGBA())
	strokeRect(r.img, x0, y0, x1, y1, r.pal.ActorStroke.RGBA())
	r.text(a.LaneX, a.TopY+a.Height-6, "middle", a.Caption)
}

func (r *pngWriter) figure(a *diagram.Actor) {
	col := r.pal.ActorStroke.RGBA()
	top := a.TopY
	headR := float32(6)
	cx := a.LaneX
	strokeCircle(r.img, px(cx), px(top+headR), int(headR), col)
	strokeLine(r.img, px(cx), px(top+2*headR), px(cx), px(top+2*headR+10), col)
	strokeLine(r.img, px(cx-8), px(top+2*headR+4), px(cx+8), px(top+2*headR+4), col)
	strokeLine(r.img, px(cx), px(top+2*headR+10), px(cx-7), px(top+2*headR+18), col)
	strokeLine(r.img, px(cx), px(top+2*headR+10), px(cx+7), px(top+2*headR+18), col)
}

func (r *pngWriter) events(events []diagram.Event) {
	for _, ev := range events {
		switch t := ev.(type) {
		case *diagram.Signal:
			r.signal(t)
		case *diagram.Annotation:
			r.annotation(t)
		case *diagram.Grouping:
			r.grouping(t)
		case *diagram.SyncGroup:
			r.events(t.Events)
		}
	}
}

func (r *pngWriter) signal(t *diagram.Signal) {
	if t.StartY == 0 {
		return
	}
	col := r.pal.Signal.RGBA()
	dash := 0
	if t.Dotted {
		dash = 1
	}
	if t.SelfSignal() {
		x, y0, y1 := px(t.StartX), px(t.StartY), px(t.EndY)
		span := x + selfLoopSpan
		plotLine(r.img, x, y0, span, y0, col, dash)
		plotLine(r.img, span, y0, span, y1, col, dash)
		plotLine(r.img, span, y1, x+4, y1, col, dash)
		r.head(t.StartX+4, t.EndY, -1, t.OpenArrow)
		r.caption(t.StartX+selfLoopSpan+6, t.StartY, "start", t.Caption)
		return
	}
	plotLine(r.img, px(t.StartX), px(t.StartY), px(t.EndX), px(t.EndY), col, dash)
	dir := float32(1)
	if t.EndX < t.StartX {
		dir = -1
	}
	r.head(t.EndX, t.EndY, dir, t.OpenArrow)
	r.caption((t.StartX+t.EndX)/2, t.StartY, "middle", t.Caption)
}

func (r *pngWriter) head(x, y, dir float32, open bool) {
	col := r.pal.Signal.RGBA()
	tipX, tipY := px(x), px(y)
	baseX := px(x - 10*dir)
	if open {
		strokeLine(r.img, baseX, tipY-4, tipX, tipY, col)
		strokeLine(r.img, baseX, tipY+4, tipX, tipY, col)
		return
	}
	fillTriangle(r.img, tipX, tipY, baseX, tipY-4, baseX, tipY+4, col)
}

func (r *pngWriter) annotation(t *diagram.Annotation) {
	if !t.Placed {
		return
	}
	x0, y0 := px(t.X), px(t.Y)
	x1, y1 := px(t.X+t.Width), px(t.Y+t.Height)
	fold := noteFold
	fill := r.pal.NoteFill.RGBA()
	stroke := r.pal.NoteStroke.RGBA()
	// Two overlapping fills leave the folded corner blank.
	fillRect(r.img, x0, y0, x1-fold, y1, fill)
	fillRect(r.img, x0, y0+fold, x1, y1, fill)
	strokeLine(r.img, x0, y0, x1-fold, y0, stroke)
	strokeLine(r.img, x1-fold, y0, x1, y0+fold, stroke)
	strokeLine(r.img, x1, y0+fold, x1, y1, stroke)
	strokeLine(r.img, x1, y1, x0, y1, stroke)
	strokeLine(r.img, x0, y1, x0, y0, stroke)
	strokeLine(r.img, x1-fold, y0, x1-fold, y0+fold, stroke)
	strokeLine(r.img, x1-fold, y0+fold, x1, y0+fold, stroke)
	r.text(t.X+t.Width/2, t.Y+t.Height-6, "middle", t.Caption)
}

func (r *pngWriter) grouping(t *diagram.Grouping) {
	frame := r.pal.Frame.RGBA()
	x0, y0 := px(t.X), px(t.Y)
	x1, y1 := px(t.X+t.Width), px(t.Y+t.Height)
	strokeRect(r.img, x0, y0, x1, y1, frame)
	tabW := len(t.Kind)*8 + 10
	fillRect(r.img, x0, y0, x0+tabW, y0+frameTab, r.pal.ActorFill.RGBA())
	strokeRect(r.img, x0, y0, x0+tabW, y0+frameTab, frame)
	r.text(t.X+float32(tabW)/2, t.Y+frameTab-5, "middle", string(t.Kind))

	for i, cs := range t.Cases {
		divY := t.Y
		if i > 0 {
			divY = cs.Y
			plotLine(r.img, x0, px(divY), x1, px(divY), frame, 1)
		}
		if cs.Caption != "" {
			r.text(t.X+float32(tabW)+8, divY+frameTab-5, "start", "["+cs.Caption+"]")
		}
		r.events(cs.Events)
	}
}

// caption writes text lines bottom-aligned just above y.
func (r *pngWriter) caption(x, y float32, anchor, text string) {
	if text == "" {
		return
	}
	r.text(x, y-captionGap, anchor, text)
}

// text writes lines whose last baseline sits at y, using the resolved face.
func (r *pngWriter) text(x, y float32, anchor, text string) {
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(r.pal.Text.RGBA()),
		Face: r.face,
	}
	lines := strings.Split(text, "\n")
	lineH := r.metrics.Ascent + r.metrics.Descent + r.metrics.LineGap
	baseline := y - lineH*float32(len(lines)-1)
	for i, ln := range lines {
		tx := x
		if anchor == "middle" {
			tx -= float32(d.MeasureString(ln)>>6) / 2
		}
		d.Dot = fixed.Point26_6{
			X: fixed.Int26_6(tx * 64),
			Y: fixed.Int26_6((baseline + float32(i)*lineH) * 64),
		}
		d.DrawString(ln)
	}
}

func px(v float32) int { return int(math.Round(float64(v))) }

// strokeLine draws a 1px line between the endpoints.
func strokeLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	plotLine(img, x0, y0, x1, y1, col, 0)
}

// plotLine is Bresenham over the segment; dash > 0 plots six-on four-off
// pixel runs.
func plotLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA, dash int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx + dy
	for i := 0; ; i++ {
		if dash == 0 || i%10 < 6 {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of
// endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

// strokeCircle plots the midpoint circle of radius rad around the center.
func strokeCircle(img *image.RGBA, cx, cy, rad int, col color.RGBA) {
	x, y := rad, 0
	err := 1 - rad
	for x >= y {
		img.SetRGBA(cx+x, cy+y, col)
		img.SetRGBA(cx+y, cy+x, col)
		img.SetRGBA(cx-y, cy+x, col)
		img.SetRGBA(cx-x, cy+y, col)
		img.SetRGBA(cx-x, cy-y, col)
		img.SetRGBA(cx-y, cy-x, col)
		img.SetRGBA(cx+y, cy-x, col)
		img.SetRGBA(cx+x, cy-y, col)
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
}

// fillTriangle rasterizes the triangle by sign-testing each pixel of its
// bounding box against the three edges.
func fillTriangle(img *image.RGBA, x0, y0, x1, y1, x2, y2 int, col color.RGBA) {
	minX := min(x0, x1, x2)
	maxX := max(x0, x1, x2)
	minY := min(y0, y1, y2)
	maxY := max(y0, y1, y2)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			d0 := (x1-x0)*(y-y0) - (y1-y0)*(x-x0)
			d1 := (x2-x1)*(y-y1) - (y2-y1)*(x-x1)
			d2 := (x0-x2)*(y-y2) - (y0-y2)*(x-x2)
			if (d0 >= 0 && d1 >= 0 && d2 >= 0) || (d0 <= 0 && d1 <= 0 && d2 <= 0) {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
