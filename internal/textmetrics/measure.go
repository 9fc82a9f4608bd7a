/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textmetrics

// Text measurement behind one small interface. The layout engine only knows
// Measurer; the glyph-metric implementation feeds the vector backends while
// the grid implementation feeds text-art, so one layout algorithm serves
// both targets.

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Size is a measured width/height pair in the target medium's units:
// pixels for glyph metrics, character cells for the grid.
type Size struct{ W, H float32 }

// Measurer reports the rendered size of a caption. Embedded newlines are
// explicit line breaks: width is the widest line, height the sum of lines.
type Measurer interface {
	Measure(text string) Size
}

// Grid counts runes and lines for the monospaced text-art target. Zero cell
// sizes measure in whole cells (1x1).
type Grid struct {
	CellW, CellH float32
}

func (g Grid) Measure(text string) Size {
	cw, ch := g.CellW, g.CellH
	if cw <= 0 {
		cw = 1
	}
	if ch <= 0 {
		ch = 1
	}
	lines := strings.Split(text, "\n")
	var widest int
	for _, ln := range lines {
		if n := utf8.RuneCountInString(ln); n > widest {
			widest = n
		}
	}
	return Size{W: float32(widest) * cw, H: float32(len(lines)) * ch}
}

// Face measures through the glyph metrics of a resolved font face. The
// drawer is created fresh for every call and discarded afterward; nothing
// is cached between measurements.
type Face struct {
	Provider Provider
	Font     FontSpec
}

func (f Face) Measure(text string) Size {
	p := f.Provider
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(f.Font)
	d := &font.Drawer{Face: face}
	lineH := met.Ascent + met.Descent
	lines := strings.Split(text, "\n")
	var widest float32
	for _, ln := range lines {
		if w := advance(d, ln); w > widest {
			widest = w
		}
	}
	return Size{W: widest, H: lineH * float32(len(lines))}
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s) >> 6) // fixed.Int26_6 to px
}

// FontSpec names a requested font. Captions are single-style, so family and
// size are the whole story.
type FontSpec struct {
	Family string
	SizePt float32
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests and
// as the last-resort fallback.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}
