/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"goseqwriter/internal/diagram"
	"goseqwriter/internal/layout"
	"goseqwriter/internal/script"
	"goseqwriter/internal/textmetrics"
	"goseqwriter/internal/theme"
)

func layoutDiagram(t *testing.T, src string) *diagram.Diagram {
	t.Helper()
	d := script.Parse(src)
	layout.Layout(d, textmetrics.Face{}, layout.DefaultConstraints())
	return d
}

// pixelTheme uses colors that cannot be confused with each other.
func pixelTheme() *theme.Theme {
	return &theme.Theme{
		Name:        "pixel",
		Background:  "#102030",
		ActorFill:   "#ffeedd",
		ActorStroke: "#ff0000",
		Signal:      "#00ff00",
	}
}

func TestPNGCanvasAndBackground(t *testing.T) {
	d := layoutDiagram(t, "A->B: hi")
	img := PNG(d, pixelTheme(), nil)
	b := img.Bounds()
	if b.Dx() != int(math.Ceil(float64(d.Width))) || b.Dy() != int(math.Ceil(float64(d.Height))) {
		t.Fatalf("canvas %dx%d does not match diagram %gx%g", b.Dx(), b.Dy(), d.Width, d.Height)
	}
	if got := img.RGBAAt(1, 1); got != (color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}) {
		t.Fatalf("background pixel mismatch: %v", got)
	}
}

func TestPNGActorBoxPixels(t *testing.T) {
	d := layoutDiagram(t, "A->B: hi")
	img := PNG(d, pixelTheme(), nil)
	a := d.Actors[0]
	x0, y0 := int(math.Round(float64(a.X))), int(math.Round(float64(a.TopY)))
	if got := img.RGBAAt(x0, y0); got != (color.RGBA{R: 0xff, A: 0xff}) {
		t.Fatalf("actor border pixel mismatch at (%d,%d): %v", x0, y0, got)
	}
	if got := img.RGBAAt(x0+2, y0+2); got != (color.RGBA{R: 0xff, G: 0xee, B: 0xdd, A: 0xff}) {
		t.Fatalf("actor fill pixel mismatch: %v", got)
	}
}

func TestPNGSignalLinePixels(t *testing.T) {
	d := layoutDiagram(t, "A->B: hi")
	img := PNG(d, pixelTheme(), nil)
	sig, ok := d.Events[0].(*diagram.Signal)
	if !ok {
		t.Fatalf("expected signal event, got %T", d.Events[0])
	}
	x := int(math.Round(float64((sig.StartX + sig.EndX) / 2)))
	y := int(math.Round(float64(sig.StartY)))
	if got := img.RGBAAt(x, y); got != (color.RGBA{G: 0xff, A: 0xff}) {
		t.Fatalf("signal line pixel mismatch at (%d,%d): %v", x, y, got)
	}
}

func TestPNGDottedSignalHasGaps(t *testing.T) {
	d := layoutDiagram(t, "Sender-->Receiver: ping")
	img := PNG(d, pixelTheme(), nil)
	sig := d.Events[0].(*diagram.Signal)
	y := int(math.Round(float64(sig.StartY)))
	lit, dark := 0, 0
	for x := int(sig.StartX) + 12; x < int(sig.EndX)-12; x++ {
		if img.RGBAAt(x, y) == (color.RGBA{G: 0xff, A: 0xff}) {
			lit++
		} else {
			dark++
		}
	}
	if lit == 0 || dark == 0 {
		t.Fatalf("dotted stroke should mix drawn and skipped pixels, got %d lit %d dark", lit, dark)
	}
}

func TestPNGEmptyDiagramMinimumCanvas(t *testing.T) {
	d := layoutDiagram(t, "")
	img := PNG(d, theme.Default(), nil)
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		t.Fatalf("expected non-degenerate canvas, got %v", b)
	}
}

func TestWritePNGFileDecodes(t *testing.T) {
	d := layoutDiagram(t, "A->B: hello\nnote right of B: hey")
	out := filepath.Join(t.TempDir(), "img", "diagram.png")
	if err := WritePNG(d, theme.Default(), nil, out); err != nil {
		t.Fatalf("WritePNG error: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open png: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if cfg.Width != int(math.Ceil(float64(d.Width))) || cfg.Height != int(math.Ceil(float64(d.Height))) {
		t.Fatalf("encoded size %dx%d does not match diagram %gx%g", cfg.Width, cfg.Height, d.Width, d.Height)
	}
}
