/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textmetrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// FontLibrary holds parsed fonts keyed by family name. Families are matched
// case-insensitively.
type FontLibrary struct {
	fonts map[string]*opentype.Font
}

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: map[string]*opentype.Font{}}
}

// LoadTTF parses a TrueType/OpenType file and registers it under family.
func (l *FontLibrary) LoadTTF(family, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	l.fonts[strings.ToLower(family)] = ft
	return nil
}

// LoadDir registers every .ttf/.otf file in dir under its base name as the
// family. Missing directories register nothing. Returns the number of fonts
// registered; unparseable files abort with an error.
func (l *FontLibrary) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read fonts dir: %w", err)
	}
	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".ttf" && ext != ".otf" {
			continue
		}
		family := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if err := l.LoadTTF(family, filepath.Join(dir, e.Name())); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

// Families lists the registered family names in no particular order.
func (l *FontLibrary) Families() []string {
	out := make([]string, 0, len(l.fonts))
	for k := range l.fonts {
		out = append(out, k)
	}
	return out
}

func (l *FontLibrary) find(family string) *opentype.Font {
	if l == nil || len(l.fonts) == 0 {
		return nil
	}
	return l.fonts[strings.ToLower(family)]
}

// OTProvider resolves faces from a FontLibrary at a fixed DPI. Unknown
// families fall through to Fallback, and a nil Fallback falls through to
// BasicProvider, so Resolve always yields a usable face.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	size := float64(spec.SizePt)
	if size <= 0 {
		size = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if ft := p.Lib.find(spec.Family); ft != nil {
		face, err := opentype.NewFace(ft, &opentype.FaceOptions{
			Size:    size,
			DPI:     dpi,
			Hinting: font.HintingFull,
		})
		if err == nil {
			m := face.Metrics()
			return face, Metrics{
				Ascent:  float32(m.Ascent.Round()),
				Descent: float32(m.Descent.Round()),
				LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
			}
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
