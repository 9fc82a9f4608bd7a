/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package theme holds the drawing styles of the render backends: colors,
// strokes and the caption font. Themes live as JSON files in the user theme
// directory and every load is checked against an embedded JSON schema, so a
// broken theme is rejected with field-path errors instead of bleeding zero
// values into a render.
package theme

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"goseqwriter/internal/textmetrics"
	"goseqwriter/internal/vector"
)

//go:embed schema.json
var themeSchema []byte

// Theme is the on-disk JSON shape. Colors are hex strings; empty fields
// fall back to the default theme's value when resolved into a Palette.
type Theme struct {
	Name        string  `json:"name"`
	Background  string  `json:"background,omitempty"`
	ActorFill   string  `json:"actorFill,omitempty"`
	ActorStroke string  `json:"actorStroke,omitempty"`
	Lifeline    string  `json:"lifeline,omitempty"`
	Signal      string  `json:"signal,omitempty"`
	NoteFill    string  `json:"noteFill,omitempty"`
	NoteStroke  string  `json:"noteStroke,omitempty"`
	Frame       string  `json:"frame,omitempty"`
	Text        string  `json:"text,omitempty"`
	FontFamily  string  `json:"fontFamily,omitempty"`
	FontSizePt  float32 `json:"fontSizePt,omitempty"`
	StrokeWidth float32 `json:"strokeWidth,omitempty"`
}

// Default is the compiled-in theme: black on white with the classic yellow
// note boxes.
func Default() *Theme {
	return &Theme{
		Name:        "default",
		Background:  "#ffffff",
		ActorFill:   "#ffffff",
		ActorStroke: "#000000",
		Lifeline:    "#888888",
		Signal:      "#000000",
		NoteFill:    "#fff9c4",
		NoteStroke:  "#857a33",
		Frame:       "#444444",
		Text:        "#000000",
		FontSizePt:  12,
		StrokeWidth: 1,
	}
}

// Palette is a Theme with every color parsed and every gap filled in,
// ready for a renderer.
type Palette struct {
	Background  vector.Color
	ActorFill   vector.Color
	ActorStroke vector.Color
	Lifeline    vector.Color
	Signal      vector.Color
	NoteFill    vector.Color
	NoteStroke  vector.Color
	Frame       vector.Color
	Text        vector.Color
	StrokeWidth float32
}

// Palette resolves t against the default theme. A nil receiver yields the
// default palette.
func (t *Theme) Palette() Palette {
	def := Default()
	if t == nil {
		t = def
	}
	return Palette{
		Background:  parseOr(t.Background, def.Background),
		ActorFill:   parseOr(t.ActorFill, def.ActorFill),
		ActorStroke: parseOr(t.ActorStroke, def.ActorStroke),
		Lifeline:    parseOr(t.Lifeline, def.Lifeline),
		Signal:      parseOr(t.Signal, def.Signal),
		NoteFill:    parseOr(t.NoteFill, def.NoteFill),
		NoteStroke:  parseOr(t.NoteStroke, def.NoteStroke),
		Frame:       parseOr(t.Frame, def.Frame),
		Text:        parseOr(t.Text, def.Text),
		StrokeWidth: positiveOr(t.StrokeWidth, def.StrokeWidth),
	}
}

// FontSpec is the caption font request for the glyph-metric measurer.
func (t *Theme) FontSpec() textmetrics.FontSpec {
	if t == nil {
		t = Default()
	}
	return textmetrics.FontSpec{Family: t.FontFamily, SizePt: positiveOr(t.FontSizePt, 12)}
}

func parseOr(s, fallback string) vector.Color {
	if c, err := vector.ParseHexColor(s); err == nil {
		return c
	}
	c, _ := vector.ParseHexColor(fallback)
	return c
}

func positiveOr(v, fallback float32) float32 {
	if v > 0 {
		return v
	}
	return fallback
}

// Validate checks raw theme JSON against the embedded schema.
func Validate(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(themeSchema)
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("theme schema validate: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("theme invalid: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Load reads and validates a theme file.
func Load(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	var t Theme
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode theme: %w", err)
	}
	return &t, nil
}

// Save writes the theme as indented JSON, refusing to persist anything the
// schema would later reject.
func Save(t *Theme, path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encode theme: %w", err)
	}
	if err := Validate(data); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure theme dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write theme: %w", err)
	}
	return nil
}

// Dir returns the user theme directory. GSW_THEME_DIR overrides the
// per-user config location.
func Dir() string {
	if d := os.Getenv("GSW_THEME_DIR"); d != "" {
		return d
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".goseqwriter", "themes")
	}
	return filepath.Join(base, "goseqwriter", "themes")
}

// LoadNamed resolves a theme by name from dir. The empty name and "default"
// return the compiled-in theme without touching the disk.
func LoadNamed(dir, name string) (*Theme, error) {
	if name == "" || name == "default" {
		return Default(), nil
	}
	return Load(filepath.Join(dir, name+".json"))
}

// List names the themes available in dir, always including "default".
func List(dir string) ([]string, error) {
	names := []string{"default"}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return names, nil
		}
		return nil, fmt.Errorf("read theme dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names[1:])
	return names, nil
}
