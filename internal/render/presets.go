/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"goseqwriter/internal/diagram"
	"goseqwriter/internal/layout"
	"goseqwriter/internal/storage"
	"goseqwriter/internal/textmetrics"
	"goseqwriter/internal/theme"
)

// PresetName represents a named render preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetDocs  PresetName = "docs"
	PresetPrint PresetName = "print"
)

// BatchOptions controls batch rendering across multiple formats.
//
// Path semantics:
//   - OutDir defaults to the current directory.
//   - Each format writes <OutDir>/<BaseName>.<ext>; BaseName defaults to
//     "diagram".
//
// The text format lays the diagram out on the character grid; every other
// format uses the theme font's pixel metrics. Formats listed explicitly
// override the preset's defaults.
type BatchOptions struct {
	Preset      PresetName
	Formats     []string // allowed: svg, png, pdf, txt, json; empty means preset defaults
	Theme       *theme.Theme
	Fonts       textmetrics.Provider
	Constraints *layout.Constraints // pixel-format spacing; nil means DefaultConstraints
	OutDir      string
	BaseName    string
}

// BatchRender renders the diagram into every requested format and returns
// the written paths in order.
func BatchRender(d *diagram.Diagram, opt BatchOptions) ([]string, error) {
	th := opt.Theme
	if th == nil {
		th = theme.Default()
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	for i := range formats {
		formats[i] = strings.ToLower(strings.TrimSpace(formats[i]))
	}
	outDir := opt.OutDir
	if outDir == "" {
		outDir = "."
	}
	base := opt.BaseName
	if base == "" {
		base = "diagram"
	}
	cons := layout.DefaultConstraints()
	if opt.Constraints != nil {
		cons = *opt.Constraints
	}

	pixel := textmetrics.Face{Provider: opt.Fonts, Font: th.FontSpec()}
	var written []string
	for _, f := range formats {
		out := filepath.Join(outDir, base+"."+f)
		switch f {
		case "svg":
			layout.Layout(d, pixel, cons)
			if err := storage.WriteArtifact(out, SVG(d, th)); err != nil {
				return written, fmt.Errorf("svg: %w", err)
			}
		case "png":
			layout.Layout(d, pixel, cons)
			if err := WritePNG(d, th, opt.Fonts, out); err != nil {
				return written, fmt.Errorf("png: %w", err)
			}
		case "pdf":
			layout.Layout(d, pixel, cons)
			if err := PDF(d, th, out); err != nil {
				return written, fmt.Errorf("pdf: %w", err)
			}
		case "json":
			layout.Layout(d, pixel, cons)
			b, err := JSON(d)
			if err != nil {
				return written, fmt.Errorf("json: %w", err)
			}
			if err := storage.WriteArtifact(out, b); err != nil {
				return written, fmt.Errorf("json: %w", err)
			}
		case "txt":
			layout.Layout(d, textmetrics.Grid{}, layout.GridConstraints())
			if err := storage.WriteArtifact(out, Text(d)); err != nil {
				return written, fmt.Errorf("txt: %w", err)
			}
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
		written = append(written, out)
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"svg", "png"}
	case PresetDocs:
		return []string{"svg", "txt"}
	case PresetPrint:
		return []string{"pdf"}
	default:
		return []string{"svg"}
	}
}
