/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package theme

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "goseqwriter/internal/log"
	"goseqwriter/internal/textmetrics"
)

// A theme pack is a zip bundling theme.json with optional fonts/*.ttf, plus
// a small manifest for quick human inspection.

const packManifestName = "themepack.manifest.txt"

// ExportPack writes t and the given font files into a zip at destZipPath.
// Font entries land under fonts/ keeping only their base name.
func ExportPack(t *Theme, fontPaths []string, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("theme"), "export_pack")
	if t == nil || strings.TrimSpace(t.Name) == "" {
		return errors.New("theme with a name is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encode theme: %w", err)
	}
	if err := Validate(data); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	_ = os.Remove(destZipPath)
	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)
	defer func() { _ = zw.Close() }()

	manifest := fmt.Sprintf("goseqwriter theme pack\nCreated: %s\nTheme: %s\n",
		time.Now().Format(time.RFC3339), t.Name)
	w, err := zw.Create(packManifestName)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	tw, err := zw.Create("theme.json")
	if err != nil {
		return fmt.Errorf("add theme: %w", err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("write theme: %w", err)
	}

	for _, p := range fontPaths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open font %s: %w", p, err)
		}
		fw, err := zw.Create("fonts/" + filepath.Base(p))
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("add font: %w", err)
		}
		if _, err := io.Copy(fw, f); err != nil {
			_ = f.Close()
			return fmt.Errorf("write font: %w", err)
		}
		_ = f.Close()
	}
	l.Info("theme pack exported", slog.String("theme", t.Name), slog.Int("fonts", len(fontPaths)), slog.String("zip", destZipPath))
	return nil
}

// InstallPack validates and unpacks a theme pack into themesDir: the theme
// becomes <name>.json and fonts land under fonts/. Entries that already
// exist or that would escape themesDir are skipped. Returns the number of
// files written.
func InstallPack(themesDir, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("theme"), "install_pack")
	if strings.TrimSpace(themesDir) == "" {
		return 0, errors.New("themesDir is required")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	var themeEntry *zip.File
	for _, f := range r.File {
		if f.Name == "theme.json" {
			themeEntry = f
			break
		}
	}
	if themeEntry == nil {
		return 0, errors.New("pack has no theme.json")
	}
	rc, err := themeEntry.Open()
	if err != nil {
		return 0, fmt.Errorf("open theme entry: %w", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return 0, fmt.Errorf("read theme entry: %w", err)
	}
	if err := Validate(data); err != nil {
		return 0, err
	}
	var t Theme
	if err := json.Unmarshal(data, &t); err != nil {
		return 0, fmt.Errorf("decode theme entry: %w", err)
	}

	if err := os.MkdirAll(themesDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure themes dir: %w", err)
	}

	installed := 0
	themePath := filepath.Join(themesDir, t.Name+".json")
	if _, err := os.Stat(themePath); err == nil {
		l.Warn("skip existing theme", slog.String("path", themePath))
	} else {
		if err := os.WriteFile(themePath, data, 0o644); err != nil {
			return installed, fmt.Errorf("write theme: %w", err)
		}
		installed++
	}

	for _, f := range r.File {
		if f.Name == packManifestName || f.Name == "theme.json" || f.FileInfo().IsDir() {
			continue
		}
		if !strings.HasPrefix(f.Name, "fonts/") {
			continue
		}
		target := filepath.Join(themesDir, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(themesDir)+string(os.PathSeparator)) {
			l.Warn("skip entry escaping themes dir", slog.String("name", f.Name))
			continue
		}
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return installed, fmt.Errorf("ensure font dir: %w", err)
		}
		rc, err := f.Open()
		if err != nil {
			return installed, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			_ = rc.Close()
			return installed, fmt.Errorf("create %s: %w", target, err)
		}
		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = rc.Close()
			return installed, fmt.Errorf("write %s: %w", target, err)
		}
		_ = out.Close()
		_ = rc.Close()
		installed++
	}
	l.Info("theme pack installed", slog.String("theme", t.Name), slog.Int("files", installed))
	return installed, nil
}

// RegisterFonts loads every .ttf/.otf under themesDir/fonts into lib, using
// the file's base name as the family. Unparseable fonts are logged and
// skipped. Returns the number of fonts registered.
func RegisterFonts(lib *textmetrics.FontLibrary, themesDir string) (int, error) {
	l := applog.WithComponent("theme")
	fontsDir := filepath.Join(themesDir, "fonts")
	entries, err := os.ReadDir(fontsDir)
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
		if err := lib.LoadTTF(family, filepath.Join(fontsDir, e.Name())); err != nil {
			l.Warn("skip unreadable font", slog.String("file", e.Name()), slog.Any("err", err))
			continue
		}
		loaded++
	}
	return loaded, nil
}
