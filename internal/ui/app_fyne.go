//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"bytes"
	"context"
	"image/png"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"goseqwriter/internal/config"
	"goseqwriter/internal/crash"
	"goseqwriter/internal/layout"
	applog "goseqwriter/internal/log"
	"goseqwriter/internal/render"
	"goseqwriter/internal/script"
	"goseqwriter/internal/storage"
	"goseqwriter/internal/textmetrics"
	"goseqwriter/internal/theme"
	"goseqwriter/internal/undo"
	"goseqwriter/internal/version"
)

// historyTimeout bounds every history database call issued by the editor.
const historyTimeout = 5 * time.Second

// Run starts the Fyne-based editor. Pass an optional workspace directory to
// open immediately.
func Run(workspaceDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting editor")
	defer crash.Recover(workspaceDir)

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}
	cons := cfg.Render.Constraints()

	themesDir := theme.Dir()
	fonts := textmetrics.NewFontLibrary()
	if n, err := theme.RegisterFonts(fonts, themesDir); err != nil {
		l.Warn("font registration failed", slog.Any("err", err))
	} else if n > 0 {
		l.Info("fonts registered", slog.Int("count", n))
	}
	if cfg.General.FontsDir != "" {
		if n, err := fonts.LoadDir(cfg.General.FontsDir); err != nil {
			l.Warn("extra fonts dir failed", slog.String("dir", cfg.General.FontsDir), slog.Any("err", err))
		} else if n > 0 {
			l.Info("extra fonts registered", slog.Int("count", n))
		}
	}
	measure := textmetrics.OTProvider{Lib: fonts}

	themeName := cfg.General.Theme
	curTheme, err := theme.LoadNamed(themesDir, themeName)
	if err != nil {
		l.Warn("theme load failed, using default", slog.String("theme", themeName), slog.Any("err", err))
		themeName = "default"
		curTheme = theme.Default()
	}

	fyneApp := app.NewWithID("goseqwriter")
	w := fyneApp.NewWindow("Go Seq Writer")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1100)
	winH := prefs.IntWithFallback("window.height", 700)
	if winW < 800 {
		winW = 800
	}
	if winH < 500 {
		winH = 500
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")

	var ws *storage.Workspace
	dirty := false

	undoMgr := undo.NewManager(undo.Config{
		MaxBytes:    16 * 1024 * 1024,
		MaxEntries:  200,
		MinInterval: 300 * time.Millisecond,
	})

	preview := canvas.NewImageFromImage(nil)
	preview.FillMode = canvas.ImageFillOriginal

	scriptEntry := widget.NewMultiLineEntry()
	scriptEntry.SetPlaceHolder("actor Alice\nAlice->Bob: hello\nBob-->Alice: hi")
	// Suppresses OnChanged while text is set programmatically (open, undo, redo)
	restoring := false

	// Every edit re-runs the whole pipeline; the parser and layout engine
	// keep no state between runs.
	renderPreview := func(text string) {
		d := script.Parse(text)
		layout.Layout(d, textmetrics.Face{Provider: measure, Font: curTheme.FontSpec()}, cons)
		preview.Image = render.PNG(d, curTheme, measure)
		preview.Refresh()
		status.SetText(previewStatus(len(d.Actors), d.Width, d.Height))
	}

	scriptEntry.OnChanged = func(s string) {
		if restoring {
			return
		}
		dirty = true
		undoMgr.Push(s)
		renderPreview(s)
	}

	setScriptText := func(text string) {
		restoring = true
		scriptEntry.SetText(text)
		restoring = false
	}

	restoreCachedPreview := func(text string) bool {
		if ws == nil {
			return false
		}
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		blob, err := storage.GetPreview(ctx, ws, storage.ScriptHash(text))
		if err != nil || blob == nil {
			return false
		}
		img, err := png.Decode(bytes.NewReader(blob))
		if err != nil {
			return false
		}
		preview.Image = img
		preview.Refresh()
		return true
	}

	openWorkspace := func(dir string) error {
		o, err := storage.Open(dir)
		if err != nil {
			return err
		}
		o.PreviewCapBytes = cfg.History.PreviewMaxBytes
		text, err := o.ReadScript()
		if err != nil {
			return err
		}
		ws = o
		setScriptText(text)
		undoMgr.Reset(text)
		dirty = false
		if restoreCachedPreview(text) {
			l.Debug("preview restored from cache", slog.String("hash", storage.ScriptHash(text)))
		} else {
			renderPreview(text)
		}
		w.SetTitle("Go Seq Writer - " + filepath.Base(o.Root))
		status.SetText("Opened " + o.ScriptPath)
		l.Info("workspace opened", slog.String("root", o.Root), slog.String("script", o.ScriptPath))
		return nil
	}

	doSave := func() {
		if ws == nil {
			dialog.ShowInformation("Save", "Open a workspace first.", w)
			return
		}
		text := scriptEntry.Text
		if err := ws.WriteScript(text); err != nil {
			dialog.ShowError(err, w)
			return
		}
		dirty = false
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		if err := storage.SaveScriptSnapshot(ctx, ws, text, time.Now()); err != nil {
			l.Error("history snapshot failed", slog.Any("err", err))
		} else if cfg.History.KeepSnapshots > 0 {
			if _, err := storage.PruneScriptSnapshots(ctx, ws, cfg.History.KeepSnapshots); err != nil {
				l.Error("history prune failed", slog.Any("err", err))
			}
		}
		if preview.Image != nil {
			var buf bytes.Buffer
			if err := png.Encode(&buf, preview.Image); err == nil {
				if err := storage.SavePreview(ctx, ws, storage.ScriptHash(text), buf.Bytes()); err != nil {
					l.Error("preview cache save failed", slog.Any("err", err))
				}
			}
		}
		status.SetText("Saved " + ws.ScriptPath)
		l.Info("script saved", slog.String("path", ws.ScriptPath), slog.Int("bytes", len(text)))
	}

	openAction := func() {
		dialog.ShowFolderOpen(func(lu fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if lu == nil {
				return
			}
			if err := openWorkspace(lu.Path()); err != nil {
				dialog.ShowError(err, w)
			}
		}, w)
	}

	doUndo := func() {
		if text, ok := undoMgr.Undo(); ok {
			setScriptText(text)
			dirty = true
			renderPreview(text)
		} else {
			status.SetText("Nothing to undo")
		}
	}
	doRedo := func() {
		if text, ok := undoMgr.Redo(); ok {
			setScriptText(text)
			dirty = true
			renderPreview(text)
		} else {
			status.SetText("Nothing to redo")
		}
	}

	themeNames, err := theme.List(themesDir)
	if err != nil {
		l.Warn("theme list failed", slog.Any("err", err))
		themeNames = []string{"default"}
	}
	themeSelect := widget.NewSelect(themeNames, func(name string) {
		th, err := theme.LoadNamed(themesDir, name)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		curTheme = th
		themeName = name
		renderPreview(scriptEntry.Text)
		l.Info("theme selected", slog.String("theme", name))
	})
	themeSelect.SetSelected(themeName)

	exportFormats := func(formats ...string) {
		if ws == nil {
			dialog.ShowInformation("Export", "Open a workspace first.", w)
			return
		}
		d := script.Parse(scriptEntry.Text)
		written, err := render.BatchRender(d, render.BatchOptions{
			Formats:     formats,
			Theme:       curTheme,
			Fonts:       measure,
			Constraints: &cons,
			OutDir:      filepath.Join(ws.Root, storage.ArtifactsDirName),
			BaseName:    scriptBaseName(ws.ScriptPath),
		})
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		dialog.ShowInformation("Export", "Wrote:\n"+strings.Join(written, "\n"), w)
		l.Info("exported", slog.Int("files", len(written)))
	}

	// Menus
	openItem := fyne.NewMenuItem("Open Workspace…", openAction)
	saveItem := fyne.NewMenuItem("Save", doSave)
	fileMenu := fyne.NewMenu("File", openItem, saveItem)

	undoMenuItem := fyne.NewMenuItem("Undo", doUndo)
	redoMenuItem := fyne.NewMenuItem("Redo", doRedo)
	editMenu := fyne.NewMenu("Edit", undoMenuItem, redoMenuItem)

	exportSVGItem := fyne.NewMenuItem("Export SVG", func() { exportFormats("svg") })
	exportPNGItem := fyne.NewMenuItem("Export PNG", func() { exportFormats("png") })
	exportPDFItem := fyne.NewMenuItem("Export PDF", func() { exportFormats("pdf") })
	exportTxtItem := fyne.NewMenuItem("Export Text Art", func() { exportFormats("txt") })
	exportJSONItem := fyne.NewMenuItem("Export JSON", func() { exportFormats("json") })
	exportAllItem := fyne.NewMenuItem("Export All Formats", func() {
		exportFormats("svg", "png", "pdf", "txt", "json")
	})
	exportMenu := fyne.NewMenu("Export", exportSVGItem, exportPNGItem, exportPDFItem, exportTxtItem, exportJSONItem, fyne.NewMenuItemSeparator(), exportAllItem)

	aboutItem := fyne.NewMenuItem("About Go Seq Writer", func() {
		dialog.ShowInformation("About", version.String(), w)
	})
	aboutMenu := fyne.NewMenu("About", aboutItem)

	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, exportMenu, aboutMenu))

	// Toolbar and layout
	openBtn := widget.NewButton("Open", openAction)
	saveBtn := widget.NewButton("Save", doSave)
	undoBtn := widget.NewButton("Undo", doUndo)
	redoBtn := widget.NewButton("Redo", doRedo)
	topBar := container.NewHBox(openBtn, saveBtn, widget.NewSeparator(), undoBtn, redoBtn, widget.NewSeparator(), widget.NewLabel("Theme:"), themeSelect)

	split := container.NewHSplit(scriptEntry, container.NewScroll(preview))
	split.SetOffset(0.42)
	w.SetContent(container.NewBorder(topBar, status, nil, nil, split))

	// Shortcut: save with Ctrl+S
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
		doSave()
	})

	// Persist preferences on close, confirming when edits are unsaved
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if dirty {
			dialog.ShowConfirm("Unsaved Changes", "Close without saving?", func(closeAnyway bool) {
				if closeAnyway {
					w.Close()
				}
			}, w)
			return
		}
		w.Close()
	})

	// Try to open a workspace if provided
	if workspaceDir != "" {
		if err := openWorkspace(workspaceDir); err != nil {
			l.Error("auto-open workspace failed", slog.Any("err", err))
			// not fatal; continue
		}
	}

	w.ShowAndRun()
	return nil
}
