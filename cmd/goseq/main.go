/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goseqwriter/internal/config"
	"goseqwriter/internal/crash"
	applog "goseqwriter/internal/log"
	"goseqwriter/internal/render"
	"goseqwriter/internal/script"
	"goseqwriter/internal/storage"
	"goseqwriter/internal/textmetrics"
	"goseqwriter/internal/theme"
	"goseqwriter/internal/version"
)

const historyTimeout = 5 * time.Second

func usage() {
	fmt.Println("Go Seq Writer - sequence diagram renderer")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  goseq version|-v|--version                 Show version")
	fmt.Println("  goseq render [flags] <script.seq | dir>    Render a script (or a workspace's script)")
	fmt.Println("      -f svg,png,pdf,txt,json   Output formats (default from config)")
	fmt.Println("      -o <dir>                  Output directory (default <workspace>/out)")
	fmt.Println("      -theme <name>             Theme name (default from config)")
	fmt.Println("      -preset web|docs|print    Format preset, used when -f is absent")
	fmt.Println("  goseq themes                               List installed themes")
	fmt.Println("  goseq themes install <pack.zip>            Install a theme pack")
	fmt.Println("  goseq history [flags] [<dir>]              List workspace script snapshots")
	fmt.Println("      -limit <n>                Maximum snapshots to show (default 20)")
	fmt.Println("      -search <term>            Only snapshots containing the term")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover("")

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Go Seq Writer - sequence diagram renderer")
			fmt.Println(version.String())
			return
		case "render":
			fs := flag.NewFlagSet("render", flag.ExitOnError)
			formatsFlag := fs.String("f", "", "comma separated formats: svg, png, pdf, txt, json")
			outFlag := fs.String("o", "", "output directory")
			themeFlag := fs.String("theme", "", "theme name")
			presetFlag := fs.String("preset", "", "format preset: web, docs or print")
			_ = fs.Parse(args[2:])
			if fs.NArg() < 1 {
				fmt.Println("render requires <script.seq | workspaceDir>")
				usage()
				os.Exit(2)
			}
			preset := render.PresetName(*presetFlag)
			switch preset {
			case "", render.PresetWeb, render.PresetDocs, render.PresetPrint:
			default:
				fmt.Println("unknown preset:", *presetFlag)
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(fs.Arg(0))

			cfg, err := config.Load()
			if err != nil {
				l.Warn("config load failed, using defaults", slog.Any("err", err))
			}
			text, base, outDir, err := readScriptTarget(abs)
			if err != nil {
				l.Error("read script failed", slog.String("target", abs), slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if *outFlag != "" {
				outDir = *outFlag
			}

			themesDir := theme.Dir()
			themeName := cfg.General.Theme
			if *themeFlag != "" {
				themeName = *themeFlag
			}
			th, err := theme.LoadNamed(themesDir, themeName)
			if err != nil {
				l.Error("theme load failed", slog.String("theme", themeName), slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fonts := textmetrics.NewFontLibrary()
			if _, err := theme.RegisterFonts(fonts, themesDir); err != nil {
				l.Warn("font registration failed", slog.Any("err", err))
			}
			if cfg.General.FontsDir != "" {
				if _, err := fonts.LoadDir(cfg.General.FontsDir); err != nil {
					l.Warn("extra fonts dir failed", slog.String("dir", cfg.General.FontsDir), slog.Any("err", err))
				}
			}

			var formats []string
			if *formatsFlag != "" {
				formats = strings.Split(*formatsFlag, ",")
			} else if *presetFlag == "" && cfg.General.OutputFormat != "" {
				formats = []string{cfg.General.OutputFormat}
			}
			cons := cfg.Render.Constraints()

			d := script.Parse(text)
			l.Info("render", slog.String("script", abs),
				slog.Int("participants", len(d.Actors)), slog.Int("events", len(d.Events)))
			written, err := render.BatchRender(d, render.BatchOptions{
				Preset:      preset,
				Formats:     formats,
				Theme:       th,
				Fonts:       textmetrics.OTProvider{Lib: fonts},
				Constraints: &cons,
				OutDir:      outDir,
				BaseName:    base,
			})
			if err != nil {
				l.Error("render failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			for _, p := range written {
				fmt.Println("Wrote", p)
			}
			return
		case "themes":
			themesDir := theme.Dir()
			if len(args) >= 3 && args[2] == "install" {
				if len(args) < 4 {
					fmt.Println("themes install requires <pack.zip>")
					usage()
					os.Exit(2)
				}
				abs, _ := filepath.Abs(args[3])
				l.Info("install theme pack", slog.String("pack", abs), slog.String("dir", themesDir))
				n, err := theme.InstallPack(themesDir, abs)
				if err != nil {
					l.Error("install failed", slog.Any("err", err))
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				fmt.Printf("Installed %d file(s) into %s\n", n, themesDir)
				return
			}
			names, err := theme.List(themesDir)
			if err != nil {
				l.Error("list themes failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return
		case "history":
			fs := flag.NewFlagSet("history", flag.ExitOnError)
			limitFlag := fs.Int("limit", 20, "maximum snapshots to show")
			searchFlag := fs.String("search", "", "only snapshots containing the term")
			_ = fs.Parse(args[2:])
			dir := "."
			if fs.NArg() >= 1 {
				dir = fs.Arg(0)
			}
			abs, _ := filepath.Abs(dir)
			l.Info("history", slog.String("root", abs), slog.Int("limit", *limitFlag))
			ws, err := storage.Open(abs)
			if err != nil {
				l.Error("open workspace failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
			defer cancel()
			var snaps []storage.ScriptSnapshot
			if *searchFlag != "" {
				snaps, err = storage.SearchScriptSnapshots(ctx, ws, *searchFlag, *limitFlag)
			} else {
				snaps, err = storage.ListScriptSnapshots(ctx, ws, *limitFlag)
			}
			if err != nil {
				l.Error("history query failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if len(snaps) == 0 {
				fmt.Println("No snapshots.")
				return
			}
			for _, s := range snaps {
				fmt.Printf("%s  %4d bytes  %s\n", s.TS.Local().Format(time.RFC3339), len(s.Text), firstLine(s.Text))
			}
			return
		}
	}

	usage()
}

// readScriptTarget accepts either a workspace directory or a plain script
// file path. It returns the script text, the artifact base name, and the
// default output directory next to the script.
func readScriptTarget(abs string) (string, string, string, error) {
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		ws, err := storage.Open(abs)
		if err != nil {
			return "", "", "", err
		}
		text, err := ws.ReadScript()
		if err != nil {
			return "", "", "", err
		}
		name := filepath.Base(ws.ScriptPath)
		base := strings.TrimSuffix(name, filepath.Ext(name))
		return text, base, filepath.Join(ws.Root, storage.ArtifactsDirName), nil
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return "", "", "", err
	}
	name := filepath.Base(abs)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return string(b), base, filepath.Join(filepath.Dir(abs), storage.ArtifactsDirName), nil
}

// firstLine is the snapshot preview shown by the history listing.
func firstLine(text string) string {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if len(line) > 60 {
		line = line[:57] + "..."
	}
	return line
}
