/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"goseqwriter/internal/layout"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields should be preserved when possible (yaml handles this by ignoring extras on unmarshal).

type GeneralConfig struct {
	OutputFormat string `yaml:"output_format"` // svg | txt | pdf | png | json
	Theme        string `yaml:"theme"`
	FontsDir     string `yaml:"fonts_dir"`
}

// RenderConfig overrides individual layout spacing values. Zero means keep
// the built-in default.
type RenderConfig struct {
	BoxPadding        float32 `yaml:"box_padding"`
	FigureHeight      float32 `yaml:"figure_height"`
	TopPadding        float32 `yaml:"top_padding"`
	BottomPadding     float32 `yaml:"bottom_padding"`
	SignalMargin      float32 `yaml:"signal_margin"`
	SelfLoopHeight    float32 `yaml:"self_loop_height"`
	NoteOffset        float32 `yaml:"note_offset"`
	GroupTopMargin    float32 `yaml:"group_top_margin"`
	GroupBottomMargin float32 `yaml:"group_bottom_margin"`
}

type HistoryConfig struct {
	KeepSnapshots   int   `yaml:"keep_snapshots"`
	PreviewMaxBytes int64 `yaml:"preview_max_bytes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Render        RenderConfig  `yaml:"render"`
	History       HistoryConfig `yaml:"history"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{OutputFormat: "svg", Theme: "default", FontsDir: ""},
		Render:        RenderConfig{},
		History:       HistoryConfig{KeepSnapshots: 100, PreviewMaxBytes: 64 * 1024 * 1024},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvOutputFormat = "GSW_OUTPUT_FORMAT"
	EnvTheme        = "GSW_THEME"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GSW_LOG_LEVEL"
	EnvLogFormat = "GSW_LOG_FORMAT"
	EnvLogSource = "GSW_LOG_SOURCE"
	EnvLogFile   = "GSW_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoSeqWriter")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoSeqWriter")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "goseqwriter")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), err
	}
	return LoadFrom(path)
}

// LoadFrom behaves like Load for an explicit config file path. A missing or
// unparseable file yields the defaults.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the config YAML to an explicit path.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Constraints resolves the render overrides against the built-in layout
// defaults. Only positive values override.
func (r RenderConfig) Constraints() layout.Constraints {
	c := layout.DefaultConstraints()
	if r.BoxPadding > 0 {
		c.BoxPadding = r.BoxPadding
	}
	if r.FigureHeight > 0 {
		c.FigureHeight = r.FigureHeight
	}
	if r.TopPadding > 0 {
		c.TopPadding = r.TopPadding
	}
	if r.BottomPadding > 0 {
		c.BottomPadding = r.BottomPadding
	}
	if r.SignalMargin > 0 {
		c.SignalMargin = r.SignalMargin
	}
	if r.SelfLoopHeight > 0 {
		c.SelfLoopHeight = r.SelfLoopHeight
	}
	if r.NoteOffset > 0 {
		c.NoteOffset = r.NoteOffset
	}
	if r.GroupTopMargin > 0 {
		c.GroupTopMargin = r.GroupTopMargin
	}
	if r.GroupBottomMargin > 0 {
		c.GroupBottomMargin = r.GroupBottomMargin
	}
	return c
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if strings.TrimSpace(src.General.OutputFormat) != "" {
		dst.General.OutputFormat = strings.ToLower(strings.TrimSpace(src.General.OutputFormat))
	}
	if strings.TrimSpace(src.General.Theme) != "" {
		dst.General.Theme = strings.TrimSpace(src.General.Theme)
	}
	if strings.TrimSpace(src.General.FontsDir) != "" {
		dst.General.FontsDir = strings.TrimSpace(src.General.FontsDir)
	}
	if src.Render.BoxPadding > 0 {
		dst.Render.BoxPadding = src.Render.BoxPadding
	}
	if src.Render.FigureHeight > 0 {
		dst.Render.FigureHeight = src.Render.FigureHeight
	}
	if src.Render.TopPadding > 0 {
		dst.Render.TopPadding = src.Render.TopPadding
	}
	if src.Render.BottomPadding > 0 {
		dst.Render.BottomPadding = src.Render.BottomPadding
	}
	if src.Render.SignalMargin > 0 {
		dst.Render.SignalMargin = src.Render.SignalMargin
	}
	if src.Render.SelfLoopHeight > 0 {
		dst.Render.SelfLoopHeight = src.Render.SelfLoopHeight
	}
	if src.Render.NoteOffset > 0 {
		dst.Render.NoteOffset = src.Render.NoteOffset
	}
	if src.Render.GroupTopMargin > 0 {
		dst.Render.GroupTopMargin = src.Render.GroupTopMargin
	}
	if src.Render.GroupBottomMargin > 0 {
		dst.Render.GroupBottomMargin = src.Render.GroupBottomMargin
	}
	if src.History.KeepSnapshots > 0 {
		dst.History.KeepSnapshots = src.History.KeepSnapshots
	}
	if src.History.PreviewMaxBytes > 0 {
		dst.History.PreviewMaxBytes = src.History.PreviewMaxBytes
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvOutputFormat)); v != "" {
		cfg.General.OutputFormat = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTheme)); v != "" {
		cfg.General.Theme = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}
