/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	ScriptFileName   = "diagram.seq"
	BackupsDirName   = "backups"
	ArtifactsDirName = "out"

	// DefaultKeepBackups is the number of timestamped script backups
	// retained when the Workspace does not override it.
	DefaultKeepBackups = 10
)

// Workspace keeps track of a diagram workspace on disk.
// Root is the directory containing the .seq script, its backups and
// rendered artifacts. ScriptPath points at the canonical script file.
// PreviewCapBytes caps the preview cache; zero keeps the built-in default.
type Workspace struct {
	Root            string
	ScriptPath      string
	KeepBackups     int
	PreviewCapBytes int64
}

// Open prepares a workspace at root (creating the directory if needed).
// If the directory already contains exactly one .seq file under a
// different name, that file becomes the workspace script; otherwise the
// default diagram.seq is used.
func Open(root string) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	name := ScriptFileName
	if ents, err := os.ReadDir(root); err == nil {
		var seqs []string
		for _, e := range ents {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".seq") {
				seqs = append(seqs, e.Name())
			}
		}
		sort.Strings(seqs)
		if len(seqs) == 1 {
			name = seqs[0]
		}
	}
	return &Workspace{
		Root:        root,
		ScriptPath:  filepath.Join(root, name),
		KeepBackups: DefaultKeepBackups,
	}, nil
}

// ReadScript returns the current script text. A missing script file is
// not an error; it reads as empty.
func (ws *Workspace) ReadScript() (string, error) {
	if ws == nil {
		return "", errors.New("nil Workspace")
	}
	b, err := os.ReadFile(ws.ScriptPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(b), nil
}

// WriteScript writes the script text to disk with transactional semantics
// and a timestamped backup of the previous script (if present). Backups
// beyond KeepBackups are pruned, oldest first.
func (ws *Workspace) WriteScript(text string) error {
	if ws == nil {
		return errors.New("nil Workspace")
	}
	if ws.Root == "" || ws.ScriptPath == "" {
		return errors.New("invalid Workspace: missing paths")
	}
	bdir := filepath.Join(ws.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current script exists, copy it to a timestamped backup before replacing
	base := filepath.Base(ws.ScriptPath)
	if _, statErr := os.Stat(ws.ScriptPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000")
		bname := fmt.Sprintf("%s.%s.bak", base, stamp)
		if cerr := copyFile(ws.ScriptPath, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current script: %w", cerr)
		}
	}

	if err := replaceFile(ws.ScriptPath, []byte(text)); err != nil {
		return fmt.Errorf("write script: %w", err)
	}

	keep := ws.KeepBackups
	if keep <= 0 {
		keep = DefaultKeepBackups
	}
	return pruneBackups(bdir, base, keep)
}

// WriteArtifactFile writes a rendered output under the workspace out/
// directory and returns the written path.
func (ws *Workspace) WriteArtifactFile(name string, data []byte) (string, error) {
	if ws == nil {
		return "", errors.New("nil Workspace")
	}
	p := filepath.Join(ws.Root, ArtifactsDirName, name)
	if err := WriteArtifact(p, data); err != nil {
		return "", err
	}
	return p, nil
}

// WriteArtifact writes data to path with transactional semantics: the
// bytes go to a temp file in the target directory, are synced, and then
// renamed over the destination. Parent directories are created as needed.
func WriteArtifact(path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("artifact path is required")
	}
	return replaceFile(path, data)
}

// replaceFile writes data to a temp file in the target directory and
// renames it over path.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace file: %w", rerr)
	}
	return nil
}

// pruneBackups deletes the oldest timestamped backups of base beyond keep.
func pruneBackups(bdir, base string, keep int) error {
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return fmt.Errorf("read backups dir: %w", err)
	}
	var baks []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, base+".") && strings.HasSuffix(name, ".bak") {
			baks = append(baks, name)
		}
	}
	if len(baks) <= keep {
		return nil
	}
	sort.Strings(baks) // timestamp in name yields lexicographic order
	for _, name := range baks[:len(baks)-keep] {
		if rerr := os.Remove(filepath.Join(bdir, name)); rerr != nil {
			return fmt.Errorf("prune backup %s: %w", name, rerr)
		}
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	if err := df.Sync(); err != nil {
		return err
	}
	return nil
}
