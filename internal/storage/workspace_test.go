package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenCreatesRootAndDefaultScript(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	ws, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if ws == nil {
		t.Fatalf("Open returned nil workspace")
	}
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		t.Fatalf("expected workspace root %s to exist", root)
	}
	want := filepath.Join(root, ScriptFileName)
	if ws.ScriptPath != want {
		t.Fatalf("script path mismatch: got %q want %q", ws.ScriptPath, want)
	}
}

func TestOpenAdoptsExistingScript(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "flow.seq"), []byte("A->B: hi\n"), 0o644); err != nil {
		t.Fatalf("seed script: %v", err)
	}
	ws, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if got := filepath.Base(ws.ScriptPath); got != "flow.seq" {
		t.Fatalf("expected workspace to adopt flow.seq, got %q", got)
	}
}

func TestOpenEmptyRootRejected(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error for blank root")
	}
}

func TestReadScriptMissingReturnsEmpty(t *testing.T) {
	ws, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	s, err := ws.ReadScript()
	if err != nil {
		t.Fatalf("ReadScript unexpected error for missing file: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for missing script, got %q", s)
	}
}

func TestWriteScriptAndReadBack(t *testing.T) {
	ws, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	text := "participant Alice\nAlice->Bob: hello\n"
	if err := ws.WriteScript(text); err != nil {
		t.Fatalf("WriteScript error: %v", err)
	}
	if _, err := os.Stat(ws.ScriptPath); err != nil {
		t.Fatalf("expected script file to exist at %s: %v", ws.ScriptPath, err)
	}
	got, err := ws.ReadScript()
	if err != nil {
		t.Fatalf("ReadScript error: %v", err)
	}
	if got != text {
		t.Fatalf("roundtrip mismatch: %q vs %q", got, text)
	}
}

func TestWriteScriptCreatesTimestampedBackup(t *testing.T) {
	ws, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := ws.WriteScript("v1"); err != nil {
		t.Fatalf("WriteScript v1: %v", err)
	}
	if err := ws.WriteScript("v2"); err != nil {
		t.Fatalf("WriteScript v2: %v", err)
	}
	baks := listBackups(t, ws)
	if len(baks) == 0 {
		t.Fatalf("expected at least one backup file, found 0")
	}
	b, err := os.ReadFile(filepath.Join(ws.Root, BackupsDirName, baks[len(baks)-1]))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(b) != "v1" {
		t.Fatalf("newest backup should hold previous text, got %q", b)
	}
}

func TestWriteScriptPrunesOldBackups(t *testing.T) {
	ws, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	ws.KeepBackups = 2
	for _, v := range []string{"v1", "v2", "v3", "v4", "v5"} {
		if err := ws.WriteScript(v); err != nil {
			t.Fatalf("WriteScript %s: %v", v, err)
		}
	}
	baks := listBackups(t, ws)
	if len(baks) > 2 {
		t.Fatalf("expected at most 2 backups after pruning, found %d: %v", len(baks), baks)
	}
	got, err := ws.ReadScript()
	if err != nil {
		t.Fatalf("ReadScript error: %v", err)
	}
	if got != "v5" {
		t.Fatalf("script should hold last write, got %q", got)
	}
}

func TestWriteArtifactCreatesNestedDirs(t *testing.T) {
	p := filepath.Join(t.TempDir(), "deep", "nested", "diagram.svg")
	if err := WriteArtifact(p, []byte("<svg/>")); err != nil {
		t.Fatalf("WriteArtifact error: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(b) != "<svg/>" {
		t.Fatalf("artifact content mismatch: %q", b)
	}
	// No temp files may survive the rename
	ents, err := os.ReadDir(filepath.Dir(p))
	if err != nil {
		t.Fatalf("read artifact dir: %v", err)
	}
	for _, e := range ents {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("leftover temp file %s", e.Name())
		}
	}
}

func TestWriteArtifactReplacesExisting(t *testing.T) {
	p := filepath.Join(t.TempDir(), "d.txt")
	if err := WriteArtifact(p, []byte("old")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteArtifact(p, []byte("new")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(b) != "new" {
		t.Fatalf("expected replaced content, got %q", b)
	}
}

func TestWriteArtifactEmptyPathRejected(t *testing.T) {
	if err := WriteArtifact("  ", []byte("x")); err == nil {
		t.Fatalf("expected error for blank path")
	}
}

func TestWorkspaceWriteArtifactFile(t *testing.T) {
	ws, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	p, err := ws.WriteArtifactFile("diagram.txt", []byte("A->B"))
	if err != nil {
		t.Fatalf("WriteArtifactFile error: %v", err)
	}
	want := filepath.Join(ws.Root, ArtifactsDirName, "diagram.txt")
	if p != want {
		t.Fatalf("artifact path mismatch: got %q want %q", p, want)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(b) != "A->B" {
		t.Fatalf("artifact content mismatch: %q", b)
	}
}

func listBackups(t *testing.T, ws *Workspace) []string {
	t.Helper()
	ents, err := os.ReadDir(filepath.Join(ws.Root, BackupsDirName))
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	base := filepath.Base(ws.ScriptPath)
	var baks []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, base+".") && strings.HasSuffix(name, ".bak") {
			baks = append(baks, name)
		}
	}
	return baks
}
