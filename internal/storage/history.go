/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	applog "goseqwriter/internal/log"
	"goseqwriter/internal/version"
	"log/slog"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// HistoryDirName stores all per-workspace ephemeral/history data under the workspace root.
	HistoryDirName  = ".gsw"
	HistoryFileName = "history.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded history.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// HistoryPath returns the full path to the workspace's embedded history database file.
func HistoryPath(root string) string {
	return filepath.Join(root, HistoryDirName, HistoryFileName)
}

// InitOrOpenHistory ensures that the per-workspace SQLite history exists at
// .gsw/history.sqlite, opens the database, enables WAL mode, and ensures the
// meta/version tables exist. The returned *sql.DB is ready for use. Callers
// may close it when no longer needed.
func InitOrOpenHistory(root string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "history_init").With(
		slog.String("root", root),
	)
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, HistoryDirName), 0o755); err != nil {
		l.Error("create .gsw dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .gsw dir: %w", err)
	}

	path := HistoryPath(root)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Ensure WAL mode is active.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureHistorySchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure history schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("history ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	// Seed or update single-row version info
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Insert new row with current schemaVersion for a fresh DB
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureHistorySchema creates the snapshot and preview tables if they do not exist.
func ensureHistorySchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// Script snapshots (history of script text for change tracking)
		`CREATE TABLE IF NOT EXISTS script_snapshots (
			id    INTEGER PRIMARY KEY,
			ts    TEXT    NOT NULL,
			text  TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_script_snapshots_ts ON script_snapshots(ts);`,

		// Rendered preview cache keyed by script hash
		`CREATE TABLE IF NOT EXISTS previews (
			hash        TEXT    PRIMARY KEY,
			png_blob    BLOB    NOT NULL,
			size        INTEGER NOT NULL,
			updated_at  TEXT    NOT NULL,
			last_access TEXT
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade; just log and continue
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			// Index preview rows by access time for LRU eviction
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_previews_access ON previews(last_access);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
			// Best-effort statistics refresh (outside the tx)
			if _, err := db.ExecContext(ctx, `PRAGMA optimize;`); err != nil {
				// best-effort; ignore errors
			}
		default:
			// Unknown future step; break
		}
		cur = next
	}
	return nil
}

// language=SQL
// dialect=SQLite
const insertScriptSnapshotSQL = `INSERT INTO script_snapshots(ts, text) VALUES (?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestScriptSnapshotSQL = `SELECT ts, text FROM script_snapshots ORDER BY ts DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listScriptSnapshotsSQL = `SELECT ts, text FROM script_snapshots ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const searchScriptSnapshotsSQL = `SELECT ts, text FROM script_snapshots WHERE lower(text) LIKE ? ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneScriptSnapshotsSQL = `DELETE FROM script_snapshots WHERE id NOT IN (
	SELECT id FROM script_snapshots ORDER BY ts DESC LIMIT ?
)`

// ScriptSnapshot is one retained revision of the workspace script.
type ScriptSnapshot struct {
	TS   time.Time
	Text string
}

// SaveScriptSnapshot persists a script snapshot full text with a timestamp.
// The history database is ephemeral and derived; it tracks editor changes,
// the canonical script stays in the workspace text file.
func SaveScriptSnapshot(ctx context.Context, ws *Workspace, text string, ts time.Time) error {
	if ws == nil {
		return errors.New("nil Workspace")
	}
	db, err := InitOrOpenHistory(ws.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertScriptSnapshotSQL, ts.UTC().Format(time.RFC3339Nano), text)
	return err
}

// LatestScriptSnapshot returns the latest script snapshot text and timestamp, or empty if none.
func LatestScriptSnapshot(ctx context.Context, ws *Workspace) (string, time.Time, error) {
	if ws == nil {
		return "", time.Time{}, errors.New("nil Workspace")
	}
	db, err := InitOrOpenHistory(ws.Root)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var txt string
	err = db.QueryRowContext(ctx, selectLatestScriptSnapshotSQL).Scan(&tsStr, &txt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return txt, time.Time{}, nil
	}
	return txt, ts, nil
}

// ListScriptSnapshots returns up to limit most recent script snapshots.
func ListScriptSnapshots(ctx context.Context, ws *Workspace, limit int) ([]ScriptSnapshot, error) {
	if ws == nil {
		return nil, errors.New("nil Workspace")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenHistory(ws.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	return scanSnapshots(db.QueryContext(ctx, listScriptSnapshotsSQL, limit))
}

// SearchScriptSnapshots returns up to limit most recent snapshots whose text
// contains term (case-insensitive). An empty term matches every snapshot.
func SearchScriptSnapshots(ctx context.Context, ws *Workspace, term string, limit int) ([]ScriptSnapshot, error) {
	if ws == nil {
		return nil, errors.New("nil Workspace")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenHistory(ws.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	pat := likeContains(strings.ToLower(term))
	return scanSnapshots(db.QueryContext(ctx, searchScriptSnapshotsSQL, pat, limit))
}

// PruneScriptSnapshots keeps at most keepLast snapshots and deletes older ones.
func PruneScriptSnapshots(ctx context.Context, ws *Workspace, keepLast int) (int64, error) {
	if ws == nil {
		return 0, errors.New("nil Workspace")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenHistory(ws.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneScriptSnapshotsSQL, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSnapshots(rows *sql.Rows, qerr error) ([]ScriptSnapshot, error) {
	if qerr != nil {
		return nil, qerr
	}
	defer func() { _ = rows.Close() }()
	var out []ScriptSnapshot
	for rows.Next() {
		var tsStr string
		var txt string
		if err := rows.Scan(&tsStr, &txt); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, ScriptSnapshot{TS: ts, Text: txt})
	}
	return out, rows.Err()
}

// ScriptHash returns the preview cache key for a script text.
func ScriptHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SavePreview upserts a rendered preview blob for the given script hash and
// enforces the cache size cap via LRU eviction.
func SavePreview(ctx context.Context, ws *Workspace, hash string, blob []byte) error {
	if ws == nil {
		return errors.New("nil Workspace")
	}
	if strings.TrimSpace(hash) == "" {
		return errors.New("preview hash is required")
	}
	db, err := InitOrOpenHistory(ws.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = db.ExecContext(ctx, `INSERT INTO previews(hash, png_blob, size, updated_at, last_access)
		VALUES(?,?,?,?,?)
		ON CONFLICT(hash) DO UPDATE SET png_blob=excluded.png_blob, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		hash, blob, len(blob), now, now)
	if err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	return evictPreviewsToFit(ctx, db, previewCap(ws))
}

// GetPreview returns the preview blob for the given script hash and updates
// last_access. A missing entry returns nil bytes and no error.
func GetPreview(ctx context.Context, ws *Workspace, hash string) ([]byte, error) {
	if ws == nil {
		return nil, errors.New("nil Workspace")
	}
	db, err := InitOrOpenHistory(ws.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	var blob []byte
	err = db.QueryRowContext(ctx, `SELECT png_blob FROM previews WHERE hash=?`, hash).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preview: %w", err)
	}
	// touch
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, _ = db.ExecContext(ctx, `UPDATE previews SET last_access=? WHERE hash=?`, now, hash)
	return blob, nil
}

// TotalPreviewBytes returns total bytes tracked by previews.size.
func TotalPreviewBytes(ctx context.Context, ws *Workspace) (int64, error) {
	if ws == nil {
		return 0, errors.New("nil Workspace")
	}
	db, err := InitOrOpenHistory(ws.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// evictPreviewsToFit deletes least-recently-used rows until total size <= capBytes.
func evictPreviewsToFit(ctx context.Context, db *sql.DB, capBytes int64) error {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return fmt.Errorf("sum previews size: %w", err)
	}
	if total <= capBytes {
		return nil
	}
	// Select victim hashes ordered by last_access asc (oldest first), NULLs first
	rows, err := db.QueryContext(ctx, `SELECT hash, size FROM previews ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	toDelete := make([]string, 0, 32)
	cur := total
	for rows.Next() {
		var hash string
		var sz int64
		if err := rows.Scan(&hash, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		toDelete = append(toDelete, hash)
		cur -= sz
		if cur <= capBytes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// Important: close the rows cursor before attempting to write
	if err := rows.Close(); err != nil {
		return err
	}
	if len(toDelete) == 0 {
		return nil
	}
	args := make([]any, len(toDelete))
	for i, v := range toDelete {
		args[i] = v
	}
	q := `DELETE FROM previews WHERE hash IN (` + placeholders(len(toDelete)) + `)`
	if _, err := db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// DefaultPreviewMaxBytes caps the preview cache when neither the
// GSW_PREVIEWS_MAX_BYTES environment variable nor the workspace sets a limit.
const DefaultPreviewMaxBytes = 64 * 1024 * 1024

// previewCap resolves the preview cache cap. The environment variable wins,
// then the workspace override, then the built-in default.
func previewCap(ws *Workspace) int64 {
	if v := os.Getenv("GSW_PREVIEWS_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	if ws != nil && ws.PreviewCapBytes > 0 {
		return ws.PreviewCapBytes
	}
	return DefaultPreviewMaxBytes
}

func likeContains(s string) string { return "%" + s + "%" }

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
	}
	return b.String()
}
