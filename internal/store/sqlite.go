package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/classfind/internal/classsearch"
)

// SQLiteIndex is a SQLite-backed artifact index.
// Class paths are stored lower-cased, one row per class, and matched with GLOB.
// WAL mode allows concurrent readers in other processes.
type SQLiteIndex struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Verify interface implementation at compile time
var _ ClassIndex = (*SQLiteIndex)(nil)

// validateSQLiteIntegrity checks if a SQLite index is valid before opening.
// Returns nil if valid or absent, error describing corruption if not.
func validateSQLiteIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Database doesn't exist, will be created
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                       WHERE type='table' AND name IN ('artifacts', 'class_paths')`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	if count != 2 {
		return fmt.Errorf("index tables missing")
	}

	return nil
}

// NewSQLiteIndex opens or creates a SQLite artifact index.
// If path is empty, creates an in-memory index.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateSQLiteIntegrity(path); validErr != nil {
			slog.Warn("sqlite_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")

			slog.Info("sqlite_index_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, please re-import"))
		}

		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: required for :memory: and avoids writer contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite may ignore DSN params, so pragmas are set explicitly.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	idx := &SQLiteIndex{
		db:   db,
		path: path,
	}

	if err := idx.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return idx, nil
}

// initSchema creates the artifact and class path tables.
func (s *SQLiteIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	-- class_names is NULL when no class data is known for the artifact
	CREATE TABLE IF NOT EXISTS artifacts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		group_id    TEXT NOT NULL,
		artifact_id TEXT NOT NULL,
		version     TEXT NOT NULL,
		class_names TEXT,
		UNIQUE (group_id, artifact_id, version)
	);

	-- path is lower-cased for case-insensitive GLOB
	CREATE TABLE IF NOT EXISTS class_paths (
		artifact INTEGER NOT NULL,
		path     TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_class_paths_path ON class_paths(path);
	CREATE INDEX IF NOT EXISTS idx_class_paths_artifact ON class_paths(artifact);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Name implements classsearch.Provider.
func (s *SQLiteIndex) Name() string {
	if s.path == "" {
		return "sqlite:memory"
	}
	return "sqlite:" + s.path
}

// AddArtifacts adds artifacts, replacing rows with the same coordinate.
func (s *SQLiteIndex) AddArtifacts(ctx context.Context, artifacts []Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("index is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deletePathsStmt, err := tx.PrepareContext(ctx,
		`DELETE FROM class_paths WHERE artifact IN
		   (SELECT id FROM artifacts WHERE group_id = ? AND artifact_id = ? AND version = ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete: %w", err)
	}
	defer deletePathsStmt.Close()

	deleteStmt, err := tx.PrepareContext(ctx,
		`DELETE FROM artifacts WHERE group_id = ? AND artifact_id = ? AND version = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete: %w", err)
	}
	defer deleteStmt.Close()

	insertStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO artifacts (group_id, artifact_id, version, class_names) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertStmt.Close()

	pathStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO class_paths (artifact, path) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer pathStmt.Close()

	for _, a := range artifacts {
		c := a.Coordinate
		if _, err := deletePathsStmt.ExecContext(ctx, c.GroupID, c.ArtifactID, c.Version); err != nil {
			return fmt.Errorf("failed to delete class paths of %s: %w", a.ID(), err)
		}
		if _, err := deleteStmt.ExecContext(ctx, c.GroupID, c.ArtifactID, c.Version); err != nil {
			return fmt.Errorf("failed to delete artifact %s: %w", a.ID(), err)
		}

		var classNames sql.NullString
		if a.ClassPaths != nil {
			classNames = sql.NullString{String: joinClassPaths(a.ClassPaths), Valid: true}
		}
		res, err := insertStmt.ExecContext(ctx, c.GroupID, c.ArtifactID, c.Version, classNames)
		if err != nil {
			return fmt.Errorf("failed to insert artifact %s: %w", a.ID(), err)
		}
		rowID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read artifact id of %s: %w", a.ID(), err)
		}

		for _, p := range a.ClassPaths {
			if _, err := pathStmt.ExecContext(ctx, rowID, strings.ToLower(p)); err != nil {
				return fmt.Errorf("failed to insert class path %s: %w", p, err)
			}
		}
	}

	return tx.Commit()
}

// Search implements classsearch.Provider.
// Wildcard queries match lower-cased class paths with GLOB; match-all queries scan artifacts.
func (s *SQLiteIndex) Search(ctx context.Context, q *classsearch.CompiledQuery, limit int) ([]classsearch.RawCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if limit <= 0 {
		return nil, nil
	}

	var (
		rows *sql.Rows
		err  error
	)
	switch q.Kind {
	case classsearch.QueryNone:
		return nil, nil
	case classsearch.QueryAll:
		rows, err = s.db.QueryContext(ctx,
			`SELECT group_id, artifact_id, version, class_names FROM artifacts
			 ORDER BY id LIMIT ?`, limit)
	default:
		rows, err = s.db.QueryContext(ctx,
			`SELECT a.group_id, a.artifact_id, a.version, a.class_names FROM artifacts a
			 WHERE EXISTS (SELECT 1 FROM class_paths p WHERE p.artifact = a.id AND p.path GLOB ?)
			 ORDER BY a.id LIMIT ?`, globPattern(q.QueryPattern), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var candidates []classsearch.RawCandidate
	for rows.Next() {
		var (
			c          classsearch.ArtifactCoordinate
			classNames sql.NullString
		)
		if err := rows.Scan(&c.GroupID, &c.ArtifactID, &c.Version, &classNames); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		candidates = append(candidates, toCandidate(c, classNames.String, classNames.Valid))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return candidates, nil
}

// globPattern escapes GLOB character classes; '*' and '?' keep their wildcard meaning.
func globPattern(pattern string) string {
	return strings.ReplaceAll(pattern, "[", "[[]")
}

// Count returns the number of indexed artifacts.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("index is closed")
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count artifacts: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
