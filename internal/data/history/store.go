package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"gradledeps/internal/shared/observability"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	return OpenWithTimeout(path, 2*time.Second)
}

// OpenWithTimeout opens (creating if needed) the history database at path.
func OpenWithTimeout(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}
	// busy_timeout + WAL reduce lock conflicts during watch and batch runs.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveScan records a scan and its dependency rows in one transaction. A
// missing ID or timestamp is filled in; the stored scan is returned.
func (s *Store) SaveScan(scan Scan, deps []Dependency) (Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() { observability.HistoryWriteDuration.Observe(time.Since(start).Seconds()) }()

	scan.ProjectKey = strings.TrimSpace(scan.ProjectKey)
	if scan.ProjectKey == "" {
		scan.ProjectKey = "default"
	}
	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}
	if scan.Timestamp.IsZero() {
		scan.Timestamp = time.Now().UTC()
	}
	scan.Timestamp = scan.Timestamp.UTC()
	if scan.DependencyCount == 0 {
		scan.DependencyCount = len(deps)
	}

	err := s.withRetry("save scan", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
INSERT INTO scans (
  id, project_key, root, ts_utc, module_count, dependency_count, cycle_count, unresolved_count, application_module
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			scan.ID,
			scan.ProjectKey,
			scan.Root,
			scan.Timestamp.Format(time.RFC3339Nano),
			scan.ModuleCount,
			scan.DependencyCount,
			scan.CycleCount,
			scan.UnresolvedCount,
			scan.ApplicationModule,
		); err != nil {
			_ = tx.Rollback()
			return err
		}

		stmt, err := tx.Prepare(`
INSERT OR IGNORE INTO scan_dependencies (scan_id, module, group_id, artifact, version)
VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		defer stmt.Close()
		for _, d := range deps {
			if _, err := stmt.Exec(scan.ID, d.Module, d.Group, d.Artifact, d.Version); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return Scan{}, err
	}
	return scan, nil
}

// LatestScans returns up to n scans of a project, newest first.
func (s *Store) LatestScans(projectKey string, n int) ([]Scan, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.queryScans("load latest scans", `
SELECT id, project_key, root, ts_utc, module_count, dependency_count, cycle_count, unresolved_count, application_module
FROM scans
WHERE project_key = ?
ORDER BY ts_utc DESC, id DESC
LIMIT ?`, normalizeKey(projectKey), n)
}

// LoadScans returns a project's scans at or after since, oldest first.
func (s *Store) LoadScans(projectKey string, since time.Time) ([]Scan, error) {
	query := `
SELECT id, project_key, root, ts_utc, module_count, dependency_count, cycle_count, unresolved_count, application_module
FROM scans
WHERE project_key = ?`
	args := []any{normalizeKey(projectKey)}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC, id ASC"
	return s.queryScans("load scans", query, args...)
}

func (s *Store) queryScans(op, query string, args ...any) ([]Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry(op, func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scans := make([]Scan, 0)
	for rows.Next() {
		var (
			tsRaw string
			scan  Scan
		)
		if err := rows.Scan(
			&scan.ID,
			&scan.ProjectKey,
			&scan.Root,
			&tsRaw,
			&scan.ModuleCount,
			&scan.DependencyCount,
			&scan.CycleCount,
			&scan.UnresolvedCount,
			&scan.ApplicationModule,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse scan timestamp %q: %w", tsRaw, err)
		}
		scan.Timestamp = ts.UTC()
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan rows: %w", err)
	}
	return scans, nil
}

// LoadDependencies returns the dependency rows of a scan, sorted.
func (s *Store) LoadDependencies(scanID string) ([]Dependency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load dependencies", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT module, group_id, artifact, version
FROM scan_dependencies
WHERE scan_id = ?
ORDER BY module, group_id, artifact, version`, scanID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deps := make([]Dependency, 0)
	for rows.Next() {
		var d Dependency
		if err := rows.Scan(&d.Module, &d.Group, &d.Artifact, &d.Version); err != nil {
			return nil, fmt.Errorf("scan dependency row: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependency rows: %w", err)
	}
	return deps, nil
}

// ChangesSincePrevious diffs the newest scan of a project against the one
// before it. ok is false when fewer than two scans exist.
func (s *Store) ChangesSincePrevious(projectKey string) (change Change, ok bool, err error) {
	scans, err := s.LatestScans(projectKey, 2)
	if err != nil {
		return Change{}, false, err
	}
	if len(scans) < 2 {
		return Change{}, false, nil
	}
	curr, err := s.LoadDependencies(scans[0].ID)
	if err != nil {
		return Change{}, false, err
	}
	prev, err := s.LoadDependencies(scans[1].ID)
	if err != nil {
		return Change{}, false, err
	}
	return Diff(prev, curr), true, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func normalizeKey(projectKey string) string {
	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		return "default"
	}
	return projectKey
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
