// Package journal persists reported fault records to a local SQLite
// database so unhandled failures survive process exit and can be
// inspected later from the command line.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"faultline/pkg/fault"
	"faultline/pkg/retry"
)

// timeLayout is fixed-width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000Z"

const (
	defaultDirName  = ".faultline"
	defaultFileName = "journal.db"

	dirPerm = 0o750
)

// insertTimeout bounds a single Report call, retries included.
const insertTimeout = 15 * time.Second

// Entry is one persisted report.
type Entry struct {
	ID         string
	ReportedAt time.Time
	Kind       string
	Category   string
	Transient  bool
	Message    string
	Chain      string
	Envelope   string
}

// Journal is a fault.Reporter backed by SQLite. Report inserts one row
// per record; List and Prune serve the inspection commands.
type Journal struct {
	db     *sql.DB
	logger *zap.Logger
}

// DefaultPath returns the journal location under the user's home
// directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fault.Wrap(fault.KindIO, "resolve home directory", err)
	}
	return filepath.Join(home, defaultDirName, defaultFileName), nil
}

// Open initializes the journal at the default path.
func Open(logger *zap.Logger) (*Journal, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path, logger)
}

// OpenAt initializes a journal at a specific path (useful for testing).
// The database is opened with WAL mode and migrated to the current
// schema; both steps run under backoff because another process may hold
// the write lock.
func OpenAt(path string, logger *zap.Logger) (*Journal, error) {
	if !strings.Contains(path, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
			return nil, fault.Wrap(fault.KindIO, "create journal directory", err)
		}
	}

	// modernc.org/sqlite is strict about DSNs. Use a file: URI with mode=rwc
	// so the database can be created/written consistently across platforms.
	db, err := sql.Open("sqlite", normalizeDSN(path))
	if err != nil {
		return nil, fault.Wrap(fault.KindIO, "open journal database", err)
	}

	// Single connection: the journal is a low-volume local store and
	// modernc.org/sqlite serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// busy_timeout first so subsequent pragmas (including WAL) wait on locks.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA journal_mode=WAL",
	}
	for _, pragma := range pragmas {
		if err := retry.Do(context.Background(), func() error {
			_, err := db.ExecContext(context.Background(), pragma)
			return classify(err, "set pragma")
		}); err != nil {
			_ = db.Close()
			return nil, fault.Wrapf(fault.KindIO, err, "set pragma %q", pragma)
		}
	}

	if err := retry.Do(context.Background(), func() error {
		return classify(runMigrations(db), "run migrations")
	}); err != nil {
		_ = db.Close()
		return nil, fault.Wrap(fault.KindIO, "migrate journal schema", err)
	}

	return &Journal{db: db, logger: logger}, nil
}

func normalizeDSN(path string) string {
	// Support an explicit file: DSN as-is.
	if strings.HasPrefix(path, "file:") {
		return path
	}

	if path == ":memory:" {
		return "file::memory:?cache=shared"
	}

	// mode=rwc => read/write/create. Without this, some environments open read-only.
	return "file:" + path + "?mode=rwc"
}

// Report implements fault.Reporter. Failures to persist cannot travel
// back into the fault chain, so they are logged and dropped.
func (j *Journal) Report(rec *fault.Record) {
	if j == nil || j.db == nil || rec == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	envelope, err := fault.Encode(rec)
	if err != nil {
		j.warn("encode fault report", err)
		return
	}

	entry := Entry{
		ID:         uuid.NewString(),
		ReportedAt: time.Now().UTC(),
		Kind:       rec.Kind().Name(),
		Category:   string(rec.Category()),
		Transient:  fault.IsTransient(rec),
		Message:    rec.Message(),
		Chain:      fault.DebugString(rec),
		Envelope:   string(envelope),
	}

	err = retry.Do(ctx, func() error {
		_, execErr := j.db.ExecContext(ctx, `
			INSERT INTO reports (id, reported_at, kind, category, transient, message, chain, envelope)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, entry.ID, entry.ReportedAt.Format(timeLayout), entry.Kind, entry.Category,
			entry.Transient, entry.Message, entry.Chain, entry.Envelope)
		return classify(execErr, "insert report")
	})
	if err != nil {
		j.warn("persist fault report", err)
	}
}

// List returns persisted reports, newest first. A non-empty kind
// restricts the result to that kind; limit caps the row count when
// positive.
func (j *Journal) List(ctx context.Context, kind string, limit int) ([]Entry, error) {
	if j == nil || j.db == nil {
		return nil, fault.New(fault.KindPreconditionViolated, "journal is not open")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, reported_at, kind, category, transient, message, chain, envelope
		FROM reports`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY reported_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "query reports")
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var reportedAt string
		if err := rows.Scan(&entry.ID, &reportedAt, &entry.Kind, &entry.Category,
			&entry.Transient, &entry.Message, &entry.Chain, &entry.Envelope); err != nil {
			return nil, classify(err, "scan report row")
		}
		ts, err := time.Parse(timeLayout, reportedAt)
		if err != nil {
			return nil, fault.Wrapf(fault.KindInternal, err, "malformed reported_at %q", reportedAt)
		}
		entry.ReportedAt = ts
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate report rows")
	}
	return entries, nil
}

// Prune deletes reports older than before and returns how many rows
// were removed.
func (j *Journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	if j == nil || j.db == nil {
		return 0, fault.New(fault.KindPreconditionViolated, "journal is not open")
	}

	res, err := j.db.ExecContext(ctx, `DELETE FROM reports WHERE reported_at < ?`,
		before.UTC().Format(timeLayout))
	if err != nil {
		return 0, classify(err, "prune reports")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(err, "count pruned rows")
	}
	return n, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) warn(msg string, err error) {
	if j.logger == nil {
		return
	}
	j.logger.Warn(msg, zap.Error(err))
}

// classify maps driver errors onto the fault taxonomy so the retry
// schedule can tell contention from permanent failure.
//
// Error detection relies on modernc.org/sqlite error message strings.
// If modernc changes its error format in a major version bump, update
// the string matchers below. Current baseline: modernc.org/sqlite v1.45+.
func classify(err error, msg string) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	// SQLite busy/locked errors clear once the competing writer finishes.
	if strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "SQLITE_BUSY") {
		return fault.Wrap(fault.KindResourceUnavailable, msg, err)
	}

	// Constraint violations will not succeed on a second attempt.
	if strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "FOREIGN KEY constraint") {
		return fault.Wrap(fault.KindPreconditionViolated, msg, err)
	}

	return fault.Wrap(fault.KindIO, msg, err)
}

// String implements fmt.Stringer for log output.
func (e Entry) String() string {
	return fmt.Sprintf("%s [%s] %s", e.ReportedAt.Format(timeLayout), e.Kind, e.Message)
}
