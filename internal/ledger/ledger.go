// Package ledger persists score records to per-domain CSV ledgers.
//
// Each domain keeps one CSV file with a fixed column order. Writes are
// merge-writes: the existing ledger is loaded, incoming rows replace rows
// with the same run_id in place, new rows append in input order, and the
// whole file is rewritten atomically under an exclusive advisory lock.
// Re-scoring a run therefore updates its row instead of duplicating it.
package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/verdict/internal/domain"
	verdicterrors "github.com/mrz1836/verdict/internal/errors"
	"github.com/mrz1836/verdict/internal/flock"
)

// DefaultLockTimeout is the maximum duration to wait for the ledger lock.
const DefaultLockTimeout = 5 * time.Second

// lockRetryInterval is the pause between lock acquisition attempts.
const lockRetryInterval = 50 * time.Millisecond

// Directory and file permission constants.
const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// Ledger writes score rows for one domain to a CSV file.
type Ledger struct {
	path        string
	columns     []string
	backup      bool
	lockTimeout time.Duration
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithBackup keeps a .bak copy of the previous ledger contents on every
// rewrite.
func WithBackup() Option {
	return func(l *Ledger) { l.backup = true }
}

// WithLockTimeout overrides the lock acquisition deadline.
func WithLockTimeout(d time.Duration) Option {
	return func(l *Ledger) { l.lockTimeout = d }
}

// New creates a ledger for the given file path and column layout. The
// column slice is the domain rubric's Columns() and its first entry must be
// run_id, the upsert key.
func New(path string, columns []string, opts ...Option) *Ledger {
	l := &Ledger{path: path, columns: columns, lockTimeout: DefaultLockTimeout}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the ledger's file path.
func (l *Ledger) Path() string { return l.path }

// Row renders one score record in the given column order. Columns the
// record carries no value for stay empty.
func Row(sr *domain.ScoreRecord, columns []string) []string {
	byName := make(map[string]string, len(sr.Values))
	for _, f := range sr.Values {
		byName[f.Name] = f.Value
	}
	row := make([]string, len(columns))
	for i, col := range columns {
		row[i] = byName[col]
	}
	return row
}

// Upsert merges score records into the ledger keyed by run_id and rewrites
// the file atomically. It returns ErrLedgerLocked when another writer holds
// the lock past the timeout and ErrLedgerCorrupt when an existing file does
// not match the domain's column layout.
func (l *Ledger) Upsert(ctx context.Context, records []*domain.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}
	log := zerolog.Ctx(ctx)

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	lockFile, err := l.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = releaseLock(lockFile) }()

	rows, index, err := l.readExisting()
	if err != nil {
		return err
	}

	updated, appended := 0, 0
	for _, rec := range records {
		row := Row(rec, l.columns)
		if i, ok := index[rec.Run.RunID]; ok {
			rows[i] = row
			updated++
			continue
		}
		index[rec.Run.RunID] = len(rows)
		rows = append(rows, row)
		appended++
	}

	if l.backup {
		l.writeBackup(log)
	}

	if err := l.writeAll(rows); err != nil {
		return err
	}

	log.Debug().
		Str("path", l.path).
		Int("updated", updated).
		Int("appended", appended).
		Msg("ledger written")
	return nil
}

// readExisting loads the current ledger rows and a run_id index. A missing
// file yields an empty ledger. When duplicate run_ids exist in a
// hand-edited file, the last occurrence is the one an upsert replaces.
func (l *Ledger) readExisting() ([][]string, map[string]int, error) {
	data, err := os.ReadFile(l.path) //#nosec G304 -- path comes from validated config
	if os.IsNotExist(err) {
		return nil, make(map[string]int), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read ledger '%s': %w", l.path, err)
	}

	all, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse ledger '%s': %w", l.path, verdicterrors.ErrLedgerCorrupt)
	}
	if len(all) == 0 {
		return nil, make(map[string]int), nil
	}

	if !columnsMatch(all[0], l.columns) {
		return nil, nil, fmt.Errorf("ledger '%s' header does not match the domain layout: %w",
			l.path, verdicterrors.ErrLedgerCorrupt)
	}

	rows := all[1:]
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			index[row[0]] = i
		}
	}
	return rows, index, nil
}

// writeAll rewrites the full ledger (header plus rows) atomically.
func (l *Ledger) writeAll(rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(l.columns); err != nil {
		return fmt.Errorf("failed to encode ledger header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to encode ledger rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	if err := atomicWrite(l.path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write ledger '%s': %w", l.path, err)
	}
	return nil
}

// writeBackup copies the current ledger to a .bak sibling. Backup failure
// is logged, not fatal: the merge result still carries every row.
func (l *Ledger) writeBackup(log *zerolog.Logger) {
	data, err := os.ReadFile(l.path) //#nosec G304 -- path comes from validated config
	if os.IsNotExist(err) {
		return
	}
	if err == nil {
		err = atomicWrite(l.path+".bak", data)
	}
	if err != nil {
		log.Warn().Err(err).Str("path", l.path+".bak").Msg("ledger backup failed")
	}
}

// acquireLock acquires the exclusive ledger lock, retrying until the
// timeout. It respects context cancellation between attempts.
func (l *Ledger) acquireLock(ctx context.Context) (*os.File, error) {
	lockPath := l.path + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, filePerm) //#nosec G302,G304 -- lock file needs write access, path is constructed internally
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger lock file: %w", err)
	}

	deadline := time.Now().Add(l.lockTimeout)
	for {
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		default:
		}

		if err := flock.Exclusive(f.Fd()); err == nil {
			return f, nil
		}

		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("failed to lock ledger '%s': %w", l.path, verdicterrors.ErrLedgerLocked)
		}

		time.Sleep(lockRetryInterval)
	}
}

// releaseLock releases the ledger lock.
func releaseLock(f *os.File) error {
	if f == nil {
		return nil
	}
	if err := flock.Unlock(f.Fd()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to release ledger lock: %w", err)
	}
	return f.Close()
}

// atomicWrite writes data to a file atomically using write-then-rename.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	// Data must reach disk before the rename makes it visible.
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// columnsMatch compares a parsed header against the expected layout.
func columnsMatch(header, columns []string) bool {
	if len(header) != len(columns) {
		return false
	}
	for i := range header {
		if header[i] != columns[i] {
			return false
		}
	}
	return true
}
