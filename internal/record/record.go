// Package record loads captured run records from disk. A run record is one
// JSON document written by the capture harness per generation run; the
// loader is tolerant of individual malformed files because a sweep directory
// holds hundreds of records and one bad capture must not block the rest.
package record

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/domain"
	verrors "github.com/mrz1836/verdict/internal/errors"
)

// Load reads a single run record file. A record without a run_id gets the
// file stem as its identity, and a generated UUID when the stem is empty
// too, so every record can key a ledger row.
func Load(ctx context.Context, path string) (*domain.RunRecord, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the configured runs dir or CLI args
	if err != nil {
		return nil, verrors.Wrapf(err, "failed to read run record %s", path)
	}

	var rec domain.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, verrors.Wrapf(verrors.ErrInvalidRecord, "%s: %v", path, err)
	}

	if rec.RunID == "" {
		rec.RunID = fileStem(path)
	}
	if rec.RunID == "" {
		rec.RunID = uuid.New().String()
		zerolog.Ctx(ctx).Debug().Str("file", path).Str("run_id", rec.RunID).
			Msg("run record had no identity, generated one")
	}
	return &rec, nil
}

// LoadDir reads every run record under dir in name order. Files that fail to
// decode are skipped with a warning. The ledger file and anything that is
// not a .json document are ignored. An absent directory or a directory
// without a single record file is an error: scoring nothing is always a
// misconfiguration, not a valid empty result.
func LoadDir(ctx context.Context, dir string) ([]*domain.RunRecord, error) {
	log := zerolog.Ctx(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, verrors.Wrapf(verrors.ErrRecordNotFound, "results directory %s does not exist", dir)
		}
		return nil, verrors.Wrapf(err, "failed to read results directory %s", dir)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == constants.LedgerFileName {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".json") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, verrors.Wrapf(verrors.ErrRecordNotFound, "no run records in %s", dir)
	}

	records := make([]*domain.RunRecord, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		rec, err := Load(ctx, path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping unreadable run record")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadPaths reads an explicit list of record files, as given on the command
// line. Arguments without a .json extension are dropped, matching how the
// capture harness invokes scoring with shell globs that may pick up strays.
func LoadPaths(ctx context.Context, paths []string) ([]*domain.RunRecord, error) {
	log := zerolog.Ctx(ctx)

	var records []*domain.RunRecord
	kept := 0
	for _, path := range paths {
		if !strings.EqualFold(filepath.Ext(path), ".json") {
			log.Debug().Str("file", path).Msg("ignoring non-json argument")
			continue
		}
		kept++
		rec, err := Load(ctx, path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping unreadable run record")
			continue
		}
		records = append(records, rec)
	}
	if kept == 0 {
		return nil, verrors.Wrapf(verrors.ErrRecordNotFound, "no run record files among %d arguments", len(paths))
	}
	return records, nil
}

// fileStem returns the file name without directory or extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
