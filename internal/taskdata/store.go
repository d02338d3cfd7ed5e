package taskdata

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	verrors "github.com/mrz1836/verdict/internal/errors"
)

// Store holds every task definition found in a test-data directory, keyed by
// normalized task ID.
type Store struct {
	tasks map[string]Task
}

// NewStore reads every *.json file under dir and indexes the task
// definitions it finds. Files that fail to parse are skipped with a debug
// log rather than aborting the load: one malformed definition must not take
// down scoring for every other task.
//
// A missing directory yields an empty store, since tasks without metadata
// still score against the unconditional rules.
func NewStore(ctx context.Context, dir string) (*Store, error) {
	log := zerolog.Ctx(ctx)
	s := &Store{tasks: make(map[string]Task)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("dir", dir).Msg("task data directory not found, continuing without task metadata")
			return s, nil
		}
		return nil, verrors.Wrapf(err, "failed to read task data directory %s", dir)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path) //nolint:gosec // path derives from the configured task dir
		if err != nil {
			log.Debug().Err(err).Str("file", path).Msg("skipping unreadable task file")
			continue
		}
		var task Task
		if err := json.Unmarshal(data, &task); err != nil {
			log.Debug().Err(err).Str("file", path).Msg("skipping malformed task file")
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if task.TaskID == "" {
			// Task files are conventionally named task-<id>-<slug>.json;
			// recover the ID from the name when the body omits it.
			task.TaskID = FlexString(taskIDFromStem(stem))
		}
		s.tasks[task.TaskID.String()] = task
	}

	log.Debug().Int("tasks", len(s.tasks)).Str("dir", dir).Msg("task data loaded")
	return s, nil
}

// taskIDFromStem derives a task ID from a file stem. "task-2-flask-api"
// yields "2"; stems without the task- prefix are used whole.
func taskIDFromStem(stem string) string {
	rest, ok := strings.CutPrefix(stem, "task-")
	if !ok || rest == "" {
		return stem
	}
	if id, _, found := strings.Cut(rest, "-"); found && id != "" {
		return id
	}
	return rest
}

// Find returns the task definition for the given ID. The boolean reports
// whether the task was present; callers score with a zero Task when it was
// not, which disables every task-conditional rule.
func (s *Store) Find(taskID string) (Task, bool) {
	task, ok := s.tasks[taskID]
	return task, ok
}

// Len returns the number of loaded task definitions.
func (s *Store) Len() int { return len(s.tasks) }
