// Package engine orchestrates batch scoring: a worker pool evaluates run
// records against one domain rubric and the results are handed to a single
// ledger writer. Evaluation is pure and deterministic, so the pool does no
// I/O and never retries; the only failure mode inside a batch is
// cancellation.
package engine

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/verdict/internal/clock"
	"github.com/mrz1836/verdict/internal/ctxutil"
	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// Engine scores batches of run records for one domain.
type Engine struct {
	rubric  rubric.Rubric
	tasks   *taskdata.Store
	workers int
	clock   clock.Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the worker pool size. Zero or negative selects the
// default (one worker per CPU).
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithClock overrides the batch duration clock.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an engine for one rubric. The task store may hold no tasks;
// records without metadata score against the unconditional rules.
func New(rb rubric.Rubric, tasks *taskdata.Store, opts ...Option) *Engine {
	e := &Engine{rubric: rb, tasks: tasks, clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.NumCPU()
	}
	if e.workers < 1 {
		e.workers = 1
	}
	return e
}

// Batch is the outcome of scoring one record batch. Records holds one score
// record per input run, in input order.
type Batch struct {
	Domain   string
	Records  []*domain.ScoreRecord
	Summary  Summary
	Duration time.Duration
}

// Summary aggregates a batch for the CLI's summary table.
type Summary struct {
	// Total is the number of runs scored.
	Total int `json:"total"`

	// Extracted counts runs whose artifact was recovered.
	Extracted int `json:"extracted"`

	// ExtractionRate is Extracted/Total, zero for an empty batch.
	ExtractionRate float64 `json:"extraction_rate"`

	// NeedsReview counts runs flagged for manual review.
	NeedsReview int `json:"needs_review"`

	// MeanAutoScore is the mean auto_score across all runs.
	MeanAutoScore float64 `json:"mean_auto_score"`

	// ByCondition breaks the batch down per instructional condition,
	// sorted by condition name.
	ByCondition []ConditionStat `json:"by_condition"`
}

// ConditionStat is one condition's slice of the batch summary.
type ConditionStat struct {
	Condition     string  `json:"condition"`
	Runs          int     `json:"runs"`
	Extracted     int     `json:"extracted"`
	MeanAutoScore float64 `json:"mean_auto_score"`
}

// Score evaluates every record through the worker pool. The returned batch
// is complete unless the context is canceled, which aborts between runs.
func (e *Engine) Score(ctx context.Context, records []*domain.RunRecord) (*Batch, error) {
	log := zerolog.Ctx(ctx)
	start := e.clock.Now()

	log.Info().
		Str("domain", e.rubric.Domain()).
		Int("runs", len(records)).
		Int("workers", e.workers).
		Msg("scoring batch")

	results := make([]*domain.ScoreRecord, len(records))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(e.workers)

	for i, rec := range records {
		// Cancellation is honored between runs; a run in flight completes.
		if err := ctxutil.Canceled(ctx); err != nil {
			_ = g.Wait()
			return nil, err
		}

		g.Go(func() error {
			if err := ctxutil.Canceled(ctx); err != nil {
				return err
			}
			sr := e.scoreOne(ctx, rec)
			mu.Lock()
			results[i] = sr
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &Batch{
		Domain:   e.rubric.Domain(),
		Records:  results,
		Summary:  summarize(results),
		Duration: e.clock.Now().Sub(start),
	}

	log.Info().
		Str("domain", batch.Domain).
		Int("runs", batch.Summary.Total).
		Int("extracted", batch.Summary.Extracted).
		Int("needs_review", batch.Summary.NeedsReview).
		Dur("duration", batch.Duration).
		Msg("batch scored")
	return batch, nil
}

// scoreOne evaluates a single record with its task metadata.
func (e *Engine) scoreOne(ctx context.Context, rec *domain.RunRecord) *domain.ScoreRecord {
	log := zerolog.Ctx(ctx)

	if !rec.KnownCondition() {
		log.Warn().
			Str("run_id", rec.RunID).
			Str("condition", rec.Condition).
			Msg("unknown condition, scoring anyway")
	}

	task, found := e.tasks.Find(rec.Task)
	if !found && rec.Task != "" {
		log.Debug().
			Str("run_id", rec.RunID).
			Str("task", rec.Task).
			Msg("no task metadata, task-conditional rules use zero values")
	}

	return e.rubric.Evaluate(ctx, rec, task)
}

// summarize aggregates scored records into the batch summary.
func summarize(records []*domain.ScoreRecord) Summary {
	s := Summary{Total: len(records)}
	if s.Total == 0 {
		return s
	}

	type tally struct {
		runs      int
		extracted int
		score     float64
	}
	byCondition := make(map[string]*tally)
	totalScore := 0.0

	for _, sr := range records {
		t := byCondition[sr.Run.Condition]
		if t == nil {
			t = &tally{}
			byCondition[sr.Run.Condition] = t
		}
		t.runs++
		if !sr.Artifact.Failed {
			t.extracted++
			s.Extracted++
		}
		if sr.NeedsManualReview {
			s.NeedsReview++
		}
		t.score += sr.AutoScore
		totalScore += sr.AutoScore
	}

	s.ExtractionRate = float64(s.Extracted) / float64(s.Total)
	s.MeanAutoScore = totalScore / float64(s.Total)

	conditions := make([]string, 0, len(byCondition))
	for c := range byCondition {
		conditions = append(conditions, c)
	}
	sort.Strings(conditions)
	for _, c := range conditions {
		t := byCondition[c]
		s.ByCondition = append(s.ByCondition, ConditionStat{
			Condition:     c,
			Runs:          t.runs,
			Extracted:     t.extracted,
			MeanAutoScore: t.score / float64(t.runs),
		})
	}
	return s
}
