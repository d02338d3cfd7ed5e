// Package domain provides shared domain types for the VERDICT scoring engine.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case to match the capture schema written by
// the orchestration layer.
package domain

import "github.com/mrz1836/verdict/internal/constants"

// RunRecord is the immutable capture of one generation run: which model
// produced which raw output, under which instructional condition, for which
// task. It is created by the orchestration layer at capture time and consumed
// exactly once per scoring pass.
//
// Example JSON representation:
//
//	{
//	    "run_id": "claude-opus_pseudocode_2_rep1",
//	    "model": "claude-opus",
//	    "condition": "pseudocode",
//	    "task": "2",
//	    "task_complexity": "medium",
//	    "domain": "dockerfile",
//	    "rep": 1,
//	    "duration_ms": 41250,
//	    "raw_output": "{\"type\":\"result\",...}"
//	}
type RunRecord struct {
	// RunID uniquely identifies the run. When the capture file omits it,
	// the loader falls back to the file stem, then to a generated UUID.
	RunID string `json:"run_id"`

	// Model is the upstream generation model identifier.
	Model string `json:"model"`

	// Condition is the instructional condition the run was generated under.
	// Known values are listed in constants; unknown values still score.
	Condition string `json:"condition"`

	// Task identifies the task the model was asked to perform.
	// Task metadata is looked up by this value in the task data directory.
	Task string `json:"task"`

	// TaskComplexity is the orchestrator's complexity label for the task.
	// Carried through to the ledger verbatim.
	TaskComplexity string `json:"task_complexity,omitempty"`

	// Domain selects the rubric used to score this run.
	Domain string `json:"domain,omitempty"`

	// Rep is the repetition index within the sweep matrix.
	Rep int `json:"rep"`

	// DurationMs is the wall-clock duration of the upstream generation call.
	DurationMs int64 `json:"duration_ms,omitempty"`

	// RawOutput is the upstream tool's full captured response. The format is
	// unconstrained; the extractor detects the wrapper envelope.
	RawOutput string `json:"raw_output"`
}

// KnownCondition reports whether the record's condition is part of the
// documented experiment matrix. Unknown conditions are scored anyway.
func (r RunRecord) KnownCondition() bool {
	switch r.Condition {
	case constants.ConditionNone,
		constants.ConditionMarkdown,
		constants.ConditionPseudocode,
		constants.ConditionPseudocodeTarget:
		return true
	default:
		return false
	}
}
