// Package rubric defines the contract between the scoring engine and the
// per-domain rule sets, plus the registry the CLI uses to look them up.
//
// A rubric owns everything domain-specific about scoring: locating the
// artifact inside unwrapped run output, parsing it, evaluating the ordered
// rule set, and rendering the ledger row. The engine stays generic by only
// talking to this interface.
package rubric

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mrz1836/verdict/internal/domain"
	verrors "github.com/mrz1836/verdict/internal/errors"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// Rule describes one rule of a domain rubric for listings and docs.
type Rule struct {
	// ID is the stable rule identifier, e.g. "rule_4_multistage". Numbering
	// is append-only per domain because ledger columns derive from it.
	ID string

	// Title is the one-line requirement summary shown by the rules command.
	Title string

	// PerFile marks rules scored as a pass rate across artifact files
	// instead of a whole-artifact boolean.
	PerFile bool

	// Manual marks rules that are recorded in the ledger but excluded from
	// auto_score because they need human judgment.
	Manual bool
}

// Rubric scores one domain's artifacts.
type Rubric interface {
	// Domain returns the identifier the rubric is registered under.
	Domain() string

	// Rules returns the rubric's rules in ledger column order.
	Rules() []Rule

	// MaxScore returns the maximum attainable auto_score.
	MaxScore() float64

	// Columns returns the domain ledger's full CSV header, shared prefix
	// included.
	Columns() []string

	// Doc returns a markdown description of the rubric for terminal
	// rendering.
	Doc() string

	// Extract runs only the artifact-location stage against one run
	// record, for extraction debugging.
	Extract(rec *domain.RunRecord) domain.ExtractedArtifact

	// Evaluate scores one run record. It never returns an error: a run
	// whose artifact cannot be extracted still yields a complete record
	// with the failure columns populated.
	Evaluate(ctx context.Context, rec *domain.RunRecord, task taskdata.Task) *domain.ScoreRecord
}

// Registry maps domain identifiers to their rubrics.
// It provides thread-safe registration and lookup.
type Registry struct {
	mu      sync.RWMutex
	rubrics map[string]Rubric
}

// NewRegistry creates a new empty rubric registry.
func NewRegistry() *Registry {
	return &Registry{
		rubrics: make(map[string]Rubric),
	}
}

// Register adds a rubric under its own domain identifier.
// If a rubric already exists for the domain, it is replaced.
func (r *Registry) Register(rb Rubric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rubrics[rb.Domain()] = rb
}

// Get retrieves the rubric for a domain.
// Returns ErrUnknownDomain if no rubric is registered for it.
func (r *Registry) Get(domainID string) (Rubric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rb, ok := r.rubrics[domainID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", verrors.ErrUnknownDomain, domainID)
	}
	return rb, nil
}

// Has checks if a rubric is registered for the domain.
func (r *Registry) Has(domainID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rubrics[domainID]
	return ok
}

// Domains returns all registered domain identifiers, sorted.
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	domains := make([]string, 0, len(r.rubrics))
	for d := range r.rubrics {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

// NeedsManualReview reports whether any rule detail carries the needs_review
// marker that flags verdicts approximated from an absent signal.
func NeedsManualReview(results []domain.RuleResult) bool {
	for _, r := range results {
		if strings.Contains(r.Detail, "needs_review") {
			return true
		}
	}
	return false
}
