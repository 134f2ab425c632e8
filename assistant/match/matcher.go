// Package match resolves a free-text task reference to the most likely
// existing uncompleted task using a normalized edit-distance ratio.
package match

import (
	"context"
	"fmt"
	"strings"

	"genia/assistant/contract"
	"genia/todo"
)

// DefaultThreshold is the minimum similarity at which a candidate is
// accepted. It is a tuning default, not a derived constant.
const DefaultThreshold = 0.5

// ActiveLister supplies the candidate set: the owner's uncompleted
// tasks in creation order.
type ActiveLister interface {
	ListActive(ctx context.Context, owner string) ([]todo.Task, error)
}

// Result is a successful resolution.
type Result struct {
	TaskID int64
	Task   string
	Score  float64
}

// Option customizes a Matcher.
type Option func(*Matcher)

// WithThreshold overrides the acceptance threshold. Values outside
// (0, 1] keep the default.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 && threshold <= 1 {
			m.threshold = threshold
		}
	}
}

type Matcher struct {
	tasks     ActiveLister
	threshold float64
}

func New(tasks ActiveLister, opts ...Option) *Matcher {
	m := &Matcher{
		tasks:     tasks,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Resolve scores description against every active task of owner and
// returns the best candidate when its similarity reaches the threshold.
// Ties resolve to the first maximum in the store's creation order; they
// are not re-ranked by recency or length. Failures carry the active
// task texts so the caller can ask the user to disambiguate; storage
// errors propagate as-is.
func (m *Matcher) Resolve(ctx context.Context, owner string, description string) (Result, error) {
	candidates, err := m.tasks.ListActive(ctx, owner)
	if err != nil {
		return Result{}, fmt.Errorf("load match candidates: %w", err)
	}
	if len(candidates) == 0 {
		return Result{}, &contract.MatchError{Reason: "no active tasks found"}
	}

	best := Result{Score: -1}
	texts := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		texts = append(texts, candidate.Text)
		score := Similarity(candidate.Text, description)
		if score > best.Score {
			best = Result{
				TaskID: candidate.ID,
				Task:   candidate.Text,
				Score:  score,
			}
		}
	}

	if best.Score < m.threshold {
		return Result{}, &contract.MatchError{
			Reason:     fmt.Sprintf("no task matches %q closely enough", description),
			Candidates: texts,
		}
	}
	return best, nil
}

// Similarity is a case-insensitive normalized edit-distance ratio in
// [0, 1]: 1 for equal strings, 0 for nothing in common.
func Similarity(candidate, query string) float64 {
	a := []rune(strings.ToLower(candidate))
	b := []rune(strings.ToLower(query))
	if len(a) == 0 && len(b) == 0 {
		return 1
	}

	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return 1 - float64(editDistance(a, b))/float64(longest)
}

// editDistance is a two-row Levenshtein over runes.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
