// Package statistics folds per-file analysis results into the cross-file
// aggregate report: stack frequency ranking, per-stack state breakdown,
// per-file statistics and per-state averages.
package statistics

import (
	"sort"

	"github.com/thread-analysis/pkg/model"
)

// Aggregator combines the results of all analyzed files. It is a pure fold
// over ordered file results: given the same results in the same order, the
// produced report is identical run over run.
type Aggregator struct {
	maxStacks int
}

// AggregatorOption configures the Aggregator.
type AggregatorOption func(*Aggregator)

// WithMaxStacks limits the number of ranked stacks in the report.
func WithMaxStacks(n int) AggregatorOption {
	return func(a *Aggregator) {
		a.maxStacks = n
	}
}

// NewAggregator creates a new Aggregator.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		maxStacks: 0, // 0 means no limit
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// stackEntry carries the first-seen sequence number so the ranking
// tie-break is explicit instead of relying on sort stability.
type stackEntry struct {
	stack model.Stack
	count int
	seq   int
}

// Aggregate folds the given file results, in order, into an
// AggregateReport. Zero files is a valid input: the report comes back
// empty with FilesAnalyzed == 0 and every map initialized.
func (a *Aggregator) Aggregate(results []*model.FileResult) *model.AggregateReport {
	report := &model.AggregateReport{
		RankedStacks:  make([]model.RankedStack, 0),
		StackStates:   make(map[string]map[string]int),
		PerFileStats:  make([]model.PerFileStats, 0, len(results)),
		StateAverages: make(map[string]float64),
		FilesAnalyzed: len(results),
	}

	entries := make(map[string]*stackEntry)
	nextSeq := 0

	for _, fr := range results {
		if fr == nil {
			continue
		}
		report.PerFileStats = append(report.PerFileStats, fr.Stats)

		for _, rec := range fr.Records {
			key := rec.Stack.Key()

			entry, ok := entries[key]
			if !ok {
				entry = &stackEntry{stack: rec.Stack.Clone(), seq: nextSeq}
				nextSeq++
				entries[key] = entry
			}
			entry.count++

			states, ok := report.StackStates[key]
			if !ok {
				states = make(map[string]int)
				report.StackStates[key] = states
			}
			states[rec.State] = states[rec.State] + 1
		}
	}

	report.RankedStacks = a.rankStacks(entries)
	report.StateAverages = stateAverages(report.PerFileStats, report.FilesAnalyzed)

	return report
}

// rankStacks orders stacks by count descending, with ties broken by
// first-seen sequence number ascending.
func (a *Aggregator) rankStacks(entries map[string]*stackEntry) []model.RankedStack {
	sorted := make([]*stackEntry, 0, len(entries))
	for _, e := range entries {
		sorted = append(sorted, e)
	}

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].seq < sorted[j].seq
	})

	if a.maxStacks > 0 && len(sorted) > a.maxStacks {
		sorted = sorted[:a.maxStacks]
	}

	ranked := make([]model.RankedStack, len(sorted))
	for i, e := range sorted {
		ranked[i] = model.RankedStack{Stack: e.stack, Count: e.count}
	}
	return ranked
}

// stateAverages computes the average per-file thread count for every state
// observed in any file. The denominator is floored to 1 so an empty run
// cannot divide by zero.
func stateAverages(perFile []model.PerFileStats, filesAnalyzed int) map[string]float64 {
	sums := make(map[string]int)
	for _, fs := range perFile {
		for state, count := range fs.StateCounts {
			sums[state] = sums[state] + count
		}
	}

	denom := filesAnalyzed
	if denom < 1 {
		denom = 1
	}

	averages := make(map[string]float64, len(sums))
	for state, sum := range sums {
		averages[state] = float64(sum) / float64(denom)
	}
	return averages
}
