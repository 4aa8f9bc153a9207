// Package model defines the data types shared between the dump parser,
// the per-file analyzer and the cross-file aggregator.
package model

import "strings"

// Stack is an ordered sequence of call frames for one thread at capture
// time, most recent call first. Frames are opaque strings, conventionally
// "at <package>.<class>.<method>(<file>:<line>)".
type Stack []string

// Key returns a value-equality grouping key for the stack. Two stacks map
// to the same key iff every frame matches in order and count. Frames are
// single trimmed lines, so the newline separator cannot collide.
func (s Stack) Key() string {
	return strings.Join(s, "\n")
}

// Top returns the top-of-stack frame, or "" for an empty stack.
func (s Stack) Top() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Clone returns an independent copy of the stack.
func (s Stack) Clone() Stack {
	if s == nil {
		return nil
	}
	out := make(Stack, len(s))
	copy(out, s)
	return out
}

// ThreadRecord is one matched pool thread: its state token and its stack
// after frame filtering. The stack is always non-empty; records whose stack
// filters down to nothing are discarded by the analyzer, never emitted.
type ThreadRecord struct {
	State string `json:"state"`
	Stack Stack  `json:"stack"`
}

// PerFileStats summarizes one dump file. Files with no matching pool
// threads still produce an entry, with TotalThreads == 0.
type PerFileStats struct {
	FileName     string         `json:"file_name"`
	TotalThreads int            `json:"total_threads"`
	StateCounts  map[string]int `json:"state_counts"`
}

// FileResult is the output of analyzing a single dump file.
type FileResult struct {
	Records []ThreadRecord `json:"records"`
	Stats   PerFileStats   `json:"stats"`
}

// RankedStack is one entry of the global stack-frequency ranking.
type RankedStack struct {
	Stack Stack `json:"stack"`
	Count int   `json:"count"`
}

// AggregateReport is the cross-file aggregation result, fully constructed
// in one pass by the aggregator and handed off complete.
type AggregateReport struct {
	// RankedStacks is sorted by count descending, ties broken by the order
	// in which each stack was first encountered during file processing.
	RankedStacks []RankedStack `json:"ranked_stacks"`

	// StackStates maps Stack.Key() to the per-state thread counts observed
	// for that stack across all files.
	StackStates map[string]map[string]int `json:"stack_states"`

	// PerFileStats holds one entry per input file, in file-iteration order.
	PerFileStats []PerFileStats `json:"per_file_stats"`

	// StateAverages maps each observed state to its average per-file thread
	// count. The denominator is floored to 1 when no files were analyzed.
	StateAverages map[string]float64 `json:"state_averages"`

	// FilesAnalyzed is the number of input files processed.
	FilesAnalyzed int `json:"files_analyzed"`
}

// Empty reports whether the analysis found nothing to rank. Callers render
// this as a "no matching threads" condition, not as an error.
func (r *AggregateReport) Empty() bool {
	return r == nil || r.FilesAnalyzed == 0 || len(r.RankedStacks) == 0
}

// MaxCount returns the highest stack occurrence count, or 0 for an empty
// report. RankedStacks is sorted, so this is the first entry.
func (r *AggregateReport) MaxCount() int {
	if r == nil || len(r.RankedStacks) == 0 {
		return 0
	}
	return r.RankedStacks[0].Count
}

// TotalThreads returns the number of thread records folded into the report.
func (r *AggregateReport) TotalThreads() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, fs := range r.PerFileStats {
		total += fs.TotalThreads
	}
	return total
}

// StatesFor returns the state breakdown for a ranked stack.
func (r *AggregateReport) StatesFor(s Stack) map[string]int {
	if r == nil || r.StackStates == nil {
		return nil
	}
	return r.StackStates[s.Key()]
}
