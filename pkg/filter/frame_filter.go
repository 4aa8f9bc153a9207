// Package filter provides stack frame filtering for thread dump analysis.
// Frames whose fully-qualified call path starts with an ignored package
// prefix are dropped before stacks are compared, so noisy framework
// internals do not split otherwise identical stacks.
package filter

import (
	"strings"
	"sync"

	"github.com/thread-analysis/pkg/model"
)

// framePrefix is the marker every stack line of a JVM thread dump starts
// with after trimming.
const framePrefix = "at "

// FrameFilter decides which stack frames survive comparison.
// It is safe for concurrent use.
type FrameFilter struct {
	mu              sync.RWMutex
	ignoredPrefixes []string
}

// NewFrameFilter creates a FrameFilter with the given ignored prefixes.
// No prefixes means every frame is kept.
func NewFrameFilter(prefixes ...string) *FrameFilter {
	f := &FrameFilter{}
	f.AddIgnoredPrefixes(prefixes)
	return f
}

// CallPath extracts the fully-qualified call path from a raw frame line:
// the "at " marker is stripped and everything from the first '(' on is cut.
// For "at com.example.Svc.run(Svc.java:42)" it returns "com.example.Svc.run".
func CallPath(frame string) string {
	path := strings.TrimPrefix(frame, framePrefix)
	if idx := strings.Index(path, "("); idx >= 0 {
		path = path[:idx]
	}
	return path
}

// ShouldIgnore reports whether the frame's call path starts with any
// configured prefix. Matching is a plain string prefix check, no wildcards.
func (f *FrameFilter) ShouldIgnore(frame string) bool {
	path := CallPath(frame)

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, prefix := range f.ignoredPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Apply returns the frames that survive filtering, preserving their
// original relative order. Filtering is pure: applying it twice yields the
// same result as applying it once.
func (f *FrameFilter) Apply(frames []string) model.Stack {
	if len(frames) == 0 {
		return nil
	}

	kept := make(model.Stack, 0, len(frames))
	for _, frame := range frames {
		if !f.ShouldIgnore(frame) {
			kept = append(kept, frame)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// AddIgnoredPrefix adds a single ignored prefix. Duplicates are skipped.
func (f *FrameFilter) AddIgnoredPrefix(prefix string) {
	if prefix == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.ignoredPrefixes {
		if p == prefix {
			return
		}
	}
	f.ignoredPrefixes = append(f.ignoredPrefixes, prefix)
}

// AddIgnoredPrefixes adds multiple ignored prefixes.
func (f *FrameFilter) AddIgnoredPrefixes(prefixes []string) {
	for _, prefix := range prefixes {
		f.AddIgnoredPrefix(prefix)
	}
}

// IgnoredPrefixes returns a copy of the configured prefixes.
func (f *FrameFilter) IgnoredPrefixes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, len(f.ignoredPrefixes))
	copy(out, f.ignoredPrefixes)
	return out
}
