package threat

import (
	"sort"
	"strings"
	"sync"
)

// DefaultPatterns seeds a new set; the admin surface can extend it at
// runtime.
var DefaultPatterns = []string{"threat", "exploit", "malware", "unauthorized"}

// PatternSet is an unordered set of lowercase substrings. Matching is hot
// path; mutation is administrative and rare.
type PatternSet struct {
	mu       sync.RWMutex
	patterns map[string]struct{}
}

// NewPatternSet builds a set from the given patterns after normalization.
func NewPatternSet(patterns ...string) *PatternSet {
	s := &PatternSet{patterns: make(map[string]struct{})}
	for _, p := range patterns {
		s.Add(p)
	}
	return s
}

// Add normalizes and inserts a pattern. Blank input is ignored.
func (s *PatternSet) Add(pattern string) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[pattern] = struct{}{}
}

// Match reports the first pattern contained in text, case-insensitively.
// The set is unordered, so "first" carries no ordering guarantee.
func (s *PatternSet) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for p := range s.patterns {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

// List returns the patterns, sorted for stable output.
func (s *PatternSet) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.patterns))
	for p := range s.patterns {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
