package categorization

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// Engine matches text against every category's keywords in a single pass using Aho-Corasick.
// When keywords of several categories occur in the text, the category configured first wins.
type Engine struct {
	matcher    *ahocorasick.Matcher
	patterns   []string
	owners     [][]int // category indices per pattern
	categories []string
	mu         sync.Mutex // Matcher.Match mutates internal state
}

// NewEngine builds the matcher for the categories.
func NewEngine(categories []Category) *Engine {
	e := &Engine{}
	e.Build(categories)
	return e
}

// Build replaces the matcher with one built from categories.
func (e *Engine) Build(categories []Category) {
	e.mu.Lock()
	defer e.mu.Unlock()

	patternToIndex := make(map[string]int)
	var patterns []string
	var owners [][]int
	names := make([]string, len(categories))

	for ci, cat := range categories {
		names[ci] = cat.Name
		for _, kw := range cat.Keywords {
			kw = normalizeKeyword(kw)
			if kw == "" {
				continue
			}
			if idx, exists := patternToIndex[kw]; exists {
				owners[idx] = append(owners[idx], ci)
				continue
			}
			patternToIndex[kw] = len(patterns)
			patterns = append(patterns, kw)
			owners = append(owners, []int{ci})
		}
	}

	e.patterns = patterns
	e.owners = owners
	e.categories = names

	if len(patterns) == 0 {
		e.matcher = nil
		return
	}
	bytePatterns := make([][]byte, len(patterns))
	for i, p := range patterns {
		bytePatterns[i] = []byte(p)
	}
	e.matcher = ahocorasick.NewMatcher(bytePatterns)
}

// Match returns the earliest configured category with a keyword contained in text.
func (e *Engine) Match(text string) (string, bool) {
	seen, names := e.scan(text)
	for ci, ok := range seen {
		if ok {
			return names[ci], true
		}
	}
	return "", false
}

// MatchAll returns every category with a matching keyword, in configured order.
func (e *Engine) MatchAll(text string) []string {
	seen, names := e.scan(text)
	var out []string
	for ci, ok := range seen {
		if ok {
			out = append(out, names[ci])
		}
	}
	return out
}

// PatternCount returns the number of distinct keywords loaded.
func (e *Engine) PatternCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.patterns)
}

// scan marks the categories whose keywords occur in text.
func (e *Engine) scan(text string) ([]bool, []string) {
	text = strings.ToLower(strings.TrimSpace(text))

	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make([]bool, len(e.categories))
	if e.matcher == nil || text == "" {
		return seen, e.categories
	}
	for _, idx := range e.matcher.Match([]byte(text)) {
		if idx < 0 || idx >= len(e.owners) {
			continue
		}
		for _, ci := range e.owners[idx] {
			seen[ci] = true
		}
	}
	return seen, e.categories
}
