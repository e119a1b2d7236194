package differ

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// BinaryExtensions lists the file extensions compared with Binary by default.
// Matching is case-sensitive and uses the trailing extension only, so
// "bundle.tar.gz" is matched by "gz".
var BinaryExtensions = []string{"bin", "exe", "gz", "pcap", "tar", "zip"}

// Rule maps a doublestar pattern (for example "fixtures/**/*.golden") to a
// Differ. Patterns are matched against slash-separated relative paths.
type Rule struct {
	Pattern string
	Differ  Differ
}

// Selector picks a Differ for a relative file path.
//
// Lookup order: the first matching Rule, then the extension table, then the
// fallback (Text). A Selector is safe for concurrent use.
type Selector struct {
	mu       sync.RWMutex
	rules    []Rule
	byExt    map[string]Differ
	fallback Differ
}

// NewSelector returns a Selector with the default extension table.
func NewSelector() *Selector {
	s := &Selector{
		byExt:    make(map[string]Differ, len(BinaryExtensions)),
		fallback: Text,
	}
	for _, ext := range BinaryExtensions {
		s.byExt[ext] = Binary
	}
	return s
}

// Register sets the Differ for an extension. The extension is given without
// the leading dot; a leading dot is tolerated and stripped.
func (s *Selector) Register(ext string, d Differ) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byExt[strings.TrimPrefix(ext, ".")] = d
}

// AddRule appends a pattern rule. Rules are consulted in the order added,
// before the extension table.
func (s *Selector) AddRule(pattern string, d Differ) error {
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid differ pattern %q", pattern)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, Rule{Pattern: pattern, Differ: d})
	return nil
}

// For returns the Differ for the given relative path.
func (s *Selector) For(name string) Differ {
	slashed := filepath.ToSlash(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.rules {
		// ValidatePattern ran in AddRule, so Match cannot fail here.
		if ok, _ := doublestar.Match(r.Pattern, slashed); ok {
			return r.Differ
		}
	}

	if ext := extension(slashed); ext != "" {
		if d, ok := s.byExt[ext]; ok {
			return d
		}
	}
	return s.fallback
}

// ForPath returns the default Differ for a path based on its extension.
func ForPath(name string) Differ {
	return defaultSelector.For(name)
}

var defaultSelector = NewSelector()

// extension returns the trailing extension of a slash-separated path
// without the dot, or "" when there is none.
func extension(name string) string {
	return strings.TrimPrefix(path.Ext(name), ".")
}
