// Package keyword builds the case-insensitive whole-word matchers used by
// the flagging and filtering stages.
package keyword

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoKeywords is returned when a pattern is compiled from an empty list.
var ErrNoKeywords = errors.New("keyword list is empty")

// Pattern matches any of a set of keywords as whole words, ignoring case.
type Pattern struct {
	re *regexp.Regexp
}

// Compile builds a Pattern from a keyword list. Multi-word phrases match
// as literal phrases; word-boundary semantics apply at both ends, so
// "diversity" matches "Diversity training" but not "nondiversity".
func Compile(words []string) (*Pattern, error) {
	if len(words) == 0 {
		return nil, ErrNoKeywords
	}

	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}

	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile keyword pattern: %w", err)
	}

	return &Pattern{re: re}, nil
}

// Match reports whether s contains any keyword.
func (p *Pattern) Match(s string) bool {
	return p.re.MatchString(s)
}
