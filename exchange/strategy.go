package exchange

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// MultipleKeysFoundStrategy determines how FindFile resolves a prefix search that matched more than one key.
type MultipleKeysFoundStrategy string

// Supported strategies.
const (
	SingleMatchExpectedThrow MultipleKeysFoundStrategy = "SingleMatchExpectedThrow"
	FirstSortedAscending     MultipleKeysFoundStrategy = "FirstSortedAscending"
	FirstSortedDescending    MultipleKeysFoundStrategy = "FirstSortedDescending"
)

// SupportedStrategies returns all supported strategies.
func SupportedStrategies() []MultipleKeysFoundStrategy {
	return []MultipleKeysFoundStrategy{
		SingleMatchExpectedThrow,
		FirstSortedAscending,
		FirstSortedDescending,
	}
}

// ParseMultipleKeysFoundStrategy parses strategy name, ignoring case.
func ParseMultipleKeysFoundStrategy(s string) (MultipleKeysFoundStrategy, error) {
	for _, st := range SupportedStrategies() {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}

	return "", errors.Wrapf(ErrUnsupportedStrategy, "%q, must be one of %v", s, SupportedStrategies())
}

// selectKey picks a single key out of matches according to the strategy.
// The pattern is only used in error messages.
func selectKey(keys []string, strategy MultipleKeysFoundStrategy, pattern string) (string, error) {
	switch strategy {
	case SingleMatchExpectedThrow, FirstSortedAscending, FirstSortedDescending:
	default:
		return "", errors.Wrapf(ErrUnsupportedStrategy, "%q", strategy)
	}

	if len(keys) == 0 {
		return "", errors.Wrapf(ErrNotFound, "no key matches pattern %q", pattern)
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	switch strategy {
	case FirstSortedAscending:
		return sorted[0], nil

	case FirstSortedDescending:
		return sorted[len(sorted)-1], nil

	default:
		if len(sorted) > 1 {
			return "", errors.Wrapf(ErrAmbiguousMatch, "found %v keys matching pattern %q while single match was expected", len(sorted), pattern)
		}

		return sorted[0], nil
	}
}
