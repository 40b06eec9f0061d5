package janitor

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/internal/filetime"
)

// ErrUnsupportedDateStrategy is returned when the date retrieval strategy is not recognized.
var ErrUnsupportedDateStrategy = errors.New("unsupported date retrieval strategy")

// DateRetrievalStrategy selects which file timestamp is compared against the retention cutoff.
type DateRetrievalStrategy string

// Supported date retrieval strategies.
const (
	CreateDate     DateRetrievalStrategy = "CreateDate"
	LastUpdateDate DateRetrievalStrategy = "LastUpdateDate"
	LastAccessDate DateRetrievalStrategy = "LastAccessDate"
)

// DefaultDateStrategy is used when no strategy is provided.
const DefaultDateStrategy = LastUpdateDate

// SupportedDateStrategies returns the names of all supported strategies.
func SupportedDateStrategies() []string {
	return []string{string(CreateDate), string(LastUpdateDate), string(LastAccessDate)}
}

// ParseDateRetrievalStrategy parses the strategy name, ignoring case.
func ParseDateRetrievalStrategy(s string) (DateRetrievalStrategy, error) {
	for _, v := range SupportedDateStrategies() {
		if strings.EqualFold(v, s) {
			return DateRetrievalStrategy(v), nil
		}
	}

	return "", errors.Wrapf(ErrUnsupportedDateStrategy, "%q", s)
}

func (s DateRetrievalStrategy) resolve() (DateRetrievalStrategy, error) {
	if s == "" {
		return DefaultDateStrategy, nil
	}

	return ParseDateRetrievalStrategy(string(s))
}

func (s DateRetrievalStrategy) timestamp(t filetime.Times) time.Time {
	switch s {
	case CreateDate:
		return t.Created
	case LastAccessDate:
		return t.Accessed
	default:
		return t.Modified
	}
}
