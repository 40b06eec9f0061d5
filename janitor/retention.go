package janitor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidRetentionWindow is returned when a retention window cannot be parsed.
var ErrInvalidRetentionWindow = errors.New("invalid retention window, please use format dd:hh:mm")

const (
	day                     = 24 * time.Hour
	retentionWindowNumParts = 3
)

var retentionWindowUnits = [retentionWindowNumParts]time.Duration{day, time.Hour, time.Minute}

// ParseRetentionWindow parses a retention window expressed as days:hours:minutes, for example "07:00:00".
func ParseRetentionWindow(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != retentionWindowNumParts {
		return 0, errors.Wrapf(ErrInvalidRetentionWindow, "%q", s)
	}

	var total time.Duration

	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidRetentionWindow, "%q", s)
		}

		unit := retentionWindowUnits[i]
		if v > uint64(math.MaxInt64/int64(unit)) {
			return 0, errors.Wrapf(ErrInvalidRetentionWindow, "%q is out of range", s)
		}

		part := time.Duration(v) * unit //nolint:gosec
		if total > math.MaxInt64-part {
			return 0, errors.Wrapf(ErrInvalidRetentionWindow, "%q is out of range", s)
		}

		total += part
	}

	return total, nil
}

// FormatRetentionWindow formats the duration as days:hours:minutes, dropping seconds.
func FormatRetentionWindow(d time.Duration) string {
	days := d / day
	d -= days * day
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute

	return fmt.Sprintf("%02d:%02d:%02d", days, hours, minutes)
}
