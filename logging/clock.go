package logging

import (
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/kopia/filejanitor/internal/clock"
)

type theClock struct{}

func (c theClock) Now() time.Time                         { return clock.Now() }
func (c theClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

// Clock is an implementation of zapcore.Clock that uses clock.Now().
var Clock zapcore.Clock = theClock{} //nolint:gochecknoglobals

// TimezoneAdjust returns zapcore.TimeEncoder that adjusts the time to either UTC or local time before logging.
func TimezoneAdjust(inner zapcore.TimeEncoder, isLocal bool) zapcore.TimeEncoder {
	if isLocal {
		return func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
			inner(t.Local(), pae)
		}
	}

	return func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		inner(t.UTC(), pae)
	}
}

// PreciseTimeEncoder encodes time with microsecond precision and a fixed-width layout.
func PreciseTimeEncoder(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
	pae.AppendString(t.Format("2006-01-02T15:04:05.000000Z07:00"))
}
