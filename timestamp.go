package statelesscsrf

import (
	"log/slog"
	"strconv"
	"time"
)

// Timestamp is an optional point in time with second precision. It is used
// both for token expiration and for the "current time" of a validation.
//
// The zero Timestamp is absent. Unix(0) is present and means the epoch, so an
// absent expiry can never be mistaken for a zero one.
type Timestamp struct {
	unix    int64
	present bool
}

// NoTimestamp is the absent Timestamp. As an expiration it means the token
// never expires; as a validation time it skips the expiry check.
var NoTimestamp = Timestamp{}

// Unix returns a present Timestamp for sec seconds since the epoch.
func Unix(sec int64) Timestamp {
	return Timestamp{unix: sec, present: true}
}

// At returns a present Timestamp for t, truncated to whole seconds.
func At(t time.Time) Timestamp {
	return Unix(t.Unix())
}

// Present reports whether ts holds a value.
func (ts Timestamp) Present() bool { return ts.present }

// Unix returns the seconds value and whether it is present.
func (ts Timestamp) Unix() (int64, bool) { return ts.unix, ts.present }

// Time returns ts as a time.Time, or the zero time when absent.
func (ts Timestamp) Time() time.Time {
	if !ts.present {
		return time.Time{}
	}
	return time.Unix(ts.unix, 0).UTC()
}

// After reports whether both values are present and ts is strictly later.
func (ts Timestamp) After(other Timestamp) bool {
	return ts.present && other.present && ts.unix > other.unix
}

func (ts Timestamp) String() string {
	if !ts.present {
		return "none"
	}
	return strconv.FormatInt(ts.unix, 10)
}

// LogValue implements slog.LogValuer.
func (ts Timestamp) LogValue() slog.Value {
	if !ts.present {
		return slog.StringValue("none")
	}
	return slog.Int64Value(ts.unix)
}
