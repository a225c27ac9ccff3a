package event

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the wall-clock interchange format used on the wire and in
// persistence. Timestamps carry no timezone designator; comparisons operate
// on the wall-clock value as stored.
const TimeLayout = "2006-01-02T15:04:05"

// acceptedLayouts lists the formats tolerated on input. Seconds are optional
// and an RFC3339 suffix is stripped rather than converted, preserving the
// wall-clock reading of the source string.
var acceptedLayouts = []string{
	TimeLayout,
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses a wall-clock timestamp in any accepted layout.
func ParseTime(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("event: empty timestamp")
	}
	trimmed = stripZoneSuffix(trimmed)
	for _, layout := range acceptedLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("event: invalid timestamp %q", value)
}

// FormatTime renders a wall-clock timestamp in the interchange layout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// stripZoneSuffix removes a trailing Z or numeric offset so timestamps that
// were serialized with a zone designator are still read as wall-clock.
func stripZoneSuffix(value string) string {
	if len(value) <= len("2006-01-02") {
		return value
	}
	if strings.HasSuffix(value, "Z") {
		return value[:len(value)-1]
	}
	for _, sep := range []string{"+", "-"} {
		if idx := strings.LastIndex(value, sep); idx > len("2006-01-02T") {
			rest := value[idx+1:]
			if len(rest) == len("07:00") && strings.Contains(rest, ":") {
				return value[:idx]
			}
		}
	}
	return value
}
