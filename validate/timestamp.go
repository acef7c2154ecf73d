package validate

import (
	"regexp"
	"time"
)

// iso8601 accepts date-time values with optional fractional seconds and an
// optional Z or +hh:mm offset
var iso8601 = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:[+-]\d{2}:\d{2}|Z)?$`)

const localLayout = "2006-01-02T15:04:05.999999999"

// IsISO8601 reports whether s has the accepted timestamp shape
func IsISO8601(s string) bool {
	return iso8601.MatchString(s)
}

// ParseTimestamp parses an ISO 8601 timestamp. Values without an offset are
// interpreted in loc.
func ParseTimestamp(field, value string, loc *time.Location) (time.Time, error) {
	if !IsISO8601(value) {
		return time.Time{}, &ValidationError{Field: field, Value: value, Reason: "not an ISO 8601 timestamp"}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(localLayout, value, loc)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Value: value, Reason: err.Error()}
	}
	return t, nil
}

// ReservationWindow validates a new reservation: both timestamps parse, the
// end lies after the start and the start is not in the past relative to now.
func ReservationWindow(start, end string, now time.Time) (time.Time, time.Time, error) {
	loc := now.Location()
	startAt, err := ParseTimestamp("start time", start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endAt, err := ParseTimestamp("end time", end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !endAt.After(startAt) {
		return time.Time{}, time.Time{}, &ValidationError{Field: "end time", Value: end, Reason: "must be after the start time"}
	}
	if startAt.Before(now) {
		return time.Time{}, time.Time{}, &ValidationError{Field: "start time", Value: start, Reason: "may not lie in the past"}
	}
	return startAt, endAt, nil
}

// NewEndTime validates a replacement end time against the stored start time
func NewEndTime(start time.Time, end string) (time.Time, error) {
	endAt, err := ParseTimestamp("end time", end, start.Location())
	if err != nil {
		return time.Time{}, err
	}
	if !endAt.After(start) {
		return time.Time{}, &ValidationError{Field: "end time", Value: end, Reason: "must be after the start time"}
	}
	return endAt, nil
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
