package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Time bounds for the "HH:MM" grammar.
const (
	maxHour        = 23
	maxMinute      = 59
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

// ValidateTimeString checks that s satisfies the canonical "HH:MM" grammar.
//
// It returns ErrInvalidFormat when s is not two numeric groups separated by
// a single colon, and ErrOutOfRange when hours are not in [0,23] or minutes
// not in [0,59]. "24:00" is out of range; "-1:30" is invalid format (the
// minus sign is not a digit).
func ValidateTimeString(s string) error {
	hours, minutes, err := splitClock(s)
	if err != nil {
		return err
	}
	if hours > maxHour {
		return fmt.Errorf("%w: hours %d not in 00-23", ErrOutOfRange, hours)
	}
	if minutes > maxMinute {
		return fmt.Errorf("%w: minutes %d not in 00-59", ErrOutOfRange, minutes)
	}
	return nil
}

// ToMinutesSinceMidnight converts a valid "HH:MM" string to minutes since
// midnight. Invalid input fails loudly; a malformed string never produces a
// number.
func ToMinutesSinceMidnight(s string) (int, error) {
	if err := ValidateTimeString(s); err != nil {
		return 0, err
	}
	// Validation guarantees splitClock succeeds.
	hours, minutes, _ := splitClock(s)
	return hours*minutesPerHour + minutes, nil
}

// splitClock parses s into numeric hour and minute components without range
// checking. Both groups must be non-empty and all-digit.
func splitClock(s string) (hours, minutes int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidFormat, s)
	}

	hours, err = parseDigits(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad hour group in %q", ErrInvalidFormat, s)
	}
	minutes, err = parseDigits(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad minute group in %q", ErrInvalidFormat, s)
	}
	return hours, minutes, nil
}

// parseDigits converts a non-empty all-digit string to an int. Unlike
// strconv.Atoi it rejects signs and whitespace outright.
func parseDigits(s string) (int, error) {
	if s == "" {
		return 0, ErrInvalidFormat
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidFormat
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// TimeWindow is a start/end wall-clock pair governing when an actuator rule
// is active.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Validate checks both endpoints against the "HH:MM" grammar and rejects
// zero-length windows. A window with Start > End is valid and wraps across
// midnight.
func (w TimeWindow) Validate() error {
	if err := ValidateTimeString(w.Start); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := ValidateTimeString(w.End); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if w.Start == w.End {
		return fmt.Errorf("%w: %q", ErrEmptyWindow, w.Start)
	}
	return nil
}

// Contains reports whether the given minute-of-day falls inside the window.
// The start minute is inclusive, the end minute exclusive. Overnight windows
// (Start > End) cover [start, midnight) and [midnight, end).
func (w TimeWindow) Contains(minuteOfDay int) (bool, error) {
	start, err := ToMinutesSinceMidnight(w.Start)
	if err != nil {
		return false, fmt.Errorf("start: %w", err)
	}
	end, err := ToMinutesSinceMidnight(w.End)
	if err != nil {
		return false, fmt.Errorf("end: %w", err)
	}
	if start == end {
		return false, fmt.Errorf("%w: %q", ErrEmptyWindow, w.Start)
	}

	m := ((minuteOfDay % minutesPerDay) + minutesPerDay) % minutesPerDay
	if start < end {
		return m >= start && m < end, nil
	}
	// Overnight wrap
	return m >= start || m < end, nil
}

// ContainsTime reports whether the wall-clock component of t falls inside
// the window.
func (w TimeWindow) ContainsTime(t time.Time) (bool, error) {
	return w.Contains(t.Hour()*minutesPerHour + t.Minute())
}

// Overlaps reports whether two windows share at least one minute. Both
// windows are validated first; an invalid window is a reported error, never
// a silent false.
func Overlaps(a, b TimeWindow) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}
	if err := b.Validate(); err != nil {
		return false, err
	}

	for _, seg := range segments(a) {
		for _, other := range segments(b) {
			if seg.lo < other.hi && other.lo < seg.hi {
				return true, nil
			}
		}
	}
	return false, nil
}

// segment is a half-open [lo, hi) minute range within a single day.
type segment struct {
	lo, hi int
}

// segments splits a window into one or two same-day ranges. Overnight
// windows produce [start, 1440) and [0, end).
func segments(w TimeWindow) []segment {
	start, _ := ToMinutesSinceMidnight(w.Start)
	end, _ := ToMinutesSinceMidnight(w.End)
	if start < end {
		return []segment{{lo: start, hi: end}}
	}
	return []segment{
		{lo: start, hi: minutesPerDay},
		{lo: 0, hi: end},
	}
}
