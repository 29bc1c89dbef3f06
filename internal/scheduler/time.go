package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTime is returned when a clock value cannot be split into numeric hour and minute parts.
var ErrMalformedTime = errors.New("scheduler: malformed time")

// ParseTimeToMinutes converts an "HH:mm" value into minutes since midnight.
//
// Only the shape is checked; out-of-range parts such as "25:00" are converted as-is.
func ParseTimeToMinutes(value string) (int, error) {
	hourPart, minutePart, ok := strings.Cut(value, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, value)
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, value)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, value)
	}

	return hour*60 + minute, nil
}

// FormatMinutes renders minutes since midnight as "HH:mm", clamped to the 00:00-23:59 range.
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > 23*60+59 {
		minutes = 23*60 + 59
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// IsClockTime reports whether value is a strict 24-hour "HH:mm" clock reading.
func IsClockTime(value string) bool {
	if len(value) != 5 || value[2] != ':' {
		return false
	}
	for i, r := range value {
		if i == 2 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	hour := int(value[0]-'0')*10 + int(value[1]-'0')
	minute := int(value[3]-'0')*10 + int(value[4]-'0')
	return hour < 24 && minute < 60
}
