// Package interval parses the compact duration strings used in binding
// options ("250ms", "5s", "2m").
package interval

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var pattern = regexp.MustCompile(`(?i)^(\d+)(ms|s|m)$`)

// ParseMs returns the number of milliseconds s denotes, or 0 when s does not
// match. It never returns a negative value.
func ParseMs(s string) int64 {
	m := pattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}

	var unit int64
	switch strings.ToLower(m[2]) {
	case "ms":
		unit = 1
	case "s":
		unit = 1000
	case "m":
		unit = 60000
	}
	if n > (1<<63-1)/unit {
		return 0
	}
	return n * unit
}

// Parse is ParseMs as a time.Duration. Values that overflow a Duration map to 0.
func Parse(s string) time.Duration {
	ms := ParseMs(s)
	if ms > int64(time.Duration(1<<63-1)/time.Millisecond) {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// Valid reports whether s has the duration form, including zero values
// such as "0s".
func Valid(s string) bool {
	return pattern.MatchString(strings.TrimSpace(s))
}
