// Package timing parses and formats the "M:SS" match timestamps used by
// build order steps. Nothing here panics on bad input: unparsable text
// yields ok == false and the caller shows no timing.
package timing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// maxMinutes keeps minutes*60 from overflowing.
const maxMinutes = math.MaxInt32

var (
	canonical = regexp.MustCompile(`^(\d+):([0-5]\d)$`)

	// Separators people type instead of a colon: "1.30", "1 30", "1;30",
	// "1'30", "1m30s".
	loose       = regexp.MustCompile(`^(\d+)\s*(?:[:.;,']|m|\s)\s*(\d{1,2})\s*s?$`)
	secondsOnly = regexp.MustCompile(`^(\d+)\s*s?$`)
	spaces      = regexp.MustCompile(`\s+`)
)

// Parse converts canonical "M:SS" or "MM:SS" text to seconds. Minutes are
// unbounded, seconds must be 00-59. Surrounding whitespace is ignored.
func Parse(text string) (int, bool) {
	m := canonical.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, false
	}
	mins, err := strconv.Atoi(m[1])
	if err != nil || mins > maxMinutes {
		return 0, false
	}
	sec, _ := strconv.Atoi(m[2])
	return mins*60 + sec, true
}

// Format renders seconds as "M:SS". Negative values clamp to "0:00".
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatDelta renders a signed difference as "+M:SS" or "-M:SS". Zero is
// "+0:00".
func FormatDelta(delta int) string {
	if delta < 0 {
		return "-" + Format(-delta)
	}
	return "+" + Format(delta)
}

// FormatDeltaCompact renders a signed difference in seconds, e.g. "+15s".
func FormatDeltaCompact(delta int) string {
	if delta < 0 {
		return fmt.Sprintf("%ds", delta)
	}
	return fmt.Sprintf("+%ds", delta)
}

// Sanitize normalises hand-typed timing text into canonical "M:SS".
// Garbled separators and stray whitespace are repaired, a bare number is
// read as seconds. Returns ok == false when the text cannot be recovered.
func Sanitize(raw string) (string, bool) {
	s := strings.ToLower(spaces.ReplaceAllString(strings.TrimSpace(raw), " "))
	if s == "" {
		return "", false
	}
	if n, ok := Parse(s); ok {
		return Format(n), true
	}
	if m := loose.FindStringSubmatch(s); m != nil {
		mins, err := strconv.Atoi(m[1])
		if err != nil || mins > maxMinutes {
			return "", false
		}
		sec, _ := strconv.Atoi(m[2])
		if sec > 59 {
			return "", false
		}
		return Format(mins*60 + sec), true
	}
	if m := secondsOnly.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return "", false
		}
		return Format(n), true
	}
	return "", false
}

// ParseLoose parses text after sanitising it. Drift and auto-advance use
// this so a step authored as "1.30" still counts.
func ParseLoose(text string) (int, bool) {
	s, ok := Sanitize(text)
	if !ok {
		return 0, false
	}
	return Parse(s)
}
