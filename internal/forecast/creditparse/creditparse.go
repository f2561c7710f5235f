// Package creditparse extracts a wait-until time from the LLM vendor's
// credit-exhaustion error messages, e.g. "out of extra usage · resets 6pm
// (Europe/Paris)", so a caller can sleep until the reset instead of
// treating the run as a hard failure.
package creditparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is a parsed credit-exhaustion error: the original message and,
// when recoverable, the time at which the quota resets.
type Result struct {
	Message   string
	ResetTime *time.Time
}

var resetPattern = regexp.MustCompile(`(?i)resets?\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*\(([^)]+)\)`)

// Parse inspects message for the vendor's credit-exhaustion phrasing.
// Returns nil if the message doesn't describe credit exhaustion at all.
// A non-nil Result with a nil ResetTime means exhaustion was detected but
// no reset time could be parsed (unrecognized timezone, no match).
func Parse(message string) *Result {
	lower := strings.ToLower(message)
	if !strings.Contains(lower, "out of extra usage") && !strings.Contains(lower, "out of usage") {
		return nil
	}

	result := &Result{Message: message}

	match := resetPattern.FindStringSubmatch(message)
	if match == nil {
		return result
	}

	hour, err := strconv.Atoi(match[1])
	if err != nil {
		return result
	}
	minute := 0
	if match[2] != "" {
		minute, _ = strconv.Atoi(match[2])
	}
	ampm := strings.ToLower(match[3])
	tzName := match[4]

	switch ampm {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return result
	}

	now := time.Now().In(loc)
	reset := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
	if !reset.After(now) {
		reset = reset.AddDate(0, 0, 1)
	}
	result.ResetTime = &reset
	return result
}
