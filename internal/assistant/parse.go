package assistant

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateLayout mirrors a US locale short date, e.g. 10/15/2026.
const dateLayout = "1/2/2006"

var (
	timePattern = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)

	monthDayPattern = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\s+\d{1,2}\b`)
	slashDatePattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}\b`)
)

// ParseDateTime extracts a display date and a 24-hour time from free text.
// Date and time are independent: missing parts fall back to today's date
// and DefaultDueTime.
func ParseDateTime(input string, now time.Time) (date, clock string) {
	lower := strings.ToLower(input)
	rest := input

	switch {
	case strings.Contains(lower, "today"):
		date = now.Format(dateLayout)
	case strings.Contains(lower, "tomorrow"):
		date = now.AddDate(0, 0, 1).Format(dateLayout)
	default:
		date = now.Format(dateLayout)
		if loc := firstMatch(input, monthDayPattern, slashDatePattern); loc != nil {
			date = input[loc[0]:loc[1]]
			rest = input[:loc[0]] + " " + input[loc[1]:]
		}
	}

	clock = parseTime(rest)
	return date, clock
}

// firstMatch returns the earliest match location across patterns.
func firstMatch(s string, patterns ...*regexp.Regexp) []int {
	var best []int
	for _, p := range patterns {
		loc := p.FindStringIndex(s)
		if loc == nil {
			continue
		}
		if best == nil || loc[0] < best[0] {
			best = loc
		}
	}
	return best
}

// parseTime picks the first candidate with a meridiem or minutes, falling
// back to the first bare hour.
func parseTime(input string) string {
	var bare string
	for _, m := range timePattern.FindAllStringSubmatch(input, -1) {
		hour, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		minute := "00"
		if m[2] != "" {
			minute = m[2]
		}
		if mv, _ := strconv.Atoi(minute); mv > 59 {
			continue
		}

		switch strings.ToLower(m[3]) {
		case "pm":
			if hour > 12 {
				continue
			}
			if hour != 12 {
				hour += 12
			}
		case "am":
			if hour > 12 {
				continue
			}
			if hour == 12 {
				hour = 0
			}
		}
		if hour > 23 {
			continue
		}

		formatted := fmt.Sprintf("%d:%s", hour, minute)
		if m[2] != "" || m[3] != "" {
			return formatted
		}
		if bare == "" {
			bare = formatted
		}
	}
	if bare != "" {
		return bare
	}
	return DefaultDueTime
}

// ParsePriority maps free text to a priority. Anything unrecognized is Medium.
func ParsePriority(input string) Priority {
	lower := strings.ToLower(input)
	if strings.Contains(lower, "high") || strings.Contains(lower, "urgent") {
		return PriorityHigh
	}
	if strings.Contains(lower, "low") {
		return PriorityLow
	}
	return PriorityMedium
}

// IsAffirmative reports whether a yes/no answer should count as yes.
func IsAffirmative(input string) bool {
	lower := strings.ToLower(input)
	return strings.Contains(lower, "yes") || strings.Contains(lower, "y")
}

// parseIndex reads a leading integer the way a lenient form field would:
// surrounding whitespace and an optional sign, then digits. Trailing text
// after the digits is ignored.
func parseIndex(input string) (int, bool) {
	s := strings.TrimSpace(input)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
