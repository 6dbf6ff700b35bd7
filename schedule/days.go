package schedule

import (
	"strconv"
	"strings"
)

// rangeSeparator means "to" in day expressions like "D1 a D5"
const rangeSeparator = " a "

// MaxDayIndex bounds day offsets so date arithmetic stays in range
const MaxDayIndex = 36600

// UnresolvedPlaceholder is displayed instead of a date that could not be computed
const UnresolvedPlaceholder = "..."

// ExpandDays turns a day expression into ordered day tokens.
//
// Accepted shapes, in priority order:
//   - comma list "D1, D8, D15": each trimmed piece verbatim
//   - range "D1 a D5" (case-insensitive separator): D1..D5, empty when start > end;
//     text after a second separator is ignored
//   - single token "D1": the trimmed text
func ExpandDays(expr string) []string {
	if strings.Contains(expr, ",") {
		pieces := strings.Split(expr, ",")
		tokens := make([]string, 0, len(pieces))
		for _, piece := range pieces {
			tokens = append(tokens, strings.TrimSpace(piece))
		}
		return tokens
	}

	if idx := indexRangeSeparator(expr); idx >= 0 {
		// The end bound stops at a second separator: "D1 a D5 a cada 21 dias" is D1..D5
		rest := expr[idx+len(rangeSeparator):]
		if next := indexRangeSeparator(rest); next >= 0 {
			rest = rest[:next]
		}
		start, okStart := extractInt(expr[:idx])
		end, okEnd := extractInt(rest)
		if !okStart || !okEnd || start > end || end > MaxDayIndex {
			return []string{}
		}

		tokens := make([]string, 0, end-start+1)
		for i := start; i <= end; i++ {
			tokens = append(tokens, "D"+strconv.Itoa(i))
		}
		return tokens
	}

	if trimmed := strings.TrimSpace(expr); trimmed != "" {
		return []string{trimmed}
	}
	return []string{}
}

// indexRangeSeparator finds the first " a " or " A " in s
func indexRangeSeparator(s string) int {
	for i := 0; i+len(rangeSeparator) <= len(s); i++ {
		if s[i] == ' ' && (s[i+1] == 'a' || s[i+1] == 'A') && s[i+2] == ' ' {
			return i
		}
	}
	return -1
}

// DayIndex extracts the integer embedded in a day token ("D8" -> 8)
func DayIndex(token string) (int, bool) {
	return extractInt(token)
}

// extractInt drops every non-digit character and parses what is left
func extractInt(s string) (int, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, false
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// DateForDay returns the calendar date of a day token within a cycle.
// D1 is the cycle start itself. The second result is false when the
// date cannot be resolved.
func DateForDay(cycleStart Date, dayToken string) (Date, bool) {
	if cycleStart.IsZero() || strings.TrimSpace(dayToken) == "" {
		return Date{}, false
	}

	dayIndex, ok := DayIndex(dayToken)
	if !ok || dayIndex > MaxDayIndex {
		return Date{}, false
	}

	return cycleStart.AddDays(dayIndex - 1), true
}
