package action

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const meetingDuration = 60 * time.Minute

var (
	explicitDatePattern = regexp.MustCompile(`(\d{1,2})[\/\-.](\d{1,2})[\/\-.](\d{4})`)
	amPmPattern         = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
	clockPattern        = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseDateTime extracts a meeting start/end from free text. Explicit
// D/M/YYYY dates win over relative terms; explicit times win over the
// 2:30 PM default; unrecognized input lands on next Monday 2:30 PM.
// Duration is fixed at 60 minutes.
func ParseDateTime(text string, now time.Time) (time.Time, time.Time) {
	lower := strings.ToLower(text)

	day := parseDay(lower, now)
	hour, minute := parseClock(lower)

	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
	return start, start.Add(meetingDuration)
}

func parseDay(lower string, now time.Time) time.Time {
	if m := explicitDatePattern.FindStringSubmatch(lower); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		}
	}

	if strings.Contains(lower, "tomorrow") {
		return now.Add(24 * time.Hour)
	}
	if strings.Contains(lower, "next week") {
		return now.Add(7 * 24 * time.Hour)
	}

	for name, weekday := range weekdays {
		if strings.Contains(lower, name) {
			return nextWeekday(now, weekday)
		}
	}

	return nextWeekday(now, time.Monday)
}

// nextWeekday returns the next occurrence of the target weekday, always at
// least one day ahead.
func nextWeekday(now time.Time, target time.Weekday) time.Time {
	delta := (int(target) - int(now.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return now.AddDate(0, 0, delta)
}

func parseClock(lower string) (hour, minute int) {
	hour, minute = 14, 30

	if m := amPmPattern.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		min := 0
		if m[2] != "" {
			min, _ = strconv.Atoi(m[2])
		}
		if strings.EqualFold(m[3], "pm") && h < 12 {
			h += 12
		}
		if strings.EqualFold(m[3], "am") && h == 12 {
			h = 0
		}
		if h >= 0 && h <= 23 && min >= 0 && min <= 59 {
			return h, min
		}
	}

	if m := clockPattern.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		if h >= 0 && h <= 23 && min >= 0 && min <= 59 {
			return h, min
		}
	}

	return hour, minute
}

// ContainsDateTimeSignal reports whether the text carries anything the
// parser would treat as an explicit date or time.
func ContainsDateTimeSignal(text string) bool {
	lower := strings.ToLower(text)
	if explicitDatePattern.MatchString(lower) || amPmPattern.MatchString(lower) || clockPattern.MatchString(lower) {
		return true
	}
	if strings.Contains(lower, "tomorrow") || strings.Contains(lower, "next week") {
		return true
	}
	for name := range weekdays {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}
