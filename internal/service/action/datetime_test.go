package action

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// reference is a Thursday.
var reference = time.Date(2025, time.March, 6, 9, 0, 0, 0, time.UTC)

func TestParseDateTimeExplicitDateWinsOverRelative(t *testing.T) {
	start, end := ParseDateTime("book a meeting tomorrow or on 25/12/2025", reference)

	assert.Equal(t, time.Date(2025, time.December, 25, 14, 30, 0, 0, time.UTC), start)
	assert.Equal(t, start.Add(60*time.Minute), end)
}

func TestParseDateTimeTomorrowWithAMTime(t *testing.T) {
	start, _ := ParseDateTime("book a meeting with you tomorrow at 10am", reference)

	assert.Equal(t, time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC), start)
}

func TestParseDateTimePMConversion(t *testing.T) {
	start, _ := ParseDateTime("schedule a call tomorrow at 3:15pm", reference)

	assert.Equal(t, 15, start.Hour())
	assert.Equal(t, 15, start.Minute())
}

func TestParseDateTimeTwelveAM(t *testing.T) {
	start, _ := ParseDateTime("tomorrow at 12am", reference)
	assert.Equal(t, 0, start.Hour())
}

func TestParseDateTimeTwentyFourHourClock(t *testing.T) {
	start, _ := ParseDateTime("meet on monday 16:45", reference)

	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, 16, start.Hour())
	assert.Equal(t, 45, start.Minute())
}

func TestParseDateTimeWeekdayIsAlwaysAhead(t *testing.T) {
	// Asking for Thursday on a Thursday lands on next week's Thursday.
	start, _ := ParseDateTime("book a meeting on thursday", reference)

	assert.Equal(t, time.Thursday, start.Weekday())
	assert.True(t, start.After(reference))
	assert.Equal(t, 13, start.Day())
}

func TestParseDateTimeNextWeek(t *testing.T) {
	start, _ := ParseDateTime("sometime next week works", reference)
	assert.Equal(t, 13, start.Day())
}

func TestParseDateTimeDefaults(t *testing.T) {
	// Nothing recognizable: next Monday at 2:30 PM.
	start, end := ParseDateTime("let's meet whenever suits", reference)

	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, 14, start.Hour())
	assert.Equal(t, 30, start.Minute())
	assert.Equal(t, 60*time.Minute, end.Sub(start))
}

func TestContainsDateTimeSignal(t *testing.T) {
	assert.True(t, ContainsDateTimeSignal("tomorrow at 10am"))
	assert.True(t, ContainsDateTimeSignal("on friday"))
	assert.True(t, ContainsDateTimeSignal("25/12/2025"))
	assert.False(t, ContainsDateTimeSignal("yes, book it"))
	assert.False(t, ContainsDateTimeSignal("confirm the meeting"))
}
