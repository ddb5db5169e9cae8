package calendar

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/database"
)

func TestExport(t *testing.T) {
	start := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	moduleID := uint(5)

	events := []database.ScheduleEvent{
		{
			ID: 1, UserID: 7, Title: "Go - Basics", StartUtc: start, EndUtc: &end,
			CourseModuleID: &moduleID,
			CourseModule:   &database.CourseModule{ID: moduleID, Title: "Basics", Course: &database.Course{Title: "Go"}},
		},
		{ID: 2, UserID: 7, Title: "Holiday", StartUtc: start.AddDate(0, 0, 1), AllDay: true},
	}

	out := Export(events, "LearnIt")
	assert.Contains(t, out, "X-WR-CALNAME:LearnIt")
	assert.Contains(t, out, "DTSTART:20240108T090000Z")
	assert.Contains(t, out, "DTEND:20240108T103000Z")

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	parsed := cal.Events()
	require.Len(t, parsed, 2)

	assert.Equal(t, UID(events[0]), parsed[0].Id())
	assert.Equal(t, "Go - Basics", parsed[0].GetProperty(ics.ComponentPropertySummary).Value)
	desc := parsed[0].GetProperty(ics.ComponentPropertyDescription)
	require.NotNil(t, desc)
	assert.Contains(t, desc.Value, "Basics")

	assert.Equal(t, "Holiday", parsed[1].GetProperty(ics.ComponentPropertySummary).Value)
	assert.Nil(t, parsed[1].GetProperty(ics.ComponentPropertyDescription))
}

func TestExport_OpenEndedEventLastsAnHour(t *testing.T) {
	start := time.Date(2024, 1, 8, 14, 30, 0, 0, time.UTC)
	out := Export([]database.ScheduleEvent{{ID: 3, UserID: 7, Title: "Call", StartUtc: start}}, "")

	assert.Contains(t, out, "DTSTART:20240108T143000Z")
	assert.Contains(t, out, "DTEND:20240108T153000Z")

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)
	end, err := cal.Events()[0].GetEndAt()
	require.NoError(t, err)
	assert.True(t, end.Equal(start.Add(time.Hour)))
}

func TestExport_Empty(t *testing.T) {
	out := Export(nil, "")
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}
