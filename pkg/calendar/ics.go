// Package calendar renders schedule events as iCalendar feeds.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/database"
)

const (
	productID = "-//LearnIt//Study Scheduler//EN"

	// events stored without an end block one hour, as in the scheduler
	defaultLength = time.Hour
)

// UID returns the stable identifier of an exported event
func UID(e database.ScheduleEvent) string {
	return fmt.Sprintf("event-%d-%d@learnit", e.UserID, e.ID)
}

// Export serializes events into a VCALENDAR named name
func Export(events []database.ScheduleEvent, name string) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, e := range events {
		ve := cal.AddEvent(UID(e))
		stamp := e.UpdatedAt
		if stamp.IsZero() {
			stamp = time.Now()
		}
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(e.Title)

		if e.AllDay {
			ve.SetAllDayStartAt(e.StartUtc.UTC())
			ve.SetAllDayEndAt(e.StartUtc.UTC().AddDate(0, 0, 1))
		} else {
			end := e.StartUtc.Add(defaultLength)
			if e.EndUtc != nil {
				end = *e.EndUtc
			}
			ve.SetStartAt(e.StartUtc.UTC())
			ve.SetEndAt(end.UTC())
		}

		if desc := describe(e); desc != "" {
			ve.SetDescription(desc)
		}
	}
	return cal.Serialize()
}

func describe(e database.ScheduleEvent) string {
	m := e.CourseModule
	if m == nil {
		return ""
	}
	var b strings.Builder
	if m.Course != nil {
		fmt.Fprintf(&b, "Course: %s\n", m.Course.Title)
	}
	fmt.Fprintf(&b, "Module: %s", m.Title)
	return b.String()
}
