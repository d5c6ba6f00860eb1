// Package ics renders extracted events as an iCalendar document so callers
// can import them into a calendar client directly.
package ics

import (
	"fmt"
	"log/slog"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/timelinehq/timeline/internal/domain"
)

const prodID = "-//timeline//event extraction//EN"

// Encode serializes events into a VCALENDAR document. Events whose
// timestamps do not parse are skipped with a warning, mirroring the
// validator's per-record leniency; relative event order is preserved.
func Encode(events []domain.Event, logger *slog.Logger) string {
	cal := ical.NewCalendar()
	cal.SetProductId(prodID)
	cal.SetMethod(ical.MethodPublish)

	for i, event := range events {
		start, err := parseEventTime(event.StartTime)
		if err != nil {
			logger.Warn("skipping event with unparseable start time",
				slog.Int("index", i), slog.String("start_time", event.StartTime))
			continue
		}
		end, err := parseEventTime(event.EndTime)
		if err != nil {
			logger.Warn("skipping event with unparseable end time",
				slog.Int("index", i), slog.String("end_time", event.EndTime))
			continue
		}

		ve := cal.AddEvent(fmt.Sprintf("%s@timeline", uuid.New().String()))
		ve.SetDtStampTime(time.Now().UTC())
		ve.SetStartAt(start)
		ve.SetEndAt(end)
		ve.SetSummary(event.Title)
		if event.Description != nil && *event.Description != "" {
			ve.SetDescription(*event.Description)
		}
		if event.Tag != nil && *event.Tag != "" {
			ve.SetProperty(ical.ComponentProperty("CATEGORIES"), *event.Tag)
		}
	}

	return cal.Serialize()
}

func parseEventTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
}
