package extract

import (
	"errors"
	"log/slog"

	"github.com/timelinehq/timeline/internal/domain"
)

var (
	errNotObject    = errors.New("record is not an object")
	errMissingField = errors.New("missing or mistyped required field")
)

// mapRecords converts raw records into Events, preserving order. A record
// that fails construction is logged and dropped; it never aborts the batch.
func mapRecords(records []domain.RawEventRecord, tags domain.TagContext, logger *slog.Logger) []domain.Event {
	events := make([]domain.Event, 0, len(records))
	for i, rec := range records {
		event, err := buildEvent(rec, tags)
		if err != nil {
			logger.Warn("skipping invalid event record",
				slog.Int("index", i),
				slog.String("reason", err.Error()))
			continue
		}
		events = append(events, event)
	}
	return events
}

// buildEvent constructs an Event from one raw record. Title, start_time and
// end_time are required strings; description is optional. The tag is kept
// only when it is a whitelist member, otherwise forced to null; an
// out-of-whitelist tag alone never rejects the record.
func buildEvent(rec domain.RawEventRecord, tags domain.TagContext) (domain.Event, error) {
	if rec == nil {
		return domain.Event{}, errNotObject
	}

	title, ok := rec["title"].(string)
	if !ok || title == "" {
		return domain.Event{}, errMissingField
	}
	startTime, ok := rec["start_time"].(string)
	if !ok || startTime == "" {
		return domain.Event{}, errMissingField
	}
	endTime, ok := rec["end_time"].(string)
	if !ok || endTime == "" {
		return domain.Event{}, errMissingField
	}

	event := domain.Event{
		Title:     title,
		StartTime: startTime,
		EndTime:   endTime,
	}

	if raw, present := rec["description"]; present && raw != nil {
		description, ok := raw.(string)
		if !ok {
			return domain.Event{}, errMissingField
		}
		event.Description = &description
	}

	if tag, ok := rec["tag"].(string); ok && tags.Enabled() && tags.Allows(tag) {
		event.Tag = &tag
	}

	return event, nil
}
