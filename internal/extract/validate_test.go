package extract

import (
	"log/slog"
	"testing"

	"github.com/timelinehq/timeline/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func record(fields map[string]any) domain.RawEventRecord {
	rec := domain.RawEventRecord{
		"title":      "买菜",
		"start_time": "2024-01-15T14:00:00+08:00",
		"end_time":   "2024-01-15T15:00:00+08:00",
	}
	for k, v := range fields {
		if v == nil {
			delete(rec, k)
			continue
		}
		rec[k] = v
	}
	return rec
}

func TestBuildEvent_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  map[string]any
		wantErr bool
	}{
		{"complete record", nil, false},
		{"missing title", map[string]any{"title": nil}, true},
		{"empty title", map[string]any{"title": ""}, true},
		{"missing start_time", map[string]any{"start_time": nil}, true},
		{"missing end_time", map[string]any{"end_time": nil}, true},
		{"numeric title", map[string]any{"title": 42.0}, true},
		{"numeric description", map[string]any{"description": 1.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildEvent(record(tt.mutate), domain.TagContext{})
			if (err != nil) != tt.wantErr {
				t.Errorf("buildEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildEvent_TagWhitelist(t *testing.T) {
	workLife := domain.TagContext{AllowedTags: []string{"work", "life"}}

	tests := []struct {
		name    string
		tags    domain.TagContext
		tag     any
		wantTag *string
	}{
		{"member kept", workLife, "work", strPtr("work")},
		{"hallucinated tag nulled", workLife, "travel", nil},
		{"absent tag stays null", workLife, nil, nil},
		{"non-string tag nulled", workLife, 7.0, nil},
		{"no tag system forces null", domain.TagContext{}, "work", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record(nil)
			if tt.tag != nil {
				rec["tag"] = tt.tag
			}
			event, err := buildEvent(rec, tt.tags)
			if err != nil {
				t.Fatalf("buildEvent() error = %v", err)
			}
			switch {
			case tt.wantTag == nil && event.Tag != nil:
				t.Errorf("Tag = %q, want nil", *event.Tag)
			case tt.wantTag != nil && (event.Tag == nil || *event.Tag != *tt.wantTag):
				t.Errorf("Tag = %v, want %q", event.Tag, *tt.wantTag)
			}
		})
	}
}

func TestMapRecords_SkipsMalformedPreservingOrder(t *testing.T) {
	records := []domain.RawEventRecord{
		record(map[string]any{"title": "买菜"}),
		record(map[string]any{"title": nil}), // malformed, dropped
		record(map[string]any{"title": "理发"}),
	}

	events := mapRecords(records, domain.TagContext{}, discardLogger())
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Title != "买菜" || events[1].Title != "理发" {
		t.Errorf("events = %v, want 买菜 then 理发", events)
	}
}

func TestMapRecords_AllMalformedYieldsEmpty(t *testing.T) {
	records := []domain.RawEventRecord{nil, {"title": ""}}
	events := mapRecords(records, domain.TagContext{}, discardLogger())
	if len(events) != 0 {
		t.Errorf("len(events) = %d, want 0", len(events))
	}
}

func strPtr(s string) *string {
	return &s
}
