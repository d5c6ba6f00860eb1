package timectx

import (
	"strings"
	"testing"

	"github.com/timelinehq/timeline/internal/domain"
)

func TestResolve_NamedZone(t *testing.T) {
	ctx, err := Resolve("2024-01-15T10:00:00+08:00", "Asia/Shanghai")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if ctx.DisplayTime != "2024-01-15 10:00:00" {
		t.Errorf("DisplayTime = %q, want %q", ctx.DisplayTime, "2024-01-15 10:00:00")
	}
	if ctx.DisplayDate != "2024-01-15" {
		t.Errorf("DisplayDate = %q, want %q", ctx.DisplayDate, "2024-01-15")
	}
	if ctx.TimezoneLabel != "Asia/Shanghai" {
		t.Errorf("TimezoneLabel = %q, want Asia/Shanghai", ctx.TimezoneLabel)
	}
	if !strings.HasSuffix(ctx.ReferenceISO, "+08:00") {
		t.Errorf("ReferenceISO = %q, want +08:00 offset", ctx.ReferenceISO)
	}
	if ctx.LookbackISO != "2024-01-15T09:30:00+08:00" {
		t.Errorf("LookbackISO = %q, want 2024-01-15T09:30:00+08:00", ctx.LookbackISO)
	}
}

func TestResolve_DateObservedInTargetZone(t *testing.T) {
	// 23:30 UTC on the 14th is already the 15th in Shanghai.
	ctx, err := Resolve("2024-01-14T23:30:00Z", "Asia/Shanghai")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ctx.DisplayDate != "2024-01-15" {
		t.Errorf("DisplayDate = %q, want 2024-01-15", ctx.DisplayDate)
	}
	if ctx.DisplayTime != "2024-01-15 07:30:00" {
		t.Errorf("DisplayTime = %q, want 2024-01-15 07:30:00", ctx.DisplayTime)
	}
}

func TestResolve_DerivedZoneLabel(t *testing.T) {
	tests := []struct {
		name      string
		timestamp string
		wantLabel string
	}{
		{"zero offset maps to UTC", "2024-01-15T10:00:00Z", "UTC"},
		{"explicit +00:00 maps to UTC", "2024-01-15T10:00:00+00:00", "UTC"},
		{"naive treated as UTC", "2024-01-15T10:00:00", "UTC"},
		{"positive offset kept", "2024-01-15T10:00:00+08:00", "+08:00"},
		{"negative offset kept", "2024-01-15T10:00:00-05:30", "-05:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := Resolve(tt.timestamp, "")
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if ctx.TimezoneLabel != tt.wantLabel {
				t.Errorf("TimezoneLabel = %q, want %q", ctx.TimezoneLabel, tt.wantLabel)
			}
		})
	}
}

func TestResolve_FixedOffsetZone(t *testing.T) {
	ctx, err := Resolve("2024-01-15T02:00:00Z", "+08:00")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ctx.DisplayTime != "2024-01-15 10:00:00" {
		t.Errorf("DisplayTime = %q, want 2024-01-15 10:00:00", ctx.DisplayTime)
	}
}

func TestResolve_InvalidTimestamp(t *testing.T) {
	_, err := Resolve("not a timestamp", "UTC")
	if err == nil {
		t.Fatal("Resolve() error = nil, want invalid timestamp")
	}
	if kind := domain.KindOf(err); kind != domain.ErrorKindInvalidTimestamp {
		t.Errorf("KindOf(err) = %q, want %q", kind, domain.ErrorKindInvalidTimestamp)
	}
}

func TestResolve_InvalidTimezone(t *testing.T) {
	tests := []string{"Mars/Olympus", "8:00", "+25:00", "+08:99", "+08:00:00"}
	for _, tz := range tests {
		t.Run(tz, func(t *testing.T) {
			_, err := Resolve("2024-01-15T10:00:00Z", tz)
			if err == nil {
				t.Fatal("Resolve() error = nil, want invalid timezone")
			}
			if kind := domain.KindOf(err); kind != domain.ErrorKindInvalidTimezone {
				t.Errorf("KindOf(err) = %q, want %q", kind, domain.ErrorKindInvalidTimezone)
			}
		})
	}
}
