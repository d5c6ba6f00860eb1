// Package timectx resolves a caller-supplied reference time and timezone
// into the derived, human-readable strings used inside the prompt.
package timectx

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/timelinehq/timeline/internal/domain"
)

const lookbackWindow = 30 * time.Minute

// Context is the resolved time context for one extraction request. It is
// created once per request and never mutated.
type Context struct {
	// Reference is the caller's instant converted into the target timezone.
	Reference time.Time

	// TimezoneLabel is the zone name or fixed offset string the prompt
	// refers to, e.g. "Asia/Shanghai", "+08:00" or "UTC".
	TimezoneLabel string

	// DisplayTime is Reference as "YYYY-MM-DD HH:MM:SS" (24h).
	DisplayTime string

	// DisplayDate is Reference's calendar date as "YYYY-MM-DD".
	DisplayDate string

	// ReferenceISO is Reference in ISO 8601.
	ReferenceISO string

	// LookbackISO is Reference minus the lookback window, ISO 8601.
	LookbackISO string
}

// Resolve parses currentTime (ISO 8601, naive treated as UTC) and tz (IANA
// name, fixed ±HH:MM offset, or "UTC"; empty derives the zone from the
// timestamp's own offset) and produces the derived context.
func Resolve(currentTime, tz string) (*Context, error) {
	instant, hadOffset, err := parseISO(currentTime)
	if err != nil {
		return nil, domain.WrapPipelineError(domain.ErrorKindInvalidTimestamp, domain.PhaseTimeResolution,
			fmt.Sprintf("cannot parse timestamp %q", currentTime), err)
	}

	if tz == "" {
		tz = offsetLabel(instant, hadOffset)
	}

	loc, err := parseTimezone(tz)
	if err != nil {
		return nil, err
	}

	ref := instant.In(loc)
	return &Context{
		Reference:     ref,
		TimezoneLabel: tz,
		DisplayTime:   ref.Format("2006-01-02 15:04:05"),
		DisplayDate:   ref.Format("2006-01-02"),
		ReferenceISO:  ref.Format(time.RFC3339),
		LookbackISO:   ref.Add(-lookbackWindow).Format(time.RFC3339),
	}, nil
}

// parseISO parses an ISO 8601 timestamp. A timestamp with no offset is
// interpreted as UTC; hadOffset distinguishes the two cases so the caller
// can tell an explicit +00:00 from a naive timestamp.
func parseISO(s string) (t time.Time, hadOffset bool, err error) {
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t, true, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err = time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, err
}

// offsetLabel derives a timezone label from the timestamp's own offset.
// Zero offset (explicit or naive-UTC) maps to "UTC" rather than "+00:00".
func offsetLabel(t time.Time, hadOffset bool) string {
	if !hadOffset {
		return "UTC"
	}
	_, secs := t.Zone()
	if secs == 0 {
		return "UTC"
	}
	sign := "+"
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%02d:%02d", sign, secs/3600, (secs%3600)/60)
}

// parseTimezone resolves tz as a named zone first, then as a signed HH:MM
// fixed offset. Anything else is an invalid-timezone error.
func parseTimezone(tz string) (*time.Location, error) {
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}

	if strings.HasPrefix(tz, "+") || strings.HasPrefix(tz, "-") {
		if loc, ok := parseFixedOffset(tz); ok {
			return loc, nil
		}
	}

	return nil, domain.NewPipelineError(domain.ErrorKindInvalidTimezone, domain.PhaseTimeResolution,
		fmt.Sprintf("unrecognized timezone %q", tz))
}

func parseFixedOffset(tz string) (*time.Location, bool) {
	sign := 1
	if tz[0] == '-' {
		sign = -1
	}

	parts := strings.Split(tz[1:], ":")
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours > 23 {
		return nil, false
	}
	minutes := 0
	if len(parts) > 1 {
		if minutes, err = strconv.Atoi(parts[1]); err != nil || minutes > 59 {
			return nil, false
		}
	}
	if len(parts) > 2 {
		return nil, false
	}

	return time.FixedZone(tz, sign*(hours*3600+minutes*60)), true
}
