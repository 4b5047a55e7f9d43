package catalog

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	ics "github.com/arran4/golang-ical"

	"semisto-service/internal/models"
)

const (
	calendarProductID = "-//Semisto//Events//FR"
	defaultEventSpan  = 2 * time.Hour
	eventTimezone     = "Europe/Brussels"
)

// EventCalendar renders an event as a single-entry iCalendar document
func EventCalendar(event models.Event, now time.Time) (string, error) {
	loc, err := time.LoadLocation(eventTimezone)
	if err != nil {
		return "", fmt.Errorf("failed to load timezone: %w", err)
	}

	start, err := eventStart(event, loc)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)

	vevent := cal.AddEvent(event.ID + "@semisto.org")
	vevent.SetDtStampTime(now.UTC())
	vevent.SetStartAt(start.UTC())
	vevent.SetEndAt(start.Add(eventSpan(event.Duration)).UTC())
	vevent.SetSummary(event.Title)
	vevent.SetDescription(event.Description)

	parts := make([]string, 0, 2)
	for _, part := range []string{event.Location, event.Address} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 0 {
		vevent.SetLocation(strings.Join(parts, ", "))
	}

	return cal.Serialize(), nil
}

func eventStart(event models.Event, loc *time.Location) (time.Time, error) {
	clock := event.Time
	if clock == "" {
		clock = "09:00"
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", event.Date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid event date %q %q: %w", event.Date, event.Time, err)
	}
	return start, nil
}

// eventSpan reads durations written like "3h", "2h30" or "90min"
func eventSpan(duration string) time.Duration {
	d := strings.ToLower(strings.ReplaceAll(duration, " ", ""))
	d = strings.TrimSuffix(d, "in")
	if strings.Contains(d, "h") && d != "" && d[len(d)-1] >= '0' && d[len(d)-1] <= '9' {
		d += "m"
	}
	if parsed, err := time.ParseDuration(d); err == nil && parsed > 0 {
		return parsed
	}
	return defaultEventSpan
}
