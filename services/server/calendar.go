package server

import (
	"fmt"
	"strings"
	"time"

	"rostat-backend/lib/scrapers/rokort"
)

const icalTimeFormat = "20060102T150405Z"

var icalEscaper = strings.NewReplacer(
	"\\", "\\\\",
	";", "\\;",
	",", "\\,",
	"\n", "\\n",
	"\r", "",
)

// formatCalendar renders stored events as a minimal iCalendar feed. only
// the fields calendar clients need for display are emitted.
func formatCalendar(events []rokort.Event) []byte {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:-//rostat//events//DA")
	for _, event := range events {
		line("BEGIN:VEVENT")
		line(fmt.Sprintf("UID:event-%d@rostat", event.EventID))
		line("DTSTART:" + event.Start.UTC().Format(icalTimeFormat))
		end := event.End
		if end.Before(event.Start) {
			end = event.Start
		}
		line("DTEND:" + end.UTC().Format(icalTimeFormat))
		line("SUMMARY:" + icalEscaper.Replace(event.Name))
		if event.Description != "" {
			line("DESCRIPTION:" + icalEscaper.Replace(event.Description))
		}
		if event.Route != "" {
			line("LOCATION:" + icalEscaper.Replace(event.Route))
		}
		line("DTSTAMP:" + time.Now().UTC().Format(icalTimeFormat))
		line("END:VEVENT")
	}
	line("END:VCALENDAR")
	return []byte(b.String())
}
