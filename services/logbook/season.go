package logbook

import (
	"fmt"
	"time"

	"rostat-backend/lib/timezone"
)

// InvalidSeasonError names the season that failed validation against the
// configured allow-list.
type InvalidSeasonError struct {
	Season int
}

func (e InvalidSeasonError) Error() string {
	return fmt.Sprintf("invalid season: %d", e.Season)
}

// seasonStart is the first instant of season y, Nov 1 of the previous
// calendar year in club-local time. a trip starting exactly here belongs to
// season y.
func seasonStart(y int) time.Time {
	return time.Date(y-1, time.November, 1, 0, 0, 0, 0, timezone.Location)
}

// seasonEnd is the first instant after season y.
func seasonEnd(y int) time.Time {
	return time.Date(y, time.November, 1, 0, 0, 0, 0, timezone.Location)
}

// inSeason applies the two boundary filters independently.
func inSeason(t Trip, season int) bool {
	if t.Start.Before(seasonStart(season)) {
		return false
	}
	if !t.Start.Before(seasonEnd(season)) {
		return false
	}
	return true
}

// fetchWindow bounds the network fetch for a season, Oct 31 of the previous
// year through yesterday or Oct 31 of the season year, whichever is
// earlier.
func fetchWindow(season int, now time.Time) (time.Time, time.Time) {
	from := time.Date(season-1, time.October, 31, 0, 0, 0, 0, timezone.Location)
	to := time.Date(season, time.October, 31, 0, 0, 0, 0, timezone.Location)
	yesterday := timezone.StartOfDay(now).AddDate(0, 0, -1)
	if yesterday.Before(to) {
		to = yesterday
	}
	return from, to
}

func (s *Service) validSeason(season int) bool {
	for _, y := range s.cfg.Seasons {
		if y == season {
			return true
		}
	}
	return false
}
