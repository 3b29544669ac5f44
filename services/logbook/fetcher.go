package logbook

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"rostat-backend/lib/scrapers/rowlog"
	"rostat-backend/lib/textutil"
	"rostat-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const dayKeyFormat = "2006-01-02"

// MalformedPageError is raised when an upstream trips page fails shape
// validation. a malformed page is never cached.
type MalformedPageError struct {
	Date   string
	Reason string
}

func (e MalformedPageError) Error() string {
	return fmt.Sprintf("malformed trips page for %s: %s", e.Date, e.Reason)
}

// tripPageProducer is the durable cache producer, keyed by ISO date. it
// fetches the 24h window ending at the key date and validates the response
// shape before it can reach the cache.
func (s *Service) tripPageProducer(ctx context.Context, key string) (string, error) {
	day, err := time.ParseInLocation(dayKeyFormat, key, timezone.Location)
	if err != nil {
		return "", fmt.Errorf("bad trip page key %q: %w", key, err)
	}
	prev := day.AddDate(0, 0, -1)

	body, err := s.client.RawTrips(ctx, prev.Format(dayKeyFormat), day.Format(dayKeyFormat))
	if err != nil {
		return "", err
	}

	var page []struct {
		CreatedDateTime string `json:"createdDateTime"`
	}
	err = json.Unmarshal([]byte(body), &page)
	if err != nil {
		return "", MalformedPageError{Date: key, Reason: "response is not an array of trips"}
	}
	if len(page) > 0 && page[0].CreatedDateTime == "" {
		return "", MalformedPageError{Date: key, Reason: "first record carries no createdDateTime"}
	}
	return body, nil
}

// fetchRange fetches the raw trip pages for every calendar date in
// [from, to], one concurrent task per date, and merges them into domain
// trips. dates inside the trailing freshness window relative to the most
// recent cached date are refetched, recent days can still be edited
// upstream. any single day failing aborts the whole range, a partially
// populated ledger must never be cached.
func (s *Service) fetchRange(ctx context.Context, from, to time.Time, dir *MemberDirectory) ([]Trip, error) {
	ctx, span := tracer.Start(ctx, "fetchRange")
	defer span.End()
	span.SetAttributes(
		attribute.String("from", from.Format(dayKeyFormat)),
		attribute.String("to", to.Format(dayKeyFormat)),
	)

	keys, err := s.durable.Keys()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list cache keys")
		return nil, err
	}
	var latest time.Time
	for _, k := range keys {
		d, err := time.ParseInLocation(dayKeyFormat, k, timezone.Location)
		if err != nil {
			continue
		}
		if d.After(latest) {
			latest = d
		}
	}
	freshFloor := latest.AddDate(0, 0, -s.cfg.FreshnessWindowDays)

	var days []time.Time
	for d := timezone.StartOfDay(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}

	pages := make([][]rowlog.RawTrip, len(days))
	g, gctx := errgroup.WithContext(ctx)
	for i, day := range days {
		i, day := i, day
		g.Go(func() error {
			key := day.Format(dayKeyFormat)

			var body string
			var err error
			if !latest.IsZero() && day.After(freshFloor) {
				body, err = s.durable.GetFresh(gctx, key)
			} else {
				body, err = s.durable.Get(gctx, key)
			}
			if err != nil {
				return fmt.Errorf("fetching trips for %s: %w", key, err)
			}

			var raw []rowlog.RawTrip
			err = json.Unmarshal([]byte(body), &raw)
			if err != nil {
				return MalformedPageError{Date: key, Reason: err.Error()}
			}
			// upstream serves newest first within a page
			slices.Reverse(raw)
			pages[i] = raw
			return nil
		})
	}
	err = g.Wait()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "range fetch aborted")
		return nil, err
	}

	// adjacent 24h windows overlap, dedupe across days by natural key and
	// keep the first occurrence
	seen := map[string]bool{}
	var merged []rowlog.RawTrip
	for _, page := range pages {
		for _, t := range page {
			key := strconv.Itoa(t.ID) + "|" + t.Description + "|" + strconv.FormatFloat(t.Distance, 'f', -1, 64)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, t)
		}
	}

	var out []Trip
	for _, raw := range merged {
		if !raw.Completed || raw.ExcludeFromStats {
			continue
		}
		out = append(out, mapRawTrip(raw, dir))
	}
	return out, nil
}

func mapRawTrip(raw rowlog.RawTrip, dir *MemberDirectory) Trip {
	start := parseUpstreamTime(raw.StartDateTime)
	end := parseUpstreamTime(raw.EndDateTime)
	if end.Before(start) {
		end = start
	}

	longTrip := false
	participants := make([]Participant, 0, len(raw.Participants))
	for _, rp := range raw.Participants {
		name := textutil.NormalizeName(rp.RowerName)
		id := GuestID
		if member, ok := dir.GetMemberByName(name); ok {
			id = member.ID
		}
		if rp.LongRow {
			longTrip = true
		}
		participants = append(participants, Participant{
			MemberID: id,
			Name:     name,
			Coxswain: rp.Coxswain,
			LongRow:  rp.LongRow,
		})
	}

	return Trip{
		ID:           raw.ID,
		Description:  raw.Description,
		Distance:     raw.Distance,
		Start:        start,
		End:          end,
		Created:      parseUpstreamTime(raw.CreatedDateTime),
		Updated:      parseUpstreamTime(raw.UpdatedDateTime),
		BoatID:       raw.BoatID,
		BoatName:     raw.BoatName,
		RouteID:      raw.RouteID,
		LongTrip:     longTrip,
		Participants: participants,
	}
}

// upstream timestamps come zoneless ("2023-07-31T17:30:00") and mean
// club-local time
func parseUpstreamTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", raw, timezone.Location)
	if err == nil {
		return t
	}
	t, err = time.Parse(time.RFC3339, raw)
	if err == nil {
		return t.In(timezone.Location)
	}
	return time.Time{}
}
