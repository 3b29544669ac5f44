package events

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"rostat-backend/lib/scrapers/rokort"
	"rostat-backend/lib/timezone"
	"rostat-backend/services/events/db"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("services/events")

// Client fetches the current event list from the club calendar portal.
type Client interface {
	Events(ctx context.Context) ([]rokort.Event, error)
}

type Service struct {
	db     *sql.DB
	qry    *db.Queries
	client Client
}

func NewService(database *sql.DB, client Client) Service {
	return Service{
		db:     database,
		qry:    db.New(database),
		client: client,
	}
}

// Sync snapshots the portal's current event list into the store. events are
// upserted by id, and stored events missing from the snapshot are marked no
// longer current. a participant present in an earlier snapshot but missing
// from the current one cancelled their signup, the portal drops cancelled
// rows so the store is the only place that remembers them.
func (s Service) Sync(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Sync")
	defer span.End()

	events, err := s.client.Events(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch events")
		return err
	}
	span.SetAttributes(attribute.Int("events", len(events)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	// nanoseconds so that back-to-back syncs get distinct stamps
	seenAt := timezone.Now().UnixNano()
	for _, event := range events {
		err := txqry.UpsertEvent(ctx, db.UpsertEventParams{
			ID:           int64(event.EventID),
			Name:         event.Name,
			Description:  event.Description,
			Creator:      event.Creator,
			Route:        event.Route,
			StartTime:    event.Start.Unix(),
			EndTime:      event.End.Unix(),
			LastResponse: event.LastResp.Unix(),
			Distance:     event.Distance,
			Current:      boolToInt(event.Current),
			SeenAt:       seenAt,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		previous, err := txqry.GetParticipantNames(ctx, int64(event.EventID))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		current := map[string]bool{}
		for _, p := range event.Participants {
			current[p.MemberName] = true
			err := txqry.UpsertParticipant(ctx, db.UpsertParticipantParams{
				EventID:    int64(event.EventID),
				MemberName: p.MemberName,
				Comment:    p.Comment,
				SignedUp:   p.SignedUp.Unix(),
			})
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
		}

		for _, name := range previous {
			if current[name] {
				continue
			}
			err := txqry.MarkParticipantCancelled(ctx, db.MarkParticipantCancelledParams{
				EventID:    int64(event.EventID),
				MemberName: name,
			})
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
		}
	}

	// events that did not show up in this snapshot have left the portal's
	// live list, so they are no longer current
	err = txqry.MarkStaleEventsNotCurrent(ctx, seenAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Events returns every stored event with its full participant history,
// cancelled signups included.
func (s Service) Events(ctx context.Context) ([]rokort.Event, error) {
	ctx, span := tracer.Start(ctx, "Events")
	defer span.End()

	rows, err := s.qry.GetEvents(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var events []rokort.Event
	for _, r := range rows {
		participants, err := s.qry.GetEventParticipants(ctx, r.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		event := rokort.Event{
			EventID:     int(r.ID),
			Name:        r.Name,
			Description: r.Description,
			Creator:     r.Creator,
			Route:       r.Route,
			Start:       time.Unix(r.StartTime, 0).In(timezone.Location),
			End:         time.Unix(r.EndTime, 0).In(timezone.Location),
			LastResp:    time.Unix(r.LastResponse, 0).In(timezone.Location),
			Distance:    r.Distance,
			Current:     r.Current != 0,
		}
		for _, p := range participants {
			event.Participants = append(event.Participants, rokort.Participant{
				MemberName: p.MemberName,
				Comment:    p.Comment,
				SignedUp:   time.Unix(p.SignedUp, 0).In(timezone.Location),
				Cancelled:  p.Cancelled != 0,
			})
		}
		events = append(events, event)
	}
	return events, nil
}

// StartSyncDaemon syncs on the given cron schedule (e.g. "@hourly") until
// ctx is cancelled. the first sync runs immediately.
func (s Service) StartSyncDaemon(ctx context.Context, schedule string) error {
	sync := func() {
		err := s.Sync(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "event sync failed", "err", err)
		}
	}
	sync()

	c := cron.New()
	_, err := c.AddFunc(schedule, sync)
	if err != nil {
		return err
	}
	c.Start()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
