package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Event struct {
	ID           int64
	Name         string
	Description  string
	Creator      string
	Route        string
	StartTime    int64
	EndTime      int64
	LastResponse int64
	Distance     float64
	Current      int64
	SeenAt       int64
}

type EventParticipant struct {
	EventID    int64
	MemberName string
	Comment    string
	SignedUp   int64
	Cancelled  int64
}

const upsertEvent = `
INSERT INTO event (id, name, description, creator, route, start_time, end_time, last_response, distance, current, seen_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    creator = excluded.creator,
    route = excluded.route,
    start_time = excluded.start_time,
    end_time = excluded.end_time,
    last_response = excluded.last_response,
    distance = excluded.distance,
    current = excluded.current,
    seen_at = excluded.seen_at
`

type UpsertEventParams struct {
	ID           int64
	Name         string
	Description  string
	Creator      string
	Route        string
	StartTime    int64
	EndTime      int64
	LastResponse int64
	Distance     float64
	Current      int64
	SeenAt       int64
}

func (q *Queries) UpsertEvent(ctx context.Context, arg UpsertEventParams) error {
	_, err := q.db.ExecContext(ctx, upsertEvent,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Creator,
		arg.Route,
		arg.StartTime,
		arg.EndTime,
		arg.LastResponse,
		arg.Distance,
		arg.Current,
		arg.SeenAt,
	)
	return err
}

const getEvents = `
SELECT id, name, description, creator, route, start_time, end_time, last_response, distance, current, seen_at
FROM event
ORDER BY start_time
`

func (q *Queries) GetEvents(ctx context.Context) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, getEvents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Event
	for rows.Next() {
		var i Event
		err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Description,
			&i.Creator,
			&i.Route,
			&i.StartTime,
			&i.EndTime,
			&i.LastResponse,
			&i.Distance,
			&i.Current,
			&i.SeenAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const markStaleEventsNotCurrent = `
UPDATE event SET current = 0 WHERE seen_at < ?
`

// MarkStaleEventsNotCurrent demotes events last seen before the given
// sync timestamp, i.e. events that have left the live portal list.
func (q *Queries) MarkStaleEventsNotCurrent(ctx context.Context, seenAt int64) error {
	_, err := q.db.ExecContext(ctx, markStaleEventsNotCurrent, seenAt)
	return err
}

const getEventParticipants = `
SELECT event_id, member_name, comment, signed_up, cancelled
FROM event_participant
WHERE event_id = ?
ORDER BY signed_up, member_name
`

func (q *Queries) GetEventParticipants(ctx context.Context, eventID int64) ([]EventParticipant, error) {
	rows, err := q.db.QueryContext(ctx, getEventParticipants, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EventParticipant
	for rows.Next() {
		var i EventParticipant
		err := rows.Scan(&i.EventID, &i.MemberName, &i.Comment, &i.SignedUp, &i.Cancelled)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getParticipantNames = `
SELECT member_name FROM event_participant
WHERE event_id = ? AND cancelled = 0
`

func (q *Queries) GetParticipantNames(ctx context.Context, eventID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getParticipantNames, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		err := rows.Scan(&name)
		if err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	return items, rows.Err()
}

const upsertParticipant = `
INSERT INTO event_participant (event_id, member_name, comment, signed_up, cancelled)
VALUES (?, ?, ?, ?, 0)
ON CONFLICT (event_id, member_name) DO UPDATE SET
    comment = excluded.comment,
    signed_up = excluded.signed_up,
    cancelled = 0
`

type UpsertParticipantParams struct {
	EventID    int64
	MemberName string
	Comment    string
	SignedUp   int64
}

func (q *Queries) UpsertParticipant(ctx context.Context, arg UpsertParticipantParams) error {
	_, err := q.db.ExecContext(ctx, upsertParticipant,
		arg.EventID,
		arg.MemberName,
		arg.Comment,
		arg.SignedUp,
	)
	return err
}

const markParticipantCancelled = `
UPDATE event_participant SET cancelled = 1
WHERE event_id = ? AND member_name = ?
`

type MarkParticipantCancelledParams struct {
	EventID    int64
	MemberName string
}

func (q *Queries) MarkParticipantCancelled(ctx context.Context, arg MarkParticipantCancelledParams) error {
	_, err := q.db.ExecContext(ctx, markParticipantCancelled, arg.EventID, arg.MemberName)
	return err
}
