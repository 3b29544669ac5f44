package rokort

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"rostat-backend/lib/htmlutil"
	"rostat-backend/lib/telemetry"
	"rostat-backend/lib/textutil"
	"rostat-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("scrapers/rokort")

var ErrLoginFailed = fmt.Errorf("wrong username or password")

const wrongCredentialsMarker = "Forkert brugernavn eller kodeord"

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	BaseUrl  string
	Username string
	Password string
	SiteID   string
}

// NewClient logs in to the legacy site and returns a session-bound client.
func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	ctx, span := tracer.Start(ctx, "client:NewClient")
	defer span.End()

	http := resty.New()
	http.SetBaseURL(opts.BaseUrl)
	http.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(http, "scrapers/rokort/http")

	// a fresh PHPSESSID comes back on the first hit of the front page.
	// the client's cookie jar replays it on every later request, so the
	// cookie is only checked here to fail fast on an unexpected page.
	res, err := http.R().
		SetContext(ctx).
		Get("/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch front page")
		return nil, err
	}

	session := ""
	for _, cookie := range res.Cookies() {
		if cookie.Name == "PHPSESSID" {
			session = cookie.Value
		}
	}
	if session == "" {
		span.SetStatus(codes.Error, "no session cookie")
		return nil, fmt.Errorf("no PHPSESSID cookie in response")
	}

	res, err = http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"user_name":  opts.Username,
			"password":   opts.Password,
			"action":     "login",
			"siteid":     opts.SiteID,
			"save_login": "1",
			"page":       "",
		}).
		Post("/index.php")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return nil, err
	}
	if strings.Contains(res.String(), wrongCredentialsMarker) {
		span.SetStatus(codes.Error, "wrong credentials")
		return nil, ErrLoginFailed
	}

	return &Client{http: http}, nil
}

// Events scrapes the upcoming events and their signup lists.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	ctx, span := tracer.Start(ctx, "client:Events")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get("/workshop/workshop2.php")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch event list")
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse event list html")
		return nil, err
	}

	var ids []int
	doc.Find("#events_scroll tr").Each(func(_ int, row *goquery.Selection) {
		// "showWin('event.php?id=1017');" -> 1017
		onclick := row.AttrOr("onclick", "")
		idx := strings.Index(onclick, "id=")
		if idx < 0 {
			return
		}
		digits := onclick[idx+len("id="):]
		end := 0
		for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
			end++
		}
		id, err := strconv.Atoi(digits[:end])
		if err != nil {
			return
		}
		ids = append(ids, id)
	})

	events := make([]Event, 0, len(ids))
	lock := sync.Mutex{}
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			event, err := c.fetchEvent(gctx, id)
			if err != nil {
				return err
			}
			lock.Lock()
			defer lock.Unlock()
			events = append(events, event)
			return nil
		})
	}
	err = g.Wait()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch event pages")
		return nil, err
	}

	return events, nil
}

func (c *Client) fetchEvent(ctx context.Context, id int) (Event, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/workshop/event.php?id=%d", id))
	if err != nil {
		return Event{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return Event{}, err
	}

	meta := htmlutil.KeyValueRows(doc.Find("table.input_table tr"))

	var participants []Participant
	doc.Find("table.box_borders tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			// header row
			return
		}
		cells := row.Find("td").Map(func(_ int, cell *goquery.Selection) string {
			return strings.TrimSpace(cell.Text())
		})
		if len(cells) < 3 {
			return
		}
		// "Anna Berg (1234)" -> "Anna Berg"
		name := textutil.NormalizeName(strings.SplitN(cells[0], "(", 2)[0])
		participants = append(participants, Participant{
			MemberName: name,
			Comment:    cells[1],
			SignedUp:   parseRowDate(cells[2]),
		})
	})

	description := htmlutil.InnerTextBr(doc.Find("h1 + div"))

	distance := 0.0
	if meta["Kilometer"] != "" {
		distance, err = strconv.ParseFloat(meta["Kilometer"], 64)
		if err != nil {
			return Event{}, fmt.Errorf("event %d: bad distance %q", id, meta["Kilometer"])
		}
	}

	return Event{
		EventID:      id,
		Name:         strings.TrimSpace(doc.Find("h1").Text()),
		Description:  description,
		Creator:      meta["Kontaktperson"],
		Route:        meta["Rute"],
		Start:        parseRowDate(meta["Start"]),
		End:          parseRowDate(meta["Slut"]),
		LastResp:     parseRowDate(meta["Sidste tilmelding"]),
		Distance:     distance,
		Participants: participants,
		// the event was just scraped off the live portal list
		Current:      true,
	}, nil
}

// parses "26-07-2022 15:00" in club-local time, the zero time stands in for
// missing values
func parseRowDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("02-01-2006 15:04", raw, timezone.Location)
	if err != nil {
		return time.Time{}
	}
	return t
}
