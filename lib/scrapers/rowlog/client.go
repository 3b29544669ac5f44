package rowlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rostat-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("scrapers/rowlog")

const DefaultBaseUrl = "https://rowlog.com"

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	BaseUrl  string
	Username string
	Password string
	// the club's numeric site id, sent on every request
	ClubID string
}

func NewClient(opts ClientOptions) *Client {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetBasicAuth(opts.Username, opts.Password)
	client.SetHeader("X-ClubId", opts.ClubID)
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/rowlog/http")

	return &Client{http: client}
}

func (c *Client) getBody(ctx context.Context, path string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return "", err
	}
	if res.StatusCode() != 200 {
		return "", fmt.Errorf("GET %s: unexpected status %d", path, res.StatusCode())
	}
	return res.String(), nil
}

func getJson[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	body, err := c.getBody(ctx, path)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal([]byte(body), &out)
	if err != nil {
		return out, fmt.Errorf("GET %s: %w", path, err)
	}
	return out, nil
}

// RawTrips fetches the trips within [from, to] as the raw response body,
// both bounds are ISO dates. the body is returned unparsed so it can go
// straight into the durable cache.
func (c *Client) RawTrips(ctx context.Context, from, to string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:RawTrips")
	defer span.End()

	return c.getBody(ctx, fmt.Sprintf("/api/trips?to=%s&from=%s", to, from))
}

const memberPageSize = 100

// pages fetched ahead per round, ten pages covered the whole club the last
// time anyone checked
const memberPagePrefetch = 10

func (c *Client) membersPage(ctx context.Context, limit, offset int) ([]RawMember, error) {
	return getJson[[]RawMember](ctx, c, fmt.Sprintf("/api/members?limit=%d&offset=%d", limit, offset))
}

// Members fetches the full member listing. pages are fetched concurrently
// in rounds, the listing ends once a whole round adds no unseen ids.
func (c *Client) Members(ctx context.Context) ([]RawMember, error) {
	ctx, span := tracer.Start(ctx, "client:Members")
	defer span.End()

	seen := map[int]bool{}
	var out []RawMember

	offset := 0
	for {
		pages := make([][]RawMember, memberPagePrefetch)
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < memberPagePrefetch; i++ {
			i := i
			pageOffset := offset + i*memberPageSize
			g.Go(func() error {
				page, err := c.membersPage(gctx, memberPageSize, pageOffset)
				if err != nil {
					return err
				}
				pages[i] = page
				return nil
			})
		}
		err := g.Wait()
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		progress := false
		for _, page := range pages {
			for _, member := range page {
				if seen[member.ID] {
					continue
				}
				seen[member.ID] = true
				out = append(out, member)
				progress = true
			}
		}
		if !progress {
			return out, nil
		}
		offset += memberPagePrefetch * memberPageSize
	}
}

func (c *Client) MemberTypes(ctx context.Context) ([]MemberType, error) {
	return getJson[[]MemberType](ctx, c, "/api/membertypes")
}

func (c *Client) Boats(ctx context.Context) ([]Boat, error) {
	return getJson[[]Boat](ctx, c, "/api/boats")
}

func (c *Client) Routes(ctx context.Context) ([]Route, error) {
	return getJson[[]Route](ctx, c, "/api/routes")
}

func (c *Client) Permissions(ctx context.Context) ([]RawPermission, error) {
	return getJson[[]RawPermission](ctx, c, "/api/permissions")
}
