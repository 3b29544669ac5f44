package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rostat-backend/lib/scrapers/rokort"
	"rostat-backend/lib/scrapers/rowlog"
	"rostat-backend/lib/testutil"
	"rostat-backend/lib/timezone"
	"rostat-backend/services/events"
	eventsdb "rostat-backend/services/events/db"
	"rostat-backend/services/logbook"

	"github.com/stretchr/testify/require"
)

type fakeLogClient struct{}

func (fakeLogClient) RawTrips(ctx context.Context, from, to string) (string, error) {
	if to == "2023-05-02" {
		body, err := json.Marshal([]rowlog.RawTrip{{
			ID:              1,
			Description:     "Formiddagstur",
			Distance:        12,
			CreatedDateTime: "2023-05-02T10:00:00",
			StartDateTime:   "2023-05-02T10:00:00",
			EndDateTime:     "2023-05-02T12:00:00",
			Completed:       true,
			BoatName:        "Freja",
			Participants:    []rowlog.RawParticipant{{RowerName: "Jens Ole Hansen"}},
		}})
		return string(body), err
	}
	return "[]", nil
}

func (fakeLogClient) Members(ctx context.Context) ([]rowlog.RawMember, error) {
	return []rowlog.RawMember{
		{ID: 1042, Name: "Jens Ole Hansen", MemberTypeID: 1, PermissionCode: "KI", BoatAdmin: true},
	}, nil
}

func (fakeLogClient) MemberTypes(ctx context.Context) ([]rowlog.MemberType, error) {
	return []rowlog.MemberType{{ID: 1, Description: "Aktiv", AllowRowing: true}}, nil
}

type fakePortal struct {
	events []rokort.Event
}

func (f *fakePortal) Events(ctx context.Context) ([]rokort.Event, error) {
	return f.events, nil
}

func setup(t *testing.T, withEvents bool) *httptest.Server {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/server",
		DbSchema: eventsdb.Schema,
	})
	t.Cleanup(cleanup)

	logbookService := logbook.NewService(fakeLogClient{}, logbook.Config{
		CacheDir:             t.TempDir(),
		ThrottleWindowMillis: 1,
		ThrottleParallelism:  1000,
		Seasons:              []int{2023},
	})

	options := Options{Logbook: logbookService}
	if withEvents {
		start := time.Date(2023, time.July, 26, 15, 0, 0, 0, timezone.Location)
		portal := &fakePortal{events: []rokort.Event{{
			EventID:     301,
			Name:        "Langtur; med kage",
			Description: "Vi ror nordpå.\nHusk madpakke.",
			Route:       "Skovshoved",
			Start:       start,
			End:         start.Add(time.Hour * 4),
			Current:     true,
		}}}
		eventsService := events.NewService(res.DB, portal)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		require.NoError(t, eventsService.Sync(ctx))

		options.Events = &eventsService
	}

	srv := httptest.NewServer(NewServer(options).Router())
	t.Cleanup(srv.Close)
	return srv
}

func getJson(t *testing.T, url string, out any) int {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestSeasonsEndpoint(t *testing.T) {
	srv := setup(t, false)

	var body struct {
		Seasons []int `json:"seasons"`
		Current int   `json:"current"`
	}
	status := getJson(t, srv.URL+"/api/seasons", &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []int{2023}, body.Seasons)
	require.Equal(t, 2023, body.Current)
}

func TestTripsEndpoint(t *testing.T) {
	srv := setup(t, false)

	var body struct {
		Season int            `json:"season"`
		Trips  []logbook.Trip `json:"trips"`
	}
	status := getJson(t, srv.URL+"/api/trips?season=2023", &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 2023, body.Season)
	require.Len(t, body.Trips, 1)
	require.Equal(t, "Formiddagstur", body.Trips[0].Description)
	require.Equal(t, 1042, body.Trips[0].Participants[0].MemberID)

	var errBody struct {
		Error string `json:"error"`
	}
	status = getJson(t, srv.URL+"/api/trips?season=1999", &errBody)
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, errBody.Error, "1999")

	status = getJson(t, srv.URL+"/api/trips?season=abc", &errBody)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestMembersEndpoint(t *testing.T) {
	srv := setup(t, false)

	var members []logbook.Member
	status := getJson(t, srv.URL+"/api/members", &members)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, members, 1)
	require.Equal(t, "Jens Ole Hansen", members[0].Name)
	require.Equal(t, "Aktiv", members[0].MemberType)
}

func TestPermissionsEndpoint(t *testing.T) {
	srv := setup(t, false)

	var body struct {
		ID          int    `json:"id"`
		Permissions string `json:"permissions"`
		BoatAdmin   bool   `json:"boatAdmin"`
	}
	status := getJson(t, srv.URL+"/api/permissions?name=jens%20ole%20hansen", &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1042, body.ID)
	require.Equal(t, "KI", body.Permissions)
	require.True(t, body.BoatAdmin)

	status = getJson(t, srv.URL+"/api/permissions?name=ukendt", nil)
	require.Equal(t, http.StatusNotFound, status)

	status = getJson(t, srv.URL+"/api/permissions", nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestCalendarEndpoint(t *testing.T) {
	srv := setup(t, true)

	res, err := http.Get(srv.URL + "/calendar.ics")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, res.Header.Get("Content-Type"), "text/calendar")

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	body := string(raw)

	require.Contains(t, body, "BEGIN:VCALENDAR")
	require.Contains(t, body, "UID:event-301@rostat")
	require.Contains(t, body, "SUMMARY:Langtur\\; med kage")
	require.Contains(t, body, "DESCRIPTION:Vi ror nordpå.\\nHusk madpakke.")
	require.Contains(t, body, "DTSTART:20230726T130000Z")
	require.Contains(t, body, "END:VCALENDAR")
}

func TestCalendarWithoutEvents(t *testing.T) {
	srv := setup(t, false)

	status := getJson(t, srv.URL+"/calendar.ics", nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestInvalidateEndpoint(t *testing.T) {
	srv := setup(t, false)

	res, err := http.Post(srv.URL+"/api/invalidate", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
}
