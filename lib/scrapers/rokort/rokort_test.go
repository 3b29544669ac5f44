package rokort

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rostat-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

const eventListHtml = `<html><body>
<table><tbody id="events_scroll">
<tr onclick="showWin('event.php?id=1017');"><td>Tur til Skovshoved</td></tr>
<tr onclick="showWin('event.php?id=1018');"><td>Kanindåb</td></tr>
</tbody></table>
</body></html>`

const eventHtml = `<html><body>
<h1> Tur til Skovshoved </h1>
<div>Vi ror nordpå.<br>Husk madpakke.</div>
<table class="input_table">
<tr><td>Kontaktperson</td><td>Anna Berg</td></tr>
<tr><td>Rute</td><td>Skovshoved</td></tr>
<tr><td>Start</td><td>26-07-2022 15:00</td></tr>
<tr><td>Slut</td><td>26-07-2022 18:00</td></tr>
<tr><td>Sidste tilmelding</td><td>25-07-2022 12:00</td></tr>
<tr><td>Kilometer</td><td>14</td></tr>
</table>
<table class="box_borders">
<tr><td>Navn</td><td>Kommentar</td><td>Tilmeldt</td></tr>
<tr><td>Jens  Ole Hansen (1234)</td><td>tager kage med</td><td>20-07-2022 09:30</td></tr>
<tr><td>Anna Berg (42)</td><td></td><td>19-07-2022 21:00</td></tr>
</table>
</body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(func() http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/":
				http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc123"})
			case "/index.php":
				require.Equal(t, "PHPSESSID=abc123", r.Header.Get("Cookie"))
				require.NoError(t, r.ParseForm())
				if r.PostForm.Get("password") != "secret" {
					fmt.Fprint(w, "Forkert brugernavn eller kodeord")
					return
				}
				fmt.Fprint(w, "ok")
			default:
				handler(w, r)
			}
		}
	}())
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	client, err := NewClient(ctx, ClientOptions{
		BaseUrl:  server.URL,
		Username: "officer",
		Password: "secret",
		SiteID:   "159",
	})
	require.NoError(t, err)
	return client
}

func TestLoginFailed(t *testing.T) {
	server := httptest.NewServer(func() http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/":
				http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc123"})
			case "/index.php":
				fmt.Fprint(w, "Forkert brugernavn eller kodeord")
			}
		}
	}())
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := NewClient(ctx, ClientOptions{
		BaseUrl:  server.URL,
		Username: "officer",
		Password: "wrong",
		SiteID:   "159",
	})
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestEvents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// the session cookie must be replayed on every scrape, exactly once
		require.Equal(t, "PHPSESSID=abc123", r.Header.Get("Cookie"))
		switch r.URL.Path {
		case "/workshop/workshop2.php":
			fmt.Fprint(w, eventListHtml)
		case "/workshop/event.php":
			fmt.Fprint(w, eventHtml)
		default:
			http.NotFound(w, r)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	events, err := client.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)

	var event Event
	for _, e := range events {
		if e.EventID == 1017 {
			event = e
		}
	}
	require.Equal(t, 1017, event.EventID)
	require.Equal(t, "Tur til Skovshoved", event.Name)
	require.Equal(t, "Anna Berg", event.Creator)
	require.Equal(t, "Skovshoved", event.Route)
	require.Equal(t, 14.0, event.Distance)
	require.Equal(t,
		time.Date(2022, time.July, 26, 15, 0, 0, 0, timezone.Location),
		event.Start,
	)
	require.Equal(t, "Vi ror nordpå.\nHusk madpakke.", event.Description)
	require.True(t, event.Current, "freshly scraped events are on the live list")

	require.Len(t, event.Participants, 2)
	require.Equal(t, "Jens Ole Hansen", event.Participants[0].MemberName)
	require.Equal(t, "tager kage med", event.Participants[0].Comment)
	require.Equal(t,
		time.Date(2022, time.July, 20, 9, 30, 0, 0, timezone.Location),
		event.Participants[0].SignedUp,
	)
}
