package logbook

import (
	"testing"
	"time"

	"rostat-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestSeasonBoundaries(t *testing.T) {
	atMidnight := Trip{Start: time.Date(2023, time.November, 1, 0, 0, 0, 0, timezone.Location)}
	require.True(t, inSeason(atMidnight, 2024))
	require.False(t, inSeason(atMidnight, 2023))

	justBefore := Trip{Start: time.Date(2023, time.October, 31, 23, 59, 59, 0, timezone.Location)}
	require.True(t, inSeason(justBefore, 2023))
	require.False(t, inSeason(justBefore, 2024))
}

func TestFetchWindow(t *testing.T) {
	// a past season is bounded by its own Oct 31
	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, timezone.Location)
	from, to := fetchWindow(2023, now)
	require.Equal(t, time.Date(2022, time.October, 31, 0, 0, 0, 0, timezone.Location), from)
	require.Equal(t, time.Date(2023, time.October, 31, 0, 0, 0, 0, timezone.Location), to)

	// the running season is bounded by yesterday
	now = time.Date(2023, time.March, 15, 12, 0, 0, 0, timezone.Location)
	from, to = fetchWindow(2023, now)
	require.Equal(t, time.Date(2022, time.October, 31, 0, 0, 0, 0, timezone.Location), from)
	require.Equal(t, time.Date(2023, time.March, 14, 0, 0, 0, 0, timezone.Location), to)
}

func TestMemberDirectoryLookups(t *testing.T) {
	dir := NewMemberDirectory([]Member{
		{ID: 2301, Name: "Anna Berg", Email: "old@example.com"},
		{ID: 1042, Name: "Jens Ole Hansen"},
		{ID: 2301, Name: "Anna Berg", Email: "new@example.com"},
	})

	m, ok := dir.GetMember(2301)
	require.True(t, ok)
	require.Equal(t, "new@example.com", m.Email)

	m, ok = dir.GetMemberByName("  jens   ole HANSEN ")
	require.True(t, ok)
	require.Equal(t, 1042, m.ID)

	_, ok = dir.GetMember(9999)
	require.False(t, ok)
	_, ok = dir.GetMemberByName("Nobody")
	require.False(t, ok)
}

func TestIsRabbit(t *testing.T) {
	dir := NewMemberDirectory(nil)
	require.True(t, dir.IsRabbit(Member{ID: 2301}, 2023))
	require.False(t, dir.IsRabbit(Member{ID: 1042}, 2023))
}

func TestLedgerGuestExclusion(t *testing.T) {
	trips := []Trip{
		{
			Distance: 12,
			BoatName: "Freja",
			Participants: []Participant{
				{MemberID: 1042, Name: "Jens Ole Hansen"},
				{MemberID: GuestID, Name: "Some Guest"},
			},
		},
		{
			Distance: 8,
			BoatName: "Ydun",
			Participants: []Participant{
				{MemberID: GuestID, Name: "Another Guest"},
			},
		},
	}
	ledger := NewTripLedger(2023, trips)

	// guests count toward aggregate totals
	require.Equal(t, 20.0, ledger.TotalDistance())
	require.Equal(t, map[string]float64{"Freja": 12, "Ydun": 8}, ledger.DistancePerBoat())
	require.Equal(t, []string{"Freja", "Ydun"}, ledger.AllBoatNames())

	// but never toward per-member queries
	require.Equal(t, []int{1042}, ledger.AllRowerIDs())
	require.Len(t, ledger.TripsForRower(1042), 1)
	require.Empty(t, ledger.TripsForRower(GuestID))
}
