package logbook

// TripLedger holds the trips of a single season. it is rebuilt wholesale on
// every cache refresh and never mutated, so all queries are plain scans
// with no locking. caching sits a layer above.
type TripLedger struct {
	season int
	trips  []Trip
}

func NewTripLedger(season int, trips []Trip) *TripLedger {
	return &TripLedger{season: season, trips: trips}
}

func (l *TripLedger) Season() int {
	return l.season
}

func (l *TripLedger) Trips() []Trip {
	return l.trips
}

// AllBoatNames returns the distinct boat names in first-seen order.
func (l *TripLedger) AllBoatNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, t := range l.trips {
		if seen[t.BoatName] {
			continue
		}
		seen[t.BoatName] = true
		names = append(names, t.BoatName)
	}
	return names
}

// AllRowerIDs returns the distinct member ids that appear on any trip.
// guests are excluded.
func (l *TripLedger) AllRowerIDs() []int {
	seen := map[int]bool{}
	var ids []int
	for _, t := range l.trips {
		for _, p := range t.Participants {
			if p.Guest() || seen[p.MemberID] {
				continue
			}
			seen[p.MemberID] = true
			ids = append(ids, p.MemberID)
		}
	}
	return ids
}

func (l *TripLedger) TripsForRower(id int) []Trip {
	var out []Trip
	for _, t := range l.trips {
		for _, p := range t.Participants {
			if p.MemberID == id && !p.Guest() {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// TotalDistance sums the distance of every trip, guests included.
func (l *TripLedger) TotalDistance() float64 {
	sum := 0.0
	for _, t := range l.trips {
		sum += t.Distance
	}
	return sum
}

// DistancePerBoat sums trip distances per boat name, guests included.
func (l *TripLedger) DistancePerBoat() map[string]float64 {
	out := map[string]float64{}
	for _, t := range l.trips {
		out[t.BoatName] += t.Distance
	}
	return out
}
