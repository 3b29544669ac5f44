package logbook

import (
	"time"

	"rostat-backend/lib/scrapers/rowlog"
)

// GuestID marks a trip participant without a resolvable club membership.
const GuestID = 0

type Participant struct {
	// MemberID is GuestID when the participant name did not resolve
	// against the member directory.
	MemberID int    `json:"memberId"`
	Name     string `json:"name"`
	Coxswain bool   `json:"coxswain"`
	LongRow  bool   `json:"longRow"`
}

func (p Participant) Guest() bool {
	return p.MemberID == GuestID
}

// Trip is one completed logbook entry. never mutated after construction,
// End is always >= Start.
type Trip struct {
	ID          int       `json:"id"`
	Description string    `json:"description"`
	Distance    float64   `json:"distance"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
	BoatID      string    `json:"boatId"`
	BoatName    string    `json:"boatName"`
	RouteID     int       `json:"routeId"`
	// set when any seat was logged as a long-distance row
	LongTrip     bool          `json:"longTrip"`
	Participants []Participant `json:"participants"`
}

type Member struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	BirthDate   time.Time `json:"birthDate"`
	MemberType  string    `json:"memberType"`
	Permissions string    `json:"permissions"`
	BoatAdmin   bool      `json:"boatAdmin"`
	SystemAdmin bool      `json:"systemAdmin"`
	Newsletter  bool      `json:"newsletter"`

	Raw rowlog.RawMember `json:"-"`
}
