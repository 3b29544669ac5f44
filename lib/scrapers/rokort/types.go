package rokort

import "time"

type Participant struct {
	MemberName string    `json:"memberName"`
	Comment    string    `json:"comment"`
	SignedUp   time.Time `json:"signedUp"`
	Cancelled  bool      `json:"cancelled"`
}

type Event struct {
	EventID     int       `json:"eventId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	// display name of the contact person
	Creator      string        `json:"creator"`
	Route        string        `json:"route"`
	Start        time.Time     `json:"start"`
	End          time.Time     `json:"end"`
	LastResp     time.Time     `json:"lastResp"`
	Distance     float64       `json:"distance"`
	Current      bool          `json:"current"`
	Participants []Participant `json:"participants"`
}
