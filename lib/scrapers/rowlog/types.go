package rowlog

// RawParticipant is one rower on a trip as reported by the logbook API.
// guests carry a memberId of 0.
type RawParticipant struct {
	MemberID  int    `json:"memberId"`
	RowerName string `json:"rowerName"`
	IsMinor   bool   `json:"isMinor"`
	LongRow   bool   `json:"longRow"`
	Coxswain  bool   `json:"coxswain"`
}

// RawTrip is one logbook entry exactly as the upstream serves it. timestamps
// stay strings here, parsing happens at the domain boundary.
type RawTrip struct {
	ID               int              `json:"id"`
	Description      string           `json:"description"`
	Distance         float64          `json:"distance"`
	CreatedDateTime  string           `json:"createdDateTime"`
	StartDateTime    string           `json:"startDateTime"`
	UpdatedDateTime  string           `json:"updatedDateTime"`
	EndDateTime      string           `json:"endDateTime"`
	Completed        bool             `json:"completed"`
	ExcludeFromStats bool             `json:"excludeFromStats"`
	BoatID           string           `json:"boatId"`
	BoatName         string           `json:"boatName"`
	RouteID          int              `json:"routeId"`
	Participants     []RawParticipant `json:"participants"`
}

type RawPermission struct {
	ID                 int    `json:"id"`
	Condition          string `json:"condition"`
	ConditionPeriod    string `json:"conditionPeriod"`
	ConditionQty       int    `json:"conditionQty"`
	ConditionType      string `json:"conditionType"`
	CoxswainPermission bool   `json:"coxswainPermission"`
	Description        string `json:"description"`
	PermissionCode     string `json:"permissionCode"`
	WinterPermission   bool   `json:"winterPermission"`
}

type RawMemberPermission struct {
	MemberID     int           `json:"memberId"`
	PermissionID int           `json:"permissionId"`
	Permission   RawPermission `json:"permission"`
}

// RawMember is one row of the paginated member listing. guests have id 0.
type RawMember struct {
	ID                int                   `json:"id"`
	Name              string                `json:"name"`
	UserName          string                `json:"userName"`
	EmailAddress      string                `json:"emailAddress"`
	BirthDate         string                `json:"birthDate"`
	Address           string                `json:"address"`
	Address2          string                `json:"address2"`
	PostCode          string                `json:"postCode"`
	City              string                `json:"city"`
	PhoneNo           string                `json:"phoneNo"`
	MobilePhoneNo     string                `json:"mobilePhoneNo"`
	Blocked           bool                  `json:"blocked"`
	Guest             bool                  `json:"guest"`
	Newsletter        bool                  `json:"newsletter"`
	BoatAdmin         bool                  `json:"boatAdmin"`
	SystemAdmin       bool                  `json:"systemAdmin"`
	MemberTypeID      int                   `json:"memberTypeId"`
	PermissionCode    string                `json:"permissionCode"`
	EnrolmentDate     string                `json:"enrolmentDate"`
	ReleasedDate      string                `json:"releasedDate"`
	MemberPermissions []RawMemberPermission `json:"memberPermissions"`
}

type MemberType struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	AllowRowing bool   `json:"allowRowing"`
}

type Boat struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	BoatTypeID       int     `json:"boatTypeId"`
	AllowReservation bool    `json:"allowReservation"`
	Blocked          bool    `json:"blocked"`
	Description      string  `json:"description"`
	ExcludeFromStats bool    `json:"excludeFromStats"`
	SerialNo         string  `json:"serialNo"`
	PurchasePrice    float64 `json:"purchasePrice"`
}

type Route struct {
	ID           int     `json:"id"`
	Distance     float64 `json:"distance"`
	GmapLat      string  `json:"gmapLat"`
	GmapLng      string  `json:"gmapLng"`
	Description  string  `json:"description"`
	LongRow      string  `json:"longRow"`
	RouteGroupID int     `json:"routeGroupId"`
}
