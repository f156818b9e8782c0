package reservation

import "time"

// Layouts used by the provider for dates and times.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DateTimeLayout = "2006-01-02 15:04"
)

// Session is an opaque provider token. It is valid until a call fails with an auth error.
type Session struct {
	Token    string
	IssuedAt time.Time
}

// Resource is one shuttle route with its slots for the requested date.
type Resource struct {
	ID    int
	Name  string
	Slots []Slot
}

// Slot is a bookable departure. TimeOfDay is "HH:MM", Date is "YYYY-MM-DD".
type Slot struct {
	TimeSlotID     int
	TimeOfDay      string
	Date           string
	RemainingSeats int
}

// Available reports whether the slot has seats left on the given date.
func (s Slot) Available(date string) bool {
	return s.RemainingSeats > 0 && s.Date == date
}

// Direction is the travel orientation between the two campuses.
type Direction int

const (
	Outbound Direction = iota
	Return
)

func (d Direction) String() string {
	switch d {
	case Outbound:
		return "outbound"
	case Return:
		return "return"
	default:
		return "unknown"
	}
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Opposite flips the direction.
func (d Direction) Opposite() Direction {
	if d == Outbound {
		return Return
	}
	return Outbound
}

// ReservationRecord is a live reservation owned by the user.
type ReservationRecord struct {
	ReservationID         int
	HallAppointmentDataID int
	ResourceID            int
	ResourceName          string
	// "YYYY-MM-DD HH:MM" (may carry trailing seconds)
	AppointmentTime string
}

// BoardingResult is the terminal output of an acquisition.
type BoardingResult struct {
	IsPastDeparture bool   `json:"is_past_departure"`
	RouteName       string `json:"route_name"`
	DepartureTime   string `json:"departure_time"`
	Code            string `json:"code"`
}

// RideRecord is one historical ride.
type RideRecord struct {
	ResourceName    string `csv:"resource_name" json:"resource_name"`
	AppointmentTime string `csv:"appointment_time" json:"appointment_time"`
	StatusName      string `csv:"status_name" json:"status_name"`
	SignInTime      string `csv:"sign_in_time" json:"sign_in_time,omitempty"`
}

// LoggedBoarding is a boarding result kept in the local boarding log.
type LoggedBoarding struct {
	AcquiredAt time.Time `json:"acquired_at"`
	BoardingResult
}
