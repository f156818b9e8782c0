package reservation

import "context"

type Authenticator interface {
	Login(ctx context.Context, username, password string) (Session, error)
}

type ScheduleSource interface {
	FetchSchedule(ctx context.Context, s Session, date string) ([]Resource, error)
}

// BoardingProvider covers the calls an acquisition makes after a slot is chosen.
type BoardingProvider interface {
	TemporaryCode(ctx context.Context, s Session, resourceID int, slotTime string) (string, error)
	Reserve(ctx context.Context, s Session, resourceID int, date string, timeSlotID int) error
	Reservations(ctx context.Context, s Session) ([]ReservationRecord, error)
	QRCode(ctx context.Context, s Session, reservationID, hallAppointmentDataID int) (string, error)
}

type HistorySource interface {
	RideHistory(ctx context.Context, s Session) ([]RideRecord, error)
}

// Provider is the full surface of the shuttle service used by this tool.
type Provider interface {
	Authenticator
	ScheduleSource
	BoardingProvider
	HistorySource
}
