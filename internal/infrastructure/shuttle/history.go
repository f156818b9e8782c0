package shuttle

import (
	"context"
	"fmt"
	"net/url"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

const (
	historyPageSize = 100
	historyMaxPages = 50
)

type rideJSON struct {
	ResourceName    string `json:"resource_name"`
	AppointmentTime string `json:"appointment_tim"`
	StatusName      string `json:"status_name"`
	SignInTime      string `json:"sign_in_tim"`
}

// RideHistory pages through every past ride of the user, newest first. It runs
// its own handshake since it is not preceded by a schedule fetch.
func (c *Client) RideHistory(ctx context.Context, s reservation.Session) ([]reservation.RideRecord, error) {
	if err := c.handshake(ctx, s); err != nil {
		return nil, fmt.Errorf("ride history: %w", err)
	}
	q := url.Values{}
	q.Set("status", "0")
	q.Set("sort_time", "true")
	q.Set("sort", "desc")
	rides, err := listReservations[rideJSON](ctx, c, "ride history", q, historyPageSize, historyMaxPages)
	if err != nil {
		return nil, err
	}
	out := make([]reservation.RideRecord, 0, len(rides))
	for _, r := range rides {
		out = append(out, reservation.RideRecord{
			ResourceName:    r.ResourceName,
			AppointmentTime: r.AppointmentTime,
			StatusName:      r.StatusName,
			SignInTime:      r.SignInTime,
		})
	}
	return out, nil
}
