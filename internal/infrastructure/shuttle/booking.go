package shuttle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

type codeData struct {
	Code *string `json:"code"`
}

const (
	reservationsPageSize = 10
	reservationsMaxPages = 20
)

type reservationJSON struct {
	ID                    int    `json:"id"`
	HallAppointmentDataID int    `json:"hall_appointment_data_id"`
	ResourceID            int    `json:"resource_id"`
	ResourceName          string `json:"resource_name"`
	AppointmentTime       string `json:"appointment_tim"`
}

type launchItem struct {
	Date          string `json:"date"`
	Period        int    `json:"period"`
	SubResourceID int    `json:"sub_resource_id"`
}

// TemporaryCode asks for a boarding code for a departure that already left.
func (c *Client) TemporaryCode(ctx context.Context, s reservation.Session, resourceID int, slotTime string) (string, error) {
	q := url.Values{}
	q.Set("type", "1")
	q.Set("resource_id", strconv.Itoa(resourceID))
	q.Set("text", slotTime)
	return c.fetchCode(ctx, "temporary code", q)
}

// QRCode exchanges reservation identifiers for the boarding QR payload.
func (c *Client) QRCode(ctx context.Context, s reservation.Session, reservationID, hallAppointmentDataID int) (string, error) {
	q := url.Values{}
	q.Set("id", strconv.Itoa(reservationID))
	q.Set("type", "0")
	q.Set("hall_appointment_data_id", strconv.Itoa(hallAppointmentDataID))
	return c.fetchCode(ctx, "qr code", q)
}

func (c *Client) fetchCode(ctx context.Context, op string, q url.Values) (string, error) {
	body, err := c.do(ctx, http.MethodGet, c.endpoint(qrCodePath), q, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	data, err := decodeData[codeData](op, body)
	if err != nil {
		return "", err
	}
	if data.Code == nil {
		return "", fmt.Errorf("%s: %w: missing \"code\"", op, reservation.ErrDecode)
	}
	return *data.Code, nil
}

// Reserve books a seat. Any 2xx response counts as success whatever its body says.
func (c *Client) Reserve(ctx context.Context, s reservation.Session, resourceID int, date string, timeSlotID int) error {
	data, err := json.Marshal([]launchItem{{Date: date, Period: timeSlotID, SubResourceID: 0}})
	if err != nil {
		return fmt.Errorf("reserve: %w", err)
	}
	q := url.Values{}
	q.Set("resource_id", strconv.Itoa(resourceID))
	form := url.Values{}
	form.Set("resource_id", strconv.Itoa(resourceID))
	form.Set("data", string(data))

	if _, err := c.do(ctx, http.MethodPost, c.endpoint(launchPath), q, form); err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return fmt.Errorf("reserve: %w: %w", reservation.ErrReservationFailed, se)
		}
		return fmt.Errorf("reserve: %w", err)
	}
	return nil
}

// Reservations lists the user's confirmed reservations, earliest first.
func (c *Client) Reservations(ctx context.Context, s reservation.Session) ([]reservation.ReservationRecord, error) {
	q := url.Values{}
	q.Set("status", "2")
	q.Set("sort_time", "true")
	q.Set("sort", "asc")
	rows, err := listReservations[reservationJSON](ctx, c, "reservations", q, reservationsPageSize, reservationsMaxPages)
	if err != nil {
		return nil, err
	}
	out := make([]reservation.ReservationRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, reservation.ReservationRecord{
			ReservationID:         r.ID,
			HallAppointmentDataID: r.HallAppointmentDataID,
			ResourceID:            r.ResourceID,
			ResourceName:          r.ResourceName,
			AppointmentTime:       r.AppointmentTime,
		})
	}
	return out, nil
}
