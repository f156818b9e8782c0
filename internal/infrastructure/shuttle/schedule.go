package shuttle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

type scheduleListData struct {
	List *[]resourceJSON `json:"list"`
}

type resourceJSON struct {
	ID    *int                       `json:"id"`
	Name  string                     `json:"name"`
	Table map[string]json.RawMessage `json:"table"`
}

type slotJSON struct {
	TimeID int    `json:"time_id"`
	Yaxis  string `json:"yaxis"`
	Date   string `json:"date"`
	Row    *struct {
		Margin int `json:"margin"`
	} `json:"row"`
}

// FetchSchedule performs the session handshake and lists every route with its
// slots for date. A failed handshake fails the whole fetch.
func (c *Client) FetchSchedule(ctx context.Context, s reservation.Session, date string) ([]reservation.Resource, error) {
	if err := c.handshake(ctx, s); err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}

	q := url.Values{}
	q.Set("hall_id", strconv.Itoa(c.cfg.HallID))
	q.Set("time", date)
	q.Set("p", "1")
	q.Set("page_size", "0")
	body, err := c.do(ctx, http.MethodGet, c.endpoint(listPath), q, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}
	return parseSchedule(body)
}

func parseSchedule(body []byte) ([]reservation.Resource, error) {
	data, err := decodeData[scheduleListData]("parse schedule", body)
	if err != nil {
		return nil, err
	}
	if data.List == nil {
		return nil, fmt.Errorf("parse schedule: %w: missing \"list\"", reservation.ErrDecode)
	}

	out := make([]reservation.Resource, 0, len(*data.List))
	for i, r := range *data.List {
		if r.ID == nil {
			return nil, fmt.Errorf("parse schedule: resource %d: %w: missing \"id\"", i, reservation.ErrDecode)
		}
		slots, err := parseTable(r.Table)
		if err != nil {
			return nil, fmt.Errorf("parse schedule: resource %d: %w", *r.ID, err)
		}
		out = append(out, reservation.Resource{ID: *r.ID, Name: r.Name, Slots: slots})
	}
	return out, nil
}

// parseTable reads the slot list nested under the table's single key. The key
// name varies, so any name is accepted, but exactly one must be present.
func parseTable(table map[string]json.RawMessage) ([]reservation.Slot, error) {
	if len(table) != 1 {
		return nil, fmt.Errorf("%w: table has %d keys, want 1", reservation.ErrDecode, len(table))
	}
	var raw json.RawMessage
	for _, v := range table {
		raw = v
	}

	var slots []slotJSON
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, fmt.Errorf("%w: %w", reservation.ErrDecode, err)
	}
	out := make([]reservation.Slot, 0, len(slots))
	for _, s := range slots {
		remaining := 0
		if s.Row != nil && s.Row.Margin > 0 {
			remaining = s.Row.Margin
		}
		out = append(out, reservation.Slot{
			TimeSlotID:     s.TimeID,
			TimeOfDay:      s.Yaxis,
			Date:           s.Date,
			RemainingSeats: remaining,
		})
	}
	return out, nil
}
