package shuttle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

type listData[T any] struct {
	Data  *[]T `json:"data"`
	Total int  `json:"total"`
}

// listReservations pages through the reservation listing filtered by q until
// a short page or the reported total. At most maxPages are requested.
func listReservations[T any](ctx context.Context, c *Client, op string, q url.Values, pageSize, maxPages int) ([]T, error) {
	var out []T
	for page := 1; page <= maxPages; page++ {
		q.Set("p", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(pageSize))
		body, err := c.do(ctx, http.MethodGet, c.endpoint(reservationsPath), q, nil)
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", op, page, err)
		}
		data, err := decodeData[listData[T]](op, body)
		if err != nil {
			return nil, err
		}
		if data.Data == nil {
			return nil, fmt.Errorf("%s: %w: missing \"data\"", op, reservation.ErrDecode)
		}
		out = append(out, *data.Data...)
		if len(*data.Data) < pageSize || (data.Total > 0 && len(out) >= data.Total) {
			break
		}
	}
	return out, nil
}
