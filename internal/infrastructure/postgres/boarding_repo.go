package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

// BoardingRepo is the Postgres boarding log.
type BoardingRepo struct{ pool *pgxpool.Pool }

func NewBoardingRepo(pool *pgxpool.Pool) *BoardingRepo { return &BoardingRepo{pool: pool} }

func (r *BoardingRepo) Record(ctx context.Context, at time.Time, res reservation.BoardingResult) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO boarding_log (acquired_at, route_name, departure_time, past_departure, code)
		VALUES ($1, $2, $3, $4, $5)
	`, at.UTC(), res.RouteName, res.DepartureTime, res.IsPastDeparture, res.Code)
	return err
}

func (r *BoardingRepo) Recent(ctx context.Context, limit int) ([]reservation.LoggedBoarding, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT acquired_at, route_name, departure_time, past_departure, code
		FROM boarding_log ORDER BY acquired_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reservation.LoggedBoarding
	for rows.Next() {
		var b reservation.LoggedBoarding
		if err := rows.Scan(&b.AcquiredAt, &b.RouteName, &b.DepartureTime, &b.IsPastDeparture, &b.Code); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
