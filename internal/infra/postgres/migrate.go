package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS seats (
		id          BIGSERIAL PRIMARY KEY,
		seat_number TEXT        NOT NULL UNIQUE,
		status      TEXT        NOT NULL DEFAULT 'AVAILABLE',
		version     BIGINT      NOT NULL DEFAULT 0,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id           BIGSERIAL PRIMARY KEY,
		user_id      TEXT        NOT NULL,
		seat_id      BIGINT      NOT NULL REFERENCES seats(id),
		status       TEXT        NOT NULL,
		amount_cents BIGINT      NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// at most one confirmed booking per seat, whatever the application does
	`CREATE UNIQUE INDEX IF NOT EXISTS bookings_one_confirmed_per_seat
		ON bookings (seat_id) WHERE status = 'CONFIRMED'`,
	`CREATE INDEX IF NOT EXISTS bookings_user_id_idx ON bookings (user_id)`,
	`CREATE INDEX IF NOT EXISTS bookings_seat_status_idx ON bookings (seat_id, status)`,
}

// Migrate creates the seat and booking tables if they are missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
