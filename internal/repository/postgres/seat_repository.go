package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

const seatColumns = `id, seat_number, status, version, updated_at`

type pgSeatRepository struct {
	db *pgxpool.Pool
	l  logger.Logger
}

func NewSeatRepository(db *pgxpool.Pool, l logger.Logger) repository.SeatRepository {
	return &pgSeatRepository{
		db: db,
		l:  l,
	}
}

func (r *pgSeatRepository) List(ctx context.Context) ([]models.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT `+seatColumns+` FROM seats ORDER BY seat_number`)
	if err != nil {
		r.l.Errorf(ctx, "pgSeatRepository.List: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			r.l.Errorf(ctx, "pgSeatRepository.List: %v", err)
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *pgSeatRepository) FindByNumber(ctx context.Context, seatNumber string) (*models.Seat, error) {
	row := r.db.QueryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE seat_number=$1`, seatNumber)
	return r.scanOne(ctx, "FindByNumber", row)
}

func (r *pgSeatRepository) FindByID(ctx context.Context, id int64) (*models.Seat, error) {
	row := r.db.QueryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE id=$1`, id)
	return r.scanOne(ctx, "FindByID", row)
}

func (r *pgSeatRepository) Seed(ctx context.Context, seatNumbers []string) (int, error) {
	if len(seatNumbers) == 0 {
		return 0, nil
	}

	tag, err := r.db.Exec(ctx, `
		INSERT INTO seats (seat_number, status)
		SELECT n, 'AVAILABLE' FROM unnest($1::text[]) AS n
		ON CONFLICT (seat_number) DO NOTHING`, seatNumbers)
	if err != nil {
		r.l.Errorf(ctx, "pgSeatRepository.Seed: %v", err)
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}

func (r *pgSeatRepository) scanOne(ctx context.Context, op string, row pgx.Row) (*models.Seat, error) {
	s, err := scanSeat(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "pgSeatRepository.%s: %v", op, err)
		return nil, err
	}
	return s, nil
}

func scanSeat(row pgx.Row) (*models.Seat, error) {
	var (
		s      models.Seat
		status string
	)
	if err := row.Scan(&s.ID, &s.SeatNumber, &status, &s.Version, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = models.SeatStatus(status)
	return &s, nil
}
