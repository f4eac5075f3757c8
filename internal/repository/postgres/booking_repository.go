package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

const (
	bookingColumns = `b.id, b.user_id, b.seat_id, s.seat_number, b.status, b.amount_cents, b.created_at, b.updated_at`
	bookingFrom    = ` FROM bookings b JOIN seats s ON s.id = b.seat_id`

	uniqueViolation = "23505"
)

type pgBookingRepository struct {
	db *pgxpool.Pool
	l  logger.Logger
}

func NewBookingRepository(db *pgxpool.Pool, l logger.Logger) repository.BookingRepository {
	return &pgBookingRepository{
		db: db,
		l:  l,
	}
}

func (r *pgBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO bookings (user_id, seat_id, status, amount_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		b.UserID, b.SeatID, string(b.Status), b.AmountCents,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		r.l.Errorf(ctx, "pgBookingRepository.Create: %v", err)
		return err
	}

	return nil
}

func (r *pgBookingRepository) FindByID(ctx context.Context, id int64) (*models.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+bookingFrom+` WHERE b.id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "pgBookingRepository.FindByID: %v", err)
		return nil, err
	}
	return b, nil
}

func (r *pgBookingRepository) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return r.list(ctx, "ListByUser", `SELECT `+bookingColumns+bookingFrom+` WHERE b.user_id=$1 ORDER BY b.id`, userID)
}

func (r *pgBookingRepository) FindBySeatAndStatus(ctx context.Context, seatID int64, status models.BookingStatus) ([]models.Booking, error) {
	return r.list(ctx, "FindBySeatAndStatus",
		`SELECT `+bookingColumns+bookingFrom+` WHERE b.seat_id=$1 AND b.status=$2 ORDER BY b.id`,
		seatID, string(status))
}

func (r *pgBookingRepository) UpdateStatus(ctx context.Context, id int64, to models.BookingStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE bookings SET status=$2, updated_at=now()
		WHERE id=$1 AND status = ANY($3)`,
		id, string(to), allowedFrom(to))
	if err != nil {
		r.l.Errorf(ctx, "pgBookingRepository.UpdateStatus: %v", err)
		return err
	}

	if tag.RowsAffected() == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrInvalidTransition
	}

	return nil
}

func (r *pgBookingRepository) ConfirmSale(ctx context.Context, seatID, expectedVersion, bookingID int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		r.l.Errorf(ctx, "pgBookingRepository.ConfirmSale: %v", err)
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE seats SET status='SOLD', version=version+1, updated_at=now()
		WHERE id=$1 AND version=$2 AND status='AVAILABLE'`,
		seatID, expectedVersion)
	if err != nil {
		r.l.Errorf(ctx, "pgBookingRepository.ConfirmSale: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrVersionConflict
	}

	tag, err = tx.Exec(ctx, `
		UPDATE bookings SET status='CONFIRMED', updated_at=now()
		WHERE id=$1 AND status='PENDING'`,
		bookingID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrVersionConflict
		}
		r.l.Errorf(ctx, "pgBookingRepository.ConfirmSale: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrInvalidTransition
	}

	if err := tx.Commit(ctx); err != nil {
		r.l.Errorf(ctx, "pgBookingRepository.ConfirmSale: %v", err)
		return err
	}

	return nil
}

func (r *pgBookingRepository) list(ctx context.Context, op, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.l.Errorf(ctx, "pgBookingRepository.%s: %v", op, err)
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			r.l.Errorf(ctx, "pgBookingRepository.%s: %v", op, err)
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var (
		b      models.Booking
		status string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.SeatID, &b.SeatNumber, &status, &b.AmountCents, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = models.BookingStatus(status)
	return &b, nil
}

// allowedFrom lists the statuses a booking may be in to move to `to`.
func allowedFrom(to models.BookingStatus) []string {
	var out []string
	for _, from := range []models.BookingStatus{
		models.BookingStatusPending,
		models.BookingStatusConfirmed,
		models.BookingStatusFailed,
	} {
		if models.CanTransition(from, to) {
			out = append(out, string(from))
		}
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
