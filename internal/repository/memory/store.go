package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
)

// Store holds seats and bookings behind a single mutex, which makes
// ConfirmSale a single unit of work.
type Store struct {
	mu            sync.Mutex
	clk           clock.Clock
	seats         map[int64]*models.Seat
	seatsByNumber map[string]int64
	bookings      map[int64]*models.Booking
	nextSeatID    int64
	nextBookingID int64
}

func NewStore(clk clock.Clock) *Store {
	return &Store{
		clk:           clk,
		seats:         make(map[int64]*models.Seat),
		seatsByNumber: make(map[string]int64),
		bookings:      make(map[int64]*models.Booking),
	}
}

func (s *Store) Seats() repository.SeatRepository {
	return &seatRepository{s: s}
}

func (s *Store) Bookings() repository.BookingRepository {
	return &bookingRepository{s: s}
}

// ForceSeatVersion bumps a seat's version the way an out-of-band writer would.
func (s *Store) ForceSeatVersion(seatNumber string, version int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.seatsByNumber[seatNumber]; ok {
		s.seats[id].Version = version
	}
}

type seatRepository struct {
	s *Store
}

func (r *seatRepository) List(_ context.Context) ([]models.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.Seat, 0, len(r.s.seats))
	for _, seat := range r.s.seats {
		out = append(out, *seat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out, nil
}

func (r *seatRepository) FindByNumber(_ context.Context, seatNumber string) (*models.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.seatsByNumber[seatNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	seat := *r.s.seats[id]
	return &seat, nil
}

func (r *seatRepository) FindByID(_ context.Context, id int64) (*models.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seat, ok := r.s.seats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *seat
	return &cp, nil
}

func (r *seatRepository) Seed(_ context.Context, seatNumbers []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	created := 0
	for _, n := range seatNumbers {
		if _, ok := r.s.seatsByNumber[n]; ok {
			continue
		}
		r.s.nextSeatID++
		r.s.seats[r.s.nextSeatID] = &models.Seat{
			ID:         r.s.nextSeatID,
			SeatNumber: n,
			Status:     models.SeatStatusAvailable,
			UpdatedAt:  r.s.clk.Now(),
		}
		r.s.seatsByNumber[n] = r.s.nextSeatID
		created++
	}
	return created, nil
}

type bookingRepository struct {
	s *Store
}

func (r *bookingRepository) Create(_ context.Context, b *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seat, ok := r.s.seats[b.SeatID]
	if !ok {
		return repository.ErrNotFound
	}

	r.s.nextBookingID++
	now := r.s.clk.Now()
	b.ID = r.s.nextBookingID
	b.SeatNumber = seat.SeatNumber
	b.CreatedAt = now
	b.UpdatedAt = now

	cp := *b
	r.s.bookings[b.ID] = &cp
	return nil
}

func (r *bookingRepository) FindByID(_ context.Context, id int64) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *bookingRepository) ListByUser(_ context.Context, userID string) ([]models.Booking, error) {
	return r.filter(func(b *models.Booking) bool { return b.UserID == userID }), nil
}

func (r *bookingRepository) FindBySeatAndStatus(_ context.Context, seatID int64, status models.BookingStatus) ([]models.Booking, error) {
	return r.filter(func(b *models.Booking) bool { return b.SeatID == seatID && b.Status == status }), nil
}

func (r *bookingRepository) filter(keep func(*models.Booking) bool) []models.Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.Booking, 0)
	for _, b := range r.s.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *bookingRepository) UpdateStatus(_ context.Context, id int64, to models.BookingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !models.CanTransition(b.Status, to) {
		return repository.ErrInvalidTransition
	}
	b.Status = to
	b.UpdatedAt = r.s.clk.Now()
	return nil
}

func (r *bookingRepository) ConfirmSale(_ context.Context, seatID, expectedVersion, bookingID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seat, ok := r.s.seats[seatID]
	if !ok {
		return repository.ErrNotFound
	}
	b, ok := r.s.bookings[bookingID]
	if !ok {
		return repository.ErrNotFound
	}
	if seat.Version != expectedVersion || !seat.IsAvailable() {
		return repository.ErrVersionConflict
	}
	if !models.CanTransition(b.Status, models.BookingStatusConfirmed) {
		return repository.ErrInvalidTransition
	}

	now := r.s.clk.Now()
	seat.Status = models.SeatStatusSold
	seat.Version++
	seat.UpdatedAt = now
	b.Status = models.BookingStatusConfirmed
	b.UpdatedAt = now
	return nil
}
