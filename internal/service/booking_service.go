package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-booking/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type BookingService interface {
	BookSeat(ctx context.Context, in BookSeatInput) (*BookSeatOutput, error)
	SeatStatus(ctx context.Context, seatNumber string) (*SeatStatusOutput, error)
	ListSeats(ctx context.Context) ([]models.Seat, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error)
}

type bookingService struct {
	queueSvc QueueService
	lockSvc  LockService
	payment  PaymentGateway
	seats    repository.SeatRepository
	bookings repository.BookingRepository
	prod     producer.Producer
	m        *metrics.Metrics
	clk      clock.Clock
	cfg      config.BookingConfig
	l        logger.Logger
}

func NewBookingService(
	queueSvc QueueService,
	lockSvc LockService,
	payment PaymentGateway,
	seats repository.SeatRepository,
	bookings repository.BookingRepository,
	prod producer.Producer,
	m *metrics.Metrics,
	clk clock.Clock,
	cfg config.BookingConfig,
	l logger.Logger,
) BookingService {
	return &bookingService{
		queueSvc: queueSvc,
		lockSvc:  lockSvc,
		payment:  payment,
		seats:    seats,
		bookings: bookings,
		prod:     prod,
		m:        m,
		clk:      clk,
		cfg:      cfg,
		l:        l,
	}
}

func (s *bookingService) BookSeat(ctx context.Context, in BookSeatInput) (*BookSeatOutput, error) {
	start := s.clk.Now()
	ctx = s.l.WithFields(ctx, "seat_number", in.SeatNumber, "user_id", in.UserID)

	out, err := s.bookSeat(ctx, in)

	outcome := "confirmed"
	if err != nil {
		outcome = strings.ToLower(string(Classify(err)))
	}
	s.m.BookingFinished(outcome, s.clk.Now().Sub(start).Seconds())

	if err != nil {
		s.l.Info(ctx, "Booking rejected", "reason", err.Error())
		return nil, err
	}
	return out, nil
}

func (s *bookingService) bookSeat(ctx context.Context, in BookSeatInput) (*BookSeatOutput, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, ErrInvalidUser
	}

	if err := s.checkQueue(ctx, in.UserID); err != nil {
		return nil, err
	}

	var out *BookSeatOutput
	err := s.lockSvc.WithLock(ctx, SeatLockKey(in.SeatNumber), in.UserID, s.cfg.LockTTL, func(ctx context.Context) error {
		var err error
		out, err = s.bookLocked(ctx, in)
		if err != nil {
			return err
		}

		// the session slot is given back before the seat lock
		if err := s.queueSvc.Remove(ctx, in.UserID, kafka.LeftReasonCompleted); err != nil && !errors.Is(err, ErrUserNotInQueue) {
			s.l.Warn(ctx, "Failed to remove user from queue after booking", "error", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLockBusy) {
			return nil, ErrSeatBusy
		}
		return nil, err
	}

	return out, nil
}

// checkQueue admits everyone while the queue is idle. Once it is active only
// users holding an active session may book.
func (s *bookingService) checkQueue(ctx context.Context, userID string) error {
	stats, err := s.queueSvc.Stats(ctx)
	if err != nil {
		return err
	}
	if !stats.QueueActive {
		return nil
	}

	active, err := s.queueSvc.IsUserActive(ctx, userID)
	if err != nil {
		s.l.Errorf(ctx, "service.bookingService.checkQueue: %v", err)
		return ErrQueueUnavailable
	}
	if !active {
		return ErrJoinQueueFirst
	}
	return nil
}

func (s *bookingService) bookLocked(ctx context.Context, in BookSeatInput) (out *BookSeatOutput, err error) {
	var seatID int64
	defer func() {
		if r := recover(); r != nil {
			s.l.Error(ctx, "Booking panicked", "panic", fmt.Sprint(r))
			if seatID != 0 {
				s.failPending(ctx, seatID)
			}
			out, err = nil, ErrInternal
		}
	}()

	seat, err := s.seats.FindByNumber(ctx, in.SeatNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSeatNotFound
		}
		s.l.Errorf(ctx, "service.bookingService.bookLocked: find seat: %v", err)
		return nil, ErrInternal
	}
	seatID = seat.ID

	if !seat.IsAvailable() {
		return nil, ErrSeatNotAvailable
	}

	b := &models.Booking{
		UserID:      in.UserID,
		SeatID:      seat.ID,
		SeatNumber:  seat.SeatNumber,
		Status:      models.BookingStatusPending,
		AmountCents: s.cfg.PriceCents,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		s.l.Errorf(ctx, "service.bookingService.bookLocked: create booking: %v", err)
		return nil, ErrInternal
	}

	if err := s.payment.Charge(ctx, in.UserID, s.cfg.PriceCents); err != nil {
		s.fail(ctx, b, err.Error())
		if errors.Is(err, ErrPaymentDeclined) {
			return nil, ErrPaymentFailed
		}
		s.l.Errorf(ctx, "service.bookingService.bookLocked: charge: %v", err)
		return nil, ErrPaymentFailed
	}

	if err := s.bookings.ConfirmSale(ctx, seat.ID, seat.Version, b.ID); err != nil {
		s.fail(ctx, b, err.Error())
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrBookingConflict
		}
		s.l.Errorf(ctx, "service.bookingService.bookLocked: confirm sale: %v", err)
		return nil, ErrInternal
	}

	if s.prod != nil {
		if err := s.prod.PublishBookingConfirmed(ctx, kafka.BookingConfirmedEvent{
			BookingID:   b.ID,
			SeatNumber:  seat.SeatNumber,
			UserID:      in.UserID,
			AmountCents: b.AmountCents,
			ConfirmedAt: s.clk.Now(),
		}); err != nil {
			s.l.Warn(ctx, "Failed to publish booking confirmed event", "booking_id", b.ID, "error", err)
		}
	}

	s.l.Info(ctx, "Seat booked", "booking_id", b.ID)

	return &BookSeatOutput{
		Success:    true,
		BookingID:  b.ID,
		SeatNumber: seat.SeatNumber,
		UserID:     in.UserID,
		Message:    fmt.Sprintf("Seat %s booked successfully", seat.SeatNumber),
	}, nil
}

func (s *bookingService) fail(ctx context.Context, b *models.Booking, reason string) {
	if err := s.bookings.UpdateStatus(ctx, b.ID, models.BookingStatusFailed); err != nil {
		s.l.Errorf(ctx, "service.bookingService.fail: booking %d: %v", b.ID, err)
	}

	if s.prod != nil {
		if err := s.prod.PublishBookingFailed(ctx, kafka.BookingFailedEvent{
			BookingID:  b.ID,
			SeatNumber: b.SeatNumber,
			UserID:     b.UserID,
			Reason:     reason,
		}); err != nil {
			s.l.Warn(ctx, "Failed to publish booking failed event", "booking_id", b.ID, "error", err)
		}
	}
}

// failPending marks any booking still PENDING on the seat as FAILED. The
// caller holds the seat lock, so a PENDING booking can only be its own.
func (s *bookingService) failPending(ctx context.Context, seatID int64) {
	pending, err := s.bookings.FindBySeatAndStatus(ctx, seatID, models.BookingStatusPending)
	if err != nil {
		s.l.Errorf(ctx, "service.bookingService.failPending: %v", err)
		return
	}
	for i := range pending {
		s.fail(ctx, &pending[i], "internal error")
	}
}

func (s *bookingService) SeatStatus(ctx context.Context, seatNumber string) (*SeatStatusOutput, error) {
	seat, err := s.seats.FindByNumber(ctx, seatNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSeatNotFound
		}
		s.l.Errorf(ctx, "service.bookingService.SeatStatus: %v", err)
		return nil, ErrInternal
	}

	holder, locked := s.lockSvc.HolderOf(ctx, SeatLockKey(seatNumber))

	out := &SeatStatusOutput{
		SeatNumber: seat.SeatNumber,
		Status:     seat.Status,
		Locked:     locked,
		Holder:     holder,
	}
	switch {
	case !seat.IsAvailable():
		out.Message = "Seat is sold"
	case locked:
		out.Message = "Seat is being booked by another user"
	default:
		out.Message = "Seat is available"
	}

	return out, nil
}

func (s *bookingService) ListSeats(ctx context.Context) ([]models.Seat, error) {
	seats, err := s.seats.List(ctx)
	if err != nil {
		s.l.Errorf(ctx, "service.bookingService.ListSeats: %v", err)
		return nil, ErrInternal
	}
	return seats, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		s.l.Errorf(ctx, "service.bookingService.GetBooking: %v", err)
		return nil, ErrInternal
	}
	return b, nil
}

func (s *bookingService) ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	bs, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		s.l.Errorf(ctx, "service.bookingService.ListUserBookings: %v", err)
		return nil, ErrInternal
	}
	return bs, nil
}
