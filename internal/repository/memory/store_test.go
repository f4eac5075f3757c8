package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
)

func TestConfirmSaleChecksVersion(t *testing.T) {
	ctx := context.Background()
	store := NewStore(clock.NewManual(epoch))
	seats, bookings := store.Seats(), store.Bookings()

	if n, _ := seats.Seed(ctx, []string{"A1", "A2"}); n != 2 {
		t.Fatalf("expected 2 seeded seats, got %d", n)
	}
	seat, _ := seats.FindByNumber(ctx, "A1")

	b := &models.Booking{UserID: "alice", SeatID: seat.ID, Status: models.BookingStatusPending}
	if err := bookings.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	store.ForceSeatVersion("A1", seat.Version+1)
	if err := bookings.ConfirmSale(ctx, seat.ID, seat.Version, b.ID); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	after, _ := seats.FindByNumber(ctx, "A1")
	if after.Status != models.SeatStatusAvailable {
		t.Fatalf("seat changed on conflict: %s", after.Status)
	}

	if err := bookings.ConfirmSale(ctx, seat.ID, after.Version, b.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	sold, _ := seats.FindByNumber(ctx, "A1")
	if sold.Status != models.SeatStatusSold || sold.Version != after.Version+1 {
		t.Fatalf("unexpected seat after sale %+v", sold)
	}
	got, _ := bookings.FindByID(ctx, b.ID)
	if got.Status != models.BookingStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", got.Status)
	}
}

func TestUpdateStatusRejectsTerminalTransitions(t *testing.T) {
	ctx := context.Background()
	store := NewStore(clock.NewManual(epoch))
	store.Seats().Seed(ctx, []string{"B1"})
	seat, _ := store.Seats().FindByNumber(ctx, "B1")

	b := &models.Booking{UserID: "u", SeatID: seat.ID, Status: models.BookingStatusPending}
	store.Bookings().Create(ctx, b)

	if err := store.Bookings().UpdateStatus(ctx, b.ID, models.BookingStatusFailed); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Bookings().UpdateStatus(ctx, b.ID, models.BookingStatusConfirmed); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	failed, _ := store.Bookings().FindBySeatAndStatus(ctx, seat.ID, models.BookingStatusFailed)
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed booking, got %d", len(failed))
	}
}

func TestSeedSkipsExistingSeats(t *testing.T) {
	ctx := context.Background()
	seats := NewStore(clock.NewManual(epoch)).Seats()

	seats.Seed(ctx, []string{"A1"})
	n, _ := seats.Seed(ctx, []string{"A1", "A2"})
	if n != 1 {
		t.Fatalf("expected 1 new seat, got %d", n)
	}
	all, _ := seats.List(ctx)
	if len(all) != 2 || all[0].SeatNumber != "A1" {
		t.Fatalf("unexpected seats %v", all)
	}
}

func TestNotifierFansOut(t *testing.T) {
	ctx := context.Background()
	n := NewNotifier()

	a, _ := n.Subscribe(ctx)
	b, _ := n.Subscribe(ctx)
	defer b.Close()

	n.Publish(ctx, models.QueueUpdate{Pool: "default", UpdateType: models.UpdateTypeUserAdmitted, Tokens: []string{"t1"}})

	for _, sub := range []interface {
		Updates() <-chan models.QueueUpdate
	}{a, b} {
		select {
		case upd := <-sub.Updates():
			if !upd.Affects("t1") {
				t.Fatalf("unexpected update %+v", upd)
			}
		default:
			t.Fatal("subscriber got nothing")
		}
	}

	a.Close()
	if _, ok := <-a.Updates(); ok {
		t.Fatal("expected closed channel")
	}
}
