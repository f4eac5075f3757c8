package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	pkgErrors "github.com/vogiaan1904/ticketbottle-booking/pkg/errors"
)

func book(f *fixture, seat, user string) (*BookSeatOutput, error) {
	return f.booking.BookSeat(context.Background(), BookSeatInput{SeatNumber: seat, UserID: user})
}

func TestConcurrentBookingAwardsSeatOnce(t *testing.T) {
	entered := make(chan string, 1)
	release := make(chan struct{})
	gw := gatewayFunc(func(_ context.Context, userID string, _ int64) error {
		entered <- userID
		<-release
		return nil
	})
	f := newFixture(t, 100, gw)

	var (
		wg       sync.WaitGroup
		aliceOut *BookSeatOutput
		aliceErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		aliceOut, aliceErr = book(f, "A1", "alice")
	}()

	if who := <-entered; who != "alice" {
		t.Fatalf("unexpected payer %q", who)
	}

	if _, err := book(f, "A1", "bob"); !errors.Is(err, ErrSeatBusy) {
		t.Fatalf("expected ErrSeatBusy for bob, got %v", err)
	}

	st, err := f.booking.SeatStatus(context.Background(), "A1")
	if err != nil {
		t.Fatalf("seat status: %v", err)
	}
	if !st.Locked || st.Holder != "alice" || st.Status != models.SeatStatusAvailable {
		t.Fatalf("unexpected in-flight seat status: %+v", st)
	}

	close(release)
	wg.Wait()

	if aliceErr != nil || !aliceOut.Success || aliceOut.BookingID == 0 {
		t.Fatalf("alice should win: %+v %v", aliceOut, aliceErr)
	}

	st, _ = f.booking.SeatStatus(context.Background(), "A1")
	if st.Locked || st.Status != models.SeatStatusSold {
		t.Fatalf("seat should be sold and unlocked: %+v", st)
	}

	if _, err := book(f, "A1", "bob"); !errors.Is(err, ErrSeatNotAvailable) {
		t.Fatalf("expected ErrSeatNotAvailable on retry, got %v", err)
	}

	confirmed := 0
	bookings, _ := f.store.Bookings().FindBySeatAndStatus(context.Background(), 1, models.BookingStatusConfirmed)
	confirmed += len(bookings)
	if confirmed != 1 {
		t.Fatalf("expected exactly one confirmed booking, got %d", confirmed)
	}
}

func TestBookingPaymentDeclineMarksFailed(t *testing.T) {
	gw := gatewayFunc(func(context.Context, string, int64) error { return ErrPaymentDeclined })
	f := newFixture(t, 100, gw)

	if _, err := book(f, "A1", "alice"); !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed, got %v", err)
	}
	if Classify(ErrPaymentFailed) != pkgErrors.KindExternal {
		t.Fatal("payment failure should classify as external")
	}

	bs, _ := f.booking.ListUserBookings(context.Background(), "alice")
	if len(bs) != 1 || bs[0].Status != models.BookingStatusFailed {
		t.Fatalf("expected one FAILED booking, got %+v", bs)
	}

	st, _ := f.booking.SeatStatus(context.Background(), "A1")
	if st.Locked || st.Status != models.SeatStatusAvailable {
		t.Fatalf("seat should stay available and unlocked: %+v", st)
	}
}

func TestBookingVersionConflict(t *testing.T) {
	var f *fixture
	gw := gatewayFunc(func(context.Context, string, int64) error {
		f.store.ForceSeatVersion("A1", 42)
		return nil
	})
	f = newFixture(t, 100, gw)

	if _, err := book(f, "A1", "alice"); !errors.Is(err, ErrBookingConflict) {
		t.Fatalf("expected ErrBookingConflict, got %v", err)
	}

	bs, _ := f.booking.ListUserBookings(context.Background(), "alice")
	if len(bs) != 1 || bs[0].Status != models.BookingStatusFailed {
		t.Fatalf("expected one FAILED booking, got %+v", bs)
	}
	seats, _ := f.booking.ListSeats(context.Background())
	for _, s := range seats {
		if s.SeatNumber == "A1" && s.Status != models.SeatStatusAvailable {
			t.Fatalf("seat must not be sold on conflict: %+v", s)
		}
	}
}

func TestBookingPanicRecoversAndReleases(t *testing.T) {
	gw := gatewayFunc(func(context.Context, string, int64) error { panic("gateway exploded") })
	f := newFixture(t, 100, gw)

	if _, err := book(f, "A1", "alice"); !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}

	if held, _ := f.lockSvc.HolderOf(context.Background(), SeatLockKey("A1")); held != "" {
		t.Fatalf("lock leaked to %q", held)
	}
	bs, _ := f.booking.ListUserBookings(context.Background(), "alice")
	if len(bs) != 1 || bs[0].Status != models.BookingStatusFailed {
		t.Fatalf("pending booking should be repaired to FAILED, got %+v", bs)
	}
}

func TestBookingRequiresActiveSessionWhenQueueIsActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, nil)

	if _, err := f.queue.Join(ctx, "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.queue.Join(ctx, "bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := book(f, "A1", "bob"); !errors.Is(err, ErrJoinQueueFirst) {
		t.Fatalf("expected ErrJoinQueueFirst for waiting bob, got %v", err)
	}
	if _, err := book(f, "A1", "mallory"); !errors.Is(err, ErrJoinQueueFirst) {
		t.Fatalf("expected ErrJoinQueueFirst for stranger, got %v", err)
	}

	out, err := book(f, "A1", "alice")
	if err != nil || !out.Success {
		t.Fatalf("alice should book: %+v %v", out, err)
	}
	if ok, _ := f.queue.IsUserActive(ctx, "alice"); ok {
		t.Fatal("alice should leave the queue after booking")
	}

	if n, _ := f.queue.Promote(ctx, 1); n != 1 {
		t.Fatalf("expected bob to be promoted, got %d", n)
	}
	if _, err := book(f, "A2", "bob"); err != nil {
		t.Fatalf("bob should book once admitted: %v", err)
	}
}

func TestBookingWithoutQueuePressure(t *testing.T) {
	f := newFixture(t, 100, nil)

	out, err := book(f, "A3", "walk-in")
	if err != nil {
		t.Fatalf("idle queue should not gate bookings: %v", err)
	}

	b, err := f.booking.GetBooking(context.Background(), out.BookingID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.Status != models.BookingStatusConfirmed || b.AmountCents != 5000 || b.SeatNumber != "A3" {
		t.Fatalf("unexpected booking: %+v", b)
	}

	if _, err := f.booking.GetBooking(context.Background(), 999); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
	if _, err := book(f, "Z9", "walk-in"); !errors.Is(err, ErrSeatNotFound) {
		t.Fatalf("expected ErrSeatNotFound, got %v", err)
	}
	if _, err := f.booking.SeatStatus(context.Background(), "Z9"); !errors.Is(err, ErrSeatNotFound) {
		t.Fatalf("expected ErrSeatNotFound, got %v", err)
	}
}

func TestBookingLockExpiresIfHolderVanishes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, nil)

	if !f.lockSvc.Acquire(ctx, SeatLockKey("A1"), "ghost", 5*time.Minute) {
		t.Fatal("setup acquire failed")
	}
	if _, err := book(f, "A1", "alice"); !errors.Is(err, ErrSeatBusy) {
		t.Fatalf("expected ErrSeatBusy, got %v", err)
	}

	f.clk.Advance(5*time.Minute + time.Second)
	if _, err := book(f, "A1", "alice"); err != nil {
		t.Fatalf("expired lock should not block: %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := map[error]pkgErrors.Kind{
		ErrSeatBusy:            pkgErrors.KindContention,
		ErrJoinQueueFirst:      pkgErrors.KindContention,
		ErrSeatNotFound:        pkgErrors.KindNotFound,
		ErrSeatNotAvailable:    pkgErrors.KindConflict,
		ErrBookingConflict:     pkgErrors.KindConflict,
		ErrPaymentFailed:       pkgErrors.KindExternal,
		ErrInternal:            pkgErrors.KindInternal,
		errors.New("whatever"): pkgErrors.KindInternal,
	}
	for err, want := range cases {
		if got := Classify(err); got != want {
			t.Errorf("Classify(%v) = %s, want %s", err, got, want)
		}
	}
	if Classify(nil) != "" {
		t.Error("nil error has no kind")
	}
}
