package service

import (
	"errors"

	pkgErrors "github.com/vogiaan1904/ticketbottle-booking/pkg/errors"
)

var (
	ErrJoinQueueFirst   = pkgErrors.NewBusinessError("BKG001", pkgErrors.KindContention, "Virtual queue is active. Please join the queue first")
	ErrSeatBusy         = pkgErrors.NewBusinessError("BKG002", pkgErrors.KindContention, "Seat is currently being processed by another user")
	ErrSeatNotFound     = pkgErrors.NewBusinessError("BKG003", pkgErrors.KindNotFound, "Seat not found")
	ErrSeatNotAvailable = pkgErrors.NewBusinessError("BKG004", pkgErrors.KindConflict, "Seat is not available")
	ErrPaymentFailed    = pkgErrors.NewBusinessError("BKG005", pkgErrors.KindExternal, "Payment processing failed")
	ErrBookingConflict  = pkgErrors.NewBusinessError("BKG006", pkgErrors.KindConflict, "Seat was modified concurrently, please retry")
	ErrInternal         = pkgErrors.NewBusinessError("BKG007", pkgErrors.KindInternal, "Internal error occurred during booking")
	ErrBookingNotFound  = pkgErrors.NewBusinessError("BKG008", pkgErrors.KindNotFound, "Booking not found")
	ErrQueueUnavailable = pkgErrors.NewBusinessError("BKG009", pkgErrors.KindExternal, "Queue state is unavailable, please retry")

	ErrLockBusy        = pkgErrors.NewBusinessError("LCK001", pkgErrors.KindContention, "Lock is held by another holder")
	ErrPaymentDeclined = pkgErrors.NewBusinessError("PAY001", pkgErrors.KindExternal, "Payment declined")

	ErrTokenNotFound  = pkgErrors.NewBusinessError("QUE001", pkgErrors.KindNotFound, "Token not found or expired")
	ErrUserNotInQueue = pkgErrors.NewBusinessError("QUE002", pkgErrors.KindNotFound, "User is not in the queue")
	ErrInvalidUser    = pkgErrors.NewBusinessError("QUE003", pkgErrors.KindInvalid, "User id is required")
)

// Classify maps an error returned by this package to its failure kind.
// Errors this package does not know about are internal.
func Classify(err error) pkgErrors.Kind {
	if err == nil {
		return ""
	}
	var be *pkgErrors.BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return pkgErrors.KindInternal
}
