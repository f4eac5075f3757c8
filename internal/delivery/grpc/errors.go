package grpc

import (
	"errors"

	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	pkgErrors "github.com/vogiaan1904/ticketbottle-booking/pkg/errors"
	"google.golang.org/grpc/codes"
)

var errInvalidArgument = pkgErrors.NewGRPCError("REQ001", "Invalid request").WithCode(codes.InvalidArgument)

var grpcCodes = map[*pkgErrors.BusinessError]codes.Code{
	service.ErrJoinQueueFirst:   codes.FailedPrecondition,
	service.ErrSeatBusy:         codes.Aborted,
	service.ErrSeatNotFound:     codes.NotFound,
	service.ErrSeatNotAvailable: codes.FailedPrecondition,
	service.ErrPaymentFailed:    codes.Aborted,
	service.ErrBookingConflict:  codes.Aborted,
	service.ErrInternal:         codes.Internal,
	service.ErrBookingNotFound:  codes.NotFound,
	service.ErrQueueUnavailable: codes.Unavailable,
	service.ErrTokenNotFound:    codes.NotFound,
	service.ErrUserNotInQueue:   codes.NotFound,
	service.ErrInvalidUser:      codes.InvalidArgument,
}

func mapGRPCError(err error) error {
	var be *pkgErrors.BusinessError
	if errors.As(err, &be) {
		if c, ok := grpcCodes[be]; ok {
			return pkgErrors.NewGRPCError(be.Code, be.Message).WithCode(c)
		}
	}
	var ge *pkgErrors.GRPCError
	if errors.As(err, &ge) {
		return ge
	}
	return err
}
