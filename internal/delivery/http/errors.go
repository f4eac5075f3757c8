package http

import (
	"errors"
	"net/http"

	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	pkgErrors "github.com/vogiaan1904/ticketbottle-booking/pkg/errors"
)

var (
	errInvalidBody   = pkgErrors.NewHTTPError(10000, "Invalid request body").WithStatus(http.StatusBadRequest)
	errInvalidParam  = pkgErrors.NewHTTPError(10001, "Invalid path parameter").WithStatus(http.StatusBadRequest)
	errValidation    = pkgErrors.NewHTTPError(10002, "Validation failed").WithStatus(http.StatusBadRequest)
	errTooManyReqs   = pkgErrors.NewHTTPError(10003, "Too many requests").WithStatus(http.StatusTooManyRequests)
	errStreamUnsupp  = pkgErrors.NewHTTPError(10004, "Streaming is not supported").WithStatus(http.StatusInternalServerError)
	errInternalError = pkgErrors.NewHTTPError(10500, "Internal server error").WithStatus(http.StatusInternalServerError)
)

var serviceErrors = map[*pkgErrors.BusinessError]*pkgErrors.HTTPError{
	service.ErrJoinQueueFirst:   pkgErrors.NewHTTPError(20001, service.ErrJoinQueueFirst.Message).WithStatus(http.StatusConflict),
	service.ErrSeatBusy:         pkgErrors.NewHTTPError(20002, service.ErrSeatBusy.Message).WithStatus(http.StatusConflict),
	service.ErrSeatNotFound:     pkgErrors.NewHTTPError(20003, service.ErrSeatNotFound.Message).WithStatus(http.StatusNotFound),
	service.ErrSeatNotAvailable: pkgErrors.NewHTTPError(20004, service.ErrSeatNotAvailable.Message).WithStatus(http.StatusConflict),
	service.ErrPaymentFailed:    pkgErrors.NewHTTPError(20005, service.ErrPaymentFailed.Message).WithStatus(http.StatusConflict),
	service.ErrBookingConflict:  pkgErrors.NewHTTPError(20006, service.ErrBookingConflict.Message).WithStatus(http.StatusConflict),
	service.ErrInternal:         pkgErrors.NewHTTPError(20007, service.ErrInternal.Message).WithStatus(http.StatusInternalServerError),
	service.ErrBookingNotFound:  pkgErrors.NewHTTPError(20008, service.ErrBookingNotFound.Message).WithStatus(http.StatusNotFound),
	service.ErrQueueUnavailable: pkgErrors.NewHTTPError(20009, service.ErrQueueUnavailable.Message).WithStatus(http.StatusServiceUnavailable),

	service.ErrTokenNotFound:  pkgErrors.NewHTTPError(30001, service.ErrTokenNotFound.Message).WithStatus(http.StatusNotFound),
	service.ErrUserNotInQueue: pkgErrors.NewHTTPError(30002, service.ErrUserNotInQueue.Message).WithStatus(http.StatusNotFound),
	service.ErrInvalidUser:    pkgErrors.NewHTTPError(30003, service.ErrInvalidUser.Message).WithStatus(http.StatusBadRequest),
}

func mapHTTPError(err error) error {
	var be *pkgErrors.BusinessError
	if errors.As(err, &be) {
		if he, ok := serviceErrors[be]; ok {
			return he
		}
	}
	var he *pkgErrors.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return errInternalError
}
