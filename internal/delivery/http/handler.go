package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/response"
)

type HTTPHandler struct {
	queueSvc   service.QueueService
	bookingSvc service.BookingService
	processor  service.QueueProcessor
	logger     logger.Logger
	validator  *validator.Validate
	// streamTimeout bounds a single SSE connection.
	streamTimeout time.Duration
}

func NewHTTPHandler(
	queueSvc service.QueueService,
	bookingSvc service.BookingService,
	processor service.QueueProcessor,
	logger logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		queueSvc:      queueSvc,
		bookingSvc:    bookingSvc,
		processor:     processor,
		logger:        logger,
		validator:     validator.New(),
		streamTimeout: 5 * time.Minute,
	}
}

type processQueueRequest struct {
	BatchSize int `json:"batch_size" validate:"gte=0,lte=1000"`
}

type processQueueResponse struct {
	Success  bool                     `json:"success"`
	Admitted int                      `json:"admitted"`
	Stats    service.QueueStatsOutput `json:"stats"`
	Message  string                   `json:"message"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string                  `json:"status"`
	Service   string                  `json:"service"`
	Processor service.ProcessorStatus `json:"processor"`
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, healthResponse{
		Status:    "healthy",
		Service:   "booking-service",
		Processor: h.processor.GetStatus(),
	})
}

func (h *HTTPHandler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	var req service.JoinQueueInput
	if !h.decode(w, r, &req, false) {
		return
	}

	out, err := h.queueSvc.Join(r.Context(), req.UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, out)
}

func (h *HTTPHandler) GetQueueStatus(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	out, err := h.queueSvc.Status(r.Context(), token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	code := http.StatusOK
	switch out.Status {
	case models.TokenStateWaiting:
		code = http.StatusAccepted
	case models.TokenStateNotFound:
		code = http.StatusNotFound
	}
	h.respondJSON(w, r, code, out)
}

func (h *HTTPHandler) GetQueueStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.queueSvc.Stats(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, out)
}

func (h *HTTPHandler) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	var req processQueueRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	n, err := h.processor.ProcessQueue(r.Context(), req.BatchSize)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	stats, err := h.queueSvc.Stats(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, processQueueResponse{
		Success:  true,
		Admitted: n,
		Stats:    stats,
		Message:  "Queue processed",
	})
}

func (h *HTTPHandler) RemoveActiveUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	if err := h.queueSvc.Remove(r.Context(), userID, kafka.LeftReasonRemoved); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, messageResponse{Success: true, Message: "User removed from queue"})
}

func (h *HTTPHandler) ResetQueue(w http.ResponseWriter, r *http.Request) {
	if err := h.queueSvc.Reset(r.Context()); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, messageResponse{Success: true, Message: "Queue reset"})
}

func (h *HTTPHandler) BookSeat(w http.ResponseWriter, r *http.Request) {
	var req service.BookSeatInput
	if !h.decode(w, r, &req, false) {
		return
	}

	// a client that hangs up mid-payment must not abandon a half-finished booking
	ctx := context.WithoutCancel(r.Context())

	out, err := h.bookingSvc.BookSeat(ctx, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, out)
}

func (h *HTTPHandler) GetSeatStatus(w http.ResponseWriter, r *http.Request) {
	out, err := h.bookingSvc.SeatStatus(r.Context(), chi.URLParam(r, "seatNumber"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, out)
}

func (h *HTTPHandler) ListSeats(w http.ResponseWriter, r *http.Request) {
	seats, err := h.bookingSvc.ListSeats(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, seats)
}

func (h *HTTPHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(w, r, errInvalidParam)
		return
	}

	b, err := h.bookingSvc.GetBooking(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, b)
}

func (h *HTTPHandler) ListUserBookings(w http.ResponseWriter, r *http.Request) {
	bs, err := h.bookingSvc.ListUserBookings(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, bs)
}

// decode reads and validates a JSON body. An empty body is accepted only when
// optional is set.
func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			h.respondError(w, r, errInvalidBody)
			return false
		}
	}

	if err := h.validator.Struct(dst); err != nil {
		var details []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details = append(details, fe.Field()+" failed on "+fe.Tag())
			}
		}
		if err := response.Error(w, errValidation, details); err != nil {
			h.logger.Warnf(r.Context(), "delivery.http.decode: %v", err)
		}
		return false
	}

	return true
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	if err := response.JSON(w, statusCode, data); err != nil {
		h.logger.Warnf(r.Context(), "delivery.http.respondJSON: %v", err)
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	mapped := mapHTTPError(err)
	if mapped == errInternalError {
		h.logger.Errorf(r.Context(), "delivery.http: %v", err)
	} else {
		h.logger.Debug(r.Context(), "Error response", "error", err.Error())
	}

	if err := response.Error(w, mapped, nil); err != nil {
		h.logger.Warnf(r.Context(), "delivery.http.respondError: %v", err)
	}
}
