package response

import (
	"encoding/json"
	"net/http"

	pkgErrors "github.com/vogiaan1904/ticketbottle-booking/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Resp struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Errors    any    `json:"errors,omitempty"`
}

func parseHttpError(err error) (int, Resp) {
	switch parsedErr := err.(type) {
	case *pkgErrors.HTTPError:
		statusCode := parsedErr.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusBadRequest
		}

		return statusCode, Resp{
			ErrorCode: parsedErr.Code,
			Message:   parsedErr.Message,
		}
	default:
		return http.StatusInternalServerError, Resp{
			ErrorCode: 500,
			Message:   "Internal server error",
		}
	}
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// Error renders err, which is expected to be an *errors.HTTPError. Anything
// else becomes a 500 without leaking details.
func Error(w http.ResponseWriter, err error, details any) error {
	statusCode, body := parseHttpError(err)
	body.Errors = details
	return JSON(w, statusCode, body)
}

func ParseGRPCError(err error) error {
	switch parsedErr := err.(type) {
	case *pkgErrors.GRPCError:
		grpcCode := parsedErr.GrpcCode
		if grpcCode == 0 {
			grpcCode = codes.InvalidArgument
		}
		return status.Error(grpcCode, parsedErr.Error())
	default:
		return status.Error(codes.Internal, "Internal server error")
	}
}
