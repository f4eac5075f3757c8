package errors

// Kind classifies a failure by how a caller should react to it.
type Kind string

const (
	KindContention Kind = "CONTENTION"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindExternal   Kind = "EXTERNAL"
	KindInvalid    Kind = "INVALID"
	KindInternal   Kind = "INTERNAL"
)

type BusinessError struct {
	Code    string
	Message string
	Kind    Kind
}

func NewBusinessError(code string, kind Kind, message string) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

func (e *BusinessError) Error() string {
	return e.Message
}
