package apperror

import "fmt"

// AppError is the error value used for every expected business failure.
// Services return it instead of panicking or inventing ad-hoc error
// strings; handlers flatten it into the response envelope via ToHTTP.
type AppError struct {
	Code       string // stable machine-readable code (e.g. INSUFFICIENT_LEAVE_BALANCE)
	Message    string // user-facing message
	HTTPStatus int
	Err        error // wrapped cause (optional)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}
