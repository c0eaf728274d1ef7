package rpc

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jmehdipour/typed-rpc/api"
)

// ValidationError reports call input that does not match the procedure shape.
// Field is empty when the input as a whole is not an object. Got describes
// the offending value; Err is the underlying checker error.
type ValidationError struct {
	Procedure string
	Field     string
	Expected  api.Type
	Got       string
	Err       error
}

func (e *ValidationError) Error() string {
	got := e.Got
	if got == "" {
		got = "nothing"
	}
	if e.Field == "" {
		return fmt.Sprintf("invalid input: expected object, got %s", got)
	}
	return fmt.Sprintf("invalid input field %q: expected %s, got %s", e.Field, e.Expected, got)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError is returned when no procedure is registered under a name.
type NotFoundError struct {
	Procedure string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("procedure %q not found", e.Procedure)
}

// RegistrationError is returned by Registry.Register.
type RegistrationError struct {
	Procedure string
	Reason    string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register procedure %q: %s", e.Procedure, e.Reason)
}

// SigningError wraps a failure to produce a signed credential.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return fmt.Sprintf("sign token: %v", e.Err) }

func (e *SigningError) Unwrap() error { return e.Err }

// ParseError is returned when a request body is not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse input: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// CodeOf maps err to the wire error code.
func CodeOf(err error) string {
	var (
		pe *ParseError
		ve *ValidationError
		ne *NotFoundError
	)
	switch {
	case errors.As(err, &pe):
		return api.CodeParseError
	case errors.As(err, &ve):
		return api.CodeBadRequest
	case errors.As(err, &ne):
		return api.CodeNotFound
	default:
		return api.CodeInternalError
	}
}

// HTTPStatus maps err to the status used for single-call responses.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case api.CodeParseError, api.CodeBadRequest:
		return http.StatusBadRequest
	case api.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody converts err into its wire form. Internal errors are not echoed
// back to the caller verbatim.
func ErrorBody(procedure string, err error) *api.ErrorBody {
	body := &api.ErrorBody{
		Code:      CodeOf(err),
		Procedure: procedure,
	}
	var ve *ValidationError
	switch {
	case body.Code == api.CodeInternalError:
		body.Message = "internal server error"
	case errors.As(err, &ve):
		body.Message = err.Error()
		body.Field = ve.Field
	default:
		body.Message = err.Error()
	}
	return body
}
