package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/logging"
)

const (
	CodeValidation      = "ValidationError"
	CodeAuthentication  = "AuthenticationError"
	CodeAuthorization   = "AuthorizationError"
	CodeNotFound        = "NotFound"
	CodeTooManyRequests = "TooManyRequests"
	CodeServer          = "ServerError"
)

// Error is the JSON body of every failed request.
type Error struct {
	Status   int               `json:"-"`
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Errors   map[string]string `json:"errors,omitempty"`
	Internal error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%d %s: %s: %v", e.Status, e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Internal }

func Validation(msg string, fields map[string]string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: msg, Errors: fields}
}

func TooLarge(msg string) *Error {
	return &Error{Status: http.StatusRequestEntityTooLarge, Code: CodeValidation, Message: msg}
}

func Authentication(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeAuthentication, Message: msg}
}

func Authorization(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeAuthorization, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func TooManyRequests(msg string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Code: CodeTooManyRequests, Message: msg}
}

func Server(err error) *Error {
	return &Error{
		Status:   http.StatusInternalServerError,
		Code:     CodeServer,
		Message:  "Internal Server Error",
		Internal: err,
	}
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return CodeAuthentication
	case status == http.StatusForbidden:
		return CodeAuthorization
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusTooManyRequests:
		return CodeTooManyRequests
	case status >= 500:
		return CodeServer
	default:
		return CodeValidation
	}
}

// From converts any handler error into an *Error.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= 500 {
			return Server(err)
		}
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(he.Code)
		}
		return &Error{Status: he.Code, Code: codeForStatus(he.Code), Message: msg, Internal: he.Internal}
	}

	return Server(err)
}

// Handler renders errors as {code, message[, errors]}. Server errors are
// logged with their cause and never leak it to the client.
func Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	ae := From(err)
	if ae.Status >= 500 {
		logging.FromContext(c.Request().Context()).Error("server_error",
			"status", ae.Status, "path", c.Path(), "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(ae.Status)
	} else {
		werr = c.JSON(ae.Status, ae)
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", werr)
	}
}
