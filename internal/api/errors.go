package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindNetwork means no response was received.
	KindNetwork Kind = iota
	// KindTimeout means the client timeout elapsed.
	KindTimeout
	// KindUnauthorized is a 401; the session has already been torn down.
	KindUnauthorized
	// KindClient is any other 4xx.
	KindClient
	// KindServer is a 5xx.
	KindServer
	// KindDecode means a success response could not be decoded.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindUnauthorized:
		return "unauthorized"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// APIError is returned for every failed request.
type APIError struct {
	// Status is the HTTP status, or 0 when no response arrived.
	Status int
	// Code is an optional machine code from the payload.
	Code string
	// Message is human readable and safe to show.
	Message string
	Kind    Kind

	Method    string
	Path      string
	RequestID string

	Cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

// Unwrap returns the underlying transport or decode error.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == KindUnauthorized
}

// MessageOf returns the message to show for err, or fallback when err
// carries none.
func MessageOf(err error, fallback string) string {
	if apiErr, ok := AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// KindForStatus maps an HTTP error status to a Kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

// extractMessage reads the error text out of a backend payload.
//
// FastAPI sends {"detail": "..."} or {"detail": [{"msg": "..."}, ...]};
// other handlers use "message" or "error".
func extractMessage(body []byte) (message, code string) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return "", ""
	}

	code = gjson.GetBytes(body, "code").String()
	if code == "" {
		code = gjson.GetBytes(body, "error_code").String()
	}

	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String && detail.String() != "":
		return detail.String(), code
	case detail.IsArray():
		var parts []string
		for _, msg := range detail.Get("#.msg").Array() {
			if s := msg.String(); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; "), code
		}
	case detail.IsObject():
		if msg := detail.Get("message").String(); msg != "" {
			return msg, code
		}
	}

	for _, key := range []string{"message", "error"} {
		if v := gjson.GetBytes(body, key); v.Type == gjson.String && v.String() != "" {
			return v.String(), code
		}
	}

	return "", code
}

// genericMessage is used when the payload has no message.
func genericMessage(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "The request is not valid."
	case status == http.StatusUnauthorized:
		return "Your session has expired. Please log in again."
	case status == http.StatusForbidden:
		return "You do not have permission to perform this action."
	case status == http.StatusNotFound:
		return "The requested resource was not found."
	case status == http.StatusUnprocessableEntity:
		return "Some fields are not valid."
	case status >= 500:
		return "Server error. Please try again later."
	default:
		return fmt.Sprintf("Unexpected error (status %d).", status)
	}
}

const (
	networkMessage = "Connection error. Check your network."
	timeoutMessage = "The request took too long. Please try again."
	decodeMessage  = "The server sent an unexpected response."
)
