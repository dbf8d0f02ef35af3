package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("not found")

// TransportError means the request never produced a usable HTTP response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFoundError is an HTTP 404. Some deployments lack the doctor-patients
// and doctor-appointments routes, so callers treat it as "not available".
type NotFoundError struct {
	Path    string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: not found: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s: not found", e.Path)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ServerError is any other non-2xx status, or a 2xx whose body does not
// have the expected shape (StatusCode is then the 2xx code).
type ServerError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServerError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, msg)
}

func (e *ServerError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err means the endpoint could not be used
// at all: a 404 or a transport failure.
func IsUnavailable(err error) bool {
	var te *TransportError
	return errors.Is(err, ErrNotFound) || errors.As(err, &te)
}

// Message returns the backend-provided message carried by err, if any.
func Message(err error) string {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Message
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Message
	}
	return ""
}

// errorMessage pulls a human readable message out of an error body. Keys
// are tried in order; plain-text bodies are used as is.
func errorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "<") {
			return ""
		}
		return trimmed
	}
	for _, key := range []string{"message", "details", "error"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
