package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound matches a *StatusError carrying 404.
	ErrNotFound = errors.New("not found")
	// ErrEmptyComment is returned before any request when comment text is blank.
	ErrEmptyComment = errors.New("comment text is empty")
)

// AuthError means the session is missing, expired or was rejected. The
// stored session has already been cleared when a caller sees it.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication required"
	}
	return "authentication required: " + e.Message
}

// StatusError is any other non-2xx response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}

// IsAuth reports whether err is or wraps an *AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// errorMessage pulls a human readable message out of an error body. FastAPI
// style {"detail": ...} is tried first, then "message" and "error".
func errorMessage(body []byte, status int) string {
	fallback := fmt.Sprintf("request failed with status %d", status)

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}
	for _, field := range []string{"detail", "message", "error"} {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		if msg := rawMessage(raw); msg != "" {
			return msg
		}
	}
	return fallback
}

func rawMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	// validation errors: [{"loc": [...], "msg": "..."}]
	var list []struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		var parts []string
		for _, item := range list {
			if m := first(item.Msg, item.Message); m != "" {
				parts = append(parts, m)
			}
		}
		return strings.Join(parts, "; ")
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
