package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrRequestFailed matches every failed API call, with or without a response.
var ErrRequestFailed = errors.New("request failed")

// ErrUnreachable matches calls that never got a response.
var ErrUnreachable = errors.New("could not reach server")

// genericMessage is shown when the server gave nothing readable.
const genericMessage = "Erro ao comunicar com o servidor"

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Is makes every HTTPError match ErrRequestFailed.
func (e *HTTPError) Is(target error) bool {
	return target == ErrRequestFailed
}

// TransportError is a call that failed before any response arrived.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Method, e.Path, ErrUnreachable, e.Err)
}

// Unwrap exposes both ErrUnreachable and the underlying cause.
func (e *TransportError) Unwrap() []error {
	return []error{ErrUnreachable, e.Err}
}

// Is makes every TransportError match ErrRequestFailed.
func (e *TransportError) Is(target error) bool {
	return target == ErrRequestFailed
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0 when there was no
// response.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// ExtractMessage returns a human-readable message for err, suitable for an
// inline error or a toast.
func ExtractMessage(err error) string {
	if err == nil {
		return "Erro desconhecido"
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Message != "" {
			return httpErr.Message
		}
		return genericMessage
	}
	if errors.Is(err, ErrUnreachable) {
		return "Não foi possível conectar ao servidor"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return genericMessage
}

// messageFromBody picks the readable part of an error body: a JSON string
// as-is, a JSON object's "error" then "message" field, or plain text.
func messageFromBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return genericMessage
	}

	var s string
	if json.Unmarshal(body, &s) == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
		return genericMessage
	}

	var obj struct {
		Error   any `json:"error"`
		Message any `json:"message"`
	}
	if json.Unmarshal(body, &obj) == nil {
		if msg, ok := obj.Error.(string); ok && msg != "" {
			return msg
		}
		if msg, ok := obj.Message.(string); ok && msg != "" {
			return msg
		}
		return genericMessage
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return genericMessage
	}
	return trimmed
}
