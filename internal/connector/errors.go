package connector

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// ErrorKind classifies connector failures.
type ErrorKind int

const (
	ErrorUnknown         ErrorKind = iota
	ErrorUnknownProvider           // name not registered
	ErrorConnection                // credential missing or provider unreachable
	ErrorAuth                      // 401/403, credential rejected
	ErrorRateLimit                 // 429
	ErrorRequest                   // transport or parse failure while prompting
	ErrorCanceled                  // caller context done before the attempt
)

var kindNames = map[ErrorKind]string{
	ErrorUnknown:         "unknown",
	ErrorUnknownProvider: "unknown_provider",
	ErrorConnection:      "connection",
	ErrorAuth:            "auth",
	ErrorRateLimit:       "rate_limit",
	ErrorRequest:         "request",
	ErrorCanceled:        "canceled",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText lets kinds appear by name in JSON reports.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name written by MarshalText.
func (k *ErrorKind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	*k = ErrorUnknown
	return nil
}

// Error wraps a provider failure with its classification.
type Error struct {
	Kind     ErrorKind
	Provider ProviderName
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Provider != "" {
		msg = string(e.Provider) + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or ErrorUnknown when err is not
// a connector error.
func KindOf(err error) ErrorKind {
	var cErr *Error
	if errors.As(err, &cErr) {
		return cErr.Kind
	}
	return ErrorUnknown
}

func newError(kind ErrorKind, provider ProviderName, msg string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Message: msg, Err: err}
}

// classifyStatus maps an HTTP status from a prompt call onto a kind.
func classifyStatus(code int) ErrorKind {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrorRateLimit
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrorAuth
	default:
		return ErrorRequest
	}
}

// classifyTransport handles errors that never produced an HTTP status.
// The substring checks follow the shapes the SDKs surface when they wrap
// net errors without exposing them.
func classifyTransport(err error) ErrorKind {
	if errors.Is(err, context.Canceled) {
		return ErrorCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorConnection
	}
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit") || strings.Contains(lower, "rate_limit"):
		return ErrorRateLimit
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "authentication"):
		return ErrorAuth
	case strings.Contains(lower, "connection") || strings.Contains(lower, "dns") || strings.Contains(lower, "refused") ||
		strings.Contains(lower, "no such host") || strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return ErrorConnection
	default:
		return ErrorUnknown
	}
}

// probeFailure turns a failed connect probe into Connect's return values.
func probeFailure(provider ProviderName, status int, err error) (bool, error) {
	if status != 0 {
		switch classifyStatus(status) {
		case ErrorAuth:
			return false, nil
		case ErrorRateLimit:
			return false, newError(ErrorRateLimit, provider, "rate limited during connect", err)
		default:
			return false, newError(ErrorConnection, provider, "connect probe failed", err)
		}
	}
	switch classifyTransport(err) {
	case ErrorAuth:
		return false, nil
	case ErrorCanceled:
		return false, newError(ErrorCanceled, provider, "connect canceled", err)
	case ErrorRateLimit:
		return false, newError(ErrorRateLimit, provider, "rate limited during connect", err)
	default:
		return false, newError(ErrorConnection, provider, "provider unreachable", err)
	}
}

// promptFailure classifies a failed SendPrompt. Auth failures after a
// successful connect are reported as request errors.
func promptFailure(provider ProviderName, status int, err error) *Error {
	kind := ErrorRequest
	if status != 0 {
		kind = classifyStatus(status)
	} else {
		switch classifyTransport(err) {
		case ErrorRateLimit:
			kind = ErrorRateLimit
		case ErrorCanceled:
			kind = ErrorCanceled
		}
	}
	switch kind {
	case ErrorRateLimit:
		return newError(ErrorRateLimit, provider, "rate limited", err)
	case ErrorCanceled:
		return newError(ErrorCanceled, provider, "prompt canceled", err)
	default:
		return newError(ErrorRequest, provider, "prompt failed", err)
	}
}
