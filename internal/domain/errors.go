package domain

import (
	"errors"
	"fmt"
)

// ErrStartupConfig marks failures to produce usable Settings. It is the only fatal error kind.
var ErrStartupConfig = errors.New("startup configuration error")

// ErrHealthCheck marks a failed mandatory gateway probe at startup.
var ErrHealthCheck = errors.New("gateway health check failed")

// ErrorKind classifies gateway failures.
type ErrorKind string

const (
	ErrorKindNetwork ErrorKind = "network"
	ErrorKindParse   ErrorKind = "parse"
	ErrorKindAuth    ErrorKind = "auth"
)

// GatewayError is the typed failure returned by the suggestion client.
type GatewayError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Raw        string
	Err        error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s error [%d]: %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps a transport failure or unexpected status.
func NewNetworkError(status int, msg string, err error) *GatewayError {
	return &GatewayError{Kind: ErrorKindNetwork, StatusCode: status, Message: msg, Err: err}
}

// NewParseError wraps an unusable reply; raw keeps the completion text for debug logs.
func NewParseError(msg string, raw string, err error) *GatewayError {
	return &GatewayError{Kind: ErrorKindParse, Message: msg, Raw: raw, Err: err}
}

// NewAuthError reports a rejected credential.
func NewAuthError(status int, msg string) *GatewayError {
	return &GatewayError{Kind: ErrorKindAuth, StatusCode: status, Message: msg}
}

func isKind(err error, kind ErrorKind) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Kind == kind
}

// IsNetworkError reports a timeout, refused connection or gateway-side failure.
func IsNetworkError(err error) bool { return isKind(err, ErrorKindNetwork) }

// IsParseError reports a reply missing required fields or not valid JSON.
func IsParseError(err error) bool { return isKind(err, ErrorKindParse) }

// IsAuthError reports an unauthorized response.
func IsAuthError(err error) bool { return isKind(err, ErrorKindAuth) }
