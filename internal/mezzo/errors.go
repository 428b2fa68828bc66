package mezzo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

var (
	// ErrLinkDown is returned without contacting the device when the link
	// manager reports no connectivity.
	ErrLinkDown = errors.New("link down")
	// ErrNoGain is returned when a successful response carries no gain in
	// either known shape.
	ErrNoGain = errors.New("no gain in response")
)

// ErrorType represents the category of a failed device call
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the device refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates a non-2xx status code
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed or unexpected response body
	ErrTypeParse
	// ErrTypeRejected indicates the device answered with a non-zero Code
	ErrTypeRejected
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeRejected:
		return "Rejected"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError describes a failed call to the audio device.
type DeviceError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code, or the device Code for ErrTypeRejected
	Err        error     // Underlying error (if any)
	Endpoint   string    // Base URL the call was sent to
	Retryable  bool      // Whether a later attempt may succeed
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError maps a transport error onto a DeviceError.
func ClassifyNetworkError(err error, endpoint string) *DeviceError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &DeviceError{
			Type:      ErrTypeTimeout,
			Message:   "request timed out",
			Err:       err,
			Endpoint:  endpoint,
			Retryable: true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &DeviceError{
			Type:     ErrTypeDNS,
			Message:  fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:      err,
			Endpoint: endpoint,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &DeviceError{
				Type:      ErrTypeConnectionRefused,
				Message:   "device refused connection",
				Err:       err,
				Endpoint:  endpoint,
				Retryable: true,
			}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &DeviceError{
				Type:      ErrTypeNetwork,
				Message:   "host unreachable",
				Err:       err,
				Endpoint:  endpoint,
				Retryable: true,
			}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &DeviceError{
				Type:      ErrTypeNetwork,
				Message:   "network unreachable",
				Err:       err,
				Endpoint:  endpoint,
				Retryable: true,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Classify the cause rather than the URL wrapper
		return ClassifyNetworkError(urlErr.Err, endpoint)
	}

	return &DeviceError{
		Type:      ErrTypeNetwork,
		Message:   "network error occurred",
		Err:       err,
		Endpoint:  endpoint,
		Retryable: true,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, endpoint string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    fmt.Sprintf("unexpected status %d", statusCode),
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error, endpoint string) *DeviceError {
	return &DeviceError{
		Type:     ErrTypeParse,
		Message:  message,
		Err:      err,
		Endpoint: endpoint,
	}
}

// NewRejectedError reports a response whose Code field was not 0.
func NewRejectedError(code int, endpoint string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeRejected,
		Message:    fmt.Sprintf("device returned code %d", code),
		StatusCode: code,
		Endpoint:   endpoint,
	}
}

func asDeviceError(err error) (*DeviceError, bool) {
	var devErr *DeviceError
	ok := errors.As(err, &devErr)
	return devErr, ok
}

// IsNetworkError reports whether err is a transport failure of any kind.
func IsNetworkError(err error) bool {
	devErr, ok := asDeviceError(err)
	if !ok {
		return false
	}
	switch devErr.Type {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
		return true
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeHTTP
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeParse
}

// IsRejected checks if the device answered with a non-zero Code
func IsRejected(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeRejected
}

// ShortMessage returns a concise message suitable for the display error line
// and CLI output.
func ShortMessage(err error) string {
	if errors.Is(err, ErrLinkDown) {
		return "Link down"
	}
	if errors.Is(err, ErrNoGain) {
		return "No gain"
	}
	devErr, ok := asDeviceError(err)
	if !ok {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return "Device timeout"
	case ErrTypeConnectionRefused:
		return "Device refused"
	case ErrTypeDNS:
		return "Unknown host"
	case ErrTypeNetwork:
		return "Network error"
	case ErrTypeHTTP:
		return fmt.Sprintf("HTTP %d", devErr.StatusCode)
	case ErrTypeParse:
		return "Bad response"
	case ErrTypeRejected:
		return fmt.Sprintf("Rejected (%d)", devErr.StatusCode)
	default:
		return devErr.Message
	}
}
