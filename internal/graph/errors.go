package graph

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrConnection marks transport-level failures: unreachable hosts, TLS
	// negotiation, timeouts and transient server unavailability. These are
	// safe to retry.
	ErrConnection = errors.New("graph connection error")

	// ErrRejected marks operations the service received and refused.
	ErrRejected = errors.New("graph operation rejected")
)

// Error carries the classification of a failed graph operation.
type Error struct {
	Op        string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the classification sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.Transient {
		return []error{ErrConnection, e.Err}
	}
	return []error{ErrRejected, e.Err}
}

// ConnectionFailure wraps err as a retryable transport failure.
func ConnectionFailure(op string, err error) error {
	return &Error{Op: op, Transient: true, Err: err}
}

// Rejection wraps err as a non-retryable service rejection.
func Rejection(op string, err error) error {
	return &Error{Op: op, Transient: false, Err: err}
}

// IsConnection reports whether err is a transport-level failure.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsRejection reports whether err is a service rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrRejected)
}

// classifyTransport recognises errors that are transport failures regardless
// of which driver produced them.
func classifyTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var headerErr tls.RecordHeaderError
	if errors.As(err, &headerErr) {
		return true
	}
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}
	var authorityErr x509.UnknownAuthorityError
	if errors.As(err, &authorityErr) {
		return true
	}
	var hostnameErr x509.HostnameError
	return errors.As(err, &hostnameErr)
}
