package domain

import "encoding/json"

// ErrorKind classifies why a record failed.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindInvalidRecord      ErrorKind = "INVALID_RECORD"
	KindConnectionError    ErrorKind = "CONNECTION_ERROR"
	KindRemoteRejection    ErrorKind = "REMOTE_REJECTION"
	KindUnresolvedEndpoint ErrorKind = "UNRESOLVED_ENDPOINT"
)

// Retryable reports whether another attempt could change the outcome.
func (k ErrorKind) Retryable() bool {
	return k == KindConnectionError
}

// Status is the outcome of one record. The zero value means no attempt was made.
type Status int

const (
	StatusNotAttempted Status = iota
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "not_attempted"
	}
}

// MarshalJSON renders the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ElementResult is the outcome of importing the record at Index.
type ElementResult struct {
	Index     int
	Status    Status
	ElementID string
	Kind      ErrorKind
	Err       error
	// Attempts counts tries of the remote operation that decided the
	// outcome, retries included. Zero when no remote call was made.
	Attempts int
}

// Success builds a successful result for the record at index.
func Success(index int, elementID string) ElementResult {
	return ElementResult{Index: index, Status: StatusSucceeded, ElementID: elementID}
}

// Failure builds a failed result for the record at index.
func Failure(index int, kind ErrorKind, err error) ElementResult {
	return ElementResult{Index: index, Status: StatusFailed, Kind: kind, Err: err}
}

// Succeeded reports whether the element was created.
func (r ElementResult) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// Failed reports whether the record was attempted and failed.
func (r ElementResult) Failed() bool {
	return r.Status == StatusFailed
}

// Attempted reports whether the record was dispatched at all.
func (r ElementResult) Attempted() bool {
	return r.Status != StatusNotAttempted
}
