package monitor

import (
	"errors"
	"fmt"
)

// Failure kinds. Match with errors.Is.
var (
	ErrNetwork     = errors.New("network failure")
	ErrParse       = errors.New("parse failure")
	ErrGeocode     = errors.New("geocode failure")
	ErrMissingData = errors.New("missing data")
)

// FetchError records which operation failed and how.
type FetchError struct {
	Op     string
	Kind   error
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NetworkError wraps a transport failure or non-success status.
func NetworkError(op string, status int, err error) error {
	return &FetchError{Op: op, Kind: ErrNetwork, Status: status, Err: err}
}

// ParseError wraps a body that could not be decoded.
func ParseError(op string, err error) error {
	return &FetchError{Op: op, Kind: ErrParse, Err: err}
}

// GeocodeError wraps a geocoder miss or failure.
func GeocodeError(op string, err error) error {
	return &FetchError{Op: op, Kind: ErrGeocode, Err: err}
}

// MissingDataError reports an absent field or record.
func MissingDataError(op, what string) error {
	return &FetchError{Op: op, Kind: ErrMissingData, Err: errors.New(what)}
}

// FailureKind names the failure class for logs and payloads.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrGeocode):
		return "geocode"
	case errors.Is(err, ErrMissingData):
		return "missing_data"
	default:
		return "unknown"
	}
}
