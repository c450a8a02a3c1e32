package weather

import (
	"errors"
	"fmt"
)

// Kind classifies why a fetch failed. The display layer picks its message
// from the kind; the core never formats user-facing text.
type Kind int

const (
	KindInvalidData Kind = iota
	KindTransport
	KindPermission
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindPermission:
		return "permission"
	default:
		return "invalid_data"
	}
}

var (
	// ErrNoConnectivity marks transport failures where the provider could not be reached at all.
	ErrNoConnectivity = errors.New("no connectivity")
	// ErrPermissionDenied is reported when location access has been refused.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrInvalidData is reported when a response body cannot be decoded into a Record.
	ErrInvalidData = errors.New("invalid weather data")
	// ErrInvalidLocation is reported when a Location cannot be turned into a request.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrUnexpectedStatus is reported for non-2xx provider responses.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrCircuitOpen is reported when the provider breaker rejects a request.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// FetchError carries a failure together with its classification.
type FetchError struct {
	Kind Kind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transport classifies err as a transport failure.
func Transport(err error) error {
	return &FetchError{Kind: KindTransport, Err: err}
}

// Permission classifies err as a permission failure.
func Permission(err error) error {
	return &FetchError{Kind: KindPermission, Err: err}
}

// InvalidData classifies err as a decode or invalid-data failure.
func InvalidData(err error) error {
	return &FetchError{Kind: KindInvalidData, Err: err}
}

// KindOf returns the classification of err. Unclassified errors are treated
// as invalid data, except ErrPermissionDenied and ErrNoConnectivity which
// classify themselves.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return KindPermission
	case errors.Is(err, ErrNoConnectivity):
		return KindTransport
	default:
		return KindInvalidData
	}
}

// Classify guarantees err is a *FetchError, keeping an existing classification.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Kind: KindOf(err), Err: err}
}
