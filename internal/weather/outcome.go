package weather

import (
	"errors"
	"fmt"
)

// FailureKind tags why a fetch attempt failed.
type FailureKind int

const (
	// KindMissingCredential: no key was supplied; no request was made.
	KindMissingCredential FailureKind = iota + 1
	// KindNetworkUnreachable: no response was received (DNS, connectivity, CORS, open breaker).
	KindNetworkUnreachable
	// KindProviderRejected: the provider answered with an error status or an unusable body.
	KindProviderRejected
	// KindCanceled: the attempt was superseded or its context ended.
	KindCanceled
)

func (k FailureKind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing_credential"
	case KindNetworkUnreachable:
		return "network_unreachable"
	case KindProviderRejected:
		return "provider_rejected"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// MarshalText lets the kind appear as its name in JSON output.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ErrMissingCredential is wrapped by failures of kind KindMissingCredential.
var ErrMissingCredential = errors.New("weather provider credential is missing")

// Failure is the error side of an Outcome.
type Failure struct {
	Kind FailureKind `json:"kind"`
	// Status is the HTTP status for KindProviderRejected, zero otherwise.
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (f *Failure) Error() string {
	if f.Err != nil && f.Message == "" {
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure converts any error into a *Failure. Errors that are not already
// failures are treated as network-level problems.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Kind: KindNetworkUnreachable, Message: err.Error(), Err: err}
}

// Outcome is either a full success (current conditions and forecast) or a Failure.
// It is never partially populated.
type Outcome struct {
	Point    GeoPoint          `json:"point"`
	Place    string            `json:"place,omitempty"`
	Current  CurrentConditions `json:"current"`
	Forecast ForecastSeries    `json:"forecast"`
	Failure  *Failure          `json:"failure,omitempty"`
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Failure == nil
}

// Success builds a successful outcome.
func Success(point GeoPoint, place string, current CurrentConditions, forecast ForecastSeries) Outcome {
	return Outcome{Point: point, Place: place, Current: current, Forecast: forecast}
}

// Fail builds a failed outcome carrying no weather data.
func Fail(point GeoPoint, f *Failure) Outcome {
	return Outcome{Point: point, Failure: f}
}
