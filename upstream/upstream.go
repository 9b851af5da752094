package upstream

import (
	"context"
	"errors"
	"fmt"
)

// Format tags the native response schema of a provider.
type Format string

const (
	// FormatBaidu is the Baidu location/ip response shape
	// (status/address/content with address_detail and point).
	FormatBaidu Format = "baidu"

	// FormatAmap is the Amap v3/ip response shape
	// (status/info/infocode/province/city/adcode/rectangle).
	FormatAmap Format = "amap"
)

// FailureReason classifies why a provider lookup did not produce a usable
// location. Every failed lookup carries exactly one reason.
type FailureReason string

const (
	ReasonCredentialInvalid  FailureReason = "credential-invalid"
	ReasonCredentialMissing  FailureReason = "credential-missing"
	ReasonTimeout            FailureReason = "timeout"
	ReasonMalformedResponse  FailureReason = "malformed-response"
	ReasonIncompleteLocation FailureReason = "incomplete-location"
)

// Query carries the lookup parameters shared by all providers.
type Query struct {
	// IP is a validated dotted-quad IPv4 address.
	IP string

	// Coor is the coordinate system hint, only honored by Baidu Map.
	Coor string
}

// Location is the provider-agnostic parse of one upstream payload.
// Province and city are raw here; completion and validation happen in the
// normalizer, not in the clients.
type Location struct {
	CountryCode string
	Province    string
	City        string
	District    string
	Adcode      string
	CityCode    int
	Longitude   string
	Latitude    string
	Rectangle   string
	Address     string
}

// Provider is a single queryable geolocation upstream.
type Provider interface {
	// Name returns the stable provider id used in logs, metrics and the
	// info field of normalized responses.
	Name() string

	// Format returns the provider's native response schema.
	Format() Format

	// RequiresCredential reports whether a lookup needs an access key.
	RequiresCredential() bool

	// Endpoint returns the base lookup URL, used by the availability checker.
	Endpoint() string

	// Lookup performs one outbound call. The returned error, if any, is
	// always an *Error carrying a FailureReason.
	Lookup(ctx context.Context, query Query, credential string) (*Location, error)
}

// Error is a typed upstream failure.
type Error struct {
	Provider string
	Reason   FailureReason
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError constructs a typed failure for the given provider and reason.
func NewError(provider string, reason FailureReason, cause error) *Error {
	return &Error{
		Provider: provider,
		Reason:   reason,
		cause:    cause,
	}
}

// ReasonOf extracts the failure reason from a lookup error. Errors that are
// not typed (which should not happen) count as malformed responses.
func ReasonOf(err error) FailureReason {
	var ue *Error

	if errors.As(err, &ue) {
		return ue.Reason
	}

	return ReasonMalformedResponse
}
