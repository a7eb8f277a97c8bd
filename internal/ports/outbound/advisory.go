package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
)

// AdvisoryRequest is the single structured request sent to the inference service
type AdvisoryRequest struct {
	Kind         insight.Kind     `json:"kind"`
	Profile      food.UserProfile `json:"profile"`
	Features     any              `json:"features"`
	Summary      string           `json:"summary"`
	RequiredKeys []string         `json:"required_keys"`
}

// AdvisoryService asks an external inference service for judgement-level
// synthesis. Advise makes exactly one attempt. The returned payload has had
// any code fence stripped and carries every key in RequiredKeys.
type AdvisoryService interface {
	Advise(ctx context.Context, req AdvisoryRequest) (json.RawMessage, error)
	Name() string
}

// AdvisoryUnavailableError reports a timeout, transport failure or non-2xx reply
type AdvisoryUnavailableError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *AdvisoryUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("advisory service %s unavailable: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("advisory service %s unavailable: %v", e.Provider, e.Err)
}

func (e *AdvisoryUnavailableError) Unwrap() error { return e.Err }

// AdvisoryParseError reports a reply that could not be parsed or validated
type AdvisoryParseError struct {
	Provider    string
	Kind        insight.Kind
	MissingKeys []string
	Err         error
}

func (e *AdvisoryParseError) Error() string {
	if len(e.MissingKeys) > 0 {
		return fmt.Sprintf("advisory %s reply from %s missing keys %v", e.Kind, e.Provider, e.MissingKeys)
	}
	return fmt.Sprintf("advisory %s reply from %s could not be parsed: %v", e.Kind, e.Provider, e.Err)
}

func (e *AdvisoryParseError) Unwrap() error { return e.Err }

// NewAdvisoryParseError converts a schema failure into a parse error
func NewAdvisoryParseError(provider string, kind insight.Kind, err error) *AdvisoryParseError {
	pe := &AdvisoryParseError{Provider: provider, Kind: kind, Err: err}
	var schemaErr *insight.SchemaError
	if errors.As(err, &schemaErr) {
		pe.MissingKeys = schemaErr.MissingKeys
	}
	return pe
}

// IsAdvisoryFailure reports whether err is one of the two recoverable advisory errors
func IsAdvisoryFailure(err error) bool {
	var unavailable *AdvisoryUnavailableError
	var parse *AdvisoryParseError
	return errors.As(err, &unavailable) || errors.As(err, &parse)
}

// FailureReason is a short label for metrics and logs
func FailureReason(err error) string {
	var unavailable *AdvisoryUnavailableError
	var parse *AdvisoryParseError
	switch {
	case errors.As(err, &unavailable):
		return "unavailable"
	case errors.As(err, &parse):
		return "parse"
	case err == nil:
		return ""
	default:
		return "other"
	}
}
