// Package domain defines domain-level errors for the marketdata feature.
package domain

import (
	"errors"
	"fmt"
)

// Errors surfaced by the market data layer. Callers inspect them with errors.Is / errors.As.
var (
	// ErrAuthentication indicates the provider rejected the bearer credential (HTTP 401).
	ErrAuthentication = errors.New("provider rejected credentials")

	// ErrInvalidCredentials is what a candle fetch reports when the provider answered 401.
	// Errors carrying it also match ErrAuthentication.
	ErrInvalidCredentials = errors.New("invalid provider API key, please check your credentials")

	// ErrTimeout indicates a provider call exceeded its timeout budget.
	ErrTimeout = errors.New("provider request timed out")

	// ErrNetwork indicates the provider could not be reached.
	ErrNetwork = errors.New("provider request failed")

	// ErrParse indicates a malformed or incomplete provider payload.
	ErrParse = errors.New("malformed provider payload")

	// ErrInsufficientData is returned by the price delta when fewer than 2 candles came back.
	ErrInsufficientData = errors.New("not enough data to calculate price change")

	// ErrDivision is returned by the price delta when the previous close is zero.
	ErrDivision = errors.New("previous close is zero, price change is undefined")

	// ErrNoAccounts is returned when the provider lists no account for the credential.
	ErrNoAccounts = errors.New("provider returned no accounts")

	// ErrInstrumentNotFound is returned by catalog lookups for unknown names.
	ErrInstrumentNotFound = errors.New("instrument not found")
)

// ProviderError is a non-authentication HTTP failure (4xx/5xx) returned by the provider.
type ProviderError struct {
	StatusCode int
	Body       string
	Err        error // optional cause, e.g. ErrNoAccounts
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
