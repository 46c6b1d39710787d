package entity

import "encoding/json"

// Account is a provider trading account. Instrument availability is scoped to it.
type Account struct {
	ID string
}

// Instrument is a tradable symbol as listed by the provider for an account.
type Instrument struct {
	Name        string          // unique key, e.g. "EUR_USD"
	Type        string          // provider category, e.g. "CURRENCY", "METAL", "CFD"
	DisplayName string          // e.g. "EUR/USD"
	Metadata    json.RawMessage // the raw provider record, passed through untouched
}
