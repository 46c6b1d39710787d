// Package entity defines the domain models for the marketdata feature.
package entity

import "time"

// Candle is one OHLCV bucket as served to chart clients.
// Values are produced by the provider normalizer and never mutated afterwards.
type Candle struct {
	Time   time.Time // Start of the bucket
	Open   float64   // Opening mid price
	High   float64   // Highest mid price in the bucket
	Low    float64   // Lowest mid price in the bucket
	Close  float64   // Closing mid price
	Volume int64     // Tick volume
}

// FetchKey identifies a candle request. Two requests are the same iff all fields match,
// so the struct is used directly as a cache map key.
type FetchKey struct {
	Instrument  string // e.g. "EUR_USD"
	Granularity string // provider granularity code, e.g. "H1", "M1"
	Count       int    // number of candles requested
}

// PriceDelta is the latest close and its percentage change against the previous close.
type PriceDelta struct {
	Price  float64
	Change float64
}
