// Package entity defines the domain models for the assistant feature.
package entity

// ChartContext describes what the user is looking at when asking a question.
// Every field is optional.
type ChartContext struct {
	Symbol     string
	Timeframe  string
	Price      *float64
	Indicators []string
}

// Reply is a generated answer.
type Reply struct {
	Text string
}
