// Package domain holds the assistant feature's error values.
package domain

import "errors"

var (
	// ErrEmptyPrompt is returned for a blank question.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrPromptTooLong is returned when a question exceeds MaxPromptLength runes.
	ErrPromptTooLong = errors.New("prompt is too long")
	// ErrGeneration wraps every failure of the language model backend.
	ErrGeneration = errors.New("error generating assistant response")
)
