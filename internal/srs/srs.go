// Package srs implements the fixed-table review schedule.
//
// Each rating maps to a constant delay. There is no ease factor and no
// interval growth: rating a card "easy" five times in a row always yields
// the same five-day offset.
package srs

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Rating is the user's response to a card review.
type Rating int

const (
	Unknown Rating = iota
	Again
	Hard
	Good
	Easy
)

var delays = map[Rating]time.Duration{
	Again: 10 * time.Minute,
	Hard:  24 * time.Hour,
	Good:  3 * 24 * time.Hour,
	Easy:  5 * 24 * time.Hour,
}

var labels = map[string]Rating{
	"again":   Again,
	"hard":    Hard,
	"good":    Good,
	"easy":    Easy,
	"học lại": Again,
	"khó":     Hard,
	"tốt":     Good,
	"dễ":      Easy,
}

// ParseRating maps a label to a Rating. Labels are matched case-insensitively
// after trimming and NFC normalization; anything unrecognised is Unknown.
func ParseRating(label string) Rating {
	if r, ok := labels[strings.ToLower(norm.NFC.String(strings.TrimSpace(label)))]; ok {
		return r
	}
	return Unknown
}

// Delay returns how long a card rated r stays out of the due set.
// Unknown ratings have no delay.
func (r Rating) Delay() time.Duration {
	return delays[r]
}

func (r Rating) String() string {
	switch r {
	case Again:
		return "again"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	default:
		return "unknown"
	}
}

// NextReview returns the instant a card rated r at now becomes due again.
func NextReview(now time.Time, r Rating) time.Time {
	return now.Add(r.Delay())
}
