// Package universe defines eligibility rules for the scouting universe.
package universe

import (
	"errors"
	"strings"
)

// Default eligibility thresholds.
const (
	DefaultMinMinutes = 900
	DefaultMinAge     = 18
	DefaultMaxAge     = 25
)

// ErrInvalidCriteria reports inconsistent thresholds.
var ErrInvalidCriteria = errors.New("invalid universe criteria")

// Criteria selects player-season-competition rows for recruitment review.
// Minutes and age bounds are conjunctive; keyword checks are disjunctive
// among themselves and match case-insensitive substrings.
type Criteria struct {
	MinMinutes          int
	MinAge              int
	MaxAge              int
	PositionKeywords    []string
	SubPositionKeywords []string
}

// Candidate carries the attributes the filter inspects.
type Candidate struct {
	SeasonMinutes float64
	Age           int
	Position      string
	SubPosition   string
}

// Option applies a configuration option to Criteria.
type Option func(*Criteria)

// WithMinMinutes overrides the season minutes threshold.
func WithMinMinutes(minutes int) Option {
	return func(c *Criteria) {
		if minutes >= 0 {
			c.MinMinutes = minutes
		}
	}
}

// WithAgeRange overrides the inclusive age window.
func WithAgeRange(minAge, maxAge int) Option {
	return func(c *Criteria) {
		if minAge > 0 && maxAge >= minAge {
			c.MinAge = minAge
			c.MaxAge = maxAge
		}
	}
}

// WithPositionKeywords overrides position substrings.
func WithPositionKeywords(keywords []string) Option {
	return func(c *Criteria) {
		if len(keywords) > 0 {
			c.PositionKeywords = lowerAll(keywords)
		}
	}
}

// WithSubPositionKeywords overrides sub-position substrings.
func WithSubPositionKeywords(keywords []string) Option {
	return func(c *Criteria) {
		if len(keywords) > 0 {
			c.SubPositionKeywords = lowerAll(keywords)
		}
	}
}

// New returns the default criteria with options applied.
func New(opts ...Option) Criteria {
	c := Criteria{
		MinMinutes:          DefaultMinMinutes,
		MinAge:              DefaultMinAge,
		MaxAge:              DefaultMaxAge,
		PositionKeywords:    []string{"midfield", "wing"},
		SubPositionKeywords: []string{"wing", "attacking"},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Validate checks the thresholds are usable.
func (c Criteria) Validate() error {
	switch {
	case c.MinMinutes < 0:
		return errors.Join(ErrInvalidCriteria, errors.New("min minutes must be non-negative"))
	case c.MinAge <= 0 || c.MaxAge < c.MinAge:
		return errors.Join(ErrInvalidCriteria, errors.New("age window must satisfy 0 < min <= max"))
	case len(c.PositionKeywords) == 0 && len(c.SubPositionKeywords) == 0:
		return errors.Join(ErrInvalidCriteria, errors.New("at least one position keyword is required"))
	}
	return nil
}

// Eligible mirrors the warehouse filter for a single candidate.
func (c Criteria) Eligible(in Candidate) bool {
	if in.SeasonMinutes < float64(c.MinMinutes) {
		return false
	}
	if in.Age < c.MinAge || in.Age > c.MaxAge {
		return false
	}
	return containsAny(in.Position, c.PositionKeywords) || containsAny(in.SubPosition, c.SubPositionKeywords)
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if k != "" && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
