package domain

import "time"

// Market represents a binary prediction market. Market rows are maintained by
// an external process; the tracker only reads them.
type Market struct {
	ID                string
	Slug              string
	Title             string
	ConditionID       string
	TokenIDYes        string
	TokenIDNo         string
	EndDate           *time.Time
	ResolvedAt        *time.Time
	ResolutionOutcome *string // "yes", "no", or nil when unknown
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TokenFor returns the outcome-token ID matching the given direction, or ""
// when the market has no token for that side.
func (m Market) TokenFor(d Direction) string {
	switch d {
	case DirectionYes:
		return m.TokenIDYes
	case DirectionNo:
		return m.TokenIDNo
	default:
		return ""
	}
}

// Resolved reports whether the market has terminated: either an explicit
// resolution timestamp is set, or its end date has passed.
func (m Market) Resolved(now time.Time) bool {
	if m.ResolvedAt != nil {
		return true
	}
	return m.EndDate != nil && m.EndDate.Before(now)
}

// Outcome returns the canonical resolution outcome when it is known and
// parseable, and false otherwise.
func (m Market) Outcome() (Direction, bool) {
	if m.ResolutionOutcome == nil {
		return "", false
	}
	d, err := ParseDirection(*m.ResolutionOutcome)
	if err != nil {
		return "", false
	}
	return d, true
}
