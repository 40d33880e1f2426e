package app

import (
	"time"

	"github.com/tamasystem/callpad/internal/domain"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// PendingCall represents a validated call waiting for confirmation.
type PendingCall struct {
	ID          string             `json:"id"`
	Intent      domain.CallIntent  `json:"intent"`
	Request     domain.DialRequest `json:"request"`
	RequestedAt time.Time          `json:"requested_at"`
}

// newPendingCall builds the pending call for intent under plan.
func newPendingCall(id string, intent domain.CallIntent, plan domain.DialingPlan, now time.Time) PendingCall {
	return PendingCall{
		ID:          id,
		Intent:      intent,
		Request:     plan.DialRequestFor(intent),
		RequestedAt: now.UTC(),
	}
}

// defaultIDGen and defaultClock fill nil collaborators.
func defaultIDGen(idGen IDGenerator) IDGenerator {
	if idGen == nil {
		return func() string { return "" }
	}
	return idGen
}

func defaultClock(clock Clock) Clock {
	if clock == nil {
		return time.Now
	}
	return clock
}
