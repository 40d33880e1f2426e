// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/tamasystem/callpad/internal/domain"
)

// DefaultSearchLimit caps search results when the caller gives no limit.
const DefaultSearchLimit = 50

// MaxSearchLimit is the largest accepted search limit.
const MaxSearchLimit = 500

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrInvalidNumberFormat reports a destination or caller number that is not dialable.
var ErrInvalidNumberFormat = errors.New("invalid number format")

// ErrPhonebookUnavailable reports that no phonebook could be loaded.
var ErrPhonebookUnavailable = errors.New("phonebook unavailable")

// ErrReloadThrottled reports a reload requested too soon after the previous one.
var ErrReloadThrottled = errors.New("reload throttled")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// SearchCandidatesRequest captures one substring lookup.
type SearchCandidatesRequest struct {
	Query string
	Limit int
}

// PhonebookInfo describes the snapshot that answered a request.
type PhonebookInfo struct {
	Source    string    `json:"source"`
	Entries   int       `json:"entries"`
	FetchedAt time.Time `json:"fetched_at"`
	Stale     bool      `json:"stale"`
}

// SearchCandidatesResult lists matches in phonebook order.
type SearchCandidatesResult struct {
	Query      string                  `json:"query"`
	Candidates []domain.CandidateEntry `json:"candidates"`
	Truncated  bool                    `json:"truncated"`
	Phonebook  PhonebookInfo           `json:"phonebook"`
}

// ResolveIdentityRequest captures the free "from" text to resolve.
type ResolveIdentityRequest struct {
	From string
}

// ResolveIdentityResult reports the identity and whether a phonebook name matched.
type ResolveIdentityResult struct {
	Identity domain.ResolvedIdentity `json:"identity"`
	Matched  bool                    `json:"matched"`
	Dialable bool                    `json:"dialable"`
}

// BuildCallIntentRequest captures destination and "from" text for one call.
type BuildCallIntentRequest struct {
	Destination string `json:"destination"`
	From        string `json:"from"`
}

// CallIntentResult is a validated call with its dispatch-ready form.
type CallIntentResult struct {
	ID          string             `json:"id"`
	Intent      domain.CallIntent  `json:"intent"`
	Request     domain.DialRequest `json:"request"`
	RequestedAt time.Time          `json:"requested_at"`
}

// DirectoryService defines the operations served over HTTP and MCP.
type DirectoryService interface {
	SearchCandidates(context.Context, SearchCandidatesRequest) (SearchCandidatesResult, error)
	ResolveIdentity(context.Context, ResolveIdentityRequest) (ResolveIdentityResult, error)
	BuildCallIntent(context.Context, BuildCallIntentRequest) (CallIntentResult, error)
	ReloadPhonebook(context.Context) (PhonebookInfo, error)
}

// ReadinessChecker reports whether the service can answer requests.
type ReadinessChecker interface {
	Ready() bool
}
