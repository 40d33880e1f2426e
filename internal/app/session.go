package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tamasystem/callpad/internal/combobox"
	"github.com/tamasystem/callpad/internal/domain"
)

// SessionConfig holds configuration for one interactive session.
type SessionConfig struct {
	Plan   domain.DialingPlan
	Logger Logger
}

// LoadStatus describes the most recent applied load.
type LoadStatus struct {
	Source    string
	Entries   int
	FetchedAt time.Time
	FromCache bool
	Err       error
}

// Session owns the interactive call form: destination text, the "from" combobox, and the pending call.
// It is not safe for concurrent use; the presentation shell drives it from one event loop.
type Session struct {
	source      *combobox.Controller
	destination string
	pending     *PendingCall
	generation  uint64
	loaded      bool
	status      LoadStatus
	plan        domain.DialingPlan
	dispatcher  Dispatcher
	idGen       IDGenerator
	clock       Clock
	logger      Logger
}

// NewSession constructs a session with an empty list awaiting its first load.
func NewSession(dispatcher Dispatcher, idGen IDGenerator, clock Clock, cfg SessionConfig) *Session {
	return &Session{
		source:     combobox.NewController(domain.NewCandidateList(nil)),
		plan:       cfg.Plan.Normalize(),
		dispatcher: dispatcher,
		idGen:      defaultIDGen(idGen),
		clock:      defaultClock(clock),
		logger:     LoggerOrNop(cfg.Logger),
	}
}

// Source returns the "from" combobox state.
func (s *Session) Source() combobox.State {
	return s.source.State()
}

// Destination returns the raw destination text.
func (s *Session) Destination() string {
	return s.destination
}

// SetDestination replaces the destination text.
func (s *Session) SetDestination(value string) {
	s.destination = value
}

// Plan returns the dialing plan.
func (s *Session) Plan() domain.DialingPlan {
	return s.plan
}

// Status returns the last applied load status.
func (s *Session) Status() LoadStatus {
	return s.status
}

// Dispatch forwards one event to the "from" combobox.
func (s *Session) Dispatch(ev combobox.Event) combobox.Outcome {
	out := s.source.Dispatch(ev)
	if out.HasSelection {
		s.logger.Debug("source selected", "name", out.Selected.DisplayName)
	}
	return out
}

// Resolved derives the identity for the current "from" query and list.
func (s *Session) Resolved() domain.ResolvedIdentity {
	state := s.source.State()
	return domain.ResolveIdentity(state.Query, state.List)
}

// CanRequest reports whether the request action is enabled.
func (s *Session) CanRequest() bool {
	return strings.TrimSpace(s.destination) != "" && s.Resolved().CanonicalNumber != ""
}

// BeginLoad starts a load and returns its generation.
// The loading flag is raised only while no list has loaded yet; later loads swap in the background.
func (s *Session) BeginLoad() uint64 {
	s.generation++
	if !s.loaded {
		s.source.Dispatch(combobox.AvailabilityChanged{Loading: true})
	}
	return s.generation
}

// ApplyLoadResult applies a finished load. Results from superseded generations are ignored.
// A failed load keeps the previous list and disables the field.
func (s *Session) ApplyLoadResult(generation uint64, result LoadResult, err error) bool {
	if generation != s.generation {
		s.logger.Debug("stale phonebook load ignored", "generation", generation, "current", s.generation)
		return false
	}
	if err != nil {
		if !errors.Is(err, domain.ErrCandidateLoadFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrCandidateLoadFailed, err)
		}
		s.status.Err = err
		s.source.Dispatch(combobox.AvailabilityChanged{Err: err})
		s.logger.Warn("phonebook load failed", "generation", generation, "err", err)
		return true
	}

	snap := result.Snapshot
	s.loaded = true
	s.status = LoadStatus{
		Source:    snap.Source,
		Entries:   snap.Entries.Len(),
		FetchedAt: snap.FetchedAt,
		FromCache: result.FromCache,
	}
	s.source.Dispatch(combobox.ListReloaded{List: snap.Entries})
	s.source.Dispatch(combobox.AvailabilityChanged{})
	s.logger.Info("phonebook loaded", "source", snap.Source, "entries", snap.Entries.Len(), "generation", generation, "cached", result.FromCache)
	return true
}

// RequestCall validates the form and stores the resulting pending call.
// On failure the form state is left untouched.
func (s *Session) RequestCall() (PendingCall, error) {
	if !s.CanRequest() {
		return PendingCall{}, ErrCallNotReady
	}
	intent, err := domain.BuildCallIntent(s.destination, s.Resolved())
	if err != nil {
		return PendingCall{}, err
	}
	call := newPendingCall(s.idGen(), intent, s.plan, s.clock())
	s.pending = &call
	return call, nil
}

// Pending returns the pending call, if any.
func (s *Session) Pending() (PendingCall, bool) {
	if s.pending == nil {
		return PendingCall{}, false
	}
	return *s.pending, true
}

// ConfirmCall consumes the pending call and dispatches its request.
// The call is discarded even when dispatch fails.
func (s *Session) ConfirmCall(ctx context.Context) (domain.DialRequest, error) {
	if s.pending == nil {
		return domain.DialRequest{}, ErrNoPendingCall
	}
	call := *s.pending
	s.pending = nil
	if s.dispatcher == nil {
		return call.Request, nil
	}
	if err := s.dispatcher.Dispatch(ctx, call.Request); err != nil {
		s.logger.Error("dispatch failed", "id", call.ID, "err", err)
		return call.Request, fmt.Errorf("dispatch call %s: %w", call.ID, err)
	}
	s.logger.Info("call dispatched", "id", call.ID, "destination", call.Request.Destination, "caller_id", call.Request.CallerID)
	return call.Request, nil
}

// CancelCall discards the pending call and reports whether one existed.
func (s *Session) CancelCall() bool {
	had := s.pending != nil
	s.pending = nil
	return had
}
