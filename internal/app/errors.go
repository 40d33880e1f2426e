package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound        = errors.New("not found")
	ErrNoSource        = errors.New("no phonebook source configured")
	ErrNoPendingCall   = errors.New("no pending call")
	ErrCallNotReady    = errors.New("call not ready")
	ErrReloadThrottled = errors.New("reload throttled")
)
