package phonebook

import "errors"

// ErrUnexpectedStatus and related errors describe source failures.
var (
	ErrUnexpectedStatus = errors.New("unexpected phonebook status")
	ErrNoPath           = errors.New("phonebook file path is required")
	ErrNoURL            = errors.New("phonebook url is required")
)
