package domain

import "errors"

// ErrInvalidNumberFormat and related errors describe validation and load failures.
var (
	ErrInvalidNumberFormat = errors.New("invalid number format")
	ErrInvalidCandidate    = errors.New("invalid candidate")
	ErrCandidateLoadFailed = errors.New("candidate load failed")
	ErrInvalidSnapshotID   = errors.New("invalid snapshot id")
)
