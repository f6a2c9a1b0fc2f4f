package models

import "errors"

// Custom errors
var (
	ErrInsufficientData = errors.New("insufficient data for walk-forward splits")
	ErrNoSplits         = errors.New("no valid splits created")
	ErrUnknownScheme    = errors.New("unknown portfolio scheme")
	ErrUnknownWeight    = errors.New("unknown weight scheme")
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateKey     = errors.New("duplicate key violation")
)
