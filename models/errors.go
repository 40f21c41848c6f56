// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrSessionUnavailable = errors.New("invalid or inactive session")
	ErrDuplicateVote      = errors.New("already voted")
	ErrValidation         = errors.New("validation failed")
)
