package core

import "errors"

var (
	// ErrRepoNotFound is returned when the target repository does not exist.
	// It aborts the whole operation.
	ErrRepoNotFound = errors.New("repository not found")

	// ErrNotFound is returned when no pending entry matches the presented
	// (email, token) pair: unknown token, wrong email, or a token that was
	// already consumed
	ErrNotFound = errors.New("entry not found")

	// ErrTokenExpired is returned when an opt-in presents a token older than
	// the configured verification expiry. The entry is marked expired as a
	// side effect.
	ErrTokenExpired = errors.New("verification token expired")
)
