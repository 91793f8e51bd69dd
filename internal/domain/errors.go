package domain

import "errors"

// Domain errors
var (
	ErrNotSeated      = errors.New("not seated in this game")
	ErrAlreadySeated  = errors.New("already seated in a game")
	ErrInvalidState   = errors.New("invalid action for current phase")
	ErrLookupFailed   = errors.New("no game with this id and password")
	ErrRegistryFull   = errors.New("could not allocate a game id")
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerDead     = errors.New("player is already dead")
	ErrInvalidConfig  = errors.New("invalid game configuration")
)
