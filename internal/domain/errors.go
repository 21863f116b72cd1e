package domain

import "errors"

// Session lifecycle and content errors. They are surfaced to the caller and
// shown to the player; engine rejections never produce one of these.
var (
	ErrSessionNotFound     = errors.New("game not found, check the code and try again")
	ErrSessionFull         = errors.New("game already has two players")
	ErrNotHost             = errors.New("only the host can start the game")
	ErrOpponentMissing     = errors.New("waiting for an opponent to join")
	ErrInsufficientContent = errors.New("not enough card content for this board")
	ErrStoreUnavailable    = errors.New("game store unavailable, try again")

	ErrAlreadyStarted = errors.New("game already started, use rematch")
	ErrInvalidName    = errors.New("name must be 1 to 20 characters")
	ErrUnknownBoard   = errors.New("unknown board size")
	ErrUnknownContent = errors.New("unknown card content mode")
)
