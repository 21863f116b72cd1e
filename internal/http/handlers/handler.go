package handlers

import (
	"context"

	"promptmatch/internal/domain"
	"promptmatch/internal/game"
	"promptmatch/internal/service"
)

// ResultLister reads archived matches.
type ResultLister interface {
	Recent(ctx context.Context, limit int) ([]*domain.MatchResult, error)
	// GetByMatch returns nil, nil when the match has no archived result.
	GetByMatch(ctx context.Context, matchID string) (*domain.MatchResult, error)
}

type Handler struct {
	Sessions *service.SessionService
	Matches  *service.MatchService
	Tokens   *service.TokenIssuer
	Decks    *game.Factory
	// History is nil when no history database is configured.
	History ResultLister
}

func NewHandler(sessions *service.SessionService, matches *service.MatchService, tokens *service.TokenIssuer, decks *game.Factory, history ResultLister) *Handler {
	return &Handler{
		Sessions: sessions,
		Matches:  matches,
		Tokens:   tokens,
		Decks:    decks,
		History:  history,
	}
}
