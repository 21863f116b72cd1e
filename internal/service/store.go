package service

import (
	"context"
	"fmt"

	"promptmatch/internal/domain"
	"promptmatch/internal/store"
)

const gamesCollection = "games"

func matchPath(matchID string) string {
	return gamesCollection + "/" + matchID
}

// storeErr reports a failed round trip to the shared store. The core does
// not retry; the caller decides.
func storeErr(err error) error {
	storeErrors.Inc()
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

// loadMatch reads the shared record. A reserved key without a host counts
// as missing.
func loadMatch(ctx context.Context, st store.Store, matchID string) (*domain.MatchState, error) {
	if !validMatchID(matchID) {
		return nil, domain.ErrSessionNotFound
	}
	var m domain.MatchState
	found, err := st.Read(ctx, matchPath(matchID), &m)
	if err != nil {
		return nil, storeErr(err)
	}
	if !found || len(m.Players) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	if m.MatchID == "" {
		m.MatchID = matchID
	}
	if m.FlippedCards == nil {
		m.FlippedCards = []int{}
	}
	return &m, nil
}

func validMatchID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		if r == '/' || r == '.' || r <= ' ' {
			return false
		}
	}
	return true
}
