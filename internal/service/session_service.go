package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"promptmatch/internal/domain"
	"promptmatch/internal/game"
	"promptmatch/internal/logger"
	"promptmatch/internal/store"

	"github.com/google/uuid"
)

const maxNameLen = 20

var errEmptyDeck = errors.New("deck is empty")

type watchKey struct {
	matchID  string
	playerID string
}

// SessionService creates, joins, starts and leaves matches. It holds no
// match state of its own: every decision is taken on a fresh read of the
// shared record.
type SessionService struct {
	store       store.Store
	newPlayerID func() string

	mu       sync.Mutex
	watchers map[watchKey]map[*MatchWatcher]struct{}
}

func NewSessionService(st store.Store) *SessionService {
	return &SessionService{
		store:       st,
		newPlayerID: uuid.NewString,
		watchers:    make(map[watchKey]map[*MatchWatcher]struct{}),
	}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return "", domain.ErrInvalidName
	}
	return name, nil
}

// Create opens a new match with the caller as host and first turn holder.
func (s *SessionService) Create(ctx context.Context, hostName string) (domain.Session, error) {
	name, err := normalizeName(hostName)
	if err != nil {
		lifecycleFailures.WithLabelValues("create").Inc()
		return domain.Session{}, err
	}

	matchID, err := s.store.PushKey(ctx, gamesCollection)
	if err != nil {
		return domain.Session{}, storeErr(err)
	}
	playerID := s.newPlayerID()

	if err := s.store.Write(ctx, matchPath(matchID), game.NewMatch(matchID, playerID, name)); err != nil {
		return domain.Session{}, storeErr(err)
	}

	sessionsCreated.Inc()
	logger.ForMatch(matchID, playerID).Info("match created", "host", name)
	return domain.Session{MatchID: matchID, PlayerID: playerID, Name: name, Host: true}, nil
}

// Join adds the caller as the second player. A full match is rejected
// without writing anything.
func (s *SessionService) Join(ctx context.Context, matchID, guestName string) (domain.Session, error) {
	name, err := normalizeName(guestName)
	if err != nil {
		lifecycleFailures.WithLabelValues("join").Inc()
		return domain.Session{}, err
	}
	matchID = strings.TrimSpace(matchID)

	state, err := loadMatch(ctx, s.store, matchID)
	if err != nil {
		lifecycleFailures.WithLabelValues("join").Inc()
		return domain.Session{}, err
	}
	if len(state.Players) >= 2 {
		lifecycleFailures.WithLabelValues("join").Inc()
		return domain.Session{}, domain.ErrSessionFull
	}

	playerID := s.newPlayerID()
	guest := domain.Player{Name: name, Score: 0, Color: domain.GuestColor}
	if err := s.store.Update(ctx, matchPath(matchID), game.JoinPatch(playerID, guest)); err != nil {
		return domain.Session{}, storeErr(err)
	}

	sessionsJoined.Inc()
	logger.ForMatch(matchID, playerID).Info("player joined", "name", name)
	return domain.Session{MatchID: matchID, PlayerID: playerID, Name: name}, nil
}

// Start installs deck and opens play. Only the host may start, and only
// once both players are present.
func (s *SessionService) Start(ctx context.Context, sess domain.Session, deck []domain.Tile) error {
	state, err := s.hostCheck(ctx, sess, "start")
	if err != nil {
		return err
	}
	if state.Started {
		lifecycleFailures.WithLabelValues("start").Inc()
		return domain.ErrAlreadyStarted
	}
	if len(deck) == 0 {
		return errEmptyDeck
	}
	if err := s.store.Update(ctx, matchPath(sess.MatchID), game.StartPatch(deck)); err != nil {
		return storeErr(err)
	}
	logger.ForMatch(sess.MatchID, sess.PlayerID).Info("match started", "tiles", len(deck))
	return nil
}

// Restart deals deck for a rematch: scores go back to zero and the host
// takes the first turn.
func (s *SessionService) Restart(ctx context.Context, sess domain.Session, deck []domain.Tile) error {
	state, err := s.hostCheck(ctx, sess, "restart")
	if err != nil {
		return err
	}
	if len(deck) == 0 {
		return errEmptyDeck
	}
	if err := s.store.Update(ctx, matchPath(sess.MatchID), game.RematchPatch(state, deck)); err != nil {
		return storeErr(err)
	}
	logger.ForMatch(sess.MatchID, sess.PlayerID).Info("match restarted", "tiles", len(deck))
	return nil
}

// CheckHost reports whether sess may deal a deck right now: it must be
// the host of a match with both players seated.
func (s *SessionService) CheckHost(ctx context.Context, sess domain.Session) error {
	_, err := s.hostCheck(ctx, sess, "deal")
	return err
}

func (s *SessionService) hostCheck(ctx context.Context, sess domain.Session, op string) (*domain.MatchState, error) {
	state, err := loadMatch(ctx, s.store, sess.MatchID)
	if err != nil {
		lifecycleFailures.WithLabelValues(op).Inc()
		return nil, err
	}
	if sess.PlayerID != state.HostID {
		lifecycleFailures.WithLabelValues(op).Inc()
		return nil, domain.ErrNotHost
	}
	if len(state.Players) != 2 {
		lifecycleFailures.WithLabelValues(op).Inc()
		return nil, domain.ErrOpponentMissing
	}
	return state, nil
}

// Watch streams the match record to one player until the watcher is
// closed, ctx ends, or the player leaves.
func (s *SessionService) Watch(ctx context.Context, sess domain.Session) (*MatchWatcher, error) {
	if _, err := loadMatch(ctx, s.store, sess.MatchID); err != nil {
		return nil, err
	}
	sub, err := s.store.Subscribe(ctx, matchPath(sess.MatchID))
	if err != nil {
		return nil, storeErr(err)
	}
	w := newMatchWatcher(sub)

	key := watchKey{sess.MatchID, sess.PlayerID}
	s.mu.Lock()
	if s.watchers[key] == nil {
		s.watchers[key] = make(map[*MatchWatcher]struct{})
	}
	s.watchers[key][w] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-w.Done()
		s.mu.Lock()
		delete(s.watchers[key], w)
		if len(s.watchers[key]) == 0 {
			delete(s.watchers, key)
		}
		s.mu.Unlock()
	}()
	return w, nil
}

// Leave releases every listener the player holds. The shared record is
// left as is; the opponent keeps their view.
func (s *SessionService) Leave(_ context.Context, sess domain.Session) error {
	key := watchKey{sess.MatchID, sess.PlayerID}
	s.mu.Lock()
	ws := make([]*MatchWatcher, 0, len(s.watchers[key]))
	for w := range s.watchers[key] {
		ws = append(ws, w)
	}
	delete(s.watchers, key)
	s.mu.Unlock()

	for _, w := range ws {
		w.Close()
	}
	logger.ForMatch(sess.MatchID, sess.PlayerID).Info("player left", "listeners", len(ws))
	return nil
}

// Watching reports how many live watchers the player holds.
func (s *SessionService) Watching(sess domain.Session) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers[watchKey{sess.MatchID, sess.PlayerID}])
}
