package service

import (
	"context"
	"time"

	"promptmatch/internal/domain"
	"promptmatch/internal/game"
	"promptmatch/internal/logger"
	"promptmatch/internal/store"
)

// ResultRecorder archives finished matches.
type ResultRecorder interface {
	Record(ctx context.Context, r *domain.MatchResult) error
}

type SelectResult struct {
	Accepted          bool               `json:"accepted"`
	PendingEvaluation bool               `json:"pending_evaluation"`
	State             *domain.MatchState `json:"-"`
}

type EvaluateResult struct {
	Accepted bool               `json:"accepted"`
	Outcome  game.Outcome       `json:"outcome,omitempty"`
	Finished bool               `json:"finished"`
	State    *domain.MatchState `json:"-"`
}

// MatchService runs turn transitions against the shared record. Rejected
// moves are not errors: the result just reports Accepted=false and the
// record is not written.
type MatchService struct {
	store   store.Store
	results ResultRecorder
	now     func() time.Time
}

// NewMatchService builds the service. results may be nil when no history
// database is configured.
func NewMatchService(st store.Store, results ResultRecorder) *MatchService {
	return &MatchService{store: st, results: results, now: time.Now}
}

func (s *MatchService) State(ctx context.Context, matchID string) (*domain.MatchState, error) {
	return loadMatch(ctx, s.store, matchID)
}

func (s *MatchService) SelectTile(ctx context.Context, sess domain.Session, tileID int) (SelectResult, error) {
	state, err := loadMatch(ctx, s.store, sess.MatchID)
	if err != nil {
		return SelectResult{}, err
	}

	next, patch, ok := game.SelectTile(state, sess.PlayerID, tileID)
	if !ok {
		tileSelections.WithLabelValues("rejected").Inc()
		logger.ForMatch(sess.MatchID, sess.PlayerID).Debug("selection ignored", "tile", tileID)
		return SelectResult{State: state}, nil
	}
	if err := s.store.Update(ctx, matchPath(sess.MatchID), patch); err != nil {
		return SelectResult{}, storeErr(err)
	}

	tileSelections.WithLabelValues("accepted").Inc()
	return SelectResult{
		Accepted:          true,
		PendingEvaluation: game.PendingEvaluation(next),
		State:             next,
	}, nil
}

// Evaluate resolves the face-up pair. The record is read again right
// before the write; two evaluators racing on the same pair still both
// write, and the last one wins.
func (s *MatchService) Evaluate(ctx context.Context, sess domain.Session) (EvaluateResult, error) {
	state, err := loadMatch(ctx, s.store, sess.MatchID)
	if err != nil {
		return EvaluateResult{}, err
	}

	next, patch, outcome, ok := game.Evaluate(state, sess.PlayerID)
	if !ok {
		evaluations.WithLabelValues("rejected").Inc()
		return EvaluateResult{State: state}, nil
	}
	if err := s.store.Update(ctx, matchPath(sess.MatchID), patch); err != nil {
		return EvaluateResult{}, storeErr(err)
	}
	evaluations.WithLabelValues(string(outcome)).Inc()

	res := EvaluateResult{Accepted: true, Outcome: outcome, State: next}
	log := logger.ForMatch(sess.MatchID, sess.PlayerID)
	log.Debug("pair evaluated", "outcome", outcome)

	if next.Phase() == domain.PhaseFinished {
		res.Finished = true
		matchesFinished.Inc()
		log.Info("match finished", "winner", *next.Winner)
		s.record(ctx, next)
	}
	return res, nil
}

// record archives a finished match. Failures are logged only; the match
// itself already finished in the shared store.
func (s *MatchService) record(ctx context.Context, state *domain.MatchState) {
	if s.results == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.results.Record(ctx, domain.ResultOf(state, s.now())); err != nil {
		logger.Warn("failed to archive match result", "match_id", state.MatchID, "error", err)
	}
}
