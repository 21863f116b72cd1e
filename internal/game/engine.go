package game

import (
	"fmt"

	"promptmatch/internal/domain"
)

// Outcome of evaluating a face-up pair.
type Outcome string

const (
	OutcomeMatch Outcome = "match"
	OutcomeMiss  Outcome = "miss"
)

// Record field names, relative to games/{matchId}.
const (
	fieldCards       = "cards"
	fieldFlipped     = "flippedCards"
	fieldCurrentTurn = "currentTurn"
	fieldWinner      = "winner"
	fieldPlayers     = "players"
	fieldStarted     = "gameStarted"
)

func tilePath(index int, field string) string {
	return fmt.Sprintf("%s/%d/%s", fieldCards, index, field)
}

func scorePath(playerID string) string {
	return fieldPlayers + "/" + playerID + "/score"
}

// SelectTile turns a tile face-up for actor. It returns accepted=false, and
// leaves state untouched, when the match is not in progress, actor does not
// hold the turn, two tiles are already up, or the tile is unknown, face-up
// or matched. The turn holder never changes here.
func SelectTile(state *domain.MatchState, actor string, tileID int) (*domain.MatchState, Patch, bool) {
	if state.Phase() != domain.PhaseInProgress {
		return state, nil, false
	}
	if actor != state.CurrentTurn || len(state.FlippedCards) >= 2 {
		return state, nil, false
	}
	idx := state.TileIndex(tileID)
	if idx < 0 {
		return state, nil, false
	}
	if t := state.Cards[idx]; t.FaceUp || t.Matched {
		return state, nil, false
	}

	next := state.Clone()
	next.Cards[idx].FaceUp = true
	next.FlippedCards = append(next.FlippedCards, tileID)

	patch := Patch{
		tilePath(idx, "isFlipped"): true,
		fieldFlipped:               append([]int{}, next.FlippedCards...),
	}
	return next, patch, true
}

// PendingEvaluation reports whether two tiles are up and waiting to be compared.
func PendingEvaluation(state *domain.MatchState) bool {
	return state.Phase() == domain.PhaseInProgress && len(state.FlippedCards) == 2
}

// Evaluate compares the two face-up tiles on behalf of evaluator, the turn
// holder that flipped the second one. A hit scores a point and keeps the
// turn; a miss turns both tiles back and passes the turn. The whole result
// is one patch. accepted=false means there was nothing valid to evaluate.
func Evaluate(state *domain.MatchState, evaluator string) (*domain.MatchState, Patch, Outcome, bool) {
	if !PendingEvaluation(state) || evaluator != state.CurrentTurn || !state.HasPlayer(evaluator) {
		return state, nil, "", false
	}

	a, b := state.FlippedCards[0], state.FlippedCards[1]
	ia, ib := state.TileIndex(a), state.TileIndex(b)
	if ia < 0 || ib < 0 || ia == ib {
		return state, nil, "", false
	}
	for _, i := range []int{ia, ib} {
		if t := state.Cards[i]; !t.FaceUp || t.Matched {
			return state, nil, "", false
		}
	}

	next := state.Clone()
	next.FlippedCards = []int{}
	patch := Patch{fieldFlipped: []int{}}

	if next.Cards[ia].PairValue != next.Cards[ib].PairValue {
		next.Cards[ia].FaceUp = false
		next.Cards[ib].FaceUp = false
		patch[tilePath(ia, "isFlipped")] = false
		patch[tilePath(ib, "isFlipped")] = false

		if other, ok := next.Opponent(evaluator); ok {
			next.CurrentTurn = other
			patch[fieldCurrentTurn] = other
		}
		return next, patch, OutcomeMiss, true
	}

	next.Cards[ia].Matched = true
	next.Cards[ib].Matched = true
	patch[tilePath(ia, "isMatched")] = true
	patch[tilePath(ib, "isMatched")] = true

	p := next.Players[evaluator]
	p.Score++
	next.Players[evaluator] = p
	patch[scorePath(evaluator)] = p.Score

	if next.AllMatched() {
		w := decideWinner(next)
		next.Winner = &w
		patch[fieldWinner] = w
	}
	return next, patch, OutcomeMatch, true
}

// decideWinner returns the id of the single highest scorer, or WinnerTie.
func decideWinner(state *domain.MatchState) string {
	best, winner, tied := -1, "", false
	for _, id := range state.PlayerIDs() {
		score := state.Players[id].Score
		switch {
		case score > best:
			best, winner, tied = score, id, false
		case score == best:
			tied = true
		}
	}
	if tied || winner == "" {
		return domain.WinnerTie
	}
	return winner
}

// NewMatch is the record written when a host opens a match.
func NewMatch(matchID, hostID, hostName string) *domain.MatchState {
	return &domain.MatchState{
		MatchID: matchID,
		HostID:  hostID,
		Cards:   []domain.Tile{},
		Players: map[string]domain.Player{
			hostID: {Name: hostName, Score: 0, Color: domain.HostColor},
		},
		CurrentTurn:  hostID,
		FlippedCards: []int{},
	}
}

// StartPatch installs a fresh deck and opens play.
func StartPatch(deck []domain.Tile) Patch {
	return Patch{
		fieldCards:   deck,
		fieldFlipped: []int{},
		fieldWinner:  nil,
		fieldStarted: true,
	}
}

// RematchPatch is StartPatch plus zeroed scores and the turn back with the host.
func RematchPatch(state *domain.MatchState, deck []domain.Tile) Patch {
	patch := StartPatch(deck)
	for id := range state.Players {
		patch[scorePath(id)] = 0
	}
	patch[fieldCurrentTurn] = state.HostID
	return patch
}

// JoinPatch adds a player without touching any other subtree.
func JoinPatch(playerID string, p domain.Player) Patch {
	return Patch{fieldPlayers + "/" + playerID: p}
}
