package game

import (
	"testing"

	"promptmatch/internal/domain"
)

const (
	playerA = "player-a"
	playerB = "player-b"
)

// scenarioMatch is the 2-pair board [{0,1},{1,2},{2,1},{3,2}] with A to move.
func scenarioMatch() *domain.MatchState {
	m := NewMatch("match-1", playerA, "Alice")
	m.Players[playerB] = domain.Player{Name: "Bob", Color: domain.GuestColor}
	m.Cards = []domain.Tile{
		{ID: 0, PairValue: 1},
		{ID: 1, PairValue: 2},
		{ID: 2, PairValue: 1},
		{ID: 3, PairValue: 2},
	}
	m.Started = true
	return m
}

func mustSelect(t *testing.T, m *domain.MatchState, actor string, tile int) *domain.MatchState {
	t.Helper()
	next, patch, ok := SelectTile(m, actor, tile)
	if !ok {
		t.Fatalf("select %d by %s rejected", tile, actor)
	}
	if len(patch) == 0 {
		t.Fatalf("select %d by %s produced an empty patch", tile, actor)
	}
	return next
}

func mustEvaluate(t *testing.T, m *domain.MatchState, actor string) (*domain.MatchState, Patch, Outcome) {
	t.Helper()
	next, patch, outcome, ok := Evaluate(m, actor)
	if !ok {
		t.Fatalf("evaluate by %s rejected", actor)
	}
	return next, patch, outcome
}

func TestScenarioTwoMatchesWin(t *testing.T) {
	m := scenarioMatch()

	m = mustSelect(t, m, playerA, 0)
	m = mustSelect(t, m, playerA, 2)
	m, _, outcome := mustEvaluate(t, m, playerA)
	if outcome != OutcomeMatch {
		t.Fatalf("expected match, got %s", outcome)
	}
	if m.Players[playerA].Score != 1 || m.CurrentTurn != playerA || len(m.FlippedCards) != 0 {
		t.Fatalf("after first match: score=%d turn=%s flipped=%v", m.Players[playerA].Score, m.CurrentTurn, m.FlippedCards)
	}
	if m.Winner != nil {
		t.Fatalf("winner set too early: %s", *m.Winner)
	}

	m = mustSelect(t, m, playerA, 1)
	m = mustSelect(t, m, playerA, 3)
	m, patch, outcome := mustEvaluate(t, m, playerA)
	if outcome != OutcomeMatch {
		t.Fatalf("expected match, got %s", outcome)
	}
	if m.Players[playerA].Score != 2 {
		t.Fatalf("score A = %d, want 2", m.Players[playerA].Score)
	}
	if m.Winner == nil || *m.Winner != playerA {
		t.Fatalf("winner = %v, want %s", m.Winner, playerA)
	}
	if patch["winner"] != playerA {
		t.Fatalf("patch winner = %v", patch["winner"])
	}
	if m.Phase() != domain.PhaseFinished {
		t.Fatalf("phase = %s", m.Phase())
	}
}

func TestScenarioMissPassesTurn(t *testing.T) {
	m := scenarioMatch()
	m = mustSelect(t, m, playerA, 0)
	m = mustSelect(t, m, playerA, 1)
	m, patch, outcome := mustEvaluate(t, m, playerA)

	if outcome != OutcomeMiss {
		t.Fatalf("expected miss, got %s", outcome)
	}
	if m.CurrentTurn != playerB {
		t.Fatalf("turn = %s, want %s", m.CurrentTurn, playerB)
	}
	if m.Cards[0].FaceUp || m.Cards[1].FaceUp {
		t.Fatalf("tiles not turned back: %+v", m.Cards[:2])
	}
	if m.Players[playerA].Score != 0 || m.Players[playerB].Score != 0 {
		t.Fatalf("scores changed on a miss")
	}
	if len(m.FlippedCards) != 0 {
		t.Fatalf("selection not drained: %v", m.FlippedCards)
	}
	if patch["currentTurn"] != playerB || patch["cards/0/isFlipped"] != false || patch["cards/1/isFlipped"] != false {
		t.Fatalf("unexpected patch: %v", patch)
	}
}

func TestSelectTileRejections(t *testing.T) {
	waiting := scenarioMatch()
	waiting.Started = false

	twoUp := scenarioMatch()
	twoUp = mustSelect(t, twoUp, playerA, 0)
	twoUp = mustSelect(t, twoUp, playerA, 1)

	matched := scenarioMatch()
	matched.Cards[3].Matched = true

	oneUp := mustSelect(t, scenarioMatch(), playerA, 0)

	cases := []struct {
		name  string
		state *domain.MatchState
		actor string
		tile  int
	}{
		{"not started", waiting, playerA, 0},
		{"wrong turn", scenarioMatch(), playerB, 0},
		{"selection full", twoUp, playerA, 2},
		{"unknown tile", scenarioMatch(), playerA, 42},
		{"already face-up", oneUp, playerA, 0},
		{"already matched", matched, playerA, 3},
	}

	for _, tc := range cases {
		before := tc.state.Clone()
		next, patch, ok := SelectTile(tc.state, tc.actor, tc.tile)
		if ok || patch != nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
		if next != tc.state {
			t.Fatalf("%s: rejected select returned a different state", tc.name)
		}
		for i := range before.Cards {
			if before.Cards[i] != tc.state.Cards[i] {
				t.Fatalf("%s: tile %d mutated", tc.name, i)
			}
		}
	}
}

func TestSelectTileNeverChangesTurn(t *testing.T) {
	m := scenarioMatch()
	next, patch, ok := SelectTile(m, playerA, 3)
	if !ok {
		t.Fatalf("select rejected")
	}
	if next.CurrentTurn != playerA {
		t.Fatalf("turn changed to %s", next.CurrentTurn)
	}
	if _, touched := patch["currentTurn"]; touched {
		t.Fatalf("patch writes currentTurn: %v", patch)
	}
	if m.Cards[3].FaceUp {
		t.Fatalf("select mutated its input")
	}
	if !next.Cards[3].FaceUp || next.FlippedCards[0] != 3 {
		t.Fatalf("tile not face-up in next state")
	}
	if PendingEvaluation(next) {
		t.Fatalf("one tile up should not be pending")
	}
}

func TestEvaluateRejections(t *testing.T) {
	oneUp := mustSelect(t, scenarioMatch(), playerA, 0)
	twoUp := mustSelect(t, oneUp, playerA, 2)

	if _, _, _, ok := Evaluate(scenarioMatch(), playerA); ok {
		t.Fatalf("evaluate with nothing face-up accepted")
	}
	if _, _, _, ok := Evaluate(oneUp, playerA); ok {
		t.Fatalf("evaluate with one tile up accepted")
	}
	if _, _, _, ok := Evaluate(twoUp, playerB); ok {
		t.Fatalf("evaluate by non turn holder accepted")
	}
	if _, _, _, ok := Evaluate(twoUp, "stranger"); ok {
		t.Fatalf("evaluate by unknown player accepted")
	}

	stale := twoUp.Clone()
	stale.Cards[2].FaceUp = false
	if _, _, _, ok := Evaluate(stale, playerA); ok {
		t.Fatalf("evaluate of a face-down selection accepted")
	}
}

func TestEvaluateTie(t *testing.T) {
	m := scenarioMatch()
	m.Players[playerB] = domain.Player{Name: "Bob", Score: 1, Color: domain.GuestColor}
	m.Cards[1].Matched = true
	m.Cards[3].Matched = true

	m = mustSelect(t, m, playerA, 0)
	m = mustSelect(t, m, playerA, 2)
	m, _, _ = mustEvaluate(t, m, playerA)

	if m.Winner == nil || *m.Winner != domain.WinnerTie {
		t.Fatalf("winner = %v, want tie", m.Winner)
	}
}

func TestEvaluateScoresOnlyEvaluator(t *testing.T) {
	m := scenarioMatch()
	m.CurrentTurn = playerB
	m = mustSelect(t, m, playerB, 1)
	m = mustSelect(t, m, playerB, 3)
	m, patch, _ := mustEvaluate(t, m, playerB)

	if m.Players[playerB].Score != 1 || m.Players[playerA].Score != 0 {
		t.Fatalf("scores A=%d B=%d", m.Players[playerA].Score, m.Players[playerB].Score)
	}
	if patch["players/"+playerB+"/score"] != 1 {
		t.Fatalf("patch score = %v", patch["players/"+playerB+"/score"])
	}
	if _, ok := patch["players/"+playerA+"/score"]; ok {
		t.Fatalf("patch touches the other player's score")
	}
	if m.CurrentTurn != playerB {
		t.Fatalf("turn moved on a match")
	}
}

func TestRematchPatchResetsScores(t *testing.T) {
	m := scenarioMatch()
	patch := RematchPatch(m, []domain.Tile{{ID: 0, PairValue: 1}, {ID: 1, PairValue: 1}})
	if patch["players/"+playerA+"/score"] != 0 || patch["players/"+playerB+"/score"] != 0 {
		t.Fatalf("scores not reset: %v", patch)
	}
	if patch["currentTurn"] != playerA || patch["gameStarted"] != true {
		t.Fatalf("unexpected patch: %v", patch)
	}
	if v, ok := patch["winner"]; !ok || v != nil {
		t.Fatalf("winner not cleared: %v", patch)
	}
}
