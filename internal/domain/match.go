package domain

import (
	"sort"
	"time"
)

// TileKind tells which side of a pair a tile shows.
type TileKind string

const (
	TileKindPlain TileKind = "plain"
	TileKindText  TileKind = "text"
	TileKindImage TileKind = "image"
)

// Tile is one card of the deck. JSON names follow the shared record layout.
type Tile struct {
	ID        int      `json:"id"`
	PairValue int      `json:"value"`
	FaceUp    bool     `json:"isFlipped"`
	Matched   bool     `json:"isMatched"`
	Kind      TileKind `json:"type,omitempty"`
	Payload   string   `json:"content,omitempty"`
}

type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Color string `json:"color"`
}

const (
	HostColor  = "#667eea"
	GuestColor = "#f5576c"

	// WinnerTie is stored in MatchState.Winner when final scores are equal.
	WinnerTie = "tie"
)

// Phase is the turn engine state of a match.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// Lifecycle is the session-level view of a match record.
type Lifecycle string

const (
	LifecycleAwaitingOpponent Lifecycle = "awaiting_opponent"
	LifecycleReady            Lifecycle = "ready"
	LifecycleInProgress       Lifecycle = "in_progress"
	LifecycleFinished         Lifecycle = "finished"
)

// MatchState is the shared record stored at games/{matchId}. Clients only
// ever hold a cached replica of it.
type MatchState struct {
	MatchID      string            `json:"gameId"`
	HostID       string            `json:"hostId"`
	Cards        []Tile            `json:"cards"`
	Players      map[string]Player `json:"players"`
	CurrentTurn  string            `json:"currentTurn"`
	FlippedCards []int             `json:"flippedCards"`
	Started      bool              `json:"gameStarted"`
	Winner       *string           `json:"winner"`
}

func (m *MatchState) Phase() Phase {
	switch {
	case !m.Started:
		return PhaseWaiting
	case m.Winner != nil:
		return PhaseFinished
	default:
		return PhaseInProgress
	}
}

func (m *MatchState) Lifecycle() Lifecycle {
	switch m.Phase() {
	case PhaseFinished:
		return LifecycleFinished
	case PhaseInProgress:
		return LifecycleInProgress
	}
	if len(m.Players) >= 2 {
		return LifecycleReady
	}
	return LifecycleAwaitingOpponent
}

// TileIndex returns the position of the tile with the given id, or -1.
func (m *MatchState) TileIndex(id int) int {
	for i := range m.Cards {
		if m.Cards[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *MatchState) AllMatched() bool {
	if len(m.Cards) == 0 {
		return false
	}
	for _, t := range m.Cards {
		if !t.Matched {
			return false
		}
	}
	return true
}

func (m *MatchState) HasPlayer(id string) bool {
	_, ok := m.Players[id]
	return ok
}

// PlayerIDs lists the host first, then the remaining players by id.
func (m *MatchState) PlayerIDs() []string {
	ids := make([]string, 0, len(m.Players))
	for id := range m.Players {
		if id != m.HostID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if _, ok := m.Players[m.HostID]; ok {
		ids = append([]string{m.HostID}, ids...)
	}
	return ids
}

// Opponent returns the id of the other player.
func (m *MatchState) Opponent(id string) (string, bool) {
	for _, pid := range m.PlayerIDs() {
		if pid != id {
			return pid, true
		}
	}
	return "", false
}

// Clone returns a deep copy, so transitions never alias a cached replica.
func (m *MatchState) Clone() *MatchState {
	c := *m
	c.Cards = append([]Tile(nil), m.Cards...)
	c.FlippedCards = append([]int{}, m.FlippedCards...)
	c.Players = make(map[string]Player, len(m.Players))
	for id, p := range m.Players {
		c.Players[id] = p
	}
	if m.Winner != nil {
		w := *m.Winner
		c.Winner = &w
	}
	return &c
}

// PlayerResult is one line of a finished match.
type PlayerResult struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// MatchResult is the archived outcome of a finished match.
type MatchResult struct {
	ID         int64          `db:"id" json:"id"`
	MatchID    string         `db:"match_id" json:"match_id"`
	Winner     string         `db:"winner" json:"winner"`
	Players    []PlayerResult `db:"players" json:"players"`
	TileCount  int            `db:"tile_count" json:"tile_count"`
	FinishedAt time.Time      `db:"finished_at" json:"finished_at"`
}

// ResultOf summarises a finished match.
func ResultOf(m *MatchState, at time.Time) *MatchResult {
	r := &MatchResult{
		MatchID:    m.MatchID,
		TileCount:  len(m.Cards),
		FinishedAt: at,
	}
	if m.Winner != nil {
		r.Winner = *m.Winner
	}
	for _, id := range m.PlayerIDs() {
		p := m.Players[id]
		r.Players = append(r.Players, PlayerResult{PlayerID: id, Name: p.Name, Score: p.Score})
	}
	return r
}
