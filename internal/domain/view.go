package domain

// TileView is the client-facing representation of a tile.
// Value and Content are only included once the tile is face-up or matched.
type TileView struct {
	ID      int      `json:"id"`
	State   string   `json:"state"`
	Kind    TileKind `json:"type,omitempty"`
	Value   *int     `json:"value,omitempty"`
	Content string   `json:"content,omitempty"`
}

type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Color  string `json:"color"`
	IsTurn bool   `json:"is_turn"`
	IsHost bool   `json:"is_host"`
}

// MatchView is a match as shown to one player.
type MatchView struct {
	MatchID   string       `json:"game_id"`
	Phase     Phase        `json:"phase"`
	Lifecycle Lifecycle    `json:"lifecycle"`
	Tiles     []TileView   `json:"tiles"`
	Players   []PlayerView `json:"players"`
	Flipped   []int        `json:"flipped"`
	YourTurn  bool         `json:"your_turn"`
	Winner    *string      `json:"winner"`
}

const (
	TileHidden   = "hidden"
	TileRevealed = "revealed"
	TileMatched  = "matched"
)

// BuildView renders m for viewer. Hidden tiles keep their kind so the
// prompt and image backs can be told apart, but never their content.
func BuildView(m *MatchState, viewer string) MatchView {
	v := MatchView{
		MatchID:   m.MatchID,
		Phase:     m.Phase(),
		Lifecycle: m.Lifecycle(),
		Tiles:     make([]TileView, len(m.Cards)),
		Flipped:   append([]int{}, m.FlippedCards...),
		YourTurn:  m.Phase() == PhaseInProgress && m.CurrentTurn == viewer,
		Winner:    m.Winner,
	}
	for i, t := range m.Cards {
		tv := TileView{ID: t.ID, State: TileHidden, Kind: t.Kind}
		switch {
		case t.Matched:
			tv.State = TileMatched
		case t.FaceUp:
			tv.State = TileRevealed
		}
		if tv.State != TileHidden {
			value := t.PairValue
			tv.Value = &value
			tv.Content = t.Payload
		}
		v.Tiles[i] = tv
	}
	for _, id := range m.PlayerIDs() {
		p := m.Players[id]
		v.Players = append(v.Players, PlayerView{
			ID:     id,
			Name:   p.Name,
			Score:  p.Score,
			Color:  p.Color,
			IsTurn: id == m.CurrentTurn,
			IsHost: id == m.HostID,
		})
	}
	return v
}
