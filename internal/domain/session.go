package domain

// Session is the identity a client acts under inside one match. It is
// handed to every operation explicitly instead of being looked up from
// ambient client storage.
type Session struct {
	MatchID  string `json:"match_id"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Host     bool   `json:"host"`
}

func (s Session) Valid() bool {
	return s.MatchID != "" && s.PlayerID != ""
}
