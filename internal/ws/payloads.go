package ws

// Message is the envelope of every server frame.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// client → server
type inbound struct {
	Type string `json:"type"`
	Tile *int   `json:"tile,omitempty"`
}

// server → client
type ReadyPayload struct {
	MatchID  string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
