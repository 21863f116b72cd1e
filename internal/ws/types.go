package ws

const (
	// client - server
	MsgSelect   = "select"
	MsgEvaluate = "evaluate"
	MsgPing     = "ping"

	// server - client
	MsgReady = "ready"
	MsgState = "state"
	MsgPong  = "pong"
	MsgError = "error"
)
