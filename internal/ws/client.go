package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"promptmatch/internal/domain"
	"promptmatch/internal/logger"
	"promptmatch/internal/service"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 64
)

// Client is one socket streaming a match to one player.
type Client struct {
	Session domain.Session
	Conn    *websocket.Conn
	Send    chan []byte

	hub       *Hub
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(sess domain.Session, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Session: sess,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		hub:     hub,
		done:    make(chan struct{}),
	}
}

// Run streams the match until the socket drops, the player leaves or ctx
// ends. It blocks.
func (c *Client) Run(ctx context.Context) {
	log := logger.ForMatch(c.Session.MatchID, c.Session.PlayerID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump()

	watcher, err := c.hub.sessions.Watch(ctx, c.Session)
	if err != nil {
		log.Warn("ws: watch failed", "error", err)
		c.sendMessage(Message{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
		c.close()
		return
	}
	defer watcher.Close()

	if !c.hub.register(c) {
		c.close()
		return
	}
	defer c.hub.unregister(c)

	c.sendMessage(Message{Type: MsgReady, Payload: ReadyPayload{
		MatchID:  c.Session.MatchID,
		PlayerID: c.Session.PlayerID,
	}})
	log.Debug("ws: client connected")

	go c.forwardStates(watcher)
	c.readPump(ctx)
	log.Debug("ws: client disconnected")
}

func (c *Client) forwardStates(w *service.MatchWatcher) {
	for {
		select {
		case <-c.done:
			return
		case m, ok := <-w.States():
			if !ok {
				// player left or the subscription was dropped
				c.close()
				return
			}
			c.sendMessage(Message{Type: MsgState, Payload: domain.BuildView(m, c.Session.PlayerID)})
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer c.close()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws: read error", "match_id", c.Session.MatchID, "error", err)
			}
			return
		}
		c.handle(ctx, msg)
	}
}

func (c *Client) handle(ctx context.Context, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("malformed message")
		return
	}

	switch msg.Type {
	case MsgSelect:
		if msg.Tile == nil {
			c.sendError("tile is required")
			return
		}
		res, err := c.hub.matches.SelectTile(ctx, c.Session, *msg.Tile)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		if res.PendingEvaluation {
			c.hub.scheduleEvaluation(c.Session)
		}
	case MsgEvaluate:
		c.hub.cancelEvaluation(c.Session.MatchID)
		c.hub.evaluate(ctx, c.Session)
	case MsgPing:
		c.sendMessage(Message{Type: MsgPong})
	default:
		c.sendError("unknown message type")
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.flush()
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever was queued before the close.
func (c *Client) flush() {
	for {
		select {
		case msg := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) sendError(text string) {
	c.sendMessage(Message{Type: MsgError, Payload: ErrorPayload{Message: text}})
}

// sendMessage queues msg for the writer. It gives up once the client is closed.
func (c *Client) sendMessage(msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		logger.Error("ws: encode message", "type", msg.Type, "error", err)
		return
	}
	select {
	case c.Send <- b:
	case <-c.done:
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
