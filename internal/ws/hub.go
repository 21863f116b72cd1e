package ws

import (
	"context"
	"sync"
	"time"

	"promptmatch/internal/domain"
	"promptmatch/internal/logger"
	"promptmatch/internal/service"

	"github.com/prometheus/client_golang/prometheus"
)

var openSockets = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "promptmatch_ws_open_sockets",
	Help: "WebSocket connections currently streaming a match",
})

func init() {
	prometheus.MustRegister(openSockets)
}

// Hub tracks live sockets per match and paces pair evaluation. It holds no
// match state: every client streams the shared record on its own watcher.
type Hub struct {
	sessions  *service.SessionService
	matches   *service.MatchService
	evalDelay time.Duration

	mu      sync.Mutex
	clients map[string]map[*Client]struct{}
	pending map[string]*time.Timer
	closed  bool
}

func NewHub(sessions *service.SessionService, matches *service.MatchService, evalDelay time.Duration) *Hub {
	return &Hub{
		sessions:  sessions,
		matches:   matches,
		evalDelay: evalDelay,
		clients:   make(map[string]map[*Client]struct{}),
		pending:   make(map[string]*time.Timer),
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	id := c.Session.MatchID
	if h.clients[id] == nil {
		h.clients[id] = make(map[*Client]struct{})
	}
	h.clients[id][c] = struct{}{}
	openSockets.Inc()
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := c.Session.MatchID
	if _, ok := h.clients[id][c]; !ok {
		return
	}
	delete(h.clients[id], c)
	if len(h.clients[id]) == 0 {
		delete(h.clients, id)
	}
	openSockets.Dec()
}

// ClientCount returns the number of sockets open on a match.
func (h *Hub) ClientCount(matchID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[matchID])
}

// scheduleEvaluation resolves the face-up pair after the presentation
// delay, so both players get to see the second tile. One evaluation per
// match is pending at a time; a new pair replaces a timer left over from
// a pair that was already evaluated some other way.
func (h *Hub) scheduleEvaluation(sess domain.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if old, ok := h.pending[sess.MatchID]; ok {
		old.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(h.evalDelay, func() {
		h.mu.Lock()
		if h.pending[sess.MatchID] != t {
			h.mu.Unlock()
			return
		}
		delete(h.pending, sess.MatchID)
		h.mu.Unlock()
		h.evaluate(context.Background(), sess)
	})
	h.pending[sess.MatchID] = t
}

// evaluate resolves the pair now. It runs off the socket, so failures are
// reported to whoever is still connected as that player.
func (h *Hub) evaluate(ctx context.Context, sess domain.Session) {
	res, err := h.matches.Evaluate(ctx, sess)
	if err != nil {
		logger.ForMatch(sess.MatchID, sess.PlayerID).Warn("scheduled evaluation failed", "error", err)
		h.notifyPlayer(sess, Message{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
		return
	}
	if !res.Accepted {
		logger.ForMatch(sess.MatchID, sess.PlayerID).Debug("scheduled evaluation had nothing to do")
	}
}

func (h *Hub) cancelEvaluation(matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.pending[matchID]; ok {
		t.Stop()
		delete(h.pending, matchID)
	}
}

func (h *Hub) notifyPlayer(sess domain.Session, msg Message) {
	h.mu.Lock()
	var targets []*Client
	for c := range h.clients[sess.MatchID] {
		if c.Session.PlayerID == sess.PlayerID {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()
	for _, c := range targets {
		c.sendMessage(msg)
	}
}

// Shutdown stops pending evaluations and closes every socket.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	for id, t := range h.pending {
		t.Stop()
		delete(h.pending, id)
	}
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}
	logger.Info("ws hub stopped", "clients", len(all))
}
