package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"promptmatch/internal/domain"
	"promptmatch/internal/service"
	"promptmatch/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type testEnv struct {
	server   *httptest.Server
	hub      *Hub
	sessions *service.SessionService
	tokens   *service.TokenIssuer
	host     domain.Session
	guest    domain.Session
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	sessions := service.NewSessionService(st)
	matches := service.NewMatchService(st, nil)
	tokens := service.NewTokenIssuer("test-secret", time.Hour)
	hub := NewHub(sessions, matches, 200*time.Millisecond)

	ctx := context.Background()
	host, err := sessions.Create(ctx, "Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	guest, err := sessions.Join(ctx, host.MatchID, "Bob")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	deck := []domain.Tile{
		{ID: 0, PairValue: 1},
		{ID: 1, PairValue: 2},
		{ID: 2, PairValue: 1},
		{ID: 3, PairValue: 2},
	}
	if err := sessions.Start(ctx, host, deck); err != nil {
		t.Fatalf("start: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", HandleWS(hub, tokens, ""))
	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Shutdown()
		ts.Close()
	})

	return &testEnv{server: ts, hub: hub, sessions: sessions, tokens: tokens, host: host, guest: guest}
}

func (e *testEnv) dial(t *testing.T, sess domain.Session) (*websocket.Conn, chan Message) {
	t.Helper()
	token, err := e.tokens.Issue(sess)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	url := strings.Replace(e.server.URL, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// single reader per connection
	out := make(chan Message, 32)
	go func() {
		defer close(out)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m Message
			if json.Unmarshal(raw, &m) == nil {
				out <- m
			}
		}
	}()
	return conn, out
}

// waitFor returns the first message of the given type that satisfies ok.
func waitFor(t *testing.T, ch chan Message, typ string, ok func(Message) bool) Message {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case m, open := <-ch:
			if !open {
				t.Fatalf("connection closed while waiting for %s", typ)
			}
			if m.Type == typ && (ok == nil || ok(m)) {
				return m
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func viewOf(t *testing.T, m Message) domain.MatchView {
	t.Helper()
	b, err := json.Marshal(m.Payload)
	if err != nil {
		t.Fatalf("re-encode payload: %v", err)
	}
	var v domain.MatchView
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func send(t *testing.T, conn *websocket.Conn, body string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(body)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestStreamAndScheduledEvaluation(t *testing.T) {
	env := newTestEnv(t)

	hostConn, hostCh := env.dial(t, env.host)
	_, guestCh := env.dial(t, env.guest)

	waitFor(t, hostCh, MsgReady, nil)
	waitFor(t, guestCh, MsgReady, nil)
	first := viewOf(t, waitFor(t, hostCh, MsgState, nil))
	if !first.YourTurn || first.Phase != domain.PhaseInProgress {
		t.Fatalf("host should move first: %+v", first)
	}

	send(t, hostConn, `{"type":"select","tile":0}`)
	send(t, hostConn, `{"type":"select","tile":1}`)

	// guest sees the second tile before it is turned back
	waitFor(t, guestCh, MsgState, func(m Message) bool {
		return len(viewOf(t, m).Flipped) == 2
	})

	// the scheduled evaluation misses and passes the turn
	v := viewOf(t, waitFor(t, guestCh, MsgState, func(m Message) bool {
		return viewOf(t, m).YourTurn
	}))
	for _, tile := range v.Tiles {
		if tile.State != domain.TileHidden || tile.Value != nil {
			t.Fatalf("tile %d should be hidden again: %+v", tile.ID, tile)
		}
	}
}

func TestSelectOutOfTurnIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	_, hostCh := env.dial(t, env.host)
	guestConn, guestCh := env.dial(t, env.guest)
	waitFor(t, hostCh, MsgState, nil)
	waitFor(t, guestCh, MsgState, nil)

	send(t, guestConn, `{"type":"select","tile":0}`)
	send(t, guestConn, `{"type":"ping"}`)
	waitFor(t, guestCh, MsgPong, nil)

	m, err := env.hub.matches.State(context.Background(), env.host.MatchID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(m.FlippedCards) != 0 {
		t.Fatalf("out-of-turn select was applied: %v", m.FlippedCards)
	}
}

func TestMalformedAndUnknownMessages(t *testing.T) {
	env := newTestEnv(t)
	conn, ch := env.dial(t, env.host)
	waitFor(t, ch, MsgReady, nil)

	send(t, conn, `not json`)
	waitFor(t, ch, MsgError, nil)
	send(t, conn, `{"type":"select"}`)
	waitFor(t, ch, MsgError, nil)
	send(t, conn, `{"type":"dance"}`)
	waitFor(t, ch, MsgError, nil)
}

func TestLeaveClosesSocket(t *testing.T) {
	env := newTestEnv(t)
	_, ch := env.dial(t, env.guest)
	waitFor(t, ch, MsgState, nil)

	if n := env.hub.ClientCount(env.host.MatchID); n != 1 {
		t.Fatalf("client count = %d", n)
	}
	if err := env.sessions.Leave(context.Background(), env.guest); err != nil {
		t.Fatalf("leave: %v", err)
	}

	timeout := time.After(3 * time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-timeout:
			t.Fatal("socket still open after leave")
		}
	}
}

func TestRejectsMissingOrBadToken(t *testing.T) {
	env := newTestEnv(t)
	for _, q := range []string{"", "?token=garbage"} {
		res, err := http.Get(env.server.URL + "/ws" + q)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("query %q: status %d", q, res.StatusCode)
		}
	}
}

func TestPairEvaluatedOverHTTPDoesNotBlockNextPair(t *testing.T) {
	env := newTestEnv(t)
	hostConn, hostCh := env.dial(t, env.host)
	guestConn, guestCh := env.dial(t, env.guest)
	waitFor(t, hostCh, MsgState, nil)
	waitFor(t, guestCh, MsgState, nil)

	send(t, hostConn, `{"type":"select","tile":0}`)
	send(t, hostConn, `{"type":"select","tile":1}`)
	waitFor(t, hostCh, MsgState, func(m Message) bool {
		return len(viewOf(t, m).Flipped) == 2
	})

	// resolve the host's miss before the socket timer fires
	res, err := env.hub.matches.Evaluate(context.Background(), env.host)
	if err != nil || !res.Accepted {
		t.Fatalf("evaluate: accepted=%v err=%v", res.Accepted, err)
	}

	waitFor(t, guestCh, MsgState, func(m Message) bool {
		v := viewOf(t, m)
		return v.YourTurn && len(v.Flipped) == 0
	})
	send(t, guestConn, `{"type":"select","tile":1}`)
	send(t, guestConn, `{"type":"select","tile":3}`)

	v := viewOf(t, waitFor(t, guestCh, MsgState, func(m Message) bool {
		for _, p := range viewOf(t, m).Players {
			if p.ID == env.guest.PlayerID && p.Score == 1 {
				return true
			}
		}
		return false
	}))
	if len(v.Flipped) != 0 || !v.YourTurn {
		t.Fatalf("guest pair not resolved: flipped=%v your_turn=%v", v.Flipped, v.YourTurn)
	}
}
