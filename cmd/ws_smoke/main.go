// ws_smoke plays the opening of a match against a running server: it opens
// a game, joins it as a second player, starts a 2x3 numbers board, streams
// both players over WebSocket and flips two tiles.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type session struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Token    string `json:"token"`
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "http://127.0.0.1:" + port

	var host, guest session
	post(base+"/api/v1/games", "", map[string]string{"name": "smokeA"}, &host)
	post(base+"/api/v1/games/"+host.GameID+"/join", "", map[string]string{"name": "smokeB"}, &guest)
	post(base+"/api/v1/games/"+host.GameID+"/start", host.Token, map[string]string{"board": "2x3", "content": "numbers"}, nil)
	log.Printf("game %s started (host=%s guest=%s)", host.GameID, host.PlayerID, guest.PlayerID)

	connA := dial(port, host.Token)
	defer connA.Close()
	connB := dial(port, guest.Token)
	defer connB.Close()

	chA := startReader(connA)
	chB := startReader(connB)

	waitFor(chA, "state", 3*time.Second)
	waitFor(chB, "state", 3*time.Second)

	for _, tile := range []int{0, 1} {
		msg := fmt.Sprintf(`{"type":"select","tile":%d}`, tile)
		if err := connA.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			log.Fatalf("select %d: %v", tile, err)
		}
	}

	// the guest should see both flips and then the evaluation
	deadline := time.After(10 * time.Second)
	updates := 0
	for updates < 2 {
		select {
		case f, ok := <-chB:
			if !ok {
				log.Fatal("guest connection closed")
			}
			if f.Type == "state" {
				updates++
				log.Printf("guest state #%d: %s", updates, f.Payload)
			}
		case <-deadline:
			log.Fatalf("timeout: guest saw %d updates", updates)
		}
	}
	log.Println("smoke test passed")
}

func post(url, token string, body any, out any) {
	b, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		log.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("POST %s: %v", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		log.Fatalf("POST %s: status %d", url, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("decode %s: %v", url, err)
		}
	}
}

func dial(port, token string) *websocket.Conn {
	url := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	return conn
}

// startReader runs the single reader goroutine of a connection.
func startReader(conn *websocket.Conn) chan frame {
	out := make(chan frame, 16)
	go func() {
		defer close(out)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f frame
			if json.Unmarshal(raw, &f) == nil {
				out <- f
			}
		}
	}()
	return out
}

func waitFor(ch chan frame, typ string, tmo time.Duration) {
	deadline := time.After(tmo)
	for {
		select {
		case f, ok := <-ch:
			if !ok {
				log.Fatalf("connection closed waiting for %s", typ)
			}
			if f.Type == typ {
				return
			}
		case <-deadline:
			log.Fatalf("timeout waiting for %s", typ)
		}
	}
}
