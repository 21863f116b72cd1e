package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"promptmatch/internal/domain"
	"promptmatch/internal/game"
	"promptmatch/internal/store"
)

type fakeRecorder struct {
	mu      sync.Mutex
	results []*domain.MatchResult
}

func (f *fakeRecorder) Record(_ context.Context, r *domain.MatchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	return nil
}

// failingStore accepts reads but fails every write.
type failingStore struct {
	store.Store
}

func (failingStore) Update(context.Context, string, map[string]any) error {
	return errors.New("connection refused")
}

func startedMatch(t *testing.T, st store.Store) (domain.Session, domain.Session) {
	t.Helper()
	svc, host, guest := readyMatch(t, st)
	if err := svc.Start(context.Background(), host, fixedDeck()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return host, guest
}

func mustSelectTile(t *testing.T, svc *MatchService, sess domain.Session, tile int) SelectResult {
	t.Helper()
	res, err := svc.SelectTile(context.Background(), sess, tile)
	if err != nil {
		t.Fatalf("select %d: %v", tile, err)
	}
	if !res.Accepted {
		t.Fatalf("select %d rejected", tile)
	}
	return res
}

func TestFullMatchThroughStore(t *testing.T) {
	st := store.NewMemoryStore()
	host, guest := startedMatch(t, st)
	rec := &fakeRecorder{}
	svc := NewMatchService(st, rec)
	ctx := context.Background()

	if res := mustSelectTile(t, svc, host, 0); res.PendingEvaluation {
		t.Fatal("one tile up should not be pending")
	}
	if res := mustSelectTile(t, svc, host, 1); !res.PendingEvaluation {
		t.Fatal("two tiles up should be pending")
	}

	// third selection while a pair is pending
	res, err := svc.SelectTile(ctx, host, 2)
	if err != nil || res.Accepted {
		t.Fatalf("third selection: accepted=%v err=%v", res.Accepted, err)
	}
	// guest cannot evaluate the host's pair
	if ev, err := svc.Evaluate(ctx, guest); err != nil || ev.Accepted {
		t.Fatalf("guest evaluate: accepted=%v err=%v", ev.Accepted, err)
	}

	ev, err := svc.Evaluate(ctx, host)
	if err != nil || !ev.Accepted || ev.Outcome != game.OutcomeMiss {
		t.Fatalf("evaluate miss: %+v err=%v", ev, err)
	}
	m := readState(t, st, host.MatchID)
	if m.CurrentTurn != guest.PlayerID || len(m.FlippedCards) != 0 {
		t.Fatalf("after miss turn=%s flipped=%v", m.CurrentTurn, m.FlippedCards)
	}
	for _, c := range m.Cards {
		if c.FaceUp {
			t.Fatalf("tile %d still face-up after miss", c.ID)
		}
	}

	mustSelectTile(t, svc, guest, 0)
	mustSelectTile(t, svc, guest, 2)
	if ev, _ := svc.Evaluate(ctx, guest); ev.Outcome != game.OutcomeMatch || ev.Finished {
		t.Fatalf("first pair: %+v", ev)
	}
	mustSelectTile(t, svc, guest, 1)
	mustSelectTile(t, svc, guest, 3)
	ev, err = svc.Evaluate(ctx, guest)
	if err != nil || !ev.Finished {
		t.Fatalf("last pair: %+v err=%v", ev, err)
	}

	m = readState(t, st, host.MatchID)
	if m.Winner == nil || *m.Winner != guest.PlayerID {
		t.Fatalf("winner = %v, want %s", m.Winner, guest.PlayerID)
	}
	if m.Players[guest.PlayerID].Score != 2 || m.Players[host.PlayerID].Score != 0 {
		t.Fatalf("scores: %+v", m.Players)
	}

	if len(rec.results) != 1 {
		t.Fatalf("recorded %d results", len(rec.results))
	}
	r := rec.results[0]
	if r.MatchID != host.MatchID || r.Winner != guest.PlayerID || r.TileCount != 4 || len(r.Players) != 2 {
		t.Fatalf("unexpected result %+v", r)
	}
	if r.Players[0].PlayerID != host.PlayerID {
		t.Fatal("host should be listed first")
	}

	if res, _ := svc.SelectTile(ctx, guest, 0); res.Accepted {
		t.Fatal("selection accepted after the match finished")
	}
}

func TestSelectBeforeStartIsIgnored(t *testing.T) {
	st := store.NewMemoryStore()
	_, host, _ := readyMatch(t, st)
	svc := NewMatchService(st, nil)

	res, err := svc.SelectTile(context.Background(), host, 0)
	if err != nil || res.Accepted {
		t.Fatalf("accepted=%v err=%v", res.Accepted, err)
	}
}

func TestSelectUnknownMatch(t *testing.T) {
	svc := NewMatchService(store.NewMemoryStore(), nil)
	_, err := svc.SelectTile(context.Background(), domain.Session{MatchID: "gone", PlayerID: "p"}, 0)
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestStoreFailureSurfaces(t *testing.T) {
	mem := store.NewMemoryStore()
	host, _ := startedMatch(t, mem)
	svc := NewMatchService(failingStore{mem}, nil)

	_, err := svc.SelectTile(context.Background(), host, 0)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if m := readState(t, mem, host.MatchID); len(m.FlippedCards) != 0 {
		t.Fatal("failed write changed the record")
	}
}
