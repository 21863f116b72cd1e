package store

import (
	"errors"
	"testing"
)

func TestSplitPath(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"/", 0, false},
		{"games", 1, false},
		{"/games/abc/", 2, false},
		{"games//abc", 0, true},
		{"games/../abc", 0, true},
	}
	for _, tc := range cases {
		segs, err := splitPath(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("splitPath(%q) err = %v", tc.in, err)
		}
		if err == nil && len(segs) != tc.want {
			t.Fatalf("splitPath(%q) = %v, want %d segments", tc.in, segs, tc.want)
		}
	}
}

func TestSetAtCreatesAndIndexes(t *testing.T) {
	root, err := normalize(map[string]any{
		"cards": []map[string]any{{"id": 0, "isFlipped": false}, {"id": 1, "isFlipped": false}},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	root, err = setAt(root, []string{"cards", "1", "isFlipped"}, true)
	if err != nil {
		t.Fatalf("setAt: %v", err)
	}
	v, ok := getAt(root, []string{"cards", "1", "isFlipped"})
	if !ok || v != true {
		t.Fatalf("cards/1/isFlipped = %v", v)
	}
	if v, _ := getAt(root, []string{"cards", "0", "isFlipped"}); v != false {
		t.Fatalf("sibling tile changed: %v", v)
	}

	root, err = setAt(root, []string{"players", "p1", "score"}, float64(3))
	if err != nil {
		t.Fatalf("setAt: %v", err)
	}
	if v, _ := getAt(root, []string{"players", "p1", "score"}); v != float64(3) {
		t.Fatalf("players/p1/score = %v", v)
	}

	if _, err := setAt(root, []string{"cards", "7", "isFlipped"}, true); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for out of range index, got %v", err)
	}
}

func TestSetAtNilDeletes(t *testing.T) {
	root := map[string]any{"winner": "p1", "gameStarted": true}
	out, err := setAt(root, []string{"winner"}, nil)
	if err != nil {
		t.Fatalf("setAt: %v", err)
	}
	if _, ok := getAt(out, []string{"winner"}); ok {
		t.Fatalf("winner not removed")
	}
	if v, _ := getAt(out, []string{"gameStarted"}); v != true {
		t.Fatalf("sibling removed")
	}
}

func TestApplyChangesLeavesSiblings(t *testing.T) {
	root, _ := normalize(map[string]any{
		"players": map[string]any{
			"host":  map[string]any{"name": "A", "score": 0},
			"guest": map[string]any{"name": "B", "score": 0},
		},
		"currentTurn": "host",
	})
	out, err := applyChanges(root, map[string]any{
		"players/guest/score": 2,
		"currentTurn":         "guest",
	})
	if err != nil {
		t.Fatalf("applyChanges: %v", err)
	}
	if v, _ := getAt(out, []string{"players", "host", "name"}); v != "A" {
		t.Fatalf("host entry clobbered: %v", v)
	}
	if v, _ := getAt(out, []string{"players", "guest", "score"}); v != float64(2) {
		t.Fatalf("guest score = %v", v)
	}
	if v, _ := getAt(out, []string{"players", "guest", "name"}); v != "B" {
		t.Fatalf("guest name clobbered: %v", v)
	}
}

func TestOverlaps(t *testing.T) {
	if !overlaps([]string{"games", "a"}, []string{"games", "a", "cards"}) {
		t.Fatalf("parent and child should overlap")
	}
	if overlaps([]string{"games", "a"}, []string{"games", "b"}) {
		t.Fatalf("siblings should not overlap")
	}
	if !overlaps(nil, []string{"games"}) {
		t.Fatalf("root overlaps everything")
	}
}

func TestPushKeysAreUniqueAndOrdered(t *testing.T) {
	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 1000; i++ {
		k := newPushKey()
		if len(k) != 20 {
			t.Fatalf("key %q has length %d", k, len(k))
		}
		if seen[k] {
			t.Fatalf("duplicate key %q", k)
		}
		if k[:8] < prev[:min(8, len(prev))] {
			t.Fatalf("key %q sorts before %q", k, prev)
		}
		seen[k] = true
		prev = k
	}
}
