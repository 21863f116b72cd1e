package store

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Push keys are 20 characters: 8 encode the millisecond timestamp so keys
// sort by creation time, 12 are random. Keys created in the same
// millisecond by one process increment the random part instead.
const pushChars = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

type pushIDGen struct {
	mu       sync.Mutex
	lastTime int64
	lastRand [12]int
}

func (g *pushIDGen) next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := now.UnixMilli()
	dup := ms == g.lastTime
	g.lastTime = ms

	var id [20]byte
	for i := 7; i >= 0; i-- {
		id[i] = pushChars[ms%64]
		ms /= 64
	}

	if !dup {
		for i := range g.lastRand {
			g.lastRand[i] = rand.IntN(64)
		}
	} else {
		i := 11
		for ; i >= 0 && g.lastRand[i] == 63; i-- {
			g.lastRand[i] = 0
		}
		if i >= 0 {
			g.lastRand[i]++
		}
	}
	for i, r := range g.lastRand {
		id[8+i] = pushChars[r]
	}
	return string(id[:])
}

var pushIDs pushIDGen

func newPushKey() string {
	return pushIDs.next(time.Now())
}
