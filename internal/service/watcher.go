package service

import (
	"promptmatch/internal/domain"
	"promptmatch/internal/logger"
	"promptmatch/internal/store"
)

// MatchWatcher decodes subscription snapshots into match states. It keeps
// the conflating behaviour of the subscription: a reader that falls behind
// only ever sees the newest state.
type MatchWatcher struct {
	sub *store.Subscription
	out chan *domain.MatchState
}

func newMatchWatcher(sub *store.Subscription) *MatchWatcher {
	w := &MatchWatcher{sub: sub, out: make(chan *domain.MatchState, 1)}
	go w.run()
	return w
}

func (w *MatchWatcher) run() {
	defer close(w.out)
	for snap := range w.sub.Updates() {
		if !snap.Exists() {
			continue
		}
		var m domain.MatchState
		if err := snap.Decode(&m); err != nil {
			logger.Warn("watcher: undecodable match record", "path", snap.Path, "error", err)
			continue
		}
		if len(m.Players) == 0 {
			continue
		}
		if m.FlippedCards == nil {
			m.FlippedCards = []int{}
		}
		select {
		case w.out <- &m:
		case <-w.sub.Done():
			return
		}
	}
}

// States is closed once the watcher stops.
func (w *MatchWatcher) States() <-chan *domain.MatchState { return w.out }

func (w *MatchWatcher) Done() <-chan struct{} { return w.sub.Done() }

func (w *MatchWatcher) Close() { w.sub.Close() }
