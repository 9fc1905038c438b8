// Package watcher owns the shared application state: the daemon snapshot
// written by the polling loop, the block-arrival animation, and the search
// result with its navigation sub-state. Two independent mutexes protect the
// two state regions; they are never held together. Consumers read by deep
// copy and are woken through subscriber channels.
package watcher

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"btctui/pkg/models"
	"btctui/pkg/rpc"
)

const (
	// AnimSlideFrames is the frame budget of the block slide animation
	// (~480ms at the 40ms tick).
	AnimSlideFrames = 12

	animTick = 40 * time.Millisecond
	// pollStep bounds shutdown latency: periodic loops sleep in these
	// increments and re-check the stop signal.
	pollStep = 100 * time.Millisecond

	recentBlockCount = 20
	historyLimit     = 32
)

// Watcher coordinates the background workers against the shared state.
type Watcher struct {
	caller       rpc.Caller
	searchCaller rpc.Caller
	refresh      time.Duration
	log          *logrus.Logger

	mu   sync.Mutex
	snap models.Snapshot

	searchMu sync.Mutex
	result   models.SearchResult
	history  []models.SearchResult

	searchInFlight atomic.Bool
	searchDone     chan struct{}

	subMu       sync.RWMutex
	subscribers []Subscriber

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a watcher polling through caller every refresh interval.
// searchCaller handles lookups, typically with a shorter timeout.
func New(caller, searchCaller rpc.Caller, refresh time.Duration, log *logrus.Logger) *Watcher {
	if refresh <= 0 {
		refresh = 5 * time.Second
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Watcher{
		caller:       caller,
		searchCaller: searchCaller,
		refresh:      refresh,
		log:          log,
		snap: models.Snapshot{
			Chain:           "—",
			NetworkActive:   true,
			MempoolMax:      300_000_000,
			BlocksFetchedAt: -1,
		},
		result: emptyResult(),
		stop:   make(chan struct{}),
	}
}

func emptyResult() models.SearchResult {
	return models.SearchResult{Selected: -1, InputSel: -1, OutputSel: -1}
}

// Subscribe registers a redraw channel.
func (w *Watcher) Subscribe() Subscriber {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	ch := make(Subscriber, 16)
	w.subscribers = append(w.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a previously registered channel.
func (w *Watcher) Unsubscribe(ch Subscriber) {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	for i, sub := range w.subscribers {
		if sub == ch {
			w.subscribers = append(w.subscribers[:i], w.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

func (w *Watcher) notify(t EventType) {
	w.subMu.RLock()
	defer w.subMu.RUnlock()
	for _, sub := range w.subscribers {
		select {
		case sub <- Event{Type: t}:
		default:
			// Slow consumer; it will re-read state on the next wake-up.
		}
	}
}

// Start launches the polling loop and animation ticker.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(2)
	go w.pollLoop(ctx)
	go w.animLoop(ctx)
}

// Stop signals every worker and joins them before returning.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *Watcher) stopped(ctx context.Context) bool {
	select {
	case <-w.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Snapshot returns a consistent deep copy of the daemon state.
func (w *Watcher) Snapshot() models.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap.Clone()
}

// SearchState returns a consistent deep copy of the search result.
func (w *Watcher) SearchState() models.SearchResult {
	w.searchMu.Lock()
	defer w.searchMu.Unlock()
	return w.result.Clone()
}

func (w *Watcher) pollLoop(ctx context.Context) {
	defer w.wg.Done()

	w.pollOnce(ctx)
	for {
		// Sleep in small increments so shutdown is observed promptly.
		deadline := time.Now().Add(w.refresh)
		for time.Now().Before(deadline) {
			if w.stopped(ctx) {
				return
			}
			time.Sleep(pollStep)
		}
		if w.stopped(ctx) {
			return
		}
		w.pollOnce(ctx)
	}
}

func (w *Watcher) animLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(animTick):
		}
		advanced := false
		w.mu.Lock()
		if w.snap.Anim.Active {
			w.snap.Anim.Frame++
			if w.snap.Anim.Frame >= AnimSlideFrames {
				w.snap.Anim.Active = false
				w.snap.Anim.Old = nil
			}
			advanced = true
		}
		w.mu.Unlock()
		if advanced {
			w.notify(EventAnimFrame)
		}
	}
}
