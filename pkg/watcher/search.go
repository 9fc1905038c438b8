package watcher

import (
	"context"
	"strings"

	"btctui/pkg/search"
)

// SubmitQuery starts a fresh lookup. It drops the drill-down history, shows
// a searching placeholder immediately and resolves on a worker goroutine.
// A malformed query produces an error result without touching the daemon
// and keeps the history intact, so Back still works after a typo.
// While a lookup is already in flight the call is a no-op.
func (w *Watcher) SubmitQuery(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	if query == "" || w.searchInFlight.Load() {
		return
	}

	if search.IsHeight(query) || search.IsTxID(query) {
		w.searchMu.Lock()
		w.history = w.history[:0]
		w.searchMu.Unlock()
	}

	w.submit(ctx, query)
}

// Drill pushes the current result onto the history stack and looks the
// query up, so Back can return to where the user came from.
func (w *Watcher) Drill(ctx context.Context, query string) {
	if w.searchInFlight.Load() {
		return
	}

	w.searchMu.Lock()
	if w.result.Found || w.result.Err != "" {
		w.history = append(w.history, w.result.Clone())
		if len(w.history) > historyLimit {
			w.history = w.history[len(w.history)-historyLimit:]
		}
	}
	w.searchMu.Unlock()

	w.submit(ctx, query)
}

func (w *Watcher) submit(ctx context.Context, query string) {
	if w.searchInFlight.Load() {
		return
	}

	isHeight := search.IsHeight(query)
	if !isHeight && !search.IsTxID(query) {
		w.searchMu.Lock()
		w.result = emptyResult()
		w.result.Query = query
		w.result.Err = "not a block height, block hash or txid"
		w.searchMu.Unlock()
		w.notify(EventSearchUpdated)
		return
	}

	if !w.searchInFlight.CompareAndSwap(false, true) {
		return
	}

	// Join the previous worker before replacing its result.
	if w.searchDone != nil {
		<-w.searchDone
	}
	done := make(chan struct{})
	w.searchDone = done

	w.mu.Lock()
	tip := w.snap.Blocks
	w.mu.Unlock()

	w.searchMu.Lock()
	w.result = emptyResult()
	w.result.Query = query
	w.result.Searching = true
	w.searchMu.Unlock()
	w.notify(EventSearchUpdated)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(done)
		defer w.searchInFlight.Store(false)

		res := search.Resolve(w.searchCaller, query, isHeight, tip)

		w.searchMu.Lock()
		w.result = res
		w.searchMu.Unlock()

		w.log.WithField("query", query).Debug("lookup finished")
		if !w.stopped(ctx) {
			w.notify(EventSearchUpdated)
		}
	}()
}

// Navigate moves the active selection by delta: the overlay row when an
// overlay is open, the result row otherwise.
func (w *Watcher) Navigate(delta int) {
	w.searchMu.Lock()
	r := &w.result
	switch {
	case r.InputsOpen:
		r.InputSel = clamp(r.InputSel+delta, 0, len(r.Vins)-1)
	case r.OutputsOpen:
		r.OutputSel = clamp(r.OutputSel+delta, 0, len(r.Vouts)-1)
	case r.Found && !r.IsBlock && r.Confirmed:
		r.Selected = clamp(r.Selected+delta, 0, search.MaxSelection(*r))
	}
	w.searchMu.Unlock()
	w.notify(EventSearchUpdated)
}

// Activate handles Enter on the current selection. It either mutates the
// navigation state (opening an overlay) or returns a query the caller
// should Drill into: the containing block hash, or a selected input's txid.
func (w *Watcher) Activate() (drill string, ok bool) {
	w.searchMu.Lock()
	defer func() {
		w.searchMu.Unlock()
		w.notify(EventSearchUpdated)
	}()

	r := &w.result
	switch {
	case r.InputsOpen:
		if r.InputSel >= 0 && r.InputSel < len(r.Vins) && !r.Vins[r.InputSel].Coinbase {
			return r.Vins[r.InputSel].TxID, true
		}
	case r.OutputsOpen:
		// Outputs carry no onward reference.
	case r.Found && !r.IsBlock && r.Confirmed:
		switch r.Selected {
		case 0:
			if r.BlockHash != "" {
				return r.BlockHash, true
			}
		case search.InputsRow(*r):
			r.InputsOpen = true
			r.InputSel = 0
		case search.OutputsRow(*r):
			r.OutputsOpen = true
			r.OutputSel = 0
		}
	}
	return "", false
}

// CloseOverlay dismisses an open inputs/outputs overlay. It reports
// whether there was one to close.
func (w *Watcher) CloseOverlay() bool {
	w.searchMu.Lock()
	r := &w.result
	closed := r.InputsOpen || r.OutputsOpen
	r.InputsOpen = false
	r.OutputsOpen = false
	r.InputSel = -1
	r.OutputSel = -1
	w.searchMu.Unlock()
	if closed {
		w.notify(EventSearchUpdated)
	}
	return closed
}

// Back pops the drill-down history, restoring the previous result. It
// reports whether there was anything to pop.
func (w *Watcher) Back() bool {
	if w.searchInFlight.Load() {
		return false
	}
	w.searchMu.Lock()
	popped := false
	if n := len(w.history); n > 0 {
		w.result = w.history[n-1]
		w.history = w.history[:n-1]
		popped = true
	}
	w.searchMu.Unlock()
	if popped {
		w.notify(EventSearchUpdated)
	}
	return popped
}

// Dismiss clears the result and history. It reports whether a result was
// showing.
func (w *Watcher) Dismiss() bool {
	w.searchMu.Lock()
	showing := w.result.Query != ""
	w.result = emptyResult()
	w.history = w.history[:0]
	w.searchMu.Unlock()
	if showing {
		w.notify(EventSearchUpdated)
	}
	return showing
}

// HistoryDepth reports how many results Back can return to.
func (w *Watcher) HistoryDepth() int {
	w.searchMu.Lock()
	defer w.searchMu.Unlock()
	return len(w.history)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
