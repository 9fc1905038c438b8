package watcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"btctui/pkg/jsonv"
	"btctui/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type MockCaller struct {
	mock.Mock
}

func (m *MockCaller) Call(method string, params ...jsonv.Value) (jsonv.Value, error) {
	args := m.Called(method, params)
	if v := args.Get(0); v != nil {
		return v.(jsonv.Value), args.Error(1)
	}
	return nil, args.Error(1)
}

func envelope(result jsonv.Value) jsonv.Value {
	return jsonv.Object{"result": result, "error": jsonv.Null{}, "id": jsonv.Int(1)}
}

func expectCore(c *MockCaller, tip int64) {
	c.On("Call", "getblockchaininfo", mock.Anything).Return(envelope(jsonv.Object{
		"chain":                jsonv.String("main"),
		"blocks":               jsonv.Int(tip),
		"headers":              jsonv.Int(tip),
		"difficulty":           jsonv.Float(6e13),
		"verificationprogress": jsonv.Float(0.9999),
		"bestblockhash":        jsonv.String("00000000abc"),
	}), nil)
	c.On("Call", "getnetworkinfo", mock.Anything).Return(envelope(jsonv.Object{
		"connections":     jsonv.Int(12),
		"connections_in":  jsonv.Int(4),
		"connections_out": jsonv.Int(8),
		"subversion":      jsonv.String("/Satoshi:27.0.0/"),
		"protocolversion": jsonv.Int(70016),
		"networkactive":   jsonv.Bool(true),
		"relayfee":        jsonv.Float(0.00001),
	}), nil)
	c.On("Call", "getmempoolinfo", mock.Anything).Return(envelope(jsonv.Object{
		"size":          jsonv.Int(40000),
		"bytes":         jsonv.Int(20_000_000),
		"usage":         jsonv.Int(90_000_000),
		"maxmempool":    jsonv.Int(300_000_000),
		"mempoolminfee": jsonv.Float(0.00001),
		"total_fee":     jsonv.Float(1.5),
	}), nil)
	c.On("Call", "getpeerinfo", mock.Anything).Return(envelope(jsonv.Array{
		jsonv.Object{
			"id":       jsonv.Int(1),
			"addr":     jsonv.String("203.0.113.5:8333"),
			"network":  jsonv.String("ipv4"),
			"subver":   jsonv.String("/Satoshi:26.0.0/"),
			"inbound":  jsonv.Bool(false),
			"pingtime": jsonv.Float(0.042),
		},
		jsonv.Object{
			"id":      jsonv.Int(2),
			"addr":    jsonv.String("198.51.100.7:8333"),
			"network": jsonv.String("onion"),
			"inbound": jsonv.Bool(true),
		},
	}), nil)
}

func expectBlockStats(c *MockCaller) {
	c.On("Call", "getblockstats", mock.Anything).Return(envelope(jsonv.Object{
		"height":       jsonv.Int(850000),
		"txs":          jsonv.Int(3000),
		"total_size":   jsonv.Int(1_400_000),
		"total_weight": jsonv.Int(3_900_000),
		"time":         jsonv.Int(1700000000),
	}), nil)
}

func TestPollOnceCommitsSnapshot(t *testing.T) {
	c := new(MockCaller)
	expectCore(c, 850000)
	expectBlockStats(c)

	w := New(c, c, time.Second, nil)
	w.pollOnce(context.Background())

	s := w.Snapshot()
	assert.True(t, s.Connected)
	assert.Equal(t, "main", s.Chain)
	assert.Equal(t, int64(850000), s.Blocks)
	assert.Equal(t, int64(40000), s.MempoolTxs)
	assert.InDelta(t, 6e13*4294967296.0/600.0, s.NetworkHashPS, 1)
	require.Len(t, s.Peers, 2)
	assert.InDelta(t, 42.0, s.Peers[0].PingMs, 1e-9)
	assert.Equal(t, -1.0, s.Peers[1].PingMs)
	assert.Len(t, s.RecentBlocks, recentBlockCount)
	assert.Equal(t, int64(850000), s.BlocksFetchedAt)
	// First block list: nothing to slide out.
	assert.False(t, s.Anim.Active)
}

func TestPollOnceErrorDisconnects(t *testing.T) {
	c := new(MockCaller)
	c.On("Call", "getblockchaininfo", mock.Anything).
		Return(nil, errors.New("connection refused"))

	w := New(c, c, time.Second, nil)
	w.pollOnce(context.Background())

	s := w.Snapshot()
	assert.False(t, s.Connected)
	assert.Equal(t, "connection refused", s.LastError)
	c.AssertExpectations(t)
}

func TestPollSkipsBlockStatsWhenTipUnchanged(t *testing.T) {
	c := new(MockCaller)
	expectCore(c, 850000)
	// No getblockstats expectation: the mock fails the test if Phase 2 runs.

	w := New(c, c, time.Second, nil)
	w.mu.Lock()
	w.snap.BlocksFetchedAt = 850000
	w.mu.Unlock()

	w.pollOnce(context.Background())
	c.AssertExpectations(t)
}

func TestNewBlockTriggersAnimation(t *testing.T) {
	c := new(MockCaller)
	expectCore(c, 850000)
	expectBlockStats(c)

	w := New(c, c, time.Second, nil)
	prev := []models.BlockStat{{Height: 849999, Txs: 100}}
	w.mu.Lock()
	w.snap.RecentBlocks = prev
	w.snap.BlocksFetchedAt = 849999
	w.mu.Unlock()

	w.pollOnce(context.Background())

	s := w.Snapshot()
	assert.True(t, s.Anim.Active)
	assert.Equal(t, 0, s.Anim.Frame)
	assert.Equal(t, prev, s.Anim.Old)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	w := New(new(MockCaller), nil, time.Second, nil)
	sub := w.Subscribe()
	assert.NotNil(t, sub)

	w.subMu.RLock()
	assert.Equal(t, 1, len(w.subscribers))
	w.subMu.RUnlock()

	w.Unsubscribe(sub)
	w.subMu.RLock()
	assert.Equal(t, 0, len(w.subscribers))
	w.subMu.RUnlock()
}

func TestNotifyNeverBlocks(t *testing.T) {
	w := New(new(MockCaller), nil, time.Second, nil)
	w.Subscribe()
	// A subscriber that never drains must not wedge the notifier.
	for i := 0; i < 100; i++ {
		w.notify(EventSnapshotUpdated)
	}
}

func TestStartStop(t *testing.T) {
	c := new(MockCaller)
	c.On("Call", mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	w := New(c, c, time.Second, nil)
	w.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	w.Stop()
	// goleak verifies both loops exited.
}

func TestSubmitQueryInvalid(t *testing.T) {
	c := new(MockCaller)
	w := New(c, c, time.Second, nil)

	w.SubmitQuery(context.Background(), "not-a-query")

	r := w.SearchState()
	assert.Equal(t, models.KindError, r.Kind())
	assert.Equal(t, "not-a-query", r.Query)
	assert.NotEmpty(t, r.Err)
	// No RPC traffic for a malformed query.
	c.AssertExpectations(t)
}

const testTxid = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

func mempoolEntry() jsonv.Value {
	return envelope(jsonv.Object{
		"fees":  jsonv.Object{"base": jsonv.Float(0.0001)},
		"vsize": jsonv.Int(200),
	})
}

func TestSubmitQueryResolves(t *testing.T) {
	search := new(MockCaller)
	search.On("Call", "getmempoolentry", mock.Anything).Return(mempoolEntry(), nil)

	w := New(new(MockCaller), search, time.Second, nil)
	w.SubmitQuery(context.Background(), testTxid)

	assert.Eventually(t, func() bool {
		r := w.SearchState()
		return !r.Searching && r.Found
	}, time.Second, 5*time.Millisecond)

	r := w.SearchState()
	assert.Equal(t, models.KindMempool, r.Kind())
	assert.Equal(t, testTxid, r.Query)
	w.Stop()
}

type gateCaller struct {
	gate  chan struct{}
	calls atomic.Int32
}

func (g *gateCaller) Call(method string, params ...jsonv.Value) (jsonv.Value, error) {
	g.calls.Add(1)
	<-g.gate
	return nil, errors.New("gone")
}

func TestSubmitQuerySingleFlight(t *testing.T) {
	gate := &gateCaller{gate: make(chan struct{})}
	w := New(new(MockCaller), gate, time.Second, nil)

	w.SubmitQuery(context.Background(), testTxid)
	assert.True(t, w.SearchState().Searching)

	// While the first lookup is in flight, further submissions are no-ops.
	other := "0000000000000000000000000000000000000000000000000000000000000001"
	w.SubmitQuery(context.Background(), other)
	assert.Equal(t, testTxid, w.SearchState().Query)

	close(gate.gate)
	assert.Eventually(t, func() bool {
		return !w.SearchState().Searching
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.KindError, w.SearchState().Kind())
	w.Stop()
}

func TestDrillAndBack(t *testing.T) {
	search := new(MockCaller)
	search.On("Call", "getmempoolentry", mock.Anything).Return(mempoolEntry(), nil)

	w := New(new(MockCaller), search, time.Second, nil)
	w.SubmitQuery(context.Background(), testTxid)
	assert.Eventually(t, func() bool { return !w.SearchState().Searching }, time.Second, 5*time.Millisecond)

	other := "0000000000000000000000000000000000000000000000000000000000000001"
	w.Drill(context.Background(), other)
	assert.Eventually(t, func() bool { return !w.SearchState().Searching }, time.Second, 5*time.Millisecond)
	assert.Equal(t, other, w.SearchState().Query)
	assert.Equal(t, 1, w.HistoryDepth())

	assert.True(t, w.Back())
	assert.Equal(t, testTxid, w.SearchState().Query)
	assert.Equal(t, 0, w.HistoryDepth())
	assert.False(t, w.Back())
	w.Stop()
}

func TestFreshQueryClearsHistory(t *testing.T) {
	search := new(MockCaller)
	search.On("Call", "getmempoolentry", mock.Anything).Return(mempoolEntry(), nil)

	w := New(new(MockCaller), search, time.Second, nil)
	w.SubmitQuery(context.Background(), testTxid)
	assert.Eventually(t, func() bool { return !w.SearchState().Searching }, time.Second, 5*time.Millisecond)
	w.Drill(context.Background(), testTxid)
	assert.Eventually(t, func() bool { return !w.SearchState().Searching }, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, w.HistoryDepth())

	w.SubmitQuery(context.Background(), testTxid)
	assert.Eventually(t, func() bool { return !w.SearchState().Searching }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, w.HistoryDepth())
	w.Stop()
}

func TestInvalidQueryKeepsHistory(t *testing.T) {
	search := new(MockCaller)
	search.On("Call", "getmempoolentry", mock.Anything).Return(mempoolEntry(), nil)

	w := New(new(MockCaller), search, time.Second, nil)
	w.SubmitQuery(context.Background(), testTxid)
	assert.Eventually(t, func() bool { return !w.SearchState().Searching }, time.Second, 5*time.Millisecond)
	w.Drill(context.Background(), testTxid)
	assert.Eventually(t, func() bool { return !w.SearchState().Searching }, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, w.HistoryDepth())

	// A typo must not wipe the back stack.
	w.SubmitQuery(context.Background(), "not-a-query")
	assert.Equal(t, models.KindError, w.SearchState().Kind())
	assert.Equal(t, 1, w.HistoryDepth())

	// Back still returns to the result the user drilled from.
	require.True(t, w.Back())
	assert.Equal(t, testTxid, w.SearchState().Query)
	assert.True(t, w.SearchState().Found)
	w.Stop()
}

func confirmedResult(query string) models.SearchResult {
	return models.SearchResult{
		Query:     query,
		Found:     true,
		Confirmed: true,
		BlockHash: "00000000deadbeef",
		Vins: []models.VinRef{
			{TxID: "aaaa", Vout: 0},
			{Coinbase: true},
		},
		Vouts:     []models.VoutInfo{{Value: 0.5}},
		Selected:  -1,
		InputSel:  -1,
		OutputSel: -1,
	}
}

func TestNavigateAndActivate(t *testing.T) {
	w := New(new(MockCaller), nil, time.Second, nil)
	w.searchMu.Lock()
	w.result = confirmedResult(testTxid)
	w.searchMu.Unlock()

	// First step lands on the block row.
	w.Navigate(1)
	assert.Equal(t, 0, w.SearchState().Selected)

	drill, ok := w.Activate()
	assert.True(t, ok)
	assert.Equal(t, "00000000deadbeef", drill)

	// Down to the inputs row and open the overlay.
	w.Navigate(1)
	assert.Equal(t, 1, w.SearchState().Selected)
	_, ok = w.Activate()
	assert.False(t, ok)
	assert.True(t, w.SearchState().InputsOpen)
	assert.Equal(t, 0, w.SearchState().InputSel)

	// Following a regular input drills into its txid.
	drill, ok = w.Activate()
	assert.True(t, ok)
	assert.Equal(t, "aaaa", drill)

	// A coinbase input has nothing to follow.
	w.Navigate(1)
	_, ok = w.Activate()
	assert.False(t, ok)

	// Selection clamps at the list end.
	w.Navigate(5)
	assert.Equal(t, 1, w.SearchState().InputSel)

	assert.True(t, w.CloseOverlay())
	assert.False(t, w.SearchState().InputsOpen)
	assert.False(t, w.CloseOverlay())

	// Outputs row opens its own overlay.
	w.Navigate(1)
	assert.Equal(t, 2, w.SearchState().Selected)
	_, _ = w.Activate()
	assert.True(t, w.SearchState().OutputsOpen)
	_, ok = w.Activate()
	assert.False(t, ok)
}

func TestNavigateClampsSelection(t *testing.T) {
	w := New(new(MockCaller), nil, time.Second, nil)
	w.searchMu.Lock()
	w.result = confirmedResult(testTxid)
	w.searchMu.Unlock()

	w.Navigate(-3)
	assert.Equal(t, 0, w.SearchState().Selected)
	w.Navigate(10)
	assert.Equal(t, 2, w.SearchState().Selected)
}

func TestDismiss(t *testing.T) {
	w := New(new(MockCaller), nil, time.Second, nil)
	w.searchMu.Lock()
	w.result = confirmedResult(testTxid)
	w.history = []models.SearchResult{confirmedResult("prior")}
	w.searchMu.Unlock()

	assert.True(t, w.Dismiss())
	assert.Equal(t, "", w.SearchState().Query)
	assert.Equal(t, 0, w.HistoryDepth())
	assert.False(t, w.Dismiss())
}

func TestSnapshotIsACopy(t *testing.T) {
	w := New(new(MockCaller), nil, time.Second, nil)
	w.mu.Lock()
	w.snap.Peers = []models.Peer{{ID: 1}}
	w.mu.Unlock()

	s := w.Snapshot()
	s.Peers[0].ID = 99

	assert.Equal(t, int64(1), w.Snapshot().Peers[0].ID)
}
