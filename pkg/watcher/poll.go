package watcher

import (
	"context"
	"time"

	"btctui/pkg/jsonv"
	"btctui/pkg/models"
)

// pollOnce runs one two-phase refresh cycle. Phase 1 commits the fast core
// metrics and wakes the UI immediately; Phase 2 fetches per-block statistics
// only when the tip moved since the last successful block-list fetch.
func (w *Watcher) pollOnce(ctx context.Context) {
	w.mu.Lock()
	w.snap.Refreshing = true
	cachedTip := w.snap.BlocksFetchedAt
	w.mu.Unlock()
	w.notify(EventSnapshotUpdated)

	defer func() {
		w.mu.Lock()
		w.snap.Refreshing = false
		w.mu.Unlock()
		w.notify(EventSnapshotUpdated)
	}()

	newTip, err := w.pollCore()
	if err != nil {
		w.log.WithError(err).Warn("poll cycle failed")
		w.mu.Lock()
		w.snap.Connected = false
		w.snap.LastError = err.Error()
		w.snap.LastUpdate = time.Now()
		w.mu.Unlock()
		w.notify(EventSnapshotUpdated)
		return
	}
	w.notify(EventSnapshotUpdated)

	if newTip != cachedTip && newTip > 0 && !w.stopped(ctx) {
		w.pollBlockStats(ctx, newTip)
	}
}

// pollCore issues the Phase 1 calls sequentially and commits all fields in
// one critical section. It returns the fresh tip height.
func (w *Watcher) pollCore() (int64, error) {
	bcEnv, err := w.caller.Call("getblockchaininfo")
	if err != nil {
		return 0, err
	}
	netEnv, err := w.caller.Call("getnetworkinfo")
	if err != nil {
		return 0, err
	}
	mpEnv, err := w.caller.Call("getmempoolinfo")
	if err != nil {
		return 0, err
	}
	peersEnv, err := w.caller.Call("getpeerinfo")
	if err != nil {
		return 0, err
	}

	bc := jsonv.Get(bcEnv, "result")
	net := jsonv.Get(netEnv, "result")
	mp := jsonv.Get(mpEnv, "result")

	var peers []models.Peer
	if list, ok := jsonv.Get(peersEnv, "result").(jsonv.Array); ok {
		peers = make([]models.Peer, 0, len(list))
		for _, p := range list {
			peer := models.Peer{
				ID:           jsonv.IntOr(p, "id", 0),
				Addr:         jsonv.StrOr(p, "addr", ""),
				Network:      jsonv.StrOr(p, "network", ""),
				Subver:       jsonv.StrOr(p, "subver", ""),
				Inbound:      jsonv.BoolOr(p, "inbound", false),
				BytesSent:    jsonv.IntOr(p, "bytessent", 0),
				BytesRecv:    jsonv.IntOr(p, "bytesrecv", 0),
				Version:      jsonv.IntOr(p, "version", 0),
				SyncedBlocks: jsonv.IntOr(p, "synced_blocks", 0),
				PingMs:       -1,
			}
			if ping, err := jsonv.AsFloat(jsonv.Get(p, "pingtime")); err == nil {
				peer.PingMs = ping * 1000
			}
			peers = append(peers, peer)
		}
	}

	newTip := jsonv.IntOr(bc, "blocks", 0)
	difficulty := jsonv.FloatOr(bc, "difficulty", 0)

	w.mu.Lock()
	w.snap.Chain = jsonv.StrOr(bc, "chain", "—")
	w.snap.Blocks = newTip
	w.snap.Headers = jsonv.IntOr(bc, "headers", 0)
	w.snap.Difficulty = difficulty
	w.snap.Progress = jsonv.FloatOr(bc, "verificationprogress", 0)
	w.snap.Pruned = jsonv.BoolOr(bc, "pruned", false)
	w.snap.IBD = jsonv.BoolOr(bc, "initialblockdownload", false)
	w.snap.BestBlockHash = jsonv.StrOr(bc, "bestblockhash", "")

	w.snap.Connections = jsonv.IntOr(net, "connections", 0)
	w.snap.ConnectionsIn = jsonv.IntOr(net, "connections_in", 0)
	w.snap.ConnectionsOut = jsonv.IntOr(net, "connections_out", 0)
	w.snap.Subversion = jsonv.StrOr(net, "subversion", "")
	w.snap.ProtocolVersion = jsonv.IntOr(net, "protocolversion", 0)
	w.snap.NetworkActive = jsonv.BoolOr(net, "networkactive", true)
	w.snap.RelayFee = jsonv.FloatOr(net, "relayfee", 0)

	w.snap.MempoolTxs = jsonv.IntOr(mp, "size", 0)
	w.snap.MempoolBytes = jsonv.IntOr(mp, "bytes", 0)
	w.snap.MempoolUsage = jsonv.IntOr(mp, "usage", 0)
	w.snap.MempoolMax = jsonv.IntOr(mp, "maxmempool", 300_000_000)
	w.snap.MempoolMinFee = jsonv.FloatOr(mp, "mempoolminfee", 0)
	w.snap.MempoolFees = jsonv.FloatOr(mp, "total_fee", 0)

	// Expected hashes per second at the current difficulty: one block per
	// 600s, difficulty × 2³² hashes per block on average.
	w.snap.NetworkHashPS = difficulty * 4294967296.0 / 600.0

	w.snap.Peers = peers
	w.snap.Connected = true
	w.snap.LastError = ""
	w.snap.LastUpdate = time.Now()
	w.mu.Unlock()

	return newTip, nil
}

// pollBlockStats fetches per-block statistics for up to recentBlockCount
// heights counting down from the tip, keeping whatever was fetched when an
// individual call fails.
func (w *Watcher) pollBlockStats(ctx context.Context, tip int64) {
	fields := jsonv.Array{
		jsonv.String("height"), jsonv.String("txs"), jsonv.String("total_size"),
		jsonv.String("total_weight"), jsonv.String("time"),
	}

	var fresh []models.BlockStat
	for i := int64(0); i < recentBlockCount && tip-i >= 0; i++ {
		if w.stopped(ctx) {
			break
		}
		env, err := w.caller.Call("getblockstats", jsonv.Int(tip-i), fields)
		if err != nil {
			w.log.WithError(err).WithField("height", tip-i).Debug("block stats fetch stopped early")
			break
		}
		bs := jsonv.Get(env, "result")
		fresh = append(fresh, models.BlockStat{
			Height:      jsonv.IntOr(bs, "height", 0),
			Txs:         jsonv.IntOr(bs, "txs", 0),
			TotalSize:   jsonv.IntOr(bs, "total_size", 0),
			TotalWeight: jsonv.IntOr(bs, "total_weight", 0),
			Time:        jsonv.IntOr(bs, "time", 0),
		})
	}

	w.mu.Lock()
	// A new block sliding in is worth animating only when there was a
	// previous list to slide out.
	if len(w.snap.RecentBlocks) > 0 && len(fresh) > 0 {
		w.snap.Anim.Old = w.snap.RecentBlocks
		w.snap.Anim.Frame = 0
		w.snap.Anim.Active = true
	}
	w.snap.RecentBlocks = fresh
	w.snap.BlocksFetchedAt = tip
	w.mu.Unlock()
	w.notify(EventBlocksUpdated)
}
