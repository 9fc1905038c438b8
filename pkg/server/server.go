// Package server exposes the watcher state over HTTP for external
// tooling: a JSON status endpoint and a websocket event feed. Responses
// are rendered through the in-house value engine so key order is stable.
package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"btctui/pkg/jsonv"
	"btctui/pkg/models"
	"btctui/pkg/watcher"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	watcher *watcher.Watcher
	log     *logrus.Logger
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	mux     *http.ServeMux
}

func New(w *watcher.Watcher, log *logrus.Logger) *Server {
	s := &Server{
		watcher: w,
		log:     log,
		clients: make(map[*websocket.Conn]bool),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/search", s.handleSearch)
	s.mux.HandleFunc("/ws", s.handleWS)
}

func (s *Server) Start(port int) error {
	go s.listenToWatcher()
	s.log.WithField("port", port).Info("api server listening")
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.watcher.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(jsonv.Encode(snapshotValue(snap))))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	res := s.watcher.SearchState()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(jsonv.Encode(resultValue(res))))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	initial := jsonv.Object{
		"type": jsonv.String("initial"),
		"data": snapshotValue(s.watcher.Snapshot()),
	}
	_ = conn.WriteMessage(websocket.TextMessage, []byte(jsonv.Encode(initial)))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) listenToWatcher() {
	sub := s.watcher.Subscribe()
	defer s.watcher.Unsubscribe(sub)

	for event := range sub {
		s.broadcast(event)
	}
}

func (s *Server) broadcast(event watcher.Event) {
	msg := jsonv.Object{"type": jsonv.String(string(event.Type))}
	payload := []byte(jsonv.Encode(msg))

	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}

func snapshotValue(s models.Snapshot) jsonv.Value {
	peers := make(jsonv.Array, 0, len(s.Peers))
	for _, p := range s.Peers {
		peers = append(peers, jsonv.Object{
			"id":            jsonv.Int(p.ID),
			"addr":          jsonv.String(p.Addr),
			"network":       jsonv.String(p.Network),
			"subver":        jsonv.String(p.Subver),
			"inbound":       jsonv.Bool(p.Inbound),
			"bytes_sent":    jsonv.Int(p.BytesSent),
			"bytes_recv":    jsonv.Int(p.BytesRecv),
			"ping_ms":       jsonv.Float(p.PingMs),
			"version":       jsonv.Int(p.Version),
			"synced_blocks": jsonv.Int(p.SyncedBlocks),
		})
	}
	blocks := make(jsonv.Array, 0, len(s.RecentBlocks))
	for _, b := range s.RecentBlocks {
		blocks = append(blocks, jsonv.Object{
			"height": jsonv.Int(b.Height),
			"txs":    jsonv.Int(b.Txs),
			"size":   jsonv.Int(b.TotalSize),
			"weight": jsonv.Int(b.TotalWeight),
			"time":   jsonv.Int(b.Time),
		})
	}
	return jsonv.Object{
		"chain":           jsonv.String(s.Chain),
		"blocks":          jsonv.Int(s.Blocks),
		"headers":         jsonv.Int(s.Headers),
		"difficulty":      jsonv.Float(s.Difficulty),
		"progress":        jsonv.Float(s.Progress),
		"pruned":          jsonv.Bool(s.Pruned),
		"ibd":             jsonv.Bool(s.IBD),
		"best_block_hash": jsonv.String(s.BestBlockHash),
		"connections":     jsonv.Int(s.Connections),
		"connections_in":  jsonv.Int(s.ConnectionsIn),
		"connections_out": jsonv.Int(s.ConnectionsOut),
		"subversion":      jsonv.String(s.Subversion),
		"network_active":  jsonv.Bool(s.NetworkActive),
		"mempool_txs":     jsonv.Int(s.MempoolTxs),
		"mempool_bytes":   jsonv.Int(s.MempoolBytes),
		"mempool_usage":   jsonv.Int(s.MempoolUsage),
		"mempool_max":     jsonv.Int(s.MempoolMax),
		"mempool_min_fee": jsonv.Float(s.MempoolMinFee),
		"network_hashps":  jsonv.Float(s.NetworkHashPS),
		"peers":           peers,
		"recent_blocks":   blocks,
		"connected":       jsonv.Bool(s.Connected),
		"last_error":      jsonv.String(s.LastError),
	}
}

func resultValue(r models.SearchResult) jsonv.Value {
	out := jsonv.Object{
		"query":     jsonv.String(r.Query),
		"kind":      jsonv.String(r.Kind().String()),
		"searching": jsonv.Bool(r.Searching),
		"found":     jsonv.Bool(r.Found),
	}
	if r.Err != "" {
		out["error"] = jsonv.String(r.Err)
	}
	switch r.Kind() {
	case models.KindBlock:
		out["hash"] = jsonv.String(r.BlkHash)
		out["height"] = jsonv.Int(r.BlkHeight)
		out["txs"] = jsonv.Int(r.BlkTxs)
		out["size"] = jsonv.Int(r.BlkSize)
		out["weight"] = jsonv.Int(r.BlkWeight)
		out["time"] = jsonv.Int(r.BlkTime)
		out["miner"] = jsonv.String(r.BlkMiner)
		out["confirmations"] = jsonv.Int(r.BlkConfirmations)
	case models.KindMempool:
		out["fee"] = jsonv.Float(r.Fee)
		out["fee_rate"] = jsonv.Float(r.FeeRate)
		out["vsize"] = jsonv.Int(r.VSize)
		out["weight"] = jsonv.Int(r.Weight)
		out["ancestors"] = jsonv.Int(r.Ancestors)
		out["descendants"] = jsonv.Int(r.Descendants)
	case models.KindConfirmed:
		out["block_hash"] = jsonv.String(r.BlockHash)
		out["block_height"] = jsonv.Int(r.BlockHeight)
		out["confirmations"] = jsonv.Int(r.Confirmations)
		out["vsize"] = jsonv.Int(r.VSize)
		out["weight"] = jsonv.Int(r.Weight)
		out["inputs"] = jsonv.Int(int64(len(r.Vins)))
		out["outputs"] = jsonv.Int(int64(len(r.Vouts)))
		out["total_output"] = jsonv.Float(r.TotalOutput)
	}
	return out
}
