package models

import "time"

// BlockStat is one row of the recent-block list, populated from the
// daemon's per-block statistics.
type BlockStat struct {
	Height      int64
	Txs         int64
	TotalSize   int64
	TotalWeight int64
	Time        int64
}

// Peer holds the data for a single peer connection.
type Peer struct {
	ID           int64
	Addr         string
	Network      string
	Subver       string
	Inbound      bool
	BytesSent    int64
	BytesRecv    int64
	PingMs       float64 // -1 when the daemon reported no ping time
	Version      int64
	SyncedBlocks int64
}

// BlockAnim is the block-arrival animation sub-state. While active, the UI
// renders Old sliding out as the fresh list takes its place.
type BlockAnim struct {
	Active bool
	Frame  int
	Old    []BlockStat
}

// Snapshot is the complete daemon state as of the last poll. The watcher
// owns one instance under its lock; consumers always receive a deep copy.
type Snapshot struct {
	// Blockchain
	Chain         string
	Blocks        int64
	Headers       int64
	Difficulty    float64
	Progress      float64
	Pruned        bool
	IBD           bool
	BestBlockHash string

	// Network
	Connections     int64
	ConnectionsIn   int64
	ConnectionsOut  int64
	Subversion      string
	ProtocolVersion int64
	NetworkActive   bool
	RelayFee        float64

	// Mempool
	MempoolTxs    int64
	MempoolBytes  int64
	MempoolUsage  int64
	MempoolMax    int64
	MempoolMinFee float64
	MempoolFees   float64

	// Derived from difficulty
	NetworkHashPS float64

	Peers []Peer

	// Recent blocks, index 0 = newest, and the tip height they were
	// fetched at.
	RecentBlocks    []BlockStat
	BlocksFetchedAt int64

	Anim BlockAnim

	// Status
	Connected  bool
	LastError  string
	LastUpdate time.Time
	Refreshing bool
}

// Clone returns a deep copy safe to hand across goroutines.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Peers = append([]Peer(nil), s.Peers...)
	out.RecentBlocks = append([]BlockStat(nil), s.RecentBlocks...)
	out.Anim.Old = append([]BlockStat(nil), s.Anim.Old...)
	return out
}
