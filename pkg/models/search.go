package models

// ResultKind classifies a search result for presentation. Exactly one kind
// applies to any result.
type ResultKind int

const (
	KindSearching ResultKind = iota
	KindBlock
	KindMempool
	KindConfirmed
	KindError
)

func (k ResultKind) String() string {
	switch k {
	case KindSearching:
		return "searching"
	case KindBlock:
		return "block"
	case KindMempool:
		return "mempool"
	case KindConfirmed:
		return "confirmed"
	}
	return "error"
}

// VinRef is one transaction input: either the coinbase or a reference to a
// prior output.
type VinRef struct {
	TxID     string
	Vout     int64
	Coinbase bool
}

// VoutInfo is one transaction output.
type VoutInfo struct {
	Value   float64
	Address string // empty for non-standard scripts
	Type    string // scriptPubKey type
}

// SearchResult is the outcome of one lookup query, plus the navigation
// sub-state the UI mutates while the result is displayed.
type SearchResult struct {
	Query     string
	Searching bool
	Found     bool
	IsBlock   bool
	Confirmed bool
	Err       string

	// Shared transaction metrics
	VSize  int64
	Weight int64

	// Mempool-resident only
	Fee         float64 // BTC
	FeeRate     float64 // sat/vB
	Ancestors   int64
	Descendants int64
	EntryTime   int64

	// Confirmed only
	BlockHash     string
	BlockHeight   int64
	Confirmations int64
	BlockTime     int64
	Vins          []VinRef
	Vouts         []VoutInfo
	TotalOutput   float64

	// Block result
	BlkHash          string
	BlkHeight        int64
	BlkTime          int64
	BlkTxs           int64
	BlkSize          int64
	BlkWeight        int64
	BlkDifficulty    float64
	BlkMiner         string
	BlkConfirmations int64

	// Navigation: Selected walks {block row, inputs row, outputs row};
	// each overlay keeps its own selection index.
	Selected    int
	InputsOpen  bool
	InputSel    int
	OutputsOpen bool
	OutputSel   int
}

// Kind returns the presentation classification of the result.
func (r SearchResult) Kind() ResultKind {
	switch {
	case r.Searching:
		return KindSearching
	case !r.Found:
		return KindError
	case r.IsBlock:
		return KindBlock
	case r.Confirmed:
		return KindConfirmed
	default:
		return KindMempool
	}
}

// Clone returns a deep copy safe to hand across goroutines.
func (r SearchResult) Clone() SearchResult {
	out := r
	out.Vins = append([]VinRef(nil), r.Vins...)
	out.Vouts = append([]VoutInfo(nil), r.Vouts...)
	return out
}
