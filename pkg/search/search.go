// Package search resolves a user query (block height, block hash or txid)
// against the daemon through an ordered fallback chain and classifies the
// outcome. Resolve is a pure function of its inputs so it can run on a
// worker goroutine and be unit tested with a mock caller.
package search

import (
	"encoding/hex"
	"fmt"

	"btctui/pkg/jsonv"
	"btctui/pkg/models"
	"btctui/pkg/rpc"
)

// Resolve looks the query up: a height query goes straight to the block
// path; anything else tries mempool entry, then confirmed transaction, then
// block hash, each step swallowing the previous failure. Only an exhausted
// chain surfaces an error. tip is the chain height at submit time, used to
// derive a confirmed transaction's block height.
func Resolve(c rpc.Caller, query string, isHeight bool, tip int64) models.SearchResult {
	result := models.SearchResult{Query: query, Selected: -1, InputSel: -1, OutputSel: -1}

	if isHeight {
		var height int64
		if _, err := fmt.Sscanf(query, "%d", &height); err != nil {
			result.Err = fmt.Sprintf("invalid height %q", query)
			return result
		}
		env, err := c.Call("getblockhash", jsonv.Int(height))
		if err != nil {
			result.Err = err.Error()
			return result
		}
		hash, err := jsonv.AsString(jsonv.Get(env, "result"))
		if err != nil {
			result.Err = err.Error()
			return result
		}
		if err := fetchBlock(c, hash, &result); err != nil {
			result.Err = err.Error()
		}
		return result
	}

	if err := resolveMempool(c, query, &result); err == nil {
		return result
	}
	if err := resolveConfirmed(c, query, tip, &result); err == nil {
		return result
	}
	if err := fetchBlock(c, query, &result); err != nil {
		result.Err = err.Error()
	}
	return result
}

func resolveMempool(c rpc.Caller, txid string, result *models.SearchResult) error {
	env, err := c.Call("getmempoolentry", jsonv.String(txid))
	if err != nil {
		return err
	}
	entry := jsonv.Get(env, "result")

	if fees := jsonv.Get(entry, "fees"); !jsonv.IsNull(fees) {
		result.Fee = jsonv.FloatOr(fees, "base", 0)
	} else {
		result.Fee = jsonv.FloatOr(entry, "fee", 0)
	}
	result.VSize = jsonv.IntOr(entry, "vsize", 0)
	result.Weight = jsonv.IntOr(entry, "weight", 0)
	result.Ancestors = jsonv.IntOr(entry, "ancestorcount", 0)
	result.Descendants = jsonv.IntOr(entry, "descendantcount", 0)
	result.EntryTime = jsonv.IntOr(entry, "time", 0)
	if result.VSize > 0 {
		result.FeeRate = result.Fee * 1e8 / float64(result.VSize)
	}
	result.Confirmed = false
	result.Found = true
	return nil
}

// resolveConfirmed needs txindex=1 on the daemon side; without it the call
// fails for anything outside the mempool and the block-hash fallback runs.
func resolveConfirmed(c rpc.Caller, txid string, tip int64, result *models.SearchResult) error {
	env, err := c.Call("getrawtransaction", jsonv.String(txid), jsonv.Bool(true))
	if err != nil {
		return err
	}
	tx := jsonv.Get(env, "result")

	result.VSize = jsonv.IntOr(tx, "vsize", 0)
	result.Weight = jsonv.IntOr(tx, "weight", 0)
	result.BlockHash = jsonv.StrOr(tx, "blockhash", "")
	result.Confirmations = jsonv.IntOr(tx, "confirmations", 0)
	result.BlockTime = jsonv.IntOr(tx, "blocktime", 0)
	result.BlockHeight = -1
	if tip > 0 && result.Confirmations > 0 {
		result.BlockHeight = tip - result.Confirmations + 1
	}

	if vin, ok := jsonv.Get(tx, "vin").(jsonv.Array); ok {
		for _, in := range vin {
			ref := models.VinRef{}
			if jsonv.Has(in, "coinbase") {
				ref.Coinbase = true
			} else {
				ref.TxID = jsonv.StrOr(in, "txid", "")
				ref.Vout = jsonv.IntOr(in, "vout", 0)
			}
			result.Vins = append(result.Vins, ref)
		}
	}
	if vout, ok := jsonv.Get(tx, "vout").(jsonv.Array); ok {
		for _, out := range vout {
			info := models.VoutInfo{Value: jsonv.FloatOr(out, "value", 0)}
			if spk := jsonv.Get(out, "scriptPubKey"); !jsonv.IsNull(spk) {
				info.Type = jsonv.StrOr(spk, "type", "")
				info.Address = jsonv.StrOr(spk, "address", "")
			}
			result.TotalOutput += info.Value
			result.Vouts = append(result.Vouts, info)
		}
	}
	result.Confirmed = true
	result.Found = true
	return nil
}

// fetchBlock populates result with block data from getblock (verbosity 1)
// plus the miner tag derived from the coinbase transaction.
func fetchBlock(c rpc.Caller, hash string, result *models.SearchResult) error {
	env, err := c.Call("getblock", jsonv.String(hash), jsonv.Int(1))
	if err != nil {
		return err
	}
	blk := jsonv.Get(env, "result")

	result.BlkHash = jsonv.StrOr(blk, "hash", hash)
	result.BlkHeight = jsonv.IntOr(blk, "height", 0)
	result.BlkTime = jsonv.IntOr(blk, "time", 0)
	result.BlkTxs = jsonv.IntOr(blk, "nTx", 0)
	result.BlkSize = jsonv.IntOr(blk, "size", 0)
	result.BlkWeight = jsonv.IntOr(blk, "weight", 0)
	result.BlkDifficulty = jsonv.FloatOr(blk, "difficulty", 0)
	result.BlkConfirmations = jsonv.IntOr(blk, "confirmations", 0)

	if coinbaseTxid, err := jsonv.AsString(jsonv.At(jsonv.Get(blk, "tx"), 0)); err == nil {
		result.BlkMiner = minerFromCoinbase(c, coinbaseTxid)
	}

	result.IsBlock = true
	result.Found = true
	return nil
}

func minerFromCoinbase(c rpc.Caller, coinbaseTxid string) string {
	env, err := c.Call("getrawtransaction", jsonv.String(coinbaseTxid), jsonv.Bool(true))
	if err != nil {
		return noMiner
	}
	cbHex := jsonv.StrOr(jsonv.At(jsonv.Get(jsonv.Get(env, "result"), "vin"), 0), "coinbase", "")
	return MinerTag(cbHex)
}

const noMiner = "—"

// MinerTag derives a human-readable miner name from the coinbase scriptSig
// hex: the longest run of at least 4 printable ASCII bytes, slashes
// excluded, capped at 24 characters.
func MinerTag(scriptHex string) string {
	// DecodeString hands back everything decoded before a malformed byte;
	// a truncated or invalid tail just ends the scan early.
	raw, _ := hex.DecodeString(scriptHex)
	var best, run []byte
	flush := func() {
		if len(run) >= 4 && len(run) > len(best) {
			best = append([]byte(nil), run...)
		}
		run = run[:0]
	}
	for _, b := range raw {
		if b >= 0x20 && b < 0x7f && b != '/' {
			run = append(run, b)
		} else {
			flush()
		}
	}
	flush()
	if len(best) > 24 {
		best = best[:24]
	}
	if len(best) == 0 {
		return noMiner
	}
	return string(best)
}

// IsTxID reports whether s looks like a 64-character hex hash.
func IsTxID(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !isHexDigit(byte(c)) {
			return false
		}
	}
	return true
}

// IsHeight reports whether s is a plausible block-height query.
func IsHeight(s string) bool {
	if len(s) == 0 || len(s) > 8 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
