package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"btctui/pkg/models"
	"btctui/pkg/watcher"
)

// animProgress maps an animation frame to [0,1].
func animProgress(frame int) float64 {
	if frame <= 0 {
		return 0
	}
	if frame >= watcher.AnimSlideFrames {
		return 1
	}
	return float64(frame) / float64(watcher.AnimSlideFrames)
}

// blockBar renders a transaction-count bar scaled against the busiest
// recent block. scale < 1 shrinks it further, which drives the arrival
// animation of a fresh tip block.
func blockBar(txs, maxTxs int64, width int, scale float64) string {
	if maxTxs <= 0 || width <= 0 {
		return ""
	}
	n := int(float64(txs) / float64(maxTxs) * float64(width) * scale)
	if n > width {
		n = width
	}
	if n < 1 && txs > 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// maxBlockTxs returns the largest transaction count in the list, never
// less than 1 so bars stay well defined.
func maxBlockTxs(blocks []models.BlockStat) int64 {
	max := int64(1)
	for _, b := range blocks {
		if b.Txs > max {
			max = b.Txs
		}
	}
	return max
}

// freshBlockCount counts how many leading entries of blocks are newer than
// the previous list's tip. During the slide animation these rows grow in.
func freshBlockCount(blocks, old []models.BlockStat) int {
	if len(old) == 0 {
		return 0
	}
	prevTip := old[0].Height
	n := 0
	for _, b := range blocks {
		if b.Height <= prevTip {
			break
		}
		n++
	}
	return n
}

// txSeries extracts transaction counts oldest-first for the sparkline.
func txSeries(blocks []models.BlockStat) []float64 {
	out := make([]float64, 0, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		out = append(out, float64(blocks[i].Txs))
	}
	return out
}

// mempoolFillPercent is mempool usage against the daemon's configured cap.
func mempoolFillPercent(s models.Snapshot) float64 {
	if s.MempoolMax <= 0 {
		return 0
	}
	p := float64(s.MempoolUsage) / float64(s.MempoolMax) * 100
	if p > 100 {
		p = 100
	}
	return p
}

func listenForWatcher(sub watcher.Subscriber) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}
