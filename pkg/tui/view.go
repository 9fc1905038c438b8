package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"btctui/pkg/models"
	"btctui/pkg/search"
	"btctui/pkg/utils"
)

const blockBarWidth = 30

func (m model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}

	var content string
	if m.result.Query != "" {
		content = m.viewSearch()
	} else {
		switch m.activeTab {
		case tabMempool:
			content = m.viewMempool()
		case tabNetwork:
			content = m.viewNetwork()
		case tabPeers:
			content = m.viewPeers()
		default:
			content = m.viewDashboard()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewTopBar(),
		content,
		m.viewFooter(),
	)
}

func (m model) viewTopBar() string {
	title := titleStyle.Render(fmt.Sprintf("btctui - %s", m.snap.Chain))

	var tabs []string
	for i, name := range tabNames {
		if i == m.activeTab {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, tabStyle.Render(name))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	var status string
	switch {
	case !m.snap.Connected && m.snap.LastError != "":
		status = errStyle.Render("✗ " + m.snap.LastError)
	case !m.snap.Connected:
		status = subtleStyle.Render(m.spinner.View() + " connecting...")
	case m.snap.Refreshing:
		status = subtleStyle.Render(m.spinner.View() + " refreshing")
	default:
		status = infoStyle.Render("● connected") + subtleStyle.Render(
			fmt.Sprintf(" • updated %s", m.snap.LastUpdate.Format("15:04:05")))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", status),
		tabBar,
	)
}

func (m model) viewDashboard() string {
	s := m.snap

	var sync string
	if s.IBD {
		sync = warnStyle.Render(fmt.Sprintf("syncing %.2f%%", s.Progress*100))
	} else {
		sync = infoStyle.Render("synced")
	}

	left := lipgloss.JoinVertical(lipgloss.Left,
		tableHeaderStyle.Render("Chain"),
		fmt.Sprintf("  Height      %s", utils.FormatHeight(s.Blocks)),
		fmt.Sprintf("  Headers     %s", utils.FormatHeight(s.Headers)),
		fmt.Sprintf("  Status      %s", sync),
		fmt.Sprintf("  Difficulty  %s", utils.FormatDifficulty(s.Difficulty)),
		fmt.Sprintf("  Hash rate   %s", utils.FormatHashrate(s.NetworkHashPS)),
		fmt.Sprintf("  Tip hash    %s", utils.TruncateMiddle(s.BestBlockHash, 12, 12)),
	)

	right := lipgloss.JoinVertical(lipgloss.Left,
		tableHeaderStyle.Render("Summary"),
		fmt.Sprintf("  Peers       %s", utils.Comma(s.Connections)),
		fmt.Sprintf("  Mempool     %s tx", utils.Comma(s.MempoolTxs)),
		fmt.Sprintf("  Min fee     %s", utils.FormatSatsPerVB(s.MempoolMinFee)),
		fmt.Sprintf("  Pruned      %v", s.Pruned),
	)

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(left), " ", boxStyle.Render(right))

	return lipgloss.JoinVertical(lipgloss.Left, top, m.viewRecentBlocks())
}

func (m model) viewRecentBlocks() string {
	s := m.snap
	if len(s.RecentBlocks) == 0 {
		return boxStyle.Render(subtleStyle.Render("Waiting for block statistics..."))
	}

	max := maxBlockTxs(s.RecentBlocks)
	fresh := 0
	progress := 1.0
	if s.Anim.Active {
		fresh = freshBlockCount(s.RecentBlocks, s.Anim.Old)
		progress = animProgress(s.Anim.Frame)
	}

	limit := m.blockRows()
	rows := []string{tableHeaderStyle.Render(
		fmt.Sprintf("%-9s %6s %9s %8s  %s", "HEIGHT", "TXS", "SIZE", "AGE", "LOAD"))}
	now := time.Now()
	for i, b := range s.RecentBlocks {
		if i >= limit {
			break
		}
		scale := 1.0
		style := barStyle
		if i < fresh {
			// Freshly arrived block sliding in.
			scale = progress
			style = newBarStyle
		}
		rows = append(rows, fmt.Sprintf("%-9s %6s %9s %8s  %s",
			utils.FormatHeight(b.Height),
			utils.Comma(b.Txs),
			utils.FormatBytes(b.TotalSize),
			utils.TimeAgo(b.Time, now),
			style.Render(blockBar(b.Txs, max, blockBarWidth, scale)),
		))
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// blockRows bounds the recent-block table to the visible terminal height.
func (m model) blockRows() int {
	limit := len(m.snap.RecentBlocks)
	if m.height > 0 {
		avail := m.height - 16
		if avail < 3 {
			avail = 3
		}
		if limit > avail {
			limit = avail
		}
	}
	return limit
}

func (m model) viewMempool() string {
	s := m.snap

	stats := lipgloss.JoinVertical(lipgloss.Left,
		tableHeaderStyle.Render("Mempool"),
		fmt.Sprintf("  Transactions  %s", utils.Comma(s.MempoolTxs)),
		fmt.Sprintf("  Virtual size  %s", utils.FormatBytes(s.MempoolBytes)),
		fmt.Sprintf("  Memory usage  %s of %s (%.1f%%)",
			utils.FormatBytes(s.MempoolUsage),
			utils.FormatBytes(s.MempoolMax),
			mempoolFillPercent(s)),
		fmt.Sprintf("  Min fee       %s", utils.FormatSatsPerVB(s.MempoolMinFee)),
		fmt.Sprintf("  Total fees    %s", utils.FormatBTC(s.MempoolFees, 8)),
	)

	graph := subtleStyle.Render("Not enough block data to draw graph.")
	if series := txSeries(s.RecentBlocks); len(series) >= 2 {
		width := m.width - 18
		if width < 20 {
			width = 20
		}
		height := m.height - 18
		if height < 4 {
			height = 4
		}
		if height > 12 {
			height = 12
		}
		graph = asciigraph.Plot(series,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption("Transactions per block (oldest to newest)"),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		boxStyle.Render(stats),
		boxStyle.Render(graph),
	)
}

func (m model) viewNetwork() string {
	s := m.snap

	active := infoStyle.Render("active")
	if !s.NetworkActive {
		active = errStyle.Render("disabled")
	}

	rows := lipgloss.JoinVertical(lipgloss.Left,
		tableHeaderStyle.Render("Network"),
		fmt.Sprintf("  Node          %s", s.Subversion),
		fmt.Sprintf("  Protocol      %d", s.ProtocolVersion),
		fmt.Sprintf("  Networking    %s", active),
		fmt.Sprintf("  Connections   %s (%s in / %s out)",
			utils.Comma(s.Connections),
			utils.Comma(s.ConnectionsIn),
			utils.Comma(s.ConnectionsOut)),
		fmt.Sprintf("  Relay fee     %s", utils.FormatSatsPerVB(s.RelayFee)),
		fmt.Sprintf("  Hash rate     %s", utils.FormatHashrate(s.NetworkHashPS)),
	)

	return boxStyle.Render(rows)
}

func (m model) viewPeers() string {
	peers := m.snap.Peers
	if len(peers) == 0 {
		return boxStyle.Render(subtleStyle.Render("No peer connections."))
	}

	rows := []string{tableHeaderStyle.Render(fmt.Sprintf(
		"%-4s %-24s %-8s %-4s %8s %10s %10s  %s",
		"ID", "ADDRESS", "NET", "DIR", "PING", "SENT", "RECV", "AGENT"))}

	top, win := search.OverlayWindow(len(peers), m.peerIdx)
	for i := top; i < top+win; i++ {
		p := peers[i]
		dir := "out"
		if p.Inbound {
			dir = "in"
		}
		ping := "—"
		if p.PingMs >= 0 {
			ping = fmt.Sprintf("%.0fms", p.PingMs)
		}
		row := fmt.Sprintf("%-4d %-24s %-8s %-4s %8s %10s %10s  %s",
			p.ID,
			utils.TruncateMiddle(p.Addr, 12, 9),
			p.Network,
			dir,
			ping,
			utils.FormatBytes(p.BytesSent),
			utils.FormatBytes(p.BytesRecv),
			utils.TruncateMiddle(p.Subver, 14, 0),
		)
		if i == m.peerIdx {
			row = selectedStyle.Render(row)
		}
		rows = append(rows, row)
	}
	rows = append(rows, subtleStyle.Render(
		fmt.Sprintf("  %d of %d peers", m.peerIdx+1, len(peers))))

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// --- Search result panels ---

func (m model) viewSearch() string {
	r := m.result

	switch r.Kind() {
	case models.KindSearching:
		return boxStyle.Render(fmt.Sprintf("%s Looking up %s ...",
			m.spinner.View(), utils.TruncateMiddle(r.Query, 16, 16)))
	case models.KindError:
		return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			errStyle.Render("Not found: ")+utils.TruncateMiddle(r.Query, 16, 16),
			subtleStyle.Render(r.Err),
			"",
			subtleStyle.Render("esc: back"),
		))
	case models.KindBlock:
		return m.viewBlockResult()
	case models.KindMempool:
		return m.viewMempoolTx()
	default:
		return m.viewConfirmedTx()
	}
}

func (m model) viewBlockResult() string {
	r := m.result
	rows := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("Block %s", utils.FormatHeight(r.BlkHeight))),
		"",
		fmt.Sprintf("  Hash           %s", r.BlkHash),
		fmt.Sprintf("  Time           %s", time.Unix(r.BlkTime, 0).Format("2006-01-02 15:04:05")),
		fmt.Sprintf("  Confirmations  %s", utils.Comma(r.BlkConfirmations)),
		fmt.Sprintf("  Transactions   %s", utils.Comma(r.BlkTxs)),
		fmt.Sprintf("  Size           %s", utils.FormatBytes(r.BlkSize)),
		fmt.Sprintf("  Weight         %s WU", utils.Comma(r.BlkWeight)),
		fmt.Sprintf("  Difficulty     %s", utils.FormatDifficulty(r.BlkDifficulty)),
		fmt.Sprintf("  Miner          %s", r.BlkMiner),
		"",
		subtleStyle.Render("c: copy hash • esc: back"),
	)
	return boxStyle.Render(rows)
}

func (m model) viewMempoolTx() string {
	r := m.result
	rows := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Unconfirmed Transaction"),
		"",
		fmt.Sprintf("  Txid         %s", r.Query),
		"  Status       "+warnStyle.Render("in mempool"),
		fmt.Sprintf("  First seen   %s", utils.TimeAgo(r.EntryTime, time.Now())),
		fmt.Sprintf("  Fee          %s (%.1f sat/vB)", utils.FormatBTC(r.Fee, 8), r.FeeRate),
		fmt.Sprintf("  Virtual size %s vB", utils.Comma(r.VSize)),
		fmt.Sprintf("  Weight       %s WU", utils.Comma(r.Weight)),
		fmt.Sprintf("  Ancestors    %s", utils.Comma(r.Ancestors)),
		fmt.Sprintf("  Descendants  %s", utils.Comma(r.Descendants)),
		"",
		subtleStyle.Render("c: copy txid • esc: back"),
	)
	return boxStyle.Render(rows)
}

func (m model) viewConfirmedTx() string {
	r := m.result

	if r.InputsOpen {
		return m.viewInputsOverlay()
	}
	if r.OutputsOpen {
		return m.viewOutputsOverlay()
	}

	blockRow := fmt.Sprintf("  Block        %s (%s confirmations)",
		utils.FormatHeight(r.BlockHeight), utils.Comma(r.Confirmations))
	if r.Selected == 0 {
		blockRow = selectedStyle.Render("> Block        " +
			utils.FormatHeight(r.BlockHeight) + " — enter to open")
	}

	inputsRow := fmt.Sprintf("  Inputs       %s", utils.Comma(int64(len(r.Vins))))
	if r.Selected == search.InputsRow(r) && r.Selected > 0 {
		inputsRow = selectedStyle.Render(fmt.Sprintf("> Inputs       %d — enter to list", len(r.Vins)))
	}
	outputsRow := fmt.Sprintf("  Outputs      %s (%s total)",
		utils.Comma(int64(len(r.Vouts))), utils.FormatBTC(r.TotalOutput, 8))
	if r.Selected == search.OutputsRow(r) && r.Selected > 0 {
		outputsRow = selectedStyle.Render(fmt.Sprintf("> Outputs      %d — enter to list", len(r.Vouts)))
	}

	rows := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Confirmed Transaction"),
		"",
		fmt.Sprintf("  Txid         %s", r.Query),
		"  Status       "+infoStyle.Render("confirmed"),
		fmt.Sprintf("  Block time   %s", time.Unix(r.BlockTime, 0).Format("2006-01-02 15:04:05")),
		blockRow,
		fmt.Sprintf("  Virtual size %s vB", utils.Comma(r.VSize)),
		fmt.Sprintf("  Weight       %s WU", utils.Comma(r.Weight)),
		inputsRow,
		outputsRow,
		"",
		subtleStyle.Render("↑/↓: select • enter: open • c: copy txid • esc: back"),
	)
	return boxStyle.Render(rows)
}

func (m model) viewInputsOverlay() string {
	r := m.result
	rows := []string{titleStyle.Render(fmt.Sprintf("Inputs (%d)", len(r.Vins))), ""}

	top, win := search.OverlayWindow(len(r.Vins), r.InputSel)
	for i := top; i < top+win; i++ {
		in := r.Vins[i]
		var row string
		if in.Coinbase {
			row = fmt.Sprintf("  %3d  coinbase (newly generated coins)", i)
		} else {
			row = fmt.Sprintf("  %3d  %s:%d", i, utils.TruncateMiddle(in.TxID, 16, 16), in.Vout)
		}
		if i == r.InputSel {
			row = selectedStyle.Render("> " + row[2:])
		}
		rows = append(rows, row)
	}
	rows = append(rows, "", subtleStyle.Render(overlayScroll(len(r.Vins), top, win)+
		"↑/↓: select • enter: follow input • esc: close"))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m model) viewOutputsOverlay() string {
	r := m.result
	rows := []string{titleStyle.Render(fmt.Sprintf("Outputs (%d)", len(r.Vouts))), ""}

	top, win := search.OverlayWindow(len(r.Vouts), r.OutputSel)
	for i := top; i < top+win; i++ {
		out := r.Vouts[i]
		addr := out.Address
		if addr == "" {
			addr = subtleStyle.Render(out.Type)
		}
		row := fmt.Sprintf("  %3d  %14s  %s", i, utils.FormatBTC(out.Value, 8), addr)
		if i == r.OutputSel {
			row = selectedStyle.Render("> " + row[2:])
		}
		rows = append(rows, row)
	}
	rows = append(rows, "", subtleStyle.Render(overlayScroll(len(r.Vouts), top, win)+
		"↑/↓: select • esc: close"))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func overlayScroll(n, top, win int) string {
	if n <= win {
		return ""
	}
	return fmt.Sprintf("%d-%d of %d • ", top+1, top+win, n)
}

func (m model) viewFooter() string {
	if m.searchInput.Focused() {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.searchInput.View(),
			subtleStyle.Render("enter: search • esc: cancel"),
		)
	}

	line := "/:search • tab:switch • ↑/↓:select • c:copy • ?:help • q:quit"
	line += fmt.Sprintf(" • v%s", m.version)
	footer := subtleStyle.Render(line)
	if m.statusMessage != "" {
		footer = lipgloss.JoinVertical(lipgloss.Left, infoStyle.Render(m.statusMessage), footer)
	}
	return footer
}

func (m model) viewHelp() string {
	help := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Help"),
		"",
		"  /          search: block height, block hash or txid",
		"  tab / 1-4  switch between dashboard, mempool, network, peers",
		"  ↑/↓ k/j    move the selection",
		"  enter      open the selected row (block, inputs, outputs)",
		"  esc        close overlay, go back, dismiss result, quit",
		"  c          copy the displayed hash to the clipboard",
		"  q          quit",
		"",
		subtleStyle.Render("press ? or esc to close"),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		boxStyle.Render(help))
}
