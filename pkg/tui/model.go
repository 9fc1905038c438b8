package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"btctui/pkg/models"
	"btctui/pkg/watcher"
)

// --- Messages ---

type clearStatusMsg struct{}
type uiTickMsg time.Time

// --- Tabs ---

const (
	tabDashboard = iota
	tabMempool
	tabNetwork
	tabPeers
	tabCount
)

var tabNames = [tabCount]string{"Dashboard", "Mempool", "Network", "Peers"}

// --- Model ---

type model struct {
	watcher *watcher.Watcher
	sub     watcher.Subscriber

	snap   models.Snapshot
	result models.SearchResult

	activeTab     int
	width         int
	height        int
	spinner       spinner.Model
	searchInput   textinput.Model
	searching     bool
	statusMessage string
	showHelp      bool
	peerIdx       int
	version       string
}

func initialModel(w *watcher.Watcher, version string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7931A"))

	ti := textinput.New()
	ti.Placeholder = "block height, block hash or txid"
	ti.Width = 64
	ti.Prompt = "/ "

	return model{
		watcher:     w,
		sub:         w.Subscribe(),
		snap:        w.Snapshot(),
		result:      w.SearchState(),
		spinner:     s,
		searchInput: ti,
		version:     version,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		listenForWatcher(m.sub),
		m.spinner.Tick,
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }),
	)
}
