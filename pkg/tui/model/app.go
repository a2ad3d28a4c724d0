package model

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/tailcat/pkg/core"
)

// Mode identifies the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
)

// FetchFunc collects a fresh set of buffer tails.
type FetchFunc func(ctx context.Context) ([]core.BufferLog, error)

const fetchTimeout = 30 * time.Second

// App is the root Bubble Tea model.
type App struct {
	fetch FetchFunc

	// State
	buffers   []core.BufferLog
	active    int
	query     string
	loading   bool
	fetchedAt time.Time

	// UI
	mode      Mode
	search    textinput.Model
	viewport  viewport.Model
	width     int
	height    int
	statusMsg string
}

// New creates a viewer that calls fetch on start and on every refresh.
func New(fetch FetchFunc) App {
	si := textinput.New()
	si.Placeholder = "filter..."
	si.CharLimit = 128

	return App{
		fetch:    fetch,
		search:   si,
		viewport: viewport.New(0, 0),
		mode:     ModeNormal,
		loading:  true,
	}
}

// Init starts the first collection.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		fetchCmd(a.fetch),
		tea.SetWindowTitle("tailcat"),
	)
}

// logsMsg carries a finished collection.
type logsMsg struct {
	buffers []core.BufferLog
	at      time.Time
}

// errorMsg carries an error to display.
type errorMsg struct{ err error }

func fetchCmd(fetch FetchFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		buffers, err := fetch(ctx)
		if err != nil {
			return errorMsg{err}
		}
		return logsMsg{buffers: buffers, at: time.Now()}
	}
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport.Width = max(msg.Width-4, 1)
		a.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)
		a.refresh(false)
		return a, nil

	case logsMsg:
		a.loading = false
		a.buffers = msg.buffers
		a.fetchedAt = msg.at
		if a.active >= len(a.buffers) {
			a.active = 0
		}
		a.statusMsg = ""
		a.refresh(true)
		return a, nil

	case errorMsg:
		a.loading = false
		a.statusMsg = "error: " + msg.err.Error()
		return a, nil

	case tea.KeyMsg:
		if a.mode == ModeSearch {
			return a.updateSearch(msg)
		}
		return a.updateNormal(msg)
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "r":
		if a.loading {
			return a, nil
		}
		a.loading = true
		a.statusMsg = "collecting..."
		return a, fetchCmd(a.fetch)
	case "/":
		a.mode = ModeSearch
		a.search.SetValue(a.query)
		return a, a.search.Focus()
	case "esc":
		if a.query != "" {
			a.query = ""
			a.refresh(true)
		}
		return a, nil
	case "tab", "l":
		if len(a.buffers) > 1 {
			a.active = (a.active + 1) % len(a.buffers)
			a.refresh(true)
		}
		return a, nil
	case "shift+tab", "h":
		if len(a.buffers) > 1 {
			a.active = (a.active - 1 + len(a.buffers)) % len(a.buffers)
			a.refresh(true)
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.query = a.search.Value()
		a.mode = ModeNormal
		a.search.Blur()
		a.refresh(true)
		return a, nil
	case "esc":
		a.mode = ModeNormal
		a.search.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	return a, cmd
}

// refresh re-renders the active buffer into the viewport. Newest lines are
// at the bottom, so a fresh collection scrolls there.
func (a *App) refresh(toBottom bool) {
	buf := a.activeBuffer()
	if buf == nil {
		a.viewport.SetContent("")
		return
	}
	a.viewport.SetContent(renderContent(buf.Text, a.query, a.viewport.Width))
	if toBottom {
		a.viewport.GotoBottom()
	}
}

func (a App) activeBuffer() *core.BufferLog {
	if a.active < 0 || a.active >= len(a.buffers) {
		return nil
	}
	return &a.buffers[a.active]
}
