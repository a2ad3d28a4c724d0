package model

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/tailcat/pkg/core"
)

func sampleBuffers() []core.BufferLog {
	return []core.BufferLog{
		{Name: "main", Text: "I/app( 42): started\nW/app( 42): slow frame\n", Lines: 2},
		{Name: "events", Text: "am_proc_start\n", Lines: 1},
	}
}

func staticFetch(bufs []core.BufferLog, err error) FetchFunc {
	return func(context.Context) ([]core.BufferLog, error) { return bufs, err }
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, _ := a.Update(msg)
	return m.(App)
}

func TestFetchCmdDeliversLogs(t *testing.T) {
	msg := fetchCmd(staticFetch(sampleBuffers(), nil))()
	lm, ok := msg.(logsMsg)
	if !ok {
		t.Fatalf("expected logsMsg, got %T", msg)
	}
	if len(lm.buffers) != 2 || lm.at.IsZero() {
		t.Errorf("unexpected message: %+v", lm)
	}

	msg = fetchCmd(staticFetch(nil, errors.New("dial failed")))()
	if _, ok := msg.(errorMsg); !ok {
		t.Errorf("expected errorMsg, got %T", msg)
	}
}

func TestUpdateShowsBuffersAndSwitchesTabs(t *testing.T) {
	a := New(staticFetch(nil, nil))
	a = update(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})
	a = update(t, a, logsMsg{buffers: sampleBuffers()})

	if a.loading {
		t.Error("expected loading to clear")
	}
	if a.activeBuffer().Name != "main" {
		t.Fatalf("active: got %q", a.activeBuffer().Name)
	}

	a = update(t, a, key("tab"))
	if a.activeBuffer().Name != "events" {
		t.Errorf("after tab: got %q", a.activeBuffer().Name)
	}
	a = update(t, a, key("tab"))
	if a.activeBuffer().Name != "main" {
		t.Errorf("tab should wrap: got %q", a.activeBuffer().Name)
	}

	if !strings.Contains(a.View(), "events (1)") {
		t.Error("view should list buffer tabs")
	}
}

func TestSearchSetsQuery(t *testing.T) {
	a := New(staticFetch(nil, nil))
	a = update(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})
	a = update(t, a, logsMsg{buffers: sampleBuffers()})

	a = update(t, a, key("/"))
	if a.mode != ModeSearch {
		t.Fatal("expected search mode")
	}
	a = update(t, a, key("slow"))
	a = update(t, a, key("enter"))
	if a.mode != ModeNormal || a.query != "slow" {
		t.Errorf("mode=%v query=%q", a.mode, a.query)
	}

	a = update(t, a, key("esc"))
	if a.query != "" {
		t.Errorf("esc should clear filter, got %q", a.query)
	}
}

func TestQuitAndRefreshKeys(t *testing.T) {
	a := New(staticFetch(sampleBuffers(), nil))
	a = update(t, a, logsMsg{buffers: sampleBuffers()})

	if _, cmd := a.Update(key("q")); cmd == nil {
		t.Error("q should return a quit command")
	}

	m, cmd := a.Update(key("r"))
	if cmd == nil || !m.(App).loading {
		t.Error("r should start a new collection")
	}
	if _, cmd := m.(App).Update(key("r")); cmd != nil {
		t.Error("r while loading should be ignored")
	}
}

func TestErrorMessageShown(t *testing.T) {
	a := New(staticFetch(nil, nil))
	a = update(t, a, tea.WindowSizeMsg{Width: 120, Height: 20})
	a = update(t, a, errorMsg{errors.New("daemon unreachable")})
	if !strings.Contains(a.statusMsg, "daemon unreachable") {
		t.Errorf("status: %q", a.statusMsg)
	}
}

func TestRenderContent(t *testing.T) {
	text := "alpha one\nbeta two\nalpha three\n"
	if got := renderContent(text, "", 0); got != "alpha one\nbeta two\nalpha three" {
		t.Errorf("unfiltered: %q", got)
	}

	got := renderContent(text, "alpha", 0)
	if strings.Contains(got, "beta") {
		t.Errorf("filter kept non-matching line: %q", got)
	}
	if strings.Count(got, "\n") != 1 {
		t.Errorf("expected two lines, got %q", got)
	}

	if got := renderContent("abcdefghij\n", "", 6); got != "abc..." {
		t.Errorf("truncate: %q", got)
	}
	if renderContent("", "x", 10) != "" {
		t.Error("empty text should render empty")
	}
}
