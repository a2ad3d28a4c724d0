package model

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight = 3
	footerHeight = 2
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	matchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)

	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// View renders the TUI.
func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "loading..."
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render(" tailcat "), a.renderTabs())

	var body string
	switch {
	case a.loading && len(a.buffers) == 0:
		body = dimStyle.Render("collecting...")
	case a.activeBuffer() == nil || a.activeBuffer().Text == "":
		body = dimStyle.Render("no log output")
	default:
		body = a.viewport.View()
	}
	pane := paneStyle.Width(a.width - 2).Height(a.height - headerHeight - footerHeight).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, header, pane, a.renderStatusBar())
}

func (a App) renderTabs() string {
	tabs := make([]string, 0, len(a.buffers))
	for i, b := range a.buffers {
		name := b.Name
		if name == "" {
			name = "default"
		}
		label := fmt.Sprintf("%s (%d)", name, b.Lines)
		if i == a.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

func (a App) renderStatusBar() string {
	if a.mode == ModeSearch {
		return a.search.View() + "  " + helpStyle.Render("enter:apply esc:cancel")
	}

	left := a.statusMsg
	if left == "" && !a.fetchedAt.IsZero() {
		left = "collected " + a.fetchedAt.Format("15:04:05")
		if a.query != "" {
			left += dimStyle.Render(fmt.Sprintf("  filter %q", a.query))
		}
	}
	if strings.HasPrefix(left, "error:") {
		left = errStyle.Render(left)
	}
	right := "j/k:scroll tab:buffer /:filter esc:clear r:recollect q:quit"

	gap := a.width - lipgloss.Width(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + helpStyle.Render(right)
}

// renderContent keeps only lines containing query (all lines when empty),
// highlights the match and truncates to width.
func renderContent(text, query string, width int) string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return ""
	}

	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if query != "" && !strings.Contains(line, query) {
			continue
		}
		line = truncate(line, width)
		if query != "" {
			line = strings.ReplaceAll(line, query, matchStyle.Render(query))
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
