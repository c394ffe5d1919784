package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"thoreinstein.com/gitmoto/pkg/git"
)

type styles struct {
	prompt   lipgloss.Style
	title    lipgloss.Style
	dim      lipgloss.Style
	selected lipgloss.Style
	remotes  lipgloss.Style
	warning  lipgloss.Style
	err      lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		prompt:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		title:    lipgloss.NewStyle().Bold(true),
		dim:      lipgloss.NewStyle().Faint(true),
		selected: lipgloss.NewStyle().Reverse(true),
		remotes:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		err:      lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// Title is the header line, e.g. "filtered 3/10 repos".
func (m Model) Title() string {
	title := fmt.Sprintf("filtered %d/%d repos", len(m.filtered), len(m.sorted))
	if m.scanning {
		title += " (scanning)"
	}
	return title
}

// View renders the filter prompt, the title, the visible rows and the status line.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.prompt.Render("> "))
	b.WriteString(m.filter)
	b.WriteByte('\n')
	b.WriteString(m.styles.title.Render(m.Title()))
	b.WriteByte('\n')

	page := m.pageSize()
	end := min(len(m.filtered), m.offset+page)
	cursor := m.cursor()
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i, i == cursor))
		b.WriteByte('\n')
	}
	for i := end - m.offset; i < page; i++ {
		b.WriteByte('\n')
	}

	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) renderRow(i int, selected bool) string {
	path := m.filtered[i]
	display := DisplayPath(path, m.home)

	prefix := 0
	if m.collapse && i > 0 {
		prefix = CommonDirPrefixLen(DisplayPath(m.filtered[i-1], m.home), display)
	}

	remotes := ""
	if rs := m.repos[path].Remotes; len(rs) > 0 {
		remotes = "  " + git.ShortName(rs[0].URL)
		if len(rs) > 1 {
			remotes += fmt.Sprintf(" +%d", len(rs)-1)
		}
	}

	if selected {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(m.styles.selected.Render(display + remotes))
	}
	row := m.styles.dim.Render(display[:prefix]) + display[prefix:] + m.styles.remotes.Render(remotes)
	return lipgloss.NewStyle().MaxWidth(m.width).Render(row)
}

func (m Model) statusLine() string {
	switch {
	case m.lastErr != nil:
		return m.styles.err.Render("git client: " + m.lastErr.Error())
	case m.warningCount > 0:
		msg := fmt.Sprintf("%d warning", m.warningCount)
		if m.warningCount > 1 {
			msg += "s"
		}
		return lipgloss.NewStyle().MaxWidth(m.width).Render(m.styles.warning.Render(msg + ": " + m.lastWarning))
	default:
		return m.styles.dim.Render("enter: open  esc: clear  ctrl+c: quit")
	}
}
