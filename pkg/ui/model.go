// Package ui is the interactive repository picker.
package ui

import (
	"context"
	"log/slog"
	"os/exec"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"thoreinstein.com/gitmoto/pkg/discovery"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

// headerLines is the filter line plus the title line; one more line is the
// status bar.
const (
	headerLines = 2
	footerLines = 1
)

// Launcher opens a repository in the configured git client.
type Launcher interface {
	Command(ctx context.Context, path string) (*exec.Cmd, error)
	Launch(ctx context.Context, path string) error
	Detached() bool
}

type (
	repoMsg           discovery.Repository
	warningMsg        string
	eventsClosedMsg   struct{}
	warningsClosedMsg struct{}
	launchedMsg       struct {
		path string
		err  error
	}
)

// Model is the bubbletea model of the picker. Repositories are keyed by path
// and shown sorted; the selection follows a path, not a row number.
type Model struct {
	ctx      context.Context
	events   <-chan discovery.Repository
	warnings <-chan string
	launcher Launcher
	logger   *slog.Logger

	repos    map[string]discovery.Repository
	sorted   []string
	filtered []string

	filter   string
	selected string
	offset   int

	width, height int

	home     string
	collapse bool

	lastWarning  string
	warningCount int
	scanning     bool
	warningsOpen bool
	lastErr      error
	styles       styles
}

// Option configures a Model.
type Option func(*Model)

// WithHome sets the directory displayed as ~.
func WithHome(home string) Option {
	return func(m *Model) {
		m.home = home
	}
}

// WithCollapsePaths dims the path prefix shared with the previous row.
func WithCollapsePaths(collapse bool) Option {
	return func(m *Model) {
		m.collapse = collapse
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}

// New creates a picker fed by a worker's event and warning channels.
func New(ctx context.Context, events <-chan discovery.Repository, warnings <-chan string, launcher Launcher, opts ...Option) Model {
	m := Model{
		ctx:          ctx,
		events:       events,
		warnings:     warnings,
		launcher:     launcher,
		logger:       slog.Default(),
		repos:        make(map[string]discovery.Repository),
		height:       24,
		width:        80,
		scanning:     true,
		warningsOpen: true,
		styles:       defaultStyles(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Run shows the picker until the user quits or ctx is done.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init starts pulling from both worker channels.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForRepository(m.events), waitForWarning(m.warnings))
}

func waitForRepository(events <-chan discovery.Repository) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return repoMsg(r)
	}
}

func waitForWarning(warnings <-chan string) tea.Cmd {
	return func() tea.Msg {
		w, ok := <-warnings
		if !ok {
			return warningsClosedMsg{}
		}
		return warningMsg(w)
	}
}

// Update handles worker messages, resizes and keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case repoMsg:
		m.addRepository(discovery.Repository(msg))
		return m, waitForRepository(m.events)

	case warningMsg:
		m.lastWarning = string(msg)
		m.warningCount++
		return m, waitForWarning(m.warnings)

	case eventsClosedMsg:
		m.scanning = false
		return m, nil

	case warningsClosedMsg:
		m.warningsOpen = false
		return m, nil

	case launchedMsg:
		if msg.err != nil {
			m.logger.Warn("git client failed", "path", msg.path, "error", msg.err)
			m.lastErr = msg.err
		} else {
			m.lastErr = nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ensureVisible()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.setFilter("")
	case tea.KeyUp:
		m.move(-1)
	case tea.KeyDown:
		m.move(1)
	case tea.KeyPgUp:
		m.move(-m.pageSize())
	case tea.KeyPgDown:
		m.move(m.pageSize())
	case tea.KeyHome:
		m.move(-len(m.filtered))
	case tea.KeyEnd:
		m.move(len(m.filtered))
	case tea.KeyEnter:
		return m, m.open()
	case tea.KeyBackspace:
		if r := []rune(m.filter); len(r) > 0 {
			m.setFilter(string(r[:len(r)-1]))
		}
	case tea.KeySpace:
		m.setFilter(m.filter + " ")
	case tea.KeyRunes:
		if m.filter == "" && string(msg.Runes) == "q" {
			return m, tea.Quit
		}
		m.setFilter(m.filter + string(msg.Runes))
	}
	return m, nil
}

// addRepository records r, replacing an earlier entry with the same path.
func (m *Model) addRepository(r discovery.Repository) {
	if _, seen := m.repos[r.Path]; !seen {
		i, _ := slices.BinarySearch(m.sorted, r.Path)
		m.sorted = slices.Insert(m.sorted, i, r.Path)
	}
	m.repos[r.Path] = r
	m.refilter()
}

func (m *Model) setFilter(filter string) {
	m.filter = filter
	m.refilter()
}

func (m *Model) refilter() {
	filtered := make([]string, 0, len(m.sorted))
	for _, path := range m.sorted {
		r := m.repos[path]
		hay := make([]string, 0, len(r.Remotes)+1)
		hay = append(hay, DisplayPath(path, m.home))
		for _, remote := range r.Remotes {
			hay = append(hay, remote.URL)
		}
		if matchesFilter(m.filter, hay...) {
			filtered = append(filtered, path)
		}
	}
	m.filtered = filtered
	m.ensureVisible()
}

// cursor is the row of the selected path within the filtered list. A
// selection hidden by the filter falls back to the first row.
func (m Model) cursor() int {
	if i := slices.Index(m.filtered, m.selected); i >= 0 {
		return i
	}
	return 0
}

// Selected returns the highlighted path, or "" when nothing matches.
func (m Model) Selected() string {
	if len(m.filtered) == 0 {
		return ""
	}
	return m.filtered[m.cursor()]
}

func (m *Model) move(delta int) {
	if len(m.filtered) == 0 {
		return
	}
	i := max(0, min(len(m.filtered)-1, m.cursor()+delta))
	m.selected = m.filtered[i]
	m.ensureVisible()
}

func (m Model) pageSize() int {
	return max(1, m.height-headerLines-footerLines)
}

func (m *Model) ensureVisible() {
	page := m.pageSize()
	c := m.cursor()
	if c < m.offset {
		m.offset = c
	}
	if c >= m.offset+page {
		m.offset = c - page + 1
	}
	m.offset = max(0, min(m.offset, len(m.filtered)-page))
}

func (m Model) open() tea.Cmd {
	path := m.Selected()
	if path == "" || m.launcher == nil {
		return nil
	}
	if kind := m.repos[path].Backend; kind != "" && kind != discovery.KindLocal {
		err := gmerrors.Newf("%s repositories cannot be opened locally", kind)
		return func() tea.Msg { return launchedMsg{path: path, err: err} }
	}

	if m.launcher.Detached() {
		return func() tea.Msg {
			return launchedMsg{path: path, err: m.launcher.Launch(m.ctx, path)}
		}
	}

	cmd, err := m.launcher.Command(m.ctx, path)
	if err != nil {
		return func() tea.Msg { return launchedMsg{path: path, err: err} }
	}
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return launchedMsg{path: path, err: err}
	})
}
