package ui

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/gitmoto/pkg/discovery"
)

type fakeLauncher struct {
	detached bool
	launched []string
	commands []string
	err      error
}

func (f *fakeLauncher) Command(_ context.Context, path string) (*exec.Cmd, error) {
	f.commands = append(f.commands, path)
	if f.err != nil {
		return nil, f.err
	}
	return exec.Command("true"), nil
}

func (f *fakeLauncher) Launch(_ context.Context, path string) error {
	f.launched = append(f.launched, path)
	return f.err
}

func (f *fakeLauncher) Detached() bool { return f.detached }

func newTestModel(l Launcher, opts ...Option) Model {
	opts = append([]Option{WithHome("/home/me")}, opts...)
	return New(context.Background(), nil, nil, l, opts...)
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func repo(path string, urls ...string) repoMsg {
	r := discovery.Repository{Path: path, Backend: discovery.KindLocal}
	for _, u := range urls {
		r.Remotes = append(r.Remotes, discovery.Remote{Name: "origin", URL: u})
	}
	return repoMsg(r)
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_RepositoriesSortedAndDeduplicated(t *testing.T) {
	m := newTestModel(nil)
	m = send(t, m,
		repo("/home/me/src/b"),
		repo("/home/me/src/a"),
		repo("/home/me/src/b", "git@example.com:me/b.git"),
	)

	assert.Equal(t, []string{"/home/me/src/a", "/home/me/src/b"}, m.filtered)
	assert.Len(t, m.repos["/home/me/src/b"].Remotes, 1)
	assert.Equal(t, "filtered 2/2 repos (scanning)", m.Title())

	m = send(t, m, eventsClosedMsg{})
	assert.Equal(t, "filtered 2/2 repos", m.Title())
}

func TestModel_Filter(t *testing.T) {
	m := newTestModel(nil)
	m = send(t, m,
		repo("/home/me/src/gitmoto", "git@github.com:thoreinstein/gitmoto.git"),
		repo("/home/me/src/other", "https://gitlab.com/me/other.git"),
		repo("/srv/mirror"),
	)

	m = send(t, m, runes("git"), runes("h"))
	assert.Equal(t, "gith", m.filter)
	assert.Equal(t, []string{"/home/me/src/gitmoto"}, m.filtered)

	// ~ is matched against the displayed path.
	m = send(t, m, key(tea.KeyEsc), runes("~/src"), key(tea.KeySpace), runes("LAB"))
	assert.Equal(t, []string{"/home/me/src/other"}, m.filtered)
	assert.Equal(t, "filtered 1/3 repos (scanning)", m.Title())

	m = send(t, m, key(tea.KeyBackspace), key(tea.KeyBackspace), key(tea.KeyBackspace))
	assert.Equal(t, "~/src ", m.filter)
	assert.Len(t, m.filtered, 2)

	m = send(t, m, key(tea.KeyEsc))
	assert.Empty(t, m.filter)
	assert.Len(t, m.filtered, 3)
}

func TestModel_Navigation(t *testing.T) {
	m := newTestModel(nil)
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 6}) // three rows visible
	for _, p := range []string{"/r/a", "/r/b", "/r/c", "/r/d", "/r/e", "/r/f", "/r/g"} {
		m = send(t, m, repo(p))
	}

	assert.Equal(t, "/r/a", m.Selected())

	m = send(t, m, key(tea.KeyUp))
	assert.Equal(t, "/r/a", m.Selected(), "up at the top stays put")

	m = send(t, m, key(tea.KeyDown), key(tea.KeyDown))
	assert.Equal(t, "/r/c", m.Selected())
	assert.Equal(t, 0, m.offset)

	m = send(t, m, key(tea.KeyDown))
	assert.Equal(t, "/r/d", m.Selected())
	assert.Equal(t, 1, m.offset, "view scrolls to keep the selection visible")

	m = send(t, m, key(tea.KeyPgDown))
	assert.Equal(t, "/r/g", m.Selected())
	assert.Equal(t, 4, m.offset)

	m = send(t, m, key(tea.KeyPgDown))
	assert.Equal(t, "/r/g", m.Selected(), "page down clamps at the bottom")

	m = send(t, m, key(tea.KeyPgUp))
	assert.Equal(t, "/r/d", m.Selected())

	m = send(t, m, key(tea.KeyHome))
	assert.Equal(t, "/r/a", m.Selected())
	assert.Equal(t, 0, m.offset)
}

func TestModel_SelectionFollowsPath(t *testing.T) {
	m := newTestModel(nil)
	m = send(t, m, repo("/r/b"), repo("/r/c"), key(tea.KeyDown))
	require.Equal(t, "/r/c", m.Selected())

	// A repository sorted above the selection does not move it.
	m = send(t, m, repo("/r/a"))
	assert.Equal(t, "/r/c", m.Selected())
	assert.Equal(t, 2, m.cursor())

	// Hidden by the filter: the first match is highlighted instead.
	m = send(t, m, runes("b"))
	assert.Equal(t, "/r/b", m.Selected())

	// Clearing the filter restores the selected path.
	m = send(t, m, key(tea.KeyEsc))
	assert.Equal(t, "/r/c", m.Selected())
}

func TestModel_EmptyList(t *testing.T) {
	m := newTestModel(&fakeLauncher{})
	m = send(t, m, key(tea.KeyDown), key(tea.KeyPgDown))

	assert.Empty(t, m.Selected())
	_, cmd := m.Update(key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "filtered 0/0 repos")
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(nil)

	_, cmd := m.Update(key(tea.KeyCtrlC))
	assert.True(t, isQuit(cmd), "ctrl+c quits")

	_, cmd = m.Update(runes("q"))
	assert.True(t, isQuit(cmd), "q quits with an empty filter")

	m = send(t, m, runes("x"))
	next, cmd := m.Update(runes("q"))
	assert.False(t, isQuit(cmd), "q is filter text once typing has started")
	assert.Equal(t, "xq", next.(Model).filter)
}

func TestModel_OpenAttached(t *testing.T) {
	l := &fakeLauncher{}
	m := newTestModel(l)
	m = send(t, m, repo("/r/a"), repo("/r/b"), key(tea.KeyDown))

	_, cmd := m.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"/r/b"}, l.commands)
	assert.Empty(t, l.launched)
}

func TestModel_OpenDetached(t *testing.T) {
	l := &fakeLauncher{detached: true}
	m := newTestModel(l)
	m = send(t, m, repo("/r/a"))

	_, cmd := m.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, launchedMsg{path: "/r/a"}, msg)
	assert.Equal(t, []string{"/r/a"}, l.launched)
}

func TestModel_LaunchFailureShownInStatus(t *testing.T) {
	l := &fakeLauncher{err: errors.New("exec: \"lazygit\": executable file not found")}
	m := newTestModel(l)
	m = send(t, m, repo("/r/a"))

	_, cmd := m.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	m = send(t, m, cmd())

	assert.Contains(t, m.View(), "executable file not found")
}

func TestModel_Warnings(t *testing.T) {
	m := newTestModel(nil)
	m = send(t, m, warningMsg("failed to list /src/locked: permission denied"))
	assert.Contains(t, m.View(), "1 warning: failed to list /src/locked")

	m = send(t, m, warningMsg("ssh session to nas failed"))
	view := m.View()
	assert.Contains(t, view, "2 warnings: ssh session to nas failed")
	assert.NotContains(t, view, "/src/locked")
}

func TestModel_ViewDisplaysHomeAsTilde(t *testing.T) {
	m := newTestModel(nil, WithCollapsePaths(true))
	m = send(t, m,
		repo("/home/me/src/a", "git@github.com:me/a.git", "https://example.com/me/a.git"),
		repo("/home/me/src/b"),
	)

	view := m.View()
	assert.Contains(t, view, "~/src/a  github.com/me/a +1")
	assert.Contains(t, view, "~/src/b")
	assert.NotContains(t, view, "/home/me")
}

func TestModel_ReadsWorkerChannels(t *testing.T) {
	events := make(chan discovery.Repository, 1)
	warnings := make(chan string, 1)
	m := New(context.Background(), events, warnings, nil)

	events <- discovery.Repository{Path: "/r/a"}
	next, cmd := m.Update(waitForRepository(events)())
	m = next.(Model)
	require.NotNil(t, cmd, "another read is scheduled")
	assert.Equal(t, []string{"/r/a"}, m.filtered)

	close(events)
	assert.Equal(t, eventsClosedMsg{}, cmd())

	warnings <- "boom"
	assert.Equal(t, warningMsg("boom"), waitForWarning(warnings)())
	close(warnings)
	assert.Equal(t, warningsClosedMsg{}, waitForWarning(warnings)())
}

func TestModel_RowsTruncatedToWidth(t *testing.T) {
	m := newTestModel(nil)
	m = send(t, m, tea.WindowSizeMsg{Width: 10, Height: 5}, repo("/a/very/long/repository/path"))

	for _, line := range strings.Split(m.View(), "\n")[2:3] {
		assert.LessOrEqual(t, lipgloss.Width(line), 10)
	}
}

func TestModel_RemoteRepositoryNotOpened(t *testing.T) {
	l := &fakeLauncher{}
	m := newTestModel(l)
	m = send(t, m, repoMsg(discovery.Repository{Path: "octocat/hello", Backend: discovery.KindGitHub}))

	_, cmd := m.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	m = send(t, m, cmd())

	assert.Empty(t, l.commands)
	assert.Contains(t, m.View(), "github repositories cannot be opened locally")
}
