package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velo/internal/engine"
	"velo/internal/interact"
	vmodel "velo/internal/model"
)

func TestLayoutHitTesting(t *testing.T) {
	app := vmodel.NewApp()
	l := buildLayout(80, 24, 12, app, &interact.State{})

	tests := []struct {
		name     string
		col, row int
		kind     interact.TargetKind
		action   interact.Action
	}{
		{"panel header", 0, 0, interact.TargetChrome, interact.ActionNone},
		{"document", 2, 1, interact.TargetDoc, interact.ActionNone},
		{"new document", 2, 2, interact.TargetButton, interact.ActionNewDocument},
		{"delete document", 2, 3, interact.TargetButton, interact.ActionDeleteDocument},
		{"new node", 2, 5, interact.TargetButton, interact.ActionNewNode},
		{"empty panel", 11, 20, interact.TargetChrome, interact.ActionNone},
		{"tab", 13, 0, interact.TargetTab, interact.ActionNone},
		{"delete tab", 19, 0, interact.TargetButton, interact.ActionDeleteTab},
		{"add tab", 22, 0, interact.TargetButton, interact.ActionAddTab},
		{"canvas", 40, 10, interact.TargetNone, interact.ActionNone},
		{"status line", 40, 22, interact.TargetChrome, interact.ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.At(l.center(tt.col, tt.row))
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.action, got.Action)
		})
	}

	doc := l.At(l.center(2, 1))
	assert.Equal(t, app.Current, doc.ID)
	assert.Equal(t, "Untitled 1", doc.Label)
}

func TestLayoutModal(t *testing.T) {
	st := &interact.State{Modal: &interact.Modal{Action: interact.ActionDeleteTab, Prompt: "Delete tab?"}}
	l := buildLayout(80, 24, 12, vmodel.NewApp(), st)
	require.NotNil(t, l.modal)

	assert.Equal(t, interact.TargetChrome, l.At(l.center(13, 0)).Kind)
	assert.Equal(t, interact.TargetChrome, l.At(l.center(40, 10)).Kind)
	assert.Equal(t, interact.ActionModalConfirm, l.At(l.center(37, 12)).Action)
	assert.Equal(t, interact.ActionModalCancel, l.At(l.center(52, 12)).Action)
}

func TestRenameShowsBuffer(t *testing.T) {
	app := vmodel.NewApp()
	tab := app.ActiveTab()
	st := &interact.State{Rename: &interact.Rename{Kind: interact.RenameTab, ID: tab.ID, Buffer: []rune("Plan")}}
	l := buildLayout(80, 24, 12, app, st)
	assert.Equal(t, " Plan_ ", segmentText(l, 13, 0))
	assert.Equal(t, "Tab 1", l.At(l.center(13, 0)).Label)
}

func segmentText(l *layout, col, row int) string {
	for _, s := range l.segments {
		if s.row == row && col >= s.col && col < s.col+s.width() {
			return s.text
		}
	}
	return ""
}

func TestCellRoundTrip(t *testing.T) {
	l := &layout{cols: 80, rows: 24}
	for _, c := range [][2]int{{0, 0}, {79, 23}, {12, 7}} {
		col, row := l.cellOf(l.center(c[0], c[1]))
		assert.Equal(t, c, [2]int{col, row})
	}
	assert.Equal(t, float64(640), l.window().X)
	assert.Equal(t, float64(384), l.window().Y)
}

func TestKeyEvents(t *testing.T) {
	assert.Equal(t, []interact.Event{interact.CharReceived{Char: 'h'}, interact.CharReceived{Char: 'i'}},
		keyEvents(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")}))
	assert.Equal(t, []interact.Event{interact.CharReceived{Char: ' '}}, keyEvents(tea.KeyMsg{Type: tea.KeySpace}))
	assert.Equal(t, []interact.Event{interact.KeyPressed{Key: interact.KeyEscape}}, keyEvents(tea.KeyMsg{Type: tea.KeyEsc}))
	assert.Nil(t, keyEvents(tea.KeyMsg{Type: tea.KeyF5}))
}

type harness struct {
	t   *testing.T
	m   model
	e   *engine.Engine
	now time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	r := NewRenderer()
	e := engine.New(engine.Options{Renderer: r})
	h := &harness{t: t, m: newModel(context.Background(), e, r, Options{}), e: e, now: time.Unix(1700000000, 0)}
	h.send(tea.WindowSizeMsg{Width: 80, Height: 24})
	h.tick()
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(model)
	return cmd
}

func (h *harness) tick() {
	h.now = h.now.Add(50 * time.Millisecond)
	h.send(tickMsg(h.now))
}

func (h *harness) click(col, row int) {
	h.send(tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	h.send(tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	h.tick()
}

func TestEditNodeThroughTerminal(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 12, h.m.layout.panelCols)

	h.send(tea.KeyMsg{Type: tea.KeyCtrlN})
	h.tick()
	nodes := h.e.App.ActiveTab().Live.Nodes()
	require.Len(t, nodes, 1)
	id := nodes[0].ID

	h.click(45, 11)
	assert.Equal(t, id, h.e.Machine.State.EditNode)

	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	h.tick()
	n, _ := h.e.App.ActiveTab().Live.Node(id)
	assert.Equal(t, "hi", n.Text)

	view := h.m.View()
	assert.Contains(t, view, "hi")
	assert.Contains(t, view, "############")
	assert.Contains(t, view, "editing node")
}

func TestNudgeMovesFocusedNode(t *testing.T) {
	h := newHarness(t)
	h.send(tea.KeyMsg{Type: tea.KeyCtrlN})
	h.tick()
	h.click(45, 11)
	id := h.e.Machine.State.EditNode
	require.NotZero(t, id)
	before, _ := h.e.App.ActiveTab().Live.Node(id)

	h.send(tea.KeyMsg{Type: tea.KeyRight})
	h.send(tea.KeyMsg{Type: tea.KeyShiftUp})
	after, _ := h.e.App.ActiveTab().Live.Node(id)
	assert.Equal(t, before.Rect.Left.Value+8, after.Rect.Left.Value)
	assert.Equal(t, before.Rect.Bottom.Value+64, after.Rect.Bottom.Value)
}

func TestTabBarSwitchesTabs(t *testing.T) {
	h := newHarness(t)
	first := h.e.App.ActiveTab()
	h.send(tea.KeyMsg{Type: tea.KeyCtrlT})
	h.tick()
	assert.NotEqual(t, first.ID, h.e.App.ActiveTab().ID)
	assert.Contains(t, h.m.View(), " Tab 2 ")

	h.click(13, 0)
	h.tick()
	assert.Equal(t, first.ID, h.e.App.ActiveTab().ID)
}

func TestHelpToggle(t *testing.T) {
	h := newHarness(t)
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.True(t, h.m.help.ShowAll)
	assert.Contains(t, h.m.View(), "bring to front")
	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, h.m.help.ShowAll)
}

func TestQuitSaves(t *testing.T) {
	h := newHarness(t)
	h.send(tea.KeyMsg{Type: tea.KeyCtrlN})
	cmd := h.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, h.e.App.ActiveTab().Dirty())
}
