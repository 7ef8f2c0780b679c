// Package tui is the terminal front-end: a bubbletea program that turns
// mouse and keyboard input into engine events, ticks the engine once per
// frame and draws the canvas with its chrome.
package tui

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"velo/internal/engine"
	"velo/internal/export"
	"velo/internal/geom"
	"velo/internal/interact"
)

const (
	defaultInterval = 33 * time.Millisecond
	statusTTL       = 5 * time.Second
)

type Options struct {
	// Interval is the time between engine ticks.
	Interval time.Duration
	Logger   *log.Logger
}

type tickMsg time.Time

type model struct {
	ctx      context.Context
	engine   *engine.Engine
	renderer *Renderer
	logger   *log.Logger
	interval time.Duration

	keys   keyMap
	help   help.Model
	layout *layout

	width, height int
	now           time.Time

	mouseSeen    bool
	lastX, lastY int
	buttonDown   bool
}

func newModel(ctx context.Context, e *engine.Engine, r *Renderer, opts Options) model {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return model{
		ctx:      ctx,
		engine:   e,
		renderer: r,
		logger:   opts.Logger,
		interval: opts.Interval,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
}

// Run shows the editor until the user quits or ctx is cancelled. e must
// have been built with r as its renderer.
func Run(ctx context.Context, e *engine.Engine, r *Renderer, opts Options) error {
	p := tea.NewProgram(
		newModel(ctx, e, r, opts),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return m.tick()
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.now = time.Time(msg)
		m.engine.Tick(m.ctx, m.now)
		m.relayout()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.relayout()
		w := m.layout.window()
		m.engine.Push(interact.WindowResized{Width: w.X, Height: w.Y})

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// relayout rebuilds the chrome for the current state and hands it to the
// interaction machine for hit-testing.
func (m *model) relayout() {
	mc := m.engine.Machine
	panel := int(math.Round(mc.PanelWidth() / export.CellWidth))
	m.layout = buildLayout(m.width, m.height, panel, m.engine.App, &mc.State)
	mc.SetChrome(m.layout)
}

func (m *model) handleMouse(msg tea.MouseMsg) {
	if m.layout == nil {
		return
	}
	if !m.mouseSeen || msg.X != m.lastX || msg.Y != m.lastY {
		m.engine.Push(interact.PointerMoved{Pos: m.layout.center(msg.X, msg.Y)})
		if m.mouseSeen && m.buttonDown {
			m.engine.Push(interact.PointerMotion{Delta: geom.Point{
				X: float64((msg.X - m.lastX) * export.CellWidth),
				Y: float64((msg.Y - m.lastY) * export.CellHeight),
			}})
		}
		m.mouseSeen, m.lastX, m.lastY = true, msg.X, msg.Y
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.buttonDown = true
			m.engine.Push(interact.PointerButton{Button: interact.ButtonLeft, Pressed: true})
		}
	case tea.MouseActionRelease:
		if m.buttonDown {
			m.buttonDown = false
			m.engine.Push(interact.PointerButton{Button: interact.ButtonLeft})
		}
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, m.quit()
	}
	if m.help.ShowAll {
		if key.Matches(msg, m.keys.Help) || msg.Type == tea.KeyEsc {
			m.help.ShowAll = false
		}
		return m, nil
	}

	e := m.engine
	st := &e.Machine.State
	switch {
	case key.Matches(msg, m.keys.NewNode):
		e.Do(m.ctx, interact.ActionNewNode)
	case key.Matches(msg, m.keys.DeleteNode):
		e.Do(m.ctx, interact.ActionDeleteNode)
	case key.Matches(msg, m.keys.Undo):
		e.Do(m.ctx, interact.ActionUndo)
	case key.Matches(msg, m.keys.Redo):
		e.Do(m.ctx, interact.ActionRedo)
	case key.Matches(msg, m.keys.Save):
		e.Do(m.ctx, interact.ActionSave)
	case key.Matches(msg, m.keys.ArrowStyle):
		e.Do(m.ctx, interact.ActionCycleArrowStyle)
	case key.Matches(msg, m.keys.TextPos):
		e.Do(m.ctx, interact.ActionCycleTextPos)
	case key.Matches(msg, m.keys.Front):
		e.Do(m.ctx, interact.ActionBringToFront)
	case key.Matches(msg, m.keys.NewTab):
		e.Do(m.ctx, interact.ActionAddTab)
	case key.Matches(msg, m.keys.NewDoc):
		e.Do(m.ctx, interact.ActionNewDocument)
	case key.Matches(msg, m.keys.Paste):
		m.paste()
	case key.Matches(msg, m.keys.Nudge, m.keys.NudgeFast):
		m.nudge(msg.String())
	case st.Modal != nil || st.Rename != nil || st.EditNode != 0:
		e.Push(keyEvents(msg)...)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = true
	default:
		e.Push(keyEvents(msg)...)
	}
	return m, nil
}

func (m *model) paste() {
	if m.engine.Machine.State.EditNode == 0 {
		m.engine.Do(m.ctx, interact.ActionPasteImage)
		return
	}
	if err := m.engine.PasteText(); err != nil {
		m.logger.Error("paste text", "err", err)
	}
}

// quit flushes the active tab before leaving.
func (m model) quit() tea.Cmd {
	m.engine.Save()
	m.engine.Tick(m.ctx, time.Now())
	return tea.Quit
}

// keyEvents normalizes a key press for the interaction machine.
func keyEvents(msg tea.KeyMsg) []interact.Event {
	switch msg.Type {
	case tea.KeyRunes:
		evs := make([]interact.Event, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			evs = append(evs, interact.CharReceived{Char: r})
		}
		return evs
	case tea.KeySpace:
		return []interact.Event{interact.CharReceived{Char: ' '}}
	case tea.KeyEnter:
		return []interact.Event{interact.KeyPressed{Key: interact.KeyEnter}}
	case tea.KeyEsc:
		return []interact.Event{interact.KeyPressed{Key: interact.KeyEscape}}
	case tea.KeyBackspace:
		return []interact.Event{interact.KeyPressed{Key: interact.KeyBackspace}}
	case tea.KeyDelete:
		return []interact.Event{interact.KeyPressed{Key: interact.KeyDelete}}
	}
	return nil
}
