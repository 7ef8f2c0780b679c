package interact

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velo/internal/geom"
	"velo/internal/model"
)

// chromeFunc adapts a function to Chrome.
type chromeFunc func(geom.Point) Target

func (f chromeFunc) At(p geom.Point) Target { return f(p) }

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type rig struct {
	m   *Machine
	tab *model.Tab
	ids int
	now time.Time
}

// newRig builds a 1000x800 window with no side panel and one 100x100 node
// at the canvas origin.
func newRig(t *testing.T) *rig {
	t.Helper()
	m := New(Config{SidePanel: geom.Pct(0), Marker: geom.Point{X: 10, Y: 10}}, nil)
	m.SetWindow(1000, 800)
	tab := model.NewTab("T")
	tab.Live.PutNode(model.NewNode(1, 0, 0, 100, 100))
	return &rig{m: m, tab: tab, ids: 10, now: t0}
}

func (r *rig) send(ev Event) []Effect {
	return r.m.Handle(ev, r.now, r.tab, func() int { r.ids++; return r.ids })
}

func (r *rig) moveTo(x, y float64) []Effect { return r.send(PointerMoved{Pos: geom.Point{X: x, Y: y}}) }
func (r *rig) press() []Effect           { return r.send(PointerButton{Button: ButtonLeft, Pressed: true}) }
func (r *rig) release() []Effect         { return r.send(PointerButton{Button: ButtonLeft}) }

func (r *rig) node(t *testing.T, id int) model.Node {
	t.Helper()
	n, ok := r.tab.Live.Node(id)
	require.True(t, ok)
	return n
}

func hasEffect[T Effect](effects []Effect) bool {
	for _, e := range effects {
		if _, ok := e.(T); ok {
			return true
		}
	}
	return false
}

func TestHoverCursor(t *testing.T) {
	r := newRig(t)
	fx := r.moveTo(50, 50)
	assert.Equal(t, Hovered, r.m.State.Phase())
	assert.Contains(t, fx, Effect(CursorChanged{Cursor: CursorMove}))

	r.moveTo(2, 98)
	assert.Equal(t, CursorNwseResize, r.m.State.Cursor)
	r.moveTo(98, 98)
	assert.Equal(t, CursorNeswResize, r.m.State.Cursor)
	r.moveTo(2, 2)
	assert.Equal(t, CursorNeswResize, r.m.State.Cursor)
	r.moveTo(98, 2)
	assert.Equal(t, CursorNwseResize, r.m.State.Cursor)

	r.moveTo(500, 500)
	assert.Equal(t, Idle, r.m.State.Phase())
	assert.Equal(t, CursorDefault, r.m.State.Cursor)
}

func TestClickEntersEditingAndDragNeedsDelay(t *testing.T) {
	r := newRig(t)
	r.moveTo(50, 30)
	r.press()
	assert.Equal(t, PendingDrag, r.m.State.Phase())
	assert.Equal(t, 1, r.m.State.EditNode)

	r.now = t0.Add(100 * time.Millisecond)
	r.moveTo(60, 40)
	assert.Equal(t, geom.Abs(0), r.node(t, 1).Rect.Left, "no drag before the delay")

	r.now = t0.Add(200 * time.Millisecond)
	fx := r.moveTo(300, 200)
	assert.Equal(t, Dragging, r.m.State.Phase())
	n := r.node(t, 1)
	assert.Equal(t, geom.Abs(250), n.Rect.Left)
	assert.Equal(t, geom.Abs(150), n.Rect.Bottom)
	assert.Contains(t, fx, Effect(NodeChanged{Node: 1}))

	fx = r.release()
	assert.Contains(t, fx, Effect(SaveRequested{}))
	assert.Equal(t, Editing, r.m.State.Phase())
}

func TestTickPromotesHold(t *testing.T) {
	r := newRig(t)
	r.moveTo(50, 30)
	r.press()
	r.m.Tick(t0.Add(151 * time.Millisecond))
	assert.Equal(t, Dragging, r.m.State.Phase())
}

func TestDragSubtractsSidePanel(t *testing.T) {
	r := newRig(t)
	r.m.cfg.SidePanel = geom.Pct(15)
	r.moveTo(200, 50)
	r.press()
	r.now = t0.Add(time.Second)
	r.moveTo(500, 300)
	n := r.node(t, 1)
	assert.Equal(t, geom.Abs(500-150-50), n.Rect.Left)
	assert.Equal(t, geom.Abs(250), n.Rect.Bottom)
}

func TestReleaseWithoutMotionDoesNotSave(t *testing.T) {
	r := newRig(t)
	r.moveTo(50, 30)
	r.press()
	fx := r.release()
	assert.False(t, hasEffect[SaveRequested](fx))
	assert.Zero(t, r.m.State.HoldNode)
}

func TestResizeFromBottomRight(t *testing.T) {
	r := newRig(t)
	r.moveTo(98, 2)
	r.press()
	require.Equal(t, Resizing, r.m.State.Phase())

	r.now = t0.Add(time.Second)
	r.m.Tick(r.now)
	assert.Equal(t, Resizing, r.m.State.Phase(), "resize blocks drag promotion")

	fx := r.send(PointerMotion{Delta: geom.Point{X: 20, Y: 30}})
	assert.Contains(t, fx, Effect(NodeChanged{Node: 1}))
	n := r.node(t, 1)
	assert.Equal(t, geom.Rect{Left: geom.Abs(0), Bottom: geom.Abs(-30), Width: geom.Abs(120), Height: geom.Abs(130)}, n.Rect)
	assert.Equal(t, geom.Point{X: 120, Y: 130}, n.TextBounds)

	fx = r.release()
	assert.Contains(t, fx, Effect(SaveRequested{}))
	assert.Nil(t, r.m.State.Resize)
}

func TestMotionWithoutResizeIgnored(t *testing.T) {
	r := newRig(t)
	fx := r.send(PointerMotion{Delta: geom.Point{X: 5, Y: 5}})
	assert.Empty(t, fx)
	assert.Zero(t, r.tab.Revision)
}

func TestArrowConnect(t *testing.T) {
	r := newRig(t)
	r.tab.Live.PutNode(model.NewNode(2, 300, 0, 100, 100))

	r.moveTo(100, 50) // right side of node 1
	r.press()
	r.release()
	require.Equal(t, ConnectingArrow, r.m.State.Phase())

	r.m.State.ArrowStyle = model.StyleDoubleArrow
	r.moveTo(300, 50) // left side of node 2
	fx := r.press()
	require.Len(t, r.tab.Live.Arrows(), 1)
	a := r.tab.Live.Arrows()[0]
	assert.Equal(t, model.End{Node: 1, Anchor: geom.Right}, a.From)
	assert.Equal(t, model.End{Node: 2, Anchor: geom.Left}, a.To)
	assert.Equal(t, model.StyleDoubleArrow, a.Style)
	assert.Equal(t, 11, a.ID)
	assert.True(t, hasEffect[ArrowAdded](fx))
	assert.Nil(t, r.m.State.ArrowFrom)
}

func TestArrowConnectSameAnchorCancels(t *testing.T) {
	r := newRig(t)
	r.moveTo(50, 100)
	r.press()
	r.press()
	assert.Nil(t, r.m.State.ArrowFrom)
	assert.Empty(t, r.tab.Live.Arrows())
}

func TestTextEditing(t *testing.T) {
	r := newRig(t)
	r.tab.Live.PutNode(model.NewNode(2, 300, 0, 100, 100))
	r.moveTo(50, 30)
	r.press()
	r.release()

	for _, c := range "hi!" {
		r.send(CharReceived{Char: c})
	}
	r.send(KeyPressed{Key: KeyBackspace})
	assert.Equal(t, "hi", r.node(t, 1).Text)
	assert.Equal(t, "", r.node(t, 2).Text)

	fx := r.moveTo(350, 50)
	assert.Equal(t, CursorText, r.m.State.Cursor)
	assert.NotEmpty(t, fx)

	// The node being edited keeps the move hint.
	r.moveTo(50, 50)
	assert.Equal(t, CursorMove, r.m.State.Cursor)
	r.moveTo(350, 50)
	assert.Equal(t, CursorText, r.m.State.Cursor)

	// Clicking another node ends the edit and asks for a save.
	fx = r.press()
	assert.Contains(t, fx, Effect(SaveRequested{}))
	assert.Equal(t, 2, r.m.State.EditNode)
	r.release()

	r.send(CharReceived{Char: 'x'})
	assert.Equal(t, "hi", r.node(t, 1).Text)
	assert.Equal(t, "x", r.node(t, 2).Text)
}

func TestCharsIgnoredWithoutEdit(t *testing.T) {
	r := newRig(t)
	fx := r.send(CharReceived{Char: 'a'})
	assert.Empty(t, fx)
	assert.Equal(t, "", r.node(t, 1).Text)
}

func TestClickOnCanvasClearsState(t *testing.T) {
	r := newRig(t)
	r.moveTo(50, 30)
	r.press()
	r.release()
	r.moveTo(600, 600)
	r.press()
	assert.Equal(t, Idle, r.m.State.Phase())
	assert.Zero(t, r.m.State.EditNode)
}

func tabChrome(id uuid.UUID) Chrome {
	return chromeFunc(func(p geom.Point) Target {
		if p.Y > 780 && p.X > 900 {
			return Target{Kind: TargetTab, ID: id, Label: "Tab 1"}
		}
		return Target{}
	})
}

func doubleClick(r *rig, gap time.Duration) {
	r.moveTo(950, 790)
	r.press()
	r.release()
	r.now = r.now.Add(gap)
	r.press()
	r.release()
}

func TestDoubleClickRenamesTab(t *testing.T) {
	r := newRig(t)
	r.m.SetChrome(tabChrome(r.tab.ID))
	doubleClick(r, 400*time.Millisecond)
	require.NotNil(t, r.m.State.Rename)
	assert.Equal(t, r.tab.ID, r.m.State.Rename.ID)
	assert.Equal(t, "Tab 1", string(r.m.State.Rename.Buffer))

	for range 3 {
		r.send(KeyPressed{Key: KeyBackspace})
	}
	for _, c := range "Plan" {
		r.send(CharReceived{Char: c})
	}
	fx := r.send(KeyPressed{Key: KeyEnter})
	assert.Contains(t, fx, Effect(Renamed{Kind: RenameTab, ID: r.tab.ID, Name: "TaPlan"}))
	assert.Contains(t, fx, Effect(SaveRequested{}))
	assert.Nil(t, r.m.State.Rename)
}

func TestSlowDoubleClickDoesNotRename(t *testing.T) {
	r := newRig(t)
	r.m.SetChrome(tabChrome(r.tab.ID))
	doubleClick(r, 600*time.Millisecond)
	assert.Nil(t, r.m.State.Rename)
}

func TestSingleClickSelectsTab(t *testing.T) {
	r := newRig(t)
	r.m.SetChrome(tabChrome(r.tab.ID))
	r.moveTo(950, 790)
	fx := r.press()
	assert.Contains(t, fx, Effect(Invoked{Action: ActionSelectTab, ID: r.tab.ID}))
}

func TestRenameEscapeCancels(t *testing.T) {
	r := newRig(t)
	r.m.SetChrome(tabChrome(r.tab.ID))
	doubleClick(r, 100*time.Millisecond)
	r.send(CharReceived{Char: 'z'})
	fx := r.send(KeyPressed{Key: KeyEscape})
	assert.Empty(t, fx)
	assert.Nil(t, r.m.State.Rename)
}

func TestModalBlocksInput(t *testing.T) {
	r := newRig(t)
	doc := uuid.New()
	r.m.OpenModal(Modal{Action: ActionDeleteDocument, ID: doc, Prompt: "Delete?"})

	r.moveTo(50, 30)
	fx := r.press()
	assert.Empty(t, fx)
	assert.Zero(t, r.m.State.EditNode)

	fx = r.send(KeyPressed{Key: KeyEnter})
	assert.Contains(t, fx, Effect(Invoked{Action: ActionDeleteDocument, ID: doc, Confirmed: true}))
	assert.Nil(t, r.m.State.Modal)
}

func TestModalCancel(t *testing.T) {
	r := newRig(t)
	r.m.SetChrome(chromeFunc(func(p geom.Point) Target {
		if p.X < 10 && p.Y > 700 {
			return Target{Kind: TargetButton, Action: ActionModalCancel}
		}
		return Target{}
	}))
	r.m.OpenModal(Modal{Action: ActionDeleteTab, ID: r.tab.ID})
	r.moveTo(5, 750)
	fx := r.press()
	assert.Equal(t, []Effect{ModalChanged{}}, fx)
	assert.Nil(t, r.m.State.Modal)
}

func TestDeleteKeyInvokesDelete(t *testing.T) {
	r := newRig(t)
	r.moveTo(50, 30)
	r.press()
	r.release()
	fx := r.send(KeyPressed{Key: KeyDelete})
	assert.Equal(t, []Effect{Invoked{Action: ActionDeleteNode, Node: 1}}, fx)
}

func TestWindowResizeRequestsSave(t *testing.T) {
	r := newRig(t)
	fx := r.send(WindowResized{Width: 640, Height: 480})
	assert.Equal(t, []Effect{SaveRequested{}}, fx)
	assert.Equal(t, geom.Point{X: 640, Y: 480}, r.m.Window())
}

func TestResetKeepsPreferences(t *testing.T) {
	var s State
	s.ArrowStyle = model.StyleParallelArrow
	s.EditNode = 4
	s.Resize = &ResizeTarget{Node: 4}
	s.Reset()
	assert.Equal(t, model.StyleParallelArrow, s.ArrowStyle)
	assert.Zero(t, s.EditNode)
	assert.Nil(t, s.Resize)
}

func TestTopNodeWins(t *testing.T) {
	r := newRig(t)
	over := model.NewNode(2, 20, 20, 60, 60)
	over.Z = 1
	r.tab.Live.PutNode(over)
	got := r.m.Hit(geom.Point{X: 40, Y: 40}, r.tab)
	assert.Equal(t, Target{Kind: TargetNode, Node: 2}, got)
}
