package interact

import (
	"strings"
	"time"
	"unicode"

	"velo/internal/geom"
	"velo/internal/model"
)

// Config sets the layout values the machine needs for hit-testing.
type Config struct {
	// SidePanel is the width of the panel left of the canvas, resolved
	// against the window width.
	SidePanel geom.Val
	// Marker is the half-size of the resize and connect hit zones.
	Marker geom.Point
}

func DefaultConfig() Config {
	return Config{SidePanel: geom.Pct(15), Marker: geom.Point{X: 10, Y: 10}}
}

// Machine owns the transient interaction state.
type Machine struct {
	State State

	cfg     Config
	chrome  Chrome
	window  geom.Point
	pointer geom.Point
	effects []Effect
}

func New(cfg Config, chrome Chrome) *Machine {
	if chrome == nil {
		chrome = NoChrome{}
	}
	return &Machine{cfg: cfg, chrome: chrome}
}

func (m *Machine) SetChrome(c Chrome) { m.chrome = c }

func (m *Machine) SetWindow(w, h float64) { m.window = geom.Point{X: w, Y: h} }

func (m *Machine) Window() geom.Point { return m.window }

// Pointer is the last known pointer position in window units.
func (m *Machine) Pointer() geom.Point { return m.pointer }

// PanelWidth is the side panel width in units for the current window.
func (m *Machine) PanelWidth() float64 {
	return geom.ToAbsolute(m.cfg.SidePanel, m.window.X).Value
}

// CanvasSize is the extent percentages on the canvas resolve against.
func (m *Machine) CanvasSize() geom.Point {
	return geom.Point{X: max(m.window.X-m.PanelWidth(), 0), Y: m.window.Y}
}

// ToCanvas converts a window position to canvas coordinates.
func (m *Machine) ToCanvas(p geom.Point) geom.Point {
	return geom.Point{X: p.X - m.PanelWidth(), Y: p.Y}
}

// OpenModal shows a confirmation dialog. All other input is ignored until
// it is confirmed or cancelled.
func (m *Machine) OpenModal(md Modal) {
	m.State.Reset()
	m.State.Modal = &md
}

// Handle feeds one event through the machine. tab is the active tab whose
// live canvas committed gestures mutate; nextID allocates arrow ids.
func (m *Machine) Handle(ev Event, now time.Time, tab *model.Tab, nextID func() int) []Effect {
	switch ev := ev.(type) {
	case PointerMoved:
		m.pointerMoved(ev.Pos, now, tab)
	case PointerMotion:
		m.pointerMotion(ev.Delta, tab)
	case PointerButton:
		m.button(ev, now, tab, nextID)
	case CharReceived:
		m.char(ev.Char, tab)
	case KeyPressed:
		m.key(ev.Key, tab)
	case WindowResized:
		m.SetWindow(ev.Width, ev.Height)
		m.emit(SaveRequested{})
	}
	return m.flush()
}

// Tick promotes a held node to a drag once DragDelay has passed.
func (m *Machine) Tick(now time.Time) {
	s := &m.State
	if s.HoldNode != 0 && !s.Dragging && s.Resize == nil && now.Sub(s.HoldSince) > DragDelay {
		s.Dragging = true
	}
}

func (m *Machine) emit(e Effect) { m.effects = append(m.effects, e) }

func (m *Machine) flush() []Effect {
	out := m.effects
	m.effects = nil
	return out
}

func (m *Machine) setCursor(c Cursor) {
	if m.State.Cursor != c {
		m.State.Cursor = c
		m.emit(CursorChanged{Cursor: c})
	}
}

// Hit resolves a window position: chrome first, then canvas nodes from the
// top of the stack down, markers before bodies.
func (m *Machine) Hit(pos geom.Point, tab *model.Tab) Target {
	if t := m.chrome.At(pos); t.Kind != TargetNone {
		return t
	}
	if tab == nil {
		return Target{}
	}
	p := m.ToCanvas(pos)
	ext := m.CanvasSize()
	nodes := tab.Live.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		b := n.Rect.Resolve(ext.X, ext.Y)
		if !b.Contains(p) {
			continue
		}
		for _, c := range geom.Corners {
			if m.near(p, b.CornerPoint(c)) {
				return Target{Kind: TargetResize, Node: n.ID, Corner: c}
			}
		}
		for _, a := range geom.Anchors {
			if m.near(p, b.AnchorPoint(a)) {
				return Target{Kind: TargetConnect, Node: n.ID, Anchor: a}
			}
		}
		return Target{Kind: TargetNode, Node: n.ID}
	}
	return Target{}
}

func (m *Machine) near(p, q geom.Point) bool {
	d := p.Sub(q)
	return abs(d.X) <= m.cfg.Marker.X && abs(d.Y) <= m.cfg.Marker.Y
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func (m *Machine) pointerMoved(pos geom.Point, now time.Time, tab *model.Tab) {
	m.pointer = pos
	m.Tick(now)
	s := &m.State
	if s.Modal != nil {
		return
	}
	if s.Dragging && s.HoldNode != 0 {
		m.drag(pos, tab)
		return
	}
	if s.Resize != nil {
		return
	}

	t := m.Hit(pos, tab)
	switch t.Kind {
	case TargetResize:
		s.HoverNode = t.Node
		if t.Corner.Falling() {
			m.setCursor(CursorNwseResize)
		} else {
			m.setCursor(CursorNeswResize)
		}
	case TargetNode, TargetConnect:
		s.HoverNode = t.Node
		if s.EditNode != 0 && s.EditNode != t.Node {
			m.setCursor(CursorText)
		} else {
			m.setCursor(CursorMove)
		}
	default:
		s.HoverNode = 0
		m.setCursor(CursorDefault)
	}
}

// drag centres the held node on the pointer.
func (m *Machine) drag(pos geom.Point, tab *model.Tab) {
	s := &m.State
	if tab == nil {
		return
	}
	n, ok := tab.Live.Node(s.HoldNode)
	if !ok {
		s.HoldNode, s.Dragging = 0, false
		return
	}
	ext := m.CanvasSize()
	b := n.Rect.Resolve(ext.X, ext.Y)
	left := geom.Abs(pos.X - m.PanelWidth() - b.W/2)
	bottom := geom.Abs(pos.Y - b.H/2)
	if n.Rect.Left == left && n.Rect.Bottom == bottom {
		return
	}
	n.Rect.Left, n.Rect.Bottom = left, bottom
	tab.Live.PutNode(n)
	tab.Touch()
	s.Moved = true
	m.emit(NodeChanged{Node: n.ID})
}

func (m *Machine) pointerMotion(d geom.Point, tab *model.Tab) {
	s := &m.State
	if s.Resize == nil || s.Modal != nil || tab == nil || d == (geom.Point{}) {
		return
	}
	n, ok := tab.Live.Node(s.Resize.Node)
	if !ok {
		s.Resize = nil
		return
	}
	r := geom.ApplyResize(s.Resize.Corner, d, n.Rect)
	if r == n.Rect {
		return
	}
	n.SetRect(r)
	tab.Live.PutNode(n)
	tab.Touch()
	s.Moved = true
	m.emit(NodeChanged{Node: n.ID})
}

func (m *Machine) button(ev PointerButton, now time.Time, tab *model.Tab, nextID func() int) {
	if ev.Button != ButtonLeft {
		return
	}
	if !ev.Pressed {
		m.release()
		return
	}

	s := &m.State
	if s.Modal != nil {
		switch m.chrome.At(m.pointer).Action {
		case ActionModalConfirm:
			m.confirmModal()
		case ActionModalCancel:
			m.cancelModal()
		}
		return
	}

	t := m.Hit(m.pointer, tab)
	if s.Rename != nil && (t.ID != s.Rename.ID || !isLabel(t.Kind)) {
		m.commitRename()
	}

	switch t.Kind {
	case TargetResize:
		m.focus()
		s.Resize = &ResizeTarget{Node: t.Node, Corner: t.Corner}
		s.HoverNode = t.Node
	case TargetConnect:
		m.connect(t, tab, nextID)
	case TargetNode:
		m.focus()
		s.EditNode = t.Node
		s.HoldNode = t.Node
		s.HoldSince = now
		s.HoverNode = t.Node
	case TargetTab, TargetDoc:
		if s.doubleClick(t, now) {
			m.focus()
			kind := RenameTab
			if t.Kind == TargetDoc {
				kind = RenameDocument
			}
			s.Rename = &Rename{Kind: kind, ID: t.ID, Buffer: []rune(t.Label)}
			return
		}
		if s.Rename != nil {
			return
		}
		action := ActionSelectTab
		if t.Kind == TargetDoc {
			action = ActionSelectDocument
		}
		m.emit(Invoked{Action: action, ID: t.ID})
	case TargetButton:
		m.emit(Invoked{Action: t.Action, Node: s.EditNode, ID: t.ID})
	case TargetChrome:
	default:
		m.focus()
	}
}

func isLabel(k TargetKind) bool { return k == TargetTab || k == TargetDoc }

// focus ends text editing and clears every transient reference.
func (m *Machine) focus() {
	if m.State.EditNode != 0 && m.State.Edited {
		m.emit(SaveRequested{})
	}
	m.State.Reset()
}

func (m *Machine) release() {
	s := &m.State
	moved := s.Moved
	s.HoldNode = 0
	s.Dragging = false
	s.Resize = nil
	s.Moved = false
	if moved {
		m.emit(SaveRequested{})
	}
}

func (m *Machine) connect(t Target, tab *model.Tab, nextID func() int) {
	s := &m.State
	here := model.End{Node: t.Node, Anchor: t.Anchor}
	if s.ArrowFrom == nil {
		s.ArrowFrom = &here
		return
	}
	from := *s.ArrowFrom
	s.ArrowFrom = nil
	if from == here || tab == nil {
		return
	}
	a := model.Arrow{ID: nextID(), From: from, To: here, Style: s.ArrowStyle}
	if err := tab.Live.AddArrow(a); err != nil {
		return
	}
	tab.Touch()
	m.emit(ArrowAdded{Arrow: a})
	m.emit(SaveRequested{})
}

func (m *Machine) char(r rune, tab *model.Tab) {
	s := &m.State
	if s.Modal != nil {
		return
	}
	if s.Rename != nil {
		if unicode.IsPrint(r) {
			s.Rename.Buffer = append(s.Rename.Buffer, r)
		}
		return
	}
	if s.EditNode == 0 || tab == nil || !(unicode.IsPrint(r) || r == '\n') {
		return
	}
	m.editText(tab, func(text string) string { return text + string(r) })
}

func (m *Machine) editText(tab *model.Tab, fn func(string) string) {
	s := &m.State
	changed := false
	err := tab.Live.UpdateNode(s.EditNode, func(n *model.Node) {
		next := fn(n.Text)
		changed = next != n.Text
		n.Text = next
	})
	if err != nil {
		s.EditNode, s.Edited = 0, false
		return
	}
	if changed {
		tab.Touch()
		s.Edited = true
		m.emit(NodeChanged{Node: s.EditNode})
	}
}

func dropLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}

func (m *Machine) key(k Key, tab *model.Tab) {
	s := &m.State
	if s.Modal != nil {
		switch k {
		case KeyEnter:
			m.confirmModal()
		case KeyEscape:
			m.cancelModal()
		}
		return
	}
	if s.Rename != nil {
		switch k {
		case KeyEnter:
			m.commitRename()
		case KeyEscape:
			s.Rename = nil
		case KeyBackspace:
			if n := len(s.Rename.Buffer); n > 0 {
				s.Rename.Buffer = s.Rename.Buffer[:n-1]
			}
		}
		return
	}

	switch k {
	case KeyBackspace:
		if s.EditNode != 0 && tab != nil {
			m.editText(tab, dropLastRune)
		}
	case KeyEnter:
		if s.EditNode != 0 && tab != nil {
			m.editText(tab, func(text string) string { return text + "\n" })
		}
	case KeyEscape:
		if s.ArrowFrom != nil {
			s.ArrowFrom = nil
			return
		}
		if s.EditNode != 0 {
			if s.Edited {
				m.emit(SaveRequested{})
			}
			s.EditNode, s.Edited = 0, false
			m.setCursor(CursorDefault)
		}
	case KeyDelete:
		if s.EditNode != 0 && s.HoldNode == 0 {
			m.emit(Invoked{Action: ActionDeleteNode, Node: s.EditNode})
		}
	}
}

func (m *Machine) commitRename() {
	s := &m.State
	r := s.Rename
	s.Rename = nil
	name := strings.TrimSpace(string(r.Buffer))
	if name == "" {
		return
	}
	m.emit(Renamed{Kind: r.Kind, ID: r.ID, Name: name})
	m.emit(SaveRequested{})
}

func (m *Machine) confirmModal() {
	md := m.State.Modal
	m.State.Modal = nil
	m.emit(ModalChanged{})
	m.emit(Invoked{Action: md.Action, ID: md.ID, Confirmed: true})
}

func (m *Machine) cancelModal() {
	m.State.Modal = nil
	m.emit(ModalChanged{})
}
