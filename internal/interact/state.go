package interact

import (
	"time"

	"github.com/google/uuid"

	"velo/internal/geom"
	"velo/internal/model"
)

const (
	// DragDelay is how long the button must stay down on a node before
	// pointer motion moves it.
	DragDelay = 150 * time.Millisecond
	// DoubleClickWindow is the longest gap between two clicks on the same
	// label that still counts as a double click.
	DoubleClickWindow = 500 * time.Millisecond
)

// Phase is the machine state derived from State.
type Phase uint8

const (
	Idle Phase = iota
	Hovered
	Editing
	PendingDrag
	Dragging
	Resizing
	ConnectingArrow
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Hovered:
		return "hovered"
	case Editing:
		return "editing"
	case PendingDrag:
		return "pending-drag"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case ConnectingArrow:
		return "connecting-arrow"
	default:
		return "phase?"
	}
}

// Cursor is a pointer shape hint for the renderer.
type Cursor uint8

const (
	CursorDefault Cursor = iota
	CursorMove
	CursorText
	CursorNwseResize
	CursorNeswResize
)

func (c Cursor) String() string {
	switch c {
	case CursorMove:
		return "move"
	case CursorText:
		return "text"
	case CursorNwseResize:
		return "nwse-resize"
	case CursorNeswResize:
		return "nesw-resize"
	default:
		return "default"
	}
}

type ResizeTarget struct {
	Node   int
	Corner geom.Corner
}

// RenameKind says what a pending rename applies to.
type RenameKind uint8

const (
	RenameTab RenameKind = iota
	RenameDocument
)

// Rename is an in-progress label edit.
type Rename struct {
	Kind   RenameKind
	ID     uuid.UUID
	Buffer []rune
}

// Modal is a confirmation dialog guarding a destructive action.
type Modal struct {
	Action Action
	ID     uuid.UUID
	Prompt string
}

// State is the transient interaction state. Node ids are never 0, so 0
// means "none".
type State struct {
	HoverNode int
	EditNode  int
	// Edited is set once the text of EditNode changed.
	Edited bool

	HoldNode  int
	HoldSince time.Time
	Dragging  bool
	// Moved is set once a drag or resize changed geometry.
	Moved bool

	Resize    *ResizeTarget
	ArrowFrom *model.End
	Rename    *Rename
	Modal     *Modal

	// ArrowStyle and Cursor survive resets.
	ArrowStyle model.ArrowStyle
	Cursor     Cursor

	lastClick struct {
		key Target
		at  time.Time
	}
}

// Reset drops every reference to nodes, tabs and documents.
func (s *State) Reset() {
	style, cursor, last := s.ArrowStyle, s.Cursor, s.lastClick
	*s = State{ArrowStyle: style, Cursor: cursor}
	s.lastClick = last
}

func (s *State) Phase() Phase {
	switch {
	case s.Resize != nil:
		return Resizing
	case s.Dragging:
		return Dragging
	case s.HoldNode != 0:
		return PendingDrag
	case s.ArrowFrom != nil:
		return ConnectingArrow
	case s.EditNode != 0:
		return Editing
	case s.HoverNode != 0:
		return Hovered
	default:
		return Idle
	}
}

// doubleClick records a click on t and reports whether it completes a
// double click.
func (s *State) doubleClick(t Target, now time.Time) bool {
	key := Target{Kind: t.Kind, ID: t.ID, Node: t.Node}
	if s.lastClick.key == key && !s.lastClick.at.IsZero() && now.Sub(s.lastClick.at) < DoubleClickWindow {
		s.lastClick.at = time.Time{}
		return true
	}
	s.lastClick.key = key
	s.lastClick.at = now
	return false
}
