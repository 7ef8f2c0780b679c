// Package interact is the pointer/keyboard state machine of the canvas. It
// consumes normalized input events, keeps the transient interaction state,
// mutates the active tab's live canvas for committed gestures and reports
// everything else as effects for the engine to apply.
package interact

import "velo/internal/geom"

// Event is one normalized input event.
type Event interface{ isEvent() }

type Button uint8

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

// Key is a non-character key.
type Key uint8

const (
	KeyUnknown Key = iota
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyDelete
)

func (k Key) String() string {
	switch k {
	case KeyEnter:
		return "enter"
	case KeyEscape:
		return "esc"
	case KeyBackspace:
		return "backspace"
	case KeyDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// PointerMoved carries the pointer position in window units, origin at the
// bottom-left of the window.
type PointerMoved struct{ Pos geom.Point }

// PointerButton is a press or release.
type PointerButton struct {
	Button  Button
	Pressed bool
}

// PointerMotion is the raw pointer delta since the previous motion event in
// screen orientation (dy positive downwards).
type PointerMotion struct{ Delta geom.Point }

type CharReceived struct{ Char rune }

type KeyPressed struct{ Key Key }

type WindowResized struct{ Width, Height float64 }

func (PointerMoved) isEvent()  {}
func (PointerButton) isEvent() {}
func (PointerMotion) isEvent() {}
func (CharReceived) isEvent()  {}
func (KeyPressed) isEvent()    {}
func (WindowResized) isEvent() {}
