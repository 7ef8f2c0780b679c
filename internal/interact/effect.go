package interact

import (
	"github.com/google/uuid"

	"velo/internal/model"
)

// Effect is something the engine has to do after the machine handled an
// event.
type Effect interface{ isEffect() }

// NodeChanged means a node's geometry or content changed in the live
// canvas; its visual and attached arrows need redrawing.
type NodeChanged struct{ Node int }

// ArrowAdded reports a new arrow in the live canvas.
type ArrowAdded struct{ Arrow model.Arrow }

// SaveRequested asks for the active tab to be saved.
type SaveRequested struct{}

type CursorChanged struct{ Cursor Cursor }

// Invoked asks the engine to run a controller action. Confirmed is set when
// the action comes out of a confirmation modal.
type Invoked struct {
	Action    Action
	Node      int
	ID        uuid.UUID
	Confirmed bool
}

// Renamed commits a tab or document rename.
type Renamed struct {
	Kind RenameKind
	ID   uuid.UUID
	Name string
}

// ModalChanged reports a modal opening (Modal non-nil) or closing.
type ModalChanged struct{ Modal *Modal }

func (NodeChanged) isEffect()   {}
func (ArrowAdded) isEffect()    {}
func (SaveRequested) isEffect() {}
func (CursorChanged) isEffect() {}
func (Invoked) isEffect()       {}
func (Renamed) isEffect()       {}
func (ModalChanged) isEffect()  {}
