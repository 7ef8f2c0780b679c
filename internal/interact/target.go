package interact

import (
	"github.com/google/uuid"

	"velo/internal/geom"
)

// TargetKind says what lies under the pointer.
type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetNode
	TargetResize
	TargetConnect
	TargetTab
	TargetDoc
	TargetButton
	TargetChrome // any other widget; absorbs clicks
)

// Action is a command bound to a chrome button or raised by the machine.
type Action uint8

const (
	ActionNone Action = iota
	ActionNewNode
	ActionDeleteNode
	ActionAddTab
	ActionSelectTab
	ActionDeleteTab
	ActionNewDocument
	ActionSelectDocument
	ActionDeleteDocument
	ActionSave
	ActionUndo
	ActionRedo
	ActionCycleArrowStyle
	ActionCycleTextPos
	ActionBringToFront
	ActionPasteImage
	ActionModalConfirm
	ActionModalCancel
)

var actionNames = map[Action]string{
	ActionNone:            "none",
	ActionNewNode:         "new-node",
	ActionDeleteNode:      "delete-node",
	ActionAddTab:          "add-tab",
	ActionSelectTab:       "select-tab",
	ActionDeleteTab:       "delete-tab",
	ActionNewDocument:     "new-document",
	ActionSelectDocument:  "select-document",
	ActionDeleteDocument:  "delete-document",
	ActionSave:            "save",
	ActionUndo:            "undo",
	ActionRedo:            "redo",
	ActionCycleArrowStyle: "cycle-arrow-style",
	ActionCycleTextPos:    "cycle-text-position",
	ActionBringToFront:    "bring-to-front",
	ActionPasteImage:      "paste-image",
	ActionModalConfirm:    "confirm",
	ActionModalCancel:     "cancel",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "action?"
}

// Target is the result of a hit-test.
type Target struct {
	Kind   TargetKind
	Node   int
	Corner geom.Corner
	Anchor geom.Anchor
	// ID and Label identify a tab or document label.
	ID     uuid.UUID
	Label  string
	Action Action
}

// Chrome resolves window positions against UI widgets drawn over the
// canvas. It returns a TargetNone target when the position is on the bare
// canvas.
type Chrome interface {
	At(pos geom.Point) Target
}

// NoChrome is a Chrome without widgets.
type NoChrome struct{}

func (NoChrome) At(geom.Point) Target { return Target{} }
