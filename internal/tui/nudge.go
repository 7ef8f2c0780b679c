package tui

import (
	"strings"

	"velo/internal/export"
)

// nudge moves the focused node one cell per key press, four with shift.
// Percentage-placed nodes stay where they are.
func (m *model) nudge(k string) {
	e := m.engine
	id := e.Machine.State.EditNode
	if id == 0 {
		return
	}
	n, ok := e.App.ActiveTab().Live.Node(id)
	if !ok || !n.Rect.Left.IsAbs() || !n.Rect.Bottom.IsAbs() {
		return
	}

	speed := 1.0
	if strings.HasPrefix(k, "shift+") {
		speed = 4
	}
	var dx, dy float64
	switch strings.TrimPrefix(k, "shift+") {
	case "up":
		dy = export.CellHeight
	case "down":
		dy = -export.CellHeight
	case "left":
		dx = -export.CellWidth
	case "right":
		dx = export.CellWidth
	}
	if err := e.MoveNode(id, n.Rect.Left.Value+dx*speed, n.Rect.Bottom.Value+dy*speed); err != nil {
		m.logger.Debug("nudge", "node", id, "err", err)
	}
}
