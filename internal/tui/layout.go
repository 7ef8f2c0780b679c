package tui

import (
	"fmt"
	"strings"

	"velo/internal/export"
	"velo/internal/geom"
	"velo/internal/interact"
	vmodel "velo/internal/model"
)

// Rows taken by chrome: the tab bar on top, status and help lines below.
const (
	topRows    = 1
	bottomRows = 2
)

// segment is a run of chrome text on one row and what clicking it does.
type segment struct {
	row, col int
	text     string
	target   interact.Target
	active   bool
}

func (s segment) width() int { return len([]rune(s.text)) }

// layout places the chrome for one frame. It doubles as the hit-tester the
// interaction machine consults, so it is rebuilt whenever the frame is.
type layout struct {
	cols, rows int
	panelCols  int
	segments   []segment
	modal      *modalBox
}

type modalBox struct {
	rect   export.CellRect
	prompt string
}

// window is the terminal size in canvas units.
func (l *layout) window() geom.Point {
	return geom.Point{X: float64(l.cols * export.CellWidth), Y: float64(l.rows * export.CellHeight)}
}

// cellOf converts a window position to the cell under it.
func (l *layout) cellOf(p geom.Point) (col, row int) {
	col = int(p.X) / export.CellWidth
	row = l.rows - 1 - int(p.Y)/export.CellHeight
	return col, row
}

// center is the window position at the middle of a cell.
func (l *layout) center(col, row int) geom.Point {
	return geom.Point{
		X: float64(col*export.CellWidth) + export.CellWidth/2,
		Y: float64((l.rows-row)*export.CellHeight) - export.CellHeight/2,
	}
}

func (l *layout) At(p geom.Point) interact.Target {
	col, row := l.cellOf(p)
	if l.modal != nil {
		for _, s := range l.segments {
			if s.row == row && col >= s.col && col < s.col+s.width() && isModalAction(s.target.Action) {
				return s.target
			}
		}
		return interact.Target{Kind: interact.TargetChrome}
	}
	for _, s := range l.segments {
		if s.row == row && col >= s.col && col < s.col+s.width() {
			return s.target
		}
	}
	if col < l.panelCols || row < topRows || row >= l.rows-bottomRows {
		return interact.Target{Kind: interact.TargetChrome}
	}
	return interact.Target{}
}

func isModalAction(a interact.Action) bool {
	return a == interact.ActionModalConfirm || a == interact.ActionModalCancel
}

type toolButton struct {
	label  string
	action interact.Action
}

var toolButtons = []toolButton{
	{"+ node", interact.ActionNewNode},
	{"- node", interact.ActionDeleteNode},
	{"text pos", interact.ActionCycleTextPos},
	{"to front", interact.ActionBringToFront},
	{"arrows", interact.ActionCycleArrowStyle},
	{"paste", interact.ActionPasteImage},
	{"undo", interact.ActionUndo},
	{"redo", interact.ActionRedo},
	{"save", interact.ActionSave},
}

// buildLayout lays out the document list and toolbar in the side panel,
// the tab bar above the canvas and, when open, the modal.
func buildLayout(cols, rows, panelCols int, app *vmodel.App, st *interact.State) *layout {
	l := &layout{cols: cols, rows: rows, panelCols: panelCols}
	rename := func(kind interact.RenameKind, t interact.Target) string {
		if r := st.Rename; r != nil && r.Kind == kind && r.ID == t.ID {
			return string(r.Buffer) + "_"
		}
		return t.Label
	}

	row := 0
	l.add(segment{row: row, col: 0, text: "Documents", target: interact.Target{Kind: interact.TargetChrome}})
	row++
	for _, d := range app.Documents() {
		t := interact.Target{Kind: interact.TargetDoc, ID: d.ID, Label: d.Name}
		l.add(segment{row: row, col: 1, text: rename(interact.RenameDocument, t), target: t, active: d.ID == app.Current})
		row++
	}
	l.add(segment{row: row, col: 1, text: "[+ doc]", target: button(interact.ActionNewDocument)})
	l.add(segment{row: row + 1, col: 1, text: "[- doc]", target: button(interact.ActionDeleteDocument)})
	row += 3
	for _, b := range toolButtons {
		l.add(segment{row: row, col: 1, text: "[" + b.label + "]", target: button(b.action)})
		row++
	}

	col := panelCols
	doc := app.CurrentDoc()
	for _, t := range doc.Tabs {
		tt := interact.Target{Kind: interact.TargetTab, ID: t.ID, Label: t.Name}
		text := " " + rename(interact.RenameTab, tt) + " "
		l.add(segment{row: 0, col: col, text: text, target: tt, active: t.Active})
		col += len([]rune(text))
		if t.Active {
			del := interact.Target{Kind: interact.TargetButton, Action: interact.ActionDeleteTab, ID: t.ID}
			l.add(segment{row: 0, col: col, text: "x", target: del, active: true})
			col++
		}
		col++
	}
	l.add(segment{row: 0, col: col, text: "[+]", target: button(interact.ActionAddTab)})

	if st.Modal != nil {
		l.placeModal(st.Modal.Prompt)
	}
	return l
}

func button(a interact.Action) interact.Target {
	return interact.Target{Kind: interact.TargetButton, Action: a}
}

// add clips a segment to its area: panel segments to the panel, tab bar
// segments to the frame.
func (l *layout) add(s segment) {
	if s.row >= l.rows-bottomRows {
		return
	}
	limit := l.cols
	if s.col < l.panelCols {
		limit = l.panelCols
	}
	r := []rune(s.text)
	n := limit - s.col
	if n <= 0 {
		return
	}
	if len(r) > n {
		s.text = string(r[:n])
	}
	l.segments = append(l.segments, s)
}

func (l *layout) placeModal(prompt string) {
	canvasCols := l.cols - l.panelCols
	w := min(max(len([]rune(prompt))+4, 24), max(canvasCols, 1))
	h := 5
	x0 := l.panelCols + (canvasCols-w)/2
	y0 := topRows + (l.rows-topRows-bottomRows-h)/2
	l.modal = &modalBox{
		rect:   export.CellRect{X0: x0, Y0: y0, X1: x0 + w - 1, Y1: y0 + h - 1},
		prompt: prompt,
	}
	ok, cancel := "[ OK ]", "[ Cancel ]"
	row := y0 + 3
	l.segments = append(l.segments,
		segment{row: row, col: x0 + 2, text: ok, target: button(interact.ActionModalConfirm)},
		segment{row: row, col: x0 + w - 2 - len(cancel), text: cancel, target: button(interact.ActionModalCancel)},
	)
}

// statusText describes what the machine is doing.
func statusText(st *interact.State, tab *vmodel.Tab) string {
	var parts []string
	switch {
	case st.Modal != nil:
		parts = append(parts, "confirm: enter / esc")
	case st.Rename != nil:
		parts = append(parts, "rename: enter to keep, esc to cancel")
	case st.ArrowFrom != nil:
		parts = append(parts, fmt.Sprintf("arrow from node %d %s, click another anchor", st.ArrowFrom.Node, st.ArrowFrom.Anchor))
	case st.EditNode != 0:
		parts = append(parts, fmt.Sprintf("editing node %d", st.EditNode))
	}
	parts = append(parts, "arrows: "+st.ArrowStyle.String())
	if tab != nil && tab.Dirty() {
		parts = append(parts, "modified")
	}
	return strings.Join(parts, " | ")
}
