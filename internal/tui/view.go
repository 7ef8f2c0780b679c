package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"velo/internal/export"
	"velo/internal/geom"
	vmodel "velo/internal/model"
)

var (
	accent = colorful.Color{R: 0.35, G: 0.6, B: 1}

	panelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	headerStyle = panelStyle.Bold(true)
	activeStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	buttonStyle = panelStyle.Foreground(lipgloss.Color("39"))
	tabStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	modalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("60"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// painter pairs a rune grid with a style per cell.
type painter struct {
	grid   *export.Grid
	cell   [][]int
	styles []lipgloss.Style
	byKey  map[string]int
}

func newPainter(cols, rows int) *painter {
	p := &painter{
		grid:   export.NewGrid(cols, rows),
		cell:   make([][]int, rows),
		styles: []lipgloss.Style{lipgloss.NewStyle()},
		byKey:  map[string]int{},
	}
	for y := range p.cell {
		p.cell[y] = make([]int, cols)
	}
	return p
}

// style interns s under key and returns its index.
func (p *painter) style(key string, s lipgloss.Style) int {
	if id, ok := p.byKey[key]; ok {
		return id
	}
	p.styles = append(p.styles, s)
	p.byKey[key] = len(p.styles) - 1
	return len(p.styles) - 1
}

func (p *painter) paint(r export.CellRect, id int) {
	cols, rows := p.grid.Size()
	for y := max(r.Y0, 0); y <= min(r.Y1, rows-1); y++ {
		for x := max(r.X0, 0); x <= min(r.X1, cols-1); x++ {
			p.cell[y][x] = id
		}
	}
}

func (p *painter) clear(r export.CellRect, id int) {
	for y := r.Y0; y <= r.Y1; y++ {
		for x := r.X0; x <= r.X1; x++ {
			p.grid.Set(x, y, ' ')
		}
	}
	p.paint(r, id)
}

func (p *painter) text(row, col int, s string, id int) {
	cols, _ := p.grid.Size()
	p.grid.Write(col, row, s, cols)
	p.paint(export.CellRect{X0: col, Y0: row, X1: col + len([]rune(s)) - 1, Y1: row}, id)
}

func (p *painter) String() string {
	lines := p.grid.Lines()
	var b strings.Builder
	for y, line := range lines {
		if y > 0 {
			b.WriteByte('\n')
		}
		runes := []rune(line)
		start := 0
		for x := 1; x <= len(runes); x++ {
			if x < len(runes) && p.cell[y][x] == p.cell[y][start] {
				continue
			}
			run := string(runes[start:x])
			if id := p.cell[y][start]; id == 0 {
				b.WriteString(run)
			} else {
				b.WriteString(p.styles[id].Render(run))
			}
			start = x
		}
	}
	return b.String()
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 || m.layout == nil {
		return ""
	}
	if m.help.ShowAll {
		return m.helpView()
	}
	l := m.layout
	p := newPainter(l.cols, max(l.rows-bottomRows, 0))
	m.drawCanvas(p)
	m.drawChrome(p)
	return p.String() + "\n" + m.statusLine() + "\n" + m.help.View(m.keys)
}

func (m model) drawCanvas(p *painter) {
	l := m.layout
	st := &m.engine.Machine.State
	proj := export.Projection{Origin: geom.Point{X: -m.engine.Machine.PanelWidth(), Y: l.window().Y}}

	for _, a := range m.renderer.Arrows() {
		x0, y0 := anchorCell(proj, a.From, a.FromAnchor)
		x1, y1 := anchorCell(proj, a.To, a.ToAnchor)
		p.grid.Arrow(x0, y0, a.FromAnchor, x1, y1, a.Style)
	}
	for _, n := range m.renderer.Nodes() {
		r := proj.Rect(n.Box)
		text := n.Text
		if n.Kind == vmodel.KindImage {
			text = strings.TrimSpace("[image] " + text)
		}
		if len(n.Tags) > 0 {
			text += "\n#" + strings.Join(n.Tags, " #")
		}
		p.grid.Box(r, text, n.TextPos, n.ID == st.EditNode)
		p.paint(r, nodeStyle(p, n.BgColor, n.ID == st.HoverNode))
	}
}

// nodeStyle colours a node by its background, tinted when hovered. White
// nodes keep the terminal's own colours.
func nodeStyle(p *painter, hex string, hovered bool) int {
	plain := hex == "" || strings.EqualFold(hex, vmodel.DefaultBgColor)
	if plain && !hovered {
		return 0
	}
	bg := export.ParseColor(hex)
	key := bg.Hex()
	if hovered {
		bg = bg.BlendLab(accent, 0.25).Clamped()
		key += "/hover"
	}
	fg := export.TextColor(bg)
	return p.style(key, lipgloss.NewStyle().
		Background(lipgloss.Color(bg.Hex())).
		Foreground(lipgloss.Color(fg.Hex())))
}

func (m model) drawChrome(p *painter) {
	l := m.layout
	_, rows := p.grid.Size()
	panel := p.style("panel", panelStyle)
	if l.panelCols > 0 {
		p.clear(export.CellRect{X0: 0, Y0: 0, X1: l.panelCols - 1, Y1: rows - 1}, panel)
	}
	p.clear(export.CellRect{X0: l.panelCols, Y0: 0, X1: l.cols - 1, Y1: topRows - 1}, 0)

	for _, s := range l.segments {
		if l.modal != nil && isModalAction(s.target.Action) {
			continue
		}
		var id int
		switch {
		case s.active:
			id = p.style("active", activeStyle)
		case s.col < l.panelCols && s.row == 0:
			id = p.style("header", headerStyle)
		case s.col < l.panelCols && s.target.Action != 0:
			id = p.style("button", buttonStyle)
		case s.col < l.panelCols:
			id = panel
		default:
			id = p.style("tab", tabStyle)
		}
		p.text(s.row, s.col, s.text, id)
	}

	if md := l.modal; md != nil {
		id := p.style("modal", modalStyle)
		p.grid.Box(md.rect, "", vmodel.TextCenter, false)
		p.paint(md.rect, id)
		prompt := []rune(md.prompt)
		if w := md.rect.Width() - 2; len(prompt) > w {
			prompt = prompt[:max(w, 0)]
		}
		p.text(md.rect.Y0+1, md.rect.X0+1+(md.rect.Width()-2-len(prompt))/2, string(prompt), id)
		for _, s := range l.segments {
			if isModalAction(s.target.Action) {
				p.text(s.row, s.col, s.text, p.style("modal-button", modalStyle.Bold(true)))
			}
		}
	}
}

func (m model) statusLine() string {
	left := statusStyle.Render(statusText(&m.engine.Machine.State, m.engine.App.ActiveTab()))
	right := statusStyle.Render(m.renderer.cursor.String())
	if st := m.engine.Status(); st.Text != "" && m.now.Sub(st.At) < statusTTL {
		style := infoStyle
		if st.Error {
			style = errorStyle
		}
		right = style.Render(st.Text) + "  " + right
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m model) helpView() string {
	title := headerStyle.Render(" velo ") + "  " + statusStyle.Render("mouse: click to edit, hold to drag, corners resize, side midpoints connect")
	return title + "\n\n" + m.help.View(m.keys)
}
