package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"velo/internal/geom"
	"velo/internal/history"
	"velo/internal/interact"
	"velo/internal/model"
	"velo/internal/persist"
	"velo/internal/store"
)

// Default size of a node created from the toolbar.
const (
	DefaultNodeWidth  = 100
	DefaultNodeHeight = 100
)

// switchTab saves the outgoing tab, runs activate, then loads the incoming
// one. Transient state never survives a switch.
func (e *Engine) switchTab(from *model.Document, activate func() error) error {
	old := from.ActiveTab()
	if err := activate(); err != nil {
		return err
	}
	e.Mailbox.PostSave(persist.SaveRequest{Doc: from.ID, Tab: old.ID})
	e.Mailbox.PostLoad(persist.LoadRequest{Doc: e.App.Current})
	e.Machine.State.Reset()
	e.resync = true
	return nil
}

// NewTab adds a tab to the current document and switches to it.
func (e *Engine) NewTab() *model.Tab {
	doc := e.App.CurrentDoc()
	var t *model.Tab
	_ = e.switchTab(doc, func() error {
		t = doc.AddTab("")
		return nil
	})
	return t
}

// SelectTab activates a tab of the current document. Selecting the active
// tab does nothing.
func (e *Engine) SelectTab(id uuid.UUID) error {
	doc := e.App.CurrentDoc()
	if doc.ActiveTab().ID == id {
		return nil
	}
	return e.switchTab(doc, func() error { return doc.SelectTab(id) })
}

func (e *Engine) RenameTab(id uuid.UUID, name string) error {
	if err := e.App.CurrentDoc().RenameTab(id, name); err != nil {
		return err
	}
	e.Mailbox.PostSave(persist.SaveRequest{})
	return nil
}

// DeleteTab removes a tab of the current document; uuid.Nil means the
// active one. The last tab is never deleted. With confirmations enabled an
// unconfirmed request opens a modal instead.
func (e *Engine) DeleteTab(ctx context.Context, id uuid.UUID, confirmed bool) error {
	doc := e.App.CurrentDoc()
	if id == uuid.Nil {
		id = doc.ActiveTab().ID
	}
	t, err := doc.Tab(id)
	if err != nil {
		return err
	}
	if len(doc.Tabs) < 2 {
		return model.ErrLastTabProtected
	}
	if e.opts.Confirmations && !confirmed {
		e.Machine.OpenModal(interact.Modal{
			Action: interact.ActionDeleteTab,
			ID:     id,
			Prompt: fmt.Sprintf("Delete tab %q?", t.Name),
		})
		return nil
	}
	if err := doc.DeleteTab(id); err != nil {
		return err
	}
	if err := e.store.DeleteTab(ctx, doc.ID, id); err != nil {
		e.logger.Error("delete tab data", "tab", t.Name, "err", err)
		e.setStatus(err.Error(), true)
	}
	e.saveIndex(ctx)
	e.Mailbox.PostLoad(persist.LoadRequest{})
	e.Machine.State.Reset()
	e.resync = true
	return nil
}

// NewDocument creates a document and makes it current.
func (e *Engine) NewDocument() *model.Document {
	var d *model.Document
	_ = e.switchTab(e.App.CurrentDoc(), func() error {
		d = e.App.NewDocument("")
		return nil
	})
	return d
}

func (e *Engine) SelectDocument(id uuid.UUID) error {
	if e.App.Current == id {
		return nil
	}
	return e.switchTab(e.App.CurrentDoc(), func() error { return e.App.SelectDocument(id) })
}

func (e *Engine) RenameDocument(id uuid.UUID, name string) error {
	if err := e.App.RenameDocument(id, name); err != nil {
		return err
	}
	e.Mailbox.PostSave(persist.SaveRequest{})
	return nil
}

// DeleteDocument removes a document; uuid.Nil means the current one. The
// last document is never deleted.
func (e *Engine) DeleteDocument(ctx context.Context, id uuid.UUID, confirmed bool) error {
	if id == uuid.Nil {
		id = e.App.Current
	}
	d, err := e.App.Doc(id)
	if err != nil {
		return err
	}
	if len(e.App.Order) < 2 {
		return model.ErrLastDocumentProtected
	}
	if e.opts.Confirmations && !confirmed {
		e.Machine.OpenModal(interact.Modal{
			Action: interact.ActionDeleteDocument,
			ID:     id,
			Prompt: fmt.Sprintf("Delete document %q?", d.Name),
		})
		return nil
	}
	if err := e.App.DeleteDocument(id); err != nil {
		return err
	}
	if err := e.store.DeleteDocument(ctx, id); err != nil {
		e.logger.Error("delete document data", "doc", d.Name, "err", err)
		e.setStatus(err.Error(), true)
	}
	e.saveIndex(ctx)
	e.Mailbox.PostLoad(persist.LoadRequest{})
	e.Machine.State.Reset()
	e.resync = true
	return nil
}

// NewNode adds a default rectangle centred on the canvas, above every
// other node, and returns its id.
func (e *Engine) NewNode() int {
	tab := e.App.ActiveTab()
	ext := e.Machine.CanvasSize()
	n := model.NewNode(e.App.NextID(),
		ext.X/2-DefaultNodeWidth/2, ext.Y/2-DefaultNodeHeight/2,
		DefaultNodeWidth, DefaultNodeHeight)
	n.Z = tab.Live.TopZ() + 1
	tab.Live.PutNode(n)
	tab.Touch()
	e.scene.UpdateNode(tab.Live, n.ID, ext)
	e.Mailbox.PostSave(persist.SaveRequest{})
	return n.ID
}

// DeleteNode removes a node and its arrows from the active tab.
func (e *Engine) DeleteNode(id int) error {
	tab := e.App.ActiveTab()
	removed, err := tab.Live.DeleteNode(id)
	if err != nil {
		return err
	}
	tab.Touch()
	e.scene.RemoveNode(id)
	for _, a := range removed {
		e.scene.RemoveArrow(a.ID)
	}
	s := &e.Machine.State
	if s.EditNode == id || s.HoverNode == id || s.HoldNode == id ||
		s.Resize != nil && s.Resize.Node == id || s.ArrowFrom != nil && s.ArrowFrom.Node == id {
		s.Reset()
	}
	e.Mailbox.PostSave(persist.SaveRequest{})
	return nil
}

func (e *Engine) updateNode(id int, fn func(*model.Node)) error {
	tab := e.App.ActiveTab()
	if err := tab.Live.UpdateNode(id, fn); err != nil {
		return err
	}
	tab.Touch()
	e.scene.UpdateNode(tab.Live, id, e.Machine.CanvasSize())
	e.Mailbox.PostSave(persist.SaveRequest{})
	return nil
}

func (e *Engine) BringToFront(id int) error {
	top := e.App.ActiveTab().Live.TopZ()
	return e.updateNode(id, func(n *model.Node) {
		if n.Z < top {
			n.Z = top + 1
		}
	})
}

func (e *Engine) CycleTextPos(id int) error {
	return e.updateNode(id, func(n *model.Node) { n.TextPos = n.TextPos.Next() })
}

func (e *Engine) SetBgColor(id int, hex string) error {
	return e.updateNode(id, func(n *model.Node) { n.BgColor = hex })
}

func (e *Engine) AddTag(id int, tag string) error {
	return e.updateNode(id, func(n *model.Node) { n.AddTag(tag) })
}

// CycleArrowStyle changes the style used for new arrows.
func (e *Engine) CycleArrowStyle() model.ArrowStyle {
	s := &e.Machine.State
	s.ArrowStyle = s.ArrowStyle.Next()
	e.setStatus("arrow style: "+s.ArrowStyle.String(), false)
	return s.ArrowStyle
}

// Save asks for the active tab to be written on the next tick.
func (e *Engine) Save() {
	e.Mailbox.PostSave(persist.SaveRequest{})
}

// Undo drops the newest checkpoint of the active tab on the next tick.
func (e *Engine) Undo() {
	e.Machine.State.Reset()
	e.Mailbox.PostLoad(persist.LoadRequest{DropLastCheckpoint: true})
}

// Redo re-applies the last undone checkpoint immediately.
func (e *Engine) Redo() bool {
	if !history.Redo(e.App.ActiveTab()) {
		return false
	}
	e.Machine.State.Reset()
	e.resync = true
	return true
}

// MoveNode places a node at an absolute canvas position.
func (e *Engine) MoveNode(id int, left, bottom float64) error {
	return e.updateNode(id, func(n *model.Node) {
		n.Rect.Left, n.Rect.Bottom = geom.Abs(left), geom.Abs(bottom)
	})
}

// saveIndex writes the document tree right away. The incoming active tab
// has not been loaded at this point, so a tab save cannot carry the change.
func (e *Engine) saveIndex(ctx context.Context) {
	if err := e.store.SaveIndex(ctx, store.IndexOf(e.App)); err != nil {
		e.logger.Error("save index", "err", err)
		e.setStatus(err.Error(), true)
	}
}
