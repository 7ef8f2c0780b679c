// Package engine runs the canvas control loop. Each Tick drains queued input
// through the interaction machine, applies the resulting effects, promotes
// held nodes to drags, schedules autosaves and finally processes the
// persistence mailbox.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"velo/internal/clipboard"
	"velo/internal/interact"
	"velo/internal/model"
	"velo/internal/persist"
	"velo/internal/store"
)

type Options struct {
	Store     store.Store
	Renderer  Renderer
	Chrome    interact.Chrome
	Clipboard clipboard.Source
	Logger    *log.Logger
	Interact  interact.Config

	// Autosave is the quiet period after the last edit before the active
	// tab is saved. Zero disables autosave.
	Autosave time.Duration
	// Confirmations opens a modal before deleting tabs and documents.
	Confirmations bool
	// MaxImageSide bounds pasted images; larger ones are scaled down.
	MaxImageSide int
}

// Status is the last user-facing message.
type Status struct {
	Text  string
	Error bool
	At    time.Time
}

type Engine struct {
	App     *model.App
	Machine *interact.Machine
	Mailbox persist.Mailbox

	opts   Options
	store  store.Store
	proc   *persist.Processor
	scene  *Scene
	render Renderer
	logger *log.Logger

	mu    sync.Mutex
	queue []interact.Event

	now    time.Time
	status Status
	resync bool

	// autosave bookkeeping for the active tab
	seenTab     uuid.UUID
	seenRev     uint64
	lastEdit    time.Time
	failedRev   uint64
	failedValid bool
}

func New(opts Options) *Engine {
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Renderer == nil {
		opts.Renderer = &NopRenderer{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Interact == (interact.Config{}) {
		opts.Interact = interact.DefaultConfig()
	}
	if opts.MaxImageSide <= 0 {
		opts.MaxImageSide = 512
	}
	e := &Engine{
		App:     model.NewApp(),
		Machine: interact.New(opts.Interact, opts.Chrome),
		opts:    opts,
		store:   opts.Store,
		proc:    persist.NewProcessor(opts.Store, opts.Logger),
		scene:   NewScene(opts.Renderer),
		render:  opts.Renderer,
		logger:  opts.Logger,
		resync:  true,
	}
	return e
}

// Push queues input events for the next tick. Safe to call from any
// goroutine.
func (e *Engine) Push(evs ...interact.Event) {
	e.mu.Lock()
	e.queue = append(e.queue, evs...)
	e.mu.Unlock()
}

func (e *Engine) drain() []interact.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	q := e.queue
	e.queue = nil
	return q
}

// Status returns the last message worth showing to the user.
func (e *Engine) Status() Status { return e.status }

func (e *Engine) setStatus(text string, isErr bool) {
	e.status = Status{Text: text, Error: isErr, At: e.now}
}

// Boot restores the document index and the current tab from the store. A
// store with no index keeps the fresh single-document state.
func (e *Engine) Boot(ctx context.Context) error {
	idx, err := e.store.LoadIndex(ctx)
	if errors.Is(err, store.ErrNotFound) {
		e.logger.Info("no saved documents, starting fresh")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	if len(idx.Documents) == 0 {
		return nil
	}
	idx.Restore(e.App)
	e.Mailbox.PostLoad(persist.LoadRequest{})
	e.logger.Info("restored documents", "count", len(idx.Documents))
	return nil
}

// Tick runs one pass of the control loop.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	e.now = now
	for _, ev := range e.drain() {
		fx := e.Machine.Handle(ev, now, e.App.ActiveTab(), e.App.NextID)
		e.apply(ctx, fx)
		if _, ok := ev.(interact.WindowResized); ok {
			e.resync = true
		}
	}
	e.Machine.Tick(now)
	e.autosave(now)

	rep := e.proc.Process(ctx, e.App, &e.Mailbox)
	if err := rep.Err(); err != nil {
		e.setStatus(err.Error(), true)
	} else if rep.Saved != nil {
		e.setStatus(fmt.Sprintf("saved %s", rep.Saved.Name), false)
	}
	if rep.Saved != nil {
		e.failedValid = false
	}
	if rep.SaveErr != nil {
		if tab := e.App.ActiveTab(); tab != nil {
			e.failedRev, e.failedValid = tab.Revision, true
		}
	}
	if rep.Reloaded {
		e.resync = true
	}
	if e.resync {
		e.Resync()
	}
}

// Resync rebuilds every visual from the active tab.
func (e *Engine) Resync() {
	e.resync = false
	if tab := e.App.ActiveTab(); tab != nil {
		e.scene.Rebuild(tab.Live, e.Machine.CanvasSize())
	}
	e.render.SetCursor(e.Machine.State.Cursor)
}

// autosave posts a save once the active tab has been quiet for the
// configured delay. A tab whose last save failed waits for a new edit.
func (e *Engine) autosave(now time.Time) {
	tab := e.App.ActiveTab()
	if tab == nil {
		return
	}
	if tab.ID != e.seenTab || tab.Revision != e.seenRev {
		e.seenTab, e.seenRev, e.lastEdit = tab.ID, tab.Revision, now
	}
	if e.opts.Autosave <= 0 || !tab.Dirty() || now.Sub(e.lastEdit) < e.opts.Autosave {
		return
	}
	if e.failedValid && e.failedRev == tab.Revision {
		return
	}
	if pending, _ := e.Mailbox.Pending(); pending {
		return
	}
	e.Mailbox.PostSave(persist.SaveRequest{})
}

func (e *Engine) apply(ctx context.Context, fx []interact.Effect) {
	tab := e.App.ActiveTab()
	ext := e.Machine.CanvasSize()
	for _, f := range fx {
		switch f := f.(type) {
		case interact.NodeChanged:
			e.scene.UpdateNode(tab.Live, f.Node, ext)
		case interact.ArrowAdded:
			e.scene.AddArrow(tab.Live, f.Arrow, ext)
		case interact.SaveRequested:
			e.Mailbox.PostSave(persist.SaveRequest{})
		case interact.CursorChanged:
			e.render.SetCursor(f.Cursor)
		case interact.Renamed:
			e.rename(f)
		case interact.Invoked:
			e.invoke(ctx, f)
		case interact.ModalChanged:
		}
	}
}

func (e *Engine) rename(r interact.Renamed) {
	var err error
	switch r.Kind {
	case interact.RenameTab:
		err = e.RenameTab(r.ID, r.Name)
	case interact.RenameDocument:
		err = e.RenameDocument(r.ID, r.Name)
	}
	if err != nil {
		e.logger.Debug("rename declined", "err", err)
	}
}

// Do runs a controller action as if a chrome button had been clicked.
// Keyboard shortcuts in front-ends go through here.
func (e *Engine) Do(ctx context.Context, a interact.Action) {
	if e.Machine.State.Modal != nil {
		return
	}
	e.invoke(ctx, interact.Invoked{Action: a, Node: e.Machine.State.EditNode})
}

func (e *Engine) invoke(ctx context.Context, inv interact.Invoked) {
	var err error
	switch inv.Action {
	case interact.ActionNewNode:
		e.NewNode()
	case interact.ActionDeleteNode:
		err = e.DeleteNode(inv.Node)
	case interact.ActionAddTab:
		e.NewTab()
	case interact.ActionSelectTab:
		err = e.SelectTab(inv.ID)
	case interact.ActionDeleteTab:
		err = e.DeleteTab(ctx, inv.ID, inv.Confirmed)
	case interact.ActionNewDocument:
		e.NewDocument()
	case interact.ActionSelectDocument:
		err = e.SelectDocument(inv.ID)
	case interact.ActionDeleteDocument:
		err = e.DeleteDocument(ctx, inv.ID, inv.Confirmed)
	case interact.ActionSave:
		e.Save()
	case interact.ActionUndo:
		e.Undo()
	case interact.ActionRedo:
		e.Redo()
	case interact.ActionCycleArrowStyle:
		e.CycleArrowStyle()
	case interact.ActionCycleTextPos:
		err = e.CycleTextPos(inv.Node)
	case interact.ActionBringToFront:
		err = e.BringToFront(inv.Node)
	case interact.ActionPasteImage:
		err = e.PasteImage()
	}
	switch {
	case err == nil:
	case errors.Is(err, model.ErrLastTabProtected), errors.Is(err, model.ErrLastDocumentProtected),
		errors.Is(err, model.ErrNotFound):
		e.logger.Debug("action declined", "action", inv.Action, "err", err)
	default:
		e.logger.Error("action failed", "action", inv.Action, "err", err)
		e.setStatus(err.Error(), true)
	}
}
