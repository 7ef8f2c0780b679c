package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"velo/internal/history"
	"velo/internal/model"
	"velo/internal/store"
)

// Report tells the caller what a Process call did.
type Report struct {
	// Saved is the tab written this tick, if any.
	Saved *model.Tab
	// Reloaded is set when the active tab's live canvas may have changed
	// and visuals must be rebuilt.
	Reloaded bool
	// Dropped lists arrows removed because an endpoint was missing.
	Dropped []model.Arrow
	// SaveErr and LoadErr hold I/O failures. State is left untouched for
	// failed requests.
	SaveErr error
	LoadErr error
}

func (r Report) Err() error { return errors.Join(r.SaveErr, r.LoadErr) }

// Processor executes mailbox requests against a store.
type Processor struct {
	store  store.Store
	logger *log.Logger

	// images pasted since the last successful save
	staged map[uuid.UUID][]byte
}

func NewProcessor(s store.Store, logger *log.Logger) *Processor {
	return &Processor{store: s, logger: logger, staged: make(map[uuid.UUID][]byte)}
}

// StageImage queues encoded image bytes for the next save.
func (p *Processor) StageImage(id uuid.UUID, png []byte) {
	p.staged[id] = png
}

// Staged returns the bytes of an image not yet written, if any.
func (p *Processor) Staged(id uuid.UUID) ([]byte, bool) {
	b, ok := p.staged[id]
	return b, ok
}

// Process drains the save slot, then the load slot.
func (p *Processor) Process(ctx context.Context, app *model.App, mb *Mailbox) Report {
	var rep Report
	if req, ok := mb.TakeSave(); ok {
		tab, err := p.save(ctx, app, req)
		if err != nil {
			p.logger.Error("save failed", "err", err)
			rep.SaveErr = err
		}
		rep.Saved = tab
	}
	if req, ok := mb.TakeLoad(); ok {
		dropped, err := p.load(ctx, app, req)
		if err != nil {
			p.logger.Error("load failed", "err", err)
			rep.LoadErr = err
		}
		rep.Dropped = dropped
		rep.Reloaded = true
	}
	return rep
}

func resolve(app *model.App, docID, tabID uuid.UUID) (*model.Document, *model.Tab, error) {
	if docID == uuid.Nil {
		docID = app.Current
	}
	doc, err := app.Doc(docID)
	if err != nil {
		return nil, nil, err
	}
	if tabID == uuid.Nil {
		return doc, doc.ActiveTab(), nil
	}
	tab, err := doc.Tab(tabID)
	return doc, tab, err
}

func (p *Processor) save(ctx context.Context, app *model.App, req SaveRequest) (*model.Tab, error) {
	doc, tab, err := resolve(app, req.Doc, req.Tab)
	if err != nil {
		// The target went away between posting and processing.
		p.logger.Debug("save target gone", "doc", req.Doc, "tab", req.Tab)
		return nil, nil
	}

	if !tab.Synced {
		// Live is still the empty placeholder; writing it would replace the
		// stored canvas.
		p.logger.Debug("tab not loaded yet, saving index only", "doc", doc.Name, "tab", tab.Name)
		if err := p.store.SaveIndex(ctx, store.IndexOf(app)); err != nil {
			return nil, fmt.Errorf("save index: %w", err)
		}
		return nil, nil
	}

	for id, png := range p.staged {
		if err := p.store.SaveImage(ctx, id, png); err != nil {
			return nil, fmt.Errorf("save image %s: %w", id, err)
		}
		delete(p.staged, id)
	}
	if err := p.store.SaveCheckpoint(ctx, doc.ID, tab.ID, tab.Live); err != nil {
		return nil, fmt.Errorf("save tab %q: %w", tab.Name, err)
	}
	if err := p.store.SaveIndex(ctx, store.IndexOf(app)); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	committed := history.Commit(tab)
	tab.MarkSaved()
	p.logger.Info("saved", "doc", doc.Name, "tab", tab.Name, "nodes", tab.Live.NodeCount(), "checkpoint", committed)
	return tab, nil
}

func (p *Processor) load(ctx context.Context, app *model.App, req LoadRequest) ([]model.Arrow, error) {
	doc, tab, err := resolve(app, req.Doc, uuid.Nil)
	if err != nil {
		p.logger.Debug("load target gone", "doc", req.Doc)
		return nil, nil
	}

	if req.DropLastCheckpoint {
		if !history.Undo(tab) {
			p.logger.Debug("nothing to undo", "tab", tab.Name)
		}
		return nil, nil
	}

	if tab.Synced && tab.Dirty() {
		// Unsaved edits (for instance after a failed save) are newer than
		// anything in the store.
		p.logger.Debug("load skipped, tab has unsaved changes", "tab", tab.Name)
		return nil, nil
	}

	cp, err := p.store.LoadCheckpoint(ctx, doc.ID, tab.ID)
	if errors.Is(err, store.ErrNotFound) {
		p.logger.Debug("tab not stored yet", "tab", tab.Name)
		tab.Synced = true
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tab %q: %w", tab.Name, err)
	}

	dropped := cp.Prune()
	for _, a := range dropped {
		p.logger.Warn("dropping dangling arrow", "arrow", a.ID, "from", a.From.Node, "to", a.To.Node)
	}
	history.Replace(tab, cp)
	app.ObserveID(cp.MaxID())
	tab.Synced = true
	tab.MarkSaved()
	p.logger.Info("loaded", "doc", doc.Name, "tab", tab.Name, "nodes", cp.NodeCount())
	return dropped, nil
}
