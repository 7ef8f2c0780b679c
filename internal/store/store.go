// Package store persists checkpoints, the document index and pasted images.
//
// Backends:
//   - file: JSON files under a data directory, for the desktop editor
//   - redis: shared storage so several editors or the HTTP API can read the
//     same documents
//   - memory: tests and throwaway sessions
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"velo/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence collaborator of the engine. Every call is
// synchronous and bounded to a single record.
type Store interface {
	SaveCheckpoint(ctx context.Context, doc, tab uuid.UUID, cp *model.Checkpoint) error
	LoadCheckpoint(ctx context.Context, doc, tab uuid.UUID) (*model.Checkpoint, error)

	SaveIndex(ctx context.Context, idx Index) error
	LoadIndex(ctx context.Context) (Index, error)

	SaveImage(ctx context.Context, id uuid.UUID, png []byte) error
	LoadImage(ctx context.Context, id uuid.UUID) ([]byte, error)

	DeleteTab(ctx context.Context, doc, tab uuid.UUID) error
	DeleteDocument(ctx context.Context, doc uuid.UUID) error

	Close() error
}

// Index describes the document tree without canvas contents.
type Index struct {
	Current   uuid.UUID       `json:"current"`
	Documents []DocumentEntry `json:"documents"`
}

type DocumentEntry struct {
	ID   uuid.UUID  `json:"id"`
	Name string     `json:"name"`
	Tabs []TabEntry `json:"tabs"`
}

type TabEntry struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

// IndexOf captures the document tree of app.
func IndexOf(app *model.App) Index {
	idx := Index{Current: app.Current}
	for _, d := range app.Documents() {
		e := DocumentEntry{ID: d.ID, Name: d.Name}
		for _, t := range d.Tabs {
			e.Tabs = append(e.Tabs, TabEntry{ID: t.ID, Name: t.Name, Active: t.Active})
		}
		idx.Documents = append(idx.Documents, e)
	}
	return idx
}

// Find returns the entry for doc.
func (idx Index) Find(doc uuid.UUID) (DocumentEntry, bool) {
	for _, d := range idx.Documents {
		if d.ID == doc {
			return d, true
		}
	}
	return DocumentEntry{}, false
}

// Restore rebuilds empty documents from the index. Canvas contents are
// loaded per tab on demand.
func (idx Index) Restore(app *model.App) {
	app.Reset()
	for _, e := range idx.Documents {
		d := &model.Document{ID: e.ID, Name: e.Name}
		for _, te := range e.Tabs {
			t := model.NewTab(te.Name)
			t.ID = te.ID
			t.Active = te.Active
			t.Synced = false
			d.Tabs = append(d.Tabs, t)
		}
		if len(d.Tabs) == 0 {
			d.AddTab("")
		}
		_ = d.SelectTab(d.ActiveTab().ID)
		app.Insert(d)
	}
	if _, ok := app.Docs[idx.Current]; ok {
		app.Current = idx.Current
	}
}
