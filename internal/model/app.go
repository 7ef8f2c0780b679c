package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// App is the whole application state: every open document, which one is
// current, and the id counter for nodes and arrows.
type App struct {
	Docs    map[uuid.UUID]*Document
	Order   []uuid.UUID
	Current uuid.UUID

	nextID int
}

// NewApp returns an App with a single empty document.
func NewApp() *App {
	a := &App{Docs: make(map[uuid.UUID]*Document), nextID: 1}
	a.NewDocument("")
	return a
}

// NextID hands out a fresh node/arrow id.
func (a *App) NextID() int {
	id := a.nextID
	a.nextID++
	return id
}

// ObserveID keeps the counter ahead of ids that came from storage.
func (a *App) ObserveID(id int) {
	if id >= a.nextID {
		a.nextID = id + 1
	}
}

func (a *App) Doc(id uuid.UUID) (*Document, error) {
	d, ok := a.Docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return d, nil
}

func (a *App) CurrentDoc() *Document {
	return a.Docs[a.Current]
}

// ActiveTab is the active tab of the current document.
func (a *App) ActiveTab() *Tab {
	if d := a.CurrentDoc(); d != nil {
		return d.ActiveTab()
	}
	return nil
}

// Documents returns the documents in display order.
func (a *App) Documents() []*Document {
	out := make([]*Document, 0, len(a.Order))
	for _, id := range a.Order {
		out = append(out, a.Docs[id])
	}
	return out
}

// NewDocument adds a document and makes it current.
func (a *App) NewDocument(name string) *Document {
	if name = strings.TrimSpace(name); name == "" {
		name = fmt.Sprintf("Untitled %d", len(a.Order)+1)
	}
	d := NewDocument(name)
	a.Insert(d)
	a.Current = d.ID
	return d
}

// Insert adds an existing document, for instance one read from storage.
func (a *App) Insert(d *Document) {
	if _, ok := a.Docs[d.ID]; !ok {
		a.Order = append(a.Order, d.ID)
	}
	a.Docs[d.ID] = d
	if a.Current == uuid.Nil {
		a.Current = d.ID
	}
}

func (a *App) SelectDocument(id uuid.UUID) error {
	if _, err := a.Doc(id); err != nil {
		return err
	}
	a.Current = id
	return nil
}

// DeleteDocument removes a document. The last one cannot be deleted.
func (a *App) DeleteDocument(id uuid.UUID) error {
	i := slices.Index(a.Order, id)
	if i < 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if len(a.Order) < 2 {
		return ErrLastDocumentProtected
	}
	delete(a.Docs, id)
	a.Order = slices.Delete(a.Order, i, i+1)
	if a.Current == id {
		a.Current = a.Order[max(i-1, 0)]
	}
	return nil
}

func (a *App) RenameDocument(id uuid.UUID, name string) error {
	d, err := a.Doc(id)
	if err != nil {
		return err
	}
	if name = strings.TrimSpace(name); name == "" {
		return ErrEmptyName
	}
	d.Name = name
	return nil
}

// Reset drops every document. Used before installing a loaded index.
func (a *App) Reset() {
	a.Docs = make(map[uuid.UUID]*Document)
	a.Order = nil
	a.Current = uuid.Nil
}
