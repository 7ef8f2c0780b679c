// Package model is the document tree: an App owns Documents, a Document owns
// Tabs, a Tab owns its live canvas and its checkpoint history.
package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// MaxCheckpoints bounds every tab's undo history.
const MaxCheckpoints = 7

type Tab struct {
	ID     uuid.UUID
	Name   string
	Active bool

	// Live is the canvas being edited. History holds committed clones,
	// oldest first; the last entry is the head.
	Live    *Checkpoint
	History []*Checkpoint
	Redo    []*Checkpoint

	// Revision counts live mutations; SavedRevision is the revision last
	// written to the store.
	Revision      uint64
	SavedRevision uint64

	// Synced is false while Live has not been read back from the store,
	// as for tabs restored from the index. Such a tab must not be saved.
	Synced bool
}

// NewTab returns an inactive tab with one empty checkpoint.
func NewTab(name string) *Tab {
	return &Tab{
		ID:      uuid.New(),
		Name:    name,
		Live:    NewCheckpoint(),
		History: []*Checkpoint{NewCheckpoint()},
		Synced:  true,
	}
}

// Head is the newest committed checkpoint.
func (t *Tab) Head() *Checkpoint {
	if len(t.History) == 0 {
		return nil
	}
	return t.History[len(t.History)-1]
}

// Touch records a live mutation.
func (t *Tab) Touch() { t.Revision++ }

func (t *Tab) Dirty() bool { return t.Revision != t.SavedRevision }

func (t *Tab) MarkSaved() { t.SavedRevision = t.Revision }

type Document struct {
	ID   uuid.UUID
	Name string
	Tabs []*Tab
}

// NewDocument returns a document holding one active tab.
func NewDocument(name string) *Document {
	first := NewTab("Tab 1")
	first.Active = true
	return &Document{ID: uuid.New(), Name: name, Tabs: []*Tab{first}}
}

// ActiveTab returns the active tab. If the invariant was broken by a bad
// load it repairs it by activating the first tab.
func (d *Document) ActiveTab() *Tab {
	for _, t := range d.Tabs {
		if t.Active {
			return t
		}
	}
	if len(d.Tabs) == 0 {
		return nil
	}
	d.Tabs[0].Active = true
	return d.Tabs[0]
}

func (d *Document) Tab(id uuid.UUID) (*Tab, error) {
	for _, t := range d.Tabs {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("tab %s: %w", id, ErrNotFound)
}

// NextTabName follows the "Tab N" sequence.
func (d *Document) NextTabName() string {
	return fmt.Sprintf("Tab %d", len(d.Tabs)+1)
}

// AddTab appends a tab and makes it the active one.
func (d *Document) AddTab(name string) *Tab {
	if name = strings.TrimSpace(name); name == "" {
		name = d.NextTabName()
	}
	t := NewTab(name)
	d.Tabs = append(d.Tabs, t)
	d.activate(t)
	return t
}

// SelectTab activates the tab with the given id.
func (d *Document) SelectTab(id uuid.UUID) error {
	t, err := d.Tab(id)
	if err != nil {
		return err
	}
	d.activate(t)
	return nil
}

func (d *Document) activate(t *Tab) {
	for _, o := range d.Tabs {
		o.Active = o == t
	}
}

// DeleteTab removes a tab. The last tab cannot be deleted. Deleting the
// active tab activates its left neighbour, or the new first tab.
func (d *Document) DeleteTab(id uuid.UUID) error {
	i := slices.IndexFunc(d.Tabs, func(t *Tab) bool { return t.ID == id })
	if i < 0 {
		return fmt.Errorf("tab %s: %w", id, ErrNotFound)
	}
	if len(d.Tabs) < 2 {
		return ErrLastTabProtected
	}
	wasActive := d.Tabs[i].Active
	d.Tabs = slices.Delete(d.Tabs, i, i+1)
	if wasActive {
		d.activate(d.Tabs[max(i-1, 0)])
	}
	return nil
}

func (d *Document) RenameTab(id uuid.UUID, name string) error {
	t, err := d.Tab(id)
	if err != nil {
		return err
	}
	if name = strings.TrimSpace(name); name == "" {
		return ErrEmptyName
	}
	t.Name = name
	return nil
}
