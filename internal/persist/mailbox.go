// Package persist turns save/load requests into store I/O. Requests sit in
// single-slot mailboxes: posting overwrites whatever is pending, and the
// processor drains each slot at most once per tick.
package persist

import (
	"sync"

	"github.com/google/uuid"
)

// SaveRequest asks for a tab to be written. uuid.Nil means the current
// document or its active tab.
type SaveRequest struct {
	Doc uuid.UUID
	Tab uuid.UUID
}

// LoadRequest asks for the active tab of Doc to be (re)loaded. With
// DropLastCheckpoint the newest checkpoint is discarded in memory instead of
// reading from the store.
type LoadRequest struct {
	Doc                uuid.UUID
	DropLastCheckpoint bool
}

type Mailbox struct {
	mu   sync.Mutex
	save *SaveRequest
	load *LoadRequest
}

func (m *Mailbox) PostSave(r SaveRequest) {
	m.mu.Lock()
	m.save = &r
	m.mu.Unlock()
}

func (m *Mailbox) PostLoad(r LoadRequest) {
	m.mu.Lock()
	m.load = &r
	m.mu.Unlock()
}

// TakeSave returns the pending save request and empties the slot.
func (m *Mailbox) TakeSave() (SaveRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.save
	m.save = nil
	if r == nil {
		return SaveRequest{}, false
	}
	return *r, true
}

// TakeLoad returns the pending load request and empties the slot.
func (m *Mailbox) TakeLoad() (LoadRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.load
	m.load = nil
	if r == nil {
		return LoadRequest{}, false
	}
	return *r, true
}

// Pending reports whether either slot is occupied.
func (m *Mailbox) Pending() (save, load bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save != nil, m.load != nil
}
