// Package history keeps each tab's bounded stack of checkpoints.
package history

import "velo/internal/model"

// Commit snapshots the tab's live canvas onto its history. Nothing is
// recorded when the live canvas equals the head. Returns whether a
// checkpoint was added.
func Commit(t *model.Tab) bool {
	if head := t.Head(); head != nil && head.Equal(t.Live) {
		return false
	}
	push(t, t.Live.Clone())
	t.Redo = nil
	return true
}

func push(t *model.Tab, cp *model.Checkpoint) {
	t.History = append(t.History, cp)
	if over := len(t.History) - model.MaxCheckpoints; over > 0 {
		clear(t.History[:over])
		t.History = t.History[over:]
	}
}

// Undo rolls the live canvas back. Uncommitted edits are discarded first;
// otherwise the head is popped and the previous checkpoint becomes live. A
// tab with a single checkpoint and no pending edits cannot undo.
func Undo(t *model.Tab) bool {
	head := t.Head()
	if head == nil {
		return false
	}
	if !head.Equal(t.Live) {
		t.Live = head.Clone()
		t.Touch()
		return true
	}
	if len(t.History) < 2 {
		return false
	}
	t.Redo = append(t.Redo, head)
	t.History = t.History[:len(t.History)-1]
	t.Live = t.Head().Clone()
	t.Touch()
	return true
}

// Redo re-applies the checkpoint most recently removed by Undo.
func Redo(t *model.Tab) bool {
	if len(t.Redo) == 0 {
		return false
	}
	last := len(t.Redo) - 1
	cp := t.Redo[last]
	t.Redo = t.Redo[:last]
	push(t, cp)
	t.Live = cp.Clone()
	t.Touch()
	return true
}

// Replace installs cp as the tab's only checkpoint. Used after loading from
// storage, so earlier undo depth is gone.
func Replace(t *model.Tab, cp *model.Checkpoint) {
	t.History = []*model.Checkpoint{cp}
	t.Redo = nil
	t.Live = cp.Clone()
}

// Depth is the number of checkpoints Undo can still step back through.
func Depth(t *model.Tab) int {
	return max(len(t.History)-1, 0)
}
