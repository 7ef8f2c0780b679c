package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velo/internal/geom"
	"velo/internal/model"
)

func setWidth(t *testing.T, tab *model.Tab, id int, w float64) {
	t.Helper()
	require.NoError(t, tab.Live.UpdateNode(id, func(n *model.Node) {
		n.Rect.Width = geom.Abs(w)
	}))
	tab.Touch()
}

func width(t *testing.T, tab *model.Tab, id int) float64 {
	t.Helper()
	n, ok := tab.Live.Node(id)
	require.True(t, ok)
	return n.Rect.Width.Value
}

func TestHistoryIsBounded(t *testing.T) {
	tab := model.NewTab("T")
	tab.Live.PutNode(model.NewNode(1, 0, 0, 1, 1))
	for i := 0; i < 20; i++ {
		setWidth(t, tab, 1, float64(i+2))
		Commit(tab)
		assert.LessOrEqual(t, len(tab.History), model.MaxCheckpoints)
	}
	assert.Len(t, tab.History, model.MaxCheckpoints)
}

func TestUndoIsLIFO(t *testing.T) {
	tab := model.NewTab("T")
	tab.Live.PutNode(model.NewNode(1, 0, 0, 10, 10))
	require.True(t, Commit(tab))
	for _, w := range []float64{20, 30, 40} {
		setWidth(t, tab, 1, w)
		require.True(t, Commit(tab))
	}

	for _, want := range []float64{30, 20, 10} {
		require.True(t, Undo(tab))
		assert.Equal(t, want, width(t, tab, 1))
	}
}

func TestUndoSingleCheckpointIsNoop(t *testing.T) {
	tab := model.NewTab("T")
	assert.False(t, Undo(tab))
	assert.Len(t, tab.History, 1)
	assert.Zero(t, tab.Revision)
}

func TestUndoDiscardsUncommittedEdits(t *testing.T) {
	tab := model.NewTab("T")
	tab.Live.PutNode(model.NewNode(1, 0, 0, 100, 100))
	Commit(tab)

	n, _ := tab.Live.Node(1)
	n.SetRect(geom.ApplyResize(geom.BottomRight, geom.Point{X: 20, Y: 30}, n.Rect))
	tab.Live.PutNode(n)
	got, _ := tab.Live.Node(1)
	require.Equal(t, geom.Rect{Left: geom.Abs(0), Bottom: geom.Abs(-30), Width: geom.Abs(120), Height: geom.Abs(130)}, got.Rect)

	require.True(t, Undo(tab))
	got, _ = tab.Live.Node(1)
	assert.Equal(t, geom.Rect{Left: geom.Abs(0), Bottom: geom.Abs(0), Width: geom.Abs(100), Height: geom.Abs(100)}, got.Rect)
	assert.Len(t, tab.History, 2)
}

func TestCommitSkipsUnchanged(t *testing.T) {
	tab := model.NewTab("T")
	assert.False(t, Commit(tab))
	tab.Live.PutNode(model.NewNode(1, 0, 0, 10, 10))
	assert.True(t, Commit(tab))
	assert.False(t, Commit(tab))
	assert.Equal(t, 1, Depth(tab))
}

func TestCommittedCheckpointsAreSnapshots(t *testing.T) {
	tab := model.NewTab("T")
	tab.Live.PutNode(model.NewNode(1, 0, 0, 10, 10))
	Commit(tab)
	setWidth(t, tab, 1, 99)

	head, _ := tab.Head().Node(1)
	assert.Equal(t, 10.0, head.Rect.Width.Value)
}

func TestRedo(t *testing.T) {
	tab := model.NewTab("T")
	tab.Live.PutNode(model.NewNode(1, 0, 0, 10, 10))
	Commit(tab)
	setWidth(t, tab, 1, 20)
	Commit(tab)

	require.True(t, Undo(tab))
	require.True(t, Redo(tab))
	assert.Equal(t, 20.0, width(t, tab, 1))
	assert.False(t, Redo(tab))

	require.True(t, Undo(tab))
	setWidth(t, tab, 1, 50)
	Commit(tab)
	assert.False(t, Redo(tab), "a new commit drops the redo stack")
}

func TestReplace(t *testing.T) {
	tab := model.NewTab("T")
	tab.Live.PutNode(model.NewNode(1, 0, 0, 10, 10))
	Commit(tab)

	loaded := model.NewCheckpoint()
	loaded.PutNode(model.NewNode(7, 1, 1, 5, 5))
	Replace(tab, loaded)

	assert.Len(t, tab.History, 1)
	assert.Zero(t, Depth(tab))
	_, ok := tab.Live.Node(7)
	assert.True(t, ok)
	assert.NotSame(t, loaded, tab.Live)
}
