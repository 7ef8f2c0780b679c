package persist

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velo/internal/geom"
	"velo/internal/model"
	"velo/internal/store"
)

// recordingStore counts saves per tab and can be told to fail.
type recordingStore struct {
	*store.MemoryStore
	saves    []uuid.UUID
	failSave bool
	failLoad bool
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: store.NewMemoryStore()}
}

func (s *recordingStore) SaveCheckpoint(ctx context.Context, doc, tab uuid.UUID, cp *model.Checkpoint) error {
	if s.failSave {
		return errors.New("disk full")
	}
	s.saves = append(s.saves, tab)
	return s.MemoryStore.SaveCheckpoint(ctx, doc, tab, cp)
}

func (s *recordingStore) LoadCheckpoint(ctx context.Context, doc, tab uuid.UUID) (*model.Checkpoint, error) {
	if s.failLoad {
		return nil, errors.New("io error")
	}
	return s.MemoryStore.LoadCheckpoint(ctx, doc, tab)
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestMailboxOverwrites(t *testing.T) {
	var mb Mailbox
	a, b := uuid.New(), uuid.New()
	mb.PostSave(SaveRequest{Tab: a})
	mb.PostSave(SaveRequest{Tab: b})

	got, ok := mb.TakeSave()
	require.True(t, ok)
	assert.Equal(t, b, got.Tab)
	_, ok = mb.TakeSave()
	assert.False(t, ok)
}

func TestMailboxConcurrentPosts(t *testing.T) {
	var mb Mailbox
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mb.PostLoad(LoadRequest{})
		}()
	}
	wg.Wait()
	_, ok := mb.TakeLoad()
	assert.True(t, ok)
	_, ok = mb.TakeLoad()
	assert.False(t, ok)
}

func TestCoalescedSaveRunsOnce(t *testing.T) {
	app := model.NewApp()
	doc := app.CurrentDoc()
	tabA := doc.Tabs[0]
	tabB := doc.AddTab("")

	s := newRecordingStore()
	p := NewProcessor(s, quietLogger())
	var mb Mailbox
	mb.PostSave(SaveRequest{Tab: tabA.ID})
	mb.PostSave(SaveRequest{Tab: tabB.ID})

	rep := p.Process(context.Background(), app, &mb)
	require.NoError(t, rep.Err())
	assert.Equal(t, []uuid.UUID{tabB.ID}, s.saves)
	assert.Same(t, tabB, rep.Saved)

	rep = p.Process(context.Background(), app, &mb)
	assert.Nil(t, rep.Saved)
	assert.Len(t, s.saves, 1)
}

func TestSaveCommitsAndMarksSaved(t *testing.T) {
	app := model.NewApp()
	tab := app.ActiveTab()
	tab.Live.PutNode(model.NewNode(app.NextID(), 0, 0, 10, 10))
	tab.Touch()

	s := newRecordingStore()
	p := NewProcessor(s, quietLogger())
	var mb Mailbox
	mb.PostSave(SaveRequest{})
	rep := p.Process(context.Background(), app, &mb)

	require.NoError(t, rep.Err())
	assert.False(t, tab.Dirty())
	assert.Len(t, tab.History, 2)
	idx, err := s.LoadIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, app.Current, idx.Current)
}

func TestFailedSaveLeavesStateUnsaved(t *testing.T) {
	app := model.NewApp()
	tab := app.ActiveTab()
	tab.Live.PutNode(model.NewNode(app.NextID(), 0, 0, 10, 10))
	tab.Touch()

	s := newRecordingStore()
	s.failSave = true
	p := NewProcessor(s, quietLogger())
	var mb Mailbox
	mb.PostSave(SaveRequest{})
	rep := p.Process(context.Background(), app, &mb)

	assert.Error(t, rep.Err())
	assert.True(t, tab.Dirty())
	assert.Len(t, tab.History, 1)

	_, ok := mb.TakeSave()
	assert.False(t, ok, "failed requests are not retried")
}

func TestFailedLoadKeepsHistory(t *testing.T) {
	app := model.NewApp()
	tab := app.ActiveTab()
	tab.Live.PutNode(model.NewNode(1, 0, 0, 10, 10))
	tab.History = append(tab.History, tab.Live.Clone())

	s := newRecordingStore()
	s.failLoad = true
	p := NewProcessor(s, quietLogger())
	var mb Mailbox
	mb.PostLoad(LoadRequest{})
	rep := p.Process(context.Background(), app, &mb)

	assert.Error(t, rep.Err())
	assert.True(t, rep.Reloaded)
	assert.Len(t, tab.History, 2)
	assert.Equal(t, 1, tab.Live.NodeCount())
}

func TestLoadReplacesHistory(t *testing.T) {
	ctx := context.Background()
	app := model.NewApp()
	doc, tab := app.CurrentDoc(), app.ActiveTab()

	stored := model.NewCheckpoint()
	stored.PutNode(model.NewNode(41, 5, 5, 20, 20))
	s := newRecordingStore()
	require.NoError(t, s.MemoryStore.SaveCheckpoint(ctx, doc.ID, tab.ID, stored))

	tab.History = append(tab.History, model.NewCheckpoint(), model.NewCheckpoint())
	p := NewProcessor(s, quietLogger())
	var mb Mailbox
	mb.PostLoad(LoadRequest{})
	rep := p.Process(ctx, app, &mb)

	require.NoError(t, rep.Err())
	assert.Len(t, tab.History, 1)
	_, ok := tab.Live.Node(41)
	assert.True(t, ok)
	assert.Equal(t, 42, app.NextID())
}

func TestLoadMissingTabKeepsMemory(t *testing.T) {
	app := model.NewApp()
	tab := app.ActiveTab()
	tab.Live.PutNode(model.NewNode(1, 0, 0, 10, 10))

	p := NewProcessor(newRecordingStore(), quietLogger())
	var mb Mailbox
	mb.PostLoad(LoadRequest{})
	rep := p.Process(context.Background(), app, &mb)

	require.NoError(t, rep.Err())
	assert.Equal(t, 1, tab.Live.NodeCount())
}

func TestDropLastCheckpointUndoes(t *testing.T) {
	app := model.NewApp()
	tab := app.ActiveTab()
	tab.Live.PutNode(model.NewNode(1, 0, 0, 100, 100))
	tab.History = append(tab.History, tab.Live.Clone())
	require.NoError(t, tab.Live.UpdateNode(1, func(n *model.Node) { n.Rect.Width = geom.Abs(120) }))
	tab.History = append(tab.History, tab.Live.Clone())

	p := NewProcessor(newRecordingStore(), quietLogger())
	var mb Mailbox
	mb.PostLoad(LoadRequest{DropLastCheckpoint: true})
	rep := p.Process(context.Background(), app, &mb)

	require.NoError(t, rep.Err())
	n, _ := tab.Live.Node(1)
	assert.Equal(t, geom.Abs(100), n.Rect.Width)
	assert.Len(t, tab.History, 2)
}

func TestSaveFlushesStagedImages(t *testing.T) {
	ctx := context.Background()
	app := model.NewApp()
	s := newRecordingStore()
	p := NewProcessor(s, quietLogger())
	id := uuid.New()
	p.StageImage(id, []byte("png"))

	var mb Mailbox
	mb.PostSave(SaveRequest{})
	require.NoError(t, p.Process(ctx, app, &mb).Err())

	got, err := s.LoadImage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), got)
	_, staged := p.Staged(id)
	assert.False(t, staged)
}

func TestSaveForDeletedTabIsIgnored(t *testing.T) {
	app := model.NewApp()
	s := newRecordingStore()
	p := NewProcessor(s, quietLogger())
	var mb Mailbox
	mb.PostSave(SaveRequest{Tab: uuid.New()})
	rep := p.Process(context.Background(), app, &mb)
	require.NoError(t, rep.Err())
	assert.Empty(t, s.saves)
}

func TestLoadWarnsAboutDanglingArrows(t *testing.T) {
	ctx := context.Background()
	app := model.NewApp()
	tab := app.ActiveTab()

	s := newRecordingStore()
	stored := model.NewCheckpoint()
	stored.PutNode(model.NewNode(1, 0, 0, 10, 10))
	stored.PutArrow(model.Arrow{ID: 2, From: model.End{Node: 1, Anchor: geom.Top}, To: model.End{Node: 7, Anchor: geom.Left}})
	require.NoError(t, s.MemoryStore.SaveCheckpoint(ctx, app.Current, tab.ID, stored))

	var buf bytes.Buffer
	p := NewProcessor(s, log.New(&buf))
	var mb Mailbox
	mb.PostLoad(LoadRequest{})
	rep := p.Process(ctx, app, &mb)

	require.NoError(t, rep.Err())
	require.Len(t, rep.Dropped, 1)
	assert.Equal(t, 2, rep.Dropped[0].ID)
	assert.Zero(t, tab.Live.ArrowCount())
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "dropping dangling arrow")
}

func TestSaveBeforeLoadKeepsStoredCanvas(t *testing.T) {
	ctx := context.Background()
	app := model.NewApp()
	tab := app.ActiveTab()
	tab.Live.PutNode(model.NewNode(app.NextID(), 0, 0, 10, 10))

	s := newRecordingStore()
	require.NoError(t, s.SaveCheckpoint(ctx, app.Current, tab.ID, tab.Live))
	require.NoError(t, s.SaveIndex(ctx, store.IndexOf(app)))
	s.saves = nil

	// A restart rebuilds the tree from the index with empty canvases.
	restored := model.NewApp()
	idx, err := s.LoadIndex(ctx)
	require.NoError(t, err)
	idx.Restore(restored)
	require.False(t, restored.ActiveTab().Synced)

	p := NewProcessor(s, quietLogger())
	var mb Mailbox
	mb.PostSave(SaveRequest{})
	mb.PostLoad(LoadRequest{})
	rep := p.Process(ctx, restored, &mb)

	require.NoError(t, rep.Err())
	assert.Empty(t, s.saves)
	assert.Nil(t, rep.Saved)
	assert.True(t, restored.ActiveTab().Synced)
	assert.Equal(t, 1, restored.ActiveTab().Live.NodeCount())
	cp, err := s.LoadCheckpoint(ctx, app.Current, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cp.NodeCount())
}

func TestLoadMarksMissingTabSynced(t *testing.T) {
	app := model.NewApp()
	tab := app.ActiveTab()
	tab.Synced = false

	p := NewProcessor(newRecordingStore(), quietLogger())
	var mb Mailbox
	mb.PostLoad(LoadRequest{})
	require.NoError(t, p.Process(context.Background(), app, &mb).Err())
	assert.True(t, tab.Synced)
}
