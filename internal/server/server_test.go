package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velo/internal/model"
	"velo/internal/store"
)

type fixture struct {
	srv *httptest.Server
	app *model.App
	img uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()

	app := model.NewApp()
	tab := app.ActiveTab()
	n := model.NewNode(app.NextID(), 0, 0, 100, 60)
	n.Text = "hello"
	tab.Live.PutNode(n)
	require.NoError(t, st.SaveCheckpoint(ctx, app.Current, tab.ID, tab.Live))
	require.NoError(t, st.SaveIndex(ctx, store.IndexOf(app)))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	img := uuid.New()
	require.NoError(t, st.SaveImage(ctx, img, buf.Bytes()))

	srv := httptest.NewServer(New(st, log.New(io.Discard)).Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, app: app, img: img}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestListDocuments(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/documents")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var idx store.Index
	require.NoError(t, json.Unmarshal(body, &idx))
	require.Len(t, idx.Documents, 1)
	assert.Equal(t, "Untitled 1", idx.Documents[0].Name)
	assert.Equal(t, f.app.Current, idx.Current)
}

func TestGetDocumentAndTab(t *testing.T) {
	f := newFixture(t)
	doc := f.app.CurrentDoc()
	tab := doc.ActiveTab()

	resp, body := f.get(t, "/documents/"+doc.ID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entry store.DocumentEntry
	require.NoError(t, json.Unmarshal(body, &entry))
	assert.Equal(t, tab.ID, entry.Tabs[0].ID)

	resp, body = f.get(t, "/documents/"+doc.ID.String()+"/tabs/"+tab.ID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cp, err := store.DecodeCheckpoint(body)
	require.NoError(t, err)
	assert.Equal(t, 1, cp.NodeCount())

	resp, body = f.get(t, "/documents/"+doc.ID.String()+"/tabs/"+tab.ID.String()+".png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	_, err = png.Decode(bytes.NewReader(body))
	assert.NoError(t, err)
}

func TestErrors(t *testing.T) {
	f := newFixture(t)
	doc := f.app.Current.String()
	tests := []struct {
		path string
		code int
	}{
		{"/documents/not-a-uuid", http.StatusBadRequest},
		{"/documents/" + uuid.NewString(), http.StatusNotFound},
		{"/documents/" + doc + "/tabs/nope", http.StatusBadRequest},
		{"/documents/" + doc + "/tabs/" + uuid.NewString(), http.StatusNotFound},
		{"/images/" + uuid.NewString(), http.StatusNotFound},
		{"/images/zzz", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := f.get(t, tt.path)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Contains(t, string(body), `"error":true`)
		})
	}
}

func TestImage(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/images/"+f.img.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(body))
	assert.NoError(t, err)
}

func TestEmptyStore(t *testing.T) {
	srv := httptest.NewServer(New(store.NewMemoryStore(), log.New(io.Discard)).Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/documents")
	require.NoError(t, err)
	defer resp.Body.Close()
	var idx store.Index
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&idx))
	assert.Empty(t, idx.Documents)
}
