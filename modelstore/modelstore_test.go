package modelstore

import "bytes"
import "context"
import "io"
import "log/slog"
import "net/http"
import "net/http/httptest"
import "os"
import "path/filepath"
import "sync/atomic"
import "testing"

import "github.com/neurlang/genrecast/classifier"
import "github.com/stretchr/testify/require"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func modelBytes(t *testing.T) []byte {
	m := &classifier.Model{
		Vocabulary: classifier.Vocabulary{"blues", "jazz"},
		Input:      classifier.InputShape{Width: 1, Height: 1, Channels: 1},
		Layers: []classifier.Dense{{
			In: 1, Out: 2,
			Weights: []float32{-1, 1},
			Bias:    []float32{0, 0},
		}},
	}
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestSourceRemote(t *testing.T) {
	req := require.New(t)
	req.Equal("", Source{Path: "model.gcm"}.Remote())
	req.Equal("http://x/model", Source{URL: "http://x/model", FileID: "abc"}.Remote())
	req.Equal(DriveURL+"1vnR2jo9", Source{FileID: "1vnR2jo9"}.Remote())
}

func TestFetchDirect(t *testing.T) {
	req := require.New(t)
	data := modelBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(data)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "cache", "model.gcm")
	s := New(Source{URL: srv.URL + "/model", Path: path}, quietLogger())
	m, err := s.Load(context.Background())
	req.NoError(err)
	req.Equal(classifier.Vocabulary{"blues", "jazz"}, m.Vocabulary)

	got, err := os.ReadFile(path)
	req.NoError(err)
	req.Equal(data, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	req.NoError(err)
	req.Len(entries, 1)
}

func TestFetchFollowsConfirmationOnce(t *testing.T) {
	req := require.New(t)
	data := modelBytes(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("confirm") != "t0k3n" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			io.WriteString(w, `<a href="/uc?export=download&amp;confirm=t0k3n&amp;id=abc">Download anyway</a>`)
			return
		}
		if r.URL.Query().Get("id") != "abc" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "model.gcm")
	s := New(Source{URL: srv.URL + "/uc?export=download&id=abc", Path: path}, quietLogger())
	got, err := s.Fetch(context.Background())
	req.NoError(err)
	req.Equal(path, got)
	req.EqualValues(2, hits.Load())
}

func TestFetchGivesUpOnRepeatedHTML(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `confirm=again`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "model.gcm")
	_, err := New(Source{URL: srv.URL, Path: path}, quietLogger()).Fetch(context.Background())
	require.ErrorIs(t, err, classifier.ErrModelUnavailable)
	require.EqualValues(t, 2, hits.Load())
	require.NoFileExists(t, path)
}

func TestFetchRejectsBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not a model"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "model.gcm")
	_, err := New(Source{URL: srv.URL, Path: path}, quietLogger()).Fetch(context.Background())
	require.ErrorIs(t, err, classifier.ErrModelUnavailable)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(Source{URL: srv.URL, Path: filepath.Join(t.TempDir(), "m")}, quietLogger()).Fetch(context.Background())
	require.ErrorIs(t, err, classifier.ErrModelUnavailable)
}

func TestFetchUsesCache(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "model.gcm")
	req.NoError(os.WriteFile(path, modelBytes(t), 0o644))

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(modelBytes(t))
	}))
	defer srv.Close()

	_, err := New(Source{URL: srv.URL, Path: path}, quietLogger()).Fetch(context.Background())
	req.NoError(err)
	req.EqualValues(0, hits.Load())

	_, err = New(Source{URL: srv.URL, Path: path, Refresh: true}, quietLogger()).Fetch(context.Background())
	req.NoError(err)
	req.EqualValues(1, hits.Load())
}

func TestLocalOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gcm")
	_, err := New(Source{Path: path}, quietLogger()).Load(context.Background())
	require.ErrorIs(t, err, classifier.ErrModelUnavailable)

	require.NoError(t, os.WriteFile(path, modelBytes(t), 0o644))
	m, err := New(Source{Path: path}, quietLogger()).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, m.Layers, 1)
}
