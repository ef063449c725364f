package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neurlang/genrecast/audio"
	"github.com/neurlang/genrecast/classifier"
	"github.com/neurlang/genrecast/content"
	"github.com/neurlang/genrecast/mel"
	"github.com/neurlang/genrecast/pipeline"
	"github.com/stretchr/testify/require"
)

var vocab = classifier.Vocabulary{"blues", "classical", "country", "disco", "hiphop", "jazz", "metal", "pop", "reggae", "rock"}

// jazzModel ignores its input and always favours jazz.
func jazzModel() *classifier.Model {
	bias := make([]float32, len(vocab))
	bias[vocab.Index("jazz")] = 5
	return &classifier.Model{
		Vocabulary: vocab,
		Input:      classifier.InputShape{Width: 1, Height: 1, Channels: 1},
		Layers: []classifier.Dense{{
			In: 1, Out: len(vocab),
			Weights: make([]float32, len(vocab)),
			Bias:    bias,
		}},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, handle *classifier.ModelHandle) (*httptest.Server, string) {
	dir := t.TempDir()
	p := pipeline.New(mel.NewMel(), handle, pipeline.Options{ArtifactDir: dir}, quietLogger())
	srv := httptest.NewServer(New(p, handle, Options{MaxMemory: 1 << 20}, quietLogger()).Handler())
	t.Cleanup(srv.Close)
	return srv, dir
}

func wavBytes(t *testing.T) []byte {
	t.Helper()
	samples := make([]float64, 22050)
	for i := range samples {
		samples[i] = 0.3 * math.Sin(2*math.Pi*330*float64(i)/22050)
	}
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, audio.SaveWav(path, samples, 22050))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func upload(t *testing.T, url, field, filename string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		part.Write(data)
	} else {
		require.NoError(t, mw.WriteField("note", "nothing attached"))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestIndex(t *testing.T) {
	srv, _ := newTestServer(t, classifier.NewStaticHandle(jazzModel()))
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	require.Contains(t, body, `accept=".mp3,.wav"`)
	require.Contains(t, body, `name="audio"`)
}

func TestClassifyPage(t *testing.T) {
	req := require.New(t)
	srv, dir := newTestServer(t, classifier.NewStaticHandle(jazzModel()))

	resp := upload(t, srv.URL+"/classify", "audio", "song.wav", wavBytes(t))
	req.Equal(http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	req.Contains(body, `<strong id="label">jazz</strong>`)
	req.Contains(body, "data:image/png;base64,")
	req.Contains(body, "재즈~~")
	req.Contains(body, "https://www.youtube.com/embed/Cv9NSR-2DwM")
	req.Contains(body, "https://i.ibb.co/w6K3sNw/10d723cdc89427f05a38f350103ed792.jpg")
	req.Equal(len(vocab), strings.Count(body, `class="fill"`))

	entries, err := os.ReadDir(dir)
	req.NoError(err)
	req.Empty(entries)
}

func TestClassifyAPI(t *testing.T) {
	req := require.New(t)
	srv, dir := newTestServer(t, classifier.NewStaticHandle(jazzModel()))

	resp := upload(t, srv.URL+"/api/classify", "audio", "song.wav", wavBytes(t))
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("application/json", resp.Header.Get("Content-Type"))

	var out classifyResponse
	req.NoError(json.NewDecoder(resp.Body).Decode(&out))
	req.Equal("jazz", out.Label)
	req.Equal("song.wav", out.Filename)
	req.NotEmpty(out.ID)
	req.Len(out.Probabilities, len(vocab))
	var sum float64
	for i, sc := range out.Probabilities {
		req.Equal(vocab[i], sc.Label)
		sum += sc.Probability
	}
	req.InDelta(1, sum, 1e-4)
	req.Equal(content.Resolve("jazz"), out.Content)

	raw, err := base64.StdEncoding.DecodeString(out.Spectrogram)
	req.NoError(err)
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	req.NoError(err)
	req.Equal(mel.FigureWidth, cfg.Width)
	req.Equal(mel.FigureHeight, cfg.Height)

	entries, err := os.ReadDir(dir)
	req.NoError(err)
	req.Empty(entries)
}

func TestClassifyErrors(t *testing.T) {
	srv, _ := newTestServer(t, classifier.NewStaticHandle(jazzModel()))
	garbage := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0xfe}, 300)

	cases := []struct {
		name     string
		field    string
		filename string
		data     []byte
		status   int
	}{
		{"garbage", "audio", "noise.wav", garbage, http.StatusUnprocessableEntity},
		{"extension", "audio", "song.ogg", wavBytes(t), http.StatusUnprocessableEntity},
		{"missing", "audio", "", nil, http.StatusBadRequest},
		{"wrong-field", "file", "song.wav", wavBytes(t), http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := upload(t, srv.URL+"/api/classify", c.field, c.filename, c.data)
			require.Equal(t, c.status, resp.StatusCode)
			var out map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			require.NotEmpty(t, out["error"])

			resp = upload(t, srv.URL+"/classify", c.field, c.filename, c.data)
			require.Equal(t, c.status, resp.StatusCode)
			require.Contains(t, readBody(t, resp), `class="error"`)
		})
	}
}

func TestClassifyWithoutModel(t *testing.T) {
	handle := classifier.NewModelHandle(func(ctx context.Context) (*classifier.Model, error) {
		return jazzModel(), nil
	})
	srv, _ := newTestServer(t, handle)

	resp := upload(t, srv.URL+"/api/classify", "audio", "song.wav", wavBytes(t))
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, health.StatusCode)
}

func TestGenresAndHealth(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestServer(t, classifier.NewStaticHandle(jazzModel()))

	resp, err := http.Get(srv.URL + "/api/genres")
	req.NoError(err)
	defer resp.Body.Close()
	var out struct {
		Genres  []string `json:"genres"`
		Curated []string `json:"curated"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&out))
	req.Equal([]string(vocab), out.Genres)
	req.ElementsMatch([]string{"blues", "classical", "country", "disco", "hiphop", "jazz"}, out.Curated)

	health, err := http.Get(srv.URL + "/healthz")
	req.NoError(err)
	defer health.Body.Close()
	req.Equal(http.StatusOK, health.StatusCode)
}

func TestMetricsAndCORS(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestServer(t, classifier.NewStaticHandle(jazzModel()))

	r, err := http.NewRequest("GET", srv.URL+"/healthz", nil)
	req.NoError(err)
	r.Header.Set("Origin", "https://example.com")
	resp, err := http.DefaultClient.Do(r)
	req.NoError(err)
	resp.Body.Close()
	req.Equal("*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(srv.URL + "/metrics")
	req.NoError(err)
	defer resp.Body.Close()
	body := readBody(t, resp)
	req.Contains(body, `genrecast_http_requests_total{method="GET",path="/healthz",status="200"}`)
}

func TestRespondJSONLogsEncodeFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := New(nil, classifier.NewStaticHandle(jazzModel()), Options{}, logger)

	rec := httptest.NewRecorder()
	s.respondJSON(rec, http.StatusOK, map[string]float64{"confidence": math.Inf(1)})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, logs.String(), "Encode response failed")
	require.Contains(t, logs.String(), "unsupported value")
}
