package modelstore

import "context"
import "errors"
import "fmt"
import "io"
import "log/slog"
import "net/http"
import "net/http/cookiejar"
import "net/url"
import "os"
import "path/filepath"
import "regexp"
import "strings"
import "time"

import "github.com/neurlang/genrecast/classifier"

// DriveURL is the direct download endpoint for a Drive file identifier.
const DriveURL = "https://drive.google.com/uc?export=download&id="

var (
	confirmRe = regexp.MustCompile(`confirm=([0-9A-Za-z_-]+)`)
	uuidRe    = regexp.MustCompile(`name="uuid" value="([0-9A-Za-z_-]+)"`)
)

// Source describes where the model comes from.
type Source struct {
	URL     string
	FileID  string
	Path    string
	Timeout time.Duration
	// Refresh forces a download even when Path already exists.
	Refresh bool
}

// Remote returns the download URL, or "" when the model is local only.
func (s Source) Remote() string {
	if s.URL != "" {
		return s.URL
	}
	if s.FileID != "" {
		return DriveURL + url.QueryEscape(s.FileID)
	}
	return ""
}

// Store fetches and caches the model file.
type Store struct {
	src    Source
	http   *http.Client
	logger *slog.Logger
}

func New(src Source, logger *slog.Logger) *Store {
	jar, _ := cookiejar.New(nil)
	return &Store{
		src:    src,
		http:   &http.Client{Timeout: src.Timeout, Jar: jar},
		logger: logger,
	}
}

// Path returns the local cache path.
func (s *Store) Path() string {
	return s.src.Path
}

// Fetch makes sure the model file is present locally and returns its path.
func (s *Store) Fetch(ctx context.Context) (string, error) {
	remote := s.src.Remote()
	if remote == "" || (!s.src.Refresh && exists(s.src.Path)) {
		if !exists(s.src.Path) {
			return "", fmt.Errorf("%w: no model at %s and no remote source", classifier.ErrModelUnavailable, s.src.Path)
		}
		s.logger.Info("Using cached model", "path", s.src.Path)
		return s.src.Path, nil
	}

	start := time.Now()
	n, err := s.download(ctx, remote)
	if err != nil {
		return "", fmt.Errorf("%w: %w", classifier.ErrModelUnavailable, err)
	}
	s.logger.Info("Downloaded model", "path", s.src.Path, "bytes", n, "elapsed", time.Since(start))
	return s.src.Path, nil
}

// Load fetches the model and parses it. It satisfies classifier.LoadFunc.
func (s *Store) Load(ctx context.Context) (*classifier.Model, error) {
	path, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	m, err := classifier.LoadFile(path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Loaded model", "labels", len(m.Vocabulary), "layers", len(m.Layers))
	return m, nil
}

func (s *Store) download(ctx context.Context, remote string) (int64, error) {
	resp, err := s.get(ctx, remote)
	if err != nil {
		return 0, err
	}
	if isHTML(resp) {
		// Drive answers large files with a virus-scan page carrying a confirm token.
		next, err := confirmURL(remote, resp)
		resp.Body.Close()
		if err != nil {
			return 0, err
		}
		s.logger.Debug("Following download confirmation", "url", next)
		if resp, err = s.get(ctx, next); err != nil {
			return 0, err
		}
		if isHTML(resp) {
			resp.Body.Close()
			return 0, errors.New("download still returns an html page after confirmation")
		}
	}
	defer resp.Body.Close()
	return s.store(resp.Body)
}

func (s *Store) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download: unexpected status %s", resp.Status)
	}
	return resp, nil
}

// store writes r next to the cache path, checks that it parses, then renames it
// into place.
func (s *Store) store(r io.Reader) (int64, error) {
	dir := filepath.Dir(s.src.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write model: %w", err)
	}
	if _, err := classifier.LoadFile(tmp.Name()); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), s.src.Path); err != nil {
		return 0, err
	}
	return n, nil
}

func isHTML(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html")
}

func confirmURL(remote string, resp *http.Response) (string, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read confirmation page: %w", err)
	}
	token := ""
	for _, c := range resp.Cookies() {
		if strings.HasPrefix(c.Name, "download_warning") {
			token = c.Value
		}
	}
	if m := confirmRe.FindSubmatch(body); token == "" && m != nil {
		token = string(m[1])
	}
	if token == "" {
		return "", errors.New("html page without a confirmation token")
	}

	u, err := url.Parse(remote)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("confirm", token)
	if m := uuidRe.FindSubmatch(body); m != nil {
		q.Set("uuid", string(m[1]))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
