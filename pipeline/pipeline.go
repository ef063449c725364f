package pipeline

import "bytes"
import "context"
import "errors"
import "fmt"
import "image"
import "io"
import "log/slog"
import "os"
import "path/filepath"
import "strings"
import "time"

import "github.com/google/uuid"
import "github.com/prometheus/client_golang/prometheus"
import "github.com/samber/lo"

import "github.com/neurlang/genrecast/audio"
import "github.com/neurlang/genrecast/classifier"
import "github.com/neurlang/genrecast/content"
import "github.com/neurlang/genrecast/mel"
import "github.com/neurlang/genrecast/metrics"

// Extractor turns an audio stream into a rendered spectrogram.
type Extractor interface {
	Extract(r io.Reader, format audio.Format) (*mel.Spectrogram, error)
}

// Classifier predicts a genre from a spectrogram figure.
type Classifier interface {
	Classify(img image.Image) (classifier.Prediction, error)
}

// DefaultExtensions are the upload extensions accepted when none are configured.
var DefaultExtensions = []string{"mp3", "wav"}

type Options struct {
	// ArtifactDir receives the rendered PNGs. Empty means the OS temp dir.
	ArtifactDir string
	// Extensions lists accepted upload extensions without the dot.
	Extensions []string
}

// Upload is one uploaded file.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Result is the outcome of a successful run.
type Result struct {
	ID           uuid.UUID
	Filename     string
	Format       audio.Format
	Spectrogram  *mel.Spectrogram
	ArtifactPath string
	Prediction   classifier.Prediction
	Content      content.Bundle
	Elapsed      time.Duration
}

// Close removes the rendered artifact.
func (r *Result) Close() error {
	if r.ArtifactPath == "" {
		return nil
	}
	err := os.Remove(r.ArtifactPath)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	r.ArtifactPath = ""
	return err
}

type Pipeline struct {
	extractor   Extractor
	classifier  Classifier
	artifactDir string
	exts        []string
	logger      *slog.Logger
}

func New(ex Extractor, cl Classifier, opts Options, logger *slog.Logger) *Pipeline {
	dir := opts.ArtifactDir
	if dir == "" {
		dir = os.TempDir()
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return &Pipeline{
		extractor:   ex,
		classifier:  cl,
		artifactDir: dir,
		exts:        lo.Compact(lo.Uniq(lo.Map(exts, func(e string, _ int) string { return normalizeExt(e) }))),
		logger:      logger,
	}
}

func normalizeExt(e string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
}

// Accepts reports whether filename has an accepted extension.
func (p *Pipeline) Accepts(filename string) bool {
	return lo.Contains(p.exts, normalizeExt(filepath.Ext(filename)))
}

// Extensions returns the accepted extensions with a leading dot.
func (p *Pipeline) Extensions() []string {
	return lo.Map(p.exts, func(e string, _ int) string { return "." + e })
}

// Run processes one upload.
func (p *Pipeline) Run(ctx context.Context, up Upload) (*Result, error) {
	start := time.Now()
	id := uuid.New()
	log := p.logger.With("id", id.String(), "filename", up.Filename)

	if !p.Accepts(up.Filename) {
		return nil, p.fail(log, metrics.StageUpload, fmt.Errorf("%w: %s", audio.ErrUnsupportedFormat, up.Filename))
	}
	data, err := io.ReadAll(up.Body)
	if err != nil {
		return nil, p.fail(log, metrics.StageUpload, fmt.Errorf("read upload: %w", err))
	}
	format := audio.Sniff(data, up.Filename)
	log.Debug("Received upload", "bytes", len(data), "format", format)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues(metrics.StageExtract))
	spec, err := p.extractor.Extract(bytes.NewReader(data), format)
	timer.ObserveDuration()
	if err != nil {
		return nil, p.fail(log, metrics.StageExtract, err)
	}

	path := filepath.Join(p.artifactDir, id.String()+".png")
	if err := p.saveArtifact(spec, path); err != nil {
		return nil, p.fail(log, metrics.StageArtifact, err)
	}

	if err := ctx.Err(); err != nil {
		os.Remove(path)
		return nil, err
	}
	timer = prometheus.NewTimer(metrics.StageDuration.WithLabelValues(metrics.StageClassify))
	pred, err := p.classifier.Classify(spec.Image)
	timer.ObserveDuration()
	if err != nil {
		os.Remove(path)
		return nil, p.fail(log, metrics.StageClassify, err)
	}

	res := &Result{
		ID:           id,
		Filename:     up.Filename,
		Format:       format,
		Spectrogram:  spec,
		ArtifactPath: path,
		Prediction:   pred,
		Content:      content.Resolve(pred.Label),
		Elapsed:      time.Since(start),
	}
	metrics.PredictionsTotal.WithLabelValues(pred.Label).Inc()
	log.Info("Classified upload",
		"genre", pred.Label,
		"confidence", pred.Confidence(),
		"frames", spec.Frames(),
		"default_content", res.Content.Default,
		"elapsed", res.Elapsed,
	)
	return res, nil
}

func (p *Pipeline) saveArtifact(spec *mel.Spectrogram, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return spec.SavePNG(path)
}

func (p *Pipeline) fail(log *slog.Logger, stage string, err error) error {
	metrics.PipelineFailuresTotal.WithLabelValues(stage).Inc()
	log.Warn("Pipeline failed", "stage", stage, "error", err)
	return err
}
