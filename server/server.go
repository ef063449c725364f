package server

import "context"
import "embed"
import "errors"
import "html/template"
import "log/slog"
import "net/http"
import "time"

import "github.com/gorilla/mux"
import "github.com/prometheus/client_golang/prometheus/promhttp"
import "github.com/rs/cors"

import "github.com/neurlang/genrecast/classifier"
import "github.com/neurlang/genrecast/pipeline"

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"embed": embedURL,
}).ParseFS(templatesFS, "templates/*.html"))

// Runner processes one upload.
type Runner interface {
	Run(ctx context.Context, up pipeline.Upload) (*pipeline.Result, error)
	Extensions() []string
}

// Vocabularies exposes the labels of the loaded model.
type Vocabularies interface {
	Vocabulary() classifier.Vocabulary
}

type Options struct {
	// MaxMemory bounds in-memory multipart buffering; larger uploads spill to disk.
	MaxMemory int64
}

type Server struct {
	runner    Runner
	model     Vocabularies
	maxMemory int64
	logger    *slog.Logger
}

func New(runner Runner, model Vocabularies, opts Options, logger *slog.Logger) *Server {
	if opts.MaxMemory <= 0 {
		opts.MaxMemory = 32 << 20
	}
	return &Server{
		runner:    runner,
		model:     model,
		maxMemory: opts.MaxMemory,
		logger:    logger,
	}
}

// Handler returns the routed handler with CORS and request metrics.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(s.instrument)

	router.HandleFunc("/", s.handleIndex).Methods("GET")
	router.HandleFunc("/classify", s.handleClassifyPage).Methods("POST")
	router.HandleFunc("/api/classify", s.handleClassifyAPI).Methods("POST")
	router.HandleFunc("/api/genres", s.handleGenres).Methods("GET")
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}).Handler(router)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("Listening", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
