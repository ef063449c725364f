package server

import "encoding/base64"
import "encoding/json"
import "errors"
import "fmt"
import "html/template"
import "net/http"
import "os"
import "strconv"
import "strings"
import "time"

import "github.com/gorilla/mux"
import "github.com/samber/lo"

import "github.com/neurlang/genrecast/audio"
import "github.com/neurlang/genrecast/classifier"
import "github.com/neurlang/genrecast/content"
import "github.com/neurlang/genrecast/metrics"
import "github.com/neurlang/genrecast/pipeline"

const formField = "audio"

var errMissingFile = errors.New("no audio file uploaded")

type indexPage struct {
	Accept string
	Genres classifier.Vocabulary
}

type bar struct {
	Label string
	Width template.CSS
	Value string
	Top   bool
}

type resultPage struct {
	Filename    string
	Label       string
	Spectrogram template.URL
	Bars        []bar
	Content     content.Bundle
}

type errorPage struct {
	Status  int
	Message string
}

type classifyResponse struct {
	ID            string             `json:"id"`
	Filename      string             `json:"filename"`
	Label         string             `json:"label"`
	Confidence    float64            `json:"confidence"`
	Probabilities []classifier.Score `json:"probabilities"`
	Content       content.Bundle     `json:"content"`
	Spectrogram   string             `json:"spectrogram"`
	ElapsedMS     int64              `json:"elapsed_ms"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", indexPage{
		Accept: strings.Join(s.runner.Extensions(), ","),
		Genres: s.model.Vocabulary(),
	})
}

func (s *Server) handleClassifyPage(w http.ResponseWriter, r *http.Request) {
	res, png, err := s.classify(r)
	if err != nil {
		status, msg := describe(err)
		s.render(w, status, "error.html", errorPage{Status: status, Message: msg})
		return
	}
	defer res.Close()

	top := res.Prediction.Index
	bars := lo.Map(res.Prediction.Scores(), func(sc classifier.Score, i int) bar {
		return bar{
			Label: sc.Label,
			Width: template.CSS(fmt.Sprintf("width: %.2f%%", sc.Probability*100)),
			Value: fmt.Sprintf("%.4f", sc.Probability),
			Top:   i == top,
		}
	})
	s.render(w, http.StatusOK, "result.html", resultPage{
		Filename:    res.Filename,
		Label:       res.Prediction.Label,
		Spectrogram: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
		Bars:        bars,
		Content:     res.Content,
	})
}

func (s *Server) handleClassifyAPI(w http.ResponseWriter, r *http.Request) {
	res, png, err := s.classify(r)
	if err != nil {
		status, msg := describe(err)
		s.respondJSON(w, status, map[string]string{"error": msg})
		return
	}
	defer res.Close()

	s.respondJSON(w, http.StatusOK, classifyResponse{
		ID:            res.ID.String(),
		Filename:      res.Filename,
		Label:         res.Prediction.Label,
		Confidence:    res.Prediction.Confidence(),
		Probabilities: res.Prediction.Scores(),
		Content:       res.Content,
		Spectrogram:   base64.StdEncoding.EncodeToString(png),
		ElapsedMS:     res.Elapsed.Milliseconds(),
	})
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	vocab := s.model.Vocabulary()
	s.respondJSON(w, http.StatusOK, map[string]any{
		"genres": vocab,
		"curated": lo.Filter(vocab, func(label string, _ int) bool {
			return !content.Resolve(label).Default
		}),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if len(s.model.Vocabulary()) == 0 {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "model not loaded"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// classify runs the uploaded file through the pipeline and reads back the
// rendered artifact. On success the caller must Close the result.
func (s *Server) classify(r *http.Request) (*pipeline.Result, []byte, error) {
	if err := r.ParseMultipartForm(s.maxMemory); err != nil {
		metrics.PipelineFailuresTotal.WithLabelValues(metrics.StageUpload).Inc()
		return nil, nil, fmt.Errorf("%w: %w", errMissingFile, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(formField)
	if err != nil {
		metrics.PipelineFailuresTotal.WithLabelValues(metrics.StageUpload).Inc()
		return nil, nil, fmt.Errorf("%w: %w", errMissingFile, err)
	}
	defer file.Close()

	res, err := s.runner.Run(r.Context(), pipeline.Upload{Filename: header.Filename, Body: file})
	if err != nil {
		return nil, nil, err
	}
	png, err := os.ReadFile(res.ArtifactPath)
	if err != nil {
		res.Close()
		return nil, nil, fmt.Errorf("read spectrogram: %w", err)
	}
	return res, png, nil
}

// describe maps a pipeline error to a status code and a message for the user.
func describe(err error) (int, string) {
	switch {
	case errors.Is(err, errMissingFile):
		return http.StatusBadRequest, "Please choose an audio file to upload."
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity, "This file type is not supported. Upload an MP3 or WAV file."
	case errors.Is(err, audio.ErrEmptyClip):
		return http.StatusUnprocessableEntity, "The uploaded file contains no audio."
	case errors.Is(err, audio.ErrDecode):
		return http.StatusUnprocessableEntity, "The uploaded file could not be decoded as audio."
	case errors.Is(err, classifier.ErrModelUnavailable):
		return http.StatusInternalServerError, "The genre model is not available."
	case errors.Is(err, classifier.ErrInference):
		return http.StatusInternalServerError, "The genre could not be predicted."
	}
	return http.StatusInternalServerError, "Something went wrong while processing the upload."
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Render failed", "template", name, "error", err)
	}
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("Encode response failed", "status", status, "error", err)
	}
}

func embedURL(video string) string {
	return content.EmbedURL(video)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument counts requests by route template so paths stay low cardinality.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		s.logger.Debug("Request", "method", r.Method, "path", path, "status", rec.status, "elapsed", time.Since(start))
	})
}
