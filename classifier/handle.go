package classifier

import "context"
import "fmt"
import "image"
import "sync"
import "sync/atomic"

// LoadFunc produces the model, typically by fetching and parsing the model file.
type LoadFunc func(ctx context.Context) (*Model, error)

// ModelHandle shares one model between concurrent callers. The model is loaded at
// most once; a failed load is remembered and returned to every caller.
type ModelHandle struct {
	load LoadFunc

	once  sync.Once
	done  atomic.Bool
	model *Model
	err   error
}

func NewModelHandle(load LoadFunc) *ModelHandle {
	return &ModelHandle{load: load}
}

// NewStaticHandle wraps an already loaded model.
func NewStaticHandle(m *Model) *ModelHandle {
	h := &ModelHandle{}
	h.once.Do(func() {
		if m == nil {
			h.err = fmt.Errorf("%w: no model", ErrModelUnavailable)
			return
		}
		h.model = m
	})
	h.done.Store(true)
	return h
}

// Load runs the loader if it has not run yet. Concurrent callers block until the
// first load completes.
func (h *ModelHandle) Load(ctx context.Context) error {
	h.once.Do(func() {
		m, err := h.load(ctx)
		if err == nil && m == nil {
			err = fmt.Errorf("loader returned no model")
		}
		if err == nil {
			err = m.Validate()
		}
		if err != nil {
			h.err = fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		} else {
			h.model = m
		}
		h.done.Store(true)
	})
	return h.err
}

// Model returns the loaded model, or ErrModelUnavailable if loading has not
// finished or failed.
func (h *ModelHandle) Model() (*Model, error) {
	if !h.done.Load() {
		return nil, fmt.Errorf("%w: not loaded", ErrModelUnavailable)
	}
	if h.err != nil {
		return nil, h.err
	}
	return h.model, nil
}

// Vocabulary returns the model labels, or nil when no model is available.
func (h *ModelHandle) Vocabulary() Vocabulary {
	m, err := h.Model()
	if err != nil {
		return nil
	}
	return append(Vocabulary(nil), m.Vocabulary...)
}

// Classify classifies img with the loaded model. It does not trigger a load.
func (h *ModelHandle) Classify(img image.Image) (Prediction, error) {
	m, err := h.Model()
	if err != nil {
		return Prediction{}, err
	}
	return m.Classify(img)
}
