package classifier

import "bufio"
import "bytes"
import "encoding/binary"
import "encoding/json"
import "errors"
import "fmt"
import "io"
import "os"

import "github.com/x448/float16"

const magic = "GCM1"

// maxHeaderLen bounds the JSON header so a corrupt length cannot trigger a huge allocation.
const maxHeaderLen = 1 << 20

// Shape limits checked before any weights are read.
const (
	maxInputSide    = 1 << 14
	maxLayerWeights = 1 << 28
)

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrInference        = errors.New("inference failed")
)

// Vocabulary is the ordered list of labels the model can emit.
type Vocabulary []string

// Index returns the position of label, or -1.
func (v Vocabulary) Index(label string) int {
	for i, l := range v {
		if l == label {
			return i
		}
	}
	return -1
}

// InputShape is the raster size the model was trained on.
type InputShape struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	Channels int `json:"channels"`
}

// Size returns the number of input features.
func (s InputShape) Size() int {
	return s.Width * s.Height * s.Channels
}

type Activation string

const (
	Linear Activation = ""
	ReLU   Activation = "relu"
)

// Dense is a fully connected layer. Weights holds Out rows of In values.
type Dense struct {
	In         int
	Out        int
	Weights    []float32
	Bias       []float32
	Activation Activation
}

// Model is a loaded genre classifier.
type Model struct {
	Vocabulary Vocabulary
	Input      InputShape
	Mean       []float32
	Std        []float32
	Layers     []Dense
}

type layerSpec struct {
	In         int        `json:"in"`
	Out        int        `json:"out"`
	Activation Activation `json:"activation,omitempty"`
}

type header struct {
	Vocabulary Vocabulary  `json:"vocabulary"`
	Input      InputShape  `json:"input"`
	Mean       []float32   `json:"mean,omitempty"`
	Std        []float32   `json:"std,omitempty"`
	Layers     []layerSpec `json:"layers"`
}

// Validate checks that the layers chain from the input shape to the vocabulary.
func (m *Model) Validate() error {
	if len(m.Vocabulary) == 0 {
		return errors.New("empty vocabulary")
	}
	seen := make(map[string]bool, len(m.Vocabulary))
	for _, l := range m.Vocabulary {
		if l == "" || seen[l] {
			return fmt.Errorf("bad vocabulary label %q", l)
		}
		seen[l] = true
	}
	if m.Input.Width <= 0 || m.Input.Height <= 0 {
		return fmt.Errorf("bad input size %dx%d", m.Input.Width, m.Input.Height)
	}
	if m.Input.Channels != 1 && m.Input.Channels != 3 {
		return fmt.Errorf("unsupported channel count %d", m.Input.Channels)
	}
	if len(m.Mean) != 0 && len(m.Mean) != m.Input.Channels {
		return fmt.Errorf("mean has %d values for %d channels", len(m.Mean), m.Input.Channels)
	}
	if len(m.Std) != 0 && len(m.Std) != m.Input.Channels {
		return fmt.Errorf("std has %d values for %d channels", len(m.Std), m.Input.Channels)
	}
	for _, s := range m.Std {
		if s == 0 {
			return errors.New("zero std")
		}
	}
	if len(m.Layers) == 0 {
		return errors.New("no layers")
	}
	width := m.Input.Size()
	for i, l := range m.Layers {
		if l.In != width {
			return fmt.Errorf("layer %d expects %d inputs, got %d", i, l.In, width)
		}
		if l.Out <= 0 || len(l.Weights) != l.In*l.Out || len(l.Bias) != l.Out {
			return fmt.Errorf("layer %d has inconsistent parameters", i)
		}
		if l.Activation != Linear && l.Activation != ReLU {
			return fmt.Errorf("layer %d has unknown activation %q", i, l.Activation)
		}
		width = l.Out
	}
	if width != len(m.Vocabulary) {
		return fmt.Errorf("model emits %d scores for %d labels", width, len(m.Vocabulary))
	}
	return nil
}

// Load reads a model file. Every failure is reported as ErrModelUnavailable.
func Load(r io.Reader) (*Model, error) {
	m, err := load(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	return m, nil
}

// LoadFile loads the model file at path.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	defer f.Close()
	return Load(f)
}

func load(r io.Reader) (*Model, error) {
	var head [len(magic)]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(head[:]) != magic {
		return nil, fmt.Errorf("not a model file (magic %q)", head[:])
	}

	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read header length: %w", err)
	}
	if n == 0 || n > maxHeaderLen {
		return nil, fmt.Errorf("header length %d out of range", n)
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	if err := h.checkShapes(); err != nil {
		return nil, err
	}

	m := &Model{Vocabulary: h.Vocabulary, Input: h.Input, Mean: h.Mean, Std: h.Std}
	for i, spec := range h.Layers {
		weights, err := readHalfs(r, spec.In*spec.Out)
		if err != nil {
			return nil, fmt.Errorf("layer %d weights: %w", i, err)
		}
		bias, err := readHalfs(r, spec.Out)
		if err != nil {
			return nil, fmt.Errorf("layer %d bias: %w", i, err)
		}
		m.Layers = append(m.Layers, Dense{In: spec.In, Out: spec.Out, Weights: weights, Bias: bias, Activation: spec.Activation})
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// checkShapes verifies that the declared layers chain from the input and stay
// within the size limits, so reading the weights allocates a bounded amount.
func (h *header) checkShapes() error {
	in := h.Input
	if in.Width <= 0 || in.Height <= 0 || in.Width > maxInputSide || in.Height > maxInputSide {
		return fmt.Errorf("bad input size %dx%d", in.Width, in.Height)
	}
	if in.Channels != 1 && in.Channels != 3 {
		return fmt.Errorf("unsupported channel count %d", in.Channels)
	}
	if len(h.Layers) == 0 {
		return errors.New("no layers")
	}
	width := in.Size()
	for i, spec := range h.Layers {
		if spec.In != width {
			return fmt.Errorf("layer %d expects %d inputs, got %d", i, spec.In, width)
		}
		if spec.Out <= 0 || spec.Out > maxLayerWeights/spec.In {
			return fmt.Errorf("layer %d has shape %dx%d", i, spec.In, spec.Out)
		}
		width = spec.Out
	}
	return nil
}

func readHalfs(r io.Reader, n int) ([]float32, error) {
	bits := make([]uint16, n)
	if err := binary.Read(r, binary.LittleEndian, bits); err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i, b := range bits {
		out[i] = float16.Frombits(b).Float32()
	}
	return out, nil
}

// WriteTo encodes the model in the format read by Load. Weights are stored as
// half-precision floats.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	h := header{Vocabulary: m.Vocabulary, Input: m.Input, Mean: m.Mean, Std: m.Std}
	for _, l := range m.Layers {
		h.Layers = append(h.Layers, layerSpec{In: l.In, Out: l.Out, Activation: l.Activation})
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	buf.WriteString(magic)
	binary.Write(&buf, binary.LittleEndian, uint32(len(raw)))
	buf.Write(raw)
	for _, l := range m.Layers {
		writeHalfs(&buf, l.Weights)
		writeHalfs(&buf, l.Bias)
	}
	return buf.WriteTo(w)
}

func writeHalfs(buf *bytes.Buffer, vals []float32) {
	for _, v := range vals {
		binary.Write(buf, binary.LittleEndian, float16.Fromfloat32(v).Bits())
	}
}

// SaveFile writes the model to path.
func (m *Model) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := m.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
