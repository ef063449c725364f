package classifier

import "fmt"
import "image"
import "math"

import "github.com/samber/lo"
import xdraw "golang.org/x/image/draw"

// Score pairs a label with its probability.
type Score struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Prediction is the outcome of one classification. It is immutable once built;
// accessors return copies.
type Prediction struct {
	Label string
	Index int

	vocabulary    Vocabulary
	probabilities []float64
}

// NewPrediction builds a prediction from a distribution aligned with vocab.
// The label is the argmax, ties resolved to the lowest index.
func NewPrediction(vocab Vocabulary, probs []float64) (Prediction, error) {
	if len(vocab) == 0 || len(probs) != len(vocab) {
		return Prediction{}, fmt.Errorf("%w: %d scores for %d labels", ErrInference, len(probs), len(vocab))
	}
	idx := argmax(probs)
	return Prediction{
		Label:         vocab[idx],
		Index:         idx,
		vocabulary:    append(Vocabulary(nil), vocab...),
		probabilities: append([]float64(nil), probs...),
	}, nil
}

func (p Prediction) Vocabulary() Vocabulary {
	return append(Vocabulary(nil), p.vocabulary...)
}

func (p Prediction) Probabilities() []float64 {
	return append([]float64(nil), p.probabilities...)
}

// Confidence is the probability of the predicted label.
func (p Prediction) Confidence() float64 {
	if p.Index < 0 || p.Index >= len(p.probabilities) {
		return 0
	}
	return p.probabilities[p.Index]
}

// Scores returns the distribution in vocabulary order.
func (p Prediction) Scores() []Score {
	return lo.Map(p.vocabulary, func(label string, i int) Score {
		return Score{Label: label, Probability: p.probabilities[i]}
	})
}

// Preprocess resizes img to the model input and normalises each channel.
// Features are laid out channel-major.
func (m *Model) Preprocess(img image.Image) []float32 {
	w, h, c := m.Input.Width, m.Input.Height, m.Input.Channels
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	out := make([]float32, w*h*c)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := dst.RGBAAt(x, y)
			r, g, b := float32(px.R)/255, float32(px.G)/255, float32(px.B)/255
			if c == 1 {
				out[y*w+x] = m.normalize(0, 0.299*r+0.587*g+0.114*b)
				continue
			}
			out[0*w*h+y*w+x] = m.normalize(0, r)
			out[1*w*h+y*w+x] = m.normalize(1, g)
			out[2*w*h+y*w+x] = m.normalize(2, b)
		}
	}
	return out
}

func (m *Model) normalize(ch int, v float32) float32 {
	if len(m.Mean) > ch {
		v -= m.Mean[ch]
	}
	if len(m.Std) > ch {
		v /= m.Std[ch]
	}
	return v
}

// Forward runs the layers over x and returns the raw logits.
func (m *Model) Forward(x []float32) ([]float64, error) {
	if len(x) != m.Input.Size() {
		return nil, fmt.Errorf("%w: input has %d features, want %d", ErrInference, len(x), m.Input.Size())
	}
	act := x
	for _, l := range m.Layers {
		next := make([]float32, l.Out)
		for o := 0; o < l.Out; o++ {
			row := l.Weights[o*l.In : (o+1)*l.In]
			sum := l.Bias[o]
			for i, v := range act {
				sum += row[i] * v
			}
			if l.Activation == ReLU && sum < 0 {
				sum = 0
			}
			next[o] = sum
		}
		act = next
	}
	logits := make([]float64, len(act))
	for i, v := range act {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("%w: non-finite logit for %q", ErrInference, m.Vocabulary[i])
		}
		logits[i] = float64(v)
	}
	return logits, nil
}

// Classify predicts the genre of a spectrogram figure.
func (m *Model) Classify(img image.Image) (Prediction, error) {
	if img == nil || img.Bounds().Empty() {
		return Prediction{}, fmt.Errorf("%w: empty image", ErrInference)
	}
	logits, err := m.Forward(m.Preprocess(img))
	if err != nil {
		return Prediction{}, err
	}
	return NewPrediction(m.Vocabulary, softmax(logits))
}

func softmax(logits []float64) []float64 {
	top := logits[argmax(logits)]
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - top)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}
