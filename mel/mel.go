package mel

import "errors"
import "fmt"
import "image"
import "image/png"
import "io"
import "math"
import "os"
import "time"

import "github.com/mjibson/go-dsp/window"
import "github.com/neurlang/genrecast/audio"
import "github.com/r9y9/gossp/stft"

// Mel represents the configuration for generating mel spectrograms.
type Mel struct {
	NumMels    int
	MelFmin    float64
	MelFmax    float64
	SampleRate int
	// frame shift in samples
	Window int
	// FFT length in samples
	Resolut  int
	TopDB    float64
	YReverse bool
}

// NewMel creates a new Mel instance with default values.
func NewMel() *Mel {
	return &Mel{
		NumMels:    128,
		MelFmin:    0,
		MelFmax:    8000,
		SampleRate: 22050,
		Window:     512,
		Resolut:    2048,
		TopDB:      80,
		YReverse:   true,
	}
}

const amin = 1e-10

var (
	ErrBadConfig   = errors.New("invalid mel configuration")
	ErrNotRendered = errors.New("spectrogram has no rendered image")
)

// Spectrogram is a decibel-scaled mel spectrogram and its rendered figure.
type Spectrogram struct {
	// DB holds one row per mel band and one column per frame.
	DB         [][]float64
	SampleRate int
	Hop        int
	FMin       float64
	FMax       float64
	Image      *image.RGBA
}

// Bands returns the number of mel bands.
func (s *Spectrogram) Bands() int {
	return len(s.DB)
}

// Frames returns the number of STFT frames.
func (s *Spectrogram) Frames() int {
	if len(s.DB) == 0 {
		return 0
	}
	return len(s.DB[0])
}

// Duration returns the time span covered by the frames.
func (s *Spectrogram) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(s.Frames()*s.Hop) * time.Second / time.Duration(s.SampleRate)
}

// Range returns the smallest and largest decibel value.
func (s *Spectrogram) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range s.DB {
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

// EncodePNG writes the rendered figure to w.
func (s *Spectrogram) EncodePNG(w io.Writer) error {
	if s.Image == nil {
		return ErrNotRendered
	}
	return png.Encode(w, s.Image)
}

// SavePNG writes the rendered figure to path. The file is always closed, and removed
// again when encoding fails.
func (s *Spectrogram) SavePNG(path string) (err error) {
	if s.Image == nil {
		return ErrNotRendered
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return png.Encode(f, s.Image)
}

func (m *Mel) validate() error {
	if m.NumMels <= 0 || m.Window <= 0 || m.Resolut <= 0 || m.SampleRate <= 0 {
		return fmt.Errorf("%w: sizes must be positive", ErrBadConfig)
	}
	if m.MelFmin < 0 || m.MelFmax <= m.MelFmin {
		return fmt.Errorf("%w: frequency range %v..%v", ErrBadConfig, m.MelFmin, m.MelFmax)
	}
	return nil
}

// ToMel generates a decibel mel spectrogram from a wave buffer sampled at m.SampleRate.
// The result has m.NumMels rows; values are referenced to the buffer's peak power.
func (m *Mel) ToMel(buf []float64) ([][]float64, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	spectrum := m.power(buf)
	fb := filterbank(m.SampleRate, m.Resolut, m.NumMels, m.MelFmin, m.MelFmax)

	melspectrum := make([][]float64, m.NumMels)
	for i := range melspectrum {
		melspectrum[i] = make([]float64, len(spectrum))
		for t, frame := range spectrum {
			var total float64
			for k, w := range fb[i] {
				if w != 0 {
					total += w * frame[k]
				}
			}
			melspectrum[i][t] = total
		}
	}

	return PowerToDB(melspectrum, amin, m.TopDB), nil
}

// power returns |STFT|^2 per frame for bins 0..Resolut/2.
func (m *Mel) power(buf []float64) [][]float64 {
	buf = pad(buf, m.Resolut)

	st := stft.New(m.Window, m.Resolut)
	st.Window = window.Hann(m.Resolut + 1)[:m.Resolut]

	spectrum := st.STFT(buf)

	bins := m.Resolut/2 + 1
	out := make([][]float64, len(spectrum))
	for i := range spectrum {
		out[i] = make([]float64, bins)
		for j := 0; j < bins; j++ {
			var v = spectrum[i][j]
			out[i][j] = real(v)*real(v) + imag(v)*imag(v)
		}
	}
	return out
}

// PowerToDB converts power values to decibels relative to their maximum.
// Values below amin are clamped and, when topDB is positive, the result is
// floored at topDB below the peak.
func PowerToDB(s [][]float64, amin, topDB float64) [][]float64 {
	var ref float64
	for _, row := range s {
		for _, v := range row {
			ref = math.Max(ref, v)
		}
	}
	refDB := 10 * math.Log10(math.Max(amin, ref))

	out := make([][]float64, len(s))
	maxDB := math.Inf(-1)
	for i, row := range s {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = 10*math.Log10(math.Max(amin, v)) - refDB
			maxDB = math.Max(maxDB, out[i][j])
		}
	}
	if topDB > 0 {
		floor := maxDB - topDB
		for i := range out {
			for j := range out[i] {
				out[i][j] = math.Max(out[i][j], floor)
			}
		}
	}
	return out
}

// FromClip computes and renders the spectrogram of a decoded clip.
func (m *Mel) FromClip(clip *audio.Clip) (*Spectrogram, error) {
	if len(clip.Samples) == 0 {
		return nil, audio.ErrEmptyClip
	}
	clip = clip.Resample(m.SampleRate)

	db, err := m.ToMel(clip.Samples)
	if err != nil {
		return nil, err
	}

	spec := &Spectrogram{
		DB:         db,
		SampleRate: m.SampleRate,
		Hop:        m.Window,
		FMin:       m.MelFmin,
		FMax:       m.MelFmax,
	}
	spec.Image = m.render(spec)
	return spec, nil
}

// Extract decodes an audio stream of the given format and returns its rendered spectrogram.
func (m *Mel) Extract(r io.Reader, format audio.Format) (*Spectrogram, error) {
	clip, err := audio.Decode(r, format)
	if err != nil {
		return nil, err
	}
	return m.FromClip(clip)
}

// ToMelFile generates a mel spectrogram from an input WAV/MP3/FLAC audio file and saves it as a PNG image.
func (m *Mel) ToMelFile(inputFile, outputFile string) error {
	clip, err := audio.LoadFile(inputFile)
	if err != nil {
		return err
	}

	spec, err := m.FromClip(clip)
	if err != nil {
		return err
	}

	return spec.SavePNG(outputFile)
}
