package audio

import "bytes"
import "errors"
import "fmt"
import "io"
import "os"
import "path/filepath"
import "strings"
import "time"

import "github.com/faiface/beep"
import "github.com/gabriel-vasile/mimetype"

// Format names a supported audio container.
type Format string

const (
	FormatUnknown Format = ""
	FormatWav     Format = "wav"
	FormatMp3     Format = "mp3"
	FormatFlac    Format = "flac"
)

var (
	ErrDecode            = errors.New("audio stream cannot be decoded")
	ErrEmptyClip         = errors.New("decoded audio clip is empty")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Clip is a decoded mono waveform.
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playing time of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Resample returns the clip converted to the sample rate sr.
// The receiver is returned unchanged when it already has that rate.
func (c *Clip) Resample(sr int) *Clip {
	if sr <= 0 || c.SampleRate <= 0 || sr == c.SampleRate {
		return c
	}
	rs := beep.Resample(resampleQuality, beep.SampleRate(c.SampleRate), beep.SampleRate(sr), &sliceStreamer{samples: c.Samples})
	return &Clip{Samples: drain(rs), SampleRate: sr}
}

// FormatFromExt maps a file name to a format by its extension.
func FormatFromExt(name string) Format {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "wav", "wave":
		return FormatWav
	case "mp3":
		return FormatMp3
	case "flac":
		return FormatFlac
	}
	return FormatUnknown
}

// Sniff detects the container format from the leading bytes of data.
// When the content is not recognised the extension of filename decides.
func Sniff(data []byte, filename string) Format {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("audio/wav"):
		return FormatWav
	case mt.Is("audio/mpeg"):
		return FormatMp3
	case mt.Is("audio/flac"):
		return FormatFlac
	}
	return FormatFromExt(filename)
}

// Decode reads an entire audio stream of the given format and returns it as a mono clip
// at the stream's native sample rate.
func Decode(r io.Reader, format Format) (*Clip, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	var samples []float64
	var sr int
	switch format {
	case FormatWav:
		samples, sr, err = loadwav(bytes.NewReader(data))
	case FormatMp3:
		samples, sr, err = loadmp3(bytes.NewReader(data))
	case FormatFlac:
		samples, sr, err = loadflac(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(samples) == 0 {
		return nil, ErrEmptyClip
	}
	return &Clip{Samples: samples, SampleRate: sr}, nil
}

// LoadFile decodes the audio file at path, choosing the decoder from its content.
func LoadFile(path string) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data), Sniff(data, path))
}

// SaveWav saves mono wav file from sample vector
func SaveWav(outputFile string, vec []float64, sr int) error {
	return dumpwav(outputFile, vec, sr)
}
