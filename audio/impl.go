package audio

import "errors"
import "io"
import "os"

import "github.com/faiface/beep"
import "github.com/faiface/beep/mp3"
import "github.com/faiface/beep/wav"
import "github.com/mewkiz/flac"

const resampleQuality = 4

var errNoChannels = errors.New("stream has no channels")

func loadwav(r io.Reader) ([]float64, int, error) {
	stream, format, err := wav.Decode(r)
	if err != nil {
		return nil, 0, err
	}
	defer stream.Close()

	out := drain(stream)
	if err := stream.Err(); err != nil {
		return nil, 0, err
	}
	return out, int(format.SampleRate), nil
}

func loadmp3(r io.Reader) ([]float64, int, error) {
	stream, format, err := mp3.Decode(io.NopCloser(r))
	if err != nil {
		return nil, 0, err
	}
	defer stream.Close()

	out := drain(stream)
	if err := stream.Err(); err != nil {
		return nil, 0, err
	}
	return out, int(format.SampleRate), nil
}

func loadflac(r io.Reader) ([]float64, int, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, 0, err
	}
	defer stream.Close()

	var nch = int(stream.Info.NChannels)
	if nch == 0 {
		return nil, 0, errNoChannels
	}
	var scale = float64(int64(1) << (stream.Info.BitsPerSample - 1))

	var out []float64
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		for i := 0; i < int(frame.BlockSize); i++ {
			var sum float64
			for ch := 0; ch < nch; ch++ {
				sum += float64(frame.Subframes[ch].Samples[i])
			}
			out = append(out, sum/float64(nch)/scale)
		}
	}
	return out, int(stream.Info.SampleRate), nil
}

// drain pulls everything out of s, averaging the two beep channels to mono.
func drain(s beep.Streamer) (out []float64) {
	var samples = make([][2]float64, 512)
	for {
		n, ok := s.Stream(samples)
		for i := 0; i < n; i++ {
			out = append(out, (samples[i][0]+samples[i][1])/2)
		}
		if !ok {
			break
		}
	}
	return
}

// sliceStreamer plays a mono sample vector on both beep channels.
type sliceStreamer struct {
	samples []float64
	pos     int
}

func (s *sliceStreamer) Stream(buf [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := 0
	for n < len(buf) && s.pos < len(s.samples) {
		buf[n][0] = s.samples[s.pos]
		buf[n][1] = s.samples[s.pos]
		n++
		s.pos++
	}
	return n, true
}

func (s *sliceStreamer) Err() error {
	return nil
}

func dumpwav(name string, vec []float64, sr int) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}

	format := beep.Format{SampleRate: beep.SampleRate(sr), NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, &sliceStreamer{samples: vec}, format); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
