package mel

import "image"
import "image/color"
import "math"

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSP       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSP
)

var melLogStep = math.Log(6.4) / 27

func hzToMel(value float64) float64 {
	if value < melMinLogHz {
		return value / melFSP
	}
	return melMinLogMel + math.Log(value/melMinLogHz)/melLogStep
}

func melToHz(value float64) float64 {
	if value < melMinLogMel {
		return value * melFSP
	}
	return melMinLogHz * math.Exp(melLogStep*(value-melMinLogMel))
}

// melFrequencies returns n frequencies evenly spaced on the mel scale between fmin and fmax.
func melFrequencies(n int, fmin, fmax float64) []float64 {
	lo, hi := hzToMel(fmin), hzToMel(fmax)
	out := make([]float64, n)
	for i := range out {
		out[i] = melToHz(lo + (hi-lo)*float64(i)/float64(n-1))
	}
	return out
}

// filterbank builds mels triangular filters over the resolut/2+1 FFT bins, each
// normalised to unit area.
func filterbank(sr, resolut, mels int, fmin, fmax float64) [][]float64 {
	bins := resolut/2 + 1
	fftfreqs := make([]float64, bins)
	for k := range fftfreqs {
		fftfreqs[k] = float64(k) * float64(sr) / float64(resolut)
	}

	melf := melFrequencies(mels+2, fmin, fmax)

	weights := make([][]float64, mels)
	for i := range weights {
		weights[i] = make([]float64, bins)
		lower, center, upper := melf[i], melf[i+1], melf[i+2]
		enorm := 2.0 / (upper - lower)
		for k, f := range fftfreqs {
			var rising = (f - lower) / (center - lower)
			var falling = (upper - f) / (upper - center)
			w := math.Max(0, math.Min(rising, falling))
			weights[i][k] = w * enorm
		}
	}
	return weights
}

// pad centers the frames: filter/2 zeros on both sides, and at least one full frame.
func pad(buf []float64, filter int) []float64 {
	var half = filter / 2
	var n = len(buf) + 2*half
	if n < filter {
		n = filter
	}
	out := make([]float64, n)
	copy(out[half:], buf)
	return out
}

var magmaStops = []struct {
	at      float64
	r, g, b uint8
}{
	{0.00, 0, 0, 4},
	{0.13, 28, 16, 68},
	{0.25, 79, 18, 123},
	{0.38, 129, 37, 129},
	{0.50, 181, 54, 122},
	{0.63, 229, 80, 100},
	{0.75, 251, 135, 97},
	{0.88, 254, 194, 135},
	{1.00, 252, 253, 191},
}

// magma maps t in [0,1] onto a magma-like color ramp.
func magma(t float64) color.RGBA {
	if math.IsNaN(t) || t <= 0 {
		s := magmaStops[0]
		return color.RGBA{s.r, s.g, s.b, 255}
	}
	for i := 1; i < len(magmaStops); i++ {
		a, b := magmaStops[i-1], magmaStops[i]
		if t <= b.at {
			f := (t - a.at) / (b.at - a.at)
			mix := func(x, y uint8) uint8 {
				return uint8(math.Round(float64(x) + f*(float64(y)-float64(x))))
			}
			return color.RGBA{mix(a.r, b.r), mix(a.g, b.g), mix(a.b, b.b), 255}
		}
	}
	s := magmaStops[len(magmaStops)-1]
	return color.RGBA{s.r, s.g, s.b, 255}
}

// dumpimage draws one pixel per frame and band, low bands at the bottom when reverse is set.
func dumpimage(buf [][]float64, lo, hi float64, reverse bool) *image.RGBA {
	mels := len(buf)
	stride := 0
	if mels > 0 {
		stride = len(buf[0])
	}
	img := image.NewRGBA(image.Rect(0, 0, max(stride, 1), max(mels, 1)))

	for x := 0; x < stride; x++ {
		for y := 0; y < mels; y++ {
			col := magma((buf[y][x] - lo) / (hi - lo))
			if reverse {
				img.SetRGBA(x, mels-y-1, col)
			} else {
				img.SetRGBA(x, y, col)
			}
		}
	}
	return img
}
