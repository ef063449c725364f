package mel

import "fmt"
import "image"
import "image/color"
import "math"

import xdraw "golang.org/x/image/draw"
import "golang.org/x/image/font"
import "golang.org/x/image/font/basicfont"
import "golang.org/x/image/math/fixed"

// Figure geometry, 10x4 inches at 100 dpi.
const (
	FigureWidth  = 1000
	FigureHeight = 400
)

const figureTitle = "Mel Spectrogram"

var (
	plotRect     = image.Rect(70, 30, 870, 350)
	colorbarRect = image.Rect(895, 30, 915, 350)
	hzTicks      = []float64{0, 512, 1024, 2048, 4096, 8192, 16384}
)

type align int

const (
	alignLeft align = iota
	alignCenter
	alignRight
)

func (m *Mel) render(s *Spectrogram) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, FigureWidth, FigureHeight))
	xdraw.Draw(img, img.Bounds(), image.White, image.Point{}, xdraw.Src)

	lo, hi := s.Range()
	if hi-lo < 1e-9 {
		lo = hi - math.Max(m.TopDB, 1)
	}

	raster := dumpimage(s.DB, lo, hi, m.YReverse)
	xdraw.NearestNeighbor.Scale(img, plotRect, raster, raster.Bounds(), xdraw.Src, nil)
	frame(img, plotRect)

	// colorbar, top is the loudest
	for y := colorbarRect.Min.Y; y < colorbarRect.Max.Y; y++ {
		t := float64(colorbarRect.Max.Y-1-y) / float64(colorbarRect.Dy()-1)
		col := magma(t)
		for x := colorbarRect.Min.X; x < colorbarRect.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
	frame(img, colorbarRect)
	for v := math.Floor(hi/10) * 10; v >= lo-1e-9; v -= 10 {
		y := colorbarRect.Max.Y - 1 - int(math.Round((v-lo)/(hi-lo)*float64(colorbarRect.Dy()-1)))
		hline(img, colorbarRect.Max.X, colorbarRect.Max.X+3, y)
		text(img, colorbarRect.Max.X+6, y+4, fmt.Sprintf("%+2.0f dB", v), alignLeft)
	}

	// time axis
	seconds := s.Duration().Seconds()
	for i := 0; i <= 4; i++ {
		x := plotRect.Min.X + i*(plotRect.Dx()-1)/4
		vline(img, x, plotRect.Max.Y, plotRect.Max.Y+3)
		text(img, x, plotRect.Max.Y+16, fmt.Sprintf("%.1f", seconds*float64(i)/4), alignCenter)
	}
	text(img, plotRect.Min.X+plotRect.Dx()/2, plotRect.Max.Y+34, "Time", alignCenter)

	// mel axis labelled in Hz
	melLo, melHi := hzToMel(s.FMin), hzToMel(s.FMax)
	for _, hz := range hzTicks {
		if hz < s.FMin || hz > s.FMax {
			continue
		}
		f := (hzToMel(hz) - melLo) / (melHi - melLo)
		y := plotRect.Max.Y - 1 - int(math.Round(f*float64(plotRect.Dy()-1)))
		hline(img, plotRect.Min.X-3, plotRect.Min.X, y)
		text(img, plotRect.Min.X-6, y+4, fmt.Sprintf("%.0f", hz), alignRight)
	}
	text(img, plotRect.Min.X-6, plotRect.Min.Y-8, "Hz", alignRight)

	text(img, plotRect.Min.X+plotRect.Dx()/2, 20, figureTitle, alignCenter)
	return img
}

func text(img *image.RGBA, x, y int, s string, a align) {
	d := &font.Drawer{Dst: img, Src: image.Black, Face: basicfont.Face7x13}
	w := d.MeasureString(s).Round()
	switch a {
	case alignCenter:
		x -= w / 2
	case alignRight:
		x -= w
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

func hline(img *image.RGBA, x0, x1, y int) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
	}
}

func vline(img *image.RGBA, x, y0, y1 int) {
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
	}
}

func frame(img *image.RGBA, r image.Rectangle) {
	hline(img, r.Min.X-1, r.Max.X, r.Min.Y-1)
	hline(img, r.Min.X-1, r.Max.X, r.Max.Y)
	vline(img, r.Min.X-1, r.Min.Y-1, r.Max.Y)
	vline(img, r.Max.X, r.Min.Y-1, r.Max.Y)
}
