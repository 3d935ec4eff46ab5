package radar

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const (
	// SweepMinDeg and SweepMaxDeg bound the servo sweep.
	SweepMinDeg = 0.0
	SweepMaxDeg = 180.0

	ringCount     = 4
	spokeStepDeg  = 30.0
	sideMargin    = 10
	bottomMargin  = 18
	markerRadius  = 6.0
	haloRadius    = 11.0
	circleSegment = 32
)

// Colours used by the scope. Exported so callers can assert on pixels.
var (
	ColorBackground     = color.RGBA{R: 0x0b, G: 0x1f, B: 0x0e, A: 0xff}
	ColorGrid           = color.RGBA{R: 0x1f, G: 0x6f, B: 0x3a, A: 0xff}
	ColorLabel          = color.RGBA{R: 0x7f, G: 0xbf, B: 0x8f, A: 0xff}
	ColorSweep          = color.RGBA{R: 0x39, G: 0xff, B: 0x6a, A: 0xff}
	ColorMarkerClear    = color.RGBA{R: 0x27, G: 0xae, B: 0x60, A: 0xff}
	ColorMarkerDetected = color.RGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff}
	colorHalo           = color.RGBA{R: 0x73, G: 0x26, B: 0x1e, A: 0x80}
)

// Geometry fixes the canvas size and the distance range mapped onto it.
type Geometry struct {
	Width      int
	Height     int
	MaxRangeCM float64
}

// Sweep is one position of the radar beam.
type Sweep struct {
	AngleDeg   float64
	DistanceCM float64
	Detected   bool
}

// Scope renders a top-down half-disc radar display. It holds no mutable
// state, so every call is a pure function of its arguments.
type Scope struct {
	geo     Geometry
	originX float64
	originY float64
	radius  float64
}

// NewScope validates the geometry and derives the display origin and radius.
func NewScope(g Geometry) (*Scope, error) {
	if g.Width <= 2*sideMargin || g.Height <= bottomMargin+sideMargin {
		return nil, fmt.Errorf("radar canvas %dx%d is too small", g.Width, g.Height)
	}
	if g.MaxRangeCM <= 0 || math.IsNaN(g.MaxRangeCM) || math.IsInf(g.MaxRangeCM, 0) {
		return nil, errors.New("radar max range must be a positive number")
	}
	originX := float64(g.Width) / 2
	originY := float64(g.Height - bottomMargin)
	radius := math.Min(originX-sideMargin, originY-sideMargin)
	return &Scope{geo: g, originX: originX, originY: originY, radius: radius}, nil
}

// Geometry returns the configured canvas geometry.
func (s *Scope) Geometry() Geometry { return s.geo }

// Scale is the number of pixels per centimetre.
func (s *Scope) Scale() float64 { return s.radius / s.geo.MaxRangeCM }

// Project maps a polar reading to canvas coordinates. The angle is clamped
// to the sweep range and the distance to [0, MaxRangeCM].
func (s *Scope) Project(angleDeg, distanceCM float64) (x, y float64) {
	theta := clampAngle(angleDeg) * math.Pi / 180
	r := clampRange(distanceCM, s.geo.MaxRangeCM) * s.Scale()
	return s.originX + r*math.Cos(theta), s.originY - r*math.Sin(theta)
}

// Grid renders the static background: rings, spokes and labels.
func (s *Scope) Grid() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.geo.Width, s.geo.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(ColorBackground), image.Point{}, draw.Src)

	for k := 1; k <= ringCount; k++ {
		r := s.radius * float64(k) / ringCount
		s.fillArc(img, r, 1, ColorGrid)

		rangeCM := s.geo.MaxRangeCM * float64(k) / ringCount
		s.label(img, fmt.Sprintf("%gcm", math.Round(rangeCM)), s.originX+r, s.originY+14)
	}
	s.fillLine(img, s.originX-s.radius, s.originY, s.originX+s.radius, s.originY, 1, ColorGrid)

	for deg := SweepMinDeg + spokeStepDeg; deg < SweepMaxDeg; deg += spokeStepDeg {
		x, y := s.Project(deg, s.geo.MaxRangeCM)
		s.fillLine(img, s.originX, s.originY, x, y, 1, ColorGrid)

		lx, ly := s.Project(deg, s.geo.MaxRangeCM*0.9)
		s.label(img, fmt.Sprintf("%g", deg), lx, ly)
	}
	return img
}

// Draw clears the canvas and renders the grid, the sweep line at the given
// angle and, for positive distances, a marker styled by the detection flag.
func (s *Scope) Draw(sw Sweep) *image.RGBA {
	img := s.Grid()

	ex, ey := s.Project(sw.AngleDeg, s.geo.MaxRangeCM)
	s.fillLine(img, s.originX, s.originY, ex, ey, 2, ColorSweep)

	if sw.DistanceCM > 0 && !math.IsNaN(sw.DistanceCM) {
		mx, my := s.Project(sw.AngleDeg, sw.DistanceCM)
		if sw.Detected {
			s.fillDisc(img, mx, my, haloRadius, colorHalo)
			s.fillDisc(img, mx, my, markerRadius, ColorMarkerDetected)
		} else {
			s.fillDisc(img, mx, my, markerRadius-1, ColorMarkerClear)
		}
	}
	return img
}

func (s *Scope) rasterizer() *vector.Rasterizer {
	z := vector.NewRasterizer(s.geo.Width, s.geo.Height)
	z.DrawOp = draw.Over
	return z
}

func (s *Scope) paint(img *image.RGBA, z *vector.Rasterizer, c color.Color) {
	z.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
}

// fillArc strokes the upper half circle of radius r around the origin.
func (s *Scope) fillArc(img *image.RGBA, r, width float64, c color.Color) {
	outer := r + width/2
	inner := math.Max(r-width/2, 0)
	z := s.rasterizer()
	for i := 0; i <= circleSegment; i++ {
		theta := math.Pi * float64(i) / circleSegment
		x := s.originX + outer*math.Cos(theta)
		y := s.originY - outer*math.Sin(theta)
		if i == 0 {
			z.MoveTo(float32(x), float32(y))
		} else {
			z.LineTo(float32(x), float32(y))
		}
	}
	for i := circleSegment; i >= 0; i-- {
		theta := math.Pi * float64(i) / circleSegment
		z.LineTo(float32(s.originX+inner*math.Cos(theta)), float32(s.originY-inner*math.Sin(theta)))
	}
	z.ClosePath()
	s.paint(img, z, c)
}

func (s *Scope) fillLine(img *image.RGBA, x0, y0, x1, y1, width float64, c color.Color) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2

	z := s.rasterizer()
	z.MoveTo(float32(x0+nx), float32(y0+ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x0-nx), float32(y0-ny))
	z.ClosePath()
	s.paint(img, z, c)
}

func (s *Scope) fillDisc(img *image.RGBA, cx, cy, r float64, c color.Color) {
	z := s.rasterizer()
	for i := 0; i < circleSegment; i++ {
		theta := 2 * math.Pi * float64(i) / circleSegment
		x, y := float32(cx+r*math.Cos(theta)), float32(cy+r*math.Sin(theta))
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
	s.paint(img, z, c)
}

// label draws text horizontally centred on x with its baseline at y.
func (s *Scope) label(img *image.RGBA, text string, x, y float64) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(ColorLabel), Face: face}
	x -= float64(d.MeasureString(text).Ceil()) / 2
	d.Dot = fixed.Point26_6{X: fixed.I(int(math.Round(x))), Y: fixed.I(int(math.Round(y)))}
	d.DrawString(text)
}

// EncodePNG serialises a rendered canvas.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode radar png: %w", err)
	}
	return buf.Bytes(), nil
}

func clampAngle(deg float64) float64 {
	if math.IsNaN(deg) {
		return SweepMinDeg
	}
	return math.Max(SweepMinDeg, math.Min(SweepMaxDeg, deg))
}

func clampRange(cm, maxCM float64) float64 {
	if math.IsNaN(cm) || cm < 0 {
		return 0
	}
	return math.Min(cm, maxCM)
}
