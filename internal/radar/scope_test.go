package radar

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScope(t *testing.T) *Scope {
	t.Helper()
	s, err := NewScope(Geometry{Width: 400, Height: 220, MaxRangeCM: 200})
	require.NoError(t, err)
	return s
}

// assertNearColor allows for rounding in the anti-aliasing accumulator.
func assertNearColor(t *testing.T, want, got color.RGBA) {
	t.Helper()
	near := func(a, b uint8) bool { return math.Abs(float64(a)-float64(b)) <= 2 }
	if !near(want.R, got.R) || !near(want.G, got.G) || !near(want.B, got.B) {
		t.Errorf("colour = %v, want %v", got, want)
	}
}

func TestNewScopeRejectsBadGeometry(t *testing.T) {
	_, err := NewScope(Geometry{Width: 10, Height: 10, MaxRangeCM: 200})
	assert.Error(t, err)
	_, err = NewScope(Geometry{Width: 400, Height: 220, MaxRangeCM: 0})
	assert.Error(t, err)
	_, err = NewScope(Geometry{Width: 400, Height: 220, MaxRangeCM: math.Inf(1)})
	assert.Error(t, err)
}

func TestProject(t *testing.T) {
	s := newTestScope(t)
	assert.InDelta(t, 0.95, s.Scale(), 1e-9)

	x, y := s.Project(90, 100)
	assert.InDelta(t, 200, x, 1e-9)
	assert.InDelta(t, 202-95, y, 1e-9)

	x, y = s.Project(0, 200)
	assert.InDelta(t, 390, x, 1e-9)
	assert.InDelta(t, 202, y, 1e-9)

	// Out-of-range inputs clamp to the sweep edge and the maximum range.
	cx, cy := s.Project(270, 1000)
	ex, ey := s.Project(180, 200)
	assert.InDelta(t, ex, cx, 1e-9)
	assert.InDelta(t, ey, cy, 1e-9)
}

func TestDrawIsDeterministic(t *testing.T) {
	s := newTestScope(t)
	sw := Sweep{AngleDeg: 45, DistanceCM: 120, Detected: true}

	a := s.Draw(sw)
	b := s.Draw(sw)
	assert.True(t, bytes.Equal(a.Pix, b.Pix), "same sweep must produce identical pixels")

	c := s.Draw(Sweep{AngleDeg: 46, DistanceCM: 120, Detected: true})
	assert.False(t, bytes.Equal(a.Pix, c.Pix))
}

func TestDrawMarkerStyle(t *testing.T) {
	s := newTestScope(t)
	x, y := s.Project(90, 30)
	px, py := int(math.Floor(x)), int(math.Floor(y))

	detected := s.Draw(Sweep{AngleDeg: 90, DistanceCM: 30, Detected: true})
	assertNearColor(t, ColorMarkerDetected, detected.RGBAAt(px, py))

	clearImg := s.Draw(Sweep{AngleDeg: 90, DistanceCM: 30, Detected: false})
	assertNearColor(t, ColorMarkerClear, clearImg.RGBAAt(px, py))
}

func TestDrawWithoutDistanceSkipsMarker(t *testing.T) {
	s := newTestScope(t)

	// Without a marker the detection flag has nothing to style.
	detected := s.Draw(Sweep{AngleDeg: 90, DistanceCM: 0, Detected: true})
	clearImg := s.Draw(Sweep{AngleDeg: 90, DistanceCM: 0, Detected: false})
	assert.True(t, bytes.Equal(detected.Pix, clearImg.Pix))
}

func TestGridIsNeverBlank(t *testing.T) {
	s := newTestScope(t)
	img := s.Grid()
	require.Equal(t, 400, img.Bounds().Dx())
	require.Equal(t, 220, img.Bounds().Dy())

	assert.Equal(t, ColorBackground, img.RGBAAt(2, 2))

	// The baseline runs through the origin row across the full diameter.
	assert.NotEqual(t, ColorBackground, img.RGBAAt(100, 202))
}

func TestEncodePNG(t *testing.T) {
	s := newTestScope(t)
	data, err := EncodePNG(s.Grid())
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 400, decoded.Bounds().Dx())
}
