package dashboard

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanguard/internal/models"
	"scanguard/internal/monitoring"
	"scanguard/internal/radar"
)

type fixture struct {
	doc      *Document
	els      *Elements
	scope    *radar.Scope
	renderer *Renderer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	doc, err := NewDocument(DefaultLayout())
	require.NoError(t, err)
	els, err := Bind(doc)
	require.NoError(t, err)
	scope, err := radar.NewScope(radar.Geometry{Width: 400, Height: 220, MaxRangeCM: 200})
	require.NoError(t, err)
	format, err := NewFormatter("en", time.UTC)
	require.NoError(t, err)

	return fixture{doc: doc, els: els, scope: scope, renderer: NewRenderer(els, scope, format)}
}

func TestStatisticsEndToEnd(t *testing.T) {
	f := newFixture(t)

	f.renderer.Statistics(models.Statistics{
		TotalReadings:   100,
		ObjectsDetected: 7,
		DetectionRate:   7,
		AverageDistance: 45.3,
		LastReading:     &models.LastReading{Angle: 90, Distance: 30, ObjectDetected: true},
	})

	assert.Equal(t, "100", f.els.TotalReadings.Text())
	assert.Equal(t, "7", f.els.ObjectsDetected.Text())
	assert.Equal(t, "7%", f.els.DetectionRate.Text())
	assert.Equal(t, "45.3cm", f.els.AverageDistance.Text())
	assert.Equal(t, "90°", f.els.CurrentAngle.Text())
	assert.Equal(t, "30cm", f.els.LastDistance.Text())

	want := f.scope.Draw(radar.Sweep{AngleDeg: 90, DistanceCM: 30, Detected: true})
	got := f.els.RadarCanvas.Image()
	require.NotNil(t, got)
	assert.True(t, bytes.Equal(want.Pix, got.Pix))
}

func TestStatisticsWithoutLastReadingKeepsRadar(t *testing.T) {
	f := newFixture(t)
	f.renderer.DrawRadar(45, 100, false)
	before := f.els.RadarCanvas.Image()
	angleBefore := f.els.CurrentAngle.Text()

	f.renderer.Statistics(models.Statistics{TotalReadings: 1234, DetectionRate: 12.5})

	assert.Same(t, before, f.els.RadarCanvas.Image())
	assert.Equal(t, angleBefore, f.els.CurrentAngle.Text())
	assert.Equal(t, "1,234", f.els.TotalReadings.Text())
	assert.Equal(t, "12.5%", f.els.DetectionRate.Text())
}

func TestInitRadarDrawsGrid(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.els.RadarCanvas.Image())

	f.renderer.InitRadar()
	assert.True(t, bytes.Equal(f.scope.Grid().Pix, f.els.RadarCanvas.Image().Pix))
}

func TestReadingsRows(t *testing.T) {
	f := newFixture(t)
	f.renderer.Readings(models.ReadingsPage{Readings: []models.Reading{
		{Angle: 90, Distance: 30, ObjectDetected: true, Timestamp: "2025-03-01T10:15:30Z"},
		{Angle: 15.5, Distance: 180, ObjectDetected: false, Timestamp: "bogus"},
	}})

	rows := f.els.ReadingsList.Children()
	require.Len(t, rows, 2)
	assert.Equal(t, ClassReadingDetected, rows[0].Class)
	assert.Contains(t, string(rows[0].HTML), "📍 90°")
	assert.Contains(t, string(rows[0].HTML), "30cm")
	assert.Contains(t, string(rows[0].HTML), `<span class="status detected">OBJECT DETECTED</span>`)
	assert.Contains(t, string(rows[0].HTML), "10:15:30")

	assert.Equal(t, ClassReading, rows[1].Class)
	assert.Contains(t, string(rows[1].HTML), `<span class="status clear">CLEAR</span>`)
	assert.Contains(t, string(rows[1].HTML), InvalidDate)
}

func TestReadingsEmptyState(t *testing.T) {
	for name, page := range map[string]models.ReadingsPage{
		"empty":  {Readings: []models.Reading{}},
		"absent": {},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.renderer.Readings(page)

			rows := f.els.ReadingsList.Children()
			require.Len(t, rows, 1)
			assert.Equal(t, ClassPlaceholder, rows[0].Class)
			assert.Contains(t, string(rows[0].HTML), MsgNoReadings)
		})
	}
}

func TestReadingsFailureReplacesRows(t *testing.T) {
	f := newFixture(t)
	f.renderer.Readings(models.ReadingsPage{Readings: []models.Reading{
		{Angle: 10, Distance: 20}, {Angle: 30, Distance: 40},
	}})
	require.Len(t, f.els.ReadingsList.Children(), 2)

	f.renderer.ReadingsFailed(errors.New("connection refused"))

	rows := f.els.ReadingsList.Children()
	require.Len(t, rows, 1)
	assert.Equal(t, ClassErrorState, rows[0].Class)
	assert.Contains(t, string(rows[0].HTML), MsgReadingsFail)
	assert.NotEqual(t, ClassPlaceholder, rows[0].Class)
}

func TestAlertsRowsAndEscaping(t *testing.T) {
	f := newFixture(t)
	f.renderer.Alerts([]models.Alert{
		{Severity: "error", Message: "sensor <offline>", Timestamp: "2025-03-01T10:00:00Z"},
		{Severity: "warning", Message: "low battery"},
		{Message: "note"},
	})

	rows := f.els.AlertsList.Children()
	require.Len(t, rows, 3)
	assert.Equal(t, ClassAlertError, rows[0].Class)
	assert.Contains(t, string(rows[0].HTML), `<strong class="severity error">ERROR</strong>`)
	assert.Contains(t, string(rows[0].HTML), "sensor &lt;offline&gt;")
	assert.NotContains(t, string(rows[0].HTML), "<offline>")

	assert.Equal(t, ClassAlert, rows[1].Class)
	assert.Contains(t, string(rows[1].HTML), `<strong class="severity info">WARNING</strong>`)
	assert.Contains(t, string(rows[2].HTML), ">INFO<")
}

func TestAlertsEmptyAndError(t *testing.T) {
	f := newFixture(t)
	f.renderer.Alerts(nil)
	rows := f.els.AlertsList.Children()
	require.Len(t, rows, 1)
	assert.Contains(t, string(rows[0].HTML), MsgNoAlerts)

	f.renderer.AlertsFailed(errors.New("http 500"))
	rows = f.els.AlertsList.Children()
	require.Len(t, rows, 1)
	assert.Equal(t, ClassErrorState, rows[0].Class)
	assert.Contains(t, string(rows[0].HTML), MsgAlertsFail)
}

func TestAlertsFailureLeavesReadingsAlone(t *testing.T) {
	f := newFixture(t)
	f.renderer.Readings(models.ReadingsPage{Readings: []models.Reading{{Angle: 10, Distance: 20}}})
	before := f.els.ReadingsList.Children()
	version := f.els.ReadingsList.Version()

	f.renderer.AlertsFailed(errors.New("timeout"))

	assert.Equal(t, before, f.els.ReadingsList.Children())
	assert.Equal(t, version, f.els.ReadingsList.Version())
}

func TestHealthIndicator(t *testing.T) {
	f := newFixture(t)

	f.renderer.Health(models.Health{Status: "healthy", Database: "connected"})
	assert.Equal(t, StatusOnline, f.els.ScanStatus.Text())
	assert.Equal(t, "online", f.els.ScanStatus.Class())

	f.renderer.Health(models.Health{Status: "healthy", Database: "error: refused"})
	assert.Equal(t, StatusDegraded, f.els.ScanStatus.Text())

	f.renderer.HealthFailed(errors.New("dial tcp: refused"))
	assert.Equal(t, StatusOffline, f.els.ScanStatus.Text())
	assert.Equal(t, "offline", f.els.ScanStatus.Class())
}

func TestPlaceholderMarkup(t *testing.T) {
	n := placeholderNode(ClassErrorState, MsgReadingsFail)
	assert.True(t, strings.HasPrefix(string(n.HTML), `<div class="loading error">`))
}
