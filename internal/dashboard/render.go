package dashboard

import (
	"strings"

	"scanguard/internal/models"
	"scanguard/internal/monitoring"
	"scanguard/internal/radar"
)

// Status indicator states.
const (
	StatusOnline   = "ONLINE"
	StatusDegraded = "DEGRADED"
	StatusOffline  = "OFFLINE"
)

// Renderer writes fetched snapshots into the dashboard document. Every
// method touches only the elements of its own panel.
type Renderer struct {
	els    *Elements
	scope  *radar.Scope
	format *Formatter
}

// NewRenderer wires a renderer to bound elements.
func NewRenderer(els *Elements, scope *radar.Scope, format *Formatter) *Renderer {
	return &Renderer{els: els, scope: scope, format: format}
}

// InitRadar paints the empty grid so the canvas is never blank.
func (r *Renderer) InitRadar() {
	r.els.RadarCanvas.SetImage(r.scope.Grid())
}

// DrawRadar redraws the whole canvas for one beam position.
func (r *Renderer) DrawRadar(angleDeg, distanceCM float64, detected bool) {
	r.els.RadarCanvas.SetImage(r.scope.Draw(radar.Sweep{
		AngleDeg:   angleDeg,
		DistanceCM: distanceCM,
		Detected:   detected,
	}))
}

// Statistics updates the counters and, when the snapshot carries a last
// reading, the live values and the radar.
func (r *Renderer) Statistics(s models.Statistics) {
	r.els.TotalReadings.SetText(r.format.Count(s.TotalReadings))
	r.els.ObjectsDetected.SetText(r.format.Count(s.ObjectsDetected))
	r.els.DetectionRate.SetText(WithUnit(s.DetectionRate, "%"))
	r.els.AverageDistance.SetText(WithUnit(s.AverageDistance, "cm"))

	last := s.LastReading
	if last == nil {
		return
	}
	r.els.CurrentAngle.SetText(WithUnit(last.Angle, "°"))
	r.els.LastDistance.SetText(WithUnit(last.Distance, "cm"))
	r.DrawRadar(last.Angle, last.Distance, last.ObjectDetected)
}

// Readings replaces the readings list with one row per reading.
func (r *Renderer) Readings(page models.ReadingsPage) {
	if len(page.Readings) == 0 {
		r.els.ReadingsList.ReplaceChildren(placeholderNode(ClassPlaceholder, MsgNoReadings))
		return
	}

	nodes := make([]Node, 0, len(page.Readings))
	for _, rd := range page.Readings {
		view := readingView{
			Class:       ClassReading,
			Angle:       WithUnit(rd.Angle, "°"),
			Distance:    WithUnit(rd.Distance, "cm"),
			Status:      LabelClear,
			StatusClass: "clear",
			Time:        r.format.TimeOfDay(rd.Timestamp),
		}
		if rd.ObjectDetected {
			view.Class = ClassReadingDetected
			view.Status = LabelDetected
			view.StatusClass = "detected"
		}
		node, err := readingNode(view)
		if err != nil {
			monitoring.Logf("readings panel: %v", err)
			r.ReadingsFailed(err)
			return
		}
		nodes = append(nodes, node)
	}
	r.els.ReadingsList.ReplaceChildren(nodes...)
}

// ReadingsFailed replaces the readings list with the error placeholder.
// The cause is logged by the poller, not shown.
func (r *Renderer) ReadingsFailed(error) {
	r.els.ReadingsList.ReplaceChildren(placeholderNode(ClassErrorState, MsgReadingsFail))
}

// Alerts replaces the alerts list with one row per alert.
func (r *Renderer) Alerts(alerts []models.Alert) {
	if len(alerts) == 0 {
		r.els.AlertsList.ReplaceChildren(placeholderNode(ClassPlaceholder, MsgNoAlerts))
		return
	}

	nodes := make([]Node, 0, len(alerts))
	for _, a := range alerts {
		view := alertView{
			Class:         ClassAlert,
			Severity:      severityLabel(a.Severity),
			SeverityClass: "info",
			Message:       a.Message,
			Time:          r.format.TimeOfDay(a.Timestamp),
		}
		if a.IsError() {
			view.Class = ClassAlertError
			view.SeverityClass = "error"
		}
		node, err := alertNode(view)
		if err != nil {
			monitoring.Logf("alerts panel: %v", err)
			r.AlertsFailed(err)
			return
		}
		nodes = append(nodes, node)
	}
	r.els.AlertsList.ReplaceChildren(nodes...)
}

// AlertsFailed replaces the alerts list with the error placeholder.
func (r *Renderer) AlertsFailed(error) {
	r.els.AlertsList.ReplaceChildren(placeholderNode(ClassErrorState, MsgAlertsFail))
}

// Health reflects the backend probe in the status indicator.
func (r *Renderer) Health(h models.Health) {
	if h.Healthy() {
		r.els.ScanStatus.SetTextClass(StatusOnline, "online")
		return
	}
	r.els.ScanStatus.SetTextClass(StatusDegraded, "degraded")
}

// HealthFailed marks the backend as unreachable.
func (r *Renderer) HealthFailed(error) {
	r.els.ScanStatus.SetTextClass(StatusOffline, "offline")
}

func severityLabel(severity string) string {
	severity = strings.TrimSpace(severity)
	if severity == "" {
		return "INFO"
	}
	return strings.ToUpper(severity)
}
