package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LastReading is the most recent sample embedded in a statistics snapshot.
type LastReading struct {
	Angle          float64 `json:"angulo"`
	Distance       float64 `json:"distancia"`
	ObjectDetected bool    `json:"objeto_detetado"`
	Timestamp      string  `json:"timestamp,omitempty"`
}

// Statistics is the aggregate computed by the backend over its reporting window.
type Statistics struct {
	TotalReadings   float64      `json:"total_leituras"`
	ObjectsDetected float64      `json:"objetos_detetados"`
	DetectionRate   float64      `json:"taxa_deteccao"`
	AverageDistance float64      `json:"media_distancia"`
	LastReading     *LastReading `json:"ultima_leitura,omitempty"`
	PeriodHours     int          `json:"periodo_horas,omitempty"`
	Device          string       `json:"dispositivo,omitempty"`
}

// Reading is one radar sensor sample.
type Reading struct {
	ID             int64   `json:"id,omitempty"`
	Angle          float64 `json:"angulo"`
	Distance       float64 `json:"distancia"`
	ObjectDetected bool    `json:"objeto_detetado"`
	Timestamp      string  `json:"timestamp"`
	Device         string  `json:"id_dispositivo,omitempty"`
	Session        string  `json:"id_sessao,omitempty"`
}

// ReadingsPage is the envelope returned by the readings endpoint.
type ReadingsPage struct {
	Readings []Reading `json:"leituras"`
}

// SeverityError marks alerts rendered with the error style.
const SeverityError = "error"

// Alert is a system alert raised by the backend.
type Alert struct {
	ID        int64  `json:"id,omitempty"`
	Type      string `json:"tipo_alerta,omitempty"`
	Message   string `json:"mensagem"`
	Severity  string `json:"severidade"`
	Timestamp string `json:"timestamp"`
	Resolved  bool   `json:"resolvido,omitempty"`
}

// IsError reports whether the alert belongs to the error bucket.
func (a Alert) IsError() bool {
	return a.Severity == SeverityError
}

// Health is the backend health probe payload.
type Health struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Timestamp   string `json:"timestamp"`
	Database    string `json:"database"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

// Healthy reports whether the backend and its database are both up.
func (h Health) Healthy() bool {
	return h.Status == "healthy" && h.Database == "connected"
}

type statisticsWire struct {
	TotalReadings   *float64     `json:"total_leituras"`
	ObjectsDetected *float64     `json:"objetos_detetados"`
	DetectionRate   *float64     `json:"taxa_deteccao"`
	AverageDistance *float64     `json:"media_distancia"`
	LastReading     *LastReading `json:"ultima_leitura"`
	PeriodHours     int          `json:"periodo_horas"`
	Device          string       `json:"dispositivo"`
}

// DecodeStatistics parses a statistics payload, rejecting snapshots that
// lack any of the required counters.
func DecodeStatistics(data []byte) (Statistics, error) {
	var wire statisticsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return Statistics{}, fmt.Errorf("parse statistics: %w", err)
	}

	var missing []string
	if wire.TotalReadings == nil {
		missing = append(missing, "total_leituras")
	}
	if wire.ObjectsDetected == nil {
		missing = append(missing, "objetos_detetados")
	}
	if wire.DetectionRate == nil {
		missing = append(missing, "taxa_deteccao")
	}
	if wire.AverageDistance == nil {
		missing = append(missing, "media_distancia")
	}
	if len(missing) > 0 {
		return Statistics{}, fmt.Errorf("statistics missing %s", strings.Join(missing, ", "))
	}

	return Statistics{
		TotalReadings:   *wire.TotalReadings,
		ObjectsDetected: *wire.ObjectsDetected,
		DetectionRate:   *wire.DetectionRate,
		AverageDistance: *wire.AverageDistance,
		LastReading:     wire.LastReading,
		PeriodHours:     wire.PeriodHours,
		Device:          wire.Device,
	}, nil
}

// DecodeReadings parses the readings envelope. An absent list is empty.
func DecodeReadings(data []byte) (ReadingsPage, error) {
	var page ReadingsPage
	if err := json.Unmarshal(data, &page); err != nil {
		return ReadingsPage{}, fmt.Errorf("parse readings: %w", err)
	}
	return page, nil
}

// DecodeAlerts parses the bare alert array returned by the alerts endpoint.
func DecodeAlerts(data []byte) ([]Alert, error) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, errors.New("parse alerts: expected a JSON array")
	}
	var alerts []Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, fmt.Errorf("parse alerts: %w", err)
	}
	return alerts, nil
}

// DecodeHealth parses the health probe payload.
func DecodeHealth(data []byte) (Health, error) {
	var h Health
	if err := json.Unmarshal(data, &h); err != nil {
		return Health{}, fmt.Errorf("parse health: %w", err)
	}
	if h.Status == "" {
		return Health{}, errors.New("health missing status")
	}
	return h, nil
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 and naive ISO-8601 timestamps. Naive
// values are interpreted in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}
