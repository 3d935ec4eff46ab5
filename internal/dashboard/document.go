package dashboard

import (
	"fmt"
	"html/template"
	"image"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Kind classifies what an element holds.
type Kind string

const (
	KindText   Kind = "text"
	KindList   Kind = "list"
	KindCanvas Kind = "canvas"
)

// Element ids making up the dashboard layout.
const (
	IDTotalReadings   = "totalReadings"
	IDObjectsDetected = "objectsDetected"
	IDDetectionRate   = "detectionRate"
	IDAverageDistance = "averageDistance"
	IDCurrentAngle    = "currentAngle"
	IDLastDistance    = "lastDistance"
	IDScanStatus      = "scanStatus"
	IDReadingsList    = "readingsList"
	IDAlertsList      = "alertsList"
	IDRadarCanvas     = "radarCanvas"
)

// ElementSpec declares one element of a layout.
type ElementSpec struct {
	ID      string
	Kind    Kind
	Initial string
}

// DefaultLayout lists every element the renderer binds to.
func DefaultLayout() []ElementSpec {
	return []ElementSpec{
		{ID: IDTotalReadings, Kind: KindText, Initial: "0"},
		{ID: IDObjectsDetected, Kind: KindText, Initial: "0"},
		{ID: IDDetectionRate, Kind: KindText, Initial: "0%"},
		{ID: IDAverageDistance, Kind: KindText, Initial: "0cm"},
		{ID: IDCurrentAngle, Kind: KindText, Initial: "--°"},
		{ID: IDLastDistance, Kind: KindText, Initial: "--cm"},
		{ID: IDScanStatus, Kind: KindText, Initial: "CONNECTING"},
		{ID: IDReadingsList, Kind: KindList},
		{ID: IDAlertsList, Kind: KindList},
		{ID: IDRadarCanvas, Kind: KindCanvas},
	}
}

// Node is one child of a list element: its class plus the escaped markup
// of the whole node.
type Node struct {
	Class string        `json:"class"`
	HTML  template.HTML `json:"html"`
}

// Document is the set of addressable dashboard elements. Each element has
// its own lock so panels never contend with each other.
type Document struct {
	version  atomic.Uint64
	order    []string
	elements map[string]*Element
}

// NewDocument creates a document from a layout. Duplicate ids are rejected.
func NewDocument(layout []ElementSpec) (*Document, error) {
	d := &Document{elements: make(map[string]*Element, len(layout))}
	for _, spec := range layout {
		id := strings.TrimSpace(spec.ID)
		if id == "" {
			return nil, fmt.Errorf("element with kind %q has no id", spec.Kind)
		}
		if _, exists := d.elements[id]; exists {
			return nil, fmt.Errorf("duplicate element id %q", id)
		}
		d.elements[id] = &Element{doc: d, id: id, kind: spec.Kind, text: spec.Initial}
		d.order = append(d.order, id)
	}
	return d, nil
}

// Lookup returns the element with the given id.
func (d *Document) Lookup(id string) (*Element, bool) {
	el, ok := d.elements[id]
	return el, ok
}

// Version increases on every mutation of any element.
func (d *Document) Version() uint64 {
	return d.version.Load()
}

func (d *Document) bump() uint64 {
	return d.version.Add(1)
}

// Element is one region of the dashboard.
type Element struct {
	doc  *Document
	id   string
	kind Kind

	mu        sync.RWMutex
	text      string
	class     string
	children  []Node
	canvas    *image.RGBA
	version   uint64
	updatedAt time.Time
}

// ID returns the element id.
func (e *Element) ID() string { return e.id }

// Kind returns what the element holds.
func (e *Element) Kind() Kind { return e.kind }

// SetText replaces the text content.
func (e *Element) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
	e.touchLocked()
}

// SetTextClass replaces text and class in one step.
func (e *Element) SetTextClass(text, class string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
	e.class = class
	e.touchLocked()
}

// Text returns the text content.
func (e *Element) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.text
}

// Class returns the class attribute.
func (e *Element) Class() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.class
}

// ReplaceChildren drops every existing child and installs nodes in order.
func (e *Element) ReplaceChildren(nodes ...Node) {
	children := make([]Node, len(nodes))
	copy(children, nodes)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.children = children
	e.touchLocked()
}

// Children returns a copy of the current children.
func (e *Element) Children() []Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Node, len(e.children))
	copy(out, e.children)
	return out
}

// InnerHTML concatenates the markup of every child.
func (e *Element) InnerHTML() template.HTML {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return joinNodes(e.children)
}

// SetImage replaces the canvas bitmap. The element takes ownership of img.
func (e *Element) SetImage(img *image.RGBA) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.canvas = img
	e.touchLocked()
}

// Image returns the current canvas bitmap. Callers must not modify it.
func (e *Element) Image() *image.RGBA {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.canvas
}

// Version returns the document version of the element's last mutation.
func (e *Element) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

func (e *Element) touchLocked() {
	e.version = e.doc.bump()
	e.updatedAt = time.Now().UTC()
}

func joinNodes(nodes []Node) template.HTML {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(string(n.HTML))
	}
	return template.HTML(b.String())
}

// Elements is the explicit handle set the renderer writes to.
type Elements struct {
	TotalReadings   *Element
	ObjectsDetected *Element
	DetectionRate   *Element
	AverageDistance *Element
	CurrentAngle    *Element
	LastDistance    *Element
	ScanStatus      *Element
	ReadingsList    *Element
	AlertsList      *Element
	RadarCanvas     *Element
}

// Bind resolves every element the renderer needs. It fails when an id is
// missing or declared with the wrong kind.
func Bind(d *Document) (*Elements, error) {
	var missing []string
	get := func(id string, kind Kind) *Element {
		el, ok := d.Lookup(id)
		if !ok {
			missing = append(missing, id)
			return nil
		}
		if el.kind != kind {
			missing = append(missing, fmt.Sprintf("%s (want %s, have %s)", id, kind, el.kind))
			return nil
		}
		return el
	}

	els := &Elements{
		TotalReadings:   get(IDTotalReadings, KindText),
		ObjectsDetected: get(IDObjectsDetected, KindText),
		DetectionRate:   get(IDDetectionRate, KindText),
		AverageDistance: get(IDAverageDistance, KindText),
		CurrentAngle:    get(IDCurrentAngle, KindText),
		LastDistance:    get(IDLastDistance, KindText),
		ScanStatus:      get(IDScanStatus, KindText),
		ReadingsList:    get(IDReadingsList, KindList),
		AlertsList:      get(IDAlertsList, KindList),
		RadarCanvas:     get(IDRadarCanvas, KindCanvas),
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("dashboard layout missing elements: %s", strings.Join(missing, ", "))
	}
	return els, nil
}
