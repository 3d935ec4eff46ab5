package dashboard

import (
	"fmt"
	"html/template"
	"strings"
)

// Node classes used by the list panels and the stylesheet.
const (
	ClassReading         = "reading-item"
	ClassReadingDetected = "reading-item object"
	ClassAlert           = "alert-item"
	ClassAlertError      = "alert-item error"
	ClassPlaceholder     = "loading"
	ClassErrorState      = "loading error"
)

// Fixed panel strings.
const (
	LabelDetected   = "OBJECT DETECTED"
	LabelClear      = "CLEAR"
	MsgNoReadings   = "No readings available"
	MsgReadingsFail = "Error loading readings"
	MsgNoAlerts     = "No alerts"
	MsgAlertsFail   = "Error loading alerts"
)

var nodeTemplates = template.Must(template.New("nodes").Parse(`
{{- define "reading" -}}
<div class="{{.Class}}"><div class="row"><div><strong>📍 {{.Angle}}</strong> | {{.Distance}} | <span class="status {{.StatusClass}}">{{.Status}}</span></div><div class="time">{{.Time}}</div></div></div>
{{- end -}}
{{- define "alert" -}}
<div class="{{.Class}}"><div class="row"><div class="body"><strong class="severity {{.SeverityClass}}">{{.Severity}}</strong><p>{{.Message}}</p></div><div class="time">{{.Time}}</div></div></div>
{{- end -}}
{{- define "placeholder" -}}
<div class="{{.Class}}">{{.Message}}</div>
{{- end -}}
`))

type readingView struct {
	Class       string
	Angle       string
	Distance    string
	Status      string
	StatusClass string
	Time        string
}

type alertView struct {
	Class         string
	Severity      string
	SeverityClass string
	Message       string
	Time          string
}

type placeholderView struct {
	Class   string
	Message string
}

func renderNode(name, class string, view any) (Node, error) {
	var b strings.Builder
	if err := nodeTemplates.ExecuteTemplate(&b, name, view); err != nil {
		return Node{}, fmt.Errorf("render %s node: %w", name, err)
	}
	return Node{Class: class, HTML: template.HTML(b.String())}, nil
}

func readingNode(v readingView) (Node, error) {
	return renderNode("reading", v.Class, v)
}

func alertNode(v alertView) (Node, error) {
	return renderNode("alert", v.Class, v)
}

// placeholderNode cannot fail for the fixed classes and messages it is
// called with, so an execution error degrades to bare escaped text.
func placeholderNode(class, message string) Node {
	n, err := renderNode("placeholder", class, placeholderView{Class: class, Message: message})
	if err != nil {
		return Node{Class: class, HTML: template.HTML(template.HTMLEscapeString(message))}
	}
	return n
}
