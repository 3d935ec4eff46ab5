package dashboard

import (
	"html/template"
	"time"
)

// ElementState is a read-only copy of one element.
type ElementState struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Text      string        `json:"text,omitempty"`
	Class     string        `json:"class,omitempty"`
	HTML      template.HTML `json:"html,omitempty"`
	Version   uint64        `json:"version"`
	UpdatedAt *time.Time    `json:"updated_at,omitempty"`
}

// Snapshot is a point-in-time copy of the document, suitable for JSON.
type Snapshot struct {
	Version     uint64         `json:"version"`
	GeneratedAt time.Time      `json:"generated_at"`
	Elements    []ElementState `json:"elements"`
}

// Snapshot copies every element in layout order. The snapshot version is
// read first, so a concurrent mutation shows up as a newer version later.
func (d *Document) Snapshot() Snapshot {
	snap := Snapshot{
		Version:     d.Version(),
		GeneratedAt: time.Now().UTC(),
		Elements:    make([]ElementState, 0, len(d.order)),
	}
	for _, id := range d.order {
		snap.Elements = append(snap.Elements, d.elements[id].state())
	}
	return snap
}

func (e *Element) state() ElementState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := ElementState{
		ID:      e.id,
		Kind:    e.kind,
		Class:   e.class,
		Version: e.version,
	}
	switch e.kind {
	case KindList:
		st.HTML = joinNodes(e.children)
	case KindText:
		st.Text = e.text
	}
	if !e.updatedAt.IsZero() {
		ts := e.updatedAt
		st.UpdatedAt = &ts
	}
	return st
}

// ByID indexes the snapshot elements by id.
func (s Snapshot) ByID() map[string]ElementState {
	out := make(map[string]ElementState, len(s.Elements))
	for _, el := range s.Elements {
		out[el.ID] = el
	}
	return out
}
