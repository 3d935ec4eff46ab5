package dashboard

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindDefaultLayout(t *testing.T) {
	doc, err := NewDocument(DefaultLayout())
	require.NoError(t, err)

	els, err := Bind(doc)
	require.NoError(t, err)
	assert.Equal(t, IDRadarCanvas, els.RadarCanvas.ID())
	assert.Equal(t, KindList, els.ReadingsList.Kind())
	assert.Equal(t, "0%", els.DetectionRate.Text())
}

func TestBindFailsOnMissingElement(t *testing.T) {
	var layout []ElementSpec
	for _, spec := range DefaultLayout() {
		if spec.ID == IDAlertsList {
			continue
		}
		layout = append(layout, spec)
	}
	doc, err := NewDocument(layout)
	require.NoError(t, err)

	_, err = Bind(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), IDAlertsList)
}

func TestBindFailsOnWrongKind(t *testing.T) {
	layout := DefaultLayout()
	for i := range layout {
		if layout[i].ID == IDRadarCanvas {
			layout[i].Kind = KindText
		}
	}
	doc, err := NewDocument(layout)
	require.NoError(t, err)

	_, err = Bind(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), IDRadarCanvas)
}

func TestNewDocumentRejectsDuplicates(t *testing.T) {
	_, err := NewDocument([]ElementSpec{{ID: "a", Kind: KindText}, {ID: "a", Kind: KindList}})
	assert.Error(t, err)

	_, err = NewDocument([]ElementSpec{{ID: " ", Kind: KindText}})
	assert.Error(t, err)
}

func TestMutationsBumpVersion(t *testing.T) {
	doc, err := NewDocument(DefaultLayout())
	require.NoError(t, err)
	els, err := Bind(doc)
	require.NoError(t, err)

	start := doc.Version()
	els.TotalReadings.SetText("5")
	assert.Equal(t, start+1, doc.Version())
	assert.Equal(t, doc.Version(), els.TotalReadings.Version())

	els.ReadingsList.ReplaceChildren(Node{Class: "a", HTML: "<div>a</div>"}, Node{Class: "b", HTML: "<div>b</div>"})
	els.RadarCanvas.SetImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.Equal(t, start+3, doc.Version())
	assert.Len(t, els.ReadingsList.Children(), 2)
	assert.Equal(t, "<div>a</div><div>b</div>", string(els.ReadingsList.InnerHTML()))
}

func TestSnapshot(t *testing.T) {
	doc, err := NewDocument(DefaultLayout())
	require.NoError(t, err)
	els, err := Bind(doc)
	require.NoError(t, err)

	els.ScanStatus.SetTextClass(StatusOnline, "online")
	els.AlertsList.ReplaceChildren(Node{Class: ClassPlaceholder, HTML: "<div>x</div>"})

	snap := doc.Snapshot()
	require.Len(t, snap.Elements, len(DefaultLayout()))
	assert.Equal(t, IDTotalReadings, snap.Elements[0].ID)
	assert.Equal(t, doc.Version(), snap.Version)

	byID := snap.ByID()
	assert.Equal(t, StatusOnline, byID[IDScanStatus].Text)
	assert.Equal(t, "online", byID[IDScanStatus].Class)
	assert.NotNil(t, byID[IDScanStatus].UpdatedAt)
	assert.Equal(t, "<div>x</div>", string(byID[IDAlertsList].HTML))
	assert.Nil(t, byID[IDReadingsList].UpdatedAt)
}
