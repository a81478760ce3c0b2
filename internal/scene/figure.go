// Package scene builds declarative figure descriptions for the map and
// distribution views. Figures encode to the JSON shape Plotly.js accepts in
// Plotly.react(); the package never renders anything itself.
package scene

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/chrissnell/anomalymap/internal/scale"
	"github.com/vmihailenco/msgpack/v5"
)

// Figure is a complete scene: a list of traces and the layout that places them.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one drawable series.
type Trace interface {
	TraceType() string
}

// MapTrace is a point scatter on a mapbox subplot.
type MapTrace struct {
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	Subplot       string    `json:"subplot"`
	Lat           []float64 `json:"lat"`
	Lon           []float64 `json:"lon"`
	Text          []string  `json:"text"`
	CustomData    []float64 `json:"customdata"`
	HoverTemplate string    `json:"hovertemplate"`
	Mode          string    `json:"mode"`
	Marker        MapMarker `json:"marker"`
}

func (MapTrace) TraceType() string { return "scattermapbox" }

// MapMarker styles the points of a MapTrace. When ColorAxis is set the
// colors are resolved through the layout's shared color axis.
type MapMarker struct {
	Size      float64   `json:"size"`
	Opacity   float64   `json:"opacity"`
	Color     []float64 `json:"color"`
	ColorAxis string    `json:"coloraxis,omitempty"`
	ShowScale bool      `json:"showscale"`
	CMin      *float64  `json:"cmin,omitempty"`
	CMax      *float64  `json:"cmax,omitempty"`
}

// HistogramTrace is one overlaid histogram series of a facet.
type HistogramTrace struct {
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	LegendGroup   string    `json:"legendgroup"`
	ShowLegend    bool      `json:"showlegend"`
	X             []float64 `json:"x"`
	XAxis         string    `json:"xaxis"`
	YAxis         string    `json:"yaxis"`
	BinGroup      string    `json:"bingroup"`
	Opacity       float64   `json:"opacity"`
	Marker        BarMarker `json:"marker"`
	HoverTemplate string    `json:"hovertemplate"`
}

func (HistogramTrace) TraceType() string { return "histogram" }

// BarMarker colors a histogram or box trace.
type BarMarker struct {
	Color string `json:"color"`
}

// BoxTrace is a horizontal box plot built from precomputed statistics.
type BoxTrace struct {
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	LegendGroup string    `json:"legendgroup"`
	ShowLegend  bool      `json:"showlegend"`
	Orientation string    `json:"orientation"`
	Y           []string  `json:"y"`
	Q1          []float64 `json:"q1"`
	Median      []float64 `json:"median"`
	Q3          []float64 `json:"q3"`
	LowerFence  []float64 `json:"lowerfence"`
	UpperFence  []float64 `json:"upperfence"`
	Mean        []float64 `json:"mean"`
	XAxis       string    `json:"xaxis"`
	YAxis       string    `json:"yaxis"`
	Marker      BarMarker `json:"marker"`
}

func (BoxTrace) TraceType() string { return "box" }

// Layout positions subplots, axes and annotations. Mapbox subplots and
// cartesian axes are keyed by their Plotly names ("mapbox2", "xaxis3", ...)
// and flattened into the top level when encoded.
type Layout struct {
	Height      int
	Autosize    bool
	ShowLegend  bool
	HoverMode   string
	UIRevision  string
	BarMode     string
	ColorAxis   *ColorAxis
	Legend      *Legend
	Annotations []Annotation
	Mapboxes    map[string]Mapbox
	Axes        map[string]Axis
	Meta        Meta
}

// Meta carries values the page needs but Plotly ignores.
type Meta struct {
	Year           int      `json:"year"`
	Empty          bool     `json:"empty"`
	LinkedSubplots []string `json:"linked_subplots,omitempty"`
}

// ColorAxis is a color scale shared by several traces.
type ColorAxis struct {
	Colorscale scale.StepColorscale `json:"colorscale"`
	CMin       float64              `json:"cmin"`
	CMax       float64              `json:"cmax"`
	ShowScale  bool                 `json:"showscale"`
	ColorBar   ColorBar             `json:"colorbar"`
}

// ColorBar labels a ColorAxis with explicit ticks.
type ColorBar struct {
	Title    Text      `json:"title"`
	TickMode string    `json:"tickmode"`
	TickVals []float64 `json:"tickvals"`
	TickText []string  `json:"ticktext"`
}

// Text is a Plotly title object.
type Text struct {
	Text string `json:"text"`
}

// Legend configures the trace legend.
type Legend struct {
	Title       Text   `json:"title"`
	TraceOrder  string `json:"traceorder,omitempty"`
	Orientation string `json:"orientation,omitempty"`
}

// Annotation is a text label placed in paper coordinates.
type Annotation struct {
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	XAnchor   string  `json:"xanchor"`
	YAnchor   string  `json:"yanchor"`
	ShowArrow bool    `json:"showarrow"`
	Font      *Font   `json:"font,omitempty"`
}

// Font sets annotation text size.
type Font struct {
	Size int `json:"size"`
}

// Domain is the fraction of the figure a subplot occupies.
type Domain struct {
	X [2]float64 `json:"x"`
	Y [2]float64 `json:"y"`
}

// Center is a map center coordinate.
type Center struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Mapbox configures one map subplot.
type Mapbox struct {
	Domain      Domain  `json:"domain"`
	Style       string  `json:"style"`
	Center      Center  `json:"center"`
	Zoom        float64 `json:"zoom"`
	AccessToken string  `json:"accesstoken,omitempty"`
	UIRevision  string  `json:"uirevision,omitempty"`
}

// Axis configures one cartesian axis.
type Axis struct {
	Domain         [2]float64 `json:"domain"`
	Anchor         string     `json:"anchor"`
	Matches        string     `json:"matches,omitempty"`
	ShowTickLabels bool       `json:"showticklabels"`
	ShowGrid       bool       `json:"showgrid"`
	Title          *Text      `json:"title,omitempty"`
}

func (l Layout) fields() map[string]any {
	m := map[string]any{
		"autosize":    l.Autosize,
		"showlegend":  l.ShowLegend,
		"annotations": l.Annotations,
		"meta":        l.Meta,
	}
	if l.Annotations == nil {
		m["annotations"] = []Annotation{}
	}
	if l.Height > 0 {
		m["height"] = l.Height
	}
	if l.HoverMode != "" {
		m["hovermode"] = l.HoverMode
	}
	if l.UIRevision != "" {
		m["uirevision"] = l.UIRevision
	}
	if l.BarMode != "" {
		m["barmode"] = l.BarMode
	}
	if l.ColorAxis != nil {
		m["coloraxis"] = l.ColorAxis
	}
	if l.Legend != nil {
		m["legend"] = l.Legend
	}
	for name, mb := range l.Mapboxes {
		m[name] = mb
	}
	for name, ax := range l.Axes {
		m[name] = ax
	}
	return m
}

// MarshalJSON flattens the subplot maps into the layout object.
func (l Layout) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.fields())
}

// MarshalMsgpack encodes the same flattened object as MarshalJSON.
func (l Layout) MarshalMsgpack() ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.SetSortMapKeys(true)
	if err := enc.Encode(l.fields()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// subplotName returns the Plotly name of the i-th (0-based) subplot of a
// kind: "mapbox", "mapbox2", ...
func subplotName(kind string, i int) string {
	if i == 0 {
		return kind
	}
	return kind + strconv.Itoa(i+1)
}

// gridDomains splits the figure into rows x cols cells separated by the
// given spacing. Row 0 is the top row.
func gridDomains(rows, cols int, hspace, vspace float64) [][]Domain {
	w := (1 - hspace*float64(cols-1)) / float64(cols)
	h := (1 - vspace*float64(rows-1)) / float64(rows)

	out := make([][]Domain, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]Domain, cols)
		top := 1 - float64(r)*(h+vspace)
		for c := 0; c < cols; c++ {
			left := float64(c) * (w + hspace)
			out[r][c] = Domain{
				X: [2]float64{left, left + w},
				Y: [2]float64{top - h, top},
			}
		}
	}
	return out
}
