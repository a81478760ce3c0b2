package scene

import (
	"github.com/chrissnell/anomalymap/internal/dataset"
)

const (
	mapRows     = 2
	mapCols     = 2
	mapSpacing  = 0.05
	markerSize  = 7
	markerAlpha = 0.9

	mapHoverTemplate = "Point ID: <b>%{text}</b><br><br>" +
		"Anomaly: <b>%{customdata}</b><br>" +
		"<extra></extra>"
)

// MapScene lays the four measures out as a 2x2 grid of map panels. Every
// panel plots the same points and shares one color axis whose range is the
// composer's fixed color domain, whatever the data range of the year. An
// empty rows slice yields empty panels with no color bar.
func (c *Composer) MapScene(year int, rows []dataset.Row) Figure {
	empty := len(rows) == 0

	lat := make([]float64, len(rows))
	lon := make([]float64, len(rows))
	ids := make([]string, len(rows))
	for i, r := range rows {
		lat[i] = r.Lat
		lon[i] = r.Lon
		ids[i] = r.GridID
	}

	domains := gridDomains(mapRows, mapCols, mapSpacing, mapSpacing)
	layout := Layout{
		Height:     c.height,
		Autosize:   true,
		ShowLegend: false,
		HoverMode:  "closest",
		UIRevision: MapUIRevision,
		Mapboxes:   make(map[string]Mapbox, dataset.NumMeasures),
		Meta:       Meta{Year: year, Empty: empty},
	}

	traces := make([]Trace, 0, dataset.NumMeasures)
	for i, m := range dataset.Measures {
		d := domains[i/mapCols][i%mapCols]
		subplot := subplotName("mapbox", i)

		layout.Mapboxes[subplot] = Mapbox{
			Domain:      d,
			Style:       c.viewport.Style,
			Center:      c.viewport.Center,
			Zoom:        c.viewport.Zoom,
			AccessToken: c.viewport.AccessToken,
			UIRevision:  MapUIRevision,
		}
		layout.Annotations = append(layout.Annotations, titleAnnotation(m.Title(), d))
		layout.Meta.LinkedSubplots = append(layout.Meta.LinkedSubplots, subplot)

		colors := make([]float64, len(rows))
		deltas := make([]float64, len(rows))
		for j, r := range rows {
			colors[j] = r.ColorValue(m)
			deltas[j] = r.Delta(m)
		}

		t := MapTrace{
			Type:          MapTrace{}.TraceType(),
			Name:          m.Column(),
			Subplot:       subplot,
			Lat:           lat,
			Lon:           lon,
			Text:          ids,
			CustomData:    deltas,
			HoverTemplate: mapHoverTemplate,
			Mode:          "markers",
			Marker: MapMarker{
				Size:    markerSize,
				Opacity: markerAlpha,
				Color:   colors,
			},
		}
		if !empty {
			t.Marker.ColorAxis = "coloraxis"
			t.Marker.ShowScale = true
			cmin, cmax := c.domain[0], c.domain[1]
			t.Marker.CMin = &cmin
			t.Marker.CMax = &cmax
		}
		traces = append(traces, t)
	}

	if empty {
		layout.Annotations = append(layout.Annotations, noDataAnnotation(year))
	} else {
		layout.ColorAxis = c.anomalyColorAxis()
	}

	return Figure{Data: traces, Layout: layout}
}

func (c *Composer) anomalyColorAxis() *ColorAxis {
	return &ColorAxis{
		Colorscale: c.colorscale,
		CMin:       c.domain[0],
		CMax:       c.domain[1],
		ShowScale:  true,
		ColorBar: ColorBar{
			Title:    Text{Text: "Anomaly (%)"},
			TickMode: "array",
			TickVals: c.anomaly.Ticks.Positions(),
			TickText: c.anomaly.Ticks.Labels(),
		},
	}
}
