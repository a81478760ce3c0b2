package scene

import (
	"fmt"
	"sort"

	"github.com/chrissnell/anomalymap/internal/dataset"
)

const (
	facetSpacing   = 0.02
	histogramTop   = 0.74
	marginalBottom = 0.76
	overlayOpacity = 0.5

	// CategoryField names the precipitation category in legends and hovers.
	CategoryField = "pr_cat"
)

// Plotly's default qualitative palette, used for categories that aren't
// labels of the precipitation scale.
var fallbackPalette = []string{
	"#636efa", "#EF553B", "#00cc96", "#ab63fa", "#FFA15A",
	"#19d3f3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// DistributionScene draws one facet per measure. Each facet overlays one
// histogram per precipitation category and shows a box plot of the same
// values in a marginal strip above it.
func (c *Composer) DistributionScene(year int, rows []dataset.Row) Figure {
	categories := c.orderCategories(rows)
	colors := c.categoryColors(categories)

	layout := Layout{
		Autosize:   true,
		ShowLegend: true,
		BarMode:    "overlay",
		Legend:     &Legend{Title: Text{Text: CategoryField}, TraceOrder: "normal"},
		Axes:       make(map[string]Axis, 3*dataset.NumMeasures),
		Meta:       Meta{Year: year, Empty: len(rows) == 0},
	}

	n := dataset.NumMeasures
	width := (1 - facetSpacing*float64(n-1)) / float64(n)

	traces := make([]Trace, 0, 2*n*len(categories))
	for i, m := range dataset.Measures {
		left := float64(i) * (width + facetSpacing)
		xdom := [2]float64{left, left + width}

		xName, xRef := subplotName("xaxis", i), subplotName("x", i)
		yName, yRef := subplotName("yaxis", i), subplotName("y", i)
		myName, myRef := subplotName("yaxis", i+n), subplotName("y", i+n)

		x := Axis{Domain: xdom, Anchor: yRef, ShowTickLabels: true, Title: &Text{Text: "value"}}
		y := Axis{Domain: [2]float64{0, histogramTop}, Anchor: xRef, ShowTickLabels: i == 0, ShowGrid: true}
		my := Axis{Domain: [2]float64{marginalBottom, 1}, Anchor: xRef, Matches: subplotName("y", n), ShowTickLabels: false}
		if i > 0 {
			x.Matches = "x"
			y.Matches = "y"
		} else {
			y.Title = &Text{Text: "count"}
			my.Matches = ""
		}
		layout.Axes[xName] = x
		layout.Axes[yName] = y
		layout.Axes[myName] = my

		layout.Annotations = append(layout.Annotations, titleAnnotation("variable="+m.Column(), Domain{X: xdom, Y: [2]float64{0, 1}}))

		for _, cat := range categories {
			values := make([]float64, 0, len(rows))
			for _, r := range rows {
				if r.PrecipCategory == cat {
					values = append(values, r.Delta(m))
				}
			}

			hover := fmt.Sprintf("%s=%s<br>variable=%s<br>value=%%{x}<br>count=%%{y}<extra></extra>",
				CategoryField, cat, m.Column())
			traces = append(traces, HistogramTrace{
				Type:          HistogramTrace{}.TraceType(),
				Name:          cat,
				LegendGroup:   cat,
				ShowLegend:    i == 0,
				X:             values,
				XAxis:         xRef,
				YAxis:         yRef,
				BinGroup:      xRef,
				Opacity:       overlayOpacity,
				Marker:        BarMarker{Color: colors[cat]},
				HoverTemplate: hover,
			})

			bs, ok := Summarize(values)
			if !ok {
				continue
			}
			traces = append(traces, BoxTrace{
				Type:        BoxTrace{}.TraceType(),
				Name:        cat,
				LegendGroup: cat,
				ShowLegend:  false,
				Orientation: "h",
				Y:           []string{cat},
				Q1:          []float64{bs.Q1},
				Median:      []float64{bs.Median},
				Q3:          []float64{bs.Q3},
				LowerFence:  []float64{bs.LowerFence},
				UpperFence:  []float64{bs.UpperFence},
				Mean:        []float64{bs.Mean},
				XAxis:       xRef,
				YAxis:       myRef,
				Marker:      BarMarker{Color: colors[cat]},
			})
		}
	}

	if len(rows) == 0 {
		layout.ShowLegend = false
		layout.Annotations = append(layout.Annotations, noDataAnnotation(year))
	}

	return Figure{Data: traces, Layout: layout}
}

// orderCategories returns the distinct precipitation categories of rows.
// Categories that are labels of the precipitation scale come first, in
// class order; any others follow alphabetically.
func (c *Composer) orderCategories(rows []dataset.Row) []string {
	seen := make(map[string]bool)
	for _, r := range rows {
		seen[r.PrecipCategory] = true
	}

	var out []string
	for _, tick := range c.precipitation.Ticks {
		if seen[tick.Label] {
			out = append(out, tick.Label)
			delete(seen, tick.Label)
		}
	}

	rest := make([]string, 0, len(seen))
	for cat := range seen {
		rest = append(rest, cat)
	}
	sort.Strings(rest)

	return append(out, rest...)
}

// categoryColors maps precipitation scale labels to their scale color and
// every other category to the fallback palette.
func (c *Composer) categoryColors(categories []string) map[string]string {
	byLabel := make(map[string]string, len(c.precipitation.Ticks))
	for k, tick := range c.precipitation.Ticks {
		byLabel[tick.Label] = c.precipitation.ClassColor(k)
	}

	colors := make(map[string]string, len(categories))
	next := 0
	for _, cat := range categories {
		if col, ok := byLabel[cat]; ok {
			colors[cat] = col
			continue
		}
		colors[cat] = fallbackPalette[next%len(fallbackPalette)]
		next++
	}
	return colors
}
