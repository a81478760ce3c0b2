package scale

import (
	"strconv"
)

// Tick is one labelled position on a color axis.
type Tick struct {
	Position float64 `json:"position"`
	Label    string  `json:"label"`
}

// TickSet holds one tick per class.
type TickSet []Tick

// Ticks places a tick at the midpoint of every class and labels it with the
// class range. The edge classes are labelled open-ended ("<b1", ">b[N-1]").
func Ticks(bins BinSet) TickSet {
	n := bins.Classes()
	if n == 0 {
		return nil
	}

	ticks := make(TickSet, n)
	for k := 0; k < n; k++ {
		var label string
		switch {
		case n == 1:
			label = formatBound(bins[0]) + "-" + formatBound(bins[1])
		case k == 0:
			label = "<" + formatBound(bins[1])
		case k == n-1:
			label = ">" + formatBound(bins[n-1])
		default:
			label = formatBound(bins[k]) + "-" + formatBound(bins[k+1])
		}
		ticks[k] = Tick{
			Position: (bins[k] + bins[k+1]) / 2,
			Label:    label,
		}
	}
	return ticks
}

// Positions returns the tick positions in class order.
func (t TickSet) Positions() []float64 {
	out := make([]float64, len(t))
	for i, tick := range t {
		out[i] = tick.Position
	}
	return out
}

// Labels returns the tick labels in class order.
func (t TickSet) Labels() []string {
	out := make([]string, len(t))
	for i, tick := range t {
		out[i] = tick.Label
	}
	return out
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
