package scale

import "fmt"

// Scale bundles a validated set of boundaries and colors with the colorscale
// and ticks derived from them. A Scale is immutable once built.
type Scale struct {
	Name       string         `json:"name"`
	Bins       BinSet         `json:"boundaries"`
	Colors     ColorSet       `json:"colors"`
	Colorscale StepColorscale `json:"colorscale"`
	Ticks      TickSet        `json:"ticks"`
}

// New validates the boundaries and colors and derives the colorscale and ticks.
func New(name string, bins []float64, colors []string) (*Scale, error) {
	b := append(BinSet(nil), bins...)
	c := append(ColorSet(nil), colors...)

	cs, err := BuildStepColorscale(b, c)
	if err != nil {
		return nil, fmt.Errorf("scale %q: %w", name, err)
	}

	return &Scale{
		Name:       name,
		Bins:       b,
		Colors:     c,
		Colorscale: cs,
		Ticks:      Ticks(b),
	}, nil
}

// Classify returns the class index of v.
func (s *Scale) Classify(v float64) int {
	return s.Bins.Classify(v)
}

// ClassValue returns the value used to color v on a continuous color axis:
// the midpoint of v's class.
func (s *Scale) ClassValue(v float64) float64 {
	return s.Ticks[s.Classify(v)].Position
}

// Label returns the tick label of v's class.
func (s *Scale) Label(v float64) string {
	return s.Ticks[s.Classify(v)].Label
}

// ClassColor returns the color of class k.
func (s *Scale) ClassColor(k int) string {
	if k < 0 || k >= len(s.Colors) {
		return ""
	}
	return s.Colors[k]
}

// Domain returns the outer boundaries.
func (s *Scale) Domain() (float64, float64) {
	return s.Bins[0], s.Bins[len(s.Bins)-1]
}
