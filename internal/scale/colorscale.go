package scale

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// ColorStop is one (position, color) pair of a colorscale. It encodes as a
// two-element array, the form Plotly expects.
type ColorStop struct {
	Position float64
	Color    string
}

// MarshalJSON encodes the stop as [position, color].
func (s ColorStop) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Position, s.Color})
}

// UnmarshalJSON decodes a [position, color] pair.
func (s *ColorStop) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("color stop must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &s.Position); err != nil {
		return fmt.Errorf("color stop position: %w", err)
	}
	if err := json.Unmarshal(pair[1], &s.Color); err != nil {
		return fmt.Errorf("color stop color: %w", err)
	}
	return nil
}

// MarshalMsgpack encodes the stop as [position, color] so MessagePack
// clients see the same shape as JSON clients.
func (s ColorStop) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal([]any{s.Position, s.Color})
}

// StepColorscale is a piecewise-constant colorscale over [0,1]. Every internal
// boundary appears twice, once with the color below and once with the color
// above, so a continuous renderer draws flat bands instead of a gradient.
type StepColorscale []ColorStop

// BuildStepColorscale converts N+1 boundaries and N colors into a
// StepColorscale of 2N stops.
func BuildStepColorscale(bins BinSet, colors ColorSet) (StepColorscale, error) {
	if err := bins.Validate(); err != nil {
		return nil, err
	}
	if len(colors) != bins.Classes() {
		return nil, fmt.Errorf("%w: %d boundaries need %d colors, got %d",
			ErrConfiguration, len(bins), bins.Classes(), len(colors))
	}

	cs := make(StepColorscale, 0, 2*len(colors))
	for k, c := range colors {
		cs = append(cs,
			ColorStop{Position: bins.Normalize(bins[k]), Color: c},
			ColorStop{Position: bins.Normalize(bins[k+1]), Color: c},
		)
	}

	// Pin the ends so rounding never leaves them a hair off 0 or 1.
	cs[0].Position = 0
	cs[len(cs)-1].Position = 1

	return cs, nil
}

// BuildStepColorscaleOver builds the same bands as BuildStepColorscale but
// places the stops relative to [lo, hi], the range of the color axis the
// scale is drawn on. The edge classes stretch or shrink to meet the ends.
// Every class midpoint must lie inside [lo, hi], otherwise a class could
// never be drawn in its own color.
func BuildStepColorscaleOver(bins BinSet, colors ColorSet, lo, hi float64) (StepColorscale, error) {
	cs, err := BuildStepColorscale(bins, colors)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || lo >= hi {
		return nil, fmt.Errorf("%w: color domain [%v, %v] is empty", ErrConfiguration, lo, hi)
	}
	for k, t := range Ticks(bins) {
		if t.Position < lo || t.Position > hi {
			return nil, fmt.Errorf("%w: color domain [%v, %v] excludes the midpoint %v of class %d",
				ErrConfiguration, lo, hi, t.Position, k)
		}
	}

	span := hi - lo
	for i := range cs {
		cs[i].Position = clamp01((bins[(i+1)/2] - lo) / span)
	}
	cs[0].Position = 0
	cs[len(cs)-1].Position = 1

	return cs, nil
}

func clamp01(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}

// ColorAt returns the color a renderer would draw at normalized position p.
// Positions exactly on an internal boundary take the color of the class above.
func (cs StepColorscale) ColorAt(p float64) string {
	if len(cs) == 0 {
		return ""
	}
	for i := len(cs) - 1; i >= 0; i -= 2 {
		if p >= cs[i-1].Position {
			return cs[i].Color
		}
	}
	return cs[0].Color
}
