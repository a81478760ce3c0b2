// Package scale builds the discrete color scales used to classify and color
// anomaly and precipitation values.
package scale

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrConfiguration is returned when a set of bin boundaries or colors can't
// describe a valid discrete scale.
var ErrConfiguration = errors.New("invalid scale configuration")

// BinSet holds N+1 strictly increasing boundaries that delimit N classes.
// The first and last classes are open-ended.
type BinSet []float64

// Validate checks that the boundaries describe at least one class and are
// strictly increasing.
func (b BinSet) Validate() error {
	if len(b) < 2 {
		return fmt.Errorf("%w: need at least 2 boundaries, got %d", ErrConfiguration, len(b))
	}
	for i, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: boundary %d is not a finite number", ErrConfiguration, i)
		}
		if i > 0 && v <= b[i-1] {
			return fmt.Errorf("%w: boundaries must be strictly increasing (%v at %d follows %v)", ErrConfiguration, v, i, b[i-1])
		}
	}
	return nil
}

// Classes returns the number of classes delimited by the boundaries.
func (b BinSet) Classes() int {
	if len(b) < 2 {
		return 0
	}
	return len(b) - 1
}

// Classify returns the 0-based class index k with b[k] <= v < b[k+1].
// Values below the first boundary land in class 0 and values at or above
// the second-to-last boundary land in the last class. NaN maps to class 0.
func (b BinSet) Classify(v float64) int {
	n := b.Classes()
	if n <= 1 || math.IsNaN(v) {
		return 0
	}

	// Only the internal boundaries b[1]..b[N-1] separate classes.
	internal := b[1 : len(b)-1]
	return sort.Search(len(internal), func(i int) bool {
		return v < internal[i]
	})
}

// Span returns the distance between the first and last boundary.
func (b BinSet) Span() float64 {
	if len(b) < 2 {
		return 0
	}
	return b[len(b)-1] - b[0]
}

// Normalize maps v onto [0,1] relative to the outer boundaries.
func (b BinSet) Normalize(v float64) float64 {
	span := b.Span()
	if span == 0 {
		return 0
	}
	return (v - b[0]) / span
}

// ColorSet holds one opaque color token per class, e.g. "rgb(244, 165, 130)".
type ColorSet []string
