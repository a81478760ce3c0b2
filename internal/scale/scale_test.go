package scale

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

var anomalyBins = BinSet{-30, -15, -5, 5, 15, 30}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected int
	}{
		{"far below", -1e9, 0},
		{"below first boundary", -31, 0},
		{"on first boundary", -30, 0},
		{"inside first class", -20, 0},
		{"on second boundary", -15, 1},
		{"middle class", 0, 2},
		{"just below boundary", 4.999, 2},
		{"on boundary", 5, 3},
		{"on second-to-last boundary", 15, 4},
		{"on last boundary", 30, 4},
		{"far above", 1e9, 4},
		{"NaN", math.NaN(), 0},
		{"positive infinity", math.Inf(1), 4},
		{"negative infinity", math.Inf(-1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := anomalyBins.Classify(tt.value); got != tt.expected {
				t.Errorf("Classify(%v) = %d, expected %d", tt.value, got, tt.expected)
			}
		})
	}
}

func TestClassifySingleClass(t *testing.T) {
	bins := BinSet{0, 1}
	for _, v := range []float64{-5, 0, 0.5, 1, 5} {
		if got := bins.Classify(v); got != 0 {
			t.Errorf("Classify(%v) = %d, expected 0", v, got)
		}
	}
}

func TestBinSetValidate(t *testing.T) {
	tests := []struct {
		name    string
		bins    BinSet
		wantErr bool
	}{
		{"anomaly", anomalyBins, false},
		{"single class", BinSet{0, 1}, false},
		{"empty", BinSet{}, true},
		{"one boundary", BinSet{1}, true},
		{"equal boundaries", BinSet{0, 1, 1, 2}, true},
		{"decreasing", BinSet{3, 2, 1}, true},
		{"NaN", BinSet{0, math.NaN(), 2}, true},
		{"infinite", BinSet{0, math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bins.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Errorf("expected ErrConfiguration, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildStepColorscale(t *testing.T) {
	tests := []struct {
		name   string
		bins   BinSet
		colors ColorSet
	}{
		{"anomaly", BinSet(DefaultAnomalyBins), ColorSet(DefaultAnomalyColors)},
		{"precipitation", BinSet(DefaultPrecipitationBins), ColorSet(DefaultPrecipitationColors)},
		{"single class", BinSet{2, 4}, ColorSet{"red"}},
		{"uneven", BinSet{-1, 0.001, 0.5, 100}, ColorSet{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := BuildStepColorscale(tt.bins, tt.colors)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			n := len(tt.colors)
			if len(cs) != 2*n {
				t.Fatalf("expected %d stops, got %d", 2*n, len(cs))
			}
			if cs[0].Position != 0 {
				t.Errorf("first position = %v, expected 0", cs[0].Position)
			}
			if cs[len(cs)-1].Position != 1 {
				t.Errorf("last position = %v, expected 1", cs[len(cs)-1].Position)
			}
			for i := 1; i < len(cs); i++ {
				if cs[i].Position < cs[i-1].Position {
					t.Errorf("position %d (%v) is less than position %d (%v)", i, cs[i].Position, i-1, cs[i-1].Position)
				}
			}
			for k, c := range tt.colors {
				if cs[2*k].Color != c || cs[2*k+1].Color != c {
					t.Errorf("class %d: expected both stops to be %q, got %q and %q", k, c, cs[2*k].Color, cs[2*k+1].Color)
				}
			}
			// Each internal boundary appears twice, once per adjacent class.
			for k := 1; k < n; k++ {
				if cs[2*k-1].Position != cs[2*k].Position {
					t.Errorf("boundary %d: positions %v and %v differ", k, cs[2*k-1].Position, cs[2*k].Position)
				}
			}
		})
	}
}

func TestBuildStepColorscaleAnomalyPositions(t *testing.T) {
	cs, err := BuildStepColorscale(anomalyBins, ColorSet(DefaultAnomalyColors))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []float64{0, 0.25, 0.25, 25.0 / 60, 25.0 / 60, 35.0 / 60, 35.0 / 60, 0.75, 0.75, 1}
	for i, want := range expected {
		if math.Abs(cs[i].Position-want) > 1e-9 {
			t.Errorf("stop %d: position %v, expected %v", i, cs[i].Position, want)
		}
	}
}

func TestBuildStepColorscaleErrors(t *testing.T) {
	tests := []struct {
		name   string
		bins   BinSet
		colors ColorSet
	}{
		{"too few colors", anomalyBins, ColorSet{"a", "b"}},
		{"too many colors", BinSet{0, 1}, ColorSet{"a", "b"}},
		{"no colors", BinSet{0, 1}, nil},
		{"non-increasing", BinSet{0, 0, 1}, ColorSet{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := BuildStepColorscale(tt.bins, tt.colors)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
			if cs != nil {
				t.Errorf("expected nil colorscale, got %v", cs)
			}
		})
	}
}

func TestBuildStepColorscaleIdempotent(t *testing.T) {
	first, err := BuildStepColorscale(anomalyBins, ColorSet(DefaultAnomalyColors))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildStepColorscale(anomalyBins, ColorSet(DefaultAnomalyColors))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("colorscales differ:\n%v\n%v", first, second)
	}
}

func TestColorAt(t *testing.T) {
	cs, err := BuildStepColorscale(anomalyBins, ColorSet(DefaultAnomalyColors))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for k, tick := range Ticks(anomalyBins) {
		got := cs.ColorAt(anomalyBins.Normalize(tick.Position))
		if got != DefaultAnomalyColors[k] {
			t.Errorf("tick %d (%v): color %q, expected %q", k, tick.Position, got, DefaultAnomalyColors[k])
		}
	}
}

func TestBuildStepColorscaleOver(t *testing.T) {
	tests := []struct {
		name     string
		lo, hi   float64
		expected []float64
	}{
		{"outer boundaries", -30, 30, []float64{0, 0.25, 0.25, 25.0 / 60, 25.0 / 60, 35.0 / 60, 35.0 / 60, 0.75, 0.75, 1}},
		{"wider domain", -60, 60, []float64{0, 0.375, 0.375, 55.0 / 120, 55.0 / 120, 65.0 / 120, 65.0 / 120, 0.625, 0.625, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := BuildStepColorscaleOver(anomalyBins, ColorSet(DefaultAnomalyColors), tt.lo, tt.hi)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i, want := range tt.expected {
				if math.Abs(cs[i].Position-want) > 1e-9 {
					t.Errorf("stop %d: position %v, expected %v", i, cs[i].Position, want)
				}
			}
			for k, tick := range Ticks(anomalyBins) {
				p := (tick.Position - tt.lo) / (tt.hi - tt.lo)
				if got := cs.ColorAt(p); got != DefaultAnomalyColors[k] {
					t.Errorf("class %d midpoint %v: color %q, expected %q", k, tick.Position, got, DefaultAnomalyColors[k])
				}
			}
		})
	}
}

func TestBuildStepColorscaleOverErrors(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
	}{
		{"empty", 10, 10},
		{"inverted", 30, -30},
		{"hides lowest class", -20, 30},
		{"hides highest class", -30, 20},
		{"NaN", math.NaN(), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildStepColorscaleOver(anomalyBins, ColorSet(DefaultAnomalyColors), tt.lo, tt.hi); !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestTicks(t *testing.T) {
	ticks := Ticks(anomalyBins)

	expectedPositions := []float64{-22.5, -10, 0, 10, 22.5}
	expectedLabels := []string{"<-15", "-15--5", "-5-5", "5-15", ">15"}

	if !reflect.DeepEqual(ticks.Positions(), expectedPositions) {
		t.Errorf("positions = %v, expected %v", ticks.Positions(), expectedPositions)
	}
	if !reflect.DeepEqual(ticks.Labels(), expectedLabels) {
		t.Errorf("labels = %v, expected %v", ticks.Labels(), expectedLabels)
	}
}

func TestTicksPrecipitation(t *testing.T) {
	ticks := Ticks(BinSet(DefaultPrecipitationBins))

	expectedLabels := []string{"<0.8", "0.8-1.2", ">1.2"}
	if !reflect.DeepEqual(ticks.Labels(), expectedLabels) {
		t.Errorf("labels = %v, expected %v", ticks.Labels(), expectedLabels)
	}

	expectedPositions := []float64{0.58, 1.0, 2.085}
	for i, want := range expectedPositions {
		if math.Abs(ticks[i].Position-want) > 1e-9 {
			t.Errorf("tick %d: position %v, expected %v", i, ticks[i].Position, want)
		}
	}
}

func TestTicksDegenerate(t *testing.T) {
	if ticks := Ticks(BinSet{1}); ticks != nil {
		t.Errorf("expected nil ticks, got %v", ticks)
	}
	ticks := Ticks(BinSet{0, 10})
	if len(ticks) != 1 || ticks[0].Label != "0-10" || ticks[0].Position != 5 {
		t.Errorf("unexpected single-class ticks: %v", ticks)
	}
}

func TestNew(t *testing.T) {
	s, err := New(AnomalyScaleName, DefaultAnomalyBins, DefaultAnomalyColors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := s.ClassValue(-22); got != -22.5 {
		t.Errorf("ClassValue(-22) = %v, expected -22.5", got)
	}
	if got := s.ClassValue(1e6); got != 22.5 {
		t.Errorf("ClassValue(1e6) = %v, expected 22.5", got)
	}
	if got := s.Label(7); got != "5-15" {
		t.Errorf("Label(7) = %q, expected 5-15", got)
	}
	if got := s.ClassColor(2); got != DefaultAnomalyColors[2] {
		t.Errorf("ClassColor(2) = %q, expected %q", got, DefaultAnomalyColors[2])
	}
	if got := s.ClassColor(9); got != "" {
		t.Errorf("ClassColor(9) = %q, expected empty", got)
	}
	lo, hi := s.Domain()
	if lo != -30 || hi != 30 {
		t.Errorf("Domain() = (%v, %v), expected (-30, 30)", lo, hi)
	}

	// The scale must not alias the caller's slices.
	bins := []float64{0, 1, 2}
	s2, err := New("copy", bins, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bins[0] = -100
	if s2.Bins[0] != 0 {
		t.Errorf("scale boundaries changed with caller slice: %v", s2.Bins)
	}
}

func TestNewConfigurationError(t *testing.T) {
	_, err := New(PrecipitationScaleName, DefaultPrecipitationBins, DefaultAnomalyColors)
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestColorStopEncoding(t *testing.T) {
	cs := StepColorscale{{Position: 0, Color: "red"}, {Position: 1, Color: "red"}}

	data, err := json.Marshal(cs)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if string(data) != `[[0,"red"],[1,"red"]]` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var decoded StepColorscale
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(decoded, cs) {
		t.Errorf("decoded %v, expected %v", decoded, cs)
	}

	packed, err := msgpack.Marshal(cs)
	if err != nil {
		t.Fatalf("msgpack.Marshal failed: %v", err)
	}
	var generic []any
	if err := msgpack.Unmarshal(packed, &generic); err != nil {
		t.Fatalf("msgpack.Unmarshal failed: %v", err)
	}
	if len(generic) != 2 {
		t.Fatalf("expected 2 msgpack stops, got %d", len(generic))
	}
	pair, ok := generic[1].([]any)
	if !ok || len(pair) != 2 || pair[1] != "red" {
		t.Errorf("unexpected msgpack stop: %#v", generic[1])
	}
}
