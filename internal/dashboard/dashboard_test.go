package dashboard

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/anomalymap/internal/dataset"
	"github.com/chrissnell/anomalymap/internal/scale"
	"github.com/chrissnell/anomalymap/internal/scene"
)

func testContext(t *testing.T, years ...int) *Context {
	t.Helper()
	anomaly, err := scale.New(scale.AnomalyScaleName, scale.DefaultAnomalyBins, scale.DefaultAnomalyColors)
	if err != nil {
		t.Fatalf("anomaly scale: %v", err)
	}
	precip, err := scale.New(scale.PrecipitationScaleName, scale.DefaultPrecipitationBins, scale.DefaultPrecipitationColors)
	if err != nil {
		t.Fatalf("precipitation scale: %v", err)
	}

	var rows []dataset.Row
	for _, y := range years {
		rows = append(rows,
			dataset.Row{Year: y, Lat: 34.1, Lon: -109.1, GridID: "1", Deltas: [4]float64{-20, 3, 8, 40}, PrecipCategory: "<0.8"},
			dataset.Row{Year: y, Lat: 34.2, Lon: -109.2, GridID: "2", Deltas: [4]float64{12, -7, 0, -1}, PrecipCategory: "0.8-1.2"},
		)
	}
	ds, err := dataset.New(rows, anomaly, precip)
	if err != nil {
		t.Fatalf("dataset.New failed: %v", err)
	}

	ctx, err := NewContext(ds, scene.Config{Anomaly: anomaly, Precipitation: precip, Viewport: scene.DefaultViewport()})
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	return ctx
}

type recordingObserver struct {
	mu    sync.Mutex
	kinds map[string]int
	empty int
}

func (r *recordingObserver) ObserveScene(kind string, took time.Duration, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kinds == nil {
		r.kinds = make(map[string]int)
	}
	r.kinds[kind]++
	if empty {
		r.empty++
	}
}

func TestNewContext(t *testing.T) {
	anomaly, _ := scale.New(scale.AnomalyScaleName, scale.DefaultAnomalyBins, scale.DefaultAnomalyColors)

	if _, err := NewContext(nil, scene.Config{Anomaly: anomaly}); err == nil {
		t.Error("expected error for nil dataset")
	}

	ds, _ := dataset.New(nil, anomaly, nil)
	if _, err := NewContext(ds, scene.Config{Anomaly: anomaly}); err == nil {
		t.Error("expected error for missing precipitation scale")
	}
}

func TestInitialSelection(t *testing.T) {
	tests := []struct {
		name  string
		years []int
		want  int
	}{
		{"default year present", []int{1999, 2000, 2001}, 2000},
		{"default year absent", []int{2005, 2003}, 2003},
		{"empty dataset", nil, DefaultYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(testContext(t, tt.years...), nil)
			if got := c.Selection(); got != tt.want {
				t.Errorf("Selection() = %d, expected %d", got, tt.want)
			}
		})
	}
}

func TestOnYearChange(t *testing.T) {
	c := NewController(testContext(t, 2000, 2001), nil)
	obs := &recordingObserver{}
	c.SetObserver(obs)

	u := c.OnYearChange(2001)
	if u.Seq != 1 || u.Year != 2001 || u.Empty {
		t.Errorf("unexpected update header: seq=%d year=%d empty=%v", u.Seq, u.Year, u.Empty)
	}
	if c.Selection() != 2001 {
		t.Errorf("selection %d, expected 2001", c.Selection())
	}
	if len(u.Map.Data) != 4 || u.Map.Layout.ColorAxis == nil {
		t.Errorf("map scene is incomplete: %d traces", len(u.Map.Data))
	}
	if u.Map.Layout.ColorAxis.CMin != -30 || u.Map.Layout.ColorAxis.CMax != 30 {
		t.Errorf("color domain [%v, %v]", u.Map.Layout.ColorAxis.CMin, u.Map.Layout.ColorAxis.CMax)
	}
	if len(u.Distribution.Data) == 0 || u.Distribution.Layout.Meta.Year != 2001 {
		t.Error("distribution scene is incomplete")
	}

	missing := c.OnYearChange(1999)
	if missing.Seq != 2 || !missing.Empty {
		t.Errorf("missing year: seq=%d empty=%v", missing.Seq, missing.Empty)
	}
	if missing.Map.Layout.ColorAxis != nil {
		t.Error("placeholder map scene has a color axis")
	}
	if len(missing.Distribution.Data) != 0 {
		t.Errorf("placeholder distribution scene has %d traces", len(missing.Distribution.Data))
	}
	if c.Selection() != 1999 {
		t.Errorf("selection %d, expected 1999", c.Selection())
	}

	if obs.kinds[SceneMap] != 2 || obs.kinds[SceneDistribution] != 2 {
		t.Errorf("observed builds %v", obs.kinds)
	}
	if obs.empty != 2 {
		t.Errorf("observed %d empty builds, expected 2", obs.empty)
	}
}

func TestOnYearChangeSequence(t *testing.T) {
	c := NewController(testContext(t, 2000, 2001, 2002), nil)

	const n = 30
	seqs := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seqs <- c.OnYearChange(2000 + i%3).Seq
		}(i)
	}
	wg.Wait()
	close(seqs)

	seen := make(map[uint64]bool)
	for s := range seqs {
		if seen[s] {
			t.Fatalf("sequence number %d issued twice", s)
		}
		seen[s] = true
	}
	for s := uint64(1); s <= n; s++ {
		if !seen[s] {
			t.Errorf("sequence number %d missing", s)
		}
	}
}

func TestOnYearChangeNewestMatchesSelection(t *testing.T) {
	c := NewController(testContext(t, 2000, 2001, 2002, 2003), nil)

	for round := 0; round < 50; round++ {
		updates := make(chan Update, 4)
		var wg sync.WaitGroup
		for _, y := range []int{2000, 2001, 2002, 2003} {
			wg.Add(1)
			go func(y int) {
				defer wg.Done()
				updates <- c.OnYearChange(y)
			}(y)
		}
		wg.Wait()
		close(updates)

		var newest Update
		for u := range updates {
			if u.Seq > newest.Seq {
				newest = u
			}
		}
		if got := c.Selection(); got != newest.Year {
			t.Fatalf("round %d: selection is %d but the newest update (seq %d) is for %d",
				round, got, newest.Seq, newest.Year)
		}
	}
}

func TestSceneForYear(t *testing.T) {
	c := NewController(testContext(t, 2000), nil)

	fig, err := c.SceneForYear(SceneMap, 2000)
	if err != nil {
		t.Fatalf("SceneForYear failed: %v", err)
	}
	if len(fig.Data) != 4 {
		t.Errorf("expected 4 map traces, got %d", len(fig.Data))
	}

	fig, err = c.SceneForYear(SceneDistribution, 2010)
	if err != nil {
		t.Fatalf("SceneForYear failed: %v", err)
	}
	if !fig.Layout.Meta.Empty {
		t.Error("expected placeholder distribution scene")
	}

	if _, err := c.SceneForYear("globe", 2000); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
	if c.Selection() != 2000 {
		t.Errorf("SceneForYear changed the selection to %d", c.Selection())
	}
}

func TestOnInfoToggle(t *testing.T) {
	tests := []struct {
		name                 string
		open, close, current bool
		want                 bool
	}{
		{"open clicked while closed", true, false, false, true},
		{"close clicked while open", false, true, true, false},
		{"both clicked while closed", true, true, false, true},
		{"no clicks while open", false, false, true, true},
		{"no clicks while closed", false, false, false, false},
	}

	c := NewController(testContext(t, 2000), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.OnInfoToggle(tt.open, tt.close, tt.current); got != tt.want {
				t.Errorf("OnInfoToggle(%v, %v, %v) = %v, expected %v", tt.open, tt.close, tt.current, got, tt.want)
			}
		})
	}
}

func TestDispatcher(t *testing.T) {
	c := NewController(testContext(t, 2000, 2001), nil)
	d := NewDispatcher(c)

	year := 2001
	res, err := d.Dispatch(Event{Name: EventYear, Year: &year})
	if err != nil {
		t.Fatalf("Dispatch(year) failed: %v", err)
	}
	u, ok := res.(Update)
	if !ok || u.Year != 2001 {
		t.Errorf("unexpected year result %#v", res)
	}

	if _, err := d.Dispatch(Event{Name: EventYear}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("expected ErrInvalidEvent, got %v", err)
	}

	res, err = d.Dispatch(Event{Name: EventInfo, OpenClicked: true})
	if err != nil {
		t.Fatalf("Dispatch(info) failed: %v", err)
	}
	if res != (InfoState{IsOpen: true}) {
		t.Errorf("unexpected info result %#v", res)
	}

	if _, err := d.Dispatch(Event{Name: "zoom"}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}

	d.Handle("ping", func(Event) (any, error) { return "pong", nil })
	if res, err := d.Dispatch(Event{Name: "ping"}); err != nil || res != "pong" {
		t.Errorf("custom handler returned %v, %v", res, err)
	}
}
