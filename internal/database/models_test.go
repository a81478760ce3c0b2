package database

import (
	"database/sql"
	"testing"

	"github.com/chrissnell/anomalymap/internal/dataset"
)

func TestAnomalyPointRow(t *testing.T) {
	p := AnomalyPoint{
		Year:            2012,
		Lat:             33.1,
		Lon:             -110.2,
		GridID:          "g-17",
		SpringDeltaANPP: -12,
		SummerDeltaANPP: 4,
		SpringDeltaNDVI: 18,
		SummerDeltaNDVI: -31,
		PrecipCategory:  sql.NullString{String: "dry", Valid: true},
	}

	r := p.Row()
	if r.Year != 2012 || r.GridID != "g-17" || r.Lat != 33.1 || r.Lon != -110.2 {
		t.Errorf("unexpected identity fields: %+v", r)
	}
	want := [dataset.NumMeasures]float64{-12, 4, 18, -31}
	if r.Deltas != want {
		t.Errorf("deltas = %v, expected %v", r.Deltas, want)
	}
	if r.PrecipCategory != "dry" {
		t.Errorf("category = %q, expected dry", r.PrecipCategory)
	}
	if r.PrecipRatio != nil {
		t.Errorf("expected nil precipitation ratio, got %v", *r.PrecipRatio)
	}

	p.PrecipCategory = sql.NullString{}
	p.PrecipRatio = sql.NullFloat64{Float64: 0.5, Valid: true}
	r = p.Row()
	if r.PrecipCategory != "" {
		t.Errorf("expected empty category, got %q", r.PrecipCategory)
	}
	if r.PrecipRatio == nil || *r.PrecipRatio != 0.5 {
		t.Errorf("expected ratio 0.5, got %v", r.PrecipRatio)
	}
}
