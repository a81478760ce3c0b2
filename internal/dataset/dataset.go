// Package dataset holds the year-indexed anomaly observations. A Dataset is
// built once at startup and is read-only afterwards, so it is safe to share
// between goroutines.
package dataset

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/chrissnell/anomalymap/internal/scale"
)

// ErrEmptyResult is returned when a selection matches no rows.
var ErrEmptyResult = errors.New("no rows match selection")

// Dataset maps a year to the rows observed in that year.
type Dataset struct {
	byYear map[int][]Row
	years  []int
	size   int
}

// New classifies every row against the anomaly scale and groups the rows by
// year. Rows without a precipitation category get the precipitation scale
// label of their precipitation ratio. The input slice is not modified.
func New(rows []Row, anomaly, precipitation *scale.Scale) (*Dataset, error) {
	if anomaly == nil {
		return nil, fmt.Errorf("dataset: anomaly scale is required")
	}

	ds := &Dataset{
		byYear: make(map[int][]Row),
	}

	for i, r := range rows {
		for _, m := range Measures {
			r.Classes[m] = anomaly.Classify(r.Deltas[m])
			r.ColorValues[m] = anomaly.ClassValue(r.Deltas[m])
		}

		if r.PrecipCategory == "" {
			if r.PrecipRatio == nil || precipitation == nil {
				return nil, fmt.Errorf("dataset: row %d (grid %s, year %d) has neither a precipitation category nor ratio", i, r.GridID, r.Year)
			}
			r.PrecipCategory = precipitation.Label(*r.PrecipRatio)
		}

		ds.byYear[r.Year] = append(ds.byYear[r.Year], r)
		ds.size++
	}

	for y := range ds.byYear {
		ds.years = append(ds.years, y)
	}
	sort.Ints(ds.years)

	return ds, nil
}

// SliceByYear returns a copy of every row observed in year.
func (d *Dataset) SliceByYear(year int) ([]Row, error) {
	rows, ok := d.byYear[year]
	if !ok || len(rows) == 0 {
		return nil, fmt.Errorf("year %d: %w", year, ErrEmptyResult)
	}
	return slices.Clone(rows), nil
}

// Years returns the sorted set of years present in the dataset.
func (d *Dataset) Years() []int {
	return slices.Clone(d.years)
}

// HasYear reports whether any rows were observed in year.
func (d *Dataset) HasYear(year int) bool {
	_, ok := d.byYear[year]
	return ok
}

// Len returns the total number of rows.
func (d *Dataset) Len() int {
	return d.size
}
