package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column names understood by the CSV reader.
const (
	ColumnYear           = "year"
	ColumnLat            = "lat"
	ColumnLon            = "lon"
	ColumnGridID         = "gridID"
	ColumnPrecipCategory = "pr_cat"
	ColumnPrecipRatio    = "pr_ratio"
)

// ReadCSVFile reads rows from the CSV file at path.
func ReadCSVFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadCSV reads rows from a header-led CSV stream. Column order doesn't
// matter and unknown columns are ignored. Either pr_cat or pr_ratio must be
// present.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing CSV header")
		}
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	required := []string{ColumnYear, ColumnLat, ColumnLon, ColumnGridID}
	for _, m := range Measures {
		required = append(required, m.Column())
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("CSV is missing required column %q", name)
		}
	}

	catCol, hasCat := idx[ColumnPrecipCategory]
	ratioCol, hasRatio := idx[ColumnPrecipRatio]
	if !hasCat && !hasRatio {
		return nil, fmt.Errorf("CSV needs a %q or %q column", ColumnPrecipCategory, ColumnPrecipRatio)
	}

	var rows []Row
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var row Row
		field := func(name string) string {
			return strings.TrimSpace(rec[idx[name]])
		}

		year, err := strconv.Atoi(field(ColumnYear))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid year %q", line, field(ColumnYear))
		}
		row.Year = year

		if row.Lat, err = parseFloat(field(ColumnLat)); err != nil {
			return nil, fmt.Errorf("line %d: invalid %s: %w", line, ColumnLat, err)
		}
		if row.Lon, err = parseFloat(field(ColumnLon)); err != nil {
			return nil, fmt.Errorf("line %d: invalid %s: %w", line, ColumnLon, err)
		}
		row.GridID = field(ColumnGridID)

		for _, m := range Measures {
			if row.Deltas[m], err = parseFloat(field(m.Column())); err != nil {
				return nil, fmt.Errorf("line %d: invalid %s: %w", line, m.Column(), err)
			}
		}

		if hasCat {
			row.PrecipCategory = strings.TrimSpace(rec[catCol])
		}
		if hasRatio {
			if s := strings.TrimSpace(rec[ratioCol]); s != "" {
				v, err := parseFloat(s)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid %s: %w", line, ColumnPrecipRatio, err)
				}
				row.PrecipRatio = &v
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
