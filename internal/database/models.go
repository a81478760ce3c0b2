package database

import (
	"database/sql"
	"fmt"

	"github.com/chrissnell/anomalymap/internal/dataset"
	"gorm.io/gorm"
)

// DefaultPointsTable is used when no table name is configured.
const DefaultPointsTable = "anomaly_points"

// AnomalyPoint is one grid point observation as stored in the database.
type AnomalyPoint struct {
	Year            int             `gorm:"column:year;not null;index"`
	Lat             float64         `gorm:"column:lat;not null"`
	Lon             float64         `gorm:"column:lon;not null"`
	GridID          string          `gorm:"column:grid_id;not null"`
	SpringDeltaANPP float64         `gorm:"column:spring_delta_anpp"`
	SummerDeltaANPP float64         `gorm:"column:summer_delta_anpp"`
	SpringDeltaNDVI float64         `gorm:"column:spring_delta_ndvi"`
	SummerDeltaNDVI float64         `gorm:"column:summer_delta_ndvi"`
	PrecipCategory  sql.NullString  `gorm:"column:pr_cat"`
	PrecipRatio     sql.NullFloat64 `gorm:"column:pr_ratio"`
}

// TableName implements the GORM Tabler interface
func (AnomalyPoint) TableName() string {
	return DefaultPointsTable
}

// Row converts the stored point to a dataset row.
func (p AnomalyPoint) Row() dataset.Row {
	r := dataset.Row{
		Year:   p.Year,
		Lat:    p.Lat,
		Lon:    p.Lon,
		GridID: p.GridID,
	}
	r.Deltas[dataset.SpringANPP] = p.SpringDeltaANPP
	r.Deltas[dataset.SummerANPP] = p.SummerDeltaANPP
	r.Deltas[dataset.SpringNDVI] = p.SpringDeltaNDVI
	r.Deltas[dataset.SummerNDVI] = p.SummerDeltaNDVI

	if p.PrecipCategory.Valid {
		r.PrecipCategory = p.PrecipCategory.String
	}
	if p.PrecipRatio.Valid {
		v := p.PrecipRatio.Float64
		r.PrecipRatio = &v
	}
	return r
}

// FetchRows reads every stored point from table, ordered by year and grid ID.
func FetchRows(db *gorm.DB, table string) ([]dataset.Row, error) {
	if table == "" {
		table = DefaultPointsTable
	}

	var points []AnomalyPoint
	if err := db.Table(table).Order("year, grid_id").Find(&points).Error; err != nil {
		return nil, fmt.Errorf("error fetching anomaly points from %s: %w", table, err)
	}

	rows := make([]dataset.Row, len(points))
	for i, p := range points {
		rows[i] = p.Row()
	}
	return rows, nil
}
