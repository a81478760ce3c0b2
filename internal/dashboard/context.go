// Package dashboard drives the anomaly map views: it owns the selected year
// and turns selection events into freshly composed scenes.
package dashboard

import (
	"errors"

	"github.com/chrissnell/anomalymap/internal/dataset"
	"github.com/chrissnell/anomalymap/internal/scale"
	"github.com/chrissnell/anomalymap/internal/scene"
)

// DefaultYear is selected at startup when the dataset contains it.
const DefaultYear = 2000

// Context is the read-only state every handler works from. It is built once
// at startup and never modified, so it is shared freely between goroutines.
type Context struct {
	Dataset       *dataset.Dataset
	Anomaly       *scale.Scale
	Precipitation *scale.Scale
	Composer      *scene.Composer
}

// NewContext builds the composer from cfg and bundles it with the dataset.
// cfg must carry the same scales the dataset was classified with.
func NewContext(ds *dataset.Dataset, cfg scene.Config) (*Context, error) {
	if ds == nil {
		return nil, errors.New("dashboard: dataset is required")
	}

	composer, err := scene.NewComposer(cfg)
	if err != nil {
		return nil, err
	}

	return &Context{
		Dataset:       ds,
		Anomaly:       cfg.Anomaly,
		Precipitation: cfg.Precipitation,
		Composer:      composer,
	}, nil
}

// initialYear picks the year selected before any event arrives.
func (c *Context) initialYear() int {
	if c.Dataset.HasYear(DefaultYear) {
		return DefaultYear
	}
	if years := c.Dataset.Years(); len(years) > 0 {
		return years[0]
	}
	return DefaultYear
}
