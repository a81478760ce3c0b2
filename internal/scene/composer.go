package scene

import (
	"errors"
	"fmt"

	"github.com/chrissnell/anomalymap/internal/scale"
)

// Defaults for the map viewport and figure size.
const (
	DefaultCenterLon = -109.0064119
	DefaultCenterLat = 34.50971515
	DefaultZoom      = 5
	DefaultStyle     = "light"
	DefaultHeight    = 900

	// MapUIRevision never changes, so the browser keeps the user's pan and
	// zoom across figure updates.
	MapUIRevision = "anomaly-map"
)

// Viewport is the camera shared by every map panel.
type Viewport struct {
	Center      Center
	Zoom        float64
	Style       string
	AccessToken string
}

// DefaultViewport returns the viewport centered on the study area.
func DefaultViewport() Viewport {
	return Viewport{
		Center: Center{Lon: DefaultCenterLon, Lat: DefaultCenterLat},
		Zoom:   DefaultZoom,
		Style:  DefaultStyle,
	}
}

// Config holds the fixed inputs of the composer.
type Config struct {
	Anomaly       *scale.Scale
	Precipitation *scale.Scale
	Viewport      Viewport

	// ColorDomain fixes the numeric range of the map color axis. The zero
	// value means the anomaly scale's outer boundaries.
	ColorDomain [2]float64

	// Height of the map figure in pixels; zero means DefaultHeight.
	Height int
}

// Composer builds map and distribution figures from a year's rows. It holds
// no mutable state, so one Composer can serve concurrent callers.
type Composer struct {
	anomaly       *scale.Scale
	precipitation *scale.Scale
	viewport      Viewport
	domain        [2]float64
	colorscale    scale.StepColorscale
	height        int
}

// NewComposer validates cfg and returns a Composer.
func NewComposer(cfg Config) (*Composer, error) {
	if cfg.Anomaly == nil {
		return nil, errors.New("scene: anomaly scale is required")
	}
	if cfg.Precipitation == nil {
		return nil, errors.New("scene: precipitation scale is required")
	}

	c := &Composer{
		anomaly:       cfg.Anomaly,
		precipitation: cfg.Precipitation,
		viewport:      cfg.Viewport,
		domain:        cfg.ColorDomain,
		height:        cfg.Height,
	}

	if c.domain == [2]float64{} {
		c.domain[0], c.domain[1] = cfg.Anomaly.Domain()
	}

	// The color axis spans the domain, so the bands are laid out over it.
	cs, err := scale.BuildStepColorscaleOver(cfg.Anomaly.Bins, cfg.Anomaly.Colors, c.domain[0], c.domain[1])
	if err != nil {
		return nil, fmt.Errorf("anomaly scale: %w", err)
	}
	c.colorscale = cs

	if c.height <= 0 {
		c.height = DefaultHeight
	}
	if c.viewport.Style == "" {
		c.viewport.Style = DefaultStyle
	}

	return c, nil
}

// Colorscale returns the anomaly colorscale laid out over the color domain.
func (c *Composer) Colorscale() scale.StepColorscale {
	return c.colorscale
}

// ColorDomain returns the fixed range of the map color axis.
func (c *Composer) ColorDomain() [2]float64 {
	return c.domain
}

func noDataAnnotation(year int) Annotation {
	return Annotation{
		Text:      fmt.Sprintf("No data for %d", year),
		X:         0.5,
		Y:         0.5,
		XRef:      "paper",
		YRef:      "paper",
		XAnchor:   "center",
		YAnchor:   "middle",
		ShowArrow: false,
		Font:      &Font{Size: 20},
	}
}

func titleAnnotation(text string, d Domain) Annotation {
	return Annotation{
		Text:      text,
		X:         (d.X[0] + d.X[1]) / 2,
		Y:         d.Y[1],
		XRef:      "paper",
		YRef:      "paper",
		XAnchor:   "center",
		YAnchor:   "bottom",
		ShowArrow: false,
		Font:      &Font{Size: 16},
	}
}
