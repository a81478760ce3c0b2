package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/chrissnell/anomalymap/internal/database"
	"github.com/chrissnell/anomalymap/internal/scale"
	"github.com/chrissnell/anomalymap/internal/scene"
)

// Dataset sources
const (
	SourceCSV         = "csv"
	SourceTimescaleDB = "timescaledb"
)

// Defaults applied by ApplyDefaults
const (
	DefaultTable       = database.DefaultPointsTable
	DefaultListenAddr  = "0.0.0.0"
	DefaultPort        = 8080
	DefaultServiceName = "anomalymap"

	// MapboxTokenEnv names the environment variable consulted when the
	// configuration leaves map.access_token empty.
	MapboxTokenEnv = "MAPBOX_ACCESS_TOKEN"
)

// ErrInvalidConfig is wrapped by every error Validate returns.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetDatasetConfig() (*DatasetData, error)
	GetControllers() ([]ControllerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Dataset     DatasetData      `json:"dataset"`
	Scales      ScalesData       `json:"scales"`
	Map         MapData          `json:"map"`
	Controllers []ControllerData `json:"controllers,omitempty"`
	Tracing     TracingData      `json:"tracing"`
}

// DatasetData says where the anomaly observations are loaded from
type DatasetData struct {
	Source           string `json:"source"`
	Path             string `json:"path,omitempty"`
	ConnectionString string `json:"connection_string,omitempty"`
	Table            string `json:"table,omitempty"`
}

// ScalesData holds the two classification scales. A nil scale means the
// built-in default.
type ScalesData struct {
	Anomaly       *ScaleData `json:"anomaly,omitempty"`
	Precipitation *ScaleData `json:"precipitation,omitempty"`
}

// ScaleData is a set of class boundaries and one color per class
type ScaleData struct {
	Boundaries []float64 `json:"boundaries"`
	Colors     []string  `json:"colors"`
}

// MapData configures the map viewport and figure
type MapData struct {
	CenterLat   float64   `json:"center_lat"`
	CenterLon   float64   `json:"center_lon"`
	Zoom        float64   `json:"zoom"`
	Style       string    `json:"style,omitempty"`
	AccessToken string    `json:"access_token,omitempty"`
	Height      int       `json:"height,omitempty"`
	ColorDomain []float64 `json:"color_domain,omitempty"`
}

// ControllerData holds the configuration for the controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
}

// RESTServerData configures the dashboard HTTP server
type RESTServerData struct {
	Cert       string `json:"cert,omitempty"`
	Key        string `json:"key,omitempty"`
	Port       int    `json:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty"`
	EnableCORS bool   `json:"enable_cors,omitempty"`
}

// TracingData configures OpenTelemetry request tracing
type TracingData struct {
	Enabled     bool   `json:"enabled"`
	Endpoint    string `json:"endpoint,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	Insecure    bool   `json:"insecure,omitempty"`
}

// ApplyDefaults fills every unset field with its default.
func (c *ConfigData) ApplyDefaults() {
	if c.Dataset.Source == "" {
		c.Dataset.Source = SourceCSV
	}
	if c.Dataset.Table == "" {
		c.Dataset.Table = DefaultTable
	}

	if c.Scales.Anomaly == nil {
		c.Scales.Anomaly = &ScaleData{
			Boundaries: append([]float64(nil), scale.DefaultAnomalyBins...),
			Colors:     append([]string(nil), scale.DefaultAnomalyColors...),
		}
	}
	if c.Scales.Precipitation == nil {
		c.Scales.Precipitation = &ScaleData{
			Boundaries: append([]float64(nil), scale.DefaultPrecipitationBins...),
			Colors:     append([]string(nil), scale.DefaultPrecipitationColors...),
		}
	}

	if c.Map.CenterLat == 0 && c.Map.CenterLon == 0 {
		c.Map.CenterLat = scene.DefaultCenterLat
		c.Map.CenterLon = scene.DefaultCenterLon
	}
	if c.Map.Zoom == 0 {
		c.Map.Zoom = scene.DefaultZoom
	}
	if c.Map.Style == "" {
		c.Map.Style = scene.DefaultStyle
	}
	if c.Map.Height == 0 {
		c.Map.Height = scene.DefaultHeight
	}
	if c.Map.AccessToken == "" {
		c.Map.AccessToken = os.Getenv(MapboxTokenEnv)
	}

	if len(c.Controllers) == 0 {
		c.Controllers = []ControllerData{{Type: "rest"}}
	}
	for i := range c.Controllers {
		if c.Controllers[i].Type != "rest" && c.Controllers[i].Type != "restserver" {
			continue
		}
		if c.Controllers[i].RESTServer == nil {
			c.Controllers[i].RESTServer = &RESTServerData{}
		}
		rs := c.Controllers[i].RESTServer
		if rs.ListenAddr == "" {
			rs.ListenAddr = DefaultListenAddr
		}
		if rs.Port == 0 {
			rs.Port = DefaultPort
		}
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}
}

// Validate checks the configuration for settings that can't work.
func (c *ConfigData) Validate() error {
	switch c.Dataset.Source {
	case SourceCSV:
		if c.Dataset.Path == "" {
			return fmt.Errorf("%w: dataset.path is required for the %s source", ErrInvalidConfig, SourceCSV)
		}
	case SourceTimescaleDB:
		if c.Dataset.ConnectionString == "" {
			return fmt.Errorf("%w: dataset.connection_string is required for the %s source", ErrInvalidConfig, SourceTimescaleDB)
		}
	default:
		return fmt.Errorf("%w: unknown dataset source %q", ErrInvalidConfig, c.Dataset.Source)
	}

	for name, s := range map[string]*ScaleData{
		scale.AnomalyScaleName:       c.Scales.Anomaly,
		scale.PrecipitationScaleName: c.Scales.Precipitation,
	} {
		if s == nil {
			continue
		}
		if len(s.Boundaries) != len(s.Colors)+1 {
			return fmt.Errorf("%w: scale %s has %d boundaries and %d colors", ErrInvalidConfig, name, len(s.Boundaries), len(s.Colors))
		}
	}

	if n := len(c.Map.ColorDomain); n != 0 && n != 2 {
		return fmt.Errorf("%w: map.color_domain must have two values, got %d", ErrInvalidConfig, n)
	}
	if len(c.Map.ColorDomain) == 2 && c.Map.ColorDomain[0] >= c.Map.ColorDomain[1] {
		return fmt.Errorf("%w: map.color_domain [%v, %v] is empty", ErrInvalidConfig, c.Map.ColorDomain[0], c.Map.ColorDomain[1])
	}
	if d := c.Map.ColorDomain; len(d) == 2 && c.Scales.Anomaly != nil {
		a := c.Scales.Anomaly
		if _, err := scale.BuildStepColorscaleOver(a.Boundaries, a.Colors, d[0], d[1]); err != nil {
			return fmt.Errorf("%w: map.color_domain: %w", ErrInvalidConfig, err)
		}
	}

	for _, cc := range c.Controllers {
		switch cc.Type {
		case "rest", "restserver":
			if cc.RESTServer != nil && (cc.RESTServer.Cert == "") != (cc.RESTServer.Key == "") {
				return fmt.Errorf("%w: rest controller needs both cert and key for TLS", ErrInvalidConfig)
			}
		default:
			return fmt.Errorf("%w: unknown controller type %q", ErrInvalidConfig, cc.Type)
		}
	}

	return nil
}

// Viewport converts the map settings to the composer's viewport.
func (m MapData) Viewport() scene.Viewport {
	return scene.Viewport{
		Center:      scene.Center{Lon: m.CenterLon, Lat: m.CenterLat},
		Zoom:        m.Zoom,
		Style:       m.Style,
		AccessToken: m.AccessToken,
	}
}

// Domain returns the configured color domain, or the zero value when unset.
func (m MapData) Domain() [2]float64 {
	if len(m.ColorDomain) != 2 {
		return [2]float64{}
	}
	return [2]float64{m.ColorDomain[0], m.ColorDomain[1]}
}
