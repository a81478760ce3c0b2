package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}
	return parseYAML(cfgFile)
}

func parseYAML(data []byte) (*ConfigData, error) {
	var yamlConfig ConfigYAML
	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Dataset: DatasetData{
			Source:           yamlConfig.Dataset.Source,
			Path:             yamlConfig.Dataset.Path,
			ConnectionString: yamlConfig.Dataset.ConnectionString,
			Table:            yamlConfig.Dataset.Table,
		},
		Scales: ScalesData{
			Anomaly:       yamlConfig.Scales.Anomaly.toScaleData(),
			Precipitation: yamlConfig.Scales.Precipitation.toScaleData(),
		},
		Map: MapData{
			CenterLat:   yamlConfig.Map.Center.Lat,
			CenterLon:   yamlConfig.Map.Center.Lon,
			Zoom:        yamlConfig.Map.Zoom,
			Style:       yamlConfig.Map.Style,
			AccessToken: yamlConfig.Map.AccessToken,
			Height:      yamlConfig.Map.Height,
			ColorDomain: yamlConfig.Map.ColorDomain,
		},
		Controllers: make([]ControllerData, len(yamlConfig.Controllers)),
		Tracing: TracingData{
			Enabled:     yamlConfig.Tracing.Enabled,
			Endpoint:    yamlConfig.Tracing.Endpoint,
			ServiceName: yamlConfig.Tracing.ServiceName,
			Insecure:    yamlConfig.Tracing.Insecure,
		},
	}

	// Convert controllers
	for i, controller := range yamlConfig.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}

		if controller.RESTServer != nil {
			config.Controllers[i].RESTServer = &RESTServerData{
				Cert:       controller.RESTServer.Cert,
				Key:        controller.RESTServer.Key,
				Port:       controller.RESTServer.Port,
				ListenAddr: controller.RESTServer.ListenAddr,
				EnableCORS: controller.RESTServer.EnableCORS,
			}
		}
	}

	return config, nil
}

// GetDatasetConfig returns the dataset configuration from the YAML file
func (y *YAMLProvider) GetDatasetConfig() (*DatasetData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Dataset, nil
}

// GetControllers returns controller configurations from the YAML file
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with yaml tags

type ConfigYAML struct {
	Dataset     DatasetYAML      `yaml:"dataset"`
	Scales      ScalesYAML       `yaml:"scales,omitempty"`
	Map         MapYAML          `yaml:"map,omitempty"`
	Controllers []ControllerYAML `yaml:"controllers,omitempty"`
	Tracing     TracingYAML      `yaml:"tracing,omitempty"`
}

type DatasetYAML struct {
	Source           string `yaml:"source"`
	Path             string `yaml:"path,omitempty"`
	ConnectionString string `yaml:"connection_string,omitempty"`
	Table            string `yaml:"table,omitempty"`
}

type ScalesYAML struct {
	Anomaly       *ScaleYAML `yaml:"anomaly,omitempty"`
	Precipitation *ScaleYAML `yaml:"precipitation,omitempty"`
}

type ScaleYAML struct {
	Boundaries []float64 `yaml:"boundaries"`
	Colors     []string  `yaml:"colors"`
}

func (s *ScaleYAML) toScaleData() *ScaleData {
	if s == nil {
		return nil
	}
	return &ScaleData{Boundaries: s.Boundaries, Colors: s.Colors}
}

type MapYAML struct {
	Center      PointYAML `yaml:"center,omitempty"`
	Zoom        float64   `yaml:"zoom,omitempty"`
	Style       string    `yaml:"style,omitempty"`
	AccessToken string    `yaml:"access_token,omitempty"`
	Height      int       `yaml:"height,omitempty"`
	ColorDomain []float64 `yaml:"color_domain,omitempty"`
}

type PointYAML struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

type ControllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *RESTServerYAML `yaml:"rest,omitempty"`
}

type RESTServerYAML struct {
	Cert       string `yaml:"cert,omitempty"`
	Key        string `yaml:"key,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	ListenAddr string `yaml:"listen_addr,omitempty"`
	EnableCORS bool   `yaml:"enable_cors,omitempty"`
}

type TracingYAML struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	ServiceName string `yaml:"service_name,omitempty"`
	Insecure    bool   `yaml:"insecure,omitempty"`
}
