package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/chrissnell/anomalymap/internal/scale"
	_ "modernc.org/sqlite"
)

// Schema is the SQLite configuration schema. Scalar settings live in a
// key/value table; scales and controllers get their own tables.
const Schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scales (
	name       TEXT PRIMARY KEY,
	boundaries TEXT NOT NULL,
	colors     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS controllers (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	type        TEXT NOT NULL,
	listen_addr TEXT,
	port        INTEGER,
	cert        TEXT,
	key         TEXT,
	enable_cors INTEGER NOT NULL DEFAULT 0
);
`

// Setting keys of the settings table
const (
	keyDatasetSource     = "dataset.source"
	keyDatasetPath       = "dataset.path"
	keyDatasetConnString = "dataset.connection_string"
	keyDatasetTable      = "dataset.table"
	keyMapCenterLat      = "map.center_lat"
	keyMapCenterLon      = "map.center_lon"
	keyMapZoom           = "map.zoom"
	keyMapStyle          = "map.style"
	keyMapAccessToken    = "map.access_token"
	keyMapHeight         = "map.height"
	keyMapColorDomain    = "map.color_domain"
	keyTracingEnabled    = "tracing.enabled"
	keyTracingEndpoint   = "tracing.endpoint"
	keyTracingService    = "tracing.service_name"
	keyTracingInsecure   = "tracing.insecure"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens the database at dbPath and creates the schema if
// it's missing.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create configuration schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	settings, err := s.settings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	config := &ConfigData{
		Dataset: datasetFromSettings(settings),
	}

	if config.Map, err = mapFromSettings(settings); err != nil {
		return nil, fmt.Errorf("failed to load map config: %w", err)
	}
	if config.Tracing, err = tracingFromSettings(settings); err != nil {
		return nil, fmt.Errorf("failed to load tracing config: %w", err)
	}

	scales, err := s.GetScales()
	if err != nil {
		return nil, fmt.Errorf("failed to load scales: %w", err)
	}
	config.Scales = *scales

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	return config, nil
}

// GetDatasetConfig returns the dataset configuration from the database
func (s *SQLiteProvider) GetDatasetConfig() (*DatasetData, error) {
	settings, err := s.settings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	ds := datasetFromSettings(settings)
	return &ds, nil
}

// GetScales returns the configured scales. Scales missing from the table
// are left nil.
func (s *SQLiteProvider) GetScales() (*ScalesData, error) {
	rows, err := s.db.Query(`SELECT name, boundaries, colors FROM scales`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scales: %w", err)
	}
	defer rows.Close()

	scales := &ScalesData{}
	for rows.Next() {
		var name, boundaries, colors string
		if err := rows.Scan(&name, &boundaries, &colors); err != nil {
			return nil, fmt.Errorf("failed to scan scale row: %w", err)
		}

		sd := &ScaleData{}
		if err := json.Unmarshal([]byte(boundaries), &sd.Boundaries); err != nil {
			return nil, fmt.Errorf("scale %s: bad boundaries: %w", name, err)
		}
		if err := json.Unmarshal([]byte(colors), &sd.Colors); err != nil {
			return nil, fmt.Errorf("scale %s: bad colors: %w", name, err)
		}

		switch name {
		case scale.AnomalyScaleName:
			scales.Anomaly = sd
		case scale.PrecipitationScaleName:
			scales.Precipitation = sd
		default:
			return nil, fmt.Errorf("unknown scale %q", name)
		}
	}

	return scales, rows.Err()
}

// GetControllers returns controller configurations from the database
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	rows, err := s.db.Query(`
		SELECT type, listen_addr, port, cert, key, enable_cors
		FROM controllers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var ctype string
		var listenAddr, cert, key sql.NullString
		var port sql.NullInt64
		var enableCORS bool

		if err := rows.Scan(&ctype, &listenAddr, &port, &cert, &key, &enableCORS); err != nil {
			return nil, fmt.Errorf("failed to scan controller row: %w", err)
		}

		cd := ControllerData{Type: ctype}
		if ctype == "rest" || ctype == "restserver" {
			cd.RESTServer = &RESTServerData{
				ListenAddr: listenAddr.String,
				Port:       int(port.Int64),
				Cert:       cert.String,
				Key:        key.String,
				EnableCORS: enableCORS,
			}
		}
		controllers = append(controllers, cd)
	}

	return controllers, rows.Err()
}

// SaveConfig replaces the stored configuration with config.
func (s *SQLiteProvider) SaveConfig(config *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM settings`, `DELETE FROM scales`, `DELETE FROM controllers`} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to clear configuration: %w", err)
		}
	}

	domain, err := json.Marshal(config.Map.ColorDomain)
	if err != nil {
		return err
	}

	settings := map[string]string{
		keyDatasetSource:     config.Dataset.Source,
		keyDatasetPath:       config.Dataset.Path,
		keyDatasetConnString: config.Dataset.ConnectionString,
		keyDatasetTable:      config.Dataset.Table,
		keyMapCenterLat:      strconv.FormatFloat(config.Map.CenterLat, 'f', -1, 64),
		keyMapCenterLon:      strconv.FormatFloat(config.Map.CenterLon, 'f', -1, 64),
		keyMapZoom:           strconv.FormatFloat(config.Map.Zoom, 'f', -1, 64),
		keyMapStyle:          config.Map.Style,
		keyMapAccessToken:    config.Map.AccessToken,
		keyMapHeight:         strconv.Itoa(config.Map.Height),
		keyTracingEnabled:    strconv.FormatBool(config.Tracing.Enabled),
		keyTracingEndpoint:   config.Tracing.Endpoint,
		keyTracingService:    config.Tracing.ServiceName,
		keyTracingInsecure:   strconv.FormatBool(config.Tracing.Insecure),
	}
	if len(config.Map.ColorDomain) > 0 {
		settings[keyMapColorDomain] = string(domain)
	}

	for k, v := range settings {
		if v == "" {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", k, err)
		}
	}

	for name, sd := range map[string]*ScaleData{
		scale.AnomalyScaleName:       config.Scales.Anomaly,
		scale.PrecipitationScaleName: config.Scales.Precipitation,
	} {
		if sd == nil {
			continue
		}
		b, err := json.Marshal(sd.Boundaries)
		if err != nil {
			return err
		}
		c, err := json.Marshal(sd.Colors)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO scales (name, boundaries, colors) VALUES (?, ?, ?)`, name, string(b), string(c)); err != nil {
			return fmt.Errorf("failed to save scale %s: %w", name, err)
		}
	}

	for _, cd := range config.Controllers {
		rs := cd.RESTServer
		if rs == nil {
			rs = &RESTServerData{}
		}
		_, err := tx.Exec(`
			INSERT INTO controllers (type, listen_addr, port, cert, key, enable_cors)
			VALUES (?, ?, ?, ?, ?, ?)`,
			cd.Type, nullString(rs.ListenAddr), nullInt(rs.Port), nullString(rs.Cert), nullString(rs.Key), rs.EnableCORS)
		if err != nil {
			return fmt.Errorf("failed to save controller %s: %w", cd.Type, err)
		}
	}

	return tx.Commit()
}

// IsReadOnly returns false since SQLite supports write operations
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}

func (s *SQLiteProvider) settings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

func datasetFromSettings(settings map[string]string) DatasetData {
	return DatasetData{
		Source:           settings[keyDatasetSource],
		Path:             settings[keyDatasetPath],
		ConnectionString: settings[keyDatasetConnString],
		Table:            settings[keyDatasetTable],
	}
}

func mapFromSettings(settings map[string]string) (MapData, error) {
	m := MapData{
		Style:       settings[keyMapStyle],
		AccessToken: settings[keyMapAccessToken],
	}

	var err error
	for key, dst := range map[string]*float64{
		keyMapCenterLat: &m.CenterLat,
		keyMapCenterLon: &m.CenterLon,
		keyMapZoom:      &m.Zoom,
	} {
		v, ok := settings[key]
		if !ok {
			continue
		}
		if *dst, err = strconv.ParseFloat(v, 64); err != nil {
			return m, fmt.Errorf("%s: %w", key, err)
		}
	}

	if v, ok := settings[keyMapHeight]; ok {
		if m.Height, err = strconv.Atoi(v); err != nil {
			return m, fmt.Errorf("%s: %w", keyMapHeight, err)
		}
	}
	if v, ok := settings[keyMapColorDomain]; ok {
		if err := json.Unmarshal([]byte(v), &m.ColorDomain); err != nil {
			return m, fmt.Errorf("%s: %w", keyMapColorDomain, err)
		}
	}

	return m, nil
}

func tracingFromSettings(settings map[string]string) (TracingData, error) {
	t := TracingData{
		Endpoint:    settings[keyTracingEndpoint],
		ServiceName: settings[keyTracingService],
	}

	var err error
	if v, ok := settings[keyTracingEnabled]; ok {
		if t.Enabled, err = strconv.ParseBool(v); err != nil {
			return t, fmt.Errorf("%s: %w", keyTracingEnabled, err)
		}
	}
	if v, ok := settings[keyTracingInsecure]; ok {
		if t.Insecure, err = strconv.ParseBool(v); err != nil {
			return t, fmt.Errorf("%s: %w", keyTracingInsecure, err)
		}
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i != 0}
}
