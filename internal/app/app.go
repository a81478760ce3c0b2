package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/anomalymap/internal/dashboard"
	"github.com/chrissnell/anomalymap/internal/database"
	"github.com/chrissnell/anomalymap/internal/dataset"
	"github.com/chrissnell/anomalymap/internal/log"
	"github.com/chrissnell/anomalymap/internal/managers"
	"github.com/chrissnell/anomalymap/internal/metrics"
	"github.com/chrissnell/anomalymap/internal/scale"
	"github.com/chrissnell/anomalymap/internal/scene"
	"github.com/chrissnell/anomalymap/internal/tracing"
	"github.com/chrissnell/anomalymap/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	config *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance. Defaults are applied to cfg.
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	cfg.ApplyDefaults()
	return &App{
		config: cfg,
		logger: logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.config.Validate(); err != nil {
		return err
	}

	shutdownTracing, err := tracing.Init(ctx, a.config.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warnf("error shutting down tracing: %v", err)
		}
	}()

	// Load the scales and the dataset; any configuration error stops us here
	dctx, err := NewDashboardContext(a.config)
	if err != nil {
		return err
	}
	log.Infof("loaded %d rows covering %d years", dctx.Dataset.Len(), len(dctx.Dataset.Years()))

	m := metrics.New()
	dash := dashboard.NewController(dctx, a.logger.Named("dashboard"))
	dash.SetObserver(m)

	// Initialize the controller manager
	cm, err := managers.NewControllerManager(ctx, &wg, a.config, dash, m, a.logger.Named("controllers"))
	if err != nil {
		return err
	}
	err = cm.StartControllers()
	if err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// NewDashboardContext builds the scales, loads the dataset and sets up the
// scene composer described by cfg.
func NewDashboardContext(cfg *config.ConfigData) (*dashboard.Context, error) {
	anomaly, precipitation, err := LoadScales(cfg.Scales)
	if err != nil {
		return nil, err
	}

	rows, err := LoadRows(cfg.Dataset)
	if err != nil {
		return nil, err
	}

	ds, err := dataset.New(rows, anomaly, precipitation)
	if err != nil {
		return nil, err
	}

	return dashboard.NewContext(ds, scene.Config{
		Anomaly:       anomaly,
		Precipitation: precipitation,
		Viewport:      cfg.Map.Viewport(),
		ColorDomain:   cfg.Map.Domain(),
		Height:        cfg.Map.Height,
	})
}

// LoadScales builds both scales, falling back to the defaults for any
// scale the configuration leaves out.
func LoadScales(sc config.ScalesData) (anomaly, precipitation *scale.Scale, err error) {
	build := func(name string, sd *config.ScaleData, bins []float64, colors []string) (*scale.Scale, error) {
		if sd != nil {
			bins, colors = sd.Boundaries, sd.Colors
		}
		return scale.New(name, bins, colors)
	}

	anomaly, err = build(scale.AnomalyScaleName, sc.Anomaly, scale.DefaultAnomalyBins, scale.DefaultAnomalyColors)
	if err != nil {
		return nil, nil, err
	}
	precipitation, err = build(scale.PrecipitationScaleName, sc.Precipitation, scale.DefaultPrecipitationBins, scale.DefaultPrecipitationColors)
	if err != nil {
		return nil, nil, err
	}
	return anomaly, precipitation, nil
}

// LoadRows reads the raw observations from the configured source.
func LoadRows(dc config.DatasetData) ([]dataset.Row, error) {
	switch dc.Source {
	case config.SourceCSV, "":
		log.Infof("loading dataset from %s", dc.Path)
		rows, err := dataset.ReadCSVFile(dc.Path)
		if err != nil {
			return nil, fmt.Errorf("error loading dataset: %w", err)
		}
		return rows, nil

	case config.SourceTimescaleDB:
		db, err := database.CreateConnection(dc.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("error connecting to dataset database: %w", err)
		}
		defer database.Close(db)

		rows, err := database.FetchRows(db, dc.Table)
		if err != nil {
			return nil, fmt.Errorf("error loading dataset from table %s: %w", dc.Table, err)
		}
		return rows, nil

	default:
		return nil, errors.New("unknown dataset source: " + dc.Source)
	}
}
