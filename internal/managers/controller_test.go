package managers

import (
	"context"
	"sync"
	"testing"

	"github.com/chrissnell/anomalymap/internal/dashboard"
	"github.com/chrissnell/anomalymap/internal/dataset"
	"github.com/chrissnell/anomalymap/internal/metrics"
	"github.com/chrissnell/anomalymap/internal/scale"
	"github.com/chrissnell/anomalymap/internal/scene"
	"github.com/chrissnell/anomalymap/pkg/config"
	"go.uber.org/zap"
)

func testDashboard(t *testing.T) *dashboard.Controller {
	t.Helper()
	anomaly, _ := scale.New(scale.AnomalyScaleName, scale.DefaultAnomalyBins, scale.DefaultAnomalyColors)
	precip, _ := scale.New(scale.PrecipitationScaleName, scale.DefaultPrecipitationBins, scale.DefaultPrecipitationColors)
	ds, err := dataset.New(nil, anomaly, precip)
	if err != nil {
		t.Fatalf("dataset.New failed: %v", err)
	}
	dctx, err := dashboard.NewContext(ds, scene.Config{Anomaly: anomaly, Precipitation: precip})
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	return dashboard.NewController(dctx, nil)
}

func TestNewControllerManager(t *testing.T) {
	tests := []struct {
		name        string
		controllers []config.ControllerData
		wantErr     bool
	}{
		{"rest", []config.ControllerData{{Type: "rest", RESTServer: &config.RESTServerData{Port: 9999}}}, false},
		{"restserver without settings", []config.ControllerData{{Type: "restserver"}}, false},
		{"none", nil, false},
		{"unknown", []config.ControllerData{{Type: "aprs"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.ConfigData{Controllers: tt.controllers}
			cm, err := NewControllerManager(context.Background(), &sync.WaitGroup{}, cfg, testDashboard(t), metrics.New(), zap.NewNop().Sugar())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewControllerManager() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := len(cm.(*controllerManager).controllers); got != len(tt.controllers) {
				t.Errorf("%d controllers, expected %d", got, len(tt.controllers))
			}
		})
	}
}
