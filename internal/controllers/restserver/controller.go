package restserver

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/anomalymap/internal/dashboard"
	"github.com/chrissnell/anomalymap/internal/log"
	"github.com/chrissnell/anomalymap/internal/metrics"
	"github.com/chrissnell/anomalymap/internal/tracing"
	"github.com/chrissnell/anomalymap/pkg/config"
	"github.com/felixge/httpsnoop"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	FS         fs.FS
	dashboard  *dashboard.Controller
	dispatcher *dashboard.Dispatcher
	metrics    *metrics.Metrics
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller serving the dashboard
// driven by dash.
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, dash *dashboard.Controller, m *metrics.Metrics, logger *zap.SugaredLogger) (*Controller, error) {
	if dash == nil {
		return nil, fmt.Errorf("REST server requires a dashboard controller")
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		dashboard:  dash,
		dispatcher: dashboard.NewDispatcher(dash),
		metrics:    m,
		logger:     logger,
		FS:         GetAssets(),
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		ctrl.restConfig.ListenAddr = config.DefaultListenAddr
	}

	// Set default HTTP port if not specified
	if rc.Port == 0 {
		logger.Infof("rest.port not provided; defaulting to %d", config.DefaultPort)
		ctrl.restConfig.Port = config.DefaultPort
	}

	// Create handlers
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", ctrl.restConfig.ListenAddr, ctrl.restConfig.Port)
	ctrl.Server.Handler = ctrl.setupHandler()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Infof("Starting REST server controller on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Handler returns the fully wrapped HTTP handler of the server
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(c.metricsMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/years", c.handlers.GetYears).Methods(http.MethodGet)
	api.HandleFunc("/scales", c.handlers.GetScales).Methods(http.MethodGet)
	api.HandleFunc("/scene/{kind:map|distribution}", c.handlers.GetScene).Methods(http.MethodGet)
	api.HandleFunc("/selection", c.handlers.PostSelection).Methods(http.MethodPost)
	api.HandleFunc("/info/toggle", c.handlers.PostInfoToggle).Methods(http.MethodPost)

	router.HandleFunc("/ws", c.handlers.ServeWebSocket)
	router.Handle("/metrics", c.metrics.Handler())
	router.HandleFunc("/healthz", c.handlers.Healthz)

	// Template endpoints
	router.HandleFunc("/", c.handlers.ServeIndexTemplate)
	router.HandleFunc("/js/anomalymap.js", c.handlers.ServeJS)

	// Static file serving
	router.PathPrefix("/").Handler(http.FileServer(http.FS(c.FS)))

	return router
}

// setupHandler wraps the router in the recovery, CORS, tracing and access
// log middleware.
func (c *Controller) setupHandler() http.Handler {
	var h http.Handler = c.setupRouter()

	if c.restConfig.EnableCORS {
		h = handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "Accept", log.RequestIDHeader}),
		)(h)
	}

	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{c.logger}),
		handlers.PrintRecoveryStack(true),
	)(h)
	h = tracing.Middleware("anomalymap")(h)
	return log.HTTPMiddleware(c.logger)(h)
}

// metricsMiddleware records request counts and durations by route template
func (c *Controller) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cr := mux.CurrentRoute(r); cr != nil {
			if tmpl, err := cr.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		m := httpsnoop.CaptureMetrics(next, w, r)
		c.metrics.ObserveRequest(route, m.Code, m.Duration)
	})
}

// recoveryLogger adapts the zap logger to gorilla/handlers' RecoveryHandlerLogger
type recoveryLogger struct {
	logger *zap.SugaredLogger
}

func (l recoveryLogger) Println(args ...interface{}) {
	l.logger.Error(args...)
}
