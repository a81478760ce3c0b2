package restserver

import (
	"encoding/json"
	"errors"
	htmltemplate "html/template"
	"io"
	"net/http"
	"slices"
	"strconv"
	"text/template"

	"github.com/chrissnell/anomalymap/internal/constants"
	"github.com/chrissnell/anomalymap/internal/dashboard"
	"github.com/chrissnell/anomalymap/internal/log"
	"github.com/chrissnell/anomalymap/internal/scale"
	"github.com/chrissnell/anomalymap/internal/scene"
	"github.com/chrissnell/anomalymap/pkg/responseformat"
	"github.com/gorilla/mux"
)

// PageTitle is the title of the dashboard page
const PageTitle = "ANPP - NDVI Anomalies"

// maxBodyBytes caps the size of POSTed events
const maxBodyBytes = 1 << 16

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
	index      *htmltemplate.Template
	script     *template.Template
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
		index:      htmltemplate.Must(htmltemplate.New("index.html.tmpl").ParseFS(ctrl.FS, "index.html.tmpl")),
		script:     template.Must(template.New("anomalymap.js.tmpl").ParseFS(ctrl.FS, "js/anomalymap.js.tmpl")),
	}
}

// YearsResponse is the body of GET /api/years
type YearsResponse struct {
	Years    []int `json:"years"`
	Selected int   `json:"selected"`
}

// ScalesResponse is the body of GET /api/scales
type ScalesResponse struct {
	Anomaly       *scale.Scale `json:"anomaly"`
	Precipitation *scale.Scale `json:"precipitation"`
}

// GetYears returns the selectable years and the current selection
func (h *Handlers) GetYears(w http.ResponseWriter, req *http.Request) {
	dash := h.controller.dashboard
	h.write(w, req, YearsResponse{
		Years:    dash.Years(),
		Selected: dash.Selection(),
	})
}

// GetScales returns both classification scales
func (h *Handlers) GetScales(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, ScalesResponse{
		Anomaly:       h.controller.dashboard.Context().Anomaly,
		Precipitation: h.controller.dashboard.Context().Precipitation,
	})
}

// GetScene builds the map or distribution scene for the year in the query
// string, or for the current selection when no year is given. Years with
// no data get a placeholder scene.
func (h *Handlers) GetScene(w http.ResponseWriter, req *http.Request) {
	kind := mux.Vars(req)["kind"]

	year := h.controller.dashboard.Selection()
	if v := req.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, req, http.StatusBadRequest, "invalid year: "+v)
			return
		}
		year = y
	}

	fig, err := h.controller.dashboard.SceneForYear(kind, year)
	if err != nil {
		log.Errorf("error building %s scene for %d: %v", kind, year, err)
		h.writeError(w, req, http.StatusInternalServerError, "error building scene")
		return
	}
	h.write(w, req, fig)
}

// PostSelection changes the selected year and returns both new scenes
func (h *Handlers) PostSelection(w http.ResponseWriter, req *http.Request) {
	h.dispatch(w, req, dashboard.EventYear)
}

// PostInfoToggle flips the info panel
func (h *Handlers) PostInfoToggle(w http.ResponseWriter, req *http.Request) {
	h.dispatch(w, req, dashboard.EventInfo)
}

// Healthz reports liveness
func (h *Handlers) Healthz(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, map[string]any{
		"status":  "ok",
		"version": constants.Version,
		"years":   len(h.controller.dashboard.Years()),
	})
}

// ServeIndexTemplate serves the dashboard page
func (h *Handlers) ServeIndexTemplate(w http.ResponseWriter, req *http.Request) {
	years := h.controller.dashboard.Years()
	selected := h.controller.dashboard.Selection()
	selectedIndex := slices.Index(years, selected)
	if selectedIndex < 0 {
		selectedIndex = 0
	}

	templateData := struct {
		PageTitle     string
		Version       string
		Years         []int
		Selected      int
		SelectedIndex int
		MaxIndex      int
		MapHeight     int
		InfoTitle     string
		InfoSummary   string
	}{
		PageTitle:     PageTitle,
		Version:       constants.Version,
		Years:         years,
		Selected:      selected,
		SelectedIndex: selectedIndex,
		MaxIndex:      max(len(years)-1, 0),
		MapHeight:     scene.DefaultHeight,
		InfoTitle:     "About these maps",
		InfoSummary:   infoSummary,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.index.Execute(w, templateData); err != nil {
		log.Error("error executing index template:", err)
		return
	}
}

// ServeJS serves the dashboard script
func (h *Handlers) ServeJS(w http.ResponseWriter, req *http.Request) {
	jsTemplateData := struct {
		WebSocketPath string
		UIRevision    string
	}{
		WebSocketPath: "/ws",
		UIRevision:    scene.MapUIRevision,
	}

	w.Header().Set("Content-Type", "text/javascript")
	if err := h.script.Execute(w, jsTemplateData); err != nil {
		log.Error("error executing anomalymap JavaScript template:", err)
		return
	}
}

// dispatch decodes an event from the request body and runs it
func (h *Handlers) dispatch(w http.ResponseWriter, req *http.Request, name string) {
	var ev dashboard.Event
	body := http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&ev); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, req, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	ev.Name = name

	result, err := h.controller.dispatcher.Dispatch(ev)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dashboard.ErrInvalidEvent) || errors.Is(err, dashboard.ErrUnknownEvent) {
			status = http.StatusBadRequest
		}
		h.writeError(w, req, status, err.Error())
		return
	}
	h.write(w, req, result)
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, data any) {
	if err := h.formatter.WriteResponse(w, req, data, map[string]string{"Cache-Control": "no-store"}); err != nil {
		log.Errorf("error writing response for %s: %v", req.URL.Path, err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, status int, message string) {
	if err := h.formatter.WriteError(w, req, status, message); err != nil {
		log.Errorf("error writing error response for %s: %v", req.URL.Path, err)
	}
}

const infoSummary = "Each map shows the percent departure of a season's vegetation " +
	"measure from its long-term mean at every grid point, for the selected year. " +
	"GrassCast ANPP is modelled aboveground net primary production; MODIS NDVI is " +
	"the satellite greenness index. Points are colored by anomaly class. The " +
	"histograms below compare the anomalies across precipitation categories " +
	"(ratio of the year's precipitation to normal)."
