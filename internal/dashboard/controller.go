package dashboard

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chrissnell/anomalymap/internal/dataset"
	"github.com/chrissnell/anomalymap/internal/scene"
	"go.uber.org/zap"
)

// Scene kinds, as reported to a SceneObserver.
const (
	SceneMap          = "map"
	SceneDistribution = "distribution"
)

// Update is the result of a year change. Displays apply an Update only if
// its Seq is higher than the last one they applied.
type Update struct {
	Seq          uint64       `json:"seq"`
	Year         int          `json:"year"`
	Empty        bool         `json:"empty"`
	Map          scene.Figure `json:"map"`
	Distribution scene.Figure `json:"distribution"`
}

// SceneObserver is told how long each scene build took.
type SceneObserver interface {
	ObserveScene(kind string, took time.Duration, empty bool)
}

// Controller reacts to selection events. The two scenes are rebuilt under
// separate locks, so a slow distribution build never delays a map build,
// while two builds of the same scene never overlap.
type Controller struct {
	ctx      *Context
	logger   *zap.SugaredLogger
	observer SceneObserver

	seq atomic.Uint64

	selMu    sync.RWMutex
	selected int

	mapMu  sync.Mutex
	distMu sync.Mutex
}

// NewController returns a Controller with the initial year selected.
func NewController(ctx *Context, logger *zap.SugaredLogger) *Controller {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Controller{
		ctx:      ctx,
		logger:   logger,
		selected: ctx.initialYear(),
	}
}

// SetObserver registers o to receive scene build timings.
func (c *Controller) SetObserver(o SceneObserver) {
	c.observer = o
}

// Selection returns the currently selected year.
func (c *Controller) Selection() int {
	c.selMu.RLock()
	defer c.selMu.RUnlock()
	return c.selected
}

// Context returns the read-only state the controller works from.
func (c *Controller) Context() *Context {
	return c.ctx
}

// Years returns the domain of the year selector.
func (c *Controller) Years() []int {
	return c.ctx.Dataset.Years()
}

// OnYearChange selects year and builds both scenes for it. A year with no
// rows yields placeholder scenes rather than an error.
func (c *Controller) OnYearChange(year int) Update {
	// The newest Seq always belongs to the year left selected.
	c.selMu.Lock()
	c.selected = year
	seq := c.seq.Add(1)
	c.selMu.Unlock()

	rows, err := c.ctx.Dataset.SliceByYear(year)
	if err != nil {
		if !errors.Is(err, dataset.ErrEmptyResult) {
			c.logger.Errorf("error slicing dataset: %v", err)
		}
		c.logger.Debugf("no rows for year %d, sending placeholder scenes", year)
		rows = nil
	}

	var wg sync.WaitGroup
	u := Update{Seq: seq, Year: year, Empty: len(rows) == 0}

	wg.Add(1)
	go func() {
		defer wg.Done()
		u.Distribution = c.DistributionScene(year, rows)
	}()
	u.Map = c.MapScene(year, rows)
	wg.Wait()

	return u
}

// MapScene builds the map scene for year from rows.
func (c *Controller) MapScene(year int, rows []dataset.Row) scene.Figure {
	c.mapMu.Lock()
	defer c.mapMu.Unlock()

	start := time.Now()
	fig := c.ctx.Composer.MapScene(year, rows)
	c.observe(SceneMap, start, len(rows) == 0)
	return fig
}

// DistributionScene builds the distribution scene for year from rows.
func (c *Controller) DistributionScene(year int, rows []dataset.Row) scene.Figure {
	c.distMu.Lock()
	defer c.distMu.Unlock()

	start := time.Now()
	fig := c.ctx.Composer.DistributionScene(year, rows)
	c.observe(SceneDistribution, start, len(rows) == 0)
	return fig
}

// SceneForYear builds one scene for year without changing the selection.
func (c *Controller) SceneForYear(kind string, year int) (scene.Figure, error) {
	rows, err := c.ctx.Dataset.SliceByYear(year)
	if err != nil && !errors.Is(err, dataset.ErrEmptyResult) {
		return scene.Figure{}, err
	}

	switch kind {
	case SceneMap:
		return c.MapScene(year, rows), nil
	case SceneDistribution:
		return c.DistributionScene(year, rows), nil
	default:
		return scene.Figure{}, ErrUnknownEvent
	}
}

// OnInfoToggle returns the new visibility of the info panel. Any click
// flips it; no click leaves it unchanged.
func (c *Controller) OnInfoToggle(openClicked, closeClicked, currentlyOpen bool) bool {
	if openClicked || closeClicked {
		return !currentlyOpen
	}
	return currentlyOpen
}

func (c *Controller) observe(kind string, start time.Time, empty bool) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveScene(kind, time.Since(start), empty)
}
