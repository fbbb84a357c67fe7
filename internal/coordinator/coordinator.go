// Package coordinator sequences point selections, weather fetches and display
// updates. Only the most recently started fetch may update the display: every
// attempt gets an id and a cancel func, and results from superseded attempts
// are dropped.
package coordinator

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/geolocation"
	"github.com/i474232898/weather-dashboard/internal/i18n"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Options tunes the Coordinator. Zero values take the defaults below.
type Options struct {
	DefaultPoint       weather.GeoPoint
	DefaultZoom        int
	SelectionZoom      int
	GeolocationTimeout time.Duration
	Lang               string
}

const (
	defaultZoom   = 3
	selectionZoom = 11
)

// DefaultPoint is the point pre-selected on initialization (Madrid).
var DefaultPoint = weather.GeoPoint{Latitude: 40.4168, Longitude: -3.7038}

// appState is the mutable application state; only the Coordinator writes it.
type appState struct {
	state      State
	credential weather.Credential
	points     *store.PointStore

	// attempt identifies the latest started fetch; uuid.Nil when none is live.
	attempt uuid.UUID
	cancel  context.CancelFunc

	// selections counts point selections from every source.
	selections uint64
}

// Coordinator owns the selection/fetch state machine.
type Coordinator struct {
	mu  sync.Mutex
	app appState

	fetcher   Fetcher
	mapView   MapView
	projector Projector
	opts      Options
	texts     i18n.Catalog

	ctx      context.Context
	shutdown context.CancelFunc
	inflight sync.WaitGroup
}

// New wires a Coordinator. The store is shared with readers but written only here.
func New(points *store.PointStore, fetcher Fetcher, mapView MapView, projector Projector, opts Options) *Coordinator {
	if opts.DefaultPoint == (weather.GeoPoint{}) {
		opts.DefaultPoint = DefaultPoint
	}
	if opts.DefaultZoom == 0 {
		opts.DefaultZoom = defaultZoom
	}
	if opts.SelectionZoom == 0 {
		opts.SelectionZoom = selectionZoom
	}
	if opts.GeolocationTimeout <= 0 {
		opts.GeolocationTimeout = geolocation.DefaultTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		app:       appState{state: Idle, points: points},
		fetcher:   fetcher,
		mapView:   mapView,
		projector: projector,
		opts:      opts,
		texts:     i18n.For(opts.Lang),
		ctx:       ctx,
		shutdown:  cancel,
	}
}

// Init pre-selects the default point and waits for a selection. No fetch is
// attempted.
func (c *Coordinator) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.opts.DefaultPoint
	c.app.points.SetPoint(p.Latitude, p.Longitude)
	p = c.app.points.GetPoint()

	c.mapView.RenderMarker(p)
	c.mapView.Recenter(p, c.opts.DefaultZoom)
	c.app.state = AwaitingSelection
}

// SetCredential stores the user's key; blank clears it.
func (c *Coordinator) SetCredential(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.app.credential = weather.NewCredential(key)
}

// SelectPoint handles a click or marker drag on the map.
func (c *Coordinator) SelectPoint(lat, lon float64, source Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectLocked(lat, lon, source)
}

// LoadWeather is the manual "load weather" command, allowed from any state.
func (c *Coordinator) LoadWeather() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()
}

// Refresh reloads the current point when a key is present and nothing is in
// flight. It reports whether a fetch was started.
func (c *Coordinator) Refresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.app.credential.Present() || c.app.state == Fetching || c.app.state == Idle {
		return false
	}
	c.startFetchLocked()
	return true
}

// Locate awaits one geolocation attempt and feeds a success into the
// selection path with zoom. Failures only change the status line. A point
// selected while the locator is pending wins over its result.
func (c *Coordinator) Locate(ctx context.Context, locator geolocation.Locator) {
	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.projector.ShowStatus(c.texts.Text(i18n.StatusGeoRequesting), false)
	seq := c.app.selections
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.opts.GeolocationTimeout)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	point, err := locator.Locate(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx.Err() != nil {
		log.Printf("DEBUG: geolocation result dropped: coordinator closed")
		return
	}
	if c.app.selections != seq {
		log.Printf("DEBUG: geolocation result dropped: a newer point was selected")
		return
	}

	switch {
	case errors.Is(err, geolocation.ErrUnsupported):
		log.Printf("INFO: geolocation unavailable: %v", err)
		c.projector.ShowStatus(c.texts.Text(i18n.StatusGeoUnsupported), true)
	case err != nil:
		log.Printf("INFO: geolocation failed: %v", err)
		c.projector.ShowStatus(c.texts.Text(i18n.StatusGeoFailed), true)
	default:
		c.selectLocked(point.Latitude, point.Longitude, SourceGeolocation)
	}
}

// LocateAsync runs Locate in the background. Close cancels it and waits for
// it to return.
func (c *Coordinator) LocateAsync(locator geolocation.Locator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx.Err() != nil {
		return
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.Locate(c.ctx, locator)
	}()
}

// Snapshot is a read-only view of the coordinator state.
type Snapshot struct {
	State         State            `json:"state"`
	Point         weather.GeoPoint `json:"point"`
	HasCredential bool             `json:"hasCredential"`
	Attempt       string           `json:"attempt,omitempty"`
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:         c.app.state,
		Point:         c.app.points.GetPoint(),
		HasCredential: c.app.credential.Present(),
	}
	if c.app.attempt != uuid.Nil {
		s.Attempt = c.app.attempt.String()
	}
	return s
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.app.state
}

// Wait blocks until every started fetch and background locate has finished.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

// Close cancels any in-flight fetch or locate and waits for them to return.
// Commands issued afterwards start no new work.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.supersedeLocked()
	c.shutdown()
	c.mu.Unlock()

	c.inflight.Wait()
}

func (c *Coordinator) selectLocked(lat, lon float64, source Source) {
	c.app.selections++
	c.app.points.SetPoint(lat, lon)
	p := c.app.points.GetPoint()

	c.mapView.RenderMarker(p)
	if source == SourceGeolocation {
		c.mapView.Recenter(p, c.opts.SelectionZoom)
	}

	// A new selection always takes precedence over an older fetch.
	c.supersedeLocked()

	if !c.app.credential.Present() {
		c.projector.ShowStatus(c.texts.Text(promptFor(source)), false)
		c.app.state = AwaitingSelection
		return
	}

	if source == SourceGeolocation {
		c.projector.ShowStatus(c.texts.Text(i18n.StatusGeoDetectedFetch), false)
	} else if source == SourceClick {
		c.projector.ShowStatus(c.texts.Text(i18n.StatusPointFetching), false)
	}
	c.loadLocked()
}

func promptFor(source Source) i18n.Key {
	switch source {
	case SourceDrag:
		return i18n.StatusPointDragNoKey
	case SourceGeolocation:
		return i18n.StatusGeoDetectedNoKey
	default:
		return i18n.StatusPointClickNoKey
	}
}

func (c *Coordinator) loadLocked() {
	if !c.app.credential.Present() {
		c.supersedeLocked()
		c.projector.ShowStatus(c.texts.Text(i18n.StatusMissingKey), true)
		c.app.state = Failed
		return
	}
	c.startFetchLocked()
}

func (c *Coordinator) startFetchLocked() {
	c.supersedeLocked()
	if c.ctx.Err() != nil {
		return
	}

	id := uuid.New()
	ctx, cancel := context.WithCancel(c.ctx)
	c.app.attempt = id
	c.app.cancel = cancel
	c.app.state = Fetching

	point := c.app.points.GetPoint()
	cred := c.app.credential

	c.projector.ShowStatus(c.texts.Text(i18n.StatusQuerying), false)
	log.Printf("DEBUG: fetch attempt %s started for %s", id, point)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		outcome := c.fetcher.FetchWeather(ctx, point, cred)
		c.complete(id, outcome)
	}()
}

// supersedeLocked cancels the live attempt, if any, so its result is dropped.
func (c *Coordinator) supersedeLocked() {
	if c.app.cancel != nil {
		c.app.cancel()
	}
	c.app.cancel = nil
	c.app.attempt = uuid.Nil
}

func (c *Coordinator) complete(id uuid.UUID, outcome weather.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id != c.app.attempt {
		log.Printf("DEBUG: dropping result of superseded fetch attempt %s", id)
		return
	}
	c.app.cancel()
	c.app.cancel = nil
	c.app.attempt = uuid.Nil

	if !outcome.OK() {
		f := outcome.Failure
		if f.Kind == weather.KindCanceled {
			log.Printf("DEBUG: fetch attempt %s canceled", id)
			c.app.state = Failed
			return
		}
		// Prior metrics and charts stay as they are.
		c.app.state = Failed
		c.projector.ShowStatus(c.failureMessage(f), true)
		return
	}

	c.projector.ShowCurrent(outcome.Current, outcome.Place)
	c.projector.ShowForecast(outcome.Forecast)
	c.projector.ShowStatus(c.texts.Text(i18n.StatusLoaded,
		common.FirstNonEmpty(outcome.Place, c.texts.Text(i18n.FallbackPlace))), false)
	c.app.state = Done
}

func (c *Coordinator) failureMessage(f *weather.Failure) string {
	switch f.Kind {
	case weather.KindMissingCredential:
		return c.texts.Text(i18n.StatusMissingKey)
	case weather.KindNetworkUnreachable:
		return c.texts.Text(i18n.StatusNetworkError)
	case weather.KindProviderRejected:
		return common.FirstNonEmpty(f.Message, c.texts.Text(i18n.StatusUnknownError))
	default:
		return c.texts.Text(i18n.StatusUnknownError)
	}
}
