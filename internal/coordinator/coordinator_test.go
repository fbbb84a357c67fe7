package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/geolocation"
	"github.com/i474232898/weather-dashboard/internal/i18n"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type fetchCall struct {
	point weather.GeoPoint
	cred  weather.Credential
}

// fakeFetcher answers with respond; the call index starts at 0.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   []fetchCall
	respond func(ctx context.Context, call int, point weather.GeoPoint) weather.Outcome
}

func (f *fakeFetcher) FetchWeather(ctx context.Context, point weather.GeoPoint, cred weather.Credential) weather.Outcome {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, fetchCall{point: point, cred: cred})
	f.mu.Unlock()
	return f.respond(ctx, n, point)
}

func (f *fakeFetcher) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.calls...)
}

type recenter struct {
	point weather.GeoPoint
	zoom  int
}

type status struct {
	message string
	isError bool
}

type shownCurrent struct {
	current weather.CurrentConditions
	place   string
}

// recorder is both the map and the projector.
type recorder struct {
	mu        sync.Mutex
	markers   []weather.GeoPoint
	recenters []recenter
	statuses  []status
	currents  []shownCurrent
	forecasts []weather.ForecastSeries
}

func (r *recorder) RenderMarker(p weather.GeoPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers = append(r.markers, p)
}

func (r *recorder) Recenter(p weather.GeoPoint, zoom int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recenters = append(r.recenters, recenter{point: p, zoom: zoom})
}

func (r *recorder) ShowCurrent(c weather.CurrentConditions, place string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currents = append(r.currents, shownCurrent{current: c, place: place})
}

func (r *recorder) ShowForecast(f weather.ForecastSeries) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forecasts = append(r.forecasts, f)
}

func (r *recorder) ShowStatus(message string, isError bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status{message: message, isError: isError})
}

func (r *recorder) lastStatus() status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return status{}
	}
	return r.statuses[len(r.statuses)-1]
}

func (r *recorder) statusMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.statuses))
	for _, s := range r.statuses {
		out = append(out, s.message)
	}
	return out
}

var es = i18n.For("es")

func madridOutcome(point weather.GeoPoint) weather.Outcome {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	current := weather.CurrentConditions{
		Place:       "Madrid",
		Temperature: 21.3,
		Humidity:    55,
		Description: "cielo claro",
		Icon:        "01d",
	}
	forecast := weather.ForecastSeries{
		{Timestamp: base, Temperature: 20, Humidity: 50, WindSpeed: 3},
		{Timestamp: base.Add(3 * time.Hour), Temperature: 22, Humidity: 45, WindSpeed: 4},
		{Timestamp: base.Add(6 * time.Hour), Temperature: 19, Humidity: 60, WindSpeed: 2},
	}
	return weather.Success(point, "Madrid", current, forecast)
}

func newTestCoordinator(t *testing.T, fetcher *fakeFetcher) (*Coordinator, *recorder, *store.PointStore) {
	t.Helper()
	rec := &recorder{}
	points := store.NewPointStore(DefaultPoint)
	c := New(points, fetcher, rec, rec, Options{
		DefaultPoint:       DefaultPoint,
		GeolocationTimeout: time.Second,
		Lang:               "es",
	})
	t.Cleanup(c.Close)
	c.Init()
	return c, rec, points
}

func TestInitSelectsDefaultPointWithoutFetching(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return madridOutcome(p)
	}}
	c, rec, points := newTestCoordinator(t, f)

	assert.Equal(t, AwaitingSelection, c.State())
	assert.Equal(t, DefaultPoint, points.GetPoint())
	assert.Equal(t, []weather.GeoPoint{DefaultPoint}, rec.markers)
	assert.Equal(t, []recenter{{point: DefaultPoint, zoom: 3}}, rec.recenters)
	assert.Empty(t, f.Calls())
}

func TestSelectPointLoadsWeather(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return madridOutcome(p)
	}}
	c, rec, _ := newTestCoordinator(t, f)

	c.SetCredential("  abc123  ")
	c.SelectPoint(40.4168, -3.7038, SourceClick)
	c.Wait()

	require.Len(t, f.Calls(), 1)
	assert.Equal(t, weather.Credential("abc123"), f.Calls()[0].cred)
	assert.Equal(t, weather.GeoPoint{Latitude: 40.4168, Longitude: -3.7038}, f.Calls()[0].point)

	assert.Equal(t, Done, c.State())
	require.Len(t, rec.currents, 1)
	assert.Equal(t, 21.3, rec.currents[0].current.Temperature)
	assert.Equal(t, 55.0, rec.currents[0].current.Humidity)
	assert.Equal(t, "Madrid", rec.currents[0].place)

	require.Len(t, rec.forecasts, 1)
	require.Len(t, rec.forecasts[0], 3)
	assert.Equal(t, []float64{20, 22, 19}, []float64{
		rec.forecasts[0][0].Temperature, rec.forecasts[0][1].Temperature, rec.forecasts[0][2].Temperature,
	})

	assert.Equal(t, []string{
		es.Text(i18n.StatusPointFetching),
		es.Text(i18n.StatusQuerying),
		"Datos cargados para Madrid.",
	}, rec.statusMessages())
	assert.False(t, rec.lastStatus().isError)

	// Clicks keep the zoom; only Init recentered.
	assert.Len(t, rec.recenters, 1)
}

func TestLoadedStatusFallsBackWithoutPlace(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		o := madridOutcome(p)
		o.Place = ""
		return o
	}}
	c, rec, _ := newTestCoordinator(t, f)

	c.SetCredential("abc")
	c.LoadWeather()
	c.Wait()

	assert.Equal(t, "Datos cargados para ubicacion seleccionada.", rec.lastStatus().message)
}

func TestMissingCredentialNeverFetches(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return madridOutcome(p)
	}}
	c, rec, points := newTestCoordinator(t, f)

	c.SelectPoint(10, 20, SourceClick)
	assert.Equal(t, AwaitingSelection, c.State())
	assert.Equal(t, weather.GeoPoint{Latitude: 10, Longitude: 20}, points.GetPoint())
	assert.Equal(t, status{message: es.Text(i18n.StatusPointClickNoKey)}, rec.lastStatus())

	c.SelectPoint(11, 21, SourceDrag)
	assert.Equal(t, status{message: es.Text(i18n.StatusPointDragNoKey)}, rec.lastStatus())

	c.SetCredential("   ")
	c.LoadWeather()
	c.Wait()

	assert.Equal(t, Failed, c.State())
	assert.Equal(t, status{message: es.Text(i18n.StatusMissingKey), isError: true}, rec.lastStatus())
	assert.Empty(t, f.Calls())
	assert.Empty(t, rec.currents)
	assert.Empty(t, rec.forecasts)
}

func TestFailureLeavesDisplayUntouched(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, call int, p weather.GeoPoint) weather.Outcome {
		if call == 0 {
			return madridOutcome(p)
		}
		return weather.Fail(p, &weather.Failure{
			Kind:    weather.KindProviderRejected,
			Status:  401,
			Message: "OpenWeatherMap: Invalid API key",
		})
	}}
	c, rec, _ := newTestCoordinator(t, f)

	c.SetCredential("abc")
	c.LoadWeather()
	c.Wait()
	require.Equal(t, Done, c.State())

	c.SetCredential("wrong")
	c.LoadWeather()
	c.Wait()

	assert.Equal(t, Failed, c.State())
	assert.Equal(t, status{message: "OpenWeatherMap: Invalid API key", isError: true}, rec.lastStatus())
	// Only the first, successful attempt reached the panels.
	assert.Len(t, rec.currents, 1)
	assert.Len(t, rec.forecasts, 1)
}

func TestNetworkFailureMessageDiffersFromProviderMessage(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return weather.Fail(p, &weather.Failure{
			Kind:    weather.KindNetworkUnreachable,
			Message: "dial tcp: lookup api.openweathermap.org: no such host",
		})
	}}
	c, rec, _ := newTestCoordinator(t, f)

	c.SetCredential("abc")
	c.LoadWeather()
	c.Wait()

	assert.Equal(t, Failed, c.State())
	assert.Equal(t, status{message: es.Text(i18n.StatusNetworkError), isError: true}, rec.lastStatus())
	assert.NotContains(t, rec.lastStatus().message, "no such host")
}

func TestCanceledOutcomeShowsNoStatus(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return weather.Fail(p, &weather.Failure{Kind: weather.KindCanceled, Message: "context canceled"})
	}}
	c, rec, _ := newTestCoordinator(t, f)

	c.SetCredential("abc")
	c.LoadWeather()
	c.Wait()

	assert.Equal(t, Failed, c.State())
	assert.Equal(t, status{message: es.Text(i18n.StatusQuerying)}, rec.lastStatus())
}

func TestLatestAttemptWins(t *testing.T) {
	release := make(chan struct{})
	firstCanceled := make(chan bool, 1)

	f := &fakeFetcher{respond: func(ctx context.Context, call int, p weather.GeoPoint) weather.Outcome {
		if call == 0 {
			<-release
			firstCanceled <- ctx.Err() != nil
			stale := madridOutcome(p)
			stale.Current.Temperature = -99
			return stale
		}
		return madridOutcome(p)
	}}
	c, rec, _ := newTestCoordinator(t, f)

	c.SetCredential("abc")
	c.SelectPoint(1, 1, SourceClick)
	c.SelectPoint(2, 2, SourceDrag)

	assert.Eventually(t, func() bool { return c.State() == Done }, time.Second, 5*time.Millisecond)

	close(release)
	c.Wait()

	assert.True(t, <-firstCanceled)
	assert.Equal(t, Done, c.State())
	require.Len(t, rec.currents, 1)
	assert.Equal(t, 21.3, rec.currents[0].current.Temperature)
	assert.Equal(t, "Datos cargados para Madrid.", rec.lastStatus().message)

	calls := f.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, weather.GeoPoint{Latitude: 2, Longitude: 2}, calls[1].point)
}

func TestSelectionWithoutKeySupersedesInflightFetch(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{respond: func(ctx context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		<-release
		return madridOutcome(p)
	}}
	c, rec, _ := newTestCoordinator(t, f)

	c.SetCredential("abc")
	c.LoadWeather()
	require.Equal(t, Fetching, c.State())

	c.SetCredential("")
	c.SelectPoint(5, 5, SourceClick)
	close(release)
	c.Wait()

	assert.Equal(t, AwaitingSelection, c.State())
	assert.Empty(t, rec.currents)
	assert.Equal(t, status{message: es.Text(i18n.StatusPointClickNoKey)}, rec.lastStatus())
}

func TestRefresh(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{respond: func(_ context.Context, call int, p weather.GeoPoint) weather.Outcome {
		if call == 1 {
			<-release
		}
		return madridOutcome(p)
	}}
	rec := &recorder{}
	c := New(store.NewPointStore(DefaultPoint), f, rec, rec, Options{Lang: "es"})
	defer c.Close()

	c.SetCredential("abc")
	assert.False(t, c.Refresh(), "idle coordinator must not refresh")

	c.Init()
	c.SetCredential("")
	assert.False(t, c.Refresh(), "refresh needs a credential")

	c.SetCredential("abc")
	assert.True(t, c.Refresh())
	c.Wait()
	assert.Equal(t, Done, c.State())

	assert.True(t, c.Refresh())
	assert.False(t, c.Refresh(), "refresh must not overlap a running fetch")

	close(release)
	c.Wait()
	assert.Len(t, f.Calls(), 2)
}

func TestLocateDeniedKeepsPoint(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return madridOutcome(p)
	}}
	c, rec, points := newTestCoordinator(t, f)
	c.SetCredential("abc")

	c.Locate(context.Background(), geolocation.Reported{Err: errors.New("user denied")})

	assert.Equal(t, DefaultPoint, points.GetPoint())
	assert.Equal(t, AwaitingSelection, c.State())
	assert.Equal(t, status{message: es.Text(i18n.StatusGeoFailed), isError: true}, rec.lastStatus())
	assert.Empty(t, f.Calls())
}

func TestLocateUnsupported(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return madridOutcome(p)
	}}
	c, rec, points := newTestCoordinator(t, f)

	c.Locate(context.Background(), geolocation.Unsupported{})

	assert.Equal(t, DefaultPoint, points.GetPoint())
	assert.Equal(t, status{message: es.Text(i18n.StatusGeoUnsupported), isError: true}, rec.lastStatus())
	assert.Empty(t, f.Calls())
}

func TestLocateSuccessRecentersAndFetches(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return madridOutcome(p)
	}}
	c, rec, points := newTestCoordinator(t, f)
	c.SetCredential("abc")

	found := weather.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}
	c.Locate(context.Background(), geolocation.Reported{Point: found})
	c.Wait()

	assert.Equal(t, found, points.GetPoint())
	assert.Equal(t, recenter{point: found, zoom: 11}, rec.recenters[len(rec.recenters)-1])
	require.Len(t, f.Calls(), 1)
	assert.Equal(t, found, f.Calls()[0].point)
	assert.Equal(t, Done, c.State())
	assert.Contains(t, rec.statusMessages(), es.Text(i18n.StatusGeoDetectedFetch))
}

func TestLocateWithoutKeyPrompts(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return madridOutcome(p)
	}}
	c, rec, _ := newTestCoordinator(t, f)

	c.Locate(context.Background(), geolocation.Reported{Point: weather.GeoPoint{Latitude: 1, Longitude: 2}})

	assert.Equal(t, AwaitingSelection, c.State())
	assert.Equal(t, status{message: es.Text(i18n.StatusGeoDetectedNoKey)}, rec.lastStatus())
	assert.Empty(t, f.Calls())
}

func TestLocateTimesOut(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return madridOutcome(p)
	}}
	rec := &recorder{}
	points := store.NewPointStore(DefaultPoint)
	c := New(points, f, rec, rec, Options{GeolocationTimeout: 20 * time.Millisecond, Lang: "es"})
	defer c.Close()
	c.Init()

	c.Locate(context.Background(), blockingLocator{})

	assert.Equal(t, DefaultPoint, points.GetPoint())
	assert.Equal(t, status{message: es.Text(i18n.StatusGeoFailed), isError: true}, rec.lastStatus())
}

type blockingLocator struct{}

func (blockingLocator) Locate(ctx context.Context) (weather.GeoPoint, error) {
	<-ctx.Done()
	return weather.GeoPoint{}, ctx.Err()
}

func TestCloseCancelsInflightFetch(t *testing.T) {
	sawCancel := make(chan struct{})
	f := &fakeFetcher{respond: func(ctx context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		<-ctx.Done()
		close(sawCancel)
		return weather.Fail(p, &weather.Failure{Kind: weather.KindCanceled})
	}}
	rec := &recorder{}
	c := New(store.NewPointStore(DefaultPoint), f, rec, rec, Options{Lang: "es"})
	c.Init()
	c.SetCredential("abc")
	c.LoadWeather()

	c.Close()

	select {
	case <-sawCancel:
	default:
		t.Fatal("fetch was not canceled")
	}
	assert.Empty(t, rec.currents)
}

func TestSnapshot(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return madridOutcome(p)
	}}
	c, _, _ := newTestCoordinator(t, f)

	s := c.Snapshot()
	assert.Equal(t, AwaitingSelection, s.State)
	assert.Equal(t, DefaultPoint, s.Point)
	assert.False(t, s.HasCredential)
	assert.Empty(t, s.Attempt)

	c.SetCredential("abc")
	assert.True(t, c.Snapshot().HasCredential)
}

// gatedLocator reports point once released.
type gatedLocator struct {
	started chan struct{}
	release chan struct{}
	point   weather.GeoPoint
}

func (l gatedLocator) Locate(ctx context.Context) (weather.GeoPoint, error) {
	close(l.started)
	select {
	case <-l.release:
		return l.point, nil
	case <-ctx.Done():
		return weather.GeoPoint{}, ctx.Err()
	}
}

func TestSelectionDuringLocateWins(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return madridOutcome(p)
	}}
	c, rec, points := newTestCoordinator(t, f)
	c.SetCredential("abc")

	loc := gatedLocator{
		started: make(chan struct{}),
		release: make(chan struct{}),
		point:   weather.GeoPoint{Latitude: 48.8566, Longitude: 2.3522},
	}
	located := make(chan struct{})
	go func() {
		defer close(located)
		c.Locate(context.Background(), loc)
	}()

	<-loc.started
	clicked := weather.GeoPoint{Latitude: 1, Longitude: 1}
	c.SelectPoint(clicked.Latitude, clicked.Longitude, SourceClick)
	close(loc.release)
	<-located
	c.Wait()

	assert.Equal(t, clicked, points.GetPoint())
	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, clicked, calls[0].point)
	assert.Equal(t, Done, c.State())
	for _, r := range rec.recenters {
		assert.NotEqual(t, 11, r.zoom, "the stale location must not recenter the map")
	}
}

func TestCloseStopsBackgroundLocate(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, p weather.GeoPoint) weather.Outcome {
		return madridOutcome(p)
	}}
	rec := &recorder{}
	points := store.NewPointStore(DefaultPoint)
	c := New(points, f, rec, rec, Options{GeolocationTimeout: time.Minute, Lang: "es"})
	c.Init()
	c.SetCredential("abc")

	c.LocateAsync(blockingLocator{})
	assert.Eventually(t, func() bool {
		return rec.lastStatus().message == es.Text(i18n.StatusGeoRequesting)
	}, time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		c.Close()
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not wait out the background locate")
	}

	assert.Equal(t, status{message: es.Text(i18n.StatusGeoRequesting)}, rec.lastStatus())
	assert.Equal(t, DefaultPoint, points.GetPoint())

	// Nothing starts after Close.
	c.LocateAsync(geolocation.Reported{Point: weather.GeoPoint{Latitude: 5, Longitude: 5}})
	c.LoadWeather()
	c.Wait()

	assert.Equal(t, DefaultPoint, points.GetPoint())
	assert.Empty(t, f.Calls())
}
