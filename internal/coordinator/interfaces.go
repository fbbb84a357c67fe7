package coordinator

import (
	"context"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// MapView is the map widget as seen by the Coordinator.
type MapView interface {
	RenderMarker(point weather.GeoPoint)
	Recenter(point weather.GeoPoint, zoom int)
}

// Projector renders outcomes. Calls are fire-and-forget. ShowForecast must
// fully replace whatever a previous call drew.
type Projector interface {
	ShowCurrent(current weather.CurrentConditions, place string)
	ShowForecast(forecast weather.ForecastSeries)
	ShowStatus(message string, isError bool)
}

// Fetcher is the weather client contract.
type Fetcher interface {
	FetchWeather(ctx context.Context, point weather.GeoPoint, cred weather.Credential) weather.Outcome
}

// Projectors fans every call out to each projector in order.
type Projectors []Projector

func (ps Projectors) ShowCurrent(current weather.CurrentConditions, place string) {
	for _, p := range ps {
		p.ShowCurrent(current, place)
	}
}

func (ps Projectors) ShowForecast(forecast weather.ForecastSeries) {
	for _, p := range ps {
		p.ShowForecast(forecast)
	}
}

func (ps Projectors) ShowStatus(message string, isError bool) {
	for _, p := range ps {
		p.ShowStatus(message, isError)
	}
}
