package weather

import (
	"context"
)

// Provider abstracts the remote weather API. Each call is one HTTP request.
type Provider interface {
	Name() string
	Current(ctx context.Context, point GeoPoint, cred Credential) (CurrentConditions, error)
	Forecast(ctx context.Context, point GeoPoint, cred Credential) (ForecastSeries, error)
}

// PlaceResolver turns a coordinate into a human readable place name.
type PlaceResolver interface {
	ResolvePlace(ctx context.Context, point GeoPoint) (string, error)
}
