package weather

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/errgroup"
)

// Service is the weather client: it joins the current-conditions and forecast
// requests into one all-or-nothing Outcome.
type Service struct {
	provider Provider
	places   PlaceResolver
}

// NewService creates a new Service. places may be nil.
func NewService(provider Provider, places PlaceResolver) *Service {
	return &Service{
		provider: provider,
		places:   places,
	}
}

// FetchWeather issues both requests concurrently and waits for both. Any
// failure fails the whole outcome, even if the other request succeeded.
// A missing credential is rejected before any request is made.
func (s *Service) FetchWeather(ctx context.Context, point GeoPoint, cred Credential) Outcome {
	if !cred.Present() {
		return Fail(point, &Failure{
			Kind:    KindMissingCredential,
			Message: ErrMissingCredential.Error(),
			Err:     ErrMissingCredential,
		})
	}

	log.Printf("DEBUG: FetchWeather called for %s via %s", point, s.provider.Name())

	var (
		current  CurrentConditions
		forecast ForecastSeries
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.provider.Current(gCtx, point, cred)
		if err != nil {
			return err
		}
		current = c
		return nil
	})
	g.Go(func() error {
		f, err := s.provider.Forecast(gCtx, point, cred)
		if err != nil {
			return err
		}
		forecast = f
		return nil
	})

	if err := g.Wait(); err != nil {
		f := AsFailure(err)
		if ctx.Err() != nil && f.Kind == KindNetworkUnreachable {
			f = &Failure{Kind: KindCanceled, Message: ctx.Err().Error(), Err: ctx.Err()}
		}
		if f.Kind != KindCanceled {
			log.Printf("ERROR: weather fetch failed for %s: %v", point, f)
		}
		return Fail(point, f)
	}

	return Success(point, s.placeFor(ctx, point, current), current, forecast)
}

// placeFor prefers the provider's own name and falls back to reverse geocoding.
func (s *Service) placeFor(ctx context.Context, point GeoPoint, current CurrentConditions) string {
	if current.Place != "" || s.places == nil {
		return current.Place
	}
	place, err := s.places.ResolvePlace(ctx, point)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("INFO: reverse geocoding failed for %s: %v", point, err)
		}
		return ""
	}
	return place
}
