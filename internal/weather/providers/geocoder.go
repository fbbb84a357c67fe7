package providers

import (
	"context"
	"errors"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var errNoPlace = errors.New("reverse geocoding returned no place")

// GoogleGeocoder resolves place names through the Google geocoding API.
type GoogleGeocoder struct {
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleGeocoder configures the geocoder package with apiKey.
// The geocoder library keeps the key in a package variable.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{reverse: geocoder.GeocodingReverse}
}

// ResolvePlace returns the most specific locality name for point.
func (g *GoogleGeocoder) ResolvePlace(ctx context.Context, point weather.GeoPoint) (string, error) {
	type result struct {
		addresses []geocoder.Address
		err       error
	}

	// The library call takes no context; abandon it when ctx ends.
	ch := make(chan result, 1)
	go func() {
		addrs, err := g.reverse(geocoder.Location{
			Latitude:  point.Latitude,
			Longitude: point.Longitude,
		})
		ch <- result{addrs, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", r.err
		}
		for _, a := range r.addresses {
			if name := common.FirstNonEmpty(a.City, a.County, a.State, a.FormattedAddress); name != "" {
				return name, nil
			}
		}
		return "", errNoPlace
	}
}
