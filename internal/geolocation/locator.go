// Package geolocation resolves the device position as a one-shot, awaitable
// operation with three outcomes: unsupported, failed/denied, or a point.
package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultTimeout bounds a single Locate call.
const DefaultTimeout = 10 * time.Second

var (
	// ErrUnsupported means no geolocation capability is available.
	ErrUnsupported = errors.New("geolocation: not supported")
	// ErrDenied is wrapped by every failed attempt of a supported locator.
	ErrDenied = errors.New("geolocation: position unavailable")
)

// Locator performs one position request.
type Locator interface {
	Locate(ctx context.Context) (weather.GeoPoint, error)
}

// Unsupported is the locator used when no geolocation source exists.
type Unsupported struct{}

func (Unsupported) Locate(context.Context) (weather.GeoPoint, error) {
	return weather.GeoPoint{}, ErrUnsupported
}

// Reported carries a result produced elsewhere, e.g. by a browser, back into
// the Locator contract.
type Reported struct {
	Point weather.GeoPoint
	Err   error
}

func (r Reported) Locate(ctx context.Context) (weather.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return weather.GeoPoint{}, fmt.Errorf("%w: %v", ErrDenied, err)
	}
	if r.Err != nil {
		if errors.Is(r.Err, ErrUnsupported) || errors.Is(r.Err, ErrDenied) {
			return weather.GeoPoint{}, r.Err
		}
		return weather.GeoPoint{}, fmt.Errorf("%w: %v", ErrDenied, r.Err)
	}
	return r.Point, nil
}

// DefaultIPLocatorURL is an ip-api.com compatible lookup endpoint.
const DefaultIPLocatorURL = "http://ip-api.com/json/"

// IPLocator approximates the position of the host from its public IP address.
type IPLocator struct {
	client *http.Client
	url    string
}

func NewIPLocator(client *http.Client, url string) *IPLocator {
	if client == nil {
		client = http.DefaultClient
	}
	if url == "" {
		url = DefaultIPLocatorURL
	}
	return &IPLocator{client: client, url: url}
}

func (l *IPLocator) Locate(ctx context.Context) (weather.GeoPoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return weather.GeoPoint{}, fmt.Errorf("%w: %v", ErrDenied, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return weather.GeoPoint{}, fmt.Errorf("%w: %v", ErrDenied, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return weather.GeoPoint{}, fmt.Errorf("%w: lookup status %s", ErrDenied, resp.Status)
	}

	var payload struct {
		Status  string   `json:"status"`
		Message string   `json:"message"`
		Lat     *float64 `json:"lat"`
		Lon     *float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.GeoPoint{}, fmt.Errorf("%w: decode: %v", ErrDenied, err)
	}
	if payload.Status == "fail" {
		return weather.GeoPoint{}, fmt.Errorf("%w: %s", ErrDenied, payload.Message)
	}
	if payload.Lat == nil || payload.Lon == nil {
		return weather.GeoPoint{}, fmt.Errorf("%w: lookup returned no coordinates", ErrDenied)
	}

	return weather.GeoPoint{Latitude: *payload.Lat, Longitude: *payload.Lon}, nil
}
