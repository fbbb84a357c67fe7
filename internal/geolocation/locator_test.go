package geolocation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func TestUnsupported(t *testing.T) {
	_, err := Unsupported{}.Locate(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestReported(t *testing.T) {
	p, err := Reported{Point: weather.GeoPoint{Latitude: 1, Longitude: 2}}.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, weather.GeoPoint{Latitude: 1, Longitude: 2}, p)

	_, err = Reported{Err: errors.New("user said no")}.Locate(context.Background())
	assert.ErrorIs(t, err, ErrDenied)

	_, err = Reported{Err: ErrUnsupported}.Locate(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.NotErrorIs(t, err, ErrDenied)
}

func TestIPLocatorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","lat":41.3874,"lon":2.1686,"city":"Barcelona"}`))
	}))
	defer srv.Close()

	p, err := NewIPLocator(srv.Client(), srv.URL).Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, weather.GeoPoint{Latitude: 41.3874, Longitude: 2.1686}, p)
}

func TestIPLocatorFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"provider fail", http.StatusOK, `{"status":"fail","message":"private range"}`},
		{"bad status", http.StatusServiceUnavailable, `{}`},
		{"no coordinates", http.StatusOK, `{"status":"success"}`},
		{"bad json", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewIPLocator(srv.Client(), srv.URL).Locate(context.Background())
			assert.ErrorIs(t, err, ErrDenied)
		})
	}
}

func TestIPLocatorTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewIPLocator(srv.Client(), srv.URL).Locate(ctx)
	assert.ErrorIs(t, err, ErrDenied)
}
