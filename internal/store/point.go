package store

import (
	"sync"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// PointStore holds the single currently selected coordinate. It keeps no
// history and notifies nobody; readers pull the point when they need it.
type PointStore struct {
	mu    sync.RWMutex
	point weather.GeoPoint
}

// NewPointStore creates a store pre-selected at initial (clamped).
func NewPointStore(initial weather.GeoPoint) *PointStore {
	return &PointStore{point: initial.Clamp()}
}

// SetPoint replaces the selected point, clamping out-of-range values.
func (s *PointStore) SetPoint(lat, lon float64) {
	p := weather.GeoPoint{Latitude: lat, Longitude: lon}.Clamp()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.point = p
}

// GetPoint returns the selected point.
func (s *PointStore) GetPoint() weather.GeoPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.point
}
