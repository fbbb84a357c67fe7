package weather

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// GeoPoint is the coordinate weather is fetched for.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Clamp returns the point with latitude limited to [-90,90] and longitude to [-180,180].
func (p GeoPoint) Clamp() GeoPoint {
	return GeoPoint{
		Latitude:  math.Max(-90, math.Min(90, p.Latitude)),
		Longitude: math.Max(-180, math.Min(180, p.Longitude)),
	}
}

// String formats the point with five decimals, the precision of the coordinate readouts.
func (p GeoPoint) String() string {
	return fmt.Sprintf("%.5f, %.5f", p.Latitude, p.Longitude)
}

// Credential is the API key supplied by the user. Only its presence is checked locally.
type Credential string

// NewCredential trims surrounding whitespace from a user supplied key.
func NewCredential(s string) Credential {
	return Credential(strings.TrimSpace(s))
}

// Present reports whether a non-blank key was supplied.
func (c Credential) Present() bool {
	return strings.TrimSpace(string(c)) != ""
}

// CurrentConditions is the normalized snapshot of present weather at a point.
type CurrentConditions struct {
	// Place is the name the provider resolved for the point; may be empty.
	Place       string    `json:"place"`
	ObservedAt  time.Time `json:"observedAt"` // always UTC
	Temperature float64   `json:"temperatureC"`
	FeelsLike   float64   `json:"feelsLikeC"`
	TempMin     float64   `json:"tempMinC"`
	TempMax     float64   `json:"tempMaxC"`
	Humidity    float64   `json:"humidityPercent"`
	Pressure    float64   `json:"pressureHpa"`
	WindSpeed   float64   `json:"windSpeedMs"`
	WindDeg     float64   `json:"windDeg"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	PrecipMM1h  float64   `json:"precip1hMm"`
	Condition   Condition `json:"condition"`
}

// ForecastSample is one time-stamped entry of a forecast.
type ForecastSample struct {
	Timestamp   time.Time `json:"timestamp"` // always UTC
	Temperature float64   `json:"temperatureC"`
	Humidity    float64   `json:"humidityPercent"`
	WindSpeed   float64   `json:"windSpeedMs"`
}

// ForecastSeries keeps the provider's chronological order.
type ForecastSeries []ForecastSample
