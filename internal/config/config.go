package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

type AppConfig struct {
	Port string `envconfig:"PORT" default:"8080" validate:"required,numeric"`

	// OpenWeatherAPIKey pre-fills the credential; users can still set their own.
	OpenWeatherAPIKey  string `envconfig:"OPENWEATHER_API_KEY"`
	OpenWeatherBaseURL string `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5" validate:"required,url"`
	Lang               string `envconfig:"WEATHER_LANG" default:"es" validate:"required"`

	DefaultLat    float64 `envconfig:"DEFAULT_LAT" default:"40.4168" validate:"latitude"`
	DefaultLon    float64 `envconfig:"DEFAULT_LON" default:"-3.7038" validate:"longitude"`
	DefaultZoom   int     `envconfig:"DEFAULT_ZOOM" default:"3" validate:"min=0,max=19"`
	SelectionZoom int     `envconfig:"SELECTION_ZOOM" default:"11" validate:"min=0,max=19"`

	// HTTPTimeout of 0 leaves the platform default in place.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"0s" validate:"min=0"`

	GeolocationURL     string        `envconfig:"GEOLOCATION_URL" default:"http://ip-api.com/json/" validate:"omitempty,url"`
	GeolocationTimeout time.Duration `envconfig:"GEOLOCATION_TIMEOUT" default:"10s" validate:"min=0"`
	LocateOnStart      bool          `envconfig:"LOCATE_ON_START" default:"true"`

	// RefreshInterval of 0 disables periodic refresh.
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"0s" validate:"min=0"`
	DisplayTZ       string        `envconfig:"DISPLAY_TZ" default:"Local"`

	GeocoderAPIKey string `envconfig:"GEOCODER_API_KEY"`

	MQTT MQTTConfig
}

type MQTTConfig struct {
	Enabled     bool   `envconfig:"MQTT_ENABLED" default:"false"`
	Broker      string `envconfig:"MQTT_BROKER" default:"tcp://localhost:1883" validate:"required_if=Enabled true"`
	ClientID    string `envconfig:"MQTT_CLIENT_ID" default:"weather-dashboard"`
	TopicPrefix string `envconfig:"MQTT_TOPIC_PREFIX" default:"weather-dashboard"`
	Username    string `envconfig:"MQTT_USERNAME"`
	Password    string `envconfig:"MQTT_PASSWORD"`
}

// Load reads configuration from the environment (and an optional .env file)
// with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TZ: %w", err)
	}

	return &cfg, nil
}

// DefaultPoint is the point pre-selected at startup.
func (c *AppConfig) DefaultPoint() weather.GeoPoint {
	return weather.GeoPoint{Latitude: c.DefaultLat, Longitude: c.DefaultLon}
}

// Location resolves DisplayTZ for chart labels.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.DisplayTZ == "" || c.DisplayTZ == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.DisplayTZ)
}
