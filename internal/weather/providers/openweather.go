package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultOpenWeatherBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	label   string
	baseURL string
	lang    string
	httpCfg HTTPClientConfig
}

func NewOpenWeatherProvider(client *http.Client, baseURL, lang string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	if lang == "" {
		lang = "es"
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		label:   "OpenWeatherMap",
		baseURL: strings.TrimRight(baseURL, "/"),
		lang:    lang,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Circuit: newCircuitBreaker("openweather"),
		},
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

type owmWind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

type owmWeather struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (p *OpenWeatherProvider) Current(ctx context.Context, point weather.GeoPoint, cred weather.Credential) (weather.CurrentConditions, error) {
	var payload struct {
		Dt      int64        `json:"dt"`
		Name    string       `json:"name"`
		Main    *owmMain     `json:"main"`
		Wind    owmWind      `json:"wind"`
		Weather []owmWeather `json:"weather"`
		Rain    struct {
			OneH float64 `json:"1h"`
		} `json:"rain"`
	}

	if err := p.get(ctx, "weather", point, cred, &payload); err != nil {
		return weather.CurrentConditions{}, err
	}
	if payload.Main == nil {
		return weather.CurrentConditions{}, p.rejected("current conditions without main block")
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	cur := weather.CurrentConditions{
		Place:       payload.Name,
		ObservedAt:  ts,
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		TempMin:     payload.Main.TempMin,
		TempMax:     payload.Main.TempMax,
		Humidity:    payload.Main.Humidity,
		Pressure:    payload.Main.Pressure,
		WindSpeed:   payload.Wind.Speed,
		WindDeg:     payload.Wind.Deg,
		PrecipMM1h:  payload.Rain.OneH,
		Condition:   mapOpenWeatherCondition(payload.Weather),
	}
	if len(payload.Weather) > 0 {
		cur.Description = payload.Weather[0].Description
		cur.Icon = payload.Weather[0].Icon
	}
	return cur, nil
}

func (p *OpenWeatherProvider) Forecast(ctx context.Context, point weather.GeoPoint, cred weather.Credential) (weather.ForecastSeries, error) {
	var payload struct {
		List []struct {
			Dt   int64    `json:"dt"`
			Main *owmMain `json:"main"`
			Wind owmWind  `json:"wind"`
		} `json:"list"`
	}

	if err := p.get(ctx, "forecast", point, cred, &payload); err != nil {
		return nil, err
	}
	if payload.List == nil {
		return nil, p.rejected("forecast without list")
	}

	series := make(weather.ForecastSeries, 0, len(payload.List))
	for i, item := range payload.List {
		if item.Main == nil {
			return nil, p.rejected(fmt.Sprintf("forecast sample %d without main block", i))
		}
		series = append(series, weather.ForecastSample{
			Timestamp:   time.Unix(item.Dt, 0).UTC(),
			Temperature: item.Main.Temp,
			Humidity:    item.Main.Humidity,
			WindSpeed:   item.Wind.Speed,
		})
	}
	return series, nil
}

func (p *OpenWeatherProvider) get(ctx context.Context, endpoint string, point weather.GeoPoint, cred weather.Credential, v any) error {
	if !cred.Present() {
		return &weather.Failure{
			Kind:    weather.KindMissingCredential,
			Message: weather.ErrMissingCredential.Error(),
			Err:     weather.ErrMissingCredential,
		}
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(point.Latitude, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(point.Longitude, 'f', -1, 64))
		values.Set("units", "metric")
		values.Set("lang", p.lang)
		values.Set("appid", string(cred))

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, buildRequest)
	if err != nil {
		return err
	}
	return decodeResponse(resp, p.label, v)
}

func (p *OpenWeatherProvider) rejected(detail string) *weather.Failure {
	return &weather.Failure{
		Kind:    weather.KindProviderRejected,
		Status:  http.StatusOK,
		Message: fmt.Sprintf("%s: %s", p.label, detail),
	}
}

func mapOpenWeatherCondition(items []owmWeather) weather.Condition {
	if len(items) == 0 {
		return weather.ConditionUnknown
	}
	switch items[0].Main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
