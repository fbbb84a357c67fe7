// Package i18n holds the user-facing texts of the dashboard in the supported
// languages and picks the closest one for a configured language tag.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

// Key identifies one user-facing text.
type Key string

const (
	StatusPointClickNoKey  Key = "status.point_click_no_key"
	StatusPointDragNoKey   Key = "status.point_drag_no_key"
	StatusPointFetching    Key = "status.point_fetching"
	StatusQuerying         Key = "status.querying"
	StatusMissingKey       Key = "status.missing_key"
	StatusLoaded           Key = "status.loaded"
	StatusNetworkError     Key = "status.network_error"
	StatusUnknownError     Key = "status.unknown_error"
	StatusGeoUnsupported   Key = "status.geo_unsupported"
	StatusGeoRequesting    Key = "status.geo_requesting"
	StatusGeoDetectedFetch Key = "status.geo_detected_fetch"
	StatusGeoDetectedNoKey Key = "status.geo_detected_no_key"
	StatusGeoFailed        Key = "status.geo_failed"
	FallbackPlace          Key = "fallback.place"
	FallbackCity           Key = "fallback.city"
	FallbackDescription    Key = "fallback.description"
	LabelDescription       Key = "label.description"
	LabelTemperature       Key = "label.temperature"
	LabelMinMax            Key = "label.min_max"
	LabelFeelsLike         Key = "label.feels_like"
	LabelHumidity          Key = "label.humidity"
	LabelPressure          Key = "label.pressure"
	LabelWind              Key = "label.wind"
	LabelPrecip1h          Key = "label.precip_1h"
	LabelIconAlt           Key = "label.icon_alt"
	ChartTemperature       Key = "chart.temperature"
	ChartHumidity          Key = "chart.humidity"
	ChartWind              Key = "chart.wind"
)

var spanish = map[Key]string{
	StatusPointClickNoKey:  "Punto actualizado con clic en mapa. Introduce API Key y pulsa cargar clima.",
	StatusPointDragNoKey:   "Punto actualizado. Introduce API Key y pulsa cargar clima.",
	StatusPointFetching:    "Punto actualizado. Consultando clima...",
	StatusQuerying:         "Consultando OpenWeatherMap...",
	StatusMissingKey:       "Introduce una API Key valida de OpenWeatherMap.",
	StatusLoaded:           "Datos cargados para %s.",
	StatusNetworkError:     "Error de red/CORS. Revisa la conexion y que el servicio pueda alcanzar OpenWeatherMap.",
	StatusUnknownError:     "Error desconocido al consultar OpenWeatherMap.",
	StatusGeoUnsupported:   "Tu navegador no soporta geolocalizacion.",
	StatusGeoRequesting:    "Solicitando permiso de geolocalizacion...",
	StatusGeoDetectedFetch: "Ubicacion detectada. Consultando clima...",
	StatusGeoDetectedNoKey: "Ubicacion detectada. Introduce API Key y pulsa cargar clima.",
	StatusGeoFailed:        "No se pudo obtener tu ubicacion. Puedes seleccionar un punto manualmente.",
	FallbackPlace:          "ubicacion seleccionada",
	FallbackCity:           "Sin ciudad",
	FallbackDescription:    "sin descripcion",
	LabelDescription:       "Descripcion",
	LabelTemperature:       "Temperatura",
	LabelMinMax:            "Min / Max",
	LabelFeelsLike:         "Sensacion termica",
	LabelHumidity:          "Humedad",
	LabelPressure:          "Presion",
	LabelWind:              "Viento",
	LabelPrecip1h:          "Precipitacion (1h)",
	LabelIconAlt:           "Icono del tiempo",
	ChartTemperature:       "Temperatura (C)",
	ChartHumidity:          "Humedad (%)",
	ChartWind:              "Viento (m/s)",
}

var english = map[Key]string{
	StatusPointClickNoKey:  "Point updated from a map click. Enter an API key and press load weather.",
	StatusPointDragNoKey:   "Point updated. Enter an API key and press load weather.",
	StatusPointFetching:    "Point updated. Fetching weather...",
	StatusQuerying:         "Querying OpenWeatherMap...",
	StatusMissingKey:       "Enter a valid OpenWeatherMap API key.",
	StatusLoaded:           "Data loaded for %s.",
	StatusNetworkError:     "Network/CORS error. Check the connection and that the service can reach OpenWeatherMap.",
	StatusUnknownError:     "Unknown error while querying OpenWeatherMap.",
	StatusGeoUnsupported:   "Your browser does not support geolocation.",
	StatusGeoRequesting:    "Requesting geolocation permission...",
	StatusGeoDetectedFetch: "Location detected. Fetching weather...",
	StatusGeoDetectedNoKey: "Location detected. Enter an API key and press load weather.",
	StatusGeoFailed:        "Could not get your location. You can select a point manually.",
	FallbackPlace:          "selected location",
	FallbackCity:           "No city",
	FallbackDescription:    "no description",
	LabelDescription:       "Description",
	LabelTemperature:       "Temperature",
	LabelMinMax:            "Min / Max",
	LabelFeelsLike:         "Feels like",
	LabelHumidity:          "Humidity",
	LabelPressure:          "Pressure",
	LabelWind:              "Wind",
	LabelPrecip1h:          "Precipitation (1h)",
	LabelIconAlt:           "Weather icon",
	ChartTemperature:       "Temperature (C)",
	ChartHumidity:          "Humidity (%)",
	ChartWind:              "Wind (m/s)",
}

var (
	supported = []language.Tag{language.Spanish, language.English}
	tables    = []map[Key]string{spanish, english}
	matcher   = language.NewMatcher(supported)
)

// Catalog resolves keys to texts in one language.
type Catalog struct {
	tag   language.Tag
	texts map[Key]string
}

// For returns the catalog closest to lang ("es", "en-GB", ...). Unknown or
// malformed tags fall back to Spanish.
func For(lang string) Catalog {
	tag, err := language.Parse(lang)
	if err != nil {
		return Catalog{tag: supported[0], texts: tables[0]}
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		idx = 0
	}
	return Catalog{tag: supported[idx], texts: tables[idx]}
}

// Lang returns the base language of the catalog, e.g. "es".
func (c Catalog) Lang() string {
	base, _ := c.tag.Base()
	return base.String()
}

// Text returns the text for key, formatted with args when given.
func (c Catalog) Text(key Key, args ...any) string {
	s, ok := c.texts[key]
	if !ok {
		s = spanish[key]
	}
	if len(args) > 0 {
		return fmt.Sprintf(s, args...)
	}
	return s
}
