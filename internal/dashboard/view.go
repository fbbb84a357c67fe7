// Package dashboard keeps the rendered state of the weather dashboard: the
// map marker and viewport, the status line, the metrics panel and the two
// forecast charts. It implements the coordinator's MapView and Projector.
package dashboard

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/i18n"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	TempChartCanvas         = "tempChart"
	HumidityWindChartCanvas = "humidityWindChart"

	iconURLFormat = "https://openweathermap.org/img/wn/%s@2x.png"
)

// Marker is the draggable map marker.
type Marker struct {
	Point     weather.GeoPoint `json:"point"`
	Draggable bool             `json:"draggable"`
}

// Viewport is the map center and zoom.
type Viewport struct {
	Center weather.GeoPoint `json:"center"`
	Zoom   int              `json:"zoom"`
}

// Status is the single status line.
type Status struct {
	Message string `json:"message"`
	IsError bool   `json:"isError"`
}

// Metric is one entry of the metrics panel.
type Metric struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  string `json:"icon,omitempty"`
}

// Readout shows the selected coordinates.
type Readout struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Snapshot is an immutable copy of the dashboard.
type Snapshot struct {
	Marker            *Marker   `json:"marker,omitempty"`
	Viewport          Viewport  `json:"viewport"`
	Readout           Readout   `json:"readout"`
	City              string    `json:"city"`
	Status            Status    `json:"status"`
	Metrics           []Metric  `json:"metrics"`
	TempChart         *Chart    `json:"tempChart,omitempty"`
	HumidityWindChart *Chart    `json:"humidityWindChart,omitempty"`
	Revision          uint64    `json:"revision"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// View is the dashboard state. It is safe for concurrent use.
type View struct {
	mu    sync.RWMutex
	texts i18n.Catalog
	loc   *time.Location

	marker            *Marker
	viewport          Viewport
	city              string
	status            Status
	metrics           []Metric
	tempChart         *Chart
	humidityWindChart *Chart

	revision  uint64
	updatedAt time.Time
}

// NewView creates an empty dashboard. Chart labels are rendered in loc
// (time.Local when nil).
func NewView(lang string, loc *time.Location) *View {
	if loc == nil {
		loc = time.Local
	}
	return &View{texts: i18n.For(lang), loc: loc}
}

// RenderMarker creates the marker on first use and moves it afterwards.
func (v *View) RenderMarker(point weather.GeoPoint) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.marker == nil {
		v.marker = &Marker{Draggable: true}
	}
	v.marker.Point = point
	v.touch()
}

func (v *View) Recenter(point weather.GeoPoint, zoom int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.viewport = Viewport{Center: point, Zoom: zoom}
	v.touch()
}

func (v *View) ShowStatus(message string, isError bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.status = Status{Message: message, IsError: isError}
	v.touch()
}

func (v *View) ShowCurrent(current weather.CurrentConditions, place string) {
	metrics := v.buildMetrics(current)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.city = common.FirstNonEmpty(place, v.texts.Text(i18n.FallbackCity))
	v.metrics = metrics
	v.touch()
}

// ShowForecast destroys both chart instances before building new ones from
// forecast, keeping its order.
func (v *View) ShowForecast(forecast weather.ForecastSeries) {
	labels := make([]string, 0, len(forecast))
	temps := make([]float64, 0, len(forecast))
	humidity := make([]float64, 0, len(forecast))
	wind := make([]float64, 0, len(forecast))
	for _, s := range forecast {
		labels = append(labels, v.sampleLabel(s.Timestamp))
		temps = append(temps, s.Temperature)
		humidity = append(humidity, s.Humidity)
		wind = append(wind, s.WindSpeed)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.tempChart.Destroy()
	v.humidityWindChart.Destroy()

	v.tempChart = newChart(TempChartCanvas, labels,
		Dataset{Type: "line", Label: v.texts.Text(i18n.ChartTemperature), Data: temps, Axis: "y", Fill: true},
	)
	v.humidityWindChart = newChart(HumidityWindChartCanvas, append([]string(nil), labels...),
		Dataset{Type: "bar", Label: v.texts.Text(i18n.ChartHumidity), Data: humidity, Axis: "y"},
		Dataset{Type: "line", Label: v.texts.Text(i18n.ChartWind), Data: wind, Axis: "y1"},
	)
	v.touch()
}

// Snapshot returns a deep copy of the current dashboard.
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	s := Snapshot{
		Viewport:          v.viewport,
		City:              v.city,
		Status:            v.status,
		Metrics:           append([]Metric(nil), v.metrics...),
		TempChart:         v.tempChart.clone(),
		HumidityWindChart: v.humidityWindChart.clone(),
		Revision:          v.revision,
		UpdatedAt:         v.updatedAt,
	}
	if v.marker != nil {
		m := *v.marker
		s.Marker = &m
		s.Readout = Readout{
			Latitude:  strconv.FormatFloat(m.Point.Latitude, 'f', 5, 64),
			Longitude: strconv.FormatFloat(m.Point.Longitude, 'f', 5, 64),
		}
	}
	return s
}

func (v *View) touch() {
	v.revision++
	v.updatedAt = time.Now().UTC()
}

func (v *View) sampleLabel(ts time.Time) string {
	layout := "02/01, 15:04"
	if v.texts.Lang() == "en" {
		layout = "01/02, 03:04 PM"
	}
	return ts.In(v.loc).Format(layout)
}

func (v *View) buildMetrics(c weather.CurrentConditions) []Metric {
	t := v.texts

	icon := ""
	if c.Icon != "" {
		icon = fmt.Sprintf(iconURLFormat, c.Icon)
	}

	return []Metric{
		{Key: "description", Label: t.Text(i18n.LabelDescription),
			Value: common.FirstNonEmpty(c.Description, t.Text(i18n.FallbackDescription)), Icon: icon},
		{Key: "temperature", Label: t.Text(i18n.LabelTemperature), Value: celsius(c.Temperature)},
		{Key: "min_max", Label: t.Text(i18n.LabelMinMax), Value: celsius(c.TempMin) + " / " + celsius(c.TempMax)},
		{Key: "feels_like", Label: t.Text(i18n.LabelFeelsLike), Value: celsius(c.FeelsLike)},
		{Key: "humidity", Label: t.Text(i18n.LabelHumidity), Value: plain(c.Humidity) + "%"},
		{Key: "pressure", Label: t.Text(i18n.LabelPressure), Value: plain(c.Pressure) + " hPa"},
		{Key: "wind", Label: t.Text(i18n.LabelWind), Value: fmt.Sprintf("%.1f m/s (%s deg)", c.WindSpeed, plain(c.WindDeg))},
		{Key: "precip_1h", Label: t.Text(i18n.LabelPrecip1h), Value: plain(c.PrecipMM1h) + " mm"},
	}
}

func celsius(v float64) string {
	return fmt.Sprintf("%.1f C", v)
}

// plain prints a number the shortest way, "55" rather than "55.00".
func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
