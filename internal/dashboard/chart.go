package dashboard

import (
	"github.com/google/uuid"
)

// Dataset is one series of a chart.
type Dataset struct {
	Type  string    `json:"type"` // "line" or "bar"
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
	Axis  string    `json:"yAxisID"`
	Fill  bool      `json:"fill,omitempty"`
}

// Chart is one chart instance bound to a canvas. An instance is never
// mutated after construction; it is destroyed and replaced instead.
type Chart struct {
	ID        string    `json:"id"`
	Canvas    string    `json:"canvas"`
	Labels    []string  `json:"labels"`
	Datasets  []Dataset `json:"datasets"`
	destroyed bool
}

func newChart(canvas string, labels []string, datasets ...Dataset) *Chart {
	return &Chart{
		ID:       uuid.NewString(),
		Canvas:   canvas,
		Labels:   labels,
		Datasets: datasets,
	}
}

// Destroy releases the instance's data. A destroyed chart renders nothing.
func (c *Chart) Destroy() {
	if c == nil {
		return
	}
	c.destroyed = true
	c.Labels = nil
	c.Datasets = nil
}

// Destroyed reports whether Destroy was called.
func (c *Chart) Destroyed() bool {
	return c != nil && c.destroyed
}

func (c *Chart) clone() *Chart {
	if c == nil || c.destroyed {
		return nil
	}
	out := &Chart{
		ID:       c.ID,
		Canvas:   c.Canvas,
		Labels:   append([]string(nil), c.Labels...),
		Datasets: make([]Dataset, len(c.Datasets)),
	}
	for i, d := range c.Datasets {
		d.Data = append([]float64(nil), d.Data...)
		out.Datasets[i] = d
	}
	return out
}
