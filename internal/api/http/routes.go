package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/coordinator"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/geolocation"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// Controller is the command side of the dashboard.
type Controller interface {
	SetCredential(key string)
	SelectPoint(lat, lon float64, source coordinator.Source)
	LoadWeather()
	Locate(ctx context.Context, locator geolocation.Locator)
	LocateAsync(locator geolocation.Locator)
	Snapshot() coordinator.Snapshot
}

// Viewer exposes the rendered dashboard.
type Viewer interface {
	Snapshot() dashboard.Snapshot
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. locator serves
// server-side geolocation requests; nil disables them.
func RegisterRoutes(app *fiber.App, ctrl Controller, view Viewer, locator geolocation.Locator) {
	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"coordinator": ctrl.Snapshot(),
			"dashboard":   view.Snapshot(),
		})
	})

	v1.Put("/credential", func(c *fiber.Ctx) error {
		var req credentialRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		ctrl.SetCredential(req.APIKey)
		return accepted(c, ctrl)
	})

	v1.Post("/selection", func(c *fiber.Ctx) error {
		var req selectionRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		ctrl.SelectPoint(*req.Latitude, *req.Longitude, coordinator.ParseSource(req.Source))
		return accepted(c, ctrl)
	})

	v1.Post("/weather/load", func(c *fiber.Ctx) error {
		ctrl.LoadWeather()
		return accepted(c, ctrl)
	})

	v1.Post("/geolocation", func(c *fiber.Ctx) error {
		var req geolocationRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		ctrl.Locate(c.UserContext(), req.toLocator())
		return accepted(c, ctrl)
	})

	v1.Post("/geolocation/locate", func(c *fiber.Ctx) error {
		loc := locator
		if loc == nil {
			loc = geolocation.Unsupported{}
		}
		// Locating may take up to the geolocation timeout; the status line
		// reports the result.
		ctrl.LocateAsync(loc)
		return accepted(c, ctrl)
	})
}

func accepted(c *fiber.Ctx, ctrl Controller) error {
	return c.Status(fiber.StatusAccepted).JSON(ctrl.Snapshot())
}

func bindAndValidate(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

type credentialRequest struct {
	APIKey string `json:"apiKey"`
}

// selectionRequest is a click or marker drag-end on the map.
type selectionRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Source    string   `json:"source" validate:"omitempty,oneof=click drag"`
}

// geolocationRequest is the browser's geolocation result: either a position
// or an error ("unsupported" or "denied").
type geolocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required_without=Error,omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"required_without=Error,omitempty,longitude"`
	Error     string   `json:"error" validate:"omitempty,oneof=unsupported denied"`
}

var errReportedDenied = errors.New("denied by the browser")

func (r geolocationRequest) toLocator() geolocation.Reported {
	switch r.Error {
	case "unsupported":
		return geolocation.Reported{Err: geolocation.ErrUnsupported}
	case "denied":
		return geolocation.Reported{Err: errReportedDenied}
	}
	return geolocation.Reported{Point: weather.GeoPoint{Latitude: *r.Latitude, Longitude: *r.Longitude}}
}
