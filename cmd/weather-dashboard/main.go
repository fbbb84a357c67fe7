package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/coordinator"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/geolocation"
	"github.com/i474232898/weather-dashboard/internal/mqtt"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weather-dashboard",
		Short: "Map-driven weather dashboard",
		Long:  "Select a point, supply an OpenWeatherMap key and get current conditions plus a multi-day forecast",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(fetchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newWeatherService(cfg *config.AppConfig, httpClient *http.Client) *weather.Service {
	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherBaseURL, cfg.Lang)

	// Reverse geocoding only fills in place names the provider leaves empty.
	var places weather.PlaceResolver
	if cfg.GeocoderAPIKey != "" {
		places = providers.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	}

	return weather.NewService(provider, places)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			tz, err := cfg.Location()
			if err != nil {
				return err
			}

			// Shared HTTP client for outbound calls; a zero timeout keeps the platform default.
			httpClient := &http.Client{
				Timeout: cfg.HTTPTimeout,
			}

			service := newWeatherService(cfg, httpClient)
			view := dashboard.NewView(cfg.Lang, tz)

			projectors := coordinator.Projectors{view}
			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Enabled:     cfg.MQTT.Enabled,
			})
			if err != nil {
				log.Printf("ERROR: MQTT disabled: %v", err)
			} else if cfg.MQTT.Enabled {
				projectors = append(projectors, publisher)
				defer publisher.Close()
			}

			points := store.NewPointStore(cfg.DefaultPoint())
			coord := coordinator.New(points, service, view, projectors, coordinator.Options{
				DefaultPoint:       cfg.DefaultPoint(),
				DefaultZoom:        cfg.DefaultZoom,
				SelectionZoom:      cfg.SelectionZoom,
				GeolocationTimeout: cfg.GeolocationTimeout,
				Lang:               cfg.Lang,
			})
			defer coord.Close()

			coord.Init()
			if cfg.OpenWeatherAPIKey != "" {
				coord.SetCredential(cfg.OpenWeatherAPIKey)
			}

			var locator geolocation.Locator = geolocation.Unsupported{}
			if cfg.GeolocationURL != "" {
				locator = geolocation.NewIPLocator(httpClient, cfg.GeolocationURL)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.LocateOnStart {
				coord.LocateAsync(locator)
			}

			sched := scheduler.New(cfg.RefreshInterval, coord)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer sched.Stop()

			app := fiber.New(fiber.Config{
				AppName:               "weather-dashboard",
				DisableStartupMessage: true,
				ReadTimeout:           10 * time.Second,
				WriteTimeout:          10 * time.Second,
				ErrorHandler: func(c *fiber.Ctx, err error) error {
					// Centralized error response
					code := fiber.StatusInternalServerError
					if e, ok := err.(*fiber.Error); ok {
						code = e.Code
					}
					return c.Status(code).JSON(fiber.Map{
						"error":   true,
						"message": err.Error(),
					})
				},
			})

			app.Use(logger.New())
			app.Use(recover.New())

			app.Get("/health", func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{
					"status":  "ok",
					"service": "weather-dashboard",
				})
			})

			httpapi.RegisterRoutes(app, coord, view, locator)

			go func() {
				log.Printf("INFO: listening on :%s", cfg.Port)
				if err := app.Listen(":" + cfg.Port); err != nil {
					log.Printf("fiber server stopped: %v", err)
				}
			}()

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				log.Printf("error during shutdown: %v", err)
			}
			return nil
		},
	}
}

func fetchCmd() *cobra.Command {
	var (
		lat, lon float64
		key      string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch current conditions and forecast for one point",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if key == "" {
				key = cfg.OpenWeatherAPIKey
			}

			service := newWeatherService(cfg, &http.Client{Timeout: cfg.HTTPTimeout})
			point := weather.GeoPoint{Latitude: lat, Longitude: lon}.Clamp()

			outcome := service.FetchWeather(cmd.Context(), point, weather.NewCredential(key))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(outcome); err != nil {
				return err
			}
			if !outcome.OK() {
				return outcome.Failure
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", coordinator.DefaultPoint.Latitude, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", coordinator.DefaultPoint.Longitude, "longitude")
	cmd.Flags().StringVar(&key, "key", "", "OpenWeatherMap API key (defaults to OPENWEATHER_API_KEY)")
	return cmd
}
