// Package main provides the Flowlens API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowlens/flowlens/pkg/connections"
	"github.com/flowlens/flowlens/pkg/schedule"
	"github.com/flowlens/flowlens/pkg/search"
	"github.com/flowlens/flowlens/pkg/web"
)

type API struct {
	logger   *slog.Logger
	resolver *connections.Resolver
	cache    schedule.EventCache
	opts     schedule.Options
	tracer   trace.Tracer
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	resolver *connections.Resolver,
	cache schedule.EventCache,
	opts schedule.Options,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:   logger,
		resolver: resolver,
		cache:    cache,
		opts:     opts,
		tracer:   tracer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	aggregator := schedule.NewAggregator(a.cache, a.opts, a.logger, a.tracer)
	searcher := search.NewSearcher(a.logger, a.tracer)
	sourceFactory := web.NewSourceFactory(a.logger)

	handlers := web.NewAPIHandlers(a.resolver, aggregator, searcher, sourceFactory, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowlens API")
	})

	app.Post("/search", handlers.SearchWorkflow)

	s := app.Group("/schedules")
	s.Post("/", handlers.ListSchedules)
	s.Post("/events", handlers.ListScheduleEvents)

	app.Post("/test-connection", handlers.TestConnection)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
