package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowlens/flowlens/pkg/connections"
	"github.com/flowlens/flowlens/pkg/log"
	"github.com/flowlens/flowlens/pkg/otelhelper"
	"github.com/flowlens/flowlens/pkg/schedule"
)

const defaultPort = 9092

func main() {
	logger := log.WithModule("api")

	cmd := &cli.Command{
		Name:                  "flowlens-api",
		Usage:                 "Inspect n8n workflows: variable search and schedule expansion",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "connections-file",
				Usage:    "Path to the YAML file listing n8n connections",
				Required: true,
				Sources:  cli.EnvVars("CONNECTIONS_FILE"),
			},
			&cli.StringFlag{
				Name:    "cache-url",
				Usage:   "Schedule cache provider URL (redis://... or memory)",
				Value:   "memory",
				Sources: cli.EnvVars("CACHE_URL"),
			},
			&cli.DurationFlag{
				Name:    "cache-ttl",
				Usage:   "Time-to-live of computed schedule event sets",
				Value:   schedule.DefaultCacheTTL,
				Sources: cli.EnvVars("CACHE_TTL"),
			},
			&cli.IntFlag{
				Name:    "max-events-per-workflow",
				Usage:   "Occurrence cap per workflow when expanding schedules",
				Value:   schedule.DefaultMaxEventsPerWorkflow,
				Sources: cli.EnvVars("MAX_EVENTS_PER_WORKFLOW"),
			},
			&cli.DurationFlag{
				Name:    "default-event-duration",
				Usage:   "Event duration assumed when a trigger declares none",
				Value:   schedule.DefaultEventDuration,
				Sources: cli.EnvVars("DEFAULT_EVENT_DURATION"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces to the configured OTLP endpoint",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Flowlens API")

			resolver, err := connections.Load(command.String("connections-file"))
			if err != nil {
				return err
			}

			var tracer trace.Tracer
			if command.Bool("tracing") {
				tracer, err = otelhelper.NewTracer(ctx, "flowlens-api")
				if err != nil {
					return err
				}
			} else {
				tracer = otelhelper.NewNoopTracer()
			}

			cache := schedule.NewEventCache(
				command.String("cache-url"),
				command.Duration("cache-ttl"),
				logger,
			)

			opts := schedule.Options{
				MaxEventsPerWorkflow: command.Int("max-events-per-workflow"),
				DefaultEventDuration: command.Duration("default-event-duration"),
			}

			api := NewAPI(logger, resolver, cache, opts, tracer)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return err
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}
