package main

import (
	"context"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowkit-dev/flowkit/pkg/channels/gochannel"
	"github.com/flowkit-dev/flowkit/pkg/channels/kafka"
	"github.com/flowkit-dev/flowkit/pkg/eventbus"
	"github.com/flowkit-dev/flowkit/pkg/log"
	"github.com/flowkit-dev/flowkit/pkg/otelhelper"
	"github.com/flowkit-dev/flowkit/pkg/versioning"
)

const defaultPort = 9092

const serviceName = "flowkit-api"

func main() {
	logger := log.WithModule("api")

	cmd := &cli.Command{
		Name:                  "flowkit-api",
		Usage:                 "Validate workflow documents and manage version histories",
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
				Name:    "history-path",
				Usage:   "Path of the version-history file (loaded at start, saved after mutations)",
				Sources: cli.EnvVars("HISTORY_PATH"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus transport (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka broker list (event-bus=kafka)",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
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

			logger.InfoContext(ctx, "Initializing FlowKit API")

			bus, err := newEventBus(command)
			if err != nil {
				return err
			}

			defer func() {
				if err := bus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var tracer trace.Tracer
			if command.Bool("tracing") {
				tracer, err = otelhelper.NewTracer(ctx, serviceName)
				if err != nil {
					return err
				}
			} else {
				tracer = otel.Tracer(serviceName)
			}

			store := versioning.NewStore(
				versioning.WithLogger(logger),
				versioning.WithPublisher(bus),
			)

			historyPath := command.String("history-path")
			if historyPath != "" {
				if err := store.LoadFromDisk(historyPath, false); err != nil {
					if !versioning.IsHistoryNotFound(err) {
						return err
					}

					logger.InfoContext(ctx, "No existing version history", "path", historyPath)
				}
			}

			api := NewAPI(logger, store, tracer, historyPath)

			return api.Start(command.Int("port"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("Failed to run flowkit-api", "error", err)
		os.Exit(1)
	}
}

func newEventBus(command *cli.Command) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(log.WithModule("eventbus"))

	switch command.String("event-bus") {
	case "kafka":
		publisher, subscriber, err := kafka.CreateChannel(wmLogger, command.String("kafka-brokers"), serviceName)
		if err != nil {
			return nil, err
		}

		return eventbus.NewWatermillEventBus(publisher, subscriber, log.WithModule("eventbus")), nil
	default:
		publisher, subscriber := gochannel.CreateChannel(wmLogger)

		return eventbus.NewWatermillEventBus(publisher, subscriber, log.WithModule("eventbus")), nil
	}
}
