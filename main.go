package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	aptevents "github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"

	"github.com/liwesley02/otter-consolidator/internal/consolidator"
	"github.com/liwesley02/otter-consolidator/internal/events"
	"github.com/liwesley02/otter-consolidator/internal/mongo"
	"github.com/liwesley02/otter-consolidator/pkg"
	"github.com/liwesley02/otter-consolidator/pkg/event"
)

const (
	appNamespace = "CONSOLIDATOR"
	appName      = "consolidator"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup with error: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	// Initialize repositories
	settingsRepo := mongo.NewSettingsRepo(config, logger)
	archiveRepo := mongo.NewBatchArchiveRepo(config, logger)

	// Initialize the consolidation engine
	capacity := consolidator.DefaultCapacity
	if raw, _ := config.GetString("consolidator.capacity"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			capacity = parsed
		}
	}
	retention := consolidator.DefaultRetention
	if raw, _ := config.GetString("consolidator.retention"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			retention = parsed
		}
	}

	matcher := consolidator.NewItemMatcher()
	classifier := consolidator.NewCategoryClassifier(config)
	engine := consolidator.NewEngine(consolidator.Options{
		Capacity:  capacity,
		Retention: retention,
	}, matcher, classifier, logger)

	// Initialize NATS
	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	var batchStream *pkg.NATSStream
	var eventPublisher aptevents.Publisher

	streamEnabled, _ := config.GetString("nats.stream.enabled")
	if streamEnabled == "true" {
		streamCfg := pkg.NATSStreamConfig{
			URL:          natsURL,
			StreamName:   "CONSOLIDATOR_EVENTS",
			Topic:        event.BatchesTopic,
			ConsumerName: "consolidator-publisher",
			MaxAge:       24 * time.Hour,
		}
		batchStream, err = pkg.NewNATSStream(streamCfg)
		if err != nil {
			log.Fatalf("Cannot connect to NATS stream: %v", err)
		}
		logger.Info("NATS stream initialized for persistent batch events")
		eventPublisher = batchStream
	} else {
		publisher, err := pkg.NewNATSPublisher(natsURL)
		if err != nil {
			log.Fatalf("Cannot connect to NATS publisher: %v", err)
		}
		eventPublisher = publisher
	}

	subscriber, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("Cannot connect to NATS subscriber: %v", err)
	}

	engine.SetNotifier(events.NewBatchNotifier(eventPublisher, logger))
	snapshotSubscriber := events.NewSnapshotSubscriber(subscriber, engine, logger)

	// Initialize HTTP handler
	hd := consolidator.HandlerDeps{
		Engine:       engine,
		Labels:       consolidator.NewLabelBuilder(matcher),
		SettingsRepo: settingsRepo,
		ArchiveRepo:  archiveRepo,
	}
	handler := consolidator.NewHandler(hd, config, logger)

	// Maintenance loop: retention purges and batch archiving
	reporter := consolidator.NewDashboardReporter(config, logger)
	maintainer := consolidator.NewMaintainer(engine, archiveRepo, reporter, logger)

	// Apply persisted settings once the repo is up; config stays the
	// fallback when nothing has been saved yet.
	settingsHooks := apt.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			settings, err := settingsRepo.Load(ctx)
			if err != nil {
				logger.Errorf("Cannot load persisted settings (non-fatal): %v", err)
				return nil
			}
			if settings != nil {
				engine.SetCapacity(settings.EffectiveCapacity())
				logger.Info("Persisted settings applied", "capacity", engine.Capacity())
			}
			return nil
		},
	}

	lifecycles := []interface{}{settingsRepo, archiveRepo, settingsHooks, snapshotSubscriber, maintainer}

	// Setup demo seeding if enabled
	demoEnabled, _ := config.GetString("seeding.demo")
	if demoEnabled == "true" {
		logger.Info("Demo seeding enabled for consolidator service")
		lifecycles = append(lifecycles, apt.LifecycleHooks{
			OnStart: consolidator.DemoSeedingFunc(engine, logger),
		})
	}

	if batchStream != nil {
		lifecycles = append(lifecycles, apt.LifecycleHooks{
			OnStop: func(context.Context) error { return batchStream.Close() },
		})
	}
	lifecycles = append(lifecycles, apt.LifecycleHooks{
		OnStop: func(context.Context) error { return subscriber.Close() },
	})

	// Setup middleware
	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})
	// Defense-in-depth: restrict to internal networks only.
	// This complements (does not replace) network policies at the infrastructure level.
	stack = append(stack, middleware.InternalOnly())

	// Register with Micro framework
	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
