package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-orchestrator/internal/api"
	"github.com/wms-platform/fulfillment-orchestrator/internal/config"
	"github.com/wms-platform/fulfillment-orchestrator/internal/events"
	invapp "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/application"
	invhttp "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/infrastructure/http"
	invkafka "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/infrastructure/kafka"
	invmongo "github.com/wms-platform/fulfillment-orchestrator/internal/inventory/infrastructure/mongodb"
	obsapp "github.com/wms-platform/fulfillment-orchestrator/internal/observation/application"
	obsdomain "github.com/wms-platform/fulfillment-orchestrator/internal/observation/domain"
	obsmongo "github.com/wms-platform/fulfillment-orchestrator/internal/observation/infrastructure/mongodb"
	"github.com/wms-platform/fulfillment-orchestrator/internal/observation/infrastructure/postgres"
	orderapp "github.com/wms-platform/fulfillment-orchestrator/internal/order/application"
	ordermongo "github.com/wms-platform/fulfillment-orchestrator/internal/order/infrastructure/mongodb"
	"github.com/wms-platform/fulfillment-orchestrator/internal/scheduler"
	wesapp "github.com/wms-platform/fulfillment-orchestrator/internal/wes/application"
	weshttp "github.com/wms-platform/fulfillment-orchestrator/internal/wes/infrastructure/http"
	wesmongo "github.com/wms-platform/fulfillment-orchestrator/internal/wes/infrastructure/mongodb"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/contracts/asyncapi"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/kafka"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/lock"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/metrics"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/mongodb"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/outbox"
	outboxmongo "github.com/wms-platform/fulfillment-orchestrator/pkg/outbox/mongodb"
	"github.com/wms-platform/fulfillment-orchestrator/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.DefaultConfig(config.ServiceName)).WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging())
	logger.SetDefault()
	logger.Info("Starting fulfillment orchestrator", "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Orchestrator stopped with error")
		os.Exit(1)
	}
	logger.Info("Orchestrator stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	// Tracing failures are logged; the service runs without spans
	tracerProvider, err := tracing.Initialize(ctx, cfg.Tracer())
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
	}

	m := metrics.New(metrics.DefaultConfig(config.ServiceName))

	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB())
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Close(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to close MongoDB client")
		}
	}()
	db := mongoClient.Database()
	logger.Info("Connected to MongoDB", "database", cfg.Mongo.Database)

	// Persistence
	orderRepo, err := ordermongo.NewOrderRepository(ctx, db, m)
	if err != nil {
		return err
	}
	txRepo, err := invmongo.NewTransactionRepository(ctx, db, m)
	if err != nil {
		return err
	}
	adjustmentRepo, err := invmongo.NewAdjustmentRepository(ctx, db, m)
	if err != nil {
		return err
	}
	taskRepo, err := wesmongo.NewPickingTaskRepository(ctx, db, m)
	if err != nil {
		return err
	}
	inventoryObservers, err := obsmongo.NewInventoryObserverRepository(ctx, db, m)
	if err != nil {
		return err
	}
	orderObservers, err := obsmongo.NewOrderObserverRepository(ctx, db, m)
	if err != nil {
		return err
	}
	wesObservers, err := obsmongo.NewWesObserverRepository(ctx, db, m)
	if err != nil {
		return err
	}
	outboxRepo := outboxmongo.NewOutboxRepository(db)
	if err := outboxRepo.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Warn("Failed to create outbox indexes")
	}

	// External systems
	inventoryClient := invhttp.NewClient(cfg.Inventory.BaseURL, cfg.Inventory.Timeout, logger, m)
	wesClient := weshttp.NewClient(weshttp.Config{
		BaseURL:     cfg.Wes.BaseURL,
		Timeout:     cfg.Wes.Timeout,
		WarehouseID: cfg.DefaultWarehouseID,
		AuthToken:   cfg.Wes.AuthToken,
	}, logger, m)
	orderSource := postgres.NewOrderSource(logger, m)
	defer func() {
		if err := orderSource.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close order source pools")
		}
	}()

	// Every flushed event goes to the outbox first, then to in-process handlers
	dispatcher := events.NewDispatcher(logger)
	factory := cloudevents.NewEventFactory(cloudevents.SourceOrchestrator)
	sink := events.FanOut{
		events.NewOutboxSink(outboxRepo, factory, kafka.Topics.OrchestratorEvents),
		dispatcher,
	}

	// Application services
	orderService := orderapp.NewOrderService(orderRepo, sink, logger, m)
	inventoryService := invapp.NewInventoryService(txRepo, inventoryClient, sink, logger, m)
	adjustmentService := invapp.NewAdjustmentService(adjustmentRepo, txRepo, inventoryClient, wesClient, sink, logger, m)
	pickingService := wesapp.NewPickingTaskService(taskRepo, wesClient, sink, logger, m)
	observerService := obsapp.NewObserverService(
		obsapp.Repositories{Inventory: inventoryObservers, Order: orderObservers, Wes: wesObservers},
		obsapp.Sources{Inventory: inventoryClient, Orders: orderSource, Wes: wesClient, Tasks: taskRepo},
		sink, logger, m,
	)

	// Inventory handlers consume stock before the order commits its lines
	invapp.RegisterHandlers(dispatcher, inventoryService, adjustmentService)
	orderapp.NewChoreography(orderService, inventoryService, pickingService, observerService, cfg.DefaultWarehouseID, logger).Register(dispatcher)
	pickingService.RegisterHandlers(dispatcher)

	// Background workers stop when ctx is cancelled, so cancel before waiting on them
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	defer wg.Wait()

	if cfg.Kafka.Enabled {
		kafkaConfig := cfg.KafkaClient()
		validator, err := asyncapi.NewInboundValidator()
		if err != nil {
			return err
		}

		producer := kafka.NewInstrumentedProducer(kafka.NewProducer(kafkaConfig), m, logger)
		publisher := outbox.NewPublisher(outboxRepo, producer, logger, m, &outbox.PublisherConfig{
			PollInterval: cfg.Kafka.OutboxPoll,
			BatchSize:    cfg.Kafka.OutboxBatch,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			publisher.Run(ctx)
			if err := producer.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close Kafka producer")
			}
		}()

		consumer := kafka.NewInstrumentedConsumer(kafka.NewConsumer(kafkaConfig, logger.Logger), m, logger)
		invkafka.NewPutawayConsumer(inventoryService, validator, logger).Register(consumer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("Kafka consumer stopped")
			}
			if err := consumer.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close Kafka consumer")
			}
		}()
		logger.Info("Kafka wiring started", "brokers", kafkaConfig.Brokers)
	} else {
		logger.Warn("Kafka disabled; events stay in the outbox")
	}

	// Scheduled jobs
	locks := lock.NewMongoRegistry(db, cfg.Mongo.LockLease)
	runner := scheduler.NewRunner(logger)
	runner.Add(scheduler.FulfillmentLockKey, cfg.Scheduler.FulfillmentInterval,
		scheduler.NewFulfillmentScheduler(orderService, locks, logger, m))
	runner.Add(scheduler.InventoryObserverLockKey, cfg.Scheduler.InventoryObserverInterval,
		scheduler.NewObserverScheduler(obsdomain.KindInventory, observerService, locks, logger, m))
	runner.Add(scheduler.OrderObserverLockKey, cfg.Scheduler.OrderObserverInterval,
		scheduler.NewObserverScheduler(obsdomain.KindOrder, observerService, locks, logger, m))
	runner.Add(scheduler.WesObserverLockKey, cfg.Scheduler.WesObserverInterval,
		scheduler.NewObserverScheduler(obsdomain.KindWes, observerService, locks, logger, m))
	runner.Start(ctx)
	defer runner.Wait()

	router := api.NewRouter(api.Deps{
		ServiceName:        config.ServiceName,
		Logger:             logger,
		Metrics:            m,
		Orders:             orderService,
		PickingTasks:       pickingService,
		Observers:          observerService,
		Inventory:          inventoryService,
		Adjustments:        adjustmentService,
		DefaultWarehouseID: cfg.DefaultWarehouseID,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		ReadinessChecks: map[string]func(*gin.Context) error{
			"mongodb": func(c *gin.Context) error { return mongoClient.HealthCheck(c.Request.Context()) },
		},
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	logger.Info("Server started", "addr", cfg.ServerAddr)

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		cancel()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	return nil
}
