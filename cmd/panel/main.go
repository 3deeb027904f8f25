package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"panel/internal/app/panel"
	"panel/internal/config"
	"panel/internal/domain"
	panel_http "panel/internal/handler/http/panel"
	kafka_handler "panel/internal/handler/kafka"
	"panel/internal/infrastructure/database"
	kafka_infra "panel/internal/infrastructure/kafka"
	"panel/internal/outbox"
	"panel/internal/repository/accounts_repo"
	"panel/internal/repository/coins_repo"
	"panel/internal/repository/inbox_repo"
	"panel/internal/repository/outbox_repo"
	"panel/internal/repository/transactions_repo"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()
	appLogger.Info("Panel Service starting...")

	db := connectDB(cfg, appLogger)
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		} else {
			appLogger.Info("Database connection closed.")
		}
	}()

	appLogger.Info("Running database migrations...")
	m, err := migrate.New(cfg.MigrationsDir, cfg.GetDBMigrationConnectionString())
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed successfully (or no new migrations).")

	kafkaBrokers := cfg.GetKafkaBrokers()
	topicsCtx, cancelTopics := context.WithTimeout(context.Background(), 10*time.Second)
	err = kafka_infra.EnsureTopics(topicsCtx, kafkaBrokers, []string{
		cfg.KafkaTransactionEventsTopic,
		cfg.KafkaAccountEventsTopic,
	}, appLogger.With(zap.String("component", "KafkaAdmin")))
	cancelTopics()
	if err != nil {
		appLogger.Fatal("Failed to ensure Kafka topics", zap.Error(err))
	}

	transactor := database.NewTransactor(db, appLogger.With(zap.String("component", "Transactor")))
	accountRepository := accounts_repo.NewAccountRepository(db)
	coinRepository := coins_repo.NewCoinRepository(db)
	inboxRepository := inbox_repo.NewInboxRepository(db)
	outboxRepository := outbox_repo.NewOutboxRepository(db)
	storeDefaults := transactions_repo.StoreDefaults()
	storeDefaults.Limit = cfg.Transactions.DefaultLimit
	storeDefaults.MaxLimit = cfg.Transactions.MaxLimit
	transactionRepository := transactions_repo.NewTransactionRepository(db, storeDefaults)

	panelService := panel.NewService(
		db,
		accountRepository,
		panel.NewTransactionQueryEngine(db, transactionRepository,
			appLogger.With(zap.String("component", "TransactionQueryEngine"))),
		panel.NewBalanceAggregator(db, coinRepository,
			appLogger.With(zap.String("component", "BalanceAggregator"))),
		panel.NewSettingsCoordinator(db, transactor, accountRepository, outboxRepository,
			cfg.Settings.AllowedKeys, cfg.KafkaAccountEventsTopic,
			appLogger.With(zap.String("component", "SettingsCoordinator"))),
		panel.NewRegistrationValidator(cfg.Registration, transactor, accountRepository, outboxRepository,
			domain.Settings{}, cfg.KafkaAccountEventsTopic,
			appLogger.With(zap.String("component", "RegistrationValidator"))),
		panel.NewTransactionIngestor(transactor, transactionRepository, inboxRepository,
			appLogger.With(zap.String("component", "TransactionIngestor"))),
		appLogger.With(zap.String("component", "PanelService")),
	)
	appLogger.Info("Panel Service initialized.")

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           panel_http.NewRouter(panelService, cfg.CORSAllowedOrigins, appLogger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	kafkaProducer := kafka_infra.NewProducer(kafkaBrokers, appLogger.With(zap.String("component", "KafkaProducer")))
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			appLogger.Error("Error closing Kafka producer", zap.Error(err))
		}
	}()

	outboxProcessor := outbox.NewProcessor(
		transactor,
		outboxRepository,
		kafkaProducer,
		cfg.OutboxBatchSize,
		cfg.OutboxPollInterval,
		cfg.OutboxPollTimeout,
		appLogger.With(zap.String("component", "OutboxProcessor")),
	)

	transactionEventsConsumer := kafka_infra.NewConsumer(
		kafkaBrokers,
		cfg.KafkaTransactionEventsTopic,
		cfg.KafkaConsumerGroup,
		kafka_handler.TransactionEventMessageHandler(panelService,
			appLogger.With(zap.String("component", "TransactionEventHandler"))),
		appLogger.With(zap.String("component", "TransactionEventsConsumer")),
	)

	ctxMain, cancelMain := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	wg.Add(2)
	go func() {
		defer wg.Done()
		outboxProcessor.Start(ctxMain)
	}()
	go func() {
		defer wg.Done()
		if err := transactionEventsConsumer.Consume(ctxMain); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error("Transaction Events Kafka Consumer failed", zap.Error(err))
		}
		appLogger.Info("Transaction Events Kafka Consumer stopped.")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	appLogger.Info("Shutting down application...")

	cancelMain()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		appLogger.Info("HTTP server gracefully shut down.")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		appLogger.Warn("Background workers did not stop before the shutdown deadline.")
	}

	if err := transactionEventsConsumer.Close(); err != nil {
		appLogger.Error("Error closing Transaction Events Kafka Consumer", zap.Error(err))
	}

	appLogger.Info("Application gracefully shut down.")
}

func connectDB(cfg *config.Config, logger *zap.Logger) *sql.DB {
	logger.Info("Waiting for database to be available...")
	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.Name,
		SSLMode:  cfg.DBConfig.SSLMode,
	}

	const maxRetries = 10
	retryDelay := 5 * time.Second

	var err error
	for i := 0; i < maxRetries; i++ {
		var db *sql.DB
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			logger.Info("Successfully connected to PostgreSQL database!")
			return db
		}
		logger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}
	logger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	return nil
}
