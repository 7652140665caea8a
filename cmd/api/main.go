package main

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/config"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/events"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/gateway"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/handler"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/lock"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/logger"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/policy"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/query"
	txredis "github.com/orlandoKuanDev/ms-transaction-bank/internal/redis"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/repository"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/saga"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Log)
	defer log.Sync()

	// Database connection
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if err := db.Ping(); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}

	// Redis connection
	redisClient, err := txredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Remote gateways
	bills := gateway.NewBillGateway(cfg.Gateways.BillBaseURL, cfg.Gateways.Timeout, log)
	acquisitions := gateway.NewAcquisitionGateway(cfg.Gateways.AcquisitionBaseURL, cfg.Gateways.Timeout, log)
	customers := gateway.NewCustomerGateway(cfg.Gateways.CustomerBaseURL, cfg.Gateways.Timeout, log)

	// Store, intent log, lock, events
	writeRepo := repository.NewTransactionRepository(db)
	readRepo := repository.NewTransactionReadRepository(db, redisClient.Client, log)
	intents := repository.NewSagaIntentRepository(db)
	locker := lock.NewAccountLocker(redisClient.Client, cfg.Lock.TTL)
	publisher := events.NewPublisher(redisClient.Client)

	// Saga + query engine
	commissionPolicy := policy.New(cfg.Commission.MonthlyMovementLimit, cfg.Commission.FeePerTransaction)
	orchestrator := saga.NewOrchestrator(acquisitions, bills, writeRepo, intents, locker, readRepo, publisher, commissionPolicy, log)

	location, err := time.LoadLocation(cfg.Query.Timezone)
	if err != nil {
		log.Warn("invalid query timezone, falling back to UTC", zap.String("timezone", cfg.Query.Timezone))
		location = time.UTC
	}
	engine := query.NewEngine(readRepo, query.Options{
		DayWindow:          cfg.Query.DayWindow,
		ZeroBalanceDefault: cfg.Query.ZeroBalanceDefault,
		Location:           location,
	})

	transactionHandler := handler.NewTransactionHandler(
		orchestrator, readRepo, writeRepo, engine,
		bills, acquisitions, customers,
		handler.Options{Location: location, AverageYear: cfg.Query.AverageYear},
	)

	// Setup router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	transactionHandler.Register(router)

	log.Info("transaction service starting",
		zap.String("port", cfg.App.Port),
		zap.String("env", cfg.App.Env),
	)
	if err := router.Run(":" + cfg.App.Port); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
