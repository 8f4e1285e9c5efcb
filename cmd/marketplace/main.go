package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-marketplace/internal/api/handlers"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/infrastructure/mysql"
	"auction-marketplace/internal/infrastructure/notify"
	redisinfra "auction-marketplace/internal/infrastructure/redis"
	"auction-marketplace/internal/infrastructure/sms"
	ws "auction-marketplace/internal/infrastructure/websocket"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting Auction Marketplace Service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}(db)

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Persistence and locks
	store := mysql.NewStore(db)
	locks := redisinfra.NewListingLock(rdb, cfg.Lock.TTL, cfg.Lock.Wait)

	// Events
	eventPublisher := redisinfra.NewEventPublisher(rdb)
	eventSubscriber := redisinfra.NewEventSubscriber(rdb, log)

	// Notification channels
	connManager := ws.NewConnectionManager(log)
	dispatchers := []domain.Dispatcher{ws.NewNotifier(connManager)}
	if cfg.SMS.GatewayURL != "" {
		dispatchers = append(dispatchers, sms.NewGateway(cfg.SMS.GatewayURL, cfg.SMS.Sender, cfg.SMS.Timeout, log))
	} else {
		log.Warn("No SMS gateway configured, SMS delivery disabled")
	}
	dispatcher := notify.NewMultiDispatcher(dispatchers...)

	// Core services
	ledger := services.NewBidLedger(log)
	lifecycle := services.NewLifecycleManager(store, store, locks, log)
	orchestrator := services.NewOrchestrator(ledger, lifecycle, store, locks, dispatcher, eventPublisher, log)
	scheduler := services.NewSweepScheduler(orchestrator, cfg.Sweep.Interval, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	api := e.Group("/api/v1")
	handlers.NewBidHandler(orchestrator, log).Register(api)
	handlers.NewMarketplaceHandler(store, log).Register(api)

	wsHandler := ws.NewHandler(connManager, log)
	e.GET("/ws", wsHandler.HandleConnection)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-marketplace",
			"timestamp": time.Now().Format(time.RFC3339),
			"port":      cfg.Server.Port,
		})
	})

	// Background services
	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()

	go func() {
		err := eventSubscriber.SubscribeToMarketEvents(subCtx, func(event *domain.MarketEvent) error {
			return connManager.BroadcastAll(event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Event subscriber exited", "error", err)
		}
	}()

	if err := scheduler.Start(context.Background()); err != nil {
		log.Error("Failed to start sweep scheduler", "error", err)
		os.Exit(1)
	}

	// Start server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting marketplace server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down marketplace service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := scheduler.Stop(); err != nil {
		log.Error("Failed to stop sweep scheduler", "error", err)
	}
	subCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Marketplace service stopped")
}
