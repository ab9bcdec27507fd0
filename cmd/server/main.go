// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Annany2002/schema-designer-backend/api"
	"github.com/Annany2002/schema-designer-backend/config"
	"github.com/Annany2002/schema-designer-backend/internal/logger"
	"github.com/Annany2002/schema-designer-backend/internal/notification"
	"github.com/Annany2002/schema-designer-backend/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

const shutdownTimeout = 5 * time.Second

func main() {
	customLog.Println("Starting Schema Designer backend server...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		customLog.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.LogLevel, cfg.AppEnv)

	// 2. Initialize Database Connection
	db, err := storage.Connect(cfg)
	if err != nil {
		customLog.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		customLog.Println("Closing database connection...")
		if err := db.Close(); err != nil {
			customLog.Printf("Error closing database: %v", err)
		}
	}()

	// 3. Notifications: queue + worker when Redis is configured, goroutines otherwise
	mail := notification.NewService(cfg)
	var (
		notices  notification.Dispatcher
		async    *notification.AsyncDispatcher
		worker   *notification.Worker
		producer *asynq.Client
	)
	if cfg.QueueEnabled() {
		redisOpt := notification.RedisClientOpt(cfg)
		producer = asynq.NewClient(redisOpt)
		notices = notification.NewQueueDispatcher(producer)
		worker = notification.NewWorker(redisOpt, mail)
		go worker.Start()
		customLog.Printf("Notification queue enabled (redis %s)", cfg.RedisAddr)
	} else {
		async = notification.NewAsyncDispatcher(mail)
		notices = async
	}

	// 4. Setup Router (passing dependencies)
	router := api.SetupRouter(db, cfg, notices)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 5. Start Server
	go func() {
		customLog.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			customLog.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	customLog.Printf("Received %s, shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		customLog.Errorf("Server forced to shutdown: %v", err)
	}

	if async != nil {
		customLog.Println("Waiting for pending notification emails...")
		async.Wait()
	}
	if worker != nil {
		worker.Shutdown()
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			customLog.Printf("Error closing queue client: %v", err)
		}
	}

	customLog.Println("Server exited")
}
