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

	"govee_monitor/internal/csvlog"
	"govee_monitor/internal/decoder"
	"govee_monitor/internal/handlers"
	"govee_monitor/internal/logger"
	"govee_monitor/internal/repository"
	"govee_monitor/internal/repository/db"
	"govee_monitor/internal/scanner"
	"govee_monitor/internal/server"
	"govee_monitor/internal/service"
	"govee_monitor/internal/store"

	"github.com/spf13/viper"
)

func main() {
	// load config.yml (missing file falls back to defaults)
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(logLevel())

	// open DB
	dbConn, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := dbConn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// enable the BLE radio
	radio, err := scanner.NewBLE()
	if err != nil {
		log.Fatalw("failed to init bluetooth", "err", err)
	}

	// wire dependencies
	repos := repository.NewRepository(dbConn)
	readings := store.New()
	sink := csvlog.NewAppender(viper.GetString("output"))
	services := service.NewService(repos, readings, radio, decoder.New(), sink, log, service.Config{
		TargetDeviceType: viper.GetString("target_type"),
		ScanCeiling:      viper.GetDuration("scan_ceiling"),
		RetryBackoff:     viper.GetDuration("retry_backoff"),
		Interval:         time.Duration(viper.GetInt("interval")) * time.Second,
	})
	apiHandler := handlers.NewHandler(services, log)

	fmt.Printf("Scanning for Govee %s devices...\n", viper.GetString("target_type"))
	fmt.Printf("Output CSV file: %s\n", sink.Path())
	fmt.Println("Once found, will monitor temperatures at the configured interval.")
	fmt.Println("Press Ctrl+C to exit")

	// context for the orchestrator and background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the discovery/monitoring state machine
	runErr := make(chan error, 1)
	go func() {
		runErr <- services.Orchestrator.Run(ctx)
	}()

	// start the read-only status server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("http.port"), apiHandler, log)

	waitForShutdown(cancel, runErr, srv, log)
}

func loadConfig() error {
	viper.SetDefault("interval", 60)              // seconds between snapshots
	viper.SetDefault("output", "govee_temperatures.csv")
	viper.SetDefault("debug", false)
	viper.SetDefault("target_type", service.DefaultTargetDeviceType)
	viper.SetDefault("scan_ceiling", service.DefaultScanCeiling)
	viper.SetDefault("retry_backoff", service.DefaultRetryBackoff)
	viper.SetDefault("db.path", "govee_monitor.db")
	viper.SetDefault("http.port", "8080")

	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil // defaults only
		}
		return err
	}
	return nil
}

func logLevel() string {
	if viper.GetBool("debug") {
		return logger.DebugLevel
	}
	return logger.InfoLevel
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "govee_monitor.db")
		dbPath = "govee_monitor.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until the user interrupts or the orchestrator
// dies, then performs graceful shutdown. A fatal orchestrator error
// exits non-zero after reporting.
func waitForShutdown(cancel context.CancelFunc, runErr <-chan error, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		fmt.Println("\nExiting...")
		cancel()
		// let the in-flight scan stop cleanly
		if err := <-runErr; err != nil {
			log.Errorw("error during shutdown", "err", err)
		}
	case err := <-runErr:
		if err != nil {
			shutdownHTTP(srv, log)
			log.Fatalw("monitor terminated", "err", err)
		}
	}

	shutdownHTTP(srv, log)
}

func shutdownHTTP(srv *server.Server, log *logger.Logger) {
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
