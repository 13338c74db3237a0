package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/molx/internal/infrastructure/config"
	"github.com/GriffinCanCode/molx/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override environment variables
	port := flag.String("port", cfg.Server.Port, "Server port")
	host := flag.String("host", cfg.Server.Host, "Server host")
	driver := flag.String("storage", cfg.Storage.Driver, "Session storage driver (memory|sqlite|redis|file)")
	sqlitePath := flag.String("sqlite", cfg.Storage.SQLitePath, "SQLite database path")
	redisAddr := flag.String("redis", cfg.Storage.RedisAddr, "Redis address")
	sessionKey := flag.String("session-key", cfg.Viewer.SessionKey, "Key of the persisted viewer session")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (colored logs)")
	level := flag.String("log-level", cfg.Logging.Level, "Log level (debug|info|warn|error)")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Server.Host = *host
	cfg.Storage.Driver = *driver
	cfg.Storage.SQLitePath = *sqlitePath
	cfg.Storage.RedisAddr = *redisAddr
	cfg.Viewer.SessionKey = *sessionKey
	cfg.Logging.Development = *dev
	cfg.Logging.Level = *level
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx)
	if err := srv.Close(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Server error: %v", runErr)
	}
}
