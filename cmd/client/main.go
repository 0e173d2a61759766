package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	clientapi "github.com/iudanet/mealsync/internal/client/api"
	"github.com/iudanet/mealsync/internal/client/auth"
	"github.com/iudanet/mealsync/internal/client/cli"
	"github.com/iudanet/mealsync/internal/client/conflict"
	"github.com/iudanet/mealsync/internal/client/data"
	"github.com/iudanet/mealsync/internal/client/events"
	"github.com/iudanet/mealsync/internal/client/iocli"
	"github.com/iudanet/mealsync/internal/client/lock"
	"github.com/iudanet/mealsync/internal/client/queue"
	"github.com/iudanet/mealsync/internal/client/storage"
	"github.com/iudanet/mealsync/internal/client/storage/boltdb"
	"github.com/iudanet/mealsync/internal/client/storage/sqlite"
	syncengine "github.com/iudanet/mealsync/internal/client/sync"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "mealsync-client.db", "Path to local cache database")
	sessionPath := flag.String("session", "mealsync-session.db", "Path to session database")
	offline := flag.Bool("offline", false, "Start in offline mode, no network calls")
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	command := args[0]
	ctx := context.Background()
	logger := newLogger(*logLevel)

	// Сессия и идентичность устройства живут в BoltDB
	boltStorage, err := boltdb.New(ctx, *sessionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open session database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close session database", "error", err)
		}
	}()

	authService := auth.NewService(boltStorage)

	// login/logout не требуют ни кеша, ни сессии - обрабатываем их до
	// проверки аутентификации
	io := iocli.NewStdio()
	if command == "login" || command == "logout" {
		c := cli.New(io, authService, nil, nil, nil, nil, nil)
		c.Run(ctx, command, args[1:])
		return
	}

	session, err := authService.Session(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			fmt.Fprintln(os.Stderr, "Not authenticated. Please run 'mealsync login' first.")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Failed to load session: %v\n", err)
		os.Exit(1)
	}

	// Локальный кеш, очередь и конфликты живут в SQLite
	sqliteStorage, err := sqlite.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open cache database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := sqliteStorage.Close(); err != nil {
			logger.Error("failed to close cache database", "error", err)
		}
	}()

	apiClient := clientapi.NewClient(*serverURL, func(ctx context.Context) (string, error) {
		s, err := authService.Session(ctx)
		if err != nil {
			return "", err
		}
		return s.AccessToken, nil
	})

	bus := events.NewBus()
	queueService := queue.New(sqliteStorage, logger)
	conflictService := conflict.NewService(sqliteStorage, sqliteStorage, queueService, bus, logger)

	engine := syncengine.NewEngine(syncengine.Config{
		Remote:      apiClient,
		Cache:       sqliteStorage,
		Metadata:    sqliteStorage,
		Queue:       queueService,
		Conflicts:   conflictService,
		Bus:         bus,
		Logger:      logger,
		DeviceID:    session.DeviceID,
		HouseholdID: session.HouseholdID,
	})
	engine.SetOnline(!*offline)

	lockManager := lock.NewManager(apiClient, sqliteStorage, engine.Online, session.UserID, logger)

	dataService := data.NewService(
		sqliteStorage, queueService, lockManager, engine, bus, logger,
		session.DeviceID, session.UserID, session.HouseholdID)

	c := cli.New(io, authService, dataService, engine, conflictService, lockManager, queueService)
	c.Run(ctx, command, args[1:])
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func printVersion() {
	fmt.Printf("MealSync Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
