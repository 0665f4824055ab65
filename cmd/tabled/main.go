package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/cardroom/tabled/internal/history"
	"github.com/cardroom/tabled/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"tabled.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logger := newLogger(cfg.Server.LogLevel)
	logger.Info("starting tabled",
		"addr", cfg.ListenAddress(),
		"tables", len(cfg.Tables),
		"bots", len(cfg.Bots),
		"history", cfg.History.Backend)

	store, cleanup, err := newHistoryStore(cfg, logger)
	if err != nil {
		logger.Error("history backend setup failed", "error", err)
		ctx.Exit(1)
	}
	defer cleanup()

	hub := server.NewHub(logger)
	svc := server.NewService(server.NewMemoryTableStore(),
		server.WithHistory(store),
		server.WithBroadcaster(hub),
		server.WithTurnTimeout(cfg.TurnTimeout()),
		server.WithServiceLogger(logger),
	)

	if err := server.Bootstrap(cfg, svc, logger); err != nil {
		logger.Error("bootstrap failed", "error", err)
		ctx.Exit(1)
	}

	api := server.NewAPI(svc, hub, logger)
	srv := server.NewServer(cfg.ListenAddress(), api, logger)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		logger.Error("server failed", "error", err)
		ctx.Exit(1)
	}
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})

	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	styles := log.DefaultStyles()
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO").
		Padding(0, 1, 0, 1).
		Foreground(lipgloss.Color("86")).Bold(true)
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Padding(0, 1, 0, 1).
		Foreground(lipgloss.Color("192")).Bold(true)
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Padding(0, 1, 0, 1).
		Foreground(lipgloss.Color("204")).Bold(true)
	logger.SetStyles(styles)
	return logger
}

func newHistoryStore(cfg *server.Config, logger *log.Logger) (history.Store, func(), error) {
	switch cfg.History.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.History.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("hand history on redis", "addr", cfg.History.RedisAddr)
		return history.NewRedisStore(rdb), func() { rdb.Close() }, nil

	case "postgres":
		store, err := history.OpenPostgres(context.Background(), cfg.History.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("hand history on postgres")
		return store, func() { store.Close() }, nil

	default:
		return history.NewMemoryStore(), func() {}, nil
	}
}
