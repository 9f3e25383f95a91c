package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"kraken-orderbook-watcher/internal/alert"
	"kraken-orderbook-watcher/internal/cli"
	"kraken-orderbook-watcher/internal/config"
	"kraken-orderbook-watcher/internal/database"
	"kraken-orderbook-watcher/internal/domain"
	"kraken-orderbook-watcher/internal/exchange/kraken"
	"kraken-orderbook-watcher/internal/orderbook"
	"kraken-orderbook-watcher/internal/platform/logger"
	"kraken-orderbook-watcher/internal/platform/metrics"
	"kraken-orderbook-watcher/internal/presenter"
	"kraken-orderbook-watcher/internal/publisher"
	"kraken-orderbook-watcher/internal/server"
	"kraken-orderbook-watcher/internal/stream"
	"kraken-orderbook-watcher/internal/watcher"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var Logger = logger.Get()

func gracefulShutdown(fiberServer *server.FiberServer, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	Logger.Info("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fiberServer.ShutdownWithContext(ctx); err != nil {
		Logger.Error("Server forced to shutdown with error", zap.Error(err))
	}

	Logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

// resolvePairs prefers the positional pair list, as in "orderbook ETH/USD,XBT/USD",
// and falls back to the configured pairs.
func resolvePairs(flags *pflag.FlagSet, cfg *config.Config) ([]string, error) {
	args := flags.Args()
	if len(args) == 0 && len(cfg.Feed.Pairs) > 0 {
		args = []string{strings.Join(cfg.Feed.Pairs, ",")}
	}
	return cli.ParsePairs(args)
}

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		Logger.Fatal("Failed to load config", zap.Error(err))
	}

	pairs, err := resolvePairs(flags, cfg)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	mode, err := domain.ParseWatcherMode(cfg.Display.Mode)
	if err != nil {
		Logger.Fatal("Invalid display mode", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registerer := metrics.Init(Logger)

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		Logger.Fatal("Failed to open anomaly journal", zap.Error(err))
	}

	var notifier alert.Notifier
	var discordNotifier *alert.DiscordNotifier
	if cfg.Discord.WebhookUrl != "" {
		discordNotifier, err = alert.NewDiscordNotifier(cfg.Discord.WebhookUrl)
		if err != nil {
			Logger.Fatal("Failed to create discord notifier", zap.Error(err))
		}
		notifier = discordNotifier
	}
	reporter := alert.NewReporter(db, notifier, cfg.Discord.AlertInterval, Logger)

	registry := orderbook.NewRegistry(kraken.NewParser(), Logger,
		orderbook.WithExchange(domain.Kraken),
		orderbook.WithAnomalyReporter(reporter),
		orderbook.WithStateLogger(logger.GetStateLogger()))

	hub := stream.NewHub(Logger)
	sinks := []publisher.Sink{hub}
	var closers []func() error

	if cfg.Redis.Enabled {
		redisClient := publisher.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		sinks = append(sinks, publisher.NewRedisSink(redisClient, cfg.Redis.KeyPrefix))
		closers = append(closers, redisClient.Close)
	}
	if cfg.Kafka.Enabled {
		kafkaSink := publisher.NewKafkaSink(publisher.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		sinks = append(sinks, kafkaSink)
		closers = append(closers, kafkaSink.Close)
	}

	dispatcher := publisher.NewDispatcher(registry, cfg.Display.Depth, Logger, sinks...)
	registry.OnUpdate(dispatcher.Notify)

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { reporter.Run(ctx) })
	run(func() { dispatcher.Run(ctx) })

	if cfg.Display.Enabled {
		bookWatcher := watcher.NewBookWatcher(ctx, registry, presenter.NewConsoleWriter(os.Stdout),
			cfg.Display.Interval, cfg.Display.Depth, mode, Logger)
		registry.OnUpdate(bookWatcher.Notify)
		run(bookWatcher.Start)
	}

	var exchange domain.Exchanger = kraken.CreateClient(cfg.Feed, func(message []byte) {
		registry.Ingest(message)
	}, Logger)
	run(func() {
		if err := exchange.SubscribeSocket(ctx, pairs); err != nil {
			Logger.Error("Failed to subscribe to "+exchange.GetName(), zap.Error(err))
		}
	})

	fiberServer := server.New(db, registry, hub, metrics.Handler(registerer))
	fiberServer.RegisterFiberRoutes()

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	if cfg.Server.Enabled {
		go func() {
			err := fiberServer.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
			if err != nil {
				Logger.Fatal("http server error", zap.Error(err))
			}
		}()
	}

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(fiberServer, done)

	// Wait for the graceful shutdown to complete
	<-done
	cancel()
	wg.Wait()

	var closeErr error
	for _, closer := range closers {
		closeErr = multierr.Append(closeErr, closer())
	}
	closeErr = multierr.Append(closeErr, db.Close())
	if discordNotifier != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		discordNotifier.Close(closeCtx)
		closeCancel()
	}
	if closeErr != nil {
		Logger.Error("Failed to release resources", zap.Error(closeErr))
	}

	Logger.Info("Graceful shutdown complete.")
	logger.Sync()
}
