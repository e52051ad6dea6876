package server

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"NewsTrader/internal/middleware"
	"NewsTrader/internal/service/broadcast"
	"NewsTrader/internal/usecase"
	pkgcache "NewsTrader/pkg/cache"
	pkgch "NewsTrader/pkg/clickhouse"
	"NewsTrader/pkg/config"
	xhttp "NewsTrader/pkg/http"
	pkgkafka "NewsTrader/pkg/kafka"
	applogger "NewsTrader/pkg/logger"
	"NewsTrader/pkg/queue"
)

// Deps are the process-scoped services the app runs. Optional ones are nil
// when disabled by config.
type Deps struct {
	Config     *config.Config
	Logger     *applogger.Logger
	Loop       *usecase.MarketLoop
	Hub        *broadcast.Hub
	Handlers   []xhttp.Handler
	PriceCache pkgcache.Service

	Journal      *middleware.JournalPipeline
	JournalProc  *usecase.JournalProcessor
	Collector    *usecase.QuoteCollector
	Consumer     *pkgkafka.Consumer
	InboxHandler pkgkafka.MessageHandler
	RedisInbox   *queue.RedisQueue
	Producer     *pkgkafka.Producer
	ClickHouse   *pkgch.Client
}

// App encapsulates the entire application lifecycle.
type App struct {
	Deps
	httpServer *xhttp.Server
	loopDone   chan struct{}
}

// New creates a new App instance with all dependencies.
func New(d Deps) *App {
	return &App{Deps: d, loopDone: make(chan struct{})}
}

// Run starts every component and blocks until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := a.Logger
	cfg := a.Config

	a.httpServer = xhttp.NewServer(l.With("http"), a.Handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithMetricsPath(metricsPath(cfg)),
	)

	// Background components get their own context so shutdown can stop them
	// before the HTTP server goes away.
	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	if a.Journal != nil {
		a.startJournal()
		l.Info("trade journal started", applogger.String("backend", cfg.Journal.Backend))
	}

	if a.Collector != nil {
		if err := a.Collector.Start(bgCtx); err != nil {
			// prices fall back to the other upstreams
			l.Error("quote stream start failed", applogger.Error(err))
		} else {
			l.Info("quote stream started", applogger.Strings("symbols", cfg.Finnhub.Symbols))
		}
	}

	if a.Consumer != nil && a.InboxHandler != nil {
		a.Consumer.RegisterHandler(a.InboxHandler)
		if err := a.Consumer.Start(); err != nil {
			l.Error("kafka consumer start failed", applogger.Error(err))
		} else {
			l.Info("kafka consumer started", applogger.String("topic", a.InboxHandler.Topic()))
		}
	}

	if a.RedisInbox != nil {
		if err := a.RedisInbox.Start(bgCtx); err != nil {
			l.Error("redis inbox start failed", applogger.Error(err))
		}
	}

	go func() {
		defer close(a.loopDone)
		a.Loop.Run(bgCtx)
	}()

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		cancelBg()
		return err
	}

	<-ctx.Done()
	l.Info("shutdown signal received")
	return a.shutdown(cancelBg)
}

// startJournal runs the journal outside bgCtx. Shutdown closes it once the
// market loop has stopped, so the last trades are flushed.
func (a *App) startJournal() {
	a.Journal.Start(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(cancelBg context.CancelFunc) error {
	l := a.Logger
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	record := func(what string, err error) {
		if err != nil {
			l.Warn(what+" error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	cancelBg()
	select {
	case <-a.loopDone:
	case <-ctx.Done():
		l.Warn("market loop did not stop in time")
	}

	record("http shutdown", a.httpServer.Stop(ctx))
	a.Hub.Close()

	if a.Collector != nil {
		record("quote stream stop", a.Collector.Shutdown(ctx))
	}
	if a.Consumer != nil {
		record("kafka consumer stop", a.Consumer.Stop(ctx))
	}
	if a.RedisInbox != nil {
		record("redis inbox stop", a.RedisInbox.Stop(ctx))
	}

	// the journal flushes through the producer, so it goes first
	if a.Journal != nil {
		record("journal close", a.Journal.Close())
	}
	l.RemoveCollector()

	if a.JournalProc != nil {
		a.JournalProc.Close()
	}
	if a.Producer != nil {
		record("kafka producer close", a.Producer.Close())
	}

	if a.ClickHouse != nil {
		record("clickhouse close", a.ClickHouse.Close())
	}
	if a.PriceCache != nil {
		record("price cache close", a.PriceCache.Close())
	}

	l.Info("shutdown complete")
	return errors.Join(errs...)
}

func metricsPath(cfg *config.Config) string {
	if !cfg.Metrics.Enabled {
		return ""
	}
	return cfg.Metrics.Path
}
