package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"NewsTrader/internal/domain/repository"
	"NewsTrader/internal/handler/api"
	"NewsTrader/internal/handler/ws"
	mid "NewsTrader/internal/middleware"
	internalrepo "NewsTrader/internal/repository"
	"NewsTrader/internal/service/broadcast"
	svccache "NewsTrader/internal/service/cache"
	"NewsTrader/internal/service/finnhub"
	"NewsTrader/internal/service/llm"
	svcmetrics "NewsTrader/internal/service/metrics"
	"NewsTrader/internal/service/newsapi"
	"NewsTrader/internal/service/newsfeed"
	"NewsTrader/internal/service/pricing"
	"NewsTrader/internal/service/ratelimit"
	"NewsTrader/internal/service/rssfeed"
	"NewsTrader/internal/service/yahoo"
	"NewsTrader/internal/usecase"
	pkgcache "NewsTrader/pkg/cache"
	pkgch "NewsTrader/pkg/clickhouse"
	"NewsTrader/pkg/config"
	xhttp "NewsTrader/pkg/http"
	pkgkafka "NewsTrader/pkg/kafka"
	applogger "NewsTrader/pkg/logger"
	"NewsTrader/pkg/metrics"
	"NewsTrader/pkg/queue"
	"NewsTrader/pkg/server"
	"NewsTrader/pkg/util"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the root logger. With kafka enabled, warnings and
// errors are aggregated and shipped to the collector topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	// must happen before any With() child is taken
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.CollectorInterval,
			CountThreshold: 100,
			Topic:          cfg.Log.CollectorTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	svcmetrics.Register()
	return metrics.New()
}

func ProvideRandom() repository.Random {
	return util.NewLockedRand(time.Now().UnixNano())
}

// ProvideClickHouseClient connects to ClickHouse when it backs the trade
// journal; otherwise it returns nil.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Journal.Backend != usecase.JournalClickHouse {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideJournalProcessor routes trades to the configured backend, or returns
// nil when journaling is off.
func ProvideJournalProcessor(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	metrics repository.Metrics,
) (*usecase.JournalProcessor, error) {
	switch cfg.Journal.Backend {
	case usecase.JournalKafka:
		pub := internalrepo.NewKafkaPublisher(producer, cfg.Journal.Topic)
		return usecase.NewJournalProcessor(pub, nil, metrics, usecase.JournalKafka), nil
	case usecase.JournalClickHouse:
		store := internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+"."+cfg.Journal.Table)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Init(ctx); err != nil {
			return nil, fmt.Errorf("trade journal: %w", err)
		}
		return usecase.NewJournalProcessor(nil, store, metrics, usecase.JournalClickHouse), nil
	default:
		return nil, nil
	}
}

// ProvideJournalPipeline buffers trades between the market loop and the
// journal backend.
func ProvideJournalPipeline(
	cfg *config.Config,
	proc *usecase.JournalProcessor,
	metrics repository.Metrics,
	log *applogger.Logger,
) *mid.JournalPipeline {
	if proc == nil {
		return nil
	}
	return mid.NewJournalPipeline(proc, metrics, log.With("journal"),
		mid.WithBufferSize(cfg.Journal.BufferSize),
		mid.WithBatch(cfg.Journal.BatchSize, cfg.Journal.BatchTimeout),
	)
}

// ProvidePriceCache is memory-only unless redis is enabled, in which case a
// local layer sits in front of redis.
func ProvidePriceCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Prices.CacheSize)), nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc,
		pkgcache.WithLayeredMemorySize(cfg.Prices.CacheSize),
		pkgcache.WithLayeredBackfillTTL(cfg.Prices.TTL),
	), nil
}

func ProvideQuoteBook(cfg *config.Config) *finnhub.QuoteBook {
	return finnhub.NewQuoteBook(cfg.Prices.StreamMaxAge)
}

// ProvideQuoteCollector streams finnhub trades into the quote book. Nil when
// no finnhub key is configured.
func ProvideQuoteCollector(
	cfg *config.Config,
	book *finnhub.QuoteBook,
	metrics repository.Metrics,
	log *applogger.Logger,
) *usecase.QuoteCollector {
	if cfg.Finnhub.APIKey == "" || len(cfg.Finnhub.Symbols) == 0 {
		return nil
	}
	stream := finnhub.NewStream(finnhub.StreamConfig{
		APIKey:         cfg.Finnhub.APIKey,
		URL:            cfg.Finnhub.WebSocketURL,
		Symbols:        cfg.Finnhub.Symbols,
		ReconnectDelay: cfg.Finnhub.ReconnectDelay,
		PingInterval:   cfg.Finnhub.PingInterval,
	}, log.With("finnhub"))
	return usecase.NewQuoteCollector(stream, book, metrics, log.With("quotes"))
}

// ProvidePriceUpstreams orders quote providers: live stream first, then yahoo.
func ProvidePriceUpstreams(cfg *config.Config, book *finnhub.QuoteBook) []repository.PriceUpstream {
	var ups []repository.PriceUpstream
	if cfg.Finnhub.APIKey != "" {
		ups = append(ups, book)
	}
	if cfg.Prices.YahooEnabled {
		ups = append(ups, yahoo.New())
	}
	return ups
}

func ProvidePriceSource(
	cfg *config.Config,
	c pkgcache.Service,
	rnd repository.Random,
	ups []repository.PriceUpstream,
	metrics repository.Metrics,
	log *applogger.Logger,
) repository.PriceSource {
	return pricing.New(c, rnd, metrics, log.With("prices"),
		pricing.WithTTL(cfg.Prices.TTL),
		pricing.WithTimeout(cfg.Prices.Timeout),
		pricing.WithUpstreams(ups...),
	)
}

func ProvideIdentityCache(cfg *config.Config) *svccache.IdentityCache {
	return svccache.NewIdentityCache(cfg.News.SeenLimit, cfg.News.SeenRetain)
}

func ProvideInbox(cfg *config.Config) *newsfeed.Inbox {
	return newsfeed.NewInbox(cfg.News.InboxSize)
}

// ProvideNewsUpstreams returns the configured headline providers; none means
// synthetic headlines only.
func ProvideNewsUpstreams(cfg *config.Config) []repository.NewsUpstream {
	var ups []repository.NewsUpstream
	if cfg.News.NewsAPI.APIKey != "" {
		hc := xhttp.NewClient(xhttp.WithTimeout(cfg.News.Timeout))
		ups = append(ups, newsapi.New(hc,
			cfg.News.NewsAPI.BaseURL,
			cfg.News.NewsAPI.APIKey,
			cfg.News.NewsAPI.Query,
			cfg.News.NewsAPI.PageSize,
		))
	}
	if cfg.News.RSS.Enabled && len(cfg.News.RSS.URLs) > 0 {
		ups = append(ups, rssfeed.New(cfg.News.RSS.URLs, cfg.News.RSS.Limit, cfg.News.Timeout))
	}
	return ups
}

func ProvideNewsSource(
	cfg *config.Config,
	seen *svccache.IdentityCache,
	inbox *newsfeed.Inbox,
	ups []repository.NewsUpstream,
	rnd repository.Random,
	log *applogger.Logger,
) repository.NewsSource {
	return newsfeed.New(seen, rnd, log.With("news"),
		newsfeed.WithUpstreams(ups...),
		newsfeed.WithInbox(inbox),
		newsfeed.WithCooldown(cfg.News.Cooldown),
		newsfeed.WithTimeout(cfg.News.Timeout),
	)
}

// ProvideOracle returns the LLM oracle, or nil when no key is configured or
// the client cannot be built. Nil means every decision uses the classifier.
func ProvideOracle(cfg *config.Config, log *applogger.Logger) repository.DecisionOracle {
	if cfg.Oracle.APIKey == "" {
		log.Warn("no LLM api key configured, using keyword classifier only")
		return nil
	}
	o, err := llm.NewOpenAI(context.Background(), llm.Config{
		APIKey:    cfg.Oracle.APIKey,
		BaseURL:   cfg.Oracle.BaseURL,
		Model:     cfg.Oracle.Model,
		MaxTokens: cfg.Oracle.MaxTokens,
		Timeout:   cfg.Oracle.Timeout,
	})
	if err != nil {
		log.Warn("LLM oracle unavailable, using keyword classifier only", applogger.Error(err))
		return nil
	}
	return o
}

func ProvideGate(cfg *config.Config) usecase.Gate {
	return ratelimit.NewInterval(ratelimit.New(), "oracle", cfg.Oracle.MinInterval)
}

func ProvideClassifier(rnd repository.Random) *usecase.Classifier {
	return usecase.NewClassifier(rnd)
}

func ProvideDecisionPipeline(
	cfg *config.Config,
	oracle repository.DecisionOracle,
	gate usecase.Gate,
	classifier *usecase.Classifier,
	metrics repository.Metrics,
	log *applogger.Logger,
) *usecase.DecisionPipeline {
	return usecase.NewDecisionPipeline(oracle, gate, classifier, cfg.Oracle.Timeout, metrics, log.With("decision"))
}

func ProvideLedger(cfg *config.Config) *usecase.Ledger {
	return usecase.NewLedger(cfg.Portfolio.InitialCash,
		usecase.WithConfidenceThreshold(cfg.Portfolio.ConfidenceThreshold),
		usecase.WithTradeLogCapacity(cfg.Portfolio.TradeLogCapacity),
		usecase.WithSnapshotTrades(cfg.Portfolio.SnapshotTrades),
	)
}

func ProvideHub(
	cfg *config.Config,
	ledger *usecase.Ledger,
	metrics repository.Metrics,
	log *applogger.Logger,
) *broadcast.Hub {
	return broadcast.NewHub(ledger.Snapshot, cfg.Broadcast.WriteTimeout, metrics, log.With("broadcast"))
}

func ProvideMarketLoop(
	cfg *config.Config,
	news repository.NewsSource,
	prices repository.PriceSource,
	pipeline *usecase.DecisionPipeline,
	ledger *usecase.Ledger,
	hub *broadcast.Hub,
	journal *mid.JournalPipeline,
	metrics repository.Metrics,
	log *applogger.Logger,
) *usecase.MarketLoop {
	opts := []usecase.LoopOption{
		usecase.WithPacing(cfg.Loop.Pacing),
		usecase.WithRestartPolicy(usecase.RestartPolicy{Idle: cfg.Loop.Idle, Backoff: cfg.Loop.Backoff}),
	}
	// a nil *JournalPipeline must not become a non-nil interface
	if journal != nil {
		opts = append(opts, usecase.WithJournal(journal))
	}
	return usecase.NewMarketLoop(news, prices, pipeline, ledger, hub, metrics, log.With("loop"), opts...)
}

// ProvideKafkaConsumer creates the news inbox consumer, or nil when the inbox
// is not fed from kafka.
func ProvideKafkaConsumer(cfg *config.Config, metrics repository.Metrics, log *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.News.InboxEnable {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerStartOffset(cfg.Kafka.Consumer.StartOffset),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(log.With("kafka-consumer")),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	cl := log.With("inbox")
	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Err: func(_ context.Context, topic string, km kafka.Message, _ []byte, err error) {
			metrics.RecordError("inbox_consume")
			cl.Warn("inbox message failed",
				applogger.String("topic", topic),
				applogger.Int("partition", km.Partition),
				applogger.Int64("offset", km.Offset),
				applogger.Error(err),
			)
		},
	})
	return consumer, nil
}

func ProvideNewsInboxHandler(cfg *config.Config, inbox *newsfeed.Inbox, metrics repository.Metrics) *usecase.NewsInboxHandler {
	return usecase.NewNewsInboxHandler(cfg.News.InboxTopic, inbox, metrics)
}

// ProvideRedisInbox feeds the inbox from a redis list, or returns nil when
// that transport is off.
func ProvideRedisInbox(cfg *config.Config, inbox *newsfeed.Inbox, metrics repository.Metrics, log *applogger.Logger) *queue.RedisQueue {
	if !cfg.Redis.Enabled || !cfg.News.RedisInbox {
		return nil
	}
	q := NewRedisInboxQueue(cfg, log.With("redis_inbox"))
	q.Register(usecase.NewHeadlineJob(inbox, metrics))
	return q
}

// NewRedisInboxQueue opens the redis inbox list. Also used by producers that
// only Enqueue.
func NewRedisInboxQueue(cfg *config.Config, log *applogger.Logger) *queue.RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return queue.NewRedisQueue(client, log, queue.Config{RetryLimit: 3},
		queue.WithKeyPrefix(cfg.Redis.Prefix+":inbox"),
	)
}

// ProvideHandlers lists the HTTP surfaces mounted on the server.
func ProvideHandlers(
	ledger *usecase.Ledger,
	loop *usecase.MarketLoop,
	hub *broadcast.Hub,
	log *applogger.Logger,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewPortfolioEchoHandler(log.With("api"), ledger, loop, hub),
		ws.NewStreamEchoHandler(log.With("ws"), hub),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	loop *usecase.MarketLoop,
	hub *broadcast.Hub,
	handlers []xhttp.Handler,
	priceCache pkgcache.Service,
	journal *mid.JournalPipeline,
	journalProc *usecase.JournalProcessor,
	collector *usecase.QuoteCollector,
	consumer *pkgkafka.Consumer,
	inboxHandler *usecase.NewsInboxHandler,
	redisInbox *queue.RedisQueue,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *server.App {
	return server.New(server.Deps{
		Config:       cfg,
		Logger:       log,
		Loop:         loop,
		Hub:          hub,
		Handlers:     handlers,
		PriceCache:   priceCache,
		Journal:      journal,
		JournalProc:  journalProc,
		Collector:    collector,
		Consumer:     consumer,
		InboxHandler: inboxHandler,
		RedisInbox:   redisInbox,
		Producer:     producer,
		ClickHouse:   chClient,
	})
}
