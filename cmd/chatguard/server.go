package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/chatguard/chatguard/automod"
	"github.com/chatguard/chatguard/automod/cachestore"
	"github.com/chatguard/chatguard/automod/consumer"
	"github.com/chatguard/chatguard/automod/countstore"
	"github.com/chatguard/chatguard/automod/engine"
	"github.com/chatguard/chatguard/automod/flagstore"
	"github.com/chatguard/chatguard/automod/floodstore"
	"github.com/chatguard/chatguard/automod/keyword"
	"github.com/chatguard/chatguard/automod/repstore"
	"github.com/chatguard/chatguard/automod/rules"
	"github.com/chatguard/chatguard/automod/setstore"
	"github.com/chatguard/chatguard/automod/visual"
	"github.com/chatguard/chatguard/util"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type Server struct {
	logger   *slog.Logger
	engine   *automod.Engine
	consumer *consumer.TelegramConsumer
	rdb      *redis.Client
	nc       *nats.Conn
	janitor  *Janitor
}

type Config struct {
	TelegramToken        string
	TelegramAPIEndpoint  string
	RedisURL             string
	SQLActionLedger      bool
	SetsFileJSON         string
	FillerBound          int
	DeleteUnlabeledMedia bool
	SlackWebhookURL      string
	NATSURL              string
	NATSSubject          string
	OCRHost              string
	OCRAPIKey            string
	OCRLanguage          string
	FloodLimit           int
	FloodInterval        time.Duration
	ExemptUserIDs        []int64
	Parallelism          int
	DownloadRateLimit    float64
	ReplyLimit           int64
	JanitorSchedule      string
	Logger               *slog.Logger
}

// How long applied-action fingerprints are remembered. Telegram does not allow deleting messages older than two days.
const actionLedgerTTL = 72 * time.Hour

const (
	adminCacheTTL = 5 * time.Minute
	ocrCacheTTL   = 24 * time.Hour
)

func NewServer(ctx context.Context, db *gorm.DB, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	sets, err := loadSets(config.SetsFileJSON, logger)
	if err != nil {
		return nil, err
	}

	floodLimit := config.FloodLimit
	if floodLimit <= 0 {
		floodLimit = floodstore.DefaultLimit
	}
	floodInterval := config.FloodInterval
	if floodInterval <= 0 {
		floodInterval = floodstore.DefaultInterval
	}

	var counters countstore.CountStore
	var cache cachestore.CacheStore
	var flags flagstore.FlagStore
	var flood floodstore.FloodStore
	var rdb *redis.Client
	if config.RedisURL != "" {
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		// check redis connection
		_, err = rdb.Ping(ctx).Result()
		if err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}

		counters = countstore.NewRedisCountStore(rdb)
		cache = cachestore.NewRedisCacheStore(rdb, 30*time.Minute).
			WithTTL("admin", adminCacheTTL).
			WithTTL("ocr", ocrCacheTTL)
		flags = flagstore.NewRedisFlagStore(rdb, actionLedgerTTL)
		flood = floodstore.NewRedisFloodStore(rdb, floodLimit, floodInterval)
	} else {
		logger.Warn("redis not configured, moderation state is kept in process memory")
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5_000, 30*time.Minute).
			WithTTL("admin", adminCacheTTL).
			WithTTL("ocr", ocrCacheTTL)
		flags = flagstore.NewMemFlagStore()
		flood = floodstore.NewMemFloodStore(floodLimit, floodInterval)
	}

	if config.SQLActionLedger {
		gfs, err := flagstore.NewGormFlagStore(db)
		if err != nil {
			return nil, fmt.Errorf("initializing SQL action ledger: %w", err)
		}
		flags = gfs
	}

	reps, err := repstore.NewGormRepStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing reputation store: %w", err)
	}

	bot, err := consumer.NewTelegramBot(config.TelegramToken, config.TelegramAPIEndpoint, &http.Client{
		// long polling holds requests open for up to 30 seconds
		Timeout: 60 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	platform := consumer.NewTelegramPlatform(bot, logger.With("system", "telegram"), config.ReplyLimit, time.Minute)

	ecfg := engine.DefaultConfig()
	ecfg.DeleteUnlabeledMedia = config.DeleteUnlabeledMedia

	eng := automod.Engine{
		Logger:     logger,
		Rules:      rules.DefaultRules(),
		Config:     ecfg,
		Flood:      flood,
		Counters:   counters,
		Sets:       sets,
		Cache:      cache,
		Flags:      flags,
		Reputation: reps,
		Oracle: &engine.CachedOracle{
			Inner: engine.AnyOracle{
				engine.NewStaticOracle(config.ExemptUserIDs),
				platform,
			},
			Cache: cache,
		},
		Platform: platform,
	}

	if err := rules.ConfigureEngine(ctx, &eng, fillerOptions(config.FillerBound)); err != nil {
		return nil, err
	}

	if config.OCRHost != "" {
		logger.Info("configuring image text extraction", "host", config.OCRHost)
		ocr := visual.NewOCRClient(config.OCRHost, config.OCRAPIKey, config.OCRLanguage)
		eng.OCR = &ocr
	}

	if config.SlackWebhookURL != "" {
		eng.Notifiers = append(eng.Notifiers, &engine.SlackNotifier{
			SlackWebhookURL: config.SlackWebhookURL,
			Client:          util.RobustHTTPClient(),
		})
	}

	var nc *nats.Conn
	if config.NATSURL != "" {
		nc, err = connectNATS(config.NATSURL, logger)
		if err != nil {
			return nil, err
		}
		eng.Notifiers = append(eng.Notifiers, engine.NewNATSNotifier(nc, config.NATSSubject))
	}

	var limiter *rate.Limiter
	if config.DownloadRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.DownloadRateLimit), 1)
	}

	tc := &consumer.TelegramConsumer{
		Parallelism:     config.Parallelism,
		Logger:          logger.With("consumer", "telegram"),
		RedisClient:     rdb,
		Engine:          &eng,
		Bot:             bot,
		HTTPClient:      util.RobustHTTPClient(),
		DownloadLimiter: limiter,
	}

	s := &Server{
		logger:   logger,
		engine:   &eng,
		consumer: tc,
		rdb:      rdb,
		nc:       nc,
		janitor: &Janitor{
			Logger:   logger.With("system", "janitor"),
			Schedule: config.JanitorSchedule,
			Flood:    flood,
			Flags:    flags,
			Limiters: platform,
			FlagTTL:  actionLedgerTTL,
		},
	}

	return s, nil
}

// Builds an engine backed entirely by in-process stores, with no platform or collaborators. Used for offline checks.
func NewCheckEngine(ctx context.Context, logger *slog.Logger, setsFileJSON string, fillerBound int, deleteUnlabeledMedia bool) (*automod.Engine, error) {
	sets, err := loadSets(setsFileJSON, logger)
	if err != nil {
		return nil, err
	}
	ecfg := engine.DefaultConfig()
	ecfg.DeleteUnlabeledMedia = deleteUnlabeledMedia
	eng := automod.Engine{
		Logger:     logger,
		Rules:      rules.DefaultRules(),
		Config:     ecfg,
		Counters:   countstore.NewMemCountStore(),
		Sets:       sets,
		Cache:      cachestore.NewMemCacheStore(100, time.Minute),
		Flags:      flagstore.NewMemFlagStore(),
		Reputation: repstore.NewMemRepStore(),
	}
	if err := rules.ConfigureEngine(ctx, &eng, fillerOptions(fillerBound)); err != nil {
		return nil, err
	}
	return &eng, nil
}

func loadSets(path string, logger *slog.Logger) (*setstore.MemSetStore, error) {
	sets := rules.DefaultSets()
	if path != "" {
		if err := sets.LoadFromFileJSON(path); err != nil {
			return nil, fmt.Errorf("initializing in-process setstore: %v", err)
		}
		logger.Info("loaded set config from JSON", "path", path)
	}
	return sets, nil
}

// Zero is a valid bound; out-of-range values are rejected when the lexicon is compiled.
func fillerOptions(bound int) keyword.Options {
	return keyword.Options{FillerBound: bound}
}

func connectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("chatguard"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	logger.Info("connected to nats", "url", nc.ConnectedUrl())
	return nc, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

// Runs the update consumer, cursor persistence, janitor, and HTTP API until ctx is cancelled or one of them fails.
func (s *Server) Run(ctx context.Context, bind string) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.consumer.Run(ctx)
	})
	g.Go(func() error {
		return s.consumer.RunPersistCursor(ctx)
	})
	g.Go(func() error {
		return s.janitor.Run(ctx)
	})
	g.Go(func() error {
		e := s.newAPI()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("failed to shut down API server", "err", err)
			}
		}()
		s.logger.Info("starting API server", "bind", bind)
		if err := e.Start(bind); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) Close() {
	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			s.logger.Error("failed to drain nats connection", "err", err)
		}
	}
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.logger.Error("failed to close redis client", "err", err)
		}
	}
}
