package commands

import (
	"fmt"

	"github.com/wonny/stockscan/internal/analyzer"
	"github.com/wonny/stockscan/internal/calendar"
	"github.com/wonny/stockscan/internal/datacache"
	"github.com/wonny/stockscan/internal/external/eastmoney"
	"github.com/wonny/stockscan/internal/external/sina"
	"github.com/wonny/stockscan/internal/fetcher"
	"github.com/wonny/stockscan/internal/report"
	"github.com/wonny/stockscan/internal/strategy"
	"github.com/wonny/stockscan/internal/universe"
	"github.com/wonny/stockscan/pkg/config"
	"github.com/wonny/stockscan/pkg/database"
	"github.com/wonny/stockscan/pkg/logger"
	"github.com/wonny/stockscan/pkg/redis"
)

// app wires the components every command shares.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	redis    *redis.Client
	db       *database.DB
	calendar *calendar.Calendar
	universe *universe.Cached
	fetcher  *fetcher.Fetcher
	analyzer *analyzer.Analyzer
	writer   *report.Writer
	repo     *report.Repository
}

// newApp loads config and builds the component graph. The database is
// optional; everything else is mandatory.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	redisCache := redis.NewCache(redisClient, "stockscan")
	cal := calendar.New(sina.NewClient(cfg, log), redisCache, log)

	cache := datacache.New(cfg.CacheDir, cfg.Fetch.CacheMaxAge, cal, log)
	emClient := eastmoney.NewClient(cfg, log)

	f, err := fetcher.New(emClient, cache, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build fetcher: %w", err)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		redis:    redisClient,
		calendar: cal,
		universe: universe.NewCached(emClient, redisCache, log),
		fetcher:  f,
		analyzer: analyzer.New(f, strategy.Default(), cfg.Workers, log),
		writer:   report.NewWriter(cfg.ResultsDir, log),
	}

	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.repo = report.NewRepository(db.Pool)
	}

	return a, nil
}

// Close releases held connections.
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
