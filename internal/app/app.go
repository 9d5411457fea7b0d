// Package app assembles the prediction pipeline from configuration. The CLI
// stays a thin driver; everything interesting is wired here.
package app

import (
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matchsight/matchsight/internal/config"
	"github.com/matchsight/matchsight/internal/domain/match"
	"github.com/matchsight/matchsight/internal/domain/odds"
	"github.com/matchsight/matchsight/internal/domain/team"
	"github.com/matchsight/matchsight/internal/emit"
	"github.com/matchsight/matchsight/internal/infrastructure/repository/memory"
	"github.com/matchsight/matchsight/internal/infrastructure/repository/postgres"
	"github.com/matchsight/matchsight/internal/observability"
	"github.com/matchsight/matchsight/internal/platform/cache"
	"github.com/matchsight/matchsight/internal/platform/logging"
	"github.com/matchsight/matchsight/internal/platform/resilience"
	"github.com/matchsight/matchsight/internal/provider"
	"github.com/matchsight/matchsight/internal/provider/apifootball"
	"github.com/matchsight/matchsight/internal/provider/footballdata"
	"github.com/matchsight/matchsight/internal/reconcile"
	"github.com/matchsight/matchsight/internal/usecase"
)

type App struct {
	Config config.Config
	Logger *logging.Logger
	Cycle  *usecase.CycleService

	db *sqlx.DB
}

// New builds the pipeline. Prediction records go to out as JSON lines.
func New(cfg config.Config, out io.Writer) (*App, error) {
	logger := logging.NewJSON(cfg.ParsedLogLevel())
	logging.SetDefault(logger)

	providers, err := buildProviders(cfg, logger)
	if err != nil {
		return nil, err
	}

	var (
		db        *sqlx.DB
		teamRepo  team.Repository
		matchRepo match.Repository
		oddsRepo  odds.Repository
	)
	if cfg.Database.URL != "" {
		db, err = sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		teamRepo = postgres.NewTeamRepository(db)
		matchRepo = postgres.NewMatchRepository(db)
		oddsRepo = postgres.NewOddsRepository(db)
	} else {
		teamRepo = memory.NewTeamRepository(nil)
		matchRepo = memory.NewMatchRepository()
		oddsRepo = memory.NewOddsRepository()
	}

	leagueOverrides := make(map[string]reconcile.LeagueOverride, len(cfg.Leagues))
	for name, lc := range cfg.Leagues {
		leagueOverrides[name] = reconcile.LeagueOverride{
			Tier:          lc.Tier,
			HomeAdvantage: lc.HomeAdvantage,
		}
	}

	// Feature vectors are immutable under their key, so the cache never
	// expires entries.
	features := usecase.NewFeatureService(matchRepo, oddsRepo, cache.NewStore(0), usecase.FeatureConfig{
		FormWindow:     cfg.FormWindowN,
		H2HWindow:      cfg.H2HWindowM,
		BaselineWindow: cfg.LeagueBaselineL,
	}, logger)

	predictions := usecase.NewPredictionService(usecase.PredictionConfig{
		ValueEVThreshold: cfg.ValueEVThreshold,
		HighReliability:  cfg.ConfidenceHighReliability,
		MarketsEnabled:   cfg.MarketsEnabled,
	}, logger)

	if out == nil {
		out = os.Stdout
	}
	cycle := usecase.NewCycleService(
		providers,
		teamRepo,
		matchRepo,
		oddsRepo,
		features,
		predictions,
		emit.NewWriterSink(out),
		observability.NewMetrics(prometheus.DefaultRegisterer),
		usecase.CycleConfig{
			CycleTimeout: cfg.CycleTimeout(),
			Reconcile: reconcile.Config{
				ProviderPriority: cfg.ProviderPriority,
				LeagueOverrides:  leagueOverrides,
			},
		},
		logger,
	)

	return &App{
		Config: cfg,
		Logger: logger,
		Cycle:  cycle,
		db:     db,
	}, nil
}

func (a *App) Close() error {
	var firstErr error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.Logger.Sync(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func buildProviders(cfg config.Config, logger *logging.Logger) ([]provider.Client, error) {
	out := make([]provider.Client, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		httpCfg := provider.HTTPConfig{
			ProviderID:        pc.ID,
			BaseURL:           pc.BaseURL,
			Timeout:           pc.Timeout(),
			RequestsPerMinute: pc.RequestsPerMinute,
			Timezone:          pc.Timezone,
			Logger:            logger,
			CircuitBreaker:    resilience.DefaultCircuitBreakerConfig(),
		}
		switch pc.Kind {
		case config.ProviderKindAPIFootball:
			out = append(out, apifootball.New(httpCfg, pc.APIKey))
		case config.ProviderKindFootballData:
			out = append(out, footballdata.New(httpCfg, pc.APIKey))
		default:
			return nil, fmt.Errorf("unknown provider kind %q", pc.Kind)
		}
	}
	return out, nil
}
