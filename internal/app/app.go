package app

import (
	"context"
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/riskibarqy/continental-cup/internal/config"
	"github.com/riskibarqy/continental-cup/internal/domain/knockout"
	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
	"github.com/riskibarqy/continental-cup/internal/infrastructure/calendar"
	"github.com/riskibarqy/continental-cup/internal/infrastructure/matchengine"
	"github.com/riskibarqy/continental-cup/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/continental-cup/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/continental-cup/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/continental-cup/internal/infrastructure/reward"
	"github.com/riskibarqy/continental-cup/internal/infrastructure/roster"
	idgen "github.com/riskibarqy/continental-cup/internal/platform/id"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
	"github.com/riskibarqy/continental-cup/internal/platform/random"
	"github.com/riskibarqy/continental-cup/internal/platform/resilience"
	"github.com/riskibarqy/continental-cup/internal/usecase"
)

// App holds the wired services and the resources they own.
type App struct {
	Tournaments *usecase.TournamentService
	Simulation  *usecase.SimulationService
	Ledger      *reward.Ledger

	closers []func() error
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	a := &App{}

	repo, err := a.newRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	seeds := random.NewFromConfig(cfg.Cup.RandomSeed)
	cal := calendar.NewWeekly(cfg.Cup.RoundInterval)
	engine := matchengine.New(random.New(seeds.Int64()), matchengine.DefaultConfig())

	var breaker knockout.TieBreaker
	switch cfg.Cup.TieBreak {
	case config.TieBreakLot:
		breaker = knockout.NewLotTieBreaker(random.New(seeds.Int64()), logger.Named("knockout"))
	default:
		breaker = knockout.NewShootoutTieBreaker(
			roster.NewGenerated(roster.DefaultLineupSize),
			engine,
			random.New(seeds.Int64()),
			logger.Named("shootout"),
		)
	}
	resolver := knockout.NewResolver(
		knockout.NewBracketGenerator(random.New(seeds.Int64())),
		breaker,
		cal,
		logger.Named("knockout"),
	)

	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64, Persistent: true},
		reward.NewWatermillLogger(logger.Named("watermill")),
	)
	a.closers = append(a.closers, pubsub.Close)

	a.Ledger = reward.NewLedger(reward.DefaultPurses(), logger.Named("ledger"))
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Ledger.Run(runCtx, pubsub, reward.TopicChampionDeclared); err != nil {
			logger.Error("reward ledger stopped", "error", err)
		}
	}()

	publisher := reward.NewPublisher(pubsub, resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Enabled:          cfg.RewardCircuitEnabled,
		FailureThreshold: cfg.RewardCircuitFailureCount,
		OpenTimeout:      cfg.RewardCircuitOpenTimeout,
		HalfOpenMaxReq:   cfg.RewardCircuitHalfOpenMax,
	}), logger.Named("reward"))

	a.Tournaments = usecase.NewTournamentService(
		repo,
		cal,
		resolver,
		publisher,
		idgen.NewUUIDGenerator(),
		seeds,
		usecase.TournamentServiceConfig{
			Rules:           rulesFromConfig(cfg.Cup),
			PairingAttempts: cfg.Cup.PairingAttempts,
			SeasonStart:     cfg.Cup.SeasonStart,
		},
		logger.Named("tournament"),
	)
	a.Simulation = usecase.NewSimulationService(a.Tournaments, engine, cfg.SimMaxWorkers, logger.Named("simulation"))

	return a, nil
}

// Close stops the ledger and releases the broker and database handles.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func (a *App) newRepository(ctx context.Context, cfg config.Config, logger *logging.Logger) (tournament.Repository, error) {
	var repo tournament.Repository
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		repo = postgres.NewTournamentRepository(db)
		logger.Info("storage ready", "driver", cfg.StorageDriver, "database", databaseName(cfg.DBURL))
	default:
		repo = memory.NewTournamentRepository()
		logger.Info("storage ready", "driver", config.StorageMemory)
	}

	if cfg.CacheEnabled {
		repo = cache.NewTournamentRepository(repo, cfg.CacheTTL)
	}
	return repo, nil
}

func rulesFromConfig(cup config.CupConfig) tournament.Rules {
	return tournament.Rules{
		LeagueRounds:      cup.LeagueRounds,
		DirectSlots:       cup.DirectSlots,
		PlayoffSlots:      cup.PlayoffSlots,
		TwoLeggedKnockout: cup.TwoLeggedKnockout,
		TwoLeggedFinal:    cup.TwoLeggedFinal,
	}
}
