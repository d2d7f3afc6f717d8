package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/continental-cup/internal/app"
	"github.com/riskibarqy/continental-cup/internal/config"
	"github.com/riskibarqy/continental-cup/internal/infrastructure/reward"
	"github.com/riskibarqy/continental-cup/internal/observability"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
	"github.com/riskibarqy/continental-cup/internal/usecase"
)

type summary struct {
	Season      int                 `json:"season"`
	Tournaments []usecase.SeasonRun `json:"tournaments"`
	Prizes      []reward.Prize      `json:"prizes"`
}

func main() {
	tournaments := flag.Int("tournaments", 1, "number of tournaments to simulate")
	teams := flag.Int("teams", 36, "teams per tournament")
	season := flag.Int("season", time.Now().UTC().Year(), "season label")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the season summary.
	logger := logging.NewJSON(logging.Options{
		Level:   cfg.LogLevel,
		Output:  os.Stderr,
		Service: cfg.ServiceName,
		Version: cfg.ServiceVersion,
	})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *tournaments, *teams, *season); err != nil {
		logger.Error("simulation failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logging.Logger, tournamentCount, teamCount, season int) error {
	if tournamentCount < 1 || teamCount < 2 {
		return fmt.Errorf("need at least one tournament and two teams, got tournaments=%d teams=%d", tournamentCount, teamCount)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close app", "error", err)
		}
	}()

	ids := make([]string, 0, tournamentCount)
	for i := 1; i <= tournamentCount; i++ {
		item, err := a.Tournaments.CreateTournament(ctx, usecase.CreateTournamentInput{
			Name:    fmt.Sprintf("Continental Cup %d", i),
			Season:  season,
			TeamIDs: clubIDs(i, teamCount),
		})
		if err != nil {
			return fmt.Errorf("create tournament %d: %w", i, err)
		}
		ids = append(ids, item.ID)
	}

	result, err := a.Simulation.RunSeason(ctx, ids)
	if err != nil {
		return err
	}
	logger.Info("season simulated",
		"tournaments", len(result.Runs),
		"success", result.SuccessCount,
		"failed", result.FailedCount,
	)

	waitForPrizes(ctx, a.Ledger, 2*result.SuccessCount)
	out, err := sonic.ConfigStd.MarshalIndent(summary{
		Season:      season,
		Tournaments: result.Runs,
		Prizes:      a.Ledger.Prizes(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	fmt.Println(string(out))

	if result.FailedCount > 0 {
		return fmt.Errorf("%d of %d tournaments failed", result.FailedCount, len(result.Runs))
	}
	return nil
}

func clubIDs(tournamentNo, n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("t%02d-club-%02d", tournamentNo, i))
	}
	return out
}

// waitForPrizes gives the asynchronous ledger a moment to catch up before the summary is printed.
func waitForPrizes(ctx context.Context, ledger *reward.Ledger, want int) {
	deadline := time.NewTimer(2 * time.Second)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for len(ledger.Prizes()) < want {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-tick.C:
		}
	}
}
