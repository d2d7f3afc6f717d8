package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/continental-cup/internal/domain/collaborator"
	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
)

const defaultSimulationWorkers = 4

type SeasonRun struct {
	TournamentID string `json:"tournament_id"`
	ChampionID   string `json:"champion_id,omitempty"`
	RunnerUpID   string `json:"runner_up_id,omitempty"`
	Phases       int    `json:"phases"`
	Error        string `json:"error,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
}

type SeasonResult struct {
	Runs         []SeasonRun
	SuccessCount int
	FailedCount  int
}

// SimulationService plays tournaments through a ScoreSimulator instead of real results.
type SimulationService struct {
	tournaments *TournamentService
	simulator   collaborator.ScoreSimulator
	maxWorkers  int
	logger      *logging.Logger
}

func NewSimulationService(tournaments *TournamentService, simulator collaborator.ScoreSimulator, maxWorkers int, logger *logging.Logger) *SimulationService {
	if maxWorkers <= 0 {
		maxWorkers = defaultSimulationWorkers
	}
	return &SimulationService{
		tournaments: tournaments,
		simulator:   simulator,
		maxWorkers:  maxWorkers,
		logger:      logger,
	}
}

// PlayPhase simulates every scheduled fixture of the current phase in kick-off order. It returns
// the progress reported by the last recorded fixture.
func (s *SimulationService) PlayPhase(ctx context.Context, tournamentID string) (Progress, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SimulationService.PlayPhase", tournamentAttr(tournamentID))
	defer span.End()

	item, err := s.tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return Progress{}, err
	}
	phase, ok := item.CurrentPhase()
	if !ok {
		return Progress{}, crerr.Wrapf(tournament.ErrTournamentFinished, "tournament=%s", item.ID)
	}

	pending := make([]fixture.Fixture, 0)
	for _, f := range item.FixturesForPhase(phase.Order) {
		if f.Status == fixture.StatusScheduled {
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		return s.tournaments.TryAdvance(ctx, item.ID)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].ScheduledAt.Before(pending[j].ScheduledAt)
	})

	var last Progress
	for _, f := range pending {
		if err := ctx.Err(); err != nil {
			return Progress{}, err
		}
		homeGoals, awayGoals, err := s.simulator.SimulateScore(ctx, f)
		if err != nil {
			return Progress{}, fmt.Errorf("simulate fixture=%s: %w", f.ID, err)
		}
		last, err = s.tournaments.RecordResult(ctx, RecordResultInput{
			TournamentID: item.ID,
			FixtureID:    f.ID,
			HomeGoals:    homeGoals,
			AwayGoals:    awayGoals,
		})
		if err != nil {
			return Progress{}, err
		}
	}

	s.logger.InfoContext(ctx, "phase simulated",
		"tournament_id", item.ID,
		"phase_order", phase.Order,
		"phase", phase.Template.Name,
		"fixtures", len(pending),
		"status", last.Status,
	)
	return last, nil
}

// RunToCompletion plays phase after phase until a champion is declared.
func (s *SimulationService) RunToCompletion(ctx context.Context, tournamentID string) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SimulationService.RunToCompletion", tournamentAttr(tournamentID))
	defer span.End()

	item, err := s.tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return tournament.Tournament{}, err
	}

	// Every phase needs one pass; the extra pass absorbs a phase left with only cancelled fixtures.
	maxPasses := len(item.Format.Templates) + 1
	for pass := 0; pass < maxPasses && !item.IsCompleted(); pass++ {
		if _, err := s.PlayPhase(ctx, item.ID); err != nil {
			return tournament.Tournament{}, err
		}
		if item, err = s.tournaments.GetTournament(ctx, item.ID); err != nil {
			return tournament.Tournament{}, err
		}
	}
	if !item.IsCompleted() {
		return item, crerr.Newf("tournament=%s did not finish after %d passes", item.ID, maxPasses)
	}
	return item, nil
}

// RunSeason runs several tournaments concurrently. A failed tournament is reported in its run and
// does not stop the others.
func (s *SimulationService) RunSeason(ctx context.Context, tournamentIDs []string) (SeasonResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SimulationService.RunSeason")
	defer span.End()

	if len(tournamentIDs) == 0 {
		return SeasonResult{}, fmt.Errorf("%w: at least one tournament id is required", ErrInvalidInput)
	}

	workerCount := s.maxWorkers
	if workerCount > len(tournamentIDs) {
		workerCount = len(tournamentIDs)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return SeasonResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan SeasonRun, len(tournamentIDs))
	var successCount atomic.Int32
	var failedCount atomic.Int32

	var workers sync.WaitGroup
	for _, tournamentID := range tournamentIDs {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			run := SeasonRun{TournamentID: tournamentID}
			item, err := s.RunToCompletion(ctx, tournamentID)
			if err != nil {
				failedCount.Add(1)
				run.Error = err.Error()
				s.logger.WarnContext(ctx, "season run failed", "tournament_id", tournamentID, "error", err)
			} else {
				successCount.Add(1)
				run.ChampionID = item.ChampionID
				run.RunnerUpID = item.RunnerUpID
				run.Phases = len(item.Phases)
			}
			run.DurationMs = time.Since(start).Milliseconds()
			results <- run
		}); err != nil {
			workers.Done()
			return SeasonResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	out := SeasonResult{Runs: make([]SeasonRun, 0, len(tournamentIDs))}
	for run := range results {
		out.Runs = append(out.Runs, run)
	}
	sort.SliceStable(out.Runs, func(i, j int) bool {
		return out.Runs[i].TournamentID < out.Runs[j].TournamentID
	})
	out.SuccessCount = int(successCount.Load())
	out.FailedCount = int(failedCount.Load())
	return out, nil
}
