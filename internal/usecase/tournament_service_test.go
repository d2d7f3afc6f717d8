package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/continental-cup/internal/domain/collaborator"
	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/domain/knockout"
	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
	"github.com/riskibarqy/continental-cup/internal/infrastructure/calendar"
	"github.com/riskibarqy/continental-cup/internal/infrastructure/repository/memory"
	collaboratormock "github.com/riskibarqy/continental-cup/internal/mocks/domain/collaborator"
	tournamentmock "github.com/riskibarqy/continental-cup/internal/mocks/domain/tournament"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
	"github.com/riskibarqy/continental-cup/internal/platform/random"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)

type sequenceIDs struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("cup-%d", g.n), nil
}

// smallRules gives 8 teams a 3 round league, a 4 team playoff, semi-finals and a final.
func smallRules() tournament.Rules {
	return tournament.Rules{
		LeagueRounds:      3,
		DirectSlots:       2,
		PlayoffSlots:      4,
		TwoLeggedKnockout: true,
	}
}

func teamPool(n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("team-%02d", i))
	}
	return out
}

func newTournamentService(repo tournament.Repository, notifier collaborator.RewardNotifier) *TournamentService {
	logger := logging.NewNop()
	resolver := knockout.NewResolver(
		knockout.NewBracketGenerator(random.New(11)),
		knockout.NewLotTieBreaker(random.New(12), logger),
		calendar.NewWeekly(calendar.DefaultInterval),
		logger,
	)
	svc := NewTournamentService(
		repo,
		calendar.NewWeekly(calendar.DefaultInterval),
		resolver,
		notifier,
		&sequenceIDs{},
		random.New(7),
		TournamentServiceConfig{Rules: smallRules(), PairingAttempts: 200, SeasonStart: fixedNow},
		logger,
	)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestTournamentService_CreateTournament_InvalidInput(t *testing.T) {
	t.Parallel()

	svc := newTournamentService(memory.NewTournamentRepository(), nil)
	tests := []struct {
		name   string
		input  CreateTournamentInput
		domain error
	}{
		{name: "missing name", input: CreateTournamentInput{Season: 2026, TeamIDs: teamPool(8)}},
		{name: "season out of range", input: CreateTournamentInput{Name: "Cup", Season: 26, TeamIDs: teamPool(8)}},
		{name: "blank team id", input: CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: append(teamPool(7), "")}},
		{name: "odd team count", input: CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: teamPool(7)}, domain: tournament.ErrInvalidTeamPool},
		{name: "duplicate team", input: CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: append(teamPool(7), "team-01")}, domain: tournament.ErrInvalidTeamPool},
		{name: "too few teams for format", input: CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: teamPool(4)}, domain: tournament.ErrInvalidTeamPool},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTournament(context.Background(), tc.input)
			require.ErrorIs(t, err, ErrInvalidInput)
			if tc.domain != nil {
				require.ErrorIs(t, err, tc.domain)
			}
		})
	}
}

func TestTournamentService_CreateTournament_SchedulesLeaguePhaseUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := tournamentmock.NewRepository(t)
	svc := newTournamentService(repo, nil)

	repo.
		On("Save", ctx, mock.MatchedBy(func(item tournament.Tournament) bool {
			return item.ID == "cup-1" && len(item.Fixtures) == 12
		})).
		Return(nil).
		Once()

	item, err := svc.CreateTournament(ctx, CreateTournamentInput{Name: " Continental Cup ", Season: 2026, TeamIDs: teamPool(8)})
	require.NoError(t, err)
	require.Equal(t, "Continental Cup", item.Name)
	require.Equal(t, tournament.StageLeaguePhase, item.Stage)
	require.Len(t, item.Standings, 8)
	require.Len(t, item.Format.Templates, 4)

	perRound := map[int]int{}
	for _, f := range item.Fixtures {
		require.Equal(t, fixture.StatusScheduled, f.Status)
		require.False(t, f.ScheduledAt.Before(fixedNow), "fixture %s scheduled before season start", f.ID)
		perRound[f.Round]++
	}
	require.Equal(t, map[int]int{1: 4, 2: 4, 3: 4}, perRound)
}

func TestTournamentService_RecordResult_ErrorsUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := tournamentmock.NewRepository(t)
	svc := newTournamentService(repo, nil)

	seeded := newTournamentService(memory.NewTournamentRepository(), nil)
	item, err := seeded.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: teamPool(8)})
	require.NoError(t, err)

	repo.On("GetByID", ctx, "missing").Return(tournament.Tournament{}, false, nil).Once()
	_, err = svc.RecordResult(ctx, RecordResultInput{TournamentID: "missing", FixtureID: "f"})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, tournament.ErrTournamentNotFound)

	repo.On("GetByID", ctx, item.ID).Return(item, true, nil).Once()
	_, err = svc.RecordResult(ctx, RecordResultInput{TournamentID: item.ID, FixtureID: "nope"})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, fixture.ErrFixtureNotFound)

	repo.On("GetByID", ctx, "db").Return(tournament.Tournament{}, false, errors.New("connection reset")).Once()
	_, err = svc.RecordResult(ctx, RecordResultInput{TournamentID: "db", FixtureID: "f"})
	require.ErrorIs(t, err, ErrDependencyUnavailable)
	require.NotErrorIs(t, err, ErrNotFound)

	_, err = svc.RecordResult(ctx, RecordResultInput{TournamentID: item.ID, FixtureID: item.Fixtures[0].ID, HomeGoals: -1})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTournamentService_RecordResult_OnlyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTournamentService(memory.NewTournamentRepository(), nil)
	item, err := svc.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: teamPool(8)})
	require.NoError(t, err)

	first := item.Fixtures[0]
	progress, err := svc.RecordResult(ctx, RecordResultInput{TournamentID: item.ID, FixtureID: first.ID, HomeGoals: 2, AwayGoals: 1})
	require.NoError(t, err)
	require.Equal(t, ProgressNotReady, progress.Status)
	require.Equal(t, 11, progress.Pending)

	_, err = svc.RecordResult(ctx, RecordResultInput{TournamentID: item.ID, FixtureID: first.ID, HomeGoals: 0, AwayGoals: 0})
	require.ErrorIs(t, err, fixture.ErrFixtureAlreadyPlayed)

	rows, err := svc.ListStandings(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, first.HomeTeamID, rows[0].TeamID)
	require.Equal(t, 3, rows[0].Points)

	stored, err := svc.ListFixtures(ctx, item.ID, 1)
	require.NoError(t, err)
	played := 0
	for _, f := range stored {
		if f.IsPlayed() {
			played++
			home, away := f.Score()
			require.Equal(t, 2, home)
			require.Equal(t, 1, away)
		}
	}
	require.Equal(t, 1, played)
}

func TestTournamentService_ListTournaments(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTournamentService(memory.NewTournamentRepository(), nil)
	for _, name := range []string{"Champions Cup", "Cup Winners Cup"} {
		_, err := svc.CreateTournament(ctx, CreateTournamentInput{Name: name, Season: 2026, TeamIDs: teamPool(8)})
		require.NoError(t, err)
	}

	items, err := svc.ListTournaments(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Champions Cup", items[0].Name)
	require.Equal(t, "Cup Winners Cup", items[1].Name)
	require.Equal(t, tournament.StageLeaguePhase, items[1].Stage)
}

func TestTournamentService_TryAdvance_NotReadyDoesNotSaveUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	seeded := newTournamentService(memory.NewTournamentRepository(), nil)
	item, err := seeded.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: teamPool(8)})
	require.NoError(t, err)

	repo := tournamentmock.NewRepository(t)
	repo.On("GetByID", ctx, item.ID).Return(item, true, nil).Once()
	svc := newTournamentService(repo, nil)

	progress, err := svc.TryAdvance(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, Progress{Status: ProgressNotReady, PhaseOrder: 1, Pending: 12}, progress)
}

func TestTournamentService_CancelledLeagueStillAdvances(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTournamentService(memory.NewTournamentRepository(), nil)
	item, err := svc.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: teamPool(8)})
	require.NoError(t, err)

	var progress Progress
	for _, f := range item.Fixtures {
		progress, err = svc.CancelFixture(ctx, item.ID, f.ID)
		require.NoError(t, err)
	}
	require.Equal(t, ProgressPhaseAdvanced, progress.Status)
	require.Equal(t, 2, progress.NextPhaseOrder)

	stored, err := svc.GetTournament(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, tournament.StageKnockout, stored.Stage)
	require.Len(t, stored.FixturesForPhase(2), 4, "two two-legged playoff ties")

	alive := 0
	for _, entry := range stored.Entries {
		if !entry.Eliminated {
			alive++
		}
	}
	require.Equal(t, 6, alive)

	_, err = svc.ListFixtures(ctx, item.ID, 9)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, tournament.ErrPhaseNotFound)
}

func TestTournamentService_CancelFixture_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTournamentService(memory.NewTournamentRepository(), nil)
	item, err := svc.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: teamPool(8)})
	require.NoError(t, err)

	first := item.Fixtures[0]
	_, err = svc.RecordResult(ctx, RecordResultInput{TournamentID: item.ID, FixtureID: first.ID, HomeGoals: 1, AwayGoals: 0})
	require.NoError(t, err)

	_, err = svc.CancelFixture(ctx, item.ID, first.ID)
	require.ErrorIs(t, err, fixture.ErrFixtureAlreadyPlayed)

	_, err = svc.CancelFixture(ctx, item.ID, "no-such-fixture")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, fixture.ErrFixtureNotFound)

	_, err = svc.CancelFixture(ctx, "missing", first.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CancelFixture(ctx, item.ID, " ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTournamentService_ConcurrentWritesOnOneTournament(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTournamentService(memory.NewTournamentRepository(), nil)
	item, err := svc.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: teamPool(8)})
	require.NoError(t, err)

	league := item.FixturesForPhase(1)
	statuses := make([]ProgressStatus, len(league))
	errs := make([]error, len(league))
	var wg sync.WaitGroup
	for i, f := range league {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var progress Progress
			if i%3 == 0 {
				progress, errs[i] = svc.CancelFixture(ctx, item.ID, f.ID)
			} else {
				progress, errs[i] = svc.RecordResult(ctx, RecordResultInput{TournamentID: item.ID, FixtureID: f.ID, HomeGoals: 2, AwayGoals: 1})
			}
			statuses[i] = progress.Status
		}()
	}
	wg.Wait()

	advanced := 0
	for i := range league {
		require.NoError(t, errs[i])
		if statuses[i] == ProgressPhaseAdvanced {
			advanced++
		}
	}
	require.Equal(t, 1, advanced, "exactly the last write closes the league phase")

	stored, err := svc.GetTournament(ctx, item.ID)
	require.NoError(t, err)
	for i, f := range league {
		got, err := stored.Fixture(f.ID)
		require.NoError(t, err)
		if i%3 == 0 {
			require.Equal(t, fixture.StatusCancelled, got.Status, "fixture %s", f.ID)
			continue
		}
		require.True(t, got.IsPlayed(), "fixture %s lost its result", f.ID)
	}
	require.Equal(t, tournament.StageKnockout, stored.Stage)
	require.Empty(t, svc.locks.locks)
}

func TestTournamentService_KnockoutProgressCarriesOutcomes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTournamentService(memory.NewTournamentRepository(), nil)
	item, err := svc.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: teamPool(8)})
	require.NoError(t, err)
	for _, f := range item.Fixtures {
		_, err = svc.CancelFixture(ctx, item.ID, f.ID)
		require.NoError(t, err)
	}

	playoff, err := svc.ListFixtures(ctx, item.ID, 2)
	require.NoError(t, err)
	require.Len(t, playoff, 4)

	// each leg is a 1-0 home win, so both ties are level on aggregate and away goals
	var progress Progress
	for _, f := range playoff {
		progress, err = svc.RecordResult(ctx, RecordResultInput{TournamentID: item.ID, FixtureID: f.ID, HomeGoals: 1, AwayGoals: 0})
		require.NoError(t, err)
	}
	require.Equal(t, ProgressNextPhaseCreated, progress.Status)
	require.Equal(t, 3, progress.NextPhaseOrder)
	require.Len(t, progress.Outcomes, 2)
	for _, outcome := range progress.Outcomes {
		require.Equal(t, knockout.MethodLot, outcome.Method)
		require.Equal(t, 1, outcome.Tie.GoalsA)
		require.Equal(t, 1, outcome.Tie.GoalsB)
	}

	stored, err := svc.GetTournament(ctx, item.ID)
	require.NoError(t, err)
	phase, err := stored.Phase(2)
	require.NoError(t, err)
	require.Len(t, phase.Ties, 2)
	for i, rec := range phase.Ties {
		require.Equal(t, progress.Outcomes[i].WinnerID, rec.WinnerID)
		require.Equal(t, progress.Outcomes[i].LoserID, rec.LoserID)
		require.Equal(t, "LOT", rec.Method)
		require.Nil(t, rec.Shootout)
	}
}

// strongerWins lets the lower team id win every match 1-0, home or away.
type strongerWins struct{}

func (strongerWins) SimulateScore(_ context.Context, item fixture.Fixture) (int, int, error) {
	if item.HomeTeamID < item.AwayTeamID {
		return 1, 0, nil
	}
	return 0, 1, nil
}

func TestSimulationService_RunToCompletion_DeclaresChampionOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	notifier := collaboratormock.NewRewardNotifier(t)
	svc := newTournamentService(memory.NewTournamentRepository(), notifier)
	sim := NewSimulationService(svc, strongerWins{}, 2, logging.NewNop())

	item, err := svc.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: teamPool(8)})
	require.NoError(t, err)

	notifier.
		On("ChampionDeclared", mock.Anything, mock.MatchedBy(func(award collaborator.Award) bool {
			return award.TournamentID == item.ID && award.ChampionID == "team-01" && award.RunnerUpID != "" && award.Season == 2026
		})).
		Return(nil).
		Once()

	done, err := sim.RunToCompletion(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, done.IsCompleted())
	require.Equal(t, "team-01", done.ChampionID)
	require.NotEqual(t, done.ChampionID, done.RunnerUpID)

	for _, phase := range done.Phases {
		require.Equal(t, tournament.PhaseStatusCompleted, phase.Status, "phase %d", phase.Order)
	}
	alive := 0
	for _, entry := range done.Entries {
		if !entry.Eliminated {
			alive++
			require.Equal(t, "team-01", entry.TeamID)
		}
	}
	require.Equal(t, 1, alive)

	_, err = sim.PlayPhase(ctx, item.ID)
	require.ErrorIs(t, err, tournament.ErrTournamentFinished)
}

func TestSimulationService_NotifierFailureDoesNotFailTheFinal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	notifier := collaboratormock.NewRewardNotifier(t)
	notifier.On("ChampionDeclared", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	svc := newTournamentService(memory.NewTournamentRepository(), notifier)
	sim := NewSimulationService(svc, strongerWins{}, 1, logging.NewNop())
	item, err := svc.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", Season: 2026, TeamIDs: teamPool(8)})
	require.NoError(t, err)

	done, err := sim.RunToCompletion(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, "team-01", done.ChampionID)
}

func TestSimulationService_RunSeason(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTournamentService(memory.NewTournamentRepository(), nil)
	sim := NewSimulationService(svc, strongerWins{}, 3, logging.NewNop())

	ids := []string{"missing"}
	for i := 0; i < 3; i++ {
		item, err := svc.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", Season: 2026 + i, TeamIDs: teamPool(8)})
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}

	result, err := sim.RunSeason(ctx, ids)
	require.NoError(t, err)
	require.Equal(t, 3, result.SuccessCount)
	require.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Runs, 4)
	for _, run := range result.Runs {
		if run.TournamentID == "missing" {
			require.NotEmpty(t, run.Error)
			continue
		}
		require.Empty(t, run.Error)
		require.Equal(t, "team-01", run.ChampionID)
		require.Equal(t, 4, run.Phases)
	}

	_, err = sim.RunSeason(ctx, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}
