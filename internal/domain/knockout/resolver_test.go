package knockout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/domain/pairing"
	"github.com/riskibarqy/continental-cup/internal/domain/progression"
	"github.com/riskibarqy/continental-cup/internal/domain/schedule"
	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
	"github.com/riskibarqy/continental-cup/internal/platform/random"
)

var testNow = time.Date(2027, 3, 1, 21, 0, 0, 0, time.UTC)

type weeklyCalendar struct{}

func (weeklyCalendar) PhaseDates(_ context.Context, tpl tournament.PhaseTemplate, after time.Time) ([]time.Time, error) {
	out := make([]time.Time, 0, tpl.RoundCount)
	for i := 1; i <= tpl.RoundCount; i++ {
		out = append(out, after.AddDate(0, 0, 7*i))
	}
	return out, nil
}

type recordingBreaker struct {
	calls  []Tie
	winner func(Tie) string
	err    error
}

func (b *recordingBreaker) BreakTie(_ context.Context, tie Tie) (Decision, error) {
	b.calls = append(b.calls, tie)
	if b.err != nil {
		return Decision{}, b.err
	}
	winner := tie.TeamA
	if b.winner != nil {
		winner = b.winner(tie)
	}
	return Decision{WinnerID: winner, Method: MethodLot}, nil
}

func played(id string, round, leg int, home, away string, homeGoals, awayGoals int) fixture.Fixture {
	f := fixture.Fixture{ID: id, TournamentID: "cup-1", PhaseOrder: 2, Round: round, Leg: leg, HomeTeamID: home, AwayTeamID: away, Status: fixture.StatusScheduled}
	if err := f.RecordResult(homeGoals, awayGoals, testNow); err != nil {
		panic(err)
	}
	return f
}

func newResolver(breaker TieBreaker) *Resolver {
	return NewResolver(NewBracketGenerator(random.New(3)), breaker, weeklyCalendar{}, logging.NewNop())
}

func TestResolveTie_TwoLegged(t *testing.T) {
	cases := []struct {
		name       string
		legs       []fixture.Fixture
		wantWinner string
		wantMethod Method
		wantBreak  bool
	}{
		{
			name: "aggregate",
			legs: []fixture.Fixture{
				played("l1", 1, 1, "A", "B", 2, 1),
				played("l2", 2, 2, "B", "A", 0, 1),
			},
			wantWinner: "A",
			wantMethod: MethodAggregate,
		},
		{
			name: "home wins both legs",
			legs: []fixture.Fixture{
				played("l1", 1, 1, "A", "B", 1, 0),
				played("l2", 2, 2, "B", "A", 1, 0),
			},
			wantBreak:  true,
			wantWinner: "A",
			wantMethod: MethodLot,
		},
		{
			name: "away goals decide level aggregate",
			legs: []fixture.Fixture{
				played("l1", 1, 1, "A", "B", 1, 1),
				played("l2", 2, 2, "B", "A", 2, 2),
			},
			wantWinner: "A",
			wantMethod: MethodAwayGoals,
		},
		{
			name: "away goals favour the visitor of the first leg",
			legs: []fixture.Fixture{
				played("l1", 1, 1, "A", "B", 2, 2),
				played("l2", 2, 2, "B", "A", 1, 1),
			},
			wantWinner: "B",
			wantMethod: MethodAwayGoals,
		},
		{
			name: "second leg listed first",
			legs: []fixture.Fixture{
				played("l2", 2, 2, "B", "A", 3, 0),
				played("l1", 1, 1, "A", "B", 1, 0),
			},
			wantWinner: "B",
			wantMethod: MethodAggregate,
		},
		{
			name: "level everywhere goes to breaker",
			legs: []fixture.Fixture{
				played("l1", 1, 1, "A", "B", 1, 1),
				played("l2", 2, 2, "B", "A", 1, 1),
			},
			wantBreak:  true,
			wantWinner: "A",
			wantMethod: MethodLot,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			breaker := &recordingBreaker{}
			ties := GroupTies(tc.legs)
			if len(ties) != 1 {
				t.Fatalf("expected one tie, got %d", len(ties))
			}
			got, err := newResolver(breaker).ResolveTie(context.Background(), ties[0], true)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got.WinnerID != tc.wantWinner || got.Method != tc.wantMethod {
				t.Fatalf("expected %s by %s, got %s by %s", tc.wantWinner, tc.wantMethod, got.WinnerID, got.Method)
			}
			if (len(breaker.calls) == 1) != tc.wantBreak {
				t.Fatalf("unexpected breaker calls %d", len(breaker.calls))
			}
		})
	}
}

func TestResolveTie_AwayGoalsAfterLevelAggregate(t *testing.T) {
	// A wins 1-0 at home, B wins 1-0 at home: level aggregate and no away goals either way.
	tie := GroupTies([]fixture.Fixture{
		played("l1", 1, 1, "A", "B", 1, 0),
		played("l2", 2, 2, "B", "A", 1, 0),
	})[0]
	if tie.GoalsA != 1 || tie.GoalsB != 1 || tie.AwayGoalsA != 0 || tie.AwayGoalsB != 0 {
		t.Fatalf("unexpected tie totals %+v", tie)
	}

	// A wins 1-0 at home, B wins 2-1 at home: A scored once away, B never did.
	tie = GroupTies([]fixture.Fixture{
		played("l1", 1, 1, "A", "B", 1, 0),
		played("l2", 2, 2, "B", "A", 2, 1),
	})[0]
	got, err := newResolver(&recordingBreaker{}).ResolveTie(context.Background(), tie, true)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.WinnerID != "A" || got.LoserID != "B" || got.Method != MethodAwayGoals {
		t.Fatalf("expected A on away goals, got %+v", got)
	}
}

func TestResolveTie_SingleLegAndCancelledLegs(t *testing.T) {
	resolver := newResolver(&recordingBreaker{winner: func(tie Tie) string { return tie.TeamB }})

	single := GroupTies([]fixture.Fixture{played("f", 1, 0, "A", "B", 0, 2)})[0]
	got, err := resolver.ResolveTie(context.Background(), single, false)
	if err != nil || got.WinnerID != "B" || got.Method != MethodScore {
		t.Fatalf("expected B on score, got %+v err=%v", got, err)
	}

	draw := GroupTies([]fixture.Fixture{played("f", 1, 0, "A", "B", 2, 2)})[0]
	got, err = resolver.ResolveTie(context.Background(), draw, false)
	if err != nil || got.WinnerID != "B" || got.Method != MethodLot {
		t.Fatalf("single-leg draw must not use away goals, got %+v err=%v", got, err)
	}

	cancelled := fixture.Fixture{ID: "l2", TournamentID: "cup-1", PhaseOrder: 2, Round: 2, Leg: 2, HomeTeamID: "B", AwayTeamID: "A", Status: fixture.StatusCancelled}
	oneLeg := GroupTies([]fixture.Fixture{played("l1", 1, 1, "A", "B", 0, 1), cancelled})[0]
	got, err = resolver.ResolveTie(context.Background(), oneLeg, true)
	if err != nil || got.WinnerID != "B" || got.Method != MethodAggregate {
		t.Fatalf("expected cancelled leg to be skipped, got %+v err=%v", got, err)
	}

	noLegs := GroupTies([]fixture.Fixture{cancelled})[0]
	got, err = resolver.ResolveTie(context.Background(), noLegs, true)
	if err != nil || got.Method != MethodLot {
		t.Fatalf("expected breaker for tie without played legs, got %+v err=%v", got, err)
	}
}

func TestResolveTie_BreakerErrors(t *testing.T) {
	tie := GroupTies([]fixture.Fixture{played("f", 1, 0, "A", "B", 1, 1)})[0]

	boom := errors.New("roster offline")
	_, err := newResolver(&recordingBreaker{err: boom}).ResolveTie(context.Background(), tie, false)
	if !errors.Is(err, boom) {
		t.Fatalf("expected breaker error, got %v", err)
	}

	_, err = newResolver(&recordingBreaker{winner: func(Tie) string { return "C" }}).ResolveTie(context.Background(), tie, false)
	if err == nil {
		t.Fatalf("expected error for winner outside the tie")
	}
}

func TestLotTieBreaker_NamesTheLot(t *testing.T) {
	tie := Tie{TeamA: "A", TeamB: "B"}
	got, err := NewLotTieBreaker(random.New(5), logging.NewNop()).BreakTie(context.Background(), tie)
	if err != nil {
		t.Fatalf("break: %v", err)
	}
	if got.Method != MethodLot || (got.WinnerID != "A" && got.WinnerID != "B") {
		t.Fatalf("unexpected decision %+v", got)
	}
}

type stubRoster map[string][]string

func (s stubRoster) StartingLineup(_ context.Context, teamID string) ([]string, error) {
	lineup, ok := s[teamID]
	if !ok {
		return nil, fmt.Errorf("unknown team %s", teamID)
	}
	return lineup, nil
}

// homeSideScores lets players whose id starts with "a" score and everyone else miss.
type homeSideScores struct{}

func (homeSideScores) TakePenalty(_ context.Context, playerID string) (bool, string, error) {
	return playerID[0] == 'a', playerID + " steps up", nil
}

func TestShootoutTieBreaker_RunsShootout(t *testing.T) {
	roster := stubRoster{"A": {"a1", "a2", "a3"}, "B": {"b1", "b2", "b3"}}
	breaker := NewShootoutTieBreaker(roster, homeSideScores{}, random.New(1), logging.NewNop())

	got, err := breaker.BreakTie(context.Background(), Tie{TeamA: "A", TeamB: "B"})
	if err != nil {
		t.Fatalf("break: %v", err)
	}
	if got.WinnerID != "A" || got.Method != MethodPenalties || got.Shootout == nil {
		t.Fatalf("unexpected decision %+v", got)
	}
	if got.Shootout.ScoreA != 3 || got.Shootout.ScoreB != 0 || got.Shootout.Rounds != 3 {
		t.Fatalf("expected early 3-0 finish, got %+v", got.Shootout)
	}

	_, err = breaker.BreakTie(context.Background(), Tie{TeamA: "A", TeamB: "X"})
	if err == nil {
		t.Fatalf("expected roster error")
	}
}

func TestOutcome_RecordKeepsShootout(t *testing.T) {
	roster := stubRoster{"A": {"a1", "a2", "a3"}, "B": {"b1", "b2", "b3"}}
	breaker := NewShootoutTieBreaker(roster, homeSideScores{}, random.New(1), logging.NewNop())
	tie := Tie{TeamA: "A", TeamB: "B", GoalsA: 2, GoalsB: 2, AwayGoalsA: 1, AwayGoalsB: 1}

	decision, err := breaker.BreakTie(context.Background(), tie)
	if err != nil {
		t.Fatalf("break: %v", err)
	}
	rec := Outcome{Tie: tie, WinnerID: decision.WinnerID, LoserID: "B", Method: decision.Method, Shootout: decision.Shootout}.Record()

	if rec.Method != "PENALTIES" || rec.WinnerID != "A" || rec.LoserID != "B" || rec.GoalsA != 2 || rec.AwayGoalsB != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Shootout == nil || rec.Shootout.ScoreA != 3 || rec.Shootout.ScoreB != 0 || rec.Shootout.Rounds != 3 {
		t.Fatalf("expected 3-0 shootout on the record, got %+v", rec.Shootout)
	}
	if len(rec.Shootout.Kicks) != len(decision.Shootout.Kicks) {
		t.Fatalf("expected %d kicks, got %d", len(decision.Shootout.Kicks), len(rec.Shootout.Kicks))
	}
	first := rec.Shootout.Kicks[0]
	if first.TeamID != "A" || first.PlayerID != "a1" || !first.Scored || first.Commentary != "a1 steps up" {
		t.Fatalf("unexpected first kick %+v", first)
	}
}

func newCup(t *testing.T) tournament.Tournament {
	t.Helper()

	format, err := tournament.NewFormat(tournament.Rules{LeagueRounds: 3, DirectSlots: 2, PlayoffSlots: 4, TwoLeggedKnockout: true})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	item, err := tournament.New(tournament.NewParams{
		ID:       "cup-1",
		Season:   2027,
		TeamIDs:  entrants(8),
		Format:   format,
		DrawSeed: 1,
		DrawnAt:  testNow,
		Now:      testNow,
	})
	if err != nil {
		t.Fatalf("new tournament: %v", err)
	}

	dates, _ := weeklyCalendar{}.PhaseDates(context.Background(), format.First(), testNow)
	plan, err := schedule.GenerateLeaguePhase(pairing.NewGenerator(random.New(2), 100), schedule.LeaguePhaseInput{
		TournamentID: item.ID,
		PhaseOrder:   1,
		TeamIDs:      item.TeamIDs,
		RoundCount:   3,
		Dates:        dates,
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	item.AddFixtures(plan.Fixtures)
	return item
}

func playPhase(t *testing.T, item *tournament.Tournament, order int, score func(fixture.Fixture) (int, int)) {
	t.Helper()
	for _, f := range item.FixturesForPhase(order) {
		home, away := score(f)
		if _, err := item.RecordResult(f.ID, home, away, testNow); err != nil {
			t.Fatalf("record %s: %v", f.ID, err)
		}
	}
}

func TestResolvePhase_RunsToChampion(t *testing.T) {
	item := newCup(t)
	resolver := newResolver(NewLotTieBreaker(random.New(8), logging.NewNop()))
	ctx := context.Background()

	playPhase(t, &item, 1, func(f fixture.Fixture) (int, int) {
		if f.HomeTeamID < f.AwayTeamID {
			return 2, 0
		}
		return 0, 1
	})
	advanced, err := progression.TryAdvance(&item, testNow)
	if err != nil || advanced.Status != progression.StatusAdvanced {
		t.Fatalf("advance: %+v err=%v", advanced, err)
	}
	direct := advanced.Partition.Direct

	count, err := resolver.OpenPhase(ctx, &item, 2)
	if err != nil {
		t.Fatalf("open playoff: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 playoff fixtures, got %d", count)
	}

	notReady, err := resolver.ResolvePhase(ctx, &item, 2, testNow)
	if err != nil || notReady.Status != ResolutionNotReady || notReady.Pending != 4 {
		t.Fatalf("expected not ready, got %+v err=%v", notReady, err)
	}

	// every leg is a 1-0 home win, so both playoff ties go to the lot
	playPhase(t, &item, 2, func(fixture.Fixture) (int, int) { return 1, 0 })
	playoff, err := resolver.ResolvePhase(ctx, &item, 2, testNow)
	if err != nil {
		t.Fatalf("resolve playoff: %v", err)
	}
	if playoff.Status != ResolutionNextPhaseCreated || playoff.NextPhaseOrder != 3 || len(playoff.Winners) != 2 {
		t.Fatalf("unexpected playoff resolution %+v", playoff)
	}
	for _, outcome := range playoff.Outcomes {
		if outcome.Method != MethodLot {
			t.Fatalf("expected lots in the playoff, got %s", outcome.Method)
		}
	}
	playoffPhase, _ := item.Phase(2)
	if len(playoffPhase.Ties) != len(playoff.Outcomes) {
		t.Fatalf("expected %d tie records on the phase, got %+v", len(playoff.Outcomes), playoffPhase.Ties)
	}
	for i, rec := range playoffPhase.Ties {
		outcome := playoff.Outcomes[i]
		if rec.Method != string(MethodLot) || rec.WinnerID != outcome.WinnerID || rec.LoserID != outcome.LoserID {
			t.Fatalf("tie record %d does not match outcome: %+v vs %+v", i, rec, outcome)
		}
		if rec.GoalsA != 1 || rec.GoalsB != 1 || rec.Shootout != nil {
			t.Fatalf("expected 1-1 aggregate without shootout, got %+v", rec)
		}
	}

	semis := item.EntrantsFor(3)
	if len(semis) != 4 {
		t.Fatalf("expected 4 semi-finalists, got %v", semis)
	}
	for _, teamID := range append(direct, playoff.Winners...) {
		found := false
		for _, entrant := range semis {
			found = found || entrant == teamID
		}
		if !found {
			t.Fatalf("expected %s among semi-finalists %v", teamID, semis)
		}
	}
	if _, err := resolver.ResolvePhase(ctx, &item, 2, testNow); !errors.Is(err, ErrPhaseResolved) {
		t.Fatalf("expected ErrPhaseResolved, got %v", err)
	}

	playPhase(t, &item, 3, func(f fixture.Fixture) (int, int) {
		if f.Leg == 1 {
			return 2, 0
		}
		return 1, 0
	})
	semiResult, err := resolver.ResolvePhase(ctx, &item, 3, testNow)
	if err != nil || semiResult.Status != ResolutionNextPhaseCreated || semiResult.NextPhaseOrder != 4 {
		t.Fatalf("unexpected semi-final resolution %+v err=%v", semiResult, err)
	}

	final := item.FixturesForPhase(4)
	if len(final) != 1 {
		t.Fatalf("expected single-leg final, got %d fixtures", len(final))
	}
	playPhase(t, &item, 4, func(fixture.Fixture) (int, int) { return 3, 1 })
	got, err := resolver.ResolvePhase(ctx, &item, 4, testNow)
	if err != nil {
		t.Fatalf("resolve final: %v", err)
	}
	if got.Status != ResolutionChampionDeclared || got.ChampionID != final[0].HomeTeamID || got.RunnerUpID != final[0].AwayTeamID {
		t.Fatalf("unexpected final resolution %+v", got)
	}
	if item.ChampionID != got.ChampionID || !item.IsCompleted() {
		t.Fatalf("expected completed tournament with champion, got %+v", item)
	}

	alive := 0
	for _, entry := range item.Entries {
		if !entry.Eliminated {
			alive++
			if entry.TeamID != item.ChampionID {
				t.Fatalf("only the champion may stay alive, got %s", entry.TeamID)
			}
		}
	}
	if alive != 1 {
		t.Fatalf("expected one team alive, got %d", alive)
	}
	if runnerUp, _ := item.Entry(item.RunnerUpID); runnerUp.EliminatedInPhase != 4 {
		t.Fatalf("expected runner-up out in the final, got %+v", runnerUp)
	}
}

func TestOpenPhase_TeamCountMismatch(t *testing.T) {
	item := newCup(t)
	for i := range item.Entries {
		item.Entries[i].CurrentPhaseOrder = 2
	}

	_, err := newResolver(&recordingBreaker{}).OpenPhase(context.Background(), &item, 2)
	if !errors.Is(err, ErrTeamCountMismatch) {
		t.Fatalf("expected ErrTeamCountMismatch, got %v", err)
	}
	if _, err := newResolver(&recordingBreaker{}).OpenPhase(context.Background(), &item, 9); !errors.Is(err, tournament.ErrPhaseNotFound) {
		t.Fatalf("expected ErrPhaseNotFound, got %v", err)
	}
}
