package knockout

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/continental-cup/internal/domain/collaborator"
	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
)

var ErrPhaseResolved = crerr.New("knockout phase already resolved")

type ResolutionStatus string

const (
	ResolutionNotReady         ResolutionStatus = "NOT_READY"
	ResolutionNextPhaseCreated ResolutionStatus = "NEXT_PHASE_CREATED"
	ResolutionChampionDeclared ResolutionStatus = "CHAMPION_DECLARED"
)

type Resolution struct {
	Status         ResolutionStatus
	PhaseOrder     int
	Outcomes       []Outcome
	Winners        []string
	NextPhaseOrder int
	ChampionID     string
	RunnerUpID     string
	// Pending is the number of fixtures still scheduled when not ready.
	Pending int
}

// Resolver decides knockout ties and draws the following phase.
type Resolver struct {
	brackets *BracketGenerator
	breaker  TieBreaker
	calendar collaborator.Calendar
	logger   *logging.Logger
}

func NewResolver(brackets *BracketGenerator, breaker TieBreaker, calendar collaborator.Calendar, logger *logging.Logger) *Resolver {
	return &Resolver{
		brackets: brackets,
		breaker:  breaker,
		calendar: calendar,
		logger:   logger,
	}
}

// OpenPhase draws the bracket of a knockout phase over every alive team waiting in it.
// A phase that already has fixtures is left alone.
func (r *Resolver) OpenPhase(ctx context.Context, t *tournament.Tournament, order int) (int, error) {
	tpl, ok := t.Format.Template(order)
	if !ok {
		return 0, crerr.Wrapf(tournament.ErrPhaseNotFound, "tournament=%s phase=%d", t.ID, order)
	}
	if !tpl.IsKnockout {
		return 0, crerr.Wrapf(ErrNotKnockout, "tournament=%s phase=%d", t.ID, order)
	}
	t.EnsurePhase(tpl)
	if existing := t.FixturesForPhase(order); len(existing) > 0 {
		return len(existing), nil
	}

	dates, err := r.calendar.PhaseDates(ctx, tpl, t.LastScheduledAt())
	if err != nil {
		return 0, crerr.Wrapf(err, "phase dates tournament=%s phase=%d", t.ID, order)
	}
	fixtures, err := r.brackets.GenerateBracket(t.ID, t.EntrantsFor(order), tpl, dates)
	if err != nil {
		return 0, err
	}
	t.AddFixtures(fixtures)

	r.logger.InfoContext(ctx, "knockout bracket drawn",
		"tournament_id", t.ID,
		"phase_order", order,
		"phase", tpl.Name,
		"fixtures", len(fixtures),
	)
	return len(fixtures), nil
}

// ResolvePhase decides every tie of a completed knockout phase. Losers are eliminated and
// winners move on; after the last phase the champion and runner-up are set on the tournament,
// otherwise the next phase is drawn.
func (r *Resolver) ResolvePhase(ctx context.Context, t *tournament.Tournament, order int, now time.Time) (Resolution, error) {
	phase, err := t.Phase(order)
	if err != nil {
		return Resolution{}, err
	}
	tpl := phase.Template
	if !tpl.IsKnockout {
		return Resolution{}, crerr.Wrapf(ErrNotKnockout, "tournament=%s phase=%d", t.ID, order)
	}
	if phase.Status == tournament.PhaseStatusCompleted {
		return Resolution{}, crerr.Wrapf(ErrPhaseResolved, "tournament=%s phase=%d", t.ID, order)
	}
	if !t.PhaseComplete(order) {
		return Resolution{Status: ResolutionNotReady, PhaseOrder: order, Pending: t.PendingFixtures(order)}, nil
	}

	ties := GroupTies(t.FixturesForPhase(order))
	out := Resolution{PhaseOrder: order, Outcomes: make([]Outcome, 0, len(ties))}
	seen := make(map[string]struct{}, len(ties))
	for _, tie := range ties {
		outcome, err := r.ResolveTie(ctx, tie, tpl.IsTwoLegged)
		if err != nil {
			return Resolution{}, err
		}
		out.Outcomes = append(out.Outcomes, outcome)
		if _, dup := seen[outcome.WinnerID]; dup {
			continue
		}
		seen[outcome.WinnerID] = struct{}{}
		out.Winners = append(out.Winners, outcome.WinnerID)
	}

	next, hasNext := t.Format.Next(order)
	for _, outcome := range out.Outcomes {
		if entry, ok := t.Entry(outcome.LoserID); ok {
			entry.Eliminated = true
			entry.EliminatedInPhase = order
		}
		if entry, ok := t.Entry(outcome.WinnerID); ok && hasNext {
			entry.CurrentPhaseOrder = next.Order
		}
	}

	records := make([]tournament.TieRecord, 0, len(out.Outcomes))
	for _, outcome := range out.Outcomes {
		records = append(records, outcome.Record())
	}
	phase.Ties = records

	if err := t.CompletePhase(order, now); err != nil {
		return Resolution{}, err
	}
	t.UpdatedAt = now.UTC()

	if !hasNext {
		if len(out.Winners) != 1 || len(out.Outcomes) != 1 {
			return Resolution{}, crerr.Wrapf(ErrTeamCountMismatch, "final of tournament=%s produced %d winners", t.ID, len(out.Winners))
		}
		t.ChampionID = out.Outcomes[0].WinnerID
		t.RunnerUpID = out.Outcomes[0].LoserID
		out.Status = ResolutionChampionDeclared
		out.ChampionID = t.ChampionID
		out.RunnerUpID = t.RunnerUpID

		r.logger.InfoContext(ctx, "champion declared",
			"tournament_id", t.ID,
			"champion_id", t.ChampionID,
			"runner_up_id", t.RunnerUpID,
			"method", out.Outcomes[0].Method,
		)
		return out, nil
	}

	if _, err := r.OpenPhase(ctx, t, next.Order); err != nil {
		return Resolution{}, err
	}
	out.Status = ResolutionNextPhaseCreated
	out.NextPhaseOrder = next.Order

	r.logger.InfoContext(ctx, "knockout phase resolved",
		"tournament_id", t.ID,
		"phase_order", order,
		"winners", len(out.Winners),
		"next_phase_order", next.Order,
	)
	return out, nil
}

// ResolveTie applies score or aggregate, then away goals for two-legged ties, and hands a
// level tie to the tie breaker.
func (r *Resolver) ResolveTie(ctx context.Context, tie Tie, twoLegged bool) (Outcome, error) {
	if winner, method, ok := decideOnGoals(tie, twoLegged); ok {
		return Outcome{Tie: tie, WinnerID: winner, LoserID: tie.other(winner), Method: method}, nil
	}

	decision, err := r.breaker.BreakTie(ctx, tie)
	if err != nil {
		return Outcome{}, crerr.Wrapf(err, "break tie %s vs %s", tie.TeamA, tie.TeamB)
	}
	if decision.WinnerID != tie.TeamA && decision.WinnerID != tie.TeamB {
		return Outcome{}, crerr.Newf("tie breaker picked %q outside tie %s vs %s", decision.WinnerID, tie.TeamA, tie.TeamB)
	}
	return Outcome{
		Tie:      tie,
		WinnerID: decision.WinnerID,
		LoserID:  tie.other(decision.WinnerID),
		Method:   decision.Method,
		Shootout: decision.Shootout,
	}, nil
}
