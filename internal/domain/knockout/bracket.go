package knockout

import (
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
	"github.com/riskibarqy/continental-cup/internal/platform/random"
)

var (
	ErrTeamCountMismatch = crerr.New("team count mismatch")
	ErrNotKnockout       = crerr.New("phase is not a knockout phase")
)

const secondLegGap = 7 * 24 * time.Hour

type BracketGenerator struct {
	src random.Source
}

func NewBracketGenerator(src random.Source) *BracketGenerator {
	return &BracketGenerator{src: src}
}

// GenerateBracket shuffles the entrants and pairs them sequentially. Two-legged ties get
// leg 1 in round 1 with the first team at home and leg 2 in round 2 with the second team at
// home on a later date.
func (g *BracketGenerator) GenerateBracket(tournamentID string, teamIDs []string, tpl tournament.PhaseTemplate, dates []time.Time) ([]fixture.Fixture, error) {
	if !tpl.IsKnockout {
		return nil, crerr.Wrapf(ErrNotKnockout, "phase=%d", tpl.Order)
	}
	if len(teamIDs) != tpl.BracketSize {
		return nil, crerr.Wrapf(ErrTeamCountMismatch, "phase=%d expected=%d got=%d", tpl.Order, tpl.BracketSize, len(teamIDs))
	}

	shuffled := random.ShuffleStrings(g.src, teamIDs)
	firstLeg, secondLeg := legDates(dates)

	out := make([]fixture.Fixture, 0, len(shuffled))
	for idx := 0; idx+1 < len(shuffled); idx += 2 {
		a, b := shuffled[idx], shuffled[idx+1]
		match := idx/2 + 1
		if !tpl.IsTwoLegged {
			out = append(out, newFixture(tournamentID, tpl.Order, 1, 0, match, a, b, firstLeg))
			continue
		}
		out = append(out,
			newFixture(tournamentID, tpl.Order, 1, 1, match, a, b, firstLeg),
			newFixture(tournamentID, tpl.Order, 2, 2, match, b, a, secondLeg),
		)
	}
	return out, nil
}

func newFixture(tournamentID string, phaseOrder, round, leg, match int, home, away string, at time.Time) fixture.Fixture {
	return fixture.Fixture{
		ID:           fixture.NewID(tournamentID, phaseOrder, round, match),
		TournamentID: tournamentID,
		PhaseOrder:   phaseOrder,
		Round:        round,
		Leg:          leg,
		HomeTeamID:   home,
		AwayTeamID:   away,
		ScheduledAt:  at,
		Status:       fixture.StatusScheduled,
	}
}

func legDates(dates []time.Time) (time.Time, time.Time) {
	if len(dates) == 0 {
		return time.Time{}, time.Time{}.Add(secondLegGap)
	}
	first := dates[0]
	second := first.Add(secondLegGap)
	if len(dates) > 1 && dates[1].After(first) {
		second = dates[1]
	}
	return first, second
}
