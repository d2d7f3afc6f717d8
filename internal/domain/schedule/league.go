package schedule

import (
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/domain/pairing"
)

var (
	ErrInvalidRoundCount = crerr.New("invalid round count")
	ErrNoDates           = crerr.New("no calendar dates")
)

// LeaguePhaseInput describes one league phase to schedule.
type LeaguePhaseInput struct {
	TournamentID string
	PhaseOrder   int
	TeamIDs      []string
	RoundCount   int
	// Dates are the calendar slots the rounds are spread over, in order.
	Dates []time.Time
}

// Schedule is the generated league phase.
type Schedule struct {
	Fixtures       []fixture.Fixture
	Rounds         []pairing.Round
	ForcedRepeats  int
	FallbackRounds int
}

// GenerateLeaguePhase runs the pairing generator once per round, feeding every accepted pair
// back into the history so later rounds avoid it. Round counts above len(teams)-1 are allowed;
// they only make forced repeats more likely.
func GenerateLeaguePhase(gen *pairing.Generator, input LeaguePhaseInput) (Schedule, error) {
	if input.RoundCount < 1 {
		return Schedule{}, crerr.Wrapf(ErrInvalidRoundCount, "round count must be >= 1, got %d", input.RoundCount)
	}
	if len(input.Dates) == 0 {
		return Schedule{}, crerr.Wrapf(ErrNoDates, "tournament=%s phase=%d", input.TournamentID, input.PhaseOrder)
	}

	history := pairing.NewHistory()
	out := Schedule{
		Fixtures: make([]fixture.Fixture, 0, input.RoundCount*len(input.TeamIDs)/2),
		Rounds:   make([]pairing.Round, 0, input.RoundCount),
	}

	for roundNo := 1; roundNo <= input.RoundCount; roundNo++ {
		round, err := gen.GenerateRound(input.TeamIDs, history)
		if err != nil {
			return Schedule{}, crerr.Wrapf(err, "generate round %d", roundNo)
		}
		history.RecordRound(round)

		if round.UsedFallback {
			out.FallbackRounds++
		}
		out.ForcedRepeats += round.ForcedRepeats
		out.Rounds = append(out.Rounds, round)

		date := RoundDate(input.Dates, roundNo, input.RoundCount)
		for idx, p := range round.Pairs {
			out.Fixtures = append(out.Fixtures, fixture.Fixture{
				ID:           fixture.NewID(input.TournamentID, input.PhaseOrder, roundNo, idx+1),
				TournamentID: input.TournamentID,
				PhaseOrder:   input.PhaseOrder,
				Round:        roundNo,
				HomeTeamID:   p.HomeTeamID,
				AwayTeamID:   p.AwayTeamID,
				ScheduledAt:  date,
				Status:       fixture.StatusScheduled,
			})
		}
	}

	return out, nil
}

// RoundDate spreads roundCount rounds evenly across dates.
func RoundDate(dates []time.Time, roundNo, roundCount int) time.Time {
	if len(dates) == 0 {
		return time.Time{}
	}
	if roundCount < 1 {
		roundCount = 1
	}
	idx := (roundNo - 1) * len(dates) / roundCount
	if idx >= len(dates) {
		idx = len(dates) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return dates[idx]
}
