package progression

import (
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/continental-cup/internal/domain/standing"
	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
)

type Status string

const (
	StatusNotReady Status = "NOT_READY"
	StatusAdvanced Status = "ADVANCED"
)

var ErrNotLeaguePhase = crerr.New("tournament is not in the league phase")

// Partition splits a ranked table into qualification groups.
type Partition struct {
	Direct     []string
	Playoff    []string
	Eliminated []string
}

// Result is the outcome of TryAdvance.
type Result struct {
	Status     Status
	PhaseOrder int
	Partition  Partition
	// Pending is the number of league fixtures still scheduled when not ready.
	Pending int
}

// PartitionStandings is a pure function of rank order: the first directSlots teams qualify
// directly, the next playoffSlots enter the playoff and the rest are out.
func PartitionStandings(rows []standing.Standing, directSlots, playoffSlots int) Partition {
	ranked := standing.RankedTeamIDs(rows)
	out := Partition{
		Direct:     make([]string, 0, directSlots),
		Playoff:    make([]string, 0, playoffSlots),
		Eliminated: make([]string, 0),
	}
	for idx, teamID := range ranked {
		switch {
		case idx < directSlots:
			out.Direct = append(out.Direct, teamID)
		case idx < directSlots+playoffSlots:
			out.Playoff = append(out.Playoff, teamID)
		default:
			out.Eliminated = append(out.Eliminated, teamID)
		}
	}
	return out
}

// TryAdvance closes the league phase once every fixture in it is terminal. It recomputes the
// standings, partitions the teams and moves each entry to its next phase. While fixtures remain
// it returns StatusNotReady and leaves the tournament untouched.
func TryAdvance(t *tournament.Tournament, now time.Time) (Result, error) {
	if t.Stage != tournament.StageLeaguePhase {
		return Result{}, crerr.Wrapf(ErrNotLeaguePhase, "tournament=%s stage=%s", t.ID, t.Stage)
	}

	league := t.Format.First()
	if !t.PhaseComplete(league.Order) {
		return Result{
			Status:     StatusNotReady,
			PhaseOrder: league.Order,
			Pending:    t.PendingFixtures(league.Order),
		}, nil
	}

	rows := t.RecomputeStandings()
	partition := PartitionStandings(rows, t.Format.Rules.DirectSlots, t.Format.Rules.PlayoffSlots)

	directOrder := t.Format.DirectOrder()
	playoffOrder, _ := t.Format.PlayoffOrder()
	for _, teamID := range partition.Direct {
		if entry, ok := t.Entry(teamID); ok {
			entry.CurrentPhaseOrder = directOrder
			entry.DirectQualifier = true
		}
	}
	for _, teamID := range partition.Playoff {
		if entry, ok := t.Entry(teamID); ok {
			entry.CurrentPhaseOrder = playoffOrder
			entry.PlayoffParticipant = true
		}
	}
	for _, teamID := range partition.Eliminated {
		if entry, ok := t.Entry(teamID); ok {
			entry.Eliminated = true
			entry.EliminatedInPhase = league.Order
		}
	}

	if err := t.CompletePhase(league.Order, now); err != nil {
		return Result{}, err
	}
	t.UpdatedAt = now.UTC()

	return Result{Status: StatusAdvanced, PhaseOrder: league.Order, Partition: partition}, nil
}
