package knockout

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/continental-cup/internal/domain/collaborator"
	"github.com/riskibarqy/continental-cup/internal/domain/shootout"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
	"github.com/riskibarqy/continental-cup/internal/platform/random"
)

// Decision is what a tie breaker settled on.
type Decision struct {
	WinnerID string
	Method   Method
	Shootout *shootout.Result
}

// TieBreaker settles a tie that is level after score, aggregate and away goals.
type TieBreaker interface {
	BreakTie(ctx context.Context, tie Tie) (Decision, error)
}

// LotTieBreaker decides by drawing lots.
type LotTieBreaker struct {
	src    random.Source
	logger *logging.Logger
}

func NewLotTieBreaker(src random.Source, logger *logging.Logger) *LotTieBreaker {
	return &LotTieBreaker{src: src, logger: logger}
}

func (b *LotTieBreaker) BreakTie(ctx context.Context, tie Tie) (Decision, error) {
	winner := tie.TeamB
	if random.Coin(b.src) {
		winner = tie.TeamA
	}
	b.logger.WarnContext(ctx, "knockout tie decided by lot",
		"tournament_id", tie.TournamentID,
		"phase_order", tie.PhaseOrder,
		"team_a", tie.TeamA,
		"team_b", tie.TeamB,
		"winner_id", winner,
	)
	return Decision{WinnerID: winner, Method: MethodLot}, nil
}

// ShootoutTieBreaker runs a penalty shootout between the two starting lineups.
type ShootoutTieBreaker struct {
	roster collaborator.RosterProvider
	taker  collaborator.PenaltyTaker
	src    random.Source
	logger *logging.Logger
}

func NewShootoutTieBreaker(roster collaborator.RosterProvider, taker collaborator.PenaltyTaker, src random.Source, logger *logging.Logger) *ShootoutTieBreaker {
	return &ShootoutTieBreaker{roster: roster, taker: taker, src: src, logger: logger}
}

func (b *ShootoutTieBreaker) BreakTie(ctx context.Context, tie Tie) (Decision, error) {
	lineupA, err := b.roster.StartingLineup(ctx, tie.TeamA)
	if err != nil {
		return Decision{}, crerr.Wrapf(err, "starting lineup team=%s", tie.TeamA)
	}
	lineupB, err := b.roster.StartingLineup(ctx, tie.TeamB)
	if err != nil {
		return Decision{}, crerr.Wrapf(err, "starting lineup team=%s", tie.TeamB)
	}

	result, err := shootout.Run(ctx, b.taker,
		shootout.Lineup{TeamID: tie.TeamA, PlayerIDs: lineupA},
		shootout.Lineup{TeamID: tie.TeamB, PlayerIDs: lineupB},
		b.src,
	)
	if err != nil {
		return Decision{}, crerr.Wrapf(err, "penalty shootout %s vs %s", tie.TeamA, tie.TeamB)
	}

	if result.Capped {
		b.logger.WarnContext(ctx, "penalty shootout reached sudden death cap, decided by lot",
			"tournament_id", tie.TournamentID,
			"phase_order", tie.PhaseOrder,
			"winner_id", result.WinnerID,
			"rounds", result.Rounds,
		)
	}
	b.logger.InfoContext(ctx, "knockout tie decided on penalties",
		"tournament_id", tie.TournamentID,
		"phase_order", tie.PhaseOrder,
		"winner_id", result.WinnerID,
		"score", []int{result.ScoreA, result.ScoreB},
	)
	return Decision{WinnerID: result.WinnerID, Method: MethodPenalties, Shootout: &result}, nil
}
