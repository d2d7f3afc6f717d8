// Package collaborator holds the narrow contracts the cup engine consumes from surrounding systems.
package collaborator

import (
	"context"
	"time"

	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
)

// RosterProvider returns a team's starting lineup in kicking order.
type RosterProvider interface {
	StartingLineup(ctx context.Context, teamID string) ([]string, error)
}

// PenaltyTaker resolves one penalty kick. Commentary is display text only.
type PenaltyTaker interface {
	TakePenalty(ctx context.Context, playerID string) (scored bool, commentary string, err error)
}

// ScoreSimulator produces the final score of a fixture.
type ScoreSimulator interface {
	SimulateScore(ctx context.Context, item fixture.Fixture) (homeGoals, awayGoals int, err error)
}

// Award is sent once when a final is resolved.
type Award struct {
	TournamentID   string    `json:"tournament_id"`
	TournamentName string    `json:"tournament_name"`
	Season         int       `json:"season"`
	ChampionID     string    `json:"champion_id"`
	RunnerUpID     string    `json:"runner_up_id"`
	DecidedAt      time.Time `json:"decided_at"`
}

// RewardNotifier grants competition prizes.
type RewardNotifier interface {
	ChampionDeclared(ctx context.Context, award Award) error
}

// Calendar maps a phase onto real dates: RoundCount dates, all after the given instant.
type Calendar interface {
	PhaseDates(ctx context.Context, tpl tournament.PhaseTemplate, after time.Time) ([]time.Time, error)
}
