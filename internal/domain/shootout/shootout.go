package shootout

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/continental-cup/internal/domain/collaborator"
	"github.com/riskibarqy/continental-cup/internal/platform/random"
)

const (
	RegulationRounds = 5
	// MaxRound caps sudden death so a shootout always terminates.
	MaxRound = 11
)

var (
	ErrEmptyLineup = crerr.New("empty lineup")
	ErrDecided     = crerr.New("shootout already decided")
)

type State string

const (
	StateRegulation  State = "REGULATION"
	StateSuddenDeath State = "SUDDEN_DEATH"
	StateDecided     State = "DECIDED"
)

// Lineup is one side of a shootout; players kick in slice order and the order wraps around.
type Lineup struct {
	TeamID    string
	PlayerIDs []string
}

type Kick struct {
	Round      int
	TeamID     string
	PlayerID   string
	Scored     bool
	Commentary string
}

type Result struct {
	WinnerID string
	LoserID  string
	// ScoreA and ScoreB follow the order the lineups were given in.
	ScoreA int
	ScoreB int
	Rounds int
	Kicks  []Kick
	// Capped is set when sudden death hit MaxRound level and a lot picked the winner.
	Capped bool
}

// Shootout is the kick-by-kick state machine. Side A kicks first in every round.
type Shootout struct {
	a, b   Lineup
	state  State
	round  int
	scoreA int
	scoreB int
	kicks  []Kick
	winner string
	capped bool
}

func New(a, b Lineup) (*Shootout, error) {
	if len(a.PlayerIDs) == 0 {
		return nil, crerr.Wrapf(ErrEmptyLineup, "team=%s", a.TeamID)
	}
	if len(b.PlayerIDs) == 0 {
		return nil, crerr.Wrapf(ErrEmptyLineup, "team=%s", b.TeamID)
	}
	return &Shootout{a: a, b: b, state: StateRegulation, round: 1}, nil
}

func (s *Shootout) State() State {
	return s.state
}

// Round is the number of the next round to be taken.
func (s *Shootout) Round() int {
	return s.round
}

func (s *Shootout) Score() (int, int) {
	return s.scoreA, s.scoreB
}

// PlayRound takes one kick per side and applies the transition for the completed round.
// lots is only consulted when the round closes the sudden-death cap still level.
func (s *Shootout) PlayRound(ctx context.Context, taker collaborator.PenaltyTaker, lots random.Source) error {
	if s.state == StateDecided {
		return ErrDecided
	}

	scored, err := s.kick(ctx, taker, s.a)
	if err != nil {
		return err
	}
	if scored {
		s.scoreA++
	}
	scored, err = s.kick(ctx, taker, s.b)
	if err != nil {
		return err
	}
	if scored {
		s.scoreB++
	}

	s.advance(lots)
	return nil
}

func (s *Shootout) kick(ctx context.Context, taker collaborator.PenaltyTaker, side Lineup) (bool, error) {
	playerID := side.PlayerIDs[(s.round-1)%len(side.PlayerIDs)]
	scored, commentary, err := taker.TakePenalty(ctx, playerID)
	if err != nil {
		return false, crerr.Wrapf(err, "penalty round=%d team=%s player=%s", s.round, side.TeamID, playerID)
	}
	s.kicks = append(s.kicks, Kick{
		Round:      s.round,
		TeamID:     side.TeamID,
		PlayerID:   playerID,
		Scored:     scored,
		Commentary: commentary,
	})
	return scored, nil
}

func (s *Shootout) advance(lots random.Source) {
	completed := s.round
	s.round++

	if s.state == StateRegulation {
		remaining := RegulationRounds - completed
		if abs(s.scoreA-s.scoreB) > remaining {
			s.decide()
			return
		}
		if completed == RegulationRounds {
			s.state = StateSuddenDeath
		}
		return
	}

	if s.scoreA != s.scoreB {
		s.decide()
		return
	}
	if completed >= MaxRound {
		s.capped = true
		s.winner = s.b.TeamID
		if lots == nil || random.Coin(lots) {
			s.winner = s.a.TeamID
		}
		s.state = StateDecided
	}
}

func (s *Shootout) decide() {
	s.state = StateDecided
	s.winner = s.a.TeamID
	if s.scoreB > s.scoreA {
		s.winner = s.b.TeamID
	}
}

// Result is only meaningful once the state is StateDecided.
func (s *Shootout) Result() Result {
	loser := s.b.TeamID
	if s.winner == s.b.TeamID {
		loser = s.a.TeamID
	}
	return Result{
		WinnerID: s.winner,
		LoserID:  loser,
		ScoreA:   s.scoreA,
		ScoreB:   s.scoreB,
		Rounds:   s.round - 1,
		Kicks:    append([]Kick(nil), s.kicks...),
		Capped:   s.capped,
	}
}

// Run plays rounds until the shootout is decided.
func Run(ctx context.Context, taker collaborator.PenaltyTaker, a, b Lineup, lots random.Source) (Result, error) {
	s, err := New(a, b)
	if err != nil {
		return Result{}, err
	}
	for s.State() != StateDecided {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := s.PlayRound(ctx, taker, lots); err != nil {
			return Result{}, err
		}
	}
	return s.Result(), nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
