package pairing

import (
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/continental-cup/internal/platform/random"
)

const DefaultAttemptBudget = 2000

var ErrInvalidPairing = crerr.New("invalid pairing")

// Pair is one match assignment inside a round.
type Pair struct {
	HomeTeamID string
	AwayTeamID string
	// Repeat is set when the pair had already met and the fallback had no alternative.
	Repeat bool
}

// Round is one perfect matching over the team set.
type Round struct {
	Pairs         []Pair
	Attempts      int
	UsedFallback  bool
	ForcedRepeats int
}

type Generator struct {
	src      random.Source
	attempts int
}

func NewGenerator(src random.Source, attempts int) *Generator {
	if attempts < 1 {
		attempts = DefaultAttemptBudget
	}
	return &Generator{src: src, attempts: attempts}
}

// GenerateRound pairs every team exactly once while avoiding pairs recorded in history.
// Random shuffles are tried up to the attempt budget; after that a greedy pass accepts
// repeated pairs rather than failing. History is read, never written.
func (g *Generator) GenerateRound(teamIDs []string, history *History) (Round, error) {
	if err := validateTeams(teamIDs); err != nil {
		return Round{}, err
	}
	if history == nil {
		history = NewHistory()
	}

	for attempt := 1; attempt <= g.attempts; attempt++ {
		shuffled := random.ShuffleStrings(g.src, teamIDs)
		if !repeatFree(shuffled, history) {
			continue
		}

		round := Round{Attempts: attempt, Pairs: make([]Pair, 0, len(shuffled)/2)}
		for i := 0; i < len(shuffled); i += 2 {
			round.Pairs = append(round.Pairs, g.orient(shuffled[i], shuffled[i+1], history, false))
		}
		return round, nil
	}

	round := g.greedy(teamIDs, history)
	round.Attempts = g.attempts
	return round, nil
}

func (g *Generator) greedy(teamIDs []string, history *History) Round {
	remaining := random.ShuffleStrings(g.src, teamIDs)
	round := Round{UsedFallback: true, Pairs: make([]Pair, 0, len(remaining)/2)}

	for len(remaining) > 0 {
		team := remaining[0]
		partnerIdx := -1
		for idx := 1; idx < len(remaining); idx++ {
			if !history.Used(team, remaining[idx]) {
				partnerIdx = idx
				break
			}
		}

		repeat := false
		if partnerIdx < 0 {
			partnerIdx = 1
			repeat = true
			round.ForcedRepeats++
		}

		round.Pairs = append(round.Pairs, g.orient(team, remaining[partnerIdx], history, repeat))
		remaining = append(remaining[1:partnerIdx], remaining[partnerIdx+1:]...)
	}

	return round
}

// orient hosts the team with fewer home appearances so far; ties go to a coin toss.
func (g *Generator) orient(a, b string, history *History, repeat bool) Pair {
	homesA, homesB := history.Homes(a), history.Homes(b)
	home, away := a, b
	switch {
	case homesB < homesA:
		home, away = b, a
	case homesA == homesB && !random.Coin(g.src):
		home, away = b, a
	}
	return Pair{HomeTeamID: home, AwayTeamID: away, Repeat: repeat}
}

func repeatFree(shuffled []string, history *History) bool {
	for i := 0; i < len(shuffled); i += 2 {
		if history.Used(shuffled[i], shuffled[i+1]) {
			return false
		}
	}
	return true
}

func validateTeams(teamIDs []string) error {
	if len(teamIDs) < 2 {
		return crerr.Wrapf(ErrInvalidPairing, "need at least 2 teams, got %d", len(teamIDs))
	}
	if len(teamIDs)%2 != 0 {
		return crerr.Wrapf(ErrInvalidPairing, "team count must be even, got %d", len(teamIDs))
	}

	seen := make(map[string]struct{}, len(teamIDs))
	for _, teamID := range teamIDs {
		if teamID == "" {
			return crerr.Wrap(ErrInvalidPairing, "team id cannot be empty")
		}
		if _, ok := seen[teamID]; ok {
			return crerr.Wrapf(ErrInvalidPairing, "duplicate team id %s", teamID)
		}
		seen[teamID] = struct{}{}
	}
	return nil
}
