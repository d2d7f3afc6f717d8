package knockout

import (
	"slices"
	"sort"

	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/domain/shootout"
	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
)

// Method names how a tie was decided.
type Method string

const (
	MethodScore     Method = "SCORE"
	MethodAggregate Method = "AGGREGATE"
	MethodAwayGoals Method = "AWAY_GOALS"
	MethodPenalties Method = "PENALTIES"
	MethodLot       Method = "LOT"
)

// Tie is one knockout pairing with its legs. TeamA hosted the first leg.
type Tie struct {
	TournamentID string
	PhaseOrder   int
	TeamA        string
	TeamB        string
	Legs         []fixture.Fixture
	// Goals and AwayGoals only count played legs.
	GoalsA     int
	GoalsB     int
	AwayGoalsA int
	AwayGoalsB int
	PlayedLegs int
}

// Outcome is a decided tie.
type Outcome struct {
	Tie      Tie
	WinnerID string
	LoserID  string
	Method   Method
	Shootout *shootout.Result
}

// Record flattens the outcome into the form kept on the phase.
func (o Outcome) Record() tournament.TieRecord {
	rec := tournament.TieRecord{
		TeamA:      o.Tie.TeamA,
		TeamB:      o.Tie.TeamB,
		WinnerID:   o.WinnerID,
		LoserID:    o.LoserID,
		Method:     string(o.Method),
		GoalsA:     o.Tie.GoalsA,
		GoalsB:     o.Tie.GoalsB,
		AwayGoalsA: o.Tie.AwayGoalsA,
		AwayGoalsB: o.Tie.AwayGoalsB,
	}
	if so := o.Shootout; so != nil {
		kicks := make([]tournament.KickRecord, 0, len(so.Kicks))
		for _, k := range so.Kicks {
			kicks = append(kicks, tournament.KickRecord{
				Round:      k.Round,
				TeamID:     k.TeamID,
				PlayerID:   k.PlayerID,
				Scored:     k.Scored,
				Commentary: k.Commentary,
			})
		}
		rec.Shootout = &tournament.ShootoutRecord{
			ScoreA: so.ScoreA,
			ScoreB: so.ScoreB,
			Rounds: so.Rounds,
			Capped: so.Capped,
			Kicks:  kicks,
		}
	}
	return rec
}

// GroupTies groups fixtures by unordered team pair. The host of the earliest leg becomes TeamA.
func GroupTies(fixtures []fixture.Fixture) []Tie {
	ordered := slices.Clone(fixtures)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Round != ordered[j].Round {
			return ordered[i].Round < ordered[j].Round
		}
		return ordered[i].Leg < ordered[j].Leg
	})

	index := make(map[fixture.PairKey]int)
	out := make([]Tie, 0, len(ordered))
	for _, item := range ordered {
		key := item.Pair()
		idx, ok := index[key]
		if !ok {
			idx = len(out)
			index[key] = idx
			out = append(out, Tie{
				TournamentID: item.TournamentID,
				PhaseOrder:   item.PhaseOrder,
				TeamA:        item.HomeTeamID,
				TeamB:        item.AwayTeamID,
			})
		}
		out[idx].add(item)
	}
	return out
}

func (t *Tie) add(item fixture.Fixture) {
	t.Legs = append(t.Legs, item.Clone())
	if !item.IsPlayed() {
		return
	}

	t.PlayedLegs++
	home, away := item.Score()
	if item.HomeTeamID == t.TeamA {
		t.GoalsA += home
		t.GoalsB += away
		t.AwayGoalsB += away
		return
	}
	t.GoalsA += away
	t.GoalsB += home
	t.AwayGoalsA += away
}

func (t Tie) other(teamID string) string {
	if teamID == t.TeamA {
		return t.TeamB
	}
	return t.TeamA
}

// decideOnGoals applies score, aggregate and away goals. It returns false when the tie is
// still level and needs a tie breaker.
func decideOnGoals(tie Tie, twoLegged bool) (string, Method, bool) {
	if tie.PlayedLegs == 0 {
		return "", "", false
	}

	method := MethodScore
	if twoLegged {
		method = MethodAggregate
	}
	switch {
	case tie.GoalsA > tie.GoalsB:
		return tie.TeamA, method, true
	case tie.GoalsB > tie.GoalsA:
		return tie.TeamB, method, true
	}

	if !twoLegged {
		return "", "", false
	}
	switch {
	case tie.AwayGoalsA > tie.AwayGoalsB:
		return tie.TeamA, MethodAwayGoals, true
	case tie.AwayGoalsB > tie.AwayGoalsA:
		return tie.TeamB, MethodAwayGoals, true
	}
	return "", "", false
}
