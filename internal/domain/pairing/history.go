package pairing

import "github.com/riskibarqy/continental-cup/internal/domain/fixture"

// History tracks the pairings and home appearances accumulated across rounds.
type History struct {
	pairs map[fixture.PairKey]int
	homes map[string]int
}

func NewHistory() *History {
	return &History{
		pairs: make(map[fixture.PairKey]int),
		homes: make(map[string]int),
	}
}

// HistoryFromFixtures seeds a history from already generated fixtures.
func HistoryFromFixtures(fixtures []fixture.Fixture) *History {
	h := NewHistory()
	for _, item := range fixtures {
		h.Record(Pair{HomeTeamID: item.HomeTeamID, AwayTeamID: item.AwayTeamID})
	}
	return h
}

func (h *History) Used(a, b string) bool {
	return h.pairs[fixture.NewPairKey(a, b)] > 0
}

func (h *History) Homes(teamID string) int {
	return h.homes[teamID]
}

func (h *History) Record(p Pair) {
	h.pairs[fixture.NewPairKey(p.HomeTeamID, p.AwayTeamID)]++
	h.homes[p.HomeTeamID]++
}

func (h *History) RecordRound(r Round) {
	for _, p := range r.Pairs {
		h.Record(p)
	}
}
