package standing

import (
	"slices"
	"sort"

	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/platform/random"
)

// Recompute rebuilds every row from the played fixtures and ranks them.
// Counters are never carried over from a previous run, so calling it twice with the same
// fixtures and an equally seeded lots source yields identical rows.
// Fixtures that are not played or involve a team outside teamIDs are ignored.
// When lots is nil the final tiebreak falls back to team id order.
func Recompute(tournamentID string, teamIDs []string, fixtures []fixture.Fixture, lots random.Source) []Standing {
	rows := make(map[string]*Standing, len(teamIDs))
	order := make([]string, 0, len(teamIDs))
	for _, teamID := range teamIDs {
		if _, exists := rows[teamID]; exists || teamID == "" {
			continue
		}
		rows[teamID] = &Standing{TournamentID: tournamentID, TeamID: teamID}
		order = append(order, teamID)
	}

	for _, item := range fixtures {
		if !item.IsPlayed() {
			continue
		}
		home, okHome := rows[item.HomeTeamID]
		away, okAway := rows[item.AwayTeamID]
		if !okHome || !okAway {
			continue
		}
		homeGoals, awayGoals := item.Score()
		apply(home, homeGoals, awayGoals)
		apply(away, awayGoals, homeGoals)
	}

	lot := drawLots(order, lots)
	out := make([]Standing, 0, len(order))
	for _, teamID := range order {
		row := rows[teamID]
		row.GoalDifference = row.GoalsFor - row.GoalsAgainst
		out = append(out, *row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := compare(out[i], out[j]); c != 0 {
			return c < 0
		}
		return lot[out[i].TeamID] < lot[out[j].TeamID]
	})

	for i := range out {
		out[i].Rank = i + 1
		if i > 0 && compare(out[i-1], out[i]) == 0 {
			out[i-1].DecidedByLot = true
			out[i].DecidedByLot = true
		}
	}

	return out
}

func apply(row *Standing, scored, conceded int) {
	row.Played++
	row.GoalsFor += scored
	row.GoalsAgainst += conceded
	switch {
	case scored > conceded:
		row.Won++
		row.Points += PointsWin
	case scored == conceded:
		row.Drawn++
		row.Points += PointsDraw
	default:
		row.Lost++
	}
}

// compare orders by points, goal difference, goals for and wins, all descending.
func compare(a, b Standing) int {
	switch {
	case a.Points != b.Points:
		return b.Points - a.Points
	case a.GoalDifference != b.GoalDifference:
		return b.GoalDifference - a.GoalDifference
	case a.GoalsFor != b.GoalsFor:
		return b.GoalsFor - a.GoalsFor
	default:
		return b.Won - a.Won
	}
}

func drawLots(teamIDs []string, lots random.Source) map[string]int {
	sorted := append([]string(nil), teamIDs...)
	slices.Sort(sorted)
	if lots != nil {
		sorted = random.ShuffleStrings(lots, sorted)
	}

	out := make(map[string]int, len(sorted))
	for idx, teamID := range sorted {
		out[teamID] = idx
	}
	return out
}

// RankedTeamIDs returns team ids ordered by rank.
func RankedTeamIDs(rows []Standing) []string {
	sorted := append([]Standing(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rank < sorted[j].Rank
	})

	out := make([]string, 0, len(sorted))
	for _, row := range sorted {
		out = append(out, row.TeamID)
	}
	return out
}

// LotDecided reports whether any adjacent rows were separated only by lot.
func LotDecided(rows []Standing) bool {
	for _, row := range rows {
		if row.DecidedByLot {
			return true
		}
	}
	return false
}
