package tournament

import (
	"slices"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// NewParams carries everything needed to open a tournament.
type NewParams struct {
	ID       string
	Name     string
	Season   int
	TeamIDs  []string
	Format   Format
	DrawSeed int64
	DrawnAt  time.Time
	Now      time.Time
}

// New instantiates every phase template, one entry and one zeroed standing per team.
// The roster is fixed from here on.
func New(params NewParams) (Tournament, error) {
	teamIDs := make([]string, 0, len(params.TeamIDs))
	seen := make(map[string]struct{}, len(params.TeamIDs))
	for _, teamID := range params.TeamIDs {
		teamID = strings.TrimSpace(teamID)
		if teamID == "" {
			return Tournament{}, crerr.Wrap(ErrInvalidTeamPool, "team id must not be empty")
		}
		if _, ok := seen[teamID]; ok {
			return Tournament{}, crerr.Wrapf(ErrInvalidTeamPool, "duplicate team %s", teamID)
		}
		seen[teamID] = struct{}{}
		teamIDs = append(teamIDs, teamID)
	}
	if len(teamIDs)%2 != 0 {
		return Tournament{}, crerr.Wrapf(ErrInvalidTeamPool, "team count must be even, got %d", len(teamIDs))
	}
	if len(params.Format.Templates) == 0 {
		return Tournament{}, crerr.Wrap(ErrInvalidFormat, "format has no phases")
	}
	if minTeams := params.Format.MinTeams(); len(teamIDs) < minTeams {
		return Tournament{}, crerr.Wrapf(ErrInvalidTeamPool, "need at least %d teams, got %d", minTeams, len(teamIDs))
	}
	slices.Sort(teamIDs)

	now := params.Now.UTC()
	out := Tournament{
		ID:        params.ID,
		Name:      strings.TrimSpace(params.Name),
		Season:    params.Season,
		Format:    params.Format,
		Stage:     StageLeaguePhase,
		DrawSeed:  params.DrawSeed,
		DrawnAt:   params.DrawnAt.UTC(),
		TeamIDs:   teamIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for idx, tpl := range params.Format.Templates {
		status := PhaseStatusPending
		if idx == 0 {
			status = PhaseStatusActive
		}
		out.Phases = append(out.Phases, Phase{Order: tpl.Order, Template: tpl, Status: status})
	}

	first := params.Format.First().Order
	out.Entries = make([]TeamEntry, 0, len(teamIDs))
	for _, teamID := range teamIDs {
		out.Entries = append(out.Entries, TeamEntry{TeamID: teamID, CurrentPhaseOrder: first})
	}
	out.RecomputeStandings()

	return out, nil
}
