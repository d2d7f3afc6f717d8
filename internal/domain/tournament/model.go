package tournament

import (
	"slices"
	"sort"
	"time"

	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/domain/standing"
	"github.com/riskibarqy/continental-cup/internal/platform/random"
)

type Stage string

const (
	StageLeaguePhase Stage = "LEAGUE_PHASE"
	StageKnockout    Stage = "KNOCKOUT"
	StageCompleted   Stage = "COMPLETED"
)

type PhaseStatus string

const (
	PhaseStatusPending   PhaseStatus = "PENDING"
	PhaseStatusActive    PhaseStatus = "ACTIVE"
	PhaseStatusCompleted PhaseStatus = "COMPLETED"
)

// Phase is one instantiated template. Its fixtures live in Tournament.Fixtures keyed by PhaseOrder.
type Phase struct {
	Order       int
	Template    PhaseTemplate
	Status      PhaseStatus
	CompletedAt *time.Time
	// Ties records how each knockout tie of the phase was settled, in bracket order.
	Ties []TieRecord
}

// TieRecord is the settled result of one knockout tie.
type TieRecord struct {
	TeamA      string `json:"team_a"`
	TeamB      string `json:"team_b"`
	WinnerID   string `json:"winner_id"`
	LoserID    string `json:"loser_id"`
	Method     string `json:"method"`
	GoalsA     int    `json:"goals_a"`
	GoalsB     int    `json:"goals_b"`
	AwayGoalsA int    `json:"away_goals_a"`
	AwayGoalsB int    `json:"away_goals_b"`
	// Shootout is set only for ties decided on penalties.
	Shootout *ShootoutRecord `json:"shootout,omitempty"`
}

type ShootoutRecord struct {
	ScoreA int          `json:"score_a"`
	ScoreB int          `json:"score_b"`
	Rounds int          `json:"rounds"`
	Capped bool         `json:"capped"`
	Kicks  []KickRecord `json:"kicks"`
}

type KickRecord struct {
	Round      int    `json:"round"`
	TeamID     string `json:"team_id"`
	PlayerID   string `json:"player_id,omitempty"`
	Scored     bool   `json:"scored"`
	Commentary string `json:"commentary,omitempty"`
}

// TeamEntry is a team's membership in a tournament.
type TeamEntry struct {
	TeamID             string
	CurrentPhaseOrder  int
	DirectQualifier    bool
	PlayoffParticipant bool
	Eliminated         bool
	// EliminatedInPhase is the order of the phase the team went out in; zero while alive.
	EliminatedInPhase int
}

// Tournament is one cup instance for one season. Phases, entries, fixtures and standings are
// flat collections referencing each other by id and phase order.
type Tournament struct {
	ID       string
	Name     string
	Season   int
	Format   Format
	Stage    Stage
	DrawSeed int64
	DrawnAt  time.Time
	TeamIDs  []string

	Phases    []Phase
	Entries   []TeamEntry
	Fixtures  []fixture.Fixture
	Standings []standing.Standing

	ChampionID string
	RunnerUpID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LotSource returns a fresh source for standings lots, seeded by the draw seed so repeated
// recomputations separate equal rows the same way.
func (t Tournament) LotSource() random.Source {
	return random.New(t.DrawSeed)
}

func (t Tournament) IsCompleted() bool {
	return t.Stage == StageCompleted
}

func (t *Tournament) Phase(order int) (*Phase, error) {
	for i := range t.Phases {
		if t.Phases[i].Order == order {
			return &t.Phases[i], nil
		}
	}
	return nil, phaseNotFound(t.ID, order)
}

// CurrentPhase is the active phase; false once the tournament is completed.
func (t Tournament) CurrentPhase() (Phase, bool) {
	for _, phase := range t.Phases {
		if phase.Status == PhaseStatusActive {
			return phase, true
		}
	}
	return Phase{}, false
}

// EnsurePhase returns the phase for a template, instantiating it as pending when absent.
func (t *Tournament) EnsurePhase(tpl PhaseTemplate) *Phase {
	if phase, err := t.Phase(tpl.Order); err == nil {
		return phase
	}
	t.Phases = append(t.Phases, Phase{Order: tpl.Order, Template: tpl, Status: PhaseStatusPending})
	sort.SliceStable(t.Phases, func(i, j int) bool { return t.Phases[i].Order < t.Phases[j].Order })
	phase, _ := t.Phase(tpl.Order)
	return phase
}

// CompletePhase closes order and activates the next phase when there is one.
func (t *Tournament) CompletePhase(order int, now time.Time) error {
	phase, err := t.Phase(order)
	if err != nil {
		return err
	}
	completedAt := now.UTC()
	phase.Status = PhaseStatusCompleted
	phase.CompletedAt = &completedAt

	next, ok := t.Format.Next(order)
	if !ok {
		t.Stage = StageCompleted
		return nil
	}
	t.EnsurePhase(next).Status = PhaseStatusActive
	if next.IsKnockout {
		t.Stage = StageKnockout
	}
	return nil
}

func (t *Tournament) Entry(teamID string) (*TeamEntry, bool) {
	for i := range t.Entries {
		if t.Entries[i].TeamID == teamID {
			return &t.Entries[i], true
		}
	}
	return nil, false
}

// EntrantsFor lists alive teams waiting in the given phase, ordered by team id.
func (t Tournament) EntrantsFor(order int) []string {
	out := make([]string, 0)
	for _, entry := range t.Entries {
		if entry.Eliminated || entry.CurrentPhaseOrder != order {
			continue
		}
		out = append(out, entry.TeamID)
	}
	slices.Sort(out)
	return out
}

func (t *Tournament) Fixture(fixtureID string) (*fixture.Fixture, error) {
	for i := range t.Fixtures {
		if t.Fixtures[i].ID == fixtureID {
			return &t.Fixtures[i], nil
		}
	}
	return nil, fixtureNotFound(t.ID, fixtureID)
}

// FixturesForPhase returns copies of the phase fixtures ordered by round then id.
func (t Tournament) FixturesForPhase(order int) []fixture.Fixture {
	out := make([]fixture.Fixture, 0)
	for _, item := range t.Fixtures {
		if item.PhaseOrder == order {
			out = append(out, item.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (t *Tournament) AddFixtures(items []fixture.Fixture) {
	for _, item := range items {
		t.Fixtures = append(t.Fixtures, item.Clone())
	}
}

// PhaseComplete reports whether the phase has fixtures and every one of them is terminal.
func (t Tournament) PhaseComplete(order int) bool {
	count := 0
	for _, item := range t.Fixtures {
		if item.PhaseOrder != order {
			continue
		}
		count++
		if !item.IsTerminal() {
			return false
		}
	}
	return count > 0
}

// PendingFixtures counts scheduled fixtures of a phase.
func (t Tournament) PendingFixtures(order int) int {
	count := 0
	for _, item := range t.Fixtures {
		if item.PhaseOrder == order && item.Status == fixture.StatusScheduled {
			count++
		}
	}
	return count
}

// RecordResult sets the score of a fixture once.
func (t *Tournament) RecordResult(fixtureID string, homeGoals, awayGoals int, at time.Time) (fixture.Fixture, error) {
	item, err := t.Fixture(fixtureID)
	if err != nil {
		return fixture.Fixture{}, err
	}
	if err := item.RecordResult(homeGoals, awayGoals, at); err != nil {
		return fixture.Fixture{}, err
	}
	t.UpdatedAt = at.UTC()
	return item.Clone(), nil
}

// RecomputeStandings rebuilds the table from the league phase fixtures.
func (t *Tournament) RecomputeStandings() []standing.Standing {
	league := t.Format.First()
	t.Standings = standing.Recompute(t.ID, t.TeamIDs, t.FixturesForPhase(league.Order), t.LotSource())
	return t.Standings
}

// LastScheduledAt is the latest kickoff across all fixtures, or DrawnAt when none exist.
func (t Tournament) LastScheduledAt() time.Time {
	last := t.DrawnAt
	for _, item := range t.Fixtures {
		if item.ScheduledAt.After(last) {
			last = item.ScheduledAt
		}
	}
	return last
}

// Clone returns a deep copy.
func (t Tournament) Clone() Tournament {
	out := t
	out.TeamIDs = slices.Clone(t.TeamIDs)
	out.Format.Templates = slices.Clone(t.Format.Templates)
	out.Phases = make([]Phase, 0, len(t.Phases))
	for _, phase := range t.Phases {
		if phase.CompletedAt != nil {
			at := *phase.CompletedAt
			phase.CompletedAt = &at
		}
		phase.Ties = cloneTies(phase.Ties)
		out.Phases = append(out.Phases, phase)
	}
	out.Entries = slices.Clone(t.Entries)
	out.Standings = slices.Clone(t.Standings)
	out.Fixtures = make([]fixture.Fixture, 0, len(t.Fixtures))
	for _, item := range t.Fixtures {
		out.Fixtures = append(out.Fixtures, item.Clone())
	}
	return out
}

func cloneTies(ties []TieRecord) []TieRecord {
	if ties == nil {
		return nil
	}
	out := make([]TieRecord, len(ties))
	for i, tie := range ties {
		if tie.Shootout != nil {
			so := *tie.Shootout
			so.Kicks = slices.Clone(so.Kicks)
			tie.Shootout = &so
		}
		out[i] = tie
	}
	return out
}
