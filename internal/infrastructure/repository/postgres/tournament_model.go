package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type tournamentTableModel struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	Season     int            `db:"season"`
	Format     []byte         `db:"format"`
	Stage      string         `db:"stage"`
	DrawSeed   int64          `db:"draw_seed"`
	DrawnAt    time.Time      `db:"drawn_at"`
	TeamIDs    pq.StringArray `db:"team_ids"`
	ChampionID sql.NullString `db:"champion_id"`
	RunnerUpID sql.NullString `db:"runner_up_id"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

type phaseTableModel struct {
	TournamentID string       `db:"tournament_id"`
	PhaseOrder   int          `db:"phase_order"`
	Status       string       `db:"status"`
	CompletedAt  sql.NullTime `db:"completed_at"`
	Ties         []byte       `db:"ties"`
}

type teamEntryTableModel struct {
	TournamentID       string `db:"tournament_id"`
	TeamID             string `db:"team_id"`
	CurrentPhaseOrder  int    `db:"current_phase_order"`
	DirectQualifier    bool   `db:"direct_qualifier"`
	PlayoffParticipant bool   `db:"playoff_participant"`
	Eliminated         bool   `db:"eliminated"`
	EliminatedInPhase  int    `db:"eliminated_in_phase"`
}

type fixtureTableModel struct {
	ID           string        `db:"id"`
	TournamentID string        `db:"tournament_id"`
	PhaseOrder   int           `db:"phase_order"`
	Round        int           `db:"round"`
	Leg          int           `db:"leg"`
	HomeTeamID   string        `db:"home_team_id"`
	AwayTeamID   string        `db:"away_team_id"`
	ScheduledAt  time.Time     `db:"scheduled_at"`
	Status       string        `db:"status"`
	HomeGoals    sql.NullInt64 `db:"home_goals"`
	AwayGoals    sql.NullInt64 `db:"away_goals"`
	PlayedAt     sql.NullTime  `db:"played_at"`
}

type standingTableModel struct {
	TournamentID   string `db:"tournament_id"`
	TeamID         string `db:"team_id"`
	Rank           int    `db:"rank"`
	Played         int    `db:"played"`
	Won            int    `db:"won"`
	Drawn          int    `db:"drawn"`
	Lost           int    `db:"lost"`
	GoalsFor       int    `db:"goals_for"`
	GoalsAgainst   int    `db:"goals_against"`
	GoalDifference int    `db:"goal_difference"`
	Points         int    `db:"points"`
	DecidedByLot   bool   `db:"decided_by_lot"`
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value.UTC(), Valid: true}
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}

func intPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}
