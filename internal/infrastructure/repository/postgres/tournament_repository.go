package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/domain/standing"
	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
	qb "github.com/riskibarqy/continental-cup/internal/platform/querybuilder"
)

// TournamentRepository stores each aggregate across one parent row and four child tables.
// Save replaces the child rows inside a single transaction.
type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) List(ctx context.Context) ([]tournament.Tournament, error) {
	query, args, err := qb.Select("id").From("tournaments").OrderBy("created_at", "id").ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build list tournaments query")
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, crerr.Wrap(err, "list tournaments")
	}

	out := make([]tournament.Tournament, 0, len(ids))
	for _, id := range ids {
		item, ok, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *TournamentRepository) GetByID(ctx context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	query, args, err := qb.Select("*").From("tournaments").Where(qb.Eq("id", tournamentID)).Limit(1).ToSQL()
	if err != nil {
		return tournament.Tournament{}, false, crerr.Wrap(err, "build get tournament query")
	}

	var row tournamentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tournament.Tournament{}, false, nil
		}
		return tournament.Tournament{}, false, crerr.Wrapf(err, "get tournament id=%s", tournamentID)
	}

	item, err := r.load(ctx, row)
	if err != nil {
		return tournament.Tournament{}, false, err
	}
	return item, true, nil
}

func (r *TournamentRepository) load(ctx context.Context, row tournamentTableModel) (tournament.Tournament, error) {
	var format tournament.Format
	if err := sonic.Unmarshal(row.Format, &format); err != nil {
		return tournament.Tournament{}, crerr.Wrapf(err, "decode format tournament=%s", row.ID)
	}

	item := tournament.Tournament{
		ID:         row.ID,
		Name:       row.Name,
		Season:     row.Season,
		Format:     format,
		Stage:      tournament.Stage(row.Stage),
		DrawSeed:   row.DrawSeed,
		DrawnAt:    row.DrawnAt.UTC(),
		TeamIDs:    []string(row.TeamIDs),
		ChampionID: row.ChampionID.String,
		RunnerUpID: row.RunnerUpID.String,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}

	var phases []phaseTableModel
	if err := r.selectChildren(ctx, &phases, "tournament_phases", row.ID, "phase_order"); err != nil {
		return tournament.Tournament{}, err
	}
	for _, p := range phases {
		phase, err := phaseFromRow(p, format)
		if err != nil {
			return tournament.Tournament{}, err
		}
		item.Phases = append(item.Phases, phase)
	}

	var entries []teamEntryTableModel
	if err := r.selectChildren(ctx, &entries, "tournament_team_entries", row.ID, "team_id"); err != nil {
		return tournament.Tournament{}, err
	}
	for _, e := range entries {
		item.Entries = append(item.Entries, tournament.TeamEntry{
			TeamID:             e.TeamID,
			CurrentPhaseOrder:  e.CurrentPhaseOrder,
			DirectQualifier:    e.DirectQualifier,
			PlayoffParticipant: e.PlayoffParticipant,
			Eliminated:         e.Eliminated,
			EliminatedInPhase:  e.EliminatedInPhase,
		})
	}

	var fixtures []fixtureTableModel
	if err := r.selectChildren(ctx, &fixtures, "tournament_fixtures", row.ID, "phase_order", "round", "id"); err != nil {
		return tournament.Tournament{}, err
	}
	for _, f := range fixtures {
		item.Fixtures = append(item.Fixtures, fixture.Fixture{
			ID:           f.ID,
			TournamentID: f.TournamentID,
			PhaseOrder:   f.PhaseOrder,
			Round:        f.Round,
			Leg:          f.Leg,
			HomeTeamID:   f.HomeTeamID,
			AwayTeamID:   f.AwayTeamID,
			ScheduledAt:  f.ScheduledAt.UTC(),
			Status:       fixture.NormalizeStatus(f.Status),
			HomeGoals:    intPtr(f.HomeGoals),
			AwayGoals:    intPtr(f.AwayGoals),
			PlayedAt:     timePtr(f.PlayedAt),
		})
	}

	var standings []standingTableModel
	if err := r.selectChildren(ctx, &standings, "tournament_standings", row.ID, "rank"); err != nil {
		return tournament.Tournament{}, err
	}
	for _, s := range standings {
		item.Standings = append(item.Standings, standing.Standing{
			TournamentID:   s.TournamentID,
			TeamID:         s.TeamID,
			Rank:           s.Rank,
			Played:         s.Played,
			Won:            s.Won,
			Drawn:          s.Drawn,
			Lost:           s.Lost,
			GoalsFor:       s.GoalsFor,
			GoalsAgainst:   s.GoalsAgainst,
			GoalDifference: s.GoalDifference,
			Points:         s.Points,
			DecidedByLot:   s.DecidedByLot,
		})
	}

	return item, nil
}

func (r *TournamentRepository) selectChildren(ctx context.Context, dest any, table, tournamentID string, orderBy ...string) error {
	query, args, err := qb.Select("*").From(table).Where(qb.Eq("tournament_id", tournamentID)).OrderBy(orderBy...).ToSQL()
	if err != nil {
		return crerr.Wrapf(err, "build select %s query", table)
	}
	if err := r.db.SelectContext(ctx, dest, query, args...); err != nil {
		return crerr.Wrapf(err, "select %s tournament=%s", table, tournamentID)
	}
	return nil
}

func (r *TournamentRepository) Save(ctx context.Context, item tournament.Tournament) error {
	format, err := sonic.Marshal(item.Format)
	if err != nil {
		return crerr.Wrapf(err, "encode format tournament=%s", item.ID)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return crerr.Wrap(err, "begin tx save tournament")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.InsertModels("tournaments", []tournamentTableModel{{
		ID:         item.ID,
		Name:       item.Name,
		Season:     item.Season,
		Format:     format,
		Stage:      string(item.Stage),
		DrawSeed:   item.DrawSeed,
		DrawnAt:    item.DrawnAt.UTC(),
		TeamIDs:    pq.StringArray(item.TeamIDs),
		ChampionID: nullString(item.ChampionID),
		RunnerUpID: nullString(item.RunnerUpID),
		CreatedAt:  item.CreatedAt.UTC(),
		UpdatedAt:  item.UpdatedAt.UTC(),
	}}, `ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    format = EXCLUDED.format,
    stage = EXCLUDED.stage,
    champion_id = EXCLUDED.champion_id,
    runner_up_id = EXCLUDED.runner_up_id,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return crerr.Wrap(err, "build upsert tournament query")
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrapf(err, "upsert tournament id=%s", item.ID)
	}

	for _, table := range []string{"tournament_phases", "tournament_team_entries", "tournament_fixtures", "tournament_standings"} {
		query, args, err := qb.DeleteFrom(table).Where(qb.Eq("tournament_id", item.ID)).ToSQL()
		if err != nil {
			return crerr.Wrapf(err, "build clear %s query", table)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return crerr.Wrapf(err, "clear %s tournament=%s", table, item.ID)
		}
	}

	phases, err := phaseRows(item)
	if err != nil {
		return err
	}
	if err := insertRows(ctx, tx, "tournament_phases", phases); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, "tournament_team_entries", entryRows(item)); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, "tournament_fixtures", fixtureRows(item)); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, "tournament_standings", standingRows(item)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return crerr.Wrap(err, "commit save tournament tx")
	}
	return nil
}

// insertBatchSize keeps every statement well below the postgres bind parameter limit.
const insertBatchSize = 500

func insertRows[T any](ctx context.Context, tx *sqlx.Tx, table string, rows []T) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		query, args, err := qb.InsertModels(table, rows[start:end], "")
		if err != nil {
			return crerr.Wrapf(err, "build insert %s query", table)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return crerr.Wrapf(err, "insert %s", table)
		}
	}
	return nil
}

func phaseRows(item tournament.Tournament) ([]phaseTableModel, error) {
	out := make([]phaseTableModel, 0, len(item.Phases))
	for _, p := range item.Phases {
		ties := p.Ties
		if ties == nil {
			ties = []tournament.TieRecord{}
		}
		encoded, err := sonic.Marshal(ties)
		if err != nil {
			return nil, crerr.Wrapf(err, "encode ties tournament=%s phase=%d", item.ID, p.Order)
		}
		out = append(out, phaseTableModel{
			TournamentID: item.ID,
			PhaseOrder:   p.Order,
			Status:       string(p.Status),
			CompletedAt:  nullTime(p.CompletedAt),
			Ties:         encoded,
		})
	}
	return out, nil
}

func phaseFromRow(row phaseTableModel, format tournament.Format) (tournament.Phase, error) {
	tpl, _ := format.Template(row.PhaseOrder)
	phase := tournament.Phase{
		Order:       row.PhaseOrder,
		Template:    tpl,
		Status:      tournament.PhaseStatus(row.Status),
		CompletedAt: timePtr(row.CompletedAt),
	}
	if len(row.Ties) > 0 {
		if err := sonic.Unmarshal(row.Ties, &phase.Ties); err != nil {
			return tournament.Phase{}, crerr.Wrapf(err, "decode ties tournament=%s phase=%d", row.TournamentID, row.PhaseOrder)
		}
	}
	if len(phase.Ties) == 0 {
		phase.Ties = nil
	}
	return phase, nil
}

func entryRows(item tournament.Tournament) []teamEntryTableModel {
	out := make([]teamEntryTableModel, 0, len(item.Entries))
	for _, e := range item.Entries {
		out = append(out, teamEntryTableModel{
			TournamentID:       item.ID,
			TeamID:             e.TeamID,
			CurrentPhaseOrder:  e.CurrentPhaseOrder,
			DirectQualifier:    e.DirectQualifier,
			PlayoffParticipant: e.PlayoffParticipant,
			Eliminated:         e.Eliminated,
			EliminatedInPhase:  e.EliminatedInPhase,
		})
	}
	return out
}

func fixtureRows(item tournament.Tournament) []fixtureTableModel {
	out := make([]fixtureTableModel, 0, len(item.Fixtures))
	for _, f := range item.Fixtures {
		out = append(out, fixtureTableModel{
			ID:           f.ID,
			TournamentID: item.ID,
			PhaseOrder:   f.PhaseOrder,
			Round:        f.Round,
			Leg:          f.Leg,
			HomeTeamID:   f.HomeTeamID,
			AwayTeamID:   f.AwayTeamID,
			ScheduledAt:  f.ScheduledAt.UTC(),
			Status:       string(f.Status),
			HomeGoals:    nullInt(f.HomeGoals),
			AwayGoals:    nullInt(f.AwayGoals),
			PlayedAt:     nullTime(f.PlayedAt),
		})
	}
	return out
}

func standingRows(item tournament.Tournament) []standingTableModel {
	out := make([]standingTableModel, 0, len(item.Standings))
	for _, s := range item.Standings {
		out = append(out, standingTableModel{
			TournamentID:   item.ID,
			TeamID:         s.TeamID,
			Rank:           s.Rank,
			Played:         s.Played,
			Won:            s.Won,
			Drawn:          s.Drawn,
			Lost:           s.Lost,
			GoalsFor:       s.GoalsFor,
			GoalsAgainst:   s.GoalsAgainst,
			GoalDifference: s.GoalDifference,
			Points:         s.Points,
			DecidedByLot:   s.DecidedByLot,
		})
	}
	return out
}
