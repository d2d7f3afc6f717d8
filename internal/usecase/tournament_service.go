package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/continental-cup/internal/domain/collaborator"
	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/domain/knockout"
	"github.com/riskibarqy/continental-cup/internal/domain/pairing"
	"github.com/riskibarqy/continental-cup/internal/domain/progression"
	"github.com/riskibarqy/continental-cup/internal/domain/schedule"
	"github.com/riskibarqy/continental-cup/internal/domain/standing"
	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
	idgen "github.com/riskibarqy/continental-cup/internal/platform/id"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
	"github.com/riskibarqy/continental-cup/internal/platform/random"
)

type ProgressStatus string

const (
	ProgressNotReady         ProgressStatus = "NOT_READY"
	ProgressPhaseAdvanced    ProgressStatus = "PHASE_ADVANCED"
	ProgressNextPhaseCreated ProgressStatus = "NEXT_PHASE_CREATED"
	ProgressChampionDeclared ProgressStatus = "CHAMPION_DECLARED"
)

// Progress reports what happened to the phase a result belonged to.
type Progress struct {
	Status         ProgressStatus
	PhaseOrder     int
	NextPhaseOrder int
	Pending        int
	ChampionID     string
	RunnerUpID     string
	// Outcomes holds the decided ties when a knockout phase was resolved.
	Outcomes []knockout.Outcome
}

type CreateTournamentInput struct {
	Name    string   `validate:"required,max=120"`
	Season  int      `validate:"gte=1900,lte=9999"`
	TeamIDs []string `validate:"required,min=2,dive,required"`
}

type RecordResultInput struct {
	TournamentID string `validate:"required"`
	FixtureID    string `validate:"required"`
	HomeGoals    int    `validate:"gte=0"`
	AwayGoals    int    `validate:"gte=0"`
}

type TournamentServiceConfig struct {
	Rules           tournament.Rules
	PairingAttempts int
	// SeasonStart anchors the league phase calendar; zero means the creation time.
	SeasonStart time.Time
}

// TournamentService drives tournaments from creation to champion. Operations on one tournament
// are serialized; different tournaments proceed concurrently.
type TournamentService struct {
	repo     tournament.Repository
	calendar collaborator.Calendar
	resolver *knockout.Resolver
	notifier collaborator.RewardNotifier
	idGen    idgen.Generator
	seeds    random.Source
	cfg      TournamentServiceConfig
	validate *validator.Validate
	logger   *logging.Logger
	locks    keyedMutex
	now      func() time.Time
}

func NewTournamentService(
	repo tournament.Repository,
	calendar collaborator.Calendar,
	resolver *knockout.Resolver,
	notifier collaborator.RewardNotifier,
	idGen idgen.Generator,
	seeds random.Source,
	cfg TournamentServiceConfig,
	logger *logging.Logger,
) *TournamentService {
	return &TournamentService{
		repo:     repo,
		calendar: calendar,
		resolver: resolver,
		notifier: notifier,
		idGen:    idGen,
		seeds:    seeds,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *TournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.CreateTournament")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return tournament.Tournament{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	format, err := tournament.NewFormat(s.cfg.Rules)
	if err != nil {
		return tournament.Tournament{}, classify(err)
	}
	tournamentID, err := s.idGen.NewID()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("generate tournament id: %w", err)
	}

	now := s.now().UTC()
	seed := s.seeds.Int64()
	item, err := tournament.New(tournament.NewParams{
		ID:       tournamentID,
		Name:     input.Name,
		Season:   input.Season,
		TeamIDs:  input.TeamIDs,
		Format:   format,
		DrawSeed: seed,
		DrawnAt:  now,
		Now:      now,
	})
	if err != nil {
		return tournament.Tournament{}, classify(err)
	}

	league := item.Format.First()
	start := s.cfg.SeasonStart
	if start.IsZero() {
		start = now
	}
	dates, err := s.calendar.PhaseDates(ctx, league, start)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("league phase dates: %w", err)
	}

	sched, err := schedule.GenerateLeaguePhase(pairing.NewGenerator(random.New(seed), s.cfg.PairingAttempts), schedule.LeaguePhaseInput{
		TournamentID: item.ID,
		PhaseOrder:   league.Order,
		TeamIDs:      item.TeamIDs,
		RoundCount:   league.RoundCount,
		Dates:        dates,
	})
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("schedule league phase: %w", err)
	}
	item.AddFixtures(sched.Fixtures)
	if sched.FallbackRounds > 0 {
		s.logger.WarnContext(ctx, "league phase pairing fell back to repeats",
			"tournament_id", item.ID,
			"fallback_rounds", sched.FallbackRounds,
			"forced_repeats", sched.ForcedRepeats,
		)
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return tournament.Tournament{}, unavailable("save tournament", err)
	}

	s.logger.InfoContext(ctx, "tournament created",
		"tournament_id", item.ID,
		"teams", len(item.TeamIDs),
		"phases", len(item.Format.Templates),
	)
	s.logger.InfoContext(ctx, "league phase scheduled",
		"tournament_id", item.ID,
		"fixtures", len(sched.Fixtures),
		"forced_repeats", sched.ForcedRepeats,
	)
	return item, nil
}

func (s *TournamentService) GetTournament(ctx context.Context, tournamentID string) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.GetTournament", tournamentAttr(tournamentID))
	defer span.End()

	return s.load(ctx, tournamentID)
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.ListTournaments")
	defer span.End()

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, unavailable("list tournaments", err)
	}
	return items, nil
}

func (s *TournamentService) ListStandings(ctx context.Context, tournamentID string) ([]standing.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.ListStandings", tournamentAttr(tournamentID))
	defer span.End()

	item, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return append([]standing.Standing(nil), item.Standings...), nil
}

// ListFixtures returns the fixtures of one phase, or of every phase when phaseOrder is zero.
func (s *TournamentService) ListFixtures(ctx context.Context, tournamentID string, phaseOrder int) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.ListFixtures", tournamentAttr(tournamentID))
	defer span.End()

	if phaseOrder < 0 {
		return nil, fmt.Errorf("%w: phase order must be >= 0", ErrInvalidInput)
	}
	item, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if phaseOrder == 0 {
		out := make([]fixture.Fixture, 0, len(item.Fixtures))
		for _, tpl := range item.Format.Templates {
			out = append(out, item.FixturesForPhase(tpl.Order)...)
		}
		return out, nil
	}
	if _, ok := item.Format.Template(phaseOrder); !ok {
		return nil, classify(crerr.Wrapf(tournament.ErrPhaseNotFound, "tournament=%s phase=%d", item.ID, phaseOrder))
	}
	return item.FixturesForPhase(phaseOrder), nil
}

// RecordResult stores a final score and moves the tournament on when the phase is complete.
func (s *TournamentService) RecordResult(ctx context.Context, input RecordResultInput) (Progress, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.RecordResult", tournamentAttr(input.TournamentID))
	defer span.End()

	input.TournamentID = strings.TrimSpace(input.TournamentID)
	input.FixtureID = strings.TrimSpace(input.FixtureID)
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return Progress{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	unlock := s.locks.Lock(input.TournamentID)
	defer unlock()

	item, err := s.load(ctx, input.TournamentID)
	if err != nil {
		return Progress{}, err
	}
	now := s.now().UTC()
	recorded, err := item.RecordResult(input.FixtureID, input.HomeGoals, input.AwayGoals, now)
	if err != nil {
		return Progress{}, classify(err)
	}

	return s.settle(ctx, &item, recorded.PhaseOrder, now)
}

// CancelFixture removes a scheduled fixture from play. A cancelled fixture counts as terminal.
func (s *TournamentService) CancelFixture(ctx context.Context, tournamentID, fixtureID string) (Progress, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.CancelFixture", tournamentAttr(tournamentID))
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	fixtureID = strings.TrimSpace(fixtureID)
	if tournamentID == "" || fixtureID == "" {
		return Progress{}, fmt.Errorf("%w: tournament id and fixture id are required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	item, err := s.load(ctx, tournamentID)
	if err != nil {
		return Progress{}, err
	}
	target, err := item.Fixture(fixtureID)
	if err != nil {
		return Progress{}, classify(err)
	}
	if err := target.Cancel(); err != nil {
		return Progress{}, classify(err)
	}

	s.logger.WarnContext(ctx, "fixture cancelled",
		"tournament_id", item.ID,
		"fixture_id", fixtureID,
		"phase_order", target.PhaseOrder,
	)
	return s.settle(ctx, &item, target.PhaseOrder, s.now().UTC())
}

// TryAdvance re-checks the current phase without recording anything.
func (s *TournamentService) TryAdvance(ctx context.Context, tournamentID string) (Progress, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.TryAdvance", tournamentAttr(tournamentID))
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	item, err := s.load(ctx, tournamentID)
	if err != nil {
		return Progress{}, err
	}
	phase, ok := item.CurrentPhase()
	if !ok {
		return Progress{}, crerr.Wrapf(tournament.ErrTournamentFinished, "tournament=%s", item.ID)
	}

	progress, err := s.progress(ctx, &item, phase.Order, s.now().UTC())
	if err != nil || progress.Status == ProgressNotReady {
		return progress, err
	}
	return s.persist(ctx, &item, progress)
}

// settle recomputes league standings after a change and persists the tournament together with
// whatever progression the change unlocked.
func (s *TournamentService) settle(ctx context.Context, item *tournament.Tournament, phaseOrder int, now time.Time) (Progress, error) {
	if phaseOrder == item.Format.First().Order {
		rows := item.RecomputeStandings()
		if standing.LotDecided(rows) {
			s.logger.WarnContext(ctx, "standings separated by lot", "tournament_id", item.ID)
		}
	}
	item.UpdatedAt = now

	progress, err := s.progress(ctx, item, phaseOrder, now)
	if err != nil {
		return Progress{}, err
	}
	return s.persist(ctx, item, progress)
}

func (s *TournamentService) persist(ctx context.Context, item *tournament.Tournament, progress Progress) (Progress, error) {
	if err := s.repo.Save(ctx, *item); err != nil {
		return Progress{}, unavailable("save tournament", err)
	}
	if progress.Status == ProgressChampionDeclared {
		s.notifyChampion(ctx, *item, s.now().UTC())
	}
	return progress, nil
}

func (s *TournamentService) progress(ctx context.Context, item *tournament.Tournament, phaseOrder int, now time.Time) (Progress, error) {
	phase, err := item.Phase(phaseOrder)
	if err != nil {
		return Progress{}, classify(err)
	}
	if phase.Status != tournament.PhaseStatusActive {
		return Progress{Status: ProgressNotReady, PhaseOrder: phaseOrder}, nil
	}

	if !phase.Template.IsKnockout {
		result, err := progression.TryAdvance(item, now)
		if err != nil {
			return Progress{}, err
		}
		if result.Status == progression.StatusNotReady {
			return Progress{Status: ProgressNotReady, PhaseOrder: phaseOrder, Pending: result.Pending}, nil
		}

		next, _ := item.Format.Next(phaseOrder)
		if _, err := s.resolver.OpenPhase(ctx, item, next.Order); err != nil {
			return Progress{}, fmt.Errorf("open first knockout phase: %w", err)
		}
		s.logger.InfoContext(ctx, "phase advanced",
			"tournament_id", item.ID,
			"phase_order", phaseOrder,
			"direct", len(result.Partition.Direct),
			"playoff", len(result.Partition.Playoff),
			"eliminated", len(result.Partition.Eliminated),
		)
		return Progress{Status: ProgressPhaseAdvanced, PhaseOrder: phaseOrder, NextPhaseOrder: next.Order}, nil
	}

	resolution, err := s.resolver.ResolvePhase(ctx, item, phaseOrder, now)
	if err != nil {
		return Progress{}, err
	}
	switch resolution.Status {
	case knockout.ResolutionNotReady:
		return Progress{Status: ProgressNotReady, PhaseOrder: phaseOrder, Pending: resolution.Pending}, nil
	case knockout.ResolutionChampionDeclared:
		return Progress{
			Status:     ProgressChampionDeclared,
			PhaseOrder: phaseOrder,
			ChampionID: resolution.ChampionID,
			RunnerUpID: resolution.RunnerUpID,
			Outcomes:   resolution.Outcomes,
		}, nil
	default:
		return Progress{
			Status:         ProgressNextPhaseCreated,
			PhaseOrder:     phaseOrder,
			NextPhaseOrder: resolution.NextPhaseOrder,
			Outcomes:       resolution.Outcomes,
		}, nil
	}
}

// notifyChampion never fails the caller; a lost award is logged for manual follow-up.
func (s *TournamentService) notifyChampion(ctx context.Context, item tournament.Tournament, at time.Time) {
	if s.notifier == nil {
		return
	}
	award := collaborator.Award{
		TournamentID:   item.ID,
		TournamentName: item.Name,
		Season:         item.Season,
		ChampionID:     item.ChampionID,
		RunnerUpID:     item.RunnerUpID,
		DecidedAt:      at,
	}
	if err := s.notifier.ChampionDeclared(ctx, award); err != nil {
		s.logger.WarnContext(ctx, "reward notification failed",
			"tournament_id", item.ID,
			"champion_id", item.ChampionID,
			"error", err,
		)
	}
}

func (s *TournamentService) load(ctx context.Context, tournamentID string) (tournament.Tournament, error) {
	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	item, exists, err := s.repo.GetByID(ctx, tournamentID)
	if err != nil {
		return tournament.Tournament{}, unavailable("get tournament", err)
	}
	if !exists {
		return tournament.Tournament{}, tournamentNotFound(tournamentID)
	}
	return item, nil
}
