package fixture

import (
	"fmt"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusPlayed    Status = "PLAYED"
	StatusCancelled Status = "CANCELLED"
)

var (
	ErrFixtureNotFound      = crerr.New("fixture not found")
	ErrFixtureAlreadyPlayed = crerr.New("fixture already played")
	ErrFixtureCancelled     = crerr.New("fixture cancelled")
	ErrInvalidScore         = crerr.New("invalid score")
)

// Fixture is one match between two teams inside a tournament phase.
type Fixture struct {
	ID           string
	TournamentID string
	PhaseOrder   int
	Round        int
	// Leg is 0 for single matches and 1 or 2 inside a two-legged tie.
	Leg         int
	HomeTeamID  string
	AwayTeamID  string
	ScheduledAt time.Time
	Status      Status
	HomeGoals   *int
	AwayGoals   *int
	PlayedAt    *time.Time
}

// NewID builds the deterministic fixture id for a tournament slot.
func NewID(tournamentID string, phaseOrder, round, match int) string {
	return fmt.Sprintf("%s-p%d-r%d-m%02d", tournamentID, phaseOrder, round, match)
}

func (f Fixture) IsPlayed() bool {
	return f.Status == StatusPlayed && f.HomeGoals != nil && f.AwayGoals != nil
}

func (f Fixture) IsTerminal() bool {
	return f.Status == StatusPlayed || f.Status == StatusCancelled
}

// Score returns home and away goals; both are zero when the fixture is not played.
func (f Fixture) Score() (int, int) {
	if !f.IsPlayed() {
		return 0, 0
	}
	return *f.HomeGoals, *f.AwayGoals
}

// Pair returns the unordered key of the two teams.
func (f Fixture) Pair() PairKey {
	return NewPairKey(f.HomeTeamID, f.AwayTeamID)
}

// RecordResult moves a scheduled fixture to PLAYED. A result can be recorded exactly once.
func (f *Fixture) RecordResult(homeGoals, awayGoals int, at time.Time) error {
	switch f.Status {
	case StatusPlayed:
		return crerr.Wrapf(ErrFixtureAlreadyPlayed, "fixture=%s", f.ID)
	case StatusCancelled:
		return crerr.Wrapf(ErrFixtureCancelled, "fixture=%s", f.ID)
	}
	if homeGoals < 0 || awayGoals < 0 {
		return crerr.Wrapf(ErrInvalidScore, "fixture=%s home=%d away=%d", f.ID, homeGoals, awayGoals)
	}

	home, away := homeGoals, awayGoals
	playedAt := at.UTC()
	f.HomeGoals = &home
	f.AwayGoals = &away
	f.PlayedAt = &playedAt
	f.Status = StatusPlayed
	return nil
}

func (f *Fixture) Cancel() error {
	if f.Status == StatusPlayed {
		return crerr.Wrapf(ErrFixtureAlreadyPlayed, "fixture=%s", f.ID)
	}
	f.Status = StatusCancelled
	return nil
}

func NormalizeStatus(value string) Status {
	status := Status(strings.ToUpper(strings.TrimSpace(value)))
	switch status {
	case StatusPlayed, StatusCancelled:
		return status
	default:
		return StatusScheduled
	}
}

// PairKey identifies an unordered pair of teams.
type PairKey struct {
	A string
	B string
}

func NewPairKey(a, b string) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Clone returns a copy that shares no score pointers with f.
func (f Fixture) Clone() Fixture {
	out := f
	if f.HomeGoals != nil {
		v := *f.HomeGoals
		out.HomeGoals = &v
	}
	if f.AwayGoals != nil {
		v := *f.AwayGoals
		out.AwayGoals = &v
	}
	if f.PlayedAt != nil {
		v := *f.PlayedAt
		out.PlayedAt = &v
	}
	return out
}
