package tournament

import (
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
)

var (
	ErrTournamentNotFound = crerr.New("tournament not found")
	ErrPhaseNotFound      = crerr.New("phase not found")
	ErrInvalidTeamPool    = crerr.New("invalid team pool")
	ErrTournamentFinished = crerr.New("tournament already completed")
)

func phaseNotFound(tournamentID string, order int) error {
	return crerr.Wrapf(ErrPhaseNotFound, "tournament=%s phase=%d", tournamentID, order)
}

func fixtureNotFound(tournamentID, fixtureID string) error {
	return crerr.Wrapf(fixture.ErrFixtureNotFound, "tournament=%s fixture=%s", tournamentID, fixtureID)
}
