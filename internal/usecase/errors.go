package usecase

import (
	"errors"
	"fmt"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
)

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
)

// classify wraps domain errors in the generic usecase kind. Both the kind and the domain
// sentinel stay reachable through errors.Is.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tournament.ErrTournamentNotFound),
		errors.Is(err, tournament.ErrPhaseNotFound),
		errors.Is(err, fixture.ErrFixtureNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, tournament.ErrInvalidTeamPool),
		errors.Is(err, tournament.ErrInvalidFormat),
		errors.Is(err, fixture.ErrInvalidScore):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}

// unavailable marks a storage failure; callers may retry.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDependencyUnavailable, op, err)
}

func tournamentNotFound(tournamentID string) error {
	return classify(crerr.Wrapf(tournament.ErrTournamentNotFound, "tournament=%s", tournamentID))
}
