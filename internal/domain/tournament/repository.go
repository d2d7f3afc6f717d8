package tournament

import "context"

// Repository loads and stores whole tournament aggregates.
type Repository interface {
	List(ctx context.Context) ([]Tournament, error)
	GetByID(ctx context.Context, tournamentID string) (Tournament, bool, error)
	Save(ctx context.Context, item Tournament) error
}
