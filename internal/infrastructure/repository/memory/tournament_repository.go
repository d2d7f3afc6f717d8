package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
)

// TournamentRepository keeps aggregates in process. Every read and write copies, so callers
// never share slices with the stored value.
type TournamentRepository struct {
	mu          sync.RWMutex
	tournaments map[string]tournament.Tournament
}

func NewTournamentRepository(seed ...tournament.Tournament) *TournamentRepository {
	items := make(map[string]tournament.Tournament, len(seed))
	for _, item := range seed {
		items[item.ID] = item.Clone()
	}
	return &TournamentRepository{tournaments: items}
}

func (r *TournamentRepository) List(_ context.Context) ([]tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tournament.Tournament, 0, len(r.tournaments))
	for _, item := range r.tournaments {
		out = append(out, item.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *TournamentRepository) GetByID(_ context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.tournaments[tournamentID]
	if !ok {
		return tournament.Tournament{}, false, nil
	}
	return item.Clone(), true, nil
}

func (r *TournamentRepository) Save(_ context.Context, item tournament.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tournaments[item.ID] = item.Clone()
	return nil
}
