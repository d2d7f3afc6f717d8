package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
	basecache "github.com/riskibarqy/continental-cup/internal/platform/cache"
)

const (
	tournamentListKey   = "tournament:list"
	tournamentKeyPrefix = "tournament:id:"
)

type cachedTournament struct {
	value  tournament.Tournament
	exists bool
}

// TournamentRepository is a read-through cache in front of another tournament.Repository.
// Save writes through and drops the cached entries for the tournament.
type TournamentRepository struct {
	next  tournament.Repository
	byID  *basecache.Store[cachedTournament]
	lists *basecache.Store[[]tournament.Tournament]
}

func NewTournamentRepository(next tournament.Repository, ttl time.Duration) *TournamentRepository {
	return &TournamentRepository{
		next:  next,
		byID:  basecache.NewStore[cachedTournament](ttl),
		lists: basecache.NewStore[[]tournament.Tournament](ttl),
	}
}

func (r *TournamentRepository) List(ctx context.Context) ([]tournament.Tournament, error) {
	items, err := r.lists.GetOrLoad(ctx, tournamentListKey, func(ctx context.Context) ([]tournament.Tournament, error) {
		return r.next.List(ctx)
	})
	if err != nil {
		return nil, err
	}

	out := make([]tournament.Tournament, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out, nil
}

func (r *TournamentRepository) GetByID(ctx context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	cached, err := r.byID.GetOrLoad(ctx, tournamentKeyPrefix+tournamentID, func(ctx context.Context) (cachedTournament, error) {
		item, exists, err := r.next.GetByID(ctx, tournamentID)
		if err != nil {
			return cachedTournament{}, err
		}
		return cachedTournament{value: item, exists: exists}, nil
	})
	if err != nil {
		return tournament.Tournament{}, false, err
	}
	if !cached.exists {
		return tournament.Tournament{}, false, nil
	}
	return cached.value.Clone(), true, nil
}

func (r *TournamentRepository) Save(ctx context.Context, item tournament.Tournament) error {
	if err := r.next.Save(ctx, item); err != nil {
		return err
	}
	r.byID.Invalidate(ctx, tournamentKeyPrefix+item.ID)
	r.lists.Invalidate(ctx, tournamentListKey)
	return nil
}
