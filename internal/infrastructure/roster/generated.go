package roster

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	crerr "github.com/cockroachdb/errors"
)

const DefaultLineupSize = 11

var ErrUnknownTeam = crerr.New("unknown team")

// Generated hands out synthetic lineups "<team>-p01".."<team>-pNN" unless a lineup was registered.
type Generated struct {
	mu      sync.RWMutex
	size    int
	lineups map[string][]string
}

func NewGenerated(size int) *Generated {
	if size < 1 {
		size = DefaultLineupSize
	}
	return &Generated{size: size, lineups: make(map[string][]string)}
}

// Register overrides the lineup of a team.
func (g *Generated) Register(teamID string, playerIDs []string) {
	g.mu.Lock()
	g.lineups[teamID] = slices.Clone(playerIDs)
	g.mu.Unlock()
}

func (g *Generated) StartingLineup(_ context.Context, teamID string) ([]string, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, crerr.Wrap(ErrUnknownTeam, "empty team id")
	}

	g.mu.RLock()
	lineup, ok := g.lineups[teamID]
	g.mu.RUnlock()
	if ok {
		return slices.Clone(lineup), nil
	}

	out := make([]string, 0, g.size)
	for i := 1; i <= g.size; i++ {
		out = append(out, fmt.Sprintf("%s-p%02d", teamID, i))
	}
	return out, nil
}
