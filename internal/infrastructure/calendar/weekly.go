package calendar

import (
	"context"
	"time"

	"github.com/riskibarqy/continental-cup/internal/domain/tournament"
)

const DefaultInterval = 7 * 24 * time.Hour

// Weekly puts one matchday every interval, starting one interval after the given instant.
type Weekly struct {
	interval time.Duration
}

func NewWeekly(interval time.Duration) *Weekly {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Weekly{interval: interval}
}

func (w *Weekly) PhaseDates(ctx context.Context, tpl tournament.PhaseTemplate, after time.Time) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	count := max(tpl.RoundCount, 1)
	out := make([]time.Time, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, after.Add(time.Duration(i)*w.interval).UTC())
	}
	return out, nil
}
