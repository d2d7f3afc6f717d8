// Package matchengine is a coarse outcome sampler standing in for the full match simulation.
package matchengine

import (
	"context"
	"fmt"

	"github.com/riskibarqy/continental-cup/internal/domain/fixture"
	"github.com/riskibarqy/continental-cup/internal/platform/random"
)

type Config struct {
	Chances           int
	ConversionRate    float64
	HomeAdvantage     float64
	PenaltyConversion float64
}

func DefaultConfig() Config {
	return Config{
		Chances:           12,
		ConversionRate:    0.11,
		HomeAdvantage:     0.03,
		PenaltyConversion: 0.76,
	}
}

var (
	scoredLines = []string{
		"%s sends the keeper the wrong way.",
		"%s buries it into the top corner.",
		"%s rolls it calmly into the bottom corner.",
	}
	missedLines = []string{
		"%s is denied by a fine save.",
		"%s blazes it over the bar.",
		"%s hits the post!",
	}
)

// Engine samples fixture scores and penalty kicks from a random source.
type Engine struct {
	src random.Source
	cfg Config
}

func New(src random.Source, cfg Config) *Engine {
	defaults := DefaultConfig()
	if cfg.Chances < 1 {
		cfg.Chances = defaults.Chances
	}
	if cfg.ConversionRate <= 0 || cfg.ConversionRate >= 1 {
		cfg.ConversionRate = defaults.ConversionRate
	}
	if cfg.HomeAdvantage < 0 {
		cfg.HomeAdvantage = 0
	}
	if cfg.PenaltyConversion <= 0 || cfg.PenaltyConversion > 1 {
		cfg.PenaltyConversion = defaults.PenaltyConversion
	}
	return &Engine{src: src, cfg: cfg}
}

func (e *Engine) SimulateScore(ctx context.Context, _ fixture.Fixture) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	home := e.goals(e.cfg.ConversionRate + e.cfg.HomeAdvantage)
	away := e.goals(e.cfg.ConversionRate)
	return home, away, nil
}

func (e *Engine) goals(rate float64) int {
	goals := 0
	for i := 0; i < e.cfg.Chances; i++ {
		if e.src.Float64() < rate {
			goals++
		}
	}
	return goals
}

func (e *Engine) TakePenalty(ctx context.Context, playerID string) (bool, string, error) {
	if err := ctx.Err(); err != nil {
		return false, "", err
	}
	scored := e.src.Float64() < e.cfg.PenaltyConversion
	lines := missedLines
	if scored {
		lines = scoredLines
	}
	return scored, fmt.Sprintf(lines[e.src.IntN(len(lines))], playerID), nil
}
