package reward

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/continental-cup/internal/domain/collaborator"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
)

const (
	PlaceChampion = 1
	PlaceRunnerUp = 2
)

// ErrMalformedAward marks payloads that are acked without granting anything.
var ErrMalformedAward = crerr.New("malformed award event")

// Prize is money granted to a team for a final placing.
type Prize struct {
	TournamentID string `json:"tournament_id"`
	Season       int    `json:"season"`
	TeamID       string `json:"team_id"`
	Place        int    `json:"place"`
	Amount       int64  `json:"amount"`
}

type Purses struct {
	Champion int64
	RunnerUp int64
}

func DefaultPurses() Purses {
	return Purses{Champion: 20_000_000, RunnerUp: 15_500_000}
}

// Ledger grants prizes from award events. Redelivered events for a tournament are ignored.
type Ledger struct {
	mu      sync.RWMutex
	purses  Purses
	granted map[string]struct{}
	prizes  []Prize
	logger  *logging.Logger
}

func NewLedger(purses Purses, logger *logging.Logger) *Ledger {
	return &Ledger{
		purses:  purses,
		granted: make(map[string]struct{}),
		logger:  logger,
	}
}

// Run consumes the topic until ctx is done or the subscription closes.
func (l *Ledger) Run(ctx context.Context, subscriber message.Subscriber, topic string) error {
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return crerr.Wrapf(err, "subscribe %s", topic)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := l.Handle(msg.Payload); err != nil {
				if crerr.Is(err, ErrMalformedAward) {
					l.logger.Warn("drop malformed award event", "message_id", msg.UUID, "error", err)
					msg.Ack()
					continue
				}
				l.logger.Error("reject award event", "message_id", msg.UUID, "error", err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}
}

// Handle grants the prizes of one encoded award.
func (l *Ledger) Handle(payload []byte) error {
	var award collaborator.Award
	if err := sonic.Unmarshal(payload, &award); err != nil {
		return fmt.Errorf("%w: decode award: %w", ErrMalformedAward, err)
	}
	if award.TournamentID == "" || award.ChampionID == "" {
		return crerr.Wrap(ErrMalformedAward, "award without tournament or champion")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, done := l.granted[award.TournamentID]; done {
		return nil
	}
	l.granted[award.TournamentID] = struct{}{}
	l.prizes = append(l.prizes, Prize{
		TournamentID: award.TournamentID,
		Season:       award.Season,
		TeamID:       award.ChampionID,
		Place:        PlaceChampion,
		Amount:       l.purses.Champion,
	})
	if award.RunnerUpID != "" {
		l.prizes = append(l.prizes, Prize{
			TournamentID: award.TournamentID,
			Season:       award.Season,
			TeamID:       award.RunnerUpID,
			Place:        PlaceRunnerUp,
			Amount:       l.purses.RunnerUp,
		})
	}

	l.logger.Info("competition prizes granted",
		"tournament_id", award.TournamentID,
		"champion_id", award.ChampionID,
		"runner_up_id", award.RunnerUpID,
	)
	return nil
}

func (l *Ledger) Prizes() []Prize {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.prizes)
}
