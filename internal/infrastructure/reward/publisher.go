package reward

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/continental-cup/internal/domain/collaborator"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
	"github.com/riskibarqy/continental-cup/internal/platform/resilience"
)

const TopicChampionDeclared = "cup.champion_declared"

// Publisher emits award events on a watermill topic behind a circuit breaker.
type Publisher struct {
	publisher message.Publisher
	topic     string
	breaker   *resilience.CircuitBreaker
	logger    *logging.Logger
}

func NewPublisher(publisher message.Publisher, breaker *resilience.CircuitBreaker, logger *logging.Logger) *Publisher {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})
	}
	return &Publisher{
		publisher: publisher,
		topic:     TopicChampionDeclared,
		breaker:   breaker,
		logger:    logger,
	}
}

func (p *Publisher) ChampionDeclared(ctx context.Context, award collaborator.Award) error {
	payload, err := sonic.Marshal(award)
	if err != nil {
		return crerr.Wrap(err, "marshal award")
	}

	err = p.breaker.Execute(ctx, func(ctx context.Context) error {
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)
		msg.Metadata.Set("tournament_id", award.TournamentID)
		return p.publisher.Publish(p.topic, msg)
	})
	if err != nil {
		return crerr.Wrapf(err, "publish award tournament=%s", award.TournamentID)
	}

	p.logger.InfoContext(ctx, "award published",
		"tournament_id", award.TournamentID,
		"champion_id", award.ChampionID,
		"topic", p.topic,
	)
	return nil
}
