package observability

import (
	"context"
	"strings"

	"github.com/riskibarqy/continental-cup/internal/config"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"
)

// InitUptrace configures the global OpenTelemetry providers. Without a DSN it is a no-op.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if !cfg.UptraceEnabled {
		logger.Info("uptrace disabled", "reason", "UPTRACE_ENABLED=false")
		return func(context.Context) error { return nil }, nil
	}
	if strings.TrimSpace(cfg.UptraceDSN) == "" {
		logger.Info("uptrace disabled", "reason", "UPTRACE_DSN empty")
		return func(context.Context) error { return nil }, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResourceAttributes(cupAttributes(cfg.Cup)...),
	)

	logger.Info("uptrace enabled",
		"service_name", cfg.ServiceName,
		"service_version", cfg.ServiceVersion,
		"environment", cfg.AppEnv,
	)
	return uptrace.Shutdown, nil
}

// cupAttributes tags every span with the format the process was started with.
func cupAttributes(cup config.CupConfig) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("cup.league_rounds", cup.LeagueRounds),
		attribute.Int("cup.direct_slots", cup.DirectSlots),
		attribute.Int("cup.playoff_slots", cup.PlayoffSlots),
		attribute.Bool("cup.two_legged_knockout", cup.TwoLeggedKnockout),
		attribute.Bool("cup.two_legged_final", cup.TwoLeggedFinal),
		attribute.String("cup.tie_break", cup.TieBreak),
	}
}
