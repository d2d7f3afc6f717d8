package observability

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/riskibarqy/continental-cup/internal/config"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitUptrace_Disabled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := config.Config{
		UptraceEnabled: false,
		ServiceName:    "continental-cup",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}

	shutdown, err := InitUptrace(cfg, logging.FromZap(zap.New(core)))
	if err != nil {
		t.Fatalf("init uptrace: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown uptrace: %v", err)
	}
	if logs.FilterMessage("uptrace disabled").Len() != 1 {
		t.Fatalf("expected disabled log entry")
	}
}

func TestInitPyroscope_Disabled(t *testing.T) {
	stop, err := InitPyroscope(config.Config{PyroscopeEnabled: false}, logging.NewNop())
	if err != nil {
		t.Fatalf("init pyroscope: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop pyroscope: %v", err)
	}
}

func TestCupAttributes(t *testing.T) {
	attrs := cupAttributes(config.CupConfig{LeagueRounds: 8, DirectSlots: 8, PlayoffSlots: 16, TwoLeggedKnockout: true, TieBreak: config.TieBreakLot})

	got := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	want := map[string]string{
		"cup.league_rounds":       "8",
		"cup.direct_slots":        "8",
		"cup.playoff_slots":       "16",
		"cup.two_legged_knockout": "true",
		"cup.two_legged_final":    "false",
		"cup.tie_break":           config.TieBreakLot,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected attributes (-want +got):\n%s", diff)
	}
}

func TestProfileTags(t *testing.T) {
	tags := profileTags(config.Config{
		AppEnv:        config.EnvProd,
		ServiceName:   "continental-cup",
		StorageDriver: config.StoragePostgres,
		SimMaxWorkers: 6,
		Cup:           config.CupConfig{LeagueRounds: 8, TieBreak: config.TieBreakPenalties},
	})
	if tags["storage"] != config.StoragePostgres || tags["sim_workers"] != "6" || tags["tie_break"] != config.TieBreakPenalties {
		t.Fatalf("unexpected tags: %+v", tags)
	}
}
