package observability

import (
	"strconv"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/continental-cup/internal/config"
	"github.com/riskibarqy/continental-cup/internal/platform/logging"
)

// InitPyroscope starts continuous profiling when enabled. Simulations are CPU and allocation bound,
// so lock and block profiles are not collected.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if !cfg.PyroscopeEnabled {
		logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return func() error { return nil }, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              profileTags(cfg),
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("pyroscope enabled",
		"server_address", cfg.PyroscopeServerAddress,
		"application", cfg.PyroscopeAppName,
	)
	return profiler.Stop, nil
}

func profileTags(cfg config.Config) map[string]string {
	return map[string]string{
		"env":           cfg.AppEnv,
		"service":       cfg.ServiceName,
		"storage":       cfg.StorageDriver,
		"tie_break":     cfg.Cup.TieBreak,
		"sim_workers":   strconv.Itoa(cfg.SimMaxWorkers),
		"league_rounds": strconv.Itoa(cfg.Cup.LeagueRounds),
	}
}
