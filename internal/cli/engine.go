package cli

import (
	"time"

	"go.uber.org/zap"

	"github.com/fluxion-dl/fluxion/internal/fluxion/config"
	"github.com/fluxion-dl/fluxion/internal/fluxion/engine"
	"github.com/fluxion-dl/fluxion/internal/fluxion/metrics"
)

func newEngine(verifyTLS bool, timeout time.Duration, proxy string) (*engine.Engine, error) {
	return newEngineWithConnections(verifyTLS, timeout, proxy, 0)
}

func newEngineWithConnections(verifyTLS bool, timeout time.Duration, proxy string, maxConnections int) (*engine.Engine, error) {
	cfg, _ := config.Load()

	var logger *zap.Logger
	if quiet {
		logger = zap.NewNop()
	} else {
		built, err := zap.NewProduction()
		if err != nil {
			logger = zap.NewNop()
		} else {
			logger = built
		}
	}

	if maxConnections <= 0 {
		maxConnections = cfg.MaxConnections
	}

	return engine.New(engine.Options{
		VerifyTLS:      verifyTLS,
		Timeout:        timeout,
		Proxy:          proxy,
		EnableHTTP3:    cfg.EnableHTTP3,
		MaxConnections: maxConnections,
		Metrics:        metrics.Noop(),
		Logger:         logger,
	})
}
