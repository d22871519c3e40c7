// Command xvaultd is the process entrypoint: it wires config, the
// structured logger, the in-memory vault store (restored from disk if
// a prior state file exists), the rate limiter, the token adapter, and
// the dispatcher, then hands the result to the runtime adapter, which
// blocks reading newline-delimited requests on stdin and writing
// framed responses on stdout. No package-level
// init(); every collaborator is built and passed down explicitly.
package main

import (
	"log"
	"os"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/sirupsen/logrus"

	"github.com/xvault-labs/xvault-core/config"
	"github.com/xvault-labs/xvault-core/internal/dispatch"
	"github.com/xvault-labs/xvault-core/internal/logging"
	"github.com/xvault-labs/xvault-core/internal/runtime"
	"github.com/xvault-labs/xvault-core/internal/tokenadapter"
	"github.com/xvault-labs/xvault-core/internal/vaultstore"
)

func main() {
	cfg, err := config.Load("config", ".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger := logging.New()
	logger.WithFields(logrus.Fields{
		"stateFile": cfg.Server.StateFilePath,
		"teamMode":  cfg.Server.TeamModeEnabled,
	}).Info("starting xvaultd")

	store, err := vaultstore.Load(cfg.Server.StateFilePath, logger)
	if err != nil {
		logger.WithError(err).Fatal("could not load vault store state")
	}

	rateLimiter := vaultstore.NewRateLimiter(cfg.Server.RateLimitPerKey)

	var queue *tokenadapter.ConfirmationQueue
	if cfg.Redis.Host != "" {
		queue = tokenadapter.NewConfirmationQueue(cfg.Redis.Host+":"+cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		defer queue.Close()
	}

	// Client and Signers stay nil until a real ledger integration is
	// configured; the adapter falls back to its simulated submission
	// mode.
	tokenAdapter := tokenadapter.New(cfg.Ledger.Issuer, nil, nil, cfg.Server.DevFallback, queue, logger)

	audit := &dispatch.LogAuditSink{Logger: logger}

	var metrics *statsd.Client
	if addr := os.Getenv("XVAULT_STATSD_ADDR"); addr != "" {
		if c, err := statsd.New(addr); err != nil {
			logger.WithError(err).Warn("could not initialize statsd client, metrics disabled")
		} else {
			metrics = c
			defer c.Close()
		}
	}

	dispatcher := dispatch.New(store, rateLimiter, tokenAdapter, logger, audit, metrics,
		cfg.Server.StateFilePath, cfg.Server.GatewayBaseURL, cfg.Server.TeamModeEnabled, cfg.Server.MutableURIToken)

	adapter := runtime.New(dispatcher, logger)
	if err := adapter.Serve(os.Stdin, os.Stdout); err != nil {
		logger.WithError(err).Fatal("runtime adapter terminated")
	}
}
