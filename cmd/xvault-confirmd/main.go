// Command xvault-confirmd runs the confirmation worker: it drains the
// Redis queue of "submitted"-mode mints/burns and polls the ledger
// client until each is validated, purely for observability — it never
// mutates vault state, since the dispatcher already committed
// synchronously.
package main

import (
	"log"

	"github.com/hibiken/asynq"

	"github.com/xvault-labs/xvault-core/config"
	"github.com/xvault-labs/xvault-core/internal/logging"
	"github.com/xvault-labs/xvault-core/internal/tokenadapter"
)

func main() {
	cfg, err := config.Load("config", ".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger := logging.New()
	redisAddr := cfg.Redis.Host + ":" + cfg.Redis.Port

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"low": 1,
			},
		},
	)

	logger.WithField("redis", redisAddr).Info("starting xvault-confirmd")

	mux := asynq.NewServeMux()
	// No LedgerClient is configured by default (simulate-only
	// deployments never enqueue a confirmation task in the first
	// place); a deployment with a real ledger client wires it here.
	tokenadapter.RegisterConfirmationHandler(mux, nil, logger)

	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run confirmation worker: %v", err)
	}
}
