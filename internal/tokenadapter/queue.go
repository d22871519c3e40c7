package tokenadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// TypeConfirmSubmission is the asynq task type name for the
// confirmation path.
const TypeConfirmSubmission = "tokenadapter:confirm_submission"

// ConfirmationPayload is the task body enqueued after every submitted
// mint/burn when the adapter has a queue configured.
type ConfirmationPayload struct {
	Kind    OpKind `json:"kind"`
	TokenID string `json:"tokenId"`
	TxHash  string `json:"txHash"`
}

// ConfirmationQueue wraps an asynq client, scoped to one Redis
// connection per process rather than a package-level client.
type ConfirmationQueue struct {
	client *asynq.Client
}

// NewConfirmationQueue connects to redisAddr. Callers that never want
// the async path simply never construct one and pass a nil
// *ConfirmationQueue to New.
func NewConfirmationQueue(redisAddr, password string, db int) *ConfirmationQueue {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr, Password: password, DB: db})
	return &ConfirmationQueue{client: client}
}

// EnqueueConfirmation schedules a TypeConfirmSubmission task on the
// "low" queue — confirmation polling is never latency-sensitive since
// the synchronous call already returned mode="submitted".
func (q *ConfirmationQueue) EnqueueConfirmation(ctx context.Context, payload ConfirmationPayload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("tokenadapter: failed to marshal confirmation payload: %w", err)
	}
	task := asynq.NewTask(TypeConfirmSubmission, b)
	_, err = q.client.EnqueueContext(ctx, task, asynq.Queue("low"))
	return err
}

// Close releases the underlying Redis connection.
func (q *ConfirmationQueue) Close() error {
	return q.client.Close()
}

// RegisterConfirmationHandler wires TypeConfirmSubmission into an
// asynq.ServeMux for a worker process. The handler polls
// client.Request until AccountInfo.Validated is true, then returns
// nil so asynq marks the task done; it never mutates vault state,
// since the dispatcher already committed mode="submitted"
// synchronously — this handler only observes.
func RegisterConfirmationHandler(mux *asynq.ServeMux, client LedgerClient, logger *logrus.Logger) {
	mux.HandleFunc(TypeConfirmSubmission, func(ctx context.Context, t *asynq.Task) error {
		var p ConfirmationPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("tokenadapter: bad confirmation payload: %v: %w", err, asynq.SkipRetry)
		}
		info, err := client.Request(ctx, p.TokenID)
		if err != nil {
			return fmt.Errorf("tokenadapter: confirmation poll failed: %w", err)
		}
		if !info.Validated {
			return fmt.Errorf("tokenadapter: %s %s not yet validated", p.Kind, p.TokenID)
		}
		logger.WithFields(logrus.Fields{"kind": p.Kind, "tokenId": p.TokenID, "txHash": p.TxHash}).
			Info("submission confirmed")
		return nil
	})
}
