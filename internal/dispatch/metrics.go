package dispatch

import "github.com/DataDog/datadog-go/statsd"

// recordMetrics fires fire-and-forget counters tagged by operation and
// result, discarding the send error. A nil client makes every call a
// no-op.
func recordMetrics(client *statsd.Client, operation, result string) {
	if client == nil {
		return
	}
	tags := []string{"operation:" + operation, "result:" + result}
	_ = client.Incr("xvault.operation.count", tags, 1)
	_ = client.Incr("xvault.operation."+result, tags, 1)
}
