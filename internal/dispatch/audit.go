package dispatch

import "github.com/sirupsen/logrus"

// AuditRecord is one audit log entry, emitted once per completed
// operation (success or failure).
type AuditRecord struct {
	At        string         `json:"at"`
	Event     string         `json:"event"`
	Success   bool           `json:"success"`
	Actor     string         `json:"actor,omitempty"`
	VaultID   string         `json:"vaultId,omitempty"`
	Code      string         `json:"code,omitempty"`
	ErrorID   string         `json:"errorId,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// AuditSink is where audit records are routed. The dispatcher only
// needs an interface to call, not an opinion on the destination.
type AuditSink interface {
	Emit(AuditRecord)
}

// LogAuditSink writes audit records through the structured logger the
// rest of the core uses, one WithFields call per record.
type LogAuditSink struct {
	Logger *logrus.Logger
}

func (s *LogAuditSink) Emit(rec AuditRecord) {
	fields := logrus.Fields{
		"at":      rec.At,
		"event":   rec.Event,
		"success": rec.Success,
	}
	if rec.Actor != "" {
		fields["actor"] = rec.Actor
	}
	if rec.VaultID != "" {
		fields["vaultId"] = rec.VaultID
	}
	if rec.Code != "" {
		fields["code"] = rec.Code
	}
	if rec.ErrorID != "" {
		fields["errorId"] = rec.ErrorID
	}
	if rec.RequestID != "" {
		fields["requestId"] = rec.RequestID
	}
	for k, v := range rec.Detail {
		fields["detail."+k] = v
	}
	entry := s.Logger.WithFields(fields)
	if rec.Success {
		entry.Info("audit")
	} else {
		entry.Warn("audit")
	}
}
