package browser

import (
	"log/slog"
	"time"
)

// sensitiveOps are bridge operations that mutate page state and are
// logged for audit purposes.
var sensitiveOps = map[string]bool{
	"inject_loader":     true,
	"start_recording":   true,
	"resume_recording":  true,
	"stop_recording":    true,
	"set_should_record": true,
}

type evalAuditLogger struct {
	logger *slog.Logger
}

func newEvalAuditLogger(driver string) *evalAuditLogger {
	return &evalAuditLogger{
		logger: slog.Default().With("component", "page-bridge", "driver", driver),
	}
}

func (l *evalAuditLogger) logOp(op string, err error) {
	if l == nil {
		return
	}

	attrs := []any{
		"op", op,
		"ts", time.Now().Unix(),
	}
	if err != nil {
		attrs = append(attrs, "err", err.Error())
	}

	if sensitiveOps[op] {
		l.logger.Info("page_eval", attrs...)
	} else {
		l.logger.Debug("page_eval", attrs...)
	}
}
