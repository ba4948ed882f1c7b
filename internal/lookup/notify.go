package lookup

import (
	"go.uber.org/zap"

	"github.com/sells-group/company-lookup/internal/model"
)

// Notifier receives pipeline events. Implementations must be safe for use
// from the single orchestrator goroutine and must not block for long; a
// slow or absent listener never affects pipeline semantics.
type Notifier interface {
	SearchStarted(totalCompanies int)
	Progress(ev model.ProgressEvent)
	CompanyDone(company string, success bool, errMsg string)
	BatchDone(summary model.BatchSummary)
}

// NopNotifier discards all events. Used for the synchronous API path where
// the caller receives the full result set in one reply.
type NopNotifier struct{}

func (NopNotifier) SearchStarted(int) {}

func (NopNotifier) Progress(model.ProgressEvent) {}

func (NopNotifier) CompanyDone(string, bool, string) {}

func (NopNotifier) BatchDone(model.BatchSummary) {}

// LogNotifier writes events to the global zap logger. Used by the CLI.
type LogNotifier struct{}

func (LogNotifier) SearchStarted(total int) {
	zap.L().Info("batch started", zap.Int("total_companies", total))
}

func (LogNotifier) Progress(ev model.ProgressEvent) {
	zap.L().Info("progress",
		zap.String("company", ev.Company),
		zap.String("step", ev.Step),
		zap.String("step_number", ev.StepNumber.String()),
	)
}

func (LogNotifier) CompanyDone(company string, success bool, errMsg string) {
	if success {
		zap.L().Info("company resolved", zap.String("company", company))
		return
	}
	zap.L().Warn("company failed", zap.String("company", company), zap.String("error", errMsg))
}

func (LogNotifier) BatchDone(summary model.BatchSummary) {
	zap.L().Info("batch complete",
		zap.Int("total_companies", summary.TotalCompanies),
		zap.Int("success_count", summary.SuccessCount),
		zap.Int("error_count", summary.ErrorCount),
	)
}
