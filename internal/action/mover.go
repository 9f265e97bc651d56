package action

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/osaze/moneyflow/internal/service"
)

// DryRunMover is a MoneyMover that acknowledges every transfer without
// contacting a banking backend. Used when the host runs without a real
// money-movement integration, and in tests.
type DryRunMover struct {
	logger *slog.Logger
}

// NewDryRunMover creates a dry-run money mover.
func NewDryRunMover() *DryRunMover {
	return &DryRunMover{logger: slog.Default().With("component", "dry-run-mover")}
}

// Perform logs the transfer and reports success with a synthetic reference.
func (m *DryRunMover) Perform(_ context.Context, req service.TransferRequest) (*service.TransferResult, error) {
	ref := "dry-" + uuid.NewString()
	m.logger.Info("Dry-run transfer",
		"type", req.Type,
		"amount", req.Amount,
		"currency", req.Currency,
		"source", req.SourceAccountID,
		"destination", req.DestinationAccount,
		"reference", ref)
	return &service.TransferResult{Success: true, Reference: ref}, nil
}

// LogNotifier is a Notifier that writes notifications to the log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: slog.Default().With("component", "notify")}
}

// Notify logs the notification message.
func (n *LogNotifier) Notify(_ context.Context, message string) error {
	n.logger.Info("Notification", "message", message)
	return nil
}
