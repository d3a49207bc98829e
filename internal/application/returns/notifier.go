package returns

import (
	"context"

	"github.com/stockroom/backend/internal/domain/returns"
	"go.uber.org/zap"
)

// Notifier sends customer/operations notifications after return state
// transitions. Notification is fire-and-forget: callers log failures and
// never let them roll back the transaction that triggered them.
type Notifier interface {
	ReturnSubmitted(ctx context.Context, request *returns.ReturnRequest) error
	ReturnDecided(ctx context.Context, request *returns.ReturnRequest) error
	AgentAssigned(ctx context.Context, request *returns.ReturnRequest) error
	PickupCompleted(ctx context.Context, request *returns.ReturnRequest) error
}

// LoggingNotifier is the default Notifier: it records the notification in
// the log and leaves actual delivery to an out-of-scope dispatch service.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier creates a LoggingNotifier
func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	return &LoggingNotifier{logger: logger}
}

func (n *LoggingNotifier) notify(kind string, request *returns.ReturnRequest) error {
	n.logger.Info("return notification",
		zap.String("kind", kind),
		zap.String("return_request_id", request.ID.String()),
		zap.String("status", string(request.Status)),
		zap.String("delivery_status", string(request.DeliveryStatus)),
	)
	return nil
}

// ReturnSubmitted logs the submission notification
func (n *LoggingNotifier) ReturnSubmitted(_ context.Context, request *returns.ReturnRequest) error {
	return n.notify("return_submitted", request)
}

// ReturnDecided logs the decision notification
func (n *LoggingNotifier) ReturnDecided(_ context.Context, request *returns.ReturnRequest) error {
	return n.notify("return_decided", request)
}

// AgentAssigned logs the assignment notification
func (n *LoggingNotifier) AgentAssigned(_ context.Context, request *returns.ReturnRequest) error {
	return n.notify("agent_assigned", request)
}

// PickupCompleted logs the completion notification
func (n *LoggingNotifier) PickupCompleted(_ context.Context, request *returns.ReturnRequest) error {
	return n.notify("pickup_completed", request)
}

var _ Notifier = (*LoggingNotifier)(nil)
