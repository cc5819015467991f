// internal/app/system/notifier/notifier.go
package notifier

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// Notifier delivers outbound notifications produced by completed operations.
type Notifier interface {
	Send(ctx context.Context, n *models.Notification) error
}

// LogNotifier records notifications in the application log. Stands in for a
// queue-backed sender in environments without one.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{log: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg *models.Notification) error {
	// Each delivery gets a message id, matching what a queue producer would
	// assign, so log lines can be correlated with downstream senders.
	n.log.Info("notification",
		zap.String("messageId", uuid.NewString()),
		zap.String("function", msg.Function),
		zap.String("initiator", msg.Metadata.Initiator),
		zap.String("reqId", msg.Metadata.ReqID),
		zap.Strings("to", msg.Payload.To),
		zap.Strings("cc", msg.Payload.CC),
		zap.String("subject", msg.Payload.Subject),
	)
	return nil
}
