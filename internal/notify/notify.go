// Package notify defines how availability changes are delivered to people.
package notify

import (
	"context"
	"fmt"

	"github.com/rewired-gh/stakewatch/internal/logger"
	"github.com/rewired-gh/stakewatch/internal/models"
)

// Notifier delivers one availability message.
type Notifier interface {
	Notify(ctx context.Context, category models.Category, key models.ProductKey, available bool) error
}

// HealthReporter is implemented by notifiers that can also tell the user
// when a category's status endpoint starts failing and when it recovers.
type HealthReporter interface {
	ReportFailure(ctx context.Context, category models.Category, err error) error
	ReportRecovery(ctx context.Context, category models.Category, failures int) error
}

// Error reports a failed delivery. It is never retried.
type Error struct {
	Category models.Category
	Key      models.ProductKey
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("notify %s %s: %v", e.Category, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message renders the text announced for a product.
func Message(key models.ProductKey, available bool) string {
	if available {
		return key.PrettyName() + " is available for staking!"
	}
	return key.PrettyName() + " is no longer available for staking!"
}

// LogNotifier writes messages to the log instead of a chat.
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(ctx context.Context, category models.Category, key models.ProductKey, available bool) error {
	logger.Info("[notify] [%s] %s", category, Message(key, available))
	return nil
}
