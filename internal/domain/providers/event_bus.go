package providers

import (
	"context"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to report
// lifecycle events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ReportEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ReportEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelReportUpdates is the channel for all report lifecycle events
	EventChannelReportUpdates = "reports:updates"

	// EventChannelReportPrefix is the prefix for report-specific channels
	EventChannelReportPrefix = "reports:"
)

// GetReportChannel returns the channel name for a specific report
func GetReportChannel(reportID string) string {
	return EventChannelReportPrefix + reportID
}
