package entities

import (
	"time"

	"github.com/google/uuid"
)

// ReportEventType represents the type of report lifecycle event
type ReportEventType string

const (
	ReportEventTypeCreated ReportEventType = "report_created"
	ReportEventTypeUpdated ReportEventType = "report_updated"
	ReportEventTypeDeleted ReportEventType = "report_deleted"
)

// ReportEvent represents a real-time lifecycle event for a report, published
// on the event bus and forwarded to stream subscribers.
type ReportEvent struct {
	ID        string          `json:"id"`
	ReportID  string          `json:"reportId"`
	VaersID   string          `json:"vaersId"`
	EventType ReportEventType `json:"eventType"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewReportEvent creates a new report event
func NewReportEvent(reportID, vaersID string, eventType ReportEventType) *ReportEvent {
	return &ReportEvent{
		ID:        uuid.NewString(),
		ReportID:  reportID,
		VaersID:   vaersID,
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
