package events

import "time"

const (
	TypeCaseIngested  = "CASE_INGESTED"
	TypeCaseIndexed   = "CASE_INDEXED"
	TypeInsightsReady = "INSIGHTS_READY"
)

// Event defines the contract for all domain events.
type Event interface {
	// EventType returns the unique code for this event (e.g. "CASE_INDEXED").
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

// Payload carries the data plus the event type and time so consumers need
// only the message body.
func (e BaseEvent) Payload() map[string]interface{} {
	out := make(map[string]interface{}, len(e.Data)+2)
	for k, v := range e.Data {
		out[k] = v
	}
	out["type"] = e.Type
	out["occurred_at"] = e.OccurredAt.UTC().Format(time.RFC3339)
	return out
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func CaseIngested(userID, caseID, reportType string) BaseEvent {
	return BaseEvent{
		Type:       TypeCaseIngested,
		Data:       map[string]interface{}{"user_id": userID, "case_id": caseID, "report_type": reportType},
		OccurredAt: time.Now(),
	}
}

func CaseIndexed(userID, caseID string, chunks int) BaseEvent {
	return BaseEvent{
		Type:       TypeCaseIndexed,
		Data:       map[string]interface{}{"user_id": userID, "case_id": caseID, "chunks": chunks},
		OccurredAt: time.Now(),
	}
}

func InsightsReady(userID, caseID, path string) BaseEvent {
	return BaseEvent{
		Type:       TypeInsightsReady,
		Data:       map[string]interface{}{"user_id": userID, "case_id": caseID, "path": path},
		OccurredAt: time.Now(),
	}
}
