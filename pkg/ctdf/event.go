package ctdf

import (
	"fmt"
	"time"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Body      interface{}
}

type EventType string

const (
	EventTypeRunCompleted EventType = "RunCompleted"
	EventTypeRunFailed    EventType = "RunFailed"
)

type EventNotificationData struct {
	Title   string
	Message string
}

// GetNotificationData works on events that have been through a JSON round trip so Body
// is a generic map.
func (e *Event) GetNotificationData() EventNotificationData {
	eventNotificationData := EventNotificationData{}

	eventBody, _ := e.Body.(map[string]interface{})

	switch e.Type {
	case EventTypeRunCompleted:
		eventNotificationData.Title = "Run completed"
		eventNotificationData.Message = fmt.Sprintf("Run %v fused %v records for %v vehicles", eventBody["RunIdentifier"], eventBody["FusedRecords"], eventBody["Vehicles"])
	case EventTypeRunFailed:
		eventNotificationData.Title = "Run failed"
		eventNotificationData.Message = fmt.Sprintf("Run %v failed: %v", eventBody["RunIdentifier"], eventBody["Error"])
	}

	return eventNotificationData
}
