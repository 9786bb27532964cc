package observability

import (
	"fmt"
	"time"
)

// Metrics holds board activity counters derived from the event log.
type Metrics struct {
	TasksCreated  int            `json:"tasks_created"`
	TasksUpdated  int            `json:"tasks_updated"`
	TasksDeleted  int            `json:"tasks_deleted"`
	TasksMoved    int            `json:"tasks_moved"`
	MovesByStatus map[string]int `json:"moves_by_status"`
	EventCount    int            `json:"event_count"`
	OldestEvent   *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent   *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event at or after since.
// MovesByStatus counts committed drags by destination column.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{MovesByStatus: make(map[string]int)}
	m.EventCount = len(events)

	for _, event := range events {
		t := event.Time
		if m.OldestEvent == nil || t.Before(*m.OldestEvent) {
			m.OldestEvent = &t
		}
		if m.NewestEvent == nil || t.After(*m.NewestEvent) {
			m.NewestEvent = &t
		}

		switch event.Type {
		case "task.created":
			m.TasksCreated++
		case "task.updated":
			m.TasksUpdated++
		case "task.deleted":
			m.TasksDeleted++
		case "task.moved":
			m.TasksMoved++
			if status, ok := event.Data["to_status"].(string); ok && status != "" {
				m.MovesByStatus[status]++
			}
		}
	}

	return m, nil
}
