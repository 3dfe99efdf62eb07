package events

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/redis_client"
	"github.com/travigo/trajfusion/pkg/stats"
)

const RunEventsQueue = "run-events"

var ErrNotConnected = errors.New("redis queue connection not open")

type RunFailure struct {
	RunIdentifier string
	Error         string
}

func Publish(event ctdf.Event) error {
	if redis_client.QueueConnection == nil {
		return ErrNotConnected
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	queue, err := redis_client.QueueConnection.OpenQueue(RunEventsQueue)
	if err != nil {
		return err
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return queue.PublishBytes(eventBytes)
}

func PublishRunCompleted(statistics *stats.RunStatistics) error {
	return Publish(ctdf.Event{
		Type: ctdf.EventTypeRunCompleted,
		Body: statistics,
	})
}

func PublishRunFailed(runIdentifier string, runErr error) error {
	return Publish(ctdf.Event{
		Type: ctdf.EventTypeRunFailed,
		Body: RunFailure{
			RunIdentifier: runIdentifier,
			Error:         runErr.Error(),
		},
	})
}
