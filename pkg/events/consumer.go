package events

import (
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
)

type BatchConsumer struct {
	Handler func(event *ctdf.Event)
}

func NewBatchConsumer() *BatchConsumer {
	return &BatchConsumer{Handler: logEvent}
}

func (consumer *BatchConsumer) Consume(batch rmq.Deliveries) {
	for _, delivery := range batch {
		event, err := decodeEvent(delivery.Payload())
		if err != nil {
			log.Error().Err(err).Msg("Failed to decode event")

			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject event")
			}
			continue
		}

		consumer.Handler(event)

		if err := delivery.Ack(); err != nil {
			log.Error().Err(err).Msg("Failed to ack event")
		}
	}
}

func decodeEvent(payload string) (*ctdf.Event, error) {
	var event ctdf.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}

	return &event, nil
}

func logEvent(event *ctdf.Event) {
	notification := event.GetNotificationData()

	log.Info().
		Str("type", string(event.Type)).
		Time("timestamp", event.Timestamp).
		Str("title", notification.Title).
		Msg(notification.Message)
}
