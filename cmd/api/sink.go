package main

import (
	"context"

	"github.com/angelmondragon/aether-storefront/api/controllers"
	"github.com/angelmondragon/aether-storefront/internal/events"
	"github.com/angelmondragon/aether-storefront/pkg/config"
	"github.com/angelmondragon/aether-storefront/pkg/kafka"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
	"github.com/angelmondragon/aether-storefront/pkg/pubsub"
)

// sink is the external event broker selected by AETHER_EVENTS_SINK; publisher is nil for "none".
type sink struct {
	publisher events.Sink
	pinger    controllers.Pinger
	closer    func() error
}

func (s sink) close(ctx context.Context, logg *logger.Logger) {
	if s.closer == nil {
		return
	}
	if err := s.closer(); err != nil {
		logg.Error(ctx, "error closing event sink", err)
	}
}

func openSink(ctx context.Context, cfg *config.Config, logg *logger.Logger) (sink, error) {
	switch cfg.Events.Sink {
	case config.EventSinkPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return sink{}, err
		}
		return sink{publisher: client, pinger: client, closer: client.Close}, nil

	case config.EventSinkKafka:
		writer, err := kafka.NewWriter(ctx, cfg.Kafka, logg)
		if err != nil {
			return sink{}, err
		}
		return sink{publisher: writer, closer: writer.Close}, nil

	default:
		return sink{}, nil
	}
}
