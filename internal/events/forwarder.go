package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

const envelopeVersion = 1

// Sink is an external broker the forwarder relays events to.
type Sink interface {
	Publish(ctx context.Context, key string, data []byte, attrs map[string]string) error
}

// Envelope is the wire shape written to the sink.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	Type       Type            `json:"type"`
	ProfileID  string          `json:"profileId,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Encode builds the JSON envelope and broker attributes for evt.
func Encode(evt Event) ([]byte, map[string]string, error) {
	data, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s payload: %w", evt.Type, err)
	}
	body, err := json.Marshal(Envelope{
		Version:    envelopeVersion,
		EventID:    evt.ID,
		Type:       evt.Type,
		ProfileID:  evt.ProfileID,
		OccurredAt: evt.OccurredAt,
		Data:       data,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s envelope: %w", evt.Type, err)
	}
	attrs := map[string]string{
		"event_type": string(evt.Type),
		"event_id":   evt.ID,
		"version":    fmt.Sprint(envelopeVersion),
	}
	return body, attrs, nil
}

// Forwarder relays bus events to a Sink from a background goroutine.
// A full queue drops the event; sink errors are logged and never reach the publisher.
type Forwarder struct {
	sink    Sink
	logg    *logger.Logger
	timeout time.Duration
	queue   chan Event

	once sync.Once
	done chan struct{}
}

func NewForwarder(sink Sink, logg *logger.Logger, timeout time.Duration, buffer int) (*Forwarder, error) {
	if sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if buffer <= 0 {
		buffer = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Forwarder{
		sink:    sink,
		logg:    logg,
		timeout: timeout,
		queue:   make(chan Event, buffer),
		done:    make(chan struct{}),
	}, nil
}

// Handle is a bus Handler.
func (f *Forwarder) Handle(ctx context.Context, evt Event) {
	select {
	case f.queue <- evt:
	default:
		f.logg.Warn(f.logg.WithField(ctx, "event_type", string(evt.Type)), "event forwarder queue full, dropping event")
	}
}

// Run drains the queue until ctx is cancelled, then flushes what is buffered.
func (f *Forwarder) Run(ctx context.Context) {
	defer f.once.Do(func() { close(f.done) })
	for {
		select {
		case evt := <-f.queue:
			f.send(evt)
		case <-ctx.Done():
			for {
				select {
				case evt := <-f.queue:
					f.send(evt)
				default:
					return
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (f *Forwarder) Done() <-chan struct{} {
	return f.done
}

func (f *Forwarder) send(evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	logCtx := f.logg.WithFields(ctx, map[string]any{
		"event_type": string(evt.Type),
		"event_id":   evt.ID,
		"profile_id": evt.ProfileID,
	})

	body, attrs, err := Encode(evt)
	if err != nil {
		f.logg.Error(logCtx, "encode event", err)
		return
	}
	if err := f.sink.Publish(ctx, evt.ProfileID, body, attrs); err != nil {
		f.logg.Error(logCtx, "forward event", err)
		return
	}
	f.logg.Debug(logCtx, "event forwarded")
}
