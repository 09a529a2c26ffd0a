package pubsub

import (
	"context"
	"errors"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/aether-storefront/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResult struct{ err error }

func (s stubResult) Get(context.Context) (string, error) { return "id-1", s.err }

type stubPublisher struct {
	msgs    []*pubsub.Message
	err     error
	stopped bool
}

func (s *stubPublisher) Publish(_ context.Context, msg *pubsub.Message) publishResult {
	s.msgs = append(s.msgs, msg)
	return stubResult{err: s.err}
}

func (s *stubPublisher) Stop() { s.stopped = true }

func TestPublishAddsKeyAttribute(t *testing.T) {
	stub := &stubPublisher{}
	c := &Client{projectID: "proj", topic: "projects/proj/topics/events", pub: stub}

	err := c.Publish(context.Background(), "profile-1", []byte(`{"a":1}`), map[string]string{"type": "cart.updated"})
	require.NoError(t, err)
	require.Len(t, stub.msgs, 1)
	assert.Equal(t, "profile-1", stub.msgs[0].Attributes["key"])
	assert.Equal(t, "cart.updated", stub.msgs[0].Attributes["type"])

	require.NoError(t, c.Close())
	assert.True(t, stub.stopped)
}

func TestPublishWrapsErrors(t *testing.T) {
	c := &Client{topic: "t", pub: &stubPublisher{err: errors.New("unavailable")}}
	err := c.Publish(context.Background(), "", []byte("x"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "proj"}
	assert.Equal(t, "projects/proj/topics/events", c.topicResourceName("events"))
	assert.Equal(t, "projects/x/topics/y", c.topicResourceName("projects/x/topics/y"))
	assert.Equal(t, "", c.topicResourceName(" "))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{Topic: "t"}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)
}
