package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/angelmondragon/aether-storefront/pkg/config"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// publisher is the slice of *pubsub.Publisher the client needs.
type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) publishResult
	Stop()
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type Client struct {
	client    *pubsub.Client
	projectID string
	topic     string
	pub       publisher
}

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errTopicRequired     = errors.New("pubsub topic is required")
)

// NewClient creates a Pub/Sub v2 client and verifies the event topic exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errTopicRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		projectID: gcp.ProjectID,
	}
	c.topic = c.topicResourceName(cfg.Topic)

	if err := c.ensureTopicExists(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}
	c.pub = v2Publisher{p: psClient.Publisher(c.topic)}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", c.topic), "pubsub client initialized")
	}
	return c, nil
}

func (c *Client) ensureTopicExists(ctx context.Context) error {
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: c.topic})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", c.topic)
		}
		return fmt.Errorf("checking topic %q: %w", c.topic, err)
	}
	return nil
}

// Publish sends one message and waits for the server ack.
func (c *Client) Publish(ctx context.Context, key string, data []byte, attrs map[string]string) error {
	if c == nil || c.pub == nil {
		return errors.New("pubsub client not initialized")
	}
	attributes := make(map[string]string, len(attrs)+1)
	for k, v := range attrs {
		attributes[k] = v
	}
	if key != "" {
		attributes["key"] = key
	}
	msg := &pubsub.Message{Data: data, Attributes: attributes}
	if _, err := c.pub.Publish(ctx, msg).Get(ctx); err != nil {
		return fmt.Errorf("publish to %s: %w", c.topic, err)
	}
	return nil
}

// Ping verifies Pub/Sub connectivity by checking the topic exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	return c.ensureTopicExists(ctx)
}

// Close flushes pending publishes and releases the client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.pub != nil {
		c.pub.Stop()
	}
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) topicResourceName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/") {
		return n
	}
	p := strings.TrimSpace(c.projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/topics/%s", p, n)
}

type v2Publisher struct {
	p *pubsub.Publisher
}

func (v v2Publisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	return v.p.Publish(ctx, msg)
}

func (v v2Publisher) Stop() {
	v.p.Stop()
}
