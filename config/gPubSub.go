package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

const TopicPrefix = "despasys-tenant-"

// TenantTopics are the per-tenant channels listeners may subscribe to.
var TenantTopics = []string{"processes", "clients", "financial", "appointments", "evaluations", "reports", "notifications", "system"}

// IsTenantTopic reports whether entity names one of TenantTopics.
func IsTenantTopic(entity string) bool {
	for _, t := range TenantTopics {
		if t == entity {
			return true
		}
	}
	return false
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func init() {
	// Load env from .env
	godotenv.Load()
}

// TenantTopicName scopes a topic to one tenant: despasys-tenant-<tenantId>-<entity>.
func TenantTopicName(tenantId, entity string) string {
	return fmt.Sprintf("%s%s-%s", TopicPrefix, tenantId, entity)
}

// GetClient returns a Pub/Sub client, initializing with retries if needed.
// It uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is provided.
func GetClient(ctx context.Context) (*pubsub.Client, error) {
	return getPubSubClient(ctx)
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	// Cloud Run/Cloud Functions often set this.
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	if v := os.Getenv("GCP_PROJECT"); v != "" {
		return v
	}
	return ""
}

// getPubSubClient retries until ctx is done; a publish must never outlive its own deadline.
func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON")

	var attempt int
	for {
		attempt++

		var (
			c   *pubsub.Client
			err error
		)
		if credJSON != "" {
			c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
		} else {
			// Uses Application Default Credentials (Cloud Run service account or GOOGLE_APPLICATION_CREDENTIALS).
			c, err = pubsub.NewClient(ctx, projectID)
		}
		if err == nil {
			pubsubClientMu.Lock()
			if pubsubClient == nil {
				pubsubClient = c
			} else {
				// Another goroutine won the race; close ours.
				_ = c.Close()
			}
			c2 := pubsubClient
			pubsubClientMu.Unlock()

			log.Printf("pubsub client ready (project_id=%s attempt=%d)", projectID, attempt)
			return c2, nil
		}

		sleep := backoff(attempt)
		log.Printf("failed to init pubsub client (project_id=%s attempt=%d): %v; retrying in %s", projectID, attempt, err, sleep)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

func CreateTopicIfNotExists(ctx context.Context, c *pubsub.Client, topic string) (*pubsub.Topic, error) {
	if c == nil {
		return nil, errors.New("pubsub client is nil")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	t := c.Topic(topic)
	ok, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return t, nil
	}
	t, err = c.CreateTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("create topic %q: %w", topic, err)
	}
	return t, nil
}

// PubSubPublisher publishes raw payloads to named topics, creating them on first use.
type PubSubPublisher struct {
	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

func NewPubSubPublisher() *PubSubPublisher {
	return &PubSubPublisher{topics: map[string]*pubsub.Topic{}}
}

func (p *PubSubPublisher) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	p.mu.Lock()
	t := p.topics[name]
	p.mu.Unlock()
	if t != nil {
		return t, nil
	}

	client, err := getPubSubClient(ctx)
	if err != nil {
		return nil, err
	}
	t, err = CreateTopicIfNotExists(ctx, client, name)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing := p.topics[name]; existing != nil {
		return existing, nil
	}
	p.topics[name] = t
	return t, nil
}

// Publish sends one message and waits for the server-assigned id or ctx expiry.
func (p *PubSubPublisher) Publish(ctx context.Context, topicName string, data []byte, attrs map[string]string) error {
	t, err := p.topic(ctx, topicName)
	if err != nil {
		return err
	}
	result := t.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	_, err = result.Get(ctx)
	return err
}

// Stop flushes and stops every cached topic.
func (p *PubSubPublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, t := range p.topics {
		t.Stop()
		delete(p.topics, name)
	}
}
