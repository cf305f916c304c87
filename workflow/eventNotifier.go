package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/config"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks github.com/despasys/despasys_backend/workflow Publisher

// Publisher is the best-effort channel events go out on. config.PubSubPublisher implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) error
}

var ErrUnknownTopic = errors.New("unknown event topic")

const (
	eventVersion      = "1.0"
	EventSourceMobile = "mobile-api"
	EventSourceWeb    = "web-api"
)

type EventMetadata struct {
	UserId        int    `json:"userId"`
	CorrelationId string `json:"correlationId,omitempty"`
}

// EventEnvelope is the message body listeners receive. It is a hint to re-fetch, not a log.
type EventEnvelope struct {
	EventId   string                 `json:"eventId"`
	EventType string                 `json:"eventType"`
	Timestamp int64                  `json:"timestamp"`
	Version   string                 `json:"version"`
	Source    string                 `json:"source"`
	TenantId  string                 `json:"tenantId"`
	Data      map[string]interface{} `json:"data"`
	Metadata  EventMetadata          `json:"metadata"`
}

// BuildEnvelope flattens payload into data and adds the action next to it.
func BuildEnvelope(auth appctx.Auth, source, correlationId, entity, action string, payload interface{}, now time.Time) (EventEnvelope, error) {
	data := map[string]interface{}{}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return EventEnvelope{}, err
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			// not an object; keep it under a key
			data = map[string]interface{}{"payload": json.RawMessage(raw)}
		}
	}
	data["action"] = action
	return EventEnvelope{
		EventId:   uuid.NewString(),
		EventType: entity,
		Timestamp: now.UnixMilli(),
		Version:   eventVersion,
		Source:    source,
		TenantId:  auth.TenantId,
		Data:      data,
		Metadata: EventMetadata{
			UserId:        auth.UserId,
			CorrelationId: correlationId,
		},
	}, nil
}

// EventNotifier publishes tenant events in the background. Failures are logged, never returned.
type EventNotifier struct {
	publisher Publisher
	logger    *logrus.Logger
	timeout   time.Duration
	source    string
	wg        sync.WaitGroup
}

func NewEventNotifier(publisher Publisher, logger *logrus.Logger, timeout time.Duration, source string) *EventNotifier {
	if logger == nil {
		logger = config.GetLogger()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if source == "" {
		source = EventSourceMobile
	}
	return &EventNotifier{publisher: publisher, logger: logger, timeout: timeout, source: source}
}

// NotifyAsync returns immediately. A nil notifier or publisher is a no-op.
func (n *EventNotifier) NotifyAsync(auth appctx.Auth, correlationId, entity, action string, payload interface{}) {
	if n == nil || n.publisher == nil {
		return
	}
	if !config.IsTenantTopic(entity) {
		n.logFailure(auth, entity, action, correlationId, ErrUnknownTopic)
		return
	}
	envelope, err := BuildEnvelope(auth, n.source, correlationId, entity, action, payload, time.Now())
	if err != nil {
		n.logFailure(auth, entity, action, correlationId, err)
		return
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		n.logFailure(auth, entity, action, correlationId, err)
		return
	}
	topic := config.TenantTopicName(auth.TenantId, entity)
	attrs := map[string]string{
		"tenantId":  auth.TenantId,
		"eventType": entity,
		"action":    action,
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.logger.WithFields(logrus.Fields{
					"topic": topic,
					"panic": r,
				}).Error("[event.publish] panic")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.publisher.Publish(ctx, topic, body, attrs); err != nil {
			n.logFailure(auth, entity, action, correlationId, err)
			return
		}
		n.logger.WithFields(logrus.Fields{
			"topic":          topic,
			"event_id":       envelope.EventId,
			"correlation_id": correlationId,
		}).Debug("[event.publish] sent")
	}()
}

func (n *EventNotifier) logFailure(auth appctx.Auth, entity, action, correlationId string, err error) {
	n.logger.WithFields(logrus.Fields{
		"tenant_id":      auth.TenantId,
		"entity":         entity,
		"action":         action,
		"correlation_id": correlationId,
		"error":          err.Error(),
	}).Warn("[event.publish] failed")
}

// Wait blocks until every in-flight publish has finished or timed out.
func (n *EventNotifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}
