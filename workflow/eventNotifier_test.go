package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/workflow/mocks"
	"github.com/sirupsen/logrus"
	"go.uber.org/mock/gomock"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var testAuth = appctx.Auth{UserId: 7, TenantId: "tenant-1", UserName: "Ana", Email: "ana@test", Role: "ADMIN"}

func TestBuildEnvelope(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	payload := map[string]interface{}{"id": 3, "numero": "PROC-003"}
	env, err := BuildEnvelope(testAuth, EventSourceMobile, "corr-1", "processes", "created", payload, now)
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}
	if env.EventId == "" || env.EventType != "processes" || env.Version != "1.0" || env.Source != "mobile-api" {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Timestamp != now.UnixMilli() || env.TenantId != "tenant-1" {
		t.Fatalf("timestamp/tenant = %d/%s", env.Timestamp, env.TenantId)
	}
	if env.Data["action"] != "created" || env.Data["numero"] != "PROC-003" {
		t.Fatalf("data = %v", env.Data)
	}
	if env.Metadata.UserId != 7 || env.Metadata.CorrelationId != "corr-1" {
		t.Fatalf("metadata = %+v", env.Metadata)
	}
}

func TestNotifyAsyncPublishesToTenantTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	pub := mocks.NewMockPublisher(ctrl)

	var got EventEnvelope
	pub.EXPECT().
		Publish(gomock.Any(), "despasys-tenant-tenant-1-processes", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, topic string, data []byte, attrs map[string]string) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Errorf("publish must run under a deadline")
			}
			if attrs["tenantId"] != "tenant-1" || attrs["action"] != "created" {
				t.Errorf("attrs = %v", attrs)
			}
			return json.Unmarshal(data, &got)
		})

	n := NewEventNotifier(pub, quietLogger(), time.Second, EventSourceMobile)
	n.NotifyAsync(testAuth, "corr-1", "processes", "created", map[string]string{"numero": "PROC-001"})
	n.Wait()

	if got.Data["numero"] != "PROC-001" || got.Data["action"] != "created" {
		t.Fatalf("published data = %v", got.Data)
	}
}

func TestNotifyAsyncSwallowsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("pubsub down"))

	n := NewEventNotifier(pub, quietLogger(), time.Second, "")
	n.NotifyAsync(testAuth, "", "processes", "created", nil)
	n.Wait()
}

func TestNotifyAsyncDoesNotBlockOnSlowPublisher(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, topic string, data []byte, attrs map[string]string) error {
			<-ctx.Done()
			return ctx.Err()
		})

	n := NewEventNotifier(pub, quietLogger(), 50*time.Millisecond, EventSourceMobile)
	start := time.Now()
	n.NotifyAsync(testAuth, "", "processes", "created", nil)
	if elapsed := time.Since(start); elapsed >= 50*time.Millisecond {
		t.Fatalf("NotifyAsync blocked for %s", elapsed)
	}
	n.Wait()
}

func TestNilNotifierIsNoop(t *testing.T) {
	var n *EventNotifier
	n.NotifyAsync(testAuth, "", "processes", "created", nil)
	n.Wait()

	NewEventNotifier(nil, quietLogger(), 0, "").NotifyAsync(testAuth, "", "processes", "created", nil)
}

func TestNotifyAsyncDropsUnknownTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	n := NewEventNotifier(pub, quietLogger(), time.Second, EventSourceWeb)
	n.NotifyAsync(testAuth, "", "invoices", "created", nil)
	n.Wait()
}

func TestNotifyAsyncPublishesEveryModuleTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	pub := mocks.NewMockPublisher(ctrl)
	for _, entity := range []string{"evaluations", "reports", "notifications"} {
		pub.EXPECT().Publish(gomock.Any(), "despasys-tenant-tenant-1-"+entity, gomock.Any(), gomock.Any()).Return(nil)
	}

	n := NewEventNotifier(pub, quietLogger(), time.Second, EventSourceWeb)
	for _, entity := range []string{"evaluations", "reports", "notifications"} {
		n.NotifyAsync(testAuth, "", entity, "created", nil)
	}
	n.Wait()
}
