//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"knowledge_sync/internal/domain"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) config(name string) Config {
	return Config{
		URL:        s.amqpURL,
		Exchange:   "exchange-" + name,
		RoutingKey: "key-" + name,
		QueueName:  "queue-" + name,
		Prefetch:   5,
	}
}

func event(itemID string) domain.ItemEvent {
	return domain.ItemEvent{
		Action:   domain.ItemActionCreated,
		UserID:   "u1",
		ItemID:   itemID,
		Provider: domain.ProviderSlack,
		SourceID: "C1:" + itemID,
	}
}

func (s *RabbitMQIntegrationSuite) TestPublisher_Connection() {
	pub, err := NewRabbitMQ(s.config("conn"), s.logger)
	s.NoError(err)
	s.NotNil(pub)

	s.NoError(pub.Close())
}

func (s *RabbitMQIntegrationSuite) TestPublisher_MessageFormat() {
	cfg := s.config("format")
	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	s.Require().NoError(pub.Publish(s.ctx, event("item-1")))

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)
	s.Equal("application/json", msg.ContentType)
	s.Equal("item-1", msg.MessageId)
	s.Equal(uint8(amqp.Persistent), msg.DeliveryMode)

	var received domain.ItemEvent
	s.Require().NoError(json.Unmarshal(msg.Body, &received))
	s.Equal(domain.ItemActionCreated, received.Action)
	s.Equal("u1", received.UserID)
	s.Equal(domain.ProviderSlack, received.Provider)
	s.Equal("C1:item-1", received.SourceID)
	s.False(received.Timestamp.IsZero())
}

func (s *RabbitMQIntegrationSuite) TestConsume_DeliversAndRetriesOnce() {
	cfg := s.config("consume")
	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	s.Require().NoError(pub.Publish(s.ctx, event("ok")))
	s.Require().NoError(pub.Publish(s.ctx, event("flaky")))

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	var (
		mu    sync.Mutex
		calls = map[string]int{}
	)
	done := make(chan struct{})
	go func() {
		_ = pub.Consume(ctx, func(_ context.Context, e domain.ItemEvent) error {
			mu.Lock()
			defer mu.Unlock()
			calls[e.ItemID]++
			if e.ItemID == "flaky" && calls[e.ItemID] == 1 {
				return errors.New("transient")
			}
			if calls["ok"] == 1 && calls["flaky"] == 2 {
				close(done)
			}
			return nil
		})
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.Fail("timeout waiting for deliveries")
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()
	s.Equal(1, calls["ok"])
	s.Equal(2, calls["flaky"])
}

func (s *RabbitMQIntegrationSuite) consumeMessage(cfg Config) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
