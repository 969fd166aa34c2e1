package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// Invalidator drops cached filter results. search.Service implements it.
type Invalidator interface {
	Flush(ctx context.Context) error
}

// Config configures the Kafka consumer group.
type Config struct {
	Brokers []string
	GroupID string
	Topics  []string

	// Retry controls how a failed flush is retried before the message is left unmarked.
	Retry RetryConfig
}

// DefaultConfig returns a config for a local broker.
func DefaultConfig() Config {
	return Config{
		Brokers: []string{"localhost:9092"},
		GroupID: "catalog-filter",
		Topics:  []string{DefaultTopic},
		Retry:   DefaultRetryConfig(),
	}
}

// Consumer flushes the cache for every product change read from Kafka.
type Consumer struct {
	group       sarama.ConsumerGroup
	topics      []string
	invalidator Invalidator
	retry       RetryConfig
	logger      zerolog.Logger
	wg          sync.WaitGroup
}

// NewConsumer connects a consumer group to the configured brokers.
func NewConsumer(cfg Config, invalidator Invalidator, logger zerolog.Logger) (*Consumer, error) {
	if invalidator == nil {
		return nil, errors.New("invalidator cannot be nil")
	}

	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer group: %w", err)
	}

	return newConsumer(group, cfg.Topics, invalidator, cfg.Retry, logger), nil
}

func newConsumer(group sarama.ConsumerGroup, topics []string, invalidator Invalidator, retry RetryConfig, logger zerolog.Logger) *Consumer {
	return &Consumer{
		group:       group,
		topics:      topics,
		invalidator: invalidator,
		retry:       retry,
		logger:      logger,
	}
}

// Start consumes in the background until ctx is cancelled or Stop is called.
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			// Consume returns on every rebalance and must be called again.
			if err := c.group.Consume(ctx, c.topics, c); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.logger.Error().Err(err).Msg("Kafka consume error")
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range c.group.Errors() {
			c.logger.Error().Err(err).Msg("Kafka consumer error")
		}
	}()

	c.logger.Info().Strs("topics", c.topics).Msg("Product event consumer started")
}

// Stop closes the consumer group and waits for the background goroutines.
func (c *Consumer) Stop() error {
	if err := c.group.Close(); err != nil {
		return fmt.Errorf("close kafka consumer group: %w", err)
	}
	c.wg.Wait()
	c.logger.Info().Msg("Product event consumer stopped")
	return nil
}

// Setup is called at the start of a consumer group session.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is called at the end of a consumer group session.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim handles messages of one partition. Messages whose flush failed are
// left unmarked so they are redelivered.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok || msg == nil {
				return nil
			}
			if err := c.Handle(session.Context(), msg); err != nil {
				c.logger.Error().Err(err).
					Str("topic", msg.Topic).
					Int32("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Product event not processed")
				continue
			}
			session.MarkMessage(msg, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// Handle processes one message. Malformed and irrelevant events are skipped without
// error; only a failed flush is returned.
func (c *Consumer) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	event, err := ParseEvent(msg.Value)
	if err != nil {
		EventsProcessed.WithLabelValues("malformed").Inc()
		c.logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("Skipping malformed product event")
		return nil
	}

	if !event.Invalidates() {
		EventsProcessed.WithLabelValues("ignored").Inc()
		c.logger.Debug().Str("type", string(event.Type)).Msg("Ignoring product event")
		return nil
	}

	err = retryWithBackoff(ctx, c.retry, c.logger, func() error {
		return c.invalidator.Flush(ctx)
	})
	if err != nil {
		EventsProcessed.WithLabelValues("failed").Inc()
		return fmt.Errorf("flush after %s of product %d: %w", event.Type, event.ProductID, err)
	}

	EventsProcessed.WithLabelValues("flushed").Inc()
	c.logger.Info().
		Str("type", string(event.Type)).
		Int64("product_id", event.ProductID).
		Msg("Cache flushed for product event")
	return nil
}
