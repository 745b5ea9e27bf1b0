package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Envelope 事件信封
type Envelope struct {
	EventType  string          `json:"event_type"`
	EventID    string          `json:"event_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload with a fresh event id.
func NewEnvelope(eventType string, payload any) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return &Envelope{
		EventType:  eventType,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// EventHandler 事件处理器接口
type EventHandler interface {
	// Handle 处理事件
	Handle(ctx context.Context, event *Envelope) error

	// SupportedEventTypes 支持的事件类型
	SupportedEventTypes() []string
}

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Brokers       []string
	GroupID       string
	Topics        []string
	InitialOffset int64 // sarama.OffsetNewest or sarama.OffsetOldest
}

// KafkaConsumer Kafka 事件消费者
type KafkaConsumer struct {
	client        sarama.ConsumerGroup
	config        *ConsumerConfig
	logger        *zap.Logger
	handlers      map[string]EventHandler
	handlersMutex sync.RWMutex
	wg            sync.WaitGroup
	retryBackoff  time.Duration
}

// NewKafkaConsumer 创建 Kafka 消费者
func NewKafkaConsumer(config *ConsumerConfig, logger *zap.Logger) (*KafkaConsumer, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Version = sarama.V3_6_0_0
	kafkaConfig.Consumer.Return.Errors = true
	kafkaConfig.Consumer.Offsets.Initial = config.InitialOffset
	kafkaConfig.Consumer.Offsets.AutoCommit.Enable = true
	kafkaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	client, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return newKafkaConsumer(client, config, logger), nil
}

func newKafkaConsumer(client sarama.ConsumerGroup, config *ConsumerConfig, logger *zap.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		client:       client,
		config:       config,
		logger:       logger.With(zap.String("component", "kafka_consumer"), zap.String("group_id", config.GroupID)),
		handlers:     make(map[string]EventHandler),
		retryBackoff: time.Second,
	}
}

// Subscribe registers handler and starts consuming config.Topics until ctx
// is cancelled or the consumer is closed.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler EventHandler) error {
	if len(c.config.Topics) == 0 {
		return fmt.Errorf("no topics configured")
	}

	c.handlersMutex.Lock()
	for _, eventType := range handler.SupportedEventTypes() {
		c.handlers[eventType] = handler
	}
	c.handlersMutex.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		consumerHandler := &consumerGroupHandler{consumer: c}
		for {
			err := c.client.Consume(ctx, c.config.Topics, consumerHandler)
			if ctx.Err() != nil || errors.Is(err, sarama.ErrClosedConsumerGroup) {
				c.logger.Info("consumer stopped")
				return
			}
			if err != nil {
				c.logger.Error("error consuming", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.retryBackoff):
				}
			}
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range c.client.Errors() {
			c.logger.Warn("consumer error", zap.Error(err))
		}
	}()

	return nil
}

// Close 关闭消费者
func (c *KafkaConsumer) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close consumer: %w", err)
	}
	c.wg.Wait()
	return nil
}

func (c *KafkaConsumer) getHandler(eventType string) (EventHandler, bool) {
	c.handlersMutex.RLock()
	defer c.handlersMutex.RUnlock()
	handler, ok := c.handlers[eventType]
	return handler, ok
}

// consumerGroupHandler Sarama ConsumerGroupHandler 实现
type consumerGroupHandler struct {
	consumer *KafkaConsumer
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim 消费消息. Every message is marked, failed or not: analytics
// events are never redelivered.
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.handleMessage(session.Context(), message); err != nil {
			h.consumer.logger.Warn("failed to handle message",
				zap.String("topic", message.Topic),
				zap.Int32("partition", message.Partition),
				zap.Int64("offset", message.Offset),
				zap.Error(err),
			)
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func (h *consumerGroupHandler) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event Envelope
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.EventType == "" {
		return fmt.Errorf("event has no event_type")
	}

	handler, ok := h.consumer.getHandler(event.EventType)
	if !ok {
		h.consumer.logger.Debug("no handler registered", zap.String("event_type", event.EventType))
		return nil
	}

	if err := handler.Handle(ctx, &event); err != nil {
		return fmt.Errorf("handler failed for %s (%s): %w", event.EventType, event.EventID, err)
	}
	return nil
}

// FunctionHandler 函数式事件处理器
type FunctionHandler struct {
	eventTypes []string
	handleFunc func(context.Context, *Envelope) error
}

// NewFunctionHandler 创建函数式处理器
func NewFunctionHandler(eventTypes []string, fn func(context.Context, *Envelope) error) *FunctionHandler {
	return &FunctionHandler{
		eventTypes: eventTypes,
		handleFunc: fn,
	}
}

// Handle 处理事件
func (f *FunctionHandler) Handle(ctx context.Context, event *Envelope) error {
	return f.handleFunc(ctx, event)
}

// SupportedEventTypes 支持的事件类型
func (f *FunctionHandler) SupportedEventTypes() []string {
	return f.eventTypes
}
