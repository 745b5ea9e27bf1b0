package server

import (
	"context"

	"chatanalytics/cmd/analytics-service/internal/conf"
	"chatanalytics/cmd/analytics-service/internal/service"
	"chatanalytics/pkg/events"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// KafkaServer 生命周期事件消费服务
type KafkaServer struct {
	consumer *events.KafkaConsumer
	service  *service.AnalyticsService
	logger   *zap.Logger
}

// NewKafkaServer 创建 Kafka 消费服务. It returns a nil server when the broker
// transport is disabled; Start and Stop are no-ops on nil.
func NewKafkaServer(c *conf.Config, srv *service.AnalyticsService, logger *zap.Logger) (*KafkaServer, error) {
	if !c.Kafka.Enabled {
		return nil, nil
	}

	consumer, err := events.NewKafkaConsumer(&events.ConsumerConfig{
		Brokers:       c.Kafka.Brokers,
		GroupID:       c.Kafka.GroupID,
		Topics:        c.Kafka.Topics,
		InitialOffset: sarama.OffsetNewest,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &KafkaServer{
		consumer: consumer,
		service:  srv,
		logger:   logger.With(zap.String("component", "kafka_server")),
	}, nil
}

// Start 开始消费
func (s *KafkaServer) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	handler := events.NewFunctionHandler(s.service.SupportedEventTypes(), s.service.HandleEnvelope)
	if err := s.consumer.Subscribe(ctx, handler); err != nil {
		return err
	}
	s.logger.Info("Kafka consumer started")
	return nil
}

// Stop 停止消费
func (s *KafkaServer) Stop() error {
	if s == nil {
		return nil
	}
	return s.consumer.Close()
}
