package service

import (
	"context"
	"encoding/json"
	"fmt"

	"chatanalytics/cmd/analytics-service/internal/biz"
	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/pkg/events"
)

// AnalyticsService 生命周期事件入口
//
// Hook handlers and the Kafka consumer both decode through Dispatch, so a
// payload is interpreted the same way regardless of transport.
type AnalyticsService struct {
	uc *biz.AnalyticsUsecase
}

// NewAnalyticsService 创建分析服务
func NewAnalyticsService(uc *biz.AnalyticsUsecase) *AnalyticsService {
	return &AnalyticsService{uc: uc}
}

// SupportedEventTypes lists the event types Dispatch accepts.
func (s *AnalyticsService) SupportedEventTypes() []string {
	return []string{
		string(domain.EventMessageReceived),
		string(domain.EventMemoriesRecalled),
		string(domain.EventFastReplyEmitted),
		string(domain.EventResponseEmitted),
		string(domain.EventDocumentsStored),
		string(domain.EventFeedback),
	}
}

// Dispatch decodes payload for eventType and hands it to the usecase.
// Only decoding can fail; metric updates never surface errors.
func (s *AnalyticsService) Dispatch(ctx context.Context, eventType domain.EventType, payload json.RawMessage) error {
	switch eventType {
	case domain.EventMessageReceived:
		var ev domain.MessageReceived
		if err := decode(payload, &ev); err != nil {
			return err
		}
		s.uc.OnMessageReceived(ctx, ev)
	case domain.EventMemoriesRecalled:
		var ev domain.MemoriesRecalled
		if err := decode(payload, &ev); err != nil {
			return err
		}
		s.uc.OnMemoriesRecalled(ctx, ev)
	case domain.EventFastReplyEmitted:
		var ev domain.FastReplyEmitted
		if err := decode(payload, &ev); err != nil {
			return err
		}
		s.uc.OnFastReplyEmitted(ctx, ev)
	case domain.EventResponseEmitted:
		var ev domain.ResponseEmitted
		if err := decode(payload, &ev); err != nil {
			return err
		}
		s.uc.OnResponseEmitted(ctx, ev)
	case domain.EventDocumentsStored:
		var ev domain.DocumentsStored
		if err := decode(payload, &ev); err != nil {
			return err
		}
		s.uc.OnDocumentsStored(ctx, ev)
	case domain.EventFeedback:
		var fb domain.Feedback
		if err := decode(payload, &fb); err != nil {
			return err
		}
		s.uc.OnFeedback(ctx, fb)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownEvent, eventType)
	}
	return nil
}

// HandleEnvelope adapts Dispatch to the broker consumer.
func (s *AnalyticsService) HandleEnvelope(ctx context.Context, env *events.Envelope) error {
	return s.Dispatch(ctx, domain.EventType(env.EventType), env.Payload)
}

// RecordFeedback 记录已认证用户的反馈
func (s *AnalyticsService) RecordFeedback(ctx context.Context, userID string, temporary, positive bool) {
	s.uc.OnFeedback(ctx, domain.Feedback{UserID: userID, Positive: positive, Temporary: temporary})
}

// Prewarm 预热情绪模型
func (s *AnalyticsService) Prewarm(ctx context.Context) {
	s.uc.Prewarm(ctx)
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", domain.ErrInvalidPayload)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return nil
}
