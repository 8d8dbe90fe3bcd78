package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/article-service/internal/events"
	"github.com/spec-kit/article-service/internal/observability"
)

// AuditService records account events in the structured log and metrics.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventCodeSent, a.handleCodeSent)
	a.dispatcher.Subscribe(events.EventVerified, a.record)
	a.dispatcher.Subscribe(events.EventLoggedIn, a.record)
}

func (a *AuditService) handleCodeSent(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.CodeSentPayload)
	a.logger.Info("CodeSent",
		zap.String("event_id", event.ID),
		zap.Int64("user_id", event.UserID),
		zap.Int("ttl_seconds", payload.TTLSeconds))
	a.metrics.RecordEvent(string(event.Type))
	return nil
}

func (a *AuditService) record(_ context.Context, event events.Event) error {
	a.logger.Info("AccountEvent",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("user_id", event.UserID),
		zap.Any("payload", event.Payload))
	a.metrics.RecordEvent(string(event.Type))
	return nil
}
