package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/realty-service/internal/config"
	"github.com/spec-kit/realty-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCompanyCreated, n.handleCompanyCreated)
	n.dispatcher.Subscribe(events.EventCompanyDeleted, n.handleCompanyDeleted)
	n.dispatcher.Subscribe(events.EventAgentAdded, n.handleAgentAdded)
	n.dispatcher.Subscribe(events.EventAgentStatusChanged, n.handleAgentStatusChanged)
	n.dispatcher.Subscribe(events.EventRatingSubmitted, n.handleRatingSubmitted)
}

func (n *NotificationService) handleCompanyCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("CompanyCreated", zap.String("company_id", event.CompanyID))
	if p, ok := event.Payload.(events.CompanyPayload); ok {
		n.sendEmailNotificationStub(ctx, event, p.Email)
	}
	return nil
}

func (n *NotificationService) handleCompanyDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("CompanyDeleted", zap.String("company_id", event.CompanyID))
	if p, ok := event.Payload.(events.CompanyPayload); ok {
		for _, asset := range p.ManagedAssets {
			n.releaseAssetStub(ctx, event, asset)
		}
	}
	return nil
}

func (n *NotificationService) handleAgentAdded(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.AgentPayload)
	if !ok {
		return nil
	}
	n.logger.Info("AgentAdded", zap.String("company_id", event.CompanyID), zap.String("agent_id", p.AgentID))
	n.sendEmailNotificationStub(ctx, event, p.Email)
	return nil
}

func (n *NotificationService) handleAgentStatusChanged(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.AgentPayload)
	if !ok {
		return nil
	}
	n.logger.Info("AgentStatusChanged",
		zap.String("company_id", event.CompanyID),
		zap.String("agent_id", p.AgentID),
		zap.String("status", string(p.Status)))
	n.sendEmailNotificationStub(ctx, event, p.Email)
	return nil
}

func (n *NotificationService) handleRatingSubmitted(_ context.Context, event events.Event) error {
	if p, ok := event.Payload.(events.RatingSubmittedPayload); ok {
		n.logger.Info("RatingSubmitted", zap.String("ratee_id", p.RateeID), zap.Int("categories", len(p.Scores)))
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, to string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || to == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) releaseAssetStub(_ context.Context, event events.Event, url string) {
	n.logger.Debug("releaseAssetStub",
		zap.String("company_id", event.CompanyID),
		zap.String("url", url))
}
