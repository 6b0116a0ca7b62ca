package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/claim-service/internal/config"
	"github.com/spec-kit/claim-service/internal/events"
)

// Publisher is the slice of the Redis client the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NotifierService fans ticket lifecycle events out to a Redis pub/sub
// channel so other admin sessions can refresh their queue when a ticket is
// claimed or released. Delivery is fire-and-forget; the workflow never
// depends on it.
type NotifierService struct {
	dispatcher events.Dispatcher
	publisher  Publisher
	logger     *zap.Logger
	cfg        config.NotifyConfig
}

// NewNotifierService creates the service.
func NewNotifierService(dispatcher events.Dispatcher, publisher Publisher, logger *zap.Logger, cfg config.NotifyConfig) *NotifierService {
	return &NotifierService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every lifecycle event type.
func (n *NotifierService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketClaimed,
		events.EventTicketReleased,
		events.EventTicketHandled,
		events.EventTicketResponded,
		events.EventTicketClosed,
		events.EventTicketReopened,
	} {
		n.dispatcher.Subscribe(eventType, n.handleEvent)
	}
}

func (n *NotifierService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("type", string(event.Type)),
		zap.String("ticket_id", event.TicketID))

	if n.publisher == nil || n.cfg.Channel == "" {
		return nil
	}
	message, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("marshal event", zap.Error(err))
		return nil
	}
	if err := n.publisher.Publish(ctx, n.cfg.Channel, message).Err(); err != nil {
		n.logger.Warn("publish event",
			zap.String("channel", n.cfg.Channel),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}
