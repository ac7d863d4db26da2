package worker

import (
	"github.com/spec-kit/realty-service/internal/events"
	"github.com/spec-kit/realty-service/internal/service"
)

// StartNotificationWorker registers notification handlers and the Kafka sink
// on dispatcher. Pass a QueuedDispatcher to keep both off the request path.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, publisher *events.KafkaPublisher) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	publisher.Register(dispatcher)
}
