/**
 * @description
 * This file defines the saga's outbound collaborators on the message bus: the
 * notifier that hands user-facing prompts to the conversational channel
 * adapter, and the dispatcher that requests asynchronous identity validation.
 * Both are thin wrappers over the RabbitMQ publisher so the saga's tests can
 * substitute in-memory fakes.
 *
 * @dependencies
 * - internal/domain: message payloads, exchange and routing-key constants.
 * - pkg/rabbitmq: the publisher abstraction.
 */

package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/koboflow/onboarding-service/internal/domain"
	"github.com/koboflow/onboarding-service/pkg/rabbitmq"
)

// Notifier delivers a prompt to the user owning a workflow instance.
type Notifier interface {
	Notify(ctx context.Context, correlationID uuid.UUID, prompt domain.Prompt) error
}

// ValidationDispatcher asks the external identity validation service to check
// a collected identity number. The answer arrives asynchronously as a
// ValidationResult on the event bus.
type ValidationDispatcher interface {
	RequestValidation(ctx context.Context, req domain.ValidationRequest) error
}

// BusNotifier publishes prompts to the notification exchange for the channel
// adapter to render.
type BusNotifier struct {
	producer rabbitmq.Publisher
}

func NewBusNotifier(producer rabbitmq.Publisher) *BusNotifier {
	return &BusNotifier{producer: producer}
}

func (n *BusNotifier) Notify(ctx context.Context, correlationID uuid.UUID, prompt domain.Prompt) error {
	notification := domain.UserNotification{CorrelationID: correlationID, Prompt: prompt}
	if err := n.producer.Publish(ctx, domain.NotificationExchange, domain.RoutingKeyConversationPrompt, notification); err != nil {
		return fmt.Errorf("publish user notification: %w", err)
	}
	return nil
}

// BusValidationDispatcher publishes validation requests to the event exchange.
type BusValidationDispatcher struct {
	producer rabbitmq.Publisher
}

func NewBusValidationDispatcher(producer rabbitmq.Publisher) *BusValidationDispatcher {
	return &BusValidationDispatcher{producer: producer}
}

func (d *BusValidationDispatcher) RequestValidation(ctx context.Context, req domain.ValidationRequest) error {
	if err := d.producer.Publish(ctx, domain.EventExchange, domain.RoutingKeyValidationRequested, req); err != nil {
		return fmt.Errorf("publish validation request: %w", err)
	}
	return nil
}
