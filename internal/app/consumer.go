package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/koboflow/onboarding-service/internal/domain"
	"github.com/koboflow/onboarding-service/internal/store"
)

// handlerTimeout bounds the processing of one bus message.
const handlerTimeout = 15 * time.Second

// EventConsumer adapts bus deliveries into saga inputs. Each handler returns
// true to acknowledge the delivery and false to requeue it; an event that
// outran the record it settles (webhook before local commit) is requeued so
// ordering heals itself.
type EventConsumer struct {
	saga *Saga
}

func NewEventConsumer(saga *Saga) *EventConsumer {
	return &EventConsumer{saga: saga}
}

// HandleTransferEvent processes transfer.succeeded and transfer.failed
// deliveries.
func (c *EventConsumer) HandleTransferEvent(body []byte) bool {
	var event domain.CanonicalEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=error component=event_consumer msg=\"unmarshal transfer event failed\" err=%v", err)
		return true
	}
	if event.CorrelationID == uuid.Nil {
		log.Printf("level=warn component=event_consumer msg=\"unroutable transfer event dropped\" reference=%q", event.Reference)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := c.saga.HandleTransferEvent(ctx, event); err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			log.Printf("level=info component=event_consumer msg=\"transfer event before ledger record, requeueing\" correlation_id=%s", event.CorrelationID)
		} else {
			log.Printf("level=error component=event_consumer msg=\"transfer event processing failed\" correlation_id=%s err=%v", event.CorrelationID, err)
		}
		return false
	}
	return true
}

// HandleMandateReady processes mandate.ready deliveries.
func (c *EventConsumer) HandleMandateReady(body []byte) bool {
	var event domain.CanonicalEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=error component=event_consumer msg=\"unmarshal mandate event failed\" err=%v", err)
		return true
	}
	if event.CorrelationID == uuid.Nil {
		log.Printf("level=warn component=event_consumer msg=\"unroutable mandate event dropped\" reference=%q", event.Reference)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := c.saga.HandleMandateReady(ctx, event); err != nil {
		if errors.Is(err, store.ErrMandateTerminal) {
			// No pending mandate will ever appear for this user; requeueing
			// would redeliver forever.
			log.Printf("level=warn component=event_consumer msg=\"mandate event for terminally failed mandate dropped\" correlation_id=%s", event.CorrelationID)
			return true
		}
		if errors.Is(err, store.ErrMandateNotFound) {
			log.Printf("level=info component=event_consumer msg=\"mandate event before mandate record, requeueing\" correlation_id=%s", event.CorrelationID)
		} else {
			log.Printf("level=error component=event_consumer msg=\"mandate event processing failed\" correlation_id=%s err=%v", event.CorrelationID, err)
		}
		return false
	}
	return true
}

// HandleValidationResult processes identity.validation.result deliveries. A
// result for an unknown conversation is dropped: validation is only ever
// requested after the saga record exists, so an unknown id is junk, not an
// ordering gap.
func (c *EventConsumer) HandleValidationResult(body []byte) bool {
	var result domain.ValidationResult
	if err := json.Unmarshal(body, &result); err != nil {
		log.Printf("level=error component=event_consumer msg=\"unmarshal validation result failed\" err=%v", err)
		return true
	}
	if result.CorrelationID == uuid.Nil {
		log.Printf("level=warn component=event_consumer msg=\"validation result missing correlation id, dropped\"")
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := c.saga.HandleValidationResult(ctx, result); err != nil {
		if errors.Is(err, store.ErrSagaNotFound) {
			log.Printf("level=warn component=event_consumer msg=\"validation result for unknown conversation, dropped\" correlation_id=%s", result.CorrelationID)
			return true
		}
		log.Printf("level=error component=event_consumer msg=\"validation result processing failed\" correlation_id=%s err=%v", result.CorrelationID, err)
		return false
	}
	return true
}

// Bindings maps routing keys on the event exchange to their handlers, in the
// shape the bus consumer consumes.
func (c *EventConsumer) Bindings() map[string]func([]byte) bool {
	return map[string]func([]byte) bool{
		domain.RoutingKeyTransferSucceeded: c.HandleTransferEvent,
		domain.RoutingKeyTransferFailed:    c.HandleTransferEvent,
		domain.RoutingKeyMandateReady:      c.HandleMandateReady,
		domain.RoutingKeyValidationResult:  c.HandleValidationResult,
	}
}
