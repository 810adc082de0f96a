/**
 * @description
 * This file contains the HTTP handlers for the onboarding-service's API
 * endpoints: the provider webhook sinks and the command endpoint used by the
 * conversational channel adapter. Webhook handling is deliberately thin:
 * verify the signature against the raw body, drop duplicates, translate the
 * payload, publish to the bus, acknowledge. All workflow processing happens
 * asynchronously in the consumers, so a saga backlog never delays webhook
 * acknowledgment.
 *
 * @dependencies
 * - encoding/json, io, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/webhook: saga entry points,
 *   payloads, and webhook verification/translation.
 * - pkg/rabbitmq: the event publisher.
 */

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/koboflow/onboarding-service/internal/app"
	"github.com/koboflow/onboarding-service/internal/domain"
	"github.com/koboflow/onboarding-service/internal/webhook"
	"github.com/koboflow/onboarding-service/pkg/rabbitmq"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Webhook-Signature"

const maxWebhookBody = 1 << 20 // 1 MiB

// Handlers holds the collaborators the HTTP layer needs.
type Handlers struct {
	saga     *app.Saga
	producer rabbitmq.Publisher
	deduper  *webhook.Deduper
	// secrets maps provider name to its webhook HMAC secret.
	secrets map[string]string
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(saga *app.Saga, producer rabbitmq.Publisher, deduper *webhook.Deduper, secrets map[string]string) *Handlers {
	return &Handlers{saga: saga, producer: producer, deduper: deduper, secrets: secrets}
}

// WebhookHandler ingests one provider webhook: POST /webhooks/{provider}.
func (h *Handlers) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	secret, known := h.secrets[provider]
	if !known {
		h.writeError(w, http.StatusNotFound, "unknown provider")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	// Authentication first: an unverified payload produces no side effect of
	// any kind, not even a dedupe record.
	if !webhook.Verify(body, secret, r.Header.Get(SignatureHeader)) {
		log.Printf("level=warn component=webhook_handler msg=\"signature verification failed\" provider=%s", provider)
		h.writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	if h.deduper.Seen(r.Context(), provider, body) {
		log.Printf("level=info component=webhook_handler msg=\"duplicate delivery dropped\" provider=%s", provider)
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	// Identity events (KYC verdicts, bank-link outcomes) become validation
	// results; everything else goes through the canonicalizer.
	if result, ok := webhook.MapIdentityEvent(provider, body); ok {
		if result.CorrelationID == uuid.Nil {
			log.Printf("level=warn component=webhook_handler msg=\"unroutable identity event acknowledged\" provider=%s target=%s", provider, result.Target)
			h.writeJSON(w, http.StatusOK, map[string]string{"status": "unroutable"})
			return
		}
		if err := h.producer.Publish(r.Context(), domain.EventExchange, domain.RoutingKeyValidationResult, result); err != nil {
			log.Printf("level=error component=webhook_handler msg=\"identity event publish failed\" provider=%s err=%v", provider, err)
			h.writeError(w, http.StatusInternalServerError, "event publish failed")
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
		return
	}

	event, err := webhook.Canonicalize(provider, body)
	if err != nil {
		// Unsupported shapes are acknowledged so the provider stops
		// redelivering; the anomaly lives in the logs.
		log.Printf("level=warn component=webhook_handler msg=\"unsupported payload acknowledged\" provider=%s err=%v", provider, err)
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if event.CorrelationID == uuid.Nil {
		log.Printf("level=warn component=webhook_handler msg=\"unroutable event acknowledged\" provider=%s kind=%s reference=%q", provider, event.Kind, event.Reference)
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "unroutable"})
		return
	}

	if err := h.producer.Publish(r.Context(), domain.EventExchange, event.RoutingKey(), event); err != nil {
		log.Printf("level=error component=webhook_handler msg=\"event publish failed\" provider=%s kind=%s err=%v", provider, event.Kind, err)
		h.writeError(w, http.StatusInternalServerError, "event publish failed")
		return
	}

	log.Printf("level=info component=webhook_handler msg=\"webhook accepted\" provider=%s kind=%s correlation_id=%s", provider, event.Kind, event.CorrelationID)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// CommandHandler accepts one conversational command from the channel adapter:
// POST /commands.
func (h *Handlers) CommandHandler(w http.ResponseWriter, r *http.Request) {
	var cmd domain.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if cmd.CorrelationID == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, "correlation_id is required")
		return
	}

	if err := h.saga.HandleCommand(r.Context(), cmd); err != nil {
		if errors.Is(err, app.ErrTransitionContention) {
			h.writeError(w, http.StatusConflict, "conversation is busy, retry shortly")
			return
		}
		log.Printf("level=error component=command_handler msg=\"command failed\" correlation_id=%s intent=%s err=%v", cmd.CorrelationID, cmd.Intent, err)
		h.writeError(w, http.StatusInternalServerError, "command processing failed")
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
