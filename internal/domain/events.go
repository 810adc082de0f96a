/**
 * @description
 * This file defines the message payloads that cross the service's asynchronous
 * boundaries: canonical webhook events produced by the ingestion pipeline,
 * identity validation requests/results exchanged with the external validation
 * service, and inbound conversational commands.
 *
 * Canonical events are transient; they are consumed exactly once in effect by
 * the saga, with idempotency enforced at the saga boundary rather than in the
 * event itself.
 */

package domain

import "github.com/google/uuid"

// Exchange and routing keys for the onboarding event bus. Ingestion publishes
// here and returns; the saga consumer processes asynchronously, so a slow saga
// backlog delays processing rather than webhook acknowledgment.
const (
	EventExchange = "onboarding_events"

	RoutingKeyTransferSucceeded   = "transfer.succeeded"
	RoutingKeyTransferFailed      = "transfer.failed"
	RoutingKeyMandateReady        = "mandate.ready"
	RoutingKeyValidationRequested = "identity.validation.requested"
	RoutingKeyValidationResult    = "identity.validation.result"

	NotificationExchange         = "user_notifications"
	RoutingKeyConversationPrompt = "conversation.prompt"
)

// CanonicalEventKind tags the closed set of provider-agnostic webhook events.
type CanonicalEventKind string

const (
	EventTransferSucceeded CanonicalEventKind = "transfer_succeeded"
	EventTransferFailed    CanonicalEventKind = "transfer_failed"
	EventMandateReady      CanonicalEventKind = "mandate_ready"
)

// CanonicalEvent is the normalized representation of a provider webhook.
// CorrelationID is recovered from the provider reference string via the
// correlation convention; uuid.Nil marks an unroutable event.
type CanonicalEvent struct {
	Kind              CanonicalEventKind `json:"kind"`
	CorrelationID     uuid.UUID          `json:"correlation_id"`
	Reference         string             `json:"reference"`
	Reason            string             `json:"reason,omitempty"`
	ProviderMandateID string             `json:"provider_mandate_id,omitempty"`
	Provider          string             `json:"provider,omitempty"`
}

// RoutingKey returns the bus routing key for the event's kind.
func (e CanonicalEvent) RoutingKey() string {
	switch e.Kind {
	case EventTransferSucceeded:
		return RoutingKeyTransferSucceeded
	case EventTransferFailed:
		return RoutingKeyTransferFailed
	case EventMandateReady:
		return RoutingKeyMandateReady
	default:
		return ""
	}
}

// Validation targets carried by ValidationRequest/ValidationResult.
const (
	ValidationTargetNin      = "nin"
	ValidationTargetBvn      = "bvn"
	ValidationTargetKyc      = "kyc"
	ValidationTargetBankLink = "bank_link"
)

// ValidationRequest asks the external identity validation service to verify a
// government identity number collected during onboarding.
type ValidationRequest struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	Target        string    `json:"target"`
	Value         string    `json:"value"`
}

// ValidationResult is the asynchronous answer to a ValidationRequest, and is
// also synthesized at the webhook boundary for provider KYC and bank-link
// events so they feed the same saga input path.
type ValidationResult struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	Target        string    `json:"target"`
	Success       bool      `json:"success"`
	Reason        string    `json:"reason,omitempty"`
}

// Intent is the classified purpose of an inbound conversational message.
// Classification itself is an external collaborator; the saga only dispatches.
type Intent string

const (
	IntentSignup            Intent = "signup"
	IntentTransfer          Intent = "transfer"
	IntentBillPay           Intent = "bill_pay"
	IntentSetGoal           Intent = "set_goal"
	IntentScheduleRecurring Intent = "schedule_recurring"
	IntentMemo              Intent = "memo"
	IntentFeedback          Intent = "feedback"
	IntentStartMandateSetup Intent = "start_mandate_setup"
	IntentConfirmBankLink   Intent = "confirm_bank_link"
	IntentCancel            Intent = "cancel"
)

// Command is an inbound conversational message or explicit internal command,
// keyed by the correlation id of the owning workflow instance.
type Command struct {
	CorrelationID      uuid.UUID `json:"correlation_id"`
	Intent             Intent    `json:"intent"`
	Text               string    `json:"text"`
	Amount             int64     `json:"amount,omitempty"` // in kobo
	DestinationAccount string    `json:"destination_account,omitempty"`
	BillerCode         string    `json:"biller_code,omitempty"`
	Schedule           string    `json:"schedule,omitempty"`
	PhoneNumber        string    `json:"phone_number,omitempty"`
}
