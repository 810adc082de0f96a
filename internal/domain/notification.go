/**
 * @description
 * This file defines the opaque reply payloads the saga emits for the
 * conversational channel adapter to render. The service never formats
 * channel-specific markup; it enumerates a small closed set of tagged card
 * variants with fixed fields instead of reconstructing free-form shapes at
 * call sites.
 */

package domain

import "github.com/google/uuid"

// ReplyCardKind tags the closed set of structured reply card variants.
type ReplyCardKind string

const (
	CardTransaction ReplyCardKind = "transaction_card"
	CardBill        ReplyCardKind = "bill_card"
	CardNoPreview   ReplyCardKind = "no_preview_card"
)

// ReplyCard is a structured attachment rendered alongside a prompt. Only the
// fields relevant to the card's kind are populated.
type ReplyCard struct {
	Kind               ReplyCardKind `json:"kind"`
	Title              string        `json:"title"`
	Amount             int64         `json:"amount,omitempty"` // in kobo
	Status             string        `json:"status,omitempty"`
	Reference          string        `json:"reference,omitempty"`
	DestinationAccount string        `json:"destination_account,omitempty"`
	BillerCode         string        `json:"biller_code,omitempty"`
	Reason             string        `json:"reason,omitempty"`
}

// Prompt is a user-facing message: text plus optional quick replies and card.
type Prompt struct {
	Text         string     `json:"text"`
	QuickReplies []string   `json:"quick_replies,omitempty"`
	Card         *ReplyCard `json:"card,omitempty"`
}

// UserNotification is the payload published to the notification exchange for
// the channel adapter.
type UserNotification struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	Prompt        Prompt    `json:"prompt"`
}
