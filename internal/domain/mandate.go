/**
 * @description
 * This file defines the direct-debit mandate model. A mandate is created by the
 * saga with status pending when mandate setup begins, and transitioned to
 * success or failed only by a canonical webhook event whose correlation id
 * matches the owning user workflow.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// MandateStatus enumerates the lifecycle states of a direct-debit mandate.
type MandateStatus string

const (
	MandateStatusPending   MandateStatus = "pending"
	MandateStatusSuccess   MandateStatus = "success"
	MandateStatusFailed    MandateStatus = "failed"
	MandateStatusCancelled MandateStatus = "cancelled"
	// MandateStatusRetrying is reserved for provider-side asynchronous retry
	// notifications; the saga never sets it directly.
	MandateStatusRetrying MandateStatus = "retrying"
)

// Terminal reports whether the status admits no further provider transitions.
func (s MandateStatus) Terminal() bool {
	return s == MandateStatusFailed || s == MandateStatusCancelled
}

// Mandate is a user-authorized, provider-held permission allowing the system to
// initiate direct debits up to MaxAmount (in kobo).
type Mandate struct {
	ID                 uuid.UUID     `json:"id"`
	UserID             uuid.UUID     `json:"user_id"`
	Provider           string        `json:"provider"`
	ProviderMandateID  *string       `json:"provider_mandate_id,omitempty"`
	Status             MandateStatus `json:"status"`
	MaxAmount          int64         `json:"max_amount"` // in kobo
	ExpiresAt          time.Time     `json:"expires_at"`
	DestinationAccount string        `json:"destination_account"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}
