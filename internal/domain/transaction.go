/**
 * @description
 * This file defines the ledger record created when a Ready-state transfer is
 * dispatched. The record's id doubles as the transfer's correlation id: the
 * provider reference is built as "txn:<id>", and the matching canonical webhook
 * event later resolves back to this record.
 *
 * @notes
 * - Amounts are stored as int64 in the smallest currency unit (kobo) to avoid
 *   floating-point inaccuracies with financial data.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction statuses. A completed or failed transaction never regresses; a
// replayed webhook for a terminal transaction is acknowledged without effect.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is the durable record of one outbound transfer.
type Transaction struct {
	ID                  uuid.UUID `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	Provider            string    `json:"provider"`
	ProviderTransferRef *string   `json:"provider_transfer_ref,omitempty"`
	Status              string    `json:"status"`
	Amount              int64     `json:"amount"` // in kobo
	DestinationAccount  string    `json:"destination_account"`
	Narration           string    `json:"narration"`
	FailureReason       *string   `json:"failure_reason,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
