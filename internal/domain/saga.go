/**
 * @description
 * This file defines the durable saga record backing the conversational
 * onboarding workflow. One record exists per correlation id; every inbound
 * command or canonical event for that id reads the record, computes a
 * transition, and writes it back guarded by the optimistic `Version` token.
 *
 * @notes
 * - Temp fields hold data collected across conversation turns. They are
 *   consumed (copied into the permanent user profile) when the saga reaches
 *   StateReady, and discarded on cancellation or timeout.
 * - The record is never physically deleted while the account is active; a
 *   cancelled workflow simply returns to StateNone.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConversationState is one of the finite, explicit states of the onboarding saga.
type ConversationState string

const (
	StateNone                ConversationState = "none"
	StateAskFullName         ConversationState = "ask_full_name"
	StateAskNin              ConversationState = "ask_nin"
	StateNinValidating       ConversationState = "nin_validating"
	StateAskBvn              ConversationState = "ask_bvn"
	StateBvnValidating       ConversationState = "bvn_validating"
	StateAwaitingKyc         ConversationState = "awaiting_kyc"
	StateAwaitingBankLink    ConversationState = "awaiting_bank_link"
	StateAwaitingPinSetup    ConversationState = "awaiting_pin_setup"
	StateAwaitingPinValidate ConversationState = "awaiting_pin_validate"
	StateReady               ConversationState = "ready"
)

// SagaState is the durable, per-correlation conversation record.
// Version is the optimistic-concurrency token: every mutation is written with a
// check-and-increment; a stale write is rejected and recomputed by the caller.
type SagaState struct {
	CorrelationID uuid.UUID         `json:"correlation_id"`
	CurrentState  ConversationState `json:"current_state"`
	TempFullName  *string           `json:"temp_full_name,omitempty"`
	TempNin       *string           `json:"temp_nin,omitempty"`
	TempBvn       *string           `json:"temp_bvn,omitempty"`
	TempPinHash   *string           `json:"-"`
	PhoneNumber   string            `json:"phone_number"`
	PinAttempts   int               `json:"pin_attempts"`
	Version       int64             `json:"version"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewSagaState returns the initial record for a previously unseen correlation id.
func NewSagaState(correlationID uuid.UUID) *SagaState {
	return &SagaState{
		CorrelationID: correlationID,
		CurrentState:  StateNone,
		Version:       1,
	}
}

// ClearTemp discards all scratch fields collected during onboarding. Called on
// cancellation, timeout, and after the fields are committed to the user profile.
func (s *SagaState) ClearTemp() {
	s.TempFullName = nil
	s.TempNin = nil
	s.TempBvn = nil
	s.TempPinHash = nil
	s.PinAttempts = 0
}

// Onboarding reports whether the saga is mid-onboarding, i.e. in a state with a
// pending "advance" event and a pending "abandon/timeout" event.
func (s *SagaState) Onboarding() bool {
	return s.CurrentState != StateNone && s.CurrentState != StateReady
}
