/**
 * @description
 * This file implements outbound transfer dispatch from the ready state and the
 * handling of the terminal transfer events that later arrive via webhook. The
 * ledger record's id is the transfer's correlation id: it rides to the
 * provider inside the reference string and the canonical event carries it
 * back, so no provider-specific id mapping table is needed.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/koboflow/onboarding-service/internal/domain"
	"github.com/koboflow/onboarding-service/pkg/providers"
)

// dispatchTransfer creates the pending ledger record and hands the transfer to
// the user's provider. Provider rejection settles the record as failed
// immediately rather than waiting for a webhook that will never come.
func (s *Saga) dispatchTransfer(ctx context.Context, userID uuid.UUID, amount int64, destinationAccount, narration string) error {
	capability, err := s.factory.ForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve provider: %w", err)
	}

	tx := &domain.Transaction{
		ID:                 uuid.New(),
		UserID:             userID,
		Provider:           capability.Name(),
		Status:             domain.TransactionStatusPending,
		Amount:             amount,
		DestinationAccount: destinationAccount,
		Narration:          narration,
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("create transaction record: %w", err)
	}

	providerRef, err := capability.InitiateTransfer(ctx, providers.TransferRequest{
		CustomerID:         userID.String(),
		Amount:             amount,
		Reference:          domain.BuildReference(domain.ReferenceTagTransaction, tx.ID),
		DestinationAccount: destinationAccount,
		Narration:          narration,
	})
	if err != nil {
		log.Printf("level=error component=saga msg=\"transfer dispatch failed\" transaction_id=%s provider=%s err=%v", tx.ID, capability.Name(), err)
		if markErr := s.repo.MarkTransactionFailed(ctx, tx.ID, err.Error()); markErr != nil {
			return fmt.Errorf("mark transaction failed: %w", markErr)
		}
		return s.notifier.Notify(ctx, userID, domain.Prompt{
			Text: "I couldn't start that transfer. Nothing has left your account.",
			Card: transactionCard(tx, domain.TransactionStatusFailed, "provider rejected the transfer"),
		})
	}

	if err := s.repo.SetProviderTransferRef(ctx, tx.ID, providerRef); err != nil {
		return fmt.Errorf("record provider transfer ref: %w", err)
	}

	log.Printf("level=info component=saga msg=\"transfer dispatched\" transaction_id=%s provider=%s amount=%d", tx.ID, capability.Name(), amount)
	return s.notifier.Notify(ctx, userID, domain.Prompt{
		Text: fmt.Sprintf("Sending %s to %s. I'll confirm once it lands.", formatKobo(amount), destinationAccount),
		Card: transactionCard(tx, domain.TransactionStatusPending, ""),
	})
}

// HandleTransferEvent settles the ledger record named by a canonical transfer
// event and notifies the owning user. Terminal records are never regressed, so
// a replayed event only re-sends the notification at worst.
func (s *Saga) HandleTransferEvent(ctx context.Context, event domain.CanonicalEvent) error {
	if event.CorrelationID == uuid.Nil {
		return errors.New("transfer event missing correlation id")
	}

	tx, err := s.repo.FindTransactionByID(ctx, event.CorrelationID)
	if err != nil {
		return err
	}

	if tx.Status != domain.TransactionStatusPending {
		// Already settled: a replay, or a late contradictory event. Either way
		// the terminal status stands.
		log.Printf("level=info component=saga msg=\"event for settled transaction ignored\" transaction_id=%s status=%s kind=%s", tx.ID, tx.Status, event.Kind)
		return nil
	}

	switch event.Kind {
	case domain.EventTransferSucceeded:
		if err := s.repo.MarkTransactionCompleted(ctx, tx.ID); err != nil {
			return fmt.Errorf("mark transaction completed: %w", err)
		}
		log.Printf("level=info component=saga msg=\"transfer completed\" transaction_id=%s provider=%s", tx.ID, event.Provider)
		return s.notifier.Notify(ctx, tx.UserID, domain.Prompt{
			Text: fmt.Sprintf("Your transfer of %s to %s went through.", formatKobo(tx.Amount), tx.DestinationAccount),
			Card: transactionCard(tx, domain.TransactionStatusCompleted, ""),
		})

	case domain.EventTransferFailed:
		if err := s.repo.MarkTransactionFailed(ctx, tx.ID, event.Reason); err != nil {
			return fmt.Errorf("mark transaction failed: %w", err)
		}
		log.Printf("level=warn component=saga msg=\"transfer failed\" transaction_id=%s provider=%s reason=%q", tx.ID, event.Provider, event.Reason)
		return s.notifier.Notify(ctx, tx.UserID, domain.Prompt{
			Text: fmt.Sprintf("Your transfer of %s to %s failed: %s.", formatKobo(tx.Amount), tx.DestinationAccount, event.Reason),
			Card: transactionCard(tx, domain.TransactionStatusFailed, event.Reason),
		})

	default:
		return fmt.Errorf("unexpected event kind %q for transfer handler", event.Kind)
	}
}

func transactionCard(tx *domain.Transaction, status, reason string) *domain.ReplyCard {
	return &domain.ReplyCard{
		Kind:               domain.CardTransaction,
		Title:              "Transfer",
		Amount:             tx.Amount,
		Status:             status,
		Reference:          domain.BuildReference(domain.ReferenceTagTransaction, tx.ID),
		DestinationAccount: tx.DestinationAccount,
		Reason:             reason,
	}
}
