/**
 * @description
 * This file implements direct-debit mandate setup and the handling of the
 * asynchronous mandate approval event. Setup is idempotent end to end: a user
 * with a non-terminal mandate gets a status reply instead of a second mandate,
 * and the conditional insert resolves racing setups to exactly one pending
 * record. Approval arrives as a canonical webhook event and is also safe to
 * replay.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/koboflow/onboarding-service/internal/domain"
	"github.com/koboflow/onboarding-service/internal/store"
	"github.com/koboflow/onboarding-service/pkg/providers"
)

// startMandateSetup begins mandate creation for a ready user. Repeated
// requests while a mandate is pending or active are acknowledged without
// creating anything.
func (s *Saga) startMandateSetup(ctx context.Context, correlationID uuid.UUID) error {
	profile, err := s.repo.FindUserProfileByID(ctx, correlationID)
	if err != nil {
		return fmt.Errorf("load user profile: %w", err)
	}

	if existing, err := s.repo.FindActiveMandateByUserID(ctx, correlationID); err == nil {
		return s.notifyMandateStatus(ctx, correlationID, existing)
	} else if !errors.Is(err, store.ErrMandateNotFound) {
		return fmt.Errorf("check existing mandate: %w", err)
	}

	capability, err := s.factory.ForUser(ctx, correlationID)
	if err != nil {
		return fmt.Errorf("resolve provider: %w", err)
	}

	mandate := &domain.Mandate{
		ID:                 uuid.New(),
		UserID:             correlationID,
		Provider:           capability.Name(),
		Status:             domain.MandateStatusPending,
		MaxAmount:          s.cfg.MandateMaxAmount,
		ExpiresAt:          time.Now().Add(s.cfg.MandateExpiry),
		DestinationAccount: s.cfg.CollectionAccount,
	}
	created, err := s.repo.CreateMandateIfAbsent(ctx, mandate)
	if err != nil {
		return fmt.Errorf("create mandate record: %w", err)
	}
	if !created {
		// Lost the race to a concurrent setup; report that one instead.
		existing, err := s.repo.FindActiveMandateByUserID(ctx, correlationID)
		if err != nil {
			return fmt.Errorf("load racing mandate: %w", err)
		}
		return s.notifyMandateStatus(ctx, correlationID, existing)
	}

	customerProfile := providers.CustomerProfile{
		FullName:    profile.FullName,
		Nin:         profile.Nin,
		Bvn:         profile.Bvn,
		PhoneNumber: profile.PhoneNumber,
		Reference:   domain.BuildReference(domain.ReferenceTagOnboarding, correlationID),
	}
	customerID, err := capability.CreateCustomer(ctx, customerProfile)
	if err != nil {
		return s.failMandateSetup(ctx, correlationID, mandate.ID, fmt.Errorf("create provider customer: %w", err))
	}

	providerMandateID, err := capability.CreateMandate(ctx, providers.MandateRequest{
		CustomerID:         customerID,
		MaxAmount:          mandate.MaxAmount,
		Reference:          domain.BuildReference(domain.ReferenceTagMandate, correlationID),
		DestinationAccount: mandate.DestinationAccount,
		ExpiresAt:          mandate.ExpiresAt,
	})
	if err != nil {
		return s.failMandateSetup(ctx, correlationID, mandate.ID, fmt.Errorf("create provider mandate: %w", err))
	}

	if providerMandateID != "" {
		if err := s.repo.AttachProviderMandateID(ctx, mandate.ID, providerMandateID); err != nil {
			return fmt.Errorf("attach provider mandate id: %w", err)
		}
	}

	log.Printf("level=info component=saga msg=\"mandate setup started\" correlation_id=%s provider=%s mandate_id=%s", correlationID, capability.Name(), mandate.ID)
	return s.notifier.Notify(ctx, correlationID, domain.Prompt{
		Text: "Direct debit setup started. Approve the authorization request from your bank and I'll confirm here once it's active.",
	})
}

// failMandateSetup marks the mandate failed after a provider error and tells
// the user. The provider error itself is logged, not surfaced for requeue:
// retrying the whole setup would duplicate the user-facing flow.
func (s *Saga) failMandateSetup(ctx context.Context, correlationID, mandateID uuid.UUID, cause error) error {
	log.Printf("level=error component=saga msg=\"mandate setup failed\" correlation_id=%s mandate_id=%s err=%v", correlationID, mandateID, cause)
	if err := s.repo.UpdateMandateStatus(ctx, mandateID, domain.MandateStatusFailed); err != nil {
		return fmt.Errorf("mark mandate failed: %w", err)
	}
	return s.notifier.Notify(ctx, correlationID, domain.Prompt{
		Text:         "I couldn't set up your direct debit just now. You can try again in a bit.",
		QuickReplies: []string{"Set up direct debit"},
	})
}

func (s *Saga) notifyMandateStatus(ctx context.Context, correlationID uuid.UUID, mandate *domain.Mandate) error {
	text := "Your direct debit setup is already in progress. I'll let you know as soon as your bank approves it."
	if mandate.Status == domain.MandateStatusSuccess {
		text = "You already have an active direct debit mandate, so there's nothing more to set up."
	}
	return s.notifier.Notify(ctx, correlationID, domain.Prompt{Text: text})
}

// HandleMandateReady applies a canonical mandate approval event. Replays are
// no-ops; an event arriving before the mandate record exists surfaces
// store.ErrMandateNotFound so the consumer can requeue it, while an approval
// for a user whose mandates are all terminally failed surfaces
// store.ErrMandateTerminal so the consumer can drop it.
func (s *Saga) HandleMandateReady(ctx context.Context, event domain.CanonicalEvent) error {
	if event.CorrelationID == uuid.Nil {
		return errors.New("mandate event missing correlation id")
	}

	mandate, err := s.repo.MarkMandateReady(ctx, event.CorrelationID, event.ProviderMandateID)
	if err != nil {
		return err
	}

	log.Printf("level=info component=saga msg=\"mandate active\" correlation_id=%s mandate_id=%s provider_mandate_id=%s", event.CorrelationID, mandate.ID, event.ProviderMandateID)
	return s.notifier.Notify(ctx, event.CorrelationID, domain.Prompt{
		Text: fmt.Sprintf("Your direct debit mandate is active. We can debit up to %s per transaction until %s.", formatKobo(mandate.MaxAmount), mandate.ExpiresAt.Format("2 Jan 2006")),
	})
}
