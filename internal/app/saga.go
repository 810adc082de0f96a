/**
 * @description
 * This file contains the core orchestrator of the onboarding-service: a saga
 * that advances one durable conversation record per correlation id through the
 * onboarding state machine and dispatches ready-state intents.
 *
 * Every inbound input (command, validation result, timeout) follows the same
 * discipline: load the record, compute the transition against the loaded copy,
 * persist it guarded by the optimistic version token, and only then run the
 * transition's side effects. A version conflict means a concurrent worker
 * advanced the same conversation first; the transition is recomputed against
 * fresh state rather than retried blindly.
 *
 * Key features:
 * - Full onboarding flow: name, NIN and BVN collection with asynchronous
 *   identity validation, provider KYC submission, bank linking, and a
 *   two-step transaction PIN setup hashed with bcrypt.
 * - Cancellation and timeout from any onboarding state return the
 *   conversation to the none state and discard collected temp data.
 * - Ready-state intent dispatch guarded by per-intent field validation.
 *
 * @dependencies
 * - github.com/google/uuid: correlation ids.
 * - golang.org/x/crypto/bcrypt: transaction PIN hashing.
 * - internal/domain, internal/store: domain models and data access.
 * - pkg/providers: the provider capability factory.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/koboflow/onboarding-service/internal/domain"
	"github.com/koboflow/onboarding-service/internal/store"
	"github.com/koboflow/onboarding-service/pkg/providers"
)

const (
	// maxTransitionAttempts bounds the recompute loop on version conflicts.
	maxTransitionAttempts = 5
	// maxPinAttempts is the number of confirmation mismatches tolerated before
	// PIN setup restarts from scratch.
	maxPinAttempts = 3

	identityNumberLength = 11
	pinLength            = 4
)

// ErrTransitionContention is returned when a conversation record stays under
// so much concurrent write pressure that the recompute loop gives up.
var ErrTransitionContention = errors.New("saga transition contention: retries exhausted")

// QuickReplySource supplies the suggested replies attached to prompts for a
// given conversation state.
type QuickReplySource interface {
	QuickReplies(ctx context.Context, state domain.ConversationState) []string
}

// SagaConfig carries the business parameters of mandate setup.
type SagaConfig struct {
	MandateMaxAmount  int64 // in kobo
	MandateExpiry     time.Duration
	CollectionAccount string
}

// Saga orchestrates the conversational onboarding workflow.
type Saga struct {
	repo      store.Repository
	factory   *providers.Factory
	notifier  Notifier
	validator ValidationDispatcher
	intents   *IntentValidator
	replies   QuickReplySource
	cfg       SagaConfig
}

// NewSaga wires the orchestrator with its collaborators.
func NewSaga(repo store.Repository, factory *providers.Factory, notifier Notifier, validator ValidationDispatcher, intents *IntentValidator, replies QuickReplySource, cfg SagaConfig) *Saga {
	return &Saga{
		repo:      repo,
		factory:   factory,
		notifier:  notifier,
		validator: validator,
		intents:   intents,
		replies:   replies,
		cfg:       cfg,
	}
}

// effect is a side effect computed by a transition and executed only after the
// new state has been durably persisted.
type effect func(ctx context.Context) error

// HandleCommand processes one inbound conversational command.
func (s *Saga) HandleCommand(ctx context.Context, cmd domain.Command) error {
	if cmd.CorrelationID == uuid.Nil {
		return errors.New("command missing correlation id")
	}

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		state, err := s.loadOrCreate(ctx, cmd)
		if err != nil {
			return err
		}

		effects := s.applyCommand(state, cmd)

		if err := s.repo.UpdateSagaState(ctx, state); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				log.Printf("level=info component=saga msg=\"version conflict, recomputing\" correlation_id=%s attempt=%d", cmd.CorrelationID, attempt+1)
				continue
			}
			return fmt.Errorf("persist saga state: %w", err)
		}
		return s.runEffects(ctx, state.CorrelationID, effects)
	}
	return ErrTransitionContention
}

// HandleValidationResult processes an asynchronous identity validation answer.
func (s *Saga) HandleValidationResult(ctx context.Context, result domain.ValidationResult) error {
	if result.CorrelationID == uuid.Nil {
		return errors.New("validation result missing correlation id")
	}

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		state, err := s.repo.GetSagaState(ctx, result.CorrelationID)
		if err != nil {
			return err
		}

		effects := s.applyValidationResult(state, result)

		if err := s.repo.UpdateSagaState(ctx, state); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return fmt.Errorf("persist saga state: %w", err)
		}
		return s.runEffects(ctx, state.CorrelationID, effects)
	}
	return ErrTransitionContention
}

// HandleTimeout abandons a stale mid-onboarding conversation.
func (s *Saga) HandleTimeout(ctx context.Context, correlationID uuid.UUID) error {
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		state, err := s.repo.GetSagaState(ctx, correlationID)
		if err != nil {
			return err
		}
		if !state.Onboarding() {
			return nil
		}

		state.CurrentState = domain.StateNone
		state.ClearTemp()

		if err := s.repo.UpdateSagaState(ctx, state); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return fmt.Errorf("persist saga state: %w", err)
		}
		return s.runEffects(ctx, correlationID, []effect{
			s.promptEffect(correlationID, domain.Prompt{
				Text:         "Your onboarding session expired, so I've cleared what we had. Say \"sign up\" whenever you want to start again.",
				QuickReplies: []string{"Sign up"},
			}),
		})
	}
	return ErrTransitionContention
}

// loadOrCreate fetches the conversation record, creating the initial one for a
// previously unseen correlation id. A create race resolves to the winner's row.
func (s *Saga) loadOrCreate(ctx context.Context, cmd domain.Command) (*domain.SagaState, error) {
	state, err := s.repo.GetSagaState(ctx, cmd.CorrelationID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, store.ErrSagaNotFound) {
		return nil, fmt.Errorf("load saga state: %w", err)
	}

	state = domain.NewSagaState(cmd.CorrelationID)
	state.PhoneNumber = cmd.PhoneNumber
	if err := s.repo.CreateSagaState(ctx, state); err != nil {
		if errors.Is(err, store.ErrSagaExists) {
			return s.repo.GetSagaState(ctx, cmd.CorrelationID)
		}
		return nil, fmt.Errorf("create saga state: %w", err)
	}
	return state, nil
}

// applyCommand mutates the loaded state according to the transition table and
// returns the effects to run once the mutation is persisted.
func (s *Saga) applyCommand(state *domain.SagaState, cmd domain.Command) []effect {
	if cmd.PhoneNumber != "" && state.PhoneNumber == "" {
		state.PhoneNumber = cmd.PhoneNumber
	}

	if cmd.Intent == domain.IntentCancel {
		return s.applyCancel(state)
	}

	// Mandate setup needs a committed user profile, so a request arriving
	// mid-onboarding is acknowledged and deferred rather than dropped into the
	// generic waiting prompt.
	if cmd.Intent == domain.IntentStartMandateSetup && state.Onboarding() {
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "I'll set up your direct debit as soon as your account is ready. Let's finish onboarding first, then just ask me again.",
		})}
	}

	switch state.CurrentState {
	case domain.StateNone:
		return s.applyFromNone(state, cmd)
	case domain.StateAskFullName:
		return s.applyFullName(state, cmd)
	case domain.StateAskNin:
		return s.applyNin(state, cmd)
	case domain.StateAskBvn:
		return s.applyBvn(state, cmd)
	case domain.StateNinValidating, domain.StateBvnValidating:
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "One moment, I'm still checking the number you sent.",
		})}
	case domain.StateAwaitingKyc:
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "Your identity check is still running. I'll message you the moment it completes.",
		})}
	case domain.StateAwaitingBankLink:
		return s.applyBankLinkCommand(state, cmd)
	case domain.StateAwaitingPinSetup:
		return s.applyPinSetup(state, cmd)
	case domain.StateAwaitingPinValidate:
		return s.applyPinConfirm(state, cmd)
	case domain.StateReady:
		return s.applyReadyIntent(state, cmd)
	default:
		log.Printf("level=warn component=saga msg=\"unknown state\" correlation_id=%s state=%s", state.CorrelationID, state.CurrentState)
		return nil
	}
}

func (s *Saga) applyCancel(state *domain.SagaState) []effect {
	if !state.Onboarding() {
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "There's nothing in progress to cancel.",
		})}
	}
	state.CurrentState = domain.StateNone
	state.ClearTemp()
	return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
		Text:         "Okay, I've cancelled your onboarding and discarded everything you sent. Say \"sign up\" to start over.",
		QuickReplies: []string{"Sign up"},
	})}
}

func (s *Saga) applyFromNone(state *domain.SagaState, cmd domain.Command) []effect {
	if cmd.Intent == domain.IntentSignup {
		state.CurrentState = domain.StateAskFullName
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "Welcome! Let's get you set up. What's your full name?",
		})}
	}
	return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
		Text:         "You'll need an account before I can do that. Want to sign up?",
		QuickReplies: []string{"Sign up"},
	})}
}

func (s *Saga) applyFullName(state *domain.SagaState, cmd domain.Command) []effect {
	name := strings.TrimSpace(cmd.Text)
	if len(name) < 2 {
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "That doesn't look like a name. Please send your full name as it appears on your ID.",
		})}
	}
	state.TempFullName = &name
	state.CurrentState = domain.StateAskNin
	return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
		Text: fmt.Sprintf("Thanks %s! Now I need your 11-digit NIN.", name),
	})}
}

func (s *Saga) applyNin(state *domain.SagaState, cmd domain.Command) []effect {
	nin := strings.TrimSpace(cmd.Text)
	if !isDigits(nin, identityNumberLength) {
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "A NIN is exactly 11 digits. Please check the number and send it again.",
		})}
	}
	state.TempNin = &nin
	state.CurrentState = domain.StateNinValidating
	correlationID := state.CorrelationID
	return []effect{
		func(ctx context.Context) error {
			return s.validator.RequestValidation(ctx, domain.ValidationRequest{
				CorrelationID: correlationID,
				Target:        domain.ValidationTargetNin,
				Value:         nin,
			})
		},
		s.promptEffect(correlationID, domain.Prompt{
			Text: "Got it. Give me a moment to validate your NIN…",
		}),
	}
}

func (s *Saga) applyBvn(state *domain.SagaState, cmd domain.Command) []effect {
	bvn := strings.TrimSpace(cmd.Text)
	if !isDigits(bvn, identityNumberLength) {
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "A BVN is exactly 11 digits. Please check the number and send it again.",
		})}
	}
	state.TempBvn = &bvn
	state.CurrentState = domain.StateBvnValidating
	correlationID := state.CorrelationID
	return []effect{
		func(ctx context.Context) error {
			return s.validator.RequestValidation(ctx, domain.ValidationRequest{
				CorrelationID: correlationID,
				Target:        domain.ValidationTargetBvn,
				Value:         bvn,
			})
		},
		s.promptEffect(correlationID, domain.Prompt{
			Text: "Got it. Give me a moment to validate your BVN…",
		}),
	}
}

func (s *Saga) applyBankLinkCommand(state *domain.SagaState, cmd domain.Command) []effect {
	if cmd.Intent == domain.IntentConfirmBankLink {
		state.CurrentState = domain.StateAwaitingPinSetup
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "Your bank account is linked. Now choose a 4-digit transaction PIN.",
		})}
	}
	return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
		Text:         "I'm waiting for you to link your bank account. Tap the link I sent, then confirm here.",
		QuickReplies: []string{"I've linked my bank"},
	})}
}

func (s *Saga) applyPinSetup(state *domain.SagaState, cmd domain.Command) []effect {
	pin := strings.TrimSpace(cmd.Text)
	if !isDigits(pin, pinLength) {
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "Your PIN must be exactly 4 digits. Please choose again.",
		})}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("level=error component=saga msg=\"pin hash failed\" correlation_id=%s err=%v", state.CorrelationID, err)
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "Something went wrong saving your PIN. Please choose a 4-digit PIN again.",
		})}
	}

	hashed := string(hash)
	state.TempPinHash = &hashed
	state.CurrentState = domain.StateAwaitingPinValidate
	return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
		Text: "Almost done. Enter the same PIN once more to confirm.",
	})}
}

func (s *Saga) applyPinConfirm(state *domain.SagaState, cmd domain.Command) []effect {
	pin := strings.TrimSpace(cmd.Text)
	if state.TempPinHash == nil {
		// Confirmation without a staged hash: restart PIN setup.
		state.CurrentState = domain.StateAwaitingPinSetup
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "Let's set your PIN again. Choose a 4-digit transaction PIN.",
		})}
	}

	if bcrypt.CompareHashAndPassword([]byte(*state.TempPinHash), []byte(pin)) != nil {
		// Every mismatch discards the staged hash and returns to PIN setup;
		// the counter survives across re-entries until it hits the cap or a
		// confirmation succeeds.
		state.PinAttempts++
		state.TempPinHash = nil
		state.CurrentState = domain.StateAwaitingPinSetup
		if state.PinAttempts >= maxPinAttempts {
			state.PinAttempts = 0
			return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
				Text: "The PINs didn't match three times, so let's start over. Choose a 4-digit transaction PIN.",
			})}
		}
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "That doesn't match the PIN you chose. Choose your 4-digit PIN again.",
		})}
	}

	profile := &domain.UserProfile{
		ID:                 state.CorrelationID,
		FullName:           derefOr(state.TempFullName, ""),
		Nin:                derefOr(state.TempNin, ""),
		Bvn:                derefOr(state.TempBvn, ""),
		PhoneNumber:        state.PhoneNumber,
		TransactionPINHash: *state.TempPinHash,
	}
	state.ClearTemp()
	state.CurrentState = domain.StateReady

	correlationID := state.CorrelationID
	return []effect{
		func(ctx context.Context) error {
			if err := s.repo.UpsertUserProfile(ctx, profile); err != nil {
				return fmt.Errorf("commit user profile: %w", err)
			}
			return nil
		},
		func(ctx context.Context) error {
			return s.notifier.Notify(ctx, correlationID, domain.Prompt{
				Text:         fmt.Sprintf("You're all set, %s! You can now send money, pay bills, and more.", profile.FullName),
				QuickReplies: s.quickReplies(ctx, domain.StateReady),
			})
		},
	}
}

// applyReadyIntent dispatches an intent from the ready state, prompting for
// any missing required fields first.
func (s *Saga) applyReadyIntent(state *domain.SagaState, cmd domain.Command) []effect {
	if cmd.Intent == domain.IntentSignup {
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: "You're already fully onboarded. What would you like to do?",
		})}
	}

	ok, missing := s.intents.Validate(cmd)
	if !ok {
		return []effect{s.promptEffect(state.CorrelationID, domain.Prompt{
			Text: fmt.Sprintf("I need a bit more before I can do that. Please provide: %s.", strings.Join(missing, ", ")),
		})}
	}

	correlationID := state.CorrelationID
	switch cmd.Intent {
	case domain.IntentTransfer:
		return []effect{func(ctx context.Context) error {
			return s.dispatchTransfer(ctx, correlationID, cmd.Amount, cmd.DestinationAccount, "wallet transfer")
		}}
	case domain.IntentBillPay:
		return []effect{func(ctx context.Context) error {
			return s.dispatchTransfer(ctx, correlationID, cmd.Amount, cmd.BillerCode, "bill payment "+cmd.BillerCode)
		}}
	case domain.IntentStartMandateSetup:
		return []effect{func(ctx context.Context) error {
			return s.startMandateSetup(ctx, correlationID)
		}}
	case domain.IntentSetGoal:
		return []effect{s.promptEffect(correlationID, domain.Prompt{
			Text: fmt.Sprintf("Goal noted: save %s. I'll keep you posted on your progress.", formatKobo(cmd.Amount)),
		})}
	case domain.IntentScheduleRecurring:
		return []effect{s.promptEffect(correlationID, domain.Prompt{
			Text: fmt.Sprintf("Recurring transfer of %s to %s scheduled (%s).", formatKobo(cmd.Amount), cmd.DestinationAccount, cmd.Schedule),
		})}
	case domain.IntentMemo:
		return []effect{s.promptEffect(correlationID, domain.Prompt{
			Text: "Memo saved.",
			Card: &domain.ReplyCard{Kind: domain.CardNoPreview, Title: "Memo", Reason: cmd.Text},
		})}
	case domain.IntentFeedback:
		return []effect{s.promptEffect(correlationID, domain.Prompt{
			Text: "Thanks for the feedback, it genuinely helps.",
		})}
	default:
		return []effect{func(ctx context.Context) error {
			return s.notifier.Notify(ctx, correlationID, domain.Prompt{
				Text:         "I didn't catch that. You can send money, pay bills, or set up direct debit.",
				QuickReplies: s.quickReplies(ctx, domain.StateReady),
			})
		}}
	}
}

// applyValidationResult handles NIN/BVN validation answers plus the KYC and
// bank-link outcomes synthesized at the webhook boundary.
func (s *Saga) applyValidationResult(state *domain.SagaState, result domain.ValidationResult) []effect {
	correlationID := state.CorrelationID

	switch {
	case state.CurrentState == domain.StateNinValidating && result.Target == domain.ValidationTargetNin:
		if !result.Success {
			state.TempNin = nil
			state.CurrentState = domain.StateAskNin
			return []effect{s.promptEffect(correlationID, domain.Prompt{
				Text: fmt.Sprintf("That NIN didn't check out (%s). Please send it again.", reasonOr(result.Reason, "no reason given")),
			})}
		}
		state.CurrentState = domain.StateAskBvn
		return []effect{s.promptEffect(correlationID, domain.Prompt{
			Text: "NIN verified. Next, I need your 11-digit BVN.",
		})}

	case state.CurrentState == domain.StateBvnValidating && result.Target == domain.ValidationTargetBvn:
		if !result.Success {
			state.TempBvn = nil
			state.CurrentState = domain.StateAskBvn
			return []effect{s.promptEffect(correlationID, domain.Prompt{
				Text: fmt.Sprintf("That BVN didn't check out (%s). Please send it again.", reasonOr(result.Reason, "no reason given")),
			})}
		}
		state.CurrentState = domain.StateAwaitingKyc
		profile := providers.CustomerProfile{
			FullName:    derefOr(state.TempFullName, ""),
			Nin:         derefOr(state.TempNin, ""),
			Bvn:         derefOr(state.TempBvn, ""),
			PhoneNumber: state.PhoneNumber,
			Reference:   domain.BuildReference(domain.ReferenceTagOnboarding, correlationID),
		}
		return []effect{
			func(ctx context.Context) error {
				return s.submitKYC(ctx, correlationID, profile)
			},
			s.promptEffect(correlationID, domain.Prompt{
				Text: "BVN verified. I've sent your details off for a full identity check, this usually takes under a minute.",
			}),
		}

	case state.CurrentState == domain.StateAwaitingKyc && result.Target == domain.ValidationTargetKyc:
		if !result.Success {
			state.CurrentState = domain.StateNone
			state.ClearTemp()
			return []effect{s.promptEffect(correlationID, domain.Prompt{
				Text:         fmt.Sprintf("Unfortunately your identity check failed (%s). You can start onboarding again at any time.", reasonOr(result.Reason, "no reason given")),
				QuickReplies: []string{"Sign up"},
			})}
		}
		state.CurrentState = domain.StateAwaitingBankLink
		return []effect{s.promptEffect(correlationID, domain.Prompt{
			Text:         "Identity verified! Last step: link your bank account using the secure link I just sent, then confirm here.",
			QuickReplies: []string{"I've linked my bank"},
		})}

	case state.CurrentState == domain.StateAwaitingBankLink && result.Target == domain.ValidationTargetBankLink:
		if !result.Success {
			return []effect{s.promptEffect(correlationID, domain.Prompt{
				Text:         fmt.Sprintf("Bank linking didn't complete (%s). Please try the link again.", reasonOr(result.Reason, "no reason given")),
				QuickReplies: []string{"I've linked my bank"},
			})}
		}
		state.CurrentState = domain.StateAwaitingPinSetup
		return []effect{s.promptEffect(correlationID, domain.Prompt{
			Text: "Your bank account is linked. Now choose a 4-digit transaction PIN.",
		})}

	default:
		// A late or duplicate result for a state that moved on. Acknowledge
		// without touching the record.
		log.Printf("level=info component=saga msg=\"stale validation result ignored\" correlation_id=%s state=%s target=%s", correlationID, state.CurrentState, result.Target)
		return nil
	}
}

// submitKYC registers the customer at the assigned provider and triggers its
// identity verification. A provider failure is reported to the user; the saga
// stays in awaiting_kyc so the external KYC result (or a cancel) resolves it.
func (s *Saga) submitKYC(ctx context.Context, correlationID uuid.UUID, profile providers.CustomerProfile) error {
	capability, err := s.factory.ForUser(ctx, correlationID)
	if err != nil {
		return fmt.Errorf("resolve provider: %w", err)
	}

	customerID, err := capability.CreateCustomer(ctx, profile)
	if err == nil {
		err = capability.SubmitKYC(ctx, customerID, profile)
	}
	if err != nil {
		log.Printf("level=error component=saga msg=\"kyc submission failed\" correlation_id=%s provider=%s err=%v", correlationID, capability.Name(), err)
		return s.notifier.Notify(ctx, correlationID, domain.Prompt{
			Text:         "We hit a snag submitting your identity check. Please try again shortly, or cancel and restart.",
			QuickReplies: []string{"Cancel"},
		})
	}
	return nil
}

// promptEffect wraps a notification as a deferred effect.
func (s *Saga) promptEffect(correlationID uuid.UUID, prompt domain.Prompt) effect {
	return func(ctx context.Context) error {
		return s.notifier.Notify(ctx, correlationID, prompt)
	}
}

// quickReplies resolves the suggested replies for a state, tolerating an
// absent source.
func (s *Saga) quickReplies(ctx context.Context, state domain.ConversationState) []string {
	if s.replies == nil {
		return nil
	}
	return s.replies.QuickReplies(ctx, state)
}

func (s *Saga) runEffects(ctx context.Context, correlationID uuid.UUID, effects []effect) error {
	for _, fn := range effects {
		if err := fn(ctx); err != nil {
			log.Printf("level=error component=saga msg=\"post-transition effect failed\" correlation_id=%s err=%v", correlationID, err)
			return err
		}
	}
	return nil
}

func isDigits(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func reasonOr(reason, fallback string) string {
	if strings.TrimSpace(reason) == "" {
		return fallback
	}
	return reason
}

func formatKobo(amount int64) string {
	return fmt.Sprintf("₦%d.%02d", amount/100, amount%100)
}
