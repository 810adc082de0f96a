/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract
 * for all data access operations required by the onboarding-service. Defining
 * an interface decouples the saga's business logic from the PostgreSQL
 * implementation and lets tests substitute stubs.
 *
 * The saga state methods carry the service's only concurrency discipline:
 * UpdateSagaState performs a compare-and-swap on the record's version and
 * returns ErrVersionConflict on a stale write, which the caller resolves by
 * recomputing the transition against fresh state.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: UUID handling.
 * - internal/domain: the service's domain models.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/koboflow/onboarding-service/internal/domain"
)

var (
	ErrSagaNotFound        = errors.New("saga state not found")
	ErrSagaExists          = errors.New("saga state already exists")
	ErrVersionConflict     = errors.New("saga state version conflict")
	ErrMandateNotFound     = errors.New("mandate not found")
	ErrMandateTerminal     = errors.New("mandate is terminally failed or cancelled")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUserNotFound        = errors.New("user not found")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Saga state methods. Create fails with ErrSagaExists when another worker
	// won the race for the same correlation id; Update fails with
	// ErrVersionConflict on a stale version.
	GetSagaState(ctx context.Context, correlationID uuid.UUID) (*domain.SagaState, error)
	CreateSagaState(ctx context.Context, state *domain.SagaState) error
	UpdateSagaState(ctx context.Context, state *domain.SagaState) error
	FindStaleSagas(ctx context.Context, cutoff time.Time) ([]domain.SagaState, error)

	// Mandate methods. CreateMandateIfAbsent is a conditional insert guarded
	// by a partial unique index over non-terminal mandates per user, so two
	// racing setups resolve to exactly one pending record. MarkMandateReady
	// distinguishes a user with no mandate at all (ErrMandateNotFound, the
	// event may have outran the record) from one whose mandates are all
	// terminally failed or cancelled (ErrMandateTerminal, no pending record
	// will ever appear).
	CreateMandateIfAbsent(ctx context.Context, mandate *domain.Mandate) (bool, error)
	FindActiveMandateByUserID(ctx context.Context, userID uuid.UUID) (*domain.Mandate, error)
	AttachProviderMandateID(ctx context.Context, mandateID uuid.UUID, providerMandateID string) error
	UpdateMandateStatus(ctx context.Context, mandateID uuid.UUID, status domain.MandateStatus) error
	MarkMandateReady(ctx context.Context, userID uuid.UUID, providerMandateID string) (*domain.Mandate, error)

	// Provider assignment methods (providers.AssignmentStore contract).
	GetProviderAssignment(ctx context.Context, userID uuid.UUID) (string, error)
	SaveProviderAssignment(ctx context.Context, userID uuid.UUID, provider string) error

	// User profile methods.
	UpsertUserProfile(ctx context.Context, profile *domain.UserProfile) error
	FindUserProfileByID(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)

	// Transaction methods. Terminal statuses never regress on webhook replay.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	SetProviderTransferRef(ctx context.Context, transactionID uuid.UUID, providerRef string) error
	MarkTransactionCompleted(ctx context.Context, transactionID uuid.UUID) error
	MarkTransactionFailed(ctx context.Context, transactionID uuid.UUID, reason string) error
}
