/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains the SQL for the saga state table (with its optimistic
 * version column), mandates (with their conditional-insert idempotency),
 * provider assignments, user profiles, and the transaction ledger.
 *
 * @notes
 * - UpdateSagaState's WHERE clause carries the version check; zero affected
 *   rows means a concurrent writer got there first.
 * - CreateMandateIfAbsent relies on a partial unique index:
 *   `CREATE UNIQUE INDEX ux_mandates_active ON mandates (user_id)
 *    WHERE status NOT IN ('failed','cancelled')`.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: domain models used for data transfer.
 * - pkg/providers: the assignment-store sentinel error.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koboflow/onboarding-service/internal/domain"
	"github.com/koboflow/onboarding-service/pkg/providers"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetSagaState loads the durable conversation record for a correlation id.
func (r *PostgresRepository) GetSagaState(ctx context.Context, correlationID uuid.UUID) (*domain.SagaState, error) {
	var s domain.SagaState
	query := `
		SELECT correlation_id, current_state, temp_full_name, temp_nin, temp_bvn, temp_pin_hash,
		       phone_number, pin_attempts, version, created_at, updated_at
		FROM conversation_sagas WHERE correlation_id = $1`
	err := r.db.QueryRow(ctx, query, correlationID).Scan(
		&s.CorrelationID, &s.CurrentState, &s.TempFullName, &s.TempNin, &s.TempBvn, &s.TempPinHash,
		&s.PhoneNumber, &s.PinAttempts, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSagaNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateSagaState inserts the initial record for a new correlation id. A
// duplicate key means another worker created it concurrently.
func (r *PostgresRepository) CreateSagaState(ctx context.Context, state *domain.SagaState) error {
	query := `
		INSERT INTO conversation_sagas
			(correlation_id, current_state, temp_full_name, temp_nin, temp_bvn, temp_pin_hash,
			 phone_number, pin_attempts, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (correlation_id) DO NOTHING`
	tag, err := r.db.Exec(ctx, query,
		state.CorrelationID, state.CurrentState, state.TempFullName, state.TempNin, state.TempBvn,
		state.TempPinHash, state.PhoneNumber, state.PinAttempts, state.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSagaExists
	}
	return nil
}

// UpdateSagaState writes the record back conditioned on the version being
// unchanged, and increments it. A stale write affects zero rows.
func (r *PostgresRepository) UpdateSagaState(ctx context.Context, state *domain.SagaState) error {
	query := `
		UPDATE conversation_sagas
		SET current_state = $2, temp_full_name = $3, temp_nin = $4, temp_bvn = $5, temp_pin_hash = $6,
		    phone_number = $7, pin_attempts = $8, version = version + 1, updated_at = now()
		WHERE correlation_id = $1 AND version = $9`
	tag, err := r.db.Exec(ctx, query,
		state.CorrelationID, state.CurrentState, state.TempFullName, state.TempNin, state.TempBvn,
		state.TempPinHash, state.PhoneNumber, state.PinAttempts, state.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	state.Version++
	return nil
}

// FindStaleSagas returns onboarding sagas whose last mutation predates cutoff.
// The timeout sweeper feeds each one a timeout input.
func (r *PostgresRepository) FindStaleSagas(ctx context.Context, cutoff time.Time) ([]domain.SagaState, error) {
	query := `
		SELECT correlation_id, current_state, temp_full_name, temp_nin, temp_bvn, temp_pin_hash,
		       phone_number, pin_attempts, version, created_at, updated_at
		FROM conversation_sagas
		WHERE current_state NOT IN ('none', 'ready') AND updated_at < $1`
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sagas []domain.SagaState
	for rows.Next() {
		var s domain.SagaState
		if err := rows.Scan(
			&s.CorrelationID, &s.CurrentState, &s.TempFullName, &s.TempNin, &s.TempBvn, &s.TempPinHash,
			&s.PhoneNumber, &s.PinAttempts, &s.Version, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sagas = append(sagas, s)
	}
	return sagas, rows.Err()
}

// CreateMandateIfAbsent inserts the mandate unless the user already has one in
// a non-terminal-failed state. Reports whether a row was created.
func (r *PostgresRepository) CreateMandateIfAbsent(ctx context.Context, mandate *domain.Mandate) (bool, error) {
	query := `
		INSERT INTO mandates
			(id, user_id, provider, provider_mandate_id, status, max_amount, expires_at,
			 destination_account, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (user_id) WHERE status NOT IN ('failed', 'cancelled') DO NOTHING`
	tag, err := r.db.Exec(ctx, query,
		mandate.ID, mandate.UserID, mandate.Provider, mandate.ProviderMandateID, mandate.Status,
		mandate.MaxAmount, mandate.ExpiresAt, mandate.DestinationAccount,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FindActiveMandateByUserID returns the user's non-terminal mandate, if any.
func (r *PostgresRepository) FindActiveMandateByUserID(ctx context.Context, userID uuid.UUID) (*domain.Mandate, error) {
	var m domain.Mandate
	query := `
		SELECT id, user_id, provider, provider_mandate_id, status, max_amount, expires_at,
		       destination_account, created_at, updated_at
		FROM mandates
		WHERE user_id = $1 AND status NOT IN ('failed', 'cancelled')
		ORDER BY created_at DESC LIMIT 1`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&m.ID, &m.UserID, &m.Provider, &m.ProviderMandateID, &m.Status, &m.MaxAmount,
		&m.ExpiresAt, &m.DestinationAccount, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMandateNotFound
		}
		return nil, err
	}
	return &m, nil
}

// AttachProviderMandateID stores the provider's own mandate id after creation.
func (r *PostgresRepository) AttachProviderMandateID(ctx context.Context, mandateID uuid.UUID, providerMandateID string) error {
	query := `UPDATE mandates SET provider_mandate_id = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, mandateID, providerMandateID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMandateNotFound
	}
	return nil
}

// UpdateMandateStatus moves a mandate to the given status.
func (r *PostgresRepository) UpdateMandateStatus(ctx context.Context, mandateID uuid.UUID, status domain.MandateStatus) error {
	query := `UPDATE mandates SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, mandateID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMandateNotFound
	}
	return nil
}

// MarkMandateReady transitions the user's pending mandate to success, storing
// the provider mandate id. A replayed webhook for an already-successful
// mandate is a no-op returning the existing record. A user whose mandates are
// all terminally failed or cancelled yields ErrMandateTerminal so the caller
// can drop the event instead of requeueing it forever.
func (r *PostgresRepository) MarkMandateReady(ctx context.Context, userID uuid.UUID, providerMandateID string) (*domain.Mandate, error) {
	var m domain.Mandate
	query := `
		UPDATE mandates
		SET status = 'success', provider_mandate_id = $2, updated_at = now()
		WHERE user_id = $1 AND status IN ('pending', 'retrying')
		RETURNING id, user_id, provider, provider_mandate_id, status, max_amount, expires_at,
		          destination_account, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, userID, providerMandateID).Scan(
		&m.ID, &m.UserID, &m.Provider, &m.ProviderMandateID, &m.Status, &m.MaxAmount,
		&m.ExpiresAt, &m.DestinationAccount, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Nothing pending: a duplicate delivery for a mandate already marked
	// successful, a user whose only mandates are terminal, or a genuinely
	// unknown user.
	existing, ferr := r.FindActiveMandateByUserID(ctx, userID)
	if ferr == nil {
		if existing.Status == domain.MandateStatusSuccess {
			return existing, nil
		}
		return nil, ErrMandateNotFound
	}
	if !errors.Is(ferr, ErrMandateNotFound) {
		return nil, ferr
	}

	var hasAny bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM mandates WHERE user_id = $1)`, userID).Scan(&hasAny); err != nil {
		return nil, err
	}
	if hasAny {
		return nil, ErrMandateTerminal
	}
	return nil, ErrMandateNotFound
}

// GetProviderAssignment returns the user's sticky provider, or the factory's
// sentinel when none exists.
func (r *PostgresRepository) GetProviderAssignment(ctx context.Context, userID uuid.UUID) (string, error) {
	var provider string
	err := r.db.QueryRow(ctx, `SELECT provider FROM provider_assignments WHERE user_id = $1`, userID).Scan(&provider)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", providers.ErrNoAssignment
		}
		return "", err
	}
	return provider, nil
}

// SaveProviderAssignment persists the sticky provider choice for a user. A
// racing writer keeps the first choice.
func (r *PostgresRepository) SaveProviderAssignment(ctx context.Context, userID uuid.UUID, provider string) error {
	query := `
		INSERT INTO provider_assignments (user_id, provider, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, userID, provider)
	return err
}

// UpsertUserProfile commits the onboarding temp fields to the permanent record.
func (r *PostgresRepository) UpsertUserProfile(ctx context.Context, profile *domain.UserProfile) error {
	query := `
		INSERT INTO users (id, full_name, nin, bvn, phone_number, transaction_pin_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name, nin = EXCLUDED.nin, bvn = EXCLUDED.bvn,
		    phone_number = EXCLUDED.phone_number, transaction_pin_hash = EXCLUDED.transaction_pin_hash,
		    updated_at = now()`
	_, err := r.db.Exec(ctx, query,
		profile.ID, profile.FullName, profile.Nin, profile.Bvn, profile.PhoneNumber, profile.TransactionPINHash,
	)
	return err
}

// FindUserProfileByID retrieves a committed user profile.
func (r *PostgresRepository) FindUserProfileByID(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	var p domain.UserProfile
	query := `
		SELECT id, full_name, nin, bvn, phone_number, transaction_pin_hash, created_at, updated_at
		FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.FullName, &p.Nin, &p.Bvn, &p.PhoneNumber, &p.TransactionPINHash, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateTransaction inserts a new pending ledger record.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions
			(id, user_id, provider, provider_transfer_ref, status, amount, destination_account,
			 narration, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`
	_, err := r.db.Exec(ctx, query,
		tx.ID, tx.UserID, tx.Provider, tx.ProviderTransferRef, tx.Status, tx.Amount,
		tx.DestinationAccount, tx.Narration, tx.FailureReason,
	)
	return err
}

// FindTransactionByID retrieves a ledger record by its id (the transfer's
// correlation id under the reference convention).
func (r *PostgresRepository) FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	var t domain.Transaction
	query := `
		SELECT id, user_id, provider, provider_transfer_ref, status, amount, destination_account,
		       narration, failure_reason, created_at, updated_at
		FROM transactions WHERE id = $1`
	err := r.db.QueryRow(ctx, query, transactionID).Scan(
		&t.ID, &t.UserID, &t.Provider, &t.ProviderTransferRef, &t.Status, &t.Amount,
		&t.DestinationAccount, &t.Narration, &t.FailureReason, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

// SetProviderTransferRef records the provider's own transfer reference.
func (r *PostgresRepository) SetProviderTransferRef(ctx context.Context, transactionID uuid.UUID, providerRef string) error {
	query := `UPDATE transactions SET provider_transfer_ref = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, transactionID, providerRef)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// MarkTransactionCompleted finalizes a pending transaction as completed.
// Terminal statuses never regress, so replays affect zero rows and are fine.
func (r *PostgresRepository) MarkTransactionCompleted(ctx context.Context, transactionID uuid.UUID) error {
	query := `UPDATE transactions SET status = 'completed', updated_at = now() WHERE id = $1 AND status = 'pending'`
	_, err := r.db.Exec(ctx, query, transactionID)
	return err
}

// MarkTransactionFailed finalizes a pending transaction as failed with reason.
func (r *PostgresRepository) MarkTransactionFailed(ctx context.Context, transactionID uuid.UUID, reason string) error {
	query := `
		UPDATE transactions SET status = 'failed', failure_reason = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'`
	_, err := r.db.Exec(ctx, query, transactionID, reason)
	return err
}
