package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/koboflow/onboarding-service/internal/domain"
	"github.com/koboflow/onboarding-service/internal/store"
	"github.com/koboflow/onboarding-service/pkg/providers"
)

// memRepo is an in-memory store.Repository with the same concurrency contract
// as the Postgres implementation: version CAS on saga updates, conditional
// mandate insert, terminal transaction statuses that never regress.
type memRepo struct {
	mu           sync.Mutex
	sagas        map[uuid.UUID]*domain.SagaState
	mandates     map[uuid.UUID]*domain.Mandate
	profiles     map[uuid.UUID]*domain.UserProfile
	transactions map[uuid.UUID]*domain.Transaction
	assignments  map[uuid.UUID]string

	// failUpdates injects that many ErrVersionConflict results before
	// updates succeed again.
	failUpdates int
}

func newMemRepo() *memRepo {
	return &memRepo{
		sagas:        make(map[uuid.UUID]*domain.SagaState),
		mandates:     make(map[uuid.UUID]*domain.Mandate),
		profiles:     make(map[uuid.UUID]*domain.UserProfile),
		transactions: make(map[uuid.UUID]*domain.Transaction),
		assignments:  make(map[uuid.UUID]string),
	}
}

func (r *memRepo) GetSagaState(ctx context.Context, id uuid.UUID) (*domain.SagaState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sagas[id]
	if !ok {
		return nil, store.ErrSagaNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memRepo) CreateSagaState(ctx context.Context, state *domain.SagaState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sagas[state.CorrelationID]; ok {
		return store.ErrSagaExists
	}
	copied := *state
	r.sagas[state.CorrelationID] = &copied
	return nil
}

func (r *memRepo) UpdateSagaState(ctx context.Context, state *domain.SagaState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates > 0 {
		r.failUpdates--
		return store.ErrVersionConflict
	}
	current, ok := r.sagas[state.CorrelationID]
	if !ok || current.Version != state.Version {
		return store.ErrVersionConflict
	}
	copied := *state
	copied.Version++
	copied.UpdatedAt = time.Now()
	r.sagas[state.CorrelationID] = &copied
	state.Version++
	return nil
}

func (r *memRepo) FindStaleSagas(ctx context.Context, cutoff time.Time) ([]domain.SagaState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SagaState
	for _, s := range r.sagas {
		if s.Onboarding() && s.UpdatedAt.Before(cutoff) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memRepo) CreateMandateIfAbsent(ctx context.Context, mandate *domain.Mandate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mandates {
		if m.UserID == mandate.UserID && !m.Status.Terminal() {
			return false, nil
		}
	}
	copied := *mandate
	r.mandates[mandate.ID] = &copied
	return true, nil
}

func (r *memRepo) FindActiveMandateByUserID(ctx context.Context, userID uuid.UUID) (*domain.Mandate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mandates {
		if m.UserID == userID && !m.Status.Terminal() {
			copied := *m
			return &copied, nil
		}
	}
	return nil, store.ErrMandateNotFound
}

func (r *memRepo) AttachProviderMandateID(ctx context.Context, mandateID uuid.UUID, providerMandateID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mandates[mandateID]
	if !ok {
		return store.ErrMandateNotFound
	}
	m.ProviderMandateID = &providerMandateID
	return nil
}

func (r *memRepo) UpdateMandateStatus(ctx context.Context, mandateID uuid.UUID, status domain.MandateStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mandates[mandateID]
	if !ok {
		return store.ErrMandateNotFound
	}
	m.Status = status
	return nil
}

func (r *memRepo) MarkMandateReady(ctx context.Context, userID uuid.UUID, providerMandateID string) (*domain.Mandate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	terminalOnly := false
	for _, m := range r.mandates {
		if m.UserID != userID {
			continue
		}
		switch m.Status {
		case domain.MandateStatusPending, domain.MandateStatusRetrying:
			m.Status = domain.MandateStatusSuccess
			m.ProviderMandateID = &providerMandateID
			copied := *m
			return &copied, nil
		case domain.MandateStatusSuccess:
			copied := *m
			return &copied, nil
		default:
			terminalOnly = true
		}
	}
	if terminalOnly {
		return nil, store.ErrMandateTerminal
	}
	return nil, store.ErrMandateNotFound
}

func (r *memRepo) GetProviderAssignment(ctx context.Context, userID uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.assignments[userID]
	if !ok {
		return "", providers.ErrNoAssignment
	}
	return name, nil
}

func (r *memRepo) SaveProviderAssignment(ctx context.Context, userID uuid.UUID, provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[userID]; !ok {
		r.assignments[userID] = provider
	}
	return nil
}

func (r *memRepo) UpsertUserProfile(ctx context.Context, profile *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *profile
	r.profiles[profile.ID] = &copied
	return nil
}

func (r *memRepo) FindUserProfileByID(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memRepo) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *tx
	r.transactions[tx.ID] = &copied
	return nil
}

func (r *memRepo) FindTransactionByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[id]
	if !ok {
		return nil, store.ErrTransactionNotFound
	}
	copied := *tx
	return &copied, nil
}

func (r *memRepo) SetProviderTransferRef(ctx context.Context, id uuid.UUID, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[id]
	if !ok {
		return store.ErrTransactionNotFound
	}
	tx.ProviderTransferRef = &ref
	return nil
}

func (r *memRepo) MarkTransactionCompleted(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[id]
	if ok && tx.Status == domain.TransactionStatusPending {
		tx.Status = domain.TransactionStatusCompleted
	}
	return nil
}

func (r *memRepo) MarkTransactionFailed(ctx context.Context, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[id]
	if ok && tx.Status == domain.TransactionStatusPending {
		tx.Status = domain.TransactionStatusFailed
		tx.FailureReason = &reason
	}
	return nil
}

// recordingNotifier captures every prompt sent.
type recordingNotifier struct {
	mu      sync.Mutex
	prompts []domain.Prompt
}

func (n *recordingNotifier) Notify(ctx context.Context, id uuid.UUID, prompt domain.Prompt) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prompts = append(n.prompts, prompt)
	return nil
}

func (n *recordingNotifier) last(t *testing.T) domain.Prompt {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.prompts) == 0 {
		t.Fatal("expected at least one prompt")
	}
	return n.prompts[len(n.prompts)-1]
}

// recordingDispatcher captures validation requests.
type recordingDispatcher struct {
	requests []domain.ValidationRequest
}

func (d *recordingDispatcher) RequestValidation(ctx context.Context, req domain.ValidationRequest) error {
	d.requests = append(d.requests, req)
	return nil
}

// fakeCapability records provider calls and returns canned ids.
type fakeCapability struct {
	name          string
	createdCount  int
	kycCount      int
	mandateCount  int
	transferCount int
	mandateErr    error
	transferErr   error
	lastReference string
}

func (f *fakeCapability) Name() string { return f.name }

func (f *fakeCapability) CreateCustomer(ctx context.Context, profile providers.CustomerProfile) (string, error) {
	f.createdCount++
	return "cust_" + f.name, nil
}

func (f *fakeCapability) SubmitKYC(ctx context.Context, customerID string, profile providers.CustomerProfile) error {
	f.kycCount++
	return nil
}

func (f *fakeCapability) CreateMandate(ctx context.Context, req providers.MandateRequest) (string, error) {
	f.mandateCount++
	f.lastReference = req.Reference
	if f.mandateErr != nil {
		return "", f.mandateErr
	}
	return "mnd_provider_1", nil
}

func (f *fakeCapability) InitiateTransfer(ctx context.Context, req providers.TransferRequest) (string, error) {
	f.transferCount++
	f.lastReference = req.Reference
	if f.transferErr != nil {
		return "", f.transferErr
	}
	return "trf_provider_1", nil
}

func newTestSaga(repo *memRepo, capability *fakeCapability) (*Saga, *recordingNotifier, *recordingDispatcher) {
	notifier := &recordingNotifier{}
	dispatcher := &recordingDispatcher{}
	factory := providers.NewFactory(repo, func(ctx context.Context, id uuid.UUID) (string, error) {
		return capability.name, nil
	}, capability)

	saga := NewSaga(repo, factory, notifier, dispatcher, NewIntentValidator(), nil, SagaConfig{
		MandateMaxAmount:  50000000,
		MandateExpiry:     365 * 24 * time.Hour,
		CollectionAccount: "0123456789",
	})
	return saga, notifier, dispatcher
}

func command(id uuid.UUID, intent domain.Intent, text string) domain.Command {
	return domain.Command{CorrelationID: id, Intent: intent, Text: text, PhoneNumber: "+2348012345678"}
}

func mustState(t *testing.T, repo *memRepo, id uuid.UUID) *domain.SagaState {
	t.Helper()
	state, err := repo.GetSagaState(context.Background(), id)
	if err != nil {
		t.Fatalf("load saga state: %v", err)
	}
	return state
}

// driveToReady walks a fresh conversation through the whole onboarding flow.
func driveToReady(t *testing.T, saga *Saga, repo *memRepo, id uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	steps := []domain.Command{
		command(id, domain.IntentSignup, "sign up"),
		command(id, "", "Amaka Obi"),
		command(id, "", "12345678901"),
	}
	for _, cmd := range steps {
		if err := saga.HandleCommand(ctx, cmd); err != nil {
			t.Fatalf("command in state %v failed: %v", mustState(t, repo, id).CurrentState, err)
		}
	}
	if err := saga.HandleValidationResult(ctx, domain.ValidationResult{CorrelationID: id, Target: domain.ValidationTargetNin, Success: true}); err != nil {
		t.Fatalf("nin result: %v", err)
	}
	if err := saga.HandleCommand(ctx, command(id, "", "10987654321")); err != nil {
		t.Fatalf("bvn command: %v", err)
	}
	if err := saga.HandleValidationResult(ctx, domain.ValidationResult{CorrelationID: id, Target: domain.ValidationTargetBvn, Success: true}); err != nil {
		t.Fatalf("bvn result: %v", err)
	}
	if err := saga.HandleValidationResult(ctx, domain.ValidationResult{CorrelationID: id, Target: domain.ValidationTargetKyc, Success: true}); err != nil {
		t.Fatalf("kyc result: %v", err)
	}
	if err := saga.HandleCommand(ctx, command(id, domain.IntentConfirmBankLink, "done")); err != nil {
		t.Fatalf("bank link confirm: %v", err)
	}
	if err := saga.HandleCommand(ctx, command(id, "", "4321")); err != nil {
		t.Fatalf("pin setup: %v", err)
	}
	if err := saga.HandleCommand(ctx, command(id, "", "4321")); err != nil {
		t.Fatalf("pin confirm: %v", err)
	}
}

func TestOnboardingFlowReachesReady(t *testing.T) {
	repo := newMemRepo()
	capability := &fakeCapability{name: "mono"}
	saga, _, dispatcher := newTestSaga(repo, capability)
	id := uuid.New()

	driveToReady(t, saga, repo, id)

	state := mustState(t, repo, id)
	if state.CurrentState != domain.StateReady {
		t.Fatalf("expected ready, got %s", state.CurrentState)
	}
	if state.TempFullName != nil || state.TempNin != nil || state.TempBvn != nil || state.TempPinHash != nil {
		t.Fatal("temp fields must be cleared after commit")
	}

	profile, err := repo.FindUserProfileByID(context.Background(), id)
	if err != nil {
		t.Fatalf("profile not committed: %v", err)
	}
	if profile.FullName != "Amaka Obi" || profile.Nin != "12345678901" || profile.Bvn != "10987654321" {
		t.Fatalf("profile fields wrong: %+v", profile)
	}
	if profile.TransactionPINHash == "" || profile.TransactionPINHash == "4321" {
		t.Fatal("PIN must be stored hashed")
	}

	if len(dispatcher.requests) != 2 ||
		dispatcher.requests[0].Target != domain.ValidationTargetNin ||
		dispatcher.requests[1].Target != domain.ValidationTargetBvn {
		t.Fatalf("unexpected validation requests: %+v", dispatcher.requests)
	}
	if capability.createdCount != 1 || capability.kycCount != 1 {
		t.Fatalf("expected one customer creation and one kyc submission, got %d/%d", capability.createdCount, capability.kycCount)
	}
}

func TestInvalidIdentityNumbersAreRejectedInPlace(t *testing.T) {
	repo := newMemRepo()
	saga, notifier, dispatcher := newTestSaga(repo, &fakeCapability{name: "mono"})
	id := uuid.New()
	ctx := context.Background()

	if err := saga.HandleCommand(ctx, command(id, domain.IntentSignup, "sign up")); err != nil {
		t.Fatal(err)
	}
	if err := saga.HandleCommand(ctx, command(id, "", "Amaka Obi")); err != nil {
		t.Fatal(err)
	}

	for _, bad := range []string{"1234", "123456789012", "1234567890a", ""} {
		if err := saga.HandleCommand(ctx, command(id, "", bad)); err != nil {
			t.Fatalf("command %q: %v", bad, err)
		}
		if state := mustState(t, repo, id); state.CurrentState != domain.StateAskNin {
			t.Fatalf("state moved to %s on invalid nin %q", state.CurrentState, bad)
		}
	}
	if len(dispatcher.requests) != 0 {
		t.Fatalf("no validation must be requested for invalid input, got %+v", dispatcher.requests)
	}
	if !strings.Contains(notifier.last(t).Text, "11 digits") {
		t.Fatalf("expected corrective prompt, got %q", notifier.last(t).Text)
	}
}

func TestCancelDiscardsCollectedData(t *testing.T) {
	repo := newMemRepo()
	saga, _, _ := newTestSaga(repo, &fakeCapability{name: "mono"})
	id := uuid.New()
	ctx := context.Background()

	if err := saga.HandleCommand(ctx, command(id, domain.IntentSignup, "sign up")); err != nil {
		t.Fatal(err)
	}
	if err := saga.HandleCommand(ctx, command(id, "", "Amaka Obi")); err != nil {
		t.Fatal(err)
	}
	if err := saga.HandleCommand(ctx, command(id, domain.IntentCancel, "cancel")); err != nil {
		t.Fatal(err)
	}

	state := mustState(t, repo, id)
	if state.CurrentState != domain.StateNone {
		t.Fatalf("expected none after cancel, got %s", state.CurrentState)
	}
	if state.TempFullName != nil {
		t.Fatal("temp data must be discarded on cancel")
	}
}

func TestNinValidationFailureReturnsToCollection(t *testing.T) {
	repo := newMemRepo()
	saga, notifier, _ := newTestSaga(repo, &fakeCapability{name: "mono"})
	id := uuid.New()
	ctx := context.Background()

	for _, cmd := range []domain.Command{
		command(id, domain.IntentSignup, "sign up"),
		command(id, "", "Amaka Obi"),
		command(id, "", "12345678901"),
	} {
		if err := saga.HandleCommand(ctx, cmd); err != nil {
			t.Fatal(err)
		}
	}

	if err := saga.HandleValidationResult(ctx, domain.ValidationResult{
		CorrelationID: id, Target: domain.ValidationTargetNin, Success: false, Reason: "number not found",
	}); err != nil {
		t.Fatal(err)
	}

	state := mustState(t, repo, id)
	if state.CurrentState != domain.StateAskNin {
		t.Fatalf("expected ask_nin after failed validation, got %s", state.CurrentState)
	}
	if state.TempNin != nil {
		t.Fatal("rejected nin must be discarded")
	}
	if !strings.Contains(notifier.last(t).Text, "number not found") {
		t.Fatalf("failure reason must reach the user, got %q", notifier.last(t).Text)
	}
}

func TestKycRejectionResetsConversation(t *testing.T) {
	repo := newMemRepo()
	saga, _, _ := newTestSaga(repo, &fakeCapability{name: "mono"})
	id := uuid.New()
	ctx := context.Background()

	for _, cmd := range []domain.Command{
		command(id, domain.IntentSignup, "sign up"),
		command(id, "", "Amaka Obi"),
		command(id, "", "12345678901"),
	} {
		if err := saga.HandleCommand(ctx, cmd); err != nil {
			t.Fatal(err)
		}
	}
	if err := saga.HandleValidationResult(ctx, domain.ValidationResult{CorrelationID: id, Target: domain.ValidationTargetNin, Success: true}); err != nil {
		t.Fatal(err)
	}
	if err := saga.HandleCommand(ctx, command(id, "", "10987654321")); err != nil {
		t.Fatal(err)
	}
	if err := saga.HandleValidationResult(ctx, domain.ValidationResult{CorrelationID: id, Target: domain.ValidationTargetBvn, Success: true}); err != nil {
		t.Fatal(err)
	}

	if err := saga.HandleValidationResult(ctx, domain.ValidationResult{
		CorrelationID: id, Target: domain.ValidationTargetKyc, Success: false, Reason: "identity mismatch",
	}); err != nil {
		t.Fatal(err)
	}

	state := mustState(t, repo, id)
	if state.CurrentState != domain.StateNone {
		t.Fatalf("expected reset to none after kyc rejection, got %s", state.CurrentState)
	}
	if state.TempNin != nil || state.TempBvn != nil {
		t.Fatal("temp identity data must be discarded on kyc rejection")
	}
}

func TestPinMismatchReturnsToSetupAndThreeRestartFromScratch(t *testing.T) {
	repo := newMemRepo()
	saga, notifier, _ := newTestSaga(repo, &fakeCapability{name: "mono"})
	id := uuid.New()
	ctx := context.Background()

	// Walk to PIN confirmation.
	for _, cmd := range []domain.Command{
		command(id, domain.IntentSignup, "sign up"),
		command(id, "", "Amaka Obi"),
		command(id, "", "12345678901"),
	} {
		if err := saga.HandleCommand(ctx, cmd); err != nil {
			t.Fatal(err)
		}
	}
	saga.HandleValidationResult(ctx, domain.ValidationResult{CorrelationID: id, Target: domain.ValidationTargetNin, Success: true})
	saga.HandleCommand(ctx, command(id, "", "10987654321"))
	saga.HandleValidationResult(ctx, domain.ValidationResult{CorrelationID: id, Target: domain.ValidationTargetBvn, Success: true})
	saga.HandleValidationResult(ctx, domain.ValidationResult{CorrelationID: id, Target: domain.ValidationTargetKyc, Success: true})
	saga.HandleCommand(ctx, command(id, domain.IntentConfirmBankLink, "done"))

	// Each mismatched confirmation discards the staged hash and sends the
	// user back to choosing a PIN, carrying the attempt counter along.
	for i := 1; i < maxPinAttempts; i++ {
		if err := saga.HandleCommand(ctx, command(id, "", "4321")); err != nil {
			t.Fatal(err)
		}
		if err := saga.HandleCommand(ctx, command(id, "", "0000")); err != nil {
			t.Fatal(err)
		}
		state := mustState(t, repo, id)
		if state.CurrentState != domain.StateAwaitingPinSetup {
			t.Fatalf("mismatch %d: expected return to pin setup, got %s", i, state.CurrentState)
		}
		if state.TempPinHash != nil {
			t.Fatalf("mismatch %d: staged hash must be discarded", i)
		}
		if state.PinAttempts != i {
			t.Fatalf("mismatch %d: expected attempt counter %d, got %d", i, i, state.PinAttempts)
		}
	}

	// The third mismatch restarts setup from scratch.
	saga.HandleCommand(ctx, command(id, "", "4321"))
	if err := saga.HandleCommand(ctx, command(id, "", "0000")); err != nil {
		t.Fatal(err)
	}
	state := mustState(t, repo, id)
	if state.CurrentState != domain.StateAwaitingPinSetup {
		t.Fatalf("expected restart of pin setup, got %s", state.CurrentState)
	}
	if state.TempPinHash != nil || state.PinAttempts != 0 {
		t.Fatal("staged pin hash and attempt counter must be reset")
	}
	if !strings.Contains(notifier.last(t).Text, "start over") {
		t.Fatalf("restart must be announced, got %q", notifier.last(t).Text)
	}

	// A matching confirmation still completes onboarding afterwards.
	saga.HandleCommand(ctx, command(id, "", "9876"))
	if err := saga.HandleCommand(ctx, command(id, "", "9876")); err != nil {
		t.Fatal(err)
	}
	if state := mustState(t, repo, id); state.CurrentState != domain.StateReady {
		t.Fatalf("expected ready after matching confirmation, got %s", state.CurrentState)
	}
}

func TestVersionConflictIsRecomputed(t *testing.T) {
	repo := newMemRepo()
	saga, _, _ := newTestSaga(repo, &fakeCapability{name: "mono"})
	id := uuid.New()
	ctx := context.Background()

	if err := saga.HandleCommand(ctx, command(id, domain.IntentSignup, "sign up")); err != nil {
		t.Fatal(err)
	}

	repo.failUpdates = 2
	if err := saga.HandleCommand(ctx, command(id, "", "Amaka Obi")); err != nil {
		t.Fatalf("transition must survive transient conflicts: %v", err)
	}
	if state := mustState(t, repo, id); state.CurrentState != domain.StateAskNin {
		t.Fatalf("expected ask_nin after recompute, got %s", state.CurrentState)
	}

	repo.failUpdates = maxTransitionAttempts + 1
	if err := saga.HandleCommand(ctx, command(id, "", "12345678901")); !errors.Is(err, ErrTransitionContention) {
		t.Fatalf("expected ErrTransitionContention, got %v", err)
	}
}

func TestTimeoutAbandonsOnlyOnboardingStates(t *testing.T) {
	repo := newMemRepo()
	saga, _, _ := newTestSaga(repo, &fakeCapability{name: "mono"})
	id := uuid.New()
	ctx := context.Background()

	saga.HandleCommand(ctx, command(id, domain.IntentSignup, "sign up"))
	saga.HandleCommand(ctx, command(id, "", "Amaka Obi"))

	if err := saga.HandleTimeout(ctx, id); err != nil {
		t.Fatal(err)
	}
	state := mustState(t, repo, id)
	if state.CurrentState != domain.StateNone || state.TempFullName != nil {
		t.Fatalf("timeout must reset and clear, got %s", state.CurrentState)
	}

	// A ready conversation is untouched.
	readyID := uuid.New()
	driveToReady(t, saga, repo, readyID)
	before := mustState(t, repo, readyID).Version
	if err := saga.HandleTimeout(ctx, readyID); err != nil {
		t.Fatal(err)
	}
	after := mustState(t, repo, readyID)
	if after.CurrentState != domain.StateReady || after.Version != before {
		t.Fatal("timeout must be a no-op for ready conversations")
	}
}

func TestReadyIntentMissingFieldsPrompted(t *testing.T) {
	repo := newMemRepo()
	saga, notifier, _ := newTestSaga(repo, &fakeCapability{name: "mono"})
	id := uuid.New()
	driveToReady(t, saga, repo, id)

	cmd := domain.Command{CorrelationID: id, Intent: domain.IntentTransfer}
	if err := saga.HandleCommand(context.Background(), cmd); err != nil {
		t.Fatal(err)
	}

	text := notifier.last(t).Text
	if !strings.Contains(text, "amount") || !strings.Contains(text, "destination account") {
		t.Fatalf("missing fields must be listed, got %q", text)
	}
	if strings.Index(text, "amount") > strings.Index(text, "destination account") {
		t.Fatalf("missing fields must keep declaration order, got %q", text)
	}
}
