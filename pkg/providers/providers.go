/**
 * @description
 * This package defines the uniform capability set implemented once per
 * supported bank-payment provider, and the factory that resolves which
 * implementation serves a given user. Provider errors are never swallowed
 * here: they surface as typed failures to the saga, which records the failed
 * mandate or transaction and notifies the user.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/google/uuid: correlation and user ids.
 */

package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNoAssignment is returned by an AssignmentStore when a user has no sticky
// provider assignment yet; the factory then consults the selection policy.
var ErrNoAssignment = errors.New("no provider assignment for user")

// ErrUnknownProvider marks a provider name outside the supported set.
var ErrUnknownProvider = errors.New("unknown provider")

// CustomerProfile carries the identity fields a provider needs to create and
// verify a customer record.
type CustomerProfile struct {
	FullName    string
	Nin         string
	Bvn         string
	PhoneNumber string
	Reference   string
}

// MandateRequest describes a direct-debit mandate to be created at a provider.
// Reference is built from the correlation convention so the asynchronous
// approval webhook routes back to the owning workflow.
type MandateRequest struct {
	CustomerID         string
	MaxAmount          int64 // in kobo
	Reference          string
	DestinationAccount string
	ExpiresAt          time.Time
}

// TransferRequest describes an outbound transfer. Reference round-trips
// through the correlation convention like mandates do.
type TransferRequest struct {
	CustomerID         string
	Amount             int64 // in kobo
	Reference          string
	DestinationAccount string
	Narration          string
}

// Capability is the uniform operation set over heterogeneous bank-payment
// providers. Every implementation must route its outbound HTTP calls through
// the shared resilience policy.
type Capability interface {
	Name() string
	CreateCustomer(ctx context.Context, profile CustomerProfile) (string, error)
	SubmitKYC(ctx context.Context, customerID string, profile CustomerProfile) error
	CreateMandate(ctx context.Context, req MandateRequest) (string, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (string, error)
}

// AssignmentStore persists the sticky provider assignment per user.
type AssignmentStore interface {
	GetProviderAssignment(ctx context.Context, userID uuid.UUID) (string, error)
	SaveProviderAssignment(ctx context.Context, userID uuid.UUID, provider string) error
}

// SelectionPolicy chooses a provider for a user with no assignment. The exact
// policy is a business rule injected by the composition root, not a hidden
// default of this package.
type SelectionPolicy func(ctx context.Context, userID uuid.UUID) (string, error)

// Factory resolves the capability implementation for a user.
type Factory struct {
	capabilities map[string]Capability
	assignments  AssignmentStore
	policy       SelectionPolicy
}

// NewFactory registers the supported capabilities and wires the assignment
// store and selection policy.
func NewFactory(assignments AssignmentStore, policy SelectionPolicy, capabilities ...Capability) *Factory {
	registry := make(map[string]Capability, len(capabilities))
	for _, c := range capabilities {
		registry[c.Name()] = c
	}
	return &Factory{
		capabilities: registry,
		assignments:  assignments,
		policy:       policy,
	}
}

// ByName returns the capability registered under the given provider name.
func (f *Factory) ByName(name string) (Capability, error) {
	c, ok := f.capabilities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return c, nil
}

// ForUser resolves the sticky assignment for the user, running the selection
// policy and persisting its choice when no assignment exists yet.
func (f *Factory) ForUser(ctx context.Context, userID uuid.UUID) (Capability, error) {
	name, err := f.assignments.GetProviderAssignment(ctx, userID)
	if errors.Is(err, ErrNoAssignment) {
		name, err = f.policy(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("select provider: %w", err)
		}
		if _, ok := f.capabilities[name]; !ok {
			return nil, fmt.Errorf("%w: selection policy chose %s", ErrUnknownProvider, name)
		}
		if err := f.assignments.SaveProviderAssignment(ctx, userID, name); err != nil {
			return nil, fmt.Errorf("save provider assignment: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("load provider assignment: %w", err)
	}

	return f.ByName(name)
}
