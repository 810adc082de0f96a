/**
 * @description
 * This file maps authenticated provider webhook payloads into the closed set of
 * canonical domain events (transfer succeeded/failed, mandate ready). It is
 * total over the supported payload shapes and tolerant of missing optional
 * fields; an unrecognized shape returns ErrUnsupportedPayload so the HTTP
 * boundary can acknowledge receipt while logging the anomaly.
 *
 * Key extraction follows the correlation convention: the owning correlation id
 * is embedded in a reference string as "<tag>:<uuid>". Parse failures yield the
 * nil UUID rather than an error - a deliberate acceptance of data loss over
 * availability loss. Callers must surface nil-correlation events to metrics.
 */

package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/koboflow/onboarding-service/internal/domain"
)

// Supported bank-payment providers. A user is bound to exactly one at a time.
const (
	ProviderMono    = "mono"
	ProviderOnepipe = "onepipe"
)

// ErrUnsupportedPayload marks an authenticated payload whose shape matches no
// canonical event kind.
var ErrUnsupportedPayload = errors.New("unsupported webhook payload shape")

const fallbackFailureReason = "No reason provided"

// payload is the superset of fields the supported providers send. Providers
// sometimes nest the interesting fields under "data", so both levels are read.
type payload struct {
	Event          string   `json:"event"`
	Status         string   `json:"status"`
	TransactionRef string   `json:"transaction_ref"`
	Reference      string   `json:"reference"`
	MandateID      string   `json:"mandate_id"`
	FailureReason  string   `json:"failure_reason"`
	Data           *payload `json:"data,omitempty"`
}

// flatten prefers top-level fields, falling back to the nested data object.
func (p *payload) flatten() payload {
	out := *p
	if p.Data == nil {
		return out
	}
	if out.Event == "" {
		out.Event = p.Data.Event
	}
	if out.Status == "" {
		out.Status = p.Data.Status
	}
	if out.TransactionRef == "" {
		out.TransactionRef = p.Data.TransactionRef
	}
	if out.Reference == "" {
		out.Reference = p.Data.Reference
	}
	if out.MandateID == "" {
		out.MandateID = p.Data.MandateID
	}
	if out.FailureReason == "" {
		out.FailureReason = p.Data.FailureReason
	}
	return out
}

// Canonicalize converts a provider JSON payload plus the declared provider name
// into a canonical event. The provider name is the literal identifying string
// passed in, never inferred from payload shape.
func Canonicalize(provider string, body []byte) (*domain.CanonicalEvent, error) {
	var raw payload
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	p := raw.flatten()

	switch {
	case p.MandateID != "":
		ref := mandateReference(provider, p)
		return &domain.CanonicalEvent{
			Kind:              domain.EventMandateReady,
			CorrelationID:     domain.ParseReference(ref),
			Reference:         ref,
			ProviderMandateID: p.MandateID,
			Provider:          provider,
		}, nil

	case p.TransactionRef != "":
		if transferSucceeded(p.Status) {
			return &domain.CanonicalEvent{
				Kind:          domain.EventTransferSucceeded,
				CorrelationID: domain.ParseReference(p.TransactionRef),
				Reference:     p.TransactionRef,
				Provider:      provider,
			}, nil
		}
		reason := p.FailureReason
		if reason == "" {
			reason = fallbackFailureReason
		}
		return &domain.CanonicalEvent{
			Kind:          domain.EventTransferFailed,
			CorrelationID: domain.ParseReference(p.TransactionRef),
			Reference:     p.TransactionRef,
			Reason:        reason,
			Provider:      provider,
		}, nil

	default:
		return nil, ErrUnsupportedPayload
	}
}

// mandateReference picks the field carrying the correlation for mandate events.
// Mono embeds it in "reference"; OnePipe reuses "transaction_ref". Either way
// the other field serves as a fallback when the preferred one is absent.
func mandateReference(provider string, p payload) string {
	preferred, fallback := p.Reference, p.TransactionRef
	if provider == ProviderOnepipe {
		preferred, fallback = p.TransactionRef, p.Reference
	}
	if preferred != "" {
		return preferred
	}
	return fallback
}

func transferSucceeded(status string) bool {
	switch strings.TrimSpace(strings.ToLower(status)) {
	case "successful", "success", "completed", "paid":
		return true
	default:
		return false
	}
}
