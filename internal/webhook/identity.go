/**
 * @description
 * This file maps provider identity webhooks (KYC verdicts, bank account link
 * outcomes) into validation results. These events concern the onboarding
 * conversation rather than money movement, so instead of widening the
 * canonical event set they are translated at the edge into the same
 * ValidationResult messages the identity validation service emits, and ride
 * its routing key to the saga.
 */

package webhook

import (
	"encoding/json"

	"github.com/koboflow/onboarding-service/internal/domain"
)

// identityEvents maps the provider event names for KYC and bank-link outcomes
// to their validation target and verdict. Both providers use dotted event
// names; the terminal segment carries the verdict.
var identityEvents = map[string]struct {
	target  string
	success bool
}{
	"customer.kyc.approved":            {target: domain.ValidationTargetKyc, success: true},
	"customer.kyc.rejected":            {target: domain.ValidationTargetKyc, success: false},
	"customer.kyc.failed":              {target: domain.ValidationTargetKyc, success: false},
	"customer.identification.approved": {target: domain.ValidationTargetKyc, success: true},
	"customer.identification.rejected": {target: domain.ValidationTargetKyc, success: false},
	"account.linked":                   {target: domain.ValidationTargetBankLink, success: true},
	"account.link_failed":              {target: domain.ValidationTargetBankLink, success: false},
	"account.unlinked":                 {target: domain.ValidationTargetBankLink, success: false},
	"customer.account.linked":          {target: domain.ValidationTargetBankLink, success: true},
	"customer.account.failed":          {target: domain.ValidationTargetBankLink, success: false},
}

// MapIdentityEvent reports whether the payload is an identity event and, when
// it is, the validation result to publish. The correlation id comes from the
// onboarding reference; a parse failure yields the nil UUID like the
// canonicalizer does, and the caller decides what to do with it.
func MapIdentityEvent(provider string, body []byte) (*domain.ValidationResult, bool) {
	var raw payload
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, false
	}
	p := raw.flatten()

	verdict, ok := identityEvents[p.Event]
	if !ok {
		return nil, false
	}

	reason := p.FailureReason
	if !verdict.success && reason == "" {
		reason = fallbackFailureReason
	}

	ref := p.Reference
	if ref == "" {
		ref = p.TransactionRef
	}
	return &domain.ValidationResult{
		CorrelationID: domain.ParseReference(ref),
		Target:        verdict.target,
		Success:       verdict.success,
		Reason:        reason,
	}, true
}
