/**
 * @description
 * This file implements the per-intent field requirements applied to commands
 * arriving while a conversation is in the ready state. Each intent declares an
 * ordered list of required fields; validation reports the missing ones in
 * declaration order so the user is asked for them deterministically.
 */

package app

import (
	"strings"

	"github.com/koboflow/onboarding-service/internal/domain"
)

// fieldRequirement pairs a user-facing field name with its presence check.
type fieldRequirement struct {
	name    string
	present func(cmd domain.Command) bool
}

var intentRequirements = map[domain.Intent][]fieldRequirement{
	domain.IntentTransfer: {
		{name: "amount", present: hasAmount},
		{name: "destination account", present: hasDestination},
	},
	domain.IntentBillPay: {
		{name: "amount", present: hasAmount},
		{name: "biller code", present: func(cmd domain.Command) bool { return strings.TrimSpace(cmd.BillerCode) != "" }},
	},
	domain.IntentScheduleRecurring: {
		{name: "amount", present: hasAmount},
		{name: "destination account", present: hasDestination},
		{name: "schedule", present: func(cmd domain.Command) bool { return strings.TrimSpace(cmd.Schedule) != "" }},
	},
	domain.IntentSetGoal: {
		{name: "amount", present: hasAmount},
	},
	domain.IntentMemo: {
		{name: "memo text", present: hasText},
	},
	domain.IntentFeedback: {
		{name: "feedback text", present: hasText},
	},
	domain.IntentStartMandateSetup: nil,
}

func hasAmount(cmd domain.Command) bool      { return cmd.Amount > 0 }
func hasDestination(cmd domain.Command) bool { return strings.TrimSpace(cmd.DestinationAccount) != "" }
func hasText(cmd domain.Command) bool        { return strings.TrimSpace(cmd.Text) != "" }

// IntentValidator checks a ready-state command against its intent's required
// fields.
type IntentValidator struct{}

func NewIntentValidator() *IntentValidator { return &IntentValidator{} }

// Validate reports whether the command carries everything its intent needs,
// and when it does not, the missing field names in a stable order.
func (v *IntentValidator) Validate(cmd domain.Command) (bool, []string) {
	requirements, known := intentRequirements[cmd.Intent]
	if !known {
		return true, nil
	}

	var missing []string
	for _, req := range requirements {
		if !req.present(cmd) {
			missing = append(missing, req.name)
		}
	}
	return len(missing) == 0, missing
}
