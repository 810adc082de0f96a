package app

import (
	"reflect"
	"testing"

	"github.com/koboflow/onboarding-service/internal/domain"
)

func TestIntentValidator(t *testing.T) {
	v := NewIntentValidator()

	cases := []struct {
		name    string
		cmd     domain.Command
		ok      bool
		missing []string
	}{
		{
			name: "transfer complete",
			cmd:  domain.Command{Intent: domain.IntentTransfer, Amount: 1000, DestinationAccount: "0011223344"},
			ok:   true,
		},
		{
			name:    "transfer missing everything keeps declaration order",
			cmd:     domain.Command{Intent: domain.IntentTransfer},
			missing: []string{"amount", "destination account"},
		},
		{
			name:    "transfer missing destination only",
			cmd:     domain.Command{Intent: domain.IntentTransfer, Amount: 1000},
			missing: []string{"destination account"},
		},
		{
			name:    "bill pay missing biller",
			cmd:     domain.Command{Intent: domain.IntentBillPay, Amount: 1000},
			missing: []string{"biller code"},
		},
		{
			name:    "recurring missing schedule",
			cmd:     domain.Command{Intent: domain.IntentScheduleRecurring, Amount: 1000, DestinationAccount: "0011223344"},
			missing: []string{"schedule"},
		},
		{
			name:    "memo needs text",
			cmd:     domain.Command{Intent: domain.IntentMemo, Text: "   "},
			missing: []string{"memo text"},
		},
		{
			name: "mandate setup needs nothing",
			cmd:  domain.Command{Intent: domain.IntentStartMandateSetup},
			ok:   true,
		},
		{
			name: "unknown intent passes through",
			cmd:  domain.Command{Intent: domain.Intent("something_new")},
			ok:   true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, missing := v.Validate(tc.cmd)
			if len(tc.missing) == 0 {
				if !ok {
					t.Fatalf("expected valid, got missing %v", missing)
				}
				return
			}
			if ok {
				t.Fatal("expected invalid")
			}
			if !reflect.DeepEqual(missing, tc.missing) {
				t.Fatalf("missing=%v, want %v", missing, tc.missing)
			}
		})
	}
}
