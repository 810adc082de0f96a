package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestBuildAndParseReferenceRoundTrip(t *testing.T) {
	id := uuid.New()

	for _, tag := range []string{ReferenceTagTransaction, ReferenceTagMandate, ReferenceTagOnboarding} {
		ref := BuildReference(tag, id)
		got := ParseReference(ref)
		if got != id {
			t.Fatalf("expected %s to round-trip through %q, got %s", id, ref, got)
		}
	}
}

func TestParseReferenceMalformedYieldsNil(t *testing.T) {
	tests := []struct {
		name      string
		reference string
	}{
		{name: "empty string", reference: ""},
		{name: "no colon", reference: "txn_4f2c0a6e"},
		{name: "non-uuid suffix", reference: "txn:not-a-uuid"},
		{name: "colon only", reference: ":"},
		{name: "trailing garbage", reference: "txn:4f2c0a6e-0000-0000-0000-000000000000z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseReference(tt.reference); got != uuid.Nil {
				t.Fatalf("expected nil uuid for %q, got %s", tt.reference, got)
			}
		})
	}
}

func TestParseReferenceOnlyFirstColonSplits(t *testing.T) {
	id := uuid.New()
	// A uuid never contains a colon, so anything after a second colon is garbage.
	if got := ParseReference("txn:" + id.String() + ":extra"); got != uuid.Nil {
		t.Fatalf("expected nil uuid, got %s", got)
	}
}
