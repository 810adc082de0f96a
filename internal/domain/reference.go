/**
 * @description
 * This file defines the correlation reference convention shared by every other
 * component of the service. A provider-facing reference string encodes the
 * domain correlation id as "<tag>:<uuid>" (e.g. "txn:<uuid>", "mandate:<uuid>"),
 * so that asynchronous webhook notifications can be routed back to the workflow
 * instance that initiated the operation.
 *
 * @dependencies
 * - strings: Standard Go library.
 * - github.com/google/uuid: UUID parsing and generation.
 */

package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Reference tags used when building provider-facing reference strings.
const (
	ReferenceTagTransaction = "txn"
	ReferenceTagMandate     = "mandate"
	ReferenceTagOnboarding  = "onb"
)

// BuildReference encodes a correlation id into a provider-facing reference string.
func BuildReference(tag string, id uuid.UUID) string {
	return tag + ":" + id.String()
}

// ParseReference recovers the correlation id embedded in a provider reference.
// The substring after the first colon is parsed as a UUID. Any malformed input
// (no colon, non-UUID suffix) yields uuid.Nil instead of an error, so the
// ingestion path degrades into an unroutable event rather than crashing. The
// caller is expected to count and log nil results; they represent data loss.
func ParseReference(reference string) uuid.UUID {
	_, suffix, found := strings.Cut(strings.TrimSpace(reference), ":")
	if !found {
		return uuid.Nil
	}
	id, err := uuid.Parse(suffix)
	if err != nil {
		return uuid.Nil
	}
	return id
}
