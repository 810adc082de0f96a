/**
 * @description
 * This file implements webhook signature verification for the provider ingress.
 * The signature is an HMAC-SHA256 over the exact raw bytes of the request body;
 * re-serializing the body before hashing would change the byte sequence and is
 * therefore never done here.
 *
 * Two header conventions are supported, since the providers differ:
 * - a raw hex-encoded signature, compared case-insensitively;
 * - a prefixed form "sha256=<hex>", with the prefix stripped before comparison.
 * Comparison runs in constant time regardless of where the first mismatching
 * byte occurs.
 */

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// Sign computes the hex-encoded HMAC-SHA256 signature of body under secret.
// Exposed so tests and outbound simulations can produce valid headers.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the signature header authenticates body under secret.
// A failure here must short-circuit at the HTTP boundary: no canonical event is
// produced and the saga never sees the payload.
func Verify(body []byte, secret, header string) bool {
	if secret == "" {
		return false
	}

	candidate := strings.TrimSpace(header)
	if strings.HasPrefix(strings.ToLower(candidate), signaturePrefix) {
		candidate = candidate[len(signaturePrefix):]
	}
	if candidate == "" {
		return false
	}

	// Decoding the hex makes the comparison case-insensitive; hmac.Equal keeps
	// it constant-time.
	provided, err := hex.DecodeString(strings.ToLower(candidate))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
