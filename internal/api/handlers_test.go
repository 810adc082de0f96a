package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/koboflow/onboarding-service/internal/webhook"
)

// recordingPublisher captures published messages.
type recordingPublisher struct {
	exchanges []string
	keys      []string
	bodies    []interface{}
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.exchanges = append(p.exchanges, exchange)
	p.keys = append(p.keys, routingKey)
	p.bodies = append(p.bodies, body)
	return nil
}

func (p *recordingPublisher) Close() {}

const testSecret = "whsec_test"

func newTestRouter(publisher *recordingPublisher) http.Handler {
	handlers := NewHandlers(nil, publisher, nil, map[string]string{
		webhook.ProviderMono:    testSecret,
		webhook.ProviderOnepipe: testSecret,
	})
	return Routes(handlers, "jwt-secret", []string{"*"})
}

func postWebhook(t *testing.T, router http.Handler, provider string, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/"+provider, bytes.NewBufferString(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsBadSignatureWithoutSideEffects(t *testing.T) {
	publisher := &recordingPublisher{}
	router := newTestRouter(publisher)

	body := `{"transaction_ref":"txn:6a1f9acb-0000-4000-8000-2e9f00000000","status":"failed"}`

	cases := map[string]string{
		"missing header":       "",
		"wrong hex":            "sha256=" + strings.Repeat("ab", 32),
		"garbage":              "sha256=nothex",
		"valid-for-other-body": "sha256=" + webhook.Sign([]byte("different"), testSecret),
	}
	for name, sig := range cases {
		rec := postWebhook(t, router, "mono", body, sig)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
	if len(publisher.keys) != 0 {
		t.Fatalf("rejected webhooks must not publish, got %v", publisher.keys)
	}
}

func TestWebhookUnknownProviderIs404(t *testing.T) {
	publisher := &recordingPublisher{}
	router := newTestRouter(publisher)

	rec := postWebhook(t, router, "paystack", `{}`, "sha256=00")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestWebhookPublishesCanonicalEvent(t *testing.T) {
	publisher := &recordingPublisher{}
	router := newTestRouter(publisher)

	body := `{"transaction_ref":"txn:6a1f9acb-0000-4000-8000-2e9f00000000","status":"successful"}`
	rec := postWebhook(t, router, "mono", body, webhook.Sign([]byte(body), testSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(publisher.keys) != 1 || publisher.keys[0] != "transfer.succeeded" {
		t.Fatalf("expected transfer.succeeded publish, got %v", publisher.keys)
	}
	if publisher.exchanges[0] != "onboarding_events" {
		t.Fatalf("expected event exchange, got %s", publisher.exchanges[0])
	}
}

func TestWebhookAcknowledgesButDropsUnroutableAndUnsupported(t *testing.T) {
	publisher := &recordingPublisher{}
	router := newTestRouter(publisher)

	// Unroutable: valid shape, mangled reference.
	body := `{"transaction_ref":"garbage","status":"successful"}`
	rec := postWebhook(t, router, "mono", body, webhook.Sign([]byte(body), testSecret))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "unroutable") {
		t.Fatalf("expected acknowledged unroutable, got %d %s", rec.Code, rec.Body.String())
	}

	// Unsupported: authenticated but unrecognized shape.
	body = `{"hello":"world"}`
	rec = postWebhook(t, router, "mono", body, webhook.Sign([]byte(body), testSecret))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ignored") {
		t.Fatalf("expected acknowledged ignored, got %d %s", rec.Code, rec.Body.String())
	}

	if len(publisher.keys) != 0 {
		t.Fatalf("nothing must be published, got %v", publisher.keys)
	}
}

func TestWebhookMapsIdentityEventsToValidationResults(t *testing.T) {
	publisher := &recordingPublisher{}
	router := newTestRouter(publisher)

	body := `{"event":"customer.kyc.approved","reference":"onb:6a1f9acb-0000-4000-8000-2e9f00000000"}`
	rec := postWebhook(t, router, "mono", body, webhook.Sign([]byte(body), testSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(publisher.keys) != 1 || publisher.keys[0] != "identity.validation.result" {
		t.Fatalf("expected validation result publish, got %v", publisher.keys)
	}
}

func TestCommandEndpointRequiresServiceJWT(t *testing.T) {
	router := newTestRouter(&recordingPublisher{})

	req := httptest.NewRequest(http.MethodPost, "/commands", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/commands", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestCommandEndpointValidatesBody(t *testing.T) {
	router := newTestRouter(&recordingPublisher{})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "channel-adapter",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte("jwt-secret"))
	if err != nil {
		t.Fatal(err)
	}

	// Authenticated but missing correlation id.
	req := httptest.NewRequest(http.MethodPost, "/commands", strings.NewReader(`{"intent":"signup"}`))
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing correlation id, got %d", rec.Code)
	}
}
