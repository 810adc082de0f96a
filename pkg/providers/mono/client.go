/**
 * @description
 * This package provides the Mono implementation of the provider capability
 * set. It encapsulates the logic for making authenticated HTTP requests to
 * Mono's direct-debit endpoints, handling request body construction, and
 * parsing responses. Every outbound call runs under the shared resilience
 * policy: bounded retries with exponential backoff and a per-attempt timeout.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http: Standard Go libraries.
 * - pkg/providers: the capability contract.
 * - pkg/resilience: retry/backoff/timeout policy.
 */

package mono

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/koboflow/onboarding-service/pkg/providers"
	"github.com/koboflow/onboarding-service/pkg/resilience"
)

// ProviderName is the literal identifying string for this provider.
const ProviderName = "mono"

// Client is a client for the Mono direct-debit API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	policy     *resilience.Policy
}

// NewClient creates a new Mono API client. The HTTP client carries no timeout
// of its own; each attempt is bounded by the resilience policy's context.
func NewClient(baseURL, apiKey string, policy *resilience.Policy) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		policy:     policy,
	}
}

// Name returns the provider's identifying string.
func (c *Client) Name() string { return ProviderName }

type customerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Nin       string `json:"nin"`
	Bvn       string `json:"bvn"`
	Phone     string `json:"phone"`
	Reference string `json:"reference"`
}

type customerResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type kycRequest struct {
	Nin       string `json:"nin"`
	Bvn       string `json:"bvn"`
	Reference string `json:"reference"`
}

type mandateRequest struct {
	Customer           string `json:"customer"`
	Amount             int64  `json:"amount"`
	Reference          string `json:"reference"`
	DestinationAccount string `json:"account_number"`
	EndDate            string `json:"end_date"`
	Type               string `json:"type"`
}

type mandateResponse struct {
	Data struct {
		MandateID string `json:"mandate_id"`
	} `json:"data"`
}

type transferRequest struct {
	Customer           string `json:"customer"`
	Amount             int64  `json:"amount"`
	Reference          string `json:"reference"`
	DestinationAccount string `json:"account_number"`
	Narration          string `json:"narration"`
}

type transferResponse struct {
	Data struct {
		TransactionRef string `json:"transaction_ref"`
	} `json:"data"`
}

// CreateCustomer registers the user with Mono and returns the provider
// customer id.
func (c *Client) CreateCustomer(ctx context.Context, profile providers.CustomerProfile) (string, error) {
	first, last := splitName(profile.FullName)
	req := customerRequest{
		FirstName: first,
		LastName:  last,
		Nin:       profile.Nin,
		Bvn:       profile.Bvn,
		Phone:     profile.PhoneNumber,
		Reference: profile.Reference,
	}

	var resp customerResponse
	if err := c.do(ctx, "mono create customer", http.MethodPost, "/v2/customers", req, &resp); err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

// SubmitKYC triggers Mono's identity verification for an existing customer.
// The outcome arrives asynchronously via webhook.
func (c *Client) SubmitKYC(ctx context.Context, customerID string, profile providers.CustomerProfile) error {
	req := kycRequest{Nin: profile.Nin, Bvn: profile.Bvn, Reference: profile.Reference}
	path := fmt.Sprintf("/v2/customers/%s/verification", customerID)
	return c.do(ctx, "mono submit kyc", http.MethodPost, path, req, nil)
}

// CreateMandate creates a direct-debit mandate and returns Mono's mandate id.
// Approval arrives asynchronously via webhook.
func (c *Client) CreateMandate(ctx context.Context, req providers.MandateRequest) (string, error) {
	payload := mandateRequest{
		Customer:           req.CustomerID,
		Amount:             req.MaxAmount,
		Reference:          req.Reference,
		DestinationAccount: req.DestinationAccount,
		EndDate:            req.ExpiresAt.Format(time.DateOnly),
		Type:               "recurring-debit",
	}

	var resp mandateResponse
	if err := c.do(ctx, "mono create mandate", http.MethodPost, "/v2/payments/mandates", payload, &resp); err != nil {
		return "", err
	}
	return resp.Data.MandateID, nil
}

// InitiateTransfer starts an outbound transfer and returns Mono's transaction
// reference. The terminal outcome arrives asynchronously via webhook.
func (c *Client) InitiateTransfer(ctx context.Context, req providers.TransferRequest) (string, error) {
	payload := transferRequest{
		Customer:           req.CustomerID,
		Amount:             req.Amount,
		Reference:          req.Reference,
		DestinationAccount: req.DestinationAccount,
		Narration:          req.Narration,
	}

	var resp transferResponse
	if err := c.do(ctx, "mono initiate transfer", http.MethodPost, "/v2/payments/initiate", payload, &resp); err != nil {
		return "", err
	}
	return resp.Data.TransactionRef, nil
}

// do runs one JSON request/response exchange under the resilience policy.
func (c *Client) do(ctx context.Context, op, method, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	return c.policy.Do(ctx, op, func(attemptCtx context.Context) error {
		httpReq, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create http request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("mono-sec-key", c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("send request to Mono: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			raw, _ := io.ReadAll(resp.Body)
			return &resilience.StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
		}

		if respBody == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("decode successful response: %w", err)
		}
		return nil
	})
}

// splitName divides a collected full name into the first/last pair Mono
// expects. A single token becomes both fields.
func splitName(fullName string) (string, string) {
	first, last := fullName, fullName
	for i := 0; i < len(fullName); i++ {
		if fullName[i] == ' ' {
			first, last = fullName[:i], fullName[i+1:]
			break
		}
	}
	return first, last
}
