/**
 * @description
 * This package provides the OnePipe implementation of the provider capability
 * set. OnePipe wraps every operation in a generic transact envelope, so the
 * request shapes differ from Mono's while the capability surface stays
 * uniform. Every outbound call runs under the shared resilience policy.
 */

package onepipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/koboflow/onboarding-service/pkg/providers"
	"github.com/koboflow/onboarding-service/pkg/resilience"
)

// ProviderName is the literal identifying string for this provider.
const ProviderName = "onepipe"

// Client is a client for the OnePipe transact API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	policy     *resilience.Policy
}

// NewClient creates a new OnePipe API client.
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

// transactEnvelope is OnePipe's generic request wrapper: a request type plus
// auth/customer/transaction sections.
type transactEnvelope struct {
	RequestType string `json:"request_type"`
	Auth        struct {
		Secure   string `json:"secure"`
		AuthType string `json:"auth_provider"`
	} `json:"auth"`
	Customer struct {
		CustomerRef string `json:"customer_ref"`
		Firstname   string `json:"firstname"`
		Surname     string `json:"surname"`
		MobileNo    string `json:"mobile_no"`
	} `json:"customer"`
	Transaction struct {
		TransactionRef string `json:"transaction_ref"`
		Amount         int64  `json:"amount"`
		Narration      string `json:"narration"`
		Account        string `json:"account_number,omitempty"`
		Meta           struct {
			Nin string `json:"nin,omitempty"`
			Bvn string `json:"bvn,omitempty"`
		} `json:"meta"`
	} `json:"transaction"`
}

type transactResponse struct {
	Status string `json:"status"`
	Data   struct {
		ProviderResponse struct {
			Reference string `json:"reference"`
			MandateID string `json:"mandate_id"`
		} `json:"provider_response"`
	} `json:"data"`
}

// CreateCustomer opens a OnePipe customer record and returns its reference.
func (c *Client) CreateCustomer(ctx context.Context, profile providers.CustomerProfile) (string, error) {
	env := c.newEnvelope("open account", profile.Reference)
	first, surname := splitName(profile.FullName)
	env.Customer.CustomerRef = profile.Reference
	env.Customer.Firstname = first
	env.Customer.Surname = surname
	env.Customer.MobileNo = profile.PhoneNumber
	env.Transaction.Meta.Nin = profile.Nin
	env.Transaction.Meta.Bvn = profile.Bvn

	resp, err := c.transact(ctx, "onepipe create customer", env)
	if err != nil {
		return "", err
	}
	return resp.Data.ProviderResponse.Reference, nil
}

// SubmitKYC triggers identity verification; the result arrives via webhook.
func (c *Client) SubmitKYC(ctx context.Context, customerID string, profile providers.CustomerProfile) error {
	env := c.newEnvelope("lookup account min", profile.Reference)
	env.Customer.CustomerRef = customerID
	env.Transaction.Meta.Nin = profile.Nin
	env.Transaction.Meta.Bvn = profile.Bvn

	_, err := c.transact(ctx, "onepipe submit kyc", env)
	return err
}

// CreateMandate sets up a direct-debit mandate and returns OnePipe's id.
func (c *Client) CreateMandate(ctx context.Context, req providers.MandateRequest) (string, error) {
	env := c.newEnvelope("collect", req.Reference)
	env.Customer.CustomerRef = req.CustomerID
	env.Transaction.Amount = req.MaxAmount
	env.Transaction.Account = req.DestinationAccount
	env.Transaction.Narration = "direct debit mandate"

	resp, err := c.transact(ctx, "onepipe create mandate", env)
	if err != nil {
		return "", err
	}
	return resp.Data.ProviderResponse.MandateID, nil
}

// InitiateTransfer starts an outbound transfer and returns the provider ref.
func (c *Client) InitiateTransfer(ctx context.Context, req providers.TransferRequest) (string, error) {
	env := c.newEnvelope("disburse", req.Reference)
	env.Customer.CustomerRef = req.CustomerID
	env.Transaction.Amount = req.Amount
	env.Transaction.Account = req.DestinationAccount
	env.Transaction.Narration = req.Narration

	resp, err := c.transact(ctx, "onepipe initiate transfer", env)
	if err != nil {
		return "", err
	}
	return resp.Data.ProviderResponse.Reference, nil
}

func (c *Client) newEnvelope(requestType, transactionRef string) *transactEnvelope {
	env := &transactEnvelope{RequestType: requestType}
	env.Auth.AuthType = "KoboflowDebit"
	env.Transaction.TransactionRef = transactionRef
	return env
}

// transact runs one envelope exchange under the resilience policy.
func (c *Client) transact(ctx context.Context, op string, env *transactEnvelope) (*transactResponse, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal transact envelope: %w", err)
	}

	var out transactResponse
	err = c.policy.Do(ctx, op, func(attemptCtx context.Context) error {
		httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+"/v2/transact", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create http request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("send request to OnePipe: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(resp.Body)
			return &resilience.StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
		}

		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode transact response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func splitName(fullName string) (string, string) {
	first, surname := fullName, fullName
	for i := 0; i < len(fullName); i++ {
		if fullName[i] == ' ' {
			first, surname = fullName[:i], fullName[i+1:]
			break
		}
	}
	return first, surname
}
