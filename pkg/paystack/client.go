/**
 * @description
 * This package provides a client for interacting with the Paystack API. It
 * encapsulates the logic for making authenticated HTTP requests to Paystack's
 * transaction endpoints, handling request body construction, and parsing responses.
 *
 * @notes
 * - Gateway credentials are held per school, so the secret key is passed per call
 *   rather than fixed at construction.
 * - Amounts are in kobo, matching Paystack's wire format.
 */
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client is a client for the Paystack API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new Paystack API client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// InitializeParams is the payload for starting a hosted-checkout transaction.
type InitializeParams struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"` // in kobo
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// InitializeResponse is Paystack's response to a transaction initialization.
type InitializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// VerifyResponse is Paystack's response to a transaction verification.
type VerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID              int64  `json:"id"`
		Status          string `json:"status"` // e.g. "success", "failed", "abandoned"
		Reference       string `json:"reference"`
		Amount          int64  `json:"amount"` // in kobo
		GatewayResponse string `json:"gateway_response"`
		PaidAt          string `json:"paid_at"`
	} `json:"data"`
}

// APIError represents a non-2xx response from the Paystack API.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack api error (status %d): %s", e.StatusCode, e.Message)
}

// InitializeTransaction starts a hosted-checkout transaction and returns the
// authorization URL the payer should be redirected to.
func (c *Client) InitializeTransaction(ctx context.Context, secretKey string, params InitializeParams) (*InitializeResponse, error) {
	var resp InitializeResponse
	if err := c.do(ctx, secretKey, http.MethodPost, "/transaction/initialize", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("paystack rejected initialization: %s", resp.Message)
	}
	return &resp, nil
}

// VerifyTransaction fetches the authoritative status of a transaction by reference.
func (c *Client) VerifyTransaction(ctx context.Context, secretKey string, reference string) (*VerifyResponse, error) {
	var resp VerifyResponse
	if err := c.do(ctx, secretKey, http.MethodGet, "/transaction/verify/"+reference, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("paystack rejected verification: %s", resp.Message)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, secretKey, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal paystack request: %w", err)
		}
		body = bytes.NewBuffer(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+secretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute paystack request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read paystack response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(bodyBytes, apiErr); err != nil {
			log.Printf("level=warn component=paystack_client path=%s status=%d msg=\"non-2xx response (unparsable error body)\"", path, resp.StatusCode)
			return fmt.Errorf("paystack request failed (status %d)", resp.StatusCode)
		}
		log.Printf("level=warn component=paystack_client path=%s status=%d message=%q", path, resp.StatusCode, apiErr.Message)
		return apiErr
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode paystack response: %w", err)
	}
	return nil
}
