/**
 * @description
 * This package provides a client for interacting with the Flutterwave v3 API. It
 * covers the hosted-payment initiation and verification endpoints used by the
 * fees-service.
 *
 * @notes
 * - Flutterwave expresses amounts in major currency units (naira), unlike the rest
 *   of the service which works in kobo; callers convert at the boundary.
 * - Gateway credentials are held per school, so the secret key is passed per call.
 */
package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// Client is a client for the Flutterwave API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new Flutterwave API client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.flutterwave.com/v3"
	}
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Customer identifies the payer on the hosted checkout page.
type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// InitiateParams is the payload for creating a hosted payment.
type InitiateParams struct {
	TxRef       string   `json:"tx_ref"`
	Amount      float64  `json:"amount"` // in naira
	Currency    string   `json:"currency"`
	RedirectURL string   `json:"redirect_url,omitempty"`
	Customer    Customer `json:"customer"`
}

// InitiateResponse is Flutterwave's response to a payment initiation.
type InitiateResponse struct {
	Status  string `json:"status"` // "success" or "error"
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

// VerifyResponse is Flutterwave's response to a transaction verification.
type VerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID       int64   `json:"id"`
		TxRef    string  `json:"tx_ref"`
		Status   string  `json:"status"` // e.g. "successful", "failed"
		Amount   float64 `json:"amount"` // in naira
		Currency string  `json:"currency"`
	} `json:"data"`
}

// APIError represents a non-2xx response from the Flutterwave API.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("flutterwave api error (status %d): %s", e.StatusCode, e.Message)
}

// InitiatePayment creates a hosted payment and returns the checkout link.
func (c *Client) InitiatePayment(ctx context.Context, secretKey string, params InitiateParams) (*InitiateResponse, error) {
	if params.Currency == "" {
		params.Currency = "NGN"
	}
	var resp InitiateResponse
	if err := c.do(ctx, secretKey, http.MethodPost, "/payments", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("flutterwave rejected initiation: %s", resp.Message)
	}
	return &resp, nil
}

// VerifyByReference fetches the authoritative status of a payment by its tx_ref.
func (c *Client) VerifyByReference(ctx context.Context, secretKey string, txRef string) (*VerifyResponse, error) {
	var resp VerifyResponse
	path := "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(txRef)
	if err := c.do(ctx, secretKey, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("flutterwave rejected verification: %s", resp.Message)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, secretKey, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal flutterwave request: %w", err)
		}
		body = bytes.NewBuffer(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create flutterwave request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+secretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute flutterwave request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read flutterwave response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(bodyBytes, apiErr); err != nil {
			log.Printf("level=warn component=flutterwave_client path=%s status=%d msg=\"non-2xx response (unparsable error body)\"", path, resp.StatusCode)
			return fmt.Errorf("flutterwave request failed (status %d)", resp.StatusCode)
		}
		log.Printf("level=warn component=flutterwave_client path=%s status=%d message=%q", path, resp.StatusCode, apiErr.Message)
		return apiErr
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode flutterwave response: %w", err)
	}
	return nil
}
