/**
 * @description
 * This file contains the HTTP handlers for processing incoming webhooks from the
 * payment gateways. They are the entry point for asynchronous payment
 * confirmations.
 *
 * Key features:
 * - Security: Validates each gateway's signature scheme before trusting the
 *   payload. Paystack signs the raw body with HMAC-SHA512 using the school's
 *   secret key; Flutterwave sends the school's configured verification hash.
 *   Unverifiable webhooks are acknowledged with the same 200 whether the
 *   reference exists or not, so the response never reveals which payment
 *   references exist.
 * - Multi-tenancy: the signing secret belongs to the school that owns the
 *   payment, so the payment reference in the body is used to look the school
 *   up before the signature is checked.
 * - Event publishing: verified callbacks are normalized into payment status
 *   events and published to RabbitMQ; settlement happens in the consumer.
 */

package api

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/classpoint/fees-service/internal/app"
	"github.com/classpoint/fees-service/internal/domain"
	"github.com/classpoint/fees-service/internal/store"
	"github.com/classpoint/fees-service/pkg/rabbitmq"
)

// WebhookHandlers processes payment gateway callbacks.
type WebhookHandlers struct {
	service       *app.Service
	producer      rabbitmq.Publisher
	eventExchange string
}

// NewWebhookHandlers creates handlers for the gateway webhook endpoints.
func NewWebhookHandlers(service *app.Service, producer rabbitmq.Publisher, eventExchange string) *WebhookHandlers {
	return &WebhookHandlers{
		service:       service,
		producer:      producer,
		eventExchange: eventExchange,
	}
}

// maxWebhookBodyBytes caps how much of an unauthenticated webhook body is read
// before the signature is known good.
const maxWebhookBodyBytes = 1 << 20

// paystackWebhookPayload is the subset of Paystack's charge event we act on.
type paystackWebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID              int64  `json:"id"`
		Reference       string `json:"reference"`
		Status          string `json:"status"`
		Amount          int64  `json:"amount"`
		GatewayResponse string `json:"gateway_response"`
		PaidAt          string `json:"paid_at"`
	} `json:"data"`
}

// PaystackWebhookHandler handles POST /webhooks/paystack.
func (h *WebhookHandlers) PaystackWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		http.Error(w, "Cannot read request body", http.StatusBadRequest)
		return
	}

	var payload paystackWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.Data.Reference == "" {
		log.Printf("level=warn component=webhooks gateway=paystack msg=\"discarding unparsable webhook\" err=%v", err)
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	// The signing secret is per school, so the reference must be resolved first.
	_, profile, err := h.service.GatewayCredentialsForReference(r.Context(), payload.Data.Reference)
	if err != nil {
		h.handleUnknownReference(w, "paystack", payload.Data.Reference, err)
		return
	}

	if !validPaystackSignature(r.Header.Get("x-paystack-signature"), body, profile.PaystackSecretKey) {
		log.Printf("level=warn component=webhooks gateway=paystack msg=\"dropping webhook with invalid signature\" reference=%s", payload.Data.Reference)
		acknowledge(w)
		return
	}

	status := payload.Data.Status
	if payload.Event == "charge.success" {
		status = "success"
	}

	event := domain.PaymentStatusEvent{
		Reference:   payload.Data.Reference,
		Status:      status,
		Gateway:     domain.PaymentMethodPaystack,
		GatewayTxID: formatGatewayID(payload.Data.ID),
		Amount:      payload.Data.Amount,
		Reason:      payload.Data.GatewayResponse,
	}
	if parsed, perr := time.Parse(time.RFC3339, payload.Data.PaidAt); perr == nil {
		event.PaidAt = &parsed
	}

	h.publishStatusEvent(w, r, event)
}

// flutterwaveWebhookPayload is the subset of Flutterwave's charge event we act on.
type flutterwaveWebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID                int64   `json:"id"`
		TxRef             string  `json:"tx_ref"`
		Status            string  `json:"status"`
		Amount            float64 `json:"amount"`
		ProcessorResponse string  `json:"processor_response"`
	} `json:"data"`
}

// FlutterwaveWebhookHandler handles POST /webhooks/flutterwave.
func (h *WebhookHandlers) FlutterwaveWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		http.Error(w, "Cannot read request body", http.StatusBadRequest)
		return
	}

	var payload flutterwaveWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.Data.TxRef == "" {
		log.Printf("level=warn component=webhooks gateway=flutterwave msg=\"discarding unparsable webhook\" err=%v", err)
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	_, profile, err := h.service.GatewayCredentialsForReference(r.Context(), payload.Data.TxRef)
	if err != nil {
		h.handleUnknownReference(w, "flutterwave", payload.Data.TxRef, err)
		return
	}

	if !validFlutterwaveHash(r.Header.Get("verif-hash"), profile.FlutterwaveWebhookHash) {
		log.Printf("level=warn component=webhooks gateway=flutterwave msg=\"dropping webhook with invalid verification hash\" reference=%s", payload.Data.TxRef)
		acknowledge(w)
		return
	}

	event := domain.PaymentStatusEvent{
		Reference:   payload.Data.TxRef,
		Status:      payload.Data.Status,
		Gateway:     domain.PaymentMethodFlutterwave,
		GatewayTxID: formatGatewayID(payload.Data.ID),
		Amount:      int64(payload.Data.Amount * 100), // naira to kobo
		Reason:      payload.Data.ProcessorResponse,
	}

	h.publishStatusEvent(w, r, event)
}

// handleUnknownReference acknowledges webhooks whose reference cannot be
// resolved. The response is the same 200 regardless of why resolution failed,
// so unauthenticated callers learn nothing about which references exist;
// payments missed to a transient error here are settled by the reconciliation
// sweep.
func (h *WebhookHandlers) handleUnknownReference(w http.ResponseWriter, gateway, reference string, err error) {
	if errors.Is(err, store.ErrPaymentNotFound) || errors.Is(err, store.ErrProfileNotFound) || errors.Is(err, store.ErrFeeNotFound) {
		log.Printf("level=warn component=webhooks gateway=%s msg=\"ignoring webhook for unknown reference\" reference=%s", gateway, reference)
	} else {
		log.Printf("level=error component=webhooks gateway=%s msg=\"failed to resolve webhook reference\" reference=%s err=%v", gateway, reference, err)
	}
	acknowledge(w)
}

func acknowledge(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Webhook received"))
}

func (h *WebhookHandlers) publishStatusEvent(w http.ResponseWriter, r *http.Request, event domain.PaymentStatusEvent) {
	routingKey := "payment.status.failed"
	if event.Status == "success" || event.Status == "successful" || event.Status == "completed" {
		routingKey = "payment.status.success"
	}

	if err := h.producer.Publish(r.Context(), h.eventExchange, routingKey, event); err != nil {
		log.Printf("level=error component=webhooks msg=\"failed to publish status event\" reference=%s err=%v", event.Reference, err)
		http.Error(w, "Internal server error during event processing", http.StatusInternalServerError)
		return
	}

	log.Printf("level=info component=webhooks msg=\"published payment status event\" reference=%s gateway=%s routing_key=%s", event.Reference, event.Gateway, routingKey)
	acknowledge(w)
}

// validPaystackSignature checks the HMAC-SHA512 hex signature Paystack computes
// over the raw request body with the school's secret key.
func validPaystackSignature(signatureHeader string, body []byte, secretKey string) bool {
	if signatureHeader == "" || secretKey == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

// validFlutterwaveHash checks Flutterwave's verif-hash header against the
// school's configured webhook hash.
func validFlutterwaveHash(header, configured string) bool {
	if header == "" || configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(configured)) == 1
}

func formatGatewayID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
