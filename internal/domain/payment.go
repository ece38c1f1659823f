/**
 * @description
 * This file defines the payment domain models for the fees-service. A payment is a
 * recorded transaction against a fee by a payer, and moves from `pending` to a
 * terminal `success` or `failed` status via gateway confirmation or, for cash,
 * synchronously at creation.
 *
 * @notes
 * - Terminal statuses are immutable; replayed gateway events must never regress them.
 * - `Reference` is the service-generated identifier sent to the gateway and echoed
 *   back in webhooks; it is the join key for asynchronous settlement.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment method values. The set is fixed; unknown methods are rejected at the edge.
const (
	PaymentMethodPaystack     = "paystack"
	PaymentMethodFlutterwave  = "flutterwave"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCash         = "cash"
)

// Payment status values.
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Payment represents a transaction against a fee. This struct maps directly to
// the `payments` table in the database.
type Payment struct {
	ID            uuid.UUID  `json:"id"`
	FeeID         uuid.UUID  `json:"fee_id"`
	PayerID       uuid.UUID  `json:"payer_id"`
	Amount        int64      `json:"amount"` // in kobo
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	Reference     string     `json:"reference"`
	GatewayTxID   *string    `json:"gateway_tx_id,omitempty"`
	CheckoutURL   *string    `json:"checkout_url,omitempty"`
	IsInstallment bool       `json:"is_installment"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the payment has reached a final status.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}

// InitiatePaymentParams is the DTO for starting a payment against a fee.
// PayerEmail is forwarded to the gateway for hosted checkout.
type InitiatePaymentParams struct {
	FeeID         uuid.UUID `json:"fee_id"`
	Amount        int64     `json:"amount"` // in kobo
	Method        string    `json:"method"`
	IsInstallment bool      `json:"is_installment"`
	PayerEmail    string    `json:"payer_email"`
}

// CashPaymentParams is the DTO for recording an in-person cash payment. Cash
// payments complete synchronously and are final once recorded.
type CashPaymentParams struct {
	FeeID         uuid.UUID `json:"fee_id"`
	PayerID       uuid.UUID `json:"payer_id"`
	Amount        int64     `json:"amount"` // in kobo
	IsInstallment bool      `json:"is_installment"`
}

// PaymentInitiation is returned to the caller after a payment has been accepted.
// For hosted-checkout gateways CheckoutURL carries the redirect target; for bank
// transfers BankDetails carries the static instructions instead.
type PaymentInitiation struct {
	Payment     *Payment     `json:"payment"`
	CheckoutURL string       `json:"checkout_url,omitempty"`
	BankDetails *BankDetails `json:"bank_details,omitempty"`
	Message     string       `json:"message"`
}

// ValidPaymentMethod reports whether m is one of the recognized payment methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodPaystack, PaymentMethodFlutterwave, PaymentMethodBankTransfer, PaymentMethodCash:
		return true
	}
	return false
}

// PaymentStats aggregates payment counts and amounts. Amounts are in kobo and
// sums cover successful payments only unless keyed by status.
type PaymentStats struct {
	TotalPayments  int64            `json:"total_payments"`
	TotalCollected int64            `json:"total_collected"`
	CountByStatus  map[string]int64 `json:"count_by_status"`
	AmountByStatus map[string]int64 `json:"amount_by_status"`
	AmountByMethod map[string]int64 `json:"amount_by_method"`
}
