/**
 * @description
 * This file defines the payment profile domain model. A payment profile is the
 * per-school configuration of gateway credentials, bank transfer details, and
 * enable flags that drive the payment-method selection flow.
 *
 * @notes
 * - Secret keys are never serialized to API clients; the `json:"-"` tags keep them
 *   out of every response and the masked summary type is what admin screens see.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentProfile holds a school's gateway credentials and bank details.
// One profile exists per school; only admin users may mutate it.
type PaymentProfile struct {
	ID                     uuid.UUID `json:"id"`
	SchoolID               uuid.UUID `json:"school_id"`
	PaystackEnabled        bool      `json:"paystack_enabled"`
	PaystackPublicKey      string    `json:"paystack_public_key"`
	PaystackSecretKey      string    `json:"-"`
	FlutterwaveEnabled     bool      `json:"flutterwave_enabled"`
	FlutterwavePublicKey   string    `json:"flutterwave_public_key"`
	FlutterwaveSecretKey   string    `json:"-"`
	FlutterwaveWebhookHash string    `json:"-"`
	BankTransferEnabled    bool      `json:"bank_transfer_enabled"`
	BankName               string    `json:"bank_name"`
	AccountName            string    `json:"account_name"`
	AccountNumber          string    `json:"account_number"`
	CashEnabled            bool      `json:"cash_enabled"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// BankDetails is the subset of profile fields surfaced to payers choosing the
// bank transfer method.
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}

// PaymentMethods describes the payment options enabled for a school, used to
// drive the payment-method selection UI.
type PaymentMethods struct {
	SchoolID    uuid.UUID    `json:"school_id"`
	Methods     []string     `json:"methods"`
	BankDetails *BankDetails `json:"bank_details,omitempty"`
}

// UpsertPaymentProfileParams carries the full profile payload for create-or-replace.
// Secret keys are accepted on write but never returned on read.
type UpsertPaymentProfileParams struct {
	PaystackEnabled        bool   `json:"paystack_enabled"`
	PaystackPublicKey      string `json:"paystack_public_key"`
	PaystackSecretKey      string `json:"paystack_secret_key"`
	FlutterwaveEnabled     bool   `json:"flutterwave_enabled"`
	FlutterwavePublicKey   string `json:"flutterwave_public_key"`
	FlutterwaveSecretKey   string `json:"flutterwave_secret_key"`
	FlutterwaveWebhookHash string `json:"flutterwave_webhook_hash"`
	BankTransferEnabled    bool   `json:"bank_transfer_enabled"`
	BankName               string `json:"bank_name"`
	AccountName            string `json:"account_name"`
	AccountNumber          string `json:"account_number"`
	CashEnabled            bool   `json:"cash_enabled"`
}

// TransferDetails packages the profile's bank fields for payer-facing responses.
func (p *PaymentProfile) TransferDetails() *BankDetails {
	return &BankDetails{
		BankName:      p.BankName,
		AccountName:   p.AccountName,
		AccountNumber: p.AccountNumber,
	}
}

// EnabledMethods derives the payment-method set from the profile's enable flags.
// Gateways missing their secret key are excluded even when flagged on.
func (p *PaymentProfile) EnabledMethods() []string {
	methods := make([]string, 0, 4)
	if p.PaystackEnabled && p.PaystackSecretKey != "" {
		methods = append(methods, PaymentMethodPaystack)
	}
	if p.FlutterwaveEnabled && p.FlutterwaveSecretKey != "" {
		methods = append(methods, PaymentMethodFlutterwave)
	}
	if p.BankTransferEnabled && p.AccountNumber != "" {
		methods = append(methods, PaymentMethodBankTransfer)
	}
	if p.CashEnabled {
		methods = append(methods, PaymentMethodCash)
	}
	return methods
}

// MethodEnabled reports whether the given payment method is usable for this school.
func (p *PaymentProfile) MethodEnabled(method string) bool {
	for _, m := range p.EnabledMethods() {
		if m == method {
			return true
		}
	}
	return false
}
