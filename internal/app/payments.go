/**
 * @description
 * Payment flows for the fees-service. Initiation routes a validated payment to
 * the school's configured channel: Paystack and Flutterwave produce a hosted
 * checkout link, bank transfer returns the school's account details, and cash
 * is recorded synchronously by school staff.
 *
 * Gateway payments are created as pending rows before the gateway is called,
 * so a webhook for the reference always finds a row to settle. Settlement
 * itself happens asynchronously in the status consumer.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/classpoint/fees-service/internal/domain"
	"github.com/classpoint/fees-service/pkg/flutterwave"
	"github.com/classpoint/fees-service/pkg/paystack"
)

// newPaymentReference generates a unique reference carried through the gateway
// round-trip and matched against webhook events.
func newPaymentReference() string {
	return "cpf_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// validatePaymentTarget loads the fee and checks that the requested amount can
// be applied to it: the fee must be payable and the amount must not exceed what
// is still outstanding.
func (s *Service) validatePaymentTarget(ctx context.Context, feeID uuid.UUID, amount int64) (*domain.Fee, error) {
	fee, err := s.repo.GetFeeByID(ctx, feeID)
	if err != nil {
		return nil, err
	}
	if !fee.IsPayable() {
		return nil, ErrFeeNotPayable
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	settled, err := s.repo.ListSuccessfulPaymentsByFee(ctx, feeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settled payments: %w", err)
	}
	if domain.IsInstallmentComplete(fee.Amount, settled) {
		return nil, ErrFeeFullyPaid
	}
	if amount > domain.OutstandingAmount(fee.Amount, settled) {
		return nil, ErrPaymentExceedsOutstanding
	}
	return fee, nil
}

// InitiatePayment starts a payment against a fee using one of the school's
// enabled channels. Gateway methods return a checkout URL; bank transfer
// returns the school's account details with the payment held pending until
// staff confirm receipt.
func (s *Service) InitiatePayment(ctx context.Context, payerID uuid.UUID, params domain.InitiatePaymentParams) (*domain.PaymentInitiation, error) {
	method := strings.ToLower(strings.TrimSpace(params.Method))
	if !domain.ValidPaymentMethod(method) {
		return nil, ErrUnknownPaymentMethod
	}
	if method == domain.PaymentMethodCash {
		return nil, ErrCashNotCheckout
	}

	fee, err := s.validatePaymentTarget(ctx, params.FeeID, params.Amount)
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.GetPaymentProfileBySchool(ctx, fee.SchoolID)
	if err != nil {
		return nil, err
	}
	if !profile.MethodEnabled(method) {
		return nil, ErrPaymentMethodDisabled
	}

	payment := &domain.Payment{
		ID:            uuid.New(),
		FeeID:         fee.ID,
		PayerID:       payerID,
		Amount:        params.Amount,
		Method:        method,
		Status:        domain.PaymentStatusPending,
		Reference:     newPaymentReference(),
		IsInstallment: params.IsInstallment,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment record: %w", err)
	}

	switch method {
	case domain.PaymentMethodPaystack:
		return s.initiatePaystack(ctx, payment, profile, params.PayerEmail)
	case domain.PaymentMethodFlutterwave:
		return s.initiateFlutterwave(ctx, payment, profile, params.PayerEmail)
	case domain.PaymentMethodBankTransfer:
		return &domain.PaymentInitiation{
			Payment:     payment,
			BankDetails: profile.TransferDetails(),
			Message: fmt.Sprintf("Transfer %s to the account below and quote reference %s. The payment will be confirmed by the school.",
				domain.FormatAmount(payment.Amount), payment.Reference),
		}, nil
	default:
		return nil, ErrUnknownPaymentMethod
	}
}

func (s *Service) initiatePaystack(ctx context.Context, payment *domain.Payment, profile *domain.PaymentProfile, payerEmail string) (*domain.PaymentInitiation, error) {
	payerEmail = strings.TrimSpace(payerEmail)
	if payerEmail == "" {
		return nil, s.failInitiation(ctx, payment, ErrMissingPayerEmail, "payer email missing")
	}

	resp, err := s.paystackGW.InitializeTransaction(ctx, profile.PaystackSecretKey, paystack.InitializeParams{
		Email:       payerEmail,
		Amount:      payment.Amount,
		Reference:   payment.Reference,
		CallbackURL: s.callbackBaseURL + "/payments/callback",
	})
	if err != nil {
		return nil, s.failInitiation(ctx, payment, fmt.Errorf("paystack initialization failed: %w", err), "gateway initialization failed")
	}

	if err := s.repo.SetPaymentCheckoutURL(ctx, payment.Reference, resp.Data.AuthorizationURL); err != nil {
		log.Printf("level=warn component=payments msg=\"failed to store checkout url\" reference=%s error=%q", payment.Reference, err)
	}
	payment.CheckoutURL = &resp.Data.AuthorizationURL

	return &domain.PaymentInitiation{
		Payment:     payment,
		CheckoutURL: resp.Data.AuthorizationURL,
		Message:     "Complete the payment on the Paystack checkout page.",
	}, nil
}

func (s *Service) initiateFlutterwave(ctx context.Context, payment *domain.Payment, profile *domain.PaymentProfile, payerEmail string) (*domain.PaymentInitiation, error) {
	payerEmail = strings.TrimSpace(payerEmail)
	if payerEmail == "" {
		return nil, s.failInitiation(ctx, payment, ErrMissingPayerEmail, "payer email missing")
	}

	resp, err := s.flutterwaveGW.InitiatePayment(ctx, profile.FlutterwaveSecretKey, flutterwave.InitiateParams{
		TxRef:       payment.Reference,
		Amount:      float64(payment.Amount) / 100, // Flutterwave expects major units (Naira).
		Currency:    "NGN",
		RedirectURL: s.callbackBaseURL + "/payments/callback",
		Customer:    flutterwave.Customer{Email: payerEmail},
	})
	if err != nil {
		return nil, s.failInitiation(ctx, payment, fmt.Errorf("flutterwave initiation failed: %w", err), "gateway initiation failed")
	}

	if err := s.repo.SetPaymentCheckoutURL(ctx, payment.Reference, resp.Data.Link); err != nil {
		log.Printf("level=warn component=payments msg=\"failed to store checkout url\" reference=%s error=%q", payment.Reference, err)
	}
	payment.CheckoutURL = &resp.Data.Link

	return &domain.PaymentInitiation{
		Payment:     payment,
		CheckoutURL: resp.Data.Link,
		Message:     "Complete the payment on the Flutterwave checkout page.",
	}, nil
}

// failInitiation marks the just-created pending payment failed when checkout
// setup could not complete, then returns the original cause.
func (s *Service) failInitiation(ctx context.Context, payment *domain.Payment, cause error, reason string) error {
	if _, err := s.repo.MarkPaymentFailed(ctx, payment.Reference, reason); err != nil {
		log.Printf("level=error component=payments msg=\"failed to mark aborted initiation\" reference=%s error=%q", payment.Reference, err)
	}
	return cause
}

// ProcessCashPayment records a cash payment received by school staff. Cash is
// settled synchronously: there is no gateway to wait on.
func (s *Service) ProcessCashPayment(ctx context.Context, params domain.CashPaymentParams) (*domain.Payment, error) {
	fee, err := s.validatePaymentTarget(ctx, params.FeeID, params.Amount)
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.GetPaymentProfileBySchool(ctx, fee.SchoolID)
	if err != nil {
		return nil, err
	}
	if !profile.MethodEnabled(domain.PaymentMethodCash) {
		return nil, ErrPaymentMethodDisabled
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:            uuid.New(),
		FeeID:         fee.ID,
		PayerID:       params.PayerID,
		Amount:        params.Amount,
		Method:        domain.PaymentMethodCash,
		Status:        domain.PaymentStatusSuccess,
		Reference:     newPaymentReference(),
		IsInstallment: params.IsInstallment,
		PaidAt:        &now,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record cash payment: %w", err)
	}
	return payment, nil
}

// ConfirmBankTransfer settles a pending bank-transfer payment once school staff
// verify the funds arrived in the school's account. Gateway payments settle
// through webhooks and the reconciliation sweep, never by hand.
func (s *Service) ConfirmBankTransfer(ctx context.Context, reference string) (*domain.Payment, error) {
	payment, err := s.repo.GetPaymentByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment.Method != domain.PaymentMethodBankTransfer {
		return nil, ErrNotBankTransfer
	}
	return s.repo.MarkPaymentSucceeded(ctx, reference, "", time.Now().UTC())
}

// GetPayment retrieves a payment by id, used by clients polling checkout status.
func (s *Service) GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	return s.repo.GetPaymentByID(ctx, paymentID)
}

// GetPaymentByReference retrieves a payment by its gateway reference.
func (s *Service) GetPaymentByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	return s.repo.GetPaymentByReference(ctx, reference)
}

// ListFeePayments retrieves all payments recorded against a fee.
func (s *Service) ListFeePayments(ctx context.Context, feeID uuid.UUID) ([]domain.Payment, error) {
	return s.repo.ListPaymentsByFee(ctx, feeID)
}

// ListPayerPayments retrieves a payer's payment history, newest first.
func (s *Service) ListPayerPayments(ctx context.Context, payerID uuid.UUID, limit, offset int) ([]domain.Payment, error) {
	return s.repo.ListPaymentsByPayer(ctx, payerID, limit, offset)
}

// OutstandingBalance reports how much of a fee remains unpaid after settled payments.
func (s *Service) OutstandingBalance(ctx context.Context, feeID uuid.UUID) (int64, error) {
	fee, err := s.repo.GetFeeByID(ctx, feeID)
	if err != nil {
		return 0, err
	}
	settled, err := s.repo.ListSuccessfulPaymentsByFee(ctx, feeID)
	if err != nil {
		return 0, err
	}
	return domain.OutstandingAmount(fee.Amount, settled), nil
}

// AvailablePaymentMethods reports the channels a school has enabled, with bank
// details included when bank transfer is among them.
func (s *Service) AvailablePaymentMethods(ctx context.Context, schoolID uuid.UUID) (*domain.PaymentMethods, error) {
	profile, err := s.repo.GetPaymentProfileBySchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	methods := &domain.PaymentMethods{SchoolID: schoolID, Methods: profile.EnabledMethods()}
	for _, m := range methods.Methods {
		if m == domain.PaymentMethodBankTransfer {
			methods.BankDetails = profile.TransferDetails()
			break
		}
	}
	return methods, nil
}

// GetPaymentProfile retrieves a school's payment profile.
func (s *Service) GetPaymentProfile(ctx context.Context, schoolID uuid.UUID) (*domain.PaymentProfile, error) {
	return s.repo.GetPaymentProfileBySchool(ctx, schoolID)
}

// UpsertPaymentProfile creates or updates a school's payment profile.
func (s *Service) UpsertPaymentProfile(ctx context.Context, schoolID uuid.UUID, params domain.UpsertPaymentProfileParams) (*domain.PaymentProfile, error) {
	return s.repo.UpsertPaymentProfile(ctx, schoolID, params)
}

// GatewayCredentialsForReference resolves the payment behind a gateway webhook
// reference together with its school's payment profile, so the caller can
// verify the webhook signature with the school's own secret.
func (s *Service) GatewayCredentialsForReference(ctx context.Context, reference string) (*domain.Payment, *domain.PaymentProfile, error) {
	payment, err := s.repo.GetPaymentByReference(ctx, reference)
	if err != nil {
		return nil, nil, err
	}
	fee, err := s.repo.GetFeeByID(ctx, payment.FeeID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.repo.GetPaymentProfileBySchool(ctx, fee.SchoolID)
	if err != nil {
		return nil, nil, err
	}
	return payment, profile, nil
}
