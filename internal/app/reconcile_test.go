package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/classpoint/fees-service/internal/domain"
	"github.com/classpoint/fees-service/internal/store"
	"github.com/classpoint/fees-service/pkg/flutterwave"
	"github.com/classpoint/fees-service/pkg/paystack"
)

type reconcileRepoStub struct {
	store.Repository

	stale   []domain.Payment
	fee     *domain.Fee
	profile *domain.PaymentProfile

	succeededRefs []string
	failedRefs    []string
}

func (s *reconcileRepoStub) FindStalePendingPayments(ctx context.Context, olderThan time.Time, limit int) ([]domain.Payment, error) {
	return s.stale, nil
}

func (s *reconcileRepoStub) GetFeeByID(ctx context.Context, feeID uuid.UUID) (*domain.Fee, error) {
	return s.fee, nil
}

func (s *reconcileRepoStub) GetPaymentProfileBySchool(ctx context.Context, schoolID uuid.UUID) (*domain.PaymentProfile, error) {
	return s.profile, nil
}

func (s *reconcileRepoStub) MarkPaymentSucceeded(ctx context.Context, reference string, gatewayTxID string, paidAt time.Time) (*domain.Payment, error) {
	s.succeededRefs = append(s.succeededRefs, reference)
	return &domain.Payment{Reference: reference, Status: domain.PaymentStatusSuccess}, nil
}

func (s *reconcileRepoStub) MarkPaymentFailed(ctx context.Context, reference string, reason string) (*domain.Payment, error) {
	s.failedRefs = append(s.failedRefs, reference)
	return &domain.Payment{Reference: reference, Status: domain.PaymentStatusFailed}, nil
}

type verifyPaystackStub struct {
	status  string
	gateway string
	txID    int64
}

func (s *verifyPaystackStub) InitializeTransaction(ctx context.Context, secretKey string, params paystack.InitializeParams) (*paystack.InitializeResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *verifyPaystackStub) VerifyTransaction(ctx context.Context, secretKey string, reference string) (*paystack.VerifyResponse, error) {
	resp := &paystack.VerifyResponse{Status: true}
	resp.Data.Status = s.status
	resp.Data.Reference = reference
	resp.Data.ID = s.txID
	resp.Data.GatewayResponse = s.gateway
	resp.Data.PaidAt = time.Now().UTC().Format(time.RFC3339)
	return resp, nil
}

type verifyFlutterwaveStub struct {
	status string
}

func (s *verifyFlutterwaveStub) InitiatePayment(ctx context.Context, secretKey string, params flutterwave.InitiateParams) (*flutterwave.InitiateResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *verifyFlutterwaveStub) VerifyByReference(ctx context.Context, secretKey string, txRef string) (*flutterwave.VerifyResponse, error) {
	resp := &flutterwave.VerifyResponse{Status: "success"}
	resp.Data.Status = s.status
	resp.Data.TxRef = txRef
	return resp, nil
}

func reconcileFixture(method string) *reconcileRepoStub {
	fee := payableFee(1_000_000)
	return &reconcileRepoStub{
		stale: []domain.Payment{{
			ID:        uuid.New(),
			FeeID:     fee.ID,
			Amount:    1_000_000,
			Method:    method,
			Status:    domain.PaymentStatusPending,
			Reference: "cpf_stale",
		}},
		fee:     fee,
		profile: fullProfile(),
	}
}

func TestReconcile_SettlesPaystackSuccess(t *testing.T) {
	repo := reconcileFixture(domain.PaymentMethodPaystack)
	svc := NewService(repo, &verifyPaystackStub{status: "success", txID: 42}, &verifyFlutterwaveStub{}, nil, "classpoint.events", "https://pay.classpoint.test")

	if err := svc.ReconcilePendingPayments(context.Background(), 30*time.Minute, 100); err != nil {
		t.Fatalf("expected reconciliation to succeed, got %v", err)
	}
	if len(repo.succeededRefs) != 1 || repo.succeededRefs[0] != "cpf_stale" {
		t.Fatalf("expected cpf_stale settled as success, got %v", repo.succeededRefs)
	}
}

func TestReconcile_MarksAbandonedPaystackFailed(t *testing.T) {
	repo := reconcileFixture(domain.PaymentMethodPaystack)
	svc := NewService(repo, &verifyPaystackStub{status: "abandoned", gateway: "checkout abandoned"}, &verifyFlutterwaveStub{}, nil, "classpoint.events", "https://pay.classpoint.test")

	if err := svc.ReconcilePendingPayments(context.Background(), 30*time.Minute, 100); err != nil {
		t.Fatalf("expected reconciliation to succeed, got %v", err)
	}
	if len(repo.failedRefs) != 1 {
		t.Fatalf("expected cpf_stale marked failed, got %v", repo.failedRefs)
	}
}

func TestReconcile_LeavesGatewayPendingAlone(t *testing.T) {
	repo := reconcileFixture(domain.PaymentMethodPaystack)
	svc := NewService(repo, &verifyPaystackStub{status: "pending"}, &verifyFlutterwaveStub{}, nil, "classpoint.events", "https://pay.classpoint.test")

	if err := svc.ReconcilePendingPayments(context.Background(), 30*time.Minute, 100); err != nil {
		t.Fatalf("expected reconciliation to succeed, got %v", err)
	}
	if len(repo.succeededRefs) != 0 || len(repo.failedRefs) != 0 {
		t.Fatal("payments still pending at the gateway must not be transitioned")
	}
}

func TestReconcile_SettlesFlutterwaveSuccessful(t *testing.T) {
	repo := reconcileFixture(domain.PaymentMethodFlutterwave)
	svc := NewService(repo, &verifyPaystackStub{}, &verifyFlutterwaveStub{status: "successful"}, nil, "classpoint.events", "https://pay.classpoint.test")

	if err := svc.ReconcilePendingPayments(context.Background(), 30*time.Minute, 100); err != nil {
		t.Fatalf("expected reconciliation to succeed, got %v", err)
	}
	if len(repo.succeededRefs) != 1 {
		t.Fatalf("expected flutterwave payment settled, got %v", repo.succeededRefs)
	}
}

func TestReconcile_SkipsBankTransfers(t *testing.T) {
	repo := reconcileFixture(domain.PaymentMethodBankTransfer)
	svc := NewService(repo, &verifyPaystackStub{status: "success"}, &verifyFlutterwaveStub{status: "successful"}, nil, "classpoint.events", "https://pay.classpoint.test")

	if err := svc.ReconcilePendingPayments(context.Background(), 30*time.Minute, 100); err != nil {
		t.Fatalf("expected reconciliation to succeed, got %v", err)
	}
	if len(repo.succeededRefs) != 0 && len(repo.failedRefs) != 0 {
		t.Fatal("bank transfers have no gateway to verify against")
	}
}
