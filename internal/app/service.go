/**
 * @description
 * This file contains the core business logic for the fees-service. The `Service`
 * struct orchestrates the fee lifecycle (create, update, approve, reject, delete)
 * and coordinates between the database repository, the payment gateway clients,
 * and the message broker.
 *
 * Key features:
 * - Fees are payable only when both active and approved; every payment path
 *   checks this before touching a gateway.
 * - Rejection is persisted with the reviewer's reason, keeping the approval
 *   queue and the audit trail consistent.
 * - Fees referenced by payments are deactivated instead of deleted.
 *
 * @dependencies
 * - context, errors, fmt, log, strings, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/paystack, pkg/flutterwave, pkg/rabbitmq: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/classpoint/fees-service/internal/domain"
	"github.com/classpoint/fees-service/internal/store"
	"github.com/classpoint/fees-service/pkg/flutterwave"
	"github.com/classpoint/fees-service/pkg/paystack"
	"github.com/classpoint/fees-service/pkg/rabbitmq"
)

var (
	ErrInvalidFeeName            = errors.New("fee name is required")
	ErrInvalidAmount             = errors.New("amount must be greater than zero")
	ErrInvalidFeeType            = errors.New("unrecognized fee type")
	ErrInvalidInstallments       = errors.New("installment count must be at least 1")
	ErrRejectionReasonRequired   = errors.New("a rejection reason is required")
	ErrFeeNotPayable             = errors.New("fee is not open for payment: it must be active and approved")
	ErrFeeFullyPaid              = errors.New("fee has already been fully paid")
	ErrPaymentExceedsOutstanding = errors.New("payment amount exceeds the fee's outstanding balance")
	ErrUnknownPaymentMethod      = errors.New("unrecognized payment method")
	ErrPaymentMethodDisabled     = errors.New("payment method is not enabled for this school")
	ErrMissingPayerEmail         = errors.New("payer email is required for gateway checkout")
	ErrCashNotCheckout           = errors.New("cash payments are recorded via the cash endpoint")
	ErrNotBankTransfer           = errors.New("only bank transfer payments are confirmed manually")
)

// PaystackGateway is the subset of the Paystack client used by the service.
type PaystackGateway interface {
	InitializeTransaction(ctx context.Context, secretKey string, params paystack.InitializeParams) (*paystack.InitializeResponse, error)
	VerifyTransaction(ctx context.Context, secretKey string, reference string) (*paystack.VerifyResponse, error)
}

// FlutterwaveGateway is the subset of the Flutterwave client used by the service.
type FlutterwaveGateway interface {
	InitiatePayment(ctx context.Context, secretKey string, params flutterwave.InitiateParams) (*flutterwave.InitiateResponse, error)
	VerifyByReference(ctx context.Context, secretKey string, txRef string) (*flutterwave.VerifyResponse, error)
}

// Service provides the core business logic for fees and payments.
type Service struct {
	repo            store.Repository
	paystackGW      PaystackGateway
	flutterwaveGW   FlutterwaveGateway
	eventProducer   rabbitmq.Publisher
	eventExchange   string
	callbackBaseURL string
	statsCache      *redis.Client
	statsCacheTTL   time.Duration
}

// NewService creates a new fees service instance.
func NewService(
	repo store.Repository,
	paystackGW PaystackGateway,
	flutterwaveGW FlutterwaveGateway,
	producer rabbitmq.Publisher,
	eventExchange string,
	callbackBaseURL string,
) *Service {
	return &Service{
		repo:            repo,
		paystackGW:      paystackGW,
		flutterwaveGW:   flutterwaveGW,
		eventProducer:   producer,
		eventExchange:   eventExchange,
		callbackBaseURL: strings.TrimRight(callbackBaseURL, "/"),
	}
}

// SetStatsCache wires an optional Redis client used to cache statistics queries.
// Without it every stats request hits the database directly.
func (s *Service) SetStatsCache(client *redis.Client, ttl time.Duration) {
	s.statsCache = client
	if ttl <= 0 {
		ttl = time.Minute
	}
	s.statsCacheTTL = ttl
}

// CreateFee validates and stores a new fee. Fees start unapproved unless the
// caller is authorized to pre-approve, in which case approval is stamped at creation.
func (s *Service) CreateFee(ctx context.Context, createdBy uuid.UUID, params domain.CreateFeeParams) (*domain.Fee, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Type = strings.ToLower(strings.TrimSpace(params.Type))

	if params.Name == "" {
		return nil, ErrInvalidFeeName
	}
	if params.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if params.Type == "" {
		params.Type = domain.FeeTypeOther
	}
	if !domain.ValidFeeType(params.Type) {
		return nil, ErrInvalidFeeType
	}
	if params.Installments != nil && *params.Installments < 1 {
		return nil, ErrInvalidInstallments
	}

	fee := &domain.Fee{
		ID:           uuid.New(),
		SchoolID:     params.SchoolID,
		TermID:       params.TermID,
		Name:         params.Name,
		Description:  strings.TrimSpace(params.Description),
		Type:         params.Type,
		Amount:       params.Amount,
		IsActive:     true,
		IsApproved:   params.IsApproved,
		Installments: params.Installments,
		DueDate:      params.DueDate,
		CreatedBy:    createdBy,
	}
	if params.IsApproved {
		now := time.Now().UTC()
		fee.ApprovedBy = &createdBy
		fee.ApprovedAt = &now
	}

	if err := s.repo.CreateFee(ctx, fee); err != nil {
		return nil, fmt.Errorf("failed to create fee: %w", err)
	}
	return fee, nil
}

// GetFee retrieves a single fee by id.
func (s *Service) GetFee(ctx context.Context, feeID uuid.UUID) (*domain.Fee, error) {
	return s.repo.GetFeeByID(ctx, feeID)
}

// ListFees retrieves fees matching the given filters. Filtering runs server-side.
func (s *Service) ListFees(ctx context.Context, filters domain.FeeFilters) ([]domain.Fee, error) {
	return s.repo.ListFees(ctx, filters.Normalize())
}

// ListFeesByTerm retrieves all fees attached to an academic term.
func (s *Service) ListFeesByTerm(ctx context.Context, termID uuid.UUID) ([]domain.Fee, error) {
	return s.repo.ListFees(ctx, domain.FeeFilters{TermID: &termID}.Normalize())
}

// ListApprovedFees retrieves the approved, active fees for a school; the set
// students can actually pay.
func (s *Service) ListApprovedFees(ctx context.Context, schoolID uuid.UUID) ([]domain.Fee, error) {
	approved, active := true, true
	return s.repo.ListFees(ctx, domain.FeeFilters{
		SchoolID:   &schoolID,
		IsApproved: &approved,
		IsActive:   &active,
	}.Normalize())
}

// ListPendingApprovals retrieves fees awaiting an approval decision.
func (s *Service) ListPendingApprovals(ctx context.Context, schoolID uuid.UUID) ([]domain.Fee, error) {
	unapproved := false
	return s.repo.ListFees(ctx, domain.FeeFilters{
		SchoolID:   &schoolID,
		IsApproved: &unapproved,
	}.Normalize())
}

// UpdateFee validates and applies a partial update to a fee.
func (s *Service) UpdateFee(ctx context.Context, feeID uuid.UUID, params domain.UpdateFeeParams) (*domain.Fee, error) {
	if params.Name != nil {
		trimmed := strings.TrimSpace(*params.Name)
		if trimmed == "" {
			return nil, ErrInvalidFeeName
		}
		params.Name = &trimmed
	}
	if params.Amount != nil && *params.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if params.Type != nil {
		normalized := strings.ToLower(strings.TrimSpace(*params.Type))
		if !domain.ValidFeeType(normalized) {
			return nil, ErrInvalidFeeType
		}
		params.Type = &normalized
	}
	if params.Installments != nil && *params.Installments < 1 {
		return nil, ErrInvalidInstallments
	}
	return s.repo.UpdateFee(ctx, feeID, params)
}

// ApproveFee marks a fee approved and removes it from the pending set.
// Approving an already-approved fee is a no-op returning the current state,
// so the original approver stamp is never overwritten.
func (s *Service) ApproveFee(ctx context.Context, feeID uuid.UUID, approverID uuid.UUID) (*domain.Fee, error) {
	fee, err := s.repo.GetFeeByID(ctx, feeID)
	if err != nil {
		return nil, err
	}
	if fee.IsApproved {
		return fee, nil
	}
	return s.repo.ApproveFee(ctx, feeID, approverID)
}

// RejectFee records a persisted rejection with the reviewer's reason.
func (s *Service) RejectFee(ctx context.Context, feeID uuid.UUID, rejectorID uuid.UUID, reason string) (*domain.Fee, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectionReasonRequired
	}
	return s.repo.RejectFee(ctx, feeID, rejectorID, reason)
}

// DeleteFee removes a fee. Fees already referenced by payments are deactivated
// instead so payment history stays intact; the returned flag reports which
// path was taken (true means soft-deactivated).
func (s *Service) DeleteFee(ctx context.Context, feeID uuid.UUID) (bool, error) {
	count, err := s.repo.CountPaymentsForFee(ctx, feeID)
	if err != nil {
		return false, fmt.Errorf("failed to count payments for fee: %w", err)
	}
	if count > 0 {
		if _, err := s.repo.DeactivateFee(ctx, feeID); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, s.repo.DeleteFee(ctx, feeID)
}
