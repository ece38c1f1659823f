/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the fees-service. By defining an interface,
 * we decouple the application's business logic from the specific database
 * implementation (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/classpoint/fees-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Fee methods
	CreateFee(ctx context.Context, fee *domain.Fee) error
	GetFeeByID(ctx context.Context, feeID uuid.UUID) (*domain.Fee, error)
	ListFees(ctx context.Context, filters domain.FeeFilters) ([]domain.Fee, error)
	UpdateFee(ctx context.Context, feeID uuid.UUID, params domain.UpdateFeeParams) (*domain.Fee, error)
	ApproveFee(ctx context.Context, feeID uuid.UUID, approverID uuid.UUID) (*domain.Fee, error)
	RejectFee(ctx context.Context, feeID uuid.UUID, rejectorID uuid.UUID, reason string) (*domain.Fee, error)
	DeleteFee(ctx context.Context, feeID uuid.UUID) error
	DeactivateFee(ctx context.Context, feeID uuid.UUID) (*domain.Fee, error)
	CountPaymentsForFee(ctx context.Context, feeID uuid.UUID) (int64, error)

	// Payment methods
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	SetPaymentCheckoutURL(ctx context.Context, reference string, checkoutURL string) error
	GetPaymentByID(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error)
	GetPaymentByReference(ctx context.Context, reference string) (*domain.Payment, error)
	ListPaymentsByFee(ctx context.Context, feeID uuid.UUID) ([]domain.Payment, error)
	ListPaymentsByPayer(ctx context.Context, payerID uuid.UUID, limit, offset int) ([]domain.Payment, error)
	ListSuccessfulPaymentsByFee(ctx context.Context, feeID uuid.UUID) ([]domain.Payment, error)
	MarkPaymentSucceeded(ctx context.Context, reference string, gatewayTxID string, paidAt time.Time) (*domain.Payment, error)
	MarkPaymentFailed(ctx context.Context, reference string, reason string) (*domain.Payment, error)
	FindStalePendingPayments(ctx context.Context, olderThan time.Time, limit int) ([]domain.Payment, error)

	// Payment profile methods
	GetPaymentProfileBySchool(ctx context.Context, schoolID uuid.UUID) (*domain.PaymentProfile, error)
	UpsertPaymentProfile(ctx context.Context, schoolID uuid.UUID, params domain.UpsertPaymentProfileParams) (*domain.PaymentProfile, error)

	// Statistics methods
	GetFeeStats(ctx context.Context, schoolID uuid.UUID, termID *uuid.UUID) (*domain.FeeStats, error)
	GetPaymentStats(ctx context.Context, schoolID uuid.UUID) (*domain.PaymentStats, error)
}
