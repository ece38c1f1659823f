/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * for fees, payments, and payment profiles.
 *
 * @dependencies
 * - context, errors, fmt, strings, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpoint/fees-service/internal/domain"
)

var (
	ErrFeeNotFound        = errors.New("fee not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrProfileNotFound    = errors.New("payment profile not found")
	ErrPaymentTerminal    = errors.New("payment already in a terminal status")
	ErrFeeHasPayments     = errors.New("fee is referenced by payments")
	ErrDuplicateReference = errors.New("payment reference already exists")
	ErrNothingToUpdate    = errors.New("no fields to update")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const feeColumns = `id, school_id, term_id, name, description, type, amount, is_active, is_approved,
	installments, due_date, approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
	created_by, created_at, updated_at`

func scanFee(row pgx.Row) (*domain.Fee, error) {
	var fee domain.Fee
	err := row.Scan(
		&fee.ID, &fee.SchoolID, &fee.TermID, &fee.Name, &fee.Description, &fee.Type,
		&fee.Amount, &fee.IsActive, &fee.IsApproved, &fee.Installments, &fee.DueDate,
		&fee.ApprovedBy, &fee.ApprovedAt, &fee.RejectedBy, &fee.RejectedAt, &fee.RejectionReason,
		&fee.CreatedBy, &fee.CreatedAt, &fee.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrFeeNotFound
		}
		return nil, err
	}
	return &fee, nil
}

// CreateFee inserts a new fee record.
func (r *PostgresRepository) CreateFee(ctx context.Context, fee *domain.Fee) error {
	query := `
		INSERT INTO fees (id, school_id, term_id, name, description, type, amount, is_active,
			is_approved, installments, due_date, approved_by, approved_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		fee.ID, fee.SchoolID, fee.TermID, fee.Name, fee.Description, fee.Type, fee.Amount,
		fee.IsActive, fee.IsApproved, fee.Installments, fee.DueDate, fee.ApprovedBy,
		fee.ApprovedAt, fee.CreatedBy,
	).Scan(&fee.CreatedAt, &fee.UpdatedAt)
}

// GetFeeByID retrieves a fee by its identifier.
func (r *PostgresRepository) GetFeeByID(ctx context.Context, feeID uuid.UUID) (*domain.Fee, error) {
	query := fmt.Sprintf(`SELECT %s FROM fees WHERE id = $1`, feeColumns)
	return scanFee(r.db.QueryRow(ctx, query, feeID))
}

// ListFees retrieves fees matching the given filters. Filtering and pagination run
// in SQL so only the requested page is transferred.
// escapeLikePattern neutralizes LIKE wildcards in user-supplied search text so
// a search for "100%" matches that literal string instead of everything.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

func (r *PostgresRepository) ListFees(ctx context.Context, filters domain.FeeFilters) ([]domain.Fee, error) {
	filters = filters.Normalize()

	var (
		conditions []string
		args       []interface{}
	)
	addCondition := func(expr string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if filters.SchoolID != nil {
		addCondition("school_id = $%d", *filters.SchoolID)
	}
	if filters.TermID != nil {
		addCondition("term_id = $%d", *filters.TermID)
	}
	if filters.Type != "" {
		addCondition("type = $%d", filters.Type)
	}
	if filters.IsActive != nil {
		addCondition("is_active = $%d", *filters.IsActive)
	}
	if filters.IsApproved != nil {
		addCondition("is_approved = $%d", *filters.IsApproved)
	}
	if filters.Search != "" {
		addCondition("(name ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%[1]d || '%%')", escapeLikePattern(filters.Search))
	}

	query := fmt.Sprintf(`SELECT %s FROM fees`, feeColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, filters.Limit, filters.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fees := make([]domain.Fee, 0)
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, err
		}
		fees = append(fees, *fee)
	}
	return fees, rows.Err()
}

// UpdateFee applies the non-nil fields of params to the fee and returns the
// updated row.
func (r *PostgresRepository) UpdateFee(ctx context.Context, feeID uuid.UUID, params domain.UpdateFeeParams) (*domain.Fee, error) {
	var (
		sets []string
		args []interface{}
	)
	addSet := func(expr string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if params.Name != nil {
		addSet("name = $%d", *params.Name)
	}
	if params.Description != nil {
		addSet("description = $%d", *params.Description)
	}
	if params.Type != nil {
		addSet("type = $%d", *params.Type)
	}
	if params.Amount != nil {
		addSet("amount = $%d", *params.Amount)
	}
	if params.IsActive != nil {
		addSet("is_active = $%d", *params.IsActive)
	}
	if params.Installments != nil {
		addSet("installments = $%d", *params.Installments)
	}
	if params.DueDate != nil {
		addSet("due_date = $%d", *params.DueDate)
	}
	if len(sets) == 0 {
		return nil, ErrNothingToUpdate
	}

	args = append(args, feeID)
	query := fmt.Sprintf(`
		UPDATE fees SET %s, updated_at = NOW()
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args), feeColumns)

	return scanFee(r.db.QueryRow(ctx, query, args...))
}

// ApproveFee marks a fee approved and stamps the approver. Approving an
// already-approved fee leaves the original approval metadata intact.
func (r *PostgresRepository) ApproveFee(ctx context.Context, feeID uuid.UUID, approverID uuid.UUID) (*domain.Fee, error) {
	query := fmt.Sprintf(`
		UPDATE fees
		SET is_approved = TRUE,
			approved_by = COALESCE(approved_by, $2),
			approved_at = COALESCE(approved_at, NOW()),
			rejected_by = NULL,
			rejected_at = NULL,
			rejection_reason = NULL,
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, feeColumns)
	return scanFee(r.db.QueryRow(ctx, query, feeID, approverID))
}

// RejectFee records a persisted rejection with the reviewer's reason. The fee
// stays unapproved and keeps the reason for audit.
func (r *PostgresRepository) RejectFee(ctx context.Context, feeID uuid.UUID, rejectorID uuid.UUID, reason string) (*domain.Fee, error) {
	query := fmt.Sprintf(`
		UPDATE fees
		SET is_approved = FALSE,
			approved_by = NULL,
			approved_at = NULL,
			rejected_by = $2,
			rejected_at = NOW(),
			rejection_reason = $3,
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, feeColumns)
	return scanFee(r.db.QueryRow(ctx, query, feeID, rejectorID, reason))
}

// DeleteFee removes a fee outright. Callers must first confirm no payments
// reference it; the FK constraint backstops the check.
func (r *PostgresRepository) DeleteFee(ctx context.Context, feeID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM fees WHERE id = $1`, feeID)
	if err != nil {
		// A payment recorded between the caller's count check and this delete
		// trips the foreign key; surface it as the domain condition.
		if strings.Contains(err.Error(), "payments_fee_id_fkey") {
			return ErrFeeHasPayments
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrFeeNotFound
	}
	return nil
}

// DeactivateFee soft-deletes a fee by clearing its active flag.
func (r *PostgresRepository) DeactivateFee(ctx context.Context, feeID uuid.UUID) (*domain.Fee, error) {
	query := fmt.Sprintf(`
		UPDATE fees SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, feeColumns)
	return scanFee(r.db.QueryRow(ctx, query, feeID))
}

// CountPaymentsForFee returns the number of payments referencing a fee.
func (r *PostgresRepository) CountPaymentsForFee(ctx context.Context, feeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE fee_id = $1`, feeID).Scan(&count)
	return count, err
}

const paymentColumns = `id, fee_id, payer_id, amount, method, status, reference, gateway_tx_id,
	checkout_url, is_installment, failure_reason, paid_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID, &p.FeeID, &p.PayerID, &p.Amount, &p.Method, &p.Status, &p.Reference,
		&p.GatewayTxID, &p.CheckoutURL, &p.IsInstallment, &p.FailureReason, &p.PaidAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreatePayment inserts a new payment record.
func (r *PostgresRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, fee_id, payer_id, amount, method, status, reference,
			gateway_tx_id, checkout_url, is_installment, failure_reason, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		payment.ID, payment.FeeID, payment.PayerID, payment.Amount, payment.Method,
		payment.Status, payment.Reference, payment.GatewayTxID, payment.CheckoutURL,
		payment.IsInstallment, payment.FailureReason, payment.PaidAt,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil && strings.Contains(err.Error(), "payments_reference_key") {
		return ErrDuplicateReference
	}
	return err
}

// SetPaymentCheckoutURL stores the gateway checkout link on a payment after the
// row was created, so a half-finished initiation never leaves an orphaned checkout.
func (r *PostgresRepository) SetPaymentCheckoutURL(ctx context.Context, reference string, checkoutURL string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE payments SET checkout_url = $2, updated_at = NOW() WHERE reference = $1`,
		reference, checkoutURL,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// GetPaymentByID retrieves a payment by its identifier.
func (r *PostgresRepository) GetPaymentByID(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)
	return scanPayment(r.db.QueryRow(ctx, query, paymentID))
}

// GetPaymentByReference retrieves a payment by its gateway reference.
func (r *PostgresRepository) GetPaymentByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE reference = $1`, paymentColumns)
	return scanPayment(r.db.QueryRow(ctx, query, reference))
}

// ListPaymentsByFee retrieves all payments recorded against a fee.
func (r *PostgresRepository) ListPaymentsByFee(ctx context.Context, feeID uuid.UUID) ([]domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE fee_id = $1 ORDER BY created_at DESC`, paymentColumns)
	return r.queryPayments(ctx, query, feeID)
}

// ListPaymentsByPayer retrieves a payer's payments, newest first.
func (r *PostgresRepository) ListPaymentsByPayer(ctx context.Context, payerID uuid.UUID, limit, offset int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE payer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, paymentColumns)
	return r.queryPayments(ctx, query, payerID, limit, offset)
}

// ListSuccessfulPaymentsByFee retrieves only settled successful payments for a fee,
// the set that counts toward its outstanding balance.
func (r *PostgresRepository) ListSuccessfulPaymentsByFee(ctx context.Context, feeID uuid.UUID) ([]domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE fee_id = $1 AND status = 'success' ORDER BY created_at`, paymentColumns)
	return r.queryPayments(ctx, query, feeID)
}

func (r *PostgresRepository) queryPayments(ctx context.Context, query string, args ...interface{}) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// MarkPaymentSucceeded transitions a pending payment to success. The status guard
// makes the transition idempotent: terminal rows are left untouched.
func (r *PostgresRepository) MarkPaymentSucceeded(ctx context.Context, reference string, gatewayTxID string, paidAt time.Time) (*domain.Payment, error) {
	query := fmt.Sprintf(`
		UPDATE payments
		SET status = 'success', gateway_tx_id = $2, paid_at = $3, failure_reason = NULL, updated_at = NOW()
		WHERE reference = $1 AND status = 'pending'
		RETURNING %s
	`, paymentColumns)
	payment, err := scanPayment(r.db.QueryRow(ctx, query, reference, gatewayTxID, paidAt))
	if errors.Is(err, ErrPaymentNotFound) {
		return r.classifyMissedTransition(ctx, reference)
	}
	return payment, err
}

// MarkPaymentFailed transitions a pending payment to failed with the gateway's reason.
func (r *PostgresRepository) MarkPaymentFailed(ctx context.Context, reference string, reason string) (*domain.Payment, error) {
	query := fmt.Sprintf(`
		UPDATE payments
		SET status = 'failed', failure_reason = $2, updated_at = NOW()
		WHERE reference = $1 AND status = 'pending'
		RETURNING %s
	`, paymentColumns)
	payment, err := scanPayment(r.db.QueryRow(ctx, query, reference, reason))
	if errors.Is(err, ErrPaymentNotFound) {
		return r.classifyMissedTransition(ctx, reference)
	}
	return payment, err
}

// classifyMissedTransition distinguishes "no such payment" from "payment already
// terminal" after a guarded transition matched zero rows.
func (r *PostgresRepository) classifyMissedTransition(ctx context.Context, reference string) (*domain.Payment, error) {
	existing, err := r.GetPaymentByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return existing, ErrPaymentTerminal
}

// FindStalePendingPayments returns gateway payments still pending past the given
// cutoff, oldest first, for reconciliation against the gateway verify endpoint.
func (r *PostgresRepository) FindStalePendingPayments(ctx context.Context, olderThan time.Time, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE status = 'pending' AND method IN ('paystack', 'flutterwave') AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`, paymentColumns)
	return r.queryPayments(ctx, query, olderThan, limit)
}

const profileColumns = `id, school_id, paystack_enabled, paystack_public_key, paystack_secret_key,
	flutterwave_enabled, flutterwave_public_key, flutterwave_secret_key, flutterwave_webhook_hash,
	bank_transfer_enabled, bank_name, account_name, account_number, cash_enabled, created_at, updated_at`

func scanProfile(row pgx.Row) (*domain.PaymentProfile, error) {
	var p domain.PaymentProfile
	err := row.Scan(
		&p.ID, &p.SchoolID, &p.PaystackEnabled, &p.PaystackPublicKey, &p.PaystackSecretKey,
		&p.FlutterwaveEnabled, &p.FlutterwavePublicKey, &p.FlutterwaveSecretKey, &p.FlutterwaveWebhookHash,
		&p.BankTransferEnabled, &p.BankName, &p.AccountName, &p.AccountNumber, &p.CashEnabled,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetPaymentProfileBySchool retrieves the gateway configuration for a school.
func (r *PostgresRepository) GetPaymentProfileBySchool(ctx context.Context, schoolID uuid.UUID) (*domain.PaymentProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_profiles WHERE school_id = $1`, profileColumns)
	return scanProfile(r.db.QueryRow(ctx, query, schoolID))
}

// UpsertPaymentProfile creates or replaces a school's payment profile. Empty
// secret keys on update preserve the stored secrets so admins can edit bank
// details without re-entering gateway credentials.
func (r *PostgresRepository) UpsertPaymentProfile(ctx context.Context, schoolID uuid.UUID, params domain.UpsertPaymentProfileParams) (*domain.PaymentProfile, error) {
	query := fmt.Sprintf(`
		INSERT INTO payment_profiles (id, school_id, paystack_enabled, paystack_public_key,
			paystack_secret_key, flutterwave_enabled, flutterwave_public_key, flutterwave_secret_key,
			flutterwave_webhook_hash, bank_transfer_enabled, bank_name, account_name, account_number,
			cash_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (school_id) DO UPDATE SET
			paystack_enabled = EXCLUDED.paystack_enabled,
			paystack_public_key = EXCLUDED.paystack_public_key,
			paystack_secret_key = CASE WHEN EXCLUDED.paystack_secret_key = '' THEN payment_profiles.paystack_secret_key ELSE EXCLUDED.paystack_secret_key END,
			flutterwave_enabled = EXCLUDED.flutterwave_enabled,
			flutterwave_public_key = EXCLUDED.flutterwave_public_key,
			flutterwave_secret_key = CASE WHEN EXCLUDED.flutterwave_secret_key = '' THEN payment_profiles.flutterwave_secret_key ELSE EXCLUDED.flutterwave_secret_key END,
			flutterwave_webhook_hash = CASE WHEN EXCLUDED.flutterwave_webhook_hash = '' THEN payment_profiles.flutterwave_webhook_hash ELSE EXCLUDED.flutterwave_webhook_hash END,
			bank_transfer_enabled = EXCLUDED.bank_transfer_enabled,
			bank_name = EXCLUDED.bank_name,
			account_name = EXCLUDED.account_name,
			account_number = EXCLUDED.account_number,
			cash_enabled = EXCLUDED.cash_enabled,
			updated_at = NOW()
		RETURNING %s
	`, profileColumns)
	return scanProfile(r.db.QueryRow(ctx, query,
		uuid.New(), schoolID, params.PaystackEnabled, params.PaystackPublicKey, params.PaystackSecretKey,
		params.FlutterwaveEnabled, params.FlutterwavePublicKey, params.FlutterwaveSecretKey,
		params.FlutterwaveWebhookHash, params.BankTransferEnabled, params.BankName,
		params.AccountName, params.AccountNumber, params.CashEnabled,
	))
}

// GetFeeStats aggregates fee counts and amounts for a school, optionally scoped
// to a term. Aggregation runs in SQL over the full dataset.
func (r *PostgresRepository) GetFeeStats(ctx context.Context, schoolID uuid.UUID, termID *uuid.UUID) (*domain.FeeStats, error) {
	stats := &domain.FeeStats{AmountByType: make(map[string]int64)}

	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_approved),
			COUNT(*) FILTER (WHERE NOT is_approved),
			COUNT(*) FILTER (WHERE is_active),
			COALESCE(SUM(amount), 0)
		FROM fees
		WHERE school_id = $1 AND ($2::uuid IS NULL OR term_id = $2)
	`
	err := r.db.QueryRow(ctx, query, schoolID, termID).Scan(
		&stats.TotalFees, &stats.ApprovedFees, &stats.PendingFees, &stats.ActiveFees, &stats.TotalAmount,
	)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT type, COALESCE(SUM(amount), 0)
		FROM fees
		WHERE school_id = $1 AND ($2::uuid IS NULL OR term_id = $2)
		GROUP BY type
	`, schoolID, termID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var feeType string
		var amount int64
		if err := rows.Scan(&feeType, &amount); err != nil {
			return nil, err
		}
		stats.AmountByType[feeType] = amount
	}
	return stats, rows.Err()
}

// GetPaymentStats aggregates payment counts and amounts for a school's fees.
func (r *PostgresRepository) GetPaymentStats(ctx context.Context, schoolID uuid.UUID) (*domain.PaymentStats, error) {
	stats := &domain.PaymentStats{
		CountByStatus:  make(map[string]int64),
		AmountByStatus: make(map[string]int64),
		AmountByMethod: make(map[string]int64),
	}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'success'), 0)
		FROM payments p
		JOIN fees f ON f.id = p.fee_id
		WHERE f.school_id = $1
	`, schoolID).Scan(&stats.TotalPayments, &stats.TotalCollected)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT p.status, COUNT(*), COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN fees f ON f.id = p.fee_id
		WHERE f.school_id = $1
		GROUP BY p.status
	`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count, amount int64
		if err := rows.Scan(&status, &count, &amount); err != nil {
			return nil, err
		}
		stats.CountByStatus[status] = count
		stats.AmountByStatus[status] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	methodRows, err := r.db.Query(ctx, `
		SELECT p.method, COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN fees f ON f.id = p.fee_id
		WHERE f.school_id = $1 AND p.status = 'success'
		GROUP BY p.method
	`, schoolID)
	if err != nil {
		return nil, err
	}
	defer methodRows.Close()
	for methodRows.Next() {
		var method string
		var amount int64
		if err := methodRows.Scan(&method, &amount); err != nil {
			return nil, err
		}
		stats.AmountByMethod[method] = amount
	}
	return stats, methodRows.Err()
}
