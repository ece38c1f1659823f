/**
 * @description
 * Reconciliation of stale pending payments. Webhooks are at-least-once but not
 * guaranteed: a gateway outage or a dropped delivery can leave a payment stuck
 * in pending even though the payer completed checkout. The reconciler sweeps
 * pending gateway payments older than a cutoff and asks the gateway's verify
 * endpoint for the authoritative status, settling whatever it learns.
 */

package app

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/classpoint/fees-service/internal/domain"
	"github.com/classpoint/fees-service/internal/store"
)

// ReconcilePendingPayments verifies stale pending gateway payments against the
// gateway and settles the ones that reached a terminal state there. Bank
// transfer and cash payments are skipped: they have no gateway to ask.
func (s *Service) ReconcilePendingPayments(ctx context.Context, maxAge time.Duration, batchSize int) error {
	cutoff := time.Now().UTC().Add(-maxAge)
	stale, err := s.repo.FindStalePendingPayments(ctx, cutoff, batchSize)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}
	log.Printf("level=info component=reconciler msg=\"reconciling stale pending payments\" count=%d cutoff=%s", len(stale), cutoff.Format(time.RFC3339))

	for i := range stale {
		payment := &stale[i]
		if err := s.reconcileOne(ctx, payment); err != nil {
			log.Printf("level=warn component=reconciler msg=\"reconciliation failed for payment\" reference=%s method=%s error=%q", payment.Reference, payment.Method, err)
		}
	}
	return nil
}

func (s *Service) reconcileOne(ctx context.Context, payment *domain.Payment) error {
	fee, err := s.repo.GetFeeByID(ctx, payment.FeeID)
	if err != nil {
		return err
	}
	profile, err := s.repo.GetPaymentProfileBySchool(ctx, fee.SchoolID)
	if err != nil {
		return err
	}

	switch payment.Method {
	case domain.PaymentMethodPaystack:
		return s.reconcilePaystack(ctx, payment, profile.PaystackSecretKey)
	case domain.PaymentMethodFlutterwave:
		return s.reconcileFlutterwave(ctx, payment, profile.FlutterwaveSecretKey)
	default:
		// Bank transfers stay pending until staff confirm them; nothing to verify.
		return nil
	}
}

func (s *Service) reconcilePaystack(ctx context.Context, payment *domain.Payment, secretKey string) error {
	resp, err := s.paystackGW.VerifyTransaction(ctx, secretKey, payment.Reference)
	if err != nil {
		return err
	}

	switch resp.Data.Status {
	case "success":
		paidAt := time.Now().UTC()
		if parsed, perr := time.Parse(time.RFC3339, resp.Data.PaidAt); perr == nil {
			paidAt = parsed
		}
		return s.settle(ctx, payment.Reference, domain.PaymentStatusSuccess, gatewayTxID(resp.Data.ID), "", paidAt)
	case "failed", "abandoned", "reversed":
		reason := resp.Data.GatewayResponse
		if reason == "" {
			reason = "payment " + resp.Data.Status + " at gateway"
		}
		return s.settle(ctx, payment.Reference, domain.PaymentStatusFailed, "", reason, time.Time{})
	default:
		// Still pending at the gateway; leave it for the next sweep.
		return nil
	}
}

func (s *Service) reconcileFlutterwave(ctx context.Context, payment *domain.Payment, secretKey string) error {
	resp, err := s.flutterwaveGW.VerifyByReference(ctx, secretKey, payment.Reference)
	if err != nil {
		return err
	}

	switch resp.Data.Status {
	case "successful":
		return s.settle(ctx, payment.Reference, domain.PaymentStatusSuccess, gatewayTxID(resp.Data.ID), "", time.Now().UTC())
	case "failed", "cancelled":
		return s.settle(ctx, payment.Reference, domain.PaymentStatusFailed, "", "payment "+resp.Data.Status+" at gateway", time.Time{})
	default:
		return nil
	}
}

// settle applies a verified terminal status, treating an already-terminal row
// as success: a webhook beat the reconciler to it.
func (s *Service) settle(ctx context.Context, reference, status, txID, reason string, paidAt time.Time) error {
	var err error
	if status == domain.PaymentStatusSuccess {
		_, err = s.repo.MarkPaymentSucceeded(ctx, reference, txID, paidAt)
	} else {
		_, err = s.repo.MarkPaymentFailed(ctx, reference, reason)
	}
	if errors.Is(err, store.ErrPaymentTerminal) {
		return nil
	}
	if err == nil {
		log.Printf("level=info component=reconciler msg=\"settled stale payment\" reference=%s status=%s", reference, status)
	}
	return err
}

func gatewayTxID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
