package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/classpoint/fees-service/internal/domain"
	"github.com/classpoint/fees-service/internal/store"
)

type consumerRepoStub struct {
	store.Repository

	payment *domain.Payment

	succeededRef  string
	succeededTxID string
	failedRef     string
	failedReason  string

	transitionErr error
}

func (s *consumerRepoStub) MarkPaymentSucceeded(ctx context.Context, reference string, gatewayTxID string, paidAt time.Time) (*domain.Payment, error) {
	if s.transitionErr != nil {
		return s.payment, s.transitionErr
	}
	s.succeededRef = reference
	s.succeededTxID = gatewayTxID
	return &domain.Payment{Reference: reference, Status: domain.PaymentStatusSuccess, PaidAt: &paidAt}, nil
}

func (s *consumerRepoStub) MarkPaymentFailed(ctx context.Context, reference string, reason string) (*domain.Payment, error) {
	if s.transitionErr != nil {
		return s.payment, s.transitionErr
	}
	s.failedRef = reference
	s.failedReason = reason
	return &domain.Payment{Reference: reference, Status: domain.PaymentStatusFailed, FailureReason: &reason}, nil
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return body
}

func TestHandleMessage_SuccessEventSettlesPayment(t *testing.T) {
	repo := &consumerRepoStub{}
	consumer := NewPaymentStatusConsumer(repo)

	paidAt := time.Now().UTC()
	body := mustMarshal(t, domain.PaymentStatusEvent{
		Reference:   "cpf_abc",
		Status:      "success",
		Gateway:     "paystack",
		GatewayTxID: "987654",
		PaidAt:      &paidAt,
	})

	if !consumer.HandleMessage(body) {
		t.Fatal("expected success event to be acked")
	}
	if repo.succeededRef != "cpf_abc" || repo.succeededTxID != "987654" {
		t.Fatalf("expected success transition for cpf_abc, got ref=%q tx=%q", repo.succeededRef, repo.succeededTxID)
	}
	if repo.failedRef != "" {
		t.Fatal("did not expect a failure transition")
	}
}

func TestHandleMessage_FailedEventRecordsReason(t *testing.T) {
	repo := &consumerRepoStub{}
	consumer := NewPaymentStatusConsumer(repo)

	body := mustMarshal(t, domain.PaymentStatusEvent{
		Reference: "cpf_def",
		Status:    "failed",
		Gateway:   "flutterwave",
		Reason:    "card declined",
	})

	if !consumer.HandleMessage(body) {
		t.Fatal("expected failed event to be acked")
	}
	if repo.failedRef != "cpf_def" || repo.failedReason != "card declined" {
		t.Fatalf("expected failure transition with reason, got ref=%q reason=%q", repo.failedRef, repo.failedReason)
	}
}

func TestHandleMessage_NormalizesGatewayStatusVocabulary(t *testing.T) {
	repo := &consumerRepoStub{}
	consumer := NewPaymentStatusConsumer(repo)

	// Flutterwave reports "successful" rather than "success".
	body := mustMarshal(t, domain.PaymentStatusEvent{
		Reference: "cpf_flw",
		Status:    "successful",
		Gateway:   "flutterwave",
	})

	if !consumer.HandleMessage(body) {
		t.Fatal("expected event to be acked")
	}
	if repo.succeededRef != "cpf_flw" {
		t.Fatalf("expected successful to settle the payment, got ref=%q", repo.succeededRef)
	}
}

func TestHandleMessage_AcksUnknownReference(t *testing.T) {
	repo := &consumerRepoStub{transitionErr: store.ErrPaymentNotFound}
	consumer := NewPaymentStatusConsumer(repo)

	body := mustMarshal(t, domain.PaymentStatusEvent{
		Reference: "cpf_unknown",
		Status:    "success",
	})

	if !consumer.HandleMessage(body) {
		t.Fatal("events for unknown references must be acked, not requeued")
	}
}

func TestHandleMessage_AcksReplayForSettledPayment(t *testing.T) {
	repo := &consumerRepoStub{
		payment:       &domain.Payment{Reference: "cpf_done", Status: domain.PaymentStatusSuccess},
		transitionErr: store.ErrPaymentTerminal,
	}
	consumer := NewPaymentStatusConsumer(repo)

	body := mustMarshal(t, domain.PaymentStatusEvent{
		Reference: "cpf_done",
		Status:    "failed",
		Reason:    "late duplicate webhook",
	})

	if !consumer.HandleMessage(body) {
		t.Fatal("replays against settled payments must be acked")
	}
	if repo.failedRef != "" {
		t.Fatal("a settled payment must not be regressed by a replay")
	}
}

func TestHandleMessage_RequeuesOnTransientError(t *testing.T) {
	repo := &consumerRepoStub{transitionErr: errors.New("connection reset")}
	consumer := NewPaymentStatusConsumer(repo)

	body := mustMarshal(t, domain.PaymentStatusEvent{
		Reference: "cpf_retry",
		Status:    "success",
	})

	if consumer.HandleMessage(body) {
		t.Fatal("transient database errors should requeue the event")
	}
}

func TestHandleMessage_DiscardsGarbage(t *testing.T) {
	consumer := NewPaymentStatusConsumer(&consumerRepoStub{})

	if !consumer.HandleMessage([]byte("not json")) {
		t.Fatal("unparsable events must be acked to avoid poison loops")
	}
	if !consumer.HandleMessage(mustMarshal(t, domain.PaymentStatusEvent{Status: "success"})) {
		t.Fatal("events without a reference must be acked")
	}
}

func TestHandleMessage_IgnoresIntermediateStatus(t *testing.T) {
	repo := &consumerRepoStub{}
	consumer := NewPaymentStatusConsumer(repo)

	body := mustMarshal(t, domain.PaymentStatusEvent{
		Reference: "cpf_mid",
		Status:    "processing",
	})

	if !consumer.HandleMessage(body) {
		t.Fatal("intermediate statuses must be acked without a transition")
	}
	if repo.succeededRef != "" || repo.failedRef != "" {
		t.Fatal("intermediate statuses must not transition the payment")
	}
}
