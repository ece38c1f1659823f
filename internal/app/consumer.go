/**
 * @description
 * Consumer logic for payment status events. Webhook receipt and settlement are
 * decoupled through the message broker: the webhook handler verifies and
 * publishes, and this consumer applies the status transition to the payment
 * record. Settlement therefore survives webhook-time crashes and retries.
 *
 * Acking contract: return true for events that were applied or can never be
 * applied (unknown reference, already terminal, unrecognized status); return
 * false only for transient failures worth redelivering.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/classpoint/fees-service/internal/domain"
	"github.com/classpoint/fees-service/internal/store"
)

// PaymentStatusConsumer applies payment status events to the database.
type PaymentStatusConsumer struct {
	repo store.Repository
}

// NewPaymentStatusConsumer creates a consumer backed by the given repository.
func NewPaymentStatusConsumer(repo store.Repository) *PaymentStatusConsumer {
	return &PaymentStatusConsumer{repo: repo}
}

// HandleMessage processes one payment status event from the queue. The boolean
// return drives ack (true) versus nack-and-requeue (false).
func (c *PaymentStatusConsumer) HandleMessage(body []byte) bool {
	var event domain.PaymentStatusEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=error component=payment_consumer msg=\"discarding unparsable event\" error=%q", err)
		return true
	}
	if event.Reference == "" {
		log.Printf("level=warn component=payment_consumer msg=\"discarding event without reference\"")
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return c.processEvent(ctx, event)
}

func (c *PaymentStatusConsumer) processEvent(ctx context.Context, event domain.PaymentStatusEvent) bool {
	var (
		payment *domain.Payment
		err     error
	)

	switch normalizeEventStatus(event.Status) {
	case domain.PaymentStatusSuccess:
		paidAt := time.Now().UTC()
		if event.PaidAt != nil {
			paidAt = *event.PaidAt
		}
		payment, err = c.repo.MarkPaymentSucceeded(ctx, event.Reference, event.GatewayTxID, paidAt)
	case domain.PaymentStatusFailed:
		reason := event.Reason
		if reason == "" {
			reason = "payment failed at gateway"
		}
		payment, err = c.repo.MarkPaymentFailed(ctx, event.Reference, reason)
	default:
		// Intermediate gateway statuses (processing, queued) carry no transition.
		log.Printf("level=info component=payment_consumer msg=\"ignoring non-terminal status event\" reference=%s status=%s", event.Reference, event.Status)
		return true
	}

	switch {
	case err == nil:
		log.Printf("level=info component=payment_consumer msg=\"payment settled\" reference=%s status=%s gateway=%s", payment.Reference, payment.Status, event.Gateway)
		return true
	case errors.Is(err, store.ErrPaymentTerminal):
		// Replayed webhook or duplicate delivery. The first transition won.
		log.Printf("level=info component=payment_consumer msg=\"ignoring event for settled payment\" reference=%s status=%s", event.Reference, event.Status)
		return true
	case errors.Is(err, store.ErrPaymentNotFound):
		log.Printf("level=warn component=payment_consumer msg=\"no payment matches event reference\" reference=%s", event.Reference)
		return true
	default:
		log.Printf("level=error component=payment_consumer msg=\"failed to apply status event, requeueing\" reference=%s error=%q", event.Reference, err)
		return false
	}
}

// normalizeEventStatus maps the status vocabularies of both gateways onto the
// service's own payment statuses.
func normalizeEventStatus(status string) string {
	switch status {
	case "success", "successful", "completed":
		return domain.PaymentStatusSuccess
	case "failed", "failure", "abandoned", "cancelled":
		return domain.PaymentStatusFailed
	}
	return status
}
