/**
 * @description
 * Internal event payloads exchanged over RabbitMQ. The webhook receiver normalizes
 * gateway callbacks into PaymentStatusEvent messages; the payment status consumer
 * applies them to stored payments.
 */

package domain

import "time"

// PaymentStatusEvent is the normalized settlement message for a payment. Status
// is one of the Payment status values after normalization.
type PaymentStatusEvent struct {
	Reference   string     `json:"reference"`
	Status      string     `json:"status"`
	Gateway     string     `json:"gateway"`
	GatewayTxID string     `json:"gateway_tx_id,omitempty"`
	Amount      int64      `json:"amount,omitempty"` // in kobo, as reported by the gateway
	Reason      string     `json:"reason,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}
