/**
 * @description
 * HTTP handlers for the payment endpoints: initiating gateway checkouts,
 * recording cash payments, polling payment status, and reading histories and
 * collection statistics.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/classpoint/fees-service/internal/domain"
)

// InitiatePaymentHandler handles POST /payment/initiate.
func (h *FeeHandlers) InitiatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	payerID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	var params domain.InitiatePaymentParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	initiation, err := h.service.InitiatePayment(r.Context(), payerID, params)
	if err != nil {
		h.writeServiceError(w, "initiate_payment", err)
		return
	}

	log.Printf("level=info component=api endpoint=initiate_payment outcome=accepted payment_id=%s fee_id=%s method=%s amount=%d",
		initiation.Payment.ID, initiation.Payment.FeeID, initiation.Payment.Method, initiation.Payment.Amount)
	h.writeJSON(w, http.StatusCreated, initiation, initiation.Message)
}

// CashPaymentHandler handles POST /payment/cash. Restricted to admin staff.
func (h *FeeHandlers) CashPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var params domain.CashPaymentParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payment, err := h.service.ProcessCashPayment(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, "cash_payment", err)
		return
	}

	log.Printf("level=info component=api endpoint=cash_payment outcome=recorded payment_id=%s fee_id=%s amount=%d",
		payment.ID, payment.FeeID, payment.Amount)
	h.writeJSON(w, http.StatusCreated, payment, "Cash payment of "+domain.FormatAmount(payment.Amount)+" recorded")
}

// PaymentStatusHandler handles GET /payment/{paymentID}/status. Clients poll
// this endpoint after a hosted checkout redirect to learn the settled status.
func (h *FeeHandlers) PaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	paymentID, err := parseUUIDParam(r, "paymentID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	payment, err := h.service.GetPayment(r.Context(), paymentID)
	if err != nil {
		h.writeServiceError(w, "payment_status", err)
		return
	}
	h.writeJSON(w, http.StatusOK, payment, "")
}

// PaymentByReferenceHandler handles GET /payment/reference/{reference}. Gateway
// redirect URLs carry the payment reference rather than the internal ID, so the
// post-checkout page resolves the payment through this route.
func (h *FeeHandlers) PaymentByReferenceHandler(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(chi.URLParam(r, "reference"))
	if reference == "" {
		h.writeError(w, http.StatusBadRequest, "Invalid payment reference")
		return
	}

	payment, err := h.service.GetPaymentByReference(r.Context(), reference)
	if err != nil {
		h.writeServiceError(w, "payment_by_reference", err)
		return
	}
	h.writeJSON(w, http.StatusOK, payment, "")
}

// ConfirmBankTransferHandler handles POST /payment/confirm/{reference}. School
// staff confirm receipt of a bank transfer against the quoted reference, which
// settles the pending payment.
func (h *FeeHandlers) ConfirmBankTransferHandler(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(chi.URLParam(r, "reference"))
	if reference == "" {
		h.writeError(w, http.StatusBadRequest, "Invalid payment reference")
		return
	}

	payment, err := h.service.ConfirmBankTransfer(r.Context(), reference)
	if err != nil {
		h.writeServiceError(w, "confirm_bank_transfer", err)
		return
	}

	log.Printf("level=info component=api endpoint=confirm_bank_transfer outcome=settled reference=%s amount=%d", payment.Reference, payment.Amount)
	h.writeJSON(w, http.StatusOK, payment, "Bank transfer of "+domain.FormatAmount(payment.Amount)+" confirmed")
}

// ListFeePaymentsHandler handles GET /payment/fee/{feeID}.
func (h *FeeHandlers) ListFeePaymentsHandler(w http.ResponseWriter, r *http.Request) {
	feeID, err := parseUUIDParam(r, "feeID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid fee ID")
		return
	}

	payments, err := h.service.ListFeePayments(r.Context(), feeID)
	if err != nil {
		h.writeServiceError(w, "list_fee_payments", err)
		return
	}
	h.writeJSON(w, http.StatusOK, payments, "")
}

// MyPaymentsHandler handles GET /payment/mine: the caller's own payment history.
func (h *FeeHandlers) MyPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	payerID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.service.ListPayerPayments(r.Context(), payerID, limit, offset)
	if err != nil {
		h.writeServiceError(w, "my_payments", err)
		return
	}
	h.writeJSON(w, http.StatusOK, payments, "")
}

// OutstandingBalanceHandler handles GET /payment/outstanding/{feeID}.
func (h *FeeHandlers) OutstandingBalanceHandler(w http.ResponseWriter, r *http.Request) {
	feeID, err := parseUUIDParam(r, "feeID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid fee ID")
		return
	}

	fee, err := h.service.GetFee(r.Context(), feeID)
	if err != nil {
		h.writeServiceError(w, "outstanding_balance", err)
		return
	}
	outstanding, err := h.service.OutstandingBalance(r.Context(), feeID)
	if err != nil {
		h.writeServiceError(w, "outstanding_balance", err)
		return
	}

	resp := map[string]interface{}{
		"fee_id":      feeID,
		"outstanding": outstanding,
		"formatted":   domain.FormatAmount(outstanding),
	}
	if fee.Installments != nil {
		resp["installment_amount"] = domain.InstallmentAmount(fee.Amount, *fee.Installments)
		resp["installments"] = *fee.Installments
	}
	h.writeJSON(w, http.StatusOK, resp, "")
}

// PaymentMethodsHandler handles GET /payment/methods/{schoolID}.
func (h *FeeHandlers) PaymentMethodsHandler(w http.ResponseWriter, r *http.Request) {
	schoolID, err := parseUUIDParam(r, "schoolID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid school ID")
		return
	}

	methods, err := h.service.AvailablePaymentMethods(r.Context(), schoolID)
	if err != nil {
		h.writeServiceError(w, "payment_methods", err)
		return
	}
	h.writeJSON(w, http.StatusOK, methods, "")
}

// PaymentStatsHandler handles GET /payment/stats/{schoolID}.
func (h *FeeHandlers) PaymentStatsHandler(w http.ResponseWriter, r *http.Request) {
	schoolID, err := parseUUIDParam(r, "schoolID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid school ID")
		return
	}

	stats, err := h.service.PaymentStats(r.Context(), schoolID)
	if err != nil {
		h.writeServiceError(w, "payment_stats", err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats, "")
}
