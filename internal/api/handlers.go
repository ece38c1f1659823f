/**
 * @description
 * This file contains the HTTP handlers for the fee management endpoints.
 * Handlers parse incoming requests, call the application service, and write
 * JSON responses in the service's envelope format:
 *
 *   { "success": true,  "data": ..., "message": "..." }
 *   { "success": false, "message": "..." }
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: For URL parameter extraction.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/classpoint/fees-service/internal/app"
	"github.com/classpoint/fees-service/internal/domain"
	"github.com/classpoint/fees-service/internal/store"
)

// FeeHandlers holds the application service that handlers will use.
type FeeHandlers struct {
	service *app.Service
}

// NewFeeHandlers creates a new instance of FeeHandlers.
func NewFeeHandlers(service *app.Service) *FeeHandlers {
	return &FeeHandlers{service: service}
}

// envelope is the uniform response wrapper for all API endpoints.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (h *FeeHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: status < 400, Data: data, Message: message})
}

// writeError is a helper for writing JSON error responses.
func (h *FeeHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, nil, message)
}

// writeServiceError maps service and store errors onto HTTP statuses.
func (h *FeeHandlers) writeServiceError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case errors.Is(err, store.ErrFeeNotFound):
		h.writeError(w, http.StatusNotFound, "Fee not found")
	case errors.Is(err, store.ErrPaymentNotFound):
		h.writeError(w, http.StatusNotFound, "Payment not found")
	case errors.Is(err, store.ErrProfileNotFound):
		h.writeError(w, http.StatusNotFound, "Payment profile not configured for this school")
	case errors.Is(err, store.ErrNothingToUpdate):
		h.writeError(w, http.StatusBadRequest, "No fields to update")
	case errors.Is(err, store.ErrFeeHasPayments):
		h.writeError(w, http.StatusConflict, "Fee has recorded payments and cannot be deleted")
	case errors.Is(err, store.ErrDuplicateReference):
		h.writeError(w, http.StatusConflict, "Payment reference already exists")
	case errors.Is(err, store.ErrPaymentTerminal):
		h.writeError(w, http.StatusConflict, "Payment is already settled")
	case errors.Is(err, app.ErrNotBankTransfer):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, app.ErrInvalidFeeName),
		errors.Is(err, app.ErrInvalidAmount),
		errors.Is(err, app.ErrInvalidFeeType),
		errors.Is(err, app.ErrInvalidInstallments),
		errors.Is(err, app.ErrRejectionReasonRequired),
		errors.Is(err, app.ErrUnknownPaymentMethod),
		errors.Is(err, app.ErrMissingPayerEmail),
		errors.Is(err, app.ErrCashNotCheckout):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrFeeNotPayable),
		errors.Is(err, app.ErrFeeFullyPaid),
		errors.Is(err, app.ErrPaymentExceedsOutstanding),
		errors.Is(err, app.ErrPaymentMethodDisabled):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("level=error component=api endpoint=%s msg=\"unhandled service error\" err=%v", endpoint, err)
		h.writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

// authenticatedUserID resolves the caller's id from the request context.
func (h *FeeHandlers) authenticatedUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "Invalid user ID in token")
		return uuid.Nil, false
	}
	return userID, true
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

// CreateFeeHandler handles POST /fee.
func (h *FeeHandlers) CreateFeeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	var params domain.CreateFeeParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Only admins may create fees pre-approved; everyone else queues for review.
	if role, _ := GetUserRole(r.Context()); role != "admin" {
		params.IsApproved = false
	}

	fee, err := h.service.CreateFee(r.Context(), userID, params)
	if err != nil {
		h.writeServiceError(w, "create_fee", err)
		return
	}

	log.Printf("level=info component=api endpoint=create_fee outcome=created fee_id=%s school_id=%s amount=%d", fee.ID, fee.SchoolID, fee.Amount)
	h.writeJSON(w, http.StatusCreated, fee, "Fee created")
}

// ListFeesHandler handles GET /fee with server-side filters and pagination.
func (h *FeeHandlers) ListFeesHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := feeFiltersFromQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fees, err := h.service.ListFees(r.Context(), filters)
	if err != nil {
		h.writeServiceError(w, "list_fees", err)
		return
	}
	h.writeJSON(w, http.StatusOK, fees, "")
}

// feeFiltersFromQuery builds fee listing filters from query parameters.
func feeFiltersFromQuery(r *http.Request) (domain.FeeFilters, error) {
	var filters domain.FeeFilters
	q := r.URL.Query()

	if raw := q.Get("school_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, errors.New("invalid school_id filter")
		}
		filters.SchoolID = &id
	}
	if raw := q.Get("term_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, errors.New("invalid term_id filter")
		}
		filters.TermID = &id
	}
	if raw := q.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, errors.New("invalid is_active filter")
		}
		filters.IsActive = &active
	}
	if raw := q.Get("is_approved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, errors.New("invalid is_approved filter")
		}
		filters.IsApproved = &approved
	}
	filters.Type = q.Get("type")
	filters.Search = q.Get("search")
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	filters.Offset, _ = strconv.Atoi(q.Get("offset"))

	return filters, nil
}

// GetFeeHandler handles GET /fee/{feeID}.
func (h *FeeHandlers) GetFeeHandler(w http.ResponseWriter, r *http.Request) {
	feeID, err := parseUUIDParam(r, "feeID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid fee ID")
		return
	}

	fee, err := h.service.GetFee(r.Context(), feeID)
	if err != nil {
		h.writeServiceError(w, "get_fee", err)
		return
	}
	h.writeJSON(w, http.StatusOK, fee, "")
}

// ListFeesByTermHandler handles GET /fee/term/{termID}.
func (h *FeeHandlers) ListFeesByTermHandler(w http.ResponseWriter, r *http.Request) {
	termID, err := parseUUIDParam(r, "termID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid term ID")
		return
	}

	fees, err := h.service.ListFeesByTerm(r.Context(), termID)
	if err != nil {
		h.writeServiceError(w, "list_fees_by_term", err)
		return
	}
	h.writeJSON(w, http.StatusOK, fees, "")
}

// ListApprovedFeesHandler handles GET /fee/approved/{schoolID}.
func (h *FeeHandlers) ListApprovedFeesHandler(w http.ResponseWriter, r *http.Request) {
	schoolID, err := parseUUIDParam(r, "schoolID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid school ID")
		return
	}

	fees, err := h.service.ListApprovedFees(r.Context(), schoolID)
	if err != nil {
		h.writeServiceError(w, "list_approved_fees", err)
		return
	}
	h.writeJSON(w, http.StatusOK, fees, "")
}

// ListPendingApprovalsHandler handles GET /fee/pending/{schoolID}.
func (h *FeeHandlers) ListPendingApprovalsHandler(w http.ResponseWriter, r *http.Request) {
	schoolID, err := parseUUIDParam(r, "schoolID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid school ID")
		return
	}

	fees, err := h.service.ListPendingApprovals(r.Context(), schoolID)
	if err != nil {
		h.writeServiceError(w, "list_pending_approvals", err)
		return
	}
	h.writeJSON(w, http.StatusOK, fees, "")
}

// UpdateFeeHandler handles PUT /fee/{feeID}.
func (h *FeeHandlers) UpdateFeeHandler(w http.ResponseWriter, r *http.Request) {
	feeID, err := parseUUIDParam(r, "feeID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid fee ID")
		return
	}

	var params domain.UpdateFeeParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fee, err := h.service.UpdateFee(r.Context(), feeID, params)
	if err != nil {
		h.writeServiceError(w, "update_fee", err)
		return
	}
	h.writeJSON(w, http.StatusOK, fee, "Fee updated")
}

// ApproveFeeHandler handles POST /fee/{feeID}/approve.
func (h *FeeHandlers) ApproveFeeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	feeID, err := parseUUIDParam(r, "feeID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid fee ID")
		return
	}

	fee, err := h.service.ApproveFee(r.Context(), feeID, userID)
	if err != nil {
		h.writeServiceError(w, "approve_fee", err)
		return
	}

	log.Printf("level=info component=api endpoint=approve_fee outcome=approved fee_id=%s approver_id=%s", fee.ID, userID)
	h.writeJSON(w, http.StatusOK, fee, "Fee approved")
}

// RejectFeeHandler handles POST /fee/{feeID}/reject.
func (h *FeeHandlers) RejectFeeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	feeID, err := parseUUIDParam(r, "feeID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid fee ID")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fee, err := h.service.RejectFee(r.Context(), feeID, userID, req.Reason)
	if err != nil {
		h.writeServiceError(w, "reject_fee", err)
		return
	}

	log.Printf("level=info component=api endpoint=reject_fee outcome=rejected fee_id=%s rejector_id=%s", fee.ID, userID)
	h.writeJSON(w, http.StatusOK, fee, "Fee rejected")
}

// DeleteFeeHandler handles DELETE /fee/{feeID}.
func (h *FeeHandlers) DeleteFeeHandler(w http.ResponseWriter, r *http.Request) {
	feeID, err := parseUUIDParam(r, "feeID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid fee ID")
		return
	}

	softDeleted, err := h.service.DeleteFee(r.Context(), feeID)
	if err != nil {
		h.writeServiceError(w, "delete_fee", err)
		return
	}

	message := "Fee deleted"
	if softDeleted {
		message = "Fee has recorded payments and was deactivated instead of deleted"
	}
	h.writeJSON(w, http.StatusOK, nil, message)
}

// FeeStatsHandler handles GET /fee/stats/{schoolID}. An optional term_id query
// parameter narrows the stats to one term.
func (h *FeeHandlers) FeeStatsHandler(w http.ResponseWriter, r *http.Request) {
	schoolID, err := parseUUIDParam(r, "schoolID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid school ID")
		return
	}

	var termID *uuid.UUID
	if raw := strings.TrimSpace(r.URL.Query().Get("term_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid term_id filter")
			return
		}
		termID = &id
	}

	stats, err := h.service.FeeStats(r.Context(), schoolID, termID)
	if err != nil {
		h.writeServiceError(w, "fee_stats", err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats, "")
}
