/**
 * @description
 * HTTP handlers for the payment profile endpoints. The profile is read back
 * with secrets masked: reads report whether a gateway is configured without
 * ever echoing its keys.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/classpoint/fees-service/internal/domain"
)

// paymentProfileView is the masked representation returned by profile reads.
type paymentProfileView struct {
	*domain.PaymentProfile
	PaystackConfigured    bool `json:"paystack_configured"`
	FlutterwaveConfigured bool `json:"flutterwave_configured"`
}

// GetPaymentProfileHandler handles GET /paymentProfile/{schoolID}.
func (h *FeeHandlers) GetPaymentProfileHandler(w http.ResponseWriter, r *http.Request) {
	schoolID, err := parseUUIDParam(r, "schoolID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid school ID")
		return
	}

	profile, err := h.service.GetPaymentProfile(r.Context(), schoolID)
	if err != nil {
		h.writeServiceError(w, "get_payment_profile", err)
		return
	}

	h.writeJSON(w, http.StatusOK, paymentProfileView{
		PaymentProfile:        profile,
		PaystackConfigured:    profile.PaystackSecretKey != "",
		FlutterwaveConfigured: profile.FlutterwaveSecretKey != "",
	}, "")
}

// UpsertPaymentProfileHandler handles PUT /paymentProfile/{schoolID}. Restricted
// to admin staff. Submitting empty secret fields keeps the stored secrets.
func (h *FeeHandlers) UpsertPaymentProfileHandler(w http.ResponseWriter, r *http.Request) {
	schoolID, err := parseUUIDParam(r, "schoolID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid school ID")
		return
	}

	var params domain.UpsertPaymentProfileParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.service.UpsertPaymentProfile(r.Context(), schoolID, params)
	if err != nil {
		h.writeServiceError(w, "upsert_payment_profile", err)
		return
	}

	log.Printf("level=info component=api endpoint=upsert_payment_profile outcome=saved school_id=%s methods=%v", schoolID, profile.EnabledMethods())
	h.writeJSON(w, http.StatusOK, paymentProfileView{
		PaymentProfile:        profile,
		PaystackConfigured:    profile.PaystackSecretKey != "",
		FlutterwaveConfigured: profile.FlutterwaveSecretKey != "",
	}, "Payment profile saved")
}
