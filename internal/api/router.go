/**
 * @description
 * This file sets up the HTTP router for the fees-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies the
 * middleware stack: request logging, panic recovery, timeouts, CORS, and JWT
 * authentication for the protected groups.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the school frontend origins.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes creates and returns the router for the fees service.
func Routes(h *FeeHandlers, wh *WebhookHandlers, jwksURL string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Gateway webhooks authenticate by signature, not by bearer token.
	r.Post("/webhooks/paystack", wh.PaystackWebhookHandler)
	r.Post("/webhooks/flutterwave", wh.FlutterwaveWebhookHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(jwksURL))

		r.Route("/fee", func(r chi.Router) {
			r.Get("/", h.ListFeesHandler)
			r.Post("/", h.CreateFeeHandler)
			r.Get("/term/{termID}", h.ListFeesByTermHandler)
			r.Get("/approved/{schoolID}", h.ListApprovedFeesHandler)
			r.Get("/pending/{schoolID}", h.ListPendingApprovalsHandler)
			r.Get("/stats/{schoolID}", h.FeeStatsHandler)
			r.Get("/{feeID}", h.GetFeeHandler)
			r.Put("/{feeID}", h.UpdateFeeHandler)

			// Approval decisions and deletion are reserved for admin staff.
			r.Group(func(r chi.Router) {
				r.Use(RequireRole("admin"))
				r.Post("/{feeID}/approve", h.ApproveFeeHandler)
				r.Post("/{feeID}/reject", h.RejectFeeHandler)
				r.Delete("/{feeID}", h.DeleteFeeHandler)
			})
		})

		r.Route("/payment", func(r chi.Router) {
			r.Post("/initiate", h.InitiatePaymentHandler)
			r.Get("/mine", h.MyPaymentsHandler)
			r.Get("/methods/{schoolID}", h.PaymentMethodsHandler)
			r.Get("/fee/{feeID}", h.ListFeePaymentsHandler)
			r.Get("/outstanding/{feeID}", h.OutstandingBalanceHandler)
			r.Get("/stats/{schoolID}", h.PaymentStatsHandler)
			r.Get("/{paymentID}/status", h.PaymentStatusHandler)
			r.Get("/reference/{reference}", h.PaymentByReferenceHandler)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole("admin"))
				r.Post("/cash", h.CashPaymentHandler)
				r.Post("/confirm/{reference}", h.ConfirmBankTransferHandler)
			})
		})

		r.Route("/paymentProfile", func(r chi.Router) {
			r.Get("/{schoolID}", h.GetPaymentProfileHandler)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole("admin"))
				r.Put("/{schoolID}", h.UpsertPaymentProfileHandler)
			})
		})
	})

	return r
}
