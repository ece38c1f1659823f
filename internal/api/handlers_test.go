package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestFeeFiltersFromQuery(t *testing.T) {
	schoolID := uuid.New()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/fee?school_id="+schoolID.String()+"&is_approved=true&type=Tuition&search=term&limit=20&offset=40", nil)

	filters, err := feeFiltersFromQuery(req)
	if err != nil {
		t.Fatalf("expected filters to parse, got %v", err)
	}
	if filters.SchoolID == nil || *filters.SchoolID != schoolID {
		t.Fatal("expected school_id filter to be set")
	}
	if filters.IsApproved == nil || !*filters.IsApproved {
		t.Fatal("expected is_approved filter to be true")
	}
	if filters.Limit != 20 || filters.Offset != 40 {
		t.Fatalf("expected pagination 20/40, got %d/%d", filters.Limit, filters.Offset)
	}
}

func TestFeeFiltersFromQuery_RejectsBadUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fee?school_id=not-a-uuid", nil)
	if _, err := feeFiltersFromQuery(req); err == nil {
		t.Fatal("expected an error for a malformed school_id")
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/cash", nil)
	req = req.WithContext(context.WithValue(req.Context(), userRoleKey, "student"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/payment/cash", nil)
	req = req.WithContext(context.WithValue(req.Context(), userRoleKey, "admin"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected admin to pass through, got %d", rec.Code)
	}
}
