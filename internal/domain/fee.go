/**
 * @description
 * This file defines the core domain models for the fees-service around billable fees.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Using distinct types for API requests, database models, and external service
 *   payloads ensures clear separation of concerns and type safety.
 * - Amounts are stored as `int64` to represent the value in the smallest currency
 *   unit (kobo), which avoids floating-point inaccuracies with financial data.
 */

package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fee type values. A fee's type is descriptive only; it carries no behavior
// beyond grouping in statistics.
const (
	FeeTypeTuition     = "tuition"
	FeeTypeSports      = "sports"
	FeeTypeLibrary     = "library"
	FeeTypeExam        = "exam"
	FeeTypeUniform     = "uniform"
	FeeTypeDevelopment = "development"
	FeeTypeOther       = "other"
)

// Fee represents a billable charge associated with a school and an academic term.
// This struct maps directly to the `fees` table in the database.
type Fee struct {
	ID              uuid.UUID  `json:"id"`
	SchoolID        uuid.UUID  `json:"school_id"`
	TermID          uuid.UUID  `json:"term_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Type            string     `json:"type"`
	Amount          int64      `json:"amount"` // in kobo
	IsActive        bool       `json:"is_active"`
	IsApproved      bool       `json:"is_approved"`
	Installments    *int       `json:"installments,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	ApprovedBy      *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsPayable reports whether students may pay against this fee. A fee is payable
// only when it is both active and approved.
func (f *Fee) IsPayable() bool {
	return f.IsActive && f.IsApproved
}

// CreateFeeParams is the DTO for incoming fee creation requests.
type CreateFeeParams struct {
	SchoolID     uuid.UUID  `json:"school_id"`
	TermID       uuid.UUID  `json:"term_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Type         string     `json:"type"`
	Amount       int64      `json:"amount"` // in kobo
	Installments *int       `json:"installments,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	IsApproved   bool       `json:"is_approved"` // pre-approval by authorized staff
}

// UpdateFeeParams carries the mutable fields of a fee. Nil pointers leave the
// stored value unchanged.
type UpdateFeeParams struct {
	Name         *string    `json:"name,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Type         *string    `json:"type,omitempty"`
	Amount       *int64     `json:"amount,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
	Installments *int       `json:"installments,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

// FeeFilters controls server-side filtering and pagination for fee listings.
type FeeFilters struct {
	SchoolID   *uuid.UUID
	TermID     *uuid.UUID
	Type       string
	IsActive   *bool
	IsApproved *bool
	Search     string
	Limit      int
	Offset     int
}

// Normalize trims free-text inputs and clamps pagination to sane bounds.
// Applying Normalize twice yields the same filters as applying it once.
func (f FeeFilters) Normalize() FeeFilters {
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	f.Search = strings.TrimSpace(f.Search)
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ValidFeeType reports whether t is one of the recognized fee type values.
func ValidFeeType(t string) bool {
	switch t {
	case FeeTypeTuition, FeeTypeSports, FeeTypeLibrary, FeeTypeExam,
		FeeTypeUniform, FeeTypeDevelopment, FeeTypeOther:
		return true
	}
	return false
}

// FeeStats aggregates fee counts and amounts for dashboard views. Amounts are in kobo.
type FeeStats struct {
	TotalFees    int64            `json:"total_fees"`
	ApprovedFees int64            `json:"approved_fees"`
	PendingFees  int64            `json:"pending_fees"`
	ActiveFees   int64            `json:"active_fees"`
	TotalAmount  int64            `json:"total_amount"`
	AmountByType map[string]int64 `json:"amount_by_type"`
}
