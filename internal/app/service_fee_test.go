package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/classpoint/fees-service/internal/domain"
	"github.com/classpoint/fees-service/internal/store"
)

type feeRepoStub struct {
	store.Repository

	createdFee *domain.Fee

	paymentCount int64

	deactivateCalled bool
	deleteCalled     bool

	rejectedReason string

	fee          *domain.Fee
	approveCalls int
	listFilters  domain.FeeFilters
}

func (s *feeRepoStub) CreateFee(ctx context.Context, fee *domain.Fee) error {
	s.createdFee = fee
	return nil
}

func (s *feeRepoStub) CountPaymentsForFee(ctx context.Context, feeID uuid.UUID) (int64, error) {
	return s.paymentCount, nil
}

func (s *feeRepoStub) DeactivateFee(ctx context.Context, feeID uuid.UUID) (*domain.Fee, error) {
	s.deactivateCalled = true
	return &domain.Fee{ID: feeID, IsActive: false}, nil
}

func (s *feeRepoStub) DeleteFee(ctx context.Context, feeID uuid.UUID) error {
	s.deleteCalled = true
	return nil
}

func (s *feeRepoStub) GetFeeByID(ctx context.Context, feeID uuid.UUID) (*domain.Fee, error) {
	if s.fee == nil {
		return nil, store.ErrFeeNotFound
	}
	return s.fee, nil
}

func (s *feeRepoStub) ApproveFee(ctx context.Context, feeID uuid.UUID, approverID uuid.UUID) (*domain.Fee, error) {
	s.approveCalls++
	approved := *s.fee
	approved.IsApproved = true
	approved.ApprovedBy = &approverID
	return &approved, nil
}

func (s *feeRepoStub) ListFees(ctx context.Context, filters domain.FeeFilters) ([]domain.Fee, error) {
	s.listFilters = filters
	return nil, nil
}

func (s *feeRepoStub) RejectFee(ctx context.Context, feeID uuid.UUID, rejectorID uuid.UUID, reason string) (*domain.Fee, error) {
	s.rejectedReason = reason
	return &domain.Fee{ID: feeID, IsApproved: false, RejectedBy: &rejectorID, RejectionReason: &reason}, nil
}

func newFeeTestService(repo store.Repository) *Service {
	return NewService(repo, nil, nil, nil, "classpoint.events", "https://pay.classpoint.test")
}

func TestCreateFee_RejectsBlankNameAndBadAmount(t *testing.T) {
	svc := newFeeTestService(&feeRepoStub{})

	_, err := svc.CreateFee(context.Background(), uuid.New(), domain.CreateFeeParams{
		Name:   "   ",
		Amount: 100_000,
	})
	if !errors.Is(err, ErrInvalidFeeName) {
		t.Fatalf("expected ErrInvalidFeeName, got %v", err)
	}

	_, err = svc.CreateFee(context.Background(), uuid.New(), domain.CreateFeeParams{
		Name:   "Tuition",
		Amount: 0,
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	_, err = svc.CreateFee(context.Background(), uuid.New(), domain.CreateFeeParams{
		Name:   "Tuition",
		Amount: 100_000,
		Type:   "levitation",
	})
	if !errors.Is(err, ErrInvalidFeeType) {
		t.Fatalf("expected ErrInvalidFeeType, got %v", err)
	}
}

func TestCreateFee_StartsActiveAndUnapproved(t *testing.T) {
	repo := &feeRepoStub{}
	svc := newFeeTestService(repo)
	creator := uuid.New()

	fee, err := svc.CreateFee(context.Background(), creator, domain.CreateFeeParams{
		SchoolID: uuid.New(),
		Name:     "  Second Term Tuition ",
		Amount:   1_000_000,
	})
	if err != nil {
		t.Fatalf("expected fee to be created, got %v", err)
	}
	if fee.Name != "Second Term Tuition" {
		t.Fatalf("expected trimmed name, got %q", fee.Name)
	}
	if fee.Type != domain.FeeTypeOther {
		t.Fatalf("expected type to default to %q, got %q", domain.FeeTypeOther, fee.Type)
	}
	if !fee.IsActive || fee.IsApproved {
		t.Fatalf("expected active unapproved fee, got active=%v approved=%v", fee.IsActive, fee.IsApproved)
	}
	if fee.IsPayable() {
		t.Fatal("unapproved fee must not be payable")
	}
	if repo.createdFee == nil {
		t.Fatal("expected fee to be persisted")
	}
	if fee.CreatedBy != creator {
		t.Fatalf("expected creator %s, got %s", creator, fee.CreatedBy)
	}
}

func TestCreateFee_PreApprovedStampsApprover(t *testing.T) {
	svc := newFeeTestService(&feeRepoStub{})
	creator := uuid.New()

	fee, err := svc.CreateFee(context.Background(), creator, domain.CreateFeeParams{
		SchoolID:   uuid.New(),
		Name:       "Sports Levy",
		Type:       "sports",
		Amount:     250_000,
		IsApproved: true,
	})
	if err != nil {
		t.Fatalf("expected fee to be created, got %v", err)
	}
	if !fee.IsApproved || fee.ApprovedBy == nil || *fee.ApprovedBy != creator || fee.ApprovedAt == nil {
		t.Fatal("expected pre-approved fee to carry approval stamp")
	}
	if !fee.IsPayable() {
		t.Fatal("pre-approved active fee must be payable")
	}
}

func TestApproveFee_StampsApprover(t *testing.T) {
	repo := &feeRepoStub{fee: &domain.Fee{ID: uuid.New(), IsActive: true}}
	svc := newFeeTestService(repo)
	approver := uuid.New()

	fee, err := svc.ApproveFee(context.Background(), repo.fee.ID, approver)
	if err != nil {
		t.Fatalf("expected approval to succeed, got %v", err)
	}
	if !fee.IsApproved || fee.ApprovedBy == nil || *fee.ApprovedBy != approver {
		t.Fatal("expected the fee to carry the approver's stamp")
	}
	if !fee.IsPayable() {
		t.Fatal("approved active fee must be payable")
	}
}

func TestApproveFee_AlreadyApprovedIsNoOp(t *testing.T) {
	original := uuid.New()
	repo := &feeRepoStub{fee: &domain.Fee{
		ID:         uuid.New(),
		IsActive:   true,
		IsApproved: true,
		ApprovedBy: &original,
	}}
	svc := newFeeTestService(repo)

	fee, err := svc.ApproveFee(context.Background(), repo.fee.ID, uuid.New())
	if err != nil {
		t.Fatalf("expected re-approval to succeed, got %v", err)
	}
	if fee.ApprovedBy == nil || *fee.ApprovedBy != original {
		t.Fatal("re-approval must preserve the original approver stamp")
	}
	if repo.approveCalls != 0 {
		t.Fatalf("expected no approval write for an approved fee, got %d", repo.approveCalls)
	}
}

func TestApproveFee_UnknownFee(t *testing.T) {
	svc := newFeeTestService(&feeRepoStub{})

	if _, err := svc.ApproveFee(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, store.ErrFeeNotFound) {
		t.Fatalf("expected ErrFeeNotFound, got %v", err)
	}
}

func TestListPendingApprovals_FiltersUnapprovedOnly(t *testing.T) {
	repo := &feeRepoStub{}
	svc := newFeeTestService(repo)
	schoolID := uuid.New()

	if _, err := svc.ListPendingApprovals(context.Background(), schoolID); err != nil {
		t.Fatalf("expected listing to succeed, got %v", err)
	}
	if repo.listFilters.SchoolID == nil || *repo.listFilters.SchoolID != schoolID {
		t.Fatal("pending approvals must be scoped to the school")
	}
	if repo.listFilters.IsApproved == nil || *repo.listFilters.IsApproved {
		t.Fatal("pending approvals must select unapproved fees only")
	}
}

func TestRejectFee_RequiresReason(t *testing.T) {
	repo := &feeRepoStub{}
	svc := newFeeTestService(repo)

	if _, err := svc.RejectFee(context.Background(), uuid.New(), uuid.New(), "   "); !errors.Is(err, ErrRejectionReasonRequired) {
		t.Fatalf("expected ErrRejectionReasonRequired, got %v", err)
	}

	fee, err := svc.RejectFee(context.Background(), uuid.New(), uuid.New(), " amount does not match the approved budget ")
	if err != nil {
		t.Fatalf("expected rejection to succeed, got %v", err)
	}
	if repo.rejectedReason != "amount does not match the approved budget" {
		t.Fatalf("expected trimmed reason to be persisted, got %q", repo.rejectedReason)
	}
	if fee.IsApproved {
		t.Fatal("rejected fee must not be approved")
	}
}

func TestDeleteFee_DeactivatesWhenPaymentsExist(t *testing.T) {
	repo := &feeRepoStub{paymentCount: 3}
	svc := newFeeTestService(repo)

	softDeleted, err := svc.DeleteFee(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	if !softDeleted {
		t.Fatal("expected fee with payments to be deactivated, not deleted")
	}
	if !repo.deactivateCalled || repo.deleteCalled {
		t.Fatalf("expected deactivate only, got deactivate=%v delete=%v", repo.deactivateCalled, repo.deleteCalled)
	}
}

func TestDeleteFee_HardDeletesWithoutPayments(t *testing.T) {
	repo := &feeRepoStub{paymentCount: 0}
	svc := newFeeTestService(repo)

	softDeleted, err := svc.DeleteFee(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	if softDeleted {
		t.Fatal("expected fee without payments to be removed outright")
	}
	if repo.deactivateCalled || !repo.deleteCalled {
		t.Fatalf("expected delete only, got deactivate=%v delete=%v", repo.deactivateCalled, repo.deleteCalled)
	}
}

func TestUpdateFee_ValidatesProvidedFields(t *testing.T) {
	svc := newFeeTestService(&feeRepoStub{})

	blank := "  "
	if _, err := svc.UpdateFee(context.Background(), uuid.New(), domain.UpdateFeeParams{Name: &blank}); !errors.Is(err, ErrInvalidFeeName) {
		t.Fatalf("expected ErrInvalidFeeName, got %v", err)
	}

	negative := int64(-500)
	if _, err := svc.UpdateFee(context.Background(), uuid.New(), domain.UpdateFeeParams{Amount: &negative}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	badType := "levitation"
	if _, err := svc.UpdateFee(context.Background(), uuid.New(), domain.UpdateFeeParams{Type: &badType}); !errors.Is(err, ErrInvalidFeeType) {
		t.Fatalf("expected ErrInvalidFeeType, got %v", err)
	}
}
