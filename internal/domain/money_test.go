package domain

import "testing"

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name string
		kobo int64
		want string
	}{
		{name: "zero", kobo: 0, want: "₦0"},
		{name: "whole naira grouping", kobo: 1_000_000, want: "₦10,000"},
		{name: "three digit naira", kobo: 50_000, want: "₦500"},
		{name: "kobo remainder", kobo: 1_000_050, want: "₦10,000.50"},
		{name: "single kobo", kobo: 1, want: "₦0.01"},
		{name: "millions", kobo: 123_456_789_00, want: "₦123,456,789"},
		{name: "negative", kobo: -250_000, want: "-₦2,500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAmount(tt.kobo); got != tt.want {
				t.Fatalf("FormatAmount(%d) = %q, want %q", tt.kobo, got, tt.want)
			}
		})
	}
}

func TestFormatAmountPtr(t *testing.T) {
	if got := FormatAmountPtr(nil); got != FormatAmount(0) {
		t.Fatalf("nil amount formatted as %q, want %q", got, FormatAmount(0))
	}
	v := int64(1_000_050)
	if got := FormatAmountPtr(&v); got != "₦10,000.50" {
		t.Fatalf("FormatAmountPtr(&%d) = %q", v, got)
	}
}

func TestInstallmentAmount(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		n     int
		want  int64
	}{
		{name: "uneven split rounds up", total: 1000, n: 3, want: 334},
		{name: "even split", total: 30000, n: 3, want: 10000},
		{name: "single installment", total: 5000, n: 1, want: 5000},
		{name: "zero count returns total", total: 5000, n: 0, want: 5000},
		{name: "negative count returns total", total: 5000, n: -2, want: 5000},
		{name: "more installments than units", total: 2, n: 3, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InstallmentAmount(tt.total, tt.n); got != tt.want {
				t.Fatalf("InstallmentAmount(%d, %d) = %d, want %d", tt.total, tt.n, got, tt.want)
			}
		})
	}
}

func TestInstallmentAmount_CoversTotal(t *testing.T) {
	// n installments at the computed amount must always cover the total.
	for _, n := range []int{2, 3, 5, 7, 12} {
		total := int64(1_000_003)
		per := InstallmentAmount(total, n)
		if per*int64(n) < total {
			t.Fatalf("%d installments of %d do not cover total %d", n, per, total)
		}
	}
}

func TestOutstandingAmount(t *testing.T) {
	feeAmount := int64(30_000)

	t.Run("no payments equals fee amount", func(t *testing.T) {
		if got := OutstandingAmount(feeAmount, nil); got != feeAmount {
			t.Fatalf("expected %d, got %d", feeAmount, got)
		}
	})

	t.Run("only successful payments count", func(t *testing.T) {
		payments := []Payment{
			{Amount: 10_000, Status: PaymentStatusSuccess},
			{Amount: 10_000, Status: PaymentStatusPending},
			{Amount: 10_000, Status: PaymentStatusFailed},
		}
		if got := OutstandingAmount(feeAmount, payments); got != 20_000 {
			t.Fatalf("expected 20000, got %d", got)
		}
	})

	t.Run("overpayment clamps to zero", func(t *testing.T) {
		payments := []Payment{
			{Amount: 25_000, Status: PaymentStatusSuccess},
			{Amount: 25_000, Status: PaymentStatusSuccess},
		}
		if got := OutstandingAmount(feeAmount, payments); got != 0 {
			t.Fatalf("expected 0, got %d", got)
		}
	})
}

func TestIsInstallmentComplete(t *testing.T) {
	payments := []Payment{
		{Amount: 15_000, Status: PaymentStatusSuccess},
		{Amount: 15_000, Status: PaymentStatusSuccess},
	}
	if !IsInstallmentComplete(30_000, payments) {
		t.Fatal("expected installments to be complete")
	}
	if IsInstallmentComplete(40_000, payments) {
		t.Fatal("did not expect installments to be complete")
	}
}

func TestFeeFilters_NormalizeIsIdempotent(t *testing.T) {
	f := FeeFilters{Type: "  Tuition ", Search: " term fee ", Limit: 0, Offset: -5}
	once := f.Normalize()
	twice := once.Normalize()
	if once != twice {
		t.Fatalf("Normalize must be idempotent: %+v != %+v", once, twice)
	}
	if once.Type != "tuition" || once.Search != "term fee" {
		t.Fatalf("unexpected normalization: %+v", once)
	}
	if once.Limit != 50 || once.Offset != 0 {
		t.Fatalf("unexpected pagination defaults: %+v", once)
	}
}
