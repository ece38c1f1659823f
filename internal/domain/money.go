/**
 * @description
 * Money helpers shared by the service and API layers: currency display formatting,
 * installment arithmetic, and outstanding-balance derivation. All inputs and
 * outputs are kobo (`int64`) except where noted.
 */

package domain

import (
	"fmt"
	"strconv"
)

const nairaSign = "₦"

// FormatAmount renders a kobo amount as a display currency string, e.g.
// 1_000_000 kobo -> "₦10,000". Kobo remainders render as two decimals.
func FormatAmount(kobo int64) string {
	negative := kobo < 0
	if negative {
		kobo = -kobo
	}
	naira := kobo / 100
	rem := kobo % 100

	out := groupThousands(naira)
	if rem != 0 {
		out = fmt.Sprintf("%s.%02d", out, rem)
	}
	if negative {
		return "-" + nairaSign + out
	}
	return nairaSign + out
}

// FormatAmountPtr is FormatAmount over an optional amount. A nil pointer
// formats the same as zero so callers never branch on missing amounts.
func FormatAmountPtr(kobo *int64) string {
	if kobo == nil {
		return FormatAmount(0)
	}
	return FormatAmount(*kobo)
}

// InstallmentAmount returns the per-installment amount for a total split over n
// installments, rounding up so n installments always cover the total. A count
// below 1 means no installment plan and returns the total unchanged.
func InstallmentAmount(total int64, n int) int64 {
	if n <= 1 {
		return total
	}
	return (total + int64(n) - 1) / int64(n)
}

// OutstandingAmount returns what remains to be paid on a fee of the given amount,
// counting only successful payments. The result is never negative.
func OutstandingAmount(feeAmount int64, payments []Payment) int64 {
	var paid int64
	for _, p := range payments {
		if p.Status == PaymentStatusSuccess {
			paid += p.Amount
		}
	}
	if paid >= feeAmount {
		return 0
	}
	return feeAmount - paid
}

// IsInstallmentComplete reports whether successful payments fully cover the fee.
func IsInstallmentComplete(feeAmount int64, payments []Payment) bool {
	return OutstandingAmount(feeAmount, payments) == 0
}

func groupThousands(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	first := len(s) % 3
	if first == 0 {
		first = 3
	}
	out := s[:first]
	for i := first; i < len(s); i += 3 {
		out += "," + s[i:i+3]
	}
	return out
}
