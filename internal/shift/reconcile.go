package shift

import (
	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
)

// revenueTypes are the transaction types that contribute to the drawer
// during a shift. Every monetary event the counter records is revenue.
var revenueTypes = map[string]bool{
	domain.TransPosSale:    true,
	domain.TransWalkIn:     true,
	domain.TransMembership: true,
	domain.TransRegFee:     true,
	domain.TransCouponSale: true,
}

// Reconciliation is the computed drawer state at shift close.
type Reconciliation struct {
	TotalRevenue         float64 `json:"total_revenue"`
	SystemCalculatedCash float64 `json:"system_calculated_cash"`
	CashDiscrepancy      float64 `json:"cash_discrepancy"`
}

// Reconcile computes the expected drawer contents from the starting float
// and the shift's transactions, and the discrepancy against the physically
// counted amount. A non-zero discrepancy is reported, never an error:
// closing a shift with a discrepancy is allowed and audited.
func Reconcile(startingFloat float64, txns []domain.Transaction, actualCounted float64) Reconciliation {
	var revenue float64
	for _, t := range txns {
		if revenueTypes[t.Type] {
			revenue += t.Amount
		}
	}
	expected := startingFloat + revenue
	return Reconciliation{
		TotalRevenue:         revenue,
		SystemCalculatedCash: expected,
		CashDiscrepancy:      actualCounted - expected,
	}
}
