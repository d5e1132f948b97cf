package shift

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name            string
		float           float64
		txns            []domain.Transaction
		counted         float64
		wantRevenue     float64
		wantExpected    float64
		wantDiscrepancy float64
	}{
		{
			name:  "missing cash",
			float: 100.00,
			txns: []domain.Transaction{
				{Type: domain.TransMembership, Amount: 200.00},
				{Type: domain.TransWalkIn, Amount: 10.00},
				{Type: domain.TransPosSale, Amount: 35.50},
			},
			counted:         340.00,
			wantRevenue:     245.50,
			wantExpected:    345.50,
			wantDiscrepancy: -5.50,
		},
		{
			name:  "drawer balances",
			float: 50.00,
			txns: []domain.Transaction{
				{Type: domain.TransCouponSale, Amount: 60.00},
				{Type: domain.TransRegFee, Amount: 50.00},
			},
			counted:         160.00,
			wantRevenue:     110.00,
			wantExpected:    160.00,
			wantDiscrepancy: 0,
		},
		{
			name:            "no transactions",
			float:           100.00,
			counted:         100.00,
			wantExpected:    100.00,
			wantDiscrepancy: 0,
		},
		{
			name:  "surplus cash",
			float: 100.00,
			txns: []domain.Transaction{
				{Type: domain.TransWalkIn, Amount: 10.00},
			},
			counted:         115.00,
			wantRevenue:     10.00,
			wantExpected:    110.00,
			wantDiscrepancy: 5.00,
		},
		{
			name:  "unknown types excluded",
			float: 100.00,
			txns: []domain.Transaction{
				{Type: domain.TransWalkIn, Amount: 10.00},
				{Type: "REFUND", Amount: 99.00},
			},
			counted:         110.00,
			wantRevenue:     10.00,
			wantExpected:    110.00,
			wantDiscrepancy: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.float, tt.txns, tt.counted)
			assert.InDelta(t, tt.wantRevenue, got.TotalRevenue, 0.001)
			assert.InDelta(t, tt.wantExpected, got.SystemCalculatedCash, 0.001)
			assert.InDelta(t, tt.wantDiscrepancy, got.CashDiscrepancy, 0.001)
		})
	}
}
