package shift

import (
	"time"

	"github.com/guonaihong/gout"
	"go.uber.org/zap"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
)

// WebhookSettings supplies the discrepancy webhook target. An empty URL
// disables delivery.
type WebhookSettings interface {
	DiscrepancyWebhookURL() string
}

// WebhookNotifier posts shift-close discrepancies to a configured HTTP
// endpoint. Delivery is fire-and-forget: the close has already committed
// and a webhook failure is only logged.
type WebhookNotifier struct {
	settings WebhookSettings
}

var _ Notifier = (*WebhookNotifier)(nil)

func NewWebhookNotifier(settings WebhookSettings) *WebhookNotifier {
	return &WebhookNotifier{settings: settings}
}

func (n *WebhookNotifier) NotifyDiscrepancy(s *domain.Shift) {
	url := n.settings.DiscrepancyWebhookURL()
	if url == "" {
		return
	}
	go func() {
		err := gout.POST(url).
			SetTimeout(10 * time.Second).
			SetJSON(gout.H{
				"event":                  "shift_cash_discrepancy",
				"shift_id":               s.ID,
				"ending_staff_id":        s.EndingStaffId,
				"system_calculated_cash": s.SystemCalculatedCash,
				"ending_cash_balance":    s.EndingCashBalance,
				"cash_discrepancy":       s.CashDiscrepancy,
				"closed_at":              s.EndTime,
			}).
			Do()
		if err != nil {
			zap.L().Warn("discrepancy webhook delivery failed",
				zap.Int64("shift_id", s.ID),
				zap.String("url", url),
				zap.Error(err))
		}
	}()
}
