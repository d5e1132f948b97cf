package app

import (
	"go.uber.org/zap"

	"github.com/fongpn/fmfalorsetar-sub000/internal/checkin"
	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/membership"
	"github.com/fongpn/fmfalorsetar-sub000/internal/pos"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/metrics"
)

// initEvents wires the domain event topics into the local metrics store.
// The services publish after commit; subscribers here only record, they
// never feed back into business logic.
func (a *Application) initEvents() {
	subscribe := func(topic string, fn interface{}) {
		if err := a.bus.Subscribe(topic, fn); err != nil {
			zap.L().Error("event subscription failed", zap.String("topic", topic), zap.Error(err))
		}
	}

	subscribe(checkin.TopicCheckin, func(ci *domain.CheckIn) {
		metrics.RecordEvent("checkin_total")
		metrics.RecordEvent("checkin_" + ci.Kind)
	})

	subscribe(pos.TopicSale, func(t *domain.Transaction) {
		metrics.RecordEvent("pos_sale_total")
		metrics.RecordValue("pos_sale_revenue", t.Amount)
	})

	subscribe(pos.TopicCouponSold, func(c *domain.SoldCoupon) {
		metrics.RecordEvent("coupon_sold_total")
	})

	subscribe(membership.TopicPurchased, func(m *domain.Membership) {
		metrics.RecordEvent("membership_purchase_total")
	})
}
