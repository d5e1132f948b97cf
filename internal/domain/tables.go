package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	// Members
	&Member{},
	&Membership{},
	&MembershipPlan{},
	// Operations
	&Shift{},
	&Transaction{},
	&CheckIn{},
	// Coupons
	&CouponTemplate{},
	&SoldCoupon{},
	// Retail
	&Product{},
	&StockMovement{},
}
