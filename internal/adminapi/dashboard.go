package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/metrics"
)

func registerDashboardRoutes() {
	webserver.ApiGET("/dashboard/overview", dashboardOverview)
	webserver.ApiGET("/dashboard/discrepancies", dashboardDiscrepancies)
	webserver.ApiGET("/dashboard/system", dashboardSystem)
}

type dashboardCounts struct {
	Members           int64 `json:"members"`
	ActiveMemberships int64 `json:"active_memberships"`
	CheckinsToday     int64 `json:"checkins_today"`
	OpenShifts        int64 `json:"open_shifts"`
	Products          int64 `json:"products"`
}

type dashboardOverviewResult struct {
	Counts       dashboardCounts `json:"counts"`
	RevenueToday float64         `json:"revenue_today"`
	PosSalesTday float64         `json:"pos_revenue_today"`
}

// dashboardOverview gathers headline counts in parallel. Counts come from
// the database; intraday revenue totals come from the local metrics store.
func dashboardOverview(c echo.Context) error {
	db := GetDB(c)
	today := common.Today(time.Now())

	var counts dashboardCounts
	var revenueToday float64

	var g errgroup.Group
	g.Go(func() error {
		return db.Model(&domain.Member{}).Count(&counts.Members).Error
	})
	g.Go(func() error {
		return db.Model(&domain.Membership{}).
			Where("status = ?", domain.MembershipActive).
			Count(&counts.ActiveMemberships).Error
	})
	g.Go(func() error {
		return db.Model(&domain.CheckIn{}).
			Where("created_at >= ?", today).
			Count(&counts.CheckinsToday).Error
	})
	g.Go(func() error {
		return db.Model(&domain.Shift{}).
			Where("status = ?", domain.ShiftActive).
			Count(&counts.OpenShifts).Error
	})
	g.Go(func() error {
		return db.Model(&domain.Product{}).
			Where("is_active = ?", true).
			Count(&counts.Products).Error
	})
	g.Go(func() error {
		var sum struct{ Total float64 }
		err := db.Model(&domain.Transaction{}).
			Select("COALESCE(SUM(amount), 0) AS total").
			Where("created_at >= ?", today).
			Scan(&sum).Error
		revenueToday = sum.Total
		return err
	})
	if err := g.Wait(); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute dashboard overview", err.Error())
	}

	return ok(c, dashboardOverviewResult{
		Counts:       counts,
		RevenueToday: revenueToday,
		PosSalesTday: metrics.SumSince("pos_sale_revenue", today),
	})
}

type discrepancySummary struct {
	Shifts       int     `json:"shifts"`
	WithVariance int     `json:"with_variance"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
}

// dashboardDiscrepancies summarizes cash variance across closed shifts in a
// window (default 30 days). A persistent non-zero mean is the signal to
// audit drawer handling.
func dashboardDiscrepancies(c echo.Context) error {
	days := int(GetAppContext(c).GetSettingsInt64Value("dashboard", "discrepancy_window_days"))
	if days <= 0 {
		days = 30
	}
	since := common.Today(time.Now()).AddDate(0, 0, -days)

	var shifts []domain.Shift
	if err := GetDB(c).
		Where("status = ? AND end_time >= ?", domain.ShiftClosed, since).
		Order("end_time DESC").
		Find(&shifts).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query closed shifts", err.Error())
	}

	summary := discrepancySummary{Shifts: len(shifts)}
	if len(shifts) == 0 {
		return ok(c, summary)
	}

	values := make([]float64, 0, len(shifts))
	for _, s := range shifts {
		values = append(values, s.CashDiscrepancy)
		if s.CashDiscrepancy != 0 {
			summary.WithVariance++
		}
	}
	summary.Mean, _ = stats.Mean(values)
	summary.Median, _ = stats.Median(values)
	summary.Min, _ = stats.Min(values)
	summary.Max, _ = stats.Max(values)
	return ok(c, summary)
}

// dashboardSystem exposes the process health gauges sampled by the cron
// monitor job.
func dashboardSystem(c echo.Context) error {
	return ok(c, map[string]interface{}{
		"system_cpu_percent": metrics.Latest("system_cpuuse"),
		"system_mem_percent": metrics.Latest("system_memuse"),
		"gymd_cpu_percent":   metrics.Latest("gymd_cpuuse"),
		"gymd_mem_mb":        metrics.Latest("gymd_memuse"),
		"checkins_today":     metrics.SumSince("checkin_total", common.Today(time.Now())),
	})
}
