package app

import (
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/metrics"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
		go a.SchedProcessMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	// Status-column catch-up and reminder mail run after the day rolls over
	_, err = a.sched.AddFunc("15 0 * * *", func() {
		if err := a.RunMembershipExpirySweep(); err != nil {
			zap.S().Errorf("membership expiry sweep error %s", err.Error())
		}
		if err := a.RunExpiryReminders(); err != nil {
			zap.S().Errorf("expiry reminder error %s", err.Error())
		}
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.SchedClearExpireData()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	// Collect CPU usage
	_cpuuse, err := cpu.Percent(0, false)
	if err == nil && len(_cpuuse) > 0 {
		metrics.SetGauge("system_cpuuse", int64(_cpuuse[0]*100)) // Store as percentage * 100
	}

	// Collect memory usage
	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.SetGauge("system_memuse", int64(_meminfo.Used/1024/1024))
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}

	// Collect process CPU usage
	cpuuse, err := p.CPUPercent()
	if err == nil {
		metrics.SetGauge("gymd_cpuuse", int64(cpuuse*100))
	}

	// Collect process memory usage
	meminfo, err := p.MemoryInfo()
	if err == nil {
		metrics.SetGauge("gymd_memuse", int64(meminfo.RSS/1024/1024))
	}
}

// SchedClearExpireData prunes old operator audit logs
func (a *Application) SchedClearExpireData() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	a.gormDB.
		Where("opt_time < ? ", time.Now().
			Add(-time.Hour*24*365)).Delete(domain.SysOprLog{})
}

// RunMembershipExpirySweep marks memberships whose grace period has fully
// elapsed as EXPIRED. The stored status column is a convenience for list
// filters; door decisions always derive status from the end date, so this
// sweep only has to catch up, never to be exact.
func (a *Application) RunMembershipExpirySweep() error {
	grace := a.settings.GracePeriodDays()
	cutoff := common.Today(time.Now()).AddDate(0, 0, -grace)

	res := a.gormDB.Model(&domain.Membership{}).
		Where("status = ? AND end_date < ?", domain.MembershipActive, cutoff).
		Updates(map[string]interface{}{
			"status":     domain.MembershipExpired,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		zap.L().Info("membership expiry sweep",
			zap.Int64("expired", res.RowsAffected),
			zap.Int("grace_period_days", grace))
	}
	return nil
}
