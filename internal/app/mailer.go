package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

// RunExpiryReminders mails members whose active membership ends within the
// configured reminder window. Delivery failures are logged per member and
// never abort the run.
func (a *Application) RunExpiryReminders() error {
	smtp := a.settings.Current().Smtp
	if !smtp.Enabled || smtp.Host == "" {
		return nil
	}

	window := a.settings.ReminderDays()
	today := common.Today(time.Now())
	until := today.AddDate(0, 0, window)

	type reminderRow struct {
		Name    string
		Email   string
		EndDate time.Time
	}
	var rows []reminderRow
	err := a.gormDB.Model(&domain.Membership{}).
		Select("members.name as name, members.email as email, memberships.end_date as end_date").
		Joins("JOIN members ON members.id = memberships.member_id").
		Where("memberships.status = ?", domain.MembershipActive).
		Where("memberships.end_date >= ? AND memberships.end_date <= ?", today, until).
		Where("members.email <> ''").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	dialer := gomail.NewDialer(smtp.Host, smtp.Port, smtp.Username, smtp.Password)
	sent := 0
	for _, row := range rows {
		msg := gomail.NewMessage()
		msg.SetHeader("From", smtp.From)
		msg.SetHeader("To", row.Email)
		msg.SetHeader("Subject", "Your gym membership is expiring soon")
		msg.SetBody("text/plain", fmt.Sprintf(
			"Hi %s,\n\nYour membership ends on %s. Renew at the front desk to keep your access uninterrupted.\n",
			row.Name, row.EndDate.Format("2 Jan 2006")))
		if err := dialer.DialAndSend(msg); err != nil {
			zap.L().Warn("reminder mail failed",
				zap.String("email", row.Email),
				zap.Error(err))
			continue
		}
		sent++
	}

	zap.L().Info("expiry reminders sent",
		zap.Int("candidates", len(rows)),
		zap.Int("sent", sent),
		zap.Int("window_days", window))
	return nil
}
