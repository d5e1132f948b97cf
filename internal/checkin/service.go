package checkin

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/membership"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

var (
	ErrMemberNotFound         = errors.New("member not found")
	ErrMemberExpired          = errors.New("membership has expired")
	ErrDuplicateUnconfirmed   = errors.New("member already checked in today, confirmation required")
	ErrCouponNotFound         = errors.New("coupon not found")
	ErrCouponExpired          = errors.New("coupon has expired")
	ErrCouponExhausted        = errors.New("coupon has no entries remaining")
	ErrShiftNotActive         = errors.New("shift is not active")
	ErrUnknownCheckinKind     = errors.New("unknown check-in kind")
)

// Event topics published after successful check-ins.
const (
	TopicCheckin = "checkin:recorded"
)

// Repository is the persistence surface the check-in service needs.
type Repository interface {
	Atomically(ctx context.Context, fn func(Repository) error) error
	GetMember(ctx context.Context, id int64) (*domain.Member, error)
	ActiveMembership(ctx context.Context, memberID int64) (*domain.Membership, error)
	GetCouponByCode(ctx context.Context, code string) (*domain.SoldCoupon, error)
	// DecrementCouponEntry performs a conditional decrement of
	// entries_remaining and reports whether a row was updated. It must be
	// atomic: two concurrent check-ins against a one-entry coupon see
	// exactly one success.
	DecrementCouponEntry(ctx context.Context, couponID int64) (bool, error)
	HasCheckinOn(ctx context.Context, memberID int64, day time.Time) (bool, error)
	CreateCheckin(ctx context.Context, ci *domain.CheckIn) error
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	// ActiveShift returns the shift when it exists and is ACTIVE, holding a
	// row lock for the rest of the enclosing transaction.
	ActiveShift(ctx context.Context, shiftID int64) (*domain.Shift, error)
}

// Settings supplies the door rates and grace period.
type Settings interface {
	GracePeriodDays() int
	WalkInRate() float64
	WalkInStudentRate() float64
}

// Publisher is the in-process event bus surface.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

// Service dispatches front-desk check-ins by kind. Every branch runs as a
// single database transaction: a failure anywhere rolls back the whole
// entry, never leaving a payment without its check-in row.
type Service struct {
	repo     Repository
	settings Settings
	bus      Publisher
	now      func() time.Time
}

func NewService(repo Repository, settings Settings, bus Publisher) *Service {
	return &Service{repo: repo, settings: settings, bus: bus, now: time.Now}
}

// Result is returned to the operator for every successful check-in.
type Result struct {
	CheckIn *domain.CheckIn          `json:"check_in"`
	Status  membership.StatusResult  `json:"status,omitempty"`
	// Warning is a non-blocking message the operator should see (grace
	// period entry, confirmed duplicate).
	Warning string `json:"warning,omitempty"`
}

// MemberInput is a member-pass check-in request.
type MemberInput struct {
	MemberId int64
	ShiftId  int64
	StaffId  int64
	// ConfirmDuplicate acknowledges a second check-in on the same day.
	ConfirmDuplicate bool
}

// Member validates the member's current lifecycle status and records the
// entry. EXPIRED members are rejected; IN_GRACE members are admitted with
// a warning; a duplicate same-day check-in is admitted only when the
// operator explicitly confirms it, and is flagged either way.
func (s *Service) Member(ctx context.Context, in MemberInput) (*Result, error) {
	res := &Result{}
	err := s.repo.Atomically(ctx, func(r Repository) error {
		member, err := r.GetMember(ctx, in.MemberId)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}
		shift, err := r.ActiveShift(ctx, in.ShiftId)
		if err != nil {
			return err
		}
		if shift == nil {
			return ErrShiftNotActive
		}

		active, err := r.ActiveMembership(ctx, in.MemberId)
		if err != nil {
			return err
		}
		if active == nil {
			res.Status = membership.NoMembership()
			return ErrMemberExpired
		}
		res.Status = membership.Evaluate(active.EndDate, s.settings.GracePeriodDays(), s.now())
		if res.Status.Status == membership.StatusExpired {
			return ErrMemberExpired
		}

		dup, err := r.HasCheckinOn(ctx, in.MemberId, s.now())
		if err != nil {
			return err
		}
		if dup && !in.ConfirmDuplicate {
			return ErrDuplicateUnconfirmed
		}

		ci := &domain.CheckIn{
			ID:            common.UUIDint64(),
			Kind:          domain.CheckinMember,
			MemberId:      member.ID,
			ShiftId:       shift.ID,
			StaffId:       in.StaffId,
			StatusAtEntry: string(res.Status.Status),
			Flagged:       dup,
			CheckinTime:   s.now(),
		}
		if res.Status.Status == membership.StatusInGrace {
			res.Warning = "membership expired, within grace period"
		}
		if dup {
			ci.Remark = "duplicate same-day check-in, operator confirmed"
			res.Warning = "duplicate same-day check-in"
		}
		if err = r.CreateCheckin(ctx, ci); err != nil {
			return err
		}
		res.CheckIn = ci
		return nil
	})
	if err != nil {
		return res, err
	}
	s.publish(res.CheckIn)
	return res, nil
}

// CouponInput is a coupon-pass check-in request.
type CouponInput struct {
	Code    string
	ShiftId int64
	StaffId int64
}

// Coupon admits a coupon holder, consuming exactly one entry. The
// decrement is conditional on entries remaining, so a coupon can never be
// driven below zero by concurrent use.
func (s *Service) Coupon(ctx context.Context, in CouponInput) (*Result, error) {
	res := &Result{}
	err := s.repo.Atomically(ctx, func(r Repository) error {
		coupon, err := r.GetCouponByCode(ctx, in.Code)
		if err != nil {
			return err
		}
		if coupon == nil {
			return ErrCouponNotFound
		}
		if common.Today(s.now()).After(common.Today(coupon.ExpiryDate)) {
			return ErrCouponExpired
		}
		if coupon.EntriesRemaining <= 0 {
			return ErrCouponExhausted
		}
		shift, err := r.ActiveShift(ctx, in.ShiftId)
		if err != nil {
			return err
		}
		if shift == nil {
			return ErrShiftNotActive
		}

		decremented, err := r.DecrementCouponEntry(ctx, coupon.ID)
		if err != nil {
			return err
		}
		if !decremented {
			// lost the race to the last entry
			return ErrCouponExhausted
		}

		ci := &domain.CheckIn{
			ID:           common.UUIDint64(),
			Kind:         domain.CheckinCoupon,
			MemberId:     coupon.MemberId,
			SoldCouponId: coupon.ID,
			ShiftId:      shift.ID,
			StaffId:      in.StaffId,
			CheckinTime:  s.now(),
		}
		if err = r.CreateCheckin(ctx, ci); err != nil {
			return err
		}
		res.CheckIn = ci
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(res.CheckIn)
	return res, nil
}

// WalkInInput is a pay-at-the-door check-in request.
type WalkInInput struct {
	Student       bool
	ShiftId       int64
	StaffId       int64
	PaymentMethod string
}

// WalkIn records a walk-in entry at the configured flat rate, creating the
// payment transaction and the check-in row together.
func (s *Service) WalkIn(ctx context.Context, in WalkInInput) (*Result, error) {
	kind := domain.CheckinWalkIn
	rate := s.settings.WalkInRate()
	if in.Student {
		kind = domain.CheckinWalkInStudent
		rate = s.settings.WalkInStudentRate()
	}

	res := &Result{}
	err := s.repo.Atomically(ctx, func(r Repository) error {
		shift, err := r.ActiveShift(ctx, in.ShiftId)
		if err != nil {
			return err
		}
		if shift == nil {
			return ErrShiftNotActive
		}

		if err = r.CreateTransaction(ctx, &domain.Transaction{
			ID:            common.UUIDint64(),
			ShiftId:       shift.ID,
			StaffId:       in.StaffId,
			Type:          domain.TransWalkIn,
			Amount:        rate,
			PaymentMethod: in.PaymentMethod,
			Status:        domain.TransPaid,
			Remark:        kind,
		}); err != nil {
			return err
		}

		ci := &domain.CheckIn{
			ID:          common.UUIDint64(),
			Kind:        kind,
			ShiftId:     shift.ID,
			StaffId:     in.StaffId,
			CheckinTime: s.now(),
		}
		if err = r.CreateCheckin(ctx, ci); err != nil {
			return err
		}
		res.CheckIn = ci
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(res.CheckIn)
	return res, nil
}

func (s *Service) publish(ci *domain.CheckIn) {
	zap.L().Info("check-in recorded",
		zap.String("kind", ci.Kind),
		zap.Int64("member_id", ci.MemberId),
		zap.Int64("shift_id", ci.ShiftId))
	if s.bus != nil {
		s.bus.Publish(TopicCheckin, ci)
	}
}
