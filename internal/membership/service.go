package membership

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrPlanNotFound   = errors.New("membership plan not found")
	ErrPlanInactive   = errors.New("membership plan is not active")
	ErrShiftNotActive = errors.New("shift is not active")
)

// Repository is the persistence surface the membership service needs.
// Implementations must make Atomically run fn against a single database
// transaction.
type Repository interface {
	Atomically(ctx context.Context, fn func(Repository) error) error
	GetMember(ctx context.Context, id int64) (*domain.Member, error)
	GetPlan(ctx context.Context, id int64) (*domain.MembershipPlan, error)
	// ActiveMembership returns the member's single ACTIVE membership row,
	// or nil when there is none.
	ActiveMembership(ctx context.Context, memberID int64) (*domain.Membership, error)
	ExpireMembership(ctx context.Context, id int64) error
	CreateMembership(ctx context.Context, m *domain.Membership) error
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	// ActiveShift returns the shift when it exists and is ACTIVE, holding a
	// row lock for the rest of the enclosing transaction.
	ActiveShift(ctx context.Context, shiftID int64) (*domain.Shift, error)
}

// Settings supplies the business configuration the service reads. Values
// are immutable per call.
type Settings interface {
	GracePeriodDays() int
	RegistrationFee() float64
}

// Publisher is the in-process event bus surface.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

// Service derives membership status and handles purchases and renewals.
type Service struct {
	repo     Repository
	settings Settings
	bus      Publisher
	now      func() time.Time
}

func NewService(repo Repository, settings Settings, bus Publisher) *Service {
	return &Service{repo: repo, settings: settings, bus: bus, now: time.Now}
}

// Status evaluates the member's current lifecycle state. A member with no
// ACTIVE membership row is EXPIRED with no days-until-expiry.
func (s *Service) Status(ctx context.Context, memberID int64) (StatusResult, *domain.Membership, error) {
	m, err := s.repo.ActiveMembership(ctx, memberID)
	if err != nil {
		return StatusResult{}, nil, errors.Wrap(err, "query active membership")
	}
	if m == nil {
		return NoMembership(), nil, nil
	}
	return Evaluate(m.EndDate, s.settings.GracePeriodDays(), s.now()), m, nil
}

// PeriodEnd computes the end date of a membership period starting at start:
// the plan duration plus any free bonus months, in calendar months.
func PeriodEnd(start time.Time, plan *domain.MembershipPlan) time.Time {
	return common.Today(start).AddDate(0, plan.DurationMonths+plan.FreeMonths, 0)
}

// PurchaseInput describes a membership purchase or renewal rung up at the
// counter.
type PurchaseInput struct {
	MemberId      int64
	PlanId        int64
	ShiftId       int64
	StaffId       int64
	PaymentMethod string
	// ChargeRegFee additionally records a registration fee transaction at
	// the configured rate. The handler sets it for first-time signups on
	// plans that require it.
	ChargeRegFee bool
}

// Purchase creates a new ACTIVE membership for the member and records the
// payment against the operator's shift. When the member already holds an
// ACTIVE membership it is marked EXPIRED in the same database transaction
// and the new period starts the day after its end date, so remaining time
// is not lost on early renewal.
func (s *Service) Purchase(ctx context.Context, in PurchaseInput) (*domain.Membership, error) {
	var created *domain.Membership
	err := s.repo.Atomically(ctx, func(r Repository) error {
		member, err := r.GetMember(ctx, in.MemberId)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}
		plan, err := r.GetPlan(ctx, in.PlanId)
		if err != nil {
			return err
		}
		if plan == nil {
			return ErrPlanNotFound
		}
		if !plan.IsActive {
			return ErrPlanInactive
		}
		shift, err := r.ActiveShift(ctx, in.ShiftId)
		if err != nil {
			return err
		}
		if shift == nil {
			return ErrShiftNotActive
		}

		today := common.Today(s.now())
		start := today
		prior, err := r.ActiveMembership(ctx, in.MemberId)
		if err != nil {
			return err
		}
		if prior != nil {
			if end := common.Today(prior.EndDate); !end.Before(today) {
				start = end.AddDate(0, 0, 1)
			}
			if err = r.ExpireMembership(ctx, prior.ID); err != nil {
				return err
			}
		}

		created = &domain.Membership{
			ID:        common.UUIDint64(),
			MemberId:  member.ID,
			PlanId:    plan.ID,
			StartDate: start,
			EndDate:   PeriodEnd(start, plan),
			Status:    domain.MembershipActive,
		}
		if err = r.CreateMembership(ctx, created); err != nil {
			return err
		}

		if err = r.CreateTransaction(ctx, &domain.Transaction{
			ID:            common.UUIDint64(),
			ShiftId:       shift.ID,
			StaffId:       in.StaffId,
			MemberId:      member.ID,
			Type:          domain.TransMembership,
			Amount:        plan.Price,
			PaymentMethod: in.PaymentMethod,
			Status:        domain.TransPaid,
			Remark:        plan.Name,
		}); err != nil {
			return err
		}

		if in.ChargeRegFee && plan.RegFeeRequired {
			if err = r.CreateTransaction(ctx, &domain.Transaction{
				ID:            common.UUIDint64(),
				ShiftId:       shift.ID,
				StaffId:       in.StaffId,
				MemberId:      member.ID,
				Type:          domain.TransRegFee,
				Amount:        s.settings.RegistrationFee(),
				PaymentMethod: in.PaymentMethod,
				Status:        domain.TransPaid,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("membership purchased",
		zap.Int64("member_id", in.MemberId),
		zap.Int64("plan_id", in.PlanId),
		zap.Time("end_date", created.EndDate))
	if s.bus != nil {
		s.bus.Publish(TopicPurchased, created)
	}
	return created, nil
}

// TopicPurchased is published with the new *domain.Membership after a
// successful purchase or renewal.
const TopicPurchased = "membership:purchased"
