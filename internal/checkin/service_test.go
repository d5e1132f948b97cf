package checkin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/membership"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

type fakeCheckinRepo struct {
	members  map[int64]*domain.Member
	active   map[int64]*domain.Membership
	coupons  map[string]*domain.SoldCoupon
	shifts   map[int64]*domain.Shift
	checkins []*domain.CheckIn
	txns     []*domain.Transaction
}

func newFakeCheckinRepo() *fakeCheckinRepo {
	return &fakeCheckinRepo{
		members: map[int64]*domain.Member{},
		active:  map[int64]*domain.Membership{},
		coupons: map[string]*domain.SoldCoupon{},
		shifts:  map[int64]*domain.Shift{},
	}
}

func (f *fakeCheckinRepo) Atomically(ctx context.Context, fn func(Repository) error) error {
	return fn(f)
}

func (f *fakeCheckinRepo) GetMember(_ context.Context, id int64) (*domain.Member, error) {
	return f.members[id], nil
}

func (f *fakeCheckinRepo) ActiveMembership(_ context.Context, memberID int64) (*domain.Membership, error) {
	return f.active[memberID], nil
}

func (f *fakeCheckinRepo) GetCouponByCode(_ context.Context, code string) (*domain.SoldCoupon, error) {
	return f.coupons[code], nil
}

func (f *fakeCheckinRepo) DecrementCouponEntry(_ context.Context, couponID int64) (bool, error) {
	for _, c := range f.coupons {
		if c.ID == couponID && c.EntriesRemaining > 0 {
			c.EntriesRemaining--
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCheckinRepo) HasCheckinOn(_ context.Context, memberID int64, day time.Time) (bool, error) {
	for _, ci := range f.checkins {
		if ci.MemberId == memberID && common.SameDay(ci.CheckinTime, day) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCheckinRepo) CreateCheckin(_ context.Context, ci *domain.CheckIn) error {
	f.checkins = append(f.checkins, ci)
	return nil
}

func (f *fakeCheckinRepo) CreateTransaction(_ context.Context, t *domain.Transaction) error {
	f.txns = append(f.txns, t)
	return nil
}

func (f *fakeCheckinRepo) ActiveShift(_ context.Context, shiftID int64) (*domain.Shift, error) {
	s := f.shifts[shiftID]
	if s == nil || s.Status != domain.ShiftActive {
		return nil, nil
	}
	return s, nil
}

type fakeDoorSettings struct {
	grace       int
	walkIn      float64
	walkInStudy float64
}

func (s fakeDoorSettings) GracePeriodDays() int        { return s.grace }
func (s fakeDoorSettings) WalkInRate() float64         { return s.walkIn }
func (s fakeDoorSettings) WalkInStudentRate() float64  { return s.walkInStudy }

func doorService(repo *fakeCheckinRepo) *Service {
	svc := NewService(repo, fakeDoorSettings{grace: 7, walkIn: 10, walkInStudy: 5}, nil)
	svc.now = func() time.Time { return date(2024, 1, 15) }
	return svc
}

func seedDoor(repo *fakeCheckinRepo) {
	repo.members[1] = &domain.Member{ID: 1, MemberNo: "M0001"}
	repo.shifts[100] = &domain.Shift{ID: 100, Status: domain.ShiftActive}
}

func TestMemberCheckin(t *testing.T) {
	repo := newFakeCheckinRepo()
	seedDoor(repo)
	repo.active[1] = &domain.Membership{ID: 9, MemberId: 1, EndDate: date(2024, 6, 1), Status: domain.MembershipActive}
	svc := doorService(repo)

	res, err := svc.Member(context.Background(), MemberInput{MemberId: 1, ShiftId: 100, StaffId: 5})
	require.NoError(t, err)
	assert.Equal(t, membership.StatusActive, res.Status.Status)
	assert.Empty(t, res.Warning)
	assert.False(t, res.CheckIn.Flagged)
	assert.Equal(t, "ACTIVE", res.CheckIn.StatusAtEntry)
	require.Len(t, repo.checkins, 1)
}

func TestMemberCheckinInGraceWarns(t *testing.T) {
	repo := newFakeCheckinRepo()
	seedDoor(repo)
	repo.active[1] = &domain.Membership{ID: 9, MemberId: 1, EndDate: date(2024, 1, 10), Status: domain.MembershipActive}
	svc := doorService(repo)

	res, err := svc.Member(context.Background(), MemberInput{MemberId: 1, ShiftId: 100})
	require.NoError(t, err)
	assert.Equal(t, membership.StatusInGrace, res.Status.Status)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, "IN_GRACE", res.CheckIn.StatusAtEntry)
}

func TestMemberCheckinExpiredRejected(t *testing.T) {
	repo := newFakeCheckinRepo()
	seedDoor(repo)
	repo.active[1] = &domain.Membership{ID: 9, MemberId: 1, EndDate: date(2023, 12, 1), Status: domain.MembershipActive}
	svc := doorService(repo)

	res, err := svc.Member(context.Background(), MemberInput{MemberId: 1, ShiftId: 100})
	assert.ErrorIs(t, err, ErrMemberExpired)
	assert.Equal(t, membership.StatusExpired, res.Status.Status)
	assert.Empty(t, repo.checkins)

	// no membership history at all
	res, err = svc.Member(context.Background(), MemberInput{MemberId: 2, ShiftId: 100})
	assert.ErrorIs(t, err, ErrMemberNotFound)

	repo.members[2] = &domain.Member{ID: 2}
	res, err = svc.Member(context.Background(), MemberInput{MemberId: 2, ShiftId: 100})
	assert.ErrorIs(t, err, ErrMemberExpired)
	assert.Nil(t, res.Status.DaysUntilExpiry)
}

func TestMemberCheckinDuplicateSameDay(t *testing.T) {
	repo := newFakeCheckinRepo()
	seedDoor(repo)
	repo.active[1] = &domain.Membership{ID: 9, MemberId: 1, EndDate: date(2024, 6, 1), Status: domain.MembershipActive}
	svc := doorService(repo)

	_, err := svc.Member(context.Background(), MemberInput{MemberId: 1, ShiftId: 100})
	require.NoError(t, err)

	// second entry the same day needs explicit confirmation
	_, err = svc.Member(context.Background(), MemberInput{MemberId: 1, ShiftId: 100})
	assert.ErrorIs(t, err, ErrDuplicateUnconfirmed)
	require.Len(t, repo.checkins, 1)

	res, err := svc.Member(context.Background(), MemberInput{MemberId: 1, ShiftId: 100, ConfirmDuplicate: true})
	require.NoError(t, err)
	assert.True(t, res.CheckIn.Flagged)
	assert.NotEmpty(t, res.Warning)
	require.Len(t, repo.checkins, 2)
}

func TestCouponCheckinConsumesOneEntry(t *testing.T) {
	repo := newFakeCheckinRepo()
	seedDoor(repo)
	repo.coupons["AB12CD34"] = &domain.SoldCoupon{
		ID: 50, Code: "AB12CD34", MemberId: 1,
		EntriesRemaining: 2, ExpiryDate: date(2024, 6, 1),
	}
	svc := doorService(repo)

	res, err := svc.Coupon(context.Background(), CouponInput{Code: "AB12CD34", ShiftId: 100})
	require.NoError(t, err)
	assert.Equal(t, domain.CheckinCoupon, res.CheckIn.Kind)
	assert.Equal(t, int64(50), res.CheckIn.SoldCouponId)
	assert.Equal(t, 1, repo.coupons["AB12CD34"].EntriesRemaining)

	_, err = svc.Coupon(context.Background(), CouponInput{Code: "AB12CD34", ShiftId: 100})
	require.NoError(t, err)
	assert.Equal(t, 0, repo.coupons["AB12CD34"].EntriesRemaining)

	// the coupon is spent; a further check-in must not drive it negative
	_, err = svc.Coupon(context.Background(), CouponInput{Code: "AB12CD34", ShiftId: 100})
	assert.ErrorIs(t, err, ErrCouponExhausted)
	assert.Equal(t, 0, repo.coupons["AB12CD34"].EntriesRemaining)
	require.Len(t, repo.checkins, 2)
}

func TestCouponCheckinErrors(t *testing.T) {
	repo := newFakeCheckinRepo()
	seedDoor(repo)
	repo.coupons["EXPIRED1"] = &domain.SoldCoupon{ID: 51, Code: "EXPIRED1", EntriesRemaining: 5, ExpiryDate: date(2024, 1, 1)}
	repo.coupons["LASTDAY1"] = &domain.SoldCoupon{ID: 52, Code: "LASTDAY1", EntriesRemaining: 5, ExpiryDate: date(2024, 1, 15)}
	svc := doorService(repo)

	_, err := svc.Coupon(context.Background(), CouponInput{Code: "NOPE", ShiftId: 100})
	assert.ErrorIs(t, err, ErrCouponNotFound)

	_, err = svc.Coupon(context.Background(), CouponInput{Code: "EXPIRED1", ShiftId: 100})
	assert.ErrorIs(t, err, ErrCouponExpired)
	assert.Equal(t, 5, repo.coupons["EXPIRED1"].EntriesRemaining)

	// the expiry date itself is still usable
	_, err = svc.Coupon(context.Background(), CouponInput{Code: "LASTDAY1", ShiftId: 100})
	assert.NoError(t, err)
}

func TestWalkInRates(t *testing.T) {
	repo := newFakeCheckinRepo()
	seedDoor(repo)
	svc := doorService(repo)

	res, err := svc.WalkIn(context.Background(), WalkInInput{ShiftId: 100, StaffId: 5, PaymentMethod: "CASH"})
	require.NoError(t, err)
	assert.Equal(t, domain.CheckinWalkIn, res.CheckIn.Kind)

	res, err = svc.WalkIn(context.Background(), WalkInInput{Student: true, ShiftId: 100, StaffId: 5, PaymentMethod: "CASH"})
	require.NoError(t, err)
	assert.Equal(t, domain.CheckinWalkInStudent, res.CheckIn.Kind)

	require.Len(t, repo.txns, 2)
	assert.Equal(t, domain.TransWalkIn, repo.txns[0].Type)
	assert.Equal(t, 10.0, repo.txns[0].Amount)
	assert.Equal(t, 5.0, repo.txns[1].Amount)
	require.Len(t, repo.checkins, 2)
}

func TestCheckinRequiresActiveShift(t *testing.T) {
	repo := newFakeCheckinRepo()
	seedDoor(repo)
	repo.shifts[100].Status = domain.ShiftEnding
	repo.active[1] = &domain.Membership{ID: 9, MemberId: 1, EndDate: date(2024, 6, 1), Status: domain.MembershipActive}
	repo.coupons["AB12CD34"] = &domain.SoldCoupon{ID: 50, Code: "AB12CD34", EntriesRemaining: 2, ExpiryDate: date(2024, 6, 1)}
	svc := doorService(repo)

	_, err := svc.Member(context.Background(), MemberInput{MemberId: 1, ShiftId: 100})
	assert.ErrorIs(t, err, ErrShiftNotActive)
	_, err = svc.Coupon(context.Background(), CouponInput{Code: "AB12CD34", ShiftId: 100})
	assert.ErrorIs(t, err, ErrShiftNotActive)
	_, err = svc.WalkIn(context.Background(), WalkInInput{ShiftId: 100})
	assert.ErrorIs(t, err, ErrShiftNotActive)
	assert.Empty(t, repo.checkins)
	assert.Empty(t, repo.txns)
}
