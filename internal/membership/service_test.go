package membership

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
)

type fakeRepo struct {
	members     map[int64]*domain.Member
	plans       map[int64]*domain.MembershipPlan
	shifts      map[int64]*domain.Shift
	active      map[int64]*domain.Membership
	memberships []*domain.Membership
	txns        []*domain.Transaction
	expired     []int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		members: map[int64]*domain.Member{},
		plans:   map[int64]*domain.MembershipPlan{},
		shifts:  map[int64]*domain.Shift{},
		active:  map[int64]*domain.Membership{},
	}
}

func (f *fakeRepo) Atomically(ctx context.Context, fn func(Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) GetMember(_ context.Context, id int64) (*domain.Member, error) {
	return f.members[id], nil
}

func (f *fakeRepo) GetPlan(_ context.Context, id int64) (*domain.MembershipPlan, error) {
	return f.plans[id], nil
}

func (f *fakeRepo) ActiveMembership(_ context.Context, memberID int64) (*domain.Membership, error) {
	return f.active[memberID], nil
}

func (f *fakeRepo) ExpireMembership(_ context.Context, id int64) error {
	for memberID, m := range f.active {
		if m.ID == id {
			m.Status = domain.MembershipExpired
			f.expired = append(f.expired, id)
			delete(f.active, memberID)
		}
	}
	return nil
}

func (f *fakeRepo) CreateMembership(_ context.Context, m *domain.Membership) error {
	f.memberships = append(f.memberships, m)
	f.active[m.MemberId] = m
	return nil
}

func (f *fakeRepo) CreateTransaction(_ context.Context, t *domain.Transaction) error {
	f.txns = append(f.txns, t)
	return nil
}

func (f *fakeRepo) ActiveShift(_ context.Context, shiftID int64) (*domain.Shift, error) {
	s := f.shifts[shiftID]
	if s == nil || s.Status != domain.ShiftActive {
		return nil, nil
	}
	return s, nil
}

type fakeSettings struct {
	grace  int
	regFee float64
}

func (s fakeSettings) GracePeriodDays() int     { return s.grace }
func (s fakeSettings) RegistrationFee() float64 { return s.regFee }

func TestPeriodEnd(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		plan  domain.MembershipPlan
		want  time.Time
	}{
		{
			name:  "one month plus two free",
			start: date(2024, 1, 15),
			plan:  domain.MembershipPlan{DurationMonths: 1, FreeMonths: 2},
			want:  date(2024, 4, 15),
		},
		{
			name:  "plain annual",
			start: date(2024, 3, 1),
			plan:  domain.MembershipPlan{DurationMonths: 12},
			want:  date(2025, 3, 1),
		},
		{
			name:  "annual plus two free",
			start: date(2024, 3, 1),
			plan:  domain.MembershipPlan{DurationMonths: 12, FreeMonths: 2},
			want:  date(2025, 5, 1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PeriodEnd(tt.start, &tt.plan))
		})
	}
}

func testService(repo *fakeRepo, settings Settings) *Service {
	svc := NewService(repo, settings, nil)
	svc.now = func() time.Time { return date(2024, 1, 15) }
	return svc
}

func seedPurchase(repo *fakeRepo) {
	repo.members[1] = &domain.Member{ID: 1, MemberNo: "M0001", Name: "Tan"}
	repo.plans[10] = &domain.MembershipPlan{
		ID: 10, Name: "Monthly", Price: 80,
		DurationMonths: 1, FreeMonths: 2, RegFeeRequired: true, IsActive: true,
	}
	repo.shifts[100] = &domain.Shift{ID: 100, Status: domain.ShiftActive}
}

func TestPurchaseNewMember(t *testing.T) {
	repo := newFakeRepo()
	seedPurchase(repo)
	svc := testService(repo, fakeSettings{grace: 7, regFee: 50})

	created, err := svc.Purchase(context.Background(), PurchaseInput{
		MemberId: 1, PlanId: 10, ShiftId: 100, StaffId: 5,
		PaymentMethod: "CASH", ChargeRegFee: true,
	})
	require.NoError(t, err)

	assert.Equal(t, date(2024, 1, 15), created.StartDate)
	assert.Equal(t, date(2024, 4, 15), created.EndDate)
	assert.Equal(t, domain.MembershipActive, created.Status)

	require.Len(t, repo.txns, 2)
	assert.Equal(t, domain.TransMembership, repo.txns[0].Type)
	assert.Equal(t, 80.0, repo.txns[0].Amount)
	assert.Equal(t, domain.TransRegFee, repo.txns[1].Type)
	assert.Equal(t, 50.0, repo.txns[1].Amount)
	assert.Empty(t, repo.expired)
}

func TestPurchaseRenewalKeepsRemainingDays(t *testing.T) {
	repo := newFakeRepo()
	seedPurchase(repo)
	prior := &domain.Membership{
		ID: 99, MemberId: 1, Status: domain.MembershipActive,
		EndDate: date(2024, 1, 31),
	}
	repo.active[1] = prior
	svc := testService(repo, fakeSettings{grace: 7, regFee: 50})

	created, err := svc.Purchase(context.Background(), PurchaseInput{
		MemberId: 1, PlanId: 10, ShiftId: 100, StaffId: 5, PaymentMethod: "CASH",
	})
	require.NoError(t, err)

	// the new period starts the day after the prior one ends
	assert.Equal(t, date(2024, 2, 1), created.StartDate)
	assert.Equal(t, date(2024, 5, 1), created.EndDate)
	assert.Equal(t, []int64{99}, repo.expired)
	assert.Equal(t, domain.MembershipExpired, prior.Status)

	// no reg fee unless explicitly charged
	require.Len(t, repo.txns, 1)
	assert.Equal(t, domain.TransMembership, repo.txns[0].Type)
}

func TestPurchaseRenewalAfterLapseStartsToday(t *testing.T) {
	repo := newFakeRepo()
	seedPurchase(repo)
	repo.active[1] = &domain.Membership{
		ID: 99, MemberId: 1, Status: domain.MembershipActive,
		EndDate: date(2023, 12, 1),
	}
	svc := testService(repo, fakeSettings{grace: 7, regFee: 50})

	created, err := svc.Purchase(context.Background(), PurchaseInput{
		MemberId: 1, PlanId: 10, ShiftId: 100, StaffId: 5, PaymentMethod: "CASH",
	})
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 15), created.StartDate)
}

func TestPurchaseErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fakeRepo)
		in      PurchaseInput
		wantErr error
	}{
		{
			name:    "unknown member",
			mutate:  func(*fakeRepo) {},
			in:      PurchaseInput{MemberId: 404, PlanId: 10, ShiftId: 100},
			wantErr: ErrMemberNotFound,
		},
		{
			name:    "unknown plan",
			mutate:  func(*fakeRepo) {},
			in:      PurchaseInput{MemberId: 1, PlanId: 404, ShiftId: 100},
			wantErr: ErrPlanNotFound,
		},
		{
			name: "inactive plan",
			mutate: func(f *fakeRepo) {
				f.plans[10].IsActive = false
			},
			in:      PurchaseInput{MemberId: 1, PlanId: 10, ShiftId: 100},
			wantErr: ErrPlanInactive,
		},
		{
			name: "closed shift",
			mutate: func(f *fakeRepo) {
				f.shifts[100].Status = domain.ShiftClosed
			},
			in:      PurchaseInput{MemberId: 1, PlanId: 10, ShiftId: 100},
			wantErr: ErrShiftNotActive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			seedPurchase(repo)
			tt.mutate(repo)
			svc := testService(repo, fakeSettings{grace: 7, regFee: 50})

			_, err := svc.Purchase(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.txns)
			assert.Empty(t, repo.memberships)
		})
	}
}

func TestStatus(t *testing.T) {
	repo := newFakeRepo()
	repo.active[1] = &domain.Membership{ID: 7, MemberId: 1, EndDate: date(2024, 1, 10), Status: domain.MembershipActive}
	svc := testService(repo, fakeSettings{grace: 7})

	res, m, err := svc.Status(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, StatusInGrace, res.Status)
	assert.Equal(t, -5, *res.DaysUntilExpiry)

	res, m, err = svc.Status(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, StatusExpired, res.Status)
	assert.Nil(t, res.DaysUntilExpiry)
}
