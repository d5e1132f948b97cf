package shift

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
)

type fakeShiftRepo struct {
	shifts map[int64]*domain.Shift
	txns   map[int64][]domain.Transaction
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{
		shifts: map[int64]*domain.Shift{},
		txns:   map[int64][]domain.Transaction{},
	}
}

func (f *fakeShiftRepo) Atomically(ctx context.Context, fn func(Repository) error) error {
	return fn(f)
}

func (f *fakeShiftRepo) GetShift(_ context.Context, id int64) (*domain.Shift, error) {
	return f.shifts[id], nil
}

func (f *fakeShiftRepo) ActiveShiftForStaff(_ context.Context, staffID int64) (*domain.Shift, error) {
	for _, s := range f.shifts {
		if s.StartingStaffId == staffID && s.Status == domain.ShiftActive {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeShiftRepo) CreateShift(_ context.Context, s *domain.Shift) error {
	f.shifts[s.ID] = s
	return nil
}

func (f *fakeShiftRepo) UpdateShift(_ context.Context, s *domain.Shift) error {
	f.shifts[s.ID] = s
	return nil
}

func (f *fakeShiftRepo) MarkEnding(_ context.Context, shiftID int64) (bool, error) {
	s := f.shifts[shiftID]
	if s == nil || s.Status != domain.ShiftActive {
		return false, nil
	}
	s.Status = domain.ShiftEnding
	return true, nil
}

func (f *fakeShiftRepo) ShiftTransactions(_ context.Context, shiftID int64) ([]domain.Transaction, error) {
	return f.txns[shiftID], nil
}

type captureNotifier struct {
	notified []*domain.Shift
}

func (n *captureNotifier) NotifyDiscrepancy(s *domain.Shift) {
	n.notified = append(n.notified, s)
}

func TestOpen(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := NewService(repo, nil)

	created, err := svc.Open(context.Background(), 5, 100.00)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftActive, created.Status)
	assert.Equal(t, 100.00, created.StartingCashFloat)
	assert.Equal(t, int64(5), created.StartingStaffId)

	_, err = svc.Open(context.Background(), 5, 50.00)
	assert.ErrorIs(t, err, ErrShiftAlreadyActive)

	// a different staff member may open in parallel
	_, err = svc.Open(context.Background(), 6, 50.00)
	assert.NoError(t, err)
}

func TestCloseReconcilesAndRecordsDiscrepancy(t *testing.T) {
	repo := newFakeShiftRepo()
	repo.shifts[1] = &domain.Shift{ID: 1, Status: domain.ShiftActive, StartingCashFloat: 100.00}
	repo.txns[1] = []domain.Transaction{
		{Type: domain.TransMembership, Amount: 200.00},
		{Type: domain.TransWalkIn, Amount: 10.00},
		{Type: domain.TransPosSale, Amount: 35.50},
	}
	notifier := &captureNotifier{}
	svc := NewService(repo, notifier)
	svc.now = func() time.Time { return time.Date(2024, 1, 15, 22, 0, 0, 0, time.Local) }

	closed, err := svc.Close(context.Background(), CloseInput{
		ShiftId:       1,
		EndingStaffId: 7,
		ActualCounted: 340.00,
		HandoverNotes: "drawer short",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ShiftClosed, closed.Status)
	assert.InDelta(t, 345.50, closed.SystemCalculatedCash, 0.001)
	assert.InDelta(t, -5.50, closed.CashDiscrepancy, 0.001)
	assert.Equal(t, 340.00, closed.EndingCashBalance)
	assert.Equal(t, int64(7), closed.EndingStaffId)
	require.NotNil(t, closed.EndTime)

	// discrepancy is reported, not rejected
	require.Len(t, notifier.notified, 1)
	assert.Equal(t, closed.ID, notifier.notified[0].ID)
}

func TestCloseBalancedDrawerSkipsNotification(t *testing.T) {
	repo := newFakeShiftRepo()
	repo.shifts[1] = &domain.Shift{ID: 1, Status: domain.ShiftActive, StartingCashFloat: 100.00}
	repo.txns[1] = []domain.Transaction{{Type: domain.TransWalkIn, Amount: 10.00}}
	notifier := &captureNotifier{}
	svc := NewService(repo, notifier)

	closed, err := svc.Close(context.Background(), CloseInput{ShiftId: 1, ActualCounted: 110.00})
	require.NoError(t, err)
	assert.Zero(t, closed.CashDiscrepancy)
	assert.Empty(t, notifier.notified)
}

func TestCloseOnlyOnceUnderContention(t *testing.T) {
	repo := newFakeShiftRepo()
	repo.shifts[1] = &domain.Shift{ID: 1, Status: domain.ShiftActive}
	svc := NewService(repo, nil)

	_, err := svc.Close(context.Background(), CloseInput{ShiftId: 1})
	require.NoError(t, err)

	// a second close loses the ACTIVE to ENDING transition
	_, err = svc.Close(context.Background(), CloseInput{ShiftId: 1})
	assert.ErrorIs(t, err, ErrShiftNotActive)

	_, err = svc.Close(context.Background(), CloseInput{ShiftId: 404})
	assert.ErrorIs(t, err, ErrShiftNotFound)
}

func TestPreviewDoesNotClose(t *testing.T) {
	repo := newFakeShiftRepo()
	repo.shifts[1] = &domain.Shift{ID: 1, Status: domain.ShiftActive, StartingCashFloat: 50.00}
	repo.txns[1] = []domain.Transaction{{Type: domain.TransPosSale, Amount: 25.00}}
	svc := NewService(repo, nil)

	rec, err := svc.Preview(context.Background(), 1, 70.00)
	require.NoError(t, err)
	assert.InDelta(t, 75.00, rec.SystemCalculatedCash, 0.001)
	assert.InDelta(t, -5.00, rec.CashDiscrepancy, 0.001)
	assert.Equal(t, domain.ShiftActive, repo.shifts[1].Status)

	_, err = svc.Preview(context.Background(), 404, 0)
	assert.ErrorIs(t, err, ErrShiftNotFound)
}
