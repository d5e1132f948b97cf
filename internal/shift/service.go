package shift

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

var (
	ErrShiftNotFound      = errors.New("shift not found")
	ErrShiftNotActive     = errors.New("shift is not active")
	ErrShiftAlreadyActive = errors.New("staff already has an active shift")
)

// Repository is the persistence surface the shift service needs.
type Repository interface {
	Atomically(ctx context.Context, fn func(Repository) error) error
	GetShift(ctx context.Context, id int64) (*domain.Shift, error)
	// ActiveShiftForStaff returns the staff member's ACTIVE shift, or nil.
	ActiveShiftForStaff(ctx context.Context, staffID int64) (*domain.Shift, error)
	CreateShift(ctx context.Context, s *domain.Shift) error
	UpdateShift(ctx context.Context, s *domain.Shift) error
	// MarkEnding atomically moves the shift from ACTIVE to ENDING and
	// reports whether the transition happened. Once a shift is ENDING no
	// new transactions may be attributed to it.
	MarkEnding(ctx context.Context, shiftID int64) (bool, error)
	ShiftTransactions(ctx context.Context, shiftID int64) ([]domain.Transaction, error)
}

// Notifier delivers out-of-band alerts at shift close. Implementations
// must not block shift closure on delivery failure.
type Notifier interface {
	NotifyDiscrepancy(shift *domain.Shift)
}

// Service manages the shift lifecycle: open, reconcile, close.
type Service struct {
	repo     Repository
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier, now: time.Now}
}

// Open starts a new shift for the staff member with the counted starting
// float. A staff member can hold only one ACTIVE shift at a time.
func (s *Service) Open(ctx context.Context, staffID int64, startingFloat float64) (*domain.Shift, error) {
	var created *domain.Shift
	err := s.repo.Atomically(ctx, func(r Repository) error {
		existing, err := r.ActiveShiftForStaff(ctx, staffID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrShiftAlreadyActive
		}
		created = &domain.Shift{
			ID:                common.UUIDint64(),
			StartingStaffId:   staffID,
			StartTime:         s.now(),
			StartingCashFloat: startingFloat,
			Status:            domain.ShiftActive,
		}
		return r.CreateShift(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("shift opened",
		zap.Int64("shift_id", created.ID),
		zap.Int64("staff_id", staffID),
		zap.Float64("starting_float", startingFloat))
	return created, nil
}

// Preview reconciles the shift as it stands without closing it, for the
// close screen. The result is a point-in-time snapshot: the shift stays
// ACTIVE and may still accumulate transactions.
func (s *Service) Preview(ctx context.Context, shiftID int64, actualCounted float64) (*Reconciliation, error) {
	shift, err := s.repo.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrShiftNotFound
	}
	txns, err := s.repo.ShiftTransactions(ctx, shiftID)
	if err != nil {
		return nil, errors.Wrap(err, "query shift transactions")
	}
	rec := Reconcile(shift.StartingCashFloat, txns, actualCounted)
	return &rec, nil
}

// CloseInput describes a shift close with the physically counted drawer.
type CloseInput struct {
	ShiftId       int64
	EndingStaffId int64
	ActualCounted float64
	HandoverNotes string
	NextShiftId   int64
}

// Close ends the shift. The shift is first moved to ENDING, which stops
// any new transaction from being attributed to it; only then are its
// transactions read and reconciled, so the computed cash cannot be
// invalidated by a sale completing mid-close. A non-zero discrepancy is
// recorded and reported but never blocks closure.
func (s *Service) Close(ctx context.Context, in CloseInput) (*domain.Shift, error) {
	var closed *domain.Shift
	err := s.repo.Atomically(ctx, func(r Repository) error {
		moved, err := r.MarkEnding(ctx, in.ShiftId)
		if err != nil {
			return err
		}
		if !moved {
			shift, err := r.GetShift(ctx, in.ShiftId)
			if err != nil {
				return err
			}
			if shift == nil {
				return ErrShiftNotFound
			}
			return ErrShiftNotActive
		}

		shift, err := r.GetShift(ctx, in.ShiftId)
		if err != nil {
			return err
		}
		txns, err := r.ShiftTransactions(ctx, in.ShiftId)
		if err != nil {
			return errors.Wrap(err, "query shift transactions")
		}
		rec := Reconcile(shift.StartingCashFloat, txns, in.ActualCounted)

		now := s.now()
		shift.Status = domain.ShiftClosed
		shift.EndTime = &now
		shift.EndingStaffId = in.EndingStaffId
		shift.EndingCashBalance = in.ActualCounted
		shift.SystemCalculatedCash = rec.SystemCalculatedCash
		shift.CashDiscrepancy = rec.CashDiscrepancy
		shift.HandoverNotes = in.HandoverNotes
		shift.NextShiftId = in.NextShiftId
		if err = r.UpdateShift(ctx, shift); err != nil {
			return err
		}
		closed = shift
		return nil
	})
	if err != nil {
		return nil, err
	}

	if closed.CashDiscrepancy != 0 {
		zap.L().Warn("shift closed with cash discrepancy",
			zap.Int64("shift_id", closed.ID),
			zap.Float64("expected", closed.SystemCalculatedCash),
			zap.Float64("counted", closed.EndingCashBalance),
			zap.Float64("discrepancy", closed.CashDiscrepancy))
		if s.notifier != nil {
			s.notifier.NotifyDiscrepancy(closed)
		}
	} else {
		zap.L().Info("shift closed, drawer reconciled",
			zap.Int64("shift_id", closed.ID),
			zap.Float64("cash", closed.SystemCalculatedCash))
	}
	return closed, nil
}
