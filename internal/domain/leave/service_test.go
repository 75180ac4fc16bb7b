package leave

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ems/internal/domain/apperror"
	"ems/internal/domain/dates"
	"ems/internal/domain/identity"
)

type memStore struct {
	next      int64
	employees map[int64]string
	leaves    map[int64]Leave
}

func newMemStore() *memStore {
	return &memStore{
		employees: map[int64]string{1: "Ada Lovelace", 2: "Grace Hopper"},
		leaves:    map[int64]Leave{},
	}
}

func (m *memStore) EmployeeName(_ context.Context, id int64) (string, error) {
	name, ok := m.employees[id]
	if !ok {
		return "", apperror.NotFound("Employee not found with id: %d", id)
	}
	return name, nil
}

func (m *memStore) HasApprovedOverlap(_ context.Context, start, end dates.Date) (bool, error) {
	for _, l := range m.leaves {
		if l.Status == StatusApproved && dates.Overlaps(start, end, l.StartDate, l.EndDate) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Insert(_ context.Context, l *Leave) error {
	m.next++
	l.ID = m.next
	l.CreatedAt = time.Now()
	m.leaves[l.ID] = *l
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (Leave, error) {
	l, ok := m.leaves[id]
	if !ok {
		return Leave{}, apperror.NotFound("Leave not found with id: %d", id)
	}
	l.EmployeeName = m.employees[l.EmployeeID]
	return l, nil
}

func (m *memStore) ListByEmployee(_ context.Context, employeeID int64) ([]Leave, error) {
	out := []Leave{}
	for _, l := range m.leaves {
		if l.EmployeeID == employeeID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) ListByStatus(_ context.Context, status Status) ([]Leave, error) {
	out := []Leave{}
	for _, l := range m.leaves {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) CountByStatus(ctx context.Context, status Status) (int64, error) {
	out, _ := m.ListByStatus(ctx, status)
	return int64(len(out)), nil
}

func (m *memStore) SetStatus(ctx context.Context, id int64, status Status, reason *string) (Leave, error) {
	l, ok := m.leaves[id]
	if !ok {
		return Leave{}, apperror.NotFound("Leave not found with id: %d", id)
	}
	l.Status = status
	if reason != nil {
		l.Reason = *reason
	}
	now := time.Now()
	l.UpdatedAt = &now
	m.leaves[id] = l
	return m.Get(ctx, id)
}

var (
	admin = identity.Identity{Email: "admin@example.com", IsAdmin: true, EmployeeID: 99}
	ada   = identity.Identity{Email: "ada@example.com", EmployeeID: 1}
	grace = identity.Identity{Email: "grace@example.com", EmployeeID: 2}
)

func application(employeeID int64, start, end dates.Date) Application {
	return Application{EmployeeID: employeeID, LeaveType: TypeVacation, Reason: "trip", StartDate: &start, EndDate: &end}
}

func TestApplyStartsPending(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil)
	l, err := svc.Apply(context.Background(), ada, application(0, dates.Of(2025, 5, 1), dates.Of(2025, 5, 3)))
	require.NoError(t, err)
	require.Equal(t, StatusPending, l.Status)
	require.Equal(t, int64(1), l.EmployeeID)
	require.Equal(t, "Ada Lovelace", l.EmployeeName)
	require.Equal(t, 3, l.Days)
}

func TestApplyValidation(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ada, application(1, dates.Of(2025, 5, 3), dates.Of(2025, 5, 1)))
	require.True(t, errors.Is(err, apperror.ErrInvalidArgument), "got %v", err)

	_, err = svc.Apply(ctx, ada, application(2, dates.Of(2025, 5, 1), dates.Of(2025, 5, 1)))
	require.True(t, errors.Is(err, apperror.ErrForbidden), "got %v", err)
	require.Equal(t, "You can only apply leave for yourself", apperror.MessageOf(err))

	_, err = svc.Apply(ctx, admin, application(42, dates.Of(2025, 5, 1), dates.Of(2025, 5, 1)))
	require.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)

	_, err = svc.Apply(ctx, identity.Identity{Email: "ghost@example.com"}, application(0, dates.Of(2025, 5, 1), dates.Of(2025, 5, 1)))
	require.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
}

// The overlap rule is not scoped to the applicant: an approved leave of any
// employee blocks the range.
func TestApplyRejectsOverlapWithAnyApprovedLeave(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	first, err := svc.Apply(ctx, ada, application(1, dates.Of(2025, 6, 10), dates.Of(2025, 6, 14)))
	require.NoError(t, err)
	_, _, err = svc.UpdateStatus(ctx, admin, first.ID, StatusApproved, "")
	require.NoError(t, err)

	_, err = svc.Apply(ctx, grace, application(2, dates.Of(2025, 6, 14), dates.Of(2025, 6, 20)))
	require.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)

	_, err = svc.Apply(ctx, grace, application(2, dates.Of(2025, 6, 15), dates.Of(2025, 6, 20)))
	require.NoError(t, err, "adjacent ranges do not overlap")

	// Pending leaves never block.
	_, err = svc.Apply(ctx, ada, application(1, dates.Of(2025, 6, 15), dates.Of(2025, 6, 16)))
	require.NoError(t, err)
}

func TestCancel(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil)
	ctx := context.Background()

	pending, err := svc.Apply(ctx, ada, application(1, dates.Of(2025, 7, 1), dates.Of(2025, 7, 2)))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, grace, pending.ID)
	require.True(t, errors.Is(err, apperror.ErrForbidden))

	cancelled, err := svc.Cancel(ctx, ada, pending.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.UpdatedAt)

	approved, err := svc.Apply(ctx, ada, application(1, dates.Of(2025, 8, 1), dates.Of(2025, 8, 2)))
	require.NoError(t, err)
	_, _, err = svc.UpdateStatus(ctx, admin, approved.ID, StatusApproved, "")
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, ada, approved.ID)
	require.True(t, errors.Is(err, apperror.ErrInvalidState))
	require.Equal(t, "Only pending leaves can be cancelled", apperror.MessageOf(err))
}

// UpdateStatus does not enforce a transition table.
func TestUpdateStatusIsUnconditional(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil)
	ctx := context.Background()

	l, err := svc.Apply(ctx, ada, application(1, dates.Of(2025, 9, 1), dates.Of(2025, 9, 1)))
	require.NoError(t, err)

	_, after, err := svc.UpdateStatus(ctx, admin, l.ID, StatusApproved, "")
	require.NoError(t, err)
	require.Equal(t, "trip", after.Reason, "blank reason keeps the stored one")

	before, after, err := svc.UpdateStatus(ctx, admin, l.ID, StatusPending, "reopened")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, before.Status)
	require.Equal(t, StatusPending, after.Status)
	require.Equal(t, "reopened", after.Reason)

	_, _, err = svc.UpdateStatus(ctx, ada, l.ID, StatusApproved, "")
	require.True(t, errors.Is(err, apperror.ErrForbidden))
	_, _, err = svc.UpdateStatus(ctx, admin, l.ID, Status("ARCHIVED"), "")
	require.True(t, errors.Is(err, apperror.ErrInvalidArgument))
	_, _, err = svc.UpdateStatus(ctx, admin, 404, StatusApproved, "")
	require.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestReadAccess(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil)
	ctx := context.Background()

	l, err := svc.Apply(ctx, ada, application(1, dates.Of(2025, 10, 1), dates.Of(2025, 10, 1)))
	require.NoError(t, err)

	_, err = svc.Get(ctx, ada, l.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, grace, l.ID)
	require.True(t, errors.Is(err, apperror.ErrForbidden))

	list, err := svc.ListByEmployee(ctx, ada, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = svc.ListByEmployee(ctx, grace, 1)
	require.True(t, errors.Is(err, apperror.ErrForbidden))

	pending, err := svc.Pending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	count, err := svc.PendingCount(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	_, err = svc.PendingCount(ctx, ada)
	require.True(t, errors.Is(err, apperror.ErrForbidden))
}
