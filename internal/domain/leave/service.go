package leave

import (
	"context"
	"strings"

	"ems/internal/domain/apperror"
	"ems/internal/domain/identity"
)

type EventRecorder interface {
	Event(name string)
}

type Service struct {
	Store  StoreAPI
	tx     Transactor
	events EventRecorder
}

func NewService(store StoreAPI, tx Transactor, events EventRecorder) *Service {
	return &Service{Store: store, tx: tx, events: events}
}

func (s *Service) record(name string) {
	if s.events != nil {
		s.events.Event(name)
	}
}

func (s *Service) within(ctx context.Context, write bool, fn func(context.Context) error) error {
	switch {
	case s.tx == nil:
		return fn(ctx)
	case write:
		return s.tx.WithinReadWrite(ctx, fn)
	default:
		return s.tx.WithinReadOnly(ctx, fn)
	}
}

// ownerOnly lets admins through and otherwise requires the caller to be the
// employee in question.
func ownerOnly(caller identity.Identity, employeeID int64, msg string) error {
	if caller.IsAdmin {
		return nil
	}
	if _, err := caller.RequireEmployeeID(); err != nil {
		return err
	}
	if !caller.Owns(employeeID) {
		return apperror.Forbidden("%s", msg)
	}
	return nil
}

// Apply files a new PENDING leave. The overlap check rejects the request
// when any approved leave, for any employee, intersects the range.
func (s *Service) Apply(ctx context.Context, caller identity.Identity, app Application) (Leave, error) {
	if app.EmployeeID == 0 {
		self, err := caller.RequireEmployeeID()
		if err != nil {
			return Leave{}, err
		}
		app.EmployeeID = self
	}
	if err := ownerOnly(caller, app.EmployeeID, "You can only apply leave for yourself"); err != nil {
		return Leave{}, err
	}
	if err := validateApplication(app); err != nil {
		return Leave{}, err
	}

	l := Leave{
		EmployeeID: app.EmployeeID,
		LeaveType:  app.LeaveType,
		Reason:     strings.TrimSpace(app.Reason),
		StartDate:  *app.StartDate,
		EndDate:    *app.EndDate,
		Status:     StatusPending,
	}
	err := s.within(ctx, true, func(ctx context.Context) error {
		name, err := s.Store.EmployeeName(ctx, l.EmployeeID)
		if err != nil {
			return err
		}
		overlap, err := s.Store.HasApprovedOverlap(ctx, l.StartDate, l.EndDate)
		if err != nil {
			return err
		}
		if overlap {
			return apperror.Conflict("There are already approved leaves for this date range")
		}
		if err := s.Store.Insert(ctx, &l); err != nil {
			return err
		}
		l.EmployeeName = name
		l.Days, _ = CalculateDays(l.StartDate, l.EndDate)
		return nil
	})
	if err != nil {
		return Leave{}, err
	}
	s.record("leave.applied")
	return l, nil
}

func (s *Service) Get(ctx context.Context, caller identity.Identity, id int64) (Leave, error) {
	var l Leave
	err := s.within(ctx, false, func(ctx context.Context) error {
		var err error
		l, err = s.Store.Get(ctx, id)
		return err
	})
	if err != nil {
		return Leave{}, err
	}
	if err := ownerOnly(caller, l.EmployeeID, "You can only access your own leaves"); err != nil {
		return Leave{}, err
	}
	return l, nil
}

func (s *Service) ListByEmployee(ctx context.Context, caller identity.Identity, employeeID int64) ([]Leave, error) {
	if err := ownerOnly(caller, employeeID, "You can only access your own leaves"); err != nil {
		return nil, err
	}
	var out []Leave
	err := s.within(ctx, false, func(ctx context.Context) error {
		var err error
		out, err = s.Store.ListByEmployee(ctx, employeeID)
		return err
	})
	return out, err
}

func (s *Service) Pending(ctx context.Context, caller identity.Identity) ([]Leave, error) {
	if !caller.IsAdmin {
		return nil, apperror.Forbidden("Admin access required")
	}
	var out []Leave
	err := s.within(ctx, false, func(ctx context.Context) error {
		var err error
		out, err = s.Store.ListByStatus(ctx, StatusPending)
		return err
	})
	return out, err
}

func (s *Service) PendingCount(ctx context.Context, caller identity.Identity) (int64, error) {
	if !caller.IsAdmin {
		return 0, apperror.Forbidden("Admin access required")
	}
	return s.Store.CountByStatus(ctx, StatusPending)
}

// UpdateStatus sets any valid status regardless of the current one. A blank
// reason keeps the stored reason.
func (s *Service) UpdateStatus(ctx context.Context, caller identity.Identity, id int64, status Status, reason string) (before, after Leave, err error) {
	if !caller.IsAdmin {
		return Leave{}, Leave{}, apperror.Forbidden("Admin access required")
	}
	if !status.Valid() {
		return Leave{}, Leave{}, apperror.InvalidArgument("Invalid leave status: %s", status)
	}
	var newReason *string
	if r := strings.TrimSpace(reason); r != "" {
		newReason = &r
	}
	err = s.within(ctx, true, func(ctx context.Context) error {
		var err error
		if before, err = s.Store.Get(ctx, id); err != nil {
			return err
		}
		after, err = s.Store.SetStatus(ctx, id, status, newReason)
		return err
	})
	if err != nil {
		return Leave{}, Leave{}, err
	}
	s.record("leave." + strings.ToLower(string(status)))
	return before, after, nil
}

// Cancel moves a PENDING leave to CANCELLED. Any other status is final for
// this operation.
func (s *Service) Cancel(ctx context.Context, caller identity.Identity, id int64) (Leave, error) {
	var out Leave
	err := s.within(ctx, true, func(ctx context.Context) error {
		l, err := s.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := ownerOnly(caller, l.EmployeeID, "You can only cancel your own leaves"); err != nil {
			return err
		}
		if l.Status != StatusPending {
			return apperror.InvalidState("Only pending leaves can be cancelled")
		}
		out, err = s.Store.SetStatus(ctx, id, StatusCancelled, nil)
		return err
	})
	if err != nil {
		return Leave{}, err
	}
	s.record("leave.cancelled")
	return out, nil
}
