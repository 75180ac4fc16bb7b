package leave

import (
	"context"

	"ems/internal/domain/dates"
)

type StoreAPI interface {
	// EmployeeName fails with NotFound when the employee does not exist.
	EmployeeName(ctx context.Context, employeeID int64) (string, error)
	// HasApprovedOverlap looks at approved leaves of every employee.
	HasApprovedOverlap(ctx context.Context, start, end dates.Date) (bool, error)
	Insert(ctx context.Context, l *Leave) error
	Get(ctx context.Context, id int64) (Leave, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]Leave, error)
	ListByStatus(ctx context.Context, status Status) ([]Leave, error)
	CountByStatus(ctx context.Context, status Status) (int64, error)
	SetStatus(ctx context.Context, id int64, status Status, reason *string) (Leave, error)
}

type Transactor interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}
