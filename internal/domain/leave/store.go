package leave

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"ems/internal/domain/dates"
	"ems/internal/platform/db"
)

type Store struct {
	DB db.Queryer
}

func NewStore(q db.Queryer) *Store {
	return &Store{DB: q}
}

func (s *Store) q(ctx context.Context) db.Queryer {
	return db.QueryerFromContext(ctx, s.DB)
}

const leaveColumns = `
           l.id, l.employee_id, e.first_name || ' ' || e.last_name,
           l.leave_type, l.reason, l.start_date, l.end_date, l.status,
           l.created_at, l.updated_at`

func scanLeave(row pgx.Row) (Leave, error) {
	var l Leave
	var leaveType, status string
	var start, end pgtype.Date
	var updated pgtype.Timestamptz
	if err := row.Scan(
		&l.ID, &l.EmployeeID, &l.EmployeeName,
		&leaveType, &l.Reason, &start, &end, &status,
		&l.CreatedAt, &updated,
	); err != nil {
		return Leave{}, err
	}
	l.LeaveType = Type(leaveType)
	l.Status = Status(status)
	l.StartDate = dates.FromTime(start.Time)
	l.EndDate = dates.FromTime(end.Time)
	l.Days, _ = CalculateDays(l.StartDate, l.EndDate)
	if updated.Valid {
		t := updated.Time
		l.UpdatedAt = &t
	}
	return l, nil
}

func (s *Store) EmployeeName(ctx context.Context, employeeID int64) (string, error) {
	var name string
	err := s.q(ctx).QueryRow(ctx, `
    SELECT first_name || ' ' || last_name FROM employees WHERE id = $1
  `, employeeID).Scan(&name)
	if err != nil {
		return "", db.Translate(err, "load leave employee", "Employee not found with id: "+strconv.FormatInt(employeeID, 10))
	}
	return name, nil
}

func (s *Store) HasApprovedOverlap(ctx context.Context, start, end dates.Date) (bool, error) {
	var found bool
	err := s.q(ctx).QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM leaves
      WHERE status = 'APPROVED' AND start_date <= $2 AND end_date >= $1
    )
  `, start.Time, end.Time).Scan(&found)
	if err != nil {
		return false, errors.Wrap(err, "check approved overlap")
	}
	return found, nil
}

func (s *Store) Insert(ctx context.Context, l *Leave) error {
	err := s.q(ctx).QueryRow(ctx, `
    INSERT INTO leaves (employee_id, leave_type, reason, start_date, end_date, status)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id, created_at
  `, l.EmployeeID, string(l.LeaveType), l.Reason, l.StartDate.Time, l.EndDate.Time, string(l.Status)).Scan(&l.ID, &l.CreatedAt)
	return db.Translate(err, "insert leave", "")
}

func (s *Store) Get(ctx context.Context, id int64) (Leave, error) {
	l, err := scanLeave(s.q(ctx).QueryRow(ctx, `
    SELECT`+leaveColumns+`
    FROM leaves l
    JOIN employees e ON e.id = l.employee_id
    WHERE l.id = $1
  `, id))
	if err != nil {
		return Leave{}, db.Translate(err, "get leave", leaveNotFoundMessage(id))
	}
	return l, nil
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID int64) ([]Leave, error) {
	return s.list(ctx, `
    SELECT`+leaveColumns+`
    FROM leaves l
    JOIN employees e ON e.id = l.employee_id
    WHERE l.employee_id = $1
    ORDER BY l.start_date DESC, l.id DESC
  `, employeeID)
}

func (s *Store) ListByStatus(ctx context.Context, status Status) ([]Leave, error) {
	return s.list(ctx, `
    SELECT`+leaveColumns+`
    FROM leaves l
    JOIN employees e ON e.id = l.employee_id
    WHERE l.status = $1
    ORDER BY l.created_at, l.id
  `, string(status))
}

func (s *Store) list(ctx context.Context, sql string, args ...any) ([]Leave, error) {
	rows, err := s.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list leaves")
	}
	defer rows.Close()

	out := []Leave{}
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan leave")
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) CountByStatus(ctx context.Context, status Status) (int64, error) {
	var n int64
	if err := s.q(ctx).QueryRow(ctx, `SELECT COUNT(1) FROM leaves WHERE status = $1`, string(status)).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count leaves")
	}
	return n, nil
}

// SetStatus overwrites the status and, when reason is non-nil, the reason.
func (s *Store) SetStatus(ctx context.Context, id int64, status Status, reason *string) (Leave, error) {
	var stamp time.Time
	err := s.q(ctx).QueryRow(ctx, `
    UPDATE leaves
    SET status = $2, reason = COALESCE($3, reason), updated_at = now()
    WHERE id = $1
    RETURNING updated_at
  `, id, string(status), reason).Scan(&stamp)
	if err != nil {
		return Leave{}, db.Translate(err, "update leave status", leaveNotFoundMessage(id))
	}
	return s.Get(ctx, id)
}

func leaveNotFoundMessage(id int64) string {
	return "Leave not found with id: " + strconv.FormatInt(id, 10)
}
