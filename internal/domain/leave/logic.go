package leave

import (
	"strings"

	"ems/internal/domain/apperror"
	"ems/internal/domain/dates"
)

// CalculateDays returns the inclusive calendar day count between start and end.
func CalculateDays(start, end dates.Date) (int, error) {
	if start.After(end.Time) {
		return 0, apperror.InvalidArgument("Start date cannot be after end date")
	}
	return int(end.Sub(start.Time).Hours()/24) + 1, nil
}

// validateApplication runs the checks that need no storage.
func validateApplication(app Application) error {
	if !app.LeaveType.Valid() {
		return apperror.InvalidArgument("Invalid leave type: %s", app.LeaveType)
	}
	if app.StartDate == nil || app.EndDate == nil {
		return apperror.InvalidArgument("startDate and endDate are required")
	}
	_, err := CalculateDays(*app.StartDate, *app.EndDate)
	return err
}

// ParseStatus accepts a status name in any case.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", apperror.InvalidArgument("Invalid leave status: %s", value)
	}
	return status, nil
}

