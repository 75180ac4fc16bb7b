package leave

import (
	"time"

	"ems/internal/domain/dates"
)

type Type string

const (
	TypeSick        Type = "SICK"
	TypeVacation    Type = "VACATION"
	TypePersonal    Type = "PERSONAL"
	TypeMaternity   Type = "MATERNITY"
	TypePaternity   Type = "PATERNITY"
	TypeBereavement Type = "BEREAVEMENT"
	TypeOther       Type = "OTHER"
)

func (t Type) Valid() bool {
	switch t {
	case TypeSick, TypeVacation, TypePersonal, TypeMaternity, TypePaternity, TypeBereavement, TypeOther:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

type Leave struct {
	ID           int64      `json:"leaveId"`
	EmployeeID   int64      `json:"employeeId"`
	EmployeeName string     `json:"employeeName"`
	LeaveType    Type       `json:"leaveType"`
	Reason       string     `json:"reason"`
	StartDate    dates.Date `json:"startDate"`
	EndDate      dates.Date `json:"endDate"`
	Days         int        `json:"days"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt"`
}

// Application is a new leave request. A zero EmployeeID means the caller.
type Application struct {
	EmployeeID int64       `json:"employeeId"`
	LeaveType  Type        `json:"leaveType" validate:"required"`
	Reason     string      `json:"reason" validate:"max=1000"`
	StartDate  *dates.Date `json:"startDate" validate:"required"`
	EndDate    *dates.Date `json:"endDate" validate:"required"`
}
