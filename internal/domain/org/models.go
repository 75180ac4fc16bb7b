// Package org manages projects, their teams and team membership. Membership
// lives on the employee row, so neither projects nor teams hold member lists.
package org

import "ems/internal/domain/employee"

// MaxTeamSize is the member cap enforced by AddMember.
const MaxTeamSize = 6

// Claim roles allowed through the project and team gates. Admins always pass.
var (
	ProjectWriters = []string{string(employee.RoleSeniorProjectManager)}
	TeamWriters    = []string{string(employee.RoleSeniorProjectManager), string(employee.RoleProjectManager)}
	ManagerRoles   = []string{
		string(employee.RoleSeniorProjectManager),
		string(employee.RoleProjectManager),
		string(employee.RoleTeamManager),
	}
)

type Project struct {
	ID                       int64  `json:"id"`
	Name                     string `json:"name"`
	SeniorProjectManagerID   *int64 `json:"seniorProjectManagerId"`
	SeniorProjectManagerName string `json:"seniorProjectManagerName,omitempty"`
	TeamsCount               int    `json:"teamsCount"`
}

type Team struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	ProjectID          int64  `json:"projectId"`
	ProjectName        string `json:"projectName,omitempty"`
	ProjectManagerID   *int64 `json:"projectManagerId"`
	ProjectManagerName string `json:"projectManagerName,omitempty"`
	TeamManagerID      *int64 `json:"teamManagerId"`
	TeamManagerName    string `json:"teamManagerName,omitempty"`
}

// Member is the slice of an employee record shown in a team roster.
type Member struct {
	EmployeeID int64         `json:"employeeId"`
	FirstName  string        `json:"firstName"`
	LastName   string        `json:"lastName"`
	Email      string        `json:"email"`
	Role       employee.Role `json:"role"`
	ProjectID  *int64        `json:"projectId"`
	TeamID     *int64        `json:"teamId"`
}

type ProjectInput struct {
	Name                   string `json:"name" validate:"required,max=200"`
	SeniorProjectManagerID *int64 `json:"seniorProjectManagerId"`
}

type TeamInput struct {
	Name             string `json:"name" validate:"required,max=200"`
	ProjectID        *int64 `json:"projectId" validate:"required"`
	ProjectManagerID *int64 `json:"projectManagerId"`
	TeamManagerID    *int64 `json:"teamManagerId"`
}

// Assignee is what the role and membership checks need from an employee.
type Assignee struct {
	ID     int64
	Role   employee.Role
	TeamID *int64
}
