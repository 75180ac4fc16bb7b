package org

import "context"

type StoreAPI interface {
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id int64) (Project, error)
	InsertProject(ctx context.Context, p *Project) error
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id int64) error

	ListTeams(ctx context.Context) ([]Team, error)
	GetTeam(ctx context.Context, id int64) (Team, error)
	InsertTeam(ctx context.Context, t *Team) error
	UpdateTeam(ctx context.Context, t *Team) error
	DeleteTeam(ctx context.Context, id int64) error

	// LockTeam takes a row lock on the team for the rest of the transaction
	// and returns its project id.
	LockTeam(ctx context.Context, teamID int64) (int64, error)
	CountMembers(ctx context.Context, teamID int64) (int, error)
	ListMembers(ctx context.Context, teamID int64) ([]Member, error)
	Assignee(ctx context.Context, employeeID int64) (Assignee, error)
	// SetMembership writes team_id and project_id on the employee row; nil
	// clears them.
	SetMembership(ctx context.Context, employeeID int64, teamID, projectID *int64) error
}

type Transactor interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}
