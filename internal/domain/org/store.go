package org

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"ems/internal/domain/apperror"
	"ems/internal/domain/employee"
	"ems/internal/platform/db"
)

const (
	projectNotFound = "Project not found"
	teamNotFound    = "Team not found"
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

const projectSelect = `
    SELECT p.id, p.name, p.senior_project_manager_id,
           COALESCE(e.first_name || ' ' || e.last_name, ''),
           (SELECT COUNT(1) FROM teams t WHERE t.project_id = p.id)
    FROM projects p
    LEFT JOIN employees e ON e.id = p.senior_project_manager_id`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.SeniorProjectManagerID, &p.SeniorProjectManagerName, &p.TeamsCount)
	return p, err
}

func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.q(ctx).Query(ctx, projectSelect+` ORDER BY p.id`)
	if err != nil {
		return nil, errors.Wrap(err, "list projects")
	}
	defer rows.Close()

	out := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan project")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, id int64) (Project, error) {
	p, err := scanProject(s.q(ctx).QueryRow(ctx, projectSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return Project{}, db.Translate(err, "get project", projectNotFound)
	}
	return p, nil
}

func (s *Store) InsertProject(ctx context.Context, p *Project) error {
	err := s.q(ctx).QueryRow(ctx, `
    INSERT INTO projects (name, senior_project_manager_id)
    VALUES ($1, $2)
    RETURNING id
  `, p.Name, p.SeniorProjectManagerID).Scan(&p.ID)
	return db.Translate(err, "insert project", "")
}

func (s *Store) UpdateProject(ctx context.Context, p *Project) error {
	tag, err := s.q(ctx).Exec(ctx, `
    UPDATE projects
    SET name = $2, senior_project_manager_id = $3, updated_at = now()
    WHERE id = $1
  `, p.ID, p.Name, p.SeniorProjectManagerID)
	if err != nil {
		return db.Translate(err, "update project", "")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(projectNotFound)
	}
	return nil
}

// DeleteProject removes the project. Its teams go with it and the foreign
// keys detach every member employee.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "delete project", "")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(projectNotFound)
	}
	return nil
}

const teamSelect = `
    SELECT t.id, t.name, t.project_id, p.name,
           t.project_manager_id, COALESCE(pm.first_name || ' ' || pm.last_name, ''),
           t.team_manager_id, COALESCE(tm.first_name || ' ' || tm.last_name, '')
    FROM teams t
    JOIN projects p ON p.id = t.project_id
    LEFT JOIN employees pm ON pm.id = t.project_manager_id
    LEFT JOIN employees tm ON tm.id = t.team_manager_id`

func scanTeam(row pgx.Row) (Team, error) {
	var t Team
	err := row.Scan(
		&t.ID, &t.Name, &t.ProjectID, &t.ProjectName,
		&t.ProjectManagerID, &t.ProjectManagerName,
		&t.TeamManagerID, &t.TeamManagerName,
	)
	return t, err
}

func (s *Store) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := s.q(ctx).Query(ctx, teamSelect+` ORDER BY t.id`)
	if err != nil {
		return nil, errors.Wrap(err, "list teams")
	}
	defer rows.Close()

	out := []Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan team")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTeam(ctx context.Context, id int64) (Team, error) {
	t, err := scanTeam(s.q(ctx).QueryRow(ctx, teamSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return Team{}, db.Translate(err, "get team", teamNotFound)
	}
	return t, nil
}

func (s *Store) InsertTeam(ctx context.Context, t *Team) error {
	err := s.q(ctx).QueryRow(ctx, `
    INSERT INTO teams (name, project_id, project_manager_id, team_manager_id)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, t.Name, t.ProjectID, t.ProjectManagerID, t.TeamManagerID).Scan(&t.ID)
	return db.Translate(err, "insert team", "")
}

// UpdateTeam also moves the team's members to the team's project.
func (s *Store) UpdateTeam(ctx context.Context, t *Team) error {
	tag, err := s.q(ctx).Exec(ctx, `
    UPDATE teams
    SET name = $2, project_id = $3, project_manager_id = $4, team_manager_id = $5, updated_at = now()
    WHERE id = $1
  `, t.ID, t.Name, t.ProjectID, t.ProjectManagerID, t.TeamManagerID)
	if err != nil {
		return db.Translate(err, "update team", "")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(teamNotFound)
	}
	if _, err := s.q(ctx).Exec(ctx, `
    UPDATE employees SET project_id = $2, updated_at = now()
    WHERE team_id = $1 AND project_id IS DISTINCT FROM $2
  `, t.ID, t.ProjectID); err != nil {
		return errors.Wrap(err, "move team members")
	}
	return nil
}

func (s *Store) DeleteTeam(ctx context.Context, id int64) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "delete team", "")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(teamNotFound)
	}
	return nil
}

func (s *Store) LockTeam(ctx context.Context, teamID int64) (int64, error) {
	var projectID int64
	err := s.q(ctx).QueryRow(ctx, `SELECT project_id FROM teams WHERE id = $1 FOR UPDATE`, teamID).Scan(&projectID)
	if err != nil {
		return 0, db.Translate(err, "lock team", teamNotFound)
	}
	return projectID, nil
}

func (s *Store) CountMembers(ctx context.Context, teamID int64) (int, error) {
	var n int
	if err := s.q(ctx).QueryRow(ctx, `SELECT COUNT(1) FROM employees WHERE team_id = $1`, teamID).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count team members")
	}
	return n, nil
}

func (s *Store) ListMembers(ctx context.Context, teamID int64) ([]Member, error) {
	rows, err := s.q(ctx).Query(ctx, `
    SELECT id, first_name, last_name, email, role, project_id, team_id
    FROM employees
    WHERE team_id = $1
    ORDER BY id
  `, teamID)
	if err != nil {
		return nil, errors.Wrap(err, "list team members")
	}
	defer rows.Close()

	out := []Member{}
	for rows.Next() {
		var m Member
		var role string
		if err := rows.Scan(&m.EmployeeID, &m.FirstName, &m.LastName, &m.Email, &role, &m.ProjectID, &m.TeamID); err != nil {
			return nil, errors.Wrap(err, "scan team member")
		}
		m.Role = employee.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) Assignee(ctx context.Context, employeeID int64) (Assignee, error) {
	a := Assignee{ID: employeeID}
	var role string
	err := s.q(ctx).QueryRow(ctx, `SELECT role, team_id FROM employees WHERE id = $1`, employeeID).Scan(&role, &a.TeamID)
	if err != nil {
		return Assignee{}, db.Translate(err, "load assignee", "Employee not found with id: "+strconv.FormatInt(employeeID, 10))
	}
	a.Role = employee.Role(role)
	return a, nil
}

func (s *Store) SetMembership(ctx context.Context, employeeID int64, teamID, projectID *int64) error {
	tag, err := s.q(ctx).Exec(ctx, `
    UPDATE employees SET team_id = $2, project_id = $3, updated_at = now()
    WHERE id = $1
  `, employeeID, teamID, projectID)
	if err != nil {
		return db.Translate(err, "set membership", "")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Employee not found with id: %d", employeeID)
	}
	return nil
}
