package org

import (
	"context"
	"strings"

	"ems/internal/domain/apperror"
	"ems/internal/domain/employee"
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

func (s *Service) read(ctx context.Context, fn func(context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithinReadOnly(ctx, fn)
}

func (s *Service) write(ctx context.Context, fn func(context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithinReadWrite(ctx, fn)
}

func gate(caller identity.Identity, roles []string) error {
	if !caller.HasAnyRole(roles...) {
		return apperror.Forbidden("Insufficient role")
	}
	return nil
}

func requireAdmin(caller identity.Identity) error {
	if !caller.IsAdmin {
		return apperror.Forbidden("Admin access required")
	}
	return nil
}

var roleMessages = map[employee.Role]string{
	employee.RoleSeniorProjectManager: "Employee must be a Senior Project Manager",
	employee.RoleProjectManager:       "Employee must be a Project Manager",
	employee.RoleTeamManager:          "Employee must be a Team Manager",
	employee.RoleMember:               "Employee must be a Member",
}

// requireRole loads the employee and checks it holds exactly role.
func (s *Service) requireRole(ctx context.Context, employeeID int64, role employee.Role) (Assignee, error) {
	a, err := s.Store.Assignee(ctx, employeeID)
	if err != nil {
		return Assignee{}, err
	}
	if a.Role != role {
		return Assignee{}, apperror.InvalidArgument("%s", roleMessages[role])
	}
	return a, nil
}

// optionalRole is requireRole for nullable manager slots.
func (s *Service) optionalRole(ctx context.Context, employeeID *int64, role employee.Role) error {
	if employeeID == nil {
		return nil
	}
	_, err := s.requireRole(ctx, *employeeID, role)
	return err
}

func projectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.InvalidArgument("Project name is required")
	}
	return name, nil
}

func (s *Service) ListProjects(ctx context.Context, caller identity.Identity) ([]Project, error) {
	if err := gate(caller, ManagerRoles); err != nil {
		return nil, err
	}
	var out []Project
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.Store.ListProjects(ctx)
		return err
	})
	return out, err
}

func (s *Service) GetProject(ctx context.Context, caller identity.Identity, id int64) (Project, error) {
	if err := gate(caller, ManagerRoles); err != nil {
		return Project{}, err
	}
	var out Project
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.Store.GetProject(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) CreateProject(ctx context.Context, caller identity.Identity, in ProjectInput) (Project, error) {
	if err := gate(caller, ProjectWriters); err != nil {
		return Project{}, err
	}
	name, err := projectName(in.Name)
	if err != nil {
		return Project{}, err
	}
	var out Project
	err = s.write(ctx, func(ctx context.Context) error {
		if err := s.optionalRole(ctx, in.SeniorProjectManagerID, employee.RoleSeniorProjectManager); err != nil {
			return err
		}
		p := Project{Name: name, SeniorProjectManagerID: in.SeniorProjectManagerID}
		if err := s.Store.InsertProject(ctx, &p); err != nil {
			return err
		}
		out, err = s.Store.GetProject(ctx, p.ID)
		return err
	})
	if err != nil {
		return Project{}, err
	}
	s.record("project.created")
	return out, nil
}

// UpdateProject replaces the name and the senior project manager. A nil
// manager id clears the slot.
func (s *Service) UpdateProject(ctx context.Context, caller identity.Identity, id int64, in ProjectInput) (before, after Project, err error) {
	if err := gate(caller, ProjectWriters); err != nil {
		return Project{}, Project{}, err
	}
	name, err := projectName(in.Name)
	if err != nil {
		return Project{}, Project{}, err
	}
	err = s.write(ctx, func(ctx context.Context) error {
		var err error
		if before, err = s.Store.GetProject(ctx, id); err != nil {
			return err
		}
		if err := s.optionalRole(ctx, in.SeniorProjectManagerID, employee.RoleSeniorProjectManager); err != nil {
			return err
		}
		p := Project{ID: id, Name: name, SeniorProjectManagerID: in.SeniorProjectManagerID}
		if err := s.Store.UpdateProject(ctx, &p); err != nil {
			return err
		}
		after, err = s.Store.GetProject(ctx, id)
		return err
	})
	if err != nil {
		return Project{}, Project{}, err
	}
	s.record("project.updated")
	return before, after, nil
}

func (s *Service) DeleteProject(ctx context.Context, caller identity.Identity, id int64) (Project, error) {
	if err := requireAdmin(caller); err != nil {
		return Project{}, err
	}
	var before Project
	err := s.write(ctx, func(ctx context.Context) error {
		var err error
		if before, err = s.Store.GetProject(ctx, id); err != nil {
			return err
		}
		return s.Store.DeleteProject(ctx, id)
	})
	if err != nil {
		return Project{}, err
	}
	s.record("project.deleted")
	return before, nil
}

func (s *Service) AssignSeniorProjectManager(ctx context.Context, caller identity.Identity, projectID, employeeID int64) (before, after Project, err error) {
	if err := requireAdmin(caller); err != nil {
		return Project{}, Project{}, err
	}
	err = s.write(ctx, func(ctx context.Context) error {
		var err error
		if before, err = s.Store.GetProject(ctx, projectID); err != nil {
			return err
		}
		if _, err := s.requireRole(ctx, employeeID, employee.RoleSeniorProjectManager); err != nil {
			return err
		}
		p := before
		p.SeniorProjectManagerID = &employeeID
		if err := s.Store.UpdateProject(ctx, &p); err != nil {
			return err
		}
		after, err = s.Store.GetProject(ctx, projectID)
		return err
	})
	if err != nil {
		return Project{}, Project{}, err
	}
	s.record("project.spm_assigned")
	return before, after, nil
}

func (s *Service) ListTeams(ctx context.Context, _ identity.Identity) ([]Team, error) {
	var out []Team
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.Store.ListTeams(ctx)
		return err
	})
	return out, err
}

func (s *Service) GetTeam(ctx context.Context, _ identity.Identity, id int64) (Team, error) {
	var out Team
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.Store.GetTeam(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) Members(ctx context.Context, _ identity.Identity, teamID int64) ([]Member, error) {
	var out []Member
	err := s.read(ctx, func(ctx context.Context) error {
		if _, err := s.Store.GetTeam(ctx, teamID); err != nil {
			return err
		}
		var err error
		out, err = s.Store.ListMembers(ctx, teamID)
		return err
	})
	return out, err
}

// checkTeam validates a team payload against storage. It runs inside the
// caller's transaction.
func (s *Service) checkTeam(ctx context.Context, in TeamInput) (Team, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Team{}, apperror.InvalidArgument("Team name is required")
	}
	if in.ProjectID == nil {
		return Team{}, apperror.InvalidArgument("projectId is required")
	}
	if _, err := s.Store.GetProject(ctx, *in.ProjectID); err != nil {
		return Team{}, err
	}
	if err := s.optionalRole(ctx, in.ProjectManagerID, employee.RoleProjectManager); err != nil {
		return Team{}, err
	}
	if err := s.optionalRole(ctx, in.TeamManagerID, employee.RoleTeamManager); err != nil {
		return Team{}, err
	}
	return Team{
		Name:             name,
		ProjectID:        *in.ProjectID,
		ProjectManagerID: in.ProjectManagerID,
		TeamManagerID:    in.TeamManagerID,
	}, nil
}

func (s *Service) CreateTeam(ctx context.Context, caller identity.Identity, in TeamInput) (Team, error) {
	if err := gate(caller, TeamWriters); err != nil {
		return Team{}, err
	}
	var out Team
	err := s.write(ctx, func(ctx context.Context) error {
		t, err := s.checkTeam(ctx, in)
		if err != nil {
			return err
		}
		if err := s.Store.InsertTeam(ctx, &t); err != nil {
			return err
		}
		out, err = s.Store.GetTeam(ctx, t.ID)
		return err
	})
	if err != nil {
		return Team{}, err
	}
	s.record("team.created")
	return out, nil
}

// UpdateTeam replaces every field. Nil manager ids clear their slots.
func (s *Service) UpdateTeam(ctx context.Context, caller identity.Identity, id int64, in TeamInput) (before, after Team, err error) {
	if err := gate(caller, TeamWriters); err != nil {
		return Team{}, Team{}, err
	}
	err = s.write(ctx, func(ctx context.Context) error {
		var err error
		if before, err = s.Store.GetTeam(ctx, id); err != nil {
			return err
		}
		t, err := s.checkTeam(ctx, in)
		if err != nil {
			return err
		}
		t.ID = id
		if err := s.Store.UpdateTeam(ctx, &t); err != nil {
			return err
		}
		after, err = s.Store.GetTeam(ctx, id)
		return err
	})
	if err != nil {
		return Team{}, Team{}, err
	}
	s.record("team.updated")
	return before, after, nil
}

func (s *Service) DeleteTeam(ctx context.Context, caller identity.Identity, id int64) (Team, error) {
	if err := gate(caller, TeamWriters); err != nil {
		return Team{}, err
	}
	var before Team
	err := s.write(ctx, func(ctx context.Context) error {
		var err error
		if before, err = s.Store.GetTeam(ctx, id); err != nil {
			return err
		}
		return s.Store.DeleteTeam(ctx, id)
	})
	if err != nil {
		return Team{}, err
	}
	s.record("team.deleted")
	return before, nil
}

// assignManager fills one manager slot of a team after checking the role.
func (s *Service) assignManager(ctx context.Context, caller identity.Identity, teamID, employeeID int64, role employee.Role) (before, after Team, err error) {
	if err := gate(caller, TeamWriters); err != nil {
		return Team{}, Team{}, err
	}
	err = s.write(ctx, func(ctx context.Context) error {
		var err error
		if before, err = s.Store.GetTeam(ctx, teamID); err != nil {
			return err
		}
		if _, err := s.requireRole(ctx, employeeID, role); err != nil {
			return err
		}
		t := before
		if role == employee.RoleProjectManager {
			t.ProjectManagerID = &employeeID
		} else {
			t.TeamManagerID = &employeeID
		}
		if err := s.Store.UpdateTeam(ctx, &t); err != nil {
			return err
		}
		after, err = s.Store.GetTeam(ctx, teamID)
		return err
	})
	if err != nil {
		return Team{}, Team{}, err
	}
	s.record("team.manager_assigned")
	return before, after, nil
}

func (s *Service) AssignProjectManager(ctx context.Context, caller identity.Identity, teamID, employeeID int64) (before, after Team, err error) {
	return s.assignManager(ctx, caller, teamID, employeeID, employee.RoleProjectManager)
}

func (s *Service) AssignTeamManager(ctx context.Context, caller identity.Identity, teamID, employeeID int64) (before, after Team, err error) {
	return s.assignManager(ctx, caller, teamID, employeeID, employee.RoleTeamManager)
}

// AddMember puts a MEMBER employee on the team and its project. The team row
// stays locked until commit so concurrent adds cannot overshoot the cap.
// Adding someone already on the team changes nothing.
func (s *Service) AddMember(ctx context.Context, caller identity.Identity, teamID, employeeID int64) (Team, error) {
	if err := gate(caller, TeamWriters); err != nil {
		return Team{}, err
	}
	added := false
	var out Team
	err := s.write(ctx, func(ctx context.Context) error {
		projectID, err := s.Store.LockTeam(ctx, teamID)
		if err != nil {
			return err
		}
		a, err := s.requireRole(ctx, employeeID, employee.RoleMember)
		if err != nil {
			return err
		}
		if a.TeamID == nil || *a.TeamID != teamID {
			n, err := s.Store.CountMembers(ctx, teamID)
			if err != nil {
				return err
			}
			if n >= MaxTeamSize {
				return apperror.InvalidState("A team can have at most %d members", MaxTeamSize)
			}
			if err := s.Store.SetMembership(ctx, employeeID, &teamID, &projectID); err != nil {
				return err
			}
			added = true
		}
		out, err = s.Store.GetTeam(ctx, teamID)
		return err
	})
	if err != nil {
		return Team{}, err
	}
	if added {
		s.record("team.member_added")
	}
	return out, nil
}

// RemoveMember detaches the employee from the team and its project. It is a
// no-op when the employee is not on the team.
func (s *Service) RemoveMember(ctx context.Context, caller identity.Identity, teamID, employeeID int64) error {
	if err := gate(caller, TeamWriters); err != nil {
		return err
	}
	removed := false
	err := s.write(ctx, func(ctx context.Context) error {
		if _, err := s.Store.LockTeam(ctx, teamID); err != nil {
			return err
		}
		a, err := s.Store.Assignee(ctx, employeeID)
		if err != nil {
			return err
		}
		if a.TeamID == nil || *a.TeamID != teamID {
			return nil
		}
		removed = true
		return s.Store.SetMembership(ctx, employeeID, nil, nil)
	})
	if err != nil {
		return err
	}
	if removed {
		s.record("team.member_removed")
	}
	return nil
}
