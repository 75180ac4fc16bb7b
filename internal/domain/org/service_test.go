package org

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"ems/internal/domain/apperror"
	"ems/internal/domain/employee"
	"ems/internal/domain/identity"
)

type memEmployee struct {
	first, last string
	role        employee.Role
	teamID      *int64
	projectID   *int64
}

type memStore struct {
	next      int64
	projects  map[int64]Project
	teams     map[int64]Team
	employees map[int64]*memEmployee
}

func newMemStore() *memStore {
	return &memStore{
		next:      100,
		projects:  map[int64]Project{},
		teams:     map[int64]Team{},
		employees: map[int64]*memEmployee{},
	}
}

func (m *memStore) hire(id int64, role employee.Role) {
	m.employees[id] = &memEmployee{first: "Emp", last: string(role), role: role}
}

func (m *memStore) name(id *int64) string {
	if id == nil {
		return ""
	}
	if e, ok := m.employees[*id]; ok {
		return e.first + " " + e.last
	}
	return ""
}

func (m *memStore) ListProjects(ctx context.Context) ([]Project, error) {
	out := []Project{}
	for id := range m.projects {
		p, _ := m.GetProject(ctx, id)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetProject(_ context.Context, id int64) (Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return Project{}, apperror.NotFound(projectNotFound)
	}
	p.SeniorProjectManagerName = m.name(p.SeniorProjectManagerID)
	p.TeamsCount = 0
	for _, t := range m.teams {
		if t.ProjectID == id {
			p.TeamsCount++
		}
	}
	return p, nil
}

func (m *memStore) InsertProject(_ context.Context, p *Project) error {
	m.next++
	p.ID = m.next
	m.projects[p.ID] = *p
	return nil
}

func (m *memStore) UpdateProject(_ context.Context, p *Project) error {
	if _, ok := m.projects[p.ID]; !ok {
		return apperror.NotFound(projectNotFound)
	}
	m.projects[p.ID] = *p
	return nil
}

func (m *memStore) DeleteProject(ctx context.Context, id int64) error {
	if _, ok := m.projects[id]; !ok {
		return apperror.NotFound(projectNotFound)
	}
	for tid, t := range m.teams {
		if t.ProjectID == id {
			_ = m.DeleteTeam(ctx, tid)
		}
	}
	for _, e := range m.employees {
		if e.projectID != nil && *e.projectID == id {
			e.projectID = nil
		}
	}
	delete(m.projects, id)
	return nil
}

func (m *memStore) ListTeams(ctx context.Context) ([]Team, error) {
	out := []Team{}
	for id := range m.teams {
		t, _ := m.GetTeam(ctx, id)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetTeam(_ context.Context, id int64) (Team, error) {
	t, ok := m.teams[id]
	if !ok {
		return Team{}, apperror.NotFound(teamNotFound)
	}
	t.ProjectName = m.projects[t.ProjectID].Name
	t.ProjectManagerName = m.name(t.ProjectManagerID)
	t.TeamManagerName = m.name(t.TeamManagerID)
	return t, nil
}

func (m *memStore) InsertTeam(_ context.Context, t *Team) error {
	m.next++
	t.ID = m.next
	m.teams[t.ID] = *t
	return nil
}

func (m *memStore) UpdateTeam(_ context.Context, t *Team) error {
	if _, ok := m.teams[t.ID]; !ok {
		return apperror.NotFound(teamNotFound)
	}
	m.teams[t.ID] = *t
	for _, e := range m.employees {
		if e.teamID != nil && *e.teamID == t.ID {
			pid := t.ProjectID
			e.projectID = &pid
		}
	}
	return nil
}

func (m *memStore) DeleteTeam(_ context.Context, id int64) error {
	if _, ok := m.teams[id]; !ok {
		return apperror.NotFound(teamNotFound)
	}
	for _, e := range m.employees {
		if e.teamID != nil && *e.teamID == id {
			e.teamID = nil
		}
	}
	delete(m.teams, id)
	return nil
}

func (m *memStore) LockTeam(_ context.Context, teamID int64) (int64, error) {
	t, ok := m.teams[teamID]
	if !ok {
		return 0, apperror.NotFound(teamNotFound)
	}
	return t.ProjectID, nil
}

func (m *memStore) CountMembers(_ context.Context, teamID int64) (int, error) {
	n := 0
	for _, e := range m.employees {
		if e.teamID != nil && *e.teamID == teamID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListMembers(_ context.Context, teamID int64) ([]Member, error) {
	out := []Member{}
	for id, e := range m.employees {
		if e.teamID != nil && *e.teamID == teamID {
			out = append(out, Member{EmployeeID: id, FirstName: e.first, LastName: e.last, Role: e.role, TeamID: e.teamID, ProjectID: e.projectID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *memStore) Assignee(_ context.Context, employeeID int64) (Assignee, error) {
	e, ok := m.employees[employeeID]
	if !ok {
		return Assignee{}, apperror.NotFound("Employee not found with id: %d", employeeID)
	}
	return Assignee{ID: employeeID, Role: e.role, TeamID: e.teamID}, nil
}

func (m *memStore) SetMembership(_ context.Context, employeeID int64, teamID, projectID *int64) error {
	e, ok := m.employees[employeeID]
	if !ok {
		return apperror.NotFound("Employee not found with id: %d", employeeID)
	}
	e.teamID, e.projectID = teamID, projectID
	return nil
}

var (
	admin  = identity.Identity{Email: "admin@example.com", IsAdmin: true}
	spm    = identity.Identity{Email: "spm@example.com", Roles: []string{"SENIOR_PROJECT_MANAGER"}}
	tm     = identity.Identity{Email: "tm@example.com", Roles: []string{"TEAM_MANAGER"}}
	member = identity.Identity{Email: "member@example.com", Roles: []string{"MEMBER"}}
)

func ptr(v int64) *int64 { return &v }

func seededTeam(t *testing.T, store *memStore, svc *Service) Team {
	t.Helper()
	project, err := svc.CreateProject(context.Background(), admin, ProjectInput{Name: "Apollo"})
	require.NoError(t, err)
	team, err := svc.CreateTeam(context.Background(), admin, TeamInput{Name: "Core", ProjectID: &project.ID})
	require.NoError(t, err)
	return team
}

func TestTeamCapacity(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)
	team := seededTeam(t, store, svc)
	ctx := context.Background()

	for id := int64(1); id <= 7; id++ {
		store.hire(id, employee.RoleMember)
	}
	for id := int64(1); id <= 6; id++ {
		_, err := svc.AddMember(ctx, admin, team.ID, id)
		require.NoError(t, err, "member %d", id)
	}

	_, err := svc.AddMember(ctx, admin, team.ID, 7)
	require.True(t, errors.Is(err, apperror.ErrInvalidState), "got %v", err)
	require.Equal(t, "A team can have at most 6 members", apperror.MessageOf(err))

	// Re-adding an existing member is not counted against the cap.
	_, err = svc.AddMember(ctx, admin, team.ID, 6)
	require.NoError(t, err)

	members, err := svc.Members(ctx, member, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 6)
	require.Equal(t, team.ProjectID, *members[0].ProjectID)
}

func TestMembershipRoleAndRemoval(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)
	team := seededTeam(t, store, svc)
	ctx := context.Background()
	store.hire(1, employee.RoleTeamManager)
	store.hire(2, employee.RoleMember)

	_, err := svc.AddMember(ctx, admin, team.ID, 1)
	require.True(t, errors.Is(err, apperror.ErrInvalidArgument))
	require.Equal(t, "Employee must be a Member", apperror.MessageOf(err))

	_, err = svc.AddMember(ctx, admin, team.ID, 404)
	require.True(t, errors.Is(err, apperror.ErrNotFound))
	_, err = svc.AddMember(ctx, admin, 404, 2)
	require.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = svc.AddMember(ctx, admin, team.ID, 2)
	require.NoError(t, err)
	require.NoError(t, svc.RemoveMember(ctx, admin, team.ID, 2))
	require.Nil(t, store.employees[2].teamID)
	require.Nil(t, store.employees[2].projectID)
	require.NotNil(t, store.employees[2], "removal never deletes the employee")

	require.NoError(t, svc.RemoveMember(ctx, admin, team.ID, 2), "removing twice is a no-op")
	require.True(t, errors.Is(svc.RemoveMember(ctx, member, team.ID, 2), apperror.ErrForbidden))
}

func TestProjectSeniorManagerRole(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()
	store.hire(1, employee.RoleMember)
	store.hire(2, employee.RoleSeniorProjectManager)

	_, err := svc.CreateProject(ctx, spm, ProjectInput{Name: "Gemini", SeniorProjectManagerID: ptr(1)})
	require.True(t, errors.Is(err, apperror.ErrInvalidArgument))
	require.Equal(t, "Employee must be a Senior Project Manager", apperror.MessageOf(err))

	p, err := svc.CreateProject(ctx, spm, ProjectInput{Name: "Gemini"})
	require.NoError(t, err)

	_, _, err = svc.AssignSeniorProjectManager(ctx, admin, p.ID, 1)
	require.True(t, errors.Is(err, apperror.ErrInvalidArgument))
	_, _, err = svc.AssignSeniorProjectManager(ctx, spm, p.ID, 2)
	require.True(t, errors.Is(err, apperror.ErrForbidden), "assign-spm is admin only")

	before, after, err := svc.AssignSeniorProjectManager(ctx, admin, p.ID, 2)
	require.NoError(t, err)
	require.Nil(t, before.SeniorProjectManagerID)
	require.Equal(t, int64(2), *after.SeniorProjectManagerID)
	require.Equal(t, "Emp SENIOR_PROJECT_MANAGER", after.SeniorProjectManagerName)

	_, after, err = svc.UpdateProject(ctx, admin, p.ID, ProjectInput{Name: "Gemini II"})
	require.NoError(t, err)
	require.Nil(t, after.SeniorProjectManagerID, "update without a manager clears the slot")
	require.Equal(t, "Gemini II", after.Name)

	_, err = svc.CreateProject(ctx, spm, ProjectInput{Name: "  "})
	require.True(t, errors.Is(err, apperror.ErrInvalidArgument))
	_, err = svc.CreateProject(ctx, tm, ProjectInput{Name: "Mercury"})
	require.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestTeamManagersAndUpdate(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)
	team := seededTeam(t, store, svc)
	ctx := context.Background()
	store.hire(1, employee.RoleProjectManager)
	store.hire(2, employee.RoleTeamManager)
	store.hire(3, employee.RoleMember)

	_, _, err := svc.AssignProjectManager(ctx, admin, team.ID, 2)
	require.Equal(t, "Employee must be a Project Manager", apperror.MessageOf(err))
	_, _, err = svc.AssignTeamManager(ctx, admin, team.ID, 1)
	require.Equal(t, "Employee must be a Team Manager", apperror.MessageOf(err))

	_, after, err := svc.AssignProjectManager(ctx, admin, team.ID, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), *after.ProjectManagerID)
	_, after, err = svc.AssignTeamManager(ctx, admin, team.ID, 2)
	require.NoError(t, err)
	require.Equal(t, int64(2), *after.TeamManagerID)
	require.Equal(t, int64(1), *after.ProjectManagerID)

	_, err = svc.AddMember(ctx, admin, team.ID, 3)
	require.NoError(t, err)

	other, err := svc.CreateProject(ctx, admin, ProjectInput{Name: "Artemis"})
	require.NoError(t, err)
	_, after, err = svc.UpdateTeam(ctx, admin, team.ID, TeamInput{Name: "Core", ProjectID: &other.ID, TeamManagerID: ptr(2)})
	require.NoError(t, err)
	require.Nil(t, after.ProjectManagerID)
	require.Equal(t, "Artemis", after.ProjectName)
	require.Equal(t, other.ID, *store.employees[3].projectID, "members follow the team's project")

	_, err = svc.CreateTeam(ctx, admin, TeamInput{Name: "Orphan", ProjectID: ptr(404)})
	require.True(t, errors.Is(err, apperror.ErrNotFound))
	require.Equal(t, "Project not found", apperror.MessageOf(err))
	_, err = svc.CreateTeam(ctx, admin, TeamInput{Name: "Orphan"})
	require.True(t, errors.Is(err, apperror.ErrInvalidArgument))
	_, err = svc.CreateTeam(ctx, tm, TeamInput{Name: "Orphan", ProjectID: &other.ID})
	require.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestDeleteProjectDetachesMembers(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)
	team := seededTeam(t, store, svc)
	ctx := context.Background()
	store.hire(1, employee.RoleMember)
	_, err := svc.AddMember(ctx, admin, team.ID, 1)
	require.NoError(t, err)

	_, err = svc.DeleteProject(ctx, spm, team.ProjectID)
	require.True(t, errors.Is(err, apperror.ErrForbidden))

	before, err := svc.DeleteProject(ctx, admin, team.ProjectID)
	require.NoError(t, err)
	require.Equal(t, 1, before.TeamsCount)

	_, err = svc.GetTeam(ctx, member, team.ID)
	require.True(t, errors.Is(err, apperror.ErrNotFound))
	require.Nil(t, store.employees[1].teamID)
	require.Nil(t, store.employees[1].projectID)

	_, err = svc.DeleteProject(ctx, admin, team.ProjectID)
	require.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestReadGates(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)
	seededTeam(t, store, svc)
	ctx := context.Background()

	_, err := svc.ListProjects(ctx, member)
	require.True(t, errors.Is(err, apperror.ErrForbidden))
	projects, err := svc.ListProjects(ctx, tm)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, 1, projects[0].TeamsCount)

	teams, err := svc.ListTeams(ctx, member)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	require.Equal(t, "Apollo", teams[0].ProjectName)
}
