package orghandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/identity"
	"ems/internal/domain/org"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type OrgService interface {
	ListProjects(ctx context.Context, caller identity.Identity) ([]org.Project, error)
	GetProject(ctx context.Context, caller identity.Identity, id int64) (org.Project, error)
	CreateProject(ctx context.Context, caller identity.Identity, in org.ProjectInput) (org.Project, error)
	UpdateProject(ctx context.Context, caller identity.Identity, id int64, in org.ProjectInput) (before, after org.Project, err error)
	DeleteProject(ctx context.Context, caller identity.Identity, id int64) (org.Project, error)
	AssignSeniorProjectManager(ctx context.Context, caller identity.Identity, projectID, employeeID int64) (before, after org.Project, err error)

	ListTeams(ctx context.Context, caller identity.Identity) ([]org.Team, error)
	GetTeam(ctx context.Context, caller identity.Identity, id int64) (org.Team, error)
	Members(ctx context.Context, caller identity.Identity, teamID int64) ([]org.Member, error)
	CreateTeam(ctx context.Context, caller identity.Identity, in org.TeamInput) (org.Team, error)
	UpdateTeam(ctx context.Context, caller identity.Identity, id int64, in org.TeamInput) (before, after org.Team, err error)
	DeleteTeam(ctx context.Context, caller identity.Identity, id int64) (org.Team, error)
	AssignProjectManager(ctx context.Context, caller identity.Identity, teamID, employeeID int64) (before, after org.Team, err error)
	AssignTeamManager(ctx context.Context, caller identity.Identity, teamID, employeeID int64) (before, after org.Team, err error)
	AddMember(ctx context.Context, caller identity.Identity, teamID, employeeID int64) (org.Team, error)
	RemoveMember(ctx context.Context, caller identity.Identity, teamID, employeeID int64) error
}

type Handler struct {
	Service OrgService
	Audit   shared.AuditRecorder
}

func NewHandler(service OrgService, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.With(middleware.RequireAnyRole(org.ManagerRoles...)).Get("/", h.handleListProjects)
		r.With(middleware.RequireAnyRole(org.ManagerRoles...)).Get("/{id}", h.handleGetProject)
		r.With(middleware.RequireAnyRole(org.ProjectWriters...)).Post("/", h.handleCreateProject)
		r.With(middleware.RequireAnyRole(org.ProjectWriters...)).Put("/{id}", h.handleUpdateProject)
		r.With(middleware.RequireAdmin).Delete("/{id}", h.handleDeleteProject)
		r.With(middleware.RequireAdmin).Post("/{id}/assign-spm/{employeeId}", h.handleAssignSPM)
	})
	r.Route("/teams", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleListTeams)
		r.Get("/{id}", h.handleGetTeam)
		r.Get("/{id}/members", h.handleMembers)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(org.TeamWriters...))
			r.Post("/", h.handleCreateTeam)
			r.Put("/{id}", h.handleUpdateTeam)
			r.Delete("/{id}", h.handleDeleteTeam)
			r.Post("/{id}/project-manager/{employeeId}", h.handleAssignProjectManager)
			r.Post("/{id}/team-manager/{employeeId}", h.handleAssignTeamManager)
			r.Post("/{id}/add-member/{employeeId}", h.handleAddMember)
			r.Delete("/{id}/remove-member/{employeeId}", h.handleRemoveMember)
		})
	})
}

// pathIDs reads {id} and, when asked, {employeeId}. It writes the error
// response itself.
func pathIDs(w http.ResponseWriter, r *http.Request, withEmployee bool) (id, employeeID int64, ok bool) {
	requestID := middleware.GetRequestID(r.Context())
	id, err := shared.PathID(r, "id")
	if err != nil {
		api.WriteError(w, err, requestID)
		return 0, 0, false
	}
	if withEmployee {
		if employeeID, err = shared.PathID(r, "employeeId"); err != nil {
			api.WriteError(w, err, requestID)
			return 0, 0, false
		}
	}
	return id, employeeID, true
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	projects, err := h.Service.ListProjects(r.Context(), caller)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, projects, requestID)
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, _, ok := pathIDs(w, r, false)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	project, err := h.Service.GetProject(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, project, requestID)
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload org.ProjectInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	project, err := h.Service.CreateProject(r.Context(), caller, payload)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "project.create", "project", project.ID, nil, project)
	api.Created(w, project, requestID)
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, _, ok := pathIDs(w, r, false)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload org.ProjectInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	before, after, err := h.Service.UpdateProject(r.Context(), caller, id, payload)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "project.update", "project", id, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, _, ok := pathIDs(w, r, false)
	if !ok {
		return
	}
	before, err := h.Service.DeleteProject(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "project.delete", "project", id, before, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAssignSPM(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, employeeID, ok := pathIDs(w, r, true)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	before, after, err := h.Service.AssignSeniorProjectManager(r.Context(), caller, id, employeeID)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "project.assign_spm", "project", id, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	teams, err := h.Service.ListTeams(r.Context(), caller)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, teams, requestID)
}

func (h *Handler) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, _, ok := pathIDs(w, r, false)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	team, err := h.Service.GetTeam(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, team, requestID)
}

func (h *Handler) handleMembers(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, _, ok := pathIDs(w, r, false)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	members, err := h.Service.Members(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	api.Success(w, members, requestID)
}

func (h *Handler) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload org.TeamInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	team, err := h.Service.CreateTeam(r.Context(), caller, payload)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "team.create", "team", team.ID, nil, team)
	api.Created(w, team, requestID)
}

func (h *Handler) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, _, ok := pathIDs(w, r, false)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload org.TeamInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	before, after, err := h.Service.UpdateTeam(r.Context(), caller, id, payload)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "team.update", "team", id, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, _, ok := pathIDs(w, r, false)
	if !ok {
		return
	}
	before, err := h.Service.DeleteTeam(r.Context(), caller, id)
	if err != nil {
		api.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "team.delete", "team", id, before, nil)
	w.WriteHeader(http.StatusNoContent)
}

type assignFunc func(ctx context.Context, caller identity.Identity, teamID, employeeID int64) (before, after org.Team, err error)

func (h *Handler) assign(action string, fn assignFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := shared.Caller(w, r)
		if !ok {
			return
		}
		id, employeeID, ok := pathIDs(w, r, true)
		if !ok {
			return
		}
		requestID := middleware.GetRequestID(r.Context())
		before, after, err := fn(r.Context(), caller, id, employeeID)
		if err != nil {
			api.WriteError(w, err, requestID)
			return
		}
		shared.RecordAudit(r, h.Audit, caller, action, "team", id, before, after)
		api.Success(w, after, requestID)
	}
}

func (h *Handler) handleAssignProjectManager(w http.ResponseWriter, r *http.Request) {
	h.assign("team.assign_project_manager", h.Service.AssignProjectManager)(w, r)
}

func (h *Handler) handleAssignTeamManager(w http.ResponseWriter, r *http.Request) {
	h.assign("team.assign_team_manager", h.Service.AssignTeamManager)(w, r)
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, employeeID, ok := pathIDs(w, r, true)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	team, err := h.Service.AddMember(r.Context(), caller, id, employeeID)
	if err != nil {
		api.WriteError(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "team.add_member", "team", id, nil, map[string]int64{"employeeId": employeeID})
	api.Success(w, team, requestID)
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	id, employeeID, ok := pathIDs(w, r, true)
	if !ok {
		return
	}
	if err := h.Service.RemoveMember(r.Context(), caller, id, employeeID); err != nil {
		api.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, caller, "team.remove_member", "team", id, map[string]int64{"employeeId": employeeID}, nil)
	w.WriteHeader(http.StatusNoContent)
}
