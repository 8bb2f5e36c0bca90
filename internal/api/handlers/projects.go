package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Nathan-Yinka/Project-management-application/internal/api/dto"
	"github.com/Nathan-Yinka/Project-management-application/internal/api/middleware"
	"github.com/Nathan-Yinka/Project-management-application/internal/authz"
	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/Nathan-Yinka/Project-management-application/internal/orgs"
	"github.com/Nathan-Yinka/Project-management-application/internal/projects"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	service    *projects.Service
	orgService *orgs.Service
	gate       *authz.Gate
}

func NewProjectHandler(service *projects.Service, orgService *orgs.Service, gate *authz.Gate) *ProjectHandler {
	return &ProjectHandler{service: service, orgService: orgService, gate: gate}
}

func projectToResponse(p *models.Project, perms authz.Set) dto.ProjectResponse {
	resp := dto.ProjectResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		Description:  p.Description,
		Status:       string(p.Status),
		Priority:     string(p.Priority),
		Organization: p.OrganizationID.String(),
		CreatedBy:    p.CreatedByID.String(),
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
	if p.AssignedToID != nil {
		s := p.AssignedToID.String()
		resp.AssignedTo = &s
	}
	if perms != nil {
		resp.UserPermissions = perms.List()
	}
	return resp
}

// List handles GET /project?organization_id=&search=&page=&per_page=
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	rawOrgID := r.URL.Query().Get("organization_id")
	if rawOrgID == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"organization_id": "This field is required."},
		})
		return
	}
	orgID, err := uuid.Parse(rawOrgID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	if _, err := h.orgService.Get(r.Context(), orgID); err != nil {
		if errors.Is(err, orgs.ErrOrganizationNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Organization not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load organization"})
		}
		return
	}

	pagination := dto.PaginationParams{
		Page:    intQuery(r, "page"),
		PerPage: intQuery(r, "per_page"),
	}
	pagination.Normalize()

	list, total, err := h.service.List(r.Context(), userID, orgID, projects.ListOptions{
		Search: r.URL.Query().Get("search"),
		Offset: pagination.Offset(),
		Limit:  pagination.PerPage,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list projects"})
		return
	}

	response := make([]dto.ProjectResponse, 0, len(list))
	for i := range list {
		perms, err := h.gate.Evaluator().ObjectPermissions(r.Context(), userID, authz.ProjectObject(&list[i]))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to evaluate permissions"})
			return
		}
		response = append(response, projectToResponse(&list[i], perms))
	}

	totalPages := int(total) / pagination.PerPage
	if int(total)%pagination.PerPage > 0 {
		totalPages++
	}
	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       response,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages,
	})
}

func intQuery(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// Create handles POST /project
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	orgID, _ := uuid.Parse(req.Organization)
	org, err := h.orgService.Get(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, orgs.ErrOrganizationNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Organization not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load organization"})
		}
		return
	}

	if err := h.gate.Authorize(r.Context(), userID, org, authz.Requirement{
		Capability: authz.CapAddProject,
	}); err != nil {
		writeGateError(w, err)
		return
	}

	input := projects.CreateInput{
		Name:           req.Name,
		Description:    req.Description,
		Status:         models.ProjectStatus(req.Status),
		Priority:       models.ProjectPriority(req.Priority),
		OrganizationID: org.ID,
		CreatedByID:    userID,
	}
	if req.AssignedTo != nil {
		assigneeID, _ := uuid.Parse(*req.AssignedTo)
		input.AssignedToID = &assigneeID
	}

	project, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeProjectError(w, err)
		return
	}

	perms, err := h.gate.Evaluator().ObjectPermissions(r.Context(), userID, authz.ProjectObject(project))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to evaluate permissions"})
		return
	}

	writeJSON(w, http.StatusCreated, projectToResponse(project, perms))
}

func writeProjectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, projects.ErrProjectNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
	case errors.Is(err, projects.ErrAssigneeNotMember):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"assigned_to": "The assigned user is not a member of the organization"},
		})
	case errors.Is(err, projects.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"status": "Invalid status"},
		})
	case errors.Is(err, projects.ErrInvalidPriority):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"priority": "Invalid priority"},
		})
	case errors.Is(err, projects.ErrOrganizationMismatch):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"organization": "The organization does not match the project's organization."},
		})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Project operation failed"})
	}
}

// resolveProject loads the project and its organization, writing the
// 400/404 response itself when resolution fails.
func (h *ProjectHandler) resolveProject(w http.ResponseWriter, r *http.Request, param string) (*models.Project, *models.Organization, bool) {
	projectID, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid project ID"})
		return nil, nil, false
	}

	project, err := h.service.Get(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, projects.ErrProjectNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load project"})
		}
		return nil, nil, false
	}

	org, err := h.orgService.Get(r.Context(), project.OrganizationID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load organization"})
		return nil, nil, false
	}

	return project, org, true
}

// requireProjectCapability runs the verb's capability against the union of
// organization and project grants.
func (h *ProjectHandler) requireProjectCapability(w http.ResponseWriter, r *http.Request, project *models.Project, org *models.Organization, capability string) bool {
	userID := middleware.GetUserID(r.Context())
	err := h.gate.Authorize(r.Context(), userID, org, authz.Requirement{
		Capability: capability,
		Objects:    []authz.GrantObject{authz.ProjectObject(project)},
	})
	if err != nil {
		writeGateError(w, err)
		return false
	}
	return true
}

// Get handles GET /project/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, org, ok := h.resolveProject(w, r, "id")
	if !ok {
		return
	}
	if !h.requireProjectCapability(w, r, project, org, authz.CapViewProject) {
		return
	}

	userID := middleware.GetUserID(r.Context())
	perms, err := h.gate.Evaluator().ObjectPermissions(r.Context(), userID, authz.ProjectObject(project))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to evaluate permissions"})
		return
	}

	comments, err := h.service.Comments(r.Context(), project.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load comments"})
		return
	}

	resp := projectToResponse(project, perms)
	resp.Comments = make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		resp.Comments = append(resp.Comments, dto.CommentResponse{
			ID:        c.ID.String(),
			Project:   c.ProjectID.String(),
			User:      c.UserID.String(),
			Content:   c.Content,
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
			UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Update handles PUT/PATCH /project/{id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, org, ok := h.resolveProject(w, r, "id")
	if !ok {
		return
	}
	if !h.requireProjectCapability(w, r, project, org, authz.CapChangeProject) {
		return
	}

	// Decode into a raw map first so an explicit "assigned_to": null can be
	// told apart from the field being absent.
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	var req dto.UpdateProjectRequest
	for key, value := range raw {
		var err error
		switch key {
		case "name":
			err = json.Unmarshal(value, &req.Name)
		case "description":
			err = json.Unmarshal(value, &req.Description)
		case "status":
			err = json.Unmarshal(value, &req.Status)
		case "priority":
			err = json.Unmarshal(value, &req.Priority)
		case "assigned_to":
			err = json.Unmarshal(value, &req.AssignedTo)
			req.ClearAssignee = req.AssignedTo == nil
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
			return
		}
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	input := projects.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Status != nil {
		status := models.ProjectStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := models.ProjectPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.AssignedTo != nil {
		assigneeID, _ := uuid.Parse(*req.AssignedTo)
		input.SetAssignee = true
		input.AssignedToID = &assigneeID
	} else if req.ClearAssignee {
		input.SetAssignee = true
	}

	updated, err := h.service.Update(r.Context(), project.ID, input)
	if err != nil {
		writeProjectError(w, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	perms, err := h.gate.Evaluator().ObjectPermissions(r.Context(), userID, authz.ProjectObject(updated))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to evaluate permissions"})
		return
	}

	writeJSON(w, http.StatusOK, projectToResponse(updated, perms))
}

// Delete handles DELETE /project/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, org, ok := h.resolveProject(w, r, "id")
	if !ok {
		return
	}
	if !h.requireProjectCapability(w, r, project, org, authz.CapDeleteProject) {
		return
	}

	if err := h.service.Delete(r.Context(), project.ID); err != nil {
		writeProjectError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus handles PATCH /project/update-status/{projectID}. The policy
// checks only the grants materialized on the project, not a fresh
// organization-wide union.
func (h *ProjectHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	project, _, ok := h.resolveProject(w, r, "projectID")
	if !ok {
		return
	}

	var req dto.UpdateProjectStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	if err := h.gate.AuthorizeObject(r.Context(), userID, authz.ProjectObject(project), authz.CapUpdateProjectStatus); err != nil {
		writeGateError(w, err)
		return
	}

	orgID, _ := uuid.Parse(req.Organization)
	updated, err := h.service.UpdateStatus(r.Context(), project.ID, orgID, models.ProjectStatus(req.Status))
	if err != nil {
		writeProjectError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projectToResponse(updated, nil))
}

// AddComment handles POST /project/{projectID}/add-comment
func (h *ProjectHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	project, org, ok := h.resolveProject(w, r, "projectID")
	if !ok {
		return
	}

	var req dto.AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	if err := h.gate.Authorize(r.Context(), userID, org, authz.Requirement{
		Capability: authz.CapComment,
		Objects:    []authz.GrantObject{authz.ProjectObject(project)},
	}); err != nil {
		writeGateError(w, err)
		return
	}

	comment, err := h.service.AddComment(r.Context(), project.ID, userID, req.Content)
	if err != nil {
		writeProjectError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CommentResponse{
		ID:        comment.ID.String(),
		Project:   comment.ProjectID.String(),
		User:      comment.UserID.String(),
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
		UpdatedAt: comment.UpdatedAt.Format(time.RFC3339),
	})
}
