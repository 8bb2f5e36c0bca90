package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Nathan-Yinka/Project-management-application/internal/api/dto"
	"github.com/Nathan-Yinka/Project-management-application/internal/api/middleware"
	"github.com/Nathan-Yinka/Project-management-application/internal/authz"
	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/Nathan-Yinka/Project-management-application/internal/orgs"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrganizationHandler struct {
	service *orgs.Service
	gate    *authz.Gate
}

func NewOrganizationHandler(service *orgs.Service, gate *authz.Gate) *OrganizationHandler {
	return &OrganizationHandler{service: service, gate: gate}
}

// writeGateError maps gate denials onto the response taxonomy: membership
// and capability failures are 403, anything else is a server fault.
func writeGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrNotMember):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "You are not a member of this organization"})
	case errors.Is(err, authz.ErrMissingCapability):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "You are not authorized to perform this action"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Authorization check failed"})
	}
}

func organizationToResponse(org *models.Organization, memberships []models.Membership) dto.OrganizationResponse {
	resp := dto.OrganizationResponse{
		ID:          org.ID.String(),
		Name:        org.Name,
		Description: org.Description,
		CreatedBy:   org.CreatedByID.String(),
		CreatedAt:   org.CreatedAt.Format(time.RFC3339),
	}
	for _, m := range memberships {
		resp.Memberships = append(resp.Memberships, dto.MembershipDTO{
			ID:           m.ID.String(),
			User:         m.UserID.String(),
			Organization: m.OrganizationID.String(),
			Role:         string(m.Role),
			DateJoined:   m.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

// Create handles POST /organization
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	org, err := h.service.Create(r.Context(), orgs.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		CreatedByID: userID,
	})
	if err != nil {
		switch {
		case errors.Is(err, orgs.ErrOrganizationExists):
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "An organization with this name already exists"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create organization"})
		}
		return
	}

	memberships, err := h.service.Memberships(r.Context(), org.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load organization"})
		return
	}

	writeJSON(w, http.StatusCreated, organizationToResponse(org, memberships))
}

// List handles GET /organization
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	organizations, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list organizations"})
		return
	}

	response := make([]dto.OrganizationResponse, 0, len(organizations))
	for i := range organizations {
		memberships, err := h.service.Memberships(r.Context(), organizations[i].ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list organizations"})
			return
		}
		response = append(response, organizationToResponse(&organizations[i], memberships))
	}

	writeJSON(w, http.StatusOK, response)
}

// resolveOrganization parses the id and loads the organization, writing the
// 400/404 response itself when resolution fails.
func (h *OrganizationHandler) resolveOrganization(w http.ResponseWriter, r *http.Request, raw string) (*models.Organization, bool) {
	orgID, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return nil, false
	}

	org, err := h.service.Get(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, orgs.ErrOrganizationNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Organization not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load organization"})
		}
		return nil, false
	}
	return org, true
}

// Detail handles GET /organization/{id}: the organization, its members, and
// the caller's effective capability set.
func (h *OrganizationHandler) Detail(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	org, ok := h.resolveOrganization(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.gate.Authorize(r.Context(), userID, org, authz.Requirement{
		Capability: authz.CapViewOrganization,
	}); err != nil {
		writeGateError(w, err)
		return
	}

	users, err := h.service.Members(r.Context(), org.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list members"})
		return
	}

	perms, err := h.gate.Evaluator().PermissionsFor(r.Context(), userID, org)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to evaluate permissions"})
		return
	}

	resp := dto.OrganizationDetailResponse{
		ID:              org.ID.String(),
		Name:            org.Name,
		Description:     org.Description,
		CreatedBy:       org.CreatedByID.String(),
		CreatedAt:       org.CreatedAt.Format(time.RFC3339),
		Users:           make([]dto.UserDTO, 0, len(users)),
		UserPermissions: perms.List(),
	}
	for i := range users {
		resp.Users = append(resp.Users, userToDTO(&users[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Users handles GET /organization/{id}/users
func (h *OrganizationHandler) Users(w http.ResponseWriter, r *http.Request) {
	org, ok := h.resolveOrganization(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	users, err := h.service.Members(r.Context(), org.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list members"})
		return
	}

	response := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		response = append(response, userToDTO(&users[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

// NonUsers handles GET /organization/{id}/non-users
func (h *OrganizationHandler) NonUsers(w http.ResponseWriter, r *http.Request) {
	org, ok := h.resolveOrganization(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	users, err := h.service.NonMembers(r.Context(), org.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list users"})
		return
	}

	response := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		response = append(response, userToDTO(&users[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

// AddMember handles POST /organization/add_member
func (h *OrganizationHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.AddMembersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	org, ok := h.resolveOrganization(w, r, req.Organization)
	if !ok {
		return
	}

	if err := h.gate.Authorize(r.Context(), userID, org, authz.Requirement{
		Capability: authz.CapAddUser,
	}); err != nil {
		writeGateError(w, err)
		return
	}

	err := h.service.AddMembers(r.Context(), org.ID, req.Emails, models.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, orgs.ErrAlreadyMember), errors.Is(err, orgs.ErrAlreadyInvited):
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to add members"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, dto.SuccessResponse{Message: "Pending memberships created successfully."})
}

// RemoveMember handles POST /organization/remove-member. Admins may remove
// anyone; a user may always remove themselves.
func (h *OrganizationHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.RemoveMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	org, ok := h.resolveOrganization(w, r, req.Organization)
	if !ok {
		return
	}
	targetID, _ := uuid.Parse(req.User)

	if err := h.gate.Authorize(r.Context(), userID, org, authz.Requirement{
		Capability: authz.CapRemoveUser,
		SelfUserID: targetID,
	}); err != nil {
		writeGateError(w, err)
		return
	}

	if err := h.service.RemoveMember(r.Context(), org.ID, targetID); err != nil {
		switch {
		case errors.Is(err, orgs.ErrMembershipNotFound):
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Membership not found"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to remove member"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Member removed successfully."})
}

// Leave handles POST /organization/leave-organization
func (h *OrganizationHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.LeaveOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	org, ok := h.resolveOrganization(w, r, req.Organization)
	if !ok {
		return
	}

	if err := h.service.Leave(r.Context(), org.ID, userID); err != nil {
		switch {
		case errors.Is(err, orgs.ErrMembershipNotFound):
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "You are not a member of this organization"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to leave organization"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "You have successfully left the organization."})
}

// ChangeRole handles POST /organization/change-role. Changing a member's
// role swaps their group attachment in the same transaction, so the
// capability change is visible atomically.
func (h *OrganizationHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.ChangeMemberRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	org, ok := h.resolveOrganization(w, r, req.Organization)
	if !ok {
		return
	}
	targetID, _ := uuid.Parse(req.User)

	if err := h.gate.Authorize(r.Context(), userID, org, authz.Requirement{
		Capability: authz.CapAddUser,
	}); err != nil {
		writeGateError(w, err)
		return
	}

	if err := h.service.ChangeMemberRole(r.Context(), org.ID, targetID, models.Role(req.Role)); err != nil {
		switch {
		case errors.Is(err, orgs.ErrMembershipNotFound):
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Membership not found"})
		case errors.Is(err, orgs.ErrInvalidRole):
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Validation failed",
				Details: map[string]string{"role": "Role must be admin or member"},
			})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to change member role"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Member role updated successfully."})
}
