package dto

import "github.com/Nathan-Yinka/Project-management-application/internal/api/validation"

type CreateProjectRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Status       string  `json:"status,omitempty"`
	Priority     string  `json:"priority,omitempty"`
	Organization string  `json:"organization"`
	AssignedTo   *string `json:"assigned_to,omitempty"`
}

func (r CreateProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if r.Organization == "" {
		errors["organization"] = "Organization ID is required"
	} else if !validation.IsValidUUID(r.Organization) {
		errors["organization"] = "Invalid organization ID"
	}
	if r.AssignedTo != nil && !validation.IsValidUUID(*r.AssignedTo) {
		errors["assigned_to"] = "Invalid user ID"
	}

	return errors
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`

	// AssignedTo distinguishes "leave unchanged" (field absent) from
	// "clear" (explicit null) via the double pointer decode in the handler.
	AssignedTo    *string `json:"assigned_to,omitempty"`
	ClearAssignee bool    `json:"-"`
}

func (r UpdateProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name != nil && *r.Name == "" {
		errors["name"] = "Name cannot be empty"
	}
	if r.AssignedTo != nil && !validation.IsValidUUID(*r.AssignedTo) {
		errors["assigned_to"] = "Invalid user ID"
	}

	return errors
}

type UpdateProjectStatusRequest struct {
	Organization string `json:"organization"`
	Status       string `json:"status"`
}

func (r UpdateProjectStatusRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Organization == "" {
		errors["organization"] = "This field is required."
	} else if !validation.IsValidUUID(r.Organization) {
		errors["organization"] = "Invalid organization ID"
	}
	if r.Status == "" {
		errors["status"] = "Status is required"
	}

	return errors
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

func (r AddCommentRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Content == "" {
		errors["content"] = "Content is required"
	}

	return errors
}

type ProjectResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Status          string   `json:"status"`
	Priority        string   `json:"priority"`
	Organization    string   `json:"organization"`
	AssignedTo      *string  `json:"assigned_to"`
	CreatedBy       string   `json:"created_by"`
	CreatedAt       string   `json:"created_at"`
	UserPermissions []string `json:"user_permissions,omitempty"`

	// Comments is populated on the detail endpoint only.
	Comments []CommentResponse `json:"comments,omitempty"`
}

type CommentResponse struct {
	ID        string `json:"id"`
	Project   string `json:"project"`
	User      string `json:"user"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
