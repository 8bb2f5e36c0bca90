package dto

import "github.com/Nathan-Yinka/Project-management-application/internal/api/validation"

type CreateOrganizationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r CreateOrganizationRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	} else if len(r.Name) > 255 {
		errors["name"] = "Name must be at most 255 characters"
	}

	return errors
}

type AddMembersRequest struct {
	Organization string   `json:"organization"`
	Emails       []string `json:"emails"`
	Role         string   `json:"role,omitempty"`
}

func (r AddMembersRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Organization == "" {
		errors["organization"] = "Organization ID is required"
	} else if !validation.IsValidUUID(r.Organization) {
		errors["organization"] = "Invalid organization ID"
	}
	if len(r.Emails) == 0 {
		errors["emails"] = "At least one email is required"
	}
	for _, email := range r.Emails {
		if !validation.IsValidEmail(email) {
			errors["emails"] = "Invalid email format: " + email
			break
		}
	}
	if r.Role != "" && r.Role != "admin" && r.Role != "member" {
		errors["role"] = "Role must be admin or member"
	}

	return errors
}

type RemoveMemberRequest struct {
	Organization string `json:"organization"`
	User         string `json:"user"`
}

func (r RemoveMemberRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Organization == "" {
		errors["organization"] = "Organization ID is required"
	} else if !validation.IsValidUUID(r.Organization) {
		errors["organization"] = "Invalid organization ID"
	}
	if r.User == "" {
		errors["user"] = "User ID is required"
	} else if !validation.IsValidUUID(r.User) {
		errors["user"] = "Invalid user ID"
	}

	return errors
}

type ChangeMemberRoleRequest struct {
	Organization string `json:"organization"`
	User         string `json:"user"`
	Role         string `json:"role"`
}

func (r ChangeMemberRoleRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Organization == "" {
		errors["organization"] = "Organization ID is required"
	} else if !validation.IsValidUUID(r.Organization) {
		errors["organization"] = "Invalid organization ID"
	}
	if r.User == "" {
		errors["user"] = "User ID is required"
	} else if !validation.IsValidUUID(r.User) {
		errors["user"] = "Invalid user ID"
	}
	if r.Role != "admin" && r.Role != "member" {
		errors["role"] = "Role must be admin or member"
	}

	return errors
}

type LeaveOrganizationRequest struct {
	Organization string `json:"organization"`
}

func (r LeaveOrganizationRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Organization == "" {
		errors["organization"] = "Organization ID is required"
	} else if !validation.IsValidUUID(r.Organization) {
		errors["organization"] = "Invalid organization ID"
	}

	return errors
}

type MembershipDTO struct {
	ID           string `json:"id"`
	User         string `json:"user"`
	Organization string `json:"organization"`
	Role         string `json:"role"`
	DateJoined   string `json:"date_joined"`
}

type OrganizationResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CreatedBy   string   `json:"created_by"`
	CreatedAt   string   `json:"created_at"`
	Memberships []MembershipDTO `json:"memberships,omitempty"`
}

type OrganizationDetailResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       string    `json:"created_at"`
	Users           []UserDTO `json:"users"`
	UserPermissions []string  `json:"user_permissions"`
}
