package authz

import (
	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Provisioning keeps the grant table consistent with the membership and
// assignment graph. Every function here must run inside the transaction that
// performs the triggering entity mutation, so a role change or reassignment
// can never commit with stale grants.

// SeedOrganizationGrants installs the baseline grants for a freshly created
// organization: admins may add projects and manage users, members may view.
func SeedOrganizationGrants(tx *gorm.DB, org *models.Organization) error {
	if err := grantToGroup(tx, org.ID, models.RoleAdmin, models.ObjectOrganization, org.ID, orgAdminCapabilities...); err != nil {
		return err
	}
	return grantToGroup(tx, org.ID, models.RoleMember, models.ObjectOrganization, org.ID, orgMemberCapabilities...)
}

// SeedProjectGrants installs grants for a freshly created project: the full
// project capability set for the organization's admin group, and the
// assignee set for the assigned user, if any.
func SeedProjectGrants(tx *gorm.DB, project *models.Project) error {
	if err := grantToGroup(tx, project.OrganizationID, models.RoleAdmin, models.ObjectProject, project.ID, projectAdminCapabilities...); err != nil {
		return err
	}
	if project.AssignedToID != nil {
		return grantToUser(tx, project.OrganizationID, *project.AssignedToID, models.ObjectProject, project.ID, projectAssigneeCapabilities...)
	}
	return nil
}

// SyncAssigneeGrants moves the assignee capability set from the previous
// assignee to the next one. Stale grants from the previous assignee must not
// survive a reassignment.
func SyncAssigneeGrants(tx *gorm.DB, project *models.Project, prev, next *uuid.UUID) error {
	if prev != nil && (next == nil || *prev != *next) {
		if err := revokeFromUser(tx, *prev, models.ObjectProject, project.ID, projectAssigneeCapabilities...); err != nil {
			return err
		}
	}
	if next != nil {
		return grantToUser(tx, project.OrganizationID, *next, models.ObjectProject, project.ID, projectAssigneeCapabilities...)
	}
	return nil
}

// RevokeProjectGrants removes every grant on a project being deleted.
func RevokeProjectGrants(tx *gorm.DB, projectID uuid.UUID) error {
	return revokeObjectGrants(tx, models.ObjectProject, projectID)
}

// RevokeOrganizationGrants removes every grant scoped to an organization
// being deleted, including grants on its projects.
func RevokeOrganizationGrants(tx *gorm.DB, orgID uuid.UUID) error {
	return tx.Where("organization_id = ?", orgID).Delete(&models.CapabilityGrant{}).Error
}

// RevokeMemberGrants deprovisions a user leaving an organization: all direct
// grants inside the organization are removed and projects assigned to the
// user are unassigned. Group-derived capabilities disappear with the
// membership row itself.
func RevokeMemberGrants(tx *gorm.DB, userID, orgID uuid.UUID) error {
	if err := revokeUserOrganizationGrants(tx, userID, orgID); err != nil {
		return err
	}
	return tx.Model(&models.Project{}).
		Where("organization_id = ? AND assigned_to_id = ?", orgID, userID).
		Update("assigned_to_id", nil).Error
}
