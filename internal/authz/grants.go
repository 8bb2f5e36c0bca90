package authz

import (
	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// groupRoles expands a membership role into the role groups it belongs to.
// An admin is always also a member.
func groupRoles(role models.Role) []models.Role {
	if role == models.RoleAdmin {
		return []models.Role{models.RoleAdmin, models.RoleMember}
	}
	return []models.Role{models.RoleMember}
}

// grantToGroup assigns capabilities on an object to one of the
// organization's implicit role groups. Assignment is get-or-create so
// re-provisioning is idempotent.
func grantToGroup(tx *gorm.DB, orgID uuid.UUID, role models.Role, objType models.ObjectType, objID uuid.UUID, capabilities ...string) error {
	for _, capability := range capabilities {
		grant := models.CapabilityGrant{
			OrganizationID: orgID,
			HolderType:     models.HolderGroup,
			GroupRole:      &role,
			ObjectType:     objType,
			ObjectID:       objID,
			Capability:     capability,
		}
		err := tx.Where(models.CapabilityGrant{
			OrganizationID: orgID,
			HolderType:     models.HolderGroup,
			GroupRole:      &role,
			ObjectType:     objType,
			ObjectID:       objID,
			Capability:     capability,
		}).FirstOrCreate(&grant).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// grantToUser assigns capabilities on an object directly to a user.
func grantToUser(tx *gorm.DB, orgID, userID uuid.UUID, objType models.ObjectType, objID uuid.UUID, capabilities ...string) error {
	for _, capability := range capabilities {
		grant := models.CapabilityGrant{
			OrganizationID: orgID,
			HolderType:     models.HolderUser,
			UserID:         &userID,
			ObjectType:     objType,
			ObjectID:       objID,
			Capability:     capability,
		}
		err := tx.Where(models.CapabilityGrant{
			OrganizationID: orgID,
			HolderType:     models.HolderUser,
			UserID:         &userID,
			ObjectType:     objType,
			ObjectID:       objID,
			Capability:     capability,
		}).FirstOrCreate(&grant).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// revokeFromUser removes the user's direct capabilities on an object.
func revokeFromUser(tx *gorm.DB, userID uuid.UUID, objType models.ObjectType, objID uuid.UUID, capabilities ...string) error {
	return tx.
		Where("holder_type = ? AND user_id = ? AND object_type = ? AND object_id = ? AND capability IN ?",
			models.HolderUser, userID, objType, objID, capabilities).
		Delete(&models.CapabilityGrant{}).Error
}

// revokeObjectGrants removes every grant, user or group held, on an object.
func revokeObjectGrants(tx *gorm.DB, objType models.ObjectType, objID uuid.UUID) error {
	return tx.
		Where("object_type = ? AND object_id = ?", objType, objID).
		Delete(&models.CapabilityGrant{}).Error
}

// revokeUserOrganizationGrants removes all grants held directly by the user
// anywhere inside the organization (the organization object and its projects).
func revokeUserOrganizationGrants(tx *gorm.DB, userID, orgID uuid.UUID) error {
	return tx.
		Where("holder_type = ? AND user_id = ? AND organization_id = ?",
			models.HolderUser, userID, orgID).
		Delete(&models.CapabilityGrant{}).Error
}
