package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrForeignObject reports a secondary object that does not belong to the
// organization it was evaluated against. This is a data-integrity fault in
// the caller, not an authorization denial.
var ErrForeignObject = errors.New("object does not belong to the organization")

// GrantObject identifies an object grants can attach to.
type GrantObject struct {
	Type           models.ObjectType
	ID             uuid.UUID
	OrganizationID uuid.UUID
}

func OrganizationObject(org *models.Organization) GrantObject {
	return GrantObject{Type: models.ObjectOrganization, ID: org.ID, OrganizationID: org.ID}
}

func ProjectObject(p *models.Project) GrantObject {
	return GrantObject{Type: models.ObjectProject, ID: p.ID, OrganizationID: p.OrganizationID}
}

// Evaluator answers allow/deny questions from the grant table.
type Evaluator struct {
	db *gorm.DB
}

func NewEvaluator(db *gorm.DB) *Evaluator {
	return &Evaluator{db: db}
}

// PermissionsFor computes the user's effective capability set inside an
// organization: the union of grants held directly by the user on the
// organization, grants held by the role groups the user belongs to, and,
// for each secondary object, the grants materialized on that object. Every
// secondary object must belong to the organization.
//
// A capability granted directly and one granted through a group are
// indistinguishable in the result; there is no precedence between sources.
func (e *Evaluator) PermissionsFor(ctx context.Context, userID uuid.UUID, org *models.Organization, objs ...GrantObject) (Set, error) {
	set := Set{}
	if userID == uuid.Nil {
		return set, nil
	}

	roles, err := e.memberGroupRoles(ctx, userID, org.ID)
	if err != nil {
		return nil, err
	}

	if err := e.collectObject(ctx, set, userID, roles, models.ObjectOrganization, org.ID); err != nil {
		return nil, err
	}

	for _, obj := range objs {
		if obj.OrganizationID != org.ID {
			return nil, fmt.Errorf("%w: %s %s vs organization %s", ErrForeignObject, obj.Type, obj.ID, org.ID)
		}
		if err := e.collectObject(ctx, set, userID, roles, obj.Type, obj.ID); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// HasCapability reports whether the capability is present in the user's
// effective set for the organization. Unauthenticated principals are always
// denied.
func (e *Evaluator) HasCapability(ctx context.Context, userID uuid.UUID, org *models.Organization, capability string, objs ...GrantObject) (bool, error) {
	set, err := e.PermissionsFor(ctx, userID, org, objs...)
	if err != nil {
		return false, err
	}
	return set.Has(capability), nil
}

// ObjectPermissions returns only the grants materialized on a single object,
// held directly by the user or by a role group the user belongs to. Used by
// policies that check a project's saved grants without recomputing the
// organization-wide union.
func (e *Evaluator) ObjectPermissions(ctx context.Context, userID uuid.UUID, obj GrantObject) (Set, error) {
	set := Set{}
	if userID == uuid.Nil {
		return set, nil
	}
	roles, err := e.memberGroupRoles(ctx, userID, obj.OrganizationID)
	if err != nil {
		return nil, err
	}
	if err := e.collectObject(ctx, set, userID, roles, obj.Type, obj.ID); err != nil {
		return nil, err
	}
	return set, nil
}

// memberGroupRoles resolves which of the organization's role groups the user
// belongs to. No membership means no groups.
func (e *Evaluator) memberGroupRoles(ctx context.Context, userID, orgID uuid.UUID) ([]models.Role, error) {
	var membership models.Membership
	err := e.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return groupRoles(membership.Role), nil
}

// collectObject unions the user-direct and group-held grants on one object
// into the set.
func (e *Evaluator) collectObject(ctx context.Context, set Set, userID uuid.UUID, roles []models.Role, objType models.ObjectType, objID uuid.UUID) error {
	var grants []models.CapabilityGrant
	query := e.db.WithContext(ctx).
		Where("object_type = ? AND object_id = ?", objType, objID)

	if len(roles) > 0 {
		query = query.Where(
			"(holder_type = ? AND user_id = ?) OR (holder_type = ? AND group_role IN ?)",
			models.HolderUser, userID, models.HolderGroup, roles,
		)
	} else {
		query = query.Where("holder_type = ? AND user_id = ?", models.HolderUser, userID)
	}

	if err := query.Find(&grants).Error; err != nil {
		return err
	}
	for _, g := range grants {
		set.add(g.Capability)
	}
	return nil
}
