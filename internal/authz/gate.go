package authz

import (
	"context"
	"errors"

	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrNotMember denies an authenticated user with no membership in the
	// resolved organization.
	ErrNotMember = errors.New("not a member of the organization")

	// ErrMissingCapability denies a member whose effective set lacks the
	// required capability.
	ErrMissingCapability = errors.New("missing required capability")
)

// Requirement is the per-endpoint authorization policy: the capability the
// endpoint needs, the secondary objects whose grants participate in the
// union, and an optional self-action target. When SelfUserID names the
// acting user the request is allowed regardless of capability (e.g. a user
// removing their own membership).
type Requirement struct {
	Capability string
	Objects    []GrantObject
	SelfUserID uuid.UUID
}

// Gate evaluates endpoint requirements against the grant table.
type Gate struct {
	db   *gorm.DB
	eval *Evaluator
}

func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db, eval: NewEvaluator(db)}
}

func (g *Gate) Evaluator() *Evaluator {
	return g.eval
}

// Authorize decides whether the user may perform the requirement against the
// organization. Self-actions short-circuit; otherwise the user must be a
// member and hold the capability.
func (g *Gate) Authorize(ctx context.Context, userID uuid.UUID, org *models.Organization, req Requirement) error {
	if req.SelfUserID != uuid.Nil && req.SelfUserID == userID {
		return nil
	}

	var count int64
	err := g.db.WithContext(ctx).Model(&models.Membership{}).
		Where("user_id = ? AND organization_id = ?", userID, org.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotMember
	}

	ok, err := g.eval.HasCapability(ctx, userID, org, req.Capability, req.Objects...)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMissingCapability
	}
	return nil
}

// AuthorizeObject checks a capability against only the grants materialized
// on one object. Membership is implied by holding any grant there.
func (g *Gate) AuthorizeObject(ctx context.Context, userID uuid.UUID, obj GrantObject, capability string) error {
	set, err := g.eval.ObjectPermissions(ctx, userID, obj)
	if err != nil {
		return err
	}
	if !set.Has(capability) {
		return ErrMissingCapability
	}
	return nil
}
