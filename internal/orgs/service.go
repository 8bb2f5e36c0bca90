package orgs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Nathan-Yinka/Project-management-application/internal/authz"
	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/Nathan-Yinka/Project-management-application/internal/tasks"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrOrganizationExists   = errors.New("organization name already taken")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrAlreadyMember        = errors.New("user is already a member of this organization")
	ErrAlreadyInvited       = errors.New("email already has a pending invitation")
	ErrInvalidRole          = errors.New("invalid role")
)

type Service struct {
	db     *gorm.DB
	queue  *asynq.Client
	logger *slog.Logger
}

func NewService(db *gorm.DB, queue *asynq.Client, logger *slog.Logger) *Service {
	return &Service{db: db, queue: queue, logger: logger}
}

type CreateInput struct {
	Name        string
	Description string
	CreatedByID uuid.UUID
}

// Create provisions a new organization: the row itself, the baseline group
// grants, and an admin membership for the creator, all in one transaction.
// Grants are seeded before the membership so no window exists where the
// creator's role resolves against an unprovisioned organization.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Organization, error) {
	var existing models.Organization
	err := s.db.WithContext(ctx).Where("name = ?", input.Name).First(&existing).Error
	if err == nil {
		return nil, ErrOrganizationExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	org := models.Organization{
		Name:        input.Name,
		Description: input.Description,
		CreatedByID: input.CreatedByID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		if err := authz.SeedOrganizationGrants(tx, &org); err != nil {
			return err
		}
		membership := models.Membership{
			UserID:         input.CreatedByID,
			OrganizationID: org.ID,
			Role:           models.RoleAdmin,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, err
	}

	s.enqueue(tasks.NewOrganizationCreatedTask(tasks.OrganizationCreatedPayload{
		OrganizationID: org.ID,
		CreatorID:      input.CreatedByID,
	}))

	s.logger.Info("organization created", "organization", org.Name, "creator", input.CreatedByID)
	return &org, nil
}

// List returns the organizations where the user holds a membership.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.Organization, error) {
	var orgs []models.Organization
	err := s.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.organization_id = organizations.id").
		Where("memberships.user_id = ?", userID).
		Order("organizations.created_at DESC").
		Find(&orgs).Error
	return orgs, err
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

// Members returns the users holding a membership in the organization.
func (s *Service) Members(ctx context.Context, orgID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.organization_id = ?", orgID).
		Order("users.username").
		Find(&users).Error
	return users, err
}

// NonMembers returns registered users without a membership, used to drive
// invite pickers.
func (s *Service) NonMembers(ctx context.Context, orgID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("id NOT IN (?)", s.db.Model(&models.Membership{}).
			Select("user_id").
			Where("organization_id = ?", orgID)).
		Order("users.username").
		Find(&users).Error
	return users, err
}

// Memberships returns the membership rows for an organization.
func (s *Service) Memberships(ctx context.Context, orgID uuid.UUID) ([]models.Membership, error) {
	var memberships []models.Membership
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Find(&memberships).Error
	return memberships, err
}

// AddMembers invites a list of addresses. An address with a registered
// account becomes a membership immediately; anyone else gets a pending
// invitation converted when they register. An address already holding a
// membership or an invitation is a conflict and aborts the whole batch
// before any mutation outside the transaction survives.
func (s *Service) AddMembers(ctx context.Context, orgID uuid.UUID, emails []string, role models.Role) error {
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return ErrInvalidRole
	}

	if _, err := s.Get(ctx, orgID); err != nil {
		return err
	}

	var added []models.Membership
	var invited []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, raw := range emails {
			email := strings.ToLower(strings.TrimSpace(raw))

			var memberCount int64
			err := tx.Model(&models.Membership{}).
				Joins("JOIN users ON users.id = memberships.user_id").
				Where("memberships.organization_id = ? AND users.email = ?", orgID, email).
				Count(&memberCount).Error
			if err != nil {
				return err
			}
			if memberCount > 0 {
				return fmt.Errorf("%w: %s", ErrAlreadyMember, email)
			}

			var pendingCount int64
			err = tx.Model(&models.PendingMembership{}).
				Where("organization_id = ? AND email = ?", orgID, email).
				Count(&pendingCount).Error
			if err != nil {
				return err
			}
			if pendingCount > 0 {
				return fmt.Errorf("%w: %s", ErrAlreadyInvited, email)
			}

			var user models.User
			err = tx.Where("email = ?", email).First(&user).Error
			switch {
			case err == nil:
				membership := models.Membership{
					UserID:         user.ID,
					OrganizationID: orgID,
					Role:           role,
				}
				if err := tx.Create(&membership).Error; err != nil {
					return err
				}
				added = append(added, membership)
			case errors.Is(err, gorm.ErrRecordNotFound):
				pending := models.PendingMembership{
					OrganizationID: orgID,
					Email:          email,
					Role:           role,
				}
				if err := tx.Create(&pending).Error; err != nil {
					return err
				}
				invited = append(invited, email)
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, m := range added {
		if m.Role == models.RoleMember {
			s.enqueue(tasks.NewMemberAddedTask(tasks.MemberAddedPayload{
				UserID:         m.UserID,
				OrganizationID: orgID,
			}))
		}
	}
	for _, email := range invited {
		s.enqueue(tasks.NewInviteCreatedTask(tasks.InviteCreatedPayload{
			Email:          email,
			OrganizationID: orgID,
		}))
	}

	return nil
}

// RemoveMember deletes the target user's membership and deprovisions their
// grants inside the organization in the same transaction.
func (s *Service) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error {
	var membership models.Membership
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMembershipNotFound
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&membership).Error; err != nil {
			return err
		}
		return authz.RevokeMemberGrants(tx, userID, orgID)
	})
}

// Leave removes the caller's own membership. Same deprovisioning as an
// admin-initiated removal.
func (s *Service) Leave(ctx context.Context, orgID, userID uuid.UUID) error {
	return s.RemoveMember(ctx, orgID, userID)
}

// ChangeMemberRole updates a membership's role. Group attachment is derived
// from the role column, so the capability change is atomic with the update:
// there is no window where the old role's grants still apply.
func (s *Service) ChangeMemberRole(ctx context.Context, orgID, userID uuid.UUID, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	var membership models.Membership
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMembershipNotFound
		}
		return err
	}

	return s.db.WithContext(ctx).Model(&membership).Update("role", role).Error
}

// Delete removes the organization and every grant scoped to it.
func (s *Service) Delete(ctx context.Context, orgID uuid.UUID) error {
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := authz.RevokeOrganizationGrants(tx, orgID); err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", orgID).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", orgID).Delete(&models.PendingMembership{}).Error; err != nil {
			return err
		}
		var projectIDs []uuid.UUID
		if err := tx.Model(&models.Project{}).Where("organization_id = ?", orgID).Pluck("id", &projectIDs).Error; err != nil {
			return err
		}
		if len(projectIDs) > 0 {
			if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("organization_id = ?", orgID).Delete(&models.Project{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(org).Error
	})
}

func (s *Service) enqueue(task *asynq.Task, err error) {
	if err != nil || s.queue == nil {
		return
	}
	if _, err := s.queue.Enqueue(task); err != nil {
		s.logger.Warn("failed to enqueue notification", "type", task.Type(), "error", err)
	}
}
