package projects

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Nathan-Yinka/Project-management-application/internal/authz"
	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrAssigneeNotMember    = errors.New("assigned user is not a member of the organization")
	ErrInvalidStatus        = errors.New("invalid project status")
	ErrInvalidPriority      = errors.New("invalid project priority")
	ErrOrganizationMismatch = errors.New("organization does not match the project's organization")
)

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

type CreateInput struct {
	Name           string
	Description    string
	Status         models.ProjectStatus
	Priority       models.ProjectPriority
	OrganizationID uuid.UUID
	AssignedToID   *uuid.UUID
	CreatedByID    uuid.UUID
}

// Create validates the assignee's membership before any mutation, then
// creates the project and seeds its grants in one transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Project, error) {
	if input.Status == "" {
		input.Status = models.StatusInProgress
	}
	if input.Priority == "" {
		input.Priority = models.PriorityLow
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if input.AssignedToID != nil {
		if err := s.requireMembership(ctx, s.db, *input.AssignedToID, input.OrganizationID); err != nil {
			return nil, err
		}
	}

	project := models.Project{
		Name:           input.Name,
		Description:    input.Description,
		Status:         input.Status,
		Priority:       input.Priority,
		OrganizationID: input.OrganizationID,
		AssignedToID:   input.AssignedToID,
		CreatedByID:    input.CreatedByID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return authz.SeedProjectGrants(tx, &project)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project created", "project", project.Name, "organization", project.OrganizationID)
	return &project, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

type ListOptions struct {
	Search string

	// Offset and Limit page the result. Limit <= 0 returns everything.
	Offset int
	Limit  int
}

// List returns the organization's projects the user may view, optionally
// narrowed by a free-text search over name, description, and the assignee's
// username or email. The returned total counts every visible match, not just
// the current page.
func (s *Service) List(ctx context.Context, userID, orgID uuid.UUID, opts ListOptions) ([]models.Project, int64, error) {
	roles, err := s.memberGroupRoles(ctx, userID, orgID)
	if err != nil {
		return nil, 0, err
	}

	visible := s.db.Model(&models.CapabilityGrant{}).
		Select("object_id").
		Where("organization_id = ? AND object_type = ? AND capability = ?",
			orgID, models.ObjectProject, authz.CapViewProject)
	if len(roles) > 0 {
		visible = visible.Where(
			"(holder_type = ? AND user_id = ?) OR (holder_type = ? AND group_role IN ?)",
			models.HolderUser, userID, models.HolderGroup, roles,
		)
	} else {
		visible = visible.Where("holder_type = ? AND user_id = ?", models.HolderUser, userID)
	}

	query := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("projects.organization_id = ? AND projects.id IN (?)", orgID, visible)

	if opts.Search != "" {
		like := "%" + strings.ToLower(opts.Search) + "%"
		query = query.
			Joins("LEFT JOIN users ON users.id = projects.assigned_to_id").
			Where(
				"LOWER(projects.name) LIKE ? OR LOWER(projects.description) LIKE ? OR LOWER(users.username) LIKE ? OR LOWER(users.email) LIKE ?",
				like, like, like, like,
			)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if opts.Limit > 0 {
		query = query.Offset(opts.Offset).Limit(opts.Limit)
	}

	var projects []models.Project
	err = query.Order("projects.created_at DESC").Find(&projects).Error
	return projects, total, err
}

type UpdateInput struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
	Priority    *models.ProjectPriority

	// AssignedToID only applies when SetAssignee is true, so "leave as is"
	// and "clear the assignee" are distinguishable.
	SetAssignee  bool
	AssignedToID *uuid.UUID
}

// Update applies field changes and, when the assignee changes, moves the
// assignee grants inside the same transaction. The previous assignee is read
// from the persisted row before the update commits, so stale grants cannot
// survive a reassignment.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Project, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	var project models.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}

		prevAssignee := project.AssignedToID

		updates := map[string]interface{}{}
		if input.Name != nil {
			updates["name"] = *input.Name
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if input.Status != nil {
			updates["status"] = *input.Status
		}
		if input.Priority != nil {
			updates["priority"] = *input.Priority
		}
		if input.SetAssignee {
			if input.AssignedToID != nil {
				if err := s.requireMembership(ctx, tx, *input.AssignedToID, project.OrganizationID); err != nil {
					return err
				}
			}
			updates["assigned_to_id"] = input.AssignedToID
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&project).Updates(updates).Error; err != nil {
			return err
		}

		if input.SetAssignee {
			if err := authz.SyncAssigneeGrants(tx, &project, prevAssignee, input.AssignedToID); err != nil {
				return err
			}
			project.AssignedToID = input.AssignedToID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateStatus changes only the status. The organization reference from the
// request must match the project's own organization.
func (s *Service) UpdateStatus(ctx context.Context, id, orgID uuid.UUID, status models.ProjectStatus) (*models.Project, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OrganizationID != orgID {
		return nil, ErrOrganizationMismatch
	}

	if err := s.db.WithContext(ctx).Model(project).Update("status", status).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project, its comments, and every grant on it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := authz.RevokeProjectGrants(tx, project.ID); err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
}

// AddComment records a comment by the user on the project.
func (s *Service) AddComment(ctx context.Context, projectID, userID uuid.UUID, content string) (*models.Comment, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		ProjectID: projectID,
		UserID:    userID,
		Content:   content,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Comments lists a project's comments, oldest first.
func (s *Service) Comments(ctx context.Context, projectID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (s *Service) requireMembership(ctx context.Context, tx *gorm.DB, userID, orgID uuid.UUID) error {
	var count int64
	err := tx.WithContext(ctx).Model(&models.Membership{}).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrAssigneeNotMember
	}
	return nil
}

func (s *Service) memberGroupRoles(ctx context.Context, userID, orgID uuid.UUID) ([]models.Role, error) {
	var membership models.Membership
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if membership.Role == models.RoleAdmin {
		return []models.Role{models.RoleAdmin, models.RoleMember}, nil
	}
	return []models.Role{models.RoleMember}, nil
}
