package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/Nathan-Yinka/Project-management-application/internal/tasks"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	db    *gorm.DB
	jwt   *JWTService
	queue *asynq.Client
}

func NewService(db *gorm.DB, jwt *JWTService, queue *asynq.Client) *Service {
	return &Service{db: db, jwt: jwt, queue: queue}
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// normalize lowercases identity fields so uniqueness checks and pending
// invitation lookups are case-insensitive.
func (in *RegisterInput) normalize() {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.ToLower(strings.TrimSpace(in.FirstName))
	in.LastName = strings.ToLower(strings.TrimSpace(in.LastName))
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates the user and, inside the same transaction, converts every
// pending invitation addressed to the new user's email into a real
// membership. Each pending row is deleted as it is converted, so a
// conversion can happen at most once even if an invite lands concurrently.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	input.normalize()

	var existing models.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR username = ?", input.Email, input.Username).
		First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	}

	var converted []models.Membership
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		converted, err = convertPendingInvitations(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, m := range converted {
		if m.Role != models.RoleMember || s.queue == nil {
			continue
		}
		task, err := tasks.NewMemberAddedTask(tasks.MemberAddedPayload{
			UserID:         user.ID,
			OrganizationID: m.OrganizationID,
		})
		if err == nil {
			_, _ = s.queue.Enqueue(task)
		}
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: &user}, nil
}

// convertPendingInvitations turns pending invitations matching the user's
// email into memberships. The delete-then-create order with a rows-affected
// check guarantees exactly-once conversion under concurrent registration and
// invite creation.
func convertPendingInvitations(tx *gorm.DB, user *models.User) ([]models.Membership, error) {
	var pendings []models.PendingMembership
	if err := tx.Where("email = ?", user.Email).Find(&pendings).Error; err != nil {
		return nil, err
	}

	var converted []models.Membership
	for _, p := range pendings {
		res := tx.Where("id = ?", p.ID).Delete(&models.PendingMembership{})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			// Someone else already converted this invitation.
			continue
		}
		membership := models.Membership{
			UserID:         user.ID,
			OrganizationID: p.OrganizationID,
			Role:           p.Role,
		}
		if err := tx.Where(models.Membership{
			UserID:         user.ID,
			OrganizationID: p.OrganizationID,
		}).FirstOrCreate(&membership).Error; err != nil {
			return nil, err
		}
		converted = append(converted, membership)
	}
	return converted, nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: &user}, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
