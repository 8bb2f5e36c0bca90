package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Nathan-Yinka/Project-management-application/internal/database/models"
	"github.com/Nathan-Yinka/Project-management-application/pkg/mail"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	mailer mail.Mailer
}

func NewHandler(db *gorm.DB, logger *slog.Logger, mailer mail.Mailer) *Handler {
	return &Handler{db: db, logger: logger, mailer: mailer}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeOrganizationCreated, h.HandleOrganizationCreated)
	mux.HandleFunc(TypeMemberAdded, h.HandleMemberAdded)
	mux.HandleFunc(TypeInviteCreated, h.HandleInviteCreated)
}

func (h *Handler) HandleOrganizationCreated(ctx context.Context, t *asynq.Task) error {
	var payload OrganizationCreatedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	var org models.Organization
	if err := h.db.WithContext(ctx).First(&org, "id = ?", payload.OrganizationID).Error; err != nil {
		return fmt.Errorf("load organization: %w", err)
	}
	var creator models.User
	if err := h.db.WithContext(ctx).First(&creator, "id = ?", payload.CreatorID).Error; err != nil {
		return fmt.Errorf("load creator: %w", err)
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nYou have successfully created the organization: %s. You are now the admin of this organization.",
		creator.Username, org.Name,
	)
	if err := h.mailer.Send([]string{creator.Email}, "You have created a new organization", body); err != nil {
		return err
	}

	h.logger.Info("sent organization created mail", "organization", org.Name, "to", creator.Email)
	return nil
}

func (h *Handler) HandleMemberAdded(ctx context.Context, t *asynq.Task) error {
	var payload MemberAddedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	var org models.Organization
	if err := h.db.WithContext(ctx).First(&org, "id = ?", payload.OrganizationID).Error; err != nil {
		return fmt.Errorf("load organization: %w", err)
	}
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, "id = ?", payload.UserID).Error; err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nYou have been added as a member to the organization: %s.",
		user.Username, org.Name,
	)
	if err := h.mailer.Send([]string{user.Email}, "You have been added to an organization", body); err != nil {
		return err
	}

	h.logger.Info("sent member added mail", "organization", org.Name, "to", user.Email)
	return nil
}

func (h *Handler) HandleInviteCreated(ctx context.Context, t *asynq.Task) error {
	var payload InviteCreatedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	var org models.Organization
	if err := h.db.WithContext(ctx).First(&org, "id = ?", payload.OrganizationID).Error; err != nil {
		return fmt.Errorf("load organization: %w", err)
	}

	body := fmt.Sprintf(
		"Hello,\n\nYou have been invited to join the organization: %s. Create an account with this address and you will be added automatically.",
		org.Name,
	)
	if err := h.mailer.Send([]string{payload.Email}, "You have been invited to an organization", body); err != nil {
		return err
	}

	h.logger.Info("sent invite mail", "organization", org.Name, "to", payload.Email)
	return nil
}
