package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeOrganizationCreated = "email:organization_created"
	TypeMemberAdded         = "email:member_added"
	TypeInviteCreated       = "email:invite_created"
)

// OrganizationCreatedPayload notifies the creator that their organization
// exists and that they are its admin.
type OrganizationCreatedPayload struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	CreatorID      uuid.UUID `json:"creator_id"`
}

func NewOrganizationCreatedTask(payload OrganizationCreatedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrganizationCreated, data), nil
}

// MemberAddedPayload notifies a user added to an organization as a member.
type MemberAddedPayload struct {
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

func NewMemberAddedTask(payload MemberAddedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMemberAdded, data), nil
}

// InviteCreatedPayload notifies an address that has no account yet that it
// was invited and will join once registered.
type InviteCreatedPayload struct {
	Email          string    `json:"email"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

func NewInviteCreatedTask(payload InviteCreatedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInviteCreated, data), nil
}
