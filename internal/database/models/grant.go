package models

import "github.com/google/uuid"

// HolderType distinguishes grants held directly by a user from grants held
// by one of an organization's implicit role groups.
type HolderType string

const (
	HolderUser  HolderType = "user"
	HolderGroup HolderType = "group"
)

type ObjectType string

const (
	ObjectOrganization ObjectType = "organization"
	ObjectProject      ObjectType = "project"
)

// CapabilityGrant assigns one capability to one holder for one object.
// Group holders are keyed by (organization, role) rather than a named group
// row; a user's attachment to a group is derived from its membership role.
type CapabilityGrant struct {
	Base
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization"`
	HolderType     HolderType `gorm:"not null;index:idx_grant_holder" json:"holder_type"`
	UserID         *uuid.UUID `gorm:"type:uuid;index:idx_grant_holder" json:"user,omitempty"`
	GroupRole      *Role      `gorm:"index:idx_grant_holder" json:"group_role,omitempty"`
	ObjectType     ObjectType `gorm:"not null;index:idx_grant_object" json:"object_type"`
	ObjectID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_grant_object" json:"object_id"`
	Capability     string     `gorm:"not null" json:"capability"`
}

func (CapabilityGrant) TableName() string {
	return "capability_grants"
}
