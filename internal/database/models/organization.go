package models

import "github.com/google/uuid"

// Role is the closed set of membership roles. An admin is always also a
// member of the organization's member group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

type Organization struct {
	Base
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`

	// Relationships
	CreatedBy          *User               `gorm:"foreignKey:CreatedByID" json:"-"`
	Memberships        []Membership        `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	PendingMemberships []PendingMembership `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	Projects           []Project           `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

type Membership struct {
	Base
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_user_org" json:"user"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_user_org" json:"organization"`
	Role           Role      `gorm:"not null;default:'member'" json:"role"`

	User         *User         `gorm:"foreignKey:UserID" json:"-"`
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Membership) TableName() string {
	return "memberships"
}

// PendingMembership is an invitation to an address that has not registered
// yet. It is converted into a Membership exactly once: either immediately on
// invite when the address already has an account, or when the invitee
// registers.
type PendingMembership struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pending_org_email" json:"organization"`
	Email          string    `gorm:"not null;uniqueIndex:idx_pending_org_email" json:"email"`
	Role           Role      `gorm:"not null;default:'member'" json:"role"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (PendingMembership) TableName() string {
	return "pending_memberships"
}
