package models

import "github.com/google/uuid"

type ProjectStatus string

const (
	StatusNotStarted ProjectStatus = "not_started"
	StatusInProgress ProjectStatus = "in_progress"
	StatusCompleted  ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type ProjectPriority string

const (
	PriorityLow    ProjectPriority = "low"
	PriorityMedium ProjectPriority = "medium"
	PriorityHigh   ProjectPriority = "high"
)

func (p ProjectPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Project struct {
	Base
	Name           string          `gorm:"not null" json:"name"`
	Description    string          `json:"description"`
	Status         ProjectStatus   `gorm:"not null;default:'in_progress'" json:"status"`
	Priority       ProjectPriority `gorm:"not null;default:'low'" json:"priority"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"organization"`
	AssignedToID   *uuid.UUID      `gorm:"type:uuid;index" json:"assigned_to"`
	CreatedByID    uuid.UUID       `gorm:"type:uuid;not null" json:"created_by"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	AssignedTo   *User         `gorm:"foreignKey:AssignedToID" json:"-"`
	CreatedBy    *User         `gorm:"foreignKey:CreatedByID" json:"-"`
	Comments     []Comment     `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

type Comment struct {
	Base
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user"`
	Content   string    `gorm:"not null" json:"content"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"-"`
	User    *User    `gorm:"foreignKey:UserID" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}
