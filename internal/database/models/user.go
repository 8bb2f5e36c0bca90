package models

type User struct {
	Base
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`

	// Relationships
	Memberships      []Membership `gorm:"foreignKey:UserID" json:"-"`
	AssignedProjects []Project    `gorm:"foreignKey:AssignedToID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
