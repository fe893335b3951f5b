package types

import (
	"time"

	"github.com/google/uuid"
)

// Role is the capability a membership grants. Workflow entry points gate on
// one or more of these.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleDeveloper Role = "developer"
	RoleQA        Role = "qa"
	RoleTester    Role = "tester"
)

type TeamMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID    uuid.UUID `gorm:"not null;uniqueIndex:idx_team_member_team_user;column:team_id" json:"team_id"`
	Team      *Team     `gorm:"constraint:OnDelete:CASCADE;foreignKey:TeamID;references:ID" json:"-"`
	UserID    uuid.UUID `gorm:"not null;uniqueIndex:idx_team_member_team_user;index;column:user_id" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Role      Role      `gorm:"not null;column:role" json:"role"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TeamMember) TableName() string {
	return "team_member"
}
