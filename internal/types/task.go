package types

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID      uuid.UUID  `gorm:"index;not null;column:project_id" json:"project_id"`
	Project        *Project   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"-"`
	Title          string     `gorm:"not null;column:title" json:"title"`
	Description    string     `gorm:"column:description" json:"description"`
	AssignedTeamID *uuid.UUID `gorm:"column:assigned_team_id" json:"assigned_team_id"`
	AssignedTeam   *Team      `gorm:"foreignKey:AssignedTeamID;references:ID" json:"-"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (Task) TableName() string {
	return "task"
}
