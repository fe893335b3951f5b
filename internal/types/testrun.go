package types

import (
	"time"

	"github.com/google/uuid"
)

type TestRun struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID          uuid.UUID   `gorm:"index;not null;column:task_id" json:"task_id"`
	Task            *Task       `gorm:"constraint:OnDelete:CASCADE;foreignKey:TaskID;references:ID" json:"-"`
	Name            string      `gorm:"not null;column:name" json:"name"`
	CreatedByTeamID uuid.UUID   `gorm:"type:uuid;not null;column:created_by_team_id" json:"created_by_team_id"`
	CreatedByTeam   *Team       `gorm:"foreignKey:CreatedByTeamID;references:ID" json:"-"`
	ExecutingTeamID uuid.UUID   `gorm:"type:uuid;not null;column:executing_team_id" json:"executing_team_id"`
	ExecutingTeam   *Team       `gorm:"foreignKey:ExecutingTeamID;references:ID" json:"-"`
	RunDate         time.Time   `gorm:"not null;column:run_date" json:"run_date"`
	StatusID        uuid.UUID   `gorm:"type:uuid;not null;column:status_id" json:"status_id"`
	Status          *StatusCode `gorm:"foreignKey:StatusID;references:ID" json:"-"`
	CreatedAt       time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"not null" json:"updated_at"`
}

func (TestRun) TableName() string {
	return "test_run"
}
