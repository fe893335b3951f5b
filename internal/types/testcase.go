package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TestCase struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID         uuid.UUID      `gorm:"index;not null;column:task_id" json:"task_id"`
	Task           *Task          `gorm:"constraint:OnDelete:CASCADE;foreignKey:TaskID;references:ID" json:"-"`
	Title          string         `gorm:"not null;column:title" json:"title"`
	Description    string         `gorm:"column:description" json:"description"`
	Steps          datatypes.JSON `gorm:"column:steps" json:"steps"`
	ExpectedResult string         `gorm:"column:expected_result" json:"expected_result"`
	ActualResult   string         `gorm:"column:actual_result" json:"actual_result"`
	TypeID         *uuid.UUID     `gorm:"type:uuid;column:type_id" json:"type_id"`
	StatusID       uuid.UUID      `gorm:"type:uuid;not null;column:status_id" json:"status_id"`
	Status         *StatusCode    `gorm:"foreignKey:StatusID;references:ID" json:"-"`
	AuthorTeamID   uuid.UUID      `gorm:"type:uuid;not null;column:author_team_id" json:"author_team_id"`
	AuthorTeam     *Team          `gorm:"foreignKey:AuthorTeamID;references:ID" json:"-"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (TestCase) TableName() string {
	return "test_case"
}
