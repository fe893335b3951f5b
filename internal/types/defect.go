package types

import (
	"time"

	"github.com/google/uuid"
)

// Defect always references the run it was observed in. TestCaseID is set for
// defects filed from an execution and nil for manually reported ones; the
// delete guard keys off that distinction.
type Defect struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string      `gorm:"not null;column:title" json:"title"`
	Description      string      `gorm:"column:description" json:"description"`
	StepsToReproduce string      `gorm:"column:steps_to_reproduce" json:"steps_to_reproduce"`
	Severity         string      `gorm:"column:severity" json:"severity"`
	PriorityID       uuid.UUID   `gorm:"type:uuid;not null;column:priority_id" json:"priority_id"`
	Priority         *StatusCode `gorm:"foreignKey:PriorityID;references:ID" json:"-"`
	ReportedAt       time.Time   `gorm:"not null;column:reported_at" json:"reported_at"`
	ResolvedAt       *time.Time  `gorm:"column:resolved_at" json:"resolved_at"`
	ReportedByTeamID uuid.UUID   `gorm:"type:uuid;not null;column:reported_by_team_id" json:"reported_by_team_id"`
	ReportedByTeam   *Team       `gorm:"foreignKey:ReportedByTeamID;references:ID" json:"-"`
	AssignedToTeamID *uuid.UUID  `gorm:"type:uuid;column:assigned_to_team_id" json:"assigned_to_team_id"`
	AssignedToTeam   *Team       `gorm:"foreignKey:AssignedToTeamID;references:ID" json:"-"`
	TestRunID        uuid.UUID   `gorm:"type:uuid;not null;index;column:test_run_id" json:"test_run_id"`
	TestRun          *TestRun    `gorm:"foreignKey:TestRunID;references:ID" json:"-"`
	TestCaseID       *uuid.UUID  `gorm:"type:uuid;index;column:test_case_id" json:"test_case_id"`
	TestCase         *TestCase   `gorm:"foreignKey:TestCaseID;references:ID" json:"-"`
	CreatedAt        time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"not null" json:"updated_at"`
}

func (Defect) TableName() string {
	return "defect"
}
