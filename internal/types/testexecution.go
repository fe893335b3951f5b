package types

import (
	"time"

	"github.com/google/uuid"
)

// TestExecution is the single record of the latest reported result for a
// (test run, test case) pair. The unique index on the pair is what the
// recorder's conflict handling relies on.
type TestExecution struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	TestRunID       uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_test_execution_run_case;column:test_run_id" json:"test_run_id"`
	TestRun         *TestRun    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TestRunID;references:ID" json:"-"`
	TestCaseID      uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_test_execution_run_case;index;column:test_case_id" json:"test_case_id"`
	TestCase        *TestCase   `gorm:"foreignKey:TestCaseID;references:ID" json:"-"`
	ActualResult    string      `gorm:"column:actual_result" json:"actual_result"`
	StatusID        uuid.UUID   `gorm:"type:uuid;not null;column:status_id" json:"status_id"`
	Status          *StatusCode `gorm:"foreignKey:StatusID;references:ID" json:"-"`
	ExecutingTeamID uuid.UUID   `gorm:"type:uuid;not null;column:executing_team_id" json:"executing_team_id"`
	ExecutingTeam   *Team       `gorm:"foreignKey:ExecutingTeamID;references:ID" json:"-"`
	ExecutedAt      time.Time   `gorm:"not null;column:executed_at" json:"executed_at"`
	RetryCount      int         `gorm:"not null;default:0;column:retry_count" json:"retry_count"`
	CreatedAt       time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"not null" json:"updated_at"`
}

func (TestExecution) TableName() string {
	return "test_execution"
}
