package types

import (
	"time"

	"github.com/google/uuid"
)

// StatusCategory partitions the seeded status vocabulary.
type StatusCategory string

const (
	CategoryTestCaseStatus StatusCategory = "test_case_status"
	CategoryTestRunStatus  StatusCategory = "test_run_status"
	CategoryPriority       StatusCategory = "priority"
)

// Well-known status names the workflow depends on. The full vocabulary is
// seed-defined; these are the names hard-coded into transitions.
const (
	StatusNameDraft  = "Draft"
	StatusNamePassed = "Passed"
	StatusNameFailed = "Failed"
	StatusNameRetest = "Retest"

	PriorityNameMedium = "Medium"
)

type StatusCode struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Category  StatusCategory `gorm:"not null;uniqueIndex:idx_status_code_category_name;column:category" json:"category"`
	Name      string         `gorm:"not null;uniqueIndex:idx_status_code_category_name;column:name" json:"name"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (StatusCode) TableName() string {
	return "status_code"
}
