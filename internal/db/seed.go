package db

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

// statusSeed is the compiled-in vocabulary. A YAML file pointed at by
// STATUS_SEED_PATH may extend it; it cannot remove entries, since catalog
// rows are append-only reference data.
var statusSeed = map[types.StatusCategory][]string{
	types.CategoryTestCaseStatus: {
		types.StatusNameDraft,
		types.StatusNamePassed,
		types.StatusNameFailed,
		"Blocked",
		types.StatusNameRetest,
	},
	types.CategoryTestRunStatus: {
		"Planned",
		"In Progress",
		"Completed",
		"Aborted",
	},
	types.CategoryPriority: {
		"Low",
		types.PriorityNameMedium,
		"High",
		"Critical",
	},
}

type seedFile struct {
	Statuses map[string][]string `yaml:"statuses"`
}

// SeedStatusCodes inserts any missing catalog rows. Idempotent.
func SeedStatusCodes(db *gorm.DB, log *logger.Logger) error {
	seedLog := log.With("service", "StatusSeed")

	merged := map[types.StatusCategory][]string{}
	for cat, names := range statusSeed {
		merged[cat] = append(merged[cat], names...)
	}

	if path := strings.TrimSpace(os.Getenv("STATUS_SEED_PATH")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("Failed to read status seed file: %w", err)
		}
		var sf seedFile
		if err := yaml.Unmarshal(raw, &sf); err != nil {
			return fmt.Errorf("Failed to parse status seed file: %w", err)
		}
		for cat, names := range sf.Statuses {
			merged[types.StatusCategory(cat)] = append(merged[types.StatusCategory(cat)], names...)
		}
		seedLog.Info("Merged status seed file", "path", path)
	}

	for cat, names := range merged {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			row := types.StatusCode{Category: cat, Name: name}
			if err := db.
				Where("category = ? AND name = ?", cat, name).
				Attrs(types.StatusCode{ID: uuid.New()}).
				FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("Failed to seed status %s/%s: %w", cat, name, err)
			}
		}
	}
	seedLog.Info("Status catalog seeded")
	return nil
}
