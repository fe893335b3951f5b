package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/types"
	"github.com/testtrackhq/testtrack-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "testtrack", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.StatusCode{},
		&types.User{},
		&types.UserToken{},
		&types.Team{},
		&types.TeamMember{},
		&types.Product{},
		&types.Project{},
		&types.Task{},
		&types.TestCase{},
		&types.TestRun{},
		&types.TestExecution{},
		&types.Defect{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		ddl  string
	}{
		{"fk_user_token_user_id", `
			ALTER TABLE "user_token"
			ADD CONSTRAINT "fk_user_token_user_id"
			FOREIGN KEY ("user_id") REFERENCES "user"("id")
			ON DELETE CASCADE`},
		{"fk_team_member_team_id", `
			ALTER TABLE "team_member"
			ADD CONSTRAINT "fk_team_member_team_id"
			FOREIGN KEY ("team_id") REFERENCES "team"("id")
			ON DELETE CASCADE`},
		{"fk_team_member_user_id", `
			ALTER TABLE "team_member"
			ADD CONSTRAINT "fk_team_member_user_id"
			FOREIGN KEY ("user_id") REFERENCES "user"("id")
			ON DELETE CASCADE`},
		{"fk_test_execution_test_run_id", `
			ALTER TABLE "test_execution"
			ADD CONSTRAINT "fk_test_execution_test_run_id"
			FOREIGN KEY ("test_run_id") REFERENCES "test_run"("id")
			ON DELETE CASCADE`},
		{"fk_test_execution_test_case_id", `
			ALTER TABLE "test_execution"
			ADD CONSTRAINT "fk_test_execution_test_case_id"
			FOREIGN KEY ("test_case_id") REFERENCES "test_case"("id")`},
		{"fk_defect_test_run_id", `
			ALTER TABLE "defect"
			ADD CONSTRAINT "fk_defect_test_run_id"
			FOREIGN KEY ("test_run_id") REFERENCES "test_run"("id")`},
	}
	for _, c := range constraints {
		var count int64
		if err := s.db.Raw(
			`SELECT COUNT(*) FROM pg_constraint WHERE conname = ?`, c.name,
		).Scan(&count).Error; err != nil {
			return fmt.Errorf("Failed to check constraint %s: %w", c.name, err)
		}
		if count > 0 {
			continue
		}
		if err := s.db.Exec(c.ddl).Error; err != nil {
			return fmt.Errorf("Failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
