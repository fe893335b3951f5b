package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	dbinit "github.com/testtrackhq/testtrack-backend/internal/db"
	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/repos"
	"github.com/testtrackhq/testtrack-backend/internal/requestdata"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

func testDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql db: %v", err)
	}
	// One connection keeps the in-memory database alive and shared.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
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
	); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	if err := dbinit.SeedStatusCodes(db, testLogger(tb)); err != nil {
		tb.Fatalf("failed to seed status catalog: %v", err)
	}
	return db
}

// fixture wires real repos and services over an in-memory database with one
// seeded user, team and task chain.
type fixture struct {
	db      *gorm.DB
	log     *logger.Logger
	catalog CatalogService
	authz   AuthzService

	executionRepo repos.TestExecutionRepo
	defectRepo    repos.DefectRepo
	testRunRepo   repos.TestRunRepo
	testCaseRepo  repos.TestCaseRepo

	execution ExecutionService
	defect    DefectService
	testCase  TestCaseService
	testRun   TestRunService

	user *types.User
	team *types.Team
	task *types.Task
}

func newFixture(tb testing.TB, role types.Role) *fixture {
	tb.Helper()
	db := testDB(tb)
	log := testLogger(tb)
	ctx := context.Background()

	statusCodeRepo := repos.NewStatusCodeRepo(db, log)
	teamMemberRepo := repos.NewTeamMemberRepo(db, log)
	taskRepo := repos.NewTaskRepo(db, log)
	teamRepo := repos.NewTeamRepo(db, log)
	testCaseRepo := repos.NewTestCaseRepo(db, log)
	testRunRepo := repos.NewTestRunRepo(db, log)
	executionRepo := repos.NewTestExecutionRepo(db, log)
	defectRepo := repos.NewDefectRepo(db, log)

	catalog := NewCatalogService(log, statusCodeRepo)
	if err := catalog.Load(ctx); err != nil {
		tb.Fatalf("failed to load catalog: %v", err)
	}
	authz := NewAuthzService(db, log, teamMemberRepo, nil)

	f := &fixture{
		db:            db,
		log:           log,
		catalog:       catalog,
		authz:         authz,
		executionRepo: executionRepo,
		defectRepo:    defectRepo,
		testRunRepo:   testRunRepo,
		testCaseRepo:  testCaseRepo,
	}
	f.execution = NewExecutionService(db, log, authz, catalog, executionRepo, testRunRepo, testCaseRepo, defectRepo, false)
	f.defect = NewDefectService(db, log, authz, catalog, defectRepo, executionRepo, teamMemberRepo)
	f.testCase = NewTestCaseService(db, log, authz, catalog, testCaseRepo, taskRepo, executionRepo)
	f.testRun = NewTestRunService(db, log, authz, catalog, testRunRepo, taskRepo, teamRepo)

	f.user = seedUser(tb, db, "fixture@example.com")
	f.team = seedTeam(tb, db, "Fixture Team")
	seedMembership(tb, db, f.team.ID, f.user.ID, role)

	product := &types.Product{ID: uuid.New(), Name: "Product"}
	if err := db.Create(product).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	project := &types.Project{ID: uuid.New(), ProductID: product.ID, Name: "Project"}
	if err := db.Create(project).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	f.task = &types.Task{ID: uuid.New(), ProjectID: project.ID, Title: "Task"}
	if err := db.Create(f.task).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return f
}

func seedUser(tb testing.TB, db *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func seedTeam(tb testing.TB, db *gorm.DB, name string) *types.Team {
	tb.Helper()
	t := &types.Team{ID: uuid.New(), Name: name}
	if err := db.Create(t).Error; err != nil {
		tb.Fatalf("seed team: %v", err)
	}
	return t
}

func seedMembership(tb testing.TB, db *gorm.DB, teamID, userID uuid.UUID, role types.Role) {
	tb.Helper()
	m := &types.TeamMember{ID: uuid.New(), TeamID: teamID, UserID: userID, Role: role}
	if err := db.Create(m).Error; err != nil {
		tb.Fatalf("seed membership: %v", err)
	}
}

func (f *fixture) actorCtx() context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: f.user.ID})
}

func (f *fixture) statusID(tb testing.TB, category types.StatusCategory, name string) uuid.UUID {
	tb.Helper()
	code, err := f.catalog.Resolve(category, name)
	if err != nil {
		tb.Fatalf("resolve %s/%s: %v", category, name, err)
	}
	return code.ID
}

func (f *fixture) seedTestCase(tb testing.TB) *types.TestCase {
	tb.Helper()
	tc := &types.TestCase{
		ID:           uuid.New(),
		TaskID:       f.task.ID,
		Title:        "Login works",
		StatusID:     f.statusID(tb, types.CategoryTestCaseStatus, types.StatusNameDraft),
		AuthorTeamID: f.team.ID,
	}
	if err := f.db.Create(tc).Error; err != nil {
		tb.Fatalf("seed test case: %v", err)
	}
	return tc
}

func (f *fixture) seedTestRun(tb testing.TB) *types.TestRun {
	tb.Helper()
	run := &types.TestRun{
		ID:              uuid.New(),
		TaskID:          f.task.ID,
		Name:            "Nightly",
		CreatedByTeamID: f.team.ID,
		ExecutingTeamID: f.team.ID,
		StatusID:        f.statusID(tb, types.CategoryTestRunStatus, "Planned"),
	}
	if err := f.db.Create(run).Error; err != nil {
		tb.Fatalf("seed test run: %v", err)
	}
	return run
}
