package service

import (
	"context"
	"eportfolio_grading/internal/config"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/repository"
	"eportfolio_grading/internal/upgrade"
	"eportfolio_grading/pkg/database"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const fixedNow int64 = 1700000000

func fixtureDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.MigrateHostTables(db))
	provisioner := upgrade.NewProvisioner(db, upgrade.NewPluginVersionStore(db, model.Component))
	_, err = provisioner.Run(context.Background())
	require.NoError(t, err)
	return db
}

// journal 按发生顺序记录删除语句与消息投递
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type recordingProvider struct {
	mu       sync.Mutex
	messages []Message
	journal  *journal
}

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) Deliver(ctx context.Context, msg Message) error {
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	if p.journal != nil {
		p.journal.add("message")
	}
	return nil
}

func (p *recordingProvider) sent() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}

type fixture struct {
	ctx context.Context
	db  *gorm.DB

	journal  *journal
	provider *recordingProvider
	pending  *MemoryPendingStore
	storage  *LocalStorageProvider

	files       *FileService
	instances   *InstanceService
	grading     *GradingService
	overview    *OverviewService
	withdrawals *WithdrawalService
	messages    *MessageService
	gradebook   *GradebookService
	events      *EventLogService

	course  model.Course
	teacher model.User
	student model.User
	other   model.User
	mc      *ModuleContext
}

func newFixture(t *testing.T) *fixture {
	ctx := context.Background()
	db := fixtureDb(t)

	f := &fixture{ctx: ctx, db: db, journal: &journal{}}
	f.provider = &recordingProvider{journal: f.journal}
	f.pending = NewMemoryPendingStore()
	f.storage = &LocalStorageProvider{Config: &config.StorageConfig{Type: "local", LocalPath: t.TempDir()}}

	instanceRepo := repository.NewInstanceRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	gradingRepo := repository.NewGradingRepository(db)
	fileRepo := repository.NewFileRepository(db)
	shareRepo := repository.NewShareRepository(db)
	eventRepo := repository.NewEventRepository(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	gradebookRepo := repository.NewGradebookRepository(db)

	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "http://moodle.test/"},
		Plugin: config.PluginConfig{SiteName: "Moodle"},
	}

	authorizer := NewRoleAuthorizer(roleRepo)
	f.files = NewFileService(db, fileRepo, shareRepo, f.storage)
	f.messages = NewMessageService(f.provider, cfg)
	f.gradebook = NewGradebookService(&LocalGradebookProvider{Repo: gradebookRepo})
	f.events = NewEventLogService(eventRepo)
	f.instances = NewInstanceService(db, instanceRepo, courseRepo, gradingRepo, fileRepo, shareRepo, eventRepo, f.files, f.gradebook)
	f.grading = NewGradingService(db, gradingRepo, shareRepo, userRepo, f.instances, f.files, authorizer, f.messages, f.gradebook, f.events)
	f.grading.now = func() int64 { return fixedNow }
	f.overview = NewOverviewService(shareRepo, gradingRepo, authorizer)
	f.withdrawals = NewWithdrawalService(db, f.pending, 0, fileRepo, shareRepo, gradingRepo, userRepo, f.instances, f.files, authorizer, f.messages, f.events)

	f.teacher = model.User{Username: "teacher", FirstName: "Tina", LastName: "Teacher", Email: "teacher@example.com", Role: model.Teacher}
	f.student = model.User{Username: "student", FirstName: "Sam", LastName: "Student", Email: "sam@example.com", Lang: "en"}
	f.other = model.User{Username: "other", FirstName: "Alex", LastName: "Other", Email: "alex@example.com", Lang: "de"}
	for _, u := range []*model.User{&f.teacher, &f.student, &f.other} {
		require.NoError(t, db.Create(u).Error)
	}

	f.course = model.Course{FullName: "Biology 101", ShortName: "BIO101", IsEPortfolio: true}
	require.NoError(t, db.Create(&f.course).Error)

	require.NoError(t, roleRepo.Assign(ctx, f.teacher.ID, f.course.ID, model.RoleEditingTeacher))
	require.NoError(t, roleRepo.Assign(ctx, f.student.ID, f.course.ID, model.RoleStudent))
	require.NoError(t, roleRepo.Assign(ctx, f.other.ID, f.course.ID, model.RoleStudent))

	mc, err := f.instances.AddInstance(ctx, InstanceInput{Course: f.course.ID, Name: "Portfolio", Grade: 100})
	require.NoError(t, err)
	f.mc = mc
	return f
}

func (f *fixture) viewer(u model.User) Viewer {
	return Viewer{UserID: u.ID, IsAdmin: u.Role == model.Admin, Lang: "en"}
}

// submit 以指定用户身份上传并共享一份 ePortfolio
func (f *fixture) submit(t *testing.T, u model.User, filename string) *model.SubmissionFile {
	return f.submitTo(t, f.mc, u, filename)
}

func (f *fixture) submitTo(t *testing.T, mc *ModuleContext, u model.User, filename string) *model.SubmissionFile {
	content := "PK\x03\x04h5p-content-" + filename
	file, _, err := f.files.Store(f.ctx, StoreInput{
		CourseID: mc.Course.ID,
		CMID:     mc.CM.ID,
		UserID:   u.ID,
		Filename: filename,
		Size:     int64(len(content)),
		Reader:   strings.NewReader(content),
	})
	require.NoError(t, err)
	return file
}

// otherCourse 另一门 ePortfolio 课程，教师没有该课程的角色，学生已选课
func (f *fixture) otherCourse(t *testing.T) *ModuleContext {
	course := model.Course{FullName: "Chemistry 201", ShortName: "CHEM201", IsEPortfolio: true}
	require.NoError(t, f.db.Create(&course).Error)
	roles := repository.NewRoleRepository(f.db)
	require.NoError(t, roles.Assign(f.ctx, f.student.ID, course.ID, model.RoleStudent))

	mc, err := f.instances.AddInstance(f.ctx, InstanceInput{Course: course.ID, Name: "Lab Portfolio", Grade: 100})
	require.NoError(t, err)
	return mc
}

func (f *fixture) count(t *testing.T, value interface{}) int64 {
	var n int64
	require.NoError(t, f.db.Model(value).Count(&n).Error)
	return n
}

func intPtr(v int) *int {
	return &v
}
