package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"eportfolio_grading/internal/config"
	"eportfolio_grading/internal/middleware"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/repository"
	"eportfolio_grading/internal/service"
	"eportfolio_grading/internal/upgrade"
	"eportfolio_grading/internal/util"
	"eportfolio_grading/pkg/database"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "controller-test-secret"

type testServer struct {
	router   *gin.Engine
	messages *service.MessageService

	course     model.Course
	teacher    model.User
	student    model.User
	cmID       uint
	instanceID uint
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.MigrateHostTables(db))
	_, err = upgrade.NewProvisioner(db, upgrade.NewPluginVersionStore(db, model.Component)).Run(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "http://moodle.test"},
		JWT:    config.JWTConfig{Secret: testSecret},
		Plugin: config.PluginConfig{SiteName: "Moodle"},
	}

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	fileRepo := repository.NewFileRepository(db)
	shareRepo := repository.NewShareRepository(db)
	gradingRepo := repository.NewGradingRepository(db)
	eventRepo := repository.NewEventRepository(db)
	gradebookRepo := repository.NewGradebookRepository(db)

	authorizer := service.NewRoleAuthorizer(roleRepo)
	storage := &service.LocalStorageProvider{Config: &config.StorageConfig{Type: "local", LocalPath: t.TempDir()}}
	files := service.NewFileService(db, fileRepo, shareRepo, storage)
	messages := service.NewMessageService(service.LogMessageProvider{}, cfg)
	gradebook := service.NewGradebookService(&service.LocalGradebookProvider{Repo: gradebookRepo})
	events := service.NewEventLogService(eventRepo)
	instances := service.NewInstanceService(db, instanceRepo, courseRepo, gradingRepo, fileRepo, shareRepo, eventRepo, files, gradebook)
	overview := service.NewOverviewService(shareRepo, gradingRepo, authorizer)
	grading := service.NewGradingService(db, gradingRepo, shareRepo, userRepo, instances, files, authorizer, messages, gradebook, events)
	withdrawals := service.NewWithdrawalService(db, service.NewMemoryPendingStore(), time.Minute, fileRepo, shareRepo, gradingRepo, userRepo, instances, files, authorizer, messages, events)
	renderer, err := service.NewRenderService()
	require.NoError(t, err)

	page := NewEPortfolioController(instances, overview, grading, withdrawals, files, events)
	api := NewGradingController(instances, overview, grading, withdrawals)
	submissions := NewSubmissionController(instances, files)
	instanceCtl := NewInstanceController(instances, authorizer)
	health := NewHealthController(db, nil)

	router := gin.New()
	router.SetHTMLTemplate(renderer.Template())
	router.GET("/api/health", health.HealthCheck)

	pages := router.Group("/mod/eportfolio", middleware.AuthMiddleware(cfg), middleware.Language())
	pages.GET("/view", page.View)
	pages.POST("/view", page.View)

	apiGroup := router.Group("/api", middleware.AuthMiddleware(cfg), middleware.Language())
	modules := apiGroup.Group("/eportfolio/modules/:cmid")
	modules.GET("/overview", api.GetOverview)
	modules.GET("/grades", api.GetGrade)
	modules.PUT("/grades", api.PutGrade)
	modules.POST("/withdrawals", api.RequestWithdrawal)
	modules.POST("/withdrawals/:token/confirm", api.ConfirmWithdrawal)
	modules.POST("/submissions", submissions.Upload)
	instanceGroup := apiGroup.Group("/eportfolio/instances", middleware.RoleMiddleware(model.Teacher))
	instanceGroup.POST("", instanceCtl.Create)
	instanceGroup.PUT("/:id", instanceCtl.Update)
	instanceGroup.DELETE("/:id", instanceCtl.Delete)

	s := &testServer{router: router, messages: messages}
	s.teacher = model.User{Username: "teacher", FirstName: "Tina", LastName: "Teacher", Email: "teacher@example.com", Role: model.Teacher, Lang: "en"}
	s.student = model.User{Username: "student", FirstName: "Sam", LastName: "Student", Email: "sam@example.com", Role: model.Student, Lang: "en"}
	for _, u := range []*model.User{&s.teacher, &s.student} {
		require.NoError(t, db.Create(u).Error)
	}
	s.course = model.Course{FullName: "Biology 101", ShortName: "BIO101", IsEPortfolio: true}
	require.NoError(t, db.Create(&s.course).Error)
	require.NoError(t, roleRepo.Assign(ctx, s.teacher.ID, s.course.ID, model.RoleEditingTeacher))
	require.NoError(t, roleRepo.Assign(ctx, s.student.ID, s.course.ID, model.RoleStudent))

	mc, err := instances.AddInstance(ctx, service.InstanceInput{Course: s.course.ID, Name: "Portfolio", Grade: 100})
	require.NoError(t, err)
	s.cmID = mc.CM.ID
	s.instanceID = mc.Instance.ID

	t.Cleanup(messages.Wait)
	return s
}

func (s *testServer) token(t *testing.T, u model.User) string {
	token, err := util.GenerateJWT(&u, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, u *model.User, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(t, *u))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(t *testing.T, u *model.User, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return s.do(t, u, method, path, body, "application/json")
}

func (s *testServer) modulePath(suffix string) string {
	return fmt.Sprintf("/api/eportfolio/modules/%d%s", s.cmID, suffix)
}

// upload 以学生身份提交一份 H5P 文件
func (s *testServer) upload(t *testing.T, filename string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("PK\x03\x04h5p"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("title", "My journal"))
	require.NoError(t, writer.Close())
	return s.do(t, &s.student, http.MethodPost, s.modulePath("/submissions"), &buf, writer.FormDataContentType())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v))
	}
	return env
}

func (s *testServer) uploadedFileID(t *testing.T) uint {
	w := s.upload(t, "journal.h5p")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		File model.SubmissionFile `json:"file"`
	}
	decode(t, w, &data)
	require.NotZero(t, data.File.ID)
	return data.File.ID
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, nil, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)
}

func TestRequiresToken(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, nil, http.MethodGet, s.modulePath("/overview"), nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, nil, http.MethodGet, fmt.Sprintf("/mod/eportfolio/view?id=%d", s.cmID), nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadSubmission(t *testing.T) {
	s := newTestServer(t)
	s.uploadedFileID(t)

	w := s.upload(t, "journal.h5p")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.upload(t, "notes.pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGradeLifecycle(t *testing.T) {
	s := newTestServer(t)
	itemID := s.uploadedFileID(t)
	gradesPath := s.modulePath(fmt.Sprintf("/grades?itemid=%d&userid=%d", itemID, s.student.ID))

	w := s.do(t, &s.teacher, http.MethodGet, gradesPath, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	input := map[string]interface{}{"itemid": itemID, "userid": s.student.ID, "grade": 80, "feedbacktext": "Good"}
	w = s.doJSON(t, &s.student, http.MethodPut, s.modulePath("/grades"), input)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.doJSON(t, &s.teacher, http.MethodPut, s.modulePath("/grades"), input)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var saved struct {
		Outcome string              `json:"outcome"`
		Record  model.GradingRecord `json:"record"`
	}
	decode(t, w, &saved)
	assert.Equal(t, "inserted", saved.Outcome)
	assert.Equal(t, 80, saved.Record.Grade)

	input["grade"] = 90
	w = s.doJSON(t, &s.teacher, http.MethodPut, s.modulePath("/grades"), input)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &saved)
	assert.Equal(t, "updated", saved.Outcome)

	input["grade"] = 101
	w = s.doJSON(t, &s.teacher, http.MethodPut, s.modulePath("/grades"), input)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 提交人可以查看自己的评分
	w = s.do(t, &s.student, http.MethodGet, gradesPath, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var record model.GradingRecord
	decode(t, w, &record)
	assert.Equal(t, 90, record.Grade)
	assert.Equal(t, s.teacher.ID, record.GraderID)
}

func TestOverviewVisibility(t *testing.T) {
	s := newTestServer(t)
	s.uploadedFileID(t)

	var overview service.Overview
	w := s.do(t, &s.teacher, http.MethodGet, s.modulePath("/overview?sort=userfullname&dir=desc"), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &overview)
	assert.True(t, overview.CanGrade)
	require.Len(t, overview.Rows, 1)
	assert.Equal(t, "Sam Student", overview.Rows[0].UserFullName)

	w = s.do(t, &s.student, http.MethodGet, s.modulePath("/overview"), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &overview)
	assert.False(t, overview.CanGrade)
	assert.Len(t, overview.Rows, 1)

	w = s.do(t, &s.teacher, http.MethodGet, "/api/eportfolio/modules/999/overview", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWithdrawalFlow(t *testing.T) {
	s := newTestServer(t)
	itemID := s.uploadedFileID(t)
	body := map[string]interface{}{"itemid": itemID, "userid": s.student.ID}

	w := s.doJSON(t, &s.student, http.MethodPost, s.modulePath("/withdrawals"), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.doJSON(t, &s.teacher, http.MethodPost, s.modulePath("/withdrawals"), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var prompt service.WithdrawalPrompt
	decode(t, w, &prompt)
	require.NotEmpty(t, prompt.Token)
	assert.Equal(t, "journal.h5p", prompt.Filename)

	confirmPath := s.modulePath("/withdrawals/" + prompt.Token + "/confirm")
	w = s.do(t, &s.teacher, http.MethodPost, confirmPath, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "journal.h5p")

	// 令牌只能使用一次
	w = s.do(t, &s.teacher, http.MethodPost, confirmPath, nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	// 撤回后可以重新提交
	s.uploadedFileID(t)
}

func TestInstanceManagement(t *testing.T) {
	s := newTestServer(t)
	input := map[string]interface{}{"course": s.course.ID, "name": "Second"}

	w := s.doJSON(t, &s.student, http.MethodPost, "/api/eportfolio/instances", input)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.doJSON(t, &s.teacher, http.MethodPost, "/api/eportfolio/instances", input)
	assert.Equal(t, http.StatusConflict, w.Code)

	instancePath := fmt.Sprintf("/api/eportfolio/instances/%d", s.instanceID)
	w = s.doJSON(t, &s.teacher, http.MethodPut, instancePath, map[string]interface{}{"course": s.course.ID, "name": "Renamed", "grade": 50})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var instance model.ActivityInstance
	decode(t, w, &instance)
	assert.Equal(t, "Renamed", instance.Name)

	w = s.doJSON(t, &s.teacher, http.MethodDelete, instancePath, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.doJSON(t, &s.teacher, http.MethodDelete, instancePath, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGradingPage(t *testing.T) {
	s := newTestServer(t)
	itemID := s.uploadedFileID(t)
	viewPath := fmt.Sprintf("/mod/eportfolio/view?id=%d", s.cmID)

	w := s.do(t, &s.teacher, http.MethodGet, viewPath, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Add grading")
	assert.Contains(t, w.Body.String(), "journal.h5p")

	gradePath := fmt.Sprintf("%s&action=grade&itemid=%d&userid=%d", viewPath, itemID, s.student.ID)
	form := url.Values{"grade": {"150"}, "feedbacktext": {"Too much"}}
	w = s.do(t, &s.teacher, http.MethodPost, gradePath, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a grade between 0 and 100.")

	form.Set("grade", "75")
	w = s.do(t, &s.teacher, http.MethodPost, gradePath, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	location := w.Header().Get("Location")
	assert.Contains(t, location, url.QueryEscape("grade:insert:success"))

	w = s.do(t, &s.teacher, http.MethodGet, location, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Your grading has been successfully saved!")
	assert.Contains(t, w.Body.String(), "75 %")
	// 评分者只有评分和撤回两个操作
	assert.NotContains(t, w.Body.String(), "View grading")

	// 提交人在有评分后可以查看
	w = s.do(t, &s.student, http.MethodGet, viewPath, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "View grading")
	assert.Contains(t, w.Body.String(), "75 %")
	assert.NotContains(t, w.Body.String(), "Add grading")

	// 学生打开评分表单时回到概览
	w = s.do(t, &s.student, http.MethodGet, gradePath, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `name="grade"`)
}

func TestWithdrawalPage(t *testing.T) {
	s := newTestServer(t)
	itemID := s.uploadedFileID(t)
	deletePath := fmt.Sprintf("/mod/eportfolio/view?id=%d&action=delete&itemid=%d&userid=%d", s.cmID, itemID, s.student.ID)

	w := s.do(t, &s.teacher, http.MethodGet, deletePath, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Allow new submission?")

	// 过期或伪造的令牌重新生成确认页
	form := url.Values{"token": {"forged"}, "itemid": {fmt.Sprint(itemID)}, "userid": {fmt.Sprint(s.student.ID)}}
	w = s.do(t, &s.teacher, http.MethodPost, deletePath, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "The confirmation has expired. Please confirm again.")
}

func TestPageLanguageFromHeader(t *testing.T) {
	s := newTestServer(t)
	s.student.Lang = ""

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/mod/eportfolio/view?id=%d", s.cmID), nil)
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: s.token(t, s.student)})
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Aktuell liegen keine ePortfolios vor!")
}
