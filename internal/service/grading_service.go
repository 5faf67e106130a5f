package service

import (
	"context"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/repository"
	"eportfolio_grading/internal/util"
	"eportfolio_grading/pkg/logger"
	"eportfolio_grading/pkg/monitoring"
	"eportfolio_grading/pkg/tracing"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SaveOutcome SaveGrade 的结果
type SaveOutcome int

const (
	SaveFailed SaveOutcome = iota
	SaveInserted
	SaveUpdated
)

func (o SaveOutcome) String() string {
	switch o {
	case SaveInserted:
		return "inserted"
	case SaveUpdated:
		return "updated"
	default:
		return "failed"
	}
}

// GradeInput 评分表单
type GradeInput struct {
	CMID         uint   `json:"cmid" form:"id" validate:"required,gt=0"`
	ItemID       uint   `json:"itemid" form:"itemid" validate:"required,gt=0"`
	UserID       uint   `json:"userid" form:"userid" validate:"required,gt=0"`
	Grade        *int   `json:"grade" form:"grade" validate:"required,gte=0,lte=100"`
	FeedbackText string `json:"feedbacktext" form:"feedbacktext" validate:"max=65535"`
}

// GradeDetail 评分表单与只读查看页共用的数据
type GradeDetail struct {
	Module   *ModuleContext
	File     *ResolvedFile
	Owner    *model.User
	Record   *model.GradingRecord
	Grader   *model.User
	CanGrade bool
}

// GradingService 评分记录的读写，以及保存后的通知、成绩簿推送和日志
type GradingService struct {
	DB          *gorm.DB
	GradingRepo *repository.GradingRepository
	ShareRepo   *repository.ShareRepository
	UserRepo    *repository.UserRepository
	Instances   *InstanceService
	Files       FileStore
	Authorizer  Authorizer
	Messages    *MessageService
	Gradebook   *GradebookService
	Events      *EventLogService

	now func() int64
}

func NewGradingService(
	db *gorm.DB,
	gradingRepo *repository.GradingRepository,
	shareRepo *repository.ShareRepository,
	userRepo *repository.UserRepository,
	instances *InstanceService,
	files FileStore,
	authorizer Authorizer,
	messages *MessageService,
	gradebook *GradebookService,
	events *EventLogService,
) *GradingService {
	return &GradingService{
		DB:          db,
		GradingRepo: gradingRepo,
		ShareRepo:   shareRepo,
		UserRepo:    userRepo,
		Instances:   instances,
		Files:       files,
		Authorizer:  authorizer,
		Messages:    messages,
		Gradebook:   gradebook,
		Events:      events,
		now:         model.Now,
	}
}

// FindGrade 不存在返回 nil, nil
func (s *GradingService) FindGrade(ctx context.Context, cmID, itemID, userID uint) (*model.GradingRecord, error) {
	return s.GradingRepo.FindGrade(ctx, cmID, itemID, userID)
}

// SaveGrade 三元组已存在则更新评分、反馈、评分人与修改时间，否则插入
func (s *GradingService) SaveGrade(ctx context.Context, record *model.GradingRecord) (SaveOutcome, error) {
	ctx, span := tracing.Tracer.Start(ctx, "GradingService.SaveGrade")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("cmid", int64(record.CMID)),
		attribute.Int64("itemid", int64(record.ItemID)),
		attribute.Int64("userid", int64(record.UserID)),
	)

	outcome, err := s.saveGrade(ctx, record)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 并发插入撞上唯一索引，此时记录已存在，按更新重试一次
		outcome, err = s.saveGrade(ctx, record)
	}
	if err != nil {
		outcome = SaveFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Log.Error("Failed to save grading record",
			zap.Uint("cmid", record.CMID),
			zap.Uint("itemid", record.ItemID),
			zap.Uint("userid", record.UserID),
			zap.Error(err))
	}
	monitoring.GradesSavedTotal.WithLabelValues(outcome.String()).Inc()
	return outcome, err
}

func (s *GradingService) saveGrade(ctx context.Context, record *model.GradingRecord) (SaveOutcome, error) {
	now := s.now()
	outcome := SaveFailed
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.GradingRepo.WithTx(tx)
		existing, err := repo.FindGradeForUpdate(ctx, record.CMID, record.ItemID, record.UserID)
		if err != nil {
			return err
		}

		if existing != nil {
			record.ID = existing.ID
			record.TimeCreated = existing.TimeCreated
			record.TimeModified = now
			if err := repo.UpdateGrade(ctx, existing.ID, record); err != nil {
				return err
			}
			outcome = SaveUpdated
			return nil
		}

		record.ID = 0
		record.TimeCreated = now
		record.TimeModified = 0
		if err := repo.Create(ctx, record); err != nil {
			record.ID = 0
			return err
		}
		outcome = SaveInserted
		return nil
	})
	if err != nil {
		return SaveFailed, err
	}
	return outcome, nil
}

// DeleteForInstance 删除活动实例的全部评分记录
func (s *GradingService) DeleteForInstance(ctx context.Context, courseID, cmID, instanceID uint) error {
	_, err := s.GradingRepo.DeleteForInstance(ctx, courseID, cmID, instanceID)
	return err
}

func (s *GradingService) findUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

// resolveShared 解析提交项，并要求它由 userID 提交、在当前课程模块中共享评分
func resolveShared(ctx context.Context, files FileStore, shares *repository.ShareRepository, mc *ModuleContext, itemID, userID uint) (*ResolvedFile, error) {
	file, err := files.Resolve(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if file.File.UserID != userID {
		return nil, util.ErrShareNotFound
	}
	share, err := shares.FindGradeShare(ctx, mc.Course.ID, mc.CM.ID, itemID, userID)
	if err != nil {
		return nil, err
	}
	if share == nil {
		return nil, util.ErrShareNotFound
	}
	return file, nil
}

// Detail 解析提交项及其评分；只有提交人和评分者可以查看
func (s *GradingService) Detail(ctx context.Context, viewer Viewer, cmID, itemID, userID uint) (*GradeDetail, error) {
	mc, err := s.Instances.ResolveModule(ctx, cmID, 0)
	if err != nil {
		return nil, err
	}
	if !mc.Course.IsEPortfolio {
		return nil, util.ErrNotPortfolioCourse
	}

	canGrade, err := s.Authorizer.CanGrade(ctx, viewer, mc.Course.ID)
	if err != nil {
		return nil, err
	}
	if !canGrade && viewer.UserID != userID {
		return nil, util.ErrPermissionDenied
	}

	file, err := resolveShared(ctx, s.Files, s.ShareRepo, mc, itemID, userID)
	if err != nil {
		return nil, err
	}
	owner, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	record, err := s.FindGrade(ctx, mc.CM.ID, itemID, userID)
	if err != nil {
		return nil, err
	}

	detail := &GradeDetail{Module: mc, File: file, Owner: owner, Record: record, CanGrade: canGrade}
	if record != nil {
		if grader, err := s.UserRepo.FindByID(ctx, record.GraderID); err == nil {
			detail.Grader = grader
		}
	}
	return detail, nil
}

// Grade 评分者提交表单：校验、保存，然后通知提交人并推送成绩簿
func (s *GradingService) Grade(ctx context.Context, viewer Viewer, input GradeInput) (*model.GradingRecord, SaveOutcome, error) {
	if err := validate.Struct(input); err != nil {
		return nil, SaveFailed, err
	}

	mc, err := s.Instances.ResolveModule(ctx, input.CMID, 0)
	if err != nil {
		return nil, SaveFailed, err
	}
	if !mc.Course.IsEPortfolio {
		return nil, SaveFailed, util.ErrNotPortfolioCourse
	}

	canGrade, err := s.Authorizer.CanGrade(ctx, viewer, mc.Course.ID)
	if err != nil {
		return nil, SaveFailed, err
	}
	if !canGrade {
		return nil, SaveFailed, util.ErrPermissionDenied
	}

	file, err := resolveShared(ctx, s.Files, s.ShareRepo, mc, input.ItemID, input.UserID)
	if err != nil {
		return nil, SaveFailed, err
	}
	recipient, err := s.findUser(ctx, input.UserID)
	if err != nil {
		return nil, SaveFailed, err
	}

	record := &model.GradingRecord{
		Instance:     mc.Instance.ID,
		CourseID:     mc.Course.ID,
		CMID:         mc.CM.ID,
		ItemID:       input.ItemID,
		UserID:       input.UserID,
		GraderID:     viewer.UserID,
		Grade:        *input.Grade,
		FeedbackText: input.FeedbackText,
	}
	outcome, err := s.SaveGrade(ctx, record)
	if err != nil {
		return nil, outcome, err
	}

	grader, err := s.UserRepo.FindByID(ctx, viewer.UserID)
	if err != nil {
		grader = &model.User{ID: viewer.UserID}
	}
	s.Messages.Send(ctx, s.Messages.ComposeGrading(Notice{
		Actor:      grader,
		Recipient:  recipient,
		Filename:   file.File.Filename,
		CourseID:   mc.Course.ID,
		CourseName: mc.Course.FullName,
		CMID:       mc.CM.ID,
		ItemID:     input.ItemID,
	}))
	_ = s.Gradebook.PushGrade(ctx, mc.Instance, mc.CM.ID, record.UserID, record.Grade)
	s.Events.GradeSaved(ctx, viewer, mc, record)

	return record, outcome, nil
}
