package service

import (
	"context"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/repository"
	"eportfolio_grading/internal/util"
	"eportfolio_grading/pkg/logger"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var validate = validator.New()

// InstanceInput 活动设置表单
type InstanceInput struct {
	Course  uint   `json:"course" validate:"required,gt=0"`
	Name    string `json:"name" validate:"required,max=255"`
	Intro   string `json:"intro"`
	DueDate int64  `json:"duedate" validate:"gte=0"`
	// >0 分值，<0 量表 id 取反，0 不计分
	Grade int64 `json:"grade"`
}

// ModuleContext 一次请求解析出的课程模块、课程和活动实例
type ModuleContext struct {
	CM       *model.CourseModule
	Course   *model.Course
	Instance *model.ActivityInstance
}

type InstanceService struct {
	DB           *gorm.DB
	InstanceRepo *repository.InstanceRepository
	CourseRepo   *repository.CourseRepository
	GradingRepo  *repository.GradingRepository
	FileRepo     *repository.FileRepository
	ShareRepo    *repository.ShareRepository
	EventRepo    *repository.EventRepository
	Files        FileStore
	Gradebook    *GradebookService
}

func NewInstanceService(
	db *gorm.DB,
	instanceRepo *repository.InstanceRepository,
	courseRepo *repository.CourseRepository,
	gradingRepo *repository.GradingRepository,
	fileRepo *repository.FileRepository,
	shareRepo *repository.ShareRepository,
	eventRepo *repository.EventRepository,
	files FileStore,
	gradebook *GradebookService,
) *InstanceService {
	return &InstanceService{
		DB:           db,
		InstanceRepo: instanceRepo,
		CourseRepo:   courseRepo,
		GradingRepo:  gradingRepo,
		FileRepo:     fileRepo,
		ShareRepo:    shareRepo,
		EventRepo:    eventRepo,
		Files:        files,
		Gradebook:    gradebook,
	}
}

// ResolveModule 按课程模块 id 或实例 id 解析上下文，任一缺失即返回对应的不存在错误
func (s *InstanceService) ResolveModule(ctx context.Context, cmID, instanceID uint) (*ModuleContext, error) {
	var cm *model.CourseModule
	var instance *model.ActivityInstance
	var err error

	switch {
	case cmID > 0:
		cm, err = s.CourseRepo.FindModule(ctx, cmID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseModuleNotFound
		}
		if err != nil {
			return nil, err
		}
		instance, err = s.InstanceRepo.FindByID(ctx, cm.Instance)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInstanceNotFound
		}
		if err != nil {
			return nil, err
		}
	case instanceID > 0:
		instance, err = s.InstanceRepo.FindByID(ctx, instanceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInstanceNotFound
		}
		if err != nil {
			return nil, err
		}
		cm, err = s.CourseRepo.FindModuleByInstance(ctx, instance.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseModuleNotFound
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, util.ErrCourseModuleNotFound
	}

	course, err := s.CourseRepo.FindByID(ctx, instance.Course)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	return &ModuleContext{CM: cm, Course: course, Instance: instance}, nil
}

// AddInstance 每门课程只允许一个活动实例
func (s *InstanceService) AddInstance(ctx context.Context, input InstanceInput) (*ModuleContext, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	course, err := s.CourseRepo.FindByID(ctx, input.Course)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	existing, err := s.InstanceRepo.FindByCourse(ctx, input.Course)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, util.ErrInstanceExists
	}

	now := model.Now()
	instance := &model.ActivityInstance{
		Course:      input.Course,
		Name:        input.Name,
		Intro:       input.Intro,
		DueDate:     input.DueDate,
		Grade:       input.Grade,
		TimeCreated: now,
	}
	cm := &model.CourseModule{
		Course:     input.Course,
		ModuleName: model.ModuleName,
		Added:      now,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.InstanceRepo.WithTx(tx).Create(ctx, instance); err != nil {
			return err
		}
		cm.Instance = instance.ID
		if err := s.CourseRepo.WithTx(tx).CreateModule(ctx, cm); err != nil {
			return err
		}
		return s.EventRepo.WithTx(tx).SyncDueEvent(ctx, instance)
	})
	if err != nil {
		return nil, err
	}

	// 成绩项推送失败不回滚实例
	_ = s.Gradebook.UpdateItem(ctx, instance, cm.ID, false)

	logger.Log.Info("ePortfolio instance added",
		zap.Uint("instance", instance.ID),
		zap.Uint("course", instance.Course),
		zap.Uint("cmid", cm.ID))
	return &ModuleContext{CM: cm, Course: course, Instance: instance}, nil
}

func (s *InstanceService) UpdateInstance(ctx context.Context, id uint, input InstanceInput) (*model.ActivityInstance, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	mc, err := s.ResolveModule(ctx, 0, id)
	if err != nil {
		return nil, err
	}
	instance := mc.Instance
	instance.Name = input.Name
	instance.Intro = input.Intro
	instance.DueDate = input.DueDate
	instance.Grade = input.Grade
	instance.TimeModified = model.Now()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.InstanceRepo.WithTx(tx).Update(ctx, instance); err != nil {
			return err
		}
		return s.EventRepo.WithTx(tx).SyncDueEvent(ctx, instance)
	})
	if err != nil {
		return nil, err
	}

	_ = s.Gradebook.UpdateItem(ctx, instance, mc.CM.ID, false)
	return instance, nil
}

// DeleteInstance 在一个事务中删除实例及其全部从属记录，提交后清理文件内容和成绩项
func (s *InstanceService) DeleteInstance(ctx context.Context, id uint) error {
	instance, err := s.InstanceRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrInstanceNotFound
	}
	if err != nil {
		return err
	}

	var cmID uint
	cm, err := s.CourseRepo.FindModuleByInstance(ctx, id)
	if err == nil {
		cmID = cm.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var files []model.SubmissionFile
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fileRepo := s.FileRepo.WithTx(tx)
		files, err = fileRepo.FindArea(ctx, cmID, model.Component, model.FileAreaEPortfolio)
		if err != nil {
			return err
		}
		if _, err := fileRepo.DeleteH5PForFiles(ctx, files); err != nil {
			return err
		}
		if _, err := fileRepo.DeleteArea(ctx, cmID, model.Component, model.FileAreaEPortfolio); err != nil {
			return err
		}
		if _, err := s.ShareRepo.WithTx(tx).DeleteForModule(ctx, instance.Course, cmID); err != nil {
			return err
		}
		if _, err := s.GradingRepo.WithTx(tx).DeleteForInstance(ctx, instance.Course, cmID, instance.ID); err != nil {
			return err
		}
		if _, err := s.EventRepo.WithTx(tx).DeleteForInstance(ctx, instance.ID); err != nil {
			return err
		}
		if _, err := s.InstanceRepo.WithTx(tx).Delete(ctx, instance.ID); err != nil {
			return err
		}
		if cmID > 0 {
			return s.CourseRepo.WithTx(tx).DeleteModule(ctx, cmID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := range files {
		if !files[i].IsDirectory() {
			s.Files.DeleteBlob(ctx, &files[i])
		}
	}
	_ = s.Gradebook.DeleteItem(ctx, instance, cmID)

	logger.Log.Info("ePortfolio instance deleted",
		zap.Uint("instance", instance.ID),
		zap.Uint("course", instance.Course),
		zap.Int("files", len(files)))
	return nil
}

// Uninstall 删除模块文件对应的 H5P 内容和全部评分共享
func (s *InstanceService) Uninstall(ctx context.Context) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fileRepo := s.FileRepo.WithTx(tx)
		files, err := fileRepo.FindComponentArea(ctx, model.Component, model.FileAreaEPortfolio)
		if err != nil {
			return err
		}
		h5p, err := fileRepo.DeleteH5PForFiles(ctx, files)
		if err != nil {
			return err
		}
		shares, err := s.ShareRepo.WithTx(tx).DeleteAllGradeShares(ctx)
		if err != nil {
			return err
		}
		logger.Log.Info("ePortfolio grading uninstalled",
			zap.Int64("h5p", h5p),
			zap.Int64("shares", shares))
		return nil
	})
}
