package repository

import (
	"context"
	"eportfolio_grading/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) WithTx(tx *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: tx}
}

func (r *CourseRepository) FindByID(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) FindModule(ctx context.Context, cmID uint) (*model.CourseModule, error) {
	var cm model.CourseModule
	err := r.DB.WithContext(ctx).
		Where("id = ? AND modulename = ?", cmID, model.ModuleName).
		First(&cm).Error
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

func (r *CourseRepository) FindModuleByInstance(ctx context.Context, instanceID uint) (*model.CourseModule, error) {
	var cm model.CourseModule
	err := r.DB.WithContext(ctx).
		Where("instance = ? AND modulename = ?", instanceID, model.ModuleName).
		First(&cm).Error
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

func (r *CourseRepository) CreateModule(ctx context.Context, cm *model.CourseModule) error {
	return r.DB.WithContext(ctx).Create(cm).Error
}

func (r *CourseRepository) DeleteModule(ctx context.Context, cmID uint) error {
	return r.DB.WithContext(ctx).Delete(&model.CourseModule{}, cmID).Error
}
