package repository

import (
	"context"
	"eportfolio_grading/internal/model"
	"errors"

	"gorm.io/gorm"
)

type InstanceRepository struct {
	DB *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) *InstanceRepository {
	return &InstanceRepository{DB: db}
}

func (r *InstanceRepository) WithTx(tx *gorm.DB) *InstanceRepository {
	return &InstanceRepository{DB: tx}
}

func (r *InstanceRepository) FindByID(ctx context.Context, id uint) (*model.ActivityInstance, error) {
	var instance model.ActivityInstance
	err := r.DB.WithContext(ctx).First(&instance, id).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// FindByCourse 课程中的活动实例，不存在时返回 nil, nil
func (r *InstanceRepository) FindByCourse(ctx context.Context, courseID uint) (*model.ActivityInstance, error) {
	var instance model.ActivityInstance
	err := r.DB.WithContext(ctx).Where("course = ?", courseID).Order("id").First(&instance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *InstanceRepository) Create(ctx context.Context, instance *model.ActivityInstance) error {
	return r.DB.WithContext(ctx).Create(instance).Error
}

func (r *InstanceRepository) Update(ctx context.Context, instance *model.ActivityInstance) error {
	return r.DB.WithContext(ctx).Model(instance).Select("name", "intro", "introformat", "duedate", "grade", "timemodified").Updates(instance).Error
}

func (r *InstanceRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.DB.WithContext(ctx).Delete(&model.ActivityInstance{}, id)
	return result.RowsAffected, result.Error
}

// ScaleUsed 实例是否使用了指定量表
func (r *InstanceRepository) ScaleUsed(ctx context.Context, instanceID, scaleID uint) (bool, error) {
	if scaleID == 0 {
		return false, nil
	}
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ActivityInstance{}).
		Where("id = ? AND grade = ?", instanceID, -int64(scaleID)).
		Count(&count).Error
	return count > 0, err
}

func (r *InstanceRepository) ScaleUsedAnywhere(ctx context.Context, scaleID uint) (bool, error) {
	if scaleID == 0 {
		return false, nil
	}
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ActivityInstance{}).
		Where("grade = ?", -int64(scaleID)).
		Count(&count).Error
	return count > 0, err
}
