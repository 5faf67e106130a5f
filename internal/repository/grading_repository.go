package repository

import (
	"context"
	"eportfolio_grading/internal/model"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GradingRepository struct {
	DB *gorm.DB
}

func NewGradingRepository(db *gorm.DB) *GradingRepository {
	return &GradingRepository{DB: db}
}

func (r *GradingRepository) WithTx(tx *gorm.DB) *GradingRepository {
	return &GradingRepository{DB: tx}
}

// FindGrade 按 (cmid, itemid, userid) 精确查找，不存在返回 nil, nil
func (r *GradingRepository) FindGrade(ctx context.Context, cmID, itemID, userID uint) (*model.GradingRecord, error) {
	return r.find(r.DB.WithContext(ctx), cmID, itemID, userID)
}

// FindGradeForUpdate 同 FindGrade，在事务中加行锁
func (r *GradingRepository) FindGradeForUpdate(ctx context.Context, cmID, itemID, userID uint) (*model.GradingRecord, error) {
	return r.find(r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), cmID, itemID, userID)
}

func (r *GradingRepository) find(db *gorm.DB, cmID, itemID, userID uint) (*model.GradingRecord, error) {
	var record model.GradingRecord
	err := db.Where("cmid = ? AND itemid = ? AND userid = ?", cmID, itemID, userID).
		Order("id").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find grading record")
	}
	return &record, nil
}

// FindInCourse 概览表使用，额外限定课程
func (r *GradingRepository) FindInCourse(ctx context.Context, courseID, cmID, itemID, userID uint) (*model.GradingRecord, error) {
	return r.find(r.DB.WithContext(ctx).Where("courseid = ?", courseID), cmID, itemID, userID)
}

func (r *GradingRepository) Create(ctx context.Context, record *model.GradingRecord) error {
	return r.DB.WithContext(ctx).Create(record).Error
}

// UpdateGrade 只更新评分相关字段
func (r *GradingRepository) UpdateGrade(ctx context.Context, id uint, record *model.GradingRecord) error {
	result := r.DB.WithContext(ctx).Model(&model.GradingRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"grade":        record.Grade,
			"feedbacktext": record.FeedbackText,
			"graderid":     record.GraderID,
			"instance":     record.Instance,
			"timemodified": record.TimeModified,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GradingRepository) DeleteForInstance(ctx context.Context, courseID, cmID, instanceID uint) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("courseid = ? AND cmid = ? AND instance = ?", courseID, cmID, instanceID).
		Delete(&model.GradingRecord{})
	return result.RowsAffected, pkgerrors.Wrap(result.Error, "delete grading records for instance")
}

func (r *GradingRepository) DeleteForItem(ctx context.Context, cmID, itemID, userID uint) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("cmid = ? AND itemid = ? AND userid = ?", cmID, itemID, userID).
		Delete(&model.GradingRecord{})
	return result.RowsAffected, pkgerrors.Wrap(result.Error, "delete grading record for item")
}

func (r *GradingRepository) CountForTriple(ctx context.Context, cmID, itemID, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.GradingRecord{}).
		Where("cmid = ? AND itemid = ? AND userid = ?", cmID, itemID, userID).
		Count(&count).Error
	return count, err
}

// ListForModule 推送成绩簿时使用
func (r *GradingRepository) ListForModule(ctx context.Context, cmID uint) ([]model.GradingRecord, error) {
	var records []model.GradingRecord
	err := r.DB.WithContext(ctx).Where("cmid = ?", cmID).Order("id").Find(&records).Error
	return records, err
}
