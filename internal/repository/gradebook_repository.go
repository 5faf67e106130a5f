package repository

import (
	"context"
	"eportfolio_grading/internal/model"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GradebookRepository struct {
	DB *gorm.DB
}

func NewGradebookRepository(db *gorm.DB) *GradebookRepository {
	return &GradebookRepository{DB: db}
}

// FindItem 活动的成绩项，不存在返回 nil, nil
func (r *GradebookRepository) FindItem(ctx context.Context, courseID, instanceID uint) (*model.GradeItem, error) {
	var item model.GradeItem
	err := r.DB.WithContext(ctx).
		Where("courseid = ? AND itemtype = ? AND itemmodule = ? AND iteminstance = ? AND itemnumber = 0",
			courseID, "mod", model.ModuleName, instanceID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GradebookRepository) SaveItem(ctx context.Context, item *model.GradeItem) error {
	return r.DB.WithContext(ctx).Save(item).Error
}

// DeleteItem 删除成绩项及其下全部成绩
func (r *GradebookRepository) DeleteItem(ctx context.Context, itemID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("itemid = ?", itemID).Delete(&model.GradeGrade{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.GradeItem{}, itemID).Error
	})
}

// ResetGrades 清空成绩项下的成绩
func (r *GradebookRepository) ResetGrades(ctx context.Context, itemID uint) error {
	return r.DB.WithContext(ctx).Where("itemid = ?", itemID).Delete(&model.GradeGrade{}).Error
}

// UpsertGrades 按 (itemid, userid) 写入最终成绩
func (r *GradebookRepository) UpsertGrades(ctx context.Context, itemID uint, grades map[uint]float64, now int64) error {
	if len(grades) == 0 {
		return nil
	}
	rows := make([]model.GradeGrade, 0, len(grades))
	for userID, grade := range grades {
		g := grade
		rows = append(rows, model.GradeGrade{ItemID: itemID, UserID: userID, FinalGrade: &g, TimeModified: now})
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "itemid"}, {Name: "userid"}},
		DoUpdates: clause.AssignmentColumns([]string{"finalgrade", "timemodified"}),
	}).Create(&rows).Error
}

func (r *GradebookRepository) FindGrade(ctx context.Context, itemID, userID uint) (*model.GradeGrade, error) {
	var grade model.GradeGrade
	err := r.DB.WithContext(ctx).Where("itemid = ? AND userid = ?", itemID, userID).First(&grade).Error
	if err != nil {
		return nil, err
	}
	return &grade, nil
}
