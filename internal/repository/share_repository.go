package repository

import (
	"context"
	"eportfolio_grading/internal/model"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type ShareRepository struct {
	DB *gorm.DB
}

func NewShareRepository(db *gorm.DB) *ShareRepository {
	return &ShareRepository{DB: db}
}

func (r *ShareRepository) WithTx(tx *gorm.DB) *ShareRepository {
	return &ShareRepository{DB: tx}
}

type sharedRow struct {
	ShareID          uint
	FileItemID       uint
	Filename         string
	FileTimeModified int64
	UserID           uint
	FirstName        string
	LastName         string
	ShareStart       int64
}

func (r *ShareRepository) sharedQuery(ctx context.Context, courseID, cmID uint, now int64) *gorm.DB {
	return r.DB.WithContext(ctx).
		Table("local_eportfolio_share AS s").
		Select(`s.id AS share_id, s.fileidcontext AS file_item_id, f.filename AS filename,
			f.timemodified AS file_time_modified, s.userid AS user_id,
			u.firstname AS first_name, u.lastname AS last_name, s.sharestart AS share_start`).
		Joins("JOIN files AS f ON f.id = s.fileidcontext").
		Joins("JOIN users AS u ON u.id = s.userid").
		Where("s.courseid = ? AND s.cmid = ? AND s.shareoption = ?", courseID, cmID, model.ShareOptionGrade).
		Where("(s.shareend = 0 OR s.shareend > ?)", now).
		Order("s.id")
}

func (r *ShareRepository) scan(q *gorm.DB) ([]model.SharedSubmission, error) {
	var rows []sharedRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]model.SharedSubmission, 0, len(rows))
	for _, row := range rows {
		result = append(result, model.SharedSubmission{
			ShareID:          row.ShareID,
			FileItemID:       row.FileItemID,
			Filename:         row.Filename,
			FileTimeModified: row.FileTimeModified,
			UserID:           row.UserID,
			UserFullName:     strings.TrimSpace(row.FirstName + " " + row.LastName),
			ShareStart:       row.ShareStart,
		})
	}
	return result, nil
}

// ListSharedForGrading 课程模块中所有共享评分的提交，按共享先后排序
func (r *ShareRepository) ListSharedForGrading(ctx context.Context, courseID, cmID uint, now int64) ([]model.SharedSubmission, error) {
	return r.scan(r.sharedQuery(ctx, courseID, cmID, now))
}

// ListUserSharedForGrading 仅返回指定用户自己的共享
func (r *ShareRepository) ListUserSharedForGrading(ctx context.Context, userID, courseID, cmID uint, now int64) ([]model.SharedSubmission, error) {
	return r.scan(r.sharedQuery(ctx, courseID, cmID, now).Where("s.userid = ?", userID))
}

// FindGradeShare 课程模块内文件的评分共享记录，不存在返回 nil, nil
func (r *ShareRepository) FindGradeShare(ctx context.Context, courseID, cmID, fileItemID, userID uint) (*model.Share, error) {
	var share model.Share
	err := r.DB.WithContext(ctx).
		Where("courseid = ? AND cmid = ? AND fileidcontext = ? AND shareoption = ? AND userid = ?",
			courseID, cmID, fileItemID, model.ShareOptionGrade, userID).
		First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *ShareRepository) Create(ctx context.Context, share *model.Share) error {
	return r.DB.WithContext(ctx).Create(share).Error
}

func (r *ShareRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.DB.WithContext(ctx).Delete(&model.Share{}, id)
	return result.RowsAffected, result.Error
}

func (r *ShareRepository) DeleteForModule(ctx context.Context, courseID, cmID uint) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("courseid = ? AND shareoption = ? AND cmid = ?", courseID, model.ShareOptionGrade, cmID).
		Delete(&model.Share{})
	return result.RowsAffected, result.Error
}

// DeleteAllGradeShares 卸载时清理全部评分共享
func (r *ShareRepository) DeleteAllGradeShares(ctx context.Context) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("shareoption = ?", model.ShareOptionGrade).
		Delete(&model.Share{})
	return result.RowsAffected, result.Error
}
