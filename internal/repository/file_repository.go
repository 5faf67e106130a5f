package repository

import (
	"context"
	"eportfolio_grading/internal/model"
	"errors"

	"gorm.io/gorm"
)

type FileRepository struct {
	DB *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{DB: db}
}

func (r *FileRepository) WithTx(tx *gorm.DB) *FileRepository {
	return &FileRepository{DB: tx}
}

func (r *FileRepository) FindByID(ctx context.Context, id uint) (*model.SubmissionFile, error) {
	var file model.SubmissionFile
	err := r.DB.WithContext(ctx).First(&file, id).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// FindArea 某个上下文文件区中的全部文件（含目录占位）
func (r *FileRepository) FindArea(ctx context.Context, contextID uint, component, fileArea string) ([]model.SubmissionFile, error) {
	var files []model.SubmissionFile
	err := r.DB.WithContext(ctx).
		Where("contextid = ? AND component = ? AND filearea = ?", contextID, component, fileArea).
		Order("id").
		Find(&files).Error
	return files, err
}

// FindComponentArea 跨上下文查找组件文件区，卸载时使用
func (r *FileRepository) FindComponentArea(ctx context.Context, component, fileArea string) ([]model.SubmissionFile, error) {
	var files []model.SubmissionFile
	err := r.DB.WithContext(ctx).
		Where("component = ? AND filearea = ?", component, fileArea).
		Order("id").
		Find(&files).Error
	return files, err
}

func (r *FileRepository) Create(ctx context.Context, file *model.SubmissionFile) error {
	return r.DB.WithContext(ctx).Create(file).Error
}

func (r *FileRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.DB.WithContext(ctx).Delete(&model.SubmissionFile{}, id)
	return result.RowsAffected, result.Error
}

func (r *FileRepository) DeleteArea(ctx context.Context, contextID uint, component, fileArea string) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("contextid = ? AND component = ? AND filearea = ?", contextID, component, fileArea).
		Delete(&model.SubmissionFile{})
	return result.RowsAffected, result.Error
}

// FindH5P 按 pathnamehash 查找 H5P 内容，不存在返回 nil, nil
func (r *FileRepository) FindH5P(ctx context.Context, pathnameHash string) (*model.H5PContent, error) {
	var h5p model.H5PContent
	err := r.DB.WithContext(ctx).Where("pathnamehash = ?", pathnameHash).First(&h5p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h5p, nil
}

func (r *FileRepository) CreateH5P(ctx context.Context, h5p *model.H5PContent) error {
	return r.DB.WithContext(ctx).Create(h5p).Error
}

// DeleteH5PForFiles 删除文件对应的 H5P 内容记录，跳过目录占位
func (r *FileRepository) DeleteH5PForFiles(ctx context.Context, files []model.SubmissionFile) (int64, error) {
	var hashes []string
	for _, f := range files {
		if f.IsDirectory() {
			continue
		}
		hashes = append(hashes, f.PathnameHash)
	}
	if len(hashes) == 0 {
		return 0, nil
	}
	result := r.DB.WithContext(ctx).Where("pathnamehash IN ?", hashes).Delete(&model.H5PContent{})
	return result.RowsAffected, result.Error
}

// FindH5PContentFiles H5P 内容解包后的文件
func (r *FileRepository) FindH5PContentFiles(ctx context.Context, h5pID uint) ([]model.SubmissionFile, error) {
	var files []model.SubmissionFile
	err := r.DB.WithContext(ctx).
		Where("contextid = ? AND component = ? AND filearea = ? AND itemid = ?",
			model.H5PContentContextID, model.H5PContentComponent, model.H5PContentFileArea, h5pID).
		Order("id").
		Find(&files).Error
	return files, err
}

func (r *FileRepository) DeleteH5PContentFiles(ctx context.Context, h5pID uint) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("contextid = ? AND component = ? AND filearea = ? AND itemid = ?",
			model.H5PContentContextID, model.H5PContentComponent, model.H5PContentFileArea, h5pID).
		Delete(&model.SubmissionFile{})
	return result.RowsAffected, result.Error
}
