package service

import (
	"context"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/repository"
	"eportfolio_grading/internal/util"
	"eportfolio_grading/pkg/logger"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResolvedFile 提交项解析结果，时间戳优先取 H5P 内容的真实时间
type ResolvedFile struct {
	File         *model.SubmissionFile `json:"file"`
	H5P          *model.H5PContent     `json:"h5p,omitempty"`
	Title        string                `json:"title"`
	TimeCreated  int64                 `json:"timecreated"`
	TimeModified int64                 `json:"timemodified"`
}

// FileStore 提交文件存储
type FileStore interface {
	Resolve(ctx context.Context, itemID uint) (*ResolvedFile, error)
	URL(file *model.SubmissionFile) string
	DeleteBlob(ctx context.Context, file *model.SubmissionFile)
}

// StoreInput 上传一份待评分的 ePortfolio
type StoreInput struct {
	CourseID uint
	CMID     uint
	UserID   uint
	Filename string
	Title    string
	Size     int64
	Reader   io.Reader
}

type FileService struct {
	DB        *gorm.DB
	FileRepo  *repository.FileRepository
	ShareRepo *repository.ShareRepository
	Storage   StorageProvider
}

func NewFileService(db *gorm.DB, fileRepo *repository.FileRepository, shareRepo *repository.ShareRepository, storage StorageProvider) *FileService {
	return &FileService{
		DB:        db,
		FileRepo:  fileRepo,
		ShareRepo: shareRepo,
		Storage:   storage,
	}
}

// Resolve 按文件 id 查找提交项，目录占位视为不存在
func (s *FileService) Resolve(ctx context.Context, itemID uint) (*ResolvedFile, error) {
	file, err := s.FileRepo.FindByID(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	if file.IsDirectory() {
		return nil, util.ErrFileNotFound
	}

	resolved := &ResolvedFile{
		File:         file,
		Title:        file.Filename,
		TimeCreated:  file.TimeCreated,
		TimeModified: file.TimeModified,
	}

	h5p, err := s.FileRepo.FindH5P(ctx, file.PathnameHash)
	if err != nil {
		return nil, err
	}
	if h5p != nil {
		resolved.H5P = h5p
		resolved.TimeCreated = h5p.TimeCreated
		resolved.TimeModified = h5p.TimeModified
		if h5p.Title != "" {
			resolved.Title = h5p.Title
		}
	}
	return resolved, nil
}

func (s *FileService) URL(file *model.SubmissionFile) string {
	return s.Storage.GetURL(file.ObjectKey)
}

func (s *FileService) Open(ctx context.Context, file *model.SubmissionFile) (io.ReadCloser, error) {
	return s.Storage.Open(ctx, file.ObjectKey)
}

// DeleteBlob 元数据删除提交后清理文件内容，失败只记录日志
func (s *FileService) DeleteBlob(ctx context.Context, file *model.SubmissionFile) {
	if file == nil || file.ObjectKey == "" {
		return
	}
	if err := s.Storage.Delete(ctx, file.ObjectKey); err != nil {
		logger.Log.Warn("Failed to delete submission blob",
			zap.Uint("fileid", file.ID),
			zap.String("key", file.ObjectKey),
			zap.Error(err))
	}
}

// Store 保存上传内容并登记文件、H5P 与评分共享记录
func (s *FileService) Store(ctx context.Context, input StoreInput) (*model.SubmissionFile, *model.Share, error) {
	if err := util.ValidateExtension(input.Filename, util.AllowedSubmissionExtensions); err != nil {
		return nil, nil, err
	}

	filename := filepath.Base(input.Filename)
	key := fmt.Sprintf("%s/%d/%s/%s", model.ModuleName, input.CMID, model.GenerateUUID(), filename)
	if _, err := s.Storage.Upload(ctx, key, input.Reader, input.Size, util.MimeH5P); err != nil {
		return nil, nil, fmt.Errorf("上传文件失败: %w", err)
	}

	now := model.Now()
	title := input.Title
	if title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	file := &model.SubmissionFile{
		ContextID:    input.CMID,
		Component:    model.Component,
		FileArea:     model.FileAreaEPortfolio,
		ItemID:       input.UserID,
		FilePath:     "/",
		Filename:     filename,
		UserID:       input.UserID,
		MimeType:     util.MimeH5P,
		FileSize:     input.Size,
		ObjectKey:    key,
		TimeCreated:  now,
		TimeModified: now,
	}
	file.PathnameHash = model.PathnameHash(file.ContextID, file.Component, file.FileArea, file.ItemID, file.FilePath, file.Filename)

	var share *model.Share
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		files := s.FileRepo.WithTx(tx)
		if err := files.Create(ctx, file); err != nil {
			return err
		}
		if err := files.CreateH5P(ctx, &model.H5PContent{
			PathnameHash: file.PathnameHash,
			Title:        title,
			TimeCreated:  now,
			TimeModified: now,
		}); err != nil {
			return err
		}
		share = &model.Share{
			UserID:        input.UserID,
			CourseID:      input.CourseID,
			CMID:          input.CMID,
			FileID:        file.ID,
			FileIDContext: file.ID,
			ShareOption:   model.ShareOptionGrade,
			ShareStart:    now,
			TimeCreated:   now,
		}
		return s.ShareRepo.WithTx(tx).Create(ctx, share)
	})
	if err != nil {
		s.DeleteBlob(ctx, &model.SubmissionFile{ID: file.ID, ObjectKey: key})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, util.ErrSubmissionExists
		}
		return nil, nil, err
	}

	logger.Log.Info("ePortfolio submitted for grading",
		zap.Uint("cmid", input.CMID),
		zap.Uint("userid", input.UserID),
		zap.Uint("fileid", file.ID))
	return file, share, nil
}
