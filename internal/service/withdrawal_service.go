package service

import (
	"context"
	"encoding/json"
	"eportfolio_grading/internal/lang"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/repository"
	"eportfolio_grading/internal/util"
	"eportfolio_grading/pkg/logger"
	"eportfolio_grading/pkg/monitoring"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PendingWithdrawal 等待确认的撤回请求
type PendingWithdrawal struct {
	Token       string `json:"token"`
	CMID        uint   `json:"cmid"`
	CourseID    uint   `json:"courseid"`
	ItemID      uint   `json:"itemid"`
	UserID      uint   `json:"userid"`
	RequestedBy uint   `json:"requestedby"`
	Filename    string `json:"filename"`
	ExpiresAt   int64  `json:"expiresat"`
}

// PendingStore 保存待确认的撤回；Take 取出即失效，不存在或过期返回 nil, nil
type PendingStore interface {
	Put(ctx context.Context, pending *PendingWithdrawal, ttl time.Duration) error
	Take(ctx context.Context, token string) (*PendingWithdrawal, error)
}

// RedisPendingStore 多实例部署时使用
type RedisPendingStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisPendingStore(client *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{Client: client, Prefix: "eportfolio:withdrawal:"}
}

func (s *RedisPendingStore) Put(ctx context.Context, pending *PendingWithdrawal, ttl time.Duration) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, s.Prefix+pending.Token, payload, ttl).Err()
}

func (s *RedisPendingStore) Take(ctx context.Context, token string) (*PendingWithdrawal, error) {
	payload, err := s.Client.GetDel(ctx, s.Prefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var pending PendingWithdrawal
	if err := json.Unmarshal(payload, &pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

// MemoryPendingStore 单实例或测试使用
type MemoryPendingStore struct {
	mu    sync.Mutex
	items map[string]memoryPending
	now   func() time.Time
}

type memoryPending struct {
	pending   PendingWithdrawal
	expiresAt time.Time
}

func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{items: make(map[string]memoryPending), now: time.Now}
}

func (s *MemoryPendingStore) Put(ctx context.Context, pending *PendingWithdrawal, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for token, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, token)
		}
	}
	s.items[pending.Token] = memoryPending{pending: *pending, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryPendingStore) Take(ctx context.Context, token string) (*PendingWithdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[token]
	if !ok {
		return nil, nil
	}
	delete(s.items, token)
	if s.now().After(item.expiresAt) {
		return nil, nil
	}
	pending := item.pending
	return &pending, nil
}

// WithdrawalPrompt 确认页所需数据
type WithdrawalPrompt struct {
	Token     string `json:"token"`
	CMID      uint   `json:"cmid"`
	ItemID    uint   `json:"itemid"`
	UserID    uint   `json:"userid"`
	Filename  string `json:"filename"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	ExpiresAt int64  `json:"expiresat"`
}

// WithdrawalService 撤回一份提交，允许学生重新提交
type WithdrawalService struct {
	DB          *gorm.DB
	Pending     PendingStore
	TTL         time.Duration
	FileRepo    *repository.FileRepository
	ShareRepo   *repository.ShareRepository
	GradingRepo *repository.GradingRepository
	UserRepo    *repository.UserRepository
	Instances   *InstanceService
	Files       FileStore
	Authorizer  Authorizer
	Messages    *MessageService
	Events      *EventLogService
}

func NewWithdrawalService(
	db *gorm.DB,
	pending PendingStore,
	ttl time.Duration,
	fileRepo *repository.FileRepository,
	shareRepo *repository.ShareRepository,
	gradingRepo *repository.GradingRepository,
	userRepo *repository.UserRepository,
	instances *InstanceService,
	files FileStore,
	authorizer Authorizer,
	messages *MessageService,
	events *EventLogService,
) *WithdrawalService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &WithdrawalService{
		DB:          db,
		Pending:     pending,
		TTL:         ttl,
		FileRepo:    fileRepo,
		ShareRepo:   shareRepo,
		GradingRepo: gradingRepo,
		UserRepo:    userRepo,
		Instances:   instances,
		Files:       files,
		Authorizer:  authorizer,
		Messages:    messages,
		Events:      events,
	}
}

func (s *WithdrawalService) authorize(ctx context.Context, viewer Viewer, cmID uint) (*ModuleContext, error) {
	mc, err := s.Instances.ResolveModule(ctx, cmID, 0)
	if err != nil {
		return nil, err
	}
	canGrade, err := s.Authorizer.CanGrade(ctx, viewer, mc.Course.ID)
	if err != nil {
		return nil, err
	}
	if !canGrade {
		return nil, util.ErrPermissionDenied
	}
	return mc, nil
}

// Request 登记一次待确认的撤回，不修改任何数据
func (s *WithdrawalService) Request(ctx context.Context, viewer Viewer, cmID, itemID, userID uint) (*WithdrawalPrompt, error) {
	mc, err := s.authorize(ctx, viewer, cmID)
	if err != nil {
		return nil, err
	}

	file, err := resolveShared(ctx, s.Files, s.ShareRepo, mc, itemID, userID)
	if err != nil {
		return nil, err
	}
	owner, err := s.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	pending := &PendingWithdrawal{
		Token:       model.GenerateUUID(),
		CMID:        mc.CM.ID,
		CourseID:    mc.Course.ID,
		ItemID:      itemID,
		UserID:      userID,
		RequestedBy: viewer.UserID,
		Filename:    file.File.Filename,
		ExpiresAt:   time.Now().Add(s.TTL).Unix(),
	}
	if err := s.Pending.Put(ctx, pending, s.TTL); err != nil {
		return nil, err
	}
	monitoring.WithdrawalsTotal.WithLabelValues("requested").Inc()

	return &WithdrawalPrompt{
		Token:    pending.Token,
		CMID:     pending.CMID,
		ItemID:   itemID,
		UserID:   userID,
		Filename: pending.Filename,
		Username: owner.FullName(),
		// 纯文本；页面模板自行渲染带标记的版本
		Message: lang.Replace(HTMLToText(lang.Get(viewer.Lang, "delete:checkconfirm", nil)), map[string]string{
			"filename": pending.Filename,
			"username": owner.FullName(),
		}),
		ExpiresAt: pending.ExpiresAt,
	}, nil
}

// Confirm 消费确认令牌并在一个事务中删除文件、共享、H5P 记录及其解包文件和评分记录；
// 提交后清理文件内容、记录日志并通知提交人
func (s *WithdrawalService) Confirm(ctx context.Context, viewer Viewer, cmID uint, token string) (*model.SubmissionFile, error) {
	pending, err := s.Pending.Take(ctx, token)
	if err != nil {
		return nil, err
	}
	if pending == nil || pending.CMID != cmID || pending.RequestedBy != viewer.UserID {
		monitoring.WithdrawalsTotal.WithLabelValues("mismatched").Inc()
		return nil, util.ErrConfirmationMismatch
	}

	mc, err := s.authorize(ctx, viewer, cmID)
	if err != nil {
		return nil, err
	}

	var file *model.SubmissionFile
	var contentFiles []model.SubmissionFile
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fileRepo := s.FileRepo.WithTx(tx)
		shareRepo := s.ShareRepo.WithTx(tx)

		found, err := fileRepo.FindByID(ctx, pending.ItemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrFileNotFound
		}
		if err != nil {
			return err
		}
		file = found
		if file.UserID != pending.UserID {
			return util.ErrShareNotFound
		}

		// 令牌登记后共享可能已被移走，仍须属于当前课程模块
		share, err := shareRepo.FindGradeShare(ctx, mc.Course.ID, mc.CM.ID, pending.ItemID, pending.UserID)
		if err != nil {
			return err
		}
		if share == nil {
			return util.ErrShareNotFound
		}

		if _, err := fileRepo.Delete(ctx, file.ID); err != nil {
			return err
		}
		if _, err := shareRepo.Delete(ctx, share.ID); err != nil {
			return err
		}

		h5p, err := fileRepo.FindH5P(ctx, file.PathnameHash)
		if err != nil {
			return err
		}
		if h5p != nil {
			if contentFiles, err = fileRepo.FindH5PContentFiles(ctx, h5p.ID); err != nil {
				return err
			}
			if len(contentFiles) > 0 {
				if _, err := fileRepo.DeleteH5PContentFiles(ctx, h5p.ID); err != nil {
					return err
				}
			}
		}
		if _, err := fileRepo.DeleteH5PForFiles(ctx, []model.SubmissionFile{*file}); err != nil {
			return err
		}
		_, err = s.GradingRepo.WithTx(tx).DeleteForItem(ctx, mc.CM.ID, pending.ItemID, pending.UserID)
		return err
	})
	if err != nil {
		monitoring.WithdrawalsTotal.WithLabelValues("failed").Inc()
		logger.Log.Error("Failed to withdraw submission",
			zap.Uint("cmid", cmID),
			zap.Uint("itemid", pending.ItemID),
			zap.Error(err))
		return nil, err
	}

	s.Files.DeleteBlob(ctx, file)
	for i := range contentFiles {
		s.Files.DeleteBlob(ctx, &contentFiles[i])
	}
	s.Events.EPortfolioDeleted(ctx, viewer, mc, file)

	if recipient, err := s.UserRepo.FindByID(ctx, pending.UserID); err == nil {
		actor, err := s.UserRepo.FindByID(ctx, viewer.UserID)
		if err != nil {
			actor = &model.User{ID: viewer.UserID}
		}
		s.Messages.Send(ctx, s.Messages.ComposeWithdrawn(Notice{
			Actor:      actor,
			Recipient:  recipient,
			Filename:   file.Filename,
			CourseID:   mc.Course.ID,
			CourseName: mc.Course.FullName,
			CMID:       mc.CM.ID,
			ItemID:     file.ID,
		}))
	}

	monitoring.WithdrawalsTotal.WithLabelValues("confirmed").Inc()
	logger.Log.Info("Submission withdrawn",
		zap.Uint("cmid", cmID),
		zap.Uint("itemid", file.ID),
		zap.Uint("userid", pending.UserID),
		zap.Uint("by", viewer.UserID))
	return file, nil
}
