package service

import (
	"context"
	"encoding/json"
	"eportfolio_grading/internal/lang"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/repository"
	"eportfolio_grading/pkg/logger"
	"fmt"

	"go.uber.org/zap"
)

// EventLogService 写入标准日志，失败只记录不影响请求
type EventLogService struct {
	EventRepo *repository.EventRepository
}

func NewEventLogService(eventRepo *repository.EventRepository) *EventLogService {
	return &EventLogService{EventRepo: eventRepo}
}

func (s *EventLogService) write(ctx context.Context, entry *model.LogEntry) {
	if err := s.EventRepo.Log(ctx, entry); err != nil {
		logger.Log.Warn("Failed to write event log",
			zap.String("event", entry.EventName),
			zap.Error(err))
	}
}

func (s *EventLogService) ModuleViewed(ctx context.Context, viewer Viewer, mc *ModuleContext) {
	s.write(ctx, &model.LogEntry{
		EventName:         model.EventCourseModuleViewed,
		Component:         model.Component,
		Action:            "viewed",
		Target:            "course_module",
		CRUD:              "r",
		ObjectTable:       model.ActivityInstance{}.TableName(),
		ObjectID:          mc.Instance.ID,
		ContextInstanceID: mc.CM.ID,
		UserID:            viewer.UserID,
		CourseID:          mc.Course.ID,
	})
}

func (s *EventLogService) GradeSaved(ctx context.Context, viewer Viewer, mc *ModuleContext, record *model.GradingRecord) {
	other, _ := json.Marshal(map[string]interface{}{
		"itemid": record.ItemID,
		"grade":  record.Grade,
	})
	s.write(ctx, &model.LogEntry{
		EventName:         model.EventGradeSaved,
		Component:         model.Component,
		Action:            "saved",
		Target:            "grade",
		CRUD:              "u",
		ObjectTable:       model.GradingRecord{}.TableName(),
		ObjectID:          record.ID,
		ContextInstanceID: mc.CM.ID,
		UserID:            viewer.UserID,
		CourseID:          mc.Course.ID,
		RelatedUserID:     record.UserID,
		Other:             string(other),
	})
}

// EPortfolioDeleted 记录撤回，Other 中保存可读描述
func (s *EventLogService) EPortfolioDeleted(ctx context.Context, viewer Viewer, mc *ModuleContext, file *model.SubmissionFile) {
	description := lang.Get(lang.Default, "event:eportfolio:deleted", map[string]string{
		"userid":   fmt.Sprint(viewer.UserID),
		"filename": file.Filename,
		"itemid":   fmt.Sprint(file.ID),
	})
	other, _ := json.Marshal(map[string]interface{}{
		"description": description,
		"filename":    file.Filename,
		"itemid":      file.ID,
	})
	s.write(ctx, &model.LogEntry{
		EventName:         model.EventEPortfolioDeleted,
		Component:         "local_eportfolio",
		Action:            "deleted",
		Target:            "eportfolio",
		CRUD:              "d",
		ObjectTable:       model.SubmissionFile{}.TableName(),
		ObjectID:          file.ID,
		ContextInstanceID: mc.CM.ID,
		UserID:            viewer.UserID,
		CourseID:          mc.Course.ID,
		RelatedUserID:     file.UserID,
		Other:             string(other),
	})
}
