package repository

import (
	"context"
	"eportfolio_grading/internal/model"
	"errors"

	"gorm.io/gorm"
)

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) WithTx(tx *gorm.DB) *EventRepository {
	return &EventRepository{DB: tx}
}

// SyncDueEvent 按实例截止日期创建、更新或删除日历事件
func (r *EventRepository) SyncDueEvent(ctx context.Context, instance *model.ActivityInstance) error {
	db := r.DB.WithContext(ctx)

	var event model.CalendarEvent
	err := db.Where("modulename = ? AND instance = ? AND eventtype = ?", model.ModuleName, instance.ID, model.EventTypeDue).
		First(&event).Error
	exists := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if instance.DueDate == 0 {
		if exists {
			return db.Delete(&event).Error
		}
		return nil
	}

	event.Name = instance.Name
	event.ModuleName = model.ModuleName
	event.Instance = instance.ID
	event.CourseID = instance.Course
	event.EventType = model.EventTypeDue
	event.TimeStart = instance.DueDate
	event.TimeModified = model.Now()
	return db.Save(&event).Error
}

func (r *EventRepository) DeleteForInstance(ctx context.Context, instanceID uint) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("modulename = ? AND instance = ?", model.ModuleName, instanceID).
		Delete(&model.CalendarEvent{})
	return result.RowsAffected, result.Error
}

func (r *EventRepository) FindForInstance(ctx context.Context, instanceID uint) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	err := r.DB.WithContext(ctx).
		Where("modulename = ? AND instance = ?", model.ModuleName, instanceID).
		Find(&events).Error
	return events, err
}

// Log 写入标准日志
func (r *EventRepository) Log(ctx context.Context, entry *model.LogEntry) error {
	if entry.TimeCreated == 0 {
		entry.TimeCreated = model.Now()
	}
	return r.DB.WithContext(ctx).Create(entry).Error
}

func (r *EventRepository) FindLogs(ctx context.Context, eventName string) ([]model.LogEntry, error) {
	var entries []model.LogEntry
	err := r.DB.WithContext(ctx).Where("eventname = ?", eventName).Order("id").Find(&entries).Error
	return entries, err
}
