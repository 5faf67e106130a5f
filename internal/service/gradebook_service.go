package service

import (
	"context"
	"encoding/json"
	"eportfolio_grading/internal/config"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/repository"
	"eportfolio_grading/pkg/logger"
	"eportfolio_grading/pkg/monitoring"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// GradeItemDetails 成绩项定义
type GradeItemDetails struct {
	ItemName  string
	GradeType model.GradeType
	GradeMax  float64
	GradeMin  float64
	ScaleID   uint
	Reset     bool
}

// ItemDetailsFor 按实例的 grade 字段推导成绩项类型
func ItemDetailsFor(instance *model.ActivityInstance, reset bool) GradeItemDetails {
	details := GradeItemDetails{
		ItemName:  instance.Name,
		GradeType: instance.GradeType(),
		Reset:     reset,
	}
	switch details.GradeType {
	case model.GradeTypeValue:
		details.GradeMax = float64(instance.Grade)
		details.GradeMin = 0
	case model.GradeTypeScale:
		details.ScaleID = instance.ScaleID()
	}
	return details
}

// GradebookProvider 成绩簿适配器，只写不读
type GradebookProvider interface {
	Name() string
	UpdateItem(ctx context.Context, instance *model.ActivityInstance, cmID uint, details GradeItemDetails) error
	PublishGrades(ctx context.Context, instance *model.ActivityInstance, cmID uint, grades map[uint]float64) error
	DeleteItem(ctx context.Context, instance *model.ActivityInstance, cmID uint) error
}

// LocalGradebookProvider 写入本库的 grade_items / grade_grades
type LocalGradebookProvider struct {
	Repo *repository.GradebookRepository
}

func (p *LocalGradebookProvider) Name() string { return "local" }

func (p *LocalGradebookProvider) UpdateItem(ctx context.Context, instance *model.ActivityInstance, cmID uint, details GradeItemDetails) error {
	item, err := p.Repo.FindItem(ctx, instance.Course, instance.ID)
	if err != nil {
		return err
	}
	now := model.Now()
	if item == nil {
		item = &model.GradeItem{
			CourseID:     instance.Course,
			ItemType:     "mod",
			ItemModule:   model.ModuleName,
			ItemInstance: instance.ID,
			TimeCreated:  now,
		}
	}
	item.ItemName = details.ItemName
	item.GradeType = details.GradeType
	item.GradeMax = details.GradeMax
	item.GradeMin = details.GradeMin
	item.ScaleID = details.ScaleID
	item.TimeModified = now
	if err := p.Repo.SaveItem(ctx, item); err != nil {
		return err
	}
	if details.Reset {
		return p.Repo.ResetGrades(ctx, item.ID)
	}
	return nil
}

func (p *LocalGradebookProvider) PublishGrades(ctx context.Context, instance *model.ActivityInstance, cmID uint, grades map[uint]float64) error {
	item, err := p.Repo.FindItem(ctx, instance.Course, instance.ID)
	if err != nil {
		return err
	}
	if item == nil {
		if err := p.UpdateItem(ctx, instance, cmID, ItemDetailsFor(instance, false)); err != nil {
			return err
		}
		if item, err = p.Repo.FindItem(ctx, instance.Course, instance.ID); err != nil {
			return err
		}
	}
	return p.Repo.UpsertGrades(ctx, item.ID, grades, model.Now())
}

func (p *LocalGradebookProvider) DeleteItem(ctx context.Context, instance *model.ActivityInstance, cmID uint) error {
	item, err := p.Repo.FindItem(ctx, instance.Course, instance.ID)
	if err != nil || item == nil {
		return err
	}
	return p.Repo.DeleteItem(ctx, item.ID)
}

// MoodleGradebookProvider 通过 Web Service core_grades_update_grades 推送
type MoodleGradebookProvider struct {
	client *resty.Client
	token  string
}

func NewMoodleGradebookProvider(cfg *config.GradebookConfig) *MoodleGradebookProvider {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.MoodleURL, "/"))
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &MoodleGradebookProvider{client: client, token: cfg.Token}
}

func (p *MoodleGradebookProvider) Name() string { return "moodle" }

type moodleException struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

func (p *MoodleGradebookProvider) call(ctx context.Context, form map[string]string) error {
	form["wstoken"] = p.token
	form["wsfunction"] = "core_grades_update_grades"
	form["moodlewsrestformat"] = "json"

	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post("/webservice/rest/server.php")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("moodle gradebook status %d", resp.StatusCode())
	}

	// 失败时返回 {"exception": ...}，成功时返回整数状态
	body := resp.Body()
	if len(body) > 0 && body[0] == '{' {
		var ex moodleException
		if err := json.Unmarshal(body, &ex); err == nil && ex.Exception != "" {
			return fmt.Errorf("moodle gradebook %s: %s", ex.ErrorCode, ex.Message)
		}
	}
	return nil
}

func (p *MoodleGradebookProvider) baseForm(instance *model.ActivityInstance, cmID uint) map[string]string {
	return map[string]string{
		"source":     "mod/" + model.ModuleName,
		"courseid":   strconv.FormatUint(uint64(instance.Course), 10),
		"component":  model.Component,
		"activityid": strconv.FormatUint(uint64(cmID), 10),
		"itemnumber": "0",
	}
}

func (p *MoodleGradebookProvider) UpdateItem(ctx context.Context, instance *model.ActivityInstance, cmID uint, details GradeItemDetails) error {
	form := p.baseForm(instance, cmID)
	form["itemdetails[itemname]"] = details.ItemName
	form["itemdetails[gradetype]"] = strconv.Itoa(int(details.GradeType))
	switch details.GradeType {
	case model.GradeTypeValue:
		form["itemdetails[grademax]"] = strconv.FormatFloat(details.GradeMax, 'f', -1, 64)
		form["itemdetails[grademin]"] = strconv.FormatFloat(details.GradeMin, 'f', -1, 64)
	case model.GradeTypeScale:
		form["itemdetails[scaleid]"] = strconv.FormatUint(uint64(details.ScaleID), 10)
	}
	if details.Reset {
		form["itemdetails[reset]"] = "1"
	}
	return p.call(ctx, form)
}

func (p *MoodleGradebookProvider) PublishGrades(ctx context.Context, instance *model.ActivityInstance, cmID uint, grades map[uint]float64) error {
	form := p.baseForm(instance, cmID)
	i := 0
	for userID, grade := range grades {
		form[fmt.Sprintf("grades[%d][studentid]", i)] = strconv.FormatUint(uint64(userID), 10)
		form[fmt.Sprintf("grades[%d][grade]", i)] = strconv.FormatFloat(grade, 'f', -1, 64)
		i++
	}
	return p.call(ctx, form)
}

func (p *MoodleGradebookProvider) DeleteItem(ctx context.Context, instance *model.ActivityInstance, cmID uint) error {
	form := p.baseForm(instance, cmID)
	form["itemdetails[deleted]"] = "1"
	return p.call(ctx, form)
}

// NewGradebookProvider 按配置选择成绩簿适配器
func NewGradebookProvider(cfg *config.GradebookConfig, repo *repository.GradebookRepository) GradebookProvider {
	if cfg.Provider == "moodle" {
		return NewMoodleGradebookProvider(cfg)
	}
	return &LocalGradebookProvider{Repo: repo}
}

// GradebookService 成绩簿推送，附带日志与指标
type GradebookService struct {
	Provider GradebookProvider
}

func NewGradebookService(provider GradebookProvider) *GradebookService {
	return &GradebookService{Provider: provider}
}

func (s *GradebookService) observe(op string, instance *model.ActivityInstance, err error) error {
	result := "ok"
	if err != nil {
		result = "error"
		logger.Log.Error("Gradebook push failed",
			zap.String("provider", s.Provider.Name()),
			zap.String("op", op),
			zap.Uint("instance", instance.ID),
			zap.Error(err))
	}
	monitoring.GradebookPushTotal.WithLabelValues(s.Provider.Name(), result).Inc()
	return err
}

func (s *GradebookService) UpdateItem(ctx context.Context, instance *model.ActivityInstance, cmID uint, reset bool) error {
	err := s.Provider.UpdateItem(ctx, instance, cmID, ItemDetailsFor(instance, reset))
	return s.observe("update_item", instance, err)
}

func (s *GradebookService) DeleteItem(ctx context.Context, instance *model.ActivityInstance, cmID uint) error {
	err := s.Provider.DeleteItem(ctx, instance, cmID)
	return s.observe("delete_item", instance, err)
}

// PushGrade 百分比换算为成绩项分值后推送；量表或不计分的实例不推送
func (s *GradebookService) PushGrade(ctx context.Context, instance *model.ActivityInstance, cmID, userID uint, percent int) error {
	if instance.GradeType() != model.GradeTypeValue {
		return nil
	}
	grade := float64(percent) * float64(instance.Grade) / 100
	err := s.Provider.PublishGrades(ctx, instance, cmID, map[uint]float64{userID: grade})
	return s.observe("publish", instance, err)
}
