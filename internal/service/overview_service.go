package service

import (
	"context"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/repository"
	"eportfolio_grading/internal/util"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

const (
	GradeNotGraded = "./."
	GradeHidden    = "./"
)

// OverviewAction 行操作按钮
type OverviewAction struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// OverviewRow 一份共享评分的提交
type OverviewRow struct {
	ItemID           uint             `json:"itemid"`
	Filename         string           `json:"filename"`
	FileTimeModified int64            `json:"filetimemodified"`
	UserID           uint             `json:"userid"`
	UserFullName     string           `json:"userfullname"`
	ShareStart       int64            `json:"sharestart"`
	Grade            *int             `json:"grade"`
	GradeDisplay     string           `json:"gradeDisplay"`
	Actions          []OverviewAction `json:"actions"`
}

type Overview struct {
	CMID     uint          `json:"cmid"`
	CourseID uint          `json:"courseid"`
	Name     string        `json:"name"`
	CanGrade bool          `json:"canGrade"`
	Rows     []OverviewRow `json:"rows"`
}

// OverviewService 组装待评分提交列表
type OverviewService struct {
	ShareRepo   *repository.ShareRepository
	GradingRepo *repository.GradingRepository
	Authorizer  Authorizer

	now func() int64
}

func NewOverviewService(shareRepo *repository.ShareRepository, gradingRepo *repository.GradingRepository, authorizer Authorizer) *OverviewService {
	return &OverviewService{
		ShareRepo:   shareRepo,
		GradingRepo: gradingRepo,
		Authorizer:  authorizer,
		now:         model.Now,
	}
}

// ActionURL 页面动作地址
func ActionURL(action string, cmID, itemID, userID uint) string {
	q := url.Values{}
	q.Set("id", fmt.Sprint(cmID))
	q.Set("action", action)
	q.Set("itemid", fmt.Sprint(itemID))
	q.Set("userid", fmt.Sprint(userID))
	return "/mod/eportfolio/view?" + q.Encode()
}

// Build 评分者看到课程中全部共享评分的提交，其他人只看到自己的
func (s *OverviewService) Build(ctx context.Context, viewer Viewer, mc *ModuleContext, sortKey, dir string) (*Overview, error) {
	if !mc.Course.IsEPortfolio {
		return nil, util.ErrNotPortfolioCourse
	}

	canGrade, err := s.Authorizer.CanGrade(ctx, viewer, mc.Course.ID)
	if err != nil {
		return nil, err
	}

	var entries []model.SharedSubmission
	if canGrade {
		entries, err = s.ShareRepo.ListSharedForGrading(ctx, mc.Course.ID, mc.CM.ID, s.now())
	} else {
		entries, err = s.ShareRepo.ListUserSharedForGrading(ctx, viewer.UserID, mc.Course.ID, mc.CM.ID, s.now())
	}
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		CMID:     mc.CM.ID,
		CourseID: mc.Course.ID,
		Name:     mc.Instance.Name,
		CanGrade: canGrade,
		Rows:     make([]OverviewRow, 0, len(entries)),
	}

	for _, entry := range entries {
		record, err := s.GradingRepo.FindInCourse(ctx, mc.Course.ID, mc.CM.ID, entry.FileItemID, entry.UserID)
		if err != nil {
			return nil, err
		}

		row := OverviewRow{
			ItemID:           entry.FileItemID,
			Filename:         entry.Filename,
			FileTimeModified: entry.FileTimeModified,
			UserID:           entry.UserID,
			UserFullName:     entry.UserFullName,
			ShareStart:       entry.ShareStart,
			Actions:          []OverviewAction{},
		}

		switch {
		case !canGrade && entry.UserID != viewer.UserID:
			row.GradeDisplay = GradeHidden
		case record == nil:
			row.GradeDisplay = GradeNotGraded
		default:
			grade := record.Grade
			row.Grade = &grade
			row.GradeDisplay = fmt.Sprintf("%d %%", grade)
		}

		if canGrade {
			row.Actions = append(row.Actions,
				OverviewAction{Name: util.ActionGrade, URL: ActionURL(util.ActionGrade, mc.CM.ID, entry.FileItemID, entry.UserID)},
				OverviewAction{Name: util.ActionDelete, URL: ActionURL(util.ActionDelete, mc.CM.ID, entry.FileItemID, entry.UserID)},
			)
		} else if record != nil && row.Grade != nil {
			row.Actions = append(row.Actions,
				OverviewAction{Name: util.ActionView, URL: ActionURL(util.ActionView, mc.CM.ID, entry.FileItemID, entry.UserID)},
			)
		}

		overview.Rows = append(overview.Rows, row)
	}

	if sortKey == "userfullname" {
		desc := strings.EqualFold(dir, "desc")
		sort.SliceStable(overview.Rows, func(i, j int) bool {
			a := strings.ToLower(overview.Rows[i].UserFullName)
			b := strings.ToLower(overview.Rows[j].UserFullName)
			if desc {
				return a > b
			}
			return a < b
		})
	}

	return overview, nil
}
