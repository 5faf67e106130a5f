package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"eportfolio_grading/internal/lang"
	"eportfolio_grading/internal/service"
	"eportfolio_grading/internal/util"
	"eportfolio_grading/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// noticeKeys 可经重定向传递的提示，值表示是否成功
var noticeKeys = map[string]bool{
	"grade:insert:success": true,
	"grade:update:success": true,
	"grade:insert:error":   false,
	"grade:update:error":   false,
	"delete:success":       true,
	"delete:error":         false,
}

type viewQuery struct {
	CMID     uint   `form:"id"`
	Instance uint   `form:"e"`
	Action   string `form:"action"`
	ItemID   uint   `form:"itemid"`
	UserID   uint   `form:"userid"`
	Sort     string `form:"sort"`
	Dir      string `form:"dir"`
	Notice   string `form:"notice"`
}

// EPortfolioController 活动页面：概览、评分、查看与撤回
type EPortfolioController struct {
	Instances   *service.InstanceService
	Overview    *service.OverviewService
	Grading     *service.GradingService
	Withdrawals *service.WithdrawalService
	Files       *service.FileService
	Events      *service.EventLogService
}

func NewEPortfolioController(
	instances *service.InstanceService,
	overview *service.OverviewService,
	grading *service.GradingService,
	withdrawals *service.WithdrawalService,
	files *service.FileService,
	events *service.EventLogService,
) *EPortfolioController {
	return &EPortfolioController{
		Instances:   instances,
		Overview:    overview,
		Grading:     grading,
		Withdrawals: withdrawals,
		Files:       files,
		Events:      events,
	}
}

func overviewURL(cmID uint, notice string) string {
	q := url.Values{}
	q.Set("id", strconv.FormatUint(uint64(cmID), 10))
	if notice != "" {
		q.Set("notice", notice)
	}
	return "/mod/eportfolio/view?" + q.Encode()
}

// View 活动入口 /mod/eportfolio/view?id=<cmid>|e=<instance>&action=
// @Summary ePortfolio 活动页面
// @Tags 页面
// @Produce html
// @Param id query int false "课程模块ID"
// @Param e query int false "活动实例ID"
// @Param action query string false "grade | view | delete"
// @Param itemid query int false "文件ID"
// @Param userid query int false "提交人ID"
// @Success 200 {string} string "HTML"
// @Router /mod/eportfolio/view [get]
func (c *EPortfolioController) View(ctx *gin.Context) {
	viewer := currentViewer(ctx)
	var q viewQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		c.renderNotice(ctx, http.StatusBadRequest, lang.Get(viewer.Lang, "error:invalidinput", nil), 0)
		return
	}

	mc, err := c.Instances.ResolveModule(ctx.Request.Context(), q.CMID, q.Instance)
	if err != nil {
		c.fail(ctx, err, 0)
		return
	}
	c.Events.ModuleViewed(ctx.Request.Context(), viewer, mc)

	switch q.Action {
	case util.ActionGrade:
		c.grade(ctx, viewer, mc, q)
	case util.ActionView:
		c.view(ctx, viewer, mc, q)
	case util.ActionDelete:
		c.delete(ctx, viewer, mc, q)
	default:
		notice := ""
		success := false
		if ok, known := noticeKeys[q.Notice]; known {
			notice = lang.Get(viewer.Lang, q.Notice, nil)
			success = ok
		}
		c.overview(ctx, viewer, mc, q, notice, success)
	}
}

func (c *EPortfolioController) overview(ctx *gin.Context, viewer service.Viewer, mc *service.ModuleContext, q viewQuery, notice string, success bool) {
	t := lang.For(viewer.Lang)
	overview, err := c.Overview.Build(ctx.Request.Context(), viewer, mc, q.Sort, q.Dir)
	if errors.Is(err, util.ErrNotPortfolioCourse) {
		c.renderNotice(ctx, http.StatusOK, t("course:notportfolio"), 0)
		return
	}
	if err != nil {
		c.fail(ctx, err, mc.CM.ID)
		return
	}

	nextDir := "asc"
	if q.Sort == "userfullname" && q.Dir == "asc" {
		nextDir = "desc"
	}
	ctx.HTML(http.StatusOK, "overview", service.OverviewPage{
		T:        t,
		Title:    mc.Instance.Name,
		Notice:   notice,
		Success:  success,
		Overview: overview,
		NextDir:  nextDir,
	})
}

// grade 评分表单；非评分者回到概览
func (c *EPortfolioController) grade(ctx *gin.Context, viewer service.Viewer, mc *service.ModuleContext, q viewQuery) {
	reqCtx := ctx.Request.Context()
	canGrade, err := c.Grading.Authorizer.CanGrade(reqCtx, viewer, mc.Course.ID)
	if err != nil {
		c.fail(ctx, err, mc.CM.ID)
		return
	}
	if !canGrade || !mc.Course.IsEPortfolio {
		c.overview(ctx, viewer, mc, q, "", false)
		return
	}

	if ctx.Request.Method != http.MethodPost {
		detail, err := c.Grading.Detail(reqCtx, viewer, mc.CM.ID, q.ItemID, q.UserID)
		if err != nil {
			c.fail(ctx, err, mc.CM.ID)
			return
		}
		page := c.gradingPage(viewer, mc, detail)
		if detail.Record != nil {
			page.Grade = strconv.Itoa(detail.Record.Grade)
			page.Feedback = detail.Record.FeedbackText
		}
		ctx.HTML(http.StatusOK, "grading", page)
		return
	}

	var input service.GradeInput
	if err := ctx.ShouldBind(&input); err != nil {
		// 非数字的成绩按未填写处理，交由校验报告
		input = service.GradeInput{ItemID: q.ItemID, UserID: q.UserID, FeedbackText: ctx.PostForm("feedbacktext")}
	}
	input.CMID = mc.CM.ID

	existing, err := c.Grading.FindGrade(reqCtx, mc.CM.ID, input.ItemID, input.UserID)
	if err != nil {
		c.fail(ctx, err, mc.CM.ID)
		return
	}
	failNotice := "grade:insert:error"
	if existing != nil {
		failNotice = "grade:update:error"
	}

	_, outcome, err := c.Grading.Grade(reqCtx, viewer, input)
	var validationErrors validator.ValidationErrors
	switch {
	case err == nil:
		notice := "grade:insert:success"
		if outcome == service.SaveUpdated {
			notice = "grade:update:success"
		}
		ctx.Redirect(http.StatusSeeOther, overviewURL(mc.CM.ID, notice))
	case errors.As(err, &validationErrors):
		detail, derr := c.Grading.Detail(reqCtx, viewer, mc.CM.ID, input.ItemID, input.UserID)
		if derr != nil {
			c.fail(ctx, derr, mc.CM.ID)
			return
		}
		page := c.gradingPage(viewer, mc, detail)
		page.Grade = ctx.PostForm("grade")
		page.Feedback = input.FeedbackText
		page.Error = lang.Get(viewer.Lang, "gradeform:invalid", nil)
		ctx.HTML(http.StatusBadRequest, "grading", page)
	case util.IsNotFound(err), errors.Is(err, util.ErrPermissionDenied):
		c.fail(ctx, err, mc.CM.ID)
	default:
		logger.Log.Error("Failed to save grade",
			zap.Uint("cmid", mc.CM.ID),
			zap.Uint("itemid", input.ItemID),
			zap.Uint("userid", input.UserID),
			zap.Error(err))
		ctx.Redirect(http.StatusSeeOther, overviewURL(mc.CM.ID, failNotice))
	}
}

func (c *EPortfolioController) gradingPage(viewer service.Viewer, mc *service.ModuleContext, detail *service.GradeDetail) service.GradingPage {
	return service.GradingPage{
		T:         lang.For(viewer.Lang),
		Detail:    detail,
		ActionURL: service.ActionURL(util.ActionGrade, mc.CM.ID, detail.File.File.ID, detail.Owner.ID),
		BackURL:   overviewURL(mc.CM.ID, ""),
	}
}

// view 只读查看评分，提交人和评分者可见
func (c *EPortfolioController) view(ctx *gin.Context, viewer service.Viewer, mc *service.ModuleContext, q viewQuery) {
	detail, err := c.Grading.Detail(ctx.Request.Context(), viewer, mc.CM.ID, q.ItemID, q.UserID)
	if errors.Is(err, util.ErrPermissionDenied) {
		c.overview(ctx, viewer, mc, q, "", false)
		return
	}
	if err != nil {
		c.fail(ctx, err, mc.CM.ID)
		return
	}
	ctx.HTML(http.StatusOK, "view", service.ViewPage{
		T:       lang.For(viewer.Lang),
		Detail:  detail,
		FileURL: c.Files.URL(detail.File.File),
		BackURL: overviewURL(mc.CM.ID, ""),
	})
}

// delete 两阶段撤回：GET 生成确认令牌，POST 携带令牌执行
func (c *EPortfolioController) delete(ctx *gin.Context, viewer service.Viewer, mc *service.ModuleContext, q viewQuery) {
	reqCtx := ctx.Request.Context()
	if ctx.Request.Method != http.MethodPost {
		prompt, err := c.Withdrawals.Request(reqCtx, viewer, mc.CM.ID, q.ItemID, q.UserID)
		if errors.Is(err, util.ErrPermissionDenied) {
			c.overview(ctx, viewer, mc, q, "", false)
			return
		}
		if err != nil {
			c.fail(ctx, err, mc.CM.ID)
			return
		}
		c.renderConfirm(ctx, viewer, mc, prompt, "")
		return
	}

	_, err := c.Withdrawals.Confirm(reqCtx, viewer, mc.CM.ID, ctx.PostForm("token"))
	switch {
	case err == nil:
		ctx.Redirect(http.StatusSeeOther, overviewURL(mc.CM.ID, "delete:success"))
	case errors.Is(err, util.ErrConfirmationMismatch):
		itemID := util.MustParseUint(ctx.PostForm("itemid"))
		userID := util.MustParseUint(ctx.PostForm("userid"))
		prompt, err := c.Withdrawals.Request(reqCtx, viewer, mc.CM.ID, itemID, userID)
		if err != nil {
			c.fail(ctx, err, mc.CM.ID)
			return
		}
		c.renderConfirm(ctx, viewer, mc, prompt, lang.Get(viewer.Lang, "delete:expired", nil))
	case util.IsNotFound(err), errors.Is(err, util.ErrPermissionDenied):
		c.fail(ctx, err, mc.CM.ID)
	default:
		logger.Log.Error("Failed to withdraw submission", zap.Uint("cmid", mc.CM.ID), zap.Error(err))
		ctx.Redirect(http.StatusSeeOther, overviewURL(mc.CM.ID, "delete:error"))
	}
}

func (c *EPortfolioController) renderConfirm(ctx *gin.Context, viewer service.Viewer, mc *service.ModuleContext, prompt *service.WithdrawalPrompt, notice string) {
	ctx.HTML(http.StatusOK, "confirm_delete", service.ConfirmPage{
		T:         lang.For(viewer.Lang),
		Prompt:    prompt,
		ActionURL: fmt.Sprintf("/mod/eportfolio/view?id=%d&action=%s", mc.CM.ID, util.ActionDelete),
		CancelURL: overviewURL(mc.CM.ID, ""),
		Notice:    notice,
	})
}

func (c *EPortfolioController) renderNotice(ctx *gin.Context, status int, message string, cmID uint) {
	page := service.NoticePage{
		T:       lang.For(currentViewer(ctx).Lang),
		Message: message,
	}
	if cmID > 0 {
		page.BackURL = overviewURL(cmID, "")
	}
	ctx.HTML(status, "notice", page)
}

// fail 缺失类错误直接终止请求，不输出部分页面
func (c *EPortfolioController) fail(ctx *gin.Context, err error, cmID uint) {
	t := lang.For(currentViewer(ctx).Lang)
	var validationErrors validator.ValidationErrors
	switch {
	case util.IsNotFound(err):
		c.renderNotice(ctx, http.StatusNotFound, t("error:notfound"), 0)
	case errors.Is(err, util.ErrPermissionDenied):
		c.renderNotice(ctx, http.StatusForbidden, t("error:nopermission"), cmID)
	case errors.Is(err, util.ErrNotPortfolioCourse):
		c.renderNotice(ctx, http.StatusOK, t("course:notportfolio"), 0)
	case errors.As(err, &validationErrors):
		c.renderNotice(ctx, http.StatusBadRequest, t("error:invalidinput"), cmID)
	default:
		logger.Log.Error("ePortfolio page failed", zap.Uint("cmid", cmID), zap.Error(err))
		c.renderNotice(ctx, http.StatusInternalServerError, t("error:unexpected"), cmID)
	}
}
