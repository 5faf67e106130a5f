package controller

import (
	"eportfolio_grading/internal/service"
	"eportfolio_grading/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type GradingController struct {
	Instances   *service.InstanceService
	Overview    *service.OverviewService
	Grading     *service.GradingService
	Withdrawals *service.WithdrawalService
}

func NewGradingController(
	instances *service.InstanceService,
	overview *service.OverviewService,
	grading *service.GradingService,
	withdrawals *service.WithdrawalService,
) *GradingController {
	return &GradingController{
		Instances:   instances,
		Overview:    overview,
		Grading:     grading,
		Withdrawals: withdrawals,
	}
}

// @Summary 评分概览
// @Description 评分者看到全部共享评分的提交，其他用户只看到自己的
// @Tags 评分
// @Produce json
// @Security ApiKeyAuth
// @Param cmid path int true "课程模块ID"
// @Param sort query string false "排序字段 userfullname"
// @Param dir query string false "asc | desc"
// @Success 200 {object} util.Response{data=service.Overview}
// @Router /eportfolio/modules/{cmid}/overview [get]
func (c *GradingController) GetOverview(ctx *gin.Context) {
	cmID, ok := parseUintParam(ctx, "cmid")
	if !ok {
		return
	}
	mc, err := c.Instances.ResolveModule(ctx.Request.Context(), cmID, 0)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	overview, err := c.Overview.Build(ctx.Request.Context(), currentViewer(ctx), mc, ctx.Query("sort"), ctx.Query("dir"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// @Summary 查询评分
// @Tags 评分
// @Produce json
// @Security ApiKeyAuth
// @Param cmid path int true "课程模块ID"
// @Param itemid query int true "文件ID"
// @Param userid query int true "提交人ID"
// @Success 200 {object} util.Response{data=model.GradingRecord}
// @Failure 404 {object} util.Response
// @Router /eportfolio/modules/{cmid}/grades [get]
func (c *GradingController) GetGrade(ctx *gin.Context) {
	cmID, ok := parseUintParam(ctx, "cmid")
	if !ok {
		return
	}
	var query struct {
		ItemID uint `form:"itemid" binding:"required"`
		UserID uint `form:"userid" binding:"required"`
	}
	if err := ctx.ShouldBindQuery(&query); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	detail, err := c.Grading.Detail(ctx.Request.Context(), currentViewer(ctx), cmID, query.ItemID, query.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if detail.Record == nil {
		util.HandleError(ctx, util.ErrGradeNotFound)
		return
	}
	util.Success(ctx, detail.Record)
}

// @Summary 保存评分
// @Description 按 (cmid, itemid, userid) 新建或更新评分，并通知提交人
// @Tags 评分
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param cmid path int true "课程模块ID"
// @Param body body service.GradeInput true "评分"
// @Success 200 {object} util.Response
// @Success 201 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /eportfolio/modules/{cmid}/grades [put]
func (c *GradingController) PutGrade(ctx *gin.Context) {
	cmID, ok := parseUintParam(ctx, "cmid")
	if !ok {
		return
	}
	var input service.GradeInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	input.CMID = cmID

	record, outcome, err := c.Grading.Grade(ctx.Request.Context(), currentViewer(ctx), input)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	data := gin.H{"record": record, "outcome": outcome.String()}
	if outcome == service.SaveInserted {
		util.Created(ctx, data)
		return
	}
	util.Success(ctx, data)
}

type withdrawalRequest struct {
	ItemID uint `json:"itemid" binding:"required"`
	UserID uint `json:"userid" binding:"required"`
}

// @Summary 申请撤回提交
// @Description 返回确认令牌和提示文本，不修改任何数据
// @Tags 评分
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param cmid path int true "课程模块ID"
// @Param body body withdrawalRequest true "提交项"
// @Success 200 {object} util.Response{data=service.WithdrawalPrompt}
// @Router /eportfolio/modules/{cmid}/withdrawals [post]
func (c *GradingController) RequestWithdrawal(ctx *gin.Context) {
	cmID, ok := parseUintParam(ctx, "cmid")
	if !ok {
		return
	}
	var req withdrawalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	prompt, err := c.Withdrawals.Request(ctx.Request.Context(), currentViewer(ctx), cmID, req.ItemID, req.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, prompt)
}

// @Summary 确认撤回提交
// @Description 删除文件、共享状态和评分，允许重新提交
// @Tags 评分
// @Produce json
// @Security ApiKeyAuth
// @Param cmid path int true "课程模块ID"
// @Param token path string true "确认令牌"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /eportfolio/modules/{cmid}/withdrawals/{token}/confirm [post]
func (c *GradingController) ConfirmWithdrawal(ctx *gin.Context) {
	cmID, ok := parseUintParam(ctx, "cmid")
	if !ok {
		return
	}
	file, err := c.Withdrawals.Confirm(ctx.Request.Context(), currentViewer(ctx), cmID, ctx.Param("token"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, util.Response{
		Code:    http.StatusOK,
		Message: "withdrawn",
		Data:    gin.H{"fileid": file.ID, "filename": file.Filename},
	})
}
