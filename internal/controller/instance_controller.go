package controller

import (
	"eportfolio_grading/internal/service"
	"eportfolio_grading/internal/util"

	"github.com/gin-gonic/gin"
)

type InstanceController struct {
	Instances  *service.InstanceService
	Authorizer service.Authorizer
}

func NewInstanceController(instances *service.InstanceService, authorizer service.Authorizer) *InstanceController {
	return &InstanceController{Instances: instances, Authorizer: authorizer}
}

// canManage 只有课程中的评分者可以维护活动
func (c *InstanceController) canManage(ctx *gin.Context, courseID uint) bool {
	ok, err := c.Authorizer.CanGrade(ctx.Request.Context(), currentViewer(ctx), courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return false
	}
	if !ok {
		util.Forbidden(ctx)
		return false
	}
	return true
}

// @Summary 创建 ePortfolio 评分活动
// @Description 每门课程只允许一个活动
// @Tags 活动
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.InstanceInput true "活动设置"
// @Success 201 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /eportfolio/instances [post]
func (c *InstanceController) Create(ctx *gin.Context) {
	var input service.InstanceInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !c.canManage(ctx, input.Course) {
		return
	}

	mc, err := c.Instances.AddInstance(ctx.Request.Context(), input)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"instance": mc.Instance, "cmid": mc.CM.ID})
}

// @Summary 更新 ePortfolio 评分活动
// @Tags 活动
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动实例ID"
// @Param body body service.InstanceInput true "活动设置"
// @Success 200 {object} util.Response{data=model.ActivityInstance}
// @Router /eportfolio/instances/{id} [put]
func (c *InstanceController) Update(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}
	var input service.InstanceInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	mc, err := c.Instances.ResolveModule(ctx.Request.Context(), 0, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if !c.canManage(ctx, mc.Course.ID) {
		return
	}
	// 活动不能移动到其他课程
	input.Course = mc.Course.ID

	instance, err := c.Instances.UpdateInstance(ctx.Request.Context(), id, input)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, instance)
}

// @Summary 删除 ePortfolio 评分活动
// @Description 同时删除提交文件、共享状态、评分记录与日历事件
// @Tags 活动
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动实例ID"
// @Success 200 {object} util.Response
// @Router /eportfolio/instances/{id} [delete]
func (c *InstanceController) Delete(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}
	mc, err := c.Instances.ResolveModule(ctx.Request.Context(), 0, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if !c.canManage(ctx, mc.Course.ID) {
		return
	}

	if err := c.Instances.DeleteInstance(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": id})
}
