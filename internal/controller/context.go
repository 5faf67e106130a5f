package controller

import (
	"eportfolio_grading/internal/middleware"
	"eportfolio_grading/internal/service"
	"eportfolio_grading/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// currentViewer 当前登录用户及其界面语言
func currentViewer(ctx *gin.Context) service.Viewer {
	return service.NewViewer(util.GetUserFromContext(ctx), ctx.GetString(middleware.LangKey))
}

func parseUintParam(ctx *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || v == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}
