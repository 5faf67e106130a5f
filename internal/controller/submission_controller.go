package controller

import (
	"eportfolio_grading/internal/service"
	"eportfolio_grading/internal/util"
	"io"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	Instances *service.InstanceService
	Files     *service.FileService
}

func NewSubmissionController(instances *service.InstanceService, files *service.FileService) *SubmissionController {
	return &SubmissionController{Instances: instances, Files: files}
}

// @Summary 提交 ePortfolio 评分
// @Description 上传 H5P 文件并以 grade 方式共享给课程教师
// @Tags 提交
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param cmid path int true "课程模块ID"
// @Param file formData file true "H5P 文件"
// @Param title formData string false "标题"
// @Success 201 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /eportfolio/modules/{cmid}/submissions [post]
func (c *SubmissionController) Upload(ctx *gin.Context) {
	cmID, ok := parseUintParam(ctx, "cmid")
	if !ok {
		return
	}
	viewer := currentViewer(ctx)
	if viewer.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	mc, err := c.Instances.ResolveModule(ctx.Request.Context(), cmID, 0)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if !mc.Course.IsEPortfolio {
		util.HandleError(ctx, util.ErrNotPortfolioCourse)
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	src, err := header.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	mimeType, err := util.DetectMimeType(src)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if mimeType != util.MimeH5P {
		util.HandleError(ctx, util.ErrInvalidFileType)
		return
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	file, share, err := c.Files.Store(ctx.Request.Context(), service.StoreInput{
		CourseID: mc.Course.ID,
		CMID:     mc.CM.ID,
		UserID:   viewer.UserID,
		Filename: header.Filename,
		Title:    ctx.PostForm("title"),
		Size:     header.Size,
		Reader:   src,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"file": file, "share": share})
}
