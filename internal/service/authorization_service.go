package service

import (
	"context"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/repository"
	"eportfolio_grading/internal/util"
)

// Viewer 当前请求的用户
type Viewer struct {
	UserID  uint
	IsAdmin bool
	Lang    string
}

func NewViewer(claims *util.Claims, lang string) Viewer {
	if claims == nil {
		return Viewer{Lang: lang}
	}
	return Viewer{UserID: claims.UserID, IsAdmin: claims.IsAdmin(), Lang: lang}
}

// Authorizer 回答"能否评分"
type Authorizer interface {
	CanGrade(ctx context.Context, viewer Viewer, courseID uint) (bool, error)
}

// graderRoles 拥有评分能力的课程角色
var graderRoles = []model.CourseRole{
	model.RoleManager,
	model.RoleEditingTeacher,
	model.RoleTeacher,
}

// RoleAuthorizer 基于课程角色分配判断评分权限，全局管理员直接放行
type RoleAuthorizer struct {
	RoleRepo *repository.RoleRepository
}

func NewRoleAuthorizer(roleRepo *repository.RoleRepository) *RoleAuthorizer {
	return &RoleAuthorizer{RoleRepo: roleRepo}
}

func (a *RoleAuthorizer) CanGrade(ctx context.Context, viewer Viewer, courseID uint) (bool, error) {
	if viewer.IsAdmin {
		return true, nil
	}
	if viewer.UserID == 0 {
		return false, nil
	}
	return a.RoleRepo.HasAnyRole(ctx, viewer.UserID, courseID, graderRoles...)
}
