package repository

import (
	"context"
	"eportfolio_grading/internal/model"

	"gorm.io/gorm"
)

type RoleRepository struct {
	DB *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{DB: db}
}

// HasAnyRole 用户在课程中是否拥有任一角色
func (r *RoleRepository) HasAnyRole(ctx context.Context, userID, courseID uint, roles ...model.CourseRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.RoleAssignment{}).
		Where("userid = ? AND courseid = ? AND roleshortname IN ?", userID, courseID, roles).
		Count(&count).Error
	return count > 0, err
}

func (r *RoleRepository) Assign(ctx context.Context, userID, courseID uint, role model.CourseRole) error {
	return r.DB.WithContext(ctx).Create(&model.RoleAssignment{UserID: userID, CourseID: courseID, Role: role}).Error
}
