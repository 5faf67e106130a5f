package model

// Course 宿主课程，IsEPortfolio 对应课程自定义字段 eportfolio_course
type Course struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FullName     string `gorm:"column:fullname;size:254;not null" json:"fullname"`
	ShortName    string `gorm:"column:shortname;size:255;not null" json:"shortname"`
	IsEPortfolio bool   `gorm:"column:eportfolio_course;not null;default:false" json:"eportfolioCourse"`
}

func (Course) TableName() string {
	return "course"
}

// CourseModule 活动实例在课程中的位置
type CourseModule struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Course     uint   `gorm:"column:course;not null;index" json:"course"`
	ModuleName string `gorm:"column:modulename;size:20;not null" json:"modulename"`
	Instance   uint   `gorm:"column:instance;not null" json:"instance"`
	Added      int64  `gorm:"column:added;not null;default:0" json:"added"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

type CourseRole string

const (
	RoleManager        CourseRole = "manager"
	RoleEditingTeacher CourseRole = "editingteacher"
	RoleTeacher        CourseRole = "teacher"
	RoleStudent        CourseRole = "student"
)

// RoleAssignment 用户在课程上下文中的角色
type RoleAssignment struct {
	ID       uint       `gorm:"primaryKey;autoIncrement"`
	UserID   uint       `gorm:"column:userid;not null;index:role_assignments_user_course_idx,priority:1"`
	CourseID uint       `gorm:"column:courseid;not null;index:role_assignments_user_course_idx,priority:2"`
	Role     CourseRole `gorm:"column:roleshortname;size:100;not null"`
}

func (RoleAssignment) TableName() string {
	return "role_assignments"
}
