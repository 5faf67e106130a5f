package model

// GradeType 成绩项类型，数值与宿主成绩簿一致
type GradeType int

const (
	GradeTypeNone  GradeType = 0
	GradeTypeValue GradeType = 1
	GradeTypeScale GradeType = 2
)

// ActivityInstance 课程中的 ePortfolio 评分活动，每门课程至多一个
// swagger:model ActivityInstance
type ActivityInstance struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Course       uint   `gorm:"column:course;not null;index" json:"course"`
	Name         string `gorm:"column:name;size:255;not null" json:"name"`
	Intro        string `gorm:"column:intro;type:text" json:"intro"`
	IntroFormat  int    `gorm:"column:introformat;not null;default:0" json:"introformat"`
	DueDate      int64  `gorm:"column:duedate;not null;default:0" json:"duedate"`
	Grade        int64  `gorm:"column:grade;not null;default:0" json:"grade"`
	TimeCreated  int64  `gorm:"column:timecreated;not null;default:0" json:"timecreated"`
	TimeModified int64  `gorm:"column:timemodified;not null;default:0" json:"timemodified"`
}

func (ActivityInstance) TableName() string {
	return "eportfolio"
}

// GradeType grade > 0 为分值，< 0 为量表（量表 id 取反），0 不计分
func (a *ActivityInstance) GradeType() GradeType {
	switch {
	case a.Grade > 0:
		return GradeTypeValue
	case a.Grade < 0:
		return GradeTypeScale
	default:
		return GradeTypeNone
	}
}

// ScaleID 仅在量表计分时非零
func (a *ActivityInstance) ScaleID() uint {
	if a.Grade < 0 {
		return uint(-a.Grade)
	}
	return 0
}
