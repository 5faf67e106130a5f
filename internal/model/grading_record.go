package model

// GradingRecordTripleIndex (cmid, itemid, userid) 唯一索引名
const GradingRecordTripleIndex = "eportfolio_grade_triple_uix"

// GradingRecord 教师对一份共享提交的评分
// swagger:model GradingRecord
type GradingRecord struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Instance     uint   `gorm:"column:instance;not null;index" json:"instance"`
	CourseID     uint   `gorm:"column:courseid;not null" json:"courseid"`
	CMID         uint   `gorm:"column:cmid;not null;uniqueIndex:eportfolio_grade_triple_uix,priority:1" json:"cmid"`
	ItemID       uint   `gorm:"column:itemid;not null;default:0;uniqueIndex:eportfolio_grade_triple_uix,priority:2" json:"itemid"`
	UserID       uint   `gorm:"column:userid;not null;uniqueIndex:eportfolio_grade_triple_uix,priority:3" json:"userid"`
	GraderID     uint   `gorm:"column:graderid;not null" json:"graderid"`
	Grade        int    `gorm:"column:grade;not null;default:0" json:"grade"`
	FeedbackText string `gorm:"column:feedbacktext;type:text" json:"feedbacktext"`
	TimeCreated  int64  `gorm:"column:timecreated;not null;default:0" json:"timecreated"`
	TimeModified int64  `gorm:"column:timemodified;not null;default:0" json:"timemodified"`
}

func (GradingRecord) TableName() string {
	return "eportfolio_grade"
}
