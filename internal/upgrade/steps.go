package upgrade

import (
	"eportfolio_grading/internal/model"

	"gorm.io/gorm"
)

const (
	Version2023080301 int64 = 2023080301
	Version2023080302 int64 = 2023080302
	Version2023080303 int64 = 2023080303
	Version2023080304 int64 = 2023080304
)

// DefaultSteps 插件的全部升级步骤，按版本升序
func DefaultSteps() []Step {
	return []Step{
		{Version: Version2023080301, Name: "add duedate and grade to eportfolio", Apply: addInstanceGradeFields},
		{Version: Version2023080302, Name: "add table eportfolio_grade", Apply: addGradeTable},
		{Version: Version2023080303, Name: "add itemid to eportfolio_grade", Apply: addGradeItemID},
		{Version: Version2023080304, Name: "add feedbacktext to eportfolio_grade", Apply: addGradeFeedback},
	}
}

// instanceTableV1 首次安装时 eportfolio 表的结构
type instanceTableV1 struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Course       uint   `gorm:"column:course;not null;index"`
	Name         string `gorm:"column:name;size:255;not null"`
	Intro        string `gorm:"column:intro;type:text"`
	IntroFormat  int    `gorm:"column:introformat;not null;default:0"`
	TimeCreated  int64  `gorm:"column:timecreated;not null;default:0"`
	TimeModified int64  `gorm:"column:timemodified;not null;default:0"`
}

func (instanceTableV1) TableName() string {
	return "eportfolio"
}

// gradeTableV2 2023080302 时 eportfolio_grade 的结构，尚无 itemid 和 feedbacktext
type gradeTableV2 struct {
	ID           uint  `gorm:"primaryKey;autoIncrement"`
	Instance     uint  `gorm:"column:instance;not null;index"`
	CourseID     uint  `gorm:"column:courseid;not null"`
	CMID         uint  `gorm:"column:cmid;not null"`
	UserID       uint  `gorm:"column:userid;not null"`
	GraderID     uint  `gorm:"column:graderid;not null"`
	Grade        int   `gorm:"column:grade;not null;default:0"`
	TimeCreated  int64 `gorm:"column:timecreated;not null;default:0"`
	TimeModified int64 `gorm:"column:timemodified;not null;default:0"`
}

func (gradeTableV2) TableName() string {
	return "eportfolio_grade"
}

func createTableIfMissing(m gorm.Migrator, table interface{}) error {
	if m.HasTable(table) {
		return nil
	}
	return m.CreateTable(table)
}

func addColumnIfMissing(m gorm.Migrator, table interface{}, field string) error {
	if m.HasColumn(table, field) {
		return nil
	}
	return m.AddColumn(table, field)
}

func addInstanceGradeFields(m gorm.Migrator) error {
	if err := createTableIfMissing(m, &instanceTableV1{}); err != nil {
		return err
	}
	if err := addColumnIfMissing(m, &model.ActivityInstance{}, "DueDate"); err != nil {
		return err
	}
	return addColumnIfMissing(m, &model.ActivityInstance{}, "Grade")
}

func addGradeTable(m gorm.Migrator) error {
	return createTableIfMissing(m, &gradeTableV2{})
}

func addGradeItemID(m gorm.Migrator) error {
	return addColumnIfMissing(m, &model.GradingRecord{}, "ItemID")
}

// addGradeFeedback 同时建立 (cmid, itemid, userid) 唯一索引；
// 已存在重复记录时建索引失败，步骤停在 2023080303，清理后可重跑
func addGradeFeedback(m gorm.Migrator) error {
	if err := addColumnIfMissing(m, &model.GradingRecord{}, "FeedbackText"); err != nil {
		return err
	}
	if m.HasIndex(&model.GradingRecord{}, model.GradingRecordTripleIndex) {
		return nil
	}
	return m.CreateIndex(&model.GradingRecord{}, model.GradingRecordTripleIndex)
}
