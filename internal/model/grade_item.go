package model

// GradeItem 成绩簿中的活动成绩项（本地成绩簿适配器使用）
type GradeItem struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID     uint      `gorm:"column:courseid;not null;index:grade_items_module_idx,priority:1" json:"courseid"`
	ItemType     string    `gorm:"column:itemtype;size:30;not null" json:"itemtype"`
	ItemModule   string    `gorm:"column:itemmodule;size:30;index:grade_items_module_idx,priority:2" json:"itemmodule"`
	ItemInstance uint      `gorm:"column:iteminstance;index:grade_items_module_idx,priority:3" json:"iteminstance"`
	ItemNumber   int       `gorm:"column:itemnumber;not null;default:0" json:"itemnumber"`
	ItemName     string    `gorm:"column:itemname;size:255" json:"itemname"`
	GradeType    GradeType `gorm:"column:gradetype;not null;default:1" json:"gradetype"`
	GradeMax     float64   `gorm:"column:grademax;not null;default:100" json:"grademax"`
	GradeMin     float64   `gorm:"column:grademin;not null;default:0" json:"grademin"`
	ScaleID      uint      `gorm:"column:scaleid" json:"scaleid"`
	TimeCreated  int64     `gorm:"column:timecreated;not null;default:0" json:"timecreated"`
	TimeModified int64     `gorm:"column:timemodified;not null;default:0" json:"timemodified"`
}

func (GradeItem) TableName() string {
	return "grade_items"
}

// GradeGrade 某个用户在成绩项上的最终成绩
type GradeGrade struct {
	ID           uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemID       uint     `gorm:"column:itemid;not null;uniqueIndex:grade_grades_item_user_uix,priority:1" json:"itemid"`
	UserID       uint     `gorm:"column:userid;not null;uniqueIndex:grade_grades_item_user_uix,priority:2" json:"userid"`
	FinalGrade   *float64 `gorm:"column:finalgrade" json:"finalgrade"`
	TimeModified int64    `gorm:"column:timemodified;not null;default:0" json:"timemodified"`
}

func (GradeGrade) TableName() string {
	return "grade_grades"
}
