package model

type ShareOption string

const (
	ShareOptionShare    ShareOption = "share"
	ShareOptionGrade    ShareOption = "grade"
	ShareOptionTemplate ShareOption = "template"
)

// Share 学生对 ePortfolio 的共享状态，shareoption=grade 表示提交评分
type Share struct {
	ID            uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint        `gorm:"column:userid;not null;index" json:"userid"`
	CourseID      uint        `gorm:"column:courseid;not null;index" json:"courseid"`
	CMID          uint        `gorm:"column:cmid;not null;default:0" json:"cmid"`
	FileID        uint        `gorm:"column:fileid;not null" json:"fileid"`
	FileIDContext uint        `gorm:"column:fileidcontext;not null;index" json:"fileidcontext"`
	ShareOption   ShareOption `gorm:"column:shareoption;size:20;not null" json:"shareoption"`
	ShareStart    int64       `gorm:"column:sharestart;not null;default:0" json:"sharestart"`
	ShareEnd      int64       `gorm:"column:shareend;not null;default:0" json:"shareend"`
	TimeCreated   int64       `gorm:"column:timecreated;not null;default:0" json:"timecreated"`
}

func (Share) TableName() string {
	return "local_eportfolio_share"
}

// SharedSubmission 共享评分列表中的一项，已关联文件与提交人
type SharedSubmission struct {
	ShareID          uint   `json:"shareId"`
	FileItemID       uint   `json:"fileItemId"`
	Filename         string `json:"filename"`
	FileTimeModified int64  `json:"fileTimeModified"`
	UserID           uint   `json:"userId"`
	UserFullName     string `json:"userFullName"`
	ShareStart       int64  `json:"shareStart"`
}
