package model

const EventTypeDue = "due"

// CalendarEvent 活动截止日期的日历事件
type CalendarEvent struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"column:name;size:255;not null" json:"name"`
	ModuleName   string `gorm:"column:modulename;size:20;not null;index:event_module_instance_idx,priority:1" json:"modulename"`
	Instance     uint   `gorm:"column:instance;not null;index:event_module_instance_idx,priority:2" json:"instance"`
	CourseID     uint   `gorm:"column:courseid;not null" json:"courseid"`
	EventType    string `gorm:"column:eventtype;size:20;not null" json:"eventtype"`
	TimeStart    int64  `gorm:"column:timestart;not null" json:"timestart"`
	TimeModified int64  `gorm:"column:timemodified;not null;default:0" json:"timemodified"`
}

func (CalendarEvent) TableName() string {
	return "event"
}

// 日志事件名
const (
	EventCourseModuleViewed = `\mod_eportfolio\event\course_module_viewed`
	EventGradeSaved         = `\mod_eportfolio\event\grade_saved`
	EventEPortfolioDeleted  = `\local_eportfolio\event\eportfolio_deleted`
)

// LogEntry 标准日志存储中的一条事件
type LogEntry struct {
	ID                uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	EventName         string `gorm:"column:eventname;size:255;not null" json:"eventname"`
	Component         string `gorm:"column:component;size:100;not null" json:"component"`
	Action            string `gorm:"column:action;size:100;not null" json:"action"`
	Target            string `gorm:"column:target;size:100;not null" json:"target"`
	CRUD              string `gorm:"column:crud;size:1;not null" json:"crud"`
	ObjectTable       string `gorm:"column:objecttable;size:50" json:"objecttable"`
	ObjectID          uint   `gorm:"column:objectid" json:"objectid"`
	ContextInstanceID uint   `gorm:"column:contextinstanceid;not null;default:0" json:"contextinstanceid"`
	UserID            uint   `gorm:"column:userid;not null;index" json:"userid"`
	CourseID          uint   `gorm:"column:courseid;not null;default:0" json:"courseid"`
	RelatedUserID     uint   `gorm:"column:relateduserid" json:"relateduserid"`
	Other             string `gorm:"column:other;type:text" json:"other"`
	TimeCreated       int64  `gorm:"column:timecreated;not null;index" json:"timecreated"`
}

func (LogEntry) TableName() string {
	return "logstore_standard_log"
}
