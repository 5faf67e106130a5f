package model

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

const (
	FileAreaEPortfolio = "eportfolio"
	// 目录占位记录的文件名
	DirectoryFilename = "."

	// 已部署 H5P 的解包内容位于系统上下文的 core_h5p/content 文件区，itemid 为 h5p.id
	H5PContentContextID uint = 1
	H5PContentComponent      = "core_h5p"
	H5PContentFileArea       = "content"
)

// SubmissionFile 提交文件元数据，内容存放在 StorageProvider 中
type SubmissionFile struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ContextID    uint   `gorm:"column:contextid;not null;index:files_area_idx,priority:1" json:"contextid"`
	Component    string `gorm:"column:component;size:100;not null;index:files_area_idx,priority:2" json:"component"`
	FileArea     string `gorm:"column:filearea;size:50;not null;index:files_area_idx,priority:3" json:"filearea"`
	ItemID       uint   `gorm:"column:itemid;not null;default:0" json:"itemid"`
	FilePath     string `gorm:"column:filepath;size:255;not null;default:'/'" json:"filepath"`
	Filename     string `gorm:"column:filename;size:255;not null" json:"filename"`
	PathnameHash string `gorm:"column:pathnamehash;size:40;not null;uniqueIndex" json:"pathnamehash"`
	UserID       uint   `gorm:"column:userid;index" json:"userid"`
	MimeType     string `gorm:"column:mimetype;size:100" json:"mimetype"`
	FileSize     int64  `gorm:"column:filesize;not null;default:0" json:"filesize"`
	ObjectKey    string `gorm:"column:objectkey;size:255" json:"-"`
	TimeCreated  int64  `gorm:"column:timecreated;not null;default:0" json:"timecreated"`
	TimeModified int64  `gorm:"column:timemodified;not null;default:0" json:"timemodified"`
}

func (SubmissionFile) TableName() string {
	return "files"
}

func (f *SubmissionFile) IsDirectory() bool {
	return f.Filename == DirectoryFilename
}

// PathnameHash 与宿主文件存储相同的定位哈希
func PathnameHash(contextID uint, component, fileArea string, itemID uint, filePath, filename string) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("/%d/%s/%s/%d%s%s", contextID, component, fileArea, itemID, filePath, filename)))
	return hex.EncodeToString(sum[:])
}

// H5PContent 已部署的 H5P 内容，记录标题和真实的创建/修改时间
type H5PContent struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PathnameHash string `gorm:"column:pathnamehash;size:40;not null;uniqueIndex" json:"pathnamehash"`
	Title        string `gorm:"column:title;size:255" json:"title"`
	MainLibrary  string `gorm:"column:mainlibrary;size:255" json:"mainlibrary"`
	TimeCreated  int64  `gorm:"column:timecreated;not null;default:0" json:"timecreated"`
	TimeModified int64  `gorm:"column:timemodified;not null;default:0" json:"timemodified"`
}

func (H5PContent) TableName() string {
	return "h5p"
}
