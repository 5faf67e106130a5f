package util

const DateFormat = "02.01.2006"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// MimeH5P H5P 包本质是 zip
const MimeH5P = "application/zip"

var (
	AllowedSubmissionExtensions = []string{".h5p"}
)

// 页面动作
const (
	ActionView   = "view"
	ActionGrade  = "grade"
	ActionDelete = "delete"
)
