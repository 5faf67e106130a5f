package util

import "errors"

var (
	ErrCourseModuleNotFound = errors.New("course module not found")
	ErrInstanceNotFound     = errors.New("activity instance not found")
	ErrCourseNotFound       = errors.New("course not found")
	ErrFileNotFound         = errors.New("file not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrGradeNotFound        = errors.New("grade not found")
	ErrShareNotFound        = errors.New("shared submission not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInstanceExists       = errors.New("an ePortfolio activity already exists in this course")
	ErrNotPortfolioCourse   = errors.New("course is not an ePortfolio course")
	ErrConfirmationMismatch = errors.New("withdrawal not confirmed")
	ErrSubmissionExists     = errors.New("this ePortfolio has already been submitted for grading")
)

// IsNotFound 是否属于需要直接终止请求的缺失类错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCourseModuleNotFound) ||
		errors.Is(err, ErrInstanceNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrFileNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrGradeNotFound) ||
		errors.Is(err, ErrShareNotFound)
}
