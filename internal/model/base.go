package model

import (
	"time"

	"github.com/google/uuid"
)

// 模块名与组件名，与宿主平台中的登记保持一致
const (
	ModuleName = "eportfolio"
	Component  = "mod_eportfolio"
)

// Now 返回 unix 秒级时间戳，表中 time* 字段均使用该精度
func Now() int64 {
	return time.Now().Unix()
}

func GenerateUUID() string {
	return uuid.New().String()
}
