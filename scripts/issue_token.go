// 为宿主平台中的用户签发访问令牌
//
// 页面与接口都依赖宿主签发的 JWT。本地调试或联调时可用此脚本
// 直接为某个用户生成令牌，放入 Authorization 头或 eportfolio_token cookie。
//
// 用法: go run scripts/issue_token.go -user teacher [-hours 8]

package main

import (
	"context"
	"eportfolio_grading/internal/config"
	"eportfolio_grading/internal/repository"
	"eportfolio_grading/internal/util"
	"eportfolio_grading/pkg/database"
	"eportfolio_grading/pkg/logger"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

func main() {
	username := flag.String("user", "", "用户名")
	hours := flag.Int("hours", 8, "有效期（小时）")
	configFile := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	if *username == "" {
		log.Fatal("必须指定 -user")
	}

	data, err := os.ReadFile(*configFile)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	user, err := repository.NewUserRepository(db).FindByUsername(context.Background(), *username)
	if err != nil {
		log.Fatalf("找不到用户 %s: %v", *username, err)
	}

	token, err := util.GenerateJWT(user, cfg.JWT.Secret, time.Duration(*hours)*time.Hour)
	if err != nil {
		log.Fatalf("签发令牌失败: %v", err)
	}

	fmt.Println(token)
}
