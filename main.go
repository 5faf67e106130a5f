// @title ePortfolio 评分 API
// @version 1.0
// @description 课程 ePortfolio 提交的评分、查看与撤回服务。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name GPL 3.0
// @license.url https://www.gnu.org/licenses/gpl-3.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"eportfolio_grading/internal/app"
	"eportfolio_grading/internal/config"
	"eportfolio_grading/pkg/logger"
	"flag"
	"log"

	"go.uber.org/zap"
)

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	uninstall := flag.Bool("uninstall", false, "删除插件写入宿主表的数据后退出")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly
	cfg.Uninstall = *uninstall

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		logger.Log.Info("数据库迁移完成，退出程序")
		return
	}

	if cfg.Uninstall {
		if err := application.Uninstall(context.Background()); err != nil {
			logger.Log.Fatal("Uninstall failed", zap.Error(err))
		}
		logger.Log.Info("插件数据已清理，退出程序")
		return
	}

	application.Run()
}
