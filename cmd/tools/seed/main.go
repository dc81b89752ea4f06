package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"promptlab/internal/config"
	"promptlab/internal/infra"
	"promptlab/internal/logger"
	"promptlab/internal/shortcut"

	"go.uber.org/zap"
)

// 快捷指令种子导入工具
// 用法: go run ./cmd/tools/seed -file database/seed_shortcuts.yaml
func main() {
	var file string
	flag.StringVar(&file, "file", "", "种子文件路径，缺省取配置 seed.shortcuts_file")
	flag.Parse()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	cfg, err := config.Load(env, "")
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if file == "" {
		file = cfg.Seed.ShortcutsFile
	}
	if file == "" {
		logger.Fatal("未指定种子文件，请通过 -file 或配置 seed.shortcuts_file 提供")
	}

	db, err := infra.InitDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer infra.CloseDatabase()

	if err := db.AutoMigrate(&shortcut.Shortcut{}); err != nil {
		logger.Fatal("迁移快捷指令表失败", zap.Error(err))
	}

	result, err := shortcut.NewService(db).SeedFromFile(context.Background(), file)
	if err != nil {
		logger.Fatal("种子导入失败", zap.Error(err))
	}

	fmt.Printf("导入完成: 新增 %d 条, 跳过 %d 条\n", result.Added, result.Skipped)
}
