package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"copyright-map/internal/logger"
	"copyright-map/internal/migrate"
	"copyright-map/internal/store"
	"copyright-map/internal/terms"
	"copyright-map/internal/utils"

	"github.com/joho/godotenv"
)

// 文档注释：把保护期 CSV 导入 Postgres
// 背景：TERMS_SOURCE=postgres 时服务从 _copyright_terms 读取；本工具负责初始化与批量更新，表不存在时先建表。
// 约束：单事务写入，失败整体回滚；重复编码以 CSV 中首次出现的记录为准。
func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	path := os.Getenv("TERMS_PATH")
	if path == "" {
		path = filepath.Join("data", "copyright-terms.csv")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	t, err := terms.CSVSource{Path: path}.Load(ctx)
	if err != nil {
		l.Error("terms_read_error", "path", path, "err", err)
		os.Exit(1)
	}
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	n, err := store.AttachDB(db).UpsertTerms(ctx, t)
	if err != nil {
		l.Error("terms_import_error", "err", err)
		os.Exit(1)
	}
	l.Info("terms_import_ok", "path", path, "rows", n)
}
