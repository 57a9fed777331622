package migrate

import (
	"context"
	"database/sql"

	"copyright-map/internal/logger"
)

// Statements 建表语句，按顺序执行
var Statements = []string{
	`CREATE TABLE IF NOT EXISTS _copyright_terms (
            ccode TEXT PRIMARY KEY,
            term TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
	`CREATE TABLE IF NOT EXISTS _map_render_stats_total (
            id INT PRIMARY KEY,
            renders BIGINT NOT NULL DEFAULT 0
        )`,
	`CREATE TABLE IF NOT EXISTS _map_render_stats_daily (
            day DATE PRIMARY KEY,
            renders BIGINT NOT NULL DEFAULT 0
        )`,
	`INSERT INTO _map_render_stats_total(id, renders)
         VALUES(1, 0)
         ON CONFLICT (id) DO NOTHING`,
}

// 背景：首次运行自动创建保护期表与渲染统计表
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range Statements {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
