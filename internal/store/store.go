// 包 store：保护期记录与渲染统计的 Postgres 存取
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"copyright-map/internal/logger"
	"copyright-map/internal/terms"
)

type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// 文档注释：读取全部保护期记录（实现 terms.Source）
// 背景：TERMS_SOURCE=postgres 时以数据库为准，便于运营侧直接改表；由 terms-import 工具从 CSV 初始化。
// 约束：按编码排序返回，保证同一数据得到同一指纹。
func (s *Store) Load(ctx context.Context) (*terms.Table, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ccode, term FROM _copyright_terms ORDER BY ccode`)
	if err != nil {
		return nil, fmt.Errorf("query terms: %w", err)
	}
	defer rows.Close()
	var recs []terms.Record
	for rows.Next() {
		var r terms.Record
		if err := rows.Scan(&r.Code, &r.Term); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("store_terms_loaded", "count", len(recs))
	return terms.NewTable(recs), nil
}

// 文档注释：批量写入保护期记录
// 背景：导入工具在单个事务内完成，失败整体回滚，避免表中出现半份数据。
// 约束：编码冲突时覆盖年限并刷新 updated_at；空编码跳过；返回实际写入条数。
func (s *Store) UpsertTerms(ctx context.Context, t *terms.Table) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range t.Records() {
		if r.Code == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _copyright_terms(ccode, term)
            VALUES($1, $2)
            ON CONFLICT (ccode) DO UPDATE SET term=EXCLUDED.term, updated_at=now()`, r.Code, r.Term); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("upsert %s: %w", r.Code, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// IncrRenders 累加总渲染次数与当日渲染次数
func (s *Store) IncrRenders(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE _map_render_stats_total SET renders=renders+1 WHERE id=1`); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO _map_render_stats_daily(day, renders)
        VALUES(current_date, 1)
        ON CONFLICT (day) DO UPDATE SET renders=_map_render_stats_daily.renders+1`)
	return err
}

type Totals struct {
	Total int64 `json:"total"`
	Today int64 `json:"today"`
}

// GetTotals 当日尚无记录时 Today 为 0
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	if err := s.db.QueryRowContext(ctx, `SELECT renders FROM _map_render_stats_total WHERE id=1`).Scan(&t.Total); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT renders FROM _map_render_stats_daily WHERE day=current_date`).Scan(&t.Today); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today)
	return &t, nil
}
