package terms

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	codeColumn = "ccode"
	termColumn = "term"
)

// 文档注释：读取保护期 CSV（首行为表头）
// 背景：数据文件为 "ccode,term" 两列的平面表，列顺序不固定，允许额外列。
// 约束：表头大小写不敏感；缺少 ccode 或 term 列时报错；列数不足的行跳过。
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read terms header: empty file")
		}
		return nil, fmt.Errorf("read terms header: %w", err)
	}
	codeIdx, termIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case codeColumn:
			codeIdx = i
		case termColumn:
			termIdx = i
		}
	}
	if codeIdx < 0 || termIdx < 0 {
		return nil, fmt.Errorf("read terms header: need %q and %q columns, got %v", codeColumn, termColumn, header)
	}
	var recs []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read terms row: %w", err)
		}
		if codeIdx >= len(row) || termIdx >= len(row) {
			continue
		}
		recs = append(recs, Record{Code: strings.TrimSpace(row[codeIdx]), Term: row[termIdx]})
	}
	return NewTable(recs), nil
}

// CSVSource 从本地 CSV 文件加载
type CSVSource struct {
	Path string
}

func (s CSVSource) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return t, nil
}
