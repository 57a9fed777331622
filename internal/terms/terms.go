// 包 terms：各国著作权保护期记录（国家编码 → 年限）的加载与查找
package terms

import (
	"context"
	"errors"
	"strings"
)

var ErrNotANumber = errors.New("terms: term is not a number")

// Record：一条保护期记录；Term 保留原始文本，由分类器在每次渲染时解析
type Record struct {
	Code string `json:"ccode"`
	Term string `json:"term"`
}

// Table：按加载顺序保存的只读记录表
// 约束：同一编码出现多次时以第一条为准，与线性查找语义一致。
type Table struct {
	records []Record
	index   map[string]int
}

// NewTable 复制记录并建立编码索引
func NewTable(records []Record) *Table {
	t := &Table{records: make([]Record, len(records)), index: make(map[string]int, len(records))}
	copy(t.records, records)
	for i, r := range t.records {
		if _, dup := t.index[r.Code]; !dup {
			t.index[r.Code] = i
		}
	}
	return t
}

// Find 返回与编码完全相等的第一条记录
func (t *Table) Find(code string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	i, ok := t.index[code]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}

// Records 返回记录副本
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Source：保护期数据来源（CSV 文件或数据库）
type Source interface {
	Load(ctx context.Context) (*Table, error)
}

// 文档注释：按整数前缀解析年限
// 背景：数据文件中的年限偶有 "70.5"、"95 years" 之类写法，取前导整数部分即可分类。
// 约束：允许前导空白与正负号；没有任何数字时返回 ErrNotANumber，调用方按未分类处理。
func ParseYears(s string) (int, error) {
	s = strings.TrimLeft(s, " \t\r\n\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		n = n*10 + int(s[digits]-'0')
		digits++
		if n > 1<<30 {
			break
		}
	}
	if digits == 0 {
		return 0, ErrNotANumber
	}
	if neg {
		n = -n
	}
	return n, nil
}
