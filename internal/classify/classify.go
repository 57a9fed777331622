// 包 classify：把保护期年限划入五个有序区间，作为地图着色用的样式类名
package classify

import (
	"copyright-map/internal/borders"
	"copyright-map/internal/terms"
)

// Class 即渲染时写入 path 的 class 属性
type Class string

const (
	Unclassified Class = ""
	Less         Class = "term-less"
	Fifty        Class = "term-50"
	Middle       Class = "term-middle"
	Seventy      Class = "term-70"
	More         Class = "term-more"
)

// Classes 按区间顺序列出全部有效类（不含未分类）
var Classes = []Class{Less, Fifty, Middle, Seventy, More}

// 文档注释：年限分桶
// 约束：50 与 70 只落入精确相等的桶，每个值恰好属于一个桶。
func Years(y int) Class {
	switch {
	case y < 50:
		return Less
	case y == 50:
		return Fifty
	case y < 70:
		return Middle
	case y == 70:
		return Seventy
	default:
		return More
	}
}

// Feature 按编码查找记录并分桶；无记录或年限无法解析时为未分类
func Feature(id string, t *terms.Table) Class {
	if id == "" {
		return Unclassified
	}
	rec, ok := t.Find(id)
	if !ok {
		return Unclassified
	}
	y, err := terms.ParseYears(rec.Term)
	if err != nil {
		return Unclassified
	}
	return Years(y)
}

// 文档注释：为全部要素计算类名
// 背景：每次渲染重新计算，不缓存；相同输入总得到相同结果。
// 约束：同一编码的多个要素得到相同类；空编码要素一律未分类。
func Assign(c *borders.Collection, t *terms.Table) map[string]Class {
	out := make(map[string]Class, len(c.Features))
	for _, f := range c.Features {
		if f.ID == "" {
			continue
		}
		out[f.ID] = Feature(f.ID, t)
	}
	return out
}

// Counts 统计各类要素数量，未分类计入 "" 键
func Counts(assign map[string]Class) map[Class]int {
	out := make(map[Class]int, len(Classes)+1)
	for _, c := range Classes {
		out[c] = 0
	}
	out[Unclassified] = 0
	for _, c := range assign {
		out[c]++
	}
	return out
}

// Label 图例文字
func (c Class) Label() string {
	switch c {
	case Less:
		return "< 50 years"
	case Fifty:
		return "50 years"
	case Middle:
		return "51–69 years"
	case Seventy:
		return "70 years"
	case More:
		return "> 70 years"
	}
	return "no data"
}
