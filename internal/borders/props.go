package borders

import (
	"encoding/json"
	"strconv"
	"strings"
)

// 要素属性中可作为编码/名称的字段，按优先级排列（Natural Earth 大小写两种写法都出现过）
var (
	idKeys     = []string{"iso_a3", "ISO_A3", "adm0_a3", "ADM0_A3"}
	alpha2Keys = []string{"iso_a2", "ISO_A2"}
	nameKeys   = []string{"name", "NAME", "admin", "ADMIN"}
)

// 文档注释：从 id 字段与属性表推导要素标识
// 背景：TopoJSON/GeoJSON 的 id 可能是字符串或数字；缺失时回退到 ISO 三位码属性。
// 约束：Natural Earth 用 "-99" 表示无编码，视为缺失。
func identify(rawID json.RawMessage, props map[string]any) (id, alpha2, name string) {
	id = rawIDString(rawID)
	if id == "" {
		id = firstProp(props, idKeys)
	}
	alpha2 = firstProp(props, alpha2Keys)
	name = firstProp(props, nameKeys)
	return id, alpha2, name
}

func rawIDString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return validCode(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return validCode(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return ""
}

func firstProp(props map[string]any, keys []string) string {
	for _, k := range keys {
		if v := validCode(propString(props, k)); v != "" {
			return v
		}
	}
	return ""
}

func propString(m map[string]any, k string) string {
	switch v := m[k].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func validCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "-99" {
		return ""
	}
	return s
}
