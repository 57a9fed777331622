// 包 dataset：边界与保护期数据的加载、原子切换与文件变更重载
package dataset

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"copyright-map/internal/borders"
	"copyright-map/internal/render"
	"copyright-map/internal/terms"

	"github.com/cespare/xxhash/v2"
)

// BorderSource：边界数据来源
type BorderSource interface {
	Load(ctx context.Context) (*borders.Collection, error)
}

// Dataset：一次成功加载的只读快照
type Dataset struct {
	Borders     *borders.Collection
	Terms       *terms.Table
	Fingerprint string
	LoadedAt    time.Time
}

// RenderData 转为渲染输入
func (d *Dataset) RenderData() render.Data {
	return render.Data{Borders: d.Borders, Terms: d.Terms}
}

// 文档注释：按"先边界、后保护期"的顺序加载
// 背景：首次渲染必须等两份数据都就绪；任一失败即整体失败，由调用方决定保留旧快照或等待重试。
// 约束：不做重试；指纹覆盖要素编码与全部记录，用作缓存键的一部分。
func Load(ctx context.Context, bs BorderSource, ts terms.Source) (*Dataset, error) {
	b, err := bs.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load borders: %w", err)
	}
	t, err := ts.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load terms: %w", err)
	}
	return &Dataset{Borders: b, Terms: t, Fingerprint: fingerprint(b, t), LoadedAt: time.Now()}, nil
}

func fingerprint(b *borders.Collection, t *terms.Table) string {
	h := xxhash.New()
	for _, f := range b.Features {
		_, _ = h.WriteString(f.ID)
		_, _ = h.WriteString("\x00")
		n := 0
		for _, p := range f.Polys {
			for _, r := range p.Rings {
				n += len(r)
			}
		}
		_, _ = h.WriteString(strconv.Itoa(n))
		for _, v := range f.BBox {
			_, _ = h.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		_, _ = h.WriteString("\x1f")
	}
	_, _ = h.WriteString("\x1e")
	for _, r := range t.Records() {
		_, _ = h.WriteString(r.Code)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(r.Term)
		_, _ = h.WriteString("\x1f")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// 文档注释：当前数据集持有者
// 背景：与本地缓存的动态包装器相同思路，通过原子指针无锁切换，重载期间读路径不阻塞。
// 约束：首次加载成功前 Get 返回 nil，表示地图尚不可渲染。
type Holder struct {
	v atomic.Pointer[Dataset]
}

func (h *Holder) Get() *Dataset { return h.v.Load() }

// Set 切换到新数据集；nil 被忽略，避免误清空
func (h *Holder) Set(d *Dataset) {
	if d == nil {
		return
	}
	h.v.Store(d)
}
