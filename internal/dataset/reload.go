package dataset

import (
	"context"

	"copyright-map/internal/classify"
	"copyright-map/internal/logger"
	"copyright-map/internal/metrics"
	"copyright-map/internal/terms"
)

// Reloader：把加载结果写入 Holder，并记录日志与指标
type Reloader struct {
	Holder  *Holder
	Borders BorderSource
	Terms   terms.Source
}

// 文档注释：加载一次并切换
// 背景：启动、文件变更、管理端点三处共用；失败时保留旧快照继续服务。
// 约束：返回新快照或错误；错误已记录日志，调用方可直接忽略。
func (r *Reloader) Reload(ctx context.Context) (*Dataset, error) {
	d, err := Load(ctx, r.Borders, r.Terms)
	if err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues("error").Inc()
		logger.L().Error("dataset_load_error", "err", err, "keeping_previous", r.Holder.Get() != nil)
		return nil, err
	}
	r.Holder.Set(d)
	metrics.DatasetLoadsTotal.WithLabelValues("ok").Inc()
	metrics.DatasetFeatures.Set(float64(len(d.Borders.Features)))
	metrics.DatasetTerms.Set(float64(d.Terms.Len()))
	counts := classify.Counts(classify.Assign(d.Borders, d.Terms))
	for c, n := range counts {
		label := string(c)
		if c == classify.Unclassified {
			label = "unclassified"
		}
		metrics.ClassifiedFeatures.WithLabelValues(label).Set(float64(n))
	}
	logger.L().Info("dataset_load_ok",
		"features", len(d.Borders.Features),
		"terms", d.Terms.Len(),
		"unclassified", counts[classify.Unclassified],
		"fingerprint", d.Fingerprint,
	)
	return d, nil
}
