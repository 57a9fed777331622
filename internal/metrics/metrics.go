package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RendersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "copymap_renders_total",
		Help: "Total map renders by format and outcome",
	}, []string{"format", "status"})
	RenderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "copymap_render_duration_ms",
		Help:    "Map render duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"format"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "copymap_redis_hits_total",
		Help: "Total redis svg cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "copymap_redis_misses_total",
		Help: "Total redis svg cache misses",
	})
	DatasetLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "copymap_dataset_loads_total",
		Help: "Dataset load attempts by outcome",
	}, []string{"status"})
	DatasetFeatures = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "copymap_dataset_features",
		Help: "Border features in the current dataset",
	})
	DatasetTerms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "copymap_dataset_terms",
		Help: "Term records in the current dataset",
	})
	ClassifiedFeatures = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "copymap_classified_features",
		Help: "Features per term class in the current dataset",
	}, []string{"class"})
)

func init() {
	prometheus.MustRegister(RendersTotal)
	prometheus.MustRegister(RenderDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(DatasetLoadsTotal)
	prometheus.MustRegister(DatasetFeatures)
	prometheus.MustRegister(DatasetTerms)
	prometheus.MustRegister(ClassifiedFeatures)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标，供 Prometheus 抓取；在主入口挂载到 API 前缀下的 /metrics。
func Handler() http.Handler { return promhttp.Handler() }
