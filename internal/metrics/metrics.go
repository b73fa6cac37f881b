package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RefetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_refetch_total",
		Help: "Total number of full store refetches",
	}, []string{"store", "result"})
	WriteTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_write_total",
		Help: "Total number of store write operations",
	}, []string{"store", "op", "result"})
	UploadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_upload_total",
		Help: "Total number of asset uploads",
	}, []string{"result"})
	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "menu_upload_bytes",
		Help:    "Size of uploaded assets in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
	})
	RealtimeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_realtime_events_total",
		Help: "Total number of change notifications received",
	}, []string{"driver", "collection"})
)

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
