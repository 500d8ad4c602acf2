package visual

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ocrAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "automod_ocr_api_duration_sec",
	Help: "Duration of image text extraction API calls",
})

var ocrAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_ocr_api_count",
	Help: "Number of image text extraction API calls, by HTTP status code",
}, []string{"status"})

var ocrPreScreenSkip = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_ocr_prescreen_skip_count",
	Help: "Number of images not sent for text extraction, by reason",
}, []string{"reason"})
