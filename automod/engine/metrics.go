package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("automod")

var messageProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "automod_message_duration_sec",
	Help: "Total duration of automod message processing",
})

var messageProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_message_processed",
	Help: "Number of messages processed, by verdict",
}, []string{"action", "reason"})

var messageErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_message_errors",
	Help: "Number of messages which failed processing",
})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_actions",
	Help: "Number of platform actions performed",
}, []string{"action", "reason"})

var actionFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_action_failures",
	Help: "Number of platform actions which failed",
}, []string{"action"})

var actionDuplicateCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_action_duplicates",
	Help: "Number of actions skipped because the message was already actioned",
}, []string{"class"})

var actionQuotaSkipCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_action_quota_skips",
	Help: "Number of actions skipped by the daily circuit breaker",
}, []string{"action"})

var reputationGrantCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_reputation_grants",
	Help: "Number of reputation points granted",
})

var collaboratorFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_collaborator_failures",
	Help: "Number of failed calls to admin lookup, text extraction, flood tracking, and notifiers",
}, []string{"collaborator"})

var ocrCacheHitCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automod_ocr_cache_hits",
	Help: "Number of image text extractions served from cache",
})
