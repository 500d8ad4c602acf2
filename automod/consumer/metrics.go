package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var updatesReceivedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "telegram_updates_received",
	Help: "Number of updates received from Telegram",
})

var commandCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "telegram_commands",
	Help: "Number of bot commands received, by command",
}, []string{"command"})

var downloadCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "telegram_image_downloads",
	Help: "Number of image downloads, by HTTP status code or outcome",
}, []string{"status"})

var platformCallCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "telegram_api_calls",
	Help: "Number of Bot API calls made for moderation actions",
}, []string{"method", "status"})
