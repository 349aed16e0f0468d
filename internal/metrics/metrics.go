package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "converse_messages_sent_total",
		Help: "Messages persisted successfully.",
	})

	MessageRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "converse_message_write_retries_total",
		Help: "Message inserts retried after a write conflict.",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "converse_events_published_total",
		Help: "Pub/sub events published, by event name.",
	}, []string{"event"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "converse_ws_connections",
		Help: "Currently connected websocket clients.",
	})
)

// Handler exposes the Prometheus scrape endpoint as a fiber handler.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
