package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency = metric.NewHistogram("1m1s")

	PacketsReceived = metric.NewCounter("10s1s")
	PacketsSent     = metric.NewCounter("10s1s")
	SendErrors      = metric.NewCounter("10s1s")
	ProtocolErrors  = metric.NewCounter("10s1s")

	StaleInfos        = metric.NewCounter("10s1s")
	RouteRecomputes   = metric.NewCounter("10s1s")
	MessagesDelivered = metric.NewCounter("10s1s")
	MessagesFlooded   = metric.NewCounter("10s1s")
	MessagesExpired   = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("weft:DispatchLatency (µs)", DispatchLatency)
	expvar.Publish("weft:PacketsReceived/s", PacketsReceived)
	expvar.Publish("weft:PacketsSent/s", PacketsSent)
	expvar.Publish("weft:SendErrors/s", SendErrors)
	expvar.Publish("weft:ProtocolErrors/s", ProtocolErrors)
	expvar.Publish("weft:StaleInfos/s", StaleInfos)
	expvar.Publish("weft:RouteRecomputes/s", RouteRecomputes)
	expvar.Publish("weft:MessagesDelivered/s", MessagesDelivered)
	expvar.Publish("weft:MessagesFlooded/s", MessagesFlooded)
	expvar.Publish("weft:MessagesExpired/s", MessagesExpired)
}
