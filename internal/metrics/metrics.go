package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	signIns          *prometheus.CounterVec
	orderTransitions *prometheus.CounterVec
	uploads          *prometheus.CounterVec
	presenceConnects prometheus.Counter
	presenceDrops    prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopadmin_sign_in_total",
			Help: "Sign-in attempts by result",
		}, []string{"result"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopadmin_order_transitions_total",
			Help: "Order status transitions by target state",
		}, []string{"target"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopadmin_image_uploads_total",
			Help: "Product image batch uploads by result",
		}, []string{"result"}),
		presenceConnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopadmin_presence_connects_total",
			Help: "Presence websocket connections established",
		}),
		presenceDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopadmin_presence_disconnects_total",
			Help: "Presence websocket connections closed or dropped",
		}),
	}

	reg.MustRegister(
		c.signIns,
		c.orderTransitions,
		c.uploads,
		c.presenceConnects,
		c.presenceDrops,
	)

	return c
}

func (c *Collector) RecordSignIn(result string) {
	c.signIns.WithLabelValues(result).Inc()
}

func (c *Collector) RecordOrderTransition(target string) {
	c.orderTransitions.WithLabelValues(target).Inc()
}

func (c *Collector) RecordUpload(result string) {
	c.uploads.WithLabelValues(result).Inc()
}

func (c *Collector) RecordPresenceConnect() {
	c.presenceConnects.Inc()
}

func (c *Collector) RecordPresenceDisconnect() {
	c.presenceDrops.Inc()
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
