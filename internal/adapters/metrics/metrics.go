package metrics

import "github.com/prometheus/client_golang/prometheus"

// Noop implements the metrics port without emitting anything.
type Noop struct{}

func (Noop) IncURLIssued()      {}
func (Noop) IncDenied(_ string) {}

// Prom records issuance outcomes as Prometheus counters.
type Prom struct {
	urlsIssued prometheus.Counter
	denied     *prometheus.CounterVec
}

func NewProm(namespace string) *Prom {
	return &Prom{
		urlsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_urls_issued_total",
			Help:      "Signed download URLs issued",
		}),
		denied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_denied_total",
			Help:      "Download requests refused, by reason",
		}, []string{"reason"}),
	}
}

// Register attaches counters to the given registry. Using the default
// registerer keeps them visible on the shared /metrics endpoint.
func (p *Prom) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{p.urlsIssued, p.denied} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

func (p *Prom) IncURLIssued() { p.urlsIssued.Inc() }

func (p *Prom) IncDenied(reason string) { p.denied.WithLabelValues(reason).Inc() }
