package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics counts snapshot cache lookups per tab.
type CacheMetrics struct {
	lookups *prometheus.CounterVec
}

// NewCacheMetrics registers the cache counters on the provided registerer.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: namespace + "_cache_lookups_total",
		Help: "Snapshot cache lookups by tab and result (hit, miss, error).",
	}, []string{"tab", "result"})
	reg.MustRegister(lookups)
	return &CacheMetrics{lookups: lookups}
}

func (c *CacheMetrics) IncHit(tab string)   { c.inc(tab, "hit") }
func (c *CacheMetrics) IncMiss(tab string)  { c.inc(tab, "miss") }
func (c *CacheMetrics) IncError(tab string) { c.inc(tab, "error") }

func (c *CacheMetrics) inc(tab, result string) {
	if c == nil || c.lookups == nil {
		return
	}
	c.lookups.WithLabelValues(normalizeLabel(tab), result).Inc()
}
