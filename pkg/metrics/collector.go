package metrics

import (
	"time"

	"github.com/mendhq/mend/pkg/history"
)

// Collector periodically samples the history store into gauges
type Collector struct {
	store  *history.Store
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(store *history.Store) *Collector {
	return &Collector{
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	stats := c.store.Stats()
	ErrorsUnresolved.Set(float64(stats.Total - stats.ResolvedCount))
}
