package nibblelink

/*------------------------------------------------------------------
 *
 * Purpose:	Transfer statistics: four monotonic counters and the
 *		derived error rate.
 *
 * Description:	Counters are independent atomics; no ordering between
 *		them is needed or implied.  There is no reset.
 *
 *		The same atomics can be exported as Prometheus counters
 *		when a metrics address is configured, so a long-running
 *		receiver can be scraped instead of read off the console.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Stats struct {
	bytes_sent      atomic.Int64
	bytes_received  atomic.Int64
	retransmissions atomic.Int64
	checksum_errors atomic.Int64
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) BytesSent() int64       { return s.bytes_sent.Load() }
func (s *Stats) BytesReceived() int64   { return s.bytes_received.Load() }
func (s *Stats) Retransmissions() int64 { return s.retransmissions.Load() }
func (s *Stats) ChecksumErrors() int64  { return s.checksum_errors.Load() }

/*------------------------------------------------------------------
 *
 * Name:	Print
 *
 * Purpose:	Print the counters and the derived error rate.  Each
 *		counter is read exactly once.
 *
 *------------------------------------------------------------------*/

func (s *Stats) Print() {
	var sent = s.bytes_sent.Load()
	var received = s.bytes_received.Load()
	var retrans = s.retransmissions.Load()
	var errors = s.checksum_errors.Load()

	text_color_set(DW_COLOR_INFO)
	dw_printf("Bytes sent:        %d\n", sent)
	dw_printf("Bytes received:    %d\n", received)
	dw_printf("Retransmissions:   %d\n", retrans)
	dw_printf("Checksum errors:   %d\n", errors)
	if sent > 0 {
		dw_printf("Error rate:        %.1f%%\n", float64(errors)*100.0/float64(sent))
	}
}

/*------------------------------------------------------------------
 *
 * Name:	Collectors
 *
 * Purpose:	Expose the counters as Prometheus collectors reading
 *		the same atomics Print reads.
 *
 * Inputs:	node	- Node identity label, "A" or "B".
 *
 *------------------------------------------------------------------*/

func (s *Stats) Collectors(node string) []prometheus.Collector {
	var labels = prometheus.Labels{"node": node}

	var counter = func(name string, help string, v *atomic.Int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   "nibblelink",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(v.Load()) })
	}

	return []prometheus.Collector{
		counter("bytes_sent_total", "Bytes acknowledged by the peer, control bytes included.", &s.bytes_sent),
		counter("bytes_received_total", "Bytes accepted and acked, control bytes included.", &s.bytes_received),
		counter("retransmissions_total", "ARQ retransmission attempts.", &s.retransmissions),
		counter("checksum_errors_total", "Received bytes failing CRC verification.", &s.checksum_errors),
	}
}

/*------------------------------------------------------------------
 *
 * Name:	ServeMetrics
 *
 * Purpose:	Serve /metrics for the given stats on addr.  Runs in
 *		the background; errors are reported on the console
 *		since the link itself keeps working without metrics.
 *
 *------------------------------------------------------------------*/

func ServeMetrics(addr string, node string, s *Stats) {
	var registry = prometheus.NewRegistry()
	registry.MustRegister(s.Collectors(node)...)

	var mux = http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		text_color_set(DW_COLOR_INFO)
		dw_printf("[%s] Serving metrics on %s\n", node, addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			text_color_set(DW_COLOR_ERROR)
			dw_printf("[%s] Metrics server failed: %s\n", node, fmt.Sprint(err))
		}
	}()
}
