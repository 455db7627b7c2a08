// Package metrics exports queue activity to Prometheus
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/haraqa/diskpipe"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ diskpipe.Metrics = &Prometheus{}

// Prometheus counts produced, consumed and reclaimed bytes per queue file
type Prometheus struct {
	produceCounter   prometheus.Counter
	produceBytes     prometheus.Counter
	produceHistogram prometheus.Observer
	consumeCounter   prometheus.Counter
	consumeBytes     prometheus.Counter
	consumeHistogram prometheus.Observer
	reclaimedBytes   prometheus.Counter
	wakeCounter      prometheus.Counter
}

// New registers the queue metrics for the queue at path with reg
func New(reg prometheus.Registerer, path string) (*Prometheus, error) {
	labels := prometheus.Labels{"queue": path}
	msgCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "diskpipe",
			Name:      "messages_total",
			Help:      "Number of messages appended to or delivered from the queue.",
		}, []string{"queue", "op"})
	byteCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "diskpipe",
			Name:      "payload_bytes_total",
			Help:      "Number of payload bytes appended to or delivered from the queue.",
		}, []string{"queue", "op"})
	sizeHistogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "diskpipe",
			Name:      "message_size_bytes",
			Help:      "Histogram of message payload sizes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}, []string{"queue", "op"})
	reclaimed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "diskpipe",
			Name:        "reclaimed_bytes_total",
			Help:        "Number of consumed bytes handed back to the filesystem.",
			ConstLabels: labels,
		})
	woken := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "diskpipe",
			Name:        "wakeups_total",
			Help:        "Number of times a following consumer was woken by a change to the queue file.",
			ConstLabels: labels,
		})

	for _, c := range []prometheus.Collector{msgCounter, byteCounter, sizeHistogram, reclaimed, woken} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register metrics")
		}
	}

	return &Prometheus{
		produceCounter:   msgCounter.WithLabelValues(path, "produce"),
		produceBytes:     byteCounter.WithLabelValues(path, "produce"),
		produceHistogram: sizeHistogram.WithLabelValues(path, "produce"),
		consumeCounter:   msgCounter.WithLabelValues(path, "consume"),
		consumeBytes:     byteCounter.WithLabelValues(path, "consume"),
		consumeHistogram: sizeHistogram.WithLabelValues(path, "consume"),
		reclaimedBytes:   reclaimed,
		wakeCounter:      woken,
	}, nil
}

func (p *Prometheus) Produced(n int64) {
	p.produceCounter.Inc()
	p.produceBytes.Add(float64(n))
	p.produceHistogram.Observe(float64(n))
}

func (p *Prometheus) Consumed(n int64) {
	p.consumeCounter.Inc()
	p.consumeBytes.Add(float64(n))
	p.consumeHistogram.Observe(float64(n))
}

func (p *Prometheus) Reclaimed(n int64) {
	p.reclaimedBytes.Add(float64(n))
}

func (p *Prometheus) Woken() {
	p.wakeCounter.Inc()
}

// Serve exposes the metrics gathered by g on /metrics at addr until ctx is
// done. The listener is bound before Serve returns, so address errors are
// reported straight away.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) (net.Addr, <-chan error, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "listen on %s", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan error, 1)
	go func() {
		err := srv.Serve(l)
		if err == http.ErrServerClosed {
			err = nil
		}
		done <- err
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return l.Addr(), done, nil
}
