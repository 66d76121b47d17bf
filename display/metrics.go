package display

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// frameDuration measures the time UpdateDisplay takes.
	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scenesync",
		Subsystem: "display",
		Name:      "frame_duration_seconds",
		Help:      "Time spent in UpdateDisplay",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	// framesTotal counts completed frames.
	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scenesync",
		Subsystem: "display",
		Name:      "frames_total",
		Help:      "Total frames synchronized",
	})

	// disposedTotal counts disposals at the end of frames.
	// Labels: kind (instance, drawable, interval)
	disposedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scenesync",
		Subsystem: "display",
		Name:      "disposed_total",
		Help:      "Objects disposed at the end of a frame",
	}, []string{"kind"})

	// linksCommitted counts drawables whose links were committed.
	linksCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scenesync",
		Subsystem: "display",
		Name:      "links_committed_total",
		Help:      "Drawables whose pending links were committed",
	})

	// liveInstances tracks instances allocated from the arena.
	liveInstances = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "scenesync",
		Subsystem: "instance",
		Name:      "live",
		Help:      "Live instances in the arena",
	})

	// branchSwept counts branch memo entries dropped for recycled instances.
	branchSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scenesync",
		Subsystem: "instance",
		Name:      "branch_memo_swept_total",
		Help:      "Branch index memo entries dropped for recycled instances",
	})

	// bitmapCacheBytes tracks the bytes held by canvas cache bitmaps.
	bitmapCacheBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "scenesync",
		Subsystem: "drawable",
		Name:      "bitmap_cache_bytes",
		Help:      "Bytes held by canvas cache bitmaps",
	})
)

func recordFrame(s FrameStats) {
	frameDuration.Observe(s.Duration.Seconds())
	framesTotal.Inc()
	disposedTotal.WithLabelValues("instance").Add(float64(s.InstancesDisposed))
	disposedTotal.WithLabelValues("drawable").Add(float64(s.DrawablesDisposed))
	disposedTotal.WithLabelValues("interval").Add(float64(s.IntervalsDisposed))
	linksCommitted.Add(float64(s.LinksCommitted))
	liveInstances.Set(float64(s.LiveInstances))
	branchSwept.Add(float64(s.BranchSwept))
	bitmapCacheBytes.Set(float64(s.BitmapBytes))
}
