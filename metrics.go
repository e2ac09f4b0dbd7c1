package rasterwrite

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rastersWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rasterwrite_rasters_written_total",
		Help: "The total number of rasters written",
	})
	rasterWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rasterwrite_raster_write_failures_total",
		Help: "The total number of raster writes that failed",
	})
	samplesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rasterwrite_samples_written_total",
		Help: "The total number of samples written",
	})
)
