package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	promhttppkg "github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	FieldErrorCode = "error_code"
	FieldReason    = "reason"
	FieldKind      = "kind"
	FieldOutcome   = "outcome"

	ValueNoError = ""

	Namespace     = "usage_ingestion"
	SubIngestion  = "ingestion"
	SubValidation = "validation"
	SubBuffer     = "buffer"
	SubPublisher  = "publisher"
	SubHTTP       = "http"
)

// CounterOpts is a type alias for prometheus.CounterOpts.
type CounterOpts = prometheus.CounterOpts

// GaugeOpts is a type alias for prometheus.GaugeOpts.
type GaugeOpts = prometheus.GaugeOpts

// HistogramOpts is a type alias for prometheus.HistogramOpts.
type HistogramOpts = prometheus.HistogramOpts

// DefBuckets is a re-export of prometheus.DefBuckets.
var DefBuckets = prometheus.DefBuckets

// ExponentialBuckets is a re-export of prometheus.ExponentialBuckets.
var ExponentialBuckets = prometheus.ExponentialBuckets

// NewCounter creates a new Counter registered with the default registry.
var NewCounter = promauto.NewCounter

// NewCounterVec creates a new CounterVec registered with the default registry.
var NewCounterVec = promauto.NewCounterVec

// NewGauge creates a new Gauge registered with the default registry.
var NewGauge = promauto.NewGauge

// NewHistogramVec creates a new HistogramVec registered with the default registry.
var NewHistogramVec = promauto.NewHistogramVec

// NewHistogram creates a new Histogram registered with the default registry.
var NewHistogram = promauto.NewHistogram

type promHTTP struct{}

// Handler returns an http.Handler for the Prometheus metrics endpoint.
func (promHTTP) Handler() http.Handler {
	return promhttppkg.Handler()
}

// PromHTTP exposes the promhttp handler as metrics.PromHTTP.Handler().
var PromHTTP = promHTTP{}
