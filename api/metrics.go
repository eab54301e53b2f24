package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	requestEventName   = "kanban.http.request"
	requestEventDomain = "kanban.api"
	requestSpanName    = "kanban.http.request"
	tracerName         = "kanban-board/api"
)

var (
	metricsRegistry = prometheus.NewRegistry()

	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kanban",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kanban",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	boardEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kanban",
		Subsystem: "api",
		Name:      "board_events_total",
		Help:      "Board events emitted by type.",
	}, []string{"type"})
)

func init() {
	metricsRegistry.MustRegister(requestsTotal, requestDuration, boardEventsTotal)
}

// requestMetrics records one HTTP request as a span, a structured log line
// and prometheus samples.
type requestMetrics struct {
	logger     *log.Logger
	span       trace.Span
	start      time.Time
	route      string
	method     string
	errorStage string
	attrs      map[string]any
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*requestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, requestSpanName, trace.WithSpanKind(trace.SpanKindServer))
	return &requestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
		route:  route,
		method: method,
		attrs:  map[string]any{},
	}, spanCtx
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if m == nil || stage == "" {
		return
	}
	m.errorStage = stage
}

// Set attaches an extra attribute under the kanban.http prefix.
func (m *requestMetrics) Set(key string, value any) {
	if m == nil {
		return
	}
	m.attrs["kanban.http."+key] = value
}

func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	elapsed := time.Since(m.start)
	totalMs := durationToMillis(elapsed)

	requestsTotal.WithLabelValues(m.route, m.method, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(m.route, m.method).Observe(elapsed.Seconds())

	severityText, severityNumber := severityForStatus(status, err)
	attrs := map[string]any{
		"http.route":           m.route,
		"http.method":          m.method,
		"http.status_code":     status,
		"kanban.http.total_ms": totalMs,
	}
	for k, v := range m.attrs {
		attrs[k] = v
	}
	if m.errorStage != "" {
		attrs["kanban.http.error_stage"] = m.errorStage
	}
	if err != nil {
		attrs["error.message"] = err.Error()
	}

	if m.span != nil {
		spanAttrs := toAttributes(attrs)
		m.span.SetAttributes(spanAttrs...)
		eventAttrs := append(spanAttrs,
			attribute.String("event.name", requestEventName),
			attribute.String("event.domain", requestEventDomain),
			attribute.String("severity_text", severityText),
			attribute.Int("severity_number", severityNumber),
		)
		m.span.AddEvent("observability.event", trace.WithAttributes(eventAttrs...))
		switch {
		case err != nil:
			m.span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusInternalServerError:
			m.span.SetStatus(codes.Error, http.StatusText(status))
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":      requestEventName,
		"event.domain":    requestEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attrs,
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.IsValid() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}
	entry := m.logger.WithFields(fields)
	switch severityText {
	case "ERROR":
		entry.Error("observability.event")
	case "WARN":
		entry.Warn("observability.event")
	default:
		entry.Info("observability.event")
	}
}

// severityForStatus maps a response to OpenTelemetry log severity.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func toAttributes(attrs map[string]any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			out = append(out, attribute.String(k, val))
		case int:
			out = append(out, attribute.Int(k, val))
		case int64:
			out = append(out, attribute.Int64(k, val))
		case float64:
			out = append(out, attribute.Float64(k, val))
		case bool:
			out = append(out, attribute.Bool(k, val))
		default:
			out = append(out, attribute.String(k, "unsupported"))
		}
	}
	return out
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
