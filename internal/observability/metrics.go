package observability

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/tutorbridge-backend/internal/platform/envutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

// Metrics holds the process-wide Prometheus series. A nil *Metrics is a
// valid no-op, so callers never check Enabled themselves.
type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	apiInflight  *Gauge
	apiReqTotal  *Counter
	apiReqError  *Counter
	llmRequests  *CounterVec
	llmLatency   *HistogramVec
	llmTokens    *CounterVec
	toolCalls    *CounterVec
	toolLatency  *HistogramVec
	toolBlocked  *CounterVec
	guardResults *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the shared instance when METRICS_ENABLED is set.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("tb_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"tb_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		),
		apiInflight: NewGauge("tb_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("tb_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("tb_api_requests_error_total", "API requests answered with a 5xx status."),
		llmRequests: NewCounterVec("tb_llm_requests_total", "Model calls by model/status.", []string{"model", "status"}),
		llmLatency: NewHistogramVec(
			"tb_llm_request_duration_seconds",
			"Model call latency in seconds by model/status.",
			[]string{"model", "status"},
			[]float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		),
		llmTokens: NewCounterVec("tb_llm_tokens_total", "Model tokens by model/kind.", []string{"model", "kind"}),
		toolCalls: NewCounterVec("tb_tool_calls_total", "Agent tool calls by tool/status.", []string{"tool", "status"}),
		toolLatency: NewHistogramVec(
			"tb_tool_call_duration_seconds",
			"Agent tool call latency in seconds by tool.",
			[]string{"tool"},
			[]float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15, 60},
		),
		toolBlocked:  NewCounterVec("tb_tool_blocked_total", "Tool calls rejected by the workflow by tool/required_step.", []string{"tool", "required_step"}),
		guardResults: NewCounterVec("tb_generation_guard_total", "Generation guard results by source.", []string{"source"}),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	series := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.toolCalls, m.toolLatency, m.toolBlocked, m.guardResults,
	}
	for _, s := range series {
		if err := s.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(model, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = "unknown"
	}
	m.llmRequests.Inc(model, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), model, status)
	}
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), model, "output")
	}
}

func (m *Metrics) ObserveToolCall(tool string, success bool, dur time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if !success {
		status = "failed"
	}
	m.toolCalls.Inc(tool, status)
	m.toolLatency.Observe(dur.Seconds(), tool)
}

func (m *Metrics) IncToolBlocked(tool, requiredStep string) {
	if m == nil {
		return
	}
	m.toolBlocked.Inc(tool, requiredStep)
}

func (m *Metrics) IncGuardResult(source string) {
	if m == nil {
		return
	}
	m.guardResults.Inc(source)
}
