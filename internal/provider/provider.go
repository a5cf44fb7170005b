package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"AliceBridge/internal/config"
	"AliceBridge/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ErrEmptyResponse indicates the upstream answered without usable text
var ErrEmptyResponse = errors.New("empty response from upstream")

const maxErrorBody = 512

// APIError is returned when the upstream answers with a non-2xx status
type APIError struct {
	Provider   string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s - %s", e.Provider, e.Status, e.Body)
}

// Provider produces a reply for a dialog window
type Provider interface {
	// Complete sends the system instruction and history upstream and
	// returns the cleaned reply text
	Complete(ctx context.Context, system string, history []session.Message) (string, error)

	Name() string
	Model() string
}

// Option configures a provider
type Option func(*client)

// WithHTTPClient sets the HTTP client used for upstream calls
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithTracer sets the tracer for upstream spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *client) {
		c.tracer = tracer
	}
}

// WithMeter sets the meter for latency and usage metrics
func WithMeter(meter metric.Meter) Option {
	return func(c *client) {
		c.meter = meter
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *client) {
		c.logger = logger
	}
}

// WithSampling sets temperature and the reply token budget
func WithSampling(temperature float64, maxTokens int) Option {
	return func(c *client) {
		c.temperature = temperature
		c.maxTokens = maxTokens
	}
}

// New creates the provider for the variant's API family
func New(v config.Variant, apiKey string, opts ...Option) (Provider, error) {
	c := &client{
		name:        v.Name,
		family:      v.Family,
		endpoint:    v.Endpoint,
		model:       v.Model,
		apiKey:      apiKey,
		temperature: 0.7,
		maxTokens:   512,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		tracer:      tracenoop.NewTracerProvider().Tracer("alicebridge"),
		meter:       metricnoop.NewMeterProvider().Meter("alicebridge"),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	histogram, err := c.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	c.duration = histogram

	switch v.Family {
	case config.FamilyOpenAI:
		return &openAIProvider{c}, nil
	case config.FamilyAnthropic:
		return &anthropicProvider{c}, nil
	case config.FamilyTextGen:
		return &textGenProvider{c}, nil
	case config.FamilyOllama:
		return &ollamaProvider{c}, nil
	default:
		return nil, fmt.Errorf("unknown API family: %s", v.Family)
	}
}

// client holds what every API family needs to make one JSON call
type client struct {
	name        string
	family      string
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int

	httpClient *http.Client
	tracer     trace.Tracer
	meter      metric.Meter
	duration   metric.Float64Histogram
	logger     *slog.Logger
}

func (c *client) Name() string  { return c.name }
func (c *client) Model() string { return c.model }

func (c *client) startSpan(ctx context.Context) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, c.family+"_api_call", trace.WithAttributes(
		attribute.String("llm.provider", c.name),
		attribute.String("llm.model", c.model),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// postJSON marshals reqBody, POSTs it to the endpoint and decodes a 2xx reply into out
func (c *client) postJSON(ctx context.Context, headers map[string]string, reqBody, out interface{}) error {
	start := time.Now()

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.duration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(
		attribute.String("llm.provider", c.name),
		attribute.Int("http.response.status_code", resp.StatusCode),
	))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &APIError{
			Provider:   c.name,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// recordUsage records OpenTelemetry counters from a usage payload
func (c *client) recordUsage(ctx context.Context, usage map[string]interface{}) {
	for key, value := range usage {
		n, ok := value.(float64)
		if !ok {
			continue
		}
		counter, err := c.meter.Int64Counter(
			fmt.Sprintf("llm.usage.%s", key),
			metric.WithDescription(fmt.Sprintf("LLM usage metric: %s", key)),
		)
		if err != nil {
			c.logger.Warn("failed to create counter", "key", key, "error", err)
			continue
		}
		counter.Add(ctx, int64(n), metric.WithAttributes(attribute.String("llm.provider", c.name)))
	}
}

// finish cleans the raw reply and maps blank text to ErrEmptyResponse
func finish(raw string) (string, error) {
	reply := Clean(raw)
	if reply == "" {
		return "", ErrEmptyResponse
	}
	return reply, nil
}
